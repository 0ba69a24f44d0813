package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// Utils envuelve los binarios ffmpeg/ffprobe instalados en el sistema.
type Utils struct {
	ffmpegPath  string
	ffprobePath string
}

// New crea un wrapper sobre los binarios indicados. Rutas vacías usan
// los nombres del PATH.
func New(ffmpegPath, ffprobePath string) *Utils {
	if strings.TrimSpace(ffmpegPath) == "" {
		ffmpegPath = "ffmpeg"
	}
	if strings.TrimSpace(ffprobePath) == "" {
		ffprobePath = "ffprobe"
	}
	return &Utils{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// ConvertToMP4 recodifica un video a MP4 (h264/aac) para que Telegram
// lo reproduzca inline. El archivo de salida se sobreescribe si existe.
func (u *Utils) ConvertToMP4(ctx context.Context, input, output string) error {
	args := convertArgs(input, output)
	return u.runFfmpeg(ctx, args)
}

// RemuxToMP4 cambia el contenedor a MP4 sin recodificar. Útil para
// streams TS que solo necesitan el bitstream filter de AAC.
func (u *Utils) RemuxToMP4(ctx context.Context, input, output string) error {
	args := remuxArgs(input, output)
	return u.runFfmpeg(ctx, args)
}

// Thumbnail extrae un frame del video y lo guarda como JPEG reducido,
// apto como thumb de Telegram (máximo 320px por lado).
func (u *Utils) Thumbnail(ctx context.Context, input, output string) error {
	framePath := output + ".frame.png"
	defer os.Remove(framePath)

	if err := u.runFfmpeg(ctx, thumbnailArgs(input, framePath)); err != nil {
		return err
	}

	frame, err := imaging.Open(framePath)
	if err != nil {
		return fmt.Errorf("open extracted frame: %w", err)
	}
	thumb := imaging.Fit(frame, 320, 320, imaging.Lanczos)

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return err
	}
	if err := imaging.Save(thumb, output, imaging.JPEGQuality(85)); err != nil {
		return fmt.Errorf("save thumbnail: %w", err)
	}
	return nil
}

// Duration devuelve la duración del archivo en segundos según ffprobe.
func (u *Utils) Duration(ctx context.Context, input string) (float64, error) {
	cmd := exec.CommandContext(ctx, u.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		input,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", input, err)
	}

	var dur float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur); err != nil {
		return 0, fmt.Errorf("ffprobe returned unparseable duration %q", string(out))
	}
	return dur, nil
}

func (u *Utils) runFfmpeg(ctx context.Context, args []string) error {
	logrus.Debugf("[FFMPEG] %s %s", u.ffmpegPath, strings.Join(args, " "))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, u.ffmpegPath, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLine(stderr.String()))
	}
	return nil
}

func convertArgs(input, output string) []string {
	return []string{
		"-y",
		"-i", input,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-movflags", "+faststart",
		"-f", "mp4",
		output,
	}
}

func remuxArgs(input, output string) []string {
	return []string{
		"-y",
		"-i", input,
		"-c", "copy",
		"-bsf:a", "aac_adtstoasc",
		"-f", "mp4",
		output,
	}
}

func thumbnailArgs(input, output string) []string {
	return []string{
		"-y",
		"-ss", "1",
		"-i", input,
		"-frames:v", "1",
		output,
	}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
