package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/AzielCF/az-mediaext/pkg/ffmpeg"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// VideoInfo es el subconjunto del JSON de yt-dlp que usa el bot.
type VideoInfo struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Extractor      string  `json:"extractor"`
	Ext            string  `json:"ext"`
	Duration       float64 `json:"duration"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
	Thumbnail      string  `json:"thumbnail"`
	WebpageURL     string  `json:"webpage_url"`
}

// Size devuelve el tamaño reportado, exacto o aproximado.
func (v VideoInfo) Size() int64 {
	if v.Filesize > 0 {
		return v.Filesize
	}
	return v.FilesizeApprox
}

// Helper descarga videos con yt-dlp y los normaliza a MP4 con ffmpeg.
type Helper struct {
	execPath string
	tempDir  string
	maxSize  int64
	ffmpeg   *ffmpeg.Utils
}

// NewHelper crea el helper. maxSize limita el tamaño declarado del
// video; cero desactiva el límite.
func NewHelper(execPath, tempDir string, maxSize int64, ff *ffmpeg.Utils) *Helper {
	if strings.TrimSpace(execPath) == "" {
		execPath = "yt-dlp"
	}
	if strings.TrimSpace(tempDir) == "" {
		tempDir = os.TempDir()
	}
	return &Helper{execPath: execPath, tempDir: tempDir, maxSize: maxSize, ffmpeg: ff}
}

// VideoInfo consulta los metadatos sin descargar nada.
func (h *Helper) VideoInfo(ctx context.Context, rawURL string) (VideoInfo, error) {
	out, err := h.run(ctx, infoArgs(rawURL))
	if err != nil {
		return VideoInfo{}, fmt.Errorf("yt-dlp info for %s: %w", rawURL, err)
	}
	return parseVideoInfo(out)
}

// Download baja el video y lo deja como MP4 en el directorio temporal.
// Devuelve la ruta del archivo resultante; el caller es responsable de
// borrarlo.
func (h *Helper) Download(ctx context.Context, rawURL string) (string, VideoInfo, error) {
	info, err := h.VideoInfo(ctx, rawURL)
	if err != nil {
		return "", VideoInfo{}, err
	}

	if h.maxSize > 0 && info.Size() > h.maxSize {
		return "", info, fmt.Errorf("video is too big: %s (limit %s)",
			humanize.Bytes(uint64(info.Size())), humanize.Bytes(uint64(h.maxSize)))
	}

	base := filepath.Join(h.tempDir, uuid.NewString())
	rawOutput := base + ".%(ext)s"

	logrus.Infof("[YTDLP] Downloading %s (%s, %s)", rawURL, info.Title, humanize.Bytes(uint64(info.Size())))
	if _, err := h.run(ctx, downloadArgs(rawURL, rawOutput)); err != nil {
		return "", info, fmt.Errorf("yt-dlp download for %s: %w", rawURL, err)
	}

	downloaded, err := findDownloaded(base)
	if err != nil {
		return "", info, err
	}

	// Ya es un MP4: no hay nada que normalizar
	if strings.EqualFold(filepath.Ext(downloaded), ".mp4") {
		return downloaded, info, nil
	}

	final := base + ".mp4"
	// Primero remux (solo cambia el contenedor); si los códecs no
	// caben en MP4, recodificar completo.
	if err := h.ffmpeg.RemuxToMP4(ctx, downloaded, final); err != nil {
		logrus.WithError(err).Debugf("[YTDLP] Remux of %s failed, re-encoding", downloaded)
		if err := h.ffmpeg.ConvertToMP4(ctx, downloaded, final); err != nil {
			_ = os.Remove(downloaded)
			return "", info, err
		}
	}
	_ = os.Remove(downloaded)
	return final, info, nil
}

func (h *Helper) run(ctx context.Context, args []string) ([]byte, error) {
	logrus.Debugf("[YTDLP] %s %s", h.execPath, strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, h.execPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func infoArgs(rawURL string) []string {
	return []string{
		"--dump-json",
		"--no-playlist",
		rawURL,
	}
}

func downloadArgs(rawURL, output string) []string {
	return []string{
		"--no-playlist",
		"--retries", "10",
		"--output", output,
		rawURL,
	}
}

func parseVideoInfo(raw []byte) (VideoInfo, error) {
	var info VideoInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return VideoInfo{}, fmt.Errorf("parse yt-dlp json: %w", err)
	}
	return info, nil
}

// findDownloaded localiza el archivo que yt-dlp produjo para un prefijo
// dado, ya que la extensión final depende del extractor.
func findDownloaded(base string) (string, error) {
	matches, err := filepath.Glob(base + ".*")
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("yt-dlp produced no file for %s", base)
	}
	return matches[0], nil
}
