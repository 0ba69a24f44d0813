package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertArgs(t *testing.T) {
	args := convertArgs("in.webm", "out.mp4")

	assert.Contains(t, args, "-y", "debe sobreescribir sin preguntar")
	assert.Contains(t, args, "libx264")
	assert.Contains(t, args, "aac")
	assert.Equal(t, "out.mp4", args[len(args)-1])
}

func TestRemuxArgs(t *testing.T) {
	args := remuxArgs("in.ts", "out.mp4")

	assert.Contains(t, args, "copy", "remux no debe recodificar")
	assert.Contains(t, args, "aac_adtstoasc")
}

func TestThumbnailArgs(t *testing.T) {
	args := thumbnailArgs("video.mp4", "frame.png")

	// -ss antes de -i para seek rápido
	assert.Less(t, indexOf(args, "-ss"), indexOf(args, "-i"))
	assert.Contains(t, args, "-frames:v")
}

func TestNewUsaPathPorDefecto(t *testing.T) {
	u := New("", "")
	assert.Equal(t, "ffmpeg", u.ffmpegPath)
	assert.Equal(t, "ffprobe", u.ffprobePath)

	custom := New("/opt/bin/ffmpeg", "/opt/bin/ffprobe")
	assert.Equal(t, "/opt/bin/ffmpeg", custom.ffmpegPath)
}

func TestLastLine(t *testing.T) {
	assert.Equal(t, "tercera", lastLine("primera\nsegunda\ntercera\n"))
	assert.Equal(t, "", lastLine(""))
}

func indexOf(args []string, val string) int {
	for i, a := range args {
		if a == val {
			return i
		}
	}
	return -1
}
