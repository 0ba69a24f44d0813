package urlclassify

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/AzielCF/az-mediaext/pkg/mediagroup"
)

// Kind es la categoría de una URL entrante; decide qué pipeline de
// descarga se usa.
type Kind string

const (
	KindTweet   Kind = "tweet"
	KindYoutube Kind = "youtube"
	KindBinary  Kind = "binary"
	KindGeneric Kind = "generic" // se intenta con yt-dlp como último recurso
)

var urlPattern = regexp.MustCompile(`(https?://[^\s]+)`)

// ExtractURL devuelve la primera URL contenida en un texto, o cadena
// vacía si no hay ninguna.
func ExtractURL(text string) string {
	return urlPattern.FindString(text)
}

// Classify decide el pipeline para una URL. El orden importa: tweets y
// videos de YouTube tienen extractores dedicados, las extensiones de
// archivo conocidas se bajan directo y el resto se delega a yt-dlp.
func Classify(rawURL string) Kind {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return KindGeneric
	}

	switch {
	case IsTweetURL(u):
		return KindTweet
	case IsYoutubeURL(u):
		return KindYoutube
	case MediaTypeForExt(extOf(u)) != "":
		return KindBinary
	default:
		return KindGeneric
	}
}

// IsTweetURL reconoce URLs de estados de Twitter/X.
func IsTweetURL(u *url.URL) bool {
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	switch host {
	case "twitter.com", "x.com", "mobile.twitter.com":
		return strings.Contains(u.Path, "/status/")
	}
	return false
}

// IsYoutubeURL reconoce URLs de videos de YouTube.
func IsYoutubeURL(u *url.URL) bool {
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	switch host {
	case "youtube.com", "m.youtube.com":
		return u.Path == "/watch" || strings.HasPrefix(u.Path, "/shorts/")
	case "youtu.be":
		return len(u.Path) > 1
	}
	return false
}

// MediaTypeForExt mapea una extensión de archivo al tipo de medio con
// que debe enviarse. Devuelve cadena vacía para extensiones que no son
// binarios directos.
func MediaTypeForExt(ext string) mediagroup.MediaType {
	switch strings.ToLower(ext) {
	case "jpg", "jpeg", "png", "webp":
		return mediagroup.TypePhoto
	case "mp4", "mov", "webm", "mkv", "avi":
		return mediagroup.TypeVideo
	case "mp3", "ogg", "m4a", "flac", "wav":
		return mediagroup.TypeAudio
	case "gif":
		return mediagroup.TypeAnimation
	case "pdf", "zip", "doc", "docx", "txt", "epub":
		return mediagroup.TypeDocument
	default:
		return ""
	}
}

func extOf(u *url.URL) string {
	path := u.Path
	idx := strings.LastIndex(path, ".")
	if idx < 0 || idx == len(path)-1 {
		return ""
	}
	return path[idx+1:]
}
