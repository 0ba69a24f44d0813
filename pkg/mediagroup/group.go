package mediagroup

import (
	"strings"
	"time"
)

// MediaType clasifica un archivo dentro de un grupo multimedia.
type MediaType string

const (
	TypePhoto     MediaType = "photo"
	TypeVideo     MediaType = "video"
	TypeAudio     MediaType = "audio"
	TypeDocument  MediaType = "document"
	TypeAnimation MediaType = "animation"
)

// MediaFile es un archivo ya subido a Telegram, referenciado por su file ID.
type MediaFile struct {
	FileID string
	Type   MediaType
}

func Photo(fileID string) MediaFile     { return MediaFile{FileID: fileID, Type: TypePhoto} }
func Video(fileID string) MediaFile     { return MediaFile{FileID: fileID, Type: TypeVideo} }
func Audio(fileID string) MediaFile     { return MediaFile{FileID: fileID, Type: TypeAudio} }
func Document(fileID string) MediaFile  { return MediaFile{FileID: fileID, Type: TypeDocument} }
func Animation(fileID string) MediaFile { return MediaFile{FileID: fileID, Type: TypeAnimation} }

// Group es el lote pendiente de un chat. Se maneja siempre por valor:
// cada mutación devuelve una copia nueva, nunca modifica la anterior.
type Group struct {
	ChatID     int64
	Files      []MediaFile
	Caption    string
	UpdateTime time.Time
	Sent       bool
}

// NewGroup crea un grupo vacío para un chat.
func NewGroup(chatID int64, now time.Time) Group {
	return Group{ChatID: chatID, UpdateTime: now}
}

func (g Group) IsEmpty() bool {
	return len(g.Files) == 0
}

// IsExpired indica si el grupo tiene contenido y no ha recibido
// mutaciones dentro de la ventana indicada.
func (g Group) IsExpired(window time.Duration, now time.Time) bool {
	return !g.IsEmpty() && g.UpdateTime.Add(window).Before(now)
}

// WithMedia devuelve una copia con el archivo agregado. Si el grupo aún
// no tiene caption y el archivo trae comentario, lo adopta. Cualquier
// mutación reabre un grupo ya despachado.
func (g Group) WithMedia(file MediaFile, comment string, now time.Time) Group {
	files := make([]MediaFile, 0, len(g.Files)+1)
	files = append(files, g.Files...)
	files = append(files, file)

	caption := g.Caption
	if strings.TrimSpace(caption) == "" {
		caption = comment
	}

	return Group{
		ChatID:     g.ChatID,
		Files:      files,
		Caption:    caption,
		UpdateTime: now,
		Sent:       false,
	}
}

// WithCaption devuelve una copia con el caption reemplazado.
func (g Group) WithCaption(caption string, now time.Time) Group {
	return Group{
		ChatID:     g.ChatID,
		Files:      g.Files,
		Caption:    caption,
		UpdateTime: now,
		Sent:       false,
	}
}

// markSent devuelve una copia marcada como despachada. No toca
// UpdateTime: el despacho no cuenta como mutación.
func (g Group) markSent() Group {
	g.Sent = true
	return g
}
