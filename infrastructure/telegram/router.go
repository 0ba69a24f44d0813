package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/AzielCF/az-mediaext/pkg/mediagroup"
	"github.com/AzielCF/az-mediaext/pkg/urlclassify"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// HandleUpdate procesa un update entrante. Nunca lanza panic: los
// errores terminan en el log y, si corresponde, avisando al usuario.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("[BOT] Panic handling update %d: %v", update.UpdateID, r)
		}
	}()

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	userID := msg.From.ID

	if !b.authorize(userID, msg.From.UserName) {
		return
	}

	// Todo evento procesado deja registrado su texto o caption al
	// terminar; así el evento en curso toma prestado el del anterior.
	defer b.sessions.Get(userID).RememberText(messageText(msg))

	// Un comando de varios pasos en curso captura el siguiente mensaje
	session := b.sessions.Get(userID)
	if session.ActiveCommand() {
		if session.Consume(msg.Text) {
			return
		}
	}

	switch {
	case msg.Text != "" && strings.HasPrefix(msg.Text, "/"):
		b.handleCommand(ctx, msg)
	case len(msg.Photo) > 0:
		b.enqueueMedia(msg, mediagroup.Photo(largestPhoto(msg.Photo)), msg.Caption)
	case msg.Video != nil:
		b.enqueueMedia(msg, mediagroup.Video(msg.Video.FileID), msg.Caption)
	case msg.Audio != nil:
		b.enqueueMedia(msg, mediagroup.Audio(msg.Audio.FileID), msg.Caption)
	case msg.Animation != nil:
		// Revisar antes que Document: Telegram manda los GIFs con ambos
		b.enqueueMedia(msg, mediagroup.Animation(msg.Animation.FileID), msg.Caption)
	case msg.Document != nil:
		b.enqueueMedia(msg, mediagroup.Document(msg.Document.FileID), msg.Caption)
	case msg.Text != "":
		b.handleText(ctx, msg)
	default:
		logrus.Debugf("[BOT] Ignoring unsupported message %d from %d", msg.MessageID, userID)
	}
}

// authorize decide si el usuario puede usar el bot. Los baneados se
// ignoran en silencio; los desconocidos reciben aviso y el admin una
// alerta.
func (b *Bot) authorize(userID int64, userName string) bool {
	b.accessMu.RLock()
	banned := b.banned[userID]
	allowed := b.allowed[userID]
	open := len(b.allowed) == 0
	anon := b.allowAnon
	b.accessMu.RUnlock()

	if banned {
		logrus.Debugf("[BOT] Ignoring banned user %d", userID)
		return false
	}
	if allowed || open || anon {
		return true
	}

	b.SendMessage(userID, "⛔ You are not allowed to use this bot")
	b.alertAdmin(fmt.Sprintf("User %d (@%s) tried to use the bot", userID, userName))
	return false
}

// enqueueMedia mete el archivo al Delayer. Si el archivo no trae
// caption propio, puede tomar prestado el último texto reciente del
// remitente.
func (b *Bot) enqueueMedia(msg *tgbotapi.Message, file mediagroup.MediaFile, caption string) {
	if strings.TrimSpace(caption) == "" {
		caption = b.sessions.Get(msg.From.ID).RecentText()
	}

	logrus.Debugf("[BOT] Queueing %s from chat %d", file.Type, msg.Chat.ID)
	b.delayer.AddMedia(msg.Chat.ID, file, caption)
}

// handleText procesa texto plano: una URL dispara el pipeline de
// descarga; cualquier otro texto actualiza el caption del lote vivo del
// chat si existe.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	text := msg.Text

	if rawURL := urlclassify.ExtractURL(text); rawURL != "" {
		b.handleURL(ctx, msg, rawURL)
		return
	}

	if b.delayer.SetCaption(msg.Chat.ID, text) {
		logrus.Debugf("[BOT] Caption for pending group of chat %d updated", msg.Chat.ID)
	}
}

// messageText devuelve el texto del mensaje o, en su defecto, su caption.
func messageText(msg *tgbotapi.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

func largestPhoto(sizes []tgbotapi.PhotoSize) string {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}
	return best.FileID
}
