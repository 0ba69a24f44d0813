package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/AzielCF/az-mediaext/pkg/usersession"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const helpText = `🤖 I download media from links and regroup forwarded files.

Send me:
• a link (Twitter/X, YouTube or a direct file) and I'll fetch the media
• photos or videos and I'll batch them into an album
• text right before a file to use it as caption ("@" inside a link caption becomes the source title)

Commands:
/help - this message
/sendto - resend your last media to a saved destination
/edit - change the caption of your last media`

const adminHelpText = `

Admin:
/addUser <id> - allow a user
/delUser <id> - remove a user
/banUser <id> - ban a user
/listUsers - allowed and banned lists
/toggleAnon - toggle anonymous access
/addChat <user_id> <name> <chat_id> - add a forward destination
/delChat <user_id> <name> - remove a destination`

// mainKeyboard es el teclado persistente con los comandos frecuentes.
func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/help"),
			tgbotapi.NewKeyboardButton("/sendto"),
			tgbotapi.NewKeyboardButton("/edit"),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// splitCommand separa nombre y argumentos aceptando espacio o guion
// bajo como delimitador: "/addUser 5" y "/addUser_5" son equivalentes.
func splitCommand(text string) (string, string) {
	text = strings.TrimPrefix(text, "/")
	// Quitar la mención al bot: /help@MiBot
	if at := strings.Index(text, "@"); at >= 0 && !strings.ContainsAny(text[:at], " _") {
		rest := ""
		if sp := strings.IndexAny(text[at:], " _"); sp >= 0 {
			rest = text[at+sp:]
		}
		text = text[:at] + rest
	}

	idx := strings.IndexAny(text, " _")
	if idx < 0 {
		return strings.ToLower(text), ""
	}
	return strings.ToLower(text[:idx]), strings.TrimSpace(text[idx+1:])
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	name, args := splitCommand(msg.Text)
	userID := msg.From.ID
	chatID := msg.Chat.ID

	logrus.Debugf("[BOT] Command /%s from %d", name, userID)

	switch name {
	case "start", "help":
		text := helpText
		if userID == b.adminID {
			text += adminHelpText
		}
		b.sendWithKeyboard(chatID, text, mainKeyboard())

	case "sendto":
		b.commandSendTo(ctx, userID, chatID)

	case "edit":
		b.commandEdit(userID, chatID)

	case "adduser", "deluser", "banuser", "listusers", "toggleanon", "addchat", "delchat":
		if userID != b.adminID {
			b.SendMessage(chatID, "⛔ Admin only")
			return
		}
		b.handleAdminCommand(ctx, name, args, chatID)

	default:
		b.SendMessage(chatID, "Unknown command, try /help")
	}
}

// commandSendTo arma el teclado de destinos y deja activo el comando
// que espera la elección.
func (b *Bot) commandSendTo(ctx context.Context, userID, chatID int64) {
	if _, ok := b.recent.Get(userID); !ok {
		b.SendMessage(chatID, "There is no recent media to send. Send me something first!")
		return
	}

	dests, err := b.store.Destinations(ctx, userID)
	if err != nil {
		logrus.WithError(err).Errorf("[BOT] Loading destinations for %d failed", userID)
		b.SendMessage(chatID, "❌ Could not load your destinations")
		return
	}
	if len(dests) == 0 {
		b.SendMessage(chatID, "You have no destinations configured. Ask the admin to add one.")
		return
	}

	b.sessions.Get(userID).SetCommand(&usersession.SendToCommand{
		UserID:       userID,
		Destinations: dests,
		Api:          b,
	})

	rows := make([][]tgbotapi.KeyboardButton, 0, len(dests))
	for _, d := range dests {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(d.Name)))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	b.sendWithKeyboard(chatID, "Where should I send it?", kb)
}

func (b *Bot) commandEdit(userID, chatID int64) {
	if !b.delayer.HasMedia(userID) {
		if _, ok := b.recent.Get(userID); !ok {
			b.SendMessage(chatID, "There is no recent media to edit")
			return
		}
	}

	b.sessions.Get(userID).SetCommand(&usersession.EditCaptionCommand{
		UserID: userID,
		Api:    b,
	})
	b.SendMessage(chatID, "Send me the new caption (empty cancels)")
}

func (b *Bot) handleAdminCommand(ctx context.Context, name, args string, chatID int64) {
	switch name {
	case "adduser":
		id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
		if err != nil {
			b.SendMessage(chatID, "Usage: /addUser <user_id>")
			return
		}
		if err := b.store.Allow(ctx, id); err != nil {
			b.SendMessage(chatID, "❌ "+err.Error())
			return
		}
		b.setAccess(id, true, false)
		b.SendMessage(chatID, fmt.Sprintf("✅ User %d allowed", id))

	case "deluser":
		id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
		if err != nil {
			b.SendMessage(chatID, "Usage: /delUser <user_id>")
			return
		}
		if err := b.store.Remove(ctx, id); err != nil {
			b.SendMessage(chatID, "❌ "+err.Error())
			return
		}
		b.setAccess(id, false, false)
		b.SendMessage(chatID, fmt.Sprintf("✅ User %d removed", id))

	case "banuser":
		id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
		if err != nil {
			b.SendMessage(chatID, "Usage: /banUser <user_id>")
			return
		}
		if err := b.store.Ban(ctx, id); err != nil {
			b.SendMessage(chatID, "❌ "+err.Error())
			return
		}
		b.setAccess(id, false, true)
		b.SendMessage(chatID, fmt.Sprintf("🚫 User %d banned", id))

	case "listusers":
		allowed, err := b.store.AllowedIDs(ctx)
		if err != nil {
			b.SendMessage(chatID, "❌ "+err.Error())
			return
		}
		banned, _ := b.store.BannedIDs(ctx)
		b.SendMessage(chatID, fmt.Sprintf("Allowed: %v\nBanned: %v", allowed, banned))

	case "toggleanon":
		b.accessMu.Lock()
		newVal := !b.allowAnon
		b.allowAnon = newVal
		b.accessMu.Unlock()
		if err := b.store.SetAllowAnonymous(ctx, newVal); err != nil {
			b.SendMessage(chatID, "❌ "+err.Error())
			return
		}
		b.SendMessage(chatID, fmt.Sprintf("Anonymous access: %v", newVal))

	case "addchat":
		parts := strings.Fields(args)
		if len(parts) != 3 {
			b.SendMessage(chatID, "Usage: /addChat <user_id> <name> <chat_id>")
			return
		}
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			b.SendMessage(chatID, "Usage: /addChat <user_id> <name> <chat_id>")
			return
		}
		if err := b.store.AddDestination(ctx, id, parts[1], parts[2]); err != nil {
			b.SendMessage(chatID, "❌ "+err.Error())
			return
		}
		b.SendMessage(chatID, fmt.Sprintf("✅ Destination %q added for user %d", parts[1], id))

	case "delchat":
		parts := strings.Fields(args)
		if len(parts) != 2 {
			b.SendMessage(chatID, "Usage: /delChat <user_id> <name>")
			return
		}
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			b.SendMessage(chatID, "Usage: /delChat <user_id> <name>")
			return
		}
		if err := b.store.RemoveDestination(ctx, id, parts[1]); err != nil {
			b.SendMessage(chatID, "❌ "+err.Error())
			return
		}
		b.SendMessage(chatID, fmt.Sprintf("✅ Destination %q removed for user %d", parts[1], id))
	}
}

// setAccess actualiza el cache en memoria de las listas de acceso.
func (b *Bot) setAccess(userID int64, allowed, banned bool) {
	b.accessMu.Lock()
	defer b.accessMu.Unlock()
	if allowed {
		b.allowed[userID] = true
	} else {
		delete(b.allowed, userID)
	}
	if banned {
		b.banned[userID] = true
	} else {
		delete(b.banned, userID)
	}
}
