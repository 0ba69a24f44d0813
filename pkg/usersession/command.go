package usersession

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Command es un comando de varios pasos que espera el siguiente mensaje
// del usuario. Execute devuelve true si el comando debe seguir activo.
type Command interface {
	Execute(text string) bool
}

// API son las operaciones del bot que los comandos necesitan. Se define
// aquí para que los comandos no dependan de la capa de transporte.
type API interface {
	ResendRecentMedia(userID int64, destChatID string) error
	EditLastCaption(userID int64, caption string) error
	SendMessage(chatID int64, text string)
}

// Destination es un destino de reenvío con nombre amigable.
type Destination struct {
	Name   string `json:"name"`
	ChatID string `json:"chat_id"`
}

// SendToCommand espera el nombre del destino elegido y reenvía ahí el
// último medio del usuario. Se desactiva tras el primer mensaje,
// coincida o no.
type SendToCommand struct {
	UserID       int64
	Destinations []Destination
	Api          API
}

func (c *SendToCommand) Execute(text string) bool {
	choice := strings.TrimSpace(text)
	for _, dest := range c.Destinations {
		if dest.Name != choice {
			continue
		}
		if err := c.Api.ResendRecentMedia(c.UserID, dest.ChatID); err != nil {
			logrus.WithError(err).Errorf("[SESSION] Resend to %s failed for user %d", dest.Name, c.UserID)
			c.Api.SendMessage(c.UserID, "❌ Could not send the message")
			return false
		}
		c.Api.SendMessage(c.UserID, "Message successfully sent")
		return false
	}
	return false
}

// EditCaptionCommand espera el texto nuevo y lo aplica como caption del
// último medio enviado. Un mensaje en blanco cancela la edición.
type EditCaptionCommand struct {
	UserID int64
	Api    API
}

func (c *EditCaptionCommand) Execute(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	if err := c.Api.EditLastCaption(c.UserID, text); err != nil {
		logrus.WithError(err).Errorf("[SESSION] Edit caption failed for user %d", c.UserID)
		c.Api.SendMessage(c.UserID, "❌ There is no recent media to edit")
	}
	return false
}
