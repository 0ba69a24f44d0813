package usersession

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	resent   []string
	edited   []string
	messages []string
	fail     error
}

func (a *fakeAPI) ResendRecentMedia(userID int64, destChatID string) error {
	if a.fail != nil {
		return a.fail
	}
	a.resent = append(a.resent, destChatID)
	return nil
}

func (a *fakeAPI) EditLastCaption(userID int64, caption string) error {
	if a.fail != nil {
		return a.fail
	}
	a.edited = append(a.edited, caption)
	return nil
}

func (a *fakeAPI) SendMessage(chatID int64, text string) {
	a.messages = append(a.messages, text)
}

func TestSendToCommand_DestinoEncontrado(t *testing.T) {
	api := &fakeAPI{}
	cmd := &SendToCommand{
		UserID: 1,
		Destinations: []Destination{
			{Name: "Familia", ChatID: "-100200"},
			{Name: "Trabajo", ChatID: "-100300"},
		},
		Api: api,
	}

	keep := cmd.Execute("Trabajo")

	assert.False(t, keep)
	require.Equal(t, []string{"-100300"}, api.resent)
	assert.Contains(t, api.messages, "Message successfully sent")
}

func TestSendToCommand_DestinoDesconocidoSaleEnSilencio(t *testing.T) {
	api := &fakeAPI{}
	cmd := &SendToCommand{
		UserID:       1,
		Destinations: []Destination{{Name: "Familia", ChatID: "-100200"}},
		Api:          api,
	}

	keep := cmd.Execute("Inventado")

	assert.False(t, keep, "el comando se desactiva aunque no haya coincidencia")
	assert.Empty(t, api.resent)
	assert.Empty(t, api.messages)
}

func TestSendToCommand_ErrorDeReenvio(t *testing.T) {
	api := &fakeAPI{fail: errors.New("sin media reciente")}
	cmd := &SendToCommand{
		UserID:       1,
		Destinations: []Destination{{Name: "Familia", ChatID: "-100200"}},
		Api:          api,
	}

	assert.False(t, cmd.Execute("Familia"))
	assert.Contains(t, api.messages[0], "Could not send")
}

func TestEditCaptionCommand_AplicaElTexto(t *testing.T) {
	api := &fakeAPI{}
	cmd := &EditCaptionCommand{UserID: 2, Api: api}

	assert.False(t, cmd.Execute("caption nuevo"))
	assert.Equal(t, []string{"caption nuevo"}, api.edited)
}

func TestEditCaptionCommand_TextoVacioCancela(t *testing.T) {
	api := &fakeAPI{}
	cmd := &EditCaptionCommand{UserID: 2, Api: api}

	assert.False(t, cmd.Execute("   "))
	assert.Empty(t, api.edited)
}
