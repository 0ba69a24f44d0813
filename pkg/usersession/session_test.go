package usersession

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetCreaYReusaSesiones(t *testing.T) {
	r := NewRegistry(time.Second)

	s1 := r.Get(10)
	s2 := r.Get(10)
	other := r.Get(20)

	assert.Same(t, s1, s2, "el mismo usuario debe recibir la misma sesión")
	assert.NotSame(t, s1, other)
}

func TestSession_RecentTextDentroDeLaVentana(t *testing.T) {
	r := NewRegistry(80 * time.Millisecond)
	s := r.Get(1)

	s.RememberText("para el video")
	assert.Equal(t, "para el video", s.RecentText())

	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, "", s.RecentText(), "fuera de la ventana el texto ya no se presta")
}

func TestSession_RecentTextVacio(t *testing.T) {
	s := NewRegistry(time.Second).Get(1)

	assert.Equal(t, "", s.RecentText())
	s.RememberText("   ")
	assert.Equal(t, "", s.RecentText())
}

type fakeCommand struct {
	got  []string
	keep bool
}

func (c *fakeCommand) Execute(text string) bool {
	c.got = append(c.got, text)
	return c.keep
}

func TestSession_ConsumeDesactivaElComando(t *testing.T) {
	s := NewRegistry(time.Second).Get(1)
	cmd := &fakeCommand{}
	s.SetCommand(cmd)

	require.True(t, s.ActiveCommand())
	require.True(t, s.Consume("hola"))

	assert.Equal(t, []string{"hola"}, cmd.got)
	assert.False(t, s.ActiveCommand(), "el comando se consume en un solo paso")
	assert.False(t, s.Consume("otra"), "sin comando activo nada se consume")
}

func TestSession_ComandoPuedeSeguirActivo(t *testing.T) {
	s := NewRegistry(time.Second).Get(1)
	cmd := &fakeCommand{keep: true}
	s.SetCommand(cmd)

	require.True(t, s.Consume("uno"))
	require.True(t, s.Consume("dos"))
	assert.Equal(t, []string{"uno", "dos"}, cmd.got)
}

func TestSession_SetCommandReemplazaSinEjecutar(t *testing.T) {
	s := NewRegistry(time.Second).Get(1)
	first := &fakeCommand{}
	second := &fakeCommand{}

	s.SetCommand(first)
	s.SetCommand(second)

	require.True(t, s.Consume("elige"))
	assert.Empty(t, first.got, "el comando reemplazado no debe ejecutarse")
	assert.Equal(t, []string{"elige"}, second.got)
}
