package recentmedia

import (
	"testing"
	"time"

	"github.com/AzielCF/az-mediaext/pkg/mediagroup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetYGet(t *testing.T) {
	c := NewCache(time.Minute)

	c.Set(1, []mediagroup.MediaFile{mediagroup.Photo("A")}, "hola")

	entry, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, "hola", entry.Caption)
	assert.Equal(t, []mediagroup.MediaFile{mediagroup.Photo("A")}, entry.Files)

	_, ok = c.Get(2)
	assert.False(t, ok)
}

func TestCache_ReemplazaElAnterior(t *testing.T) {
	c := NewCache(time.Minute)

	c.Set(1, []mediagroup.MediaFile{mediagroup.Photo("A")}, "")
	c.Set(1, []mediagroup.MediaFile{mediagroup.Video("B")}, "nuevo")

	entry, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, mediagroup.TypeVideo, entry.Files[0].Type)
}

func TestCache_SinArchivosNoRegistra(t *testing.T) {
	c := NewCache(time.Minute)

	c.Set(1, nil, "solo texto")

	_, ok := c.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_Caducidad(t *testing.T) {
	c := NewCache(50 * time.Millisecond)

	c.Set(1, []mediagroup.MediaFile{mediagroup.Photo("A")}, "")
	time.Sleep(80 * time.Millisecond)

	_, ok := c.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "la entrada caducada debe limpiarse")
}
