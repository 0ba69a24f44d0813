package storage

import (
	"context"
	"testing"

	pkgError "github.com/AzielCF/az-mediaext/pkg/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *UserStore {
	t.Helper()

	db, err := NewDatabase("file::memory:?cache=shared&_foreign_keys=on")
	require.NoError(t, err)

	store := NewUserStore(db)
	require.NoError(t, store.Init(context.Background()))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	})
	return store
}

func TestUserStore_AllowBanRemove(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Allow(ctx, 100))
	require.NoError(t, store.Allow(ctx, 200))
	require.NoError(t, store.Ban(ctx, 300))

	allowed, err := store.AllowedIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{100, 200}, allowed)

	banned, err := store.BannedIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{300}, banned)

	// Banear a un permitido lo saca de la lista de permitidos
	require.NoError(t, store.Ban(ctx, 200))
	allowed, err = store.AllowedIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{100}, allowed)

	// Permitir de nuevo le quita el ban
	require.NoError(t, store.Allow(ctx, 200))
	banned, err = store.BannedIDs(ctx)
	require.NoError(t, err)
	assert.NotContains(t, banned, int64(200))

	require.NoError(t, store.Remove(ctx, 100))
	err = store.Remove(ctx, 100)
	assert.IsType(t, pkgError.NotFoundError(""), err, "borrar dos veces debe dar not found")
}

func TestUserStore_SeedNoPisaEstado(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	// El admin baneó a 100 en caliente
	require.NoError(t, store.Ban(ctx, 100))

	// Un reinicio vuelve a sembrar la config con 100 como permitido
	require.NoError(t, store.Seed(ctx, []int64{100, 500}, nil))

	banned, err := store.BannedIDs(ctx)
	require.NoError(t, err)
	assert.Contains(t, banned, int64(100), "seed no debe deshacer un ban persistido")

	allowed, err := store.AllowedIDs(ctx)
	require.NoError(t, err)
	assert.Contains(t, allowed, int64(500))
}

func TestUserStore_AllowAnonymous(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	// Sin persistir usa el default
	val, err := store.AllowAnonymous(ctx, true)
	require.NoError(t, err)
	assert.True(t, val)

	require.NoError(t, store.SetAllowAnonymous(ctx, false))
	val, err = store.AllowAnonymous(ctx, true)
	require.NoError(t, err)
	assert.False(t, val, "el valor persistido debe ganar al default")

	require.NoError(t, store.SetAllowAnonymous(ctx, true))
	val, err = store.AllowAnonymous(ctx, false)
	require.NoError(t, err)
	assert.True(t, val)
}

func TestUserStore_Destinations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.AddDestination(ctx, 1, "Familia", "-100200"))
	require.NoError(t, store.AddDestination(ctx, 1, "Trabajo", "-100300"))
	require.NoError(t, store.AddDestination(ctx, 2, "Otro", "-100400"))

	dests, err := store.Destinations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, dests, 2, "solo los destinos del usuario 1")
	assert.Equal(t, "Familia", dests[0].Name)

	// Mismo nombre actualiza el chat destino
	require.NoError(t, store.AddDestination(ctx, 1, "Familia", "-999"))
	dests, err = store.Destinations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, dests, 2)
	assert.Equal(t, "-999", dests[0].ChatID)

	require.NoError(t, store.RemoveDestination(ctx, 1, "Trabajo"))
	err = store.RemoveDestination(ctx, 1, "Trabajo")
	assert.IsType(t, pkgError.NotFoundError(""), err)
}
