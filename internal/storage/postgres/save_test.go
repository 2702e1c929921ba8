package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/incremental/internal/game/catalog"
	"github.com/cory-johannsen/incremental/internal/savegame"
	"github.com/cory-johannsen/incremental/internal/storage/postgres"
	"github.com/cory-johannsen/incremental/internal/testutil"
)

var _ savegame.Storage = (*postgres.SaveStore)(nil)

func newStore(t *testing.T) *postgres.SaveStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	s, err := postgres.Open(context.Background(), testutil.Postgres(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveStore_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "one"))
	require.NoError(t, s.Set(ctx, "k", "two"))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "two", v)

	require.NoError(t, s.Set(ctx, "other:k", "x"))
	keys, err := s.Keys(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, keys)

	require.NoError(t, s.Remove(ctx, "k"))
	require.NoError(t, s.Remove(ctx, "k"))
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveStore_BacksSavegameCodec(t *testing.T) {
	ctx := context.Background()
	codec := savegame.NewCodec(newStore(t), catalog.Default())

	state, err := codec.CreateDefaultState("slot3")
	require.NoError(t, err)
	require.NoError(t, state.Inventory.AddMunny(77))
	require.NoError(t, codec.Save(ctx, state))

	got, err := codec.Load(ctx, "slot3")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 77, got.Inventory.Munny())
	assert.Len(t, got.Actors, 3)
}
