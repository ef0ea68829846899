package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/vehicore/internal/core/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	values := map[string]float64{"fuel": 42.5, "engine_running": 1, "door_1": 0}
	require.NoError(t, s.Save(ctx, "car-1", values))

	got, err := s.Load(ctx, "car-1")
	require.NoError(t, err)
	assert.Equal(t, values, got)

	other, err := s.Load(ctx, "car-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Save(ctx, "car-1", map[string]float64{"a": 1, "b": 2}))
	require.NoError(t, s.Save(ctx, "car-1", map[string]float64{"b": 3}))

	got, err := s.Load(ctx, "car-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"b": 3}, got)

	require.NoError(t, s.Save(ctx, "car-1", nil))
	got, err = s.Load(ctx, "car-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_Entities(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Save(ctx, "truck", map[string]float64{"x": 1}))
	require.NoError(t, s.Save(ctx, "car", map[string]float64{"x": 1, "y": 2}))

	ids, err := s.Entities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"car", "truck"}, ids)

	require.NoError(t, s.Save(ctx, "car", nil))
	ids, err = s.Entities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"truck"}, ids, "saving nothing forgets the entity")

	stats := s.Statistics()
	assert.Equal(t, uint64(3), stats.Saves)
	assert.Zero(t, stats.Errors)
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	assert.ErrorIs(t, s.Save(ctx, "", nil), storage.ErrEmptyEntityID)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	_, err := s.Load(ctx, "car")
	assert.ErrorIs(t, err, storage.ErrClosed)
}

func TestStore_FilePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vars.db")

	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "car", map[string]float64{"gear": 3}))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Load(ctx, "car")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"gear": 3}, got)
}
