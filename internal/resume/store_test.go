package resume

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/mediadeck/internal/domain/session/ports"
)

func TestNewStore_Backends(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		dir     string
		want    interface{}
		wantErr string
	}{
		{name: "default is memory", backend: "", dir: t.TempDir(), want: &MemoryStore{}},
		{name: "memory", backend: BackendMemory, want: &MemoryStore{}},
		{name: "sqlite without dir degrades to memory", backend: BackendSqlite, want: &MemoryStore{}},
		{name: "sqlite", backend: BackendSqlite, dir: t.TempDir(), want: &SqliteStore{}},
		{name: "unknown", backend: "redis", wantErr: "unknown resume store backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.backend, tt.dir)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, store)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			assert.IsType(t, tt.want, store)
		})
	}
}

func exerciseStore(t *testing.T, store ports.ResumeStore) {
	t.Helper()
	ctx := context.Background()
	at := time.Date(2026, 3, 4, 5, 6, 7, 8000, time.UTC)

	got, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Put(ctx, "track-1", &ports.ResumePoint{PositionMillis: 61_337, UpdatedAt: at}))
	got, err = store.Get(ctx, "track-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(61_337), got.PositionMillis)
	assert.True(t, at.Equal(got.UpdatedAt))

	require.NoError(t, store.Put(ctx, "track-1", &ports.ResumePoint{PositionMillis: 5, UpdatedAt: at.Add(time.Second)}))
	got, err = store.Get(ctx, "track-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.PositionMillis)

	require.Error(t, store.Put(ctx, "track-2", nil))

	require.NoError(t, store.Delete(ctx, "track-1"))
	got, err = store.Get(ctx, "track-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Delete(ctx, "never-stored"))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	exerciseStore(t, store)

	require.NoError(t, store.Close())
	assert.ErrorIs(t, store.Put(context.Background(), "x", &ports.ResumePoint{}), ErrClosed)
}

func TestSqliteStore(t *testing.T) {
	store, err := NewStore(BackendSqlite, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	exerciseStore(t, store)
}

func TestSqliteStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewStore(BackendSqlite, dir)
	require.NoError(t, err)
	require.NoError(t, first.Put(ctx, "track-9", &ports.ResumePoint{PositionMillis: 1234, UpdatedAt: time.Now()}))
	require.NoError(t, first.Close())

	second, err := NewStore(BackendSqlite, dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	got, err := second.Get(ctx, "track-9")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1234), got.PositionMillis)
}
