package watch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"mediacatalog/config"
	"mediacatalog/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	cfg := &config.Config{
		General: config.GeneralConfig{DBPath: ":memory:"},
		SQLite: config.SQLiteConfig{
			PragmaJournalMode:  "MEMORY",
			PragmaSynchronous:  "OFF",
			BusyTimeoutMs:      1000,
			MaxOpenConnections: 1,
		},
	}
	db, err := database.NewConnection(cfg)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(context.Background()))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStore_PutAndLookupByCookie(t *testing.T) {
	db := newTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, 1, 42, "/music/a.mp3"))

	path, ok, err := s.PathForCookie(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "/music/a.mp3", path)

	_, ok, err = s.PathForCookie(ctx, 99)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_FindPendingByBase(t *testing.T) {
	db := newTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, 1, 7, "/old/dir/song.mp3"))

	cookie, path, ok, err := s.FindPendingByBase(ctx, "song.mp3")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(7), cookie)
	require.Equal(t, "/old/dir/song.mp3", path)

	_, _, ok, err = s.FindPendingByBase(ctx, "missing.mp3")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_DeleteByCookie(t *testing.T) {
	db := newTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, 1, 5, "/x.mp3"))
	require.NoError(t, s.DeleteByCookie(ctx, 5))

	_, ok, err := s.PathForCookie(ctx, 5)
	require.NoError(t, err)
	require.False(t, ok)
}
