package catalog

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mediacatalog/config"
	"mediacatalog/database"
	"mediacatalog/internal/fixup"
	"mediacatalog/internal/query"
	"mediacatalog/models"
)

func newTestStore(t *testing.T) *Store {
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
	return New(db, nil, zap.NewNop(), fixup.Policy{CompilationArtist: "Various Artists"})
}

func TestStore_SaveMediaFile_InsertThenUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mfi := &models.MediaFile{Path: "/music/a.mp3", FName: "a.mp3", Artist: "Bob", Album: "LP", AlbumArtist: "Bob"}
	id, err := s.SaveMediaFile(ctx, mfi)
	require.NoError(t, err)
	require.NotZero(t, id)
	require.NotZero(t, mfi.SongArtistID)
	require.NotZero(t, mfi.SongAlbumID)

	got, err := s.GetFileByPath(ctx, "/music/a.mp3")
	require.NoError(t, err)
	require.Equal(t, "Bob", got.Artist)
	require.Equal(t, id, got.ID)

	mfi2 := &models.MediaFile{Path: "/music/a.mp3", FName: "a.mp3", Artist: "Bob Updated", Album: "LP", AlbumArtist: "Bob"}
	id2, err := s.SaveMediaFile(ctx, mfi2)
	require.NoError(t, err)
	require.Equal(t, id, id2)

	got2, err := s.GetFileByPath(ctx, "/music/a.mp3")
	require.NoError(t, err)
	require.Equal(t, "Bob Updated", got2.Artist)
}

func TestStore_SaveMediaFile_SyncsGroups(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mfi := &models.MediaFile{Path: "/music/b.mp3", FName: "b.mp3", Artist: "Alice", Album: "Solo", AlbumArtist: "Alice"}
	_, err := s.SaveMediaFile(ctx, mfi)
	require.NoError(t, err)

	var name string
	err = s.db.QueryRowContext(ctx, `SELECT name FROM groups WHERE type = ? AND persistentid = ?`,
		models.GroupTypeArtist, mfi.SongArtistID).Scan(&name)
	require.NoError(t, err)
	require.Equal(t, "Alice", name)
}

func TestStore_GetFileByPath_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetFileByPath(context.Background(), "/nope.mp3")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStore_DisableAndRestoreFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mfi := &models.MediaFile{Path: "/music/c.mp3", FName: "c.mp3"}
	_, err := s.SaveMediaFile(ctx, mfi)
	require.NoError(t, err)

	require.NoError(t, s.DisableFile(ctx, "/music/c.mp3", 42))
	_, err = s.GetFileByPath(ctx, "/music/c.mp3")
	require.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, s.RestoreFile(ctx, "/music/c.mp3", "/music/c-renamed.mp3", "/file:/music/c-renamed.mp3"))
	got, err := s.GetFileByPath(ctx, "/music/c-renamed.mp3")
	require.NoError(t, err)
	require.Zero(t, got.Disabled)
}

func TestStore_PlaylistCRUDAndItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mfi := &models.MediaFile{Path: "/music/d.mp3", FName: "d.mp3", Title: "D"}
	_, err := s.SaveMediaFile(ctx, mfi)
	require.NoError(t, err)

	pl := &models.Playlist{Title: "My List", Type: models.PlaylistTypePlain, VirtualPath: "/file:/pl/my-list.m3u"}
	plID, err := s.SavePlaylist(ctx, pl)
	require.NoError(t, err)
	require.NotZero(t, plID)

	_, err = s.PlaylistItemAdd(ctx, plID, "/music/d.mp3", 0)
	require.NoError(t, err)

	items, count, err := s.FetchPlaylistItems(ctx, pl, query.Params{})
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Len(t, items, 1)
	require.Equal(t, "D", items[0].Title)

	require.NoError(t, s.PlaylistRemove(ctx, pl.VirtualPath))
	_, err = s.GetPlaylistByPath(ctx, pl.VirtualPath)
	require.NoError(t, err) // playlist row remains, just disabled
}

func TestParseSmartPlaylist(t *testing.T) {
	text := `
Title { Recently Added }
WHERE media_kind = 1
ORDER BY time_added DESC
LIMIT 50
`
	sp, err := ParseSmartPlaylist(text)
	require.NoError(t, err)
	require.Equal(t, "Recently Added", sp.Title)
	require.Equal(t, "media_kind = 1", sp.Where)
	require.Equal(t, "time_added DESC", sp.Order)
	require.Equal(t, 50, sp.Limit)
}

func TestParseSmartPlaylist_MissingWhere(t *testing.T) {
	_, err := ParseSmartPlaylist("Title { X }\n")
	require.Error(t, err)
}
