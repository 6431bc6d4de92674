package catalog

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"mediacatalog/models"
)

func TestStore_SpotifyPurge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mfi := &models.MediaFile{Path: "spotify:track:123", FName: "track", VirtualPath: "/spotify:/track:123"}
	_, err := s.SaveMediaFile(ctx, mfi)
	require.NoError(t, err)

	pl := &models.Playlist{Title: "Spotify Playlist", Type: models.PlaylistTypePlain, VirtualPath: "/spotify:/playlist:xyz"}
	plID, err := s.SavePlaylist(ctx, pl)
	require.NoError(t, err)
	_, err = s.PlaylistItemAdd(ctx, plID, "spotify:track:123", 0)
	require.NoError(t, err)

	require.NoError(t, s.SpotifyPurge(ctx))

	_, err = s.GetFileByID(ctx, mfi.ID)
	require.ErrorIs(t, err, sql.ErrNoRows)

	var count int
	require.NoError(t, s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM playlists WHERE id = ?", plID).Scan(&count))
	require.Zero(t, count)

	var disabled int64
	require.NoError(t, s.db.QueryRowContext(ctx, "SELECT disabled FROM directories WHERE virtual_path = '/spotify:'").Scan(&disabled))
	require.Equal(t, models.DisabledCookieSentinel, disabled)
}

func TestStore_SpotifyPlaylistDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pl := &models.Playlist{Title: "P", Type: models.PlaylistTypePlain, VirtualPath: "/spotify:/p"}
	plID, err := s.SavePlaylist(ctx, pl)
	require.NoError(t, err)
	_, err = s.PlaylistItemAdd(ctx, plID, "spotify:track:1", 0)
	require.NoError(t, err)

	require.NoError(t, s.SpotifyPlaylistDelete(ctx, plID))

	var count int
	require.NoError(t, s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM playlists WHERE id = ?", plID).Scan(&count))
	require.Zero(t, count)
}

func TestStore_SpotifyFilesDelete_OnlyOrphans(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	referenced := &models.MediaFile{Path: "spotify:track:ref", FName: "ref"}
	_, err := s.SaveMediaFile(ctx, referenced)
	require.NoError(t, err)
	orphan := &models.MediaFile{Path: "spotify:track:orphan", FName: "orphan"}
	_, err = s.SaveMediaFile(ctx, orphan)
	require.NoError(t, err)

	pl := &models.Playlist{Title: "P", Type: models.PlaylistTypePlain, VirtualPath: "/spotify:/p2"}
	plID, err := s.SavePlaylist(ctx, pl)
	require.NoError(t, err)
	_, err = s.PlaylistItemAdd(ctx, plID, "spotify:track:ref", 0)
	require.NoError(t, err)

	n, err := s.SpotifyFilesDelete(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = s.GetFileByID(ctx, referenced.ID)
	require.NoError(t, err)
	_, err = s.GetFileByID(ctx, orphan.ID)
	require.ErrorIs(t, err, sql.ErrNoRows)
}
