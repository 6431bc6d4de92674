package catalog

import (
	"context"
	"fmt"

	"mediacatalog/models"
)

// SpotifyPurge deletes every files/playlistitems/playlists/directories
// row whose path or virtual_path lives under the spotify: namespace,
// then soft-disables the /spotify: directory with the non-cookie
// sentinel (spec §4.7 spotify_purge). This is the only mandated
// protocol for the external Spotify source (spec §4.4 "spotify:
// external; only its row-purge protocol is mandated").
func (s *Store) SpotifyPurge(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: spotify purge: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM playlistitems WHERE filepath LIKE 'spotify:%'`); err != nil {
		return fmt.Errorf("catalog: spotify purge: playlistitems: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM playlists WHERE virtual_path LIKE '/spotify:/%'`); err != nil {
		return fmt.Errorf("catalog: spotify purge: playlists: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM files WHERE path LIKE 'spotify:%' OR virtual_path LIKE '/spotify:/%'`); err != nil {
		return fmt.Errorf("catalog: spotify purge: files: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM directories WHERE virtual_path LIKE '/spotify:/%'`); err != nil {
		return fmt.Errorf("catalog: spotify purge: directories: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE directories SET disabled = ? WHERE virtual_path = '/spotify:'`, models.DisabledCookieSentinel); err != nil {
		return fmt.Errorf("catalog: spotify purge: disable root: %w", err)
	}

	return tx.Commit()
}

// SpotifyPlaylistDelete removes a single Spotify playlist and its
// items (spec §4.7 spotify_pl_delete).
func (s *Store) SpotifyPlaylistDelete(ctx context.Context, playlistID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: spotify playlist delete: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM playlistitems WHERE playlistid = ?`, playlistID); err != nil {
		return fmt.Errorf("catalog: spotify playlist delete: items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, playlistID); err != nil {
		return fmt.Errorf("catalog: spotify playlist delete: %w", err)
	}
	return tx.Commit()
}

// SpotifyFilesDelete removes spotify-scheme files no longer referenced
// by any playlistitem (spec §4.7 spotify_files_delete: "orphan files").
func (s *Store) SpotifyFilesDelete(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM files
		WHERE path LIKE 'spotify:%'
		  AND path NOT IN (SELECT filepath FROM playlistitems)`)
	if err != nil {
		return 0, fmt.Errorf("catalog: spotify files delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("catalog: spotify files delete: rows affected: %w", err)
	}
	return n, nil
}
