package catalog

import (
	"context"
	"fmt"

	"mediacatalog/database"
)

// PurgeCruft deletes every row of files/playlists/playlistitems/
// directories whose db_timestamp predates refTime, in the order spec
// §4.4 requires (playlistitems by playlist, then by file, then
// playlists, then files, then directories with id >= database.DirMax),
// all inside one transaction (spec §4.4 "Purge"). Directory ids below
// DirMax are the four reserved rows and are never pruned.
func (s *Store) PurgeCruft(ctx context.Context, refTime int64) error {
	return s.purgeCruft(ctx, refTime, "")
}

// PurgeCruftScoped is PurgeCruft additionally filtered by scan_kind,
// the "second form" spec §4.4 names for a single source's rescan.
func (s *Store) PurgeCruftScoped(ctx context.Context, refTime int64, scanKind int) error {
	return s.purgeCruft(ctx, refTime, fmt.Sprintf(" AND scan_kind = %d", scanKind))
}

// RunAnalyze runs ANALYZE against the catalog, the post-scan hook
// spec §4.4 step 3 names ("library_set_scanning(false) then
// db_hook_post_scan (ANALYZE)").
func (s *Store) RunAnalyze(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "ANALYZE")
	if err != nil {
		return fmt.Errorf("catalog: analyze: %w", err)
	}
	return nil
}

func (s *Store) purgeCruft(ctx context.Context, refTime int64, scanFilter string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: purge cruft: begin: %w", err)
	}
	defer tx.Rollback()

	// playlistitems: by owning playlist's staleness, then by stale file.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM playlistitems WHERE playlistid IN (
			SELECT id FROM playlists WHERE db_timestamp < ?`+scanFilter+`)`, refTime); err != nil {
		return fmt.Errorf("catalog: purge cruft: playlistitems by playlist: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM playlistitems WHERE filepath IN (
			SELECT path FROM files WHERE db_timestamp < ?`+scanFilter+`)`, refTime); err != nil {
		return fmt.Errorf("catalog: purge cruft: playlistitems by file: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM playlists WHERE db_timestamp < ?`+scanFilter, refTime); err != nil {
		return fmt.Errorf("catalog: purge cruft: playlists: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM files WHERE db_timestamp < ?`+scanFilter, refTime); err != nil {
		return fmt.Errorf("catalog: purge cruft: files: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM directories WHERE id >= %d AND db_timestamp < ?%s`, database.DirMax, scanFilter),
		refTime); err != nil {
		return fmt.Errorf("catalog: purge cruft: directories: %w", err)
	}

	return tx.Commit()
}
