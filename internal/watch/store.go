// Package watch implements C7: a persistent cookie<->path mapping used
// to correlate filesystem move/rename events across a process restart
// (spec §3 "Inotify Watches", §4.8 invariant 7, §9 "Soft-delete +
// inotify cookie conflation").
//
// Go's fsnotify has no portable raw inotify cookie API (unlike the
// original C implementation's direct IN_MOVED_FROM/IN_MOVED_TO cookie
// pairing), so rename correlation here is done by pairing a
// synthetic, process-local cookie to the old path at soft-disable
// time and matching it against the next Create event for the same
// base name within a debounce window — the same shape as the
// teacher's debounceChange/changeWorker pipeline
// (internal/media/realtime/watcher.go), adapted to inotify cookie
// semantics per DESIGN.md.
package watch

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"mediacatalog/database"
)

// Store persists the inotify table: one row per outstanding watch
// descriptor, mapping a synthetic cookie to the path it was last seen
// at.
type Store struct {
	db *database.DB
}

func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// Put records (or updates) the path last associated with wd/cookie.
func (s *Store) Put(ctx context.Context, wd, cookie int64, path string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO inotify (wd, cookie, path) VALUES (?, ?, ?)
		 ON CONFLICT(wd) DO UPDATE SET cookie = excluded.cookie, path = excluded.path`,
		wd, cookie, path)
	if err != nil {
		return fmt.Errorf("watch: put wd=%d: %w", wd, err)
	}
	return nil
}

// PathForCookie returns the path last recorded against cookie, or
// ("", false) if none is pending.
func (s *Store) PathForCookie(ctx context.Context, cookie int64) (string, bool, error) {
	var path string
	err := s.db.QueryRowContext(ctx, `SELECT path FROM inotify WHERE cookie = ?`, cookie).Scan(&path)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("watch: lookup cookie=%d: %w", cookie, err)
	}
	return path, true, nil
}

// FindPendingByBase scans outstanding rows for one whose path has the
// given base name, the basename-correlation approximation of the
// original's kernel-cookie rename pairing (see package doc). The
// table is small (bounded by concurrently in-flight renames), so a
// linear scan is cheap and keeps the schema free of a derived column.
func (s *Store) FindPendingByBase(ctx context.Context, base string) (cookie int64, path string, ok bool, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT cookie, path FROM inotify`)
	if err != nil {
		return 0, "", false, fmt.Errorf("watch: scan pending: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c int64
		var p string
		if err := rows.Scan(&c, &p); err != nil {
			return 0, "", false, err
		}
		if filepath.Base(p) == base {
			return c, p, true, nil
		}
	}
	return 0, "", false, rows.Err()
}

// Delete removes a watch-descriptor row once its cookie has been
// consumed (matched to a re-appearance) or has expired.
func (s *Store) Delete(ctx context.Context, wd int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM inotify WHERE wd = ?`, wd)
	if err != nil {
		return fmt.Errorf("watch: delete wd=%d: %w", wd, err)
	}
	return nil
}

// DeleteByCookie removes every row carrying cookie, used once a
// rename has been fully correlated.
func (s *Store) DeleteByCookie(ctx context.Context, cookie int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM inotify WHERE cookie = ?`, cookie)
	if err != nil {
		return fmt.Errorf("watch: delete cookie=%d: %w", cookie, err)
	}
	return nil
}
