package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// migrateBackfillVirtualPath is the 17->18 data-rewriting migration
// (spec §4.8's "v15->v16 virtual-path back-fill" example, renumbered
// onto this schema's version line): older databases have a `files`
// table without `virtual_path`/`directory_id`/`songartistid`/
// `songalbumid` columns and no `directories`/`groups` tables at all.
// This migration adds them and derives virtual_path from data_kind+path.
func migrateBackfillVirtualPath(ctx context.Context, tx *sql.Tx) error {
	for _, col := range []struct{ name, ddl string }{
		{"virtual_path", "ALTER TABLE files ADD COLUMN virtual_path TEXT"},
		{"directory_id", "ALTER TABLE files ADD COLUMN directory_id INTEGER"},
		{"songartistid", "ALTER TABLE files ADD COLUMN songartistid INTEGER NOT NULL DEFAULT 0"},
		{"songalbumid", "ALTER TABLE files ADD COLUMN songalbumid INTEGER NOT NULL DEFAULT 0"},
		{"scan_kind", "ALTER TABLE files ADD COLUMN scan_kind INTEGER NOT NULL DEFAULT 0"},
	} {
		has, err := columnExists(ctx, tx, "files", col.name)
		if err != nil {
			return err
		}
		if !has {
			if _, err := tx.ExecContext(ctx, col.ddl); err != nil {
				return err
			}
		}
	}

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS directories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			virtual_path TEXT NOT NULL UNIQUE,
			path TEXT,
			parent_id INTEGER,
			db_timestamp INTEGER NOT NULL DEFAULT 0,
			disabled INTEGER NOT NULL DEFAULT 0,
			scan_kind INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS groups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type INTEGER NOT NULL,
			persistentid INTEGER NOT NULL,
			name TEXT,
			UNIQUE (type, persistentid)
		)`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, path, data_kind FROM files WHERE virtual_path IS NULL`)
	if err != nil {
		return err
	}
	type pending struct {
		id       int64
		path     string
		dataKind int
	}
	var toUpdate []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.path, &p.dataKind); err != nil {
			rows.Close()
			return err
		}
		toUpdate = append(toUpdate, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	for _, p := range toUpdate {
		vp := virtualPathForDataKind(p.dataKind, p.path)
		if _, err := tx.ExecContext(ctx, `UPDATE files SET virtual_path = ? WHERE id = ?`, vp, p.id); err != nil {
			return err
		}
	}

	return nil
}

// virtualPathForDataKind maps a file's data_kind (0=file, 1=http,
// 2=spotify) to its canonical namespace prefix, per spec §3/GLOSSARY.
func virtualPathForDataKind(dataKind int, path string) string {
	switch dataKind {
	case 1:
		return "/http:/" + strings.TrimPrefix(path, "/")
	case 2:
		return "/spotify:/" + strings.TrimPrefix(path, "/")
	default:
		return "/file:" + path
	}
}

func columnExists(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// migrateSynthesizeDirectoriesTree is the 18->19 data-rewriting
// migration from spec §4.8 and §9: it seeds the four reserved
// directories, then decomposes every file's virtual_path into its
// parent chain and creates any missing `directories` rows.
func migrateSynthesizeDirectoriesTree(ctx context.Context, tx *sql.Tx) error {
	for _, r := range []struct {
		id          int
		virtualPath string
	}{
		{DirRoot, "/"},
		{DirFile, "/file:"},
		{DirHTTP, "/http:"},
		{DirSpotify, "/spotify:"},
	} {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO directories (id, virtual_path, path, parent_id, db_timestamp, disabled, scan_kind)
			 VALUES (?, ?, NULL, NULL, 0, 0, 0)`, r.id, r.virtualPath); err != nil {
			return err
		}
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, virtual_path FROM files WHERE virtual_path IS NOT NULL`)
	if err != nil {
		return err
	}
	type file struct {
		id int64
		vp string
	}
	var files []file
	for rows.Next() {
		var f file
		if err := rows.Scan(&f.id, &f.vp); err != nil {
			rows.Close()
			return err
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	dirIDCache := map[string]int64{
		"/":         DirRoot,
		"/file:":    DirFile,
		"/http:":    DirHTTP,
		"/spotify:": DirSpotify,
	}

	for _, f := range files {
		dirID, err := ensureDirectoryChain(ctx, tx, dirIDCache, parentVirtualPath(f.vp))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE files SET directory_id = ? WHERE id = ?`, dirID, f.id); err != nil {
			return err
		}
	}

	return nil
}

// parentVirtualPath strips the final path segment off a virtual path,
// e.g. "/file:/music/a.mp3" -> "/file:/music".
func parentVirtualPath(vp string) string {
	idx := strings.LastIndex(vp, "/")
	if idx <= 0 {
		return "/"
	}
	return vp[:idx]
}

// ensureDirectoryChain walks a virtual path's ancestors from the
// nearest known directory down to vp, inserting any missing rows and
// returning the id of vp's directory.
func ensureDirectoryChain(ctx context.Context, tx *sql.Tx, cache map[string]int64, vp string) (int64, error) {
	if id, ok := cache[vp]; ok {
		return id, nil
	}

	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM directories WHERE virtual_path = ?`, vp).Scan(&id)
	if err == nil {
		cache[vp] = id
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	parentID, err := ensureDirectoryChain(ctx, tx, cache, parentVirtualPath(vp))
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO directories (virtual_path, path, parent_id, db_timestamp, disabled, scan_kind)
		 VALUES (?, NULL, ?, 0, 0, 0)`, vp, parentID)
	if err != nil {
		return 0, err
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	cache[vp] = newID
	return newID, nil
}
