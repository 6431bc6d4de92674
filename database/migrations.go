package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaMigration upgrades the schema from one major version to the
// next. Up runs inside the single upgrade transaction shared by every
// migration in the run.
type schemaMigration struct {
	fromMajor int
	toMajor   int
	name      string
	up        func(ctx context.Context, tx *sql.Tx) error
}

// migrations is the ordered list of schema upgrades this build knows
// how to apply, starting at MinSupportedMajor. Two of these mirror the
// spec's own examples: the virtual_path backfill (17->18) and the
// directories-tree synthesis (18->19), both data-rewriting routines
// rather than static SQL lists (spec §4.8).
var migrations = []schemaMigration{
	{17, 18, "backfill_virtual_path", migrateBackfillVirtualPath},
	{18, 19, "synthesize_directories_tree", migrateSynthesizeDirectoriesTree},
}

// RunMigrations opens or upgrades the schema per spec §4.8: fresh
// databases get the current schema directly; older ones are carried
// forward one major version at a time inside a single transaction.
func (db *DB) RunMigrations(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS admin (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create admin table: %w", err)
	}

	major, minor, present, err := db.readSchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if !present {
		if err := db.createCurrentSchema(ctx); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		return db.writeSchemaVersion(ctx, CodeMajor, CodeMinor)
	}

	if major > CodeMajor {
		return fmt.Errorf("database schema %d is newer than this build supports (%d)", major, CodeMajor)
	}
	if major < MinSupportedMajor {
		return fmt.Errorf("database schema %d predates the oldest supported version (%d)", major, MinSupportedMajor)
	}
	if major == CodeMajor {
		return nil
	}

	if err := db.upgradeSchema(ctx, major); err != nil {
		return fmt.Errorf("schema upgrade failed: %w", err)
	}
	_ = minor
	return nil
}

func (db *DB) readSchemaVersion(ctx context.Context) (major, minor int, present bool, err error) {
	row := db.QueryRowContext(ctx, `SELECT value FROM admin WHERE key = 'schema_version_major'`)
	var majorStr string
	if err = row.Scan(&majorStr); err != nil {
		if err == sql.ErrNoRows {
			return 0, 0, false, nil
		}
		return 0, 0, false, err
	}
	if _, err = fmt.Sscanf(majorStr, "%d", &major); err != nil {
		return 0, 0, false, err
	}

	row = db.QueryRowContext(ctx, `SELECT value FROM admin WHERE key = 'schema_version_minor'`)
	var minorStr string
	if err = row.Scan(&minorStr); err != nil && err != sql.ErrNoRows {
		return 0, 0, false, err
	}
	if minorStr != "" {
		_, _ = fmt.Sscanf(minorStr, "%d", &minor)
	}
	return major, minor, true, nil
}

func (db *DB) writeSchemaVersion(ctx context.Context, major, minor int) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO admin (key, value) VALUES ('schema_version_major', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, fmt.Sprintf("%d", major))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO admin (key, value) VALUES ('schema_version_minor', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, fmt.Sprintf("%d", minor))
	return err
}

// upgradeSchema runs every migration from the stored major version up
// to CodeMajor inside one transaction, dropping and recreating the
// catalog's indices around the run. This build has no SQL-level
// triggers to suspend (groups consistency is enforced in Go by the
// catalog store's syncGroups step), so only indices bracket the upgrade.
func (db *DB) upgradeSchema(ctx context.Context, fromMajor int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := dropCoreIndices(ctx, tx); err != nil {
		return err
	}

	current := fromMajor
	for _, m := range migrations {
		if m.fromMajor < current {
			continue
		}
		if m.fromMajor != current {
			return fmt.Errorf("missing migration from major version %d", current)
		}
		if err := m.up(ctx, tx); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}
		current = m.toMajor
	}
	if current != CodeMajor {
		return fmt.Errorf("migration list does not reach code major version %d (stopped at %d)", CodeMajor, current)
	}

	for _, stmt := range coreIndexStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO admin (key, value) VALUES ('schema_version_major', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, fmt.Sprintf("%d", CodeMajor)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO admin (key, value) VALUES ('schema_version_minor', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, fmt.Sprintf("%d", CodeMinor)); err != nil {
		return err
	}

	return tx.Commit()
}

func dropCoreIndices(ctx context.Context, tx *sql.Tx) error {
	names := []string{
		"idx_files_directory", "idx_files_disabled", "idx_files_scan_kind",
		"idx_files_songalbumid", "idx_files_songartistid", "idx_files_db_timestamp",
		"idx_playlistitems_playlistid", "idx_playlistitems_filepath",
		"idx_directories_parent", "idx_queue_pos", "idx_queue_shuffle_pos",
		"idx_groups_persistentid",
	}
	for _, n := range names {
		if _, err := tx.ExecContext(ctx, "DROP INDEX IF EXISTS "+n); err != nil {
			return err
		}
	}
	return nil
}

// Vacuum runs VACUUM if the caller's configuration requests it
// (sqlite.vacuum != "none"), per spec §4.8 ("Post-migration, if
// vacuum=true, run VACUUM").
func (db *DB) Vacuum(ctx context.Context) error {
	if db.cfg != nil && db.cfg.SQLite.Vacuum == "none" {
		return nil
	}
	_, err := db.ExecContext(ctx, "VACUUM")
	return err
}
