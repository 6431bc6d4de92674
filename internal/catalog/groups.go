package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"mediacatalog/models"
)

// syncGroups maintains spec §3 invariant 3 ("groups.persistentid is
// populated by trigger on every files insert/update") without a real
// SQL trigger: SQLite triggers cannot easily express the name
// backfill this needs, so the catalog store performs the
// insert-or-update itself inside the same transaction as the files
// write it accompanies.
func syncGroups(ctx context.Context, tx *sql.Tx, persistentID int64, groupType models.GroupType, name string) error {
	if persistentID == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO groups (type, persistentid, name) VALUES (?, ?, ?)
		ON CONFLICT(type, persistentid) DO UPDATE SET name = excluded.name
		WHERE excluded.name != '' `, groupType, persistentID, name)
	if err != nil {
		return fmt.Errorf("catalog: sync group (type=%d): %w", groupType, err)
	}
	return nil
}
