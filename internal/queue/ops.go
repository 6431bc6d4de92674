package queue

import (
	"context"
	"fmt"

	"mediacatalog/models"
)

// Count returns the number of rows currently in the queue.
func (q *Queue) Count(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM queue`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("queue: count: %w", err)
	}
	return n, nil
}

// DeleteByPos deletes a contiguous range of `count` rows starting at
// pos, then repacks both position spaces (spec §4.6 delete_by_pos).
func (q *Queue) DeleteByPos(ctx context.Context, qt *Tx, pos, count int) error {
	_, err := qt.tx.ExecContext(ctx, `DELETE FROM queue WHERE pos >= ? AND pos < ?`, pos, pos+count)
	if err != nil {
		return fmt.Errorf("queue: delete by pos: %w", err)
	}
	if err := fixPos(ctx, qt, "pos"); err != nil {
		return err
	}
	return fixPos(ctx, qt, "shuffle_pos")
}

// fixPos re-establishes the contiguous 0..N-1 permutation invariant
// (spec §3 invariant 4) over the named position column after a
// delete, by re-numbering rows in their current relative order. Only
// rows whose position actually changes are written, and that write
// carries the new queue_version in the same statement — rows whose
// position doesn't move are left untouched, version included (spec §3
// invariant 5 / §9: only mutated rows get a new queue_version).
func fixPos(ctx context.Context, qt *Tx, col string) error {
	rows, err := qt.tx.QueryContext(ctx, fmt.Sprintf("SELECT id, %s FROM queue ORDER BY %s", col, col))
	if err != nil {
		return fmt.Errorf("queue: fix_pos(%s) select: %w", col, err)
	}
	type row struct {
		id  int64
		pos int
	}
	var got []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.pos); err != nil {
			rows.Close()
			return err
		}
		got = append(got, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for i, r := range got {
		if r.pos == i {
			continue
		}
		if _, err := qt.tx.ExecContext(ctx,
			fmt.Sprintf("UPDATE queue SET %s = ?, queue_version = ? WHERE id = ?", col), i, qt.Version, r.id); err != nil {
			return fmt.Errorf("queue: fix_pos(%s) update: %w", col, err)
		}
	}
	return nil
}

// MoveByPos moves the single item at `from` to `to`, expressed as the
// single CASE-UPDATE spec §9 requires to avoid an intermediate state
// that would violate the contiguous-pos invariant.
func (q *Queue) MoveByPos(ctx context.Context, qt *Tx, from, to int) error {
	return q.MoveByPosRange(ctx, qt, from, from+1, to)
}

// MoveByPosRange moves the contiguous range [begin, end), per spec
// §4.6's move_by_pos_range. Implemented as one conditional UPDATE over
// the affected span:
//
//	moving forward (to >= end): rows in [end, to] shift down by the
//	range's width; rows in [begin, end) shift up by (to - end + 1), so
//	the range's last item lands at `to`.
//	moving backward (to < begin): rows in [to, begin) shift up by the
//	range's width; rows in [begin, end) shift down by (begin - to), so
//	the range's first item lands at `to`.
//	`to` inside [begin, end): nothing moves.
func (q *Queue) MoveByPosRange(ctx context.Context, qt *Tx, begin, end, to int) error {
	return q.moveRangeOnColumn(ctx, qt, "pos", begin, end, to)
}

// MoveByItemID moves the row identified by itemID to position `to`,
// in either the pos or shuffle_pos space.
func (q *Queue) MoveByItemID(ctx context.Context, qt *Tx, itemID int64, to int, shuffle bool) error {
	col := "pos"
	if shuffle {
		col = "shuffle_pos"
	}
	var from int
	err := qt.tx.QueryRowContext(ctx, fmt.Sprintf("SELECT %s FROM queue WHERE id = ?", col), itemID).Scan(&from)
	if err != nil {
		return fmt.Errorf("queue: move by item id %d: %w", itemID, err)
	}
	if shuffle {
		return q.moveRangeOnColumn(ctx, qt, "shuffle_pos", from, from+1, to)
	}
	return q.MoveByPosRange(ctx, qt, from, from+1, to)
}

// moveRangeOnColumn is the single conditional UPDATE spec §9 requires
// for a range move, over either the pos or shuffle_pos column: moving
// forward shifts the intervening block back by the range's width;
// moving backward shifts it forward. This avoids ever writing an
// intermediate state that breaks the contiguous-permutation invariant.
func (q *Queue) moveRangeOnColumn(ctx context.Context, qt *Tx, col string, begin, end, to int) error {
	width := end - begin
	if width <= 0 {
		return fmt.Errorf("queue: move range: empty or inverted range [%d,%d)", begin, end)
	}
	// queue_version is stamped in the same conditional UPDATE as the
	// position change, scoped to the same WHERE span, so rows outside
	// the affected window (and, in the to-already-inside-range case
	// below, every row) keep their existing queue_version untouched.
	var sqlStmt string
	var args []interface{}
	switch {
	case to >= end:
		shift := to - end + 1
		sqlStmt = fmt.Sprintf(`UPDATE queue SET %s = CASE
			WHEN %s < ? THEN %s + ?
			ELSE %s - ?
			END, queue_version = ?
			WHERE %s >= ? AND %s <= ?`, col, col, col, col, col, col)
		args = []interface{}{begin + width, shift, width, qt.Version, begin, to}
	case to < begin:
		shift := begin - to
		sqlStmt = fmt.Sprintf(`UPDATE queue SET %s = CASE
			WHEN %s < ? THEN %s + ?
			ELSE %s - ?
			END, queue_version = ?
			WHERE %s >= ? AND %s < ?`, col, col, col, col, col, col)
		args = []interface{}{begin, width, shift, qt.Version, to, end}
	default:
		// to already lands within [begin, end): no position actually
		// moves, so no row is mutated and no queue_version changes.
		return nil
	}
	if _, err := qt.tx.ExecContext(ctx, sqlStmt, args...); err != nil {
		return fmt.Errorf("queue: move range on %s: %w", col, err)
	}
	return nil
}

// Reshuffle assigns a fresh random permutation to shuffle_pos (spec
// §4.6 reshuffle): rows up to and including baseItemID's current pos
// keep shuffle_pos = pos; everything after is permuted. baseItemID=0
// permutes every row.
func (q *Queue) Reshuffle(ctx context.Context, qt *Tx, baseItemID int64) error {
	if _, err := qt.tx.ExecContext(ctx, `UPDATE queue SET shuffle_pos = pos, queue_version = ?`, qt.Version); err != nil {
		return fmt.Errorf("queue: reshuffle reset: %w", err)
	}

	start := 0
	if baseItemID != 0 {
		var basePos int
		if err := qt.tx.QueryRowContext(ctx, `SELECT pos FROM queue WHERE id = ?`, baseItemID).Scan(&basePos); err != nil {
			return fmt.Errorf("queue: reshuffle: base item %d: %w", baseItemID, err)
		}
		start = basePos + 1
	}

	rows, err := qt.tx.QueryContext(ctx, `SELECT id FROM queue WHERE pos >= ? ORDER BY pos`, start)
	if err != nil {
		return fmt.Errorf("queue: reshuffle: select affected: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	positions := make([]int, len(ids))
	for i := range positions {
		positions[i] = start + i
	}

	q.rngMu.Lock()
	q.rng.Shuffle(len(positions), func(i, j int) { positions[i], positions[j] = positions[j], positions[i] })
	q.rngMu.Unlock()

	for i, id := range ids {
		if _, err := qt.tx.ExecContext(ctx, `UPDATE queue SET shuffle_pos = ?, queue_version = ? WHERE id = ?`,
			positions[i], qt.Version, id); err != nil {
			return fmt.Errorf("queue: reshuffle: update %d: %w", id, err)
		}
	}
	return nil
}

// Clear deletes every row except keepItemID (if nonzero), which is
// reset to pos=shuffle_pos=0 and restamped (spec §4.6 clear).
func (q *Queue) Clear(ctx context.Context, qt *Tx, keepItemID int64) error {
	if keepItemID == 0 {
		if _, err := qt.tx.ExecContext(ctx, `DELETE FROM queue`); err != nil {
			return fmt.Errorf("queue: clear: %w", err)
		}
		return nil
	}
	if _, err := qt.tx.ExecContext(ctx, `DELETE FROM queue WHERE id != ?`, keepItemID); err != nil {
		return fmt.Errorf("queue: clear: %w", err)
	}
	_, err := qt.tx.ExecContext(ctx,
		`UPDATE queue SET pos = 0, shuffle_pos = 0, queue_version = ? WHERE id = ?`, qt.Version, keepItemID)
	if err != nil {
		return fmt.Errorf("queue: clear: reset kept item: %w", err)
	}
	return nil
}

// Cleanup deletes queue rows whose file_id is not a live (disabled=0)
// files row, excepting NonPersistentID rows, then repacks both
// position spaces (spec §4.6 cleanup).
func (q *Queue) Cleanup(ctx context.Context, qt *Tx) error {
	_, err := qt.tx.ExecContext(ctx, `
		DELETE FROM queue
		WHERE file_id != ?
		  AND file_id NOT IN (SELECT id FROM files WHERE disabled = 0)`, models.NonPersistentID)
	if err != nil {
		return fmt.Errorf("queue: cleanup: %w", err)
	}
	if err := fixPos(ctx, qt, "pos"); err != nil {
		return err
	}
	return fixPos(ctx, qt, "shuffle_pos")
}
