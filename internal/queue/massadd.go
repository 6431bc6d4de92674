package queue

import (
	"context"
	"fmt"

	"mediacatalog/internal/catalog"
	"mediacatalog/internal/query"
	"mediacatalog/models"
)

// AddByQuery runs qp against the catalog store and inserts every
// matched file as a queue item, implementing spec §4.6's "Mass add":
// if position is negative or beyond the current queue length, items
// are appended; otherwise existing rows at pos >= position are
// shifted up by the inserted count first, then the new items are
// inserted contiguously starting at position. If reshuffle is set and
// position was left unspecified (negative), the queue is reshuffled
// from baseItemID afterward. Returns the number of items added and
// the id of the first one.
func (q *Queue) AddByQuery(ctx context.Context, qt *Tx, store *catalog.Store, qp query.Params, reshuffle bool, baseItemID int64, position int) (count int, newItemID int64, err error) {
	files, _, err := store.FetchFiles(ctx, qp)
	if err != nil {
		return 0, 0, fmt.Errorf("queue: add by query: fetch: %w", err)
	}
	if len(files) == 0 {
		return 0, 0, nil
	}

	current, err := q.Count(ctx)
	if err != nil {
		return 0, 0, err
	}

	appending := position < 0 || position > current
	insertAt := position
	if appending {
		insertAt = current
	} else if err := q.shiftFrom(ctx, qt, insertAt, len(files)); err != nil {
		return 0, 0, err
	}

	for i, mfi := range files {
		item := models.QueueItem{
			FileID: mfi.ID, Title: mfi.Title, Artist: mfi.Artist, Album: mfi.Album,
			AlbumArtist: mfi.AlbumArtist, SongLength: mfi.SongLength,
			DataKind: mfi.DataKind, MediaKind: mfi.MediaKind,
		}
		pos := insertAt + i
		id, err := q.ItemAddFromFile(ctx, qt, item, pos, pos)
		if err != nil {
			return count, newItemID, err
		}
		if i == 0 {
			newItemID = id
		}
		count++
	}

	if reshuffle && position < 0 {
		if err := q.Reshuffle(ctx, qt, baseItemID); err != nil {
			return count, newItemID, err
		}
	}
	return count, newItemID, nil
}

// shiftFrom makes room for `n` new rows at `at` by shifting every
// existing row with pos/shuffle_pos >= at up by n, before the mass
// insert writes into the freed range (spec §4.6: "shift pos and
// shuffle_pos of existing rows at pos >= position by the inserted
// count").
func (q *Queue) shiftFrom(ctx context.Context, qt *Tx, at, n int) error {
	if _, err := qt.tx.ExecContext(ctx,
		`UPDATE queue SET pos = pos + ? WHERE pos >= ?`, n, at); err != nil {
		return fmt.Errorf("queue: add by query: shift pos: %w", err)
	}
	if _, err := qt.tx.ExecContext(ctx,
		`UPDATE queue SET shuffle_pos = shuffle_pos + ? WHERE shuffle_pos >= ?`, n, at); err != nil {
		return fmt.Errorf("queue: add by query: shift shuffle_pos: %w", err)
	}
	return nil
}
