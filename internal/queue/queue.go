// Package queue implements C6: the persistent, versioned play queue
// described in spec §4.6 — shuffle, reshuffle, move-range, and a
// monotonically increasing queue_version fencing every mutation.
//
// Grounded on original_source/db.c's db_queue_* functions and on
// database/tx_helpers.go's transactional-helper style; the CASE-based
// range move (spec §9 "Queue CASE-UPDATE for range move") is
// implemented as a single conditional UPDATE exactly as the original
// and spec both require, to avoid an intermediate state that would
// violate the contiguous-pos invariant.
package queue

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"sync"

	"mediacatalog/database"
	"mediacatalog/internal/eventbus"
	"mediacatalog/internal/fixup"
	"mediacatalog/internal/mapper"
	"mediacatalog/models"
)

// Queue owns the `queue` table and the admin.queue_version counter.
// rng is the process-wide seeded PRNG spec §5 names as a shared
// mutable; it is only ever touched from within a version-bearing
// transaction here, so the mutex below is defense-in-depth rather
// than a hot path.
type Queue struct {
	db     *database.DB
	bus    *eventbus.Bus
	policy fixup.Policy

	rngMu sync.Mutex
	rng   *rand.Rand
}

func New(db *database.DB, bus *eventbus.Bus, policy fixup.Policy, seed int64) *Queue {
	return &Queue{db: db, bus: bus, policy: policy, rng: rand.New(rand.NewSource(seed))}
}

// Tx is a version-bearing transaction: every queue row this scope
// writes is stamped with Version.
type Tx struct {
	tx      *sql.Tx
	Version int64
}

// Begin opens a new version-bearing transaction; Version is
// admin.queue_version + 1 (spec §4.6).
func (q *Queue) Begin(ctx context.Context) (*Tx, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("queue: begin transaction: %w", err)
	}
	current, err := readQueueVersion(ctx, tx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	return &Tx{tx: tx, Version: current + 1}, nil
}

// Commit writes the new queue_version into admin and emits
// LISTENER_QUEUE (spec §4.6: "commits and writes the new version into
// admin, and emits LISTENER_QUEUE").
func (qt *Tx) Commit(bus *eventbus.Bus) error {
	_, err := qt.tx.Exec(
		`INSERT INTO admin (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		models.AdminKeyQueueVersion, fmt.Sprintf("%d", qt.Version))
	if err != nil {
		qt.tx.Rollback()
		return fmt.Errorf("queue: commit: write queue_version: %w", err)
	}
	if err := qt.tx.Commit(); err != nil {
		return fmt.Errorf("queue: commit: %w", err)
	}
	if bus != nil {
		bus.Publish(eventbus.Event{Type: eventbus.EventQueue, Source: "queue", Payload: qt.Version})
	}
	return nil
}

// Rollback aborts the transaction; admin.queue_version is left
// unchanged.
func (qt *Tx) Rollback() error {
	return qt.tx.Rollback()
}

func readQueueVersion(ctx context.Context, tx *sql.Tx) (int64, error) {
	var v string
	err := tx.QueryRowContext(ctx, `SELECT value FROM admin WHERE key = ?`, models.AdminKeyQueueVersion).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("queue: read queue_version: %w", err)
	}
	var n int64
	fmt.Sscanf(v, "%d", &n)
	return n, nil
}

var qiColumns = mapper.For(models.QueueItem{})

// ItemAddFromFile inserts a queue row verbatim (spec: "no copy, no
// fixup; the caller guarantees well-formed fields").
func (q *Queue) ItemAddFromFile(ctx context.Context, qt *Tx, item models.QueueItem, pos, shufflePos int) (int64, error) {
	item.Pos = pos
	item.ShufflePos = shufflePos
	item.QueueVersion = qt.Version
	names, args := qiColumns.InsertColumns(item)
	placeholders := placeholdersFor(len(names))
	res, err := qt.tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO queue (%s) VALUES (%s)", joinNames(names), placeholders), args...)
	if err != nil {
		return 0, fmt.Errorf("queue: insert item: %w", err)
	}
	return res.LastInsertId()
}

// ItemAdd runs the same three-pass fixup as C5, limited to qi fields,
// before inserting (spec §4.6 "item_add(qi) ... run queue fixup").
func (q *Queue) ItemAdd(ctx context.Context, qt *Tx, item models.QueueItem, pos, shufflePos int) (int64, error) {
	runQueueFixup(&item, q.policy)
	return q.ItemAddFromFile(ctx, qt, item, pos, shufflePos)
}

// ItemUpdate applies queue fixup and rewrites item's mutable columns,
// stamping the new queue_version.
func (q *Queue) ItemUpdate(ctx context.Context, qt *Tx, item models.QueueItem) error {
	runQueueFixup(&item, q.policy)
	item.QueueVersion = qt.Version
	assignments, args := qiColumns.UpdateAssignments(item)
	args = append(args, item.ID)
	_, err := qt.tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE queue SET %s WHERE id = ?", joinAssignments(assignments)), args...)
	if err != nil {
		return fmt.Errorf("queue: update item %d: %w", item.ID, err)
	}
	return nil
}

// runQueueFixup applies C5's sanitize/defaults/sort-key passes to the
// subset of fields a QueueItem carries, by round-tripping through a
// throwaway MediaFile the way queue items mirror file columns.
func runQueueFixup(item *models.QueueItem, policy fixup.Policy) {
	mfi := models.MediaFile{
		Title: item.Title, Artist: item.Artist, Album: item.Album,
		AlbumArtist: item.AlbumArtist, DataKind: item.DataKind, MediaKind: item.MediaKind,
	}
	fixup.Run(&mfi, policy)
	item.Title, item.Artist, item.Album, item.AlbumArtist = mfi.Title, mfi.Artist, mfi.Album, mfi.AlbumArtist
}

func placeholdersFor(n int) string {
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ',', ' ')
		}
		out = append(out, '?')
	}
	return string(out)
}

func joinNames(names []string) string {
	out := names[0]
	for _, n := range names[1:] {
		out += ", " + n
	}
	return out
}

func joinAssignments(a []string) string {
	out := a[0]
	for _, x := range a[1:] {
		out += ", " + x
	}
	return out
}
