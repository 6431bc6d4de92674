package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mediacatalog/config"
	"mediacatalog/database"
	"mediacatalog/internal/catalog"
	"mediacatalog/internal/fixup"
	"mediacatalog/internal/query"
	"mediacatalog/models"
)

func newTestQueue(t *testing.T) (*Queue, *catalog.Store) {
	t.Helper()
	cfg := &config.Config{
		General: config.GeneralConfig{DBPath: ":memory:"},
		SQLite: config.SQLiteConfig{
			PragmaJournalMode:  "MEMORY",
			PragmaSynchronous:  "OFF",
			BusyTimeoutMs:      1000,
			MaxOpenConnections: 1,
		},
	}
	db, err := database.NewConnection(cfg)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(context.Background()))
	t.Cleanup(func() { db.Close() })

	policy := fixup.Policy{CompilationArtist: "Various Artists"}
	store := catalog.New(db, nil, zap.NewNop(), policy)
	q := New(db, nil, policy, 1)
	return q, store
}

func TestQueue_AddByQuery_AppendsAllMatches(t *testing.T) {
	q, store := newTestQueue(t)
	ctx := context.Background()

	for i, path := range []string{"/music/a.mp3", "/music/b.mp3"} {
		mfi := &models.MediaFile{Path: path, FName: path, Title: path, Track: i}
		_, err := store.SaveMediaFile(ctx, mfi)
		require.NoError(t, err)
	}

	qt, err := q.Begin(ctx)
	require.NoError(t, err)
	count, firstID, err := q.AddByQuery(ctx, qt, store, query.Params{Kind: query.Items}, false, 0, -1)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.NotZero(t, firstID)
	require.NoError(t, qt.Commit(nil))

	n, err := q.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestQueue_AddByQuery_InsertsAtPositionAndShifts(t *testing.T) {
	q, store := newTestQueue(t)
	ctx := context.Background()

	// Seed one existing queue item at pos 0.
	mfi := &models.MediaFile{Path: "/music/existing.mp3", FName: "existing.mp3", Title: "Existing"}
	_, err := store.SaveMediaFile(ctx, mfi)
	require.NoError(t, err)

	qt, err := q.Begin(ctx)
	require.NoError(t, err)
	_, err = q.ItemAddFromFile(ctx, qt, models.QueueItem{FileID: mfi.ID, Title: "Existing"}, 0, 0)
	require.NoError(t, err)
	require.NoError(t, qt.Commit(nil))

	newFile := &models.MediaFile{Path: "/music/new.mp3", FName: "new.mp3", Title: "New"}
	_, err = store.SaveMediaFile(ctx, newFile)
	require.NoError(t, err)

	qt2, err := q.Begin(ctx)
	require.NoError(t, err)
	count, _, err := q.AddByQuery(ctx, qt2, store, query.Params{Kind: query.Items, Filter: "path = '/music/new.mp3'"}, false, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.NoError(t, qt2.Commit(nil))

	n, err := q.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestQueue_AddByQuery_NoMatches(t *testing.T) {
	q, store := newTestQueue(t)
	ctx := context.Background()

	qt, err := q.Begin(ctx)
	require.NoError(t, err)
	count, id, err := q.AddByQuery(ctx, qt, store, query.Params{Kind: query.Items}, false, 0, -1)
	require.NoError(t, err)
	require.Zero(t, count)
	require.Zero(t, id)
	require.NoError(t, qt.Commit(nil))
}
