package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mediacatalog/config"
	"mediacatalog/database"
	"mediacatalog/internal/catalog"
	"mediacatalog/internal/fixup"
)

func newTestCatalogStore(t *testing.T) *catalog.Store {
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
	return catalog.New(db, nil, zap.NewNop(), fixup.Policy{CompilationArtist: "Various Artists"})
}

func TestFilesSource_InitScan_DiscoversAndSavesFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "track.mp3"), []byte("not really audio"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	store := newTestCatalogStore(t)
	src := NewFilesSource(config.LibraryConfig{
		Directories:     []string{dir},
		FiletypesIgnore: []string{"txt"},
	}, store, zap.NewNop())

	require.NoError(t, src.InitScan(context.Background()))

	got, err := store.GetFileByPath(context.Background(), filepath.Join(dir, "track.mp3"))
	require.NoError(t, err)
	require.Equal(t, "track.mp3", got.FName)

	_, err = store.GetFileByPath(context.Background(), filepath.Join(dir, "notes.txt"))
	require.Error(t, err)
}

func TestFilesSource_FullRescan_PurgesRemovedFiles(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "keep.mp3")
	gone := filepath.Join(dir, "gone.mp3")
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(gone, []byte("x"), 0644))

	store := newTestCatalogStore(t)
	src := NewFilesSource(config.LibraryConfig{Directories: []string{dir}}, store, zap.NewNop())
	// Force strictly increasing timestamps so the purge in FullRescan
	// can distinguish "seen this pass" from "stale" without depending
	// on wall-clock granularity.
	var tick int64
	src.clock = func() int64 { tick++; return tick }

	require.NoError(t, src.InitScan(context.Background()))
	require.NoError(t, os.Remove(gone))

	require.NoError(t, src.FullRescan(context.Background()))

	_, err := store.GetFileByPath(context.Background(), keep)
	require.NoError(t, err)
	_, err = store.GetFileByPath(context.Background(), gone)
	require.Error(t, err)
}

func TestFilesSource_PathIgnoredSkipsDirectory(t *testing.T) {
	dir := t.TempDir()
	skipped := filepath.Join(dir, "skip")
	require.NoError(t, os.Mkdir(skipped, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(skipped, "a.mp3"), []byte("x"), 0644))

	store := newTestCatalogStore(t)
	src := NewFilesSource(config.LibraryConfig{
		Directories:    []string{dir},
		FilepathIgnore: []string{skipped},
	}, store, zap.NewNop())

	require.NoError(t, src.InitScan(context.Background()))

	_, err := store.GetFileByPath(context.Background(), filepath.Join(skipped, "a.mp3"))
	require.Error(t, err)
}
