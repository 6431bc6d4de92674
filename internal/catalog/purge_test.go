package catalog

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"mediacatalog/models"
)

func TestStore_PurgeCruft_RemovesStaleRowsOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := &models.MediaFile{Path: "/music/old.mp3", FName: "old.mp3", DBTimestamp: 100}
	_, err := s.SaveMediaFile(ctx, old)
	require.NoError(t, err)

	fresh := &models.MediaFile{Path: "/music/fresh.mp3", FName: "fresh.mp3", DBTimestamp: 500}
	_, err = s.SaveMediaFile(ctx, fresh)
	require.NoError(t, err)

	require.NoError(t, s.PurgeCruft(ctx, 300))

	_, err = s.GetFileByID(ctx, old.ID)
	require.ErrorIs(t, err, sql.ErrNoRows)

	got, err := s.GetFileByID(ctx, fresh.ID)
	require.NoError(t, err)
	require.Equal(t, "/music/fresh.mp3", got.Path)
}

func TestStore_PurgeCruftScoped_RespectsScanKind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rssFile := &models.MediaFile{Path: "/rss/a", FName: "a", ScanKind: models.ScanKindRSS}
	_, err := s.SaveMediaFile(ctx, rssFile)
	require.NoError(t, err)

	filesFile := &models.MediaFile{Path: "/files/b", FName: "b", ScanKind: models.ScanKindFiles}
	_, err = s.SaveMediaFile(ctx, filesFile)
	require.NoError(t, err)

	require.NoError(t, s.PurgeCruftScoped(ctx, 1<<30, int(models.ScanKindRSS)))

	_, err = s.GetFileByID(ctx, rssFile.ID)
	require.ErrorIs(t, err, sql.ErrNoRows)

	got, err := s.GetFileByID(ctx, filesFile.ID)
	require.NoError(t, err)
	require.Equal(t, "/files/b", got.Path)
}

func TestStore_RunAnalyze(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.RunAnalyze(context.Background()))
}
