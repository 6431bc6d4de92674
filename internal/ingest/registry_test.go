package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"mediacatalog/models"
)

type stubSource struct {
	kind models.ScanKind
}

func (s *stubSource) ScanKind() models.ScanKind      { return s.kind }
func (s *stubSource) Init(ctx context.Context) error { return nil }
func (s *stubSource) Deinit(ctx context.Context) error { return nil }
func (s *stubSource) InitScan(ctx context.Context) error   { return nil }
func (s *stubSource) Rescan(ctx context.Context) error     { return nil }
func (s *stubSource) MetaRescan(ctx context.Context) error { return nil }
func (s *stubSource) FullRescan(ctx context.Context) error { return nil }

func TestRegistry_SkipsNilSources(t *testing.T) {
	r := NewRegistry(&stubSource{kind: models.ScanKindFiles}, nil, &stubSource{kind: models.ScanKindRSS})
	require.Len(t, r.All(), 2)
}

func TestRegistry_ByScanKind(t *testing.T) {
	files := &stubSource{kind: models.ScanKindFiles}
	rss := &stubSource{kind: models.ScanKindRSS}
	r := NewRegistry(files, rss)

	require.Same(t, files, r.ByScanKind(models.ScanKindFiles))
	require.Same(t, rss, r.ByScanKind(models.ScanKindRSS))
	require.Nil(t, r.ByScanKind(models.ScanKindSpotify))
}
