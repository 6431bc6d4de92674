package ingest

import (
	"context"

	"go.uber.org/zap"

	"mediacatalog/internal/catalog"
	"mediacatalog/models"
)

// SpotifySource is the built-in "spotify" LibrarySource (spec §4.4,
// §4.7): a purge-only source. Spotify rows are written by the external
// collaborator that holds the OAuth session and playback bridge, not
// discovered by a scan; this source's only job is reconciling the
// catalog's spotify: namespace rows when that collaborator signals a
// sign-out or a playlist removal.
//
// Grounded on the already-built internal/catalog SpotifyPurge/
// SpotifyPlaylistDelete/SpotifyFilesDelete (spec §4.7's purge
// protocol), wired here to the same LibrarySource contract the other
// three built-in sources satisfy.
type SpotifySource struct {
	store  *catalog.Store
	logger *zap.Logger
}

func NewSpotifySource(store *catalog.Store, logger *zap.Logger) *SpotifySource {
	return &SpotifySource{store: store, logger: logger}
}

func (sp *SpotifySource) ScanKind() models.ScanKind { return models.ScanKindSpotify }

func (sp *SpotifySource) Init(ctx context.Context) error   { return nil }
func (sp *SpotifySource) Deinit(ctx context.Context) error { return nil }

// InitScan/Rescan/MetaRescan are no-ops: there is nothing to discover,
// only to purge. FullRescan runs the full purge protocol, the
// equivalent of a sign-out for this source.
func (sp *SpotifySource) InitScan(ctx context.Context) error   { return nil }
func (sp *SpotifySource) Rescan(ctx context.Context) error     { return nil }
func (sp *SpotifySource) MetaRescan(ctx context.Context) error { return nil }

func (sp *SpotifySource) FullRescan(ctx context.Context) error {
	return sp.store.SpotifyPurge(ctx)
}

// PlaylistRemove implements PlaylistRemover: removing a single Spotify
// playlist by its virtual path without purging the whole namespace.
func (sp *SpotifySource) PlaylistRemove(ctx context.Context, virtualPath string) error {
	pl, err := sp.store.GetPlaylistByPath(ctx, virtualPath)
	if err != nil {
		return err
	}
	return sp.store.SpotifyPlaylistDelete(ctx, pl.ID)
}

// CleanOrphans removes spotify: files no longer referenced by any live
// playlist (spec §4.7 "orphan file cleanup"), returning the row count
// removed.
func (sp *SpotifySource) CleanOrphans(ctx context.Context) (int64, error) {
	return sp.store.SpotifyFilesDelete(ctx)
}
