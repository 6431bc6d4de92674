package ingest

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/plist"
	"go.uber.org/zap"

	"mediacatalog/config"
	"mediacatalog/internal/catalog"
	"mediacatalog/internal/catalogerr"
	"mediacatalog/models"
)

// ITunesSource is the built-in "itunes" LibrarySource (spec §4.4):
// reconciles playlists (and ratings, when library.itunes_overrides is
// set) from an "iTunes Music Library.xml" export against files
// already known to the catalog by path.
//
// Grounded on original_source/library/filescanner_itunes.c's
// Master/Party-Shuffle/Distinguished-Kind skip rules and longest-
// suffix path matching, re-expressed atop github.com/dhowden/plist
// (the property-list decoder the teacher's own manifest-retrieved
// pack entry names for exactly this XML dialect) instead of a
// hand-rolled plist parser.
type ITunesSource struct {
	cfg    config.LibraryConfig
	store  *catalog.Store
	logger *zap.Logger
}

func NewITunesSource(cfg config.LibraryConfig, store *catalog.Store, logger *zap.Logger) *ITunesSource {
	return &ITunesSource{cfg: cfg, store: store, logger: logger}
}

func (it *ITunesSource) ScanKind() models.ScanKind { return models.ScanKindITunes }

func (it *ITunesSource) Init(ctx context.Context) error   { return nil }
func (it *ITunesSource) Deinit(ctx context.Context) error { return nil }

func (it *ITunesSource) InitScan(ctx context.Context) error   { return it.sync(ctx) }
func (it *ITunesSource) Rescan(ctx context.Context) error     { return it.sync(ctx) }
func (it *ITunesSource) MetaRescan(ctx context.Context) error { return it.sync(ctx) }
func (it *ITunesSource) FullRescan(ctx context.Context) error { return it.sync(ctx) }

func (it *ITunesSource) sync(ctx context.Context) error {
	if it.cfg.ITunesXMLPath == "" {
		return nil
	}

	root, err := it.load()
	if err != nil {
		return err
	}

	knownPaths, err := it.store.ListFilePaths(ctx, models.ScanKindFiles)
	if err != nil {
		return fmt.Errorf("ingest: itunes: list known paths: %w", err)
	}

	tracks, _ := root["Tracks"].(map[string]interface{})
	trackPaths := make(map[string]string, len(tracks)) // track id -> resolved catalog path
	for trackID, raw := range tracks {
		track, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		location, _ := track["Location"].(string)
		if location == "" {
			continue
		}
		path, err := fileURLToPath(location)
		if err != nil {
			continue
		}
		resolved, err := it.store.GetFileByPath(ctx, path)
		if err != nil {
			// Fall back to a longest-suffix match against every live
			// path the catalog knows, the way the original reconciles
			// an iTunes-exported location against a differently-rooted
			// scan directory (filescanner_itunes.c).
			match := longestSuffixMatch(path, knownPaths)
			if match == "" {
				continue
			}
			resolved, err = it.store.GetFileByPath(ctx, match)
			if err != nil {
				continue
			}
		}
		trackPaths[trackID] = resolved.Path

		if it.cfg.ITunesOverrides {
			it.applyOverrides(ctx, resolved, track)
		}
	}

	playlists, _ := root["Playlists"].([]interface{})
	refTime := time.Now().Unix()
	for _, raw := range playlists {
		pl, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if skipPlaylist(pl) {
			continue
		}
		name, _ := pl["Name"].(string)
		if name == "" {
			continue
		}
		vp := "/itunes:" + name

		plRow := &models.Playlist{
			Title:       name,
			Type:        models.PlaylistTypePlain,
			VirtualPath: vp,
			MediaKind:   models.MediaKindMusic,
			ScanKind:    models.ScanKindITunes,
			DBTimestamp: refTime,
		}
		plID, err := it.store.SavePlaylist(ctx, plRow)
		if err != nil {
			it.logger.Warn("ingest: itunes: save playlist failed", zap.String("name", name), zap.Error(err))
			continue
		}

		items, _ := pl["Playlist Items"].([]interface{})
		for _, rawItem := range items {
			item, ok := rawItem.(map[string]interface{})
			if !ok {
				continue
			}
			trackID := itunesTrackID(item)
			path, ok := trackPaths[trackID]
			if !ok {
				continue
			}
			if _, err := it.store.PlaylistItemAdd(ctx, plID, path, refTime); err != nil {
				it.logger.Warn("ingest: itunes: playlist item add failed", zap.String("name", name), zap.Error(err))
			}
		}
	}

	return nil
}

func (it *ITunesSource) load() (map[string]interface{}, error) {
	data, err := os.ReadFile(it.cfg.ITunesXMLPath)
	if err != nil {
		return nil, catalogerr.Source("ingest: itunes: read library xml", err)
	}
	parsed, err := plist.Unmarshal(data)
	if err != nil {
		return nil, catalogerr.Source("ingest: itunes: parse library xml", err)
	}
	root, ok := parsed.(map[string]interface{})
	if !ok {
		return nil, catalogerr.Integrity("ingest: itunes: unexpected library xml root", fmt.Errorf("not a dict"))
	}
	return root, nil
}

// applyOverrides copies the iTunes "Rating" key onto the catalog
// row's rating (spec §4.4 "itunes_overrides lets iTunes-side ratings
// win over catalog ones").
func (it *ITunesSource) applyOverrides(ctx context.Context, mfi *models.MediaFile, track map[string]interface{}) {
	rating, ok := plistInt(track["Rating"])
	if !ok {
		return
	}
	mfi.Rating = int(rating)
	if _, err := it.store.SaveMediaFile(ctx, mfi); err != nil {
		it.logger.Warn("ingest: itunes: rating override failed", zap.String("path", mfi.Path), zap.Error(err))
	}
}

// skipPlaylist reports whether pl is one of the synthetic playlists
// the original scanner always excludes: Master, Party Shuffle, or any
// playlist with a positive Distinguished Kind (Books, Podcasts, Genius
// Mixes, etc. — the catalog's own rss/files sources own those rows).
func skipPlaylist(pl map[string]interface{}) bool {
	if master, ok := pl["Master"].(bool); ok && master {
		return true
	}
	if name, _ := pl["Name"].(string); name == "Party Shuffle" {
		return true
	}
	if kind, ok := plistInt(pl["Distinguished Kind"]); ok && kind > 0 {
		return true
	}
	return false
}

func itunesTrackID(item map[string]interface{}) string {
	v, ok := plistInt(item["Track ID"])
	if !ok {
		return ""
	}
	return fmt.Sprintf("%d", v)
}

func plistInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// longestSuffixMatch finds the candidate path sharing the longest run
// of trailing path components with path, the way filescanner_itunes.c
// reconciles a "Location" exported from a differently-rooted mount
// against the paths this catalog actually scanned. Returns "" if no
// candidate shares even the final component.
func longestSuffixMatch(path string, candidates []string) string {
	want := reversePathComponents(path)

	best := ""
	bestLen := 0
	for _, c := range candidates {
		have := reversePathComponents(c)
		n := 0
		for n < len(want) && n < len(have) && want[n] == have[n] {
			n++
		}
		if n > bestLen {
			bestLen = n
			best = c
		}
	}
	if bestLen == 0 {
		return ""
	}
	return best
}

func reversePathComponents(path string) []string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return parts
}

// fileURLToPath converts an iTunes "file://" Location URL (percent-
// encoded, sometimes with a host component) into a plain filesystem
// path.
func fileURLToPath(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", catalogerr.Source("ingest: itunes: parse location", err)
	}
	if u.Scheme != "" && u.Scheme != "file" {
		return "", fmt.Errorf("unsupported location scheme %q", u.Scheme)
	}
	path := u.Path
	if path == "" {
		path = strings.TrimPrefix(location, "file://")
	}
	return filepath.Clean(path), nil
}
