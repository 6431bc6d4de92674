package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"mediacatalog/config"
	"mediacatalog/internal/catalog"
	"mediacatalog/internal/catalogerr"
	"mediacatalog/models"
)

// RSSSource is the built-in "rss" LibrarySource (spec §4.4): polls a
// configured list of podcast feeds, materializing each feed as a
// playlist of podcast-kind MediaFile rows.
//
// Grounded on original_source/library/filescanner_rss.c's feed-to-
// playlist mapping, re-expressed atop github.com/mmcdole/gofeed (the
// same feed-parsing library the pack's denpa-radio/muserv manifests
// pull in) instead of hand-rolled XML parsing.
type RSSSource struct {
	cfg    config.RSSConfig
	store  *catalog.Store
	logger *zap.Logger
	parser *gofeed.Parser
	client *http.Client
}

func NewRSSSource(cfg config.RSSConfig, store *catalog.Store, logger *zap.Logger) *RSSSource {
	return &RSSSource{
		cfg:    cfg,
		store:  store,
		logger: logger,
		parser: gofeed.NewParser(),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *RSSSource) ScanKind() models.ScanKind { return models.ScanKindRSS }

func (r *RSSSource) Init(ctx context.Context) error   { return nil }
func (r *RSSSource) Deinit(ctx context.Context) error { return nil }

func (r *RSSSource) InitScan(ctx context.Context) error    { return r.syncAll(ctx) }
func (r *RSSSource) Rescan(ctx context.Context) error      { return r.syncAll(ctx) }
func (r *RSSSource) MetaRescan(ctx context.Context) error  { return r.syncAll(ctx) }
func (r *RSSSource) FullRescan(ctx context.Context) error  { return r.syncAll(ctx) }

func (r *RSSSource) syncAll(ctx context.Context) error {
	for _, feedURL := range r.cfg.Feeds {
		if err := r.syncFeed(ctx, feedURL); err != nil {
			r.logger.Warn("ingest: rss: feed sync failed", zap.String("feed", feedURL), zap.Error(err))
		}
	}
	return nil
}

// resolveFeedURL substitutes an Apple Podcasts page URL
// (podcasts.apple.com/.../id<NNN>) for the show's real feedUrl via the
// iTunes lookup JSON endpoint (spec §4.4 "Apple Podcasts URLs are
// resolved to their real feed via the iTunes lookup API before
// polling").
func (r *RSSSource) resolveFeedURL(ctx context.Context, feedURL string) (string, error) {
	u, err := url.Parse(feedURL)
	if err != nil || !strings.Contains(u.Host, "podcasts.apple.com") {
		return feedURL, nil
	}

	id := applePodcastID(u.Path)
	if id == "" {
		return feedURL, nil
	}

	lookupURL := fmt.Sprintf("https://itunes.apple.com/lookup?id=%s&entity=podcast", id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return "", catalogerr.Source("ingest: rss: build itunes lookup request", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", catalogerr.Transient("ingest: rss: itunes lookup", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			FeedURL string `json:"feedUrl"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", catalogerr.Source("ingest: rss: decode itunes lookup", err)
	}
	if len(payload.Results) == 0 || payload.Results[0].FeedURL == "" {
		return feedURL, nil
	}
	return payload.Results[0].FeedURL, nil
}

// applePodcastID extracts the numeric id from a path like
// "/us/podcast/some-show/id1234567890".
func applePodcastID(path string) string {
	parts := strings.Split(path, "/")
	for _, p := range parts {
		if strings.HasPrefix(p, "id") {
			if _, err := strconv.ParseInt(p[2:], 10, 64); err == nil {
				return p[2:]
			}
		}
	}
	return ""
}

func (r *RSSSource) syncFeed(ctx context.Context, feedURL string) error {
	resolved, err := r.resolveFeedURL(ctx, feedURL)
	if err != nil {
		return err
	}

	feed, err := r.parser.ParseURLWithContext(resolved, ctx)
	if err != nil {
		return catalogerr.Transient("ingest: rss: parse feed", err)
	}

	refTime := time.Now().Unix()
	vp := "/rss:" + resolved

	pl := &models.Playlist{
		Title:       feed.Title,
		Type:        models.PlaylistTypeRSS,
		Path:        resolved,
		VirtualPath: vp,
		MediaKind:   models.MediaKindPodcast,
		ArtworkURL:  feedImageURL(feed),
		ScanKind:    models.ScanKindRSS,
		DBTimestamp: refTime,
	}
	plID, err := r.store.SavePlaylist(ctx, pl)
	if err != nil {
		return fmt.Errorf("ingest: rss: save playlist: %w", err)
	}

	// Newest-first entries are appended last-in-first-out so the
	// playlist's append order still reads oldest-to-newest (spec §4.4
	// "entries are ingested LIFO relative to publish date").
	items := append([]*gofeed.Item(nil), feed.Items...)
	sort.Slice(items, func(i, j int) bool {
		ti, tj := itemTime(items[i]), itemTime(items[j])
		return ti.Before(tj)
	})

	for _, item := range items {
		mfi := &models.MediaFile{
			Title:       item.Title,
			Artist:      feed.Title,
			AlbumArtist: feed.Title,
			Comment:     item.Description,
			DataKind:    models.DataKindHTTP,
			MediaKind:   models.MediaKindPodcast,
			ScanKind:    models.ScanKindRSS,
			DBTimestamp: refTime,
		}
		if t := itemTime(item); !t.IsZero() {
			mfi.DateReleased = t.Unix()
		}
		enclosureURL := enclosureURL(item)
		if enclosureURL == "" {
			continue
		}
		mfi.Path = enclosureURL
		mfi.VirtualPath = vp + "/" + item.Title
		mfi.FName = item.Title

		if _, err := r.store.SaveMediaFile(ctx, mfi); err != nil {
			r.logger.Warn("ingest: rss: skip entry", zap.String("title", item.Title), zap.Error(err))
			continue
		}
		if _, err := r.store.PlaylistItemAdd(ctx, plID, enclosureURL, refTime); err != nil {
			r.logger.Warn("ingest: rss: playlist item add failed", zap.String("title", item.Title), zap.Error(err))
		}
	}

	return nil
}

func itemTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}

func enclosureURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "audio/") || enc.Type == "" {
			return enc.URL
		}
	}
	if len(item.Enclosures) > 0 {
		return item.Enclosures[0].URL
	}
	return ""
}

func feedImageURL(feed *gofeed.Feed) string {
	if feed.Image != nil {
		return feed.Image.URL
	}
	return ""
}
