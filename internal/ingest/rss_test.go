package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mediacatalog/config"
)

func TestApplePodcastID(t *testing.T) {
	require.Equal(t, "1234567890", applePodcastID("/us/podcast/some-show/id1234567890"))
	require.Equal(t, "", applePodcastID("/us/podcast/some-show"))
}

func TestItemTime_PrefersPublishedThenUpdated(t *testing.T) {
	published := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	require.Equal(t, published, itemTime(&gofeed.Item{PublishedParsed: &published, UpdatedParsed: &updated}))
	require.Equal(t, updated, itemTime(&gofeed.Item{UpdatedParsed: &updated}))
	require.True(t, itemTime(&gofeed.Item{}).IsZero())
}

func TestEnclosureURL_PrefersAudioType(t *testing.T) {
	item := &gofeed.Item{Enclosures: []*gofeed.Enclosure{
		{URL: "https://example.com/cover.jpg", Type: "image/jpeg"},
		{URL: "https://example.com/ep1.mp3", Type: "audio/mpeg"},
	}}
	require.Equal(t, "https://example.com/ep1.mp3", enclosureURL(item))
	require.Equal(t, "", enclosureURL(&gofeed.Item{}))
}

func TestFeedImageURL(t *testing.T) {
	require.Equal(t, "", feedImageURL(&gofeed.Feed{}))
	require.Equal(t, "https://example.com/art.jpg", feedImageURL(&gofeed.Feed{Image: &gofeed.Image{URL: "https://example.com/art.jpg"}}))
}

func TestRSSSource_ResolveFeedURL_PassesThroughNonAppleURLs(t *testing.T) {
	src := NewRSSSource(config.RSSConfig{}, nil, zap.NewNop())
	resolved, err := src.resolveFeedURL(context.Background(), "https://example.com/feed.xml")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/feed.xml", resolved)
}

func TestRSSSource_SyncAll_WarnsPastBadFeedsWithoutFailing(t *testing.T) {
	src := NewRSSSource(config.RSSConfig{Feeds: []string{"not a url at all \x00"}}, nil, zap.NewNop())
	require.NoError(t, src.InitScan(context.Background()))
}
