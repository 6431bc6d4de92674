package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mediacatalog/config"
	"mediacatalog/models"
)

func TestPlistInt_HandlesAllDecodedNumericKinds(t *testing.T) {
	v, ok := plistInt(int64(5))
	require.True(t, ok)
	require.EqualValues(t, 5, v)

	v, ok = plistInt(uint64(7))
	require.True(t, ok)
	require.EqualValues(t, 7, v)

	v, ok = plistInt(float64(9))
	require.True(t, ok)
	require.EqualValues(t, 9, v)

	_, ok = plistInt("not a number")
	require.False(t, ok)
}

func TestSkipPlaylist(t *testing.T) {
	require.True(t, skipPlaylist(map[string]interface{}{"Master": true}))
	require.True(t, skipPlaylist(map[string]interface{}{"Name": "Party Shuffle"}))
	require.True(t, skipPlaylist(map[string]interface{}{"Distinguished Kind": int64(3)}))
	require.False(t, skipPlaylist(map[string]interface{}{"Name": "My Mix"}))
}

func TestItunesTrackID(t *testing.T) {
	require.Equal(t, "1001", itunesTrackID(map[string]interface{}{"Track ID": int64(1001)}))
	require.Equal(t, "", itunesTrackID(map[string]interface{}{}))
}

func TestLongestSuffixMatch(t *testing.T) {
	candidates := []string{
		"/mnt/library/Music/Artist/Album/track.mp3",
		"/mnt/library/Music/Other/Album/track.mp3",
	}
	match := longestSuffixMatch("/Volumes/old-drive/Artist/Album/track.mp3", candidates)
	require.Equal(t, "/mnt/library/Music/Artist/Album/track.mp3", match)

	require.Equal(t, "", longestSuffixMatch("/no/overlap/at/all.mp3", []string{"/unrelated/file.mp3"}))
}

func TestFileURLToPath(t *testing.T) {
	path, err := fileURLToPath("file:///music/track.mp3")
	require.NoError(t, err)
	require.Equal(t, "/music/track.mp3", path)

	_, err = fileURLToPath("https://example.com/track.mp3")
	require.Error(t, err)
}

func TestITunesSource_Sync_NoXMLPathIsNoop(t *testing.T) {
	src := NewITunesSource(config.LibraryConfig{}, nil, zap.NewNop())
	require.NoError(t, src.sync(context.Background()))
}

func TestITunesSource_Sync_ReconcilesPlaylistAndRatingOverride(t *testing.T) {
	const xml = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Tracks</key>
	<dict>
		<key>1001</key>
		<dict>
			<key>Track ID</key><integer>1001</integer>
			<key>Location</key><string>file:///music/track.mp3</string>
			<key>Rating</key><integer>80</integer>
		</dict>
	</dict>
	<key>Playlists</key>
	<array>
		<dict>
			<key>Name</key><string>My Mix</string>
			<key>Playlist Items</key>
			<array>
				<dict>
					<key>Track ID</key><integer>1001</integer>
				</dict>
			</array>
		</dict>
	</dict>
</dict>
</plist>
`
	xmlPath := filepath.Join(t.TempDir(), "iTunes Music Library.xml")
	require.NoError(t, os.WriteFile(xmlPath, []byte(xml), 0644))

	store := newTestCatalogStore(t)
	ctx := context.Background()
	_, err := store.SaveMediaFile(ctx, &models.MediaFile{
		Path:  "/music/track.mp3",
		FName: "track.mp3",
	})
	require.NoError(t, err)

	src := NewITunesSource(config.LibraryConfig{
		ITunesXMLPath:   xmlPath,
		ITunesOverrides: true,
	}, store, zap.NewNop())
	require.NoError(t, src.InitScan(ctx))

	got, err := store.GetFileByPath(ctx, "/music/track.mp3")
	require.NoError(t, err)
	require.Equal(t, 80, got.Rating)

	pl, err := store.GetPlaylistByPath(ctx, "/itunes:My Mix")
	require.NoError(t, err)
	require.Equal(t, "My Mix", pl.Title)
}
