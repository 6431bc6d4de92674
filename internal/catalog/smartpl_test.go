package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSmartPlaylist_ReserializeRoundTrips(t *testing.T) {
	text := `
Title { Recently Added }
WHERE media_kind = 1 AND play_count > 0
HAVING COUNT(*) > 1
ORDER BY artist_sort, album_sort
LIMIT 200
`
	sp, err := ParseSmartPlaylist(text)
	require.NoError(t, err)

	reparsed, err := ParseSmartPlaylist(sp.Reserialize())
	require.NoError(t, err)
	require.Equal(t, sp, reparsed)
}

func TestSmartPlaylist_ReserializeOmitsEmptyOptionalClauses(t *testing.T) {
	sp := SmartPlaylist{Title: "X", Where: "media_kind = 1"}
	out := sp.Reserialize()
	require.Contains(t, out, "Title { X }")
	require.Contains(t, out, "WHERE media_kind = 1")
	require.NotContains(t, out, "HAVING")
	require.NotContains(t, out, "ORDER BY")
	require.NotContains(t, out, "LIMIT")
}
