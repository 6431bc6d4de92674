package fixup

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mediacatalog/models"
)

// Spec §8 round-trip/idempotence: "a second fixup pass over the decoded
// record must change no field". This specifically exercises the NFD
// normalization of synthesized (not just user-supplied) *_sort fields:
// a first pass synthesizes TitleSort from an NFC Title, and a second
// pass must not further mutate it by normalizing it only on the second
// encounter.
func TestRun_SecondPassIsIdempotent(t *testing.T) {
	policy := Policy{CompilationArtist: "Various Artists", OnlyFirstGenre: true}

	mfi := &models.MediaFile{
		Title:    "Café", // "Café", NFC-composed é (U+00E9)
		FName:    "track.mp3",
		Genre:    "Pop; Rock",
		DataKind: models.DataKindFile,
	}

	Run(mfi, policy)
	first := *mfi

	Run(mfi, policy)
	require.Equal(t, first, *mfi)
}

func TestRun_SecondPassIdempotent_WithExplicitArtistAlbum(t *testing.T) {
	policy := Policy{CompilationArtist: "Various Artists"}

	mfi := &models.MediaFile{
		Title:       "Title",
		Artist:      "Artist",
		Album:       "Album",
		AlbumArtist: "Album Artist",
		Composer:    "Composer",
		FName:       "x.mp3",
		Compilation: true,
		CodecType:   "unkn",
		MediaKind:   models.MediaKindMovie,
		DataKind:    models.DataKindFile,
	}

	Run(mfi, policy)
	first := *mfi

	Run(mfi, policy)
	require.Equal(t, first, *mfi)
}

func TestRun_SecondPassIdempotent_PodcastClearsAlbumArtist(t *testing.T) {
	policy := Policy{}

	mfi := &models.MediaFile{
		Title:       "Episode 1",
		AlbumArtist: "Some Show",
		FName:       "ep1.mp3",
		MediaKind:   models.MediaKindPodcast,
		DataKind:    models.DataKindHTTP,
	}

	Run(mfi, policy)
	first := *mfi

	Run(mfi, policy)
	require.Equal(t, first, *mfi)
}
