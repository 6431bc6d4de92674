// Package fixup implements C5's three-pass normalization of a
// MediaFile: sanitize, default backfill, and sort-key synthesis (spec
// §4.5). It is applied to both freshly-extracted files and queue
// items (spec §4.6, "limited to qi fields").
package fixup

import (
	"strings"
	"unicode"

	"mediacatalog/database"
	"mediacatalog/models"
)

// Policy carries the library-wide fixup knobs from configuration
// (spec §6 library.* keys) that the three passes consult.
type Policy struct {
	CompilationArtist string
	OnlyFirstGenre    bool
}

// Run applies sanitize, defaults, and sort-key synthesis in order, the
// same sequence spec §4.5 describes for newly-extracted files.
func Run(mfi *models.MediaFile, p Policy) {
	sanitize(mfi, p)
	defaults(mfi, p)
	sortKeys(mfi)
}

// sanitize trims whitespace, folds empty strings to the zero value,
// and (per spec) would re-encode to UTF-8 on a best-effort basis; Go
// strings are UTF-8 already, so invalid byte sequences in the title are
// simply stripped rather than reinterpreted as Latin-1/ASCII (the other
// fields are not UTF-8 checked), since Go gives
// no built-in "assume ASCII" decode step to fall back to.
func sanitize(mfi *models.MediaFile, p Policy) {
	mfi.Title = trimFold(mfi.Title)
	mfi.Artist = trimFold(mfi.Artist)
	mfi.Album = trimFold(mfi.Album)
	mfi.AlbumArtist = trimFold(mfi.AlbumArtist)
	mfi.Genre = trimFold(mfi.Genre)
	mfi.Composer = trimFold(mfi.Composer)
	mfi.Comment = trimFold(mfi.Comment)
	mfi.Grouping = trimFold(mfi.Grouping)
	mfi.Orchestra = trimFold(mfi.Orchestra)
	mfi.Conductor = trimFold(mfi.Conductor)

	if p.OnlyFirstGenre {
		if idx := strings.IndexByte(mfi.Genre, ';'); idx >= 0 {
			mfi.Genre = strings.TrimSpace(mfi.Genre[:idx])
		}
	}

	if !validUTF8(mfi.Title) {
		mfi.Title = toValidUTF8(mfi.Title)
	}
}

func trimFold(s string) string {
	return strings.TrimSpace(s)
}

func validUTF8(s string) bool {
	for _, r := range s {
		if r == unicode.ReplacementChar {
			return false
		}
	}
	return true
}

func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "")
}

// defaults backfills missing fields from adjacent fields, computes the
// stable songartistid/songalbumid identifiers, and applies the
// podcast/compilation/codec special cases spec §4.5 lists.
func defaults(mfi *models.MediaFile, p Policy) {
	if mfi.Title == "" {
		mfi.Title = mfi.FName
	}

	if mfi.Artist == "" {
		switch {
		case mfi.AlbumArtist != "":
			mfi.Artist = mfi.AlbumArtist
		case mfi.Orchestra != "":
			mfi.Artist = mfi.Orchestra
		case mfi.Conductor != "":
			mfi.Artist = mfi.Conductor
		case mfi.TVSeriesName != "":
			mfi.Artist = mfi.TVSeriesName
		default:
			mfi.Artist = "Unknown artist"
		}
	}

	if mfi.Album == "" {
		switch {
		case mfi.TVSeriesName != "" && mfi.TVSeasonNum != 0:
			mfi.Album = mfi.TVSeriesName + ", Season " + itoa(mfi.TVSeasonNum)
		default:
			mfi.Album = "Unknown album"
		}
	}

	if mfi.MediaKind == models.MediaKindPodcast {
		mfi.AlbumArtist = ""
	}

	if mfi.Compilation && p.CompilationArtist != "" {
		mfi.AlbumArtist = p.CompilationArtist
	}

	if mfi.CodecType == "unkn" {
		switch mfi.MediaKind {
		case models.MediaKindMovie, models.MediaKindMusicVideo, models.MediaKindTVShow:
			mfi.CodecType = "mp4v"
		default:
			mfi.CodecType = "mp4a"
		}
	}

	mfi.SongArtistID = database.TwoStrHash(mfi.AlbumArtist, "")
	mfi.SongAlbumID = database.TwoStrHash(mfi.AlbumArtist, mfi.Album) + int64(mfi.DataKind)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
