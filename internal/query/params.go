// Package query implements C3: translating a structured QueryParams
// value into a safe SQL statement (plus a COUNT(*) companion) the way
// repository/file_repository.go's GetDirectoryContents/SearchFiles
// built filtered, paginated SQL by hand rather than through a
// third-party query-building library — no example repo in the pack
// imports one (see DESIGN.md).
package query

import "mediacatalog/models"

// Kind enumerates the queries the catalog answers. Browse queries are
// distinguished by BrowseBit OR-ed into one of the Browse* base kinds.
type Kind int

const (
	Items Kind = iota
	Playlists
	FindPlaylists
	PlaylistItems
	GroupAlbums
	GroupArtists
	GroupItems
	GroupDirs
	CountItems
	FileMetadata
)

// BrowseBit marks a Kind as a browse (distinct-value) query; the low
// bits select which column family is being browsed.
const BrowseBit Kind = 1 << 8

const (
	BrowseArtists Kind = BrowseBit | iota
	BrowseAlbums
	BrowseGenres
	BrowseComposers
	BrowseYears
	BrowseDiscs
	BrowseTracks
	BrowseVPath
	BrowsePath
	BrowseGenresMd
	BrowseComposersMd
)

func (k Kind) IsBrowse() bool { return k&BrowseBit != 0 }

// IdxType selects the paging strategy.
type IdxType int

const (
	IdxNone IdxType = iota
	IdxFirst
	IdxLast
	IdxSub
)

// SortType selects a canned ORDER BY expression when the caller does
// not supply an explicit Order.
type SortType int

const (
	SortNone SortType = iota
	SortName
	SortTitle
	SortArtist
	SortAlbum
	SortYear
)

var sortExpressions = map[SortType]string{
	SortName:   "title_sort",
	SortTitle:  "title_sort",
	SortArtist: "artist_sort, album_sort, disc, track",
	SortAlbum:  "album_sort, disc, track",
	SortYear:   "year, title_sort",
}

// Params is the structured query request spec §4.3 names QueryParams.
type Params struct {
	Kind         Kind
	IdxType      IdxType
	Sort         SortType
	ID           int64
	PersistentID int64
	Offset       int
	Limit        int
	Filter       string
	Having       string
	Order        string
	Group        string
	Join         string
	WithDisabled bool

	// PlaylistItems dispatch fields: populated by the caller from the
	// target playlists row before building.
	PlaylistType       models.PlaylistType
	PlaylistQuery      string
	PlaylistQueryOrder string
	PlaylistQueryLimit int
}
