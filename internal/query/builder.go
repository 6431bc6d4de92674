package query

import (
	"fmt"
	"strings"
)

// Built is the result of compiling a Params value: a SELECT, its
// COUNT(*) companion (same JOIN/WHERE, no GROUP/ORDER/LIMIT). It
// carries no bound arguments: the WHERE/HAVING fragments are
// caller-supplied text embedded as is — the builder does not
// parameterize caller filter text, matching the smart-playlist WHERE
// fragments it is built to carry.
type Built struct {
	Kind     Kind
	Select   string
	Count    string
	GroupBy  string
	OrderBy  string
	NeedsCountFirst bool // true when IdxLast needs `results` to compute OFFSET
}

// Build compiles p into SQL fragments. It returns an error (a plain fmt
// error, not a catalogerr value) for unknown kinds, a PlaylistItems
// request missing an id, or an unsupported playlist type.
func Build(p Params) (Built, error) {
	switch {
	case p.Kind == PlaylistItems:
		return buildPlaylistItems(p)
	case p.Kind == Items:
		return buildSimple(p, "files f", "f", selectFileColumns)
	case p.Kind == Playlists:
		return buildSimple(p, "playlists p", "p", selectPlaylistColumns)
	case p.Kind == FindPlaylists:
		return buildFindPlaylists(p)
	case p.Kind == GroupAlbums:
		return buildGroupAlbums(p)
	case p.Kind == GroupArtists:
		return buildGroupArtists(p)
	case p.Kind == GroupDirs:
		return buildGroupDirs(p)
	case p.Kind == GroupItems:
		return buildSimple(p, "files f", "f", selectFileColumns)
	case p.Kind == CountItems:
		return buildCountItems(p)
	case p.Kind == FileMetadata:
		return buildFileMetadata(p)
	case p.Kind.IsBrowse():
		return buildBrowse(p)
	default:
		return Built{}, fmt.Errorf("query: unknown kind %d", p.Kind)
	}
}

const selectFileColumns = "f.*"
const selectPlaylistColumns = "p.*"

// whereClause applies spec §4.3's rule: "f.disabled=0 AND (filter)"
// unless with_disabled, otherwise just "(filter)".
func whereClause(alias string, p Params) string {
	filter := p.Filter
	if filter == "" {
		filter = "1=1"
	} else {
		filter = "(" + filter + ")"
	}
	if p.WithDisabled {
		return filter
	}
	return fmt.Sprintf("%s.disabled=0 AND %s", alias, filter)
}

func orderClause(p Params, fallback string) string {
	if p.Order != "" {
		return p.Order
	}
	if expr, ok := sortExpressions[p.Sort]; ok {
		return expr
	}
	return fallback
}

// pagingClause implements the First/Last/Sub/None rules. results is
// the COUNT(*) the caller already obtained for Last paging; callers
// that have not yet run the count pass 0 and must re-render after.
func pagingClause(idx IdxType, limit, offset, results int) string {
	switch idx {
	case IdxFirst:
		return fmt.Sprintf("LIMIT %d", limit)
	case IdxLast:
		return fmt.Sprintf("LIMIT -1 OFFSET %d", results-limit)
	case IdxSub:
		return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
	default:
		return ""
	}
}

// ApplyPaging appends the paging clause to a compiled Built.Select
// once the caller knows `results` (from Built.Count). For idx types
// other than Last, results is unused.
func (b Built) ApplyPaging(idx IdxType, limit, offset, results int) string {
	clause := pagingClause(idx, limit, offset, results)
	if clause == "" {
		return b.Select
	}
	return b.Select + " " + clause
}

func buildSimple(p Params, from, alias string, selectCols string) (Built, error) {
	where := whereClause(alias, p)
	join := p.Join
	group := p.Group
	order := orderClause(p, alias+".id")

	sel := fmt.Sprintf("SELECT %s FROM %s", selectCols, from)
	if join != "" {
		sel += " " + join
	}
	sel += " WHERE " + where
	if group != "" {
		sel += " GROUP BY " + group
	}
	if group != "" && p.Having != "" {
		sel += " HAVING " + p.Having
	}
	sel += " ORDER BY " + order

	count := fmt.Sprintf("SELECT COUNT(*) FROM %s", from)
	if join != "" {
		count += " " + join
	}
	count += " WHERE " + where

	return Built{Kind: p.Kind, Select: sel, Count: count, GroupBy: group, OrderBy: order,
		NeedsCountFirst: p.IdxType == IdxLast}, nil
}

func buildFindPlaylists(p Params) (Built, error) {
	where := whereClause("p", p)
	sub := fmt.Sprintf("p.id IN (SELECT playlistid FROM playlistitems WHERE %s)", p.Filter)
	if p.Filter == "" {
		sub = "1=1"
	}
	where = strings.Replace(where, "("+p.Filter+")", sub, 1)

	sel := "SELECT p.* FROM playlists p WHERE " + where + " ORDER BY " + orderClause(p, "p.title")
	count := "SELECT COUNT(*) FROM playlists p WHERE " + where
	return Built{Kind: p.Kind, Select: sel, Count: count, NeedsCountFirst: p.IdxType == IdxLast}, nil
}

// buildPlaylistItems dispatches on playlist type per spec §4.3:
// plain/folder/rss join playlistitems on f.path = pi.filepath ordered
// by pi.id; smart/special AND the stored query expression into WHERE
// and layer query_order/query_limit without clobbering a
// caller-supplied order/limit.
func buildPlaylistItems(p Params) (Built, error) {
	if p.ID == 0 {
		return Built{}, fmt.Errorf("query: PlaylistItems requires an id")
	}

	switch p.PlaylistType {
	case 1, 3, 4: // folder, plain, rss (models.PlaylistTypeFolder/Plain/RSS)
		join := fmt.Sprintf("JOIN playlistitems pi ON f.path = pi.filepath AND pi.playlistid = %d", p.ID)
		where := whereClause("f", p)
		sel := "SELECT f.* FROM files f " + join + " WHERE " + where + " ORDER BY pi.id"
		count := "SELECT COUNT(*) FROM files f " + join + " WHERE " + where
		return Built{Kind: p.Kind, Select: sel, Count: count, NeedsCountFirst: p.IdxType == IdxLast}, nil

	case 0, 2: // special, smart (models.PlaylistTypeSpecial/Smart) — both
		// AND the stored query expression into WHERE (spec §4.3).
		filter := p.PlaylistQuery
		if p.Filter != "" {
			filter = filter + " AND (" + p.Filter + ")"
		}
		where := whereClause("f", Params{Filter: filter, WithDisabled: p.WithDisabled})

		order := p.Order
		if order == "" && p.PlaylistQueryOrder != "" {
			order = p.PlaylistQueryOrder
		}
		if order == "" {
			order = "f.id"
		}

		sel := "SELECT f.* FROM files f WHERE " + where + " ORDER BY " + order
		if p.Limit == 0 && p.PlaylistQueryLimit != 0 {
			// Only the stored query's own limit is embedded here; any
			// caller-supplied paging limit is applied once, later, by
			// ApplyPaging — never both, to avoid a double LIMIT clause.
			sel += fmt.Sprintf(" LIMIT %d", p.PlaylistQueryLimit)
		}
		count := "SELECT COUNT(*) FROM files f WHERE " + where
		return Built{Kind: p.Kind, Select: sel, Count: count, NeedsCountFirst: p.IdxType == IdxLast}, nil

	default:
		return Built{}, fmt.Errorf("query: unsupported playlist type %d", p.PlaylistType)
	}
}

func buildGroupAlbums(p Params) (Built, error) {
	where := whereClause("f", p)
	sel := `SELECT f.songalbumid, g.name, COUNT(f.id) AS item_count, SUM(f.song_length) AS song_length,
		MIN(f.data_kind) AS data_kind, MIN(f.media_kind) AS media_kind,
		MAX(f.year) AS year, MAX(f.date_released) AS date_released,
		MAX(f.time_added) AS time_added, MAX(f.time_played) AS time_played, MAX(f.seek) AS seek
		FROM files f JOIN groups g ON f.songalbumid = g.persistentid AND g.type = 1
		WHERE ` + where + " GROUP BY f.songalbumid"
	if p.Having != "" {
		sel += " HAVING " + p.Having
	}
	sel += " ORDER BY " + orderClause(p, "g.name")
	count := "SELECT COUNT(DISTINCT f.songalbumid) FROM files f WHERE " + where
	return Built{Kind: p.Kind, Select: sel, Count: count, NeedsCountFirst: p.IdxType == IdxLast}, nil
}

func buildGroupArtists(p Params) (Built, error) {
	where := whereClause("f", p)
	sel := `SELECT f.songartistid, g.name, COUNT(f.id) AS item_count,
		COUNT(DISTINCT f.songalbumid) AS album_count, SUM(f.song_length) AS song_length
		FROM files f JOIN groups g ON f.songartistid = g.persistentid AND g.type = 2
		WHERE ` + where + " GROUP BY f.songartistid"
	if p.Having != "" {
		sel += " HAVING " + p.Having
	}
	sel += " ORDER BY " + orderClause(p, "g.name")
	count := "SELECT COUNT(DISTINCT f.songartistid) FROM files f WHERE " + where
	return Built{Kind: p.Kind, Select: sel, Count: count, NeedsCountFirst: p.IdxType == IdxLast}, nil
}

func buildGroupDirs(p Params) (Built, error) {
	where := whereClause("f", p)
	sel := `SELECT DISTINCT SUBSTR(f.path, 1, LENGTH(f.path) - LENGTH(f.fname) - 1) AS dir
		FROM files f WHERE ` + where
	count := "SELECT COUNT(DISTINCT SUBSTR(f.path, 1, LENGTH(f.path) - LENGTH(f.fname) - 1)) FROM files f WHERE " + where
	return Built{Kind: p.Kind, Select: sel, Count: count}, nil
}

func buildCountItems(p Params) (Built, error) {
	where := whereClause("f", p)
	sel := `SELECT COUNT(*), SUM(song_length), COUNT(DISTINCT songartistid),
		COUNT(DISTINCT songalbumid), SUM(file_size) FROM files f WHERE ` + where
	return Built{Kind: p.Kind, Select: sel, Count: sel}, nil
}

func buildFileMetadata(p Params) (Built, error) {
	where := p.Filter
	if where == "" {
		where = "1=1"
	}
	sel := "SELECT file_id, metadata_kind, idx, value FROM files_metadata WHERE " + where + " ORDER BY file_id, metadata_kind, idx"
	count := "SELECT COUNT(*) FROM files_metadata WHERE " + where
	return Built{Kind: p.Kind, Select: sel, Count: count}, nil
}

var browseColumn = map[Kind]string{
	BrowseArtists:   "artist",
	BrowseAlbums:    "album",
	BrowseGenres:    "genre",
	BrowseComposers: "composer",
	BrowseYears:     "year",
	BrowseDiscs:     "disc",
	BrowseTracks:    "track",
	BrowseVPath:     "virtual_path",
	BrowsePath:      "path",
	BrowseGenresMd:  "genre",
	BrowseComposersMd: "composer",
}

var browseSortColumn = map[Kind]string{
	BrowseArtists:   "artist_sort",
	BrowseAlbums:    "album_sort",
	BrowseGenres:    "genre",
	BrowseComposers: "composer_sort",
}

// buildBrowse implements the Browse family: a distinct-value query on
// one entity column, paired with its sort column and item count, per
// the GLOSSARY definition of "Browse query".
func buildBrowse(p Params) (Built, error) {
	col, ok := browseColumn[p.Kind]
	if !ok {
		return Built{}, fmt.Errorf("query: unknown browse kind %d", p.Kind)
	}
	sortCol := browseSortColumn[p.Kind]
	if sortCol == "" {
		sortCol = col
	}

	where := whereClause("f", p)
	sel := fmt.Sprintf(
		`SELECT f.%s AS value, f.%s AS sort_value, COUNT(f.id) AS item_count
		 FROM files f WHERE %s AND f.%s IS NOT NULL AND f.%s != ''
		 GROUP BY f.%s ORDER BY %s`,
		col, sortCol, where, col, col, col, orderClause(p, sortCol),
	)
	count := fmt.Sprintf(`SELECT COUNT(DISTINCT f.%s) FROM files f WHERE %s AND f.%s IS NOT NULL AND f.%s != ''`,
		col, where, col, col)
	return Built{Kind: p.Kind, Select: sel, Count: count, NeedsCountFirst: p.IdxType == IdxLast}, nil
}
