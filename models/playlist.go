package models

// Playlist is the in-memory form of a `playlists` row. Items/Streams
// are derived by join at query time (spec §3) and are deliberately
// untagged — they are never bound by the column map.
type Playlist struct {
	ID          int64        `col:"id,nobind"`
	Title       string       `col:"title"`
	Type        PlaylistType `col:"type"`
	Query       string       `col:"query"`
	QueryOrder  string       `col:"query_order"`
	QueryLimit  int          `col:"query_limit"`
	Path        string       `col:"path"`
	VirtualPath string       `col:"virtual_path"`
	ParentID    int64        `col:"parent_id"`
	DirectoryID int64        `col:"directory_id"`
	SpecialID   int64        `col:"special_id"`
	MediaKind   MediaKind    `col:"media_kind"`
	ArtworkURL  string       `col:"artwork_url"`
	ScanKind    ScanKind     `col:"scan_kind"`
	DBTimestamp int64        `col:"db_timestamp"`
	Disabled    int64        `col:"disabled"`

	// Derived, not persisted.
	Items   int
	Streams int
}

// PlaylistItem is a single row of `playlistitems`, preserving append
// order via its own autoincrement id.
type PlaylistItem struct {
	ID          int64  `col:"id,nobind"`
	PlaylistID  int64  `col:"playlistid"`
	FilePath    string `col:"filepath"`
	DBTimestamp int64  `col:"db_timestamp"`
	Disabled    int64  `col:"disabled"`
}
