package models

// QueueItem is a `queue` row. Position fields form a contiguous 0..N-1
// permutation (spec §3 invariant 4); QueueVersion is stamped by every
// write within a version-bearing transaction (C6).
type QueueItem struct {
	ID          int64  `col:"id,nobind"`
	FileID      int64  `col:"file_id"` // may be models.NonPersistentID
	Pos         int    `col:"pos"`
	ShufflePos  int    `col:"shuffle_pos"`
	Title       string `col:"title"`
	Artist      string `col:"artist"`
	Album       string `col:"album"`
	AlbumArtist string `col:"album_artist"`
	ArtworkURL  string `col:"artwork_url"`
	SongLength  int64  `col:"song_length"`
	DataKind    DataKind  `col:"data_kind"`
	MediaKind   MediaKind `col:"media_kind"`

	QueueVersion int64 `col:"queue_version"`
}
