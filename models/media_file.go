package models

// MediaFile is the in-memory form of a `files` row. The `col` struct
// tag is the column map C2 (internal/mapper) reflects over: the first
// element is the SQL column name, further comma-separated elements
// are flags (`nobind` skips the column on insert/update binding,
// `nozero` wraps an UPDATE's bound value in daap_no_zero so a zero
// input preserves the stored value, `nosanitize` exempts a field from
// fixup's sanitize pass).
type MediaFile struct {
	ID          int64  `col:"id,nobind"`
	Path        string `col:"path"`
	FName       string `col:"fname"`
	DirectoryID int64  `col:"directory_id"`
	VirtualPath string `col:"virtual_path"`

	Title         string `col:"title"`
	Artist        string `col:"artist"`
	Album         string `col:"album"`
	AlbumArtist   string `col:"album_artist"`
	Genre         string `col:"genre"`
	Composer      string `col:"composer"`
	Comment       string `col:"comment"`
	Grouping      string `col:"grouping"`
	Orchestra     string `col:"orchestra"`
	Conductor     string `col:"conductor"`
	URL           string `col:"url"`
	Description   string `col:"description"`
	Lyrics        string `col:"lyrics"`
	TVSeriesName  string `col:"tv_series_name"`
	TVEpisodeNum  string `col:"tv_episode_num"`
	TVNetworkName string `col:"tv_network_name"`
	TVEpisodeSort int    `col:"tv_episode_sort"`
	TVSeasonNum   int    `col:"tv_season_num"`

	Bitrate       int   `col:"bitrate"`
	SampleRate    int   `col:"samplerate"`
	Channels      int   `col:"channels"`
	BitsPerSample int   `col:"bits_per_sample"`
	SongLength    int64 `col:"song_length"` // milliseconds
	FileSize      int64 `col:"file_size"`   // bytes
	Year          int   `col:"year"`
	DateReleased  int64 `col:"date_released"` // signed epoch seconds
	Track         int   `col:"track"`
	TotalTracks   int   `col:"total_tracks"`
	Disc          int   `col:"disc"`
	TotalDiscs    int   `col:"total_discs"`
	BPM           int   `col:"bpm"`
	Compilation   bool  `col:"compilation"`
	Artwork       ArtworkKind `col:"artwork"`

	TimeAdded    int64 `col:"time_added"`
	TimeModified int64 `col:"time_modified"`
	TimePlayed   int64 `col:"time_played"`
	TimeSkipped  int64 `col:"time_skipped"`
	DBTimestamp  int64 `col:"db_timestamp"`

	PlayCount int    `col:"play_count,nozero"`
	SkipCount int    `col:"skip_count,nozero"`
	Seek      int    `col:"seek"`
	Rating    int    `col:"rating,nozero"` // 0..100
	UserMark  uint64 `col:"usermark"`

	DataKind  DataKind  `col:"data_kind"`
	MediaKind MediaKind `col:"media_kind"`
	ItemKind  int       `col:"item_kind"`
	CodecType string    `col:"codectype,nosanitize"`

	TitleSort       string `col:"title_sort"`
	ArtistSort      string `col:"artist_sort"`
	AlbumSort       string `col:"album_sort"`
	AlbumArtistSort string `col:"album_artist_sort"`
	ComposerSort    string `col:"composer_sort"`

	SongArtistID int64 `col:"songartistid"`
	SongAlbumID  int64 `col:"songalbumid"`

	Disabled int64    `col:"disabled"`
	ScanKind ScanKind `col:"scan_kind"`
}
