package database

import "context"

// CODE_MAJOR/CODE_MINOR are the schema version this build of the
// catalog store understands. MinSupportedMajor is the oldest schema
// the migration list still knows how to carry forward.
const (
	CodeMajor         = 19
	CodeMinor         = 0
	MinSupportedMajor = 17
)

// Reserved directory ids (spec §3 Directory: "IDs 1..DIR_MAX-1 are reserved").
const (
	DirRoot    = 1
	DirFile    = 2
	DirHTTP    = 3
	DirSpotify = 4
	DirMax     = 5
)

// createCurrentSchema builds the full schema at CodeMajor/CodeMinor in
// one shot; used only for a brand new database (spec §4.8: "If both
// absent, create fresh (no migration)").
func (db *DB) createCurrentSchema(ctx context.Context) error {
	statements := append(append([]string{}, coreTableStatements...), coreIndexStatements...)
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return db.seedReservedDirectories(ctx)
}

var coreTableStatements = []string{
	`CREATE TABLE IF NOT EXISTS admin (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS directories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		virtual_path TEXT NOT NULL UNIQUE,
		path TEXT,
		parent_id INTEGER,
		db_timestamp INTEGER NOT NULL DEFAULT 0,
		disabled INTEGER NOT NULL DEFAULT 0,
		scan_kind INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		fname TEXT NOT NULL,
		directory_id INTEGER,
		virtual_path TEXT UNIQUE,

		title TEXT,
		artist TEXT,
		album TEXT,
		album_artist TEXT,
		genre TEXT,
		composer TEXT,
		comment TEXT,
		grouping TEXT,
		orchestra TEXT,
		conductor TEXT,
		url TEXT,
		description TEXT,
		lyrics TEXT,
		tv_series_name TEXT,
		tv_episode_num TEXT,
		tv_network_name TEXT,
		tv_episode_sort INTEGER,
		tv_season_num INTEGER,

		bitrate INTEGER,
		samplerate INTEGER,
		channels INTEGER,
		bits_per_sample INTEGER,
		song_length INTEGER NOT NULL DEFAULT 0,
		file_size INTEGER NOT NULL DEFAULT 0,
		year INTEGER,
		date_released INTEGER,
		track INTEGER,
		total_tracks INTEGER,
		disc INTEGER,
		total_discs INTEGER,
		bpm INTEGER,
		compilation INTEGER NOT NULL DEFAULT 0,
		artwork INTEGER NOT NULL DEFAULT 0,

		time_added INTEGER,
		time_modified INTEGER,
		time_played INTEGER,
		time_skipped INTEGER,
		db_timestamp INTEGER NOT NULL DEFAULT 0,

		play_count INTEGER NOT NULL DEFAULT 0,
		skip_count INTEGER NOT NULL DEFAULT 0,
		seek INTEGER NOT NULL DEFAULT 0,
		rating INTEGER NOT NULL DEFAULT 0,
		usermark INTEGER NOT NULL DEFAULT 0,

		data_kind INTEGER NOT NULL DEFAULT 0,
		media_kind INTEGER NOT NULL DEFAULT 0,
		item_kind INTEGER NOT NULL DEFAULT 0,
		codectype TEXT,

		title_sort TEXT,
		artist_sort TEXT,
		album_sort TEXT,
		album_artist_sort TEXT,
		composer_sort TEXT,

		songartistid INTEGER NOT NULL DEFAULT 0,
		songalbumid INTEGER NOT NULL DEFAULT 0,

		disabled INTEGER NOT NULL DEFAULT 0,
		scan_kind INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS files_metadata (
		file_id INTEGER NOT NULL,
		metadata_kind TEXT NOT NULL,
		idx INTEGER NOT NULL DEFAULT 0,
		value TEXT NOT NULL,
		PRIMARY KEY (file_id, metadata_kind, idx),
		FOREIGN KEY (file_id) REFERENCES files(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS playlists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		type INTEGER NOT NULL DEFAULT 3,
		query TEXT,
		query_order TEXT,
		query_limit INTEGER,
		path TEXT,
		virtual_path TEXT UNIQUE,
		parent_id INTEGER,
		directory_id INTEGER,
		special_id INTEGER,
		media_kind INTEGER NOT NULL DEFAULT 0,
		artwork_url TEXT,
		scan_kind INTEGER NOT NULL DEFAULT 0,
		db_timestamp INTEGER NOT NULL DEFAULT 0,
		disabled INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS playlistitems (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		playlistid INTEGER NOT NULL,
		filepath TEXT NOT NULL,
		db_timestamp INTEGER NOT NULL DEFAULT 0,
		disabled INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (playlistid) REFERENCES playlists(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS groups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type INTEGER NOT NULL,
		persistentid INTEGER NOT NULL,
		name TEXT,
		UNIQUE (type, persistentid)
	)`,

	`CREATE TABLE IF NOT EXISTS queue (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_id INTEGER NOT NULL,
		pos INTEGER NOT NULL,
		shuffle_pos INTEGER NOT NULL,
		title TEXT,
		artist TEXT,
		album TEXT,
		album_artist TEXT,
		artwork_url TEXT,
		song_length INTEGER NOT NULL DEFAULT 0,
		data_kind INTEGER NOT NULL DEFAULT 0,
		media_kind INTEGER NOT NULL DEFAULT 0,
		queue_version INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS speakers (
		id TEXT PRIMARY KEY,
		selected INTEGER NOT NULL DEFAULT 0,
		volume INTEGER NOT NULL DEFAULT 0,
		name TEXT,
		auth_key TEXT,
		selected_format TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS pairings (
		remote TEXT PRIMARY KEY,
		name TEXT,
		guid TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS inotify (
		wd INTEGER PRIMARY KEY,
		cookie INTEGER NOT NULL DEFAULT 0,
		path TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

var coreIndexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_files_directory ON files(directory_id)`,
	`CREATE INDEX IF NOT EXISTS idx_files_disabled ON files(disabled)`,
	`CREATE INDEX IF NOT EXISTS idx_files_scan_kind ON files(scan_kind)`,
	`CREATE INDEX IF NOT EXISTS idx_files_songalbumid ON files(songalbumid)`,
	`CREATE INDEX IF NOT EXISTS idx_files_songartistid ON files(songartistid)`,
	`CREATE INDEX IF NOT EXISTS idx_files_db_timestamp ON files(db_timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_playlistitems_playlistid ON playlistitems(playlistid)`,
	`CREATE INDEX IF NOT EXISTS idx_playlistitems_filepath ON playlistitems(filepath)`,
	`CREATE INDEX IF NOT EXISTS idx_directories_parent ON directories(parent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_queue_pos ON queue(pos)`,
	`CREATE INDEX IF NOT EXISTS idx_queue_shuffle_pos ON queue(shuffle_pos)`,
	`CREATE INDEX IF NOT EXISTS idx_groups_persistentid ON groups(type, persistentid)`,
}

// seedReservedDirectories inserts the four reserved directory rows
// (root/file/http/spotify) if they are not already present.
func (db *DB) seedReservedDirectories(ctx context.Context) error {
	reserved := []struct {
		id          int
		virtualPath string
	}{
		{DirRoot, "/"},
		{DirFile, "/file:"},
		{DirHTTP, "/http:"},
		{DirSpotify, "/spotify:"},
	}
	for _, r := range reserved {
		_, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO directories (id, virtual_path, path, parent_id, db_timestamp, disabled, scan_kind)
			 VALUES (?, ?, NULL, NULL, 0, 0, 0)`, r.id, r.virtualPath)
		if err != nil {
			return err
		}
	}
	return nil
}
