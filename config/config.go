// Package config loads and validates the catalog core's configuration.
//
// The surface here is intentionally narrow: general/sqlite/library/rss
// settings only. Anything about serving a wire protocol (auth, ports,
// TLS, remote storage-root credentials) belongs to the external
// collaborator that embeds this core, not to the core itself.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the full configuration surface recognized by the catalog core.
type Config struct {
	General GeneralConfig `json:"general"`
	SQLite  SQLiteConfig  `json:"sqlite"`
	Library LibraryConfig `json:"library"`
	RSS     RSSConfig     `json:"rss"`
	Logging LoggingConfig `json:"logging"`
}

// GeneralConfig holds the catalog's on-disk locations.
type GeneralConfig struct {
	DBPath       string `json:"db_path"`
	DBBackupPath string `json:"db_backup_path"`
	CacheDir     string `json:"cache_dir"`
}

// SQLiteConfig controls the pragmas and connection-pool behavior of the
// embedded database connection (database/connection.go).
type SQLiteConfig struct {
	PragmaCacheSizeLibrary int    `json:"pragma_cache_size_library"`
	PragmaCacheSizeCache   int    `json:"pragma_cache_size_cache"`
	PragmaJournalMode      string `json:"pragma_journal_mode"`
	PragmaSynchronous      string `json:"pragma_synchronous"`
	PragmaMmapSizeLibrary  int64  `json:"pragma_mmap_size_library"`
	PragmaMmapSizeCache    int64  `json:"pragma_mmap_size_cache"`
	BusyTimeoutMs          int    `json:"busy_timeout_ms"`
	Vacuum                 string `json:"vacuum"` // "none", "auto", "full"
	MaxOpenConnections     int    `json:"max_open_connections"`
	MaxIdleConnections     int    `json:"max_idle_connections"`
	ConnMaxLifetimeSeconds int    `json:"conn_max_lifetime_seconds"`
	ConnMaxIdleSeconds     int    `json:"conn_max_idle_seconds"`
}

// LibraryConfig controls scan behavior and library-wide fixup policy.
type LibraryConfig struct {
	Directories        []string `json:"directories"`
	FollowSymlinks     bool     `json:"follow_symlinks"`
	FiletypesIgnore    []string `json:"filetypes_ignore"`
	FilepathIgnore     []string `json:"filepath_ignore"`
	ITunesOverrides    bool     `json:"itunes_overrides"`
	M3UOverrides       bool     `json:"m3u_overrides"`
	OnlyFirstGenre     bool     `json:"only_first_genre"`
	CompilationArtist  string   `json:"compilation_artist"`
	MaxRating          int      `json:"max_rating"`
	RatingUpdates      bool     `json:"rating_updates"`
	WriteRating        bool     `json:"write_rating"`
	HideSingles        bool     `json:"hide_singles"`
	HideRadioPlaylists bool     `json:"hide_radio_playlists"`
	HideArtwork        bool     `json:"hide_artwork"`
	ScannerConcurrency int      `json:"scanner_concurrency"`
	ITunesXMLPath      string   `json:"itunes_xml_path"`
}

// RSSConfig controls podcast/RSS source polling.
type RSSConfig struct {
	Feeds             []string `json:"feeds"`
	SyncPeriodMinutes int      `json:"sync_period_minutes"`
}

// LoggingConfig mirrors the teacher's zap-oriented logging section.
type LoggingConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	Output     string `json:"output"`
	MaxSize    int    `json:"max_size"`
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"`
	Compress   bool   `json:"compress"`
}

// LoadConfig loads configuration from path, creating a default file if
// none exists yet.
func LoadConfig(configPath string) (*Config, error) {
	cfg := defaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := saveConfig(cfg, configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			DBPath:       "./catalog.db",
			DBBackupPath: "./catalog.db.bak",
			CacheDir:     filepath.Join(os.TempDir(), "mediacatalog-cache"),
		},
		SQLite: SQLiteConfig{
			PragmaCacheSizeLibrary: -2000,
			PragmaCacheSizeCache:   -2000,
			PragmaJournalMode:      "WAL",
			PragmaSynchronous:      "NORMAL",
			PragmaMmapSizeLibrary:  0,
			PragmaMmapSizeCache:    0,
			BusyTimeoutMs:          30000,
			Vacuum:                 "none",
			MaxOpenConnections:     1,
			MaxIdleConnections:     1,
			ConnMaxLifetimeSeconds: 0,
			ConnMaxIdleSeconds:     0,
		},
		Library: LibraryConfig{
			Directories:        nil,
			FollowSymlinks:     false,
			FiletypesIgnore:    nil,
			FilepathIgnore:     nil,
			ITunesOverrides:    false,
			M3UOverrides:       false,
			OnlyFirstGenre:     false,
			CompilationArtist:  "Various Artists",
			MaxRating:          100,
			RatingUpdates:      false,
			WriteRating:        false,
			HideSingles:        false,
			HideRadioPlaylists: false,
			HideArtwork:        false,
			ScannerConcurrency: 4,
			ITunesXMLPath:      "",
		},
		RSS: RSSConfig{
			Feeds:             nil,
			SyncPeriodMinutes: 60,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MEDIACATALOG_DB_PATH"); v != "" {
		cfg.General.DBPath = v
	}
	if v := os.Getenv("MEDIACATALOG_CACHE_DIR"); v != "" {
		cfg.General.CacheDir = v
	}
	if v := os.Getenv("MEDIACATALOG_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func validateConfig(cfg *Config) error {
	if cfg.General.DBPath == "" {
		return fmt.Errorf("general.db_path cannot be empty")
	}
	switch cfg.SQLite.PragmaJournalMode {
	case "WAL", "DELETE", "TRUNCATE", "PERSIST", "MEMORY", "OFF":
	default:
		return fmt.Errorf("unsupported sqlite.pragma_journal_mode: %s", cfg.SQLite.PragmaJournalMode)
	}
	switch cfg.SQLite.PragmaSynchronous {
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return fmt.Errorf("unsupported sqlite.pragma_synchronous: %s", cfg.SQLite.PragmaSynchronous)
	}
	switch cfg.SQLite.Vacuum {
	case "none", "auto", "full":
	default:
		return fmt.Errorf("unsupported sqlite.vacuum: %s", cfg.SQLite.Vacuum)
	}
	if cfg.Library.ScannerConcurrency <= 0 {
		return fmt.Errorf("library.scanner_concurrency must be positive")
	}
	if cfg.Library.MaxRating < 0 {
		return fmt.Errorf("library.max_rating must be non-negative")
	}
	if cfg.RSS.SyncPeriodMinutes <= 0 {
		return fmt.Errorf("rss.sync_period_minutes must be positive")
	}
	return nil
}

func saveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DSN builds the go-sqlite3 connection string for this configuration,
// in the style of the teacher's GetDatabaseURL.
func (c *Config) DSN() string {
	dsn := fmt.Sprintf(
		"%s?_busy_timeout=%d&_journal_mode=%s&_synchronous=%s&_foreign_keys=1",
		c.General.DBPath, c.SQLite.BusyTimeoutMs, c.SQLite.PragmaJournalMode, c.SQLite.PragmaSynchronous,
	)
	if c.SQLite.PragmaCacheSizeLibrary != 0 {
		dsn += fmt.Sprintf("&_cache_size=%d", c.SQLite.PragmaCacheSizeLibrary)
	}
	if c.SQLite.PragmaMmapSizeLibrary != 0 {
		dsn += fmt.Sprintf("&_mmap_size=%d", c.SQLite.PragmaMmapSizeLibrary)
	}
	return dsn
}
