package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "./catalog.db", cfg.General.DBPath)
	assert.Equal(t, "WAL", cfg.SQLite.PragmaJournalMode)
	assert.Equal(t, "NORMAL", cfg.SQLite.PragmaSynchronous)
	assert.Equal(t, "none", cfg.SQLite.Vacuum)
	assert.Equal(t, 4, cfg.Library.ScannerConcurrency)
	assert.Equal(t, "Various Artists", cfg.Library.CompilationArtist)
	assert.Equal(t, 60, cfg.RSS.SyncPeriodMinutes)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidateConfig_EmptyDBPath(t *testing.T) {
	cfg := defaultConfig()
	cfg.General.DBPath = ""

	err := validateConfig(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "db_path")
}

func TestValidateConfig_BadJournalMode(t *testing.T) {
	cfg := defaultConfig()
	cfg.SQLite.PragmaJournalMode = "bogus"

	err := validateConfig(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pragma_journal_mode")
}

func TestValidateConfig_BadSynchronous(t *testing.T) {
	cfg := defaultConfig()
	cfg.SQLite.PragmaSynchronous = "bogus"

	err := validateConfig(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pragma_synchronous")
}

func TestValidateConfig_BadVacuum(t *testing.T) {
	cfg := defaultConfig()
	cfg.SQLite.Vacuum = "bogus"

	err := validateConfig(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "vacuum")
}

func TestValidateConfig_ScannerConcurrency(t *testing.T) {
	cfg := defaultConfig()
	cfg.Library.ScannerConcurrency = 0

	err := validateConfig(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scanner_concurrency")
}

func TestValidateConfig_RSSSyncPeriod(t *testing.T) {
	cfg := defaultConfig()
	cfg.RSS.SyncPeriodMinutes = 0

	err := validateConfig(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sync_period_minutes")
}

func TestDSN(t *testing.T) {
	cfg := defaultConfig()
	cfg.General.DBPath = "./catalog.db"
	cfg.SQLite.BusyTimeoutMs = 5000
	cfg.SQLite.PragmaJournalMode = "WAL"
	cfg.SQLite.PragmaSynchronous = "NORMAL"

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "./catalog.db")
	assert.Contains(t, dsn, "_busy_timeout=5000")
	assert.Contains(t, dsn, "_journal_mode=WAL")
	assert.Contains(t, dsn, "_synchronous=NORMAL")
	assert.Contains(t, dsn, "_foreign_keys=1")
}

func TestDSN_WithMmapSize(t *testing.T) {
	cfg := defaultConfig()
	cfg.SQLite.PragmaMmapSizeLibrary = 268435456

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "_mmap_size=268435456")
}

func TestLoadConfig_CreateDefault(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	_, err = os.Stat(configPath)
	assert.NoError(t, err)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.json")

	err := os.WriteFile(configPath, []byte("not valid json"), 0644)
	require.NoError(t, err)

	_, err = LoadConfig(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	os.Setenv("MEDIACATALOG_DB_PATH", filepath.Join(tmpDir, "override.db"))
	defer os.Unsetenv("MEDIACATALOG_DB_PATH")

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	// First call creates the default file without applying overrides
	// (overrides apply only when reading an existing file back).
	cfg2, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "override.db"), cfg2.General.DBPath)
	_ = cfg
}

func TestSaveConfig_Permissions(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.json")

	cfg := defaultConfig()
	err := saveConfig(cfg, configPath)
	require.NoError(t, err)

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
