// Package database owns the embedded SQLite connection, schema
// migrations, and small transaction helpers shared by the catalog
// store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mediacatalog/config"

	"github.com/mattn/go-sqlite3"
)

func init() {
	sql.Register("sqlite3_catalog", &sqlite3.SQLiteDriver{
		ConnectHook: registerCatalogFunctions,
	})
}

// DB wraps *sql.DB with the catalog's pragma-derived timeout budget.
type DB struct {
	*sql.DB
	cfg *config.Config
}

// NewConnection opens (and pings) the catalog's SQLite database using
// the driver registered with the catalog's custom scalar functions.
func NewConnection(cfg *config.Config) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3_catalog", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.SQLite.MaxOpenConnections)
	sqlDB.SetMaxIdleConns(cfg.SQLite.MaxIdleConnections)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.SQLite.ConnMaxLifetimeSeconds) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.SQLite.ConnMaxIdleSeconds) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: sqlDB, cfg: cfg}, nil
}

// HealthCheck performs a database health check bounded by the
// configured busy timeout.
func (db *DB) HealthCheck() error {
	ctx, cancel := db.createContext()
	defer cancel()

	return db.PingContext(ctx)
}

// Stats returns database connection pool statistics.
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

func (db *DB) createContext() (context.Context, context.CancelFunc) {
	timeout := time.Duration(db.cfg.SQLite.BusyTimeoutMs) * time.Millisecond
	return context.WithTimeout(context.Background(), timeout)
}
