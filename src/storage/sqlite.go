package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stocknews-client/src/logger"
	"stocknews-client/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

// SQLiteDB is the local backend for both the token slot and the snapshot archive.
type SQLiteDB struct {
	Config *models.MConfig
	sqlStore
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger) *SQLiteDB {
	return &SQLiteDB{
		Config: cfg,
		sqlStore: sqlStore{
			Logger:        log,
			tokenKey:      cfg.Storage.TokenKey,
			retentionDays: cfg.Storage.SnapshotRetentionDays,
			kvTable:       "kv_store",
			snapTable:     "performance_snapshots",
			rebind:        questionRebind,
			now:           time.Now,
		},
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		d.Logger.Warning("Failed to set busy timeout: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS kv_store (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create kv_store: %w", err)
	}

	// Prices are stored as decimal strings to stay exact.
	query = `
		CREATE TABLE IF NOT EXISTS performance_snapshots (
			fetched_at INTEGER,
			category TEXT,
			position INTEGER,
			symbol TEXT,
			name TEXT,
			price TEXT,
			change_percent TEXT,
			market_open INTEGER,
			PRIMARY KEY (fetched_at, category, symbol)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create performance_snapshots: %w", err)
	}

	d.Logger.Info("SQLite storage ready at %s", d.Config.Storage.DBPath)
	return nil
}
