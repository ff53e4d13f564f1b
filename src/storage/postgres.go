package storage

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"stocknews-client/src/logger"
	"stocknews-client/src/models"

	_ "github.com/lib/pq"
)

var unsafeIdent = regexp.MustCompile(`[^a-z0-9_]+`)

// -----------------------------------------------------------------------------

// PostgresDB keeps the token slot and snapshot archive in a schema named
// after the application.
type PostgresDB struct {
	Config *models.MConfig
	Schema string
	sqlStore
}

// -----------------------------------------------------------------------------

// SchemaName derives a safe schema identifier from the application name.
func SchemaName(appName string) string {
	name := unsafeIdent.ReplaceAllString(strings.ToLower(appName), "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "stocknews"
	}
	return name
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) *PostgresDB {
	schema := SchemaName(cfg.Name)
	return &PostgresDB{
		Config: cfg,
		Schema: schema,
		sqlStore: sqlStore{
			Logger:        log,
			tokenKey:      cfg.Storage.TokenKey,
			retentionDays: cfg.Storage.SnapshotRetentionDays,
			kvTable:       fmt.Sprintf(`"%s"."kv_store"`, schema),
			snapTable:     fmt.Sprintf(`"%s"."performance_snapshots"`, schema),
			rebind:        dollarRebind,
			now:           time.Now,
		},
	}
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}

	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		);
	`, d.kvTable)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create kv_store: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			fetched_at BIGINT,
			category TEXT,
			position INTEGER,
			symbol TEXT,
			name TEXT,
			price NUMERIC,
			change_percent NUMERIC,
			market_open INTEGER,
			PRIMARY KEY (fetched_at, category, symbol)
		);
	`, d.snapTable)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create performance_snapshots: %w", err)
	}

	return nil
}
