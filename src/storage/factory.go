package storage

import (
	"fmt"

	"stocknews-client/src/interfaces"
	"stocknews-client/src/logger"
	"stocknews-client/src/models"
)

// TokenStore is a token slot that owns a connection.
type TokenStore interface {
	interfaces.ITokenStore
	Close() error
}

var (
	_ TokenStore                = (*FileTokenStore)(nil)
	_ TokenStore                = (*RedisTokenStore)(nil)
	_ TokenStore                = (*SQLiteDB)(nil)
	_ TokenStore                = (*PostgresDB)(nil)
	_ interfaces.ISnapshotStore = (*SQLiteDB)(nil)
	_ interfaces.ISnapshotStore = (*PostgresDB)(nil)
)

// -----------------------------------------------------------------------------

// NewTokenStore opens the backend selected by storage.token_store.
func NewTokenStore(cfg *models.MConfig, log *logger.Logger) (TokenStore, error) {
	switch cfg.Storage.TokenStore {
	case "file":
		return NewFileTokenStore(cfg.Storage.TokenPath, cfg.Storage.TokenKey), nil
	case "redis":
		return NewRedisTokenStore(cfg.Storage.RedisURL, cfg.Storage.TokenKey, log)
	case "sqlite":
		db := NewSQLiteDB(cfg, log)
		if err := db.Initialize(); err != nil {
			return nil, fmt.Errorf("failed to open sqlite token store: %w", err)
		}
		return db, nil
	case "postgres":
		db := NewPostgresDB(cfg, log)
		if err := db.Initialize(); err != nil {
			return nil, fmt.Errorf("failed to open postgres token store: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown token store: %q", cfg.Storage.TokenStore)
	}
}

// -----------------------------------------------------------------------------

// NewSnapshotStore opens the archive selected by storage.db_type. It returns
// nil, nil for "none".
func NewSnapshotStore(cfg *models.MConfig, log *logger.Logger) (interfaces.ISnapshotStore, error) {
	var db interfaces.ISnapshotStore
	switch cfg.Storage.DBType {
	case "none", "":
		return nil, nil
	case "sqlite":
		db = NewSQLiteDB(cfg, log)
	case "postgres":
		db = NewPostgresDB(cfg, log)
	default:
		return nil, fmt.Errorf("unknown database type: %q", cfg.Storage.DBType)
	}

	if err := db.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize %s archive: %w", cfg.Storage.DBType, err)
	}
	return db, nil
}
