package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocknews-client/src/helpers"
	"stocknews-client/src/logger"
	"stocknews-client/src/models"
)

func testConfig(t *testing.T) *models.MConfig {
	t.Helper()
	dir := t.TempDir()
	return &models.MConfig{
		Name: "stocknews-client",
		Storage: models.MStorageConfig{
			TokenStore:            "sqlite",
			TokenKey:              "token",
			TokenPath:             filepath.Join(dir, "auth", "token.json"),
			DBType:                "sqlite",
			DBPath:                filepath.Join(dir, "data", "stocknews.db"),
			SnapshotRetentionDays: 7,
		},
	}
}

func openSQLite(t *testing.T) *SQLiteDB {
	t.Helper()
	db := NewSQLiteDB(testConfig(t), logger.NewLogger(nil, "storage-test"))
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })
	return db
}

func item(symbol, price, change string) models.MPerformanceItem {
	return models.MPerformanceItem{
		Symbol:        symbol,
		Name:          symbol + " Inc.",
		Price:         decimal.RequireFromString(price),
		ChangePercent: decimal.RequireFromString(change),
	}
}

// -----------------------------------------------------------------------------
// SQLite token slot
// -----------------------------------------------------------------------------

func TestSQLiteTokenRoundTrip(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	token, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, db.Save(ctx, "first"))
	require.NoError(t, db.Save(ctx, "second"))

	token, err = db.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", token)

	require.NoError(t, db.Clear(ctx))
	require.NoError(t, db.Clear(ctx))

	token, err = db.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

// -----------------------------------------------------------------------------
// SQLite snapshot archive
// -----------------------------------------------------------------------------

func TestSQLiteLatestSnapshotEmpty(t *testing.T) {
	db := openSQLite(t)

	snap, err := db.LatestSnapshot(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSQLiteSnapshotKeepsOrderAndPrecision(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	older := models.MPerformanceSnapshot{
		Stocks:    []models.MPerformanceItem{item("OLD", "1.00", "0")},
		FetchedAt: time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC),
	}
	latest := models.MPerformanceSnapshot{
		Stocks: []models.MPerformanceItem{
			item("MSFT", "415.10", "-0.42"),
			item("AAPL", "189.8400", "1.25"),
		},
		MutualFunds: []models.MPerformanceItem{item("VTSAX", "112.45", "0.85")},
		ETFs:        []models.MPerformanceItem{item("SPY", "478.92", "0.75")},
		FetchedAt:   time.Date(2026, 10, 15, 15, 0, 0, 0, time.UTC),
		MarketOpen:  true,
	}
	require.NoError(t, db.SaveSnapshot(ctx, older))
	require.NoError(t, db.SaveSnapshot(ctx, latest))

	got, err := db.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.True(t, got.FetchedAt.Equal(latest.FetchedAt))
	assert.True(t, got.MarketOpen)
	require.Len(t, got.Stocks, 2)
	assert.Equal(t, "MSFT", got.Stocks[0].Symbol)
	assert.Equal(t, "AAPL", got.Stocks[1].Symbol)
	assert.True(t, got.Stocks[1].Price.Equal(decimal.RequireFromString("189.84")))
	assert.Equal(t, "MSFT Inc.", got.Stocks[0].Name)
	require.Len(t, got.MutualFunds, 1)
	require.Len(t, got.ETFs, 1)
	assert.Equal(t, "SPY", got.ETFs[0].Symbol)
}

func TestSQLiteCleanupOldData(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return now }

	stale := models.MPerformanceSnapshot{
		Stocks:    []models.MPerformanceItem{item("OLD", "1", "0")},
		FetchedAt: now.AddDate(0, 0, -8),
	}
	fresh := models.MPerformanceSnapshot{
		Stocks:    []models.MPerformanceItem{item("NEW", "2", "0")},
		FetchedAt: now.AddDate(0, 0, -1),
	}
	require.NoError(t, db.SaveSnapshot(ctx, stale))
	require.NoError(t, db.SaveSnapshot(ctx, fresh))

	require.NoError(t, db.CleanupOldData(ctx))

	var count int
	require.NoError(t, db.DB.QueryRow(`SELECT COUNT(*) FROM performance_snapshots`).Scan(&count))
	assert.Equal(t, 1, count)

	got, err := db.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "NEW", got.Stocks[0].Symbol)
}

// -----------------------------------------------------------------------------
// File token slot
// -----------------------------------------------------------------------------

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	store := NewFileTokenStore(path, "token")
	ctx := context.Background()

	token, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save(ctx, "abc"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	require.NoError(t, store.Clear(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, store.Clear(ctx))
}

func TestFileTokenStoreKeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"dark","token":"old"}`), 0o600))

	store := NewFileTokenStore(path, "token")
	ctx := context.Background()
	require.NoError(t, store.Clear(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark"}`, string(data))
}

func TestFileTokenStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := NewFileTokenStore(path, "token").Load(context.Background())
	require.Error(t, err)
	var storageErr *helpers.StorageError
	assert.ErrorAs(t, err, &storageErr)
}

func TestFileTokenStoreOverwritesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))
	store := NewFileTokenStore(path, "token")

	require.NoError(t, store.Save(context.Background(), "T1"))
	token, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "T1", token)
}

func TestFileTokenStoreClearRemovesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("{\"token\":"), 0o600))
	store := NewFileTokenStore(path, "token")

	require.NoError(t, store.Clear(context.Background()))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	token, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
}

// -----------------------------------------------------------------------------
// Factory and helpers
// -----------------------------------------------------------------------------

func TestNewTokenStoreSelectsBackend(t *testing.T) {
	cfg := testConfig(t)
	log := logger.NewLogger(nil, "storage-test")

	cfg.Storage.TokenStore = "file"
	store, err := NewTokenStore(cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &FileTokenStore{}, store)

	cfg.Storage.TokenStore = "sqlite"
	store, err = NewTokenStore(cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteDB{}, store)
	require.NoError(t, store.Close())

	cfg.Storage.TokenStore = "carrier-pigeon"
	_, err = NewTokenStore(cfg, log)
	assert.Error(t, err)
}

func TestNewSnapshotStoreNone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.DBType = "none"

	store, err := NewSnapshotStore(cfg, logger.NewLogger(nil, "storage-test"))
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestRedisTokenStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisTokenStore("http://localhost:6379", "token", logger.NewLogger(nil, "storage-test"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis url")
}

func TestDollarRebind(t *testing.T) {
	assert.Equal(t, "SELECT a FROM t WHERE k = $1 AND v = $2", dollarRebind("SELECT a FROM t WHERE k = ? AND v = ?"))
	assert.Equal(t, "SELECT 1", questionRebind("SELECT 1"))
}

func TestSchemaName(t *testing.T) {
	assert.Equal(t, "stocknews_client", SchemaName("StockNews-Client"))
	assert.Equal(t, "stocknews", SchemaName("---"))
}
