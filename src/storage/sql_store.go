package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stocknews-client/src/helpers"
	"stocknews-client/src/logger"
	"stocknews-client/src/models"
)

// snapshot categories as stored in performance_snapshots.category
var categories = []models.MView{models.ViewStocks, models.ViewMutualFunds, models.ViewETFs}

// sqlStore holds the queries shared by the sqlite and postgres backends. The
// backends differ only in table qualification and placeholder syntax.
type sqlStore struct {
	DB     *sql.DB
	Logger *logger.Logger

	tokenKey      string
	retentionDays int
	kvTable       string
	snapTable     string
	rebind        func(query string) string
	now           func() time.Time
}

// -----------------------------------------------------------------------------

func (s *sqlStore) q(format string, args ...interface{}) string {
	return s.rebind(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------
// Token slot
// -----------------------------------------------------------------------------

func (s *sqlStore) Load(ctx context.Context) (string, error) {
	var token string
	err := s.DB.QueryRowContext(ctx, s.q(`SELECT value FROM %s WHERE key = ?`, s.kvTable), s.tokenKey).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", helpers.NewStorageError("failed to load token", err)
	}
	return token, nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) Save(ctx context.Context, token string) error {
	query := s.q(`
		INSERT INTO %s (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, s.kvTable)
	if _, err := s.DB.ExecContext(ctx, query, s.tokenKey, token, s.now().UTC().UnixMilli()); err != nil {
		return helpers.NewStorageError("failed to save token", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) Clear(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, s.q(`DELETE FROM %s WHERE key = ?`, s.kvTable), s.tokenKey); err != nil {
		return helpers.NewStorageError("failed to clear token", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Snapshot archive
// -----------------------------------------------------------------------------

func (s *sqlStore) SaveSnapshot(ctx context.Context, snap models.MPerformanceSnapshot) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return helpers.NewStorageError("failed to begin snapshot transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.q(`
		INSERT INTO %s (fetched_at, category, position, symbol, name, price, change_percent, market_open)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (fetched_at, category, symbol) DO NOTHING
	`, s.snapTable))
	if err != nil {
		return helpers.NewStorageError("failed to prepare snapshot insert", err)
	}
	defer stmt.Close()

	fetchedAt := snap.FetchedAt.UTC().UnixMilli()
	for _, category := range categories {
		for i, item := range snap.Items(category) {
			_, err := stmt.ExecContext(ctx, fetchedAt, string(category), i, item.Symbol, item.Name,
				item.Price.String(), item.ChangePercent.String(), boolToInt(snap.MarketOpen))
			if err != nil {
				return helpers.NewStorageError(fmt.Sprintf("failed to insert %s/%s", category, item.Symbol), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return helpers.NewStorageError("failed to commit snapshot", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) LatestSnapshot(ctx context.Context) (*models.MPerformanceSnapshot, error) {
	var latest sql.NullInt64
	if err := s.DB.QueryRowContext(ctx, s.q(`SELECT MAX(fetched_at) FROM %s`, s.snapTable)).Scan(&latest); err != nil {
		return nil, helpers.NewStorageError("failed to find latest snapshot", err)
	}
	if !latest.Valid {
		return nil, nil
	}

	rows, err := s.DB.QueryContext(ctx, s.q(`
		SELECT category, symbol, name, price, change_percent, market_open
		FROM %s
		WHERE fetched_at = ?
		ORDER BY category, position
	`, s.snapTable), latest.Int64)
	if err != nil {
		return nil, helpers.NewStorageError("failed to read latest snapshot", err)
	}
	defer rows.Close()

	snap := &models.MPerformanceSnapshot{FetchedAt: time.UnixMilli(latest.Int64).UTC()}
	for rows.Next() {
		var (
			category, symbol, name, price, change string
			marketOpen                            int
		)
		if err := rows.Scan(&category, &symbol, &name, &price, &change, &marketOpen); err != nil {
			return nil, helpers.NewStorageError("failed to scan snapshot row", err)
		}

		item := models.MPerformanceItem{Symbol: symbol, Name: name}
		if item.Price, err = decimal.NewFromString(price); err != nil {
			return nil, helpers.NewStorageError("invalid archived price for "+symbol, err)
		}
		if item.ChangePercent, err = decimal.NewFromString(change); err != nil {
			return nil, helpers.NewStorageError("invalid archived change for "+symbol, err)
		}
		snap.MarketOpen = marketOpen != 0

		switch models.MView(category) {
		case models.ViewStocks:
			snap.Stocks = append(snap.Stocks, item)
		case models.ViewMutualFunds:
			snap.MutualFunds = append(snap.MutualFunds, item)
		case models.ViewETFs:
			snap.ETFs = append(snap.ETFs, item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewStorageError("failed to iterate snapshot rows", err)
	}
	return snap, nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) CleanupOldData(ctx context.Context) error {
	cutoff := s.now().UTC().AddDate(0, 0, -s.retentionDays).UnixMilli()

	res, err := s.DB.ExecContext(ctx, s.q(`DELETE FROM %s WHERE fetched_at < ?`, s.snapTable), cutoff)
	if err != nil {
		return helpers.NewStorageError("failed to clean up snapshots", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.Logger.Info("Removed %d snapshot rows older than %d days", n, s.retentionDays)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// -----------------------------------------------------------------------------

// questionRebind leaves ? placeholders as they are (sqlite).
func questionRebind(query string) string {
	return query
}

// dollarRebind rewrites ? placeholders to $1, $2... (postgres).
func dollarRebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
