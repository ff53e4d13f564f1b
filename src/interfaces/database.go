package interfaces

import (
	"context"

	"stocknews-client/src/models"
)

// -----------------------------------------------------------------------------
// ITokenStore is the single persisted bearer token slot.
// -----------------------------------------------------------------------------

type ITokenStore interface {

	// Load returns the stored token, or "" with a nil error when none is stored.
	Load(ctx context.Context) (string, error)

	// -----------------------------------------------------------------------------

	// Save replaces the stored token.
	Save(ctx context.Context, token string) error

	// -----------------------------------------------------------------------------

	// Clear removes the stored token. Clearing an empty slot is not an error.
	Clear(ctx context.Context) error
}

// -----------------------------------------------------------------------------
// ISnapshotStore archives performance snapshots.
// -----------------------------------------------------------------------------

type ISnapshotStore interface {

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveSnapshot stores every row of the snapshot under its fetch time.
	SaveSnapshot(ctx context.Context, snap models.MPerformanceSnapshot) error

	// -----------------------------------------------------------------------------

	// LatestSnapshot returns the most recent snapshot, or nil when none exists.
	LatestSnapshot(ctx context.Context) (*models.MPerformanceSnapshot, error)

	// -----------------------------------------------------------------------------

	// CleanupOldData removes data older than the retention policy.
	CleanupOldData(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
