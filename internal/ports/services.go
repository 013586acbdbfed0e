package ports

import (
	"context"

	"github.com/prxgr4mmer/ally-watchlists/internal/domain"
)

// WatchService refreshes one watchlist and reports what changed
type WatchService interface {
	// Check refreshes the watched list and diffs it against the last check
	Check(ctx context.Context) (*domain.WatchEvent, error)
}

// SnapshotService reads every watchlist of the account
type SnapshotService interface {
	// Snapshot returns all watchlists sorted by name
	Snapshot(ctx context.Context) ([]*domain.Watchlist, error)
}

// MetricsService defines the contract for operational metrics
type MetricsService interface {
	RequestRecorder

	// GetMetrics returns current operational metrics
	GetMetrics() *domain.Metrics
}
