package services

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/prxgr4mmer/ally-watchlists/internal/domain"
	"github.com/prxgr4mmer/ally-watchlists/internal/ports"
)

const defaultSnapshotConcurrency = 4

// SnapshotService implements the ports.SnapshotService interface
type SnapshotService struct {
	collection  *Collection
	concurrency int
	logger      *slog.Logger
}

// NewSnapshotService creates a new snapshot service. Non-positive
// concurrency falls back to a small default.
func NewSnapshotService(collection *Collection, concurrency int, logger *slog.Logger) *SnapshotService {
	if concurrency <= 0 {
		concurrency = defaultSnapshotConcurrency
	}
	return &SnapshotService{
		collection:  collection,
		concurrency: concurrency,
		logger:      logger.With("component", "snapshot_service"),
	}
}

// Snapshot reads the names once and then fetches every watchlist
// concurrently. The first failure cancels the remaining fetches.
func (s *SnapshotService) Snapshot(ctx context.Context) ([]*domain.Watchlist, error) {
	names, err := s.collection.Names(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Watchlist, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, name := range names {
		g.Go(func() error {
			wl, err := s.collection.fetch(gctx, name)
			if err != nil {
				s.logger.Error("failed to fetch watchlist", "name", name, "error", err)
				return err
			}
			result[i] = wl
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	s.logger.Debug("snapshot completed", "watchlists", len(result))
	return result, nil
}

// Ensure SnapshotService implements ports.SnapshotService
var _ ports.SnapshotService = (*SnapshotService)(nil)
