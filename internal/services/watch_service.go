package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/prxgr4mmer/ally-watchlists/internal/domain"
	"github.com/prxgr4mmer/ally-watchlists/internal/ports"
)

// WatchService implements the ports.WatchService interface
type WatchService struct {
	collection *Collection
	name       string
	now        func() time.Time
	logger     *slog.Logger

	proxy *Proxy
	last  *domain.SymbolSet
}

// NewWatchService creates a watch service for the watchlist called name
func NewWatchService(collection *Collection, name string, logger *slog.Logger) *WatchService {
	return &WatchService{
		collection: collection,
		name:       name,
		now:        collection.now,
		logger:     logger.With("component", "watch_service", "watchlist", name),
	}
}

// Check refreshes the watched list. The first check only records a
// baseline; later checks report symbols added or removed since the previous one.
func (w *WatchService) Check(ctx context.Context) (*domain.WatchEvent, error) {
	if w.proxy == nil {
		proxy, err := w.collection.Get(ctx, w.name)
		if err != nil {
			w.logger.Error("failed to load watchlist", "error", err)
			return nil, err
		}
		w.proxy = proxy
	} else if err := w.proxy.Refresh(ctx); err != nil {
		w.logger.Error("failed to refresh watchlist", "error", err)
		return nil, err
	}

	current := domain.NewSymbolSet(w.proxy.Symbols()...)
	event := &domain.WatchEvent{
		Name:      w.name,
		Symbols:   current.Slice(),
		CheckedAt: w.now().UTC(),
	}
	if w.last != nil && !w.last.Equal(current) {
		event.Added, event.Removed = w.last.Diff(current)
	}
	w.last = current

	if event.Changed() {
		w.logger.Info("watchlist changed",
			"added", event.Added,
			"removed", event.Removed,
		)
	}

	return event, nil
}

// Ensure WatchService implements ports.WatchService
var _ ports.WatchService = (*WatchService)(nil)
