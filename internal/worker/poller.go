package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prxgr4mmer/ally-watchlists/internal/domain"
	"github.com/prxgr4mmer/ally-watchlists/internal/ports"
)

// EventHandler receives the outcome of every successful check
type EventHandler func(*domain.WatchEvent)

// Poller checks one watchlist at regular intervals. It is the only
// goroutine touching the watch service, so the service needs no locking.
type Poller struct {
	service  ports.WatchService
	interval time.Duration
	timeout  time.Duration
	onEvent  EventHandler
	logger   *slog.Logger

	mu       sync.Mutex
	running  bool
	failures int
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// PollerOption configures the poller
type PollerOption func(*Poller)

// WithEventHandler sets the function called after each successful check
func WithEventHandler(fn EventHandler) PollerOption {
	return func(p *Poller) {
		p.onEvent = fn
	}
}

// WithCheckTimeout bounds a single check. Defaults to half the interval,
// but at least 5 seconds.
func WithCheckTimeout(timeout time.Duration) PollerOption {
	return func(p *Poller) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// NewPoller creates a new watchlist poller
func NewPoller(service ports.WatchService, interval time.Duration, logger *slog.Logger, opts ...PollerOption) *Poller {
	p := &Poller{
		service:  service,
		interval: interval,
		timeout:  max(interval/2, 5*time.Second),
		logger:   logger.With("component", "poller"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Start checks immediately and then on every tick until ctx is done or Stop
// is called. It blocks.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		close(p.doneCh)
	}()

	p.logger.Info("starting poller", "interval", p.interval.String())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.check(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller context cancelled")
			return ctx.Err()

		case <-p.stopCh:
			p.logger.Info("poller stopped")
			return nil

		case <-ticker.C:
			p.check(ctx)
		}
	}
}

func (p *Poller) check(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	event, err := p.service.Check(checkCtx)
	if err != nil {
		p.mu.Lock()
		p.failures++
		failures := p.failures
		p.mu.Unlock()

		p.logger.Error("check failed", "error", err, "consecutive_failures", failures)
		return
	}

	p.mu.Lock()
	p.failures = 0
	p.mu.Unlock()

	if p.onEvent != nil {
		p.onEvent(event)
	}
}

// Stop gracefully stops the poller
func (p *Poller) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	p.logger.Info("stopping poller")
	close(stopCh)

	select {
	case <-doneCh:
		return nil
	case <-time.After(10 * time.Second):
		return context.DeadlineExceeded
	}
}

// IsRunning returns whether the poller is currently running
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Failures returns the number of checks that failed since the last success
func (p *Poller) Failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}
