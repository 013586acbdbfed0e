package services

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/prxgr4mmer/ally-watchlists/internal/domain"
	"github.com/prxgr4mmer/ally-watchlists/internal/ports"
)

// Collection presents the account's remote watchlists as a mapping from
// name to Proxy. The list of names is cached for a short TTL.
//
// A Collection is not safe for concurrent use.
type Collection struct {
	executor ports.WatchlistExecutor
	auth     ports.AuthProvider
	names    nameCache
	now      func() time.Time
	logger   *slog.Logger
	closed   bool
}

// CollectionOption configures the collection
type CollectionOption func(*Collection)

// WithNameTTL sets how long the list of names is cached
func WithNameTTL(ttl time.Duration) CollectionOption {
	return func(c *Collection) {
		if ttl > 0 {
			c.names.ttl = ttl
		}
	}
}

// WithClock sets the time source used for cache expiry
func WithClock(now func() time.Time) CollectionOption {
	return func(c *Collection) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) CollectionOption {
	return func(c *Collection) {
		c.logger = logger.With("component", "watchlist_collection")
	}
}

// NewCollection creates a collection issuing requests through executor,
// signed with whatever auth resolves to at call time
func NewCollection(executor ports.WatchlistExecutor, auth ports.AuthProvider, opts ...CollectionOption) *Collection {
	c := &Collection{
		executor: executor,
		auth:     auth,
		names:    nameCache{ttl: DefaultNameTTL},
		now:      time.Now,
		logger:   slog.Default().With("component", "watchlist_collection"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get fetches the watchlist called name and returns a proxy holding its symbols
func (c *Collection) Get(ctx context.Context, name string) (*Proxy, error) {
	wl, err := c.fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return NewProxy(ctx, c, name, wl)
}

// Set replaces the watchlist called name with symbols.
//
// An existing list is deleted first because the broker's create call appends
// to a list that already exists. The broker does not reliably report whether
// the create worked, so the returned proxy optimistically holds symbols
// without a confirming fetch.
func (c *Collection) Set(ctx context.Context, name string, symbols ...string) (*Proxy, error) {
	exists, err := c.Contains(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		if err := c.Delete(ctx, name); err != nil {
			return nil, err
		}
	}

	creds, err := resolveCredentials(c.authView(), "Create")
	if err != nil {
		return nil, err
	}
	if err := c.executor.Create(ctx, creds, name, symbols); err != nil {
		return nil, err
	}

	c.logger.Debug("watchlist created", "name", name, "symbols", len(symbols), "replaced", exists)

	return NewProxy(ctx, c, name, optimisticWatchlist(name, symbols))
}

// Delete removes the watchlist called name. The cached list of names is left
// as is until it expires.
func (c *Collection) Delete(ctx context.Context, name string) error {
	creds, err := resolveCredentials(c.authView(), "DeleteList")
	if err != nil {
		return err
	}
	if err := c.executor.DeleteList(ctx, creds, name); err != nil {
		return err
	}

	c.logger.Debug("watchlist deleted", "name", name)
	return nil
}

// Names returns the watchlist names, refreshing them when the cache expired
func (c *Collection) Names(ctx context.Context) ([]string, error) {
	names, err := c.names.getOrRefresh(c.now(), func() ([]string, error) {
		creds, err := resolveCredentials(c.authView(), "FetchAll")
		if err != nil {
			return nil, err
		}
		c.logger.Debug("refreshing watchlist names")
		return c.executor.FetchAll(ctx, creds)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(names), nil
}

// Iterate yields the watchlist names
func (c *Collection) Iterate(ctx context.Context) (iter.Seq[string], error) {
	names, err := c.Names(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Values(names), nil
}

// Len returns the number of watchlists
func (c *Collection) Len(ctx context.Context) (int, error) {
	names, err := c.Names(ctx)
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// Contains reports whether a watchlist called name exists
func (c *Collection) Contains(ctx context.Context, name string) (bool, error) {
	names, err := c.Names(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(names, name), nil
}

// Ping asks the broker for the watchlist names, bypassing the name cache.
// The cache is left untouched.
func (c *Collection) Ping(ctx context.Context) error {
	creds, err := resolveCredentials(c.authView(), "FetchAll")
	if err != nil {
		return err
	}
	_, err = c.executor.FetchAll(ctx, creds)
	return err
}

// Close detaches the collection from its credentials. Proxies obtained from
// it fail on their next remote call.
func (c *Collection) Close() {
	c.closed = true
}

func (c *Collection) fetch(ctx context.Context, name string) (*domain.Watchlist, error) {
	creds, err := resolveCredentials(c.authView(), "FetchOne")
	if err != nil {
		return nil, err
	}
	return c.executor.FetchOne(ctx, creds, name)
}

// authView is the credential accessor handed to proxies. It resolves through
// the collection on every call instead of holding credentials itself.
func (c *Collection) authView() ports.AuthProvider {
	return parentAuth{parent: c}
}

type parentAuth struct {
	parent *Collection
}

func (a parentAuth) Credentials() (*domain.Credentials, error) {
	if a.parent.closed {
		return nil, fmt.Errorf("watchlist collection closed: %w", domain.ErrAuthUnavailable)
	}
	return a.parent.auth.Credentials()
}

func resolveCredentials(auth ports.AuthProvider, op string) (*domain.Credentials, error) {
	creds, err := auth.Credentials()
	if err != nil {
		return nil, domain.NewTransportError(op, err)
	}
	return creds, nil
}

func optimisticWatchlist(name string, symbols []string) *domain.Watchlist {
	wl := &domain.Watchlist{Name: name, Items: make([]domain.WatchlistItem, 0, len(symbols))}
	for _, sym := range symbols {
		wl.Items = append(wl.Items, domain.WatchlistItem{Symbol: sym})
	}
	return wl
}
