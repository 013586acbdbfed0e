package services

import (
	"context"
	"iter"
	"log/slog"
	"slices"

	"github.com/prxgr4mmer/ally-watchlists/internal/domain"
	"github.com/prxgr4mmer/ally-watchlists/internal/ports"
)

// Proxy presents one remote watchlist as a set of symbols. The symbols are
// cached locally and only re-read by Refresh or by a non-lazy Add.
//
// A Proxy is not safe for concurrent use.
type Proxy struct {
	name     string
	auth     ports.AuthProvider
	executor ports.WatchlistExecutor
	logger   *slog.Logger

	symbols *domain.SymbolSet
	items   []domain.WatchlistItem
}

// NewProxy creates a proxy for the watchlist called name, reaching the broker
// through parent. A nil prefetched watchlist is fetched before returning.
func NewProxy(ctx context.Context, parent *Collection, name string, prefetched *domain.Watchlist) (*Proxy, error) {
	p := &Proxy{
		name:     name,
		auth:     parent.authView(),
		executor: parent.executor,
		logger:   parent.logger.With("watchlist", name),
		symbols:  domain.NewSymbolSet(),
	}

	if prefetched == nil {
		if err := p.Refresh(ctx); err != nil {
			return nil, err
		}
		return p, nil
	}

	p.replace(prefetched)
	return p, nil
}

// Name returns the watchlist name
func (p *Proxy) Name() string {
	return p.name
}

// Contains reports whether sym is in the cached symbols
func (p *Proxy) Contains(sym string) bool {
	return p.symbols.Contains(sym)
}

// Len returns the number of cached symbols
func (p *Proxy) Len() int {
	return p.symbols.Len()
}

// All iterates the cached symbols in server order
func (p *Proxy) All() iter.Seq[string] {
	return p.symbols.All()
}

// Symbols returns a copy of the cached symbols
func (p *Proxy) Symbols() []string {
	return p.symbols.Slice()
}

// Watchlist returns the cached items, including cost basis and quantity
func (p *Proxy) Watchlist() *domain.Watchlist {
	return &domain.Watchlist{Name: p.name, Items: slices.Clone(p.items)}
}

// Add adds symbols remotely and then refreshes the cache from the broker.
func (p *Proxy) Add(ctx context.Context, symbols ...string) error {
	return p.add(ctx, symbols, false)
}

// AddLazy adds symbols remotely and leaves the cache untouched until the
// next Refresh.
func (p *Proxy) AddLazy(ctx context.Context, symbols ...string) error {
	return p.add(ctx, symbols, true)
}

func (p *Proxy) add(ctx context.Context, symbols []string, lazy bool) error {
	if len(symbols) == 0 {
		return domain.ErrNoSymbols
	}

	// An empty cache is treated as a missing list: appending to a list the
	// broker does not know is a no-op there, creating it is not.
	if p.symbols.Len() == 0 {
		creds, err := resolveCredentials(p.auth, "Create")
		if err != nil {
			return err
		}
		if err := p.executor.Create(ctx, creds, p.name, symbols); err != nil {
			return err
		}
		p.logger.Debug("watchlist created by add", "symbols", len(symbols))
	} else if missing := p.symbols.Missing(symbols); len(missing) > 0 {
		creds, err := resolveCredentials(p.auth, "Append")
		if err != nil {
			return err
		}
		if err := p.executor.Append(ctx, creds, p.name, missing); err != nil {
			return err
		}
		p.logger.Debug("symbols appended", "symbols", len(missing))
	}

	if lazy {
		return nil
	}
	return p.Refresh(ctx)
}

// Discard deletes sym remotely when it is cached. The cache keeps sym until
// the next Refresh.
func (p *Proxy) Discard(ctx context.Context, sym string) error {
	if !p.symbols.Contains(sym) {
		return nil
	}

	creds, err := resolveCredentials(p.auth, "DeleteSymbol")
	if err != nil {
		return err
	}
	if err := p.executor.DeleteSymbol(ctx, creds, p.name, sym); err != nil {
		return err
	}

	p.logger.Debug("symbol deleted", "symbol", sym)
	return nil
}

// Refresh replaces the cache with the broker's current symbols
func (p *Proxy) Refresh(ctx context.Context) error {
	creds, err := resolveCredentials(p.auth, "FetchOne")
	if err != nil {
		return err
	}

	wl, err := p.executor.FetchOne(ctx, creds, p.name)
	if err != nil {
		return err
	}

	p.replace(wl)
	return nil
}

// String renders the cached symbols without contacting the broker
func (p *Proxy) String() string {
	return p.symbols.String()
}

func (p *Proxy) replace(wl *domain.Watchlist) {
	p.items = slices.Clone(wl.Items)
	p.symbols = domain.NewSymbolSet(wl.Symbols()...)
}
