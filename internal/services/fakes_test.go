package services_test

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/prxgr4mmer/ally-watchlists/internal/domain"
	"github.com/prxgr4mmer/ally-watchlists/internal/ports"
)

type call struct {
	op      string
	name    string
	symbols []string
}

// fakeBroker behaves like the broker's watchlist API: create on an existing
// name appends, append to a missing name does nothing.
type fakeBroker struct {
	mu     sync.Mutex
	lists  map[string][]string
	order  []string
	calls  []call
	failOn map[string]error
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		lists:  make(map[string][]string),
		failOn: make(map[string]error),
	}
}

func (f *fakeBroker) seed(name string, symbols ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.lists[name]; !ok {
		f.order = append(f.order, name)
	}
	f.lists[name] = domain.NewSymbolSet(symbols...).Slice()
}

func (f *fakeBroker) record(op, name string, symbols []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: op, name: name, symbols: slices.Clone(symbols)})
	return f.failOn[op]
}

func (f *fakeBroker) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func (f *fakeBroker) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]string, len(f.calls))
	for i, c := range f.calls {
		ops[i] = c.op
	}
	return ops
}

func (f *fakeBroker) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeBroker) FetchOne(ctx context.Context, creds *domain.Credentials, name string) (*domain.Watchlist, error) {
	if err := f.record("FetchOne", name, nil); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	symbols, ok := f.lists[name]
	if !ok {
		return nil, domain.ErrWatchlistNotFound
	}
	wl := &domain.Watchlist{Name: name}
	for _, sym := range symbols {
		wl.Items = append(wl.Items, domain.WatchlistItem{Symbol: sym})
	}
	return wl, nil
}

func (f *fakeBroker) FetchAll(ctx context.Context, creds *domain.Credentials) ([]string, error) {
	if err := f.record("FetchAll", "", nil); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.order), nil
}

func (f *fakeBroker) Create(ctx context.Context, creds *domain.Credentials, name string, symbols []string) error {
	if err := f.record("Create", name, symbols); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.lists[name]
	if !ok {
		f.order = append(f.order, name)
	}
	set := domain.NewSymbolSet(existing...)
	for _, sym := range symbols {
		set.Add(sym)
	}
	f.lists[name] = set.Slice()
	return nil
}

func (f *fakeBroker) Append(ctx context.Context, creds *domain.Credentials, name string, symbols []string) error {
	if err := f.record("Append", name, symbols); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.lists[name]
	if !ok {
		return nil
	}
	set := domain.NewSymbolSet(existing...)
	for _, sym := range symbols {
		set.Add(sym)
	}
	f.lists[name] = set.Slice()
	return nil
}

func (f *fakeBroker) DeleteList(ctx context.Context, creds *domain.Credentials, name string) error {
	if err := f.record("DeleteList", name, nil); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.lists[name]; !ok {
		return domain.NewRemoteError("DeleteList", 400, "watchlist does not exist")
	}
	delete(f.lists, name)
	f.order = slices.DeleteFunc(f.order, func(n string) bool { return n == name })
	return nil
}

func (f *fakeBroker) DeleteSymbol(ctx context.Context, creds *domain.Credentials, name, symbol string) error {
	if err := f.record("DeleteSymbol", name, []string{symbol}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[name] = slices.DeleteFunc(f.lists[name], func(s string) bool { return s == symbol })
	return nil
}

var _ ports.WatchlistExecutor = (*fakeBroker)(nil)

type staticAuth struct {
	err error
}

func (a staticAuth) Credentials() (*domain.Credentials, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &domain.Credentials{ConsumerKey: "ck", ConsumerSecret: "cs", Token: "t", TokenSecret: "ts"}, nil
}

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
