package ports

import (
	"context"
	"time"

	"github.com/prxgr4mmer/ally-watchlists/internal/domain"
)

// AuthProvider resolves the credentials requests are signed with
type AuthProvider interface {
	// Credentials returns the current credentials, or an error wrapping
	// domain.ErrAuthUnavailable once the source is gone
	Credentials() (*domain.Credentials, error)
}

// WatchlistExecutor issues the broker's watchlist requests.
// Every call blocks until the broker answers or the transport fails.
type WatchlistExecutor interface {
	// FetchOne returns one watchlist; domain.ErrWatchlistNotFound if absent
	FetchOne(ctx context.Context, creds *domain.Credentials, name string) (*domain.Watchlist, error)

	// FetchAll returns the names of all watchlists of the account
	FetchAll(ctx context.Context, creds *domain.Credentials) ([]string, error)

	// Create creates a watchlist holding symbols. The broker may append
	// instead when the name already exists.
	Create(ctx context.Context, creds *domain.Credentials, name string, symbols []string) error

	// Append adds symbols to an existing watchlist
	Append(ctx context.Context, creds *domain.Credentials, name string, symbols []string) error

	// DeleteList removes a whole watchlist
	DeleteList(ctx context.Context, creds *domain.Credentials, name string) error

	// DeleteSymbol removes one symbol from a watchlist
	DeleteSymbol(ctx context.Context, creds *domain.Credentials, name, symbol string) error
}

// RequestRecorder receives the outcome of every executor request
type RequestRecorder interface {
	RecordRequest(op string, duration time.Duration, err error)
}
