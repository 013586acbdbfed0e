package ally

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dghubble/oauth1"

	"github.com/prxgr4mmer/ally-watchlists/internal/domain"
	"github.com/prxgr4mmer/ally-watchlists/internal/ports"
	"github.com/prxgr4mmer/ally-watchlists/pkg/retry"
)

const (
	defaultBaseURL = "https://devapi.invest.ally.com/v1"
	watchlistsPath = "/watchlists"

	// Bodies past this size are not a watchlist response.
	maxBodyBytes = 4 << 20
)

// Client implements the WatchlistExecutor interface for Ally Invest
type Client struct {
	httpClient *http.Client
	baseURL    string
	retryConf  retry.Config
	recorder   ports.RequestRecorder
	logger     *slog.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRetry configures retries of read requests. Writes are never retried.
func WithRetry(maxRetries int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.retryConf.MaxRetries = maxRetries
		if backoff > 0 {
			c.retryConf.InitialBackoff = backoff
		}
	}
}

// WithRecorder sets where request outcomes are reported
func WithRecorder(recorder ports.RequestRecorder) ClientOption {
	return func(c *Client) {
		c.recorder = recorder
	}
}

// WithHTTPClient sets the underlying client that signed requests go through
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger.With("component", "ally_client")
	}
}

// NewClient creates a new Ally watchlist client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:   defaultBaseURL,
		retryConf: retry.DefaultConfig(),
		logger:    slog.Default().With("component", "ally_client"),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.retryConf.OnRetry = func(attempt int, err error) {
		c.logger.Debug("request failed, retrying", "attempt", attempt, "error", err)
	}

	return c
}

// FetchAll returns the names of every watchlist on the account
func (c *Client) FetchAll(ctx context.Context, creds *domain.Credentials) ([]string, error) {
	const op = "FetchAll"

	body, err := c.send(ctx, creds, op, request{
		method: http.MethodGet,
		path:   watchlistsPath + ".json",
		read:   true,
	})
	if err != nil {
		return nil, err
	}

	var env listsEnvelope
	if err := decode(body, &env); err != nil {
		return nil, c.invalid(op, err)
	}
	if err := env.Response.check(op); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(env.Response.Watchlists.Watchlist))
	for _, wl := range env.Response.Watchlists.Watchlist {
		if wl.ID != "" {
			names = append(names, wl.ID)
		}
	}
	return names, nil
}

// FetchOne returns the items of the watchlist called name
func (c *Client) FetchOne(ctx context.Context, creds *domain.Credentials, name string) (*domain.Watchlist, error) {
	const op = "FetchOne"

	if err := domain.ValidateWatchlistName(name); err != nil {
		return nil, err
	}

	body, err := c.send(ctx, creds, op, request{
		method: http.MethodGet,
		path:   watchlistPath(name),
		read:   true,
	})
	if err != nil {
		return nil, err
	}

	var env listEnvelope
	if err := decode(body, &env); err != nil {
		return nil, c.invalid(op, err)
	}
	if err := env.Response.check(op); err != nil {
		if isNotFoundMessage(env.Response.Error) {
			return nil, fmt.Errorf("%s %q: %w", op, name, domain.ErrWatchlistNotFound)
		}
		return nil, err
	}

	wl := &domain.Watchlist{Name: name}
	for _, entry := range env.Response.Watchlists.Watchlist {
		for _, item := range entry.Items {
			if item.Instrument.Sym == "" {
				continue
			}
			wl.Items = append(wl.Items, domain.WatchlistItem{
				Symbol:    item.Instrument.Sym,
				CostBasis: item.CostBasis.Decimal,
				Quantity:  item.Qty.Decimal,
			})
		}
	}
	return wl, nil
}

// Create creates the watchlist called name holding symbols. The broker
// appends when the list already exists.
func (c *Client) Create(ctx context.Context, creds *domain.Credentials, name string, symbols []string) error {
	if err := domain.ValidateWatchlistName(name); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("id", name)
	if len(symbols) > 0 {
		form.Set("symbols", strings.Join(symbols, ","))
	}

	// The success field of write responses is unreliable; status only.
	_, err := c.send(ctx, creds, "Create", request{
		method: http.MethodPost,
		path:   watchlistsPath + ".json",
		form:   form,
	})
	return err
}

// Append adds symbols to the watchlist called name
func (c *Client) Append(ctx context.Context, creds *domain.Credentials, name string, symbols []string) error {
	if err := domain.ValidateWatchlistName(name); err != nil {
		return err
	}
	if len(symbols) == 0 {
		return domain.ErrNoSymbols
	}

	form := url.Values{}
	form.Set("symbols", strings.Join(symbols, ","))

	_, err := c.send(ctx, creds, "Append", request{
		method: http.MethodPost,
		path:   watchlistPath(name),
		form:   form,
	})
	return err
}

// DeleteList deletes the watchlist called name
func (c *Client) DeleteList(ctx context.Context, creds *domain.Credentials, name string) error {
	const op = "DeleteList"

	if err := domain.ValidateWatchlistName(name); err != nil {
		return err
	}

	body, err := c.send(ctx, creds, op, request{
		method: http.MethodDelete,
		path:   watchlistPath(name),
	})
	if err != nil {
		return err
	}
	return c.checkBody(op, body)
}

// DeleteSymbol removes symbol from the watchlist called name
func (c *Client) DeleteSymbol(ctx context.Context, creds *domain.Credentials, name, symbol string) error {
	const op = "DeleteSymbol"

	if err := domain.ValidateWatchlistName(name); err != nil {
		return err
	}

	body, err := c.send(ctx, creds, op, request{
		method: http.MethodDelete,
		path:   watchlistsPath + "/" + url.PathEscape(name) + "/symbols/" + url.PathEscape(symbol) + ".json",
	})
	if err != nil {
		return err
	}
	return c.checkBody(op, body)
}

type request struct {
	method string
	path   string
	form   url.Values
	read   bool
}

// send signs and performs one request, retrying reads when configured. It
// returns the body of a 2xx response.
func (c *Client) send(ctx context.Context, creds *domain.Credentials, op string, req request) ([]byte, error) {
	start := time.Now()

	body, err := c.perform(ctx, creds, op, req)

	if c.recorder != nil {
		c.recorder.RecordRequest(op, time.Since(start), err)
	}
	return body, err
}

func (c *Client) perform(ctx context.Context, creds *domain.Credentials, op string, req request) ([]byte, error) {
	if creds == nil {
		return nil, domain.NewTransportError(op, domain.ErrAuthUnavailable)
	}
	if err := creds.Validate(); err != nil {
		return nil, domain.NewTransportError(op, fmt.Errorf("%w: %v", domain.ErrAuthUnavailable, err))
	}

	cfg := c.retryConf
	if !req.read {
		cfg.MaxRetries = 0
	}

	signed := c.signedClient(ctx, creds)

	return retry.DoWithResult(ctx, cfg, func(ctx context.Context) ([]byte, error) {
		var reqBody io.Reader
		if req.form != nil {
			reqBody = strings.NewReader(req.form.Encode())
		}

		httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, reqBody)
		if err != nil {
			return nil, domain.NewTransportError(op, err)
		}
		httpReq.Header.Set("Accept", "application/json")
		if req.form != nil {
			httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		resp, err := signed.Do(httpReq)
		if err != nil {
			return nil, retry.NewRetryableError(domain.NewTransportError(op, err))
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, retry.NewRetryableError(domain.NewTransportError(op, err))
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		return nil, c.statusError(op, req.path, resp.StatusCode, body)
	})
}

// signedClient wraps the configured client so every request carries an
// OAuth 1.0a Authorization header for creds.
func (c *Client) signedClient(ctx context.Context, creds *domain.Credentials) *http.Client {
	config := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	token := oauth1.NewToken(creds.Token, creds.TokenSecret)

	signed := config.Client(context.WithValue(ctx, oauth1.HTTPClient, c.httpClient), token)
	signed.Timeout = c.httpClient.Timeout
	return signed
}

func (c *Client) statusError(op, path string, status int, body []byte) error {
	message := remoteMessage(body)

	switch {
	// Only a missing list on read means NotFound; a 404 on a write is the
	// broker refusing it.
	case status == http.StatusNotFound && op == "FetchOne":
		c.logger.Debug("watchlist not found", "op", op, "path", path)
		return fmt.Errorf("%s: %w", op, domain.ErrWatchlistNotFound)

	case status == http.StatusTooManyRequests:
		c.logger.Warn("rate limited by broker", "op", op)
		return retry.NewRetryableError(fmt.Errorf("%w: %w", domain.ErrRateLimited, domain.NewRemoteError(op, status, message)))

	case retry.RetryableStatus(status):
		c.logger.Warn("broker server error", "op", op, "status", status)
		return retry.NewRetryableError(domain.NewRemoteError(op, status, message))

	default:
		c.logger.Error("unexpected response",
			"op", op,
			"status", status,
			"message", message)
		return domain.NewRemoteError(op, status, message)
	}
}

func (c *Client) checkBody(op string, body []byte) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}

	var env statusEnvelope
	if err := decode(body, &env); err != nil {
		return c.invalid(op, err)
	}
	return env.Response.check(op)
}

func (c *Client) invalid(op string, err error) error {
	c.logger.Error("failed to decode response", "op", op, "error", err)
	return fmt.Errorf("%s: %w: %v", op, domain.ErrInvalidResponse, err)
}

func watchlistPath(name string) string {
	return watchlistsPath + "/" + url.PathEscape(name) + ".json"
}

func isNotFoundMessage(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist")
}

// remoteMessage extracts the broker's error text from a failed response,
// falling back to a trimmed copy of the raw body.
func remoteMessage(body []byte) string {
	var env statusEnvelope
	if err := decode(body, &env); err == nil && env.Response.Error != "" {
		return env.Response.Error
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

// Ensure Client implements WatchlistExecutor
var _ ports.WatchlistExecutor = (*Client)(nil)
