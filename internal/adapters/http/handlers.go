package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/prxgr4mmer/ally-watchlists/internal/domain"
	"github.com/prxgr4mmer/ally-watchlists/internal/ports"
	"github.com/prxgr4mmer/ally-watchlists/internal/services"
)

// Handler contains all HTTP handlers.
//
// The collection and its proxies are not safe for concurrent use, so every
// handler touching them holds mu for the whole request.
type Handler struct {
	mu          sync.Mutex
	collection  *services.Collection
	snapshotSvc ports.SnapshotService
	metricsSvc  ports.MetricsService
	logger      *slog.Logger
}

// NewHandler creates a new handler
func NewHandler(
	collection *services.Collection,
	snapshotSvc ports.SnapshotService,
	metricsSvc ports.MetricsService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		collection:  collection,
		snapshotSvc: snapshotSvc,
		metricsSvc:  metricsSvc,
		logger:      logger.With("component", "http_handler"),
	}
}

// WatchlistItemResponse is one item of a watchlist in the API response
type WatchlistItemResponse struct {
	Symbol    string `json:"symbol"`
	CostBasis string `json:"cost_basis"`
	Quantity  string `json:"quantity"`
}

// WatchlistResponse represents a watchlist in the API response
type WatchlistResponse struct {
	Name    string                  `json:"name"`
	Symbols []string                `json:"symbols"`
	Items   []WatchlistItemResponse `json:"items"`
}

func newWatchlistResponse(wl *domain.Watchlist) WatchlistResponse {
	items := make([]WatchlistItemResponse, len(wl.Items))
	for i, item := range wl.Items {
		items[i] = WatchlistItemResponse{
			Symbol:    item.Symbol,
			CostBasis: item.CostBasis.String(),
			Quantity:  item.Quantity.String(),
		}
	}
	return WatchlistResponse{
		Name:    wl.Name,
		Symbols: wl.Symbols(),
		Items:   items,
	}
}

// SymbolsRequest represents the request body carrying symbols
type SymbolsRequest struct {
	Symbols []string `json:"symbols"`
}

// Health returns service health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	checkCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	broker := "healthy"
	if err := h.collection.Ping(checkCtx); err != nil {
		h.logger.Warn("broker health check failed", "error", err)
		status = "degraded"
		broker = "unhealthy"
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"broker": broker,
	})
}

// ListWatchlists returns the watchlist names, or every watchlist with
// ?expand=1
func (h *Handler) ListWatchlists(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if isTrue(r.URL.Query().Get("expand")) {
		lists, err := h.snapshotSvc.Snapshot(r.Context())
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]WatchlistResponse, len(lists))
		for i, wl := range lists {
			resp[i] = newWatchlistResponse(wl)
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"watchlists": resp,
		})
		return
	}

	names, err := h.collection.Names(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"watchlists": names,
	})
}

// GetWatchlist returns one watchlist
func (h *Handler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	h.mu.Lock()
	defer h.mu.Unlock()

	proxy, err := h.collection.Get(r.Context(), name)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newWatchlistResponse(proxy.Watchlist()))
}

// PutWatchlist replaces a watchlist with the symbols in the body
func (h *Handler) PutWatchlist(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := domain.ValidateWatchlistName(name); err != nil {
		handleDomainError(w, err)
		return
	}

	symbols, ok := decodeSymbols(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	proxy, err := h.collection.Set(r.Context(), name, symbols...)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	h.logger.Info("watchlist replaced", "name", name, "symbols", len(symbols))
	respondJSON(w, http.StatusOK, newWatchlistResponse(proxy.Watchlist()))
}

// DeleteWatchlist removes a watchlist
func (h *Handler) DeleteWatchlist(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.collection.Delete(r.Context(), name); err != nil {
		handleDomainError(w, err)
		return
	}

	h.logger.Info("watchlist deleted", "name", name)
	w.WriteHeader(http.StatusNoContent)
}

// AddSymbols adds symbols to a watchlist. With ?lazy=1 the response holds
// the state before the add and is sent as 202.
func (h *Handler) AddSymbols(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	symbols, ok := decodeSymbols(w, r)
	if !ok {
		return
	}
	lazy := isTrue(r.URL.Query().Get("lazy"))

	h.mu.Lock()
	defer h.mu.Unlock()

	proxy, err := h.collection.Get(r.Context(), name)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	if lazy {
		err = proxy.AddLazy(r.Context(), symbols...)
	} else {
		err = proxy.Add(r.Context(), symbols...)
	}
	if err != nil {
		handleDomainError(w, err)
		return
	}

	status := http.StatusOK
	if lazy {
		status = http.StatusAccepted
	}
	respondJSON(w, status, newWatchlistResponse(proxy.Watchlist()))
}

// RemoveSymbol removes one symbol from a watchlist
func (h *Handler) RemoveSymbol(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	symbol := domain.NormalizeSymbol(r.PathValue("symbol"))
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	proxy, err := h.collection.Get(r.Context(), name)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	if !proxy.Contains(symbol) {
		respondErrorWithCode(w, http.StatusNotFound, "symbol not in watchlist", "SYMBOL_NOT_FOUND")
		return
	}

	if err := proxy.Discard(r.Context(), symbol); err != nil {
		handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetMetrics returns operational metrics
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.metricsSvc.GetMetrics())
}

func decodeSymbols(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var req SymbolsRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	symbols := domain.NormalizeSymbols(req.Symbols)
	if len(symbols) == 0 {
		handleDomainError(w, domain.ErrNoSymbols)
		return nil, false
	}
	return symbols, true
}

func isTrue(v string) bool {
	switch v {
	case "1", "true", "yes":
		return true
	}
	return false
}
