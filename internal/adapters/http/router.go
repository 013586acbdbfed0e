package http

import (
	"log/slog"
	"net/http"
)

// NewRouter creates the HTTP router with all routes
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", h.Health)

	// Watchlists
	mux.HandleFunc("GET /watchlists", h.ListWatchlists)
	mux.HandleFunc("GET /watchlists/{name}", h.GetWatchlist)
	mux.HandleFunc("PUT /watchlists/{name}", h.PutWatchlist)
	mux.HandleFunc("DELETE /watchlists/{name}", h.DeleteWatchlist)

	// Symbols of one watchlist
	mux.HandleFunc("POST /watchlists/{name}/symbols", h.AddSymbols)
	mux.HandleFunc("DELETE /watchlists/{name}/symbols/{symbol}", h.RemoveSymbol)

	// Metrics
	mux.HandleFunc("GET /metrics", h.GetMetrics)

	// outer -> inner
	var handler http.Handler = mux
	handler = ContentTypeMiddleware(handler)
	handler = RecoveryMiddleware(logger)(handler)
	handler = LoggingMiddleware(logger)(handler)

	return handler
}
