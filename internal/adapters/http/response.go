package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/prxgr4mmer/ally-watchlists/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = sonic.ConfigDefault.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondErrorWithCode sends an error response with an error code
func respondErrorWithCode(w http.ResponseWriter, status int, message, code string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// handleDomainError maps domain errors to HTTP responses
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidWatchlistName):
		respondErrorWithCode(w, http.StatusBadRequest, "invalid watchlist name", "INVALID_WATCHLIST_NAME")

	case errors.Is(err, domain.ErrNoSymbols):
		respondErrorWithCode(w, http.StatusBadRequest, "at least one symbol is required", "NO_SYMBOLS")

	case errors.Is(err, domain.ErrWatchlistNotFound):
		respondErrorWithCode(w, http.StatusNotFound, "watchlist not found", "WATCHLIST_NOT_FOUND")

	case errors.Is(err, domain.ErrRateLimited):
		respondErrorWithCode(w, http.StatusTooManyRequests, "rate limited by broker", "RATE_LIMITED")

	case errors.Is(err, domain.ErrAuthUnavailable):
		respondErrorWithCode(w, http.StatusServiceUnavailable, "broker credentials unavailable", "AUTH_UNAVAILABLE")

	case domain.IsTransportError(err):
		respondErrorWithCode(w, http.StatusServiceUnavailable, "broker unreachable", "BROKER_UNAVAILABLE")

	case errors.Is(err, domain.ErrInvalidResponse):
		respondErrorWithCode(w, http.StatusBadGateway, "invalid response from broker", "INVALID_BROKER_RESPONSE")

	case domain.IsRemoteError(err):
		respondJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   "broker rejected the request",
			Code:    "BROKER_ERROR",
			Details: err.Error(),
		})

	case errors.Is(err, context.DeadlineExceeded):
		respondErrorWithCode(w, http.StatusGatewayTimeout, "broker request timed out", "TIMEOUT")

	default:
		respondErrorWithCode(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
