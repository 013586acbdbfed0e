package domain

import "time"

// OperationMetrics are the request counters for one executor operation
type OperationMetrics struct {
	Calls       int64   `json:"calls"`
	Errors      int64   `json:"errors"`
	LastLatency float64 `json:"last_latency_ms"`
}

// Metrics represents operational metrics
type Metrics struct {
	Uptime        float64                     `json:"uptime_seconds"`
	Operations    map[string]OperationMetrics `json:"operations"`
	LastRequestAt *time.Time                  `json:"last_request_at,omitempty"`
	LastError     string                      `json:"last_error,omitempty"`
}

// WatchEvent describes what changed in a watchlist between two refreshes
type WatchEvent struct {
	Name      string    `json:"name"`
	Added     []string  `json:"added,omitempty"`
	Removed   []string  `json:"removed,omitempty"`
	Symbols   []string  `json:"symbols"`
	CheckedAt time.Time `json:"checked_at"`
}

// Changed reports whether the refresh observed any difference
func (e *WatchEvent) Changed() bool {
	return len(e.Added) > 0 || len(e.Removed) > 0
}
