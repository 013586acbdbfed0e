package services

import (
	"log/slog"
	"sync"
	"time"

	"github.com/prxgr4mmer/ally-watchlists/internal/domain"
	"github.com/prxgr4mmer/ally-watchlists/internal/ports"
)

// MetricsService implements the ports.MetricsService interface
type MetricsService struct {
	startTime time.Time
	logger    *slog.Logger

	mu            sync.RWMutex
	operations    map[string]domain.OperationMetrics
	lastRequestAt *time.Time
	lastError     string
}

// NewMetricsService creates a new metrics service
func NewMetricsService(logger *slog.Logger) *MetricsService {
	return &MetricsService{
		startTime:  time.Now(),
		logger:     logger.With("component", "metrics_service"),
		operations: make(map[string]domain.OperationMetrics),
	}
}

// RecordRequest records the outcome of one executor request
func (m *MetricsService) RecordRequest(op string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.lastRequestAt = &now

	stats := m.operations[op]
	stats.Calls++
	stats.LastLatency = float64(duration.Milliseconds())
	if err != nil {
		stats.Errors++
		m.lastError = err.Error()
	}
	m.operations[op] = stats
}

// GetMetrics returns current operational metrics
func (m *MetricsService) GetMetrics() *domain.Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ops := make(map[string]domain.OperationMetrics, len(m.operations))
	for op, stats := range m.operations {
		ops[op] = stats
	}

	return &domain.Metrics{
		Uptime:        time.Since(m.startTime).Seconds(),
		Operations:    ops,
		LastRequestAt: m.lastRequestAt,
		LastError:     m.lastError,
	}
}

// Ensure MetricsService implements ports.MetricsService
var _ ports.MetricsService = (*MetricsService)(nil)
