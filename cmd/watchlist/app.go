package main

import (
	"io"
	"log/slog"

	"github.com/prxgr4mmer/ally-watchlists/internal/adapters/ally"
	"github.com/prxgr4mmer/ally-watchlists/internal/config"
	"github.com/prxgr4mmer/ally-watchlists/internal/services"
)

// Application holds all components
type Application struct {
	cfg         *config.Config
	credentials *ally.CredentialSource
	client      *ally.Client
	collection  *services.Collection
	metrics     *services.MetricsService
	snapshots   *services.SnapshotService
	out         io.Writer
	logger      *slog.Logger
}

func buildApplication(cfg *config.Config, out io.Writer, logger *slog.Logger) (*Application, error) {
	logger.Debug("building application")

	credentials, err := ally.NewCredentialSource(cfg.Credentials())
	if err != nil {
		return nil, err
	}

	metrics := services.NewMetricsService(logger)

	client := ally.NewClient(
		ally.WithBaseURL(cfg.Ally.BaseURL),
		ally.WithTimeout(cfg.Ally.Timeout),
		ally.WithRetry(cfg.Ally.MaxRetries, cfg.Ally.RetryBackoff),
		ally.WithRecorder(metrics),
		ally.WithLogger(logger),
	)

	app := &Application{
		cfg:         cfg,
		credentials: credentials,
		client:      client,
		metrics:     metrics,
		out:         out,
		logger:      logger,
	}
	app.collection = app.newCollection()
	app.snapshots = services.NewSnapshotService(app.collection, 0, logger)

	return app, nil
}

// newCollection returns a collection sharing the client and credentials.
// Each goroutine that needs one gets its own.
func (a *Application) newCollection() *services.Collection {
	return services.NewCollection(a.client, a.credentials,
		services.WithNameTTL(a.cfg.Cache.NameTTL),
		services.WithLogger(a.logger),
	)
}

// Close detaches the collection and drops the credentials
func (a *Application) Close() {
	a.collection.Close()
	a.credentials.Revoke()
}
