package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	auth "github.com/goliatone/go-auth-session"
)

// run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func run(ctx context.Context, cfg serverConfig, log *slog.Logger) error {
	authCfg, err := auth.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("load auth config: %w", err)
	}

	store, closer, err := newUserStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			log.Error("store.close.fail", "err", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	issuer, err := auth.NewSessionIssuer(authCfg, store,
		auth.WithIssuerLogger(log),
		auth.WithIssuerMetrics(auth.NewMetrics(registry)),
	)
	if err != nil {
		return err
	}

	app := auth.NewServer(issuer,
		auth.WithServerLogger(log),
		auth.WithCORSOrigin(cfg.CORSOrigin),
		auth.WithMetricsGatherer(registry),
	)

	log.Info("server.start",
		"addr", cfg.HTTPAddr,
		"production", authCfg.Production,
		"access_ttl", authCfg.AccessTTL.String(),
		"refresh_ttl", authCfg.RefreshTTL.String(),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		log.Error("server.fail", "err", err)
		return err
	}

	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		log.Error("server.shutdown.fail", "err", err)
		return err
	}

	log.Info("server.stopped")
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newUserStore picks the in-memory store when no database is configured
func newUserStore(ctx context.Context, cfg serverConfig, log *slog.Logger) (auth.UserStore, io.Closer, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("store.memory", "reason", "DATABASE_URL not set, users are lost on restart")
		return auth.NewMemoryUserStore(), nopCloser{}, nil
	}

	db, err := auth.OpenDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	store := auth.NewBunUserStore(db)
	if err := store.CreateSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	log.Info("store.db", "dialect", db.Dialect().Name().String())
	return store, db, nil
}
