package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"bookshelf/internal/auth"
	"bookshelf/internal/collection"
	"bookshelf/internal/config"
	"bookshelf/internal/platform/logger"
	"bookshelf/internal/platform/openlibrary"
	"bookshelf/internal/profile"
	"bookshelf/internal/server"
	"bookshelf/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Must("info", "json").Fatal("invalid configuration", zap.Error(err))
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logger.Must("info", "json").Fatal("cannot build logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	st, closeStore, err := store.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	catalog := openlibrary.NewClient(openlibrary.Options{
		BaseURL:    cfg.OpenLibraryBaseURL,
		CoversURL:  cfg.OpenLibraryCoversURL,
		UserAgent:  cfg.OpenLibraryUserAgent,
		RPS:        cfg.OpenLibraryRPS,
		Timeout:    cfg.OpenLibraryTimeout,
		Logger:     log.Named("openlibrary"),
		Registerer: reg,
	})

	authService := auth.NewService(st, cfg.JWTSecret, cfg.TokenTTL)
	profileService := profile.NewService(st)
	collectionService := collection.NewService(st, catalog,
		collection.WithEnrichConcurrency(cfg.EnrichConcurrency),
		collection.WithLogger(log.Named("collection")),
	)

	srv := server.New(server.Options{
		JWTSecret:      cfg.JWTSecret,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Registry:       reg,
		Logger:         log,
	}, server.Handlers{
		Auth:       auth.NewHTTPHandler(authService, log),
		Profile:    profile.NewHTTPHandler(profileService, log),
		Collection: collection.NewHTTPHandler(collectionService, log),
	}, st)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.Addr), zap.String("store", cfg.StoreDriver))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
