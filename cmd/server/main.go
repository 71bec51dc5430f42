package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/httpserver"
	"storefront/internal/kv"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	store, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("init %s store: %v", cfg.StorageBackend, err)
	}
	defer cleanup()

	carts := cart.NewManager(store, logger)
	sessions := auth.New(store, carts, logger)
	sessions.Bootstrap(ctx)

	srv := httpserver.New(cfg.HTTPAddr, logger, store, httpserver.Deps{
		Carts:    carts,
		Sessions: sessions,
	}, cfg.StaticDir)

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s (storage backend: %s)", cfg.HTTPAddr, cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

func buildStore(ctx context.Context, cfg config.Config) (kv.Store, func(), error) {
	noop := func() {}
	switch cfg.StorageBackend {
	case "memory":
		return kv.NewMemory(), noop, nil
	case "file":
		store, err := kv.NewFile(cfg.DataDir)
		return store, noop, err
	case "redis":
		store := kv.NewRedis(cfg.RedisAddr)
		if err := store.Ping(ctx); err != nil {
			return nil, noop, err
		}
		return store, func() { _ = store.Close() }, nil
	case "postgres":
		pool, err := kv.ConnectPostgres(ctx, cfg.DBConnString)
		if err != nil {
			return nil, noop, err
		}
		return kv.NewPostgres(pool), pool.Close, nil
	default:
		return nil, noop, errors.New("unknown storage backend " + cfg.StorageBackend)
	}
}
