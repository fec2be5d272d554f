// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/conversation-handoff/internal/config"
	"github.com/capitalize-ai/conversation-handoff/internal/durable"
	"github.com/capitalize-ai/conversation-handoff/internal/fixtures"
	"github.com/capitalize-ai/conversation-handoff/internal/handler"
	natsclient "github.com/capitalize-ai/conversation-handoff/internal/nats"
	"github.com/capitalize-ai/conversation-handoff/internal/service"
	"github.com/capitalize-ai/conversation-handoff/pkg/logger"
	"github.com/capitalize-ai/conversation-handoff/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server", zap.String("store_backend", cfg.StoreBackend))

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "conversation-handoff", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	seed, err := fixtures.Load(cfg.SeedFile)
	if err != nil {
		log.Fatal("failed to load seed conversations", zap.Error(err))
	}

	open, ready, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open durable store", zap.Error(err))
	}
	defer closeStore()

	sessions := service.NewSessionManager(func(userID string) durable.Store {
		return durable.Namespace(open(), "user/"+userID+"/")
	}, seed, log)

	router := handler.NewRouter(handler.RouterConfig{
		Sessions:          sessions,
		Health:            handler.NewHealthHandler(cfg.StoreBackend, ready),
		Logger:            log,
		JWTSecret:         cfg.JWTSecret,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	sessions.Close()

	log.Info("server stopped")
}

// openStore builds the configured backend. open returns a fresh execution
// context on it for every call.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (open func() durable.Store, ready func() bool, closeFn func(), err error) {
	switch cfg.StoreBackend {
	case config.BackendPebble:
		store, err := durable.OpenPebble(cfg.PebblePath, nil, log)
		if err != nil {
			return nil, nil, nil, err
		}
		return func() durable.Store { return store.Context() },
			store.Healthy,
			func() { store.Close() },
			nil

	case config.BackendNATS:
		client, err := natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			return nil, nil, nil, err
		}
		kv, err := natsclient.EnsureBucket(ctx, client, cfg.NATSBucket)
		if err != nil {
			client.Close()
			return nil, nil, nil, err
		}
		store := natsclient.NewKVStore(kv, cfg.StoreTimeout, log)
		return func() durable.Store { return store },
			client.IsConnected,
			client.Close,
			nil

	case config.BackendMemory, "":
		hub := durable.NewHub(log)
		return func() durable.Store { return hub.Context() }, nil, func() {}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
