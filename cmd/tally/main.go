package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tally/internal/amqp"
	"tally/internal/config"
	apphttp "tally/internal/http"
	"tally/internal/kv"
	kvmem "tally/internal/kv/memory"
	kvsqlite "tally/internal/kv/sqlite"
	"tally/internal/ledger"
	applog "tally/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentApp})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Failed to resolve timezone", applog.FieldError, err, "timezone", cfg.Timezone)
		os.Exit(1)
	}

	// Choose persistence backend (default: memory)
	var store kv.Store
	switch cfg.DataBackend {
	case "sqlite":
		sqliteStore, err := kvsqlite.Open(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to open SQLite store", applog.FieldError, err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer sqliteStore.Close()
		store = sqliteStore
		logger.Info("Initialized SQLite backend", applog.FieldBackend, cfg.DataBackend, "path", cfg.SQLiteDBPath)
	default:
		store = kvmem.New()
		logger.Info("Initialized memory backend", applog.FieldBackend, cfg.DataBackend)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := ledger.Open(ctx, store, ledger.Options{
		Key:      cfg.StorageKey,
		Location: loc,
		Logger:   logger.WithComponent(applog.ComponentLedger),
	})
	logger.Info("Ledger hydrated", applog.FieldKey, cfg.StorageKey, applog.FieldCount, l.Len())

	// Publish ledger changes to the broker when configured
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		notifier := amqp.NewNotifier(amqpClient, logger, l.Len())
		defer l.Subscribe(notifier.Observe)()
		logger.Info("AMQP change publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	srv := apphttp.NewServer(":"+cfg.Port, l, logger)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting tally server", "port", cfg.Port, applog.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
