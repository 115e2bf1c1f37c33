package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/reinanbr/money-std/internal/config"
	"github.com/reinanbr/money-std/internal/events"
	apphttp "github.com/reinanbr/money-std/internal/http"
	applog "github.com/reinanbr/money-std/internal/log"
	"github.com/reinanbr/money-std/internal/services"
	"github.com/reinanbr/money-std/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New("money-std", applog.ParseLevel(cfg.LogLevel))
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	var publisher *events.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// The tracker is local-first: a missing broker downgrades to
			// no events, it does not block startup.
			logger.Warn("AMQP broker unavailable, events disabled", "error", err)
			publisher = nil
		} else {
			logger.Info("AMQP events enabled",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	finance := services.NewFinance(store, publisher)
	defer finance.Close()

	srv := apphttp.NewServer(":"+cfg.Port, finance, cfg.HistoryDefaultDays)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}
