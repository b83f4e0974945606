// Command payments-engine reads a CSV log of transactions and prints the
// resulting state of every client as CSV on stdout.
//
//	payments-engine transactions.csv > accounts.csv
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/payments-engine/internal/config"
	"github.com/sheikh-saqib/payments-engine/internal/events/kafka"
	"github.com/sheikh-saqib/payments-engine/internal/logging"
	"github.com/sheikh-saqib/payments-engine/internal/pipeline"
	"github.com/sheikh-saqib/payments-engine/internal/storage/postgres"
)

var errUsage = errors.New("usage: payments-engine <transactions.csv>")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "payments-engine:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}

	cfg, err := config.Load(os.Getenv(config.EnvFileVar))
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	opts := pipeline.Options{
		RunID:  runID,
		Logger: logger,
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()

		opts.Publisher = publisher
	}

	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()

		store := postgres.NewPostgresReportStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Error("postgres unavailable, client states will not be saved", zap.Error(err))
		} else {
			opts.ReportStore = store
		}
	}

	_, err = pipeline.Run(ctx, file, stdout, opts)

	return err
}
