package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	app "github.com/okian/rift/internal/app"
	"github.com/okian/rift/internal/config"
	"github.com/okian/rift/pkg/logger"
)

const defaultRunTimeout = 5 * time.Minute

// cleanup-events deletes events older than the retention threshold.
// Meant to run from cron; it shares the server's configuration.
func main() {
	var (
		olderThan = flag.Int("older-than", 0, "Age threshold in days (default: retention_days from config)")
		dryRun    = flag.Bool("dry-run", false, "Report what would be deleted without deleting")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	loggerInstance := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	days := cfg.RetentionDays
	if *olderThan > 0 {
		days = *olderThan
	}

	svc := app.New(
		app.WithLogger(loggerInstance),
		app.WithDatabaseURL(cfg.DatabaseURL),
		app.WithWebhookSecret(cfg.WebhookSecret),
		app.WithDBPool(cfg.DBMaxOpenConns, cfg.DBMaxIdleConns),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer svc.Stop()

	if *dryRun {
		n, err := svc.CountOldEvents(ctx, days)
		if err != nil {
			os.Stderr.WriteString("dry run failed: " + err.Error() + "\n")
			os.Exit(1)
		}
		loggerInstance.Info(ctx, "dry run; no events deleted",
			logger.Int64("wouldDelete", n),
			logger.Int("olderThanDays", days))
		os.Stdout.WriteString("would delete " + strconv.FormatInt(n, 10) + " events older than " +
			strconv.Itoa(days) + " days\n")
		return
	}

	deleted, err := svc.CleanupOldEvents(ctx, days)
	if err != nil {
		os.Stderr.WriteString("cleanup failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	os.Stdout.WriteString("deleted " + strconv.FormatInt(deleted, 10) + " events older than " +
		strconv.Itoa(days) + " days\n")
}
