package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"OrdersParser/internal/app"
	"OrdersParser/internal/config"
	"OrdersParser/internal/domain"
	"OrdersParser/internal/logging"
	"OrdersParser/internal/metrics"
)

type options struct {
	Config   string `long:"config" short:"c" env:"ORDERS_PARSER_CONFIG" description:"Path to the YAML config file"`
	EnvFile  string `long:"env-file" default:"config/.env" description:"Dotenv file loaded before the config"`
	Orders   string `long:"orders" short:"o" description:"Concatenated order pages (defaults to orders.txt beside the executable)"`
	DryRun   bool   `long:"dry-run" description:"Parse and match only; write no rows and move no labels"`
	Force    bool   `long:"force" description:"Write orders even if the ledger already has them"`
	LogLevel string `long:"log-level" description:"debug, info, warn or error"`
}

func main() {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "env file %s: %v\n", opts.EnvFile, err)
	}

	cfg := config.Load(opts.Config)
	if opts.Orders != "" {
		cfg.Input.OrdersPath = opts.Orders
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	logger := logging.New(cfg.Logging.Level)
	metrics.RegisterDefault()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger, app.Options{DryRun: opts.DryRun, Force: opts.Force})
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}

	report, err := application.Run(ctx)
	if closeErr := application.Close(); closeErr != nil {
		logger.Warn("close resources", "error", closeErr)
	}
	if report.RunID != "" {
		fmt.Println(report.String())
	}
	if err != nil && !errors.Is(err, domain.ErrNoDocuments) {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
	if errors.Is(err, domain.ErrNoDocuments) {
		logger.Warn("orders file holds no order pages", "path", cfg.Input.OrdersPath)
	}
}
