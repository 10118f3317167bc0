package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"OrdersParser/internal/channel"
	"OrdersParser/internal/config"
	"OrdersParser/internal/infrastructure/drive"
	"OrdersParser/internal/infrastructure/localstore"
	"OrdersParser/internal/infrastructure/parser"
	"OrdersParser/internal/infrastructure/sheets"
	"OrdersParser/internal/infrastructure/storage"
	"OrdersParser/internal/logging"
	"OrdersParser/internal/matcher"
	"OrdersParser/internal/metrics"
	"OrdersParser/internal/ports"
	"OrdersParser/internal/usecase"
)

// Options are per-run switches coming from the command line.
type Options struct {
	// DryRun parses and matches but writes nothing and moves no labels.
	DryRun bool
	// Force re-writes orders the ledger already recorded.
	Force bool
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	closers  []func() error
}

// New builds the runnable application: parsers, file store, workbook and ledger.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts Options) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	router := NewRouter(cfg, baseLogger)
	baseLogger.Debug("channel parsers registered", "channels", router.Channels())

	store, uploader := a.fileStore(baseLogger)
	if opts.DryRun {
		uploader = nil
	}

	deps := usecase.PipelineDeps{
		Router:  router,
		Matcher: matcher.New(store, uploader, baseLogger),
		Logger:  baseLogger,
		Force:   opts.Force,
	}

	if !opts.DryRun {
		workbook, err := sheets.Open(cfg.Sheets.WorkbookPath, cfg.Sheets.SizeThreshold, baseLogger)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		a.closers = append(a.closers, workbook.Close)
		deps.Writer = workbook

		ledger, err := storage.Open(ctx, cfg.Ledger.Driver, cfg.Ledger.DSN, baseLogger)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("open ledger: %w", err)
		}
		a.closers = append(a.closers, ledger.Close)
		deps.Ledger = ledger
	}

	a.pipeline = usecase.NewPipeline(deps)
	return a, nil
}

// NewRouter registers the channel parsers in classification priority.
func NewRouter(cfg config.Config, logger *slog.Logger) *channel.Router {
	return channel.NewRouter(
		parser.NewEtsyParser(logger.With("component", "parser.etsy")),
		parser.NewAmazonParser(logger.With("component", "parser.amazon")),
		parser.NewWayfairParser(logger.With("component", "parser.wayfair")),
		parser.NewOverstockParser(logger.With("component", "parser.overstock")),
		parser.NewEbayParser(cfg.Channels.EbayStore, logger.With("component", "parser.ebay")),
	)
}

func (a *Application) fileStore(logger *slog.Logger) (ports.FileStore, ports.LabelUploader) {
	if a.cfg.FileStore.Backend == config.BackendLocal {
		store := localstore.New(a.cfg.FileStore.Local.Dir, a.cfg.Labels.Dir, logger)
		return store, store
	}
	if a.cfg.FileStore.Drive.AccessToken == "" {
		logger.Warn("drive access token is empty; searches will fail and cells will read File Not Found")
	}
	client := drive.NewClient(a.cfg.FileStore.Drive, a.cfg.Labels.Dir, logger)
	return client, client
}

// Run processes the configured orders file once.
func (a *Application) Run(ctx context.Context) (usecase.BatchReport, error) {
	raw, err := os.ReadFile(a.cfg.Input.OrdersPath)
	if err != nil {
		return usecase.BatchReport{}, fmt.Errorf("read orders file: %w", err)
	}

	report, err := a.pipeline.ProcessBatch(ctx, string(raw))
	if errors.Is(err, context.Canceled) {
		a.logger.Warn("batch interrupted", "written", report.Written)
	}

	if mErr := metrics.WriteTextfile(a.cfg.Metrics.Textfile); mErr != nil {
		a.logger.Warn("metrics textfile not written", "path", a.cfg.Metrics.Textfile, "error", mErr)
	}
	return report, err
}

// Close releases the workbook and ledger.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
