package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spendly/internal/amqp"
	"spendly/internal/cli"
	"spendly/internal/config"
	applog "spendly/internal/log"
	"spendly/internal/sheets"
	gsheet "spendly/internal/sheets/google"
	memsheet "spendly/internal/sheets/memory"
	"spendly/internal/storage"
	"spendly/internal/worker"
)

const periodicExportInterval = time.Hour

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	logger = logger.WithComponent(applog.ComponentWorker)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Worker exited with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, cfg.SnapshotName)
	if err != nil {
		return err
	}
	defer repo.Close()

	var exporter sheets.SnapshotExporter
	if cfg.SheetsExportEnabled() {
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			return err
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		exporter = memsheet.New(logger)
		logger.Info("Google Sheets disabled, running as dry run")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	w := worker.NewExportWorker(repo, exporter, cfg.SnapshotName, logger)

	// Catch up on saves made while the worker was down.
	if err := w.Export(ctx); err != nil {
		logger.Error("Startup export failed", applog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.ConsumeSnapshotSaved(gctx, w.HandleSnapshotSaved)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	// Periodic export covers notifications lost while the broker was down.
	g.Go(func() error {
		ticker := time.NewTicker(periodicExportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := w.Export(gctx); err != nil {
					logger.Error("Periodic export failed", applog.FieldError, err)
				}
			}
		}
	})
	return g.Wait()
}
