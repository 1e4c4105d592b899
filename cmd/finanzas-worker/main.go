package main

import (
	"context"
	"errors"
	"os"
	"time"
	_ "time/tzdata"

	"finanzas/internal/amqp"
	"finanzas/internal/cli"
	"finanzas/internal/log"
	"finanzas/internal/scheduler"
	gsheet "finanzas/internal/sheets/google"
	"finanzas/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)
	logger.Info("Starting finanzas-worker", log.FieldOperation, log.OpStartup)

	opened, err := cli.OpenStore(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to open record store", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer opened.Close()
	store := opened.Records

	svc, err := cli.BuildServices(cfg, store, nil, logger)
	if err != nil {
		logger.Error("Failed to build services", log.FieldError, err)
		os.Exit(1)
	}
	defer svc.Caches.Stop()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	recompute := worker.NewRecomputeWorker(svc.Cards, logger)
	if err := recompute.StartupReconcile(ctx); err != nil {
		logger.Error("Startup reconcile failed", log.FieldError, err)
	}

	sched := scheduler.New(cfg.Location(), logger)
	if err := sched.Add("accrual", cfg.AccrualSchedule, func(ctx context.Context) error {
		_, err := svc.Accrual.Run(ctx)
		return err
	}); err != nil {
		logger.Error("Failed to schedule accrual", log.FieldError, err)
		os.Exit(1)
	}

	if cfg.SheetsEnabled() {
		sheet, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSnapshotSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		exporter := worker.NewSnapshotExporter(svc.Months, sheet, svc.Today, logger)
		if err := sched.Add("snapshot-export", cfg.SnapshotExportSchedule, exporter.ExportPreviousMonth); err != nil {
			logger.Error("Failed to schedule snapshot export", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Snapshot export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Snapshot export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	// The accrual guard makes a catch-up run at startup safe.
	if err := sched.RunNow(ctx, "accrual"); err != nil {
		logger.Error("Startup accrual failed", log.FieldError, err)
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		go func() {
			err := client.ConsumeStatementRecompute(ctx, recompute.HandleRecomputeMessage)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	if err := sched.Start(ctx); err != nil {
		logger.Error("Scheduler failed", log.FieldError, err)
	}
	<-done
}
