package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"finanzas/internal/amqp"
	"finanzas/internal/cli"
	apphttp "finanzas/internal/http"
	"finanzas/internal/ics"
	"finanzas/internal/log"
	"finanzas/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)
	logger.Info("Starting finanzas", "port", cfg.Port, log.FieldOperation, log.OpStartup)

	opened, err := cli.OpenStore(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to open record store", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer opened.Close()
	store := opened.Records

	var publisher services.RecomputePublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Statements are rebuilt locally on every mutation; the worker
			// reconciles at startup.
			logger.Warn("AMQP unavailable, recompute events disabled", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
		}
	}

	svc, err := cli.BuildServices(cfg, store, publisher, logger)
	if err != nil {
		logger.Error("Failed to build services", log.FieldError, err)
		os.Exit(1)
	}
	defer svc.Caches.Stop()

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, apphttp.Services{
		Cards:    svc.Cards,
		Debts:    svc.Debts,
		Expenses: svc.Expenses,
		Incomes:  svc.Incomes,
		Budgets:  svc.Budgets,
		Items:    svc.Items,
		Months:   svc.Months,
		Calendar: ics.NewFeed(store, logger),
	}, logger)

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("HTTP server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", log.FieldError, err)
		os.Exit(1)
	}
	<-done
}
