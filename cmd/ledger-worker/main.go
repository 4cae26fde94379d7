package main

import (
	"context"
	"errors"
	"time"

	"lifeledger/internal/amqp"
	"lifeledger/internal/cli"
	"lifeledger/internal/log"
	"lifeledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		cli.Fatal(cli.SetupLogger(nil, log.ComponentWorker), "Invalid configuration", err)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting ledger-worker", log.FieldOperation, log.OpStartup)

	if !cfg.AMQPEnabled() {
		cli.Fatal(logger, "AMQP is required by the worker", errors.New("AMQP_URL is not set"))
	}
	if cfg.DataBackend == "memory" {
		logger.Warn("Worker is reading the in-memory backend; it will not see the server's transactions")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The worker only reads the ledger, so no publisher is opened.
	result, err := cli.OpenBackend(ctx, logger, cfg, false)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	}
	defer result.Close()

	exporter, err := cli.NewActivityExporter(ctx, logger.WithComponent(log.ComponentSheets), cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize activity exporter", err)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer client.Close()

	exportWorker := worker.NewExportWorker(result.Backend, exporter)

	sigCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		cancel()
	})

	go func() {
		err := client.ConsumeLedgerEvents(ctx, exportWorker.HandleLedgerEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
		}
		cancel()
	}()

	select {
	case <-sigCtx.Done():
		<-done
	case <-ctx.Done():
		logger.Info("Consumer stopped")
	}
	logger.Info("Worker shutdown complete")
}
