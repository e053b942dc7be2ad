package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"memwatch/collector"
	"memwatch/config"
	"memwatch/logger"
	"memwatch/probe"
	"memwatch/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error loading config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error setting up logger:", err)
		os.Exit(1)
	}
	defer logger.Flush(log)

	// Schema creation failure is the one fatal startup condition; every
	// later failure is caught at the cycle boundary.
	store, err := storage.NewSQLite(cfg.DBPath, log)
	if err != nil {
		log.Fatal("opening metrics store", zap.String("db_path", cfg.DBPath), zap.Error(err))
	}
	defer store.Close()

	// Stop between cycles on SIGINT/SIGTERM; the in-flight cycle finishes
	// its writes.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sampler := collector.New(
		probe.NewHostProbe(),
		store,
		time.Duration(cfg.SampleIntervalSec)*time.Second,
		cfg.TopNProcesses,
		log,
	)
	sampler.Run(ctx)
}
