package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quant-trading-bot/internal/logger"
	"quant-trading-bot/internal/trace"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	runFor := flag.Duration("run-for", 0, "stop after this duration (0 = run until signalled)")
	flag.Parse()

	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = trace.Shutdown(ctx)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *runFor > 0 {
		ctx, cancel = context.WithTimeout(ctx, *runFor)
		defer cancel()
	}

	cfg, err := loadConfig(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	compressOldLogs(ctx)

	orch := buildOrchestrator(ctx, cfg)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case s := <-sigc:
			logger.Info(ctx, "Shutdown signal received", "signal", s.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Info(ctx, "Bot starting", "mode", cfg.Mode, "symbol", cfg.Symbol, "data_source", cfg.DataSource)
	if err := orch.Run(ctx); err != nil {
		logger.ErrorWithErr(ctx, "Bot exited with error", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Bot stopped")
}
