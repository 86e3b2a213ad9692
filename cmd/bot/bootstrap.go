package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"quant-trading-bot/internal/decision"
	"quant-trading-bot/internal/engine"
	"quant-trading-bot/internal/engine/engineobs"
	"quant-trading-bot/internal/features"
	"quant-trading-bot/internal/interfaces"
	"quant-trading-bot/internal/llm/deepseek"
	"quant-trading-bot/internal/llm/llmobs"
	"quant-trading-bot/internal/llm/noop"
	"quant-trading-bot/internal/logger"
	"quant-trading-bot/internal/marketdata"
	"quant-trading-bot/internal/marketdata/dataobs"
	"quant-trading-bot/internal/monitor"
	"quant-trading-bot/internal/news"
	"quant-trading-bot/internal/orchestrator"
	"quant-trading-bot/internal/session"
	"quant-trading-bot/internal/store"
	"quant-trading-bot/internal/trace"
	"quant-trading-bot/internal/tradelog"
)

// initializeSystem loads the environment and brings up logging and tracing.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs gzips journal files past the retention window.
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("TRADER_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

// buildOrchestrator wires the full pipeline: market data, features,
// signal provider, decision engine, position engine, session window
// and the monitoring sink, each behind its observability wrapper.
func buildOrchestrator(ctx context.Context, cfg *store.Config) *orchestrator.Orchestrator {
	if cfg.Mode == "DRY_RUN" {
		logger.Warn(ctx, "Running in DRY_RUN mode - fills are simulated")
	}
	switch cfg.DataSource {
	case "LIVE":
		logger.Info(ctx, "Using LIVE candle data from Binance REST")
	case "STREAM":
		logger.Info(ctx, "Using STREAMED candle data from Binance websocket")
	default:
		logger.Info(ctx, "Using STATIC synthetic candle data for testing")
	}

	data := dataobs.Wrap(marketdata.New(cfg))
	producer := features.NewProducer(cfg)
	signals := initializeProvider(ctx, cfg)
	decider := decision.NewEngine(cfg)
	eng := engineobs.Wrap(engine.New(cfg))
	window := session.NewWindow(cfg)

	return orchestrator.New(cfg, data, producer, signals, decider, eng, window, monitor.New())
}

// initializeProvider picks the signal provider and attaches the news
// digest when headline sentiment is enabled.
func initializeProvider(ctx context.Context, cfg *store.Config) interfaces.SignalProvider {
	switch cfg.LLM.Provider {
	case "DEEPSEEK":
		p := deepseek.NewProvider(cfg)
		if cfg.News.Enabled {
			svc := news.NewService(cfg)
			p.Enrich = svc.Digest
			logger.Info(ctx, "Headline sentiment enrichment enabled")
		}
		return llmobs.Wrap(p)
	default:
		logger.Warn(ctx, "No signal provider configured - using Noop provider (always NEUTRAL)")
		return llmobs.Wrap(noop.NewProvider())
	}
}
