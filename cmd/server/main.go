package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brojonat/burnwatch/service/burn"
	"github.com/brojonat/burnwatch/service/config"
	"github.com/brojonat/burnwatch/service/helius"
	"github.com/brojonat/burnwatch/service/metrics"
	"github.com/brojonat/burnwatch/service/monitor"
	natspkg "github.com/brojonat/burnwatch/service/nats"
	"github.com/brojonat/burnwatch/service/notify"
	"github.com/brojonat/burnwatch/service/server"
	"github.com/brojonat/burnwatch/service/solana"
	"github.com/brojonat/burnwatch/service/tokencache"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
)

func main() {
	// Load and validate configuration from environment
	// This fails fast if any required config is missing or invalid
	cfg := config.MustLoad()

	// Setup structured logging
	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting server",
		"addr", cfg.ServerAddr,
		"log_level", cfg.LogLevel,
		"program", cfg.TargetProgramID,
		"version", version,
		"commit", commit,
	)
	server.Version = version

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics(nil)

	// Token metadata provider and cache
	heliusClient := helius.NewClient(cfg.HeliusAPIURL, cfg.HeliusAPIKey,
		helius.WithTimeout(cfg.MetadataTimeout),
		helius.WithRateLimit(cfg.MetadataRateLimit),
		helius.WithMetrics(m),
		helius.WithLogger(logger),
	)
	defer heliusClient.Close()

	cache := tokencache.New(heliusClient, cfg.TokenCacheTTL,
		tokencache.WithLogger(logger),
		tokencache.WithMetrics(m),
	)
	go cache.Run(ctx, tokencache.SweepInterval(cfg.TokenCacheTTL))

	classifier := burn.NewClassifier(burn.RuleConfig{
		ProgramID:           cfg.TargetProgramID,
		LamportThreshold:    cfg.SOLBurnThresholdLamports,
		AccountKeyHeuristic: cfg.AccountKeyHeuristic,
	})
	logger.Info("classifier ready",
		"rules", classifier.Rules(),
		"sol_threshold", solana.LamportsToSOL(cfg.SOLBurnThresholdLamports),
	)

	processor := burn.NewProcessor(cache, cfg.ExplorerTxURL, logger,
		burn.WithProgramID(cfg.TargetProgramID),
		burn.WithProcessorMetrics(m),
	)

	sinks := buildSinks(cfg, logger)
	if len(sinks) == 0 {
		logger.Warn("no notification sinks configured, burns will only be logged")
	}

	dispatchOpts := []notify.Option{
		notify.WithSinkTimeout(cfg.SinkTimeout),
		notify.WithMetrics(m),
		notify.WithLogger(logger),
	}
	if cfg.DedupWindow > 0 {
		dispatchOpts = append(dispatchOpts, notify.WithDeduper(notify.NewDeduper(cfg.DedupWindow)))
	}
	if cfg.NotifyFilter != "" {
		filter, err := notify.NewFilter(cfg.NotifyFilter)
		if err != nil {
			logger.Error("invalid notification filter", "filter", cfg.NotifyFilter, "error", err)
			os.Exit(1)
		}
		dispatchOpts = append(dispatchOpts, notify.WithFilter(filter))
	}
	dispatcher := notify.NewDispatcher(sinks, dispatchOpts...)
	defer func() {
		if err := dispatcher.Close(); err != nil {
			logger.Warn("failed to close notification sinks", "error", err)
		}
	}()

	mon := monitor.New(classifier, processor, dispatcher, m, logger)

	// SSE relay is only possible when burns are published to JetStream
	var stream *server.BurnStream
	if cfg.NATSEnabled() {
		s, err := server.NewBurnStream(cfg.NATSURL, logger)
		if err != nil {
			logger.Warn("failed to initialize burn stream, SSE disabled", "error", err)
		} else {
			stream = s
		}
	}

	if cfg.RegisterWebhook {
		registerWebhook(ctx, cfg, heliusClient, logger)
	}

	// Initialize HTTP server
	httpServer := server.New(cfg.ServerAddr, cfg, mon, cache, stream, m, logger)

	logger.Info("server initialized, all dependencies ready",
		"sinks", dispatcher.Sinks(),
		"signed_webhooks", cfg.WebhookSecret != "",
		"token_webhooks", cfg.WebhookAuthToken != "",
		"token_cache_ttl", cfg.TokenCacheTTL,
	)

	// Start HTTP server in background
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	// Wait for shutdown signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server gracefully", "error", err)
			os.Exit(1)
		}

		logger.Info("server shutdown complete")
	}
}

// buildSinks creates one sink per configured destination. A destination
// that fails to initialize is logged and skipped.
func buildSinks(cfg *config.Config, logger *slog.Logger) []notify.Sink {
	httpClient := &http.Client{Timeout: cfg.SinkTimeout}
	var sinks []notify.Sink

	if cfg.DiscordEnabled() {
		sinks = append(sinks, notify.NewDiscordSink(cfg.DiscordWebhookURL, "", httpClient))
	}

	if cfg.TelegramEnabled() {
		var renderer notify.Renderer = notify.TextRenderer{}
		if cfg.TelegramFormat == config.TelegramFormatPhoto {
			renderer = notify.PhotoCaptionRenderer{}
		}
		sinks = append(sinks, notify.NewTelegramSink(cfg.TelegramAPIURL, cfg.TelegramBotToken, cfg.TelegramChatID, renderer, httpClient))
	}

	if cfg.NATSEnabled() {
		publisher, err := natspkg.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			logger.Error("failed to connect to NATS, skipping sink", "url", cfg.NATSURL, "error", err)
		} else {
			sinks = append(sinks, notify.NewNATSSink(publisher))
		}
	}

	if cfg.KafkaEnabled() {
		sinks = append(sinks, notify.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.SinkTimeout))
	}

	return sinks
}

// registerWebhook makes sure the provider delivers the target program's
// transactions to this server. The provider echoes the auth token back in
// the Authorization header of each delivery. Failure halts startup.
func registerWebhook(ctx context.Context, cfg *config.Config, client *helius.Client, logger *slog.Logger) {
	regCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	wh := helius.NewEnhancedWebhook(cfg.PublicWebhookURL, cfg.TargetProgramID, cfg.WebhookAuthToken)
	got, created, err := client.EnsureWebhook(regCtx, wh)
	if err != nil {
		logger.Error("failed to register webhook", "url", cfg.PublicWebhookURL, "error", err)
		os.Exit(1)
	}
	logger.Info("webhook registration ready",
		"webhook_id", got.WebhookID,
		"url", got.WebhookURL,
		"created", created,
	)
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
