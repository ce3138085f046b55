package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/woxQAQ/wasm-gl-bridge/internal/config"
	"github.com/woxQAQ/wasm-gl-bridge/internal/host"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to configuration file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	payloadDir := flag.String("payload", "", "Run the payload in this directory instead of scanning payload_paths")
	watch := flag.Bool("watch", false, "Re-run the payload whenever its files change")
	flag.Parse()

	// Load configuration; flags are validated with the rest of it.
	overrides := make(map[string]any)
	if *logLevel != "" {
		overrides["log_level"] = *logLevel
	}
	cfg, err := config.LoadHostConfigWithOverrides(*configPath, overrides)
	if err != nil {
		os.Stderr.WriteString("glhost: failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Initialize logger
	var logger *zap.Logger
	if strings.EqualFold(cfg.LogLevel, "debug") {
		logger, _ = zap.NewDevelopment()
	} else {
		pc := zap.NewProductionConfig()
		if lvl, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
			pc.Level = lvl
		}
		logger, _ = pc.Build()
	}

	defer logger.Sync()

	logger.Info("Starting glhost",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("date", date),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h, err := host.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create host", zap.Error(err))
	}
	defer h.Close(context.Background())

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	var name string
	if *payloadDir != "" {
		p, err := h.Payloads().Load(ctx, *payloadDir)
		if err != nil {
			logger.Fatal("Failed to load payload", zap.String("dir", *payloadDir), zap.Error(err))
		}
		name = p.Name()
	} else {
		if err := h.LoadPayloads(ctx); err != nil {
			logger.Fatal("Failed to load payloads", zap.Error(err))
		}
		p, err := h.Payloads().Default()
		if err != nil {
			logger.Fatal("No payload to run", zap.Error(err))
		}
		name = p.Name()
	}

	if _, err := h.Run(ctx, name); err != nil && !*watch {
		logger.Error("Payload run failed", zap.Error(err))
		os.Exit(1)
	}

	if *watch {
		err := h.Watch(ctx, name, func(_ *host.RunResult, err error) {
			if err != nil {
				logger.Warn("Payload rerun failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Fatal("Watcher error", zap.Error(err))
		}
	}

	logger.Info("glhost shutdown complete")
}
