package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/uxfer/uxfer/internal/logger"
	"github.com/uxfer/uxfer/pkg/adapter/usock"
	"github.com/uxfer/uxfer/pkg/config"
	"github.com/uxfer/uxfer/pkg/metrics"
	"github.com/uxfer/uxfer/pkg/server"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	logLevel := flag.String("log-level", "", "Log level override (DEBUG, INFO, WARN, ERROR)")
	socketPath := flag.String("socket-path", "", "Unix socket path override")
	initConfig := flag.Bool("init-config", false, "Write a starter config file and exit")
	flag.Parse()

	if *initConfig {
		path := *configPath
		if path == "" {
			path = config.GetDefaultConfigPath()
		}
		if err := config.WriteExampleConfig(path); err != nil {
			fmt.Fprintf(os.Stderr, "uxferd: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file written to %s\n", path)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "uxferd: %v\n", err)
		os.Exit(1)
	}

	// Flag overrides beat both file and environment.
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *socketPath != "" {
		cfg.Adapters.Unix.SocketPath = *socketPath
	}

	logger.SetLevel(cfg.Logging.Level)
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var relayMetrics metrics.RelayMetrics
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		relayMetrics = metrics.NewRelayMetrics()
		metricsServer = metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port})
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
		logger.Info("Metrics endpoint: http://localhost:%d/metrics", cfg.Metrics.Port)
	}

	out, err := config.CreateSink(&cfg.Sink)
	if err != nil {
		logger.Error("Failed to create sink: %v", err)
		os.Exit(1)
	}
	logger.Info("Sink: %s", out.Name())

	jnl, err := config.CreateJournal(ctx, &cfg.Journal)
	if err != nil {
		logger.Error("Failed to create journal: %v", err)
		os.Exit(1)
	}
	logger.Info("Journal: %s", cfg.Journal.Type)

	srv := server.New(out, jnl)
	for _, a := range config.CreateAdapters(cfg, relayMetrics) {
		if err := srv.AddAdapter(a); err != nil {
			logger.Error("Failed to add %s adapter: %v", a.Protocol(), err)
			os.Exit(1)
		}
		logger.Info("Adapter registered: %s on %s", a.Protocol(), a.Address())
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		if err != nil {
			reportServerError(err)
			os.Exit(1)
		}
		logger.Info("Server stopped")
	}
}

// reportServerError logs a server failure with its fault classification so
// operators can tell a startup problem from a mid-stream one.
func reportServerError(err error) {
	var relayErr *usock.RelayError
	if errors.As(err, &relayErr) {
		logger.Error("Server error during %s (%s): %v",
			relayErr.Op, relayErr.Disposition, relayErr.Err)
		return
	}
	logger.Error("Server error: %v", err)
}
