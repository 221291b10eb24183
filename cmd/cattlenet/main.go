// Package main implements the entry point for the CattleNet service.
// CattleNet ingests livestock telemetry from the message bus, normalizes
// and classifies it, and serves the results over HTTP and WebSocket.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/abhishekp4512/CattleNet/config"
	"github.com/abhishekp4512/CattleNet/docstore"
	"github.com/abhishekp4512/CattleNet/fanout"
	gatewayhttp "github.com/abhishekp4512/CattleNet/gateway/http"
	"github.com/abhishekp4512/CattleNet/health"
	"github.com/abhishekp4512/CattleNet/ingest"
	"github.com/abhishekp4512/CattleNet/metric"
	"github.com/abhishekp4512/CattleNet/natsclient"
	"github.com/abhishekp4512/CattleNet/store"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "cattlenet"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := loadConfig(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	ctx := context.Background()

	metricsRegistry := metric.NewMetricsRegistry()
	monitor := health.NewMonitor()

	natsClient, err := createBusClient(cfg, metricsRegistry, monitor)
	if err != nil {
		return fmt.Errorf("create bus client: %w", err)
	}
	defer natsClient.Close(ctx)

	if err := connectToBus(ctx, natsClient); err != nil {
		return err
	}

	pipeline, stack, err := buildPipeline(cfg, natsClient, metricsRegistry, logger)
	if err != nil {
		return err
	}

	if err := stack.start(ctx, cfg); err != nil {
		return err
	}

	if err := subscribe(ctx, cfg, natsClient, pipeline); err != nil {
		return err
	}

	return runUntilSignal(ctx, stack, cliCfg.ShutdownTimeout)
}

// initializeCLI parses flags and sets up logging.
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting CattleNet (livestock telemetry pipeline)",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// loadConfig reads the layered configuration. An empty path means
// defaults plus environment overrides.
func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader()
	if path == "" {
		return loader.Load()
	}
	return loader.LoadFile(path)
}

// createBusClient builds the NATS client from configuration and hooks
// its health transitions into the monitor.
func createBusClient(
	cfg *config.Config,
	metricsRegistry *metric.MetricsRegistry,
	monitor *health.Monitor,
) (*natsclient.Client, error) {
	url := "nats://localhost:4222"
	if len(cfg.NATS.URLs) > 0 {
		url = cfg.NATS.URLs[0]
	}

	opts := []natsclient.ClientOption{
		natsclient.WithName(appName),
		natsclient.WithMetrics(metricsRegistry),
	}
	if cfg.NATS.MaxReconnects != 0 {
		opts = append(opts, natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects))
	}
	if cfg.NATS.ReconnectWait > 0 {
		opts = append(opts, natsclient.WithReconnectWait(cfg.NATS.ReconnectWait))
	}
	if cfg.NATS.Username != "" {
		opts = append(opts, natsclient.WithCredentials(cfg.NATS.Username, cfg.NATS.Password))
	}
	if cfg.NATS.Token != "" {
		opts = append(opts, natsclient.WithToken(cfg.NATS.Token))
	}
	opts = append(opts, natsclient.WithHealthChangeCallback(func(healthy bool) {
		lastError := ""
		if !healthy {
			lastError = fmt.Sprintf("connection to %s lost", url)
		}
		monitor.Update("nats", health.FromCheck("nats", healthy, lastError, nil))
		slog.Info("Bus health changed", "healthy", healthy,
			"system", monitor.AggregateHealth(appName).Status)
	}))

	return natsclient.NewClient(url, opts...)
}

func connectToBus(ctx context.Context, natsClient *natsclient.Client) error {
	slog.Info("Connecting to NATS", "url", natsClient.URL())
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := natsClient.WaitForConnection(connCtx); err != nil {
		return fmt.Errorf("NATS connection timeout: %w", err)
	}
	return nil
}

// serverStack holds the long-running servers for ordered start and stop.
type serverStack struct {
	websocket *fanout.WebSocketServer
	gateway   *gatewayhttp.Server
	metrics   *metric.Server
}

// buildPipeline wires the stores, sinks, and pipeline from configuration.
func buildPipeline(
	cfg *config.Config,
	natsClient *natsclient.Client,
	metricsRegistry *metric.MetricsRegistry,
	logger *slog.Logger,
) (*ingest.Pipeline, *serverStack, error) {
	history, err := store.NewHistory(store.HistoryConfig{
		SensorCapacity:      cfg.History.SensorCapacity,
		EnvironmentCapacity: cfg.History.EnvironmentCapacity,
		GateCapacity:        cfg.History.GateCapacity,
		FeedCapacity:        cfg.History.FeedCapacity,
		MetricsRegistry:     metricsRegistry,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create history: %w", err)
	}
	registry := store.NewRegistry(cfg.History.WeightHistoryDepth)

	var docs ingest.DocumentSink
	if cfg.DocStore.Enabled {
		docs = docstore.NewKVWriter(natsClient, cfg.DocStore.BucketPrefix, logger)
	} else {
		slog.Info("Document persistence disabled")
	}

	stack := &serverStack{}
	sinks := fanout.Tee{
		fanout.NewPublisher(natsClient, cfg.Fanout.SubjectPrefix, metricsRegistry.CoreMetrics(), logger),
	}
	if cfg.Fanout.WebSocket.Enabled {
		stack.websocket = fanout.NewWebSocketServer(
			cfg.Fanout.WebSocket.Port,
			cfg.Fanout.WebSocket.MaxClients,
			metricsRegistry,
			logger,
		)
		sinks = append(sinks, stack.websocket)
	}

	pipeline := ingest.NewPipeline(ingest.PipelineOptions{
		Config:   cfg,
		History:  history,
		Registry: registry,
		Docs:     docs,
		Events:   sinks,
		Metrics:  metricsRegistry.CoreMetrics(),
		Logger:   logger,
	})

	stack.gateway = gatewayhttp.NewServer(gatewayhttp.Options{
		Port:     cfg.Gateway.Port,
		History:  history,
		Registry: registry,
		Sessions: pipeline.Sessions(),
		Pipeline: pipeline,
		Detector: ingest.NewDetector(cfg.Ingest.Anomaly.Seed),
		Bus:      natsClient,
		Topics:   cfg.Ingest.Topics.All(),
		Version:  Version,
		Logger:   logger,
	})

	if cfg.Metrics.Enabled {
		stack.metrics = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, metricsRegistry)
	}

	return pipeline, stack, nil
}

func (s *serverStack) start(ctx context.Context, cfg *config.Config) error {
	if s.websocket != nil {
		if err := s.websocket.Start(ctx); err != nil {
			return fmt.Errorf("start websocket server: %w", err)
		}
		slog.Info("WebSocket bridge listening", "port", cfg.Fanout.WebSocket.Port)
	}
	if err := s.gateway.Start(ctx); err != nil {
		return fmt.Errorf("start gateway: %w", err)
	}
	if s.metrics != nil {
		if err := s.metrics.Start(); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		slog.Info("Metrics endpoint listening", "address", s.metrics.Address())
	}
	return nil
}

func (s *serverStack) stop(ctx context.Context) {
	if err := s.gateway.Stop(ctx); err != nil {
		slog.Error("Error stopping gateway", "error", err)
	}
	if s.websocket != nil {
		if err := s.websocket.Stop(ctx); err != nil {
			slog.Error("Error stopping websocket server", "error", err)
		}
	}
	if s.metrics != nil {
		if err := s.metrics.Stop(); err != nil {
			slog.Error("Error stopping metrics server", "error", err)
		}
	}
}

// subscribe attaches the pipeline to every configured topic.
func subscribe(
	ctx context.Context,
	cfg *config.Config,
	natsClient *natsclient.Client,
	pipeline *ingest.Pipeline,
) error {
	topics := cfg.Ingest.Topics.All()
	for _, topic := range topics {
		if err := natsClient.SubscribeTopic(ctx, topic, pipeline.Handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	slog.Info("Pipeline subscribed", "topics", topics)
	return nil
}

// runUntilSignal blocks until SIGINT or SIGTERM, then shuts down.
func runUntilSignal(ctx context.Context, stack *serverStack, shutdownTimeout time.Duration) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	slog.Info("CattleNet started successfully")

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	stack.stop(shutdownCtx)
	slog.Info("CattleNet shutdown complete")
	return nil
}
