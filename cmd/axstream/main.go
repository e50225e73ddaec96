package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/axstream/axstream/internal/bus"
	"github.com/axstream/axstream/internal/capture"
	"github.com/axstream/axstream/internal/config"
	"github.com/axstream/axstream/internal/logging"
	"github.com/axstream/axstream/internal/metrics"
	"github.com/axstream/axstream/internal/pipeline"
	"github.com/axstream/axstream/internal/provider"
	"github.com/axstream/axstream/internal/provider/hostapps"
	"github.com/axstream/axstream/internal/provider/replay"
	"github.com/axstream/axstream/internal/provider/sim"
	"github.com/axstream/axstream/internal/ws"
)

var (
	configPath   string
	host         string
	port         int
	providerName string
	replayFile   string
	replayLoop   bool
	replayFast   bool
	logLevel     string
	logFormat    string
)

func main() {
	root := &cobra.Command{
		Use:   "axstream",
		Short: "Stream desktop accessibility events over websocket",
		Long: `axstream subscribes to desktop accessibility notifications, normalizes
them into a stable JSON schema, and fans them out to websocket clients
on /ws. Capture backends: native (platform accessibility bridge), sim
(scripted synthetic activity), and replay (recorded trace playback).`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	root.Flags().StringVar(&configPath, "config", "", "path to config file")
	root.Flags().StringVar(&host, "host", "", "override listen host")
	root.Flags().IntVar(&port, "port", 0, "override listen port")
	root.Flags().StringVar(&providerName, "provider", "", "capture backend: native, sim, or replay")
	root.Flags().StringVar(&replayFile, "replay-file", "", "trace file for the replay backend")
	root.Flags().BoolVar(&replayLoop, "replay-loop", false, "restart the trace when it ends")
	root.Flags().BoolVar(&replayFast, "replay-fast", false, "play the trace without recorded delays")
	root.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn, or error")
	root.Flags().StringVar(&logFormat, "log-format", "", "text or json")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(cfg)

	logger := logging.Init(cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))
	rec := metrics.NewRecorder()

	b := bus.New(bus.Config{
		BufferSize: cfg.Bus.BufferSize,
		Logger:     logger,
		Metrics:    rec,
	})
	queue := pipeline.NewQueue(cfg.Capture.QueueSize, logger, rec)

	prov, apps, err := buildProvider(cfg, logger)
	if err != nil {
		return err
	}

	runner := capture.NewRunner(prov, capture.NewNormalizer(apps), queue, logger)
	caster := pipeline.NewBroadcaster(queue, b, logger, rec)

	srv := ws.NewServer(cfg.Server, b, rec, logger)
	srv.SetPipeline(queue, caster)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", "signal", sig.String())
		cancel()
		os.Exit(0)
	}()

	go caster.Run(ctx)
	go func() {
		// A nil return means the source drained (replay without loop);
		// the server keeps serving whatever was captured.
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("capture failed", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("starting",
		"provider", cfg.Capture.Provider,
		"queue_size", cfg.Capture.QueueSize,
		"bus_buffer", cfg.Bus.BufferSize)

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func applyOverrides(cfg *config.Config) {
	if host != "" {
		cfg.Server.Host = host
	}
	if port > 0 {
		cfg.Server.Port = port
	}
	if providerName != "" {
		cfg.Capture.Provider = providerName
	}
	if replayFile != "" {
		cfg.Capture.Replay.Path = replayFile
	}
	if replayLoop {
		cfg.Capture.Replay.Loop = true
	}
	if replayFast {
		cfg.Capture.Replay.Fast = true
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
}

// buildProvider also picks the application resolver: the sim backend
// answers lookups from its own cast, the others use the host process
// table.
func buildProvider(cfg *config.Config, logger *slog.Logger) (provider.Provider, provider.Apps, error) {
	switch cfg.Capture.Provider {
	case "sim":
		p := sim.New(sim.Config{Interval: cfg.Capture.Sim.Interval()}, logger)
		return p, p, nil
	case "replay":
		p, err := replay.New(replay.Config{
			Path: cfg.Capture.Replay.Path,
			Loop: cfg.Capture.Replay.Loop,
			Fast: cfg.Capture.Replay.Fast,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("replay provider: %w", err)
		}
		return p, hostapps.New(), nil
	case "native":
		p, err := provider.NewNative()
		if err != nil {
			return nil, nil, fmt.Errorf("native provider: %w", err)
		}
		return p, hostapps.New(), nil
	default:
		return nil, nil, fmt.Errorf("unknown capture provider %q", cfg.Capture.Provider)
	}
}
