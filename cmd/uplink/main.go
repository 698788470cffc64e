package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/okravets/sensor-uplink-service/internal/config"
	"github.com/okravets/sensor-uplink-service/internal/link"
	"github.com/okravets/sensor-uplink-service/internal/metrics"
	"github.com/okravets/sensor-uplink-service/internal/server"
	"github.com/okravets/sensor-uplink-service/internal/source"
	"github.com/okravets/sensor-uplink-service/internal/transport"
	"github.com/okravets/sensor-uplink-service/internal/uplink"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "sensor-uplink-service"
	serviceVersion    = "1.0.0"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	logger.Info("Configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("bind_address", cfg.Server.BindAddress),
		slog.Int("sample_rate", cfg.Audio.SampleRate),
		slog.Int("block_size", cfg.Audio.BlockSize),
		slog.String("audio_source", cfg.Audio.Source),
		slog.Duration("write_timeout", cfg.Transport.GetWriteTimeout()),
		slog.String("log_level", cfg.Logging.Level),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	audioSource, err := buildAudioSource(&cfg.Audio)
	if err != nil {
		logger.Error("Failed to create audio source", slog.String("error", err.Error()))
		os.Exit(1)
	}
	motionSource := source.NewSimMotionSource(cfg.Motion.AccelAmplitude, cfg.Motion.GyroAmplitude)

	listenAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.Port)
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		logger.Error("Failed to listen", slog.String("address", listenAddr), slog.String("error", err.Error()))
		os.Exit(1)
	}
	linkMgr := link.NewManager(ln, cfg.Server.GetPollTimeout(), logger)
	logger.Info("Listener started", slog.String("address", listenAddr))

	writer := transport.NewWriter(cfg.Transport.GetWriteTimeout(), cfg.Transport.GetYieldInterval())
	encoder := uplink.NewEncoder(writer)

	loop := uplink.NewLoop(audioSource, motionSource, linkMgr, encoder, uplink.LoopConfig{
		IdleInterval: cfg.Server.GetIdleInterval(),
		PullTimeout:  cfg.Audio.GetPullTimeout(),
	}, logger, appMetrics)

	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(cfg.HTTP, logger, cfg, linkMgr, loop, appMetrics)
		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		loop.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("listen_address", listenAddr),
	)

	sig := <-sigChan
	logger.Info("Received shutdown signal", slog.String("signal", sig.String()))

	logger.Info("Starting graceful shutdown...")

	// Stop the HTTP server first so monitoring reflects the final state.
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
		}
		shutdownCancel()
	}

	// Stop the acquisition loop; it tears down any live connection.
	cancel()
	wg.Wait()

	if err := linkMgr.Close(); err != nil {
		logger.Error("Error closing listener", slog.String("error", err.Error()))
	}

	loopStats := loop.GetStats()
	linkStats := linkMgr.GetStats()
	logger.Info("Final statistics",
		slog.Uint64("cycles_completed", loopStats.CyclesCompleted),
		slog.Uint64("cycles_failed", loopStats.CyclesFailed),
		slog.Uint64("audio_frames_sent", loopStats.AudioFramesSent),
		slog.Uint64("motion_frames_sent", loopStats.MotionFramesSent),
		slog.Uint64("connections_accepted", linkStats.Accepted),
	)

	logger.Info("Service stopped")
}

// buildAudioSource creates the configured audio source implementation.
func buildAudioSource(cfg *config.AudioConfig) (source.AudioSource, error) {
	switch cfg.Source {
	case "tone":
		return source.NewToneSource(cfg.SampleRate, cfg.BlockSize, cfg.ToneFrequency), nil
	case "wav":
		return source.NewWAVSource(cfg.WAVPath, cfg.BlockSize)
	default:
		return nil, fmt.Errorf("unknown audio source: %s", cfg.Source)
	}
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
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
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
