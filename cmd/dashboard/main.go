package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/halvden/surveillance-ai/dashboard-client/internal/alerts"
	"github.com/halvden/surveillance-ai/dashboard-client/internal/backend"
	"github.com/halvden/surveillance-ai/dashboard-client/internal/config"
	"github.com/halvden/surveillance-ai/dashboard-client/internal/logger"
	"github.com/halvden/surveillance-ai/dashboard-client/internal/metrics"
	"github.com/halvden/surveillance-ai/dashboard-client/internal/stream"
	"github.com/halvden/surveillance-ai/dashboard-client/internal/upload"
	"github.com/halvden/surveillance-ai/dashboard-client/pkg/types"
)

func main() {
	var (
		cfgFile    string
		logLevel   string
		logColor   bool
		targetPath string
	)

	flag.StringVar(&cfgFile, "config", "", "Config file path (default: ~/.dashboard-client.yaml)")
	backendURL := flag.String("backend", "", "Backend HTTP origin (overrides config)")
	streamURL := flag.String("stream", "", "Backend WebSocket origin (overrides config)")
	metricsAddr := flag.String("metrics", "", "Metrics address (overrides config)")
	pollInterval := flag.Duration("poll", 0, "Alert poll interval (overrides config)")
	flag.StringVar(&targetPath, "target", "", "Target reference image to upload at startup")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error, silent)")
	flag.BoolVar(&logColor, "log-color", true, "Enable colored log output")
	flag.Parse()

	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger.Init(level, os.Stderr, logColor)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if *backendURL != "" {
		cfg.BackendBaseURL = *backendURL
	}
	if *streamURL != "" {
		cfg.StreamBaseURL = *streamURL
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *pollInterval > 0 {
		cfg.PollInterval = *pollInterval
	}

	logger.Info("Main", "backend %s, stream %s", cfg.BackendBaseURL, cfg.StreamBaseURL)
	logger.Info("Main", "cameras %v (active %v)", cfg.Cameras, cfg.ActiveCameras)

	m := metrics.New()
	go func() {
		logger.Info("Main", "metrics on %s", cfg.MetricsAddr)
		if err := m.Serve(cfg.MetricsAddr); err != nil {
			logger.Error("Main", "metrics server: %v", err)
		}
	}()

	client := backend.New(cfg.BackendBaseURL, cfg.RequestTimeout)

	store := alerts.NewStore()
	poller := alerts.NewPoller(client, cfg.PollInterval, store, func(fresh []types.Alert) {
		for _, a := range fresh {
			logger.Info("AlertFeed", "%s ALERT: %s (%s)",
				strings.ToUpper(string(a.Type)), a.Message,
				time.Unix(a.Timestamp, 0).Format("15:04:05"))
		}
	}, m)

	pool := stream.NewPool(cfg.StreamBaseURL,
		func(f types.Frame) {
			b := f.Image.Bounds()
			logger.Debug("Render", "CAM %d: %dx%d %s frame (%d bytes)",
				f.Camera+1, b.Dx(), b.Dy(), f.Format, f.Bytes)
		},
		func(camera types.CameraID, state types.SessionState) {
			logger.Info("Status", "CAM %d: %s", camera+1, state.Label())
		}, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poller.Start(ctx)
	for _, id := range cfg.ActiveCameras {
		pool.Activate(ctx, types.CameraID(id))
	}

	if targetPath != "" {
		uploader := upload.NewController(client, func(status upload.Status, message string) {
			if message != "" {
				logger.Info("Upload", "%s: %s", status, message)
			}
		}, m)
		data, err := os.ReadFile(targetPath)
		if err != nil {
			logger.Error("Upload", "read %s: %v", targetPath, err)
		} else {
			uploader.Select(filepath.Base(targetPath), data)
			uploader.Upload(ctx)
		}
	}

	<-ctx.Done()
	logger.Info("Main", "shutting down")

	pool.Shutdown()
	poller.Stop()
}
