package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tapedeck/internal/database"
	"github.com/jmylchreest/tapedeck/internal/export"
	"github.com/jmylchreest/tapedeck/internal/ffmpeg"
	internalhttp "github.com/jmylchreest/tapedeck/internal/http"
	"github.com/jmylchreest/tapedeck/internal/http/handlers"
	"github.com/jmylchreest/tapedeck/internal/repository"
	"github.com/jmylchreest/tapedeck/internal/resolve"
	"github.com/jmylchreest/tapedeck/internal/scheduler"
	"github.com/jmylchreest/tapedeck/internal/service"
	"github.com/jmylchreest/tapedeck/internal/startup"
	"github.com/jmylchreest/tapedeck/internal/synth"
	"github.com/jmylchreest/tapedeck/internal/timeline"
	"github.com/jmylchreest/tapedeck/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tapedeck server",
	Long: `Start the tapedeck HTTP server and API.

The server provides:
- REST API for managing tapes and clips
- Timeline preview with per-boundary transition descriptors
- Live playback sessions with transport commands
- Export jobs rendering tapes to merged files
- Health check endpoint and OpenAPI documentation`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server flags
	serveCmd.Flags().String("host", "", "Host to bind to")
	serveCmd.Flags().Int("port", 0, "Port to listen on")
	serveCmd.Flags().String("database", "", "Database DSN (file path for sqlite)")
	serveCmd.Flags().String("data-dir", "", "Base directory for caches and exports")

	// Bind flags to viper only when set, preserving env/config values otherwise.
	if f := serveCmd.Flags().Lookup("host"); f != nil {
		mustBindPFlag("server.host", f)
	}
	if f := serveCmd.Flags().Lookup("port"); f != nil {
		mustBindPFlag("server.port", f)
	}
	if f := serveCmd.Flags().Lookup("database"); f != nil {
		mustBindPFlag("database.dsn", f)
	}
	if f := serveCmd.Flags().Lookup("data-dir"); f != nil {
		mustBindPFlag("storage.base_dir", f)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Clear scratch entries left behind by a previous crash.
	removed, err := startup.CleanupOrphanedTempDirs(logger, cfg.Storage.TempPath(), startup.DefaultCleanupAge)
	if err != nil {
		logger.Warn("failed to clean orphaned temp entries", "error", err)
	} else if removed > 0 {
		logger.Info("cleaned orphaned temp entries on startup", "removed_count", removed)
	}

	// Database
	db, err := database.New(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// FFmpeg binaries. Serving requires them: photo synthesis and exports
	// exec ffmpeg, and duration probing execs ffprobe.
	bin, err := ffmpeg.NewDetector(cfg.FFmpeg.BinaryPath, cfg.FFmpeg.ProbePath).Detect(ctx)
	if err != nil {
		return fmt.Errorf("detecting ffmpeg binaries: %w", err)
	}
	logger.Info("ffmpeg detected", "ffmpeg", bin.FFmpegPath, "ffprobe", bin.FFprobePath, "version", bin.Version)

	buildCfg := timeline.Config{
		ShortClipThreshold: cfg.Engine.ShortClipThreshold,
		ShortClipCap:       cfg.Engine.ShortClipCap,
		EstimatedDuration:  cfg.Engine.EstimatedDuration,
	}

	// Services
	tapeService := service.NewTapeService(
		repository.NewTapeRepository(db.DB),
		repository.NewClipRepository(db.DB),
		ffmpeg.NewProber(bin.FFprobePath),
		buildCfg,
	).WithLogger(logger)

	playbackService := service.NewPlaybackService(tapeService, service.SessionConfig{
		KeepWindow:     cfg.Engine.KeepWindow,
		PrefetchDepth:  cfg.Engine.PrefetchDepth,
		ResolveTimeout: cfg.Engine.ResolveTimeout,
		TickInterval:   cfg.Engine.TickInterval,
		FetchTimeout:   cfg.Engine.FetchTimeout,
		AssetDir:       cfg.Storage.AssetPath(),
		SynthesisDir:   cfg.Storage.SynthesisPath(),
		FFmpegPath:     bin.FFmpegPath,
	}).WithLogger(logger)
	defer playbackService.CloseAll()

	exporter := export.NewExporter(bin,
		resolve.NewHTTPLocator(cfg.Storage.AssetPath(), cfg.Engine.FetchTimeout),
		synth.NewMaterializer(bin.FFmpegPath, cfg.Storage.SynthesisPath(), logger),
		buildCfg, logger)
	exportService := service.NewExportService(tapeService, exporter, cfg.Storage.ExportPath()).WithLogger(logger)

	// Scheduled cache maintenance: prune stale or oversized asset and
	// synthesis caches on the configured cron.
	if cfg.Cleanup.Enabled {
		sched := scheduler.New().WithLogger(logger)
		retention := cfg.Storage.CacheRetention.Duration()
		maxBytes := cfg.Storage.MaxCacheSize.Bytes()
		for _, dir := range []string{cfg.Storage.AssetPath(), cfg.Storage.SynthesisPath()} {
			dir := dir
			name := fmt.Sprintf("cache-cleanup:%s", dir)
			err := sched.Register(name, cfg.Cleanup.Cron, func(ctx context.Context) error {
				stats, err := startup.CleanupCacheDir(logger, dir, retention, maxBytes)
				if err != nil {
					return err
				}
				if stats.Removed > 0 {
					logger.Info("cache cleanup pass",
						"dir", dir,
						"removed", stats.Removed,
						"freed_bytes", stats.FreedBytes)
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("registering cleanup job: %w", err)
			}
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("starting scheduler: %w", err)
		}
		defer sched.Stop()
	}

	// HTTP server
	serverConfig := internalhttp.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		CORSOrigins:     cfg.Server.CORSOrigins,
	}
	server := internalhttp.NewServer(serverConfig, logger, version.Version)

	handlers.NewHealthHandler(version.Version).WithDB(db.DB).Register(server.API())
	handlers.NewTapeHandler(tapeService).Register(server.API())
	handlers.NewPlaybackHandler(playbackService).Register(server.API())
	handlers.NewExportHandler(exportService).Register(server.API())

	// Graceful shutdown on SIGINT/SIGTERM.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	logger.Info("starting tapedeck server",
		slog.String("host", serverConfig.Host),
		slog.Int("port", serverConfig.Port),
		slog.String("version", version.Version),
	)

	return server.ListenAndServe(ctx)
}
