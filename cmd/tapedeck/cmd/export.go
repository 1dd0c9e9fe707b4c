package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tapedeck/internal/config"
	"github.com/jmylchreest/tapedeck/internal/database"
	"github.com/jmylchreest/tapedeck/internal/export"
	"github.com/jmylchreest/tapedeck/internal/ffmpeg"
	"github.com/jmylchreest/tapedeck/internal/models"
	"github.com/jmylchreest/tapedeck/internal/repository"
	"github.com/jmylchreest/tapedeck/internal/resolve"
	"github.com/jmylchreest/tapedeck/internal/service"
	"github.com/jmylchreest/tapedeck/internal/synth"
	"github.com/jmylchreest/tapedeck/internal/tapefile"
	"github.com/jmylchreest/tapedeck/internal/timeline"
)

var (
	exportFile      string
	exportID        string
	exportOutput    string
	exportTier      string
	exportContainer string
	exportFrameRate int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render a tape to a single merged file",
	Long: `Build a tape's timeline and render it with ffmpeg into one file,
applying the same transitions the live playback engine shows.

The tape comes either from a YAML tape document (--file) or from the catalog
database (--id). Examples:

  tapedeck export --file holiday.yaml --output holiday.mp4
  tapedeck export --id 01JF3... --tier 2160p --container mov`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFile, "file", "", "tape document (YAML) to render")
	exportCmd.Flags().StringVar(&exportID, "id", "", "catalog tape ID (ULID) to render")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "output file path")
	exportCmd.Flags().StringVar(&exportTier, "tier", "", "resolution tier (720p, 1080p, 2160p)")
	exportCmd.Flags().StringVar(&exportContainer, "container", "", "output container (mp4, mov)")
	exportCmd.Flags().IntVar(&exportFrameRate, "frame-rate", 0, "output frame rate")
	exportCmd.MarkFlagsMutuallyExclusive("file", "id")
}

// loadTape resolves the tape to operate on from --file or --id. Database
// tapes come back probed and persisted; document tapes are probed best-effort
// here so the build works from real durations where possible.
func loadTape(ctx context.Context, cfg *config.Config, logger *slog.Logger, prober *ffmpeg.Prober, buildCfg timeline.Config, file, id string) (*models.Tape, error) {
	switch {
	case file != "":
		tape, err := tapefile.Load(file)
		if err != nil {
			return nil, err
		}
		if prober != nil {
			if err := timeline.ProbeDurations(ctx, prober, tape); err != nil {
				logger.Warn("probing clip durations", "error", err)
			}
		}
		return tape, nil

	case id != "":
		tapeID, err := models.ParseULID(id)
		if err != nil {
			return nil, fmt.Errorf("invalid tape ID: %w", err)
		}
		db, err := database.New(cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		// A typed nil prober must become a nil interface so the service
		// skips probing instead of calling through it.
		var durations timeline.DurationProber
		if prober != nil {
			durations = prober
		}
		tapes := service.NewTapeService(
			repository.NewTapeRepository(db.DB),
			repository.NewClipRepository(db.DB),
			durations,
			buildCfg,
		).WithLogger(logger)
		return tapes.LoadForBuild(ctx, tapeID)

	default:
		return nil, fmt.Errorf("either --file or --id is required")
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bin, err := ffmpeg.NewDetector(cfg.FFmpeg.BinaryPath, cfg.FFmpeg.ProbePath).Detect(ctx)
	if err != nil {
		return fmt.Errorf("detecting ffmpeg binaries: %w", err)
	}

	buildCfg := timeline.Config{
		ShortClipThreshold: cfg.Engine.ShortClipThreshold,
		ShortClipCap:       cfg.Engine.ShortClipCap,
		EstimatedDuration:  cfg.Engine.EstimatedDuration,
	}

	tape, err := loadTape(ctx, cfg, logger, ffmpeg.NewProber(bin.FFprobePath), buildCfg, exportFile, exportID)
	if err != nil {
		return err
	}
	if len(tape.Clips) == 0 {
		return models.ErrTapeEmpty
	}

	// Flag > config defaults.
	opts := export.Options{
		Tier:       export.ResolutionTier(cfg.Export.Tier),
		Container:  export.Container(cfg.Export.Container),
		FrameRate:  cfg.Export.FrameRate,
		OutputPath: exportOutput,
	}
	if exportTier != "" {
		opts.Tier = export.ResolutionTier(exportTier)
	}
	if exportContainer != "" {
		opts.Container = export.Container(exportContainer)
	}
	if exportFrameRate > 0 {
		opts.FrameRate = exportFrameRate
	}
	if opts.OutputPath == "" {
		opts.OutputPath = fmt.Sprintf("%s.%s", tape.ID, opts.Container)
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	exporter := export.NewExporter(bin,
		resolve.NewHTTPLocator(cfg.Storage.AssetPath(), cfg.Engine.FetchTimeout),
		synth.NewMaterializer(bin.FFmpegPath, cfg.Storage.SynthesisPath(), logger),
		buildCfg, logger)

	comp, err := exporter.Export(ctx, tape, opts, func(p ffmpeg.Progress) {
		fmt.Fprintf(os.Stderr, "\rframe=%d fps=%.1f time=%s speed=%.2fx",
			p.Frame, p.FPS, p.OutTime.Round(0), p.Speed)
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	fmt.Printf("exported %s (%s merged) to %s\n", tape.Name, comp.Merged, comp.LocalPath)
	return nil
}
