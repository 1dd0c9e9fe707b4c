package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tapedeck/internal/export"
	"github.com/jmylchreest/tapedeck/internal/ffmpeg"
	"github.com/jmylchreest/tapedeck/internal/models"
	"github.com/jmylchreest/tapedeck/internal/timeline"
)

var (
	inspectFile string
	inspectID   string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print a tape's built timeline",
	Long: `Build a tape's timeline and print its segments: start times, durations,
photo synthesis markers, and the transition at each boundary.

The tape comes either from a YAML tape document (--file) or from the catalog
database (--id).`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&inspectFile, "file", "", "tape document (YAML) to inspect")
	inspectCmd.Flags().StringVar(&inspectID, "id", "", "catalog tape ID (ULID) to inspect")
	inspectCmd.MarkFlagsMutuallyExclusive("file", "id")
}

func runInspect(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	buildCfg := timeline.Config{
		ShortClipThreshold: cfg.Engine.ShortClipThreshold,
		ShortClipCap:       cfg.Engine.ShortClipCap,
		EstimatedDuration:  cfg.Engine.EstimatedDuration,
	}

	// Probing is best-effort for inspection: without ffprobe the build still
	// works from estimated durations.
	var prober *ffmpeg.Prober
	if bin, err := ffmpeg.NewDetector(cfg.FFmpeg.BinaryPath, cfg.FFmpeg.ProbePath).Detect(ctx); err != nil {
		logger.Warn("ffprobe unavailable, using estimated durations", "error", err)
	} else {
		prober = ffmpeg.NewProber(bin.FFprobePath)
	}

	tape, err := loadTape(ctx, cfg, logger, prober, buildCfg, inspectFile, inspectID)
	if err != nil {
		return err
	}
	if len(tape.Clips) == 0 {
		return models.ErrTapeEmpty
	}

	tl, err := timeline.Build(tape, buildCfg)
	if err != nil {
		return err
	}

	fmt.Printf("tape: %s (%s)\n", tape.Name, tape.ID)
	fmt.Printf("orientation: %s  scale: %s  transition: %s\n",
		tape.Orientation, tape.ScaleMode, tape.TransitionStyle)
	fmt.Printf("total: %s  merged: %s  segments: %d\n\n",
		tl.Total, export.MergedDuration(tl), len(tl.Segments))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tKIND\tSOURCE\tSTART\tDURATION\tOUT")
	for i, seg := range tl.Segments {
		kind := string(seg.Clip.Kind)
		if seg.Synthesis != nil {
			kind += " (synth)"
		}
		out := "-"
		if seg.Out != nil {
			out = fmt.Sprintf("%s %s", seg.Out.Style, seg.Out.Duration)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i, kind, seg.Clip.MediaRef(), seg.Start, seg.Duration, out)
	}
	return w.Flush()
}
