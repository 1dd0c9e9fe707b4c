package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jmylchreest/tapedeck/internal/ffmpeg"
	"github.com/jmylchreest/tapedeck/internal/models"
	"github.com/jmylchreest/tapedeck/internal/resolve"
	"github.com/jmylchreest/tapedeck/internal/timeline"
)

// Exporter renders tapes to single merged files.
type Exporter struct {
	ffmpegPath string
	prober     *ffmpeg.Prober
	locator    resolve.MediaLocator
	synther    resolve.Synthesizer
	buildCfg   timeline.Config
	logger     *slog.Logger
}

// NewExporter creates an exporter. buildCfg must match the playback build
// tuning, or preview and export disagree on overlap caps.
func NewExporter(bin *ffmpeg.BinaryInfo, locator resolve.MediaLocator, synther resolve.Synthesizer, buildCfg timeline.Config, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		ffmpegPath: bin.FFmpegPath,
		prober:     ffmpeg.NewProber(bin.FFprobePath),
		locator:    locator,
		synther:    synther,
		buildCfg:   buildCfg,
		logger:     logger,
	}
}

// Export builds the tape's timeline and renders it to opts.OutputPath,
// reporting encode progress through onProgress when non-nil.
//
// Unlike playback, export never skips a failing clip: any resolution or
// encode failure aborts the whole run and removes the partial output.
func (e *Exporter) Export(ctx context.Context, tape *models.Tape, opts Options, onProgress func(ffmpeg.Progress)) (*resolve.TimelineComposition, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	tl, err := timeline.Build(tape, e.buildCfg)
	if err != nil {
		return nil, err
	}

	inputs, err := e.resolveInputs(ctx, tl)
	if err != nil {
		return nil, err
	}

	graph, err := FilterGraph(tl, tape, inputs, opts)
	if err != nil {
		return nil, err
	}

	cmd := e.buildCommand(tl, inputs, graph, opts)
	e.logger.Info("starting export",
		"tape", tape.ID,
		"segments", len(tl.Segments),
		"tier", opts.Tier,
		"container", opts.Container,
		"output", opts.OutputPath)
	e.logger.Debug("export command", "command", cmd.String())

	start := time.Now()
	if err := cmd.RunWithProgress(ctx, onProgress); err != nil {
		os.Remove(opts.OutputPath)
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	merged := MergedDuration(tl)
	e.logger.Info("export complete",
		"output", opts.OutputPath,
		"duration", merged,
		"took", time.Since(start))

	return &resolve.TimelineComposition{
		Timeline:  tl,
		LocalPath: opts.OutputPath,
		Merged:    merged,
	}, nil
}

// resolveInputs locates and, for photos, synthesizes every segment's media.
// Any failure aborts: export has no skip path.
func (e *Exporter) resolveInputs(ctx context.Context, tl *timeline.Timeline) ([]Input, error) {
	inputs := make([]Input, len(tl.Segments))
	for i, seg := range tl.Segments {
		path, err := e.locator.Locate(ctx, seg.Clip)
		if err != nil {
			return nil, fmt.Errorf("%w: segment %d: %v", ErrExportFailed, i, err)
		}
		if seg.Clip.Kind == models.MediaKindPhoto && seg.Synthesis != nil {
			path, err = e.synther.Materialize(ctx, path, *seg.Synthesis)
			if err != nil {
				return nil, fmt.Errorf("%w: segment %d: %v", ErrExportFailed, i, err)
			}
		}

		probe, err := e.prober.Probe(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("%w: probing segment %d: %v", ErrExportFailed, i, err)
		}
		inputs[i] = Input{Path: path, HasAudio: probe.HasAudio()}
	}
	return inputs, nil
}

// buildCommand assembles the ffmpeg invocation: trimmed inputs in timeline
// order, the merge graph, and the tier's encode settings.
func (e *Exporter) buildCommand(tl *timeline.Timeline, inputs []Input, graph string, opts Options) *ffmpeg.Command {
	b := ffmpeg.NewCommandBuilder(e.ffmpegPath).
		HideBanner().
		Overwrite()

	for i, seg := range tl.Segments {
		if seg.Clip.Kind == models.MediaKindVideo && seg.Clip.TrimStart > 0 {
			b.InputArgs("-ss", ffmpeg.FormatSeconds(seg.Clip.TrimStart.Duration()))
		}
		// Bound each input to its segment duration so overlap offsets hold.
		b.InputArgs("-t", ffmpeg.FormatSeconds(seg.Duration))
		b.Input(inputs[i].Path)
	}

	return b.
		FilterComplex(graph).
		Map("[vout]").
		Map("[aout]").
		VideoCodec("libx264").
		VideoBitrate(opts.VideoBitrate()).
		VideoPreset(DefaultVideoPreset).
		PixelFormat("yuv420p").
		FrameRate(opts.FrameRate).
		AudioCodec("aac").
		AudioBitrate(DefaultAudioBitrate).
		AudioSampleRate(DefaultAudioSampleRate).
		MovFlags("+faststart").
		Output(opts.OutputPath).
		Build()
}
