package timeline

import (
	"context"
	"fmt"
	"time"

	"github.com/jmylchreest/tapedeck/internal/models"
	"github.com/jmylchreest/tapedeck/internal/synth"
)

// Build tuning defaults. Product has not confirmed final values, so both are
// configurable rather than baked in.
const (
	// DefaultShortClipThreshold marks neighboring clips below this duration
	// as "short", triggering the tighter overlap cap.
	DefaultShortClipThreshold = 6 * time.Second
	// DefaultShortClipCap bounds the overlap at boundaries touching a short
	// clip so a transition never consumes most of it.
	DefaultShortClipCap = 500 * time.Millisecond
	// DefaultEstimatedDuration stands in for a video clip whose real duration
	// has not been probed yet. The engine corrects totals once metadata
	// resolves.
	DefaultEstimatedDuration = 5 * time.Second
)

// Config tunes the timeline build.
type Config struct {
	ShortClipThreshold time.Duration `mapstructure:"short_clip_threshold" json:"short_clip_threshold"`
	ShortClipCap       time.Duration `mapstructure:"short_clip_cap" json:"short_clip_cap"`
	EstimatedDuration  time.Duration `mapstructure:"estimated_duration" json:"estimated_duration"`
}

// DefaultConfig returns the stock build tuning.
func DefaultConfig() Config {
	return Config{
		ShortClipThreshold: DefaultShortClipThreshold,
		ShortClipCap:       DefaultShortClipCap,
		EstimatedDuration:  DefaultEstimatedDuration,
	}
}

func (c Config) withDefaults() Config {
	if c.ShortClipThreshold <= 0 {
		c.ShortClipThreshold = DefaultShortClipThreshold
	}
	if c.ShortClipCap <= 0 {
		c.ShortClipCap = DefaultShortClipCap
	}
	if c.EstimatedDuration <= 0 {
		c.EstimatedDuration = DefaultEstimatedDuration
	}
	return c
}

// DurationProber reads the true duration of a media reference. The ffmpeg
// prober satisfies this in production.
type DurationProber interface {
	MediaDuration(ctx context.Context, ref string) (time.Duration, error)
}

// ProbeDurations fills in missing video durations on the tape's clips using
// the prober. Photo clips are skipped; their duration is configuration, not
// media metadata. Probe failures are returned but leave other clips filled.
func ProbeDurations(ctx context.Context, prober DurationProber, tape *models.Tape) error {
	for i := range tape.Clips {
		clip := &tape.Clips[i]
		if clip.Kind != models.MediaKindVideo || clip.MediaDuration > 0 {
			continue
		}
		d, err := prober.MediaDuration(ctx, clip.MediaRef())
		if err != nil {
			return fmt.Errorf("probing clip %s: %w", clip.ID, err)
		}
		clip.MediaDuration = models.Duration(d)
	}
	return nil
}

// Build computes the timeline for a tape: per-segment start times and
// durations, synthesis plans for photo clips, and the per-boundary transition
// descriptors. Build is pure with respect to its inputs; probing real media
// durations happens beforehand via ProbeDurations.
func Build(tape *models.Tape, cfg Config) (*Timeline, error) {
	if err := tape.Validate(); err != nil {
		return nil, err
	}
	if len(tape.Clips) == 0 {
		return nil, models.ErrTapeEmpty
	}
	cfg = cfg.withDefaults()

	styles := Sequence(tape)
	configured := tape.EffectiveTransitionDuration()

	segments := make([]*Segment, 0, len(tape.Clips))
	var cursor time.Duration
	for i := range tape.Clips {
		clip := tape.Clips[i] // snapshot; the tape stays mutable elsewhere
		dur := clip.PlayDuration()
		if dur <= 0 {
			dur = cfg.EstimatedDuration
		}

		seg := &Segment{
			ClipIndex: i,
			Clip:      &clip,
			Start:     cursor,
			Duration:  dur,
		}
		if clip.Kind == models.MediaKindPhoto {
			// PlanFor defaults photos to fill so the pan effect never
			// exposes empty canvas, regardless of the tape's global mode.
			plan := synth.PlanFor(&clip, dur)
			seg.Synthesis = &plan
		}
		segments = append(segments, seg)
		cursor += dur
	}

	for i := 0; i < len(segments)-1; i++ {
		segments[i].Out = descriptor(styles[i], configured,
			segments[i].Duration, segments[i+1].Duration, cfg)
	}

	return &Timeline{
		TapeID:   tape.ID,
		Segments: segments,
		Total:    cursor,
	}, nil
}

// descriptor derives the boundary transition from the style and the
// neighboring segment durations. Returns nil for hard cuts, including any
// boundary whose effective overlap collapses to zero.
func descriptor(style models.TransitionStyle, configured, a, b time.Duration, cfg Config) *Transition {
	if style == models.TransitionNone {
		return nil
	}

	shorter := min(a, b)
	effective := min(configured, shorter)
	if shorter < cfg.ShortClipThreshold {
		effective = min(effective, cfg.ShortClipCap)
	}
	if effective <= 0 {
		return nil
	}

	return &Transition{Style: style, Duration: effective}
}
