// Package export flattens a built timeline into one physical media file.
//
// Export reuses the exact timeline build that drives live playback, so every
// boundary style, overlap duration, and seeded-random outcome matches what
// preview rendered. Only the mechanism differs: instead of dual live
// surfaces, segments become ffmpeg inputs chained through xfade/acrossfade
// filters.
package export

import (
	"fmt"

	"github.com/jmylchreest/tapedeck/internal/models"
)

// ResolutionTier selects the output frame size.
type ResolutionTier string

const (
	Tier720p  ResolutionTier = "720p"
	Tier1080p ResolutionTier = "1080p"
	Tier2160p ResolutionTier = "2160p"
)

// Valid returns true for a known tier.
func (t ResolutionTier) Valid() bool {
	switch t {
	case Tier720p, Tier1080p, Tier2160p:
		return true
	}
	return false
}

// Container selects the output container format.
type Container string

const (
	ContainerMP4 Container = "mp4"
	ContainerMOV Container = "mov"
)

// Valid returns true for a known container.
func (c Container) Valid() bool {
	return c == ContainerMP4 || c == ContainerMOV
}

// Defaults for the export encode.
const (
	DefaultFrameRate       = 30
	DefaultAudioSampleRate = 48000
	DefaultAudioBitrate    = "192k"
	DefaultVideoPreset     = "medium"
)

// Options configures one export run.
type Options struct {
	Tier      ResolutionTier `json:"tier"`
	Container Container      `json:"container"`
	FrameRate int            `json:"frame_rate"`
	OutputPath string        `json:"output_path"`
}

// withDefaults fills unset fields with the stock 1080p/mp4 encode.
func (o Options) withDefaults() Options {
	if o.Tier == "" {
		o.Tier = Tier1080p
	}
	if o.Container == "" {
		o.Container = ContainerMP4
	}
	if o.FrameRate <= 0 {
		o.FrameRate = DefaultFrameRate
	}
	return o
}

// Validate checks the options.
func (o Options) Validate() error {
	if !o.Tier.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTier, o.Tier)
	}
	if !o.Container.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidContainer, o.Container)
	}
	if o.OutputPath == "" {
		return ErrOutputPathRequired
	}
	return nil
}

// Dimensions returns the output frame size for the tape orientation. Tiers
// name the short side; the long side follows 16:9.
func (o Options) Dimensions(orientation models.Orientation) (int, int) {
	var long, short int
	switch o.Tier {
	case Tier720p:
		long, short = 1280, 720
	case Tier2160p:
		long, short = 3840, 2160
	default:
		long, short = 1920, 1080
	}
	if orientation == models.OrientationPortrait {
		return short, long
	}
	return long, short
}

// VideoBitrate returns the encode bitrate for the tier.
func (o Options) VideoBitrate() string {
	switch o.Tier {
	case Tier720p:
		return "5000k"
	case Tier2160p:
		return "35000k"
	default:
		return "10000k"
	}
}
