// Package synth converts still photos into short motion-video stand-ins.
//
// Synthesis is split into a pure planning step (pan/zoom keyframes, frame
// clamping, rotation) used by the timeline builder, and a materialization step
// that performs the actual decode/encode work. Keeping the plan pure means
// timeline math stays testable without touching any media.
package synth

import (
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/jmylchreest/tapedeck/internal/models"
)

// Default working-frame limits for synthesized photo clips.
const (
	// DefaultMaxLongSide clamps the longer edge of the working frame.
	DefaultMaxLongSide = 1920
	// DefaultMaxShortSide clamps the shorter edge of the working frame.
	DefaultMaxShortSide = 1080
)

// PanZoom describes a smooth scale+translate ramp over a clip's duration.
// Offsets are normalized to the frame size: 0.05 pans five percent of the
// frame width/height across the clip.
type PanZoom struct {
	StartScale float64 `json:"start_scale"`
	EndScale   float64 `json:"end_scale"`
	StartX     float64 `json:"start_x"`
	StartY     float64 `json:"start_y"`
	EndX       float64 `json:"end_x"`
	EndY       float64 `json:"end_y"`
}

// DefaultPanZoom returns the stock slow push-in with a slight drift. The
// drift direction is derived from the clip id so adjacent photos don't all
// move identically, while any given clip always animates the same way.
func DefaultPanZoom(id models.ULID) PanZoom {
	h := fnv.New32a()
	h.Write([]byte(id.String()))
	pz := PanZoom{
		StartScale: 1.0,
		EndScale:   1.12,
	}
	switch h.Sum32() % 4 {
	case 0:
		pz.EndX = 0.04
	case 1:
		pz.EndX = -0.04
	case 2:
		pz.EndY = 0.04
	case 3:
		pz.EndY = -0.04
	}
	return pz
}

// IsZero returns true when the effect neither scales nor pans.
func (p PanZoom) IsZero() bool {
	return p.StartScale == p.EndScale && p.StartX == p.EndX && p.StartY == p.EndY
}

// Plan captures everything needed to synthesize a motion clip from a still
// photo. Plans are value types derived from the clip and tape settings.
type Plan struct {
	// Rotation is the baked-in clockwise rotation in quarter turns (0-3).
	Rotation int `json:"rotation"`

	// ScaleMode is the resolved scale treatment. Fill is the default for
	// photo segments so the pan effect never exposes empty canvas.
	ScaleMode models.ScaleMode `json:"scale_mode"`

	// Duration is the target clip duration.
	Duration time.Duration `json:"duration"`

	// PanZoom is the motion effect applied across Duration.
	PanZoom PanZoom `json:"pan_zoom"`

	// MaxLongSide and MaxShortSide clamp the working frame at
	// materialization time, once source dimensions are known.
	MaxLongSide  int `json:"max_long_side"`
	MaxShortSide int `json:"max_short_side"`
}

// PlanFor derives the synthesis plan for a photo clip. The scale mode
// defaults to fill unless the clip carries an explicit override.
func PlanFor(clip *models.Clip, duration time.Duration) Plan {
	scale := models.ScaleModeFill
	if clip.ScaleOverride != models.ScaleModeInherit {
		scale = clip.ScaleOverride
	}
	return Plan{
		Rotation:     clip.NormalizedRotation(),
		ScaleMode:    scale,
		Duration:     duration,
		PanZoom:      DefaultPanZoom(clip.ID),
		MaxLongSide:  DefaultMaxLongSide,
		MaxShortSide: DefaultMaxShortSide,
	}
}

// Fingerprint returns a stable token identifying the plan's visual outcome,
// used to key materialized assets on disk.
func (p Plan) Fingerprint() string {
	h := fnv.New64a()
	fmt.Fprintf(h, "r%d|%s|%d|%.4f:%.4f:%.4f:%.4f:%.4f:%.4f|%dx%d",
		p.Rotation, p.ScaleMode, p.Duration.Milliseconds(),
		p.PanZoom.StartScale, p.PanZoom.EndScale,
		p.PanZoom.StartX, p.PanZoom.StartY, p.PanZoom.EndX, p.PanZoom.EndY,
		p.MaxLongSide, p.MaxShortSide)
	return fmt.Sprintf("%016x", h.Sum64())
}

// ClampFrame fits src dimensions inside the long/short side limits while
// preserving aspect ratio. Dimensions already within limits pass through.
// Results are rounded down to even values for codec compatibility.
func ClampFrame(srcW, srcH, maxLong, maxShort int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0
	}

	long, short := srcW, srcH
	if srcH > srcW {
		long, short = srcH, srcW
	}

	scale := 1.0
	if maxLong > 0 && long > maxLong {
		scale = float64(maxLong) / float64(long)
	}
	if maxShort > 0 && float64(short)*scale > float64(maxShort) {
		scale = float64(maxShort) / float64(short)
	}

	w := even(int(math.Round(float64(srcW) * scale)))
	h := even(int(math.Round(float64(srcH) * scale)))
	return w, h
}

// even rounds down to the nearest even value, flooring at 2.
func even(v int) int {
	v -= v % 2
	if v < 2 {
		v = 2
	}
	return v
}
