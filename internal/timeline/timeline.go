// Package timeline turns a tape's ordered clips and global settings into a
// time-addressable segment list with per-boundary transition descriptors.
//
// Segments occupy contiguous, non-overlapping ranges on the global time axis;
// transitions render as overlaps inside those ranges and never add runtime.
// The build is deterministic for a given tape, which is what guarantees that
// live playback and the export render agree on every boundary.
package timeline

import (
	"time"

	"github.com/jmylchreest/tapedeck/internal/models"
	"github.com/jmylchreest/tapedeck/internal/synth"
)

// Transition describes the treatment applied at the boundary leaving a
// segment. Duration is the effective overlap window after clamping.
type Transition struct {
	Style    models.TransitionStyle `json:"style"`
	Duration time.Duration          `json:"duration"`
}

// Segment is a clip's resolved position within a built timeline.
type Segment struct {
	// ClipIndex is the clip's position in the tape at build time.
	ClipIndex int `json:"clip_index"`

	// Clip is the immutable snapshot the segment was built from.
	Clip *models.Clip `json:"clip"`

	// Start is the segment's position on the global time axis.
	Start time.Duration `json:"start"`

	// Duration is the segment's effective play duration.
	Duration time.Duration `json:"duration"`

	// Synthesis holds the motion plan for photo segments, nil for video.
	Synthesis *synth.Plan `json:"synthesis,omitempty"`

	// Out is the outgoing transition, nil for the last segment and for
	// hard-cut boundaries.
	Out *Transition `json:"out,omitempty"`
}

// End returns the segment's end time on the global axis.
func (s *Segment) End() time.Duration {
	return s.Start + s.Duration
}

// Timeline is the derived, rebuild-on-change playback schedule for a tape.
type Timeline struct {
	TapeID   models.ULID   `json:"tape_id"`
	Segments []*Segment    `json:"segments"`
	Total    time.Duration `json:"total"`
}

// Locate maps a global time to (segment index, local offset). Times at or
// past the end map into the final segment; negative times clamp to zero.
func (t *Timeline) Locate(global time.Duration) (int, time.Duration) {
	if len(t.Segments) == 0 {
		return 0, 0
	}
	if global < 0 {
		global = 0
	}
	for i, seg := range t.Segments {
		if global < seg.End() || i == len(t.Segments)-1 {
			local := global - seg.Start
			if local < 0 {
				local = 0
			}
			if local > seg.Duration {
				local = seg.Duration
			}
			return i, local
		}
	}
	return 0, 0
}

// Styles returns the boundary style sequence actually attached to the
// timeline, with hard cuts reported as none.
func (t *Timeline) Styles() []models.TransitionStyle {
	if len(t.Segments) < 2 {
		return nil
	}
	styles := make([]models.TransitionStyle, 0, len(t.Segments)-1)
	for _, seg := range t.Segments[:len(t.Segments)-1] {
		if seg.Out == nil {
			styles = append(styles, models.TransitionNone)
			continue
		}
		styles = append(styles, seg.Out.Style)
	}
	return styles
}
