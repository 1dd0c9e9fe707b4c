// Package resolve turns timeline segments into playable compositions and
// caches them around the playback position.
//
// Resolution is the only blocking step in the playback path: it locates the
// underlying media (local file or remote fetch) and materializes synthesized
// photo clips. Everything downstream works on already-resolved local paths.
package resolve

import (
	"time"

	"github.com/jmylchreest/tapedeck/internal/timeline"
)

// Composition is a resolved, decodable playback unit. The playback engine's
// transition logic is agnostic to whether the unit covers one segment or a
// whole flattened timeline.
type Composition interface {
	// Path returns the local, directly decodable media path.
	Path() string
	// Duration returns the unit's playable duration.
	Duration() time.Duration
}

// SegmentComposition is the per-segment tier: one clip resolved to a local
// playable file, possibly a synthesized stand-in for a photo.
type SegmentComposition struct {
	// Index is the segment's position in the timeline.
	Index int

	// Seg is the timeline segment this composition plays.
	Seg *timeline.Segment

	// LocalPath is the resolved decodable file.
	LocalPath string

	// Synthesized is true when LocalPath is a materialized photo clip
	// rather than the original source media.
	Synthesized bool
}

// Path implements Composition.
func (c *SegmentComposition) Path() string { return c.LocalPath }

// Duration implements Composition.
func (c *SegmentComposition) Duration() time.Duration { return c.Seg.Duration }

// TimelineComposition is the whole-timeline tier used after an export: one
// physical file covering every segment with transitions baked in.
type TimelineComposition struct {
	// Timeline is the schedule the file was rendered from.
	Timeline *timeline.Timeline

	// LocalPath is the merged output file.
	LocalPath string

	// Merged is the physical file duration. Overlaps are baked in, so this
	// is shorter than Timeline.Total whenever any boundary transitions.
	Merged time.Duration
}

// Path implements Composition.
func (c *TimelineComposition) Path() string { return c.LocalPath }

// Duration implements Composition.
func (c *TimelineComposition) Duration() time.Duration { return c.Merged }
