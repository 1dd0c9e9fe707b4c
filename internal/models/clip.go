package models

import (
	"time"

	"gorm.io/gorm"
)

// MediaKind identifies the kind of media backing a clip.
type MediaKind string

const (
	// MediaKindVideo is a clip backed by a video file.
	MediaKindVideo MediaKind = "video"
	// MediaKindPhoto is a still photo promoted to a short animated clip.
	MediaKindPhoto MediaKind = "photo"
)

// Valid returns true for a known media kind.
func (k MediaKind) Valid() bool {
	return k == MediaKindVideo || k == MediaKindPhoto
}

// ScaleMode controls how a clip is fitted into the output frame.
type ScaleMode string

const (
	// ScaleModeFit letterboxes the clip inside the frame.
	ScaleModeFit ScaleMode = "fit"
	// ScaleModeFill crops the clip to cover the frame.
	ScaleModeFill ScaleMode = "fill"
	// ScaleModeInherit defers to the tape's global scale mode.
	ScaleModeInherit ScaleMode = ""
)

// Valid returns true for a known scale mode (including inherit).
func (m ScaleMode) Valid() bool {
	return m == ScaleModeFit || m == ScaleModeFill || m == ScaleModeInherit
}

// DefaultPhotoDuration is the configured duration applied to photo clips that
// have none set.
const DefaultPhotoDuration = 4 * time.Second

// Clip is one media unit (video or photo) within a tape.
//
// A clip is mutable while it sits in the catalog (trim, rotate, scale edits);
// timeline builds capture its values and never reach back into it.
type Clip struct {
	BaseModel

	// TapeID is the owning tape.
	TapeID ULID `gorm:"type:varchar(26);index" json:"tape_id"`

	// Position is the zero-based insertion position within the tape.
	Position int `gorm:"not null;index" json:"position"`

	// Kind is the media kind (video or photo).
	Kind MediaKind `gorm:"not null;size:10" json:"kind"`

	// SourcePath is a directly playable local file path, if the media is local.
	SourcePath string `gorm:"size:1024" json:"source_path,omitempty"`

	// AssetURL is a remote asset handle fetched on demand. Exactly one of
	// SourcePath and AssetURL must be set.
	AssetURL string `gorm:"size:2048" json:"asset_url,omitempty"`

	// MediaDuration is the intrinsic duration for videos (last probed value,
	// zero until known) or the configured display duration for photos.
	MediaDuration Duration `gorm:"type:bigint" json:"media_duration,omitempty"`

	// TrimStart and TrimEnd bound the played range of a video clip.
	// Zero values mean no trim on that edge.
	TrimStart Duration `gorm:"type:bigint" json:"trim_start,omitempty"`
	TrimEnd   Duration `gorm:"type:bigint" json:"trim_end,omitempty"`

	// Rotation is the user rotation in clockwise quarter turns (0-3).
	Rotation int `gorm:"default:0" json:"rotation"`

	// ScaleOverride overrides the tape's global scale mode when non-empty.
	ScaleOverride ScaleMode `gorm:"size:10" json:"scale_override,omitempty"`
}

// TableName returns the table name for Clip.
func (Clip) TableName() string {
	return "clips"
}

// MediaRef returns the preferred reference for locating the clip's media.
func (c *Clip) MediaRef() string {
	if c.SourcePath != "" {
		return c.SourcePath
	}
	return c.AssetURL
}

// IsRemote returns true when the clip's media must be fetched from a URL.
func (c *Clip) IsRemote() bool {
	return c.SourcePath == "" && c.AssetURL != ""
}

// PlayDuration returns the clip's effective play duration: the trimmed media
// duration for videos, or the configured duration (default when unset) for
// photos. Unknown video durations report zero; callers fall back to an
// estimate until probing resolves the real value.
func (c *Clip) PlayDuration() time.Duration {
	if c.Kind == MediaKindPhoto {
		if c.MediaDuration > 0 {
			return c.MediaDuration.Duration()
		}
		return DefaultPhotoDuration
	}

	d := c.MediaDuration.Duration()
	if d <= 0 {
		return 0
	}
	start := c.TrimStart.Duration()
	end := c.TrimEnd.Duration()
	if end <= 0 || end > d {
		end = d
	}
	if start < 0 || start >= end {
		start = 0
	}
	return end - start
}

// NormalizedRotation returns the rotation reduced to 0-3 quarter turns.
func (c *Clip) NormalizedRotation() int {
	r := c.Rotation % 4
	if r < 0 {
		r += 4
	}
	return r
}

// Validate performs basic validation on the clip.
func (c *Clip) Validate() error {
	if !c.Kind.Valid() {
		return ErrInvalidMediaKind
	}
	if c.SourcePath == "" && c.AssetURL == "" {
		return ErrClipSourceRequired
	}
	if c.SourcePath != "" && c.AssetURL != "" {
		return ErrClipSourceAmbiguous
	}
	if !c.ScaleOverride.Valid() {
		return ErrInvalidScaleMode
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the clip and generates its ULID.
func (c *Clip) BeforeCreate(tx *gorm.DB) error {
	if err := c.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return c.Validate()
}

// BeforeUpdate is a GORM hook that validates the clip before update.
func (c *Clip) BeforeUpdate(tx *gorm.DB) error {
	return c.Validate()
}
