package models

import (
	"time"

	"gorm.io/gorm"
)

// Orientation is the tape's output orientation.
type Orientation string

const (
	// OrientationPortrait renders a vertical frame.
	OrientationPortrait Orientation = "portrait"
	// OrientationLandscape renders a horizontal frame.
	OrientationLandscape Orientation = "landscape"
)

// Valid returns true for a known orientation.
func (o Orientation) Valid() bool {
	return o == OrientationPortrait || o == OrientationLandscape
}

// TransitionStyle is the visual treatment applied at segment boundaries.
type TransitionStyle string

const (
	// TransitionNone performs a hard cut.
	TransitionNone TransitionStyle = "none"
	// TransitionCrossfade ramps outgoing opacity/volume down while incoming ramps up.
	TransitionCrossfade TransitionStyle = "crossfade"
	// TransitionSlideLeft slides both segments from right to left.
	TransitionSlideLeft TransitionStyle = "slide_left"
	// TransitionSlideRight slides both segments from left to right.
	TransitionSlideRight TransitionStyle = "slide_right"
	// TransitionRandom draws a deterministic per-boundary style from the tape identity.
	TransitionRandom TransitionStyle = "random"
)

// Valid returns true for a known transition style.
func (s TransitionStyle) Valid() bool {
	switch s {
	case TransitionNone, TransitionCrossfade, TransitionSlideLeft, TransitionSlideRight, TransitionRandom:
		return true
	}
	return false
}

// Transition duration bounds. These are model invariants, not tunables: a
// configured duration outside the range is clamped, never rejected.
const (
	// MinTransitionDuration is the shortest allowed transition.
	MinTransitionDuration = 100 * time.Millisecond
	// MaxTransitionDuration is the longest allowed transition.
	MaxTransitionDuration = 2 * time.Second
	// MaxRandomTransitionDuration additionally bounds the random style, which
	// mixes short cuts and fades and looks frantic with long overlaps.
	MaxRandomTransitionDuration = 500 * time.Millisecond
)

// Tape is a user-authored ordered collection of clips plus the global
// playback and render settings applied to every boundary.
type Tape struct {
	BaseModel

	// Name is the display name of the tape.
	Name string `gorm:"not null;size:255" json:"name"`

	// Orientation selects the output frame orientation.
	Orientation Orientation `gorm:"not null;size:10;default:'landscape'" json:"orientation"`

	// ScaleMode is the global scale treatment for clips without an override.
	ScaleMode ScaleMode `gorm:"not null;size:10;default:'fit'" json:"scale_mode"`

	// TransitionStyle applies to every boundary unless set to random.
	TransitionStyle TransitionStyle `gorm:"not null;size:20;default:'none'" json:"transition_style"`

	// TransitionDuration is the configured boundary overlap, clamped to the
	// model bounds at use time.
	TransitionDuration Duration `gorm:"type:bigint" json:"transition_duration"`

	// Clips is the ordered clip list. Order defines playback order.
	Clips []Clip `gorm:"foreignKey:TapeID;constraint:OnDelete:CASCADE" json:"clips,omitempty"`
}

// TableName returns the table name for Tape.
func (Tape) TableName() string {
	return "tapes"
}

// EffectiveTransitionDuration returns the configured transition duration
// clamped to [MinTransitionDuration, MaxTransitionDuration], with the random
// style further clamped to MaxRandomTransitionDuration.
func (t *Tape) EffectiveTransitionDuration() time.Duration {
	d := t.TransitionDuration.Duration()
	if d < MinTransitionDuration {
		d = MinTransitionDuration
	}
	if d > MaxTransitionDuration {
		d = MaxTransitionDuration
	}
	if t.TransitionStyle == TransitionRandom && d > MaxRandomTransitionDuration {
		d = MaxRandomTransitionDuration
	}
	return d
}

// EffectiveScaleMode returns the scale mode for a clip, honouring its override.
func (t *Tape) EffectiveScaleMode(c *Clip) ScaleMode {
	if c != nil && c.ScaleOverride != ScaleModeInherit {
		return c.ScaleOverride
	}
	if t.ScaleMode == ScaleModeInherit {
		return ScaleModeFit
	}
	return t.ScaleMode
}

// InsertClipAt inserts a clip at the given position, shifting later clips.
// Positions outside the current range append.
func (t *Tape) InsertClipAt(pos int, clip Clip) {
	if pos < 0 || pos > len(t.Clips) {
		pos = len(t.Clips)
	}
	clip.TapeID = t.ID
	t.Clips = append(t.Clips, Clip{})
	copy(t.Clips[pos+1:], t.Clips[pos:])
	t.Clips[pos] = clip
	t.renumber()
}

// RemoveClipAt removes the clip at the given position. Out-of-range positions
// are ignored.
func (t *Tape) RemoveClipAt(pos int) {
	if pos < 0 || pos >= len(t.Clips) {
		return
	}
	t.Clips = append(t.Clips[:pos], t.Clips[pos+1:]...)
	t.renumber()
}

// MoveClip moves the clip at from to position to, shifting clips between them.
func (t *Tape) MoveClip(from, to int) {
	if from < 0 || from >= len(t.Clips) || to < 0 || to >= len(t.Clips) || from == to {
		return
	}
	clip := t.Clips[from]
	t.Clips = append(t.Clips[:from], t.Clips[from+1:]...)
	t.Clips = append(t.Clips, Clip{})
	copy(t.Clips[to+1:], t.Clips[to:])
	t.Clips[to] = clip
	t.renumber()
}

// renumber rewrites clip positions after a structural edit.
func (t *Tape) renumber() {
	for i := range t.Clips {
		t.Clips[i].Position = i
	}
}

// BoundaryCount returns the number of clip boundaries (clips - 1, floored at 0).
func (t *Tape) BoundaryCount() int {
	if len(t.Clips) < 2 {
		return 0
	}
	return len(t.Clips) - 1
}

// Validate performs basic validation on the tape.
func (t *Tape) Validate() error {
	if t.Name == "" {
		return ErrNameRequired
	}
	if !t.Orientation.Valid() {
		return ErrInvalidOrientation
	}
	if !t.ScaleMode.Valid() {
		return ErrInvalidScaleMode
	}
	if !t.TransitionStyle.Valid() {
		return ErrInvalidTransitionStyle
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the tape and generates its ULID.
func (t *Tape) BeforeCreate(tx *gorm.DB) error {
	if err := t.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return t.Validate()
}

// BeforeUpdate is a GORM hook that validates the tape before update.
func (t *Tape) BeforeUpdate(tx *gorm.DB) error {
	return t.Validate()
}
