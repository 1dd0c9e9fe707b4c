package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTape_EffectiveTransitionDuration(t *testing.T) {
	tests := []struct {
		name       string
		style      TransitionStyle
		configured time.Duration
		expected   time.Duration
	}{
		{"within range", TransitionCrossfade, time.Second, time.Second},
		{"below minimum", TransitionCrossfade, 10 * time.Millisecond, MinTransitionDuration},
		{"zero clamps to minimum", TransitionCrossfade, 0, MinTransitionDuration},
		{"above maximum", TransitionCrossfade, 5 * time.Second, MaxTransitionDuration},
		{"random clamps tighter", TransitionRandom, time.Second, MaxRandomTransitionDuration},
		{"random below cap untouched", TransitionRandom, 300 * time.Millisecond, 300 * time.Millisecond},
		{"slide within range", TransitionSlideLeft, 1500 * time.Millisecond, 1500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tape := &Tape{
				TransitionStyle:    tt.style,
				TransitionDuration: Duration(tt.configured),
			}
			assert.Equal(t, tt.expected, tape.EffectiveTransitionDuration())
		})
	}
}

func TestTape_EffectiveScaleMode(t *testing.T) {
	tape := &Tape{ScaleMode: ScaleModeFit}

	assert.Equal(t, ScaleModeFit, tape.EffectiveScaleMode(&Clip{}))
	assert.Equal(t, ScaleModeFill, tape.EffectiveScaleMode(&Clip{ScaleOverride: ScaleModeFill}))

	// Unset global mode falls back to fit.
	empty := &Tape{}
	assert.Equal(t, ScaleModeFit, empty.EffectiveScaleMode(&Clip{}))
}

func TestTape_ClipOrdering(t *testing.T) {
	tape := &Tape{Name: "test"}
	a := Clip{Kind: MediaKindVideo, SourcePath: "/a.mp4"}
	b := Clip{Kind: MediaKindVideo, SourcePath: "/b.mp4"}
	c := Clip{Kind: MediaKindPhoto, SourcePath: "/c.jpg"}

	tape.InsertClipAt(0, a)
	tape.InsertClipAt(1, b)
	tape.InsertClipAt(1, c)

	require.Len(t, tape.Clips, 3)
	assert.Equal(t, "/a.mp4", tape.Clips[0].SourcePath)
	assert.Equal(t, "/c.jpg", tape.Clips[1].SourcePath)
	assert.Equal(t, "/b.mp4", tape.Clips[2].SourcePath)
	for i, clip := range tape.Clips {
		assert.Equal(t, i, clip.Position)
	}

	// Out-of-range insert appends.
	tape.InsertClipAt(99, Clip{Kind: MediaKindVideo, SourcePath: "/d.mp4"})
	require.Len(t, tape.Clips, 4)
	assert.Equal(t, "/d.mp4", tape.Clips[3].SourcePath)

	tape.MoveClip(3, 0)
	assert.Equal(t, "/d.mp4", tape.Clips[0].SourcePath)
	assert.Equal(t, "/a.mp4", tape.Clips[1].SourcePath)

	tape.RemoveClipAt(0)
	require.Len(t, tape.Clips, 3)
	assert.Equal(t, "/a.mp4", tape.Clips[0].SourcePath)
	for i, clip := range tape.Clips {
		assert.Equal(t, i, clip.Position)
	}

	// Out-of-range removals are no-ops.
	tape.RemoveClipAt(-1)
	tape.RemoveClipAt(10)
	assert.Len(t, tape.Clips, 3)
}

func TestTape_BoundaryCount(t *testing.T) {
	tape := &Tape{}
	assert.Equal(t, 0, tape.BoundaryCount())

	tape.InsertClipAt(0, Clip{Kind: MediaKindVideo, SourcePath: "/a.mp4"})
	assert.Equal(t, 0, tape.BoundaryCount())

	tape.InsertClipAt(1, Clip{Kind: MediaKindVideo, SourcePath: "/b.mp4"})
	assert.Equal(t, 1, tape.BoundaryCount())
}

func TestTape_Validate(t *testing.T) {
	valid := &Tape{
		Name:            "holiday",
		Orientation:     OrientationLandscape,
		ScaleMode:       ScaleModeFit,
		TransitionStyle: TransitionCrossfade,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		mutate  func(*Tape)
		wantErr error
	}{
		{"missing name", func(tp *Tape) { tp.Name = "" }, ErrNameRequired},
		{"bad orientation", func(tp *Tape) { tp.Orientation = "diagonal" }, ErrInvalidOrientation},
		{"bad scale mode", func(tp *Tape) { tp.ScaleMode = "stretch" }, ErrInvalidScaleMode},
		{"bad style", func(tp *Tape) { tp.TransitionStyle = "wipe" }, ErrInvalidTransitionStyle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tape := *valid
			tt.mutate(&tape)
			assert.ErrorIs(t, tape.Validate(), tt.wantErr)
		})
	}
}
