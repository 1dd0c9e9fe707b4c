package synth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/tapedeck/internal/models"
)

func TestClampFrame(t *testing.T) {
	tests := []struct {
		name       string
		srcW, srcH int
		expW, expH int
	}{
		{"within limits passes through", 1280, 720, 1280, 720},
		{"landscape long side clamped", 3840, 2160, 1920, 1080},
		{"portrait long side clamped", 2160, 3840, 1080, 1920},
		{"short side governs", 4000, 1000, 1920, 480},
		{"odd result rounded down to even", 1921, 1080, 1920, 1078},
		{"tiny image floors at two", 1, 1, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := ClampFrame(tt.srcW, tt.srcH, DefaultMaxLongSide, DefaultMaxShortSide)
			assert.Equal(t, tt.expW, w)
			assert.Equal(t, tt.expH, h)
			assert.Zero(t, w%2, "width must be even")
			assert.Zero(t, h%2, "height must be even")
		})
	}

	t.Run("zero src", func(t *testing.T) {
		w, h := ClampFrame(0, 0, DefaultMaxLongSide, DefaultMaxShortSide)
		assert.Zero(t, w)
		assert.Zero(t, h)
	})

	t.Run("aspect preserved within rounding", func(t *testing.T) {
		w, h := ClampFrame(4032, 3024, DefaultMaxLongSide, DefaultMaxShortSide)
		srcAspect := 4032.0 / 3024.0
		dstAspect := float64(w) / float64(h)
		assert.InDelta(t, srcAspect, dstAspect, 0.01)
	})
}

func TestDefaultPanZoomDeterministic(t *testing.T) {
	id := models.MustParseULID("01JBVZJW8G0000000000000001")
	a := DefaultPanZoom(id)
	b := DefaultPanZoom(id)
	assert.Equal(t, a, b)
	assert.Equal(t, 1.0, a.StartScale)
	assert.Equal(t, 1.12, a.EndScale)
	assert.False(t, a.IsZero())
}

func TestPlanForDefaultsToFill(t *testing.T) {
	clip := &models.Clip{
		Kind:       models.MediaKindPhoto,
		SourcePath: "/photos/a.jpg",
		Rotation:   5,
	}
	clip.ID = models.MustParseULID("01JBVZJW8G0000000000000002")

	plan := PlanFor(clip, 4*time.Second)
	assert.Equal(t, models.ScaleModeFill, plan.ScaleMode)
	assert.Equal(t, 1, plan.Rotation)
	assert.Equal(t, 4*time.Second, plan.Duration)
	assert.Equal(t, DefaultMaxLongSide, plan.MaxLongSide)
}

func TestPlanForHonorsOverride(t *testing.T) {
	clip := &models.Clip{
		Kind:          models.MediaKindPhoto,
		SourcePath:    "/photos/a.jpg",
		ScaleOverride: models.ScaleModeFit,
	}
	clip.ID = models.MustParseULID("01JBVZJW8G0000000000000003")

	plan := PlanFor(clip, 4*time.Second)
	assert.Equal(t, models.ScaleModeFit, plan.ScaleMode)
}

func TestFingerprintStability(t *testing.T) {
	clip := &models.Clip{Kind: models.MediaKindPhoto, SourcePath: "/photos/a.jpg"}
	clip.ID = models.MustParseULID("01JBVZJW8G0000000000000004")

	p1 := PlanFor(clip, 4*time.Second)
	p2 := PlanFor(clip, 4*time.Second)
	require.Equal(t, p1.Fingerprint(), p2.Fingerprint())

	p3 := PlanFor(clip, 5*time.Second)
	assert.NotEqual(t, p1.Fingerprint(), p3.Fingerprint())

	p4 := p1
	p4.Rotation = 2
	assert.NotEqual(t, p1.Fingerprint(), p4.Fingerprint())
}
