package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/tapedeck/internal/models"
	"github.com/jmylchreest/tapedeck/internal/timeline"
)

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, Tier1080p, o.Tier)
	assert.Equal(t, ContainerMP4, o.Container)
	assert.Equal(t, DefaultFrameRate, o.FrameRate)
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want error
	}{
		{"valid", Options{Tier: Tier720p, Container: ContainerMOV, OutputPath: "/tmp/out.mov"}, nil},
		{"bad tier", Options{Tier: "480p", Container: ContainerMP4, OutputPath: "/tmp/out.mp4"}, ErrInvalidTier},
		{"bad container", Options{Tier: Tier1080p, Container: "avi", OutputPath: "/tmp/out.avi"}, ErrInvalidContainer},
		{"missing output", Options{Tier: Tier1080p, Container: ContainerMP4}, ErrOutputPathRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOptionsDimensions(t *testing.T) {
	tests := []struct {
		tier        ResolutionTier
		orientation models.Orientation
		w, h        int
	}{
		{Tier720p, models.OrientationLandscape, 1280, 720},
		{Tier720p, models.OrientationPortrait, 720, 1280},
		{Tier1080p, models.OrientationLandscape, 1920, 1080},
		{Tier1080p, models.OrientationPortrait, 1080, 1920},
		{Tier2160p, models.OrientationLandscape, 3840, 2160},
	}
	for _, tt := range tests {
		w, h := Options{Tier: tt.tier}.Dimensions(tt.orientation)
		assert.Equal(t, tt.w, w)
		assert.Equal(t, tt.h, h)
	}
}

func TestBuildCommandShape(t *testing.T) {
	tape := exportTape(models.TransitionCrossfade, time.Second,
		8*time.Second, 10*time.Second)
	tape.Clips[1].TrimStart = models.Duration(2 * time.Second)
	tape.Clips[1].TrimEnd = models.Duration(12 * time.Second)
	tl, err := timeline.Build(tape, timeline.DefaultConfig())
	require.NoError(t, err)

	inputs := allAudioInputs(tl)
	opts := Options{OutputPath: "/tmp/out.mp4"}.withDefaults()
	graph, err := FilterGraph(tl, tape, inputs, opts)
	require.NoError(t, err)

	e := &Exporter{ffmpegPath: "/usr/bin/ffmpeg"}
	cmd := e.buildCommand(tl, inputs, graph, opts)

	line := cmd.String()
	assert.Contains(t, line, "-t 8.000 -i /media/000.mp4")
	// Trim maps to -ss, and the segment's trimmed duration bounds the input.
	assert.Contains(t, line, "-ss 2.000 -t 8.000 -i /media/001.mp4")
	assert.Contains(t, line, "-map [vout] -map [aout]")
	assert.Contains(t, line, "-c:v libx264 -b:v 10000k")
	assert.Contains(t, line, "-c:a aac -b:a 192k")
	assert.Contains(t, line, "-movflags +faststart")
	assert.True(t, len(cmd.Args) > 0 && cmd.Args[len(cmd.Args)-1] == "/tmp/out.mp4")
}
