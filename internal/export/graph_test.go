package export

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/tapedeck/internal/models"
	"github.com/jmylchreest/tapedeck/internal/timeline"
)

func exportTape(style models.TransitionStyle, transDur time.Duration, durations ...time.Duration) *models.Tape {
	tape := &models.Tape{
		Name:               "export tape",
		Orientation:        models.OrientationLandscape,
		ScaleMode:          models.ScaleModeFit,
		TransitionStyle:    style,
		TransitionDuration: models.Duration(transDur),
	}
	tape.ID = models.MustParseULID("01JBVZJW8G00000000000TAPE1")
	for i, d := range durations {
		c := models.Clip{
			Kind:          models.MediaKindVideo,
			Position:      i,
			SourcePath:    fmt.Sprintf("/media/%03d.mp4", i),
			MediaDuration: models.Duration(d),
		}
		c.ID = models.MustParseULID(fmt.Sprintf("01JBVZJW8G0000000000000%03d", i))
		tape.Clips = append(tape.Clips, c)
	}
	return tape
}

func allAudioInputs(tl *timeline.Timeline) []Input {
	inputs := make([]Input, len(tl.Segments))
	for i, seg := range tl.Segments {
		inputs[i] = Input{Path: seg.Clip.SourcePath, HasAudio: true}
	}
	return inputs
}

func TestMergedDuration(t *testing.T) {
	tape := exportTape(models.TransitionCrossfade, time.Second,
		3*time.Second, 8*time.Second, 10*time.Second)
	tl, err := timeline.Build(tape, timeline.DefaultConfig())
	require.NoError(t, err)

	// Overlaps are 0.5s (short-clip cap) and 1.0s.
	assert.Equal(t, 21*time.Second, tl.Total)
	assert.Equal(t, 19500*time.Millisecond, MergedDuration(tl))
}

func TestFilterGraphOffsets(t *testing.T) {
	tape := exportTape(models.TransitionCrossfade, time.Second,
		3*time.Second, 8*time.Second, 10*time.Second)
	tl, err := timeline.Build(tape, timeline.DefaultConfig())
	require.NoError(t, err)

	graph, err := FilterGraph(tl, tape, allAudioInputs(tl), Options{})
	require.NoError(t, err)

	// Boundary 1 starts at 3-0.5=2.5s; boundary 2 at 2.5+8-1=9.5s on the
	// accumulated output.
	assert.Contains(t, graph, "xfade=transition=fade:duration=0.500:offset=2.500")
	assert.Contains(t, graph, "xfade=transition=fade:duration=1.000:offset=9.500")
	assert.Contains(t, graph, "acrossfade=d=0.500")
	assert.Contains(t, graph, "acrossfade=d=1.000")
	assert.Contains(t, graph, "[vout]")
	assert.Contains(t, graph, "[aout]")
}

func TestFilterGraphSlideStyles(t *testing.T) {
	for style, name := range map[models.TransitionStyle]string{
		models.TransitionSlideLeft:  "slideleft",
		models.TransitionSlideRight: "slideright",
	} {
		tape := exportTape(style, time.Second, 8*time.Second, 8*time.Second)
		tl, err := timeline.Build(tape, timeline.DefaultConfig())
		require.NoError(t, err)

		graph, err := FilterGraph(tl, tape, allAudioInputs(tl), Options{})
		require.NoError(t, err)
		assert.Contains(t, graph, "xfade=transition="+name)
	}
}

func TestFilterGraphHardCutUsesOneFrameWindow(t *testing.T) {
	tape := exportTape(models.TransitionNone, 0, 8*time.Second, 8*time.Second)
	tl, err := timeline.Build(tape, timeline.DefaultConfig())
	require.NoError(t, err)

	graph, err := FilterGraph(tl, tape, allAudioInputs(tl), Options{FrameRate: 30})
	require.NoError(t, err)

	// One output frame at 30fps.
	assert.Contains(t, graph, "xfade=transition=fade:duration=0.033")
}

func TestFilterGraphSingleSegment(t *testing.T) {
	tape := exportTape(models.TransitionCrossfade, time.Second, 8*time.Second)
	tl, err := timeline.Build(tape, timeline.DefaultConfig())
	require.NoError(t, err)

	graph, err := FilterGraph(tl, tape, allAudioInputs(tl), Options{})
	require.NoError(t, err)
	assert.Contains(t, graph, "[v0]copy[vout]")
	assert.Contains(t, graph, "[a0]acopy[aout]")
	assert.NotContains(t, graph, "xfade")
}

func TestFilterGraphSilentStandIn(t *testing.T) {
	tape := exportTape(models.TransitionCrossfade, time.Second, 8*time.Second, 8*time.Second)
	tl, err := timeline.Build(tape, timeline.DefaultConfig())
	require.NoError(t, err)

	inputs := allAudioInputs(tl)
	inputs[1].HasAudio = false

	graph, err := FilterGraph(tl, tape, inputs, Options{})
	require.NoError(t, err)
	assert.Contains(t, graph, "[0:a]aresample=48000[a0]")
	assert.Contains(t, graph, "anullsrc=channel_layout=stereo:sample_rate=48000,atrim=0:8.000[a1]")
}

func TestFilterGraphScaleModes(t *testing.T) {
	tape := exportTape(models.TransitionNone, 0, 8*time.Second, 8*time.Second)
	tape.ScaleMode = models.ScaleModeFill
	tape.Clips[1].ScaleOverride = models.ScaleModeFit
	tl, err := timeline.Build(tape, timeline.DefaultConfig())
	require.NoError(t, err)

	graph, err := FilterGraph(tl, tape, allAudioInputs(tl), Options{})
	require.NoError(t, err)
	assert.Contains(t, graph, "[0:v]scale=1920:1080:force_original_aspect_ratio=increase,crop=1920:1080")
	assert.Contains(t, graph, "[1:v]scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080")
}

func TestFilterGraphInputMismatch(t *testing.T) {
	tape := exportTape(models.TransitionNone, 0, 8*time.Second, 8*time.Second)
	tl, err := timeline.Build(tape, timeline.DefaultConfig())
	require.NoError(t, err)

	_, err = FilterGraph(tl, tape, nil, Options{})
	assert.ErrorIs(t, err, ErrExportFailed)
}

func TestFilterGraphPortraitDimensions(t *testing.T) {
	tape := exportTape(models.TransitionNone, 0, 8*time.Second, 8*time.Second)
	tape.Orientation = models.OrientationPortrait
	tl, err := timeline.Build(tape, timeline.DefaultConfig())
	require.NoError(t, err)

	graph, err := FilterGraph(tl, tape, allAudioInputs(tl), Options{Tier: Tier720p})
	require.NoError(t, err)
	assert.Contains(t, graph, "scale=720:1280")
}

func TestFilterGraphPreviewExportParity(t *testing.T) {
	// The boundary sequence embedded in the graph must come from the same
	// build that playback uses, including the seeded-random outcome.
	tape := exportTape(models.TransitionRandom, 400*time.Millisecond,
		8*time.Second, 8*time.Second, 8*time.Second, 8*time.Second, 8*time.Second)

	tl1, err := timeline.Build(tape, timeline.DefaultConfig())
	require.NoError(t, err)
	tl2, err := timeline.Build(tape, timeline.DefaultConfig())
	require.NoError(t, err)

	g1, err := FilterGraph(tl1, tape, allAudioInputs(tl1), Options{})
	require.NoError(t, err)
	g2, err := FilterGraph(tl2, tape, allAudioInputs(tl2), Options{})
	require.NoError(t, err)

	assert.Equal(t, g1, g2, "two independent builds must render identical graphs")
	assert.Equal(t, tl1.Styles(), tl2.Styles())
}

func TestStrippedTrailingSemicolon(t *testing.T) {
	tape := exportTape(models.TransitionCrossfade, time.Second, 8*time.Second, 8*time.Second)
	tl, err := timeline.Build(tape, timeline.DefaultConfig())
	require.NoError(t, err)

	graph, err := FilterGraph(tl, tape, allAudioInputs(tl), Options{})
	require.NoError(t, err)
	assert.False(t, strings.HasSuffix(graph, ";"))
}
