package ffmpeg

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandBuilderArgOrder(t *testing.T) {
	cmd := NewCommandBuilder("/usr/bin/ffmpeg").
		HideBanner().
		Overwrite().
		Input("a.mp4").
		Input("b.mp4").
		FilterComplex("[0:v][1:v]xfade=transition=fade:duration=1:offset=2[v]").
		Map("[v]").
		VideoCodec("libx264").
		Output("out.mp4").
		Build()

	assert.Equal(t, "/usr/bin/ffmpeg", cmd.Binary)
	assert.Equal(t, []string{
		"-loglevel", "error",
		"-hide_banner",
		"-y",
		"-i", "a.mp4",
		"-i", "b.mp4",
		"-filter_complex", "[0:v][1:v]xfade=transition=fade:duration=1:offset=2[v]",
		"-map", "[v]",
		"-c:v", "libx264",
		"out.mp4",
	}, cmd.Args)
}

func TestCommandBuilderLoopImageInput(t *testing.T) {
	cmd := NewCommandBuilder("ffmpeg").
		LoopImageInput("photo.png", 4*time.Second).
		SilentAudioInput(4*time.Second, 48000).
		Output("out.mp4").
		Build()

	joined := strings.Join(cmd.Args, " ")
	assert.Contains(t, joined, "-loop 1 -t 4.000 -i photo.png")
	assert.Contains(t, joined, "-f lavfi -t 4.000 -i anullsrc=channel_layout=stereo:sample_rate=48000")
}

func TestParseProgress(t *testing.T) {
	input := strings.NewReader(strings.Join([]string{
		"frame=120",
		"fps=29.97",
		"bitrate=2400.5kbits/s",
		"out_time_us=4000000",
		"speed=1.5x",
		"progress=continue",
		"frame=240",
		"fps=30.00",
		"bitrate=2500.0kbits/s",
		"out_time_us=8000000",
		"speed=1.6x",
		"progress=end",
	}, "\n"))

	var got []Progress
	c := &Command{}
	c.parseProgress(input, func(p Progress) {
		got = append(got, p)
	})

	require.Len(t, got, 2)
	assert.Equal(t, int64(120), got[0].Frame)
	assert.InDelta(t, 29.97, got[0].FPS, 0.001)
	assert.Equal(t, 4*time.Second, got[0].OutTime)
	assert.InDelta(t, 1.5, got[0].Speed, 0.001)
	assert.False(t, got[0].Finished)

	assert.Equal(t, int64(240), got[1].Frame)
	assert.Equal(t, 8*time.Second, got[1].OutTime)
	assert.True(t, got[1].Finished)
}

func TestCollectStderrKeepsTail(t *testing.T) {
	var lines []string
	for i := 0; i < stderrTailLines+25; i++ {
		lines = append(lines, strings.Repeat("x", 10))
	}
	c := &Command{}
	c.collectStderr(strings.NewReader(strings.Join(lines, "\n")))

	tail := strings.Split(c.StderrTail(), "\n")
	assert.Len(t, tail, stderrTailLines)
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "4.000", FormatSeconds(4*time.Second))
	assert.Equal(t, "0.500", FormatSeconds(500*time.Millisecond))
	assert.Equal(t, "1.250", FormatSeconds(1250*time.Millisecond))
}
