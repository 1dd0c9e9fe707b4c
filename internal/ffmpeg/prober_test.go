package ffmpeg

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeResultDuration(t *testing.T) {
	t.Run("container duration wins", func(t *testing.T) {
		r := &ProbeResult{
			Format:  ProbeFormat{Duration: "12.480000"},
			Streams: []ProbeStream{{CodecType: "video", Duration: "12.400000"}},
		}
		assert.Equal(t, time.Duration(12.48*float64(time.Second)), r.Duration())
	})

	t.Run("falls back to longest stream", func(t *testing.T) {
		r := &ProbeResult{
			Streams: []ProbeStream{
				{CodecType: "video", Duration: "8.000000"},
				{CodecType: "audio", Duration: "8.120000"},
			},
		}
		secs := 8.12
		assert.Equal(t, time.Duration(secs*float64(time.Second)), r.Duration())
	})

	t.Run("no duration anywhere", func(t *testing.T) {
		r := &ProbeResult{}
		assert.Equal(t, time.Duration(0), r.Duration())
	})
}

func TestProbeResultStreams(t *testing.T) {
	raw := `{
		"format": {"filename": "clip.mp4", "format_name": "mov,mp4", "duration": "6.006000"},
		"streams": [
			{"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080, "avg_frame_rate": "30000/1001"},
			{"index": 1, "codec_name": "aac", "codec_type": "audio", "sample_rate": "48000", "channels": 2}
		]
	}`

	var r ProbeResult
	require.NoError(t, json.Unmarshal([]byte(raw), &r))

	v := r.VideoStream()
	require.NotNil(t, v)
	assert.Equal(t, "h264", v.CodecName)
	assert.Equal(t, 1920, v.Width)
	assert.InDelta(t, 29.97, v.Framerate(), 0.001)

	a := r.AudioStream()
	require.NotNil(t, a)
	assert.Equal(t, 2, a.Channels)
	assert.True(t, r.HasAudio())
}

func TestParseFramerate(t *testing.T) {
	assert.InDelta(t, 25.0, parseFramerate("25/1"), 0.0001)
	assert.InDelta(t, 29.97, parseFramerate("30000/1001"), 0.001)
	assert.InDelta(t, 30.0, parseFramerate("30"), 0.0001)
	assert.Zero(t, parseFramerate("25/0"))
	assert.Zero(t, parseFramerate(""))
	assert.Zero(t, parseFramerate("bogus"))
}
