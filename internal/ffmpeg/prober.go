package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrNoDuration indicates the probed media reported no usable duration.
var ErrNoDuration = errors.New("media has no duration")

// ProbeResult contains the ffprobe output fields tapedeck cares about.
type ProbeResult struct {
	Format  ProbeFormat   `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

// ProbeFormat contains container format information.
type ProbeFormat struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// ProbeStream contains stream information.
type ProbeStream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"` // video, audio
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	PixFmt       string `json:"pix_fmt,omitempty"`
	SampleRate   string `json:"sample_rate,omitempty"`
	Channels     int    `json:"channels,omitempty"`
	Duration     string `json:"duration,omitempty"`
	AvgFrameRate string `json:"avg_frame_rate,omitempty"`
	RFrameRate   string `json:"r_frame_rate,omitempty"`
}

// Prober handles ffprobe operations.
type Prober struct {
	ffprobePath string
	timeout     time.Duration
}

// NewProber creates a new media prober.
func NewProber(ffprobePath string) *Prober {
	return &Prober{
		ffprobePath: ffprobePath,
		timeout:     30 * time.Second,
	}
}

// WithTimeout sets the probe timeout.
func (p *Prober) WithTimeout(timeout time.Duration) *Prober {
	p.timeout = timeout
	return p
}

// Probe probes a media file or URL and returns format and stream details.
func (p *Prober) Probe(ctx context.Context, ref string) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		ref,
	}

	cmd := exec.CommandContext(ctx, p.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("probe timeout after %v", p.timeout)
		}
		return nil, fmt.Errorf("ffprobe failed for %s: %w", ref, err)
	}

	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	return &result, nil
}

// MediaDuration probes a media reference and returns its duration. This is
// the DurationProber used when building timelines from unprobed clips.
func (p *Prober) MediaDuration(ctx context.Context, ref string) (time.Duration, error) {
	result, err := p.Probe(ctx, ref)
	if err != nil {
		return 0, err
	}
	d := result.Duration()
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoDuration, ref)
	}
	return d, nil
}

// Duration returns the container duration, falling back to the longest
// stream duration when the container reports none.
func (r *ProbeResult) Duration() time.Duration {
	if d := parseSeconds(r.Format.Duration); d > 0 {
		return d
	}
	var longest time.Duration
	for _, s := range r.Streams {
		if d := parseSeconds(s.Duration); d > longest {
			longest = d
		}
	}
	return longest
}

// VideoStream returns the first video stream, or nil.
func (r *ProbeResult) VideoStream() *ProbeStream {
	for i := range r.Streams {
		if r.Streams[i].CodecType == "video" {
			return &r.Streams[i]
		}
	}
	return nil
}

// AudioStream returns the first audio stream, or nil.
func (r *ProbeResult) AudioStream() *ProbeStream {
	for i := range r.Streams {
		if r.Streams[i].CodecType == "audio" {
			return &r.Streams[i]
		}
	}
	return nil
}

// HasAudio returns true when the media contains an audio stream.
func (r *ProbeResult) HasAudio() bool {
	return r.AudioStream() != nil
}

// Framerate returns the stream framerate parsed from its rational form.
func (s *ProbeStream) Framerate() float64 {
	if fr := parseFramerate(s.AvgFrameRate); fr > 0 {
		return fr
	}
	return parseFramerate(s.RFrameRate)
}

// parseSeconds parses an ffprobe fractional-seconds string.
func parseSeconds(s string) time.Duration {
	if s == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

// parseFramerate parses a framerate string like "30000/1001" or "25/1".
func parseFramerate(fr string) float64 {
	if fr == "" {
		return 0
	}
	num, den, found := strings.Cut(fr, "/")
	if !found {
		f, err := strconv.ParseFloat(fr, 64)
		if err != nil {
			return 0
		}
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
