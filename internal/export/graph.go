package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/tapedeck/internal/ffmpeg"
	"github.com/jmylchreest/tapedeck/internal/models"
	"github.com/jmylchreest/tapedeck/internal/timeline"
)

// Input is one resolved segment feeding the merge graph, in timeline order.
type Input struct {
	// Path is the local decodable file for the segment.
	Path string
	// HasAudio marks inputs carrying a real audio stream. Audio-less inputs
	// get a silent stand-in so the acrossfade chain stays uniform.
	HasAudio bool
}

// MergedDuration returns the physical output duration: the timeline total
// minus every boundary overlap, since overlapping windows render once.
func MergedDuration(tl *timeline.Timeline) time.Duration {
	total := tl.Total
	for _, seg := range tl.Segments {
		if seg.Out != nil {
			total -= seg.Out.Duration
		}
	}
	return total
}

// xfadeTransition maps a boundary style to the ffmpeg xfade transition name.
func xfadeTransition(style models.TransitionStyle) string {
	switch style {
	case models.TransitionSlideLeft:
		return "slideleft"
	case models.TransitionSlideRight:
		return "slideright"
	default:
		return "fade"
	}
}

// FilterGraph renders the timeline's merge instructions as one ffmpeg
// filter_complex string over the given inputs.
//
// Every input is normalized to the output frame (fit pads, fill crops), then
// video chains through xfade and audio through acrossfade, one link per
// boundary. Hard cuts use a one-frame xfade window so the chain shape stays
// identical for every style; a single frame of fade is indistinguishable
// from a cut at playback speed.
func FilterGraph(tl *timeline.Timeline, tape *models.Tape, inputs []Input, opts Options) (string, error) {
	if len(inputs) != len(tl.Segments) {
		return "", fmt.Errorf("%w: %d inputs for %d segments", ErrExportFailed, len(inputs), len(tl.Segments))
	}
	opts = opts.withDefaults()
	w, h := opts.Dimensions(tape.Orientation)
	cutDur := time.Second / time.Duration(opts.FrameRate)

	var sb strings.Builder

	// Per-input normalization.
	for i, seg := range tl.Segments {
		mode := tape.EffectiveScaleMode(seg.Clip)
		if seg.Synthesis != nil {
			mode = seg.Synthesis.ScaleMode
		}
		fmt.Fprintf(&sb, "[%d:v]%s,setsar=1,fps=%d[v%d];",
			i, scaleFilter(mode, w, h), opts.FrameRate, i)

		if inputs[i].HasAudio {
			fmt.Fprintf(&sb, "[%d:a]aresample=%d[a%d];", i, DefaultAudioSampleRate, i)
		} else {
			fmt.Fprintf(&sb, "anullsrc=channel_layout=stereo:sample_rate=%d,atrim=0:%s[a%d];",
				DefaultAudioSampleRate, ffmpeg.FormatSeconds(tl.Segments[i].Duration), i)
		}
	}

	if len(tl.Segments) == 1 {
		sb.WriteString("[v0]copy[vout];[a0]acopy[aout]")
		return sb.String(), nil
	}

	// Chained boundary merges. The xfade offset is where the overlap window
	// begins on the accumulated output: prior durations minus prior overlaps.
	var offset time.Duration
	prevV, prevA := "v0", "a0"
	for i := 0; i < len(tl.Segments)-1; i++ {
		seg := tl.Segments[i]

		style := "fade"
		dur := cutDur
		if seg.Out != nil {
			style = xfadeTransition(seg.Out.Style)
			dur = seg.Out.Duration
		}
		offset += seg.Duration - dur

		vOut := fmt.Sprintf("vx%d", i+1)
		aOut := fmt.Sprintf("ax%d", i+1)
		if i == len(tl.Segments)-2 {
			vOut, aOut = "vout", "aout"
		}

		fmt.Fprintf(&sb, "[%s][v%d]xfade=transition=%s:duration=%s:offset=%s[%s];",
			prevV, i+1, style, ffmpeg.FormatSeconds(dur), ffmpeg.FormatSeconds(offset), vOut)
		fmt.Fprintf(&sb, "[%s][a%d]acrossfade=d=%s[%s];",
			prevA, i+1, ffmpeg.FormatSeconds(dur), aOut)

		prevV, prevA = vOut, aOut
	}

	return strings.TrimSuffix(sb.String(), ";"), nil
}

// scaleFilter normalizes one input to the output frame for its scale mode.
func scaleFilter(mode models.ScaleMode, w, h int) string {
	if mode == models.ScaleModeFill {
		return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d", w, h, w, h)
	}
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2", w, h, w, h)
}
