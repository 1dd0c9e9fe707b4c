// Package playback implements the dual-slot transition playback engine.
//
// Two playback surfaces alternate between active and standby roles so a
// transition can render the outgoing clip on one slot while the incoming clip
// ramps in on the other. All engine state is owned by a single actor
// goroutine; background resolutions report back via messages and are
// generation-checked so late results never touch state the user has already
// navigated away from.
package playback

import "time"

// Surface is one playback slot provided by the host: a render target with an
// attached audio output. The engine drives surfaces only from its actor
// goroutine, with one exception: Mute must be safe to call from any
// goroutine, because teardown silences audio synchronously before the actor
// drains.
type Surface interface {
	// Load installs a decodable local media file, replacing any current one.
	Load(path string) error
	// Play starts or resumes rendering.
	Play()
	// Pause holds the current frame.
	Pause()
	// SeekTo jumps to a local offset within the loaded media.
	SeekTo(offset time.Duration)
	// Position reports the current local playback offset. The engine uses
	// this as the transition clock, so it must advance with the rendered
	// audio/video, not wall time.
	Position() time.Duration
	// SetOpacity sets render opacity in [0,1].
	SetOpacity(v float64)
	// SetOffset sets the horizontal offset in frame widths: 0 centered,
	// -1 one full frame left, +1 one full frame right.
	SetOffset(v float64)
	// SetVolume sets audio volume in [0,1].
	SetVolume(v float64)
	// Mute silences audio immediately. Safe from any goroutine.
	Mute()
	// Release unloads media and returns the surface to an idle state.
	Release()
}

// resetSteadyState returns a surface to the non-transitioning baseline.
func resetSteadyState(s Surface, active bool) {
	s.SetOffset(0)
	if active {
		s.SetOpacity(1)
		s.SetVolume(1)
		return
	}
	s.SetOpacity(0)
	s.SetVolume(0)
}
