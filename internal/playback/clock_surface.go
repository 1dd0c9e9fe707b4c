package playback

import (
	"os"
	"sync"
	"time"
)

// ClockSurface is a headless Surface whose position advances with wall time
// while playing. It renders nothing; the daemon uses a pair of them to run a
// playback session whose observable state (position, transitions, skips) a
// client can poll, while an attached player mirrors the commands.
type ClockSurface struct {
	mu       sync.Mutex
	path     string
	playing  bool
	base     time.Duration // position when playback last started or seeked
	playedAt time.Time     // wall time of the last transition to playing

	opacity float64
	offset  float64
	volume  float64
}

// NewClockSurface creates an idle headless surface.
func NewClockSurface() *ClockSurface {
	return &ClockSurface{opacity: 1, volume: 1}
}

// Load verifies the media file exists and installs it at position zero.
func (s *ClockSurface) Load(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
	s.playing = false
	s.base = 0
	return nil
}

// Play starts or resumes the clock.
func (s *ClockSurface) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing || s.path == "" {
		return
	}
	s.playing = true
	s.playedAt = time.Now()
}

// Pause freezes the clock at the current position.
func (s *ClockSurface) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return
	}
	s.base += time.Since(s.playedAt)
	s.playing = false
}

// SeekTo jumps the clock to a local offset.
func (s *ClockSurface) SeekTo(offset time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset < 0 {
		offset = 0
	}
	s.base = offset
	if s.playing {
		s.playedAt = time.Now()
	}
}

// Position reports the current local offset.
func (s *ClockSurface) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		return s.base + time.Since(s.playedAt)
	}
	return s.base
}

// SetOpacity records the render opacity.
func (s *ClockSurface) SetOpacity(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opacity = v
}

// SetOffset records the horizontal offset.
func (s *ClockSurface) SetOffset(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = v
}

// SetVolume records the audio volume.
func (s *ClockSurface) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
}

// Mute drops the volume immediately. Safe from any goroutine.
func (s *ClockSurface) Mute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = 0
}

// Release unloads the media and returns the surface to idle.
func (s *ClockSurface) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = ""
	s.playing = false
	s.base = 0
}

// Snapshot reports the surface's current render parameters.
func (s *ClockSurface) Snapshot() (path string, opacity, offset, volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path, s.opacity, s.offset, s.volume
}

var _ Surface = (*ClockSurface)(nil)
