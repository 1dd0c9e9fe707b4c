package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/tapedeck/internal/models"
	"github.com/jmylchreest/tapedeck/internal/resolve"
	"github.com/jmylchreest/tapedeck/internal/timeline"
)

var (
	// ErrTransitionAborted marks a transition cancelled by user navigation.
	// Not a user-visible failure.
	ErrTransitionAborted = errors.New("transition aborted")
	// ErrAllClipsFailed indicates every remaining clip failed to resolve.
	ErrAllClipsFailed = errors.New("all remaining clips failed")
)

// State is the engine's lifecycle state.
type State string

const (
	StateIdle          State = "idle"
	StateLoading       State = "loading"
	StateActive        State = "active"
	StateTransitioning State = "transitioning"
	StateFinished      State = "finished"
)

// DefaultTickInterval drives Run's internal ticker. Hosts with their own
// render loop call Tick directly instead.
const DefaultTickInterval = 33 * time.Millisecond

// Status is an observable snapshot of the engine.
type Status struct {
	State        State         `json:"state"`
	Index        int           `json:"index"`
	GlobalTime   time.Duration `json:"global_time"`
	Total        time.Duration `json:"total"`
	Playing      bool          `json:"playing"`
	Loading      bool          `json:"loading"`
	Finished     bool          `json:"finished"`
	SkippedClips int           `json:"skipped_clips"`
	Notice       string        `json:"notice,omitempty"`
	Err          error         `json:"-"`
}

// transition tracks an in-flight boundary render.
type transition struct {
	desc timeline.Transition
}

// Engine is the dual-slot playback engine. One actor goroutine owns all
// state; public methods post messages into it. Background resolutions carry a
// generation token and are discarded when the user has navigated elsewhere in
// the meantime.
type Engine struct {
	tl       *timeline.Timeline
	cache    *resolve.Cache
	surfaces [2]Surface
	logger   *slog.Logger

	msgs      chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	// Actor-owned state. Never touched outside the loop goroutine.
	state      State
	active     int
	index      int
	playing    bool
	gen        uint64
	trans      *transition
	resolving  bool
	nextFailed bool
	skipped    int
	notice     string
	lastErr    error
}

// NewEngine creates an engine for the timeline, using the cache for segment
// resolution and the two host-provided surfaces for rendering.
func NewEngine(tl *timeline.Timeline, cache *resolve.Cache, a, b Surface, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		tl:       tl,
		cache:    cache,
		surfaces: [2]Surface{a, b},
		logger:   logger,
		msgs:     make(chan func(), 64),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		state:    StateIdle,
	}
	go e.loop()
	return e
}

func (e *Engine) loop() {
	defer close(e.done)
	for {
		select {
		case <-e.quit:
			return
		case fn := <-e.msgs:
			fn()
		}
	}
}

// post queues a message for the actor, dropping it if the engine is closed.
func (e *Engine) post(fn func()) {
	select {
	case e.msgs <- fn:
	case <-e.quit:
	}
}

// call runs fn on the actor and waits for it to complete.
func (e *Engine) call(fn func()) {
	ran := make(chan struct{})
	e.post(func() {
		fn()
		close(ran)
	})
	select {
	case <-ran:
	case <-e.done:
	}
}

// Load resolves the segment at index into the active slot and starts or
// holds playback per autoplay.
func (e *Engine) Load(index int, autoplay bool) {
	e.post(func() { e.loadAt(index, 0, autoplay) })
}

// Play resumes playback.
func (e *Engine) Play() {
	e.post(func() {
		e.playing = true
		if e.state == StateActive || e.state == StateTransitioning {
			e.surfaces[e.active].Play()
			if e.state == StateTransitioning {
				e.surfaces[1-e.active].Play()
			}
		}
	})
}

// Pause holds playback.
func (e *Engine) Pause() {
	e.post(func() {
		e.playing = false
		e.surfaces[e.active].Pause()
		if e.state == StateTransitioning {
			e.surfaces[1-e.active].Pause()
		}
	})
}

// Advance cancels any in-flight transition and jumps to the next segment,
// preserving the play/pause intent.
func (e *Engine) Advance() {
	e.post(func() { e.loadAt(e.index+1, 0, e.playing) })
}

// Previous cancels any in-flight transition and jumps to the prior segment.
func (e *Engine) Previous() {
	e.post(func() {
		target := e.index - 1
		if target < 0 {
			target = 0
		}
		e.loadAt(target, 0, e.playing)
	})
}

// Seek maps a global timeline time to a segment and local offset, then loads
// there.
func (e *Engine) Seek(global time.Duration) {
	e.post(func() {
		index, local := e.tl.Locate(global)
		e.loadAt(index, local, e.playing)
	})
}

// Tick advances transition and boundary logic. Hosts driving their own
// render loop call this once per frame; otherwise use Run.
func (e *Engine) Tick() {
	e.post(func() { e.tick() })
}

// Run ticks the engine until ctx is cancelled.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Status returns a snapshot of observable state.
func (e *Engine) Status() Status {
	var st Status
	e.call(func() {
		st = Status{
			State:        e.state,
			Index:        e.index,
			GlobalTime:   e.globalTime(),
			Total:        e.tl.Total,
			Playing:      e.playing,
			Loading:      e.state == StateLoading,
			Finished:     e.state == StateFinished,
			SkippedClips: e.skipped,
			Notice:       e.notice,
			Err:          e.lastErr,
		}
	})
	return st
}

// Close tears down the engine. Audio is silenced synchronously before the
// actor and resolution cache wind down, so dismissal never leaves a trailing
// audible glitch.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		for _, s := range e.surfaces {
			s.Mute()
		}
		e.call(func() {
			e.cancelTransition()
			for _, s := range e.surfaces {
				s.Pause()
				s.Release()
			}
			e.state = StateIdle
		})
		close(e.quit)
		<-e.done
		e.cache.Close()
	})
}

// --- actor internals -------------------------------------------------------

// globalTime reports current time on the single continuous axis: segment
// start plus the active slot's local position.
func (e *Engine) globalTime() time.Duration {
	if len(e.tl.Segments) == 0 {
		return 0
	}
	switch e.state {
	case StateFinished:
		return e.tl.Total
	case StateActive, StateTransitioning:
		return e.tl.Segments[e.index].Start + e.surfaces[e.active].Position()
	default:
		return e.tl.Segments[e.index].Start
	}
}

// loadAt is the common entry for Load, Advance, Previous, and Seek: cancel
// any transition, bump the generation, and resolve the target in the
// background.
func (e *Engine) loadAt(index int, local time.Duration, autoplay bool) {
	e.cancelTransition()

	if index >= len(e.tl.Segments) {
		e.finish(nil)
		return
	}
	if index < 0 {
		index = 0
	}

	e.state = StateLoading
	e.index = index
	e.playing = autoplay
	e.nextFailed = false
	e.gen++
	gen := e.gen

	go func() {
		comp, err := e.cache.Resolve(context.Background(), index)
		e.post(func() { e.onLoadResolved(gen, index, local, comp, err) })
	}()
}

// onLoadResolved installs a resolved composition into the active slot.
// Stale generations are discarded: the user has navigated elsewhere.
func (e *Engine) onLoadResolved(gen uint64, index int, local time.Duration, comp *resolve.SegmentComposition, err error) {
	if gen != e.gen {
		return
	}
	if err != nil {
		e.recordSkip(index, err)
		e.skipTo(index + 1)
		return
	}

	s := e.surfaces[e.active]
	if err := s.Load(comp.Path()); err != nil {
		e.recordSkip(index, err)
		e.skipTo(index + 1)
		return
	}
	s.SeekTo(local)
	resetSteadyState(s, true)
	resetSteadyState(e.surfaces[1-e.active], false)
	if e.playing {
		s.Play()
	} else {
		s.Pause()
	}

	e.state = StateActive
	e.skipped = 0
	e.cache.SetFocus(index)
	e.logger.Debug("segment loaded", "index", index, "local", local, "playing", e.playing)
}

// skipTo attempts the next index after a failure, or finishes with an error
// when the tape is exhausted.
func (e *Engine) skipTo(index int) {
	if index >= len(e.tl.Segments) {
		e.finish(fmt.Errorf("%w: %d skipped, last: %v", ErrAllClipsFailed, e.skipped, e.lastErr))
		return
	}

	e.state = StateLoading
	e.index = index
	e.gen++
	gen := e.gen
	go func() {
		comp, err := e.cache.Resolve(context.Background(), index)
		e.post(func() { e.onLoadResolved(gen, index, 0, comp, err) })
	}()
}

// recordSkip aggregates per-clip failures into the transient notice.
func (e *Engine) recordSkip(index int, err error) {
	e.skipped++
	e.lastErr = err
	e.notice = fmt.Sprintf("%d clip(s) skipped", e.skipped)
	e.logger.Warn("skipping clip", "index", index, "skipped", e.skipped, "error", err)
}

// finish ends playback. err is non-nil when the tape was exhausted by
// failures rather than played out.
func (e *Engine) finish(err error) {
	e.state = StateFinished
	e.playing = false
	e.lastErr = err
	for _, s := range e.surfaces {
		s.Pause()
	}
	if e.index > len(e.tl.Segments)-1 {
		e.index = len(e.tl.Segments) - 1
	}
	if e.index < 0 {
		e.index = 0
	}
	e.logger.Info("playback finished", "skipped", e.skipped, "error", err)
}

// tick drives boundary detection and transition progress.
func (e *Engine) tick() {
	switch e.state {
	case StateActive:
		e.tickActive()
	case StateTransitioning:
		e.stepTransition()
	}
}

func (e *Engine) tickActive() {
	if !e.playing {
		return
	}
	seg := e.tl.Segments[e.index]
	pos := e.surfaces[e.active].Position()
	remaining := seg.Duration - pos
	next := e.index + 1

	if seg.Out != nil && next < len(e.tl.Segments) && remaining <= seg.Out.Duration && remaining > 0 {
		e.armTransition(next)
		return
	}

	if remaining <= 0 {
		switch {
		case next >= len(e.tl.Segments):
			e.finish(nil)
		case e.nextFailed:
			e.recordSkip(next, e.lastErr)
			e.skipTo(next + 1)
		default:
			// Hard cut: replace the active slot directly, no dual-slot phase.
			e.loadAt(next, 0, e.playing)
		}
	}
}

// armTransition starts the boundary render once the incoming composition is
// available, resolving it in the background if the prefetcher hasn't already.
func (e *Engine) armTransition(next int) {
	if e.nextFailed {
		return // wait for segment end, then skip
	}
	if comp, ok := e.cache.Cached(next); ok {
		e.startTransition(comp)
		return
	}
	if e.resolving {
		return
	}
	e.resolving = true
	gen := e.gen
	go func() {
		comp, err := e.cache.Resolve(context.Background(), next)
		e.post(func() { e.onTransitionResolved(gen, next, comp, err) })
	}()
}

func (e *Engine) onTransitionResolved(gen uint64, next int, comp *resolve.SegmentComposition, err error) {
	e.resolving = false
	if gen != e.gen || e.state != StateActive || e.index+1 != next {
		return // navigated away; the transition this fed no longer exists
	}
	if err != nil {
		e.lastErr = err
		e.nextFailed = true
		return
	}

	seg := e.tl.Segments[e.index]
	remaining := seg.Duration - e.surfaces[e.active].Position()
	if seg.Out != nil && remaining <= seg.Out.Duration && remaining > 0 {
		e.startTransition(comp)
	}
}

// startTransition loads the incoming segment into the standby slot and
// begins the overlap render. The active surface's position is the transition
// clock, so visual and audio ramps can never drift from playback.
func (e *Engine) startTransition(comp *resolve.SegmentComposition) {
	seg := e.tl.Segments[e.index]
	in := e.surfaces[1-e.active]
	if err := in.Load(comp.Path()); err != nil {
		e.lastErr = err
		e.nextFailed = true
		return
	}
	in.SeekTo(0)
	in.SetVolume(0)

	switch seg.Out.Style {
	case models.TransitionSlideLeft:
		in.SetOpacity(1)
		in.SetOffset(1) // enters from the right edge
	case models.TransitionSlideRight:
		in.SetOpacity(1)
		in.SetOffset(-1) // enters from the left edge
	default: // crossfade
		in.SetOpacity(0)
		in.SetOffset(0)
	}
	in.Play()

	e.trans = &transition{desc: *seg.Out}
	e.state = StateTransitioning
	e.logger.Debug("transition started",
		"index", e.index, "style", seg.Out.Style, "duration", seg.Out.Duration)
}

// stepTransition advances the ramp from the active surface's clock and
// finalizes at progress 1.
func (e *Engine) stepTransition() {
	seg := e.tl.Segments[e.index]
	d := e.trans.desc.Duration
	pos := e.surfaces[e.active].Position()

	p := float64(pos-(seg.Duration-d)) / float64(d)
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}

	out := e.surfaces[e.active]
	in := e.surfaces[1-e.active]

	switch e.trans.desc.Style {
	case models.TransitionSlideLeft:
		out.SetOffset(-p)
		in.SetOffset(1 - p)
	case models.TransitionSlideRight:
		out.SetOffset(p)
		in.SetOffset(-(1 - p))
	default: // crossfade
		out.SetOpacity(1 - p)
		in.SetOpacity(p)
	}
	// Volume ramps run in lockstep with the visual ramp for every style.
	out.SetVolume(1 - p)
	in.SetVolume(p)

	if p >= 1 {
		e.finalizeTransition()
	}
}

// finalizeTransition promotes the standby slot, releases the outgoing one,
// and prefetches the new next index.
func (e *Engine) finalizeTransition() {
	old := e.active
	e.active = 1 - e.active
	e.index++
	e.trans = nil
	e.nextFailed = false

	resetSteadyState(e.surfaces[e.active], true)
	e.surfaces[old].Pause()
	resetSteadyState(e.surfaces[old], false)
	e.surfaces[old].Release()

	e.state = StateActive
	e.skipped = 0
	e.cache.SetFocus(e.index)
	e.logger.Debug("transition finalized", "index", e.index)
}

// cancelTransition reverts to a single active slot with steady-state ramps.
// Used when navigation interrupts an in-flight transition; the discarded
// half-render must leave no partial opacity, offset, or volume behind.
func (e *Engine) cancelTransition() {
	if e.trans == nil {
		return
	}
	in := e.surfaces[1-e.active]
	in.Pause()
	resetSteadyState(in, false)
	in.Release()
	resetSteadyState(e.surfaces[e.active], true)
	e.trans = nil
	e.state = StateActive
	e.logger.Debug("transition cancelled", "index", e.index, "reason", ErrTransitionAborted)
}
