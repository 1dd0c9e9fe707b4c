package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jmylchreest/tapedeck/internal/models"
	"github.com/jmylchreest/tapedeck/internal/synth"
	"github.com/jmylchreest/tapedeck/internal/timeline"
)

// Cache tuning defaults. The keep window and prefetch depth are deliberately
// configurable pending product confirmation.
const (
	// DefaultKeepWindow keeps compositions for the focused index +/- this
	// many neighbors.
	DefaultKeepWindow = 2
	// DefaultPrefetchDepth resolves this many upcoming indices ahead of the
	// focused one.
	DefaultPrefetchDepth = 2
	// DefaultResolveTimeout bounds a single resolution.
	DefaultResolveTimeout = 30 * time.Second
)

// Synthesizer materializes a photo synthesis plan into a playable clip. The
// synth package's Materializer satisfies this in production.
type Synthesizer interface {
	Materialize(ctx context.Context, srcPath string, plan synth.Plan) (string, error)
}

// Option configures a Cache.
type Option func(*Cache)

// WithKeepWindow sets how many neighbors of the focused index survive trims.
func WithKeepWindow(n int) Option {
	return func(c *Cache) { c.keep = n }
}

// WithPrefetchDepth sets how many upcoming indices are resolved ahead.
func WithPrefetchDepth(n int) Option {
	return func(c *Cache) { c.prefetchDepth = n }
}

// WithTimeout bounds each resolution attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Cache) { c.timeout = d }
}

// WithLogger sets the cache logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// Cache resolves timeline segments to playable compositions, memoizing
// results in a window around the playback position.
//
// Concurrent resolutions of the same index share one flight. Trimming never
// evicts an index with a resolution in progress. The cache is the only state
// shared between the playback engine and the prefetcher.
type Cache struct {
	tl            *timeline.Timeline
	locator       MediaLocator
	synther       Synthesizer
	keep          int
	prefetchDepth int
	timeout       time.Duration
	logger        *slog.Logger

	group singleflight.Group

	mu       sync.Mutex
	entries  map[int]*SegmentComposition
	inflight map[int]int
	focus    int
	closed   bool

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewCache creates a resolution cache for the timeline.
func NewCache(tl *timeline.Timeline, locator MediaLocator, synther Synthesizer, opts ...Option) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		tl:            tl,
		locator:       locator,
		synther:       synther,
		keep:          DefaultKeepWindow,
		prefetchDepth: DefaultPrefetchDepth,
		timeout:       DefaultResolveTimeout,
		logger:        slog.Default(),
		entries:       make(map[int]*SegmentComposition),
		inflight:      make(map[int]int),
		baseCtx:       ctx,
		cancel:        cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the composition for a segment index, resolving it if not
// cached. Concurrent calls for the same index share one resolution. The
// caller's context cancels only the caller's wait: a shared flight runs to
// completion so its result can still serve other callers.
func (c *Cache) Resolve(ctx context.Context, index int) (*SegmentComposition, error) {
	if index < 0 || index >= len(c.tl.Segments) {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrCacheClosed
	}
	if comp, ok := c.entries[index]; ok {
		c.mu.Unlock()
		return comp, nil
	}
	c.inflight[index]++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inflight[index]--
		if c.inflight[index] <= 0 {
			delete(c.inflight, index)
		}
		c.mu.Unlock()
	}()

	ch := c.group.DoChan(strconv.Itoa(index), func() (any, error) {
		return c.resolveSegment(index)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*SegmentComposition), nil
	}
}

// SetFocus records the currently playing index, trims the cache to the keep
// window around it, and kicks off background prefetch of upcoming indices.
func (c *Cache) SetFocus(index int) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.focus = index
	for i := range c.entries {
		if i < index-c.keep || i > index+c.keep {
			// In-flight resolutions keep their slot; their result would
			// otherwise be re-resolved immediately.
			if c.inflight[i] > 0 {
				continue
			}
			delete(c.entries, i)
		}
	}
	c.mu.Unlock()

	for ahead := 1; ahead <= c.prefetchDepth; ahead++ {
		c.Prefetch(index + ahead)
	}
}

// Prefetch resolves an index in the background. Out-of-range indices and
// failures are ignored; playback reports real errors when it arrives there.
func (c *Cache) Prefetch(index int) {
	if index < 0 || index >= len(c.tl.Segments) {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if _, ok := c.entries[index]; ok {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		if _, err := c.Resolve(c.baseCtx, index); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Debug("prefetch failed", "index", index, "error", err)
		}
	}()
}

// Cached returns the composition for an index without resolving.
func (c *Cache) Cached(index int) (*SegmentComposition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	comp, ok := c.entries[index]
	return comp, ok
}

// Len returns the number of cached compositions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close cancels background work and drops all cached compositions. Resolve
// calls after Close fail with ErrCacheClosed.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	c.entries = make(map[int]*SegmentComposition)
	c.mu.Unlock()
}

// resolveSegment performs one resolution: locate the media, synthesize photo
// segments, and cache the result. Runs inside a singleflight group.
func (c *Cache) resolveSegment(index int) (*SegmentComposition, error) {
	ctx, cancel := context.WithTimeout(c.baseCtx, c.timeout)
	defer cancel()

	seg := c.tl.Segments[index]
	start := time.Now()

	path, err := c.locator.Locate(ctx, seg.Clip)
	if err != nil {
		return nil, c.mapErr(err, ctx)
	}

	synthesized := false
	if seg.Clip.Kind == models.MediaKindPhoto && seg.Synthesis != nil {
		path, err = c.synther.Materialize(ctx, path, *seg.Synthesis)
		if err != nil {
			return nil, c.mapErr(err, ctx)
		}
		synthesized = true
	}

	comp := &SegmentComposition{
		Index:       index,
		Seg:         seg,
		LocalPath:   path,
		Synthesized: synthesized,
	}

	c.mu.Lock()
	if !c.closed {
		c.entries[index] = comp
	}
	c.mu.Unlock()

	c.logger.Debug("resolved segment",
		"index", index,
		"path", path,
		"synthesized", synthesized,
		"took", time.Since(start))
	return comp, nil
}

// mapErr converts a deadline hit into the typed timeout error.
func (c *Cache) mapErr(err error, ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %v: %v", ErrResolutionTimeout, c.timeout, err)
	}
	return err
}
