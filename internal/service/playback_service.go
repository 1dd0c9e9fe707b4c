package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmylchreest/tapedeck/internal/models"
	"github.com/jmylchreest/tapedeck/internal/playback"
	"github.com/jmylchreest/tapedeck/internal/resolve"
	"github.com/jmylchreest/tapedeck/internal/synth"
	"github.com/jmylchreest/tapedeck/internal/timeline"
)

// ErrSessionNotFound indicates an unknown playback session ID.
var ErrSessionNotFound = errors.New("playback session not found")

// SessionConfig carries the playback tuning a session is created with.
type SessionConfig struct {
	// KeepWindow and PrefetchDepth tune the segment resolution cache.
	KeepWindow    int
	PrefetchDepth int
	// ResolveTimeout bounds a single segment resolution.
	ResolveTimeout time.Duration
	// TickInterval drives the engine's boundary/transition clock.
	TickInterval time.Duration
	// FetchTimeout bounds remote asset downloads.
	FetchTimeout time.Duration
	// AssetDir caches downloaded remote assets.
	AssetDir string
	// SynthesisDir caches synthesized photo clips.
	SynthesisDir string
	// FFmpegPath is the ffmpeg binary used for photo synthesis.
	FFmpegPath string
}

// SessionStatus is the observable state of one playback session.
type SessionStatus struct {
	ID        string          `json:"id"`
	TapeID    models.ULID     `json:"tape_id"`
	CreatedAt time.Time       `json:"created_at"`
	Playback  playback.Status `json:"playback"`
}

// Session is one live playback of a tape: a built timeline, a resolution
// cache, and an engine driving two headless clock surfaces. Clients poll the
// session for observable state and mirror it on their own player.
type Session struct {
	ID        string
	TapeID    models.ULID
	CreatedAt time.Time

	engine *playback.Engine
	cancel context.CancelFunc
}

// Status returns the session's observable state.
func (s *Session) Status() SessionStatus {
	return SessionStatus{
		ID:        s.ID,
		TapeID:    s.TapeID,
		CreatedAt: s.CreatedAt,
		Playback:  s.engine.Status(),
	}
}

// PlaybackService manages live playback sessions.
type PlaybackService struct {
	tapes  *TapeService
	cfg    SessionConfig
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewPlaybackService creates a playback session manager.
func NewPlaybackService(tapes *TapeService, cfg SessionConfig) *PlaybackService {
	return &PlaybackService{
		tapes:    tapes,
		cfg:      cfg,
		logger:   slog.Default(),
		sessions: make(map[string]*Session),
	}
}

// WithLogger sets the logger for the service.
func (s *PlaybackService) WithLogger(logger *slog.Logger) *PlaybackService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// CreateSession builds the tape's timeline and starts a playback session on
// it, beginning at the first segment. autoplay starts playback immediately;
// otherwise the session holds on the first frame.
func (s *PlaybackService) CreateSession(ctx context.Context, tapeID models.ULID, autoplay bool) (*Session, error) {
	tape, err := s.tapes.LoadForBuild(ctx, tapeID)
	if err != nil {
		return nil, err
	}
	tl, err := timeline.Build(tape, s.tapes.BuildConfig())
	if err != nil {
		return nil, err
	}

	locator := resolve.NewHTTPLocator(s.cfg.AssetDir, s.cfg.FetchTimeout)
	synther := synth.NewMaterializer(s.cfg.FFmpegPath, s.cfg.SynthesisDir, s.logger)

	var opts []resolve.Option
	if s.cfg.KeepWindow > 0 {
		opts = append(opts, resolve.WithKeepWindow(s.cfg.KeepWindow))
	}
	if s.cfg.PrefetchDepth > 0 {
		opts = append(opts, resolve.WithPrefetchDepth(s.cfg.PrefetchDepth))
	}
	if s.cfg.ResolveTimeout > 0 {
		opts = append(opts, resolve.WithTimeout(s.cfg.ResolveTimeout))
	}
	opts = append(opts, resolve.WithLogger(s.logger))
	cache := resolve.NewCache(tl, locator, synther, opts...)

	engine := playback.NewEngine(tl, cache,
		playback.NewClockSurface(), playback.NewClockSurface(), s.logger)

	runCtx, cancel := context.WithCancel(context.Background())
	session := &Session{
		ID:        uuid.New().String(),
		TapeID:    tapeID,
		CreatedAt: time.Now(),
		engine:    engine,
		cancel:    cancel,
	}

	engine.Load(0, autoplay)
	go engine.Run(runCtx, s.cfg.TickInterval)

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.Info("playback session created",
		"session_id", session.ID,
		"tape_id", tapeID,
		"segments", len(tl.Segments),
		"autoplay", autoplay)
	return session, nil
}

// GetSession returns a session by ID.
func (s *PlaybackService) GetSession(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// ListSessions returns all live sessions.
func (s *PlaybackService) ListSessions() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// Play resumes playback on a session.
func (s *PlaybackService) Play(id string) error {
	session, err := s.GetSession(id)
	if err != nil {
		return err
	}
	session.engine.Play()
	return nil
}

// Pause holds playback on a session.
func (s *PlaybackService) Pause(id string) error {
	session, err := s.GetSession(id)
	if err != nil {
		return err
	}
	session.engine.Pause()
	return nil
}

// Next jumps a session to the next segment.
func (s *PlaybackService) Next(id string) error {
	session, err := s.GetSession(id)
	if err != nil {
		return err
	}
	session.engine.Advance()
	return nil
}

// Previous jumps a session to the prior segment.
func (s *PlaybackService) Previous(id string) error {
	session, err := s.GetSession(id)
	if err != nil {
		return err
	}
	session.engine.Previous()
	return nil
}

// Seek jumps a session to a global timeline time.
func (s *PlaybackService) Seek(id string, global time.Duration) error {
	session, err := s.GetSession(id)
	if err != nil {
		return err
	}
	session.engine.Seek(global)
	return nil
}

// CloseSession tears down a session, silencing audio before teardown.
func (s *PlaybackService) CloseSession(id string) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	session.cancel()
	session.engine.Close()
	s.logger.Info("playback session closed", "session_id", id)
	return nil
}

// CloseAll tears down every live session. Used on daemon shutdown.
func (s *PlaybackService) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.cancel()
		session.engine.Close()
	}
	if len(sessions) > 0 {
		s.logger.Info("closed all playback sessions", "count", len(sessions))
	}
}
