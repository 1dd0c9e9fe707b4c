// Package service provides the business logic layer for tapedeck operations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/tapedeck/internal/export"
	"github.com/jmylchreest/tapedeck/internal/models"
	"github.com/jmylchreest/tapedeck/internal/repository"
	"github.com/jmylchreest/tapedeck/internal/timeline"
)

// Not-found errors surface the model sentinels so callers can match with
// errors.Is regardless of which layer produced them.
var (
	ErrTapeNotFound = models.ErrTapeNotFound
	ErrClipNotFound = models.ErrClipNotFound
)

// PreviewResult is a built timeline plus the derived durations a client needs
// to render a scrubber: the raw total and the merged duration the export
// render will produce once transition overlaps are subtracted.
type PreviewResult struct {
	Timeline *timeline.Timeline `json:"timeline"`
	Total    time.Duration      `json:"total"`
	Merged   time.Duration      `json:"merged"`
}

// TapeService provides tape and clip management plus timeline builds.
type TapeService struct {
	tapes    repository.TapeRepository
	clips    repository.ClipRepository
	prober   timeline.DurationProber
	buildCfg timeline.Config
	logger   *slog.Logger
}

// NewTapeService creates a tape service. prober may be nil; timeline builds
// then fall back to estimated durations for unprobed videos.
func NewTapeService(tapes repository.TapeRepository, clips repository.ClipRepository, prober timeline.DurationProber, buildCfg timeline.Config) *TapeService {
	return &TapeService{
		tapes:    tapes,
		clips:    clips,
		prober:   prober,
		buildCfg: buildCfg,
		logger:   slog.Default(),
	}
}

// WithLogger sets the logger for the service.
func (s *TapeService) WithLogger(logger *slog.Logger) *TapeService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// CreateTape creates a new tape.
func (s *TapeService) CreateTape(ctx context.Context, tape *models.Tape) error {
	if err := tape.Validate(); err != nil {
		return err
	}
	if err := s.tapes.Create(ctx, tape); err != nil {
		return fmt.Errorf("creating tape: %w", err)
	}
	s.logger.Info("tape created", "tape_id", tape.ID, "name", tape.Name)
	return nil
}

// GetTape retrieves a tape with its clips in position order.
func (s *TapeService) GetTape(ctx context.Context, id models.ULID) (*models.Tape, error) {
	tape, err := s.tapes.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting tape: %w", err)
	}
	if tape == nil {
		return nil, ErrTapeNotFound
	}
	return tape, nil
}

// ListTapes retrieves all tapes.
func (s *TapeService) ListTapes(ctx context.Context) ([]*models.Tape, error) {
	tapes, err := s.tapes.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tapes: %w", err)
	}
	return tapes, nil
}

// UpdateTape updates a tape's settings. Clip membership is managed through
// the clip operations, never through tape updates.
func (s *TapeService) UpdateTape(ctx context.Context, tape *models.Tape) error {
	existing, err := s.tapes.GetByID(ctx, tape.ID)
	if err != nil {
		return fmt.Errorf("getting tape: %w", err)
	}
	if existing == nil {
		return ErrTapeNotFound
	}
	if err := tape.Validate(); err != nil {
		return err
	}
	if err := s.tapes.Update(ctx, tape); err != nil {
		return fmt.Errorf("updating tape: %w", err)
	}
	s.logger.Info("tape updated", "tape_id", tape.ID)
	return nil
}

// DeleteTape deletes a tape and all of its clips.
func (s *TapeService) DeleteTape(ctx context.Context, id models.ULID) error {
	existing, err := s.tapes.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("getting tape: %w", err)
	}
	if existing == nil {
		return ErrTapeNotFound
	}
	if err := s.tapes.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting tape: %w", err)
	}
	s.logger.Info("tape deleted", "tape_id", id)
	return nil
}

// AddClip adds a clip to a tape at the given position. A negative position
// appends.
func (s *TapeService) AddClip(ctx context.Context, tapeID models.ULID, clip *models.Clip, position int) error {
	tape, err := s.tapes.GetByID(ctx, tapeID)
	if err != nil {
		return fmt.Errorf("getting tape: %w", err)
	}
	if tape == nil {
		return ErrTapeNotFound
	}

	clip.TapeID = tapeID
	clip.Position = position
	if err := clip.Validate(); err != nil {
		return err
	}
	if err := s.clips.Create(ctx, clip); err != nil {
		return fmt.Errorf("adding clip: %w", err)
	}
	s.logger.Info("clip added", "tape_id", tapeID, "clip_id", clip.ID, "position", clip.Position)
	return nil
}

// GetClip retrieves a single clip.
func (s *TapeService) GetClip(ctx context.Context, id models.ULID) (*models.Clip, error) {
	clip, err := s.clips.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting clip: %w", err)
	}
	if clip == nil {
		return nil, ErrClipNotFound
	}
	return clip, nil
}

// UpdateClip updates a clip's editable fields (trim, rotation, scale,
// duration for photos). Position changes go through ReorderClips.
func (s *TapeService) UpdateClip(ctx context.Context, clip *models.Clip) error {
	existing, err := s.clips.GetByID(ctx, clip.ID)
	if err != nil {
		return fmt.Errorf("getting clip: %w", err)
	}
	if existing == nil {
		return ErrClipNotFound
	}

	// Ownership and position are immutable through this path.
	clip.TapeID = existing.TapeID
	clip.Position = existing.Position
	if err := clip.Validate(); err != nil {
		return err
	}
	if err := s.clips.Update(ctx, clip); err != nil {
		return fmt.Errorf("updating clip: %w", err)
	}
	s.logger.Info("clip updated", "clip_id", clip.ID)
	return nil
}

// RemoveClip removes a clip from its tape, compacting later positions.
func (s *TapeService) RemoveClip(ctx context.Context, id models.ULID) error {
	existing, err := s.clips.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("getting clip: %w", err)
	}
	if existing == nil {
		return ErrClipNotFound
	}
	if err := s.clips.Delete(ctx, id); err != nil {
		return fmt.Errorf("removing clip: %w", err)
	}
	s.logger.Info("clip removed", "clip_id", id, "tape_id", existing.TapeID)
	return nil
}

// ReorderClips applies a complete new clip order to a tape. ids must contain
// every clip of the tape exactly once.
func (s *TapeService) ReorderClips(ctx context.Context, tapeID models.ULID, ids []models.ULID) error {
	tape, err := s.tapes.GetByID(ctx, tapeID)
	if err != nil {
		return fmt.Errorf("getting tape: %w", err)
	}
	if tape == nil {
		return ErrTapeNotFound
	}
	if err := s.clips.Reorder(ctx, tapeID, ids); err != nil {
		return fmt.Errorf("reordering clips: %w", err)
	}
	s.logger.Info("clips reordered", "tape_id", tapeID, "count", len(ids))
	return nil
}

// LoadForBuild loads a tape and fills in missing video durations, persisting
// newly probed values so later builds skip the probe. With no prober
// configured the tape is returned as stored and unprobed videos keep their
// estimated duration.
func (s *TapeService) LoadForBuild(ctx context.Context, id models.ULID) (*models.Tape, error) {
	tape, err := s.GetTape(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.prober == nil {
		return tape, nil
	}

	for i := range tape.Clips {
		clip := &tape.Clips[i]
		if clip.Kind != models.MediaKindVideo || clip.MediaDuration > 0 {
			continue
		}
		d, err := s.prober.MediaDuration(ctx, clip.MediaRef())
		if err != nil {
			// Estimated duration carries the build; playback reports the
			// real failure if the clip is genuinely unplayable.
			s.logger.Warn("duration probe failed", "clip_id", clip.ID, "error", err)
			continue
		}
		clip.MediaDuration = models.Duration(d)
		if err := s.clips.UpdateMediaDuration(ctx, clip.ID, models.Duration(d)); err != nil {
			s.logger.Warn("persisting probed duration failed", "clip_id", clip.ID, "error", err)
		}
	}
	return tape, nil
}

// Preview builds the tape's timeline and reports the derived durations. The
// same build drives playback sessions and exports, so what preview shows is
// what both will do.
func (s *TapeService) Preview(ctx context.Context, id models.ULID) (*PreviewResult, error) {
	tape, err := s.LoadForBuild(ctx, id)
	if err != nil {
		return nil, err
	}
	tl, err := timeline.Build(tape, s.buildCfg)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{
		Timeline: tl,
		Total:    tl.Total,
		Merged:   export.MergedDuration(tl),
	}, nil
}

// BuildConfig returns the timeline build tuning the service was created with.
func (s *TapeService) BuildConfig() timeline.Config {
	return s.buildCfg
}
