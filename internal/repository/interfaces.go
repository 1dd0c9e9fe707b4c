// Package repository defines data access interfaces for tapedeck entities.
// All database access goes through these interfaces, enabling easy testing
// and database backend switching.
package repository

import (
	"context"

	"github.com/jmylchreest/tapedeck/internal/models"
)

// TapeRepository defines operations for tape persistence.
type TapeRepository interface {
	// Create creates a new tape.
	Create(ctx context.Context, tape *models.Tape) error
	// GetByID retrieves a tape by ID with its clips preloaded in position order.
	GetByID(ctx context.Context, id models.ULID) (*models.Tape, error)
	// GetAll retrieves all tapes without clips.
	GetAll(ctx context.Context) ([]*models.Tape, error)
	// Update updates a tape's settings. Clip membership is managed through
	// ClipRepository.
	Update(ctx context.Context, tape *models.Tape) error
	// Delete deletes a tape and all of its clips.
	Delete(ctx context.Context, id models.ULID) error
	// GetByName retrieves a tape by display name.
	GetByName(ctx context.Context, name string) (*models.Tape, error)
}

// ClipRepository defines operations for clip persistence within a tape.
type ClipRepository interface {
	// Create appends a clip to its tape. A negative Position appends; any
	// other value inserts at that position and shifts later clips down.
	Create(ctx context.Context, clip *models.Clip) error
	// GetByID retrieves a clip by ID.
	GetByID(ctx context.Context, id models.ULID) (*models.Clip, error)
	// GetByTapeID retrieves all clips for a tape in position order.
	GetByTapeID(ctx context.Context, tapeID models.ULID) ([]*models.Clip, error)
	// Update updates a clip's editable fields (trim, rotation, scale, duration).
	Update(ctx context.Context, clip *models.Clip) error
	// Delete removes a clip and compacts the remaining positions.
	Delete(ctx context.Context, id models.ULID) error
	// Reorder rewrites the tape's clip order to match ids, which must be a
	// permutation of the tape's current clips.
	Reorder(ctx context.Context, tapeID models.ULID, ids []models.ULID) error
	// CountByTapeID returns the number of clips in a tape.
	CountByTapeID(ctx context.Context, tapeID models.ULID) (int64, error)
	// UpdateMediaDuration records a probed media duration for a clip.
	UpdateMediaDuration(ctx context.Context, id models.ULID, duration models.Duration) error
}
