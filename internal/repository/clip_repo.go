package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jmylchreest/tapedeck/internal/models"
)

// clipRepo implements ClipRepository using GORM.
type clipRepo struct {
	db *gorm.DB
}

// NewClipRepository creates a new ClipRepository.
func NewClipRepository(db *gorm.DB) *clipRepo {
	return &clipRepo{db: db}
}

// Create appends or inserts a clip into its tape. A negative Position
// appends; otherwise later clips shift down to make room.
func (r *clipRepo) Create(ctx context.Context, clip *models.Clip) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Clip{}).Where("tape_id = ?", clip.TapeID).Count(&count).Error; err != nil {
			return fmt.Errorf("counting tape clips: %w", err)
		}

		if clip.Position < 0 || clip.Position > int(count) {
			clip.Position = int(count)
		} else if clip.Position < int(count) {
			err := tx.Model(&models.Clip{}).
				Where("tape_id = ? AND position >= ?", clip.TapeID, clip.Position).
				UpdateColumn("position", gorm.Expr("position + 1")).Error
			if err != nil {
				return fmt.Errorf("shifting clip positions: %w", err)
			}
		}

		if err := tx.Create(clip).Error; err != nil {
			return fmt.Errorf("creating clip: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a clip by ID.
func (r *clipRepo) GetByID(ctx context.Context, id models.ULID) (*models.Clip, error) {
	var clip models.Clip
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&clip).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting clip by ID: %w", err)
	}
	return &clip, nil
}

// GetByTapeID retrieves all clips for a tape in position order.
func (r *clipRepo) GetByTapeID(ctx context.Context, tapeID models.ULID) ([]*models.Clip, error) {
	var clips []*models.Clip
	err := r.db.WithContext(ctx).
		Where("tape_id = ?", tapeID).
		Order("position ASC").
		Find(&clips).Error
	if err != nil {
		return nil, fmt.Errorf("getting clips by tape ID: %w", err)
	}
	return clips, nil
}

// Update updates a clip's editable fields.
func (r *clipRepo) Update(ctx context.Context, clip *models.Clip) error {
	if err := r.db.WithContext(ctx).Save(clip).Error; err != nil {
		return fmt.Errorf("updating clip: %w", err)
	}
	return nil
}

// Delete removes a clip and compacts the remaining positions.
func (r *clipRepo) Delete(ctx context.Context, id models.ULID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var clip models.Clip
		if err := tx.Where("id = ?", id).First(&clip).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("loading clip for delete: %w", err)
		}

		if err := tx.Unscoped().Delete(&clip).Error; err != nil {
			return fmt.Errorf("deleting clip: %w", err)
		}

		err := tx.Model(&models.Clip{}).
			Where("tape_id = ? AND position > ?", clip.TapeID, clip.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
		if err != nil {
			return fmt.Errorf("compacting clip positions: %w", err)
		}
		return nil
	})
}

// Reorder rewrites the tape's clip order to match ids.
func (r *clipRepo) Reorder(ctx context.Context, tapeID models.ULID, ids []models.ULID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Clip{}).Where("tape_id = ?", tapeID).Count(&count).Error; err != nil {
			return fmt.Errorf("counting tape clips: %w", err)
		}
		if int64(len(ids)) != count {
			return fmt.Errorf("reorder list has %d clips, tape has %d", len(ids), count)
		}

		for pos, id := range ids {
			res := tx.Model(&models.Clip{}).
				Where("id = ? AND tape_id = ?", id, tapeID).
				UpdateColumn("position", pos)
			if res.Error != nil {
				return fmt.Errorf("reordering clip %s: %w", id, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("clip %s does not belong to tape %s", id, tapeID)
			}
		}
		return nil
	})
}

// CountByTapeID returns the number of clips in a tape.
func (r *clipRepo) CountByTapeID(ctx context.Context, tapeID models.ULID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Clip{}).Where("tape_id = ?", tapeID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting clips: %w", err)
	}
	return count, nil
}

// UpdateMediaDuration records a probed media duration for a clip.
func (r *clipRepo) UpdateMediaDuration(ctx context.Context, id models.ULID, duration models.Duration) error {
	err := r.db.WithContext(ctx).Model(&models.Clip{}).
		Where("id = ?", id).
		UpdateColumn("media_duration", duration).Error
	if err != nil {
		return fmt.Errorf("updating media duration: %w", err)
	}
	return nil
}

// Ensure clipRepo implements ClipRepository at compile time.
var _ ClipRepository = (*clipRepo)(nil)
