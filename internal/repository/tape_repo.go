package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jmylchreest/tapedeck/internal/models"
)

// tapeRepo implements TapeRepository using GORM.
type tapeRepo struct {
	db *gorm.DB
}

// NewTapeRepository creates a new TapeRepository.
func NewTapeRepository(db *gorm.DB) *tapeRepo {
	return &tapeRepo{db: db}
}

// Create creates a new tape.
func (r *tapeRepo) Create(ctx context.Context, tape *models.Tape) error {
	if err := r.db.WithContext(ctx).Create(tape).Error; err != nil {
		return fmt.Errorf("creating tape: %w", err)
	}
	return nil
}

// GetByID retrieves a tape by ID with its clips preloaded in position order.
func (r *tapeRepo) GetByID(ctx context.Context, id models.ULID) (*models.Tape, error) {
	var tape models.Tape
	err := r.db.WithContext(ctx).
		Preload("Clips", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&tape).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting tape by ID: %w", err)
	}
	return &tape, nil
}

// GetAll retrieves all tapes without clips, newest first.
func (r *tapeRepo) GetAll(ctx context.Context) ([]*models.Tape, error) {
	var tapes []*models.Tape
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&tapes).Error; err != nil {
		return nil, fmt.Errorf("getting all tapes: %w", err)
	}
	return tapes, nil
}

// Update updates a tape's settings.
func (r *tapeRepo) Update(ctx context.Context, tape *models.Tape) error {
	// Omit the association so clip membership stays under ClipRepository.
	if err := r.db.WithContext(ctx).Omit("Clips").Save(tape).Error; err != nil {
		return fmt.Errorf("updating tape: %w", err)
	}
	return nil
}

// Delete hard-deletes a tape and its clips.
func (r *tapeRepo) Delete(ctx context.Context, id models.ULID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("tape_id = ?", id).Delete(&models.Clip{}).Error; err != nil {
			return fmt.Errorf("deleting tape clips: %w", err)
		}
		if err := tx.Unscoped().Where("id = ?", id).Delete(&models.Tape{}).Error; err != nil {
			return fmt.Errorf("deleting tape: %w", err)
		}
		return nil
	})
}

// GetByName retrieves a tape by display name.
func (r *tapeRepo) GetByName(ctx context.Context, name string) (*models.Tape, error) {
	var tape models.Tape
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&tape).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting tape by name: %w", err)
	}
	return &tape, nil
}

// Ensure tapeRepo implements TapeRepository at compile time.
var _ TapeRepository = (*tapeRepo)(nil)
