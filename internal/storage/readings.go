package storage

import (
	"context"
	"time"

	"github.com/bookclub/api/internal/models"
	"github.com/bookclub/api/pkg/utils"
	"gorm.io/gorm"
)

func (s *Store) CreateReading(ctx context.Context, reading *models.Reading) error {
	return translate(s.db.WithContext(ctx).Create(reading).Error)
}

func (s *Store) ReadingByID(ctx context.Context, id uint) (*models.Reading, error) {
	return findByID[models.Reading](ctx, s.db, id)
}

func (s *Store) ReadingsByIDs(ctx context.Context, ids []uint) ([]models.Reading, error) {
	var readings []models.Reading
	if len(ids) == 0 {
		return readings, nil
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&readings).Error; err != nil {
		return nil, err
	}
	return readings, nil
}

func (s *Store) UpdateReading(ctx context.Context, id uint, update ReadingUpdate) error {
	columns := update.columns()
	if len(columns) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.Reading{}).Where("id = ?", id).Updates(columns).Error
}

// DeleteReadings removes the readings together with their ratings and
// meeting links.
func (s *Store) DeleteReadings(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("reading_id IN ?", ids).Delete(&models.Rating{}).Error; err != nil {
			return err
		}
		if err := tx.Where("reading_id IN ?", ids).Delete(&models.MeetingToReading{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Reading{}).Error
	})
}

func (s *Store) CurrentReadings(ctx context.Context) ([]models.Reading, error) {
	var readings []models.Reading
	err := s.db.WithContext(ctx).
		Where("currently_reading = ?", true).
		Order("created_at DESC").
		Find(&readings).Error
	if err != nil {
		return nil, err
	}
	return readings, nil
}

// PreviousReadings returns finished readings newest first, strictly older
// than cursor when one is given.
func (s *Store) PreviousReadings(ctx context.Context, cursor *time.Time, limit int) ([]models.Reading, error) {
	query := utils.ApplyCursor(
		s.db.WithContext(ctx).Where("currently_reading = ?", false),
		"created_at", cursor, limit,
	)

	var readings []models.Reading
	if err := query.Find(&readings).Error; err != nil {
		return nil, err
	}
	return readings, nil
}

func (s *Store) SetAverageRating(ctx context.Context, id uint, avg *float64) error {
	var value interface{} = gorm.Expr("NULL")
	if avg != nil {
		value = *avg
	}
	result := s.db.WithContext(ctx).Model(&models.Reading{}).Where("id = ?", id).Update("avg_rating", value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
