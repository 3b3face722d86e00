package storage

import (
	"context"

	"github.com/bookclub/api/internal/models"
)

func (s *Store) CreateRating(ctx context.Context, rating *models.Rating) error {
	return translate(s.db.WithContext(ctx).Create(rating).Error)
}

func (s *Store) RatingByID(ctx context.Context, id uint) (*models.Rating, error) {
	return findByID[models.Rating](ctx, s.db, id)
}

func (s *Store) RatingsForReading(ctx context.Context, readingID uint) ([]models.Rating, error) {
	var ratings []models.Rating
	if err := s.db.WithContext(ctx).Where("reading_id = ?", readingID).Order("id ASC").Find(&ratings).Error; err != nil {
		return nil, err
	}
	return ratings, nil
}

func (s *Store) UserRating(ctx context.Context, userID, readingID uint) (*models.Rating, error) {
	var rating models.Rating
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND reading_id = ?", userID, readingID).
		First(&rating).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rating, nil
}

func (s *Store) UpdateRatingValue(ctx context.Context, id uint, value int) error {
	result := s.db.WithContext(ctx).Model(&models.Rating{}).Where("id = ?", id).Update("rating", value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
