package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookclub/api/internal/models"
	"github.com/bookclub/api/internal/storage"
)

type RatingService struct {
	ratings  storage.RatingStore
	readings storage.ReadingStore
}

func NewRatingService(ratings storage.RatingStore, readings storage.ReadingStore) *RatingService {
	return &RatingService{ratings: ratings, readings: readings}
}

// RatingResult is a rating together with the reading's refreshed average.
type RatingResult struct {
	Rating    *models.Rating
	AvgRating *float64
}

// AverageRating is the mean of values rounded half up to two decimals,
// nil for no values. Integer arithmetic keeps the rounding exact.
func AverageRating(values []int) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum int64
	for _, v := range values {
		sum += int64(v)
	}
	n := int64(len(values))
	hundredths := (2*sum*100 + n) / (2 * n)
	avg := float64(hundredths) / 100
	return &avg
}

// RecomputeAverage refreshes readings.avg_rating from the stored ratings.
// Concurrent writers are not serialized; the last write wins.
func (s *RatingService) RecomputeAverage(ctx context.Context, readingID uint) (*float64, error) {
	ratings, err := s.ratings.RatingsForReading(ctx, readingID)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}

	values := make([]int, 0, len(ratings))
	for _, r := range ratings {
		values = append(values, r.Rating)
	}
	avg := AverageRating(values)

	if err := s.readings.SetAverageRating(ctx, readingID, avg); err != nil {
		return nil, fmt.Errorf("store average: %w", err)
	}
	return avg, nil
}

// Add records userID's rating of a reading. Rating the same reading twice
// overwrites the earlier value.
func (s *RatingService) Add(ctx context.Context, userID, readingID uint, value int) (*RatingResult, error) {
	if !models.ValidRating(value) {
		return nil, ErrInvalidRating
	}
	if _, err := s.readings.ReadingByID(ctx, readingID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnknownReading
		}
		return nil, err
	}

	rating, err := s.ratings.UserRating(ctx, userID, readingID)
	switch {
	case err == nil:
		if err := s.ratings.UpdateRatingValue(ctx, rating.ID, value); err != nil {
			return nil, err
		}
		rating.Rating = value
	case errors.Is(err, storage.ErrNotFound):
		rating = &models.Rating{UserID: userID, ReadingID: readingID, Rating: value}
		if err := s.ratings.CreateRating(ctx, rating); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	avg, err := s.RecomputeAverage(ctx, readingID)
	if err != nil {
		return nil, err
	}
	return &RatingResult{Rating: rating, AvgRating: avg}, nil
}

// Update changes an existing rating. A missing rating yields nil, nil.
func (s *RatingService) Update(ctx context.Context, ratingID uint, value int) (*RatingResult, error) {
	if !models.ValidRating(value) {
		return nil, ErrInvalidRating
	}

	rating, err := s.ratings.RatingByID(ctx, ratingID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.ratings.UpdateRatingValue(ctx, rating.ID, value); err != nil {
		return nil, err
	}
	rating.Rating = value

	avg, err := s.RecomputeAverage(ctx, rating.ReadingID)
	if err != nil {
		return nil, err
	}
	return &RatingResult{Rating: rating, AvgRating: avg}, nil
}

func (s *RatingService) ForReading(ctx context.Context, readingID uint) ([]models.Rating, error) {
	return s.ratings.RatingsForReading(ctx, readingID)
}

// UserRating returns nil, nil when the user has not rated the reading.
func (s *RatingService) UserRating(ctx context.Context, userID, readingID uint) (*models.Rating, error) {
	rating, err := s.ratings.UserRating(ctx, userID, readingID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return rating, err
}
