package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bookclub/api/internal/models"
	"github.com/bookclub/api/internal/storage"
	"github.com/bookclub/api/pkg/utils"
)

type ReadingService struct {
	readings storage.ReadingStore
}

func NewReadingService(readings storage.ReadingStore) *ReadingService {
	return &ReadingService{readings: readings}
}

type ReadingInput struct {
	Title            *string
	Author           *string
	Type             *models.ReadingType
	CurrentlyReading *bool
}

type createReadingFields struct {
	Title  string `validate:"required"`
	Author string `validate:"required"`
}

func (in ReadingInput) validType() error {
	if in.Type != nil && !in.Type.Valid() {
		return fmt.Errorf("%w: unknown reading type %q", ErrInvalidInput, *in.Type)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func (s *ReadingService) Create(ctx context.Context, createdBy uint, in ReadingInput) (*models.Reading, error) {
	fields := createReadingFields{Title: deref(in.Title), Author: deref(in.Author)}
	if err := validate.Struct(fields); err != nil {
		return nil, fmt.Errorf("%w: title and author are required", ErrInvalidInput)
	}
	if err := in.validType(); err != nil {
		return nil, err
	}

	reading := &models.Reading{
		Title:            fields.Title,
		Author:           fields.Author,
		Type:             in.Type,
		CurrentlyReading: true,
		CreatedBy:        &createdBy,
	}
	if err := s.readings.CreateReading(ctx, reading); err != nil {
		return nil, err
	}

	// zero values are skipped on insert in favour of the column default
	if in.CurrentlyReading != nil && !*in.CurrentlyReading {
		if err := s.readings.UpdateReading(ctx, reading.ID, storage.ReadingUpdate{CurrentlyReading: in.CurrentlyReading}); err != nil {
			return nil, err
		}
		reading.CurrentlyReading = false
	}
	return reading, nil
}

// Update applies the non-nil fields; a missing reading yields nil, nil.
func (s *ReadingService) Update(ctx context.Context, id uint, in ReadingInput) (*models.Reading, error) {
	if err := in.validType(); err != nil {
		return nil, err
	}
	if _, err := s.readings.ReadingByID(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	update := storage.ReadingUpdate{
		Type:             in.Type,
		CurrentlyReading: in.CurrentlyReading,
	}
	if title := deref(in.Title); title != "" {
		update.Title = &title
	}
	if author := deref(in.Author); author != "" {
		update.Author = &author
	}
	if err := s.readings.UpdateReading(ctx, id, update); err != nil {
		return nil, err
	}
	return s.readings.ReadingByID(ctx, id)
}

func (s *ReadingService) Delete(ctx context.Context, ids []uint) error {
	return s.readings.DeleteReadings(ctx, ids)
}

// Get returns nil, nil for an unknown id.
func (s *ReadingService) Get(ctx context.Context, id uint) (*models.Reading, error) {
	reading, err := s.readings.ReadingByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return reading, err
}

func (s *ReadingService) Current(ctx context.Context) ([]models.Reading, error) {
	return s.readings.CurrentReadings(ctx)
}

// Previous pages through finished readings, newest first.
func (s *ReadingService) Previous(ctx context.Context, cursor *time.Time, limit int) (utils.CursorPage[models.Reading], error) {
	limit = utils.ClampLimit(limit)
	readings, err := s.readings.PreviousReadings(ctx, cursor, limit)
	if err != nil {
		return utils.CursorPage[models.Reading]{}, err
	}

	page := utils.CursorPage[models.Reading]{Items: readings}
	if len(readings) > 0 {
		page.PreviousCursor = utils.PreviousCursor(len(readings), limit, readings[len(readings)-1].CreatedAt)
	}
	return page, nil
}
