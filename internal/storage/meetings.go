package storage

import (
	"context"
	"time"

	"github.com/bookclub/api/internal/models"
	"github.com/bookclub/api/pkg/utils"
	"gorm.io/gorm"
)

func (s *Store) CreateMeeting(ctx context.Context, meeting *models.Meeting, links []models.MeetingToReading) error {
	meeting.MeetingDate = meeting.MeetingDate.UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("MeetingToReadings", "Attendance").Create(meeting).Error; err != nil {
			return err
		}
		if len(links) == 0 {
			return nil
		}
		for i := range links {
			links[i].MeetingID = meeting.ID
		}
		return tx.Create(&links).Error
	})
}

func (s *Store) MeetingByID(ctx context.Context, id uint) (*models.Meeting, error) {
	return findByID[models.Meeting](ctx, s.db, id)
}

func (s *Store) UpdateMeeting(ctx context.Context, id uint, update MeetingUpdate) error {
	columns := update.columns()
	if len(columns) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.Meeting{}).Where("id = ?", id).Updates(columns).Error
}

// DeleteMeeting removes the meeting, its reading links and its attendance.
func (s *Store) DeleteMeeting(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", id).Delete(&models.MeetingToReading{}).Error; err != nil {
			return err
		}
		if err := tx.Where("meeting_id = ?", id).Delete(&models.Attendance{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Meeting{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) PageMeetings(ctx context.Context, cursor *time.Time, limit int) ([]models.Meeting, error) {
	var meetings []models.Meeting
	query := utils.ApplyCursor(s.db.WithContext(ctx), "meeting_date", cursor, limit)
	if err := query.Find(&meetings).Error; err != nil {
		return nil, err
	}
	return meetings, nil
}

// MeetingsBetween returns meetings with from <= meeting_date <= to, newest first.
func (s *Store) MeetingsBetween(ctx context.Context, from, to time.Time) ([]models.Meeting, error) {
	var meetings []models.Meeting
	err := s.db.WithContext(ctx).
		Where("meeting_date >= ? AND meeting_date <= ?", from.UTC(), to.UTC()).
		Order("meeting_date DESC").
		Find(&meetings).Error
	if err != nil {
		return nil, err
	}
	return meetings, nil
}

func (s *Store) CurrentReadingMeetings(ctx context.Context) ([]models.Meeting, error) {
	var meetings []models.Meeting
	err := s.db.WithContext(ctx).
		Model(&models.Meeting{}).
		Distinct("meetings.*").
		Joins("JOIN meeting_to_readings ON meeting_to_readings.meeting_id = meetings.id").
		Joins("JOIN readings ON readings.id = meeting_to_readings.reading_id").
		Where("readings.currently_reading = ?", true).
		Order("meetings.meeting_date DESC").
		Find(&meetings).Error
	if err != nil {
		return nil, err
	}
	return meetings, nil
}

func (s *Store) LinkReadings(ctx context.Context, links []models.MeetingToReading) error {
	if len(links) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&links).Error
}

func (s *Store) UnlinkReading(ctx context.Context, meetingID, readingID uint) error {
	result := s.db.WithContext(ctx).
		Where("meeting_id = ? AND reading_id = ?", meetingID, readingID).
		Delete(&models.MeetingToReading{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type assignmentRow struct {
	MeetingToReadingID uint
	MeetingID          uint
	AssignmentType     *models.AssignmentType
	AssignmentStart    *string
	AssignmentEnd      *string
	ReadingID          uint
	Title              string
	Author             string
	Type               *models.ReadingType
	AvgRating          *float64
	CurrentlyReading   bool
	CreatedBy          *uint
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (s *Store) ReadingAssignments(ctx context.Context, meetingID uint) ([]ReadingAssignment, error) {
	var rows []assignmentRow
	err := s.db.WithContext(ctx).
		Table("meeting_to_readings AS mtr").
		Select(`mtr.id AS meeting_to_reading_id, mtr.meeting_id, mtr.assignment_type,
			mtr.assignment_start, mtr.assignment_end, r.id AS reading_id, r.title, r.author,
			r.type, r.avg_rating, r.currently_reading, r.created_by, r.created_at, r.updated_at`).
		Joins("JOIN readings AS r ON r.id = mtr.reading_id").
		Where("mtr.meeting_id = ?", meetingID).
		Order("mtr.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	assignments := make([]ReadingAssignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, ReadingAssignment{
			MeetingToReadingID: row.MeetingToReadingID,
			MeetingID:          row.MeetingID,
			AssignmentType:     row.AssignmentType,
			AssignmentStart:    row.AssignmentStart,
			AssignmentEnd:      row.AssignmentEnd,
			Reading: models.Reading{
				BaseModel: models.BaseModel{
					ID:        row.ReadingID,
					CreatedAt: row.CreatedAt,
					UpdatedAt: row.UpdatedAt,
				},
				Title:            row.Title,
				Author:           row.Author,
				Type:             row.Type,
				AvgRating:        row.AvgRating,
				CurrentlyReading: row.CurrentlyReading,
				CreatedBy:        row.CreatedBy,
			},
		})
	}
	return assignments, nil
}
