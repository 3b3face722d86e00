// Package storage is the persistence gateway: plain records in, plain
// records out, behind narrow interfaces that services depend on.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bookclub/api/internal/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdatePassword(ctx context.Context, id uint, hash string) error
}

type ReadingStore interface {
	CreateReading(ctx context.Context, reading *models.Reading) error
	ReadingByID(ctx context.Context, id uint) (*models.Reading, error)
	ReadingsByIDs(ctx context.Context, ids []uint) ([]models.Reading, error)
	UpdateReading(ctx context.Context, id uint, update ReadingUpdate) error
	DeleteReadings(ctx context.Context, ids []uint) error
	CurrentReadings(ctx context.Context) ([]models.Reading, error)
	PreviousReadings(ctx context.Context, cursor *time.Time, limit int) ([]models.Reading, error)
	SetAverageRating(ctx context.Context, id uint, avg *float64) error
}

type RatingStore interface {
	CreateRating(ctx context.Context, rating *models.Rating) error
	RatingByID(ctx context.Context, id uint) (*models.Rating, error)
	RatingsForReading(ctx context.Context, readingID uint) ([]models.Rating, error)
	UserRating(ctx context.Context, userID, readingID uint) (*models.Rating, error)
	UpdateRatingValue(ctx context.Context, id uint, value int) error
}

type MeetingStore interface {
	CreateMeeting(ctx context.Context, meeting *models.Meeting, links []models.MeetingToReading) error
	MeetingByID(ctx context.Context, id uint) (*models.Meeting, error)
	UpdateMeeting(ctx context.Context, id uint, update MeetingUpdate) error
	DeleteMeeting(ctx context.Context, id uint) error
	PageMeetings(ctx context.Context, cursor *time.Time, limit int) ([]models.Meeting, error)
	MeetingsBetween(ctx context.Context, from, to time.Time) ([]models.Meeting, error)
	CurrentReadingMeetings(ctx context.Context) ([]models.Meeting, error)
	LinkReadings(ctx context.Context, links []models.MeetingToReading) error
	UnlinkReading(ctx context.Context, meetingID, readingID uint) error
	ReadingAssignments(ctx context.Context, meetingID uint) ([]ReadingAssignment, error)
}

type AttendanceStore interface {
	AttendanceFor(ctx context.Context, meetingID, userID uint) (*models.Attendance, error)
	SaveAttendance(ctx context.Context, attendance *models.Attendance) error
	MeetingAttendance(ctx context.Context, meetingID uint) ([]UserAttendance, error)
}

// ReadingUpdate holds the fields a caller wants to change; nil means keep.
type ReadingUpdate struct {
	Title            *string
	Author           *string
	Type             *models.ReadingType
	CurrentlyReading *bool
}

func (u ReadingUpdate) columns() map[string]interface{} {
	updates := map[string]interface{}{}
	if u.Title != nil {
		updates["title"] = *u.Title
	}
	if u.Author != nil {
		updates["author"] = *u.Author
	}
	if u.Type != nil {
		updates["type"] = *u.Type
	}
	if u.CurrentlyReading != nil {
		updates["currently_reading"] = *u.CurrentlyReading
	}
	return updates
}

type MeetingUpdate struct {
	MeetingDate *time.Time
	MeetingLink *string
}

func (u MeetingUpdate) columns() map[string]interface{} {
	updates := map[string]interface{}{}
	if u.MeetingDate != nil {
		updates["meeting_date"] = u.MeetingDate.UTC()
	}
	if u.MeetingLink != nil {
		if strings.TrimSpace(*u.MeetingLink) == "" {
			updates["meeting_link"] = nil
		} else {
			updates["meeting_link"] = *u.MeetingLink
		}
	}
	return updates
}

// ReadingAssignment is the typed result of joining meeting_to_readings
// with readings for one meeting.
type ReadingAssignment struct {
	MeetingToReadingID uint
	MeetingID          uint
	Reading            models.Reading
	AssignmentType     *models.AssignmentType
	AssignmentStart    *string
	AssignmentEnd      *string
}

// UserAttendance is the typed result of joining attendance with users.
type UserAttendance struct {
	User               models.User
	AttendanceState    models.AttendanceState
	IsDiscussionLeader bool
}

// Store implements every store interface on top of GORM.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func findByID[T any](ctx context.Context, db *gorm.DB, id uint) (*T, error) {
	var record T
	if err := db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, translate(err)
	}
	return &record, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case IsDuplicate(err):
		return ErrDuplicate
	default:
		return err
	}
}

// IsDuplicate reports whether err is a unique constraint violation,
// for drivers that translate errors and for those that do not.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrDuplicate) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
