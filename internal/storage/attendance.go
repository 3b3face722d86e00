package storage

import (
	"context"
	"time"

	"github.com/bookclub/api/internal/models"
	"gorm.io/gorm/clause"
)

func (s *Store) AttendanceFor(ctx context.Context, meetingID, userID uint) (*models.Attendance, error) {
	var attendance models.Attendance
	err := s.db.WithContext(ctx).
		Where("meeting_id = ? AND user_id = ?", meetingID, userID).
		First(&attendance).Error
	if err != nil {
		return nil, translate(err)
	}
	return &attendance, nil
}

// SaveAttendance inserts the row or overwrites the existing one for the
// same (meeting, user) pair.
func (s *Store) SaveAttendance(ctx context.Context, attendance *models.Attendance) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "meeting_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"attendance_state", "is_discussion_leader"}),
		}).
		Create(attendance).Error
}

type attendanceRow struct {
	UserID             uint
	Email              string
	Name               string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	AttendanceState    models.AttendanceState
	IsDiscussionLeader bool
}

func (s *Store) MeetingAttendance(ctx context.Context, meetingID uint) ([]UserAttendance, error) {
	var rows []attendanceRow
	err := s.db.WithContext(ctx).
		Table("attendance AS a").
		Select(`u.id AS user_id, u.email, u.name, u.created_at, u.updated_at,
			a.attendance_state, a.is_discussion_leader`).
		Joins("JOIN users AS u ON u.id = a.user_id").
		Where("a.meeting_id = ?", meetingID).
		Order("u.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]UserAttendance, 0, len(rows))
	for _, row := range rows {
		result = append(result, UserAttendance{
			User: models.User{
				BaseModel: models.BaseModel{ID: row.UserID, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt},
				Email:     row.Email,
				Name:      row.Name,
			},
			AttendanceState:    row.AttendanceState,
			IsDiscussionLeader: row.IsDiscussionLeader,
		})
	}
	return result, nil
}
