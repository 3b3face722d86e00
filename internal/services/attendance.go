package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookclub/api/internal/models"
	"github.com/bookclub/api/internal/storage"
)

type AttendanceService struct {
	attendance storage.AttendanceStore
	users      storage.UserStore
	meetings   storage.MeetingStore
}

func NewAttendanceService(attendance storage.AttendanceStore, users storage.UserStore, meetings storage.MeetingStore) *AttendanceService {
	return &AttendanceService{attendance: attendance, users: users, meetings: meetings}
}

// Record creates or replaces the attendance row of userID at meetingID.
// The discussion leader flag carries over from the previous row unless
// leader is given. Unknown users or meetings yield nil, nil.
func (s *AttendanceService) Record(ctx context.Context, userID, meetingID uint, state *models.AttendanceState, leader *bool) (*models.Attendance, error) {
	if state != nil && !state.Valid() {
		return nil, fmt.Errorf("%w: unknown attendance state %q", ErrInvalidInput, *state)
	}

	existing, err := s.attendance.AttendanceFor(ctx, meetingID, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	if _, err := s.users.UserByID(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if _, err := s.meetings.MeetingByID(ctx, meetingID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	record := &models.Attendance{
		MeetingID:       meetingID,
		UserID:          userID,
		AttendanceState: models.AttendanceAbsent,
	}
	if state != nil {
		record.AttendanceState = *state
	}
	if existing != nil {
		record.IsDiscussionLeader = existing.IsDiscussionLeader
	}
	if leader != nil {
		record.IsDiscussionLeader = *leader
	}

	if err := s.attendance.SaveAttendance(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *AttendanceService) ForMeeting(ctx context.Context, meetingID uint) ([]storage.UserAttendance, error) {
	return s.attendance.MeetingAttendance(ctx, meetingID)
}
