package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bookclub/api/internal/models"
	"github.com/bookclub/api/internal/storage"
	"github.com/bookclub/api/pkg/utils"
)

type MeetingService struct {
	meetings storage.MeetingStore
	readings storage.ReadingStore
	now      func() time.Time
}

func NewMeetingService(meetings storage.MeetingStore, readings storage.ReadingStore) *MeetingService {
	return &MeetingService{meetings: meetings, readings: readings, now: time.Now}
}

// AssignmentInput links a reading to a meeting, optionally with the part
// to be read for it ("pages" 1 to 120, "acts" 1 to 3).
type AssignmentInput struct {
	ReadingID       uint
	AssignmentType  *models.AssignmentType
	AssignmentStart *string
	AssignmentEnd   *string
}

type MeetingInput struct {
	MeetingDate *time.Time
	MeetingLink *string
	Assignments []AssignmentInput
}

// links resolves the requested assignments to rows for existing readings;
// unknown reading ids and repeated ones are skipped.
func (s *MeetingService) links(ctx context.Context, meetingID uint, in []AssignmentInput, skip map[uint]bool) ([]models.MeetingToReading, error) {
	if len(in) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(in))
	for _, a := range in {
		if a.AssignmentType != nil && !a.AssignmentType.Valid() {
			return nil, fmt.Errorf("%w: unknown assignment type %q", ErrInvalidInput, *a.AssignmentType)
		}
		ids = append(ids, a.ReadingID)
	}

	readings, err := s.readings.ReadingsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	known := make(map[uint]bool, len(readings))
	for _, r := range readings {
		known[r.ID] = true
	}

	links := make([]models.MeetingToReading, 0, len(in))
	for _, a := range in {
		if !known[a.ReadingID] || skip[a.ReadingID] {
			continue
		}
		skip[a.ReadingID] = true
		links = append(links, models.MeetingToReading{
			MeetingID:       meetingID,
			ReadingID:       a.ReadingID,
			AssignmentType:  a.AssignmentType,
			AssignmentStart: a.AssignmentStart,
			AssignmentEnd:   a.AssignmentEnd,
		})
	}
	return links, nil
}

func (s *MeetingService) Create(ctx context.Context, in MeetingInput) (*models.Meeting, error) {
	if in.MeetingDate == nil {
		return nil, fmt.Errorf("%w: meetingDate is required", ErrInvalidInput)
	}

	links, err := s.links(ctx, 0, in.Assignments, map[uint]bool{})
	if err != nil {
		return nil, err
	}

	meeting := &models.Meeting{MeetingDate: in.MeetingDate.UTC()}
	if link := deref(in.MeetingLink); link != "" {
		meeting.MeetingLink = &link
	}
	if err := s.meetings.CreateMeeting(ctx, meeting, links); err != nil {
		return nil, err
	}
	return meeting, nil
}

// Update changes date and link and links any readings not yet assigned to
// the meeting. A missing meeting yields nil, nil.
func (s *MeetingService) Update(ctx context.Context, id uint, in MeetingInput) (*models.Meeting, error) {
	if _, err := s.meetings.MeetingByID(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if err := s.meetings.UpdateMeeting(ctx, id, storage.MeetingUpdate{
		MeetingDate: in.MeetingDate,
		MeetingLink: in.MeetingLink,
	}); err != nil {
		return nil, err
	}

	if len(in.Assignments) > 0 {
		existing, err := s.meetings.ReadingAssignments(ctx, id)
		if err != nil {
			return nil, err
		}
		linked := make(map[uint]bool, len(existing))
		for _, a := range existing {
			linked[a.Reading.ID] = true
		}
		links, err := s.links(ctx, id, in.Assignments, linked)
		if err != nil {
			return nil, err
		}
		if err := s.meetings.LinkReadings(ctx, links); err != nil {
			return nil, err
		}
	}

	return s.meetings.MeetingByID(ctx, id)
}

// Delete reports false when there was nothing to delete.
func (s *MeetingService) Delete(ctx context.Context, id uint) (bool, error) {
	err := s.meetings.DeleteMeeting(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *MeetingService) RemoveReading(ctx context.Context, meetingID, readingID uint) (bool, error) {
	err := s.meetings.UnlinkReading(ctx, meetingID, readingID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Get returns nil, nil for an unknown id.
func (s *MeetingService) Get(ctx context.Context, id uint) (*models.Meeting, error) {
	meeting, err := s.meetings.MeetingByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return meeting, err
}

func (s *MeetingService) Assignments(ctx context.Context, meetingID uint) ([]storage.ReadingAssignment, error) {
	return s.meetings.ReadingAssignments(ctx, meetingID)
}

func (s *MeetingService) CurrentReadingMeetings(ctx context.Context) ([]models.Meeting, error) {
	return s.meetings.CurrentReadingMeetings(ctx)
}

// Page lists meetings newest first, strictly before cursor when given.
func (s *MeetingService) Page(ctx context.Context, cursor *time.Time, limit int) (utils.CursorPage[models.Meeting], error) {
	limit = utils.ClampLimit(limit)
	meetings, err := s.meetings.PageMeetings(ctx, cursor, limit)
	if err != nil {
		return utils.CursorPage[models.Meeting]{}, err
	}

	page := utils.CursorPage[models.Meeting]{Items: meetings}
	if len(meetings) > 0 {
		page.PreviousCursor = utils.PreviousCursor(len(meetings), limit, meetings[len(meetings)-1].MeetingDate)
	}
	return page, nil
}

// ForMonth returns the meetings of the month containing cursor (or now).
// An empty month falls back to everything from two months before the
// reference up to now, so scrolling backwards skips empty months; scrolling
// forwards does not.
func (s *MeetingService) ForMonth(ctx context.Context, cursor *time.Time) (utils.CursorPage[models.Meeting], error) {
	reference := s.now().UTC()
	if cursor != nil {
		reference = cursor.UTC()
	}
	window := utils.NewMonthWindow(reference)

	fetched, err := s.meetings.MeetingsBetween(ctx, window.StartOfLastMonth, window.EndOfNextMonth)
	if err != nil {
		return utils.CursorPage[models.Meeting]{}, err
	}

	inMonth := make([]models.Meeting, 0, len(fetched))
	for _, m := range fetched {
		if window.InMonth(m.MeetingDate) {
			inMonth = append(inMonth, m)
		}
	}

	if len(inMonth) == 0 {
		widened, err := s.meetings.MeetingsBetween(ctx, window.TwoMonthsAgo, s.now().UTC())
		if err != nil {
			return utils.CursorPage[models.Meeting]{}, err
		}
		page := utils.CursorPage[models.Meeting]{Items: widened}
		for _, m := range widened {
			if m.MeetingDate.Before(window.StartOfLastMonth) {
				previous := window.TwoMonthsAgo
				page.PreviousCursor = &previous
				break
			}
		}
		return page, nil
	}

	page := utils.CursorPage[models.Meeting]{Items: inMonth}
	for _, m := range fetched {
		if m.MeetingDate.After(window.LastDay) && page.NextCursor == nil {
			next := window.StartOfNextMonth
			page.NextCursor = &next
		}
		if m.MeetingDate.Before(window.FirstDay) && page.PreviousCursor == nil {
			previous := window.StartOfLastMonth
			page.PreviousCursor = &previous
		}
	}
	return page, nil
}
