package services

import (
	"context"
	"testing"
	"time"

	"github.com/bookclub/api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 18, 30, 0, 0, time.UTC)
}

func TestMeetingsForMonthSkipsEmptyMonthsBackwards(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	// only month M-2 (January) has meetings; M is March
	first := env.createMeeting(t, day(2024, 1, 5))
	second := env.createMeeting(t, day(2024, 1, 25))

	cursor := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	page, err := env.meetings.ForMonth(ctx, &cursor)
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, second.ID, page.Items[0].ID)
	assert.Equal(t, first.ID, page.Items[1].ID)
	require.NotNil(t, page.PreviousCursor)
	assert.True(t, page.PreviousCursor.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, page.NextCursor)
}

func TestMeetingsForMonthEmptyWithoutOlderMeetings(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.createMeeting(t, day(2024, 2, 10))

	cursor := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	page, err := env.meetings.ForMonth(ctx, &cursor)
	require.NoError(t, err)

	assert.Len(t, page.Items, 1)
	assert.Nil(t, page.PreviousCursor)
	assert.Nil(t, page.NextCursor)
}

func TestMeetingsForMonthWithNeighbours(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.createMeeting(t, day(2024, 2, 20))
	march := env.createMeeting(t, day(2024, 3, 12))
	lastInstant := env.createMeeting(t, time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC))
	env.createMeeting(t, day(2024, 4, 2))
	env.createMeeting(t, day(2024, 6, 1))

	cursor := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	page, err := env.meetings.ForMonth(ctx, &cursor)
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, lastInstant.ID, page.Items[0].ID)
	assert.Equal(t, march.ID, page.Items[1].ID)
	require.NotNil(t, page.NextCursor)
	assert.True(t, page.NextCursor.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, page.PreviousCursor)
	assert.True(t, page.PreviousCursor.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestMeetingsForMonthWidenedSetRunsUpToNow(t *testing.T) {
	env := setupTestEnv(t)
	env.meetings.now = func() time.Time { return day(2024, 5, 20) }

	january := env.createMeeting(t, day(2024, 1, 8))
	april := env.createMeeting(t, day(2024, 4, 10))
	env.createMeeting(t, day(2024, 6, 2))

	cursor := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	page, err := env.meetings.ForMonth(context.Background(), &cursor)
	require.NoError(t, err)

	require.Len(t, page.Items, 2, "meetings after now stay out of the widened set")
	assert.Equal(t, april.ID, page.Items[0].ID)
	assert.Equal(t, january.ID, page.Items[1].ID)
	require.NotNil(t, page.PreviousCursor)
	assert.True(t, page.PreviousCursor.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestMeetingsForMonthDefaultsToNow(t *testing.T) {
	env := setupTestEnv(t)
	env.meetings.now = func() time.Time { return day(2024, 5, 14) }
	may := env.createMeeting(t, day(2024, 5, 3))

	page, err := env.meetings.ForMonth(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, may.ID, page.Items[0].ID)
	assert.Nil(t, page.NextCursor)
	assert.Nil(t, page.PreviousCursor)
}

func TestMeetingPage(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	var created []*models.Meeting
	for i := 0; i < 55; i++ {
		created = append(created, env.createMeeting(t, base.Add(time.Duration(i)*24*time.Hour)))
	}

	page, err := env.meetings.Page(ctx, nil, 1000)
	require.NoError(t, err)
	assert.Len(t, page.Items, 50)
	assert.Nil(t, page.PreviousCursor)
	assert.Equal(t, created[54].ID, page.Items[0].ID)

	cursor := created[3].MeetingDate
	page, err = env.meetings.Page(ctx, &cursor, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	for _, m := range page.Items {
		assert.True(t, m.MeetingDate.Before(cursor))
	}
	require.NotNil(t, page.PreviousCursor)
	assert.True(t, page.PreviousCursor.Equal(created[0].MeetingDate))
}

func TestMeetingAssignmentsLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	hamlet := env.createReading(t, "Hamlet")
	emma := env.createReading(t, "Emma")

	acts := models.AssignmentTypeActs
	start, end := "1", "2"
	at := day(2024, 3, 3)
	link := "https://meet.example.com/club"
	meeting, err := env.meetings.Create(ctx, MeetingInput{
		MeetingDate: &at,
		MeetingLink: &link,
		Assignments: []AssignmentInput{
			{ReadingID: hamlet.ID, AssignmentType: &acts, AssignmentStart: &start, AssignmentEnd: &end},
			{ReadingID: 999},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, meeting.MeetingLink)

	assignments, err := env.meetings.Assignments(ctx, meeting.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 1, "unknown reading ids are skipped")
	assert.Equal(t, "Hamlet", assignments[0].Reading.Title)

	later := day(2024, 3, 10)
	updated, err := env.meetings.Update(ctx, meeting.ID, MeetingInput{
		MeetingDate: &later,
		Assignments: []AssignmentInput{{ReadingID: hamlet.ID}, {ReadingID: emma.ID}},
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.True(t, updated.MeetingDate.Equal(later))

	assignments, err = env.meetings.Assignments(ctx, meeting.ID)
	require.NoError(t, err)
	assert.Len(t, assignments, 2)

	current, err := env.meetings.CurrentReadingMeetings(ctx)
	require.NoError(t, err)
	assert.Len(t, current, 1)

	removed, err := env.meetings.RemoveReading(ctx, meeting.ID, emma.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = env.meetings.RemoveReading(ctx, meeting.ID, emma.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	deleted, err := env.meetings.Delete(ctx, meeting.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = env.meetings.Delete(ctx, meeting.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	missing, err := env.meetings.Update(ctx, meeting.ID, MeetingInput{MeetingDate: &later})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMeetingCreateValidation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.meetings.Create(ctx, MeetingInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	reading := env.createReading(t, "Emma")
	at := day(2024, 1, 1)
	verses := models.AssignmentType("verses")
	_, err = env.meetings.Create(ctx, MeetingInput{
		MeetingDate: &at,
		Assignments: []AssignmentInput{{ReadingID: reading.ID, AssignmentType: &verses}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
