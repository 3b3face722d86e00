package services

import (
	"context"
	"testing"
	"time"

	"github.com/bookclub/api/internal/auth"
	"github.com/bookclub/api/internal/database"
	"github.com/bookclub/api/internal/kv"
	"github.com/bookclub/api/internal/models"
	"github.com/bookclub/api/internal/storage"
	"github.com/bookclub/api/pkg/logger"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db         *gorm.DB
	store      *storage.Store
	kv         *kv.DB
	ratings    *RatingService
	readings   *ReadingService
	meetings   *MeetingService
	attendance *AttendanceService
	users      *UserService
	mailer     *recordingMailer
	audit      *AuditService
}

type recordingMailer struct {
	email string
	link  string
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, email, link string) error {
	m.email = email
	m.link = link
	return nil
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger.Init()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))

	kvDB, err := kv.Open(kv.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kvDB.Close() })

	store := storage.New(db)
	mailer := &recordingMailer{}
	audit := NewAuditService(db)
	t.Cleanup(func() { _ = audit.Close(context.Background()) })

	return &testEnv{
		db:         db,
		store:      store,
		kv:         kvDB,
		ratings:    NewRatingService(store, store),
		readings:   NewReadingService(store),
		meetings:   NewMeetingService(store, store),
		attendance: NewAttendanceService(store, store, store),
		users:      NewUserService(store, kv.NewResetTokens(kvDB), mailer, "http://localhost:3000/reset/"),
		mailer:     mailer,
		audit:      audit,
	}
}

func (e *testEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Name: "Reader", PasswordHash: "x"}
	require.NoError(t, e.store.CreateUser(context.Background(), user))
	return user
}

func (e *testEnv) createReading(t *testing.T, title string) *models.Reading {
	t.Helper()
	author := "Author"
	reading, err := e.readings.Create(context.Background(), 1, ReadingInput{Title: &title, Author: &author})
	require.NoError(t, err)
	return reading
}

func (e *testEnv) createMeeting(t *testing.T, at time.Time) *models.Meeting {
	t.Helper()
	meeting, err := e.meetings.Create(context.Background(), MeetingInput{MeetingDate: &at})
	require.NoError(t, err)
	return meeting
}

func loggedOut() *auth.MemorySession {
	return &auth.MemorySession{}
}
