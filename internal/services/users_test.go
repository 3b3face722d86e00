package services

import (
	"context"
	"strings"
	"testing"

	"github.com/bookclub/api/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRegister(t *testing.T) {
	tests := []struct {
		name      string
		input     RegisterInput
		wantField string
		wantMsg   string
	}{
		{
			name:      "short email",
			input:     RegisterInput{Email: "ab", Password: "abcdef", Name: "Ann"},
			wantField: "email",
			wantMsg:   "Your email must be at least 3 characters long",
		},
		{
			name:      "email without at sign",
			input:     RegisterInput{Email: "abc.example.com", Password: "abcdef", Name: "Ann"},
			wantField: "email",
			wantMsg:   "You must enter a valid email",
		},
		{
			name:      "short password",
			input:     RegisterInput{Email: "ann@example.com", Password: "abcde", Name: "Ann"},
			wantField: "password",
			wantMsg:   "Your password must be at least 6 characters long",
		},
		{
			name:      "password longer than bcrypt accepts",
			input:     RegisterInput{Email: "ann@example.com", Password: strings.Repeat("a", 73), Name: "Ann"},
			wantField: "password",
			wantMsg:   "Your password must be at most 72 bytes long",
		},
		{
			name:      "missing name",
			input:     RegisterInput{Email: "ann@example.com", Password: "abcdef"},
			wantField: "name",
			wantMsg:   "You must include your name",
		},
		{
			name:      "only the first failure is reported",
			input:     RegisterInput{Email: "ab", Password: "x"},
			wantField: "email",
			wantMsg:   "Your email must be at least 3 characters long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateRegister(tt.input)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.wantField, errs[0].Field)
			assert.Equal(t, tt.wantMsg, errs[0].Message)
		})
	}

	assert.Nil(t, ValidateRegister(RegisterInput{Email: "ann@example.com", Password: "abcdef", Name: "Ann"}))
	assert.Nil(t, ValidateRegister(RegisterInput{Email: "ann@example.com", Password: strings.Repeat("a", 72), Name: "Ann"}))
}

func TestRegisterAndLogin(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	session := loggedOut()
	res, err := env.users.Register(ctx, session, RegisterInput{Email: "Ann@Example.com", Password: "secret1", Name: "Ann"})
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.NotNil(t, res.User)
	assert.Equal(t, "ann@example.com", res.User.Email)
	assert.NotEqual(t, "secret1", res.User.PasswordHash)
	id, ok := session.UserID()
	assert.True(t, ok)
	assert.Equal(t, res.User.ID, id)

	t.Run("duplicate email is a field error", func(t *testing.T) {
		dup, err := env.users.Register(ctx, loggedOut(), RegisterInput{Email: "ann@example.com", Password: "secret2", Name: "Other"})
		require.NoError(t, err)
		require.Len(t, dup.Errors, 1)
		assert.Equal(t, "email", dup.Errors[0].Field)
		assert.Nil(t, dup.User)
	})

	t.Run("login with wrong email", func(t *testing.T) {
		out, err := env.users.Login(ctx, loggedOut(), "nobody@example.com", "secret1")
		require.NoError(t, err)
		require.Len(t, out.Errors, 1)
		assert.Equal(t, "email", out.Errors[0].Field)
	})

	t.Run("login with wrong password", func(t *testing.T) {
		s := loggedOut()
		out, err := env.users.Login(ctx, s, "ann@example.com", "wrong-one")
		require.NoError(t, err)
		require.Len(t, out.Errors, 1)
		assert.Equal(t, "password", out.Errors[0].Field)
		_, ok := s.UserID()
		assert.False(t, ok)
	})

	t.Run("login succeeds case-insensitively", func(t *testing.T) {
		s := loggedOut()
		out, err := env.users.Login(ctx, s, "ANN@example.com", "secret1")
		require.NoError(t, err)
		require.NotNil(t, out.User)
		_, ok := s.UserID()
		assert.True(t, ok)

		me, err := env.users.Me(auth.WithSession(ctx, s))
		require.NoError(t, err)
		require.NotNil(t, me)
		assert.Equal(t, "Ann", me.Name)

		assert.True(t, env.users.Logout(s))
		me, err = env.users.Me(auth.WithSession(ctx, s))
		require.NoError(t, err)
		assert.Nil(t, me)
	})
}

func TestPasswordReset(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	reg, err := env.users.Register(ctx, loggedOut(), RegisterInput{Email: "ann@example.com", Password: "secret1", Name: "Ann"})
	require.NoError(t, err)

	assert.True(t, env.users.ForgotPassword(ctx, "unknown@example.com"))
	assert.Empty(t, env.mailer.link)

	assert.True(t, env.users.ForgotPassword(ctx, "ann@example.com"))
	require.NotEmpty(t, env.mailer.link)
	assert.Equal(t, "ann@example.com", env.mailer.email)
	token := strings.TrimPrefix(env.mailer.link, "http://localhost:3000/reset/")

	t.Run("short password", func(t *testing.T) {
		res, err := env.users.ChangePassword(ctx, loggedOut(), token, "abc")
		require.NoError(t, err)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "password", res.Errors[0].Field)
	})

	t.Run("password longer than bcrypt accepts", func(t *testing.T) {
		res, err := env.users.ChangePassword(ctx, loggedOut(), token, strings.Repeat("é", 40))
		require.NoError(t, err)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "password", res.Errors[0].Field)
		assert.Equal(t, "Your password must be at most 72 bytes long", res.Errors[0].Message)
	})

	t.Run("unknown token", func(t *testing.T) {
		res, err := env.users.ChangePassword(ctx, loggedOut(), "nope", "new-secret")
		require.NoError(t, err)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "token", res.Errors[0].Field)
		assert.Equal(t, "token expired", res.Errors[0].Message)
	})

	t.Run("valid token changes password once", func(t *testing.T) {
		s := loggedOut()
		res, err := env.users.ChangePassword(ctx, s, token, "new-secret")
		require.NoError(t, err)
		require.NotNil(t, res.User)
		id, ok := s.UserID()
		assert.True(t, ok)
		assert.Equal(t, reg.User.ID, id)

		again, err := env.users.ChangePassword(ctx, loggedOut(), token, "other-secret")
		require.NoError(t, err)
		require.Len(t, again.Errors, 1)
		assert.Equal(t, "token", again.Errors[0].Field)

		login, err := env.users.Login(ctx, loggedOut(), "ann@example.com", "new-secret")
		require.NoError(t, err)
		assert.NotNil(t, login.User)
	})
}

func TestAuditServiceWritesRows(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	userID := uint(3)
	resourceID := uint(9)
	env.audit.LogAsync(AuditEntry{
		UserID:       &userID,
		Action:       "reading.create",
		ResourceType: "reading",
		ResourceID:   &resourceID,
		Details:      map[string]interface{}{"title": "Emma"},
		IPAddress:    "127.0.0.1",
		RequestID:    "req-1",
	})
	require.NoError(t, env.audit.Close(ctx))

	rows, err := env.audit.Recent(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "reading.create", rows[0].Action)
	assert.Equal(t, "Emma", rows[0].Details["title"])
	require.NotNil(t, rows[0].ResourceID)
	assert.Equal(t, uint(9), *rows[0].ResourceID)
}

func TestAuditLogAsyncAfterCloseIsDropped(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	userID := uint(4)
	require.NoError(t, env.audit.Close(ctx))
	require.NoError(t, env.audit.Close(ctx))

	assert.NotPanics(t, func() {
		env.audit.LogAsync(AuditEntry{UserID: &userID, Action: "reading.delete", ResourceType: "reading"})
	})

	rows, err := env.audit.Recent(ctx, userID, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAuditRecentIsScopedToUser(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	ann, bob := uint(1), uint(2)
	env.audit.LogAsync(AuditEntry{UserID: &ann, Action: "reading.create", ResourceType: "reading"})
	env.audit.LogAsync(AuditEntry{UserID: &bob, Action: "meeting.create", ResourceType: "meeting"})
	require.NoError(t, env.audit.Close(ctx))

	rows, err := env.audit.Recent(ctx, ann, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "reading.create", rows[0].Action)
}
