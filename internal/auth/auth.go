// Package auth carries the caller's session through request contexts.
package auth

import (
	"context"
	"strconv"
)

// Session is the per-request view of the cookie session.
type Session interface {
	UserID() (uint, bool)
	Login(userID uint) error
	Logout() error
}

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Extensions is picked up by the GraphQL error formatter.
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.Code}
}

var ErrNotAuthenticated = &Error{Code: "UNAUTHENTICATED", Message: "not authenticated"}

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok && s != nil
}

func CurrentUserID(ctx context.Context) (uint, bool) {
	s, ok := SessionFrom(ctx)
	if !ok {
		return 0, false
	}
	return s.UserID()
}

// RequireUser returns the signed in user id or ErrNotAuthenticated.
func RequireUser(ctx context.Context) (uint, error) {
	id, ok := CurrentUserID(ctx)
	if !ok {
		return 0, ErrNotAuthenticated
	}
	return id, nil
}

// UserLabel renders the user id for log entries; empty when anonymous.
func UserLabel(ctx context.Context) string {
	id, ok := CurrentUserID(ctx)
	if !ok {
		return ""
	}
	return strconv.FormatUint(uint64(id), 10)
}

// MemorySession is a Session kept in memory, for callers outside HTTP.
type MemorySession struct {
	ID       uint
	LoggedIn bool
}

func (m *MemorySession) UserID() (uint, bool) {
	return m.ID, m.LoggedIn
}

func (m *MemorySession) Login(userID uint) error {
	m.ID = userID
	m.LoggedIn = true
	return nil
}

func (m *MemorySession) Logout() error {
	m.ID = 0
	m.LoggedIn = false
	return nil
}
