package utils

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// MaxPageSize caps every cursor page regardless of the requested limit.
const MaxPageSize = 50

var ErrInvalidCursor = errors.New("cursor must be epoch milliseconds or RFC 3339")

// CursorPage is one slice of a newest-first listing.
type CursorPage[T any] struct {
	Items          []T
	PreviousCursor *time.Time
	NextCursor     *time.Time
}

// ClampLimit bounds limit to (0, MaxPageSize]; non-positive falls back to the maximum.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// ApplyCursor orders by column newest first and keeps rows strictly
// older than cursor.
func ApplyCursor(db *gorm.DB, column string, cursor *time.Time, limit int) *gorm.DB {
	db = db.Order(column + " DESC").Limit(ClampLimit(limit))
	if cursor != nil {
		db = db.Where(column+" < ?", cursor.UTC())
	}
	return db
}

// PreviousCursor is the timestamp of the last returned row, set only when
// the page came back short.
func PreviousCursor(returned, limit int, last time.Time) *time.Time {
	if returned == 0 || returned >= ClampLimit(limit) {
		return nil
	}
	cursor := last.UTC()
	return &cursor
}

// ParseCursor accepts epoch milliseconds or RFC 3339. An empty value
// means no cursor.
func ParseCursor(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		t := time.UnixMilli(ms).UTC()
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	t = t.UTC()
	return &t, nil
}

// FormatTimestamp renders t as epoch milliseconds, the wire format for dates.
func FormatTimestamp(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func FormatTimestampPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTimestamp(*t)
	return &s
}
