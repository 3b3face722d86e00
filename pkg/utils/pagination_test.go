package utils

import (
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func TestClampLimit(t *testing.T) {
	testCases := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "keeps small limit", limit: 10, want: 10},
		{name: "keeps maximum", limit: 50, want: 50},
		{name: "caps large limit", limit: 1000, want: 50},
		{name: "zero falls back to maximum", limit: 0, want: 50},
		{name: "negative falls back to maximum", limit: -3, want: 50},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClampLimit(tc.limit); got != tc.want {
				t.Fatalf("expected limit=%d, got %d", tc.want, got)
			}
		})
	}
}

func TestApplyCursor(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=test password=test dbname=test port=5432 sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatalf("failed to create dry-run gorm db: %v", err)
	}

	cursor := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	paged := ApplyCursor(db.Table("meetings"), "meeting_date", &cursor, 1000)

	limitClause, ok := paged.Statement.Clauses["LIMIT"]
	if !ok {
		t.Fatal("expected LIMIT clause to be set by ApplyCursor")
	}
	limitExpr, ok := limitClause.Expression.(clause.Limit)
	if !ok {
		t.Fatalf("expected LIMIT clause expression type %T, got %T", clause.Limit{}, limitClause.Expression)
	}
	if limitExpr.Limit == nil || *limitExpr.Limit != MaxPageSize {
		t.Fatalf("expected limit=%d, got %v", MaxPageSize, limitExpr.Limit)
	}

	if _, ok := paged.Statement.Clauses["WHERE"]; !ok {
		t.Fatal("expected WHERE clause for the cursor")
	}
	if _, ok := paged.Statement.Clauses["ORDER BY"]; !ok {
		t.Fatal("expected ORDER BY clause")
	}

	withoutCursor := ApplyCursor(db.Table("meetings"), "meeting_date", nil, 5)
	if _, ok := withoutCursor.Statement.Clauses["WHERE"]; ok {
		t.Fatal("expected no WHERE clause without a cursor")
	}
}

func TestPreviousCursor(t *testing.T) {
	last := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

	if got := PreviousCursor(3, 10, last); got == nil || !got.Equal(last) {
		t.Fatalf("expected cursor at last row for a short page, got %v", got)
	}
	if got := PreviousCursor(10, 10, last); got != nil {
		t.Fatalf("expected nil cursor for a full page, got %v", got)
	}
	if got := PreviousCursor(0, 10, last); got != nil {
		t.Fatalf("expected nil cursor for an empty page, got %v", got)
	}
	if got := PreviousCursor(50, 1000, last); got != nil {
		t.Fatalf("expected clamped limit to count as a full page, got %v", got)
	}
}

func TestParseCursor(t *testing.T) {
	t.Run("empty means no cursor", func(t *testing.T) {
		got, err := ParseCursor("  ")
		if err != nil || got != nil {
			t.Fatalf("expected nil cursor, got %v, %v", got, err)
		}
	})

	t.Run("epoch milliseconds", func(t *testing.T) {
		got, err := ParseCursor("1709251200000")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("rfc3339", func(t *testing.T) {
		got, err := ParseCursor("2024-03-01T02:00:00+02:00")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Location() != time.UTC || got.Hour() != 0 {
			t.Fatalf("expected UTC midnight, got %v", got)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := ParseCursor("last tuesday"); err != ErrInvalidCursor {
			t.Fatalf("expected ErrInvalidCursor, got %v", err)
		}
	})
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := FormatTimestamp(ts); got != "1709251200000" {
		t.Fatalf("expected epoch ms, got %s", got)
	}
	if FormatTimestampPtr(nil) != nil {
		t.Fatal("expected nil for nil time")
	}
}
