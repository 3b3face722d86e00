package database

import (
	"testing"

	"github.com/bookclub/api/internal/config"
	"github.com/bookclub/api/internal/models"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(config.DBConfig{Driver: "oracle"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestConnectSQLiteMigratesSchema(t *testing.T) {
	db, err := Connect(config.DBConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, model := range []interface{}{
		&models.User{},
		&models.Reading{},
		&models.Rating{},
		&models.Meeting{},
		&models.MeetingToReading{},
		&models.Attendance{},
		&models.AuditLog{},
	} {
		if !db.Migrator().HasTable(model) {
			t.Errorf("expected table for %T", model)
		}
	}

	if !db.Migrator().HasIndex(&models.Rating{}, "idx_rating_user_reading") {
		t.Error("expected unique rating index")
	}
}

func TestGormConfigTruncatesToMilliseconds(t *testing.T) {
	now := GormConfig().NowFunc()
	if now.Location().String() != "UTC" {
		t.Errorf("expected UTC, got %s", now.Location())
	}
	if now.Nanosecond()%1e6 != 0 {
		t.Errorf("expected millisecond precision, got %d ns", now.Nanosecond())
	}
}
