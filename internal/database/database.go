package database

import (
	"fmt"
	"time"

	"github.com/bookclub/api/internal/config"
	"github.com/bookclub/api/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormConfig is shared by every connection so timestamps written by
// GORM compare the same way across drivers: UTC, millisecond precision.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC().Truncate(time.Millisecond)
		},
	}
}

func Open(cfg config.DBConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "postgres", "":
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.Name,
			cfg.SSLMode,
		)
		return gorm.Open(postgres.Open(dsn), GormConfig())
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(cfg.Path), GormConfig())
		if err != nil {
			return nil, err
		}
		// SQLite allows a single writer.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Connect opens the database and brings the schema up to date.
func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Reading{},
		&models.Rating{},
		&models.Meeting{},
		&models.MeetingToReading{},
		&models.Attendance{},
		&models.AuditLog{},
	)
}
