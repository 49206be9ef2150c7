package database

import (
	"fmt"

	"scan-review-service/internal/domain/entity"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteConnection opens a SQLite database for local development and tests.
// The schema is created with AutoMigrate instead of the SQL migrations.
func NewSQLiteConnection(path string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logLevel),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// SQLite allows a single writer; an in-memory database also lives on one connection
	sqlDB.SetMaxOpenConns(1)

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	logrus.Infof("Successfully opened SQLite database at %s", path)

	return db, nil
}

// AutoMigrate creates the schema from the entity definitions
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entity.Profile{},
		&entity.Report{},
		&entity.DoctorAnalysis{},
		&entity.AuditLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
