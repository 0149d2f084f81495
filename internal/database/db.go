package database

import (
	"context"
	"fmt"
	"time"

	"wastetracker/internal/config"
	"wastetracker/internal/logger"
	"wastetracker/internal/models"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const connectRetryInterval = 2 * time.Second

// Open connects to Postgres, retrying while the database comes up, and migrates the schema.
func Open(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	var db *gorm.DB

	attempt := 0
	err := backoff.Retry(
		func() error {
			attempt++
			var openErr error
			db, openErr = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
				Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
				TranslateError: true,
			})
			if openErr != nil {
				logger.Warnf(ctx, "database connection attempt %d failed: %v", attempt, openErr)
				return fmt.Errorf("gorm.Open: %w", openErr)
			}
			return nil
		},
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(connectRetryInterval), cfg.DBConnectRetries),
			ctx,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logger.Infof(ctx, "database connected after %d attempt(s), migration done", attempt)
	return db, nil
}

// Migrate creates or updates the tables of every persisted model.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.WasteEntry{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return nil
}
