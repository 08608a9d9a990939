package infra

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/wallet/infra/migrations"
	"github.com/amirasaad/wallet/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDBConnection opens the Postgres pool and, when cfg.Migrate is set,
// brings the schema up to date.
func NewDBConnection(
	cfg *config.DB,
	appEnv string,
	log *slog.Logger,
) (*gorm.DB, error) {
	if cfg == nil || cfg.Url == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	var logMode logger.LogLevel
	if appEnv == "development" {
		logMode = logger.Info
	} else {
		logMode = logger.Silent
	}

	connection, err := gorm.Open(postgres.Open(cfg.Url), &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	if cfg.Migrate {
		if err := migrations.Up(sqlDB, log); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	return connection, nil
}
