package config

import (
	"fmt"

	"github.com/blousecraft/blousecraft-api/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

// ConnectDatabase opens the database selected by cfg.DBDriver
func ConnectDatabase(cfg *Config) error {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return err
	}

	// TranslateError maps unique violations to gorm.ErrDuplicatedKey for both drivers
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	DB = db
	logger.L().Info("database connection established", zap.String("driver", cfg.DBDriver))
	return nil
}

func dialectorFor(cfg *Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "postgres":
		return postgres.Open(cfg.DatabaseURL), nil
	case "sqlite":
		return sqlite.Open(cfg.DatabaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// SetDB sets the database instance (primarily for testing)
func SetDB(db *gorm.DB) {
	DB = db
}
