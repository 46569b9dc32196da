package database

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connection pool configuration
const (
	DefaultMaxIdleConns    = 10
	DefaultMaxOpenConns    = 100
	DefaultConnMaxLifetime = time.Hour
	DefaultConnMaxIdleTime = 10 * time.Minute
)

// sqlitePrefix selects the embedded SQLite driver, used for local runs and the
// one-shot ingest command. Everything else is handed to the Postgres driver.
const sqlitePrefix = "sqlite:"

// Connect opens the database named by databaseURL and configures the pool
func Connect(databaseURL, appEnv string) (*gorm.DB, error) {
	dialector, err := dialectorFor(databaseURL, appEnv)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := configureConnectionPool(db, isSQLite(databaseURL)); err != nil {
		return nil, err
	}

	slog.Info("Connected to database successfully", slog.Bool("sqlite", isSQLite(databaseURL)))
	return db, nil
}

func dialectorFor(databaseURL, appEnv string) (gorm.Dialector, error) {
	if isSQLite(databaseURL) {
		if appEnv == "production" {
			return nil, fmt.Errorf("sqlite is not allowed in production")
		}
		return sqlite.Open(strings.TrimPrefix(databaseURL, sqlitePrefix)), nil
	}
	if appEnv == "production" {
		if err := validateSSLMode(databaseURL); err != nil {
			return nil, err
		}
	}
	return postgres.Open(databaseURL), nil
}

func isSQLite(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, sqlitePrefix)
}

// validateSSLMode ensures SSL is enabled in production
func validateSSLMode(databaseURL string) error {
	if strings.Contains(databaseURL, "sslmode=disable") {
		return fmt.Errorf("SSL mode cannot be disabled in production")
	}
	return nil
}

// configureConnectionPool sets up connection pool limits
func configureConnectionPool(db *gorm.DB, singleWriter bool) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if singleWriter {
		sqlDB.SetMaxOpenConns(1)
		return nil
	}

	sqlDB.SetMaxIdleConns(DefaultMaxIdleConns)
	sqlDB.SetMaxOpenConns(DefaultMaxOpenConns)
	sqlDB.SetConnMaxLifetime(DefaultConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(DefaultConnMaxIdleTime)

	return nil
}

// Migrate runs auto-migration for all models
func Migrate(db *gorm.DB) error {
	slog.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.Tenant{},
		&models.Booking{},
		&models.ReviewMessage{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Database migrations completed successfully")
	return nil
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
