package database

import (
	"fmt"
	"log/slog"
	"strings"

	"atlas/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// pragmas applied to every connection; foreign keys back the group
// ON DELETE SET NULL and busy_timeout lets concurrent writers queue.
// Transactions begin IMMEDIATE so a read-then-write transaction holds the
// write lock from the start instead of failing SQLITE_BUSY on upgrade.
const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"

// ParseLogLevel maps a config string to a GORM log level, defaulting to warn.
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Open connects to the SQLite database at path and migrates the schema.
// ":memory:" yields a private in-memory database held on a single connection.
func Open(path string, level logger.LogLevel) (*gorm.DB, error) {
	// glebarez/sqlite is a pure Go driver (no CGO required)
	dsn := path + "?" + pragmas
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	if path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("database handle: %w", err)
		}
		// every new connection would otherwise see an empty database
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the tables for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Task{},
	); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// InitDB initializes the global database connection and runs migrations
func InitDB(path string, level logger.LogLevel) error {
	db, err := Open(path, level)
	if err != nil {
		return err
	}
	DB = db
	slog.Info("database connected and migrated", "path", path)
	return nil
}

// GetDB returns the database connection
func GetDB() *gorm.DB {
	return DB
}

// Close releases the global connection pool.
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
