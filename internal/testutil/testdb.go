package testutil

import (
	"path/filepath"
	"testing"

	"atlas/internal/auth"
	"atlas/internal/database"
	"atlas/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewInMemoryDB creates an in-memory SQLite DB and runs migrations.
func NewInMemoryDB() (*gorm.DB, error) {
	return database.Open(":memory:", logger.Silent)
}

// MustInMemoryDB is NewInMemoryDB for tests, also installed as the global DB
// the handlers read from.
func MustInMemoryDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := NewInMemoryDB()
	if err != nil {
		t.Fatalf("in-memory db: %v", err)
	}
	database.DB = db
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// MustFileDB opens a migrated database file under t.TempDir() with the
// normal connection pool, for tests that need real concurrent connections.
func MustFileDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "atlas.db"), logger.Silent)
	if err != nil {
		t.Fatalf("file db: %v", err)
	}
	database.DB = db
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SeedUser inserts a user with a real bcrypt hash of password.
func SeedUser(t testing.TB, db *gorm.DB, username, password string) models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := models.User{Username: username, PasswordHash: hash}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

// SeedTask inserts a task owned by userID.
func SeedTask(t testing.TB, db *gorm.DB, userID uint, title string) models.Task {
	t.Helper()
	task := models.Task{
		UserID:   userID,
		Title:    title,
		Priority: models.PriorityMedium,
		Status:   models.StatusPending,
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("seed task %s: %v", title, err)
	}
	return task
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// StrPtr returns a pointer to v.
func StrPtr(v string) *string { return &v }
