package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/goalie-study/goalie-backend/internal/types"
)

var testDBCounter atomic.Int64

// NewTestDB opens an in-memory SQLite database with the full schema
// migrated. Each call returns an isolated database; it is released when the
// test completes.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A named shared-cache DSN keeps every pooled connection on the same
	// in-memory database; the counter isolates tests from each other.
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access test database pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&types.User{},
		&types.Goal{},
		&types.Task{},
		&types.Reflection{},
		&types.ReflectionResponse{},
		&types.ReflectionDraft{},
		&types.UserSession{},
		&types.ChatMessage{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}
