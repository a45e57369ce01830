package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"studiodash/internal"
	"studiodash/internal/attendance"
	"studiodash/internal/config"
	"studiodash/internal/database"
)

// TestAPIKey is the bearer token accepted by the minimal test app.
const TestAPIKey = "test-api-key"

// testDBCache caches test databases by root test name so that subtests and
// setup helpers share the same database.
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager.
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

var _ cartridge.DBManager = (*TestDBManager)(nil)

// SetupTestDB creates a named in-memory database with every model migrated.
// cache=shared lets the pool's connections see the same data.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	rootName := t.Name()
	if idx := strings.Index(rootName, "/"); idx > 0 {
		rootName = rootName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", rootName, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")

	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager returns a DB manager over a fresh test database. It
// refuses to run outside the test environment.
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	t.Helper()

	cfg := TestConfig(t)
	if cfg.Environment != config.Test {
		t.Fatalf("CRITICAL: Tests must run in test environment! Current: %s. Set STUDIODASH_ENV=test", cfg.Environment)
	}

	return NewTestDBManager(SetupTestDB(t)), GetLogger()
}

// TestConfig forces the test environment and returns a fresh config.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()

	if os.Getenv("STUDIODASH_ENV") != string(config.Test) {
		t.Setenv("STUDIODASH_ENV", string(config.Test))
		config.Reset()
		t.Cleanup(config.Reset)
	}
	return config.GetConfig()
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// NewRecord builds a record with the categorical fields most tests vary.
func NewRecord(class, day, slot, location, instructor string, checkins int, revenue int64) attendance.Record {
	return attendance.Record{
		ClassType:  class,
		DayOfWeek:  day,
		TimeSlot:   slot,
		Location:   location,
		Instructor: instructor,
		Checkins:   checkins,
		Revenue:    decimal.NewFromInt(revenue),
	}
}

// SampleRecords is a small, hand-checked data set.
func SampleRecords() []attendance.Record {
	collapsed := NewRecord("Spin", "Wednesday", "18:00", "Andheri", "Cleo", 9, 450)
	collapsed.Occurrences = []attendance.Occurrence{
		{Checkins: 4, Revenue: decimal.NewFromInt(200)},
		{Checkins: 0, Revenue: decimal.Zero},
		{Checkins: 5, Revenue: decimal.NewFromInt(250)},
	}

	return []attendance.Record{
		NewRecord("Yoga", "Monday", "07:00", "Bandra", "Ana", 10, 1000),
		NewRecord("Yoga", "Monday", "07:00", "Bandra", "Ana", 0, 0),
		NewRecord("HIIT", "Tuesday", "19:00", "Bandra", "Ben", 5, 500),
		collapsed,
	}
}

// CreateTestBatch stores records under a new batch and returns it.
func CreateTestBatch(t *testing.T, db *gorm.DB, filename string, records []attendance.Record) attendance.ImportBatch {
	t.Helper()

	batch := attendance.ImportBatch{Filename: filename, Format: "csv"}
	require.NoError(t, attendance.CreateBatch(db, &batch, records))
	return batch
}

// CreateMinimalTestApp creates a test Fiber app with all routes mounted.
func CreateMinimalTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	appConfig := TestConfig(t)
	appConfig.APIKey = TestAPIKey

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = GetLogger()
	cfg.DBManager = NewTestDBManager(db)
	cfg.EnableSecFetchSite = false

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	internal.MountAppRoutes(srv)
	return srv.App()
}
