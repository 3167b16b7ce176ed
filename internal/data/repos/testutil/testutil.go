package testutil

import (
	"os"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/agora-backend/internal/domain"
	"github.com/yungbote/agora-backend/internal/platform/logger"
)

// Logger builds a quiet test logger and registers its flush.
func Logger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

// DB opens the database under test. TEST_DATABASE_URL selects postgres;
// without it an in-memory sqlite database keeps repo tests runnable anywhere.
// The schema is migrated fresh either way.
func DB(t *testing.T) *gorm.DB {
	t.Helper()

	var (
		db  *gorm.DB
		err error
	)
	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		db, err = gorm.Open(sqlite.Open("file::memory:?cache=shared&_fk=1"), cfg)
	}
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	entities := []interface{}{
		&domain.Debate{},
		&domain.DebateAgent{},
		&domain.DebateRound{},
		&domain.DebateMessage{},
		&domain.RoundScore{},
		&domain.AudienceRequest{},
		&domain.AudienceVote{},
	}
	// Fresh schema per test run; order respects FK direction.
	for i := len(entities) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(entities[i]); err != nil {
			t.Fatalf("drop table: %v", err)
		}
	}
	if err := db.AutoMigrate(entities...); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// Tx runs the test inside a transaction rolled back on cleanup so cases do
// not see each other's rows.
func Tx(t *testing.T, db *gorm.DB) *gorm.DB {
	t.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() { tx.Rollback() })
	return tx
}
