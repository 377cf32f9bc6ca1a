package testutil

import (
	"os"
	"sync"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/unexbilletera/unex-api/internal/data/db"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a migrated, empty database. TEST_POSTGRES_DSN selects Postgres
// (tables are truncated before and after the test); otherwise an in-memory
// SQLite database private to the test is used.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	}

	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		conn, err := gorm.Open(postgres.Open(dsn), cfg)
		if err != nil {
			tb.Fatalf("open postgres: %v", err)
		}
		if err := db.AutoMigrateAll(conn); err != nil {
			tb.Fatalf("migrate postgres: %v", err)
		}
		truncate := func() error {
			return conn.Exec("TRUNCATE transactions, accounts, coelsa_webhook_events").Error
		}
		if err := truncate(); err != nil {
			tb.Fatalf("truncate: %v", err)
		}
		tb.Cleanup(func() { _ = truncate() })
		return conn
	}

	conn, err := gorm.Open(sqlite.Open(":memory:"), cfg)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		tb.Fatalf("sqlite handle: %v", err)
	}
	// Every connection to ":memory:" is a separate database.
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrateAll(conn); err != nil {
		tb.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}

func Tx(tb testing.TB, conn *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := conn.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}
