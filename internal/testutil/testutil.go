package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/abdabkim/webdevacademy/internal/infrastructure/clock"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/driver"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/logging"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/schema"
	"go.uber.org/zap/zaptest"
)

// Context background context carrying a logger bound to tb
func Context(tb testing.TB) context.Context {
	tb.Helper()
	return logging.SetLoggerInContext(context.Background(), zaptest.NewLogger(tb))
}

// DB fresh in-memory sqlite database with the schema applied, closed on cleanup
func DB(tb testing.TB) driver.ITransactionalDB {
	tb.Helper()

	conn, err := driver.GetDBConnection(&driver.DBConfig{Driver: driver.DriverSQLite, Schema: ":memory:"})
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	tb.Cleanup(func() { conn.Close(context.Background()) })

	if err := schema.Migrate(Context(tb), conn); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	return conn
}

// Clock fixed clock at the given UTC date and time
func Clock(year int, month time.Month, day, hour int) *clock.FixedClock {
	return clock.NewFixedClock(time.Date(year, month, day, hour, 0, 0, 0, time.UTC))
}
