package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createPaymentsTestTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE payments (
		id TEXT PRIMARY KEY,
		order_code TEXT NOT NULL UNIQUE,
		idempotency_key TEXT NOT NULL UNIQUE,
		amount_cents INTEGER NOT NULL,
		currency TEXT NOT NULL,
		provider TEXT NOT NULL,
		provider_transaction_id TEXT NOT NULL UNIQUE,
		redirect_url TEXT,
		payment_url TEXT,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		completed_at DATETIME,
		failed_at DATETIME,
		cancelled_at DATETIME,
		metadata TEXT
	);`)
}

func createOutboxTestTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE outbox (
		id TEXT PRIMARY KEY,
		aggregate_id TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		event_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		published BOOLEAN NOT NULL DEFAULT 0,
		published_at DATETIME,
		retry_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		created_at DATETIME NOT NULL
	);`)
}
