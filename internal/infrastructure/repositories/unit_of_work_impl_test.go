package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_BeginCommitRollback(t *testing.T) {
	db := newTestDB(t)
	createOutboxTestTable(t, db)
	u := NewUnitOfWork(db)

	tx, err := u.Begin(context.Background())
	require.NoError(t, err)
	gtx := tx.(*GormTransaction)
	require.NoError(t, gtx.DB.Exec("INSERT INTO outbox(id, aggregate_id, aggregate_type, event_type, payload, published, retry_count, created_at) VALUES ('o1','p1','Payment','PaymentCompleted','{}',0,0,datetime('now'))").Error)
	require.NoError(t, tx.Commit())

	var count int64
	require.NoError(t, db.Table("outbox").Count(&count).Error)
	require.Equal(t, int64(1), count)

	tx2, err := u.Begin(context.Background())
	require.NoError(t, err)
	gtx2 := tx2.(*GormTransaction)
	require.NoError(t, gtx2.DB.Exec("INSERT INTO outbox(id, aggregate_id, aggregate_type, event_type, payload, published, retry_count, created_at) VALUES ('o2','p1','Payment','PaymentCompleted','{}',0,0,datetime('now'))").Error)
	require.NoError(t, tx2.Rollback())

	require.NoError(t, db.Table("outbox").Count(&count).Error)
	require.Equal(t, int64(1), count, "rolled-back insert must not persist")
}

func TestUnitOfWork_BeginFailure(t *testing.T) {
	db := newTestDB(t)
	u := NewUnitOfWork(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = u.Begin(context.Background())
	require.Error(t, err)
}

func TestDbFor_FallsBackWithoutTransaction(t *testing.T) {
	db := newTestDB(t)
	require.Equal(t, db, dbFor(db, nil))
}
