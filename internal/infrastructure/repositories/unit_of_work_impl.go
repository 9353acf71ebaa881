package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	domainrepos "pay-chain.backend/internal/domain/repositories"
)

// GormTransaction wraps the *gorm.DB handle opened for one unit of work.
// Stores that accept a domainrepos.Transaction type-assert back to this
// concrete type to recover DB. This replaces the teacher's ambient
// context.WithValue threading: the handle is passed as an explicit
// argument end to end.
type GormTransaction struct {
	DB *gorm.DB
}

func (t *GormTransaction) Commit() error   { return t.DB.Commit().Error }
func (t *GormTransaction) Rollback() error { return t.DB.Rollback().Error }

// UnitOfWorkImpl implements UnitOfWork using GORM.
type UnitOfWorkImpl struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) domainrepos.UnitOfWork {
	return &UnitOfWorkImpl{db: db}
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) (domainrepos.Transaction, error) {
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}
	return &GormTransaction{DB: tx}, nil
}

// dbFor returns the *gorm.DB to issue a query against: the transaction's
// connection when tx is non-nil, the repository's own pooled connection
// otherwise. Every repository method that accepts a
// domainrepos.Transaction uses this helper instead of reading a value out
// of context.
func dbFor(fallback *gorm.DB, tx domainrepos.Transaction) *gorm.DB {
	if tx == nil {
		return fallback
	}
	gtx, ok := tx.(*GormTransaction)
	if !ok || gtx.DB == nil {
		return fallback
	}
	return gtx.DB
}
