package repositories

import "context"

// Transaction is an explicit capability handle for a single atomic unit
// of work. It carries no store-specific behavior of its own; stores that
// accept a Transaction parameter type-assert it to their own concrete
// implementation to recover the underlying connection. This is the
// transaction-threading model SPEC_FULL.md §9 requires: the engine opens
// the transaction and passes it as an argument to every store call that
// must participate in it. It is never read out of a context.
type Transaction interface {
	Commit() error
	Rollback() error
}

// UnitOfWork opens Transactions. The Lifecycle Engine is the only caller.
type UnitOfWork interface {
	Begin(ctx context.Context) (Transaction, error)
}
