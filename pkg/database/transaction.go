package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
)

type TxContextKey string

const txKey = TxContextKey("tx-context-key")

// ErrRollbackOnly is returned by Commit when a caller sharing the transaction rolled it back.
var ErrRollbackOnly = errors.New("transaction was marked for rollback")

type Tx interface {
	Querier
	IsOpen() bool
	// IsOwner reports whether this handle began the transaction and therefore finishes it.
	IsOwner() bool
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	// OnRollback registers work that undoes side effects outside the database
	// when the transaction does not commit.
	OnRollback(fn func(ctx context.Context))
}

// Transaction wraps sqlx.Tx. The handle returned by the GetTx call that began the
// transaction owns it; later GetTx calls on the same context get a shared handle
// whose Commit is deferred to the owner.
type Transaction struct {
	*sqlx.Tx
	logger       ectologger.Logger
	isClosed     bool
	rollbackOnly bool
	onRollback   []func(ctx context.Context)
}

func NewTx(tx *sqlx.Tx, logger ectologger.Logger) *Transaction {
	return &Transaction{
		Tx:     tx,
		logger: logger,
	}
}

func GetTx(ctx context.Context, logger ectologger.Logger, db DB, opts *sql.TxOptions) (context.Context, Tx, error) {
	if owner := txFromContext(ctx); owner != nil {
		return ctx, &sharedTx{Transaction: owner}, nil
	}

	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Errorf("error while beginning transaction")
		return ctx, nil, fmt.Errorf("error while beginning transaction")
	}

	newTx := NewTx(tx, logger)

	ctx = context.WithValue(ctx, txKey, newTx)
	return ctx, newTx, nil
}

func txFromContext(ctx context.Context) *Transaction {
	tx, ok := ctx.Value(txKey).(*Transaction)
	if !ok || tx == nil || !tx.IsOpen() {
		return nil
	}
	return tx
}

func (t *Transaction) IsOpen() bool {
	return !t.isClosed
}

func (t *Transaction) IsOwner() bool {
	return true
}

func (t *Transaction) OnRollback(fn func(ctx context.Context)) {
	t.onRollback = append(t.onRollback, fn)
}

// runRollbackHooks runs the hooks newest first, ignoring cancellation of ctx.
func (t *Transaction) runRollbackHooks(ctx context.Context) {
	hooks := t.onRollback
	t.onRollback = nil
	ctx = context.WithoutCancel(ctx)
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i](ctx)
	}
}

// OnRollback registers fn on the transaction bound to ctx. It reports false
// when no transaction is open.
func OnRollback(ctx context.Context, fn func(ctx context.Context)) bool {
	tx := txFromContext(ctx)
	if tx == nil {
		return false
	}
	tx.OnRollback(fn)
	return true
}

func (t *Transaction) Rollback(ctx context.Context) error {
	if t.isClosed {
		return nil
	}

	err := t.Tx.Rollback()
	t.isClosed = true
	t.runRollbackHooks(ctx)
	if err != nil {
		t.logger.WithContext(ctx).WithError(err).Errorf("error while rolling back transaction")
		return fmt.Errorf("error while rolling back transaction")
	}

	return nil
}

func (t *Transaction) Commit(ctx context.Context) error {
	if t.isClosed {
		return nil
	}

	if t.rollbackOnly {
		if err := t.Rollback(ctx); err != nil {
			return err
		}
		return ErrRollbackOnly
	}

	err := t.Tx.Commit()
	t.isClosed = true
	if err != nil {
		t.runRollbackHooks(ctx)
		t.logger.WithContext(ctx).WithError(err).Errorf("error while committing transaction")
		return fmt.Errorf("error while committing transaction")
	}
	t.onRollback = nil

	return nil
}

// sharedTx is handed to nested callers. Commit marks the nested unit done;
// Rollback before that poisons the owner so its Commit fails.
type sharedTx struct {
	*Transaction
	done bool
}

func (s *sharedTx) IsOwner() bool {
	return false
}

func (s *sharedTx) Commit(_ context.Context) error {
	if s.Transaction.rollbackOnly {
		return ErrRollbackOnly
	}
	s.done = true
	return nil
}

func (s *sharedTx) Rollback(_ context.Context) error {
	if s.done || s.Transaction.isClosed {
		return nil
	}
	s.done = true
	s.Transaction.rollbackOnly = true
	return nil
}
