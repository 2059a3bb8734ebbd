// Package store provides the single atomic-scope abstraction shared by all
// repositories. A transaction processor invocation opens one scope; every
// ledger and batch mutation inside it commits or rolls back together.
package store

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Querier is the subset of sqlx satisfied by both *sqlx.DB and *sqlx.Tx, so
// repository methods run unchanged inside or outside an atomic scope.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// Atomic runs fn inside one atomic unit of work. If the context already
// carries a scope, fn joins it instead of opening a nested one, so the
// count-sheet approval can emit adjustment transactions inside its own scope.
type Atomic interface {
	Within(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

type hooksKey struct{}

type hookList struct {
	fns []func()
}

// WithCommitHooks attaches a fresh hook list to a root scope's context.
func WithCommitHooks(ctx context.Context) (context.Context, *hookList) {
	h := &hookList{}
	return context.WithValue(ctx, hooksKey{}, h), h
}

// OnCommit registers fn to run after the enclosing root scope commits.
// A scope that rolls back never runs its hooks. It reports whether a scope
// was open; callers without one dispatch immediately instead.
func OnCommit(ctx context.Context, fn func()) bool {
	h, ok := ctx.Value(hooksKey{}).(*hookList)
	if !ok {
		return false
	}
	h.fns = append(h.fns, fn)
	return true
}

// Run fires the registered hooks in order.
func (h *hookList) Run() {
	for _, fn := range h.fns {
		fn()
	}
}

// SQLAtomic implements Atomic over a sqlx database transaction carried in
// the context.
type SQLAtomic struct {
	DB *sqlx.DB
}

func NewSQLAtomic(db *sqlx.DB) *SQLAtomic {
	return &SQLAtomic{DB: db}
}

func (a *SQLAtomic) Within(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := a.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ctx, hooks := WithCommitHooks(context.WithValue(ctx, txKey{}, tx))
	if err := fn(ctx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	hooks.Run()
	return nil
}

// InScope reports whether the context is already inside an atomic scope.
func InScope(ctx context.Context) bool {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return true
	}
	return inMemTx(ctx)
}

// QuerierFrom returns the scope's transaction when one is open, otherwise
// the bare connection pool.
func QuerierFrom(ctx context.Context, db *sqlx.DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}
