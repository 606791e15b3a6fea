// Copyright (c) 2021 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package sqltx implements tx.Manager on top of database/sql.
//
// The transaction begun for a call travels in the context returned by
// Begin. Code running inside the call reaches it with Conn:
//
//	func (d *AccountDAO) Update(ctx context.Context, a *Account) error {
//	  _, err := sqltx.Conn(ctx, d.DB).ExecContext(ctx, "UPDATE ...")
//	  return err
//	}
//
// A Begin on a context that already carries a transaction joins it. The
// joined call commits nothing; its rollback marks the outer transaction as
// rollback-only, so the outer commit rolls back instead and reports
// ErrRollbackOnly. Rolling back a transaction that already ended is a no-op.
package sqltx

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/gobeans/beans/tx"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	// ErrNoTransaction is returned by Commit and Rollback when the context
	// carries no transaction.
	ErrNoTransaction = errors.New("no transaction in context")

	// ErrRollbackOnly is returned by the outermost Commit when a joined call
	// rolled back.
	ErrRollbackOnly = errors.New("transaction was marked rollback-only")
)

// Querier is the subset of *sql.DB and *sql.Tx used to run statements.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

type txKey struct{}

type transaction struct {
	tx           *sql.Tx
	rollbackOnly atomic.Bool
}

type binding struct {
	txn   *transaction
	owner bool
}

// Manager is a tx.Manager for a *sql.DB.
type Manager struct {
	db   *sql.DB
	opts *sql.TxOptions
	log  *zap.Logger
}

var _ tx.Manager = (*Manager)(nil)

// An Option configures a Manager.
type Option func(*Manager)

// WithTxOptions sets the options used to begin transactions.
func WithTxOptions(opts *sql.TxOptions) Option {
	return func(m *Manager) {
		m.opts = opts
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// New builds a Manager for db.
func New(db *sql.DB, opts ...Option) *Manager {
	m := &Manager{db: db, log: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DB returns the underlying database.
func (m *Manager) DB() *sql.DB { return m.db }

// Begin starts a transaction, or joins the one already carried by ctx.
func (m *Manager) Begin(ctx context.Context) (context.Context, error) {
	if b, ok := bound(ctx); ok {
		return context.WithValue(ctx, txKey{}, &binding{txn: b.txn}), nil
	}

	sqlTx, err := m.db.BeginTx(ctx, m.opts)
	if err != nil {
		return ctx, errors.Wrap(err, "couldn't begin sql transaction")
	}
	return context.WithValue(ctx, txKey{}, &binding{txn: &transaction{tx: sqlTx}, owner: true}), nil
}

// Commit commits the transaction carried by ctx. A joined call commits
// nothing.
func (m *Manager) Commit(ctx context.Context) error {
	b, ok := bound(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !b.owner {
		return nil
	}

	if b.txn.rollbackOnly.Load() {
		m.log.Warn("rolling back transaction marked rollback-only")
		err := ErrRollbackOnly
		if rerr := b.txn.tx.Rollback(); rerr != nil {
			err = multierr.Append(err, rerr)
		}
		return err
	}
	return b.txn.tx.Commit()
}

// Rollback rolls back the transaction carried by ctx. A joined call only
// marks the outer transaction as rollback-only. A transaction that already
// ended, such as after a failed Commit, has nothing left to roll back.
func (m *Manager) Rollback(ctx context.Context) error {
	b, ok := bound(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !b.owner {
		b.txn.rollbackOnly.Store(true)
		return nil
	}
	if err := b.txn.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// Conn returns the transaction carried by ctx, or db when there is none.
func Conn(ctx context.Context, db *sql.DB) Querier {
	if b, ok := bound(ctx); ok {
		return b.txn.tx
	}
	return db
}

// InTransaction reports whether ctx carries a transaction.
func InTransaction(ctx context.Context) bool {
	_, ok := bound(ctx)
	return ok
}

func bound(ctx context.Context) (*binding, bool) {
	if ctx == nil {
		return nil, false
	}
	b, ok := ctx.Value(txKey{}).(*binding)
	return b, ok
}
