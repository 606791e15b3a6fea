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

// Package txtest provides a recording transaction manager for tests.
package txtest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gobeans/beans/tx"
)

type txKey struct{}

// Manager is a tx.Manager that records every call made to it. Its
// transactions hold no resources.
//
// Set BeginErr, CommitErr or RollbackErr before use to make the matching
// call fail.
type Manager struct {
	BeginErr    error
	CommitErr   error
	RollbackErr error

	next      atomic.Int64
	begins    atomic.Int64
	commits   atomic.Int64
	rollbacks atomic.Int64

	mu    sync.Mutex
	calls []string
}

var _ tx.Manager = (*Manager)(nil)

// NewManager builds a Manager whose calls all succeed.
func NewManager() *Manager {
	return &Manager{}
}

// Begin records the call and returns a context carrying a fresh transaction
// id.
func (m *Manager) Begin(ctx context.Context) (context.Context, error) {
	m.begins.Add(1)
	m.record("begin")
	if m.BeginErr != nil {
		return ctx, m.BeginErr
	}
	return context.WithValue(ctx, txKey{}, m.next.Add(1)), nil
}

// Commit records the call.
func (m *Manager) Commit(ctx context.Context) error {
	m.commits.Add(1)
	m.record("commit")
	return m.CommitErr
}

// Rollback records the call.
func (m *Manager) Rollback(ctx context.Context) error {
	m.rollbacks.Add(1)
	m.record("rollback")
	return m.RollbackErr
}

// Begins returns the number of Begin calls.
func (m *Manager) Begins() int { return int(m.begins.Load()) }

// Commits returns the number of Commit calls.
func (m *Manager) Commits() int { return int(m.commits.Load()) }

// Rollbacks returns the number of Rollback calls.
func (m *Manager) Rollbacks() int { return int(m.rollbacks.Load()) }

// Calls returns the recorded calls in order: "begin", "commit" or
// "rollback".
func (m *Manager) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]string, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Reset forgets all recorded calls.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = m.calls[:0]
	m.begins.Store(0)
	m.commits.Store(0)
	m.rollbacks.Store(0)
}

func (m *Manager) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, call)
}

// TransactionID returns the id of the transaction carried by ctx.
func TransactionID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(txKey{}).(int64)
	return id, ok
}
