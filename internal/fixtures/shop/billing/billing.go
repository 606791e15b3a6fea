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

// Package billing is nested below the shop package, so scanning the shop
// also finds its components.
package billing

import (
	"context"
	"sync"
)

// Ledger records sales.
type Ledger interface {
	Record(ctx context.Context, receipt string, amount int64) error
}

// MemoryLedger keeps sales in memory.
//
//beans:component
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[string]int64
}

// Record stores amount under receipt.
func (l *MemoryLedger) Record(_ context.Context, receipt string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.entries == nil {
		l.entries = make(map[string]int64)
	}
	l.entries[receipt] = amount
	return nil
}

// Total returns the sum of the recorded amounts.
func (l *MemoryLedger) Total() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total int64
	for _, amount := range l.entries {
		total += amount
	}
	return total
}
