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

// Package tx puts method calls inside transaction boundaries.
//
// A Manager owns the transactional resources. An Interceptor drives a
// Manager around each call: it begins a transaction, runs the call with the
// transactional context, and commits when the call succeeds. When the call
// returns an error the transaction is rolled back and that same error is
// returned, unwrapped. When the call panics the transaction is rolled back
// and the panic continues with the same value.
//
// Decorators written for a contract forward every method through the
// interceptor:
//
//	type transferServiceTx struct {
//	  target TransferService
//	  tx     *tx.Interceptor
//	}
//
//	func (d *transferServiceTx) Transfer(ctx context.Context, from, to string, amount int64) error {
//	  return d.tx.Invoke(ctx, "Transfer", func(ctx context.Context) error {
//	    return d.target.Transfer(ctx, from, to, amount)
//	  })
//	}
package tx
