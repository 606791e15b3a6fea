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

package tx_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gobeans/beans/tx"
	"github.com/gobeans/beans/tx/txtest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newInterceptor(t *testing.T, m tx.Manager, opts ...tx.Option) *tx.Interceptor {
	t.Helper()

	i, err := tx.NewInterceptor(m, opts...)
	require.NoError(t, err)
	return i.For("orderService")
}

func TestNewInterceptorNilManager(t *testing.T) {
	_, err := tx.NewInterceptor(nil)
	require.Error(t, err)
}

func TestInvoke(t *testing.T) {
	t.Run("success commits", func(t *testing.T) {
		m := txtest.NewManager()
		i := newInterceptor(t, m)

		var inTx bool
		err := i.Invoke(context.Background(), "Place", func(ctx context.Context) error {
			_, inTx = txtest.TransactionID(ctx)
			return nil
		})

		require.NoError(t, err)
		assert.True(t, inTx, "call must run with the transactional context")
		assert.Equal(t, 1, m.Commits())
		assert.Zero(t, m.Rollbacks())
		assert.Equal(t, []string{"begin", "commit"}, m.Calls())
	})

	t.Run("failure rolls back and returns the same error", func(t *testing.T) {
		m := txtest.NewManager()
		i := newInterceptor(t, m)

		giveErr := errors.New("out of stock")
		err := i.Invoke(context.Background(), "Place", func(context.Context) error {
			return giveErr
		})

		assert.Same(t, giveErr, err)
		assert.Zero(t, m.Commits())
		assert.Equal(t, 1, m.Rollbacks())
		assert.Equal(t, []string{"begin", "rollback"}, m.Calls())
	})

	t.Run("rollback failure keeps the original error", func(t *testing.T) {
		core, logs := observer.New(zapcore.ErrorLevel)
		m := txtest.NewManager()
		m.RollbackErr = errors.New("connection reset")
		i := newInterceptor(t, m, tx.WithLogger(zap.New(core)))

		giveErr := errors.New("out of stock")
		err := i.Invoke(context.Background(), "Place", func(context.Context) error {
			return giveErr
		})

		assert.Same(t, giveErr, err)
		entries := logs.FilterMessage("couldn't roll back transaction").AllUntimed()
		require.Len(t, entries, 1)
		assert.Equal(t, "orderService", entries[0].ContextMap()["bean"])
		assert.Equal(t, "Place", entries[0].ContextMap()["method"])
		assert.Equal(t, "connection reset", entries[0].ContextMap()["error"])
	})

	t.Run("panic rolls back and panics again", func(t *testing.T) {
		m := txtest.NewManager()
		i := newInterceptor(t, m)

		assert.PanicsWithValue(t, "great sadness", func() {
			_ = i.Invoke(context.Background(), "Place", func(context.Context) error {
				panic("great sadness")
			})
		})
		assert.Equal(t, []string{"begin", "rollback"}, m.Calls())
	})

	t.Run("begin failure skips the call", func(t *testing.T) {
		m := txtest.NewManager()
		m.BeginErr = errors.New("pool exhausted")
		i := newInterceptor(t, m)

		called := false
		err := i.Invoke(context.Background(), "Place", func(context.Context) error {
			called = true
			return nil
		})

		require.Error(t, err)
		assert.False(t, called)
		assert.True(t, errors.Is(err, m.BeginErr))
		assert.Contains(t, err.Error(), "couldn't begin transaction for orderService.Place")
		assert.Equal(t, []string{"begin"}, m.Calls())
	})

	t.Run("commit failure rolls back", func(t *testing.T) {
		m := txtest.NewManager()
		m.CommitErr = errors.New("serialization failure")
		m.RollbackErr = errors.New("connection reset")
		i := newInterceptor(t, m)

		err := i.Invoke(context.Background(), "Place", func(context.Context) error { return nil })

		require.Error(t, err)
		assert.True(t, errors.Is(err, m.CommitErr))
		assert.True(t, errors.Is(err, m.RollbackErr))
		assert.Equal(t, []string{"begin", "commit", "rollback"}, m.Calls())
	})

	t.Run("nil context", func(t *testing.T) {
		m := txtest.NewManager()
		i := newInterceptor(t, m)

		err := i.Invoke(nil, "Place", func(ctx context.Context) error { //nolint:staticcheck // nil contexts are tolerated
			assert.NotNil(t, ctx)
			return nil
		})
		require.NoError(t, err)
	})
}

func TestMustInvoke(t *testing.T) {
	m := txtest.NewManager()
	i := newInterceptor(t, m)

	ran := false
	i.MustInvoke(context.Background(), "Touch", func(context.Context) { ran = true })
	assert.True(t, ran)
	assert.Equal(t, 1, m.Commits())

	m.CommitErr = errors.New("disk full")
	assert.Panics(t, func() {
		i.MustInvoke(context.Background(), "Touch", func(context.Context) {})
	})
}

func TestCall(t *testing.T) {
	t.Run("result is passed through", func(t *testing.T) {
		m := txtest.NewManager()
		i := newInterceptor(t, m)

		got, err := tx.Call(context.Background(), i, "Place", func(context.Context) (string, error) {
			return "order-42", nil
		})

		require.NoError(t, err)
		assert.Equal(t, "order-42", got)
		assert.Equal(t, 1, m.Commits())
		assert.Zero(t, m.Rollbacks())
	})

	t.Run("error is passed through", func(t *testing.T) {
		m := txtest.NewManager()
		i := newInterceptor(t, m)

		giveErr := errors.New("card declined")
		_, err := tx.Call(context.Background(), i, "Place", func(context.Context) (string, error) {
			return "", giveErr
		})

		assert.Same(t, giveErr, err)
		assert.Zero(t, m.Commits())
		assert.Equal(t, 1, m.Rollbacks())
	})
}

func TestConcurrentCallsGetTheirOwnTransaction(t *testing.T) {
	m := txtest.NewManager()
	i := newInterceptor(t, m)

	const n = 20
	var (
		mu  sync.Mutex
		ids = make(map[int64]struct{})
		wg  sync.WaitGroup
	)
	for k := 0; k < n; k++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := i.Invoke(context.Background(), "Place", func(ctx context.Context) error {
				id, _ := txtest.TransactionID(ctx)
				mu.Lock()
				ids[id] = struct{}{}
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, ids, n)
	assert.Equal(t, n, m.Commits())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m := txtest.NewManager()
	i := newInterceptor(t, m, tx.WithRegisterer(reg))

	require.NoError(t, i.Invoke(context.Background(), "Place", func(context.Context) error { return nil }))
	_ = i.Invoke(context.Background(), "Place", func(context.Context) error { return errors.New("nope") })
	_ = i.Invoke(context.Background(), "Place", func(context.Context) error { return errors.New("nope") })

	// A second interceptor on the same registry shares the collectors.
	other := newInterceptor(t, m, tx.WithRegisterer(reg))
	require.NoError(t, other.Invoke(context.Background(), "Cancel", func(context.Context) error { return nil }))

	durations, err := testutil.GatherAndCount(reg, "beans_tx_call_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, durations)

	calls, err := testutil.GatherAndCount(reg, "beans_tx_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestMetricsRegistrationConflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "beans",
		Subsystem: "tx",
		Name:      "calls_total",
		Help:      "Something else entirely.",
	})))

	_, err := tx.NewInterceptor(txtest.NewManager(), tx.WithRegisterer(reg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "couldn't register transaction metrics")
}

func TestTracing(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { assert.NoError(t, tp.Shutdown(context.Background())) }()

	i := newInterceptor(t, txtest.NewManager(), tx.WithTracerProvider(tp))

	require.NoError(t, i.Invoke(context.Background(), "Place", func(context.Context) error { return nil }))
	_ = i.Invoke(context.Background(), "Cancel", func(context.Context) error { return errors.New("too late") })

	spans := rec.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "orderService.Place", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, "orderService.Cancel", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "too late", spans[1].Status().Description)
}

func TestUnscopedInterceptor(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { assert.NoError(t, tp.Shutdown(context.Background())) }()

	i, err := tx.NewInterceptor(txtest.NewManager(), tx.WithTracerProvider(tp))
	require.NoError(t, err)
	assert.Equal(t, "", i.Bean())
	assert.Equal(t, "orderService", i.For("orderService").Bean())

	require.NoError(t, i.Invoke(context.Background(), "Place", func(context.Context) error { return nil }))
	require.Len(t, rec.Ended(), 1)
	assert.Equal(t, "Place", rec.Ended()[0].Name())
}

func TestNilInterceptorCallsDirectly(t *testing.T) {
	var i *tx.Interceptor

	ran := false
	require.NoError(t, i.Invoke(context.Background(), "Place", func(context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)

	giveErr := errors.New("card declined")
	_, err := tx.Call(context.Background(), i, "Place", func(context.Context) (int, error) {
		return 0, giveErr
	})
	assert.Same(t, giveErr, err)

	assert.Panics(t, func() {
		i.MustInvoke(context.Background(), "Touch", func(context.Context) { panic("boom") })
	})
}
