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

package tx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const _tracerName = "github.com/gobeans/beans/tx"

// Interceptor runs calls inside transactions obtained from a Manager.
//
// An Interceptor is safe for concurrent use; every call gets its own
// transaction.
type Interceptor struct {
	tm      Manager
	bean    string
	log     *zap.Logger
	tracer  trace.Tracer
	metrics *metrics
}

// NewInterceptor builds an Interceptor around tm.
func NewInterceptor(tm Manager, opts ...Option) (*Interceptor, error) {
	if tm == nil {
		return nil, errors.New("transaction manager must not be nil")
	}

	o := options{
		logger:  zap.NewNop(),
		tracers: noop.NewTracerProvider(),
	}
	for _, opt := range opts {
		opt.apply(&o)
	}

	m, err := newMetrics(o.registerer)
	if err != nil {
		return nil, err
	}

	return &Interceptor{
		tm:      tm,
		log:     o.logger,
		tracer:  o.tracers.Tracer(_tracerName),
		metrics: m,
	}, nil
}

// For returns a copy of the interceptor that labels its logs, spans and
// metrics with the given bean name.
func (i *Interceptor) For(bean string) *Interceptor {
	scoped := *i
	scoped.bean = bean
	scoped.log = i.log.With(zap.String("bean", bean))
	return &scoped
}

// Bean returns the bean name the interceptor was scoped to with For.
func (i *Interceptor) Bean() string { return i.bean }

// Invoke calls fn inside a new transaction.
//
// fn receives the transactional context returned by Manager.Begin. When fn
// succeeds the transaction is committed. When fn returns an error the
// transaction is rolled back and that exact error is returned. When fn
// panics the transaction is rolled back and the panic is resumed.
//
// A nil Interceptor calls fn directly, outside any transaction. This is what
// an Interceptable bean sees before the container hands it an interceptor.
func (i *Interceptor) Invoke(ctx context.Context, method string, fn func(context.Context) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if i == nil {
		return fn(ctx)
	}

	start := time.Now()
	ctx, span := i.tracer.Start(ctx, i.qualify(method),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("beans.bean", i.bean),
			attribute.String("beans.method", method),
		),
	)
	defer span.End()

	log := i.log.With(zap.String("method", method))
	if log.Core().Enabled(zap.DebugLevel) {
		log = log.With(zap.String("invocation", uuid.NewString()))
	}

	txCtx, err := i.tm.Begin(ctx)
	if err != nil {
		err = errors.Wrapf(err, "couldn't begin transaction for %s", i.qualify(method))
		i.metrics.observe(i.bean, method, OutcomeBeginError, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, "begin failed")
		return err
	}
	log.Debug("transaction begun")

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		i.rollback(txCtx, log)
		i.metrics.observe(i.bean, method, OutcomePanic, start)
		span.SetStatus(codes.Error, fmt.Sprintf("panic: %v", r))
		panic(r)
	}()

	if err := fn(txCtx); err != nil {
		i.rollback(txCtx, log)
		i.metrics.observe(i.bean, method, OutcomeRollback, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if cerr := i.tm.Commit(txCtx); cerr != nil {
		err = errors.Wrapf(cerr, "couldn't commit transaction for %s", i.qualify(method))
		if rerr := i.tm.Rollback(txCtx); rerr != nil {
			err = multierr.Append(err, errors.Wrapf(rerr, "couldn't roll back transaction for %s", i.qualify(method)))
		}
		i.metrics.observe(i.bean, method, OutcomeCommitError, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return err
	}

	log.Debug("transaction committed")
	i.metrics.observe(i.bean, method, OutcomeCommit, start)
	return nil
}

// MustInvoke is Invoke for methods that cannot report errors. Failures of
// the transaction boundary itself surface as panics.
func (i *Interceptor) MustInvoke(ctx context.Context, method string, fn func(context.Context)) {
	err := i.Invoke(ctx, method, func(ctx context.Context) error {
		fn(ctx)
		return nil
	})
	if err != nil {
		panic(err)
	}
}

// Call is Invoke for functions that return a result. The result is passed
// through unchanged.
func Call[R any](ctx context.Context, i *Interceptor, method string, fn func(context.Context) (R, error)) (R, error) {
	var out R
	err := i.Invoke(ctx, method, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

// rollback rolls back after a failed call. Its own failure is logged only:
// the caller must see the original failure.
func (i *Interceptor) rollback(ctx context.Context, log *zap.Logger) {
	if err := i.tm.Rollback(ctx); err != nil {
		log.Error("couldn't roll back transaction", zap.Error(err))
		return
	}
	log.Debug("transaction rolled back")
}

func (i *Interceptor) qualify(method string) string {
	if i.bean == "" {
		return method
	}
	return i.bean + "." + method
}
