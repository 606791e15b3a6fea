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
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded for intercepted calls.
const (
	OutcomeCommit      = "commit"
	OutcomeRollback    = "rollback"
	OutcomePanic       = "panic"
	OutcomeBeginError  = "begin_error"
	OutcomeCommitError = "commit_error"
)

type metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}

	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "beans",
		Subsystem: "tx",
		Name:      "calls_total",
		Help:      "Intercepted calls by bean, method and transaction outcome.",
	}, []string{"bean", "method", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "beans",
		Subsystem: "tx",
		Name:      "call_duration_seconds",
		Help:      "Time spent in intercepted calls, transaction boundaries included.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"bean", "method"})

	var err error
	if calls, err = register(reg, calls); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &metrics{calls: calls, duration: duration}, nil
}

// register registers c, reusing the collector already registered under the
// same descriptor so that several interceptors can share a registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, errors.Wrap(err, "couldn't register transaction metrics")
	}
	return c, nil
}

func (m *metrics) observe(bean, method, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(bean, method, outcome).Inc()
	m.duration.WithLabelValues(bean, method).Observe(time.Since(start).Seconds())
}
