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

// Package beantest helps tests build containers.
package beantest

import (
	"strings"

	"github.com/gobeans/beans"
	"github.com/gobeans/beans/beanevent"
)

// TB is a subset of the standard library's testing.TB interface. It's
// satisfied by both *testing.T and *testing.B.
type TB interface {
	Logf(string, ...interface{})
	Errorf(string, ...interface{})
	FailNow()
}

// New builds a container whose events are written to the test log. It fails
// the test if the container cannot be built.
func New(t TB, opts ...beans.Option) *beans.Container {
	opts = append([]beans.Option{
		beans.WithEventLogger(&beanevent.ConsoleLogger{W: testWriter{t}}),
	}, opts...)

	c, err := beans.New(opts...)
	if err != nil {
		t.Errorf("container didn't build: %+v", err)
		t.FailNow()
	}
	return c
}

// Get returns the named bean as a T, failing the test if there is no such
// bean or it has another type.
func Get[T any](t TB, c *beans.Container, name string) T {
	v, err := beans.Get[T](c, name)
	if err != nil {
		t.Errorf("couldn't get bean: %v", err)
		t.FailNow()
	}
	return v
}

type testWriter struct{ t TB }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Logf("%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
