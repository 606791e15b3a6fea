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

package beanlog

import (
	"testing"

	"github.com/gobeans/beans/beanevent"
	"github.com/stretchr/testify/assert"
)

func TestSpy(t *testing.T) {
	var s Spy

	t.Run("empty spy", func(t *testing.T) {
		assert.Empty(t, s.Events(), "events must be empty")
		assert.Empty(t, s.EventTypes(), "event types must be empty")
	})

	s.LogEvent(&beanevent.Allocated{Name: "a"})
	t.Run("captures events", func(t *testing.T) {
		assert.Equal(t, "a", s.Events()[0].(*beanevent.Allocated).Name)
	})

	s.LogEvent(&beanevent.Ready{Name: "a"})
	t.Run("event types", func(t *testing.T) {
		assert.Equal(t, []string{"Allocated", "Ready"}, s.EventTypes())
	})

	s.Reset()
	t.Run("reset", func(t *testing.T) {
		assert.Empty(t, s.Events(), "events must be empty")
		assert.Empty(t, s.EventTypes(), "event types must be empty")
	})
}
