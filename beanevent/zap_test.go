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

package beanevent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger(t *testing.T) {
	t.Parallel()

	someError := errors.New("some error")

	tests := []struct {
		name        string
		give        Event
		wantLevel   zapcore.Level
		wantMessage string
		wantFields  map[string]interface{}
	}{
		{
			name:        "Scanned",
			give:        &Scanned{Root: "example.com/app", Beans: []string{"a", "b"}},
			wantLevel:   zapcore.InfoLevel,
			wantMessage: "scanned",
			wantFields: map[string]interface{}{
				"root":  "example.com/app",
				"beans": []interface{}{"a", "b"},
			},
		},
		{
			name: "EntrySkipped corrupt",
			give: &EntrySkipped{
				TypeName: "*app.Broken",
				Source:   "app.init.0 (app.go:12)",
				Err:      someError,
			},
			wantLevel:   zapcore.WarnLevel,
			wantMessage: "skipped corrupt entry",
			wantFields: map[string]interface{}{
				"type":   "*app.Broken",
				"source": "app.init.0 (app.go:12)",
				"error":  "some error",
			},
		},
		{
			name:        "EntrySkipped abstract",
			give:        &EntrySkipped{TypeName: "app.Store", Reason: "abstract type"},
			wantLevel:   zapcore.DebugLevel,
			wantMessage: "skipped entry",
			wantFields: map[string]interface{}{
				"type":   "app.Store",
				"reason": "abstract type",
			},
		},
		{
			name:        "Supplied",
			give:        &Supplied{Name: "db", TypeName: "*sql.DB"},
			wantLevel:   zapcore.InfoLevel,
			wantMessage: "supplied",
			wantFields: map[string]interface{}{
				"bean": "db",
				"type": "*sql.DB",
			},
		},
		{
			name:        "Allocated",
			give:        &Allocated{Name: "orderService", TypeName: "*app.OrderService"},
			wantLevel:   zapcore.DebugLevel,
			wantMessage: "allocated",
			wantFields: map[string]interface{}{
				"bean": "orderService",
				"type": "*app.OrderService",
			},
		},
		{
			name:        "Injected",
			give:        &Injected{Name: "a", Field: "B", Dependency: "b", Early: true},
			wantLevel:   zapcore.DebugLevel,
			wantMessage: "injected",
			wantFields: map[string]interface{}{
				"bean":       "a",
				"field":      "B",
				"dependency": "b",
				"early":      true,
			},
		},
		{
			name:        "Ready",
			give:        &Ready{Name: "a"},
			wantLevel:   zapcore.InfoLevel,
			wantMessage: "ready",
			wantFields:  map[string]interface{}{"bean": "a"},
		},
		{
			name:        "Proxied",
			give:        &Proxied{Name: "orderService", Strategy: "interface"},
			wantLevel:   zapcore.InfoLevel,
			wantMessage: "proxied",
			wantFields: map[string]interface{}{
				"bean":     "orderService",
				"strategy": "interface",
			},
		},
		{
			name:        "Frozen",
			give:        &Frozen{Beans: 3},
			wantLevel:   zapcore.InfoLevel,
			wantMessage: "frozen",
			wantFields:  map[string]interface{}{"beans": int64(3)},
		},
		{
			name:        "BuildFailed",
			give:        &BuildFailed{Err: someError},
			wantLevel:   zapcore.ErrorLevel,
			wantMessage: "build failed",
			wantFields:  map[string]interface{}{"error": "some error"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, observedLogs := observer.New(zap.DebugLevel)
			(&ZapLogger{Logger: zap.New(core)}).LogEvent(tt.give)

			logs := observedLogs.TakeAll()
			require.Len(t, logs, 1)
			got := logs[0]

			assert.Equal(t, tt.wantLevel, got.Level)
			assert.Equal(t, tt.wantMessage, got.Message)
			assert.Equal(t, tt.wantFields, got.ContextMap())
		})
	}
}
