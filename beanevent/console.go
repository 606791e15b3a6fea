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
	"fmt"
	"io"
	"strings"
)

// ConsoleLogger is a container event logger that attempts to write
// human-readable messages to the console.
//
// Use this during development.
type ConsoleLogger struct {
	W io.Writer
}

var _ Logger = (*ConsoleLogger)(nil)

func (l *ConsoleLogger) logf(msg string, args ...interface{}) {
	fmt.Fprintf(l.W, "[Beans] "+msg+"\n", args...)
}

// LogEvent logs the given event to the provided writer.
func (l *ConsoleLogger) LogEvent(event Event) {
	switch e := event.(type) {
	case *Scanned:
		l.logf("SCAN\t\t%s: %s", e.Root, strings.Join(e.Beans, ", "))
	case *EntrySkipped:
		if e.Err != nil {
			l.logf("SKIP\t\t%s registered at %s: %v", e.TypeName, e.Source, e.Err)
		} else {
			l.logf("SKIP\t\t%s: %s", e.TypeName, e.Reason)
		}
	case *Supplied:
		l.logf("SUPPLY\t%s <= %s", e.Name, e.TypeName)
	case *Allocated:
		l.logf("ALLOCATE\t%s <= %s", e.Name, e.TypeName)
	case *Injected:
		if e.Early {
			l.logf("INJECT\t%s.%s <= %s (early reference)", e.Name, e.Field, e.Dependency)
		} else {
			l.logf("INJECT\t%s.%s <= %s", e.Name, e.Field, e.Dependency)
		}
	case *Ready:
		l.logf("READY\t\t%s", e.Name)
	case *Proxied:
		l.logf("PROXY\t\t%s (%s)", e.Name, e.Strategy)
	case *Frozen:
		l.logf("FROZEN\t%d beans", e.Beans)
	case *BuildFailed:
		l.logf("ERROR\t\tFailed to build: %v", e.Err)
	}
}
