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
	"go.uber.org/zap"
)

// ZapLogger is a container event logger that logs events to Zap.
type ZapLogger struct {
	Logger *zap.Logger
}

var _ Logger = (*ZapLogger)(nil)

// LogEvent logs the given event to the provided Zap logger.
func (l *ZapLogger) LogEvent(event Event) {
	switch e := event.(type) {
	case *Scanned:
		l.Logger.Info("scanned",
			zap.String("root", e.Root),
			zap.Strings("beans", e.Beans),
		)
	case *EntrySkipped:
		if e.Err != nil {
			l.Logger.Warn("skipped corrupt entry",
				zap.String("type", e.TypeName),
				zap.String("source", e.Source),
				zap.Error(e.Err),
			)
		} else {
			l.Logger.Debug("skipped entry",
				zap.String("type", e.TypeName),
				zap.String("reason", e.Reason),
			)
		}
	case *Supplied:
		l.Logger.Info("supplied",
			zap.String("bean", e.Name),
			zap.String("type", e.TypeName),
		)
	case *Allocated:
		l.Logger.Debug("allocated",
			zap.String("bean", e.Name),
			zap.String("type", e.TypeName),
		)
	case *Injected:
		l.Logger.Debug("injected",
			zap.String("bean", e.Name),
			zap.String("field", e.Field),
			zap.String("dependency", e.Dependency),
			zap.Bool("early", e.Early),
		)
	case *Ready:
		l.Logger.Info("ready", zap.String("bean", e.Name))
	case *Proxied:
		l.Logger.Info("proxied",
			zap.String("bean", e.Name),
			zap.String("strategy", e.Strategy),
		)
	case *Frozen:
		l.Logger.Info("frozen", zap.Int("beans", e.Beans))
	case *BuildFailed:
		l.Logger.Error("build failed", zap.Error(e.Err))
	}
}
