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

// Command beangen writes the registration code of the components declared
// in a source tree.
//
// Components are marked in the doc comment of their type:
//
//	// DefaultOrderService places orders.
//	//
//	//beans:component orderService
//	//beans:transactional OrderService
//	type DefaultOrderService struct {
//	  Payment Payment `inject:""`
//	}
//
// The optional argument of beans:component is the bean name. Fields tagged
// inject are declared as dependencies. beans:transactional puts the bean
// behind a transaction interceptor: with an interface of the same package
// as argument, a decorator implementing it is generated; without one, the
// bean must implement tx.Interceptable.
//
// For every package holding components, beangen writes zz_beans_gen.go,
// registering them with the default catalog from an init function.
//
// Usage:
//
//	beangen [-o zz_beans_gen.go] [-v] [dir ...]
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const _defaultOutput = "zz_beans_gen.go"

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("beangen", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: beangen [flags] [dir ...]\n")
		flags.PrintDefaults()
	}
	output := flags.String("o", _defaultOutput, "name of the file generated in each package")
	verbose := flags.Bool("v", false, "log every package visited")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	dirs := flags.Args()
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	log := newLogger(stderr, *verbose)
	defer log.Sync() //nolint:errcheck

	g := generator{log: log, output: *output}
	failed := false
	for _, dir := range dirs {
		if err := g.Walk(dir); err != nil {
			log.Error("generation failed", zap.String("dir", dir), zap.Error(err))
			failed = true
		}
	}
	if failed {
		return 1
	}
	return 0
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = ""
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), level))
}
