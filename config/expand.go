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

package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// expander returns the lookup used for expansion, or nil when expansion is
// disabled.
func (o *yamlOptions) expander() (LookupFunc, error) {
	if o.lookup == nil && len(o.envFiles) == 0 {
		return nil, nil
	}

	dotenv := make(map[string]string)
	for _, path := range o.envFiles {
		vars, err := godotenv.Read(path)
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't read env file %s", path)
		}
		for k, v := range vars {
			if _, ok := dotenv[k]; !ok {
				dotenv[k] = v
			}
		}
	}

	primary := o.lookup
	return func(key string) (string, bool) {
		if primary != nil {
			if v, ok := primary(key); ok {
				return v, true
			}
		}
		v, ok := dotenv[key]
		return v, ok
	}, nil
}

// expand replaces ${VAR} and ${VAR:default} references in raw.
func expand(raw []byte, lookup LookupFunc) ([]byte, error) {
	var errs error
	out := os.Expand(string(raw), func(ref string) string {
		if ref == "$" {
			return "$"
		}

		name, def, hasDefault := strings.Cut(ref, ":")
		if v, ok := lookup(name); ok {
			return v
		}
		if hasDefault {
			return def
		}
		errs = multierr.Append(errs, errors.Errorf("variable %q is not set and has no default", name))
		return ""
	})
	return []byte(out), errs
}
