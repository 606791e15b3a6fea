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
	"fmt"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Value is a configuration value found, or not, at a key.
type Value struct {
	provider string
	key      string
	raw      interface{}
	found    bool
}

// Source returns the name of the provider the value came from.
func (v Value) Source() string { return v.provider }

// Key returns the dotted key of the value.
func (v Value) Key() string { return v.key }

// HasValue reports whether anything is stored at the key.
func (v Value) HasValue() bool { return v.found }

// Value returns the raw decoded YAML value.
func (v Value) Value() interface{} { return v.raw }

func (v Value) String() string {
	if !v.found {
		return ""
	}
	return fmt.Sprint(v.raw)
}

// Populate decodes the value into target, which must be a pointer. Nothing
// is changed when the value is absent, so target keeps its defaults.
func (v Value) Populate(target interface{}) error {
	if !v.found {
		return nil
	}

	b, err := yaml.Marshal(v.raw)
	if err != nil {
		return errors.Wrapf(err, "couldn't marshal %q from %s", v.key, v.provider)
	}
	if err := yaml.Unmarshal(b, target); err != nil {
		return errors.Wrapf(err, "couldn't populate %T from %q in %s", target, v.key, v.provider)
	}
	return nil
}
