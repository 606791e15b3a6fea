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
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Root is the key of the whole configuration tree.
const Root = ""

// Provider gives access to a configuration tree.
type Provider interface {
	// Name of the provider, used in error messages.
	Name() string

	// Get returns the value at the dotted key. The value reports
	// HasValue() == false when nothing is stored there.
	Get(key string) Value
}

// LookupFunc looks up the value of a variable during expansion.
type LookupFunc func(key string) (string, bool)

// A YAMLOption configures NewYAML.
type YAMLOption interface {
	apply(*yamlOptions)
}

type yamlOptionFunc func(*yamlOptions)

func (f yamlOptionFunc) apply(o *yamlOptions) { f(o) }

type source struct {
	name string
	read func() ([]byte, error)
}

type yamlOptions struct {
	name     string
	sources  []source
	lookup   LookupFunc
	envFiles []string
}

// File adds the YAML file at path as a source.
func File(path string) YAMLOption {
	return yamlOptionFunc(func(o *yamlOptions) {
		o.sources = append(o.sources, source{
			name: path,
			read: func() ([]byte, error) { return os.ReadFile(path) },
		})
	})
}

// Source adds the YAML read from r as a source.
func Source(r io.Reader) YAMLOption {
	return yamlOptionFunc(func(o *yamlOptions) {
		o.sources = append(o.sources, source{
			name: "reader",
			read: func() ([]byte, error) { return io.ReadAll(r) },
		})
	})
}

// Static adds v, marshaled to YAML, as a source. It is mostly useful in
// tests.
func Static(v interface{}) YAMLOption {
	return yamlOptionFunc(func(o *yamlOptions) {
		o.sources = append(o.sources, source{
			name: "static",
			read: func() ([]byte, error) { return yaml.Marshal(v) },
		})
	})
}

// Expand enables ${VAR} expansion, looking variables up with lookup.
func Expand(lookup LookupFunc) YAMLOption {
	return yamlOptionFunc(func(o *yamlOptions) {
		o.lookup = lookup
	})
}

// EnvFile enables ${VAR} expansion and adds the variables of the given .env
// files. Variables found by the Expand lookup take precedence.
func EnvFile(paths ...string) YAMLOption {
	return yamlOptionFunc(func(o *yamlOptions) {
		o.envFiles = append(o.envFiles, paths...)
	})
}

// Name sets the provider name. Defaults to "yaml".
func Name(name string) YAMLOption {
	return yamlOptionFunc(func(o *yamlOptions) {
		o.name = name
	})
}

type yamlProvider struct {
	name string
	root interface{}
}

var _ Provider = (*yamlProvider)(nil)

// NewYAML builds a provider from the given YAML sources, merged in order.
func NewYAML(opts ...YAMLOption) (Provider, error) {
	o := yamlOptions{name: "yaml"}
	for _, opt := range opts {
		opt.apply(&o)
	}

	lookup, err := o.expander()
	if err != nil {
		return nil, err
	}

	var root interface{} = map[string]interface{}{}
	for _, src := range o.sources {
		raw, err := src.read()
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't read %s", src.name)
		}
		if lookup != nil {
			if raw, err = expand(raw, lookup); err != nil {
				return nil, errors.Wrapf(err, "couldn't expand %s", src.name)
			}
		}

		var tree interface{}
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		if err := dec.Decode(&tree); err != nil && err != io.EOF {
			return nil, errors.Wrapf(err, "couldn't parse %s", src.name)
		}
		root = mergeMaps(root, tree)
	}

	return &yamlProvider{name: o.name, root: root}, nil
}

func (p *yamlProvider) Name() string { return p.name }

func (p *yamlProvider) Get(key string) Value {
	raw, ok := find(p.root, key)
	return Value{provider: p.name, key: key, raw: raw, found: ok}
}
