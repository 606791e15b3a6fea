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

package beans

import (
	"reflect"

	"github.com/gobeans/beans/beanevent"
	"github.com/gobeans/beans/internal/beanreflect"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Definition describes a bean the container manages.
type Definition struct {
	// Name is unique within a container.
	Name string
	// Type is the component type. Several definitions may share a type.
	Type reflect.Type
	// Source is where the component was registered or supplied.
	Source string
	// Dependencies lists the declared injections in installation order.
	Dependencies []Dependency
	// Supplied is true for values handed to the container with Supply.
	Supplied bool
	// Transactional is true for beans put behind an interceptor.
	Transactional bool
	// Contract is the interface exposed by the decorator of a
	// transactional bean, nil for beans proxied by copy.
	Contract reflect.Type

	entry *Entry
	value interface{}
}

// Dependency is a declared injection.
type Dependency struct {
	Field string
	// Type is either an interface, matched by implementation, or a type
	// matched exactly.
	Type reflect.Type
}

// Scan returns a definition for every entry of cat declared in root or in
// one of the packages nested below it, in registration order.
//
// Corrupt entries are skipped. They are reported in the returned error as
// ScanEntryErrors, alongside the definitions of the valid entries.
func Scan(cat *Catalog, root string) ([]Definition, error) {
	return scan(cat, root, beanevent.NopLogger)
}

func scan(cat *Catalog, root string, log beanevent.Logger) ([]Definition, error) {
	var (
		defs []Definition
		errs error
	)
	for _, e := range cat.Entries() {
		if e == nil {
			continue
		}
		if e.typ == nil {
			serr := &ScanEntryError{Source: e.source, Err: errors.New("component type is nil")}
			log.LogEvent(&beanevent.EntrySkipped{TypeName: beanreflect.TypeName(nil), Source: e.source, Err: serr})
			errs = multierr.Append(errs, serr)
			continue
		}
		if !beanreflect.InPackage(beanreflect.PkgPath(e.typ), root) {
			continue
		}

		if reason := unsupported(e.typ); reason != "" {
			log.LogEvent(&beanevent.EntrySkipped{
				TypeName: beanreflect.TypeName(e.typ),
				Source:   e.source,
				Reason:   reason,
			})
			continue
		}

		if err := e.err; err != nil {
			serr := &ScanEntryError{Type: e.typ, Source: e.source, Err: err}
			log.LogEvent(&beanevent.EntrySkipped{
				TypeName: beanreflect.TypeName(e.typ),
				Source:   e.source,
				Err:      serr,
			})
			errs = multierr.Append(errs, serr)
			continue
		}

		defs = append(defs, newDefinition(e))
	}

	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	log.LogEvent(&beanevent.Scanned{Root: root, Beans: names})

	return defs, errs
}

// unsupported returns why t cannot be a standalone bean, or "". Anonymous
// types need no check: they belong to no package, so no root holds them.
func unsupported(t reflect.Type) string {
	if t.Kind() == reflect.Interface {
		return "abstract type"
	}
	return ""
}

func newDefinition(e *Entry) Definition {
	d := Definition{
		Name:   e.name,
		Type:   e.typ,
		Source: e.source,
		entry:  e,
	}
	if d.Name == "" {
		d.Name = beanreflect.BeanName(e.typ)
	}
	for _, inj := range e.injections {
		d.Dependencies = append(d.Dependencies, Dependency{Field: inj.field, Type: inj.contract})
	}
	if e.tx != nil {
		d.Transactional = true
		d.Contract = e.tx.contract
	}
	return d
}
