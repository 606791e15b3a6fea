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
	"strings"

	"github.com/gobeans/beans/beanevent"
	"github.com/gobeans/beans/internal/beanreflect"
	"github.com/pkg/errors"
)

// build materializes every bean that is not ready yet, in scan order.
func (c *Container) build() error {
	for _, name := range c.order {
		if _, ok := c.ready[name]; ok {
			continue
		}
		if _, err := c.instantiate(c.definitions[name]); err != nil {
			return err
		}
	}
	return nil
}

// instantiate allocates d, publishes it as pending and installs its
// dependencies, building them first when needed. A dependency that is
// already pending is part of a cycle: its reference is installed as is.
func (c *Container) instantiate(d *Definition) (interface{}, error) {
	v, err := allocate(d.entry)
	if err != nil {
		return nil, newBeanError(d.Name, "", ErrInstantiation, err)
	}
	c.pending[d.Name] = v
	c.events.LogEvent(&beanevent.Allocated{Name: d.Name, TypeName: beanreflect.TypeName(d.Type)})

	for _, inj := range d.entry.injections {
		dep, err := c.resolve(d.Name, inj.field, inj.contract)
		if err != nil {
			return nil, err
		}

		depValue, early, err := c.obtain(dep)
		if err != nil {
			return nil, errors.Wrapf(err, "bean %q field %q", d.Name, inj.field)
		}

		if err := inj.set(v, depValue); err != nil {
			return nil, newBeanError(d.Name, inj.field, ErrInjection, err)
		}
		c.events.LogEvent(&beanevent.Injected{
			Name:       d.Name,
			Field:      inj.field,
			Dependency: dep.Name,
			Early:      early,
		})
	}

	delete(c.pending, d.Name)
	c.ready[d.Name] = v
	c.events.LogEvent(&beanevent.Ready{Name: d.Name})
	return v, nil
}

// obtain returns the instance of d, building it if it does not exist yet.
// early reports whether the instance is still pending.
func (c *Container) obtain(d *Definition) (v interface{}, early bool, err error) {
	if v, ok := c.ready[d.Name]; ok {
		return v, false, nil
	}
	if v, ok := c.pending[d.Name]; ok {
		return v, true, nil
	}
	v, err = c.instantiate(d)
	return v, false, err
}

// resolve finds the single definition satisfying t on behalf of the given
// bean and field: a type implementing t when t is an interface, exactly t
// otherwise.
func (c *Container) resolve(bean, field string, t reflect.Type) (*Definition, error) {
	var found []*Definition
	for _, name := range c.order {
		d := c.definitions[name]
		if satisfies(d.Type, t) {
			found = append(found, d)
		}
	}

	switch len(found) {
	case 0:
		return nil, newBeanError(bean, field, ErrMissingImplementation,
			errors.Errorf("no bean satisfies %v", beanreflect.TypeName(t)))
	case 1:
		return found[0], nil
	}

	names := make([]string, len(found))
	for i, d := range found {
		names[i] = d.Name
	}
	return nil, newBeanError(bean, field, ErrAmbiguousImplementation,
		errors.Errorf("%v is satisfied by %s", beanreflect.TypeName(t), strings.Join(names, ", ")))
}

func satisfies(typ, want reflect.Type) bool {
	if want.Kind() == reflect.Interface {
		return typ.Implements(want)
	}
	return typ == want
}

func allocate(e *Entry) (v interface{}, err error) {
	if e.alloc == nil {
		return nil, errors.Errorf("%v is not a pointer to a struct, use Constructor", e.typ)
	}

	defer func() {
		if r := recover(); r != nil {
			v, err = nil, errors.Errorf("constructor panicked: %v", r)
		}
	}()

	v, err = e.alloc()
	if err != nil {
		return nil, errors.Wrap(err, "constructor failed")
	}
	if isNil(v) {
		return nil, errors.New("constructor returned nil")
	}
	return v, nil
}
