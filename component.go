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

	"github.com/gobeans/beans/internal/beanreflect"
	"github.com/gobeans/beans/tx"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Entry is a component registration: the type to manage and how to wire
// it. Build entries with Component and add them to a Catalog.
//
// Mistakes in the options, such as a setter for another type, do not panic.
// They are recorded on the entry, and the scanner skips the entry with a
// ScanEntryError.
type Entry struct {
	typ        reflect.Type
	name       string
	source     string
	alloc      func() (interface{}, error)
	injections []injection
	tx         *transactional
	err        error
}

type injection struct {
	field    string
	contract reflect.Type
	set      func(target, dep interface{}) error
}

type transactional struct {
	// contract is nil for beans proxied by copy.
	contract reflect.Type
	decorate func(target interface{}, i *tx.Interceptor) (interface{}, error)
}

// Component marks T as a component. T is usually a pointer to a struct:
//
//	beans.Component[*OrderService](
//	  beans.Inject("payment", func(s *OrderService, p Payment) { s.payment = p }),
//	)
func Component[T any](opts ...ComponentOption) *Entry {
	e := &Entry{
		typ:    typeOf[T](),
		source: beanreflect.Caller(),
	}
	e.alloc = defaultAlloc(e.typ)
	for _, opt := range opts {
		opt.apply(e)
	}
	return e
}

// Type returns the component type.
func (e *Entry) Type() reflect.Type { return e.typ }

// Name returns the explicit bean name, or "" when the name is derived from
// the type.
func (e *Entry) Name() string { return e.name }

// Source returns where the entry was registered.
func (e *Entry) Source() string { return e.source }

// Err returns the problems recorded while applying the options.
func (e *Entry) Err() error { return e.err }

func (e *Entry) fail(err error) {
	e.err = multierr.Append(e.err, err)
}

// A ComponentOption configures a component Entry.
type ComponentOption interface {
	apply(*Entry)
}

type componentOptionFunc func(*Entry)

func (f componentOptionFunc) apply(e *Entry) { f(e) }

// Named sets the bean name. An empty name keeps the derived one: the type
// name with its first letter lower-cased.
func Named(name string) ComponentOption {
	return componentOptionFunc(func(e *Entry) {
		e.name = name
	})
}

// Inject declares a dependency. The container resolves a bean for D and
// hands it to set once T has been allocated. Dependencies are installed in
// the order they are declared.
//
// When D is an interface, the bean whose type implements it is used. Any
// other D must match a bean's type exactly.
func Inject[T, D any](field string, set func(T, D)) ComponentOption {
	target := typeOf[T]()
	contract := typeOf[D]()
	return componentOptionFunc(func(e *Entry) {
		switch {
		case set == nil:
			e.fail(errors.Errorf("inject %q: setter is nil", field))
			return
		case target != e.typ:
			e.fail(errors.Errorf("inject %q: setter takes %v, not %v", field, target, e.typ))
			return
		}

		e.injections = append(e.injections, injection{
			field:    field,
			contract: contract,
			set: func(t, d interface{}) (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = errors.Errorf("setter panicked: %v", r)
					}
				}()

				tv, ok := t.(T)
				if !ok {
					return errors.Errorf("target is %T, not %v", t, target)
				}
				dv, ok := d.(D)
				if !ok {
					return errors.Errorf("dependency is %T, not assignable to %v", d, contract)
				}
				set(tv, dv)
				return nil
			},
		})
	})
}

// Constructor replaces the default allocation. By default a pointer to a
// struct is allocated zeroed; any other type needs a constructor.
//
// The constructor must not depend on other beans: dependencies are
// installed afterwards with Inject.
func Constructor[T any](fn func() (T, error)) ComponentOption {
	target := typeOf[T]()
	return componentOptionFunc(func(e *Entry) {
		switch {
		case fn == nil:
			e.fail(errors.New("constructor is nil"))
			return
		case target != e.typ:
			e.fail(errors.Errorf("constructor returns %v, not %v", target, e.typ))
			return
		}

		e.alloc = func() (interface{}, error) {
			v, err := fn()
			if err != nil {
				return nil, err
			}
			return v, nil
		}
	})
}

// Transactional wraps the bean in a decorator once the object graph is
// built. decorate receives the bean and an interceptor, and returns a value
// implementing the contract C. Every method of the decorator is expected to
// forward through the interceptor.
//
// C must be an interface implemented by T. Lookups by name return the
// decorator; beans that were injected with T before decoration keep the
// bean itself.
func Transactional[T, C any](decorate func(T, *tx.Interceptor) C) ComponentOption {
	target := typeOf[T]()
	contract := typeOf[C]()
	return componentOptionFunc(func(e *Entry) {
		switch {
		case decorate == nil:
			e.fail(errors.New("transactional: decorator is nil"))
			return
		case target != e.typ:
			e.fail(errors.Errorf("transactional: decorator takes %v, not %v", target, e.typ))
			return
		case contract.Kind() != reflect.Interface:
			e.fail(errors.Errorf("transactional: contract %v is not an interface", contract))
			return
		case !e.typ.Implements(contract):
			e.fail(errors.Errorf("transactional: %v does not implement %v", e.typ, contract))
			return
		}

		e.tx = &transactional{
			contract: contract,
			decorate: func(v interface{}, i *tx.Interceptor) (interface{}, error) {
				tv, ok := v.(T)
				if !ok {
					return nil, errors.Errorf("bean is %T, not %v", v, target)
				}
				out := decorate(tv, i)
				if isNil(out) {
					return nil, errors.Errorf("decorator for %v returned nil", target)
				}
				return out, nil
			},
		}
	})
}

// TransactionalConcrete marks a bean that exposes no contract as
// transactional. The bean must be a pointer to a struct implementing
// tx.Interceptable. Once the graph is built the container replaces it with a
// shallow copy and hands the copy the interceptor; the copy routes its own
// methods through it, so the type is kept. Beans injected with the original
// before that keep calling it without a transaction.
func TransactionalConcrete() ComponentOption {
	return componentOptionFunc(func(e *Entry) {
		e.tx = &transactional{}
	})
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func defaultAlloc(t reflect.Type) func() (interface{}, error) {
	if t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		return nil
	}
	return func() (interface{}, error) {
		return reflect.New(t.Elem()).Interface(), nil
	}
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
