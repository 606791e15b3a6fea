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

// Package beandig hands the beans of a container to a dig container, so
// that code built on dig constructors can depend on them.
//
// Every bean is provided under its name:
//
//	type params struct {
//	  dig.In
//
//	  Orders shop.OrderService `name:"orderService"`
//	}
//
// Beans whose type no other bean shares are also provided without a name.
// Transactional beans are provided as their contract, since the decorator
// type is not exported.
package beandig

import (
	"reflect"

	"github.com/gobeans/beans"
	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/multierr"
)

// Provide adds the beans of c to dc.
func Provide(dc *dig.Container, c *beans.Container) error {
	defs := c.Definitions()

	types := make(map[reflect.Type]int, len(defs))
	for _, d := range defs {
		types[exposedType(d)]++
	}

	var errs error
	for _, d := range defs {
		v, _ := c.Get(d.Name)
		t := exposedType(d)
		ctor := constructor(t, v)

		if err := dc.Provide(ctor, dig.Name(d.Name)); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "couldn't provide bean %q", d.Name))
			continue
		}
		if types[t] == 1 {
			if err := dc.Provide(ctor); err != nil {
				errs = multierr.Append(errs, errors.Wrapf(err, "couldn't provide bean %q by type", d.Name))
			}
		}
	}
	return errs
}

func exposedType(d beans.Definition) reflect.Type {
	if d.Contract != nil {
		return d.Contract
	}
	return d.Type
}

// constructor returns a func() T returning v.
func constructor(t reflect.Type, v interface{}) interface{} {
	fnType := reflect.FuncOf(nil, []reflect.Type{t}, false)
	out := reflect.New(t).Elem()
	out.Set(reflect.ValueOf(v))
	return reflect.MakeFunc(fnType, func([]reflect.Value) []reflect.Value {
		return []reflect.Value{out}
	}).Interface()
}
