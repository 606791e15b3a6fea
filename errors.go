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
	"fmt"
	"reflect"
	"strings"

	"github.com/gobeans/beans/internal/beanreflect"
	"github.com/pkg/errors"
)

var (
	// ErrConfiguration is returned when the scan root is missing, empty or
	// given more than once, or when an option is invalid. It aborts startup
	// before any bean is built.
	ErrConfiguration = errors.New("configuration error")

	// ErrMissingImplementation is returned when no bean satisfies a declared
	// dependency.
	ErrMissingImplementation = errors.New("missing implementation")

	// ErrAmbiguousImplementation is returned when more than one bean
	// satisfies a declared dependency.
	ErrAmbiguousImplementation = errors.New("ambiguous implementation")

	// ErrInstantiation is returned when a bean cannot be allocated.
	ErrInstantiation = errors.New("instantiation failure")

	// ErrInjection is returned when a resolved dependency cannot be
	// installed into a bean.
	ErrInjection = errors.New("injection failure")

	// ErrDuplicateBean is returned when two beans share a name.
	ErrDuplicateBean = errors.New("duplicate bean name")

	// ErrNoProxyStrategy is returned when a transactional bean can be
	// neither decorated nor copied with an interceptor.
	ErrNoProxyStrategy = errors.New("no proxy strategy")

	// ErrBeanNotFound is returned by Get when no bean has the requested
	// name.
	ErrBeanNotFound = errors.New("bean not found")

	// ErrBeanType is returned by Get when the bean is not of the requested
	// type.
	ErrBeanType = errors.New("bean has the wrong type")
)

// BeanError is a fatal build failure of one bean. Its Kind is one of the
// package's sentinel errors, so
//
//	errors.Is(err, beans.ErrMissingImplementation)
//
// works on any error returned by New.
type BeanError struct {
	// Bean is the name of the bean being built.
	Bean string
	// Field is the injection being processed, if any.
	Field string
	// Kind is the sentinel error classifying the failure.
	Kind error
	// Cause describes what went wrong.
	Cause error
}

func (e *BeanError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "bean %q", e.Bean)
	if e.Field != "" {
		fmt.Fprintf(&b, " field %q", e.Field)
	}
	fmt.Fprintf(&b, ": %v", e.Kind)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the kind and the cause of the failure.
func (e *BeanError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func newBeanError(bean, field string, kind, cause error) *BeanError {
	return &BeanError{Bean: bean, Field: field, Kind: kind, Cause: cause}
}

// ScanEntryError describes a catalog entry the scanner could not turn into a
// definition. Such entries are skipped; scanning continues.
type ScanEntryError struct {
	// Type is the component type of the entry, nil if unknown.
	Type reflect.Type
	// Source is where the entry was registered.
	Source string
	// Err is the reason the entry is corrupt.
	Err error
}

func (e *ScanEntryError) Error() string {
	return fmt.Sprintf("skipped %v registered at %s: %v", beanreflect.TypeName(e.Type), e.Source, e.Err)
}

func (e *ScanEntryError) Unwrap() error { return e.Err }
