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

// Package beanreflect holds the reflection helpers shared by the container
// and its tooling.
package beanreflect

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Deref strips all pointer indirections from t.
func Deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// TypeName returns a printable name for t.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// SimpleName returns the unqualified name of the named type behind t, or ""
// for unnamed types.
func SimpleName(t reflect.Type) string {
	t = Deref(t)
	if t == nil {
		return ""
	}
	return t.Name()
}

// PkgPath returns the import path of the package declaring the named type
// behind t.
func PkgPath(t reflect.Type) string {
	t = Deref(t)
	if t == nil {
		return ""
	}
	return t.PkgPath()
}

// Decapitalize lower-cases the first letter of s and leaves the rest as is.
func Decapitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// BeanName derives the default bean name for t: "*shop.OrderService" becomes
// "orderService".
func BeanName(t reflect.Type) string {
	return Decapitalize(SimpleName(t))
}

// InPackage reports whether pkg is root or one of the packages nested below
// it.
func InPackage(pkg, root string) bool {
	root = strings.TrimSuffix(root, "/")
	if root == "" {
		return false
	}
	return pkg == root || strings.HasPrefix(pkg, root+"/")
}

// Caller returns the location of the first frame outside the container
// package, formatted as "function (file:line)".
func Caller() string {
	// Ascend at most 8 frames looking for a caller outside beans.
	pcs := make([]uintptr, 8)

	// Don't include this frame.
	n := runtime.Callers(1, pcs)
	if n == 0 {
		return "n/a"
	}

	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if !shouldIgnoreFrame(f) {
			return fmt.Sprintf("%s (%s:%d)", f.Function, f.File, f.Line)
		}
		if !more {
			break
		}
	}
	return "n/a"
}

const (
	_rootPackage    = "github.com/gobeans/beans."
	_reflectPackage = "github.com/gobeans/beans/internal/beanreflect."
)

// Frames of the root package and of this package belong to the registration
// machinery, not to the component being registered.
func shouldIgnoreFrame(f runtime.Frame) bool {
	if strings.HasSuffix(f.File, "_test.go") {
		return false
	}
	return strings.HasPrefix(f.Function, _rootPackage) ||
		strings.HasPrefix(f.Function, _reflectPackage)
}
