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

import "sync"

// Catalog is the registration table the scanner reads from. Packages
// usually register their components from init functions:
//
//	func init() {
//	  beans.Register(beans.Component[*OrderService]())
//	}
type Catalog struct {
	mu      sync.Mutex
	entries []*Entry
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Register adds entries to the catalog. Registration order is scan order.
func (c *Catalog) Register(entries ...*Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, entries...)
}

// Entries returns the registered entries in registration order.
func (c *Catalog) Entries() []*Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]*Entry, len(c.entries))
	copy(entries, c.entries)
	return entries
}

// Default catalog is used by Register and by containers built without
// WithCatalog.
var defaultCatalog = NewCatalog()

// DefaultCatalog returns the catalog used by top-level calls.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// Register adds entries to the default catalog.
func Register(entries ...*Entry) {
	defaultCatalog.Register(entries...)
}
