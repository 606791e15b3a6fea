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

package beanevent

// Event defines an event emitted by a container.
type Event interface {
	event() // Only this package can implement Event.
}

// Passing events by type to make Event hashable in the future.
func (*Scanned) event()      {}
func (*EntrySkipped) event() {}
func (*Supplied) event()     {}
func (*Allocated) event()    {}
func (*Injected) event()     {}
func (*Ready) event()        {}
func (*Proxied) event()      {}
func (*Frozen) event()       {}
func (*BuildFailed) event()  {}

// Scanned is emitted once the scanner has turned a scan root into
// definitions.
type Scanned struct {
	// Root is the package the scan started from.
	Root string
	// Beans lists the names of the definitions found, in scan order.
	Beans []string
}

// EntrySkipped is emitted for every catalog entry below the scan root that
// did not become a definition.
type EntrySkipped struct {
	// TypeName is the component type of the entry, if known.
	TypeName string
	// Source is where the entry was registered.
	Source string
	// Reason says why the entry was left out when it is not corrupt, for
	// example because the type is abstract.
	Reason string
	// Err is set when the entry is corrupt.
	Err error
}

// Supplied is emitted when an externally built value is added to the
// container as a ready bean.
type Supplied struct {
	Name     string
	TypeName string
}

// Allocated is emitted when a bare instance is created and published as a
// pending bean.
type Allocated struct {
	Name     string
	TypeName string
}

// Injected is emitted after a dependency is installed into a bean.
type Injected struct {
	Name       string
	Field      string
	Dependency string
	// Early is true when the dependency was still pending, that is, the
	// reference was handed out before its own injection had completed.
	Early bool
}

// Ready is emitted when a bean has all its dependencies installed.
type Ready struct {
	Name string
}

// Proxied is emitted when a transactional bean is put behind an
// interceptor.
type Proxied struct {
	Name string
	// Strategy is either "interface" or "concrete".
	Strategy string
}

// Frozen is emitted once the container is complete and read-only.
type Frozen struct {
	Beans int
}

// BuildFailed is emitted when the container could not be built.
type BuildFailed struct {
	Err error
}
