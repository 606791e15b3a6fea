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

	"github.com/gobeans/beans/beanevent"
	"github.com/gobeans/beans/internal/beanreflect"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Container holds the singleton beans of one scan root.
//
// A Container is built completely by New and is read-only afterwards: it is
// safe for concurrent use.
type Container struct {
	log    *zap.Logger
	events beanevent.Logger
	root   string

	definitions map[string]*Definition
	order       []string

	// pending holds beans that are allocated but still being injected.
	// It is only used while building.
	pending map[string]interface{}
	ready   map[string]interface{}
	proxied map[string]string

	frozen bool
}

// New scans the catalog, builds every bean, puts transactional beans behind
// their interceptors and returns the frozen container.
//
// Any failure aborts startup: New returns a nil container and an error
// matching one of the package's sentinel errors with errors.Is. Corrupt
// catalog entries are not failures; they are logged and skipped.
func New(opts ...Option) (*Container, error) {
	o := options{catalog: defaultCatalog}
	for _, opt := range opts {
		opt.apply(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.eventLogger == nil {
		o.eventLogger = &beanevent.ZapLogger{Logger: o.logger}
	}

	c, err := newContainer(&o)
	if err != nil {
		o.eventLogger.LogEvent(&beanevent.BuildFailed{Err: err})
		return nil, err
	}
	return c, nil
}

func newContainer(o *options) (*Container, error) {
	if o.err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "invalid options: %v", o.err)
	}
	if o.catalog == nil {
		return nil, errors.Wrap(ErrConfiguration, "catalog is nil")
	}
	root, err := o.scanRoot()
	if err != nil {
		return nil, err
	}

	c := &Container{
		log:         o.logger,
		events:      o.eventLogger,
		root:        root,
		definitions: make(map[string]*Definition),
		pending:     make(map[string]interface{}),
		ready:       make(map[string]interface{}),
		proxied:     make(map[string]string),
	}

	for _, s := range o.supplies {
		d := &Definition{
			Name:     s.name,
			Type:     reflect.TypeOf(s.value),
			Source:   s.source,
			Supplied: true,
			value:    s.value,
		}
		if err := c.define(d); err != nil {
			return nil, err
		}
		c.ready[d.Name] = s.value
		c.events.LogEvent(&beanevent.Supplied{Name: d.Name, TypeName: beanreflect.TypeName(d.Type)})
	}

	// Corrupt entries were logged by the scanner and are left out.
	defs, _ := scan(o.catalog, root, c.events)
	for i := range defs {
		if err := c.define(&defs[i]); err != nil {
			return nil, err
		}
	}

	if err := c.build(); err != nil {
		return nil, err
	}
	if err := c.proxy(o); err != nil {
		return nil, err
	}

	c.pending = nil
	c.frozen = true
	c.events.LogEvent(&beanevent.Frozen{Beans: len(c.ready)})
	return c, nil
}

func (c *Container) define(d *Definition) error {
	if d.Name == "" {
		return errors.Wrapf(ErrConfiguration, "%v registered at %s has no name", beanreflect.TypeName(d.Type), d.Source)
	}
	if prev, ok := c.definitions[d.Name]; ok {
		return errors.Wrapf(ErrDuplicateBean, "%q is used by %v (%s) and %v (%s)",
			d.Name, beanreflect.TypeName(prev.Type), prev.Source, beanreflect.TypeName(d.Type), d.Source)
	}
	c.definitions[d.Name] = d
	c.order = append(c.order, d.Name)
	return nil
}

// Get returns the bean with the given name. Transactional beans are
// returned behind their interceptor.
func (c *Container) Get(name string) (interface{}, bool) {
	if !c.frozen {
		return nil, false
	}
	v, ok := c.ready[name]
	return v, ok
}

// Get returns the bean with the given name as a T.
//
//	svc, err := beans.Get[shop.OrderService](c, "orderService")
func Get[T any](c *Container, name string) (T, error) {
	var zero T
	v, ok := c.Get(name)
	if !ok {
		return zero, errors.Wrapf(ErrBeanNotFound, "%q", name)
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.Wrapf(ErrBeanType, "%q is %T, not %v", name, v, typeOf[T]())
	}
	return t, nil
}

// Root returns the package the container was scanned from.
func (c *Container) Root() string { return c.root }

// Names returns the bean names in scan order, supplied beans first.
func (c *Container) Names() []string {
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

// Definitions returns the definitions of all beans, in the order of Names.
func (c *Container) Definitions() []Definition {
	defs := make([]Definition, 0, len(c.order))
	for _, name := range c.order {
		defs = append(defs, *c.definitions[name])
	}
	return defs
}

// ProxyStrategy returns how the named bean was put behind its interceptor:
// "interface", "concrete", or "" when it was not.
func (c *Container) ProxyStrategy(name string) string {
	return c.proxied[name]
}

// String dumps the container, one bean per line with its dependencies.
func (c *Container) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "beans.Container{root: %s}\n", c.root)
	for _, name := range c.order {
		d := c.definitions[name]
		fmt.Fprintf(&b, "\t%s %v", name, beanreflect.TypeName(d.Type))
		switch {
		case d.Supplied:
			b.WriteString(" [supplied]")
		case c.proxied[name] != "":
			fmt.Fprintf(&b, " [transactional: %s]", c.proxied[name])
		}
		b.WriteString("\n")
		for _, dep := range d.Dependencies {
			fmt.Fprintf(&b, "\t\t%s -> %v\n", dep.Field, beanreflect.TypeName(dep.Type))
		}
	}
	return b.String()
}
