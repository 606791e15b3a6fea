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
	"github.com/gobeans/beans/tx"
	"github.com/pkg/errors"
)

// Proxy strategies reported by Container.ProxyStrategy.
const (
	// StrategyInterface replaces the bean with a decorator implementing
	// its contract.
	StrategyInterface = "interface"
	// StrategyConcrete replaces the bean with a shallow copy of itself that
	// holds the interceptor, so the type is kept.
	StrategyConcrete = "concrete"
)

var _managerType = typeOf[tx.Manager]()

// proxy puts every transactional bean behind an interceptor, in scan order.
//
// It runs once the whole graph is injected. Beans that received a
// transactional bean as a dependency keep the undecorated reference; only
// lookups see the decorator.
func (c *Container) proxy(o *options) error {
	var base *tx.Interceptor
	for _, name := range c.order {
		d := c.definitions[name]
		if !d.Transactional {
			continue
		}

		if base == nil {
			tm, err := c.transactionManager(name, o.tm)
			if err != nil {
				return err
			}
			txOpts := append([]tx.Option{tx.WithLogger(c.log)}, o.txOptions...)
			if base, err = tx.NewInterceptor(tm, txOpts...); err != nil {
				return newBeanError(name, "", ErrConfiguration, err)
			}
		}

		strategy, err := c.intercept(d, base.For(name))
		if err != nil {
			return err
		}
		c.proxied[name] = strategy
		c.events.LogEvent(&beanevent.Proxied{Name: name, Strategy: strategy})
	}
	return nil
}

func (c *Container) intercept(d *Definition, ic *tx.Interceptor) (string, error) {
	v := c.ready[d.Name]

	if t := d.entry.tx; t.decorate != nil {
		decorated, err := t.decorate(v, ic)
		if err != nil {
			return "", newBeanError(d.Name, "", ErrNoProxyStrategy, err)
		}
		c.ready[d.Name] = decorated
		return StrategyInterface, nil
	}

	if _, ok := v.(tx.Interceptable); !ok {
		return "", newBeanError(d.Name, "", ErrNoProxyStrategy,
			errors.Errorf("%v has no contract and does not implement tx.Interceptable", beanreflect.TypeName(d.Type)))
	}
	orig := reflect.ValueOf(v)
	if orig.Kind() != reflect.Ptr || orig.Elem().Kind() != reflect.Struct {
		return "", newBeanError(d.Name, "", ErrNoProxyStrategy,
			errors.Errorf("%v is not a pointer to a struct and cannot be copied", beanreflect.TypeName(d.Type)))
	}

	// The copy shares the bean's fields, dependencies included. Beans
	// injected with the original keep calling it without a transaction.
	cp := reflect.New(orig.Type().Elem())
	cp.Elem().Set(orig.Elem())
	target := cp.Interface().(tx.Interceptable)
	target.UseInterceptor(ic)
	c.ready[d.Name] = target
	return StrategyConcrete, nil
}

// transactionManager returns explicit, or the bean implementing tx.Manager.
func (c *Container) transactionManager(bean string, explicit tx.Manager) (tx.Manager, error) {
	if explicit != nil {
		return explicit, nil
	}

	d, err := c.resolve(bean, "", _managerType)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't find a transaction manager, use WithTransactionManager")
	}
	tm, ok := c.ready[d.Name].(tx.Manager)
	if !ok {
		return nil, newBeanError(bean, "", ErrMissingImplementation,
			errors.Errorf("bean %q no longer implements tx.Manager once proxied", d.Name))
	}
	return tm, nil
}
