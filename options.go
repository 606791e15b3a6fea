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
	"github.com/gobeans/beans/config"
	"github.com/gobeans/beans/internal/beanreflect"
	"github.com/gobeans/beans/tx"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ComponentScanKey is the configuration key listing the scan roots.
//
//	beans:
//	  component-scan:
//	    - base-package: github.com/acme/bank
const ComponentScanKey = "beans.component-scan"

// An Option configures a Container.
type Option interface {
	fmt.Stringer

	apply(*options)
}

type options struct {
	catalog     *Catalog
	roots       []scanRoot
	logger      *zap.Logger
	eventLogger beanevent.Logger
	tm          tx.Manager
	txOptions   []tx.Option
	supplies    []supply
	err         error
}

type scanRoot struct {
	pkg    string
	origin string
}

type supply struct {
	name   string
	value  interface{}
	source string
}

type catalogOption struct{ cat *Catalog }

func (o catalogOption) apply(opts *options) { opts.catalog = o.cat }

func (o catalogOption) String() string { return "beans.WithCatalog(...)" }

// WithCatalog scans cat instead of the default catalog.
func WithCatalog(cat *Catalog) Option {
	return catalogOption{cat}
}

type scanRootOption string

func (o scanRootOption) apply(opts *options) {
	opts.roots = append(opts.roots, scanRoot{pkg: string(o), origin: o.String()})
}

func (o scanRootOption) String() string {
	return fmt.Sprintf("beans.WithScanRoot(%q)", string(o))
}

// WithScanRoot sets the package whose components, and those of the packages
// nested below it, the container manages. Exactly one scan root must be
// given, either with this option or through WithConfig.
func WithScanRoot(pkg string) Option {
	return scanRootOption(pkg)
}

type configOption struct{ p config.Provider }

func (o configOption) apply(opts *options) {
	if o.p == nil {
		opts.err = multierr.Append(opts.err, errors.New("config provider is nil"))
		return
	}

	var entries []struct {
		BasePackage string `yaml:"base-package"`
	}
	if err := o.p.Get(ComponentScanKey).Populate(&entries); err != nil {
		opts.err = multierr.Append(opts.err, err)
		return
	}
	for _, e := range entries {
		opts.roots = append(opts.roots, scanRoot{
			pkg:    e.BasePackage,
			origin: fmt.Sprintf("%s in %s", ComponentScanKey, o.p.Name()),
		})
	}
}

func (o configOption) String() string {
	if o.p == nil {
		return "beans.WithConfig(nil)"
	}
	return fmt.Sprintf("beans.WithConfig(%s)", o.p.Name())
}

// WithConfig reads the scan root from the beans.component-scan list of the
// provided configuration.
func WithConfig(p config.Provider) Option {
	return configOption{p}
}

type loggerOption struct{ log *zap.Logger }

func (o loggerOption) apply(opts *options) { opts.logger = o.log }

func (o loggerOption) String() string { return "beans.WithLogger(...)" }

// WithLogger sets the logger of the container and of its interceptors.
// Container events are written to it unless WithEventLogger is used.
// Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return loggerOption{log}
}

type eventLoggerOption struct{ l beanevent.Logger }

func (o eventLoggerOption) apply(opts *options) { opts.eventLogger = o.l }

func (o eventLoggerOption) String() string {
	return fmt.Sprintf("beans.WithEventLogger(%v)", o.l)
}

// WithEventLogger sends container events to l.
func WithEventLogger(l beanevent.Logger) Option {
	return eventLoggerOption{l}
}

type transactionManagerOption struct{ tm tx.Manager }

func (o transactionManagerOption) apply(opts *options) { opts.tm = o.tm }

func (o transactionManagerOption) String() string {
	return fmt.Sprintf("beans.WithTransactionManager(%T)", o.tm)
}

// WithTransactionManager sets the manager used by transactional beans. When
// it is not given, the container looks for a bean implementing tx.Manager.
func WithTransactionManager(tm tx.Manager) Option {
	return transactionManagerOption{tm}
}

type interceptorOption []tx.Option

func (o interceptorOption) apply(opts *options) {
	opts.txOptions = append(opts.txOptions, o...)
}

func (o interceptorOption) String() string {
	return fmt.Sprintf("beans.WithInterceptorOptions(%d options)", len(o))
}

// WithInterceptorOptions configures the interceptors of transactional beans,
// for example to export metrics or traces.
func WithInterceptorOptions(opts ...tx.Option) Option {
	return interceptorOption(opts)
}

type supplyOption supply

func (o supplyOption) apply(opts *options) {
	if o.value == nil {
		opts.err = multierr.Append(opts.err, errors.Errorf("supplied bean %q is nil", o.name))
		return
	}
	opts.supplies = append(opts.supplies, supply(o))
}

func (o supplyOption) String() string {
	return fmt.Sprintf("beans.Supply(%q, %T)", o.name, o.value)
}

// Supply adds an externally built value to the container as a ready bean.
// It takes part in dependency resolution like any other bean. An empty name
// is derived from the type of value.
func Supply(name string, value interface{}) Option {
	if name == "" && value != nil {
		name = beanreflect.BeanName(reflect.TypeOf(value))
	}
	return supplyOption{name: name, value: value, source: beanreflect.Caller()}
}

// scanRoot returns the one configured scan root.
func (o *options) scanRoot() (string, error) {
	switch len(o.roots) {
	case 0:
		return "", errors.Wrapf(ErrConfiguration, "no scan root: use WithScanRoot or set %s", ComponentScanKey)
	case 1:
	default:
		origins := make([]string, len(o.roots))
		for i, r := range o.roots {
			origins[i] = r.origin
		}
		return "", errors.Wrapf(ErrConfiguration, "%d scan roots given, want exactly one: %s",
			len(o.roots), strings.Join(origins, ", "))
	}

	root := strings.TrimSpace(o.roots[0].pkg)
	if root == "" {
		return "", errors.Wrapf(ErrConfiguration, "empty scan root from %s", o.roots[0].origin)
	}
	return root, nil
}
