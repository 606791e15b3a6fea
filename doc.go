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

// Package beans is a small inversion of control container.
//
// Components are registered in a Catalog, usually from the init functions
// of generated files (see cmd/beangen). New scans the catalog for the
// components declared below one package, builds one instance of each,
// installs their declared dependencies and returns a read-only Container.
//
//	func init() {
//	  beans.Register(
//	    beans.Component[*CardPayment](),
//	    beans.Component[*DefaultOrderService](
//	      beans.Named("orderService"),
//	      beans.Inject("payment", func(s *DefaultOrderService, p Payment) { s.payment = p }),
//	      beans.Transactional(func(s *DefaultOrderService, i *tx.Interceptor) OrderService {
//	        return &orderServiceTx{s, i}
//	      }),
//	    ),
//	  )
//	}
//
//	c, err := beans.New(beans.WithScanRoot("github.com/acme/shop"))
//	if err != nil {
//	  log.Fatal(err)
//	}
//	svc, err := beans.Get[OrderService](c, "orderService")
//
// # Resolution
//
// A dependency declared with an interface type is satisfied by the bean
// whose type implements it; any other type must match a bean's type
// exactly. Exactly one bean must match: none fails with
// ErrMissingImplementation and several with ErrAmbiguousImplementation.
//
// Beans are allocated before their dependencies are installed, so
// dependency cycles are allowed. A bean in a cycle may receive a peer whose
// own dependencies are not installed yet.
//
// # Transactions
//
// Beans marked Transactional are replaced, once every bean is built, by a
// decorator that runs each call through a tx.Interceptor. Beans marked
// TransactionalConcrete are replaced by a shallow copy holding the
// interceptor, so they keep their type. Since this happens after injection,
// beans that depend on a transactional bean hold the original instance and
// call it without a transaction; only Get returns the proxied bean.
package beans
