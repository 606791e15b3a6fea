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

package beans_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gobeans/beans"
	"github.com/gobeans/beans/beanevent"
	"github.com/gobeans/beans/internal/beanlog"
	"github.com/gobeans/beans/tx"
	"github.com/gobeans/beans/tx/txtest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errInsufficientFunds = errors.New("insufficient funds")

type Account interface {
	Withdraw(ctx context.Context, amount int) (int, error)
}

type Wallet struct{ balance int }

func (w *Wallet) Withdraw(_ context.Context, amount int) (int, error) {
	if amount > w.balance {
		return w.balance, errInsufficientFunds
	}
	w.balance -= amount
	return w.balance, nil
}

type walletTx struct {
	target *Wallet
	ic     *tx.Interceptor
}

func (w *walletTx) Withdraw(ctx context.Context, amount int) (int, error) {
	return tx.Call(ctx, w.ic, "Withdraw", func(ctx context.Context) (int, error) {
		return w.target.Withdraw(ctx, amount)
	})
}

type Teller struct{ Account Account }

type Vault struct {
	ic     *tx.Interceptor
	opened int
}

func (v *Vault) UseInterceptor(ic *tx.Interceptor) { v.ic = ic }

func (v *Vault) Open(ctx context.Context) error {
	return v.ic.Invoke(ctx, "Open", func(context.Context) error {
		v.opened++
		return nil
	})
}

type Safe struct{}

type Guard struct{ Vault *Vault }

type Latch struct{}

func (Latch) UseInterceptor(*tx.Interceptor) {}

func wallet(balance int, opts ...beans.ComponentOption) *beans.Entry {
	opts = append([]beans.ComponentOption{
		beans.Constructor(func() (*Wallet, error) { return &Wallet{balance: balance}, nil }),
		beans.Transactional(func(w *Wallet, ic *tx.Interceptor) Account {
			return &walletTx{target: w, ic: ic}
		}),
	}, opts...)
	return beans.Component[*Wallet](opts...)
}

func teller() *beans.Entry {
	return beans.Component[*Teller](
		beans.Inject("Account", func(t *Teller, a Account) { t.Account = a }),
	)
}

func TestTransactional(t *testing.T) {
	t.Run("Commit", func(t *testing.T) {
		tm := txtest.NewManager()
		c, err := newTestContainer(t, []*beans.Entry{wallet(100)}, beans.WithTransactionManager(tm))
		require.NoError(t, err)

		account := beanValue[Account](t, c, "wallet")
		balance, err := account.Withdraw(context.Background(), 30)
		require.NoError(t, err)
		assert.Equal(t, 70, balance)

		assert.Equal(t, 1, tm.Commits())
		assert.Equal(t, 0, tm.Rollbacks())
		assert.Equal(t, beans.StrategyInterface, c.ProxyStrategy("wallet"))
	})

	t.Run("Rollback", func(t *testing.T) {
		tm := txtest.NewManager()
		c, err := newTestContainer(t, []*beans.Entry{wallet(10)}, beans.WithTransactionManager(tm))
		require.NoError(t, err)

		account := beanValue[Account](t, c, "wallet")
		balance, err := account.Withdraw(context.Background(), 30)
		assert.Equal(t, errInsufficientFunds, err, "the error must not be wrapped")
		assert.Equal(t, 10, balance)

		assert.Equal(t, 0, tm.Commits())
		assert.Equal(t, 1, tm.Rollbacks())
	})

	t.Run("InjectedBeforeProxying", func(t *testing.T) {
		tm := txtest.NewManager()
		spy := new(beanlog.Spy)
		c, err := newTestContainer(t,
			[]*beans.Entry{teller(), wallet(100)},
			beans.WithTransactionManager(tm),
			beans.WithEventLogger(spy),
		)
		require.NoError(t, err)

		fromTeller := beanValue[*Teller](t, c, "teller").Account
		fromContainer := beanValue[Account](t, c, "wallet")
		assert.IsType(t, &Wallet{}, fromTeller)
		assert.IsType(t, &walletTx{}, fromContainer)
		assert.NotEqual(t, fromTeller, fromContainer)

		// Calls through the early reference bypass the interceptor.
		_, err = fromTeller.Withdraw(context.Background(), 10)
		require.NoError(t, err)
		assert.Zero(t, tm.Begins())

		types := spy.EventTypes()
		assert.Equal(t, []string{"Proxied", "Frozen"}, types[len(types)-2:])
	})

	t.Run("Concrete", func(t *testing.T) {
		tm := txtest.NewManager()
		c, err := newTestContainer(t, []*beans.Entry{
			beans.Component[*Vault](beans.TransactionalConcrete()),
		}, beans.WithTransactionManager(tm))
		require.NoError(t, err)

		vault := beanValue[*Vault](t, c, "vault")
		require.NoError(t, vault.Open(context.Background()))
		assert.Equal(t, 1, vault.opened)
		assert.Equal(t, 1, tm.Commits())
		assert.Equal(t, "vault", vault.ic.Bean())
		assert.Equal(t, beans.StrategyConcrete, c.ProxyStrategy("vault"))
	})

	t.Run("ConcreteInjectedBeforeProxying", func(t *testing.T) {
		tm := txtest.NewManager()
		c, err := newTestContainer(t, []*beans.Entry{
			beans.Component[*Guard](
				beans.Inject("Vault", func(g *Guard, v *Vault) { g.Vault = v }),
			),
			beans.Component[*Vault](beans.TransactionalConcrete()),
		}, beans.WithTransactionManager(tm))
		require.NoError(t, err)

		fromGuard := beanValue[*Guard](t, c, "guard").Vault
		fromContainer := beanValue[*Vault](t, c, "vault")
		assert.NotSame(t, fromGuard, fromContainer)

		// The early reference has no interceptor and runs outside a
		// transaction.
		require.NoError(t, fromGuard.Open(context.Background()))
		assert.Equal(t, 1, fromGuard.opened)
		assert.Zero(t, tm.Begins())

		require.NoError(t, fromContainer.Open(context.Background()))
		assert.Equal(t, 1, tm.Begins())
		assert.Equal(t, 1, tm.Commits())
	})

	t.Run("ConcreteNotAPointer", func(t *testing.T) {
		_, err := newTestContainer(t, []*beans.Entry{
			beans.Component[Latch](
				beans.Constructor(func() (Latch, error) { return Latch{}, nil }),
				beans.TransactionalConcrete(),
			),
		}, beans.WithTransactionManager(txtest.NewManager()))
		require.Error(t, err)
		assert.ErrorIs(t, err, beans.ErrNoProxyStrategy)
		assert.ErrorContains(t, err, "cannot be copied")
	})

	t.Run("NoStrategy", func(t *testing.T) {
		_, err := newTestContainer(t, []*beans.Entry{
			beans.Component[*Safe](beans.TransactionalConcrete()),
		}, beans.WithTransactionManager(txtest.NewManager()))
		require.Error(t, err)
		assert.ErrorIs(t, err, beans.ErrNoProxyStrategy)
		assert.ErrorContains(t, err, "*beans_test.Safe has no contract and does not implement tx.Interceptable")
	})

	t.Run("DecoratorReturnsNil", func(t *testing.T) {
		_, err := newTestContainer(t, []*beans.Entry{
			beans.Component[*Wallet](beans.Transactional(func(*Wallet, *tx.Interceptor) Account {
				return nil
			})),
		}, beans.WithTransactionManager(txtest.NewManager()))
		assert.ErrorIs(t, err, beans.ErrNoProxyStrategy)
	})

	t.Run("ManagerBean", func(t *testing.T) {
		tm := txtest.NewManager()
		c, err := newTestContainer(t, []*beans.Entry{wallet(100)}, beans.Supply("transactionManager", tm))
		require.NoError(t, err)

		_, err = beanValue[Account](t, c, "wallet").Withdraw(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, 1, tm.Commits())
	})

	t.Run("NoManager", func(t *testing.T) {
		_, err := newTestContainer(t, []*beans.Entry{wallet(100)})
		require.Error(t, err)
		assert.ErrorIs(t, err, beans.ErrMissingImplementation)

		var be *beans.BeanError
		require.True(t, errors.As(err, &be))
		assert.Equal(t, "wallet", be.Bean)
		assert.ErrorContains(t, err, "use WithTransactionManager")
	})

	t.Run("TwoManagerBeans", func(t *testing.T) {
		_, err := newTestContainer(t, []*beans.Entry{wallet(100)},
			beans.Supply("primary", txtest.NewManager()),
			beans.Supply("secondary", txtest.NewManager()),
		)
		assert.ErrorIs(t, err, beans.ErrAmbiguousImplementation)
	})

	t.Run("ExplicitManagerWins", func(t *testing.T) {
		explicit, bean := txtest.NewManager(), txtest.NewManager()
		c, err := newTestContainer(t, []*beans.Entry{wallet(100)},
			beans.Supply("transactionManager", bean),
			beans.WithTransactionManager(explicit),
		)
		require.NoError(t, err)

		_, err = beanValue[Account](t, c, "wallet").Withdraw(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, 1, explicit.Commits())
		assert.Zero(t, bean.Begins())
	})

	t.Run("ProxiedEvents", func(t *testing.T) {
		spy := new(beanlog.Spy)
		_, err := newTestContainer(t, []*beans.Entry{
			wallet(100),
			beans.Component[*Vault](beans.TransactionalConcrete()),
		}, beans.WithTransactionManager(txtest.NewManager()), beans.WithEventLogger(spy))
		require.NoError(t, err)

		var proxied []beanevent.Proxied
		for _, e := range spy.Events() {
			if p, ok := e.(*beanevent.Proxied); ok {
				proxied = append(proxied, *p)
			}
		}
		assert.Equal(t, []beanevent.Proxied{
			{Name: "wallet", Strategy: "interface"},
			{Name: "vault", Strategy: "concrete"},
		}, proxied)
	})

	t.Run("InterceptorOptions", func(t *testing.T) {
		reg := prometheus.NewPedanticRegistry()
		c, err := newTestContainer(t, []*beans.Entry{wallet(100)},
			beans.WithTransactionManager(txtest.NewManager()),
			beans.WithInterceptorOptions(tx.WithRegisterer(reg)),
		)
		require.NoError(t, err)

		account := beanValue[Account](t, c, "wallet")
		_, err = account.Withdraw(context.Background(), 1)
		require.NoError(t, err)
		_, err = account.Withdraw(context.Background(), 1000)
		require.Error(t, err)

		assert.Equal(t, 1.0, testutil.ToFloat64(
			mustCounter(t, reg, "wallet", "Withdraw", tx.OutcomeCommit)))
		assert.Equal(t, 1.0, testutil.ToFloat64(
			mustCounter(t, reg, "wallet", "Withdraw", tx.OutcomeRollback)))
	})
}

// mustCounter returns the registered beans_tx_calls_total series with the
// given labels.
func mustCounter(t *testing.T, reg *prometheus.Registry, labels ...string) prometheus.Collector {
	t.Helper()

	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "beans",
		Subsystem: "tx",
		Name:      "calls_total",
		Help:      "Intercepted calls by bean, method and transaction outcome.",
	}, []string{"bean", "method", "outcome"})
	err := reg.Register(vec)
	var are prometheus.AlreadyRegisteredError
	require.True(t, errors.As(err, &are), "metrics must be registered: %v", err)
	return are.ExistingCollector.(*prometheus.CounterVec).WithLabelValues(labels...)
}
