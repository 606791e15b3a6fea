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

// Package shop is a small application wired by the container in tests.
package shop

import (
	"context"
	"fmt"
	"sync"

	"github.com/gobeans/beans/internal/fixtures/shop/billing"
	"github.com/gobeans/beans/tx"
	"github.com/pkg/errors"
)

// ErrOutOfStock is returned when an order asks for more than is left.
var ErrOutOfStock = errors.New("out of stock")

// Payment charges customers. It is marked as a component to check that
// abstract types are skipped.
//
//beans:component
type Payment interface {
	Charge(ctx context.Context, amount int64) (string, error)
}

// CardPayment is the only Payment of the shop.
//
//beans:component
type CardPayment struct {
	mu      sync.Mutex
	charges int
}

// Charge returns a receipt for a positive amount.
func (p *CardPayment) Charge(_ context.Context, amount int64) (string, error) {
	if amount <= 0 {
		return "", errors.Errorf("invalid amount %d", amount)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.charges++
	return fmt.Sprintf("receipt-%d", p.charges), nil
}

// Order is a placed order.
type Order struct {
	Item     string
	Quantity int
	Receipt  string
}

// OrderService places orders.
type OrderService interface {
	PlaceOrder(ctx context.Context, item string, quantity int) (Order, error)
	Cancel(ctx context.Context, receipt string) error
}

// DefaultOrderService charges the customer and reserves stock.
//
//beans:component orderService
//beans:transactional OrderService
type DefaultOrderService struct {
	Payment   Payment        `inject:""`
	Inventory *Inventory     `inject:""`
	Ledger    billing.Ledger `inject:""`
}

// PlaceOrder reserves the items, charges 100 per item and records the sale.
func (s *DefaultOrderService) PlaceOrder(ctx context.Context, item string, quantity int) (Order, error) {
	if err := s.Inventory.Reserve(ctx, item, quantity); err != nil {
		return Order{}, err
	}
	receipt, err := s.Payment.Charge(ctx, int64(quantity)*100)
	if err != nil {
		return Order{}, errors.Wrap(err, "charge failed")
	}
	if err := s.Ledger.Record(ctx, receipt, int64(quantity)*100); err != nil {
		return Order{}, err
	}
	return Order{Item: item, Quantity: quantity, Receipt: receipt}, nil
}

// Cancel always fails: orders are final.
func (s *DefaultOrderService) Cancel(_ context.Context, receipt string) error {
	return errors.Errorf("order %s cannot be cancelled", receipt)
}

// Checkout depends on the order service. It is built before the order
// service is put behind its interceptor, so it holds the bare service.
//
//beans:component
type Checkout struct {
	Orders OrderService `inject:""`
}

// Stock holds the item counts shared by every copy of the inventory.
//
//beans:component
type Stock struct {
	mu     sync.Mutex
	counts map[string]int
}

// Add adds quantity units of item.
func (s *Stock) Add(item string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.counts == nil {
		s.counts = make(map[string]int)
	}
	s.counts[item] += quantity
}

// Take removes quantity units of item, or fails with ErrOutOfStock.
func (s *Stock) Take(item string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.counts[item] < quantity {
		return errors.Wrapf(ErrOutOfStock, "%d %s", quantity, item)
	}
	s.counts[item] -= quantity
	return nil
}

// Inventory reserves stock. It exposes no contract, so the container copies
// it and hands the copy its interceptor. Beans injected with the inventory
// before that hold the original, which reserves without a transaction.
//
//beans:component
//beans:transactional
type Inventory struct {
	Stock *Stock `inject:""`

	ic *tx.Interceptor
}

var _ tx.Interceptable = (*Inventory)(nil)

// UseInterceptor sets the interceptor Reserve runs through.
func (inv *Inventory) UseInterceptor(ic *tx.Interceptor) { inv.ic = ic }

// Restock adds quantity units of item.
func (inv *Inventory) Restock(item string, quantity int) {
	inv.Stock.Add(item, quantity)
}

// Reserve removes quantity units of item, or fails with ErrOutOfStock.
func (inv *Inventory) Reserve(ctx context.Context, item string, quantity int) error {
	return inv.ic.Invoke(ctx, "Reserve", func(context.Context) error {
		return inv.Stock.Take(item, quantity)
	})
}
