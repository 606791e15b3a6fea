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
	"strings"
	"testing"

	"github.com/gobeans/beans"
	"github.com/gobeans/beans/tx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Engine interface{ Start() string }

type Diesel struct{}

func (*Diesel) Start() string { return "vroom" }

type Car struct {
	engine Engine
}

func TestComponent(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		e := beans.Component[*Car]()
		assert.Equal(t, "*beans_test.Car", e.Type().String())
		assert.Empty(t, e.Name())
		assert.NoError(t, e.Err())
		assert.Contains(t, e.Source(), "component_test.go")
	})

	t.Run("Named", func(t *testing.T) {
		e := beans.Component[*Car](beans.Named("sedan"))
		assert.Equal(t, "sedan", e.Name())
	})

	t.Run("ValidOptions", func(t *testing.T) {
		e := beans.Component[*Car](
			beans.Inject("engine", func(c *Car, e Engine) { c.engine = e }),
			beans.Constructor(func() (*Car, error) { return &Car{}, nil }),
		)
		assert.NoError(t, e.Err())
	})

	tests := []struct {
		desc    string
		give    beans.ComponentOption
		wantErr string
	}{
		{
			desc:    "InjectWrongTarget",
			give:    beans.Inject("engine", func(d *Diesel, e Engine) {}),
			wantErr: `inject "engine": setter takes *beans_test.Diesel, not *beans_test.Car`,
		},
		{
			desc:    "InjectNilSetter",
			give:    beans.Inject[*Car, Engine]("engine", nil),
			wantErr: `inject "engine": setter is nil`,
		},
		{
			desc:    "ConstructorWrongType",
			give:    beans.Constructor(func() (*Diesel, error) { return nil, nil }),
			wantErr: "constructor returns *beans_test.Diesel, not *beans_test.Car",
		},
		{
			desc:    "ConstructorNil",
			give:    beans.Constructor[*Car](nil),
			wantErr: "constructor is nil",
		},
		{
			desc: "TransactionalContractNotInterface",
			give: beans.Transactional(func(c *Car, _ *tx.Interceptor) *Car {
				return c
			}),
			wantErr: "contract *beans_test.Car is not an interface",
		},
		{
			desc: "TransactionalContractNotImplemented",
			give: beans.Transactional(func(c *Car, _ *tx.Interceptor) Engine {
				return &Diesel{}
			}),
			wantErr: "*beans_test.Car does not implement beans_test.Engine",
		},
		{
			desc: "TransactionalWrongTarget",
			give: beans.Transactional(func(d *Diesel, _ *tx.Interceptor) Engine {
				return d
			}),
			wantErr: "decorator takes *beans_test.Diesel, not *beans_test.Car",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			e := beans.Component[*Car](tt.give)
			require.Error(t, e.Err())
			assert.Contains(t, e.Err().Error(), tt.wantErr)
		})
	}

	t.Run("ErrorsAccumulate", func(t *testing.T) {
		e := beans.Component[*Car](
			beans.Constructor[*Car](nil),
			beans.Inject[*Car, Engine]("engine", nil),
		)
		require.Error(t, e.Err())
		assert.Equal(t, 2, strings.Count(e.Err().Error(), ";")+1)
	})
}
