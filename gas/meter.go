// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gas meters the cost of storage operations.
package gas

import "errors"

var (
	ErrOutOfGas = errors.New("out of gas")

	_ Meter = (*meter)(nil)
	_ Meter = NoMeter{}
)

// Meter tracks a gas budget. Implementations are consulted before every
// metered operation; a charge that would exceed the budget must fail without
// being recorded as consumed past the limit.
type Meter interface {
	// Charge consumes [amount] gas. Returns ErrOutOfGas if the budget is
	// exceeded; the meter is exhausted from then on.
	Charge(amount uint64) error

	// Consumed returns the gas consumed so far.
	Consumed() uint64

	// Remaining returns the gas left in the budget.
	Remaining() uint64
}

type meter struct {
	limit     uint64
	consumed  uint64
	exhausted bool
}

// NewMeter returns a meter with a budget of [limit] gas.
func NewMeter(limit uint64) Meter {
	return &meter{limit: limit}
}

func (m *meter) Charge(amount uint64) error {
	if m.exhausted || amount > m.limit-m.consumed {
		m.consumed = m.limit
		m.exhausted = true
		return ErrOutOfGas
	}
	m.consumed += amount
	return nil
}

func (m *meter) Consumed() uint64 {
	return m.consumed
}

func (m *meter) Remaining() uint64 {
	return m.limit - m.consumed
}

// NoMeter is a Meter without a budget. Used for system-internal operations
// that are not gas metered.
type NoMeter struct{}

func (NoMeter) Charge(uint64) error {
	return nil
}

func (NoMeter) Consumed() uint64 {
	return 0
}

func (NoMeter) Remaining() uint64 {
	return 0
}
