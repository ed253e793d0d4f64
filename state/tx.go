// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"slices"

	"github.com/ava-labs/ledgerdb/database"
	"github.com/ava-labs/ledgerdb/gas"
	"github.com/ava-labs/ledgerdb/ids"
	"github.com/ava-labs/ledgerdb/utils/maybe"
)

// Tx is one transaction's view of the state: reads resolve through the
// transaction overlay, the block overlay, the read cache and the backend, in
// that order; writes stage into the transaction overlay only.
//
// Every operation is charged to the transaction's gas meter before it takes
// effect. The first gas or backend error sticks: all further operations fail
// with it, and Commit degrades to Abort. Gas consumed by a failed
// transaction stays consumed.
type Tx struct {
	state   *State
	digest  ids.ID
	meter   gas.Meter
	overlay *overlay

	err      error
	finished bool
}

// Digest returns the transaction's replay digest.
func (t *Tx) Digest() ids.ID {
	return t.digest
}

// Consumed returns the gas consumed so far.
func (t *Tx) Consumed() uint64 {
	return t.meter.Consumed()
}

func (t *Tx) usable() error {
	switch {
	case t.finished:
		return ErrTxDone
	case t.state.halted.Get():
		return ErrHalted
	default:
		return t.err
	}
}

// fail latches [err] as the transaction's sticky failure.
func (t *Tx) fail(err error) error {
	t.err = err
	return err
}

// Get returns the value of [key], or database.ErrNotFound. The returned
// slice is the caller's to keep.
func (t *Tx) Get(key Key) ([]byte, error) {
	if err := t.usable(); err != nil {
		return nil, err
	}
	if key.IsZero() {
		return nil, ErrInvalidKey
	}

	entry, err := t.resolve(key)
	if err != nil {
		return nil, t.fail(err)
	}
	if err := t.meter.Charge(readCost(key.Length(), len(entry.Value()))); err != nil {
		return nil, t.fail(err)
	}
	if entry.IsNothing() {
		return nil, database.ErrNotFound
	}
	return slices.Clone(entry.Value()), nil
}

// Has returns whether [key] has a value.
func (t *Tx) Has(key Key) (bool, error) {
	if err := t.usable(); err != nil {
		return false, err
	}
	if key.IsZero() {
		return false, ErrInvalidKey
	}
	if err := t.meter.Charge(hasCost(key.Length())); err != nil {
		return false, t.fail(err)
	}

	entry, err := t.resolve(key)
	if err != nil {
		return false, t.fail(err)
	}
	return entry.HasValue(), nil
}

// Put stages [value] for [key] in the transaction overlay.
func (t *Tx) Put(key Key, value []byte) error {
	if err := t.usable(); err != nil {
		return err
	}
	if key.IsZero() {
		return ErrInvalidKey
	}
	if err := t.meter.Charge(writeCost(key.Length(), len(value))); err != nil {
		return t.fail(err)
	}

	t.overlay.put(key, maybe.Some(slices.Clone(value)))
	t.state.evict(key)
	return nil
}

// Delete stages a tombstone for [key] in the transaction overlay. Deleting
// an absent key is a no-op with the same cost.
func (t *Tx) Delete(key Key) error {
	if err := t.usable(); err != nil {
		return err
	}
	if key.IsZero() {
		return ErrInvalidKey
	}
	if err := t.meter.Charge(writeCost(key.Length(), 0)); err != nil {
		return t.fail(err)
	}

	t.overlay.put(key, maybe.Nothing[[]byte]())
	t.state.evict(key)
	return nil
}

// resolve reads [key] through the full overlay chain.
func (t *Tx) resolve(key Key) (maybe.Maybe[[]byte], error) {
	if entry, ok := t.overlay.get(key); ok {
		return entry, nil
	}
	return t.state.resolveStaged(key)
}

// NewIteratorWithPrefix returns an iterator over every key equal to or
// nested under [prefix], in canonical order, merging staged overlay state
// with the committed state. The zero prefix iterates the whole keyspace.
//
// Each yielded entry is charged to the gas meter. Mutating the transaction
// while an iterator is open is undefined.
func (t *Tx) NewIteratorWithPrefix(prefix Key) *Iterator {
	if err := t.usable(); err != nil {
		return newErrorIterator(err)
	}
	return newMergedIterator(
		t.state,
		prefix,
		t.meter,
		func(err error) { t.fail(err) },
		t.state.blockOverlay,
		t.overlay,
	)
}

// Commit folds the transaction's staged changes into the block overlay. If
// the transaction already failed, Commit aborts instead and returns the
// sticky error.
func (t *Tx) Commit() error {
	if t.finished {
		return ErrTxDone
	}
	if t.state.halted.Get() {
		return ErrHalted
	}
	if t.err != nil {
		if err := t.state.abortTx(t); err != nil {
			return err
		}
		t.finished = true
		return t.err
	}
	if err := t.state.commitTx(t); err != nil {
		return err
	}
	t.finished = true
	return nil
}

// Abort discards the transaction's staged changes.
func (t *Tx) Abort() error {
	if t.finished {
		return ErrTxDone
	}
	if err := t.state.abortTx(t); err != nil {
		return err
	}
	t.finished = true
	return nil
}
