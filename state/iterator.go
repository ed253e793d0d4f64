// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"bytes"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/ava-labs/ledgerdb/database"
	"github.com/ava-labs/ledgerdb/gas"
	"github.com/ava-labs/ledgerdb/utils/maybe"
)

type stagedEntry struct {
	key   Key
	entry maybe.Maybe[[]byte]
}

// Iterator yields keys equal to or nested under a prefix in canonical
// order, merging staged overlay entries with the committed state. Staged
// entries win over committed ones; tombstones suppress the key entirely.
type Iterator struct {
	staged    []stagedEntry
	stagedIdx int

	// Committed state: the key equal to the prefix (which sorts before all
	// of its descendants), then the descendant scan.
	exact        *stagedEntry
	backend      database.Iterator
	backendValid bool

	meter gas.Meter
	// onFail, if set, reports a gas or backend failure to the owner.
	onFail func(error)
	// check, if set, is consulted before every step; used by snapshots to
	// detect invalidation mid-scan.
	check func() error

	key      Key
	value    []byte
	err      error
	released bool
}

// newMergedIterator builds an iterator over [prefix] for the given overlay
// chain. Later overlays win over earlier ones.
func newMergedIterator(
	s *State,
	prefix Key,
	meter gas.Meter,
	onFail func(error),
	overlays ...*overlay,
) *Iterator {
	it := &Iterator{
		staged: collectStaged(prefix, overlays...),
		meter:  meter,
		onFail: onFail,
	}

	if !prefix.IsZero() {
		entry, err := s.resolveCommitted(prefix)
		if err != nil {
			return newErrorIterator(err)
		}
		if entry.HasValue() {
			it.exact = &stagedEntry{key: prefix, entry: entry}
		}
		it.backend = s.stateDB.NewIteratorWithPrefix(prefix.scanLimit())
	} else {
		it.backend = s.stateDB.NewIterator()
	}
	return it
}

func newErrorIterator(err error) *Iterator {
	return &Iterator{err: err}
}

// collectStaged merges the overlays' entries under [prefix] into one sorted
// slice, last overlay winning per key.
func collectStaged(prefix Key, overlays ...*overlay) []stagedEntry {
	merged := make(map[string]stagedEntry)
	for _, o := range overlays {
		o.ascendPrefix(prefix, func(key Key, entry maybe.Maybe[[]byte]) bool {
			merged[string(key.Bytes())] = stagedEntry{key: key, entry: entry}
			return true
		})
	}

	encodedKeys := maps.Keys(merged)
	slices.Sort(encodedKeys)
	staged := make([]stagedEntry, len(encodedKeys))
	for i, encoded := range encodedKeys {
		staged[i] = merged[encoded]
	}
	return staged
}

// Next advances to the next live key. It returns false once the scan is
// exhausted or failed; check Error.
func (it *Iterator) Next() bool {
	if it.err != nil || it.released {
		return false
	}
	if it.check != nil {
		if err := it.check(); err != nil {
			it.fail(err)
			return false
		}
	}

	for {
		committedKey, committedValue, ok := it.peekCommitted()

		var chosen stagedEntry
		switch {
		case it.stagedIdx < len(it.staged) && ok:
			cmp := bytes.Compare(it.staged[it.stagedIdx].key.Bytes(), committedKey)
			if cmp <= 0 {
				chosen = it.staged[it.stagedIdx]
				it.stagedIdx++
				if cmp == 0 {
					it.popCommitted()
				}
			} else {
				chosen = stagedEntry{
					key:   keyFromEncoded(committedKey),
					entry: maybe.Some(committedValue),
				}
				it.popCommitted()
			}
		case it.stagedIdx < len(it.staged):
			chosen = it.staged[it.stagedIdx]
			it.stagedIdx++
		case ok:
			chosen = stagedEntry{
				key:   keyFromEncoded(committedKey),
				entry: maybe.Some(committedValue),
			}
			it.popCommitted()
		default:
			if it.backend != nil {
				if err := it.backend.Error(); err != nil {
					it.fail(err)
				}
			}
			return false
		}

		// Tombstones suppress the key.
		if chosen.entry.IsNothing() {
			continue
		}

		value := chosen.entry.Value()
		if err := it.meter.Charge(scanCost(chosen.key.Length(), len(value))); err != nil {
			it.fail(err)
			return false
		}
		it.key = chosen.key
		it.value = slices.Clone(value)
		return true
	}
}

// peekCommitted returns the smallest unconsumed committed entry, if any.
func (it *Iterator) peekCommitted() ([]byte, []byte, bool) {
	if it.exact != nil {
		return it.exact.key.Bytes(), it.exact.entry.Value(), true
	}
	if it.backend == nil {
		return nil, nil, false
	}
	if it.backendDone() {
		return nil, nil, false
	}
	return it.backend.Key(), it.backend.Value(), true
}

func (it *Iterator) popCommitted() {
	if it.exact != nil {
		it.exact = nil
		return
	}
	it.backendValid = false
}

// backendDone lazily advances the backend iterator and reports exhaustion.
func (it *Iterator) backendDone() bool {
	if it.backendValid {
		return false
	}
	it.backendValid = it.backend.Next()
	return !it.backendValid
}

func (it *Iterator) fail(err error) {
	it.err = err
	if it.onFail != nil {
		it.onFail(err)
	}
}

// Key returns the current key. Valid until the next call to Next.
func (it *Iterator) Key() Key {
	return it.key
}

// Value returns the current value. The slice is the caller's to keep.
func (it *Iterator) Value() []byte {
	return it.value
}

// Error returns the first failure the scan hit, if any.
func (it *Iterator) Error() error {
	return it.err
}

// Release frees the underlying backend iterator. Safe to call more than
// once.
func (it *Iterator) Release() {
	if it.released {
		return
	}
	it.released = true
	it.staged = nil
	if it.backend != nil {
		it.backend.Release()
	}
}
