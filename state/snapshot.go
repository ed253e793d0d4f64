// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ava-labs/ledgerdb/cache/lru"
	"github.com/ava-labs/ledgerdb/database"
	"github.com/ava-labs/ledgerdb/gas"
	"github.com/ava-labs/ledgerdb/ids"
	"github.com/ava-labs/ledgerdb/utils"
	"github.com/ava-labs/ledgerdb/utils/maybe"
)

// Snapshot is a read-only view of the last committed height, safe to use
// concurrently with the next block's execution. The view lives only until
// the next block commits; after that every read fails with
// ErrSnapshotInvalidated.
type Snapshot struct {
	state  *State
	height uint64
	root   ids.ID
	cache  *lru.SizedCache[string, maybe.Maybe[[]byte]]

	invalidated utils.Atomic[bool]
}

// NewSnapshot returns a read-only view of the current committed height.
func (s *State) NewSnapshot() (*Snapshot, error) {
	if s.halted.Get() {
		return nil, ErrHalted
	}

	snap := &Snapshot{
		state:  s,
		height: s.height,
		root:   s.root,
		cache: lru.NewSizedCacheWithMaxLen(
			s.config.CacheSize,
			s.config.CacheBytes,
			cachedEntrySize,
		),
	}
	s.snapLock.Lock()
	s.snapshots[snap] = struct{}{}
	s.snapLock.Unlock()
	return snap, nil
}

// Height returns the committed height this snapshot was taken at.
func (snap *Snapshot) Height() uint64 {
	return snap.height
}

// Root returns the commitment root this snapshot was taken at.
func (snap *Snapshot) Root() ids.ID {
	return snap.root
}

func (snap *Snapshot) invalidate() {
	snap.invalidated.Set(true)
}

func (snap *Snapshot) usable() error {
	if snap.invalidated.Get() {
		return fmt.Errorf("%w: snapshot of height %d", ErrSnapshotInvalidated, snap.height)
	}
	return nil
}

// resolve reads [key]'s committed state through the snapshot's own cache.
func (snap *Snapshot) resolve(key Key) (maybe.Maybe[[]byte], error) {
	encoded := key.Bytes()
	if entry, ok := snap.cache.Get(string(encoded)); ok {
		return entry, nil
	}

	snap.state.lock.RLock()
	value, err := snap.state.stateDB.Get(encoded)
	snap.state.lock.RUnlock()

	var entry maybe.Maybe[[]byte]
	switch {
	case err == nil:
		entry = maybe.Some(value)
	case errors.Is(err, database.ErrNotFound):
		entry = maybe.Nothing[[]byte]()
	default:
		return maybe.Nothing[[]byte](), err
	}
	snap.cache.Put(string(encoded), entry)
	return entry, nil
}

// Get returns the committed value of [key] at the snapshot's height.
func (snap *Snapshot) Get(key Key) ([]byte, error) {
	if err := snap.usable(); err != nil {
		return nil, err
	}
	if key.IsZero() {
		return nil, ErrInvalidKey
	}

	entry, err := snap.resolve(key)
	if err != nil {
		return nil, err
	}
	if entry.IsNothing() {
		return nil, database.ErrNotFound
	}
	return slices.Clone(entry.Value()), nil
}

// Has returns whether [key] had a value at the snapshot's height.
func (snap *Snapshot) Has(key Key) (bool, error) {
	if err := snap.usable(); err != nil {
		return false, err
	}
	if key.IsZero() {
		return false, ErrInvalidKey
	}

	entry, err := snap.resolve(key)
	if err != nil {
		return false, err
	}
	return entry.HasValue(), nil
}

// NewIteratorWithPrefix returns an iterator over the snapshot's committed
// state under [prefix]. The scan fails with ErrSnapshotInvalidated if a
// block commits mid-scan.
func (snap *Snapshot) NewIteratorWithPrefix(prefix Key) *Iterator {
	if err := snap.usable(); err != nil {
		return newErrorIterator(err)
	}

	it := &Iterator{
		meter: gas.NoMeter{},
		check: snap.usable,
	}
	if !prefix.IsZero() {
		entry, err := snap.resolve(prefix)
		if err != nil {
			return newErrorIterator(err)
		}
		if entry.HasValue() {
			it.exact = &stagedEntry{key: prefix, entry: entry}
		}
		it.backend = snap.state.stateDB.NewIteratorWithPrefix(prefix.scanLimit())
	} else {
		it.backend = snap.state.stateDB.NewIterator()
	}
	return it
}

// Release discards the snapshot's cache and unregisters it. Safe to call
// more than once.
func (snap *Snapshot) Release() {
	snap.invalidate()
	snap.cache.Flush()

	snap.state.snapLock.Lock()
	delete(snap.state.snapshots, snap)
	snap.state.snapLock.Unlock()
}
