// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"context"
	"slices"

	"github.com/ava-labs/ledgerdb/gas"
	"github.com/ava-labs/ledgerdb/ids"
	"github.com/ava-labs/ledgerdb/utils/maybe"
)

// Migrator is the entry point for offline state rewrites: a full-keyspace
// ordered scan of the committed state plus an atomic bulk rewrite applied
// through the regular block commit, so the commitment oracle stays in step.
//
// Only one migrator may exist at a time, and only while no transaction is
// active and nothing is staged for the current block.
type Migrator struct {
	state  *State
	staged *overlay
	done   bool
}

// NewMigrator returns a migrator over the committed state. It fails if a
// transaction is active or the block overlay holds staged changes.
func (s *State) NewMigrator() (*Migrator, error) {
	switch {
	case s.halted.Get():
		return nil, ErrHalted
	case s.phase != phaseIdle:
		return nil, ErrTxInProgress
	case s.blockOverlay.len() > 0 || len(s.pendingDigests) > 0:
		return nil, ErrStagedChanges
	}
	return &Migrator{
		state:  s,
		staged: newOverlay(),
	}, nil
}

// Iterate returns an unmetered iterator over the whole committed keyspace
// in canonical order. Changes staged on the migrator are not visible to it.
func (m *Migrator) Iterate() *Iterator {
	if m.done {
		return newErrorIterator(ErrTxDone)
	}
	return newMergedIterator(m.state, Key{}, gas.NoMeter{}, nil)
}

// Put stages [value] for [key] in the rewrite.
func (m *Migrator) Put(key Key, value []byte) error {
	if m.done {
		return ErrTxDone
	}
	if key.IsZero() {
		return ErrInvalidKey
	}
	m.staged.put(key, maybe.Some(slices.Clone(value)))
	return nil
}

// Delete stages a tombstone for [key] in the rewrite.
func (m *Migrator) Delete(key Key) error {
	if m.done {
		return ErrTxDone
	}
	if key.IsZero() {
		return ErrInvalidKey
	}
	m.staged.put(key, maybe.Nothing[[]byte]())
	return nil
}

// Commit applies the staged rewrite as one block: one atomic backend batch,
// one oracle height. Returns the new commitment root. The migrator is spent
// afterwards.
func (m *Migrator) Commit(ctx context.Context) (ids.ID, error) {
	if m.done {
		return ids.Empty, ErrTxDone
	}
	m.done = true

	for key := range m.staged.entries {
		m.state.evict(keyFromEncoded([]byte(key)))
	}
	m.staged.mergeInto(m.state.blockOverlay)
	return m.state.CommitBlock(ctx)
}

// Abort discards the staged rewrite.
func (m *Migrator) Abort() {
	m.done = true
	m.staged.clear()
}
