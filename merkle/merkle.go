// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package merkle defines the commitment oracle consumed by the storage
// engine, and provides an in-memory reference implementation.
package merkle

import (
	"context"
	"errors"

	"github.com/ava-labs/ledgerdb/ids"
	"github.com/ava-labs/ledgerdb/utils/maybe"
)

var (
	ErrMisorderedDiff      = errors.New("diff is not in canonical key order")
	ErrInsufficientHistory = errors.New("insufficient history to generate proof")
	ErrKeyNotFound         = errors.New("key not committed at height")
)

// ValueChange is one entry of a block diff: a key and its new value, or
// Nothing for a deletion.
type ValueChange struct {
	Key   []byte
	Value maybe.Maybe[[]byte]
}

// Tree computes cryptographic commitments over the committed key-value state.
//
// The storage engine is the single writer. It guarantees that every diff
// passed to Apply is complete (every key changed since the previous height,
// exactly once, Nothing entries for deletions) and in canonical key order.
type Tree interface {
	// Apply folds [diff] into the tree, advancing it one height, and returns
	// the new commitment root.
	Apply(ctx context.Context, diff []ValueChange) (ids.ID, error)

	// Root returns the current commitment root and its height.
	Root() (ids.ID, uint64)

	// RootAt returns the commitment root at [height].
	RootAt(height uint64) (ids.ID, error)

	// Proof returns a membership proof for [key] at [height].
	Proof(key []byte, height uint64) (*Proof, error)
}
