// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package merkle

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/google/btree"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/ledgerdb/ids"
)

const (
	// DefaultHistoryLen is the number of past heights proofs can be generated
	// for.
	DefaultHistoryLen = 32

	btreeDegree = 16
)

var _ Tree = (*InMemory)(nil)

type leaf struct {
	key  []byte
	hash ids.ID
}

func leafLess(a, b leaf) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// heightRecord captures everything needed to serve proofs for one committed
// height: the ordered leaf keys and their hashes.
type heightRecord struct {
	root   ids.ID
	keys   [][]byte
	hashes []ids.ID
}

// InMemory is a reference Tree keeping the full leaf set in memory, ordered
// by key. The root is a binary Merkle tree over the ordered leaf hashes.
type InMemory struct {
	lock sync.RWMutex

	leaves *btree.BTreeG[leaf]

	height uint64
	root   ids.ID

	// Records for the most recent [historyLen] heights, oldest first.
	historyLen int
	history    []*heightRecord
	// Height of history[0], valid when history is non-empty.
	oldestHeight uint64
}

// NewInMemory returns an empty tree at height 0 retaining proof history for
// [DefaultHistoryLen] heights.
func NewInMemory() *InMemory {
	return NewInMemoryWithHistory(DefaultHistoryLen)
}

func NewInMemoryWithHistory(historyLen int) *InMemory {
	return &InMemory{
		leaves:     btree.NewG(btreeDegree, leafLess),
		historyLen: max(historyLen, 1),
	}
}

func (t *InMemory) Apply(ctx context.Context, diff []ValueChange) (ids.ID, error) {
	// Hash the changed leaves outside the lock. Leaf hashing is the dominant
	// cost of large diffs, so it is spread over the available cores.
	newHashes := make([]ids.ID, len(diff))
	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i, change := range diff {
		if change.Value.IsNothing() {
			continue
		}
		i := i
		change := change
		eg.Go(func() error {
			newHashes[i] = leafHash(change.Key, change.Value.Value())
			return nil
		})
	}
	_ = eg.Wait()

	t.lock.Lock()
	defer t.lock.Unlock()

	for i, change := range diff {
		if i > 0 && bytes.Compare(diff[i-1].Key, change.Key) >= 0 {
			return ids.Empty, fmt.Errorf("%w: %x >= %x", ErrMisorderedDiff, diff[i-1].Key, change.Key)
		}
		if change.Value.IsNothing() {
			t.leaves.Delete(leaf{key: change.Key})
		} else {
			t.leaves.ReplaceOrInsert(leaf{
				key:  slices.Clone(change.Key),
				hash: newHashes[i],
			})
		}
	}

	record := t.snapshot()
	t.height++
	t.root = record.root

	if len(t.history) == 0 {
		t.oldestHeight = t.height
	}
	t.history = append(t.history, record)
	if len(t.history) > t.historyLen {
		t.history[0] = nil
		t.history = t.history[1:]
		t.oldestHeight++
	}

	return t.root, nil
}

func (t *InMemory) snapshot() *heightRecord {
	record := &heightRecord{
		keys:   make([][]byte, 0, t.leaves.Len()),
		hashes: make([]ids.ID, 0, t.leaves.Len()),
	}
	t.leaves.Ascend(func(l leaf) bool {
		record.keys = append(record.keys, l.key)
		record.hashes = append(record.hashes, l.hash)
		return true
	})
	record.root = merkleRoot(record.hashes)
	return record
}

func (t *InMemory) Root() (ids.ID, uint64) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return t.root, t.height
}

func (t *InMemory) RootAt(height uint64) (ids.ID, error) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	record, err := t.recordAt(height)
	if err != nil {
		return ids.Empty, err
	}
	return record.root, nil
}

func (t *InMemory) Proof(key []byte, height uint64) (*Proof, error) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	record, err := t.recordAt(height)
	if err != nil {
		return nil, err
	}

	index, found := slices.BinarySearchFunc(record.keys, key, bytes.Compare)
	if !found {
		return nil, fmt.Errorf("%w: key %x height %d", ErrKeyNotFound, key, height)
	}

	return &Proof{
		Key:       slices.Clone(key),
		Index:     uint64(index),
		NumLeaves: uint64(len(record.hashes)),
		Siblings:  siblingPath(record.hashes, index),
	}, nil
}

func (t *InMemory) recordAt(height uint64) (*heightRecord, error) {
	if len(t.history) == 0 || height < t.oldestHeight || height > t.height {
		return nil, fmt.Errorf("%w: height %d not in [%d, %d]",
			ErrInsufficientHistory, height, t.oldestHeight, t.height)
	}
	return t.history[height-t.oldestHeight], nil
}

// merkleRoot folds the ordered leaf hashes into a binary Merkle root. A level
// with an odd number of nodes promotes its last node unchanged. An empty tree
// commits to the empty ID.
func merkleRoot(hashes []ids.ID) ids.ID {
	if len(hashes) == 0 {
		return ids.Empty
	}
	level := slices.Clone(hashes)
	for len(level) > 1 {
		next := level[:0]
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, internalHash(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		level = next
	}
	return level[0]
}

// siblingPath returns the sibling hashes needed to recompute the root from
// leaf [index], bottom-up. Levels where the node has no sibling (odd tail)
// contribute the empty ID as a placeholder.
func siblingPath(hashes []ids.ID, index int) []ids.ID {
	var siblings []ids.ID
	level := slices.Clone(hashes)
	for len(level) > 1 {
		sibling := index ^ 1
		if sibling < len(level) {
			siblings = append(siblings, level[sibling])
		} else {
			siblings = append(siblings, ids.Empty)
		}

		next := level[:0]
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, internalHash(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		level = next
		index /= 2
	}
	return siblings
}
