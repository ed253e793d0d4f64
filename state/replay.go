// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"encoding/binary"
	"fmt"
	"hash"

	bloomfilter "github.com/holiman/bloomfilter/v2"

	"github.com/ava-labs/ledgerdb/database"
	"github.com/ava-labs/ledgerdb/ids"
)

var _ hash.Hash64 = (*digestHasher)(nil)

// digestHasher presents a transaction digest as a hash.Hash64 for the bloom
// filters. Digests are already uniformly distributed, so the first 8 bytes
// serve directly as the 64-bit fingerprint.
type digestHasher ids.ID

func (digestHasher) Write([]byte) (int, error) {
	return 0, nil
}

func (digestHasher) Sum([]byte) []byte {
	return nil
}

func (digestHasher) Reset() {}

func (digestHasher) Size() int {
	return ids.IDLen
}

func (digestHasher) BlockSize() int {
	return ids.IDLen
}

func (d digestHasher) Sum64() uint64 {
	return binary.BigEndian.Uint64(d[:8])
}

// replayGuard tracks the digests of applied transactions within the rolling
// protection window. The authoritative set lives in the backend's replay
// namespace, keyed by epoch ++ digest; per-epoch bloom filters serve fast
// negative lookups.
type replayGuard struct {
	db        database.Database
	bloomSize uint64

	// Per-epoch bloom filters for every epoch still inside the window.
	blooms map[uint64]*bloomfilter.Filter

	// Number of digests currently persisted across all epochs.
	numDigests int
}

func newReplayGuard(db database.Database, bloomSize uint64) (*replayGuard, error) {
	g := &replayGuard{
		db:        db,
		bloomSize: bloomSize,
		blooms:    make(map[uint64]*bloomfilter.Filter),
	}

	// Rebuild the blooms from the persisted set. Epochs already pruned from
	// the backend simply don't reappear.
	iter := db.NewIterator()
	defer iter.Release()
	for iter.Next() {
		epoch, digest, err := parseReplayKey(iter.Key())
		if err != nil {
			return nil, err
		}
		if err := g.add(epoch, digest); err != nil {
			return nil, err
		}
	}
	return g, iter.Error()
}

func replayKey(epoch uint64, digest ids.ID) []byte {
	key := make([]byte, database.Uint64Size+ids.IDLen)
	binary.BigEndian.PutUint64(key, epoch)
	copy(key[database.Uint64Size:], digest[:])
	return key
}

func epochPrefix(epoch uint64) []byte {
	return database.PackUInt64(epoch)
}

func parseReplayKey(key []byte) (uint64, ids.ID, error) {
	if len(key) != database.Uint64Size+ids.IDLen {
		return 0, ids.Empty, fmt.Errorf("replay key has unexpected length %d", len(key))
	}
	epoch := binary.BigEndian.Uint64(key)
	digest, err := ids.ToID(key[database.Uint64Size:])
	return epoch, digest, err
}

// contains returns whether [digest] was committed inside the protection
// window. Bloom hits are confirmed against the persisted set.
func (g *replayGuard) contains(digest ids.ID) (bool, error) {
	for epoch, bloom := range g.blooms {
		if !bloom.Contains(digestHasher(digest)) {
			continue
		}
		has, err := g.db.Has(replayKey(epoch, digest))
		if err != nil {
			return false, err
		}
		if has {
			return true, nil
		}
	}
	return false, nil
}

// add records [digest] under [epoch] in the in-memory blooms. Persistence is
// the block commit's responsibility.
func (g *replayGuard) add(epoch uint64, digest ids.ID) error {
	bloom, ok := g.blooms[epoch]
	if !ok {
		var err error
		bloom, err = bloomfilter.NewOptimal(g.bloomSize, replayBloomFalsePositiveRate)
		if err != nil {
			return err
		}
		g.blooms[epoch] = bloom
	}
	bloom.Add(digestHasher(digest))
	g.numDigests++
	return nil
}

// prune removes every digest of [epoch] from the backend and drops the
// epoch's bloom.
func (g *replayGuard) prune(epoch uint64) (int, error) {
	numPruned, err := database.AtomicClearPrefix(g.db, g.db, epochPrefix(epoch))
	if err != nil {
		return numPruned, err
	}
	delete(g.blooms, epoch)
	g.numDigests -= numPruned
	return numPruned, nil
}

// oldestEpoch returns the lowest epoch with recorded digests.
func (g *replayGuard) oldestEpoch() (uint64, bool) {
	found := false
	var oldest uint64
	for epoch := range g.blooms {
		if !found || epoch < oldest {
			oldest = epoch
			found = true
		}
	}
	return oldest, found
}
