// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package merkle

import (
	"encoding/binary"

	"github.com/ava-labs/ledgerdb/ids"
	"github.com/ava-labs/ledgerdb/utils/hashing"
)

// Domain separation tags for leaf and internal node hashes.
const (
	leafHashPrefix     = 0x00
	internalHashPrefix = 0x01
)

// Proof is a membership proof for one key at one height. It carries the
// sibling hashes from the key's leaf up to the root; the value itself is
// supplied at verification time.
type Proof struct {
	Key []byte

	// Position of the leaf among the height's ordered leaves.
	Index     uint64
	NumLeaves uint64

	// Sibling hashes bottom-up. A level where the leaf's ancestor had no
	// sibling holds ids.Empty as a placeholder.
	Siblings []ids.ID
}

// Verify returns whether this proof demonstrates that [p.Key] was committed
// with [value] under [root].
func (p *Proof) Verify(value []byte, root ids.ID) bool {
	if p.Index >= p.NumLeaves {
		return false
	}

	hash := leafHash(p.Key, value)
	index := p.Index
	levelLen := p.NumLeaves

	level := 0
	for levelLen > 1 {
		if level >= len(p.Siblings) {
			return false
		}
		sibling := index ^ 1
		switch {
		case sibling >= levelLen:
			// The ancestor was promoted unchanged; the placeholder sibling
			// carries no information.
			if p.Siblings[level] != ids.Empty {
				return false
			}
		case index%2 == 0:
			hash = internalHash(hash, p.Siblings[level])
		default:
			hash = internalHash(p.Siblings[level], hash)
		}
		index /= 2
		levelLen = (levelLen + 1) / 2
		level++
	}

	return level == len(p.Siblings) && hash == root
}

func leafHash(key, value []byte) ids.ID {
	keyLen := make([]byte, 8)
	binary.BigEndian.PutUint64(keyLen, uint64(len(key)))
	return ids.ID(hashing.ComputeHash256Array(concat(
		[]byte{leafHashPrefix},
		keyLen,
		key,
		value,
	)))
}

func internalHash(left, right ids.ID) ids.ID {
	return ids.ID(hashing.ComputeHash256Array(concat(
		[]byte{internalHashPrefix},
		left[:],
		right[:],
	)))
}

func concat(parts ...[]byte) []byte {
	size := 0
	for _, part := range parts {
		size += len(part)
	}
	buf := make([]byte, 0, size)
	for _, part := range parts {
		buf = append(buf, part...)
	}
	return buf
}
