// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import (
	"bytes"
	"fmt"

	"github.com/ava-labs/ledgerdb/utils/cb58"
	"github.com/ava-labs/ledgerdb/utils/hashing"
)

const IDLen = 32

var Empty = ID{}

// ID wraps a 32 byte hash used as an identifier. Transaction digests and
// commitment roots are IDs.
type ID [IDLen]byte

// ToID attempt to convert a byte slice into an id
func ToID(bytes []byte) (ID, error) {
	if len(bytes) != IDLen {
		return ID{}, fmt.Errorf("expected %d bytes but got %d", IDLen, len(bytes))
	}
	var id ID
	copy(id[:], bytes)
	return id, nil
}

// FromString is the inverse of ID.String()
func FromString(idStr string) (ID, error) {
	b, err := cb58.Decode(idStr)
	if err != nil {
		return ID{}, err
	}
	return ToID(b)
}

// ComputeID returns the ID of the sha256 hash of [data].
func ComputeID(data []byte) ID {
	return ID(hashing.ComputeHash256Array(data))
}

func (id ID) Bytes() []byte {
	return id[:]
}

func (id ID) String() string {
	// We assume that the maximum size of a byte slice that
	// can be stringified is at least the length of an ID
	s, _ := cb58.Encode(id[:])
	return s
}

func (id ID) Compare(other ID) int {
	return bytes.Compare(id[:], other[:])
}
