// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package database

import (
	"encoding/binary"
	"errors"

	"github.com/ava-labs/ledgerdb/ids"
)

const (
	Uint64Size = 8 // bytes

	// kvPairOverhead is an estimated overhead for a kv pair in a database.
	kvPairOverhead = 8 // bytes
)

var errWrongSize = errors.New("value has unexpected size")

func PutID(db KeyValueWriter, key []byte, val ids.ID) error {
	return db.Put(key, val[:])
}

func GetID(db KeyValueReader, key []byte) (ids.ID, error) {
	b, err := db.Get(key)
	if err != nil {
		return ids.Empty, err
	}
	return ids.ToID(b)
}

func PutUInt64(db KeyValueWriter, key []byte, val uint64) error {
	b := PackUInt64(val)
	return db.Put(key, b)
}

func GetUInt64(db KeyValueReader, key []byte) (uint64, error) {
	b, err := db.Get(key)
	if err != nil {
		return 0, err
	}
	return ParseUInt64(b)
}

func PackUInt64(val uint64) []byte {
	bytes := make([]byte, Uint64Size)
	binary.BigEndian.PutUint64(bytes, val)
	return bytes
}

func ParseUInt64(b []byte) (uint64, error) {
	if len(b) != Uint64Size {
		return 0, errWrongSize
	}
	return binary.BigEndian.Uint64(b), nil
}

// WithDefault returns the value at [key] in [db]. If the key doesn't exist,
// it returns [def].
func WithDefault[V any](
	get func(KeyValueReader, []byte) (V, error),
	db KeyValueReader,
	key []byte,
	def V,
) (V, error) {
	v, err := get(db, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	return v, err
}

// AtomicClear deletes every key returned by [readerDB]'s iterator from
// [deleterDB] in a single batch. Returns the number of deleted keys.
func AtomicClear(readerDB Iteratee, deleterDB Batcher) (int, error) {
	return AtomicClearPrefix(readerDB, deleterDB, nil)
}

// AtomicClearPrefix deletes from [deleterDB], in a single batch, every key
// with [prefix] returned by [readerDB]'s iterator. Returns the number of
// deleted keys.
func AtomicClearPrefix(readerDB Iteratee, deleterDB Batcher, prefix []byte) (int, error) {
	iterator := readerDB.NewIteratorWithPrefix(prefix)
	defer iterator.Release()

	batch := deleterDB.NewBatch()
	numDeleted := 0
	for iterator.Next() {
		if err := batch.Delete(iterator.Key()); err != nil {
			return numDeleted, err
		}
		numDeleted++
	}
	if err := iterator.Error(); err != nil {
		return numDeleted, err
	}
	return numDeleted, batch.Write()
}

// Count iterates over [db] and returns the number of keys.
func Count(db Iteratee) (int, error) {
	iterator := db.NewIterator()
	defer iterator.Release()

	count := 0
	for iterator.Next() {
		count++
	}
	return count, iterator.Error()
}
