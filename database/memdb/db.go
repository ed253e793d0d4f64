// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package memdb provides an ephemeral, map-backed database. It exists for
// tests and benchmarks; nothing survives process exit.
package memdb

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/ava-labs/ledgerdb/database"
)

// DefaultSize is the initial capacity of the backing map.
const DefaultSize = 1 << 10

var (
	_ database.Database = (*Database)(nil)
	_ database.Batch    = (*batch)(nil)
	_ database.Iterator = (*iterator)(nil)
)

// Database is an in-memory key-value store. A nil entries map marks the
// database closed; every operation afterwards fails with ErrClosed.
type Database struct {
	lock    sync.RWMutex
	entries map[string][]byte
}

func New() *Database {
	return NewWithSize(DefaultSize)
}

func NewWithSize(size int) *Database {
	return &Database{entries: make(map[string][]byte, size)}
}

func (db *Database) Has(key []byte) (bool, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.entries == nil {
		return false, database.ErrClosed
	}
	_, ok := db.entries[string(key)]
	return ok, nil
}

func (db *Database) Get(key []byte) ([]byte, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.entries == nil {
		return nil, database.ErrClosed
	}
	value, ok := db.entries[string(key)]
	if !ok {
		return nil, database.ErrNotFound
	}
	return slices.Clone(value), nil
}

func (db *Database) Put(key []byte, value []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.entries == nil {
		return database.ErrClosed
	}
	db.entries[string(key)] = slices.Clone(value)
	return nil
}

func (db *Database) Delete(key []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.entries == nil {
		return database.ErrClosed
	}
	delete(db.entries, string(key))
	return nil
}

func (db *Database) NewBatch() database.Batch {
	return &batch{db: db}
}

func (db *Database) NewIterator() database.Iterator {
	return db.NewIteratorWithStartAndPrefix(nil, nil)
}

func (db *Database) NewIteratorWithStart(start []byte) database.Iterator {
	return db.NewIteratorWithStartAndPrefix(start, nil)
}

func (db *Database) NewIteratorWithPrefix(prefix []byte) database.Iterator {
	return db.NewIteratorWithStartAndPrefix(nil, prefix)
}

// NewIteratorWithStartAndPrefix returns an iterator over a sorted snapshot
// of the matching entries, taken at creation. Writes made while the
// iterator is live are not reflected in it.
func (db *Database) NewIteratorWithStartAndPrefix(start, prefix []byte) database.Iterator {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.entries == nil {
		return &database.IteratorError{
			Err: database.ErrClosed,
		}
	}

	snapshot := make([]keyValue, 0, len(db.entries))
	for key, value := range db.entries {
		if key >= string(start) && strings.HasPrefix(key, string(prefix)) {
			snapshot = append(snapshot, keyValue{
				key:   key,
				value: slices.Clone(value),
			})
		}
	}
	slices.SortFunc(snapshot, func(a, b keyValue) int {
		return strings.Compare(a.key, b.key)
	})
	return &iterator{
		db:       db,
		snapshot: snapshot,
		position: -1,
	}
}

func (db *Database) Compact([]byte, []byte) error {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.entries == nil {
		return database.ErrClosed
	}
	return nil
}

func (db *Database) Close() error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.entries == nil {
		return database.ErrClosed
	}
	db.entries = nil
	return nil
}

func (db *Database) isClosed() bool {
	db.lock.RLock()
	defer db.lock.RUnlock()

	return db.entries == nil
}

func (db *Database) HealthCheck(context.Context) (interface{}, error) {
	if db.isClosed() {
		return nil, database.ErrClosed
	}
	return nil, nil
}

type batch struct {
	database.BatchOps

	db *Database
}

func (b *batch) Write() error {
	b.db.lock.Lock()
	defer b.db.lock.Unlock()

	if b.db.entries == nil {
		return database.ErrClosed
	}
	for _, op := range b.Ops {
		if op.Delete {
			delete(b.db.entries, string(op.Key))
		} else {
			b.db.entries[string(op.Key)] = op.Value
		}
	}
	return nil
}

func (b *batch) Inner() database.Batch {
	return b
}

type keyValue struct {
	key   string
	value []byte
}

type iterator struct {
	db       *Database
	snapshot []keyValue
	position int
	err      error
}

func (it *iterator) Next() bool {
	// Exhaust the iterator if the database was closed under it.
	if it.db.isClosed() {
		it.snapshot = nil
		it.err = database.ErrClosed
		return false
	}
	if it.position < len(it.snapshot) {
		it.position++
	}
	return it.position < len(it.snapshot)
}

func (it *iterator) Error() error {
	return it.err
}

func (it *iterator) Key() []byte {
	if it.position < 0 || it.position >= len(it.snapshot) {
		return nil
	}
	return []byte(it.snapshot[it.position].key)
}

func (it *iterator) Value() []byte {
	if it.position < 0 || it.position >= len(it.snapshot) {
		return nil
	}
	return it.snapshot[it.position].value
}

func (it *iterator) Release() {
	it.snapshot = nil
	it.position = 0
}