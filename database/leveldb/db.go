// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package leveldb

import (
	"bytes"
	"context"
	"slices"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
	"go.uber.org/zap"

	"github.com/ava-labs/ledgerdb/database"
	"github.com/ava-labs/ledgerdb/utils"
	"github.com/ava-labs/ledgerdb/utils/logging"
)

const (
	// Name is the name of this database for database switches
	Name = "leveldb"

	// DefaultBlockCacheSize is the number of bytes to use for block caching in
	// leveldb.
	DefaultBlockCacheSize = 12 * opt.MiB

	// DefaultWriteBufferSize is the number of bytes to use for buffers in
	// leveldb.
	DefaultWriteBufferSize = 12 * opt.MiB

	// DefaultHandleCap is the number of files descriptors to cap levelDB to
	// use.
	DefaultHandleCap = 1024

	// DefaultBitsPerKey is the number of bits to add to the bloom filter per
	// key.
	DefaultBitsPerKey = 10
)

var (
	_ database.Database = (*Database)(nil)
	_ database.Batch    = (*batch)(nil)
	_ database.Iterator = (*iter)(nil)
)

// Database is a persistent key-value store. Apart from basic data storage
// functionality it also supports batch writes and iterating over the keyspace
// in binary-alphabetical order.
type Database struct {
	db     *leveldb.DB
	closed utils.Atomic[bool]
	log    logging.Logger
}

// New returns a wrapped LevelDB object.
func New(file string, log logging.Logger) (*Database, error) {
	parsedOptions := &opt.Options{
		BlockCacheCapacity:            DefaultBlockCacheSize,
		DisableSeeksCompaction:        true,
		OpenFilesCacheCapacity:        DefaultHandleCap,
		WriteBuffer:                   DefaultWriteBufferSize / 2,
		Filter:                        filter.NewBloomFilter(DefaultBitsPerKey),
		OpenFilesCacher:               opt.DefaultOpenFilesCacher,
		CompactionExpandLimitFactor:   opt.DefaultCompactionExpandLimitFactor,
		CompactionGPOverlapsFactor:    opt.DefaultCompactionGPOverlapsFactor,
		CompactionL0Trigger:           opt.DefaultCompactionL0Trigger,
		CompactionSourceLimitFactor:   opt.DefaultCompactionSourceLimitFactor,
		CompactionTableSize:           opt.DefaultCompactionTableSize,
		CompactionTableSizeMultiplier: opt.DefaultCompactionTableSizeMultiplier,
		CompactionTotalSize:           opt.DefaultCompactionTotalSize,
		CompactionTotalSizeMultiplier: opt.DefaultCompactionTotalSizeMultiplier,
	}

	log.Info("creating leveldb",
		zap.String("path", file),
	)

	// Open the db and recover any potential corruptions
	db, err := leveldb.OpenFile(file, parsedOptions)
	if _, corrupted := err.(*errors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(file, parsedOptions)
	}
	if err != nil {
		return nil, err
	}

	return &Database{
		db:  db,
		log: log,
	}, nil
}

// Has returns if the key is set in the database
func (db *Database) Has(key []byte) (bool, error) {
	has, err := db.db.Has(key, nil)
	return has, updateError(err)
}

// Get returns the value the key maps to in the database
func (db *Database) Get(key []byte) ([]byte, error) {
	value, err := db.db.Get(key, nil)
	return value, updateError(err)
}

// Put sets the value of the provided key to the provided value
func (db *Database) Put(key []byte, value []byte) error {
	return updateError(db.db.Put(key, value, nil))
}

// Delete removes the key from the database
func (db *Database) Delete(key []byte) error {
	return updateError(db.db.Delete(key, nil))
}

// NewBatch creates a write/delete-only buffer that is atomically committed to
// the database when write is called
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

// NewIteratorWithStartAndPrefix creates a lexicographically ordered iterator
// over the database starting at start and ignoring keys that do not start
// with the provided prefix.
func (db *Database) NewIteratorWithStartAndPrefix(start, prefix []byte) database.Iterator {
	dbIter := db.db.NewIterator(iterateRange(start, prefix), nil)
	return &iter{
		db:       db,
		Iterator: dbIter,
	}
}

func iterateRange(start, prefix []byte) *util.Range {
	dbRange := util.BytesPrefix(prefix)
	if bytes.Compare(start, prefix) > 0 {
		dbRange.Start = slices.Clone(start)
	}
	return dbRange
}

// Compact the underlying DB for the given key range.
func (db *Database) Compact(start []byte, limit []byte) error {
	return updateError(db.db.CompactRange(util.Range{Start: start, Limit: limit}))
}

func (db *Database) Close() error {
	db.closed.Set(true)
	return updateError(db.db.Close())
}

func (db *Database) HealthCheck(context.Context) (interface{}, error) {
	if db.closed.Get() {
		return nil, database.ErrClosed
	}
	return nil, nil
}

// batch is a wrapper around a levelDB batch to contain sizes.
type batch struct {
	leveldb.Batch

	db   *Database
	size int
}

// Put the value into the batch for later writing
func (b *batch) Put(key, value []byte) error {
	b.Batch.Put(key, value)
	b.size += len(key) + len(value) + levelDBByteOverhead
	return nil
}

// Delete the key during writing
func (b *batch) Delete(key []byte) error {
	b.Batch.Delete(key)
	b.size += len(key) + levelDBByteOverhead
	return nil
}

// Size retrieves the amount of data queued up for writing.
func (b *batch) Size() int {
	return b.size
}

// Write flushes any accumulated data to disk.
func (b *batch) Write() error {
	return updateError(b.db.db.Write(&b.Batch, nil))
}

// Reset resets the batch for reuse.
func (b *batch) Reset() {
	b.Batch.Reset()
	b.size = 0
}

// Replay the batch contents.
func (b *batch) Replay(w database.KeyValueWriterDeleter) error {
	replay := &replayer{writerDeleter: w}
	if err := b.Batch.Replay(replay); err != nil {
		// Return the error that occurred inside of the replayer, which may be
		// more descriptive than what leveldb wrapped it with.
		if replay.err != nil {
			return replay.err
		}
		return updateError(err)
	}
	return updateError(replay.err)
}

// Inner returns itself
func (b *batch) Inner() database.Batch {
	return b
}

const levelDBByteOverhead = 8

type replayer struct {
	writerDeleter database.KeyValueWriterDeleter
	err           error
}

func (r *replayer) Put(key, value []byte) {
	if r.err != nil {
		return
	}
	r.err = r.writerDeleter.Put(key, value)
}

func (r *replayer) Delete(key []byte) {
	if r.err != nil {
		return
	}
	r.err = r.writerDeleter.Delete(key)
}

type iter struct {
	db *Database
	iterator.Iterator

	key, val []byte
	err      error
}

func (it *iter) Next() bool {
	// Short-circuit and set an error if the underlying database has been
	// closed.
	if it.db.closed.Get() {
		it.key = nil
		it.val = nil
		it.err = database.ErrClosed
		return false
	}

	hasNext := it.Iterator.Next()
	if hasNext {
		it.key = slices.Clone(it.Iterator.Key())
		it.val = slices.Clone(it.Iterator.Value())
	} else {
		it.key = nil
		it.val = nil
	}
	return hasNext
}

func (it *iter) Error() error {
	if it.err != nil {
		return it.err
	}
	return updateError(it.Iterator.Error())
}

func (it *iter) Key() []byte {
	return it.key
}

func (it *iter) Value() []byte {
	return it.val
}

// updateError casts leveldb specific errors to errors that the database
// interface expects.
func updateError(err error) error {
	switch err {
	case leveldb.ErrClosed:
		return database.ErrClosed
	case leveldb.ErrNotFound:
		return database.ErrNotFound
	default:
		return err
	}
}
