// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package meterdb

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/ledgerdb/database"
)

var (
	_ database.Database = (*Database)(nil)
	_ database.Batch    = (*batch)(nil)
	_ database.Iterator = (*iterator)(nil)
)

// Database tracks the latency of database operations with prometheus
// histograms.
type Database struct {
	metrics
	db database.Database
}

// New returns a new database with added metrics
func New(
	namespace string,
	registerer prometheus.Registerer,
	db database.Database,
) (*Database, error) {
	meterDB := &Database{db: db}
	return meterDB, meterDB.metrics.Initialize(namespace, registerer)
}

func (db *Database) Has(key []byte) (bool, error) {
	start := time.Now()
	has, err := db.db.Has(key)
	db.metrics.has.Observe(float64(time.Since(start)))
	return has, err
}

func (db *Database) Get(key []byte) ([]byte, error) {
	start := time.Now()
	value, err := db.db.Get(key)
	db.metrics.get.Observe(float64(time.Since(start)))
	return value, err
}

func (db *Database) Put(key, value []byte) error {
	start := time.Now()
	err := db.db.Put(key, value)
	db.metrics.put.Observe(float64(time.Since(start)))
	return err
}

func (db *Database) Delete(key []byte) error {
	start := time.Now()
	err := db.db.Delete(key)
	db.metrics.delete.Observe(float64(time.Since(start)))
	return err
}

func (db *Database) NewBatch() database.Batch {
	start := time.Now()
	b := &batch{
		batch: db.db.NewBatch(),
		db:    db,
	}
	db.metrics.newBatch.Observe(float64(time.Since(start)))
	return b
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

func (db *Database) NewIteratorWithStartAndPrefix(start, prefix []byte) database.Iterator {
	startTime := time.Now()
	it := &iterator{
		iterator: db.db.NewIteratorWithStartAndPrefix(start, prefix),
		db:       db,
	}
	db.metrics.newIterator.Observe(float64(time.Since(startTime)))
	return it
}

func (db *Database) Compact(start, limit []byte) error {
	startTime := time.Now()
	err := db.db.Compact(start, limit)
	db.metrics.compact.Observe(float64(time.Since(startTime)))
	return err
}

func (db *Database) Close() error {
	start := time.Now()
	err := db.db.Close()
	db.metrics.close.Observe(float64(time.Since(start)))
	return err
}

func (db *Database) HealthCheck(ctx context.Context) (interface{}, error) {
	start := time.Now()
	health, err := db.db.HealthCheck(ctx)
	db.metrics.healthCheck.Observe(float64(time.Since(start)))
	return health, err
}

type batch struct {
	batch database.Batch
	db    *Database
}

func (b *batch) Put(key, value []byte) error {
	start := time.Now()
	err := b.batch.Put(key, value)
	b.db.metrics.bPut.Observe(float64(time.Since(start)))
	return err
}

func (b *batch) Delete(key []byte) error {
	start := time.Now()
	err := b.batch.Delete(key)
	b.db.metrics.bDelete.Observe(float64(time.Since(start)))
	return err
}

func (b *batch) Size() int {
	return b.batch.Size()
}

func (b *batch) Write() error {
	start := time.Now()
	err := b.batch.Write()
	b.db.metrics.bWrite.Observe(float64(time.Since(start)))
	return err
}

func (b *batch) Reset() {
	start := time.Now()
	b.batch.Reset()
	b.db.metrics.bReset.Observe(float64(time.Since(start)))
}

func (b *batch) Replay(w database.KeyValueWriterDeleter) error {
	start := time.Now()
	err := b.batch.Replay(w)
	b.db.metrics.bReplay.Observe(float64(time.Since(start)))
	return err
}

func (b *batch) Inner() database.Batch {
	return b.batch.Inner()
}

type iterator struct {
	iterator database.Iterator
	db       *Database
}

func (it *iterator) Next() bool {
	start := time.Now()
	next := it.iterator.Next()
	it.db.metrics.iNext.Observe(float64(time.Since(start)))
	return next
}

func (it *iterator) Error() error {
	return it.iterator.Error()
}

func (it *iterator) Key() []byte {
	return it.iterator.Key()
}

func (it *iterator) Value() []byte {
	return it.iterator.Value()
}

func (it *iterator) Release() {
	start := time.Now()
	it.iterator.Release()
	it.db.metrics.iRelease.Observe(float64(time.Since(start)))
}
