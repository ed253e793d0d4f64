// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package corruptabledb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ava-labs/ledgerdb/database"
	"github.com/ava-labs/ledgerdb/utils/logging"
)

var (
	_ database.Database = (*Database)(nil)
	_ database.Batch    = (*batch)(nil)
)

// Database is a wrapper around a database.Database that refuses to serve any
// further calls after an unexpected error is observed. This prevents
// continuing to operate on a backend whose state can no longer be trusted.
type Database struct {
	database.Database
	log logging.Logger

	// initialError stores the error other than "not found" or "closed" while
	// performing a db operation. If not nil, Has, Get, Put, Delete and batch
	// writes fail with ErrAvoidCorruption.
	errorLock    sync.RWMutex
	initialError error
}

// New returns a new corruptable database wrapping [db].
func New(db database.Database, log logging.Logger) *Database {
	return &Database{
		Database: db,
		log:      log,
	}
}

// Has returns if the key is set in the database
func (db *Database) Has(key []byte) (bool, error) {
	if err := db.corrupted(); err != nil {
		return false, err
	}
	has, err := db.Database.Has(key)
	return has, db.handleError(err)
}

// Get returns the value the key maps to in the database
func (db *Database) Get(key []byte) ([]byte, error) {
	if err := db.corrupted(); err != nil {
		return nil, err
	}
	value, err := db.Database.Get(key)
	return value, db.handleError(err)
}

// Put sets the value of the provided key to the provided value
func (db *Database) Put(key []byte, value []byte) error {
	if err := db.corrupted(); err != nil {
		return err
	}
	return db.handleError(db.Database.Put(key, value))
}

// Delete removes the key from the database
func (db *Database) Delete(key []byte) error {
	if err := db.corrupted(); err != nil {
		return err
	}
	return db.handleError(db.Database.Delete(key))
}

func (db *Database) Compact(start, limit []byte) error {
	if err := db.corrupted(); err != nil {
		return err
	}
	return db.handleError(db.Database.Compact(start, limit))
}

func (db *Database) Close() error {
	if err := db.corrupted(); err != nil {
		return err
	}
	return db.handleError(db.Database.Close())
}

func (db *Database) HealthCheck(ctx context.Context) (interface{}, error) {
	if err := db.corrupted(); err != nil {
		return nil, err
	}
	health, err := db.Database.HealthCheck(ctx)
	return health, db.handleError(err)
}

func (db *Database) NewBatch() database.Batch {
	return &batch{
		Batch: db.Database.NewBatch(),
		db:    db,
	}
}

func (db *Database) corrupted() error {
	db.errorLock.RLock()
	defer db.errorLock.RUnlock()

	if db.initialError == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", database.ErrAvoidCorruption, db.initialError)
}

func (db *Database) handleError(err error) error {
	switch {
	case err == nil,
		errors.Is(err, database.ErrNotFound),
		errors.Is(err, database.ErrClosed):
		return err
	}

	db.errorLock.Lock()
	defer db.errorLock.Unlock()

	// Set the initial error to the first unexpected error. All further
	// operations will be rejected.
	if db.initialError == nil {
		db.log.Error("closing database to avoid possible corruption",
			zap.Error(err),
		)
		db.initialError = err
	}
	return err
}

// batch is a wrapper around the batch to contain sizes.
type batch struct {
	database.Batch

	db *Database
}

// Write flushes any accumulated data to disk.
func (b *batch) Write() error {
	if err := b.db.corrupted(); err != nil {
		return err
	}
	return b.db.handleError(b.Batch.Write())
}
