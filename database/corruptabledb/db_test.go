// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package corruptabledb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/ledgerdb/database"
	"github.com/ava-labs/ledgerdb/database/memdb"
	"github.com/ava-labs/ledgerdb/utils/logging"
)

var errTest = errors.New("non-standard error")

func TestInterface(t *testing.T) {
	for name, test := range database.Tests {
		t.Run(name, func(t *testing.T) {
			baseDB := memdb.New()
			test(t, New(baseDB, logging.NoLog{}))
		})
	}
}

// TestCorruption tests to make sure corruptabledb wrapper works as expected.
func TestCorruption(t *testing.T) {
	key := []byte("hello")
	value := []byte("world")
	tests := map[string]func(db database.Database) error{
		"corrupted has": func(db database.Database) error {
			_, err := db.Has(key)
			return err
		},
		"corrupted get": func(db database.Database) error {
			_, err := db.Get(key)
			return err
		},
		"corrupted put": func(db database.Database) error {
			return db.Put(key, value)
		},
		"corrupted delete": func(db database.Database) error {
			return db.Delete(key)
		},
		"corrupted batch": func(db database.Database) error {
			corruptableBatch := db.NewBatch()
			if err := corruptableBatch.Put(key, value); err != nil {
				return err
			}
			return corruptableBatch.Write()
		},
		"corrupted healthcheck": func(db database.Database) error {
			_, err := db.HealthCheck(context.Background())
			return err
		},
	}
	baseDB := memdb.New()
	// wrap this db
	corruptableDB := New(baseDB, logging.NoLog{})
	_ = corruptableDB.handleError(errTest)
	for name, testFn := range tests {
		t.Run(name, func(t *testing.T) {
			err := testFn(corruptableDB)
			require.ErrorIs(t, err, database.ErrAvoidCorruption)
		})
	}
}
