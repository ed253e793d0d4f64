// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package meterdb

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/ledgerdb/database"
	"github.com/ava-labs/ledgerdb/database/memdb"
)

func TestInterface(t *testing.T) {
	for name, test := range database.Tests {
		t.Run(name, func(t *testing.T) {
			baseDB := memdb.New()
			db, err := New("", prometheus.NewRegistry(), baseDB)
			require.NoError(t, err)
			test(t, db)
		})
	}
}
