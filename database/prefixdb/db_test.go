// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package prefixdb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/ledgerdb/database"
	"github.com/ava-labs/ledgerdb/database/memdb"
)

func TestInterface(t *testing.T) {
	for name, test := range database.Tests {
		t.Run(name, func(t *testing.T) {
			db := memdb.New()
			test(t, New([]byte("hello"), db))
		})
		t.Run(name+"Nested", func(t *testing.T) {
			db := memdb.New()
			test(t, New([]byte("wor"), New([]byte("ld"), db)))
		})
	}
}

func TestPrefixIsolation(t *testing.T) {
	require := require.New(t)

	base := memdb.New()
	fooDB := New([]byte("foo/"), base)
	barDB := New([]byte("bar/"), base)

	require.NoError(fooDB.Put([]byte("k"), []byte("foo value")))
	require.NoError(barDB.Put([]byte("k"), []byte("bar value")))

	v, err := fooDB.Get([]byte("k"))
	require.NoError(err)
	require.Equal([]byte("foo value"), v)

	v, err = barDB.Get([]byte("k"))
	require.NoError(err)
	require.Equal([]byte("bar value"), v)

	// Deleting in one namespace must not touch the other.
	require.NoError(fooDB.Delete([]byte("k")))

	_, err = fooDB.Get([]byte("k"))
	require.Equal(database.ErrNotFound, err)

	v, err = barDB.Get([]byte("k"))
	require.NoError(err)
	require.Equal([]byte("bar value"), v)
}

func TestIteratorStripsPrefix(t *testing.T) {
	require := require.New(t)

	base := memdb.New()
	db := New([]byte("ns/"), base)

	require.NoError(db.Put([]byte("a"), []byte{0}))
	require.NoError(db.Put([]byte("b"), []byte{1}))
	require.NoError(base.Put([]byte("other"), []byte{2}))

	iter := db.NewIterator()
	defer iter.Release()

	require.True(iter.Next())
	require.Equal([]byte("a"), iter.Key())
	require.True(iter.Next())
	require.Equal([]byte("b"), iter.Key())
	require.False(iter.Next())
	require.NoError(iter.Error())
}
