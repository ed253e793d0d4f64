// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/ledgerdb/gas"
	"github.com/ava-labs/ledgerdb/ids"
)

func TestIteratorChargesGasPerEntry(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	commitTx(t, s, map[string][]byte{
		"a/1": {1},
		"a/2": {2, 2},
	})
	_, err := s.CommitBlock(context.Background())
	require.NoError(err)

	meter := gas.NewMeter(1_000_000)
	tx, err := s.BeginTx(ids.GenerateTestID(), meter)
	require.NoError(err)

	it := tx.NewIteratorWithPrefix(MustParseKey("a"))
	defer it.Release()

	require.True(it.Next())
	expected := scanCost(MustParseKey("a/1").Length(), 1)
	require.Equal(expected, meter.Consumed())

	require.True(it.Next())
	expected += scanCost(MustParseKey("a/2").Length(), 2)
	require.Equal(expected, meter.Consumed())

	require.False(it.Next())
	require.NoError(it.Error())
	require.NoError(tx.Abort())
}

func TestIteratorOutOfGasLatchesTx(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	commitTx(t, s, map[string][]byte{"a/1": {1}, "a/2": {2}})
	_, err := s.CommitBlock(context.Background())
	require.NoError(err)

	// Enough gas for exactly one yielded entry.
	meter := gas.NewMeter(scanCost(MustParseKey("a/1").Length(), 1))
	tx, err := s.BeginTx(ids.GenerateTestID(), meter)
	require.NoError(err)

	it := tx.NewIteratorWithPrefix(MustParseKey("a"))
	defer it.Release()

	require.True(it.Next())
	require.False(it.Next())
	require.ErrorIs(it.Error(), gas.ErrOutOfGas)

	// The failure sticks to the transaction.
	_, err = tx.Get(MustParseKey("a/1"))
	require.ErrorIs(err, gas.ErrOutOfGas)
	require.ErrorIs(tx.Commit(), gas.ErrOutOfGas)
}

func TestIteratorOverlayOnly(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	tx, err := s.BeginTx(ids.GenerateTestID(), gas.NoMeter{})
	require.NoError(err)
	require.NoError(tx.Put(MustParseKey("a/2"), []byte{2}))
	require.NoError(tx.Put(MustParseKey("a/1"), []byte{1}))

	it := tx.NewIteratorWithPrefix(MustParseKey("a"))
	defer it.Release()

	var got []string
	for it.Next() {
		got = append(got, it.Key().String())
	}
	require.NoError(it.Error())
	require.Equal([]string{"a/1", "a/2"}, got)
	require.NoError(tx.Abort())
}

func TestIteratorStagedValueShadowsCommitted(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	commitTx(t, s, map[string][]byte{"a/1": {1}})
	_, err := s.CommitBlock(context.Background())
	require.NoError(err)

	tx, err := s.BeginTx(ids.GenerateTestID(), gas.NoMeter{})
	require.NoError(err)
	require.NoError(tx.Put(MustParseKey("a/1"), []byte{10}))

	it := tx.NewIteratorWithPrefix(MustParseKey("a"))
	defer it.Release()

	require.True(it.Next())
	require.Equal("a/1", it.Key().String())
	require.Equal([]byte{10}, it.Value())
	require.False(it.Next())
	require.NoError(it.Error())
	require.NoError(tx.Abort())
}

func TestIteratorRelease(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	commitTx(t, s, map[string][]byte{"a/1": {1}, "a/2": {2}})
	_, err := s.CommitBlock(context.Background())
	require.NoError(err)

	tx, err := s.BeginTx(ids.GenerateTestID(), gas.NoMeter{})
	require.NoError(err)

	it := tx.NewIteratorWithPrefix(MustParseKey("a"))
	require.True(it.Next())
	it.Release()
	it.Release()

	require.False(it.Next())
	require.NoError(it.Error())
	require.NoError(tx.Abort())
}

func TestErrorIterator(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	tx, err := s.BeginTx(ids.GenerateTestID(), gas.NoMeter{})
	require.NoError(err)
	require.NoError(tx.Abort())

	it := tx.NewIteratorWithPrefix(MustParseKey("a"))
	defer it.Release()
	require.False(it.Next())
	require.ErrorIs(it.Error(), ErrTxDone)
}
