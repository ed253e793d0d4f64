// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/ledgerdb/database"
	"github.com/ava-labs/ledgerdb/database/memdb"
	"github.com/ava-labs/ledgerdb/gas"
	"github.com/ava-labs/ledgerdb/ids"
	"github.com/ava-labs/ledgerdb/merkle"
	"github.com/ava-labs/ledgerdb/utils/logging"
)

func newTestState(t *testing.T) *State {
	return newTestStateWithConfig(t, memdb.New(), DefaultConfig())
}

func newTestStateWithConfig(t *testing.T, db database.Database, config Config) *State {
	t.Helper()

	s, err := New(
		db,
		merkle.NewInMemory(),
		config,
		logging.NoLog{},
		"test",
		prometheus.NewRegistry(),
	)
	require.NoError(t, err)
	return s
}

func commitTx(t *testing.T, s *State, entries map[string][]byte) {
	t.Helper()

	require := require.New(t)
	tx, err := s.BeginTx(ids.GenerateTestID(), gas.NoMeter{})
	require.NoError(err)
	for key, value := range entries {
		require.NoError(tx.Put(MustParseKey(key), value))
	}
	require.NoError(tx.Commit())
}

func TestStateWriteCommitRead(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	key := MustParseKey("accounts/alice/balance")
	tx, err := s.BeginTx(ids.GenerateTestID(), gas.NoMeter{})
	require.NoError(err)

	_, err = tx.Get(key)
	require.ErrorIs(err, database.ErrNotFound)

	require.NoError(tx.Put(key, []byte{100}))

	// Staged writes are visible to the transaction that made them.
	value, err := tx.Get(key)
	require.NoError(err)
	require.Equal([]byte{100}, value)

	require.NoError(tx.Commit())

	root, err := s.CommitBlock(context.Background())
	require.NoError(err)
	require.NotEqual(ids.Empty, root)
	require.Equal(uint64(1), s.Height())
	require.Equal(root, s.Root())

	tx, err = s.BeginTx(ids.GenerateTestID(), gas.NoMeter{})
	require.NoError(err)
	value, err = tx.Get(key)
	require.NoError(err)
	require.Equal([]byte{100}, value)
	require.NoError(tx.Abort())
}

func TestTxLastWriteWins(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	key := MustParseKey("bal/x")
	tx, err := s.BeginTx(ids.GenerateTestID(), gas.NoMeter{})
	require.NoError(err)
	require.NoError(tx.Put(key, []byte{1}))
	require.NoError(tx.Put(key, []byte{2}))
	require.NoError(tx.Delete(key))
	require.NoError(tx.Put(key, []byte{3}))
	require.NoError(tx.Commit())

	// Only the final state per key reaches the block overlay.
	require.Equal(1, s.blockOverlay.len())

	_, err = s.CommitBlock(context.Background())
	require.NoError(err)

	tx, err = s.BeginTx(ids.GenerateTestID(), gas.NoMeter{})
	require.NoError(err)
	value, err := tx.Get(key)
	require.NoError(err)
	require.Equal([]byte{3}, value)
	require.NoError(tx.Abort())
}

func TestTxAbortDiscardsChanges(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	commitTx(t, s, map[string][]byte{"bal/x": {1}})
	_, err := s.CommitBlock(context.Background())
	require.NoError(err)

	key := MustParseKey("bal/x")
	meter := gas.NewMeter(1_000_000)
	tx, err := s.BeginTx(ids.GenerateTestID(), meter)
	require.NoError(err)
	require.NoError(tx.Put(key, []byte{9}))
	require.NoError(tx.Delete(MustParseKey("bal/y")))

	consumed := meter.Consumed()
	require.NotZero(consumed)
	require.NoError(tx.Abort())

	// Gas consumed by the aborted transaction stays consumed.
	require.Equal(consumed, meter.Consumed())

	tx, err = s.BeginTx(ids.GenerateTestID(), gas.NoMeter{})
	require.NoError(err)
	value, err := tx.Get(key)
	require.NoError(err)
	require.Equal([]byte{1}, value)
	require.NoError(tx.Abort())

	_, err = tx.Get(key)
	require.ErrorIs(err, ErrTxDone)
}

func TestTombstoneShadowsCommittedValue(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	key := MustParseKey("accounts/alice")
	commitTx(t, s, map[string][]byte{"accounts/alice": {1}})
	_, err := s.CommitBlock(context.Background())
	require.NoError(err)

	tx, err := s.BeginTx(ids.GenerateTestID(), gas.NoMeter{})
	require.NoError(err)
	require.NoError(tx.Delete(key))

	_, err = tx.Get(key)
	require.ErrorIs(err, database.ErrNotFound)
	has, err := tx.Has(key)
	require.NoError(err)
	require.False(has)
	require.NoError(tx.Commit())

	_, err = s.CommitBlock(context.Background())
	require.NoError(err)

	// The tombstone deleted the backend entry at commit.
	tx, err = s.BeginTx(ids.GenerateTestID(), gas.NoMeter{})
	require.NoError(err)
	_, err = tx.Get(key)
	require.ErrorIs(err, database.ErrNotFound)
	require.NoError(tx.Abort())
}

func TestScanPrefixAcrossLayers(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	// One key committed, one staged in the block overlay, one staged in the
	// transaction overlay, one outside the prefix.
	commitTx(t, s, map[string][]byte{"a/1": {1}})
	_, err := s.CommitBlock(context.Background())
	require.NoError(err)

	commitTx(t, s, map[string][]byte{"a/2": {2}})

	tx, err := s.BeginTx(ids.GenerateTestID(), gas.NoMeter{})
	require.NoError(err)
	require.NoError(tx.Put(MustParseKey("a/0"), []byte{0}))
	require.NoError(tx.Put(MustParseKey("b/1"), []byte{3}))

	it := tx.NewIteratorWithPrefix(MustParseKey("a"))
	defer it.Release()

	var got []string
	for it.Next() {
		got = append(got, it.Key().String())
	}
	require.NoError(it.Error())
	require.Equal([]string{"a/0", "a/1", "a/2"}, got)
	require.NoError(tx.Abort())
}

func TestScanIncludesPrefixKeyItself(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	commitTx(t, s, map[string][]byte{
		"a":     {0},
		"a/1":   {1},
		"ab":    {2},
		"a!b":   {3},
		"a/1/x": {4},
	})
	_, err := s.CommitBlock(context.Background())
	require.NoError(err)

	tx, err := s.BeginTx(ids.GenerateTestID(), gas.NoMeter{})
	require.NoError(err)
	it := tx.NewIteratorWithPrefix(MustParseKey("a"))
	defer it.Release()

	var got []string
	for it.Next() {
		got = append(got, it.Key().String())
	}
	require.NoError(it.Error())
	// "ab" and "a!b" share a byte prefix but are not descendants of "a".
	require.Equal([]string{"a", "a/1", "a/1/x"}, got)
	require.NoError(tx.Abort())
}

func TestScanTombstoneSuppression(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	commitTx(t, s, map[string][]byte{"a/1": {1}, "a/2": {2}})
	_, err := s.CommitBlock(context.Background())
	require.NoError(err)

	tx, err := s.BeginTx(ids.GenerateTestID(), gas.NoMeter{})
	require.NoError(err)
	require.NoError(tx.Delete(MustParseKey("a/1")))
	require.NoError(tx.Put(MustParseKey("a/2"), []byte{20}))

	it := tx.NewIteratorWithPrefix(MustParseKey("a"))
	defer it.Release()

	require.True(it.Next())
	require.Equal("a/2", it.Key().String())
	require.Equal([]byte{20}, it.Value())
	require.False(it.Next())
	require.NoError(it.Error())
	require.NoError(tx.Abort())
}

func TestReplayRejected(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	digest := ids.GenerateTestID()
	tx, err := s.BeginTx(digest, gas.NoMeter{})
	require.NoError(err)
	require.NoError(tx.Put(MustParseKey("bal/x"), []byte{1}))
	require.NoError(tx.Commit())

	// Same digest inside the same block.
	_, err = s.BeginTx(digest, gas.NoMeter{})
	require.ErrorIs(err, ErrReplayDetected)

	_, err = s.CommitBlock(context.Background())
	require.NoError(err)

	// Same digest after the block committed.
	_, err = s.BeginTx(digest, gas.NoMeter{})
	require.ErrorIs(err, ErrReplayDetected)

	// An aborted transaction's digest is not protected.
	aborted := ids.GenerateTestID()
	tx, err = s.BeginTx(aborted, gas.NoMeter{})
	require.NoError(err)
	require.NoError(tx.Abort())
	tx, err = s.BeginTx(aborted, gas.NoMeter{})
	require.NoError(err)
	require.NoError(tx.Abort())
}

func TestReplayWindowPruning(t *testing.T) {
	require := require.New(t)
	config := DefaultConfig()
	config.EpochLength = 2
	config.ReplayWindowEpochs = 1
	s := newTestStateWithConfig(t, memdb.New(), config)

	digest := ids.GenerateTestID()
	tx, err := s.BeginTx(digest, gas.NoMeter{})
	require.NoError(err)
	require.NoError(tx.Put(MustParseKey("bal/x"), []byte{1}))
	require.NoError(tx.Commit())
	_, err = s.CommitBlock(context.Background())
	require.NoError(err)

	// Heights 2..5: epochs advance past the protection window of epoch 0.
	for height := uint64(2); height <= 5; height++ {
		_, err = s.CommitBlock(context.Background())
		require.NoError(err)
	}

	// Epoch 0's digests were pruned; the digest is usable again.
	tx, err = s.BeginTx(digest, gas.NoMeter{})
	require.NoError(err)
	require.NoError(tx.Abort())
}

func TestReplayGuardRebuiltOnReopen(t *testing.T) {
	require := require.New(t)
	db := memdb.New()
	s := newTestStateWithConfig(t, db, DefaultConfig())

	digest := ids.GenerateTestID()
	tx, err := s.BeginTx(digest, gas.NoMeter{})
	require.NoError(err)
	require.NoError(tx.Put(MustParseKey("bal/x"), []byte{1}))
	require.NoError(tx.Commit())
	root, err := s.CommitBlock(context.Background())
	require.NoError(err)

	reopened := newTestStateWithConfig(t, db, DefaultConfig())
	require.Equal(uint64(1), reopened.Height())
	require.Equal(root, reopened.Root())

	_, err = reopened.BeginTx(digest, gas.NoMeter{})
	require.ErrorIs(err, ErrReplayDetected)
}

func TestOutOfGasAbortsTx(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	key := MustParseKey("bal/x")
	meter := gas.NewMeter(writeCost(key.Length(), 1))
	tx, err := s.BeginTx(ids.GenerateTestID(), meter)
	require.NoError(err)
	require.NoError(tx.Put(key, []byte{1}))

	// The second write exceeds the budget and must not stage anything.
	err = tx.Put(MustParseKey("bal/y"), []byte{2})
	require.ErrorIs(err, gas.ErrOutOfGas)
	require.Equal(1, tx.overlay.len())

	// The failure sticks and Commit degrades to Abort.
	_, err = tx.Get(key)
	require.ErrorIs(err, gas.ErrOutOfGas)
	err = tx.Commit()
	require.ErrorIs(err, gas.ErrOutOfGas)

	require.Zero(s.blockOverlay.len())
	require.Empty(s.pendingDigests)
}

func TestGasCharges(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	key := MustParseKey("bal/x")
	value := []byte{1, 2, 3}
	meter := gas.NewMeter(1_000_000)
	tx, err := s.BeginTx(ids.GenerateTestID(), meter)
	require.NoError(err)

	require.NoError(tx.Put(key, value))
	expected := writeCost(key.Length(), len(value))
	require.Equal(expected, meter.Consumed())

	_, err = tx.Get(key)
	require.NoError(err)
	expected += readCost(key.Length(), len(value))
	require.Equal(expected, meter.Consumed())

	_, err = tx.Has(key)
	require.NoError(err)
	expected += hasCost(key.Length())
	require.Equal(expected, meter.Consumed())

	require.NoError(tx.Delete(key))
	expected += writeCost(key.Length(), 0)
	require.Equal(expected, meter.Consumed())

	require.NoError(tx.Abort())
}

func TestPhaseGuards(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	tx, err := s.BeginTx(ids.GenerateTestID(), gas.NoMeter{})
	require.NoError(err)

	_, err = s.BeginTx(ids.GenerateTestID(), gas.NoMeter{})
	require.ErrorIs(err, ErrTxInProgress)

	_, err = s.CommitBlock(context.Background())
	require.ErrorIs(err, ErrTxInProgress)

	_, err = s.NewMigrator()
	require.ErrorIs(err, ErrTxInProgress)

	require.NoError(tx.Commit())
	require.ErrorIs(tx.Commit(), ErrTxDone)
	require.ErrorIs(tx.Abort(), ErrTxDone)
}

func TestCommitBlockHonorsContext(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	commitTx(t, s, map[string][]byte{"bal/x": {1}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.CommitBlock(ctx)
	require.ErrorIs(err, context.Canceled)

	// Nothing was committed; the block can still commit normally.
	_, err = s.CommitBlock(context.Background())
	require.NoError(err)
	require.Equal(uint64(1), s.Height())
}

// failingTree rejects every diff, simulating a commitment oracle failure
// after the backend batch was written.
type failingTree struct {
	merkle.Tree
	err error
}

func (t *failingTree) Apply(context.Context, []merkle.ValueChange) (ids.ID, error) {
	return ids.Empty, t.err
}

func TestCommitIntegrityViolationHalts(t *testing.T) {
	require := require.New(t)

	errOracle := errors.New("oracle failure")
	s, err := New(
		memdb.New(),
		&failingTree{Tree: merkle.NewInMemory(), err: errOracle},
		DefaultConfig(),
		logging.NoLog{},
		"test",
		prometheus.NewRegistry(),
	)
	require.NoError(err)

	commitTx(t, s, map[string][]byte{"bal/x": {1}})

	_, err = s.CommitBlock(context.Background())
	require.ErrorIs(err, ErrCommitIntegrity)
	require.ErrorIs(err, errOracle)

	// The engine is latched: every further operation fails.
	_, err = s.BeginTx(ids.GenerateTestID(), gas.NoMeter{})
	require.ErrorIs(err, ErrHalted)
	_, err = s.CommitBlock(context.Background())
	require.ErrorIs(err, ErrHalted)
	_, err = s.NewSnapshot()
	require.ErrorIs(err, ErrHalted)
	_, err = s.NewMigrator()
	require.ErrorIs(err, ErrHalted)
}

func TestStagedWritesInvisibleToBackendUntilCommit(t *testing.T) {
	require := require.New(t)
	db := memdb.New()
	s := newTestStateWithConfig(t, db, DefaultConfig())

	commitTx(t, s, map[string][]byte{"bal/x": {1}})

	// The overlay is memory-only until the block commits.
	has, err := db.Has(composeKey(statePrefix, MustParseKey("bal/x").Bytes()))
	require.NoError(err)
	require.False(has)

	_, err = s.CommitBlock(context.Background())
	require.NoError(err)

	value, err := db.Get(composeKey(statePrefix, MustParseKey("bal/x").Bytes()))
	require.NoError(err)
	require.Equal([]byte{1}, value)
}

func TestMigratorRewrite(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	commitTx(t, s, map[string][]byte{
		"old/1": {1},
		"old/2": {2},
	})
	_, err := s.CommitBlock(context.Background())
	require.NoError(err)

	m, err := s.NewMigrator()
	require.NoError(err)

	it := m.Iterate()
	for it.Next() {
		segments := it.Key().Segments()
		newKey, err := NewKey(append([]string{"new"}, segments[1:]...)...)
		require.NoError(err)
		require.NoError(m.Put(newKey, it.Value()))
		require.NoError(m.Delete(it.Key()))
	}
	require.NoError(it.Error())
	it.Release()

	root, err := m.Commit(context.Background())
	require.NoError(err)
	require.Equal(uint64(2), s.Height())
	require.Equal(root, s.Root())

	tx, err := s.BeginTx(ids.GenerateTestID(), gas.NoMeter{})
	require.NoError(err)

	scan := tx.NewIteratorWithPrefix(Key{})
	defer scan.Release()
	var got []string
	for scan.Next() {
		got = append(got, scan.Key().String())
	}
	require.NoError(scan.Error())
	require.Equal([]string{"new/1", "new/2"}, got)
	require.NoError(tx.Abort())

	_, err = m.Commit(context.Background())
	require.ErrorIs(err, ErrTxDone)
}

func TestMigratorPutCopiesValue(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	m, err := s.NewMigrator()
	require.NoError(err)

	buf := []byte{1}
	require.NoError(m.Put(MustParseKey("bal/x"), buf))

	// Reusing the buffer must not corrupt the staged rewrite.
	buf[0] = 9

	_, err = m.Commit(context.Background())
	require.NoError(err)

	tx, err := s.BeginTx(ids.GenerateTestID(), gas.NoMeter{})
	require.NoError(err)
	value, err := tx.Get(MustParseKey("bal/x"))
	require.NoError(err)
	require.Equal([]byte{1}, value)
	require.NoError(tx.Abort())
}

func TestMigratorRequiresCleanState(t *testing.T) {
	require := require.New(t)
	s := newTestState(t)

	commitTx(t, s, map[string][]byte{"bal/x": {1}})

	_, err := s.NewMigrator()
	require.ErrorIs(err, ErrStagedChanges)
}
