// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/ledgerdb/database/memdb"
	"github.com/ava-labs/ledgerdb/ids"
)

func TestReplayKeyRoundTrip(t *testing.T) {
	require := require.New(t)

	digest := ids.GenerateTestID()
	key := replayKey(7, digest)

	epoch, parsed, err := parseReplayKey(key)
	require.NoError(err)
	require.Equal(uint64(7), epoch)
	require.Equal(digest, parsed)

	_, _, err = parseReplayKey(key[:len(key)-1])
	require.Error(err)
}

func TestReplayGuardContains(t *testing.T) {
	require := require.New(t)
	db := memdb.New()

	guard, err := newReplayGuard(db, DefaultReplayBloomSize)
	require.NoError(err)

	digest := ids.GenerateTestID()
	has, err := guard.contains(digest)
	require.NoError(err)
	require.False(has)

	// Persist and track, the way a block commit does.
	require.NoError(db.Put(replayKey(3, digest), nil))
	require.NoError(guard.add(3, digest))

	has, err = guard.contains(digest)
	require.NoError(err)
	require.True(has)

	// A bloom maybe-hit without a persisted entry is not a replay.
	unpersisted := ids.GenerateTestID()
	require.NoError(guard.add(3, unpersisted))
	has, err = guard.contains(unpersisted)
	require.NoError(err)
	require.False(has)
}

func TestReplayGuardPrune(t *testing.T) {
	require := require.New(t)
	db := memdb.New()

	guard, err := newReplayGuard(db, DefaultReplayBloomSize)
	require.NoError(err)

	old := ids.GenerateTestID()
	recent := ids.GenerateTestID()
	require.NoError(db.Put(replayKey(1, old), nil))
	require.NoError(guard.add(1, old))
	require.NoError(db.Put(replayKey(2, recent), nil))
	require.NoError(guard.add(2, recent))
	require.Equal(2, guard.numDigests)

	oldest, ok := guard.oldestEpoch()
	require.True(ok)
	require.Equal(uint64(1), oldest)

	numPruned, err := guard.prune(1)
	require.NoError(err)
	require.Equal(1, numPruned)
	require.Equal(1, guard.numDigests)

	has, err := guard.contains(old)
	require.NoError(err)
	require.False(has)
	has, err = guard.contains(recent)
	require.NoError(err)
	require.True(has)

	oldest, ok = guard.oldestEpoch()
	require.True(ok)
	require.Equal(uint64(2), oldest)
}

func TestReplayGuardRebuild(t *testing.T) {
	require := require.New(t)
	db := memdb.New()

	digests := make([]ids.ID, 10)
	for i := range digests {
		digests[i] = ids.GenerateTestID()
		require.NoError(db.Put(replayKey(uint64(i%3), digests[i]), nil))
	}

	guard, err := newReplayGuard(db, DefaultReplayBloomSize)
	require.NoError(err)
	require.Equal(len(digests), guard.numDigests)
	require.Len(guard.blooms, 3)

	for _, digest := range digests {
		has, err := guard.contains(digest)
		require.NoError(err)
		require.True(has)
	}
}
