// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package merkle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/ledgerdb/ids"
	"github.com/ava-labs/ledgerdb/utils/maybe"
)

func put(key, value string) ValueChange {
	return ValueChange{
		Key:   []byte(key),
		Value: maybe.Some([]byte(value)),
	}
}

func del(key string) ValueChange {
	return ValueChange{
		Key:   []byte(key),
		Value: maybe.Nothing[[]byte](),
	}
}

func TestEmptyTree(t *testing.T) {
	require := require.New(t)

	tree := NewInMemory()
	root, height := tree.Root()
	require.Equal(ids.Empty, root)
	require.Zero(height)
}

func TestApplyAdvancesHeight(t *testing.T) {
	require := require.New(t)

	tree := NewInMemory()
	root1, err := tree.Apply(context.Background(), []ValueChange{put("a", "1")})
	require.NoError(err)
	require.NotEqual(ids.Empty, root1)

	root, height := tree.Root()
	require.Equal(root1, root)
	require.Equal(uint64(1), height)

	root2, err := tree.Apply(context.Background(), []ValueChange{put("b", "2")})
	require.NoError(err)
	require.NotEqual(root1, root2)

	_, height = tree.Root()
	require.Equal(uint64(2), height)

	historical, err := tree.RootAt(1)
	require.NoError(err)
	require.Equal(root1, historical)
}

func TestApplyDeterministic(t *testing.T) {
	require := require.New(t)

	diff := []ValueChange{put("a", "1"), put("b", "2"), put("c", "3")}

	tree1 := NewInMemory()
	root1, err := tree1.Apply(context.Background(), diff)
	require.NoError(err)

	tree2 := NewInMemory()
	root2, err := tree2.Apply(context.Background(), diff)
	require.NoError(err)

	require.Equal(root1, root2)
}

// Applying two diffs sequentially yields the same root as applying their
// key-wise merge directly.
func TestSequentialEqualsMerged(t *testing.T) {
	require := require.New(t)

	d1 := []ValueChange{put("a", "1"), put("b", "2")}
	d2 := []ValueChange{put("c", "3"), put("d", "4")}
	merged := []ValueChange{put("a", "1"), put("b", "2"), put("c", "3"), put("d", "4")}

	sequential := NewInMemory()
	_, err := sequential.Apply(context.Background(), d1)
	require.NoError(err)
	seqRoot, err := sequential.Apply(context.Background(), d2)
	require.NoError(err)

	direct := NewInMemory()
	directRoot, err := direct.Apply(context.Background(), merged)
	require.NoError(err)

	require.Equal(seqRoot, directRoot)
}

// Where keys overlap, the later diff's value wins in both the sequential and
// the merged case.
func TestSequentialEqualsMergedOverlap(t *testing.T) {
	require := require.New(t)

	d1 := []ValueChange{put("a", "old"), put("b", "2")}
	d2 := []ValueChange{put("a", "new")}
	merged := []ValueChange{put("a", "new"), put("b", "2")}

	sequential := NewInMemory()
	_, err := sequential.Apply(context.Background(), d1)
	require.NoError(err)
	seqRoot, err := sequential.Apply(context.Background(), d2)
	require.NoError(err)

	direct := NewInMemory()
	directRoot, err := direct.Apply(context.Background(), merged)
	require.NoError(err)

	require.Equal(seqRoot, directRoot)
}

func TestDeleteRestoresRoot(t *testing.T) {
	require := require.New(t)

	tree := NewInMemory()
	rootA, err := tree.Apply(context.Background(), []ValueChange{put("a", "1")})
	require.NoError(err)

	_, err = tree.Apply(context.Background(), []ValueChange{put("b", "2")})
	require.NoError(err)

	rootAfterDelete, err := tree.Apply(context.Background(), []ValueChange{del("b")})
	require.NoError(err)
	require.Equal(rootA, rootAfterDelete)
}

func TestMisorderedDiff(t *testing.T) {
	require := require.New(t)

	tree := NewInMemory()
	_, err := tree.Apply(context.Background(), []ValueChange{put("b", "2"), put("a", "1")})
	require.ErrorIs(err, ErrMisorderedDiff)

	_, err = tree.Apply(context.Background(), []ValueChange{put("a", "1"), put("a", "2")})
	require.ErrorIs(err, ErrMisorderedDiff)
}

func TestHistoryBounded(t *testing.T) {
	require := require.New(t)

	tree := NewInMemoryWithHistory(2)
	for i := byte(0); i < 4; i++ {
		_, err := tree.Apply(context.Background(), []ValueChange{put(string(rune('a'+i)), "v")})
		require.NoError(err)
	}

	_, err := tree.RootAt(1)
	require.ErrorIs(err, ErrInsufficientHistory)

	_, err = tree.RootAt(4)
	require.NoError(err)

	_, err = tree.RootAt(5)
	require.ErrorIs(err, ErrInsufficientHistory)
}
