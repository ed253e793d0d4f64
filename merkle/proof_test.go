// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package merkle

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/ledgerdb/ids"
)

func TestProofVerify(t *testing.T) {
	require := require.New(t)

	// Odd and even leaf counts exercise the promoted-node path.
	for numLeaves := 1; numLeaves <= 9; numLeaves++ {
		diff := make([]ValueChange, numLeaves)
		for i := range diff {
			diff[i] = put(fmt.Sprintf("key/%d", i), fmt.Sprintf("value-%d", i))
		}

		tree := NewInMemory()
		root, err := tree.Apply(context.Background(), diff)
		require.NoError(err)

		for i := range diff {
			proof, err := tree.Proof(diff[i].Key, 1)
			require.NoError(err)
			require.True(proof.Verify(diff[i].Value.Value(), root), "leaves=%d index=%d", numLeaves, i)

			// The wrong value must not verify.
			require.False(proof.Verify([]byte("wrong"), root))

			// The proof must not verify against another root.
			require.False(proof.Verify(diff[i].Value.Value(), ids.GenerateTestID()))
		}
	}
}

func TestProofAbsentKey(t *testing.T) {
	require := require.New(t)

	tree := NewInMemory()
	_, err := tree.Apply(context.Background(), []ValueChange{put("a", "1")})
	require.NoError(err)

	_, err = tree.Proof([]byte("b"), 1)
	require.ErrorIs(err, ErrKeyNotFound)
}

func TestProofHistoricalHeight(t *testing.T) {
	require := require.New(t)

	tree := NewInMemory()
	root1, err := tree.Apply(context.Background(), []ValueChange{put("a", "1")})
	require.NoError(err)

	// Overwrite "a" at height 2.
	_, err = tree.Apply(context.Background(), []ValueChange{put("a", "2")})
	require.NoError(err)

	proof, err := tree.Proof([]byte("a"), 1)
	require.NoError(err)
	require.True(proof.Verify([]byte("1"), root1))
	require.False(proof.Verify([]byte("2"), root1))
}
