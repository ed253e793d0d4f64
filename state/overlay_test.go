// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/ledgerdb/utils/maybe"
)

func TestOverlayLastWriteWins(t *testing.T) {
	require := require.New(t)
	o := newOverlay()

	key := MustParseKey("bal/x")
	o.put(key, maybe.Some([]byte{1}))
	o.put(key, maybe.Nothing[[]byte]())
	o.put(key, maybe.Some([]byte{2}))

	require.Equal(1, o.len())
	entry, ok := o.get(key)
	require.True(ok)
	require.Equal([]byte{2}, entry.Value())
}

func TestOverlayMergeInto(t *testing.T) {
	require := require.New(t)

	block := newOverlay()
	block.put(MustParseKey("a"), maybe.Some([]byte{1}))
	block.put(MustParseKey("b"), maybe.Some([]byte{2}))

	tx := newOverlay()
	tx.put(MustParseKey("b"), maybe.Nothing[[]byte]())
	tx.put(MustParseKey("c"), maybe.Some([]byte{3}))

	tx.mergeInto(block)
	require.Equal(3, block.len())

	// Tombstones override earlier values for the same key.
	entry, ok := block.get(MustParseKey("b"))
	require.True(ok)
	require.True(entry.IsNothing())

	entry, ok = block.get(MustParseKey("c"))
	require.True(ok)
	require.Equal([]byte{3}, entry.Value())
}

func TestOverlayAscendPrefix(t *testing.T) {
	require := require.New(t)
	o := newOverlay()

	for _, key := range []string{"b/1", "a/2", "a/1", "a/1/x", "c"} {
		o.put(MustParseKey(key), maybe.Some([]byte(key)))
	}

	var got []string
	o.ascendPrefix(MustParseKey("a"), func(key Key, entry maybe.Maybe[[]byte]) bool {
		require.True(entry.HasValue())
		got = append(got, key.String())
		return true
	})
	require.Equal([]string{"a/1", "a/1/x", "a/2"}, got)

	got = nil
	o.ascendPrefix(Key{}, func(key Key, _ maybe.Maybe[[]byte]) bool {
		got = append(got, key.String())
		return true
	})
	require.Equal([]string{"a/1", "a/1/x", "a/2", "b/1", "c"}, got)
}

func TestOverlayClear(t *testing.T) {
	require := require.New(t)
	o := newOverlay()

	o.put(MustParseKey("a"), maybe.Some([]byte{1}))
	o.clear()
	require.Zero(o.len())
	require.Zero(o.index.Len())

	_, ok := o.get(MustParseKey("a"))
	require.False(ok)
}
