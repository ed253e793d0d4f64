// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package keytrie

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func collect(t *Trie, prefix []string) []string {
	var paths []string
	ascender := func(segments []string) bool {
		paths = append(paths, strings.Join(segments, "/"))
		return true
	}
	if prefix == nil {
		t.Ascend(ascender)
	} else {
		t.AscendPrefix(prefix, ascender)
	}
	return paths
}

func TestInsertRemove(t *testing.T) {
	require := require.New(t)

	tr := New()
	require.Zero(tr.Len())

	require.True(tr.Insert([]string{"a", "1"}))
	require.False(tr.Insert([]string{"a", "1"}))
	require.True(tr.Insert([]string{"a"}))
	require.Equal(2, tr.Len())

	require.True(tr.Has([]string{"a", "1"}))
	require.True(tr.Has([]string{"a"}))
	require.False(tr.Has([]string{"a", "2"}))

	require.True(tr.Remove([]string{"a", "1"}))
	require.False(tr.Remove([]string{"a", "1"}))
	require.Equal(1, tr.Len())

	// "a" must survive the removal of "a/1".
	require.True(tr.Has([]string{"a"}))
	require.False(tr.HasPrefix([]string{"a", "1"}))
}

func TestAscendOrder(t *testing.T) {
	require := require.New(t)

	tr := New()
	inserted := []string{
		"b/1",
		"a/2",
		"a/1",
		"a",
		"a/1/x",
		"c",
	}
	for _, path := range inserted {
		require.True(tr.Insert(strings.Split(path, "/")))
	}

	expected := []string{"a", "a/1", "a/1/x", "a/2", "b/1", "c"}
	require.Equal(expected, collect(tr, nil))
}

// A path that is a segment-prefix of another must sort first, even when the
// raw byte comparison of joined representations says otherwise.
func TestSegmentOrderNotByteOrder(t *testing.T) {
	require := require.New(t)

	tr := New()
	require.True(tr.Insert([]string{"a!b"}))
	require.True(tr.Insert([]string{"a", "x"}))

	require.Equal([]string{"a/x", "a!b"}, collect(tr, nil))
}

func TestAscendPrefix(t *testing.T) {
	require := require.New(t)

	tr := New()
	for _, path := range []string{"a/1", "a/2", "b/1", "a"} {
		tr.Insert(strings.Split(path, "/"))
	}

	require.Equal([]string{"a", "a/1", "a/2"}, collect(tr, []string{"a"}))
	require.Equal([]string{"b/1"}, collect(tr, []string{"b"}))
	require.Empty(collect(tr, []string{"c"}))
}

func TestAscendEarlyExit(t *testing.T) {
	require := require.New(t)

	tr := New()
	for _, path := range []string{"a", "b", "c"} {
		tr.Insert([]string{path})
	}

	var seen []string
	finished := tr.Ascend(func(segments []string) bool {
		seen = append(seen, segments[0])
		return len(seen) < 2
	})
	require.False(finished)
	require.Equal([]string{"a", "b"}, seen)
}

func TestAscendReusesStack(t *testing.T) {
	require := require.New(t)

	tr := New()
	tr.Insert([]string{"a", "1"})
	tr.Insert([]string{"a", "2"})

	var collected [][]string
	tr.Ascend(func(segments []string) bool {
		collected = append(collected, slices.Clone(segments))
		return true
	})
	require.Equal([][]string{{"a", "1"}, {"a", "2"}}, collected)
}

func TestClear(t *testing.T) {
	require := require.New(t)

	tr := New()
	tr.Insert([]string{"a"})
	tr.Clear()
	require.Zero(tr.Len())
	require.False(tr.Has([]string{"a"}))
}
