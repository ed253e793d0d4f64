// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDBytes(t *testing.T) {
	require := require.New(t)

	id := ID{24}
	require.Equal(id[:], id.Bytes())
}

func TestIDFromString(t *testing.T) {
	require := require.New(t)

	id := ID{'a', 'v', 'a', ' ', 'l', 'a', 'b', 's'}
	idStr := id.String()
	parsed, err := FromString(idStr)
	require.NoError(err)
	require.Equal(id, parsed)
}

func TestIDFromStringError(t *testing.T) {
	tests := []string{
		"",
		"foo",
		"foobar",
	}
	for _, test := range tests {
		t.Run(test, func(t *testing.T) {
			_, err := FromString(test)
			require.Error(t, err)
		})
	}
}

func TestToID(t *testing.T) {
	require := require.New(t)

	bytes := make([]byte, IDLen)
	bytes[0] = 1
	id, err := ToID(bytes)
	require.NoError(err)
	require.Equal(bytes, id[:])

	_, err = ToID(bytes[:IDLen-1])
	require.Error(err)
}

func TestComputeIDDeterministic(t *testing.T) {
	require := require.New(t)

	require.Equal(ComputeID([]byte("tx")), ComputeID([]byte("tx")))
	require.NotEqual(ComputeID([]byte("tx")), ComputeID([]byte("tx2")))
}

func TestIDCompare(t *testing.T) {
	require := require.New(t)

	a := ID{1}
	b := ID{2}
	require.Equal(-1, a.Compare(b))
	require.Equal(1, b.Compare(a))
	require.Zero(a.Compare(a))
}
