// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectedErr error
	}{
		{
			name:   "defaults are valid",
			modify: func(*Config) {},
		},
		{
			name:        "zero cache size",
			modify:      func(c *Config) { c.CacheSize = 0 },
			expectedErr: errInvalidConfig,
		},
		{
			name:        "negative cache bytes",
			modify:      func(c *Config) { c.CacheBytes = -1 },
			expectedErr: errInvalidConfig,
		},
		{
			name:        "zero epoch length",
			modify:      func(c *Config) { c.EpochLength = 0 },
			expectedErr: errInvalidConfig,
		},
		{
			name:        "zero bloom size",
			modify:      func(c *Config) { c.ReplayBloomSize = 0 },
			expectedErr: errInvalidConfig,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := DefaultConfig()
			test.modify(&config)
			require.ErrorIs(t, config.Validate(), test.expectedErr)
		})
	}
}

func TestConfigEpochOf(t *testing.T) {
	require := require.New(t)

	config := DefaultConfig()
	config.EpochLength = 10

	require.Zero(config.epochOf(0))
	require.Zero(config.epochOf(9))
	require.Equal(uint64(1), config.epochOf(10))
	require.Equal(uint64(5), config.epochOf(55))
}
