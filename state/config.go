// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"
	"fmt"
)

const (
	// DefaultCacheSize is the default entry bound of the read cache.
	DefaultCacheSize = 8192

	// DefaultCacheBytes is the default aggregate byte bound of the read
	// cache.
	DefaultCacheBytes = 64 * 1024 * 1024 // 64 MiB

	// DefaultEpochLength is the default number of block heights per epoch.
	DefaultEpochLength = 4096

	// DefaultReplayWindowEpochs is the default number of epochs, prior to
	// the current one, whose transaction digests are still protected
	// against replay.
	DefaultReplayWindowEpochs = 2

	// DefaultReplayBloomSize is the default expected number of digests per
	// epoch, used to size the replay guard's bloom filters.
	DefaultReplayBloomSize = 1 << 20

	replayBloomFalsePositiveRate = 0.01
)

var errInvalidConfig = errors.New("invalid state config")

// Config holds the engine's tunables. The zero value is not valid; start
// from DefaultConfig.
type Config struct {
	// CacheSize bounds the read cache's entry count.
	CacheSize int `json:"cacheSize"`
	// CacheBytes bounds the read cache's aggregate entry size.
	CacheBytes int `json:"cacheBytes"`

	// EpochLength is the number of block heights per epoch.
	EpochLength uint64 `json:"epochLength"`
	// ReplayWindowEpochs is the number of epochs, prior to the current one,
	// whose digests are still rejected as replays. Digests older than the
	// window are pruned at epoch-boundary commits.
	ReplayWindowEpochs uint64 `json:"replayWindowEpochs"`
	// ReplayBloomSize is the expected number of digests per epoch.
	ReplayBloomSize uint64 `json:"replayBloomSize"`
}

func DefaultConfig() Config {
	return Config{
		CacheSize:          DefaultCacheSize,
		CacheBytes:         DefaultCacheBytes,
		EpochLength:        DefaultEpochLength,
		ReplayWindowEpochs: DefaultReplayWindowEpochs,
		ReplayBloomSize:    DefaultReplayBloomSize,
	}
}

func (c Config) Validate() error {
	switch {
	case c.CacheSize <= 0:
		return fmt.Errorf("%w: cacheSize (%d) <= 0", errInvalidConfig, c.CacheSize)
	case c.CacheBytes <= 0:
		return fmt.Errorf("%w: cacheBytes (%d) <= 0", errInvalidConfig, c.CacheBytes)
	case c.EpochLength == 0:
		return fmt.Errorf("%w: epochLength == 0", errInvalidConfig)
	case c.ReplayBloomSize == 0:
		return fmt.Errorf("%w: replayBloomSize == 0", errInvalidConfig)
	default:
		return nil
	}
}

// epochOf maps a block height to its epoch.
func (c Config) epochOf(height uint64) uint64 {
	return height / c.EpochLength
}
