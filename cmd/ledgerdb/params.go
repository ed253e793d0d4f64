// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/ledgerdb/state"
)

const (
	dataDirKey            = "data-dir"
	logLevelKey           = "log-level"
	scanPrefixKey         = "scan-prefix"
	proofKey              = "proof"
	cacheSizeKey          = "cache-size"
	cacheBytesKey         = "cache-bytes"
	epochLengthKey        = "epoch-length"
	replayWindowEpochsKey = "replay-window-epochs"
)

func buildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("ledgerdb", pflag.ContinueOnError)

	fs.String(dataDirKey, "", "Directory of the store to inspect")
	fs.String(logLevelKey, "info", "Log level: fatal, error, warn, info, debug, verbo")
	fs.String(scanPrefixKey, "", "If set, print every key under this prefix, e.g. accounts/alice")
	fs.String(proofKey, "", "If set, print a membership proof for this key at the committed height")
	fs.Int(cacheSizeKey, state.DefaultCacheSize, "Read cache entry bound")
	fs.Int(cacheBytesKey, state.DefaultCacheBytes, "Read cache aggregate byte bound")
	fs.Uint64(epochLengthKey, state.DefaultEpochLength, "Block heights per replay epoch")
	fs.Uint64(replayWindowEpochsKey, state.DefaultReplayWindowEpochs, "Prior epochs protected against replay")

	return fs
}

func getViper(args []string) (*viper.Viper, error) {
	v := viper.New()

	fs := buildFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}

func configFromViper(v *viper.Viper) (state.Config, error) {
	config := state.DefaultConfig()
	config.CacheSize = v.GetInt(cacheSizeKey)
	config.CacheBytes = v.GetInt(cacheBytesKey)
	config.EpochLength = v.GetUint64(epochLengthKey)
	config.ReplayWindowEpochs = v.GetUint64(replayWindowEpochsKey)

	if err := config.Validate(); err != nil {
		return state.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}
