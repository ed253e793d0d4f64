// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/ledgerdb/utils/wrappers"
)

type metrics struct {
	txsCommitted       prometheus.Counter
	txsAborted         prometheus.Counter
	txsReplayRejected  prometheus.Counter
	blocksCommitted    prometheus.Counter
	replayDigestsLive  prometheus.Gauge
	committedHeight    prometheus.Gauge
	lastBlockDiffSize  prometheus.Gauge
	cacheInvalidations prometheus.Counter
}

func newMetrics(namespace string, reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		txsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "txs_committed",
			Help:      "number of transactions committed into the block overlay",
		}),
		txsAborted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "txs_aborted",
			Help:      "number of transactions aborted",
		}),
		txsReplayRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "txs_replay_rejected",
			Help:      "number of transactions rejected as replays",
		}),
		blocksCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_committed",
			Help:      "number of blocks committed to the backend",
		}),
		replayDigestsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "replay_digests_live",
			Help:      "number of transaction digests inside the replay protection window",
		}),
		committedHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "committed_height",
			Help:      "height of the last committed block",
		}),
		lastBlockDiffSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_block_diff_size",
			Help:      "number of key changes in the last committed block",
		}),
		cacheInvalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidations",
			Help:      "number of read cache entries evicted by writes",
		}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		reg.Register(m.txsCommitted),
		reg.Register(m.txsAborted),
		reg.Register(m.txsReplayRejected),
		reg.Register(m.blocksCommitted),
		reg.Register(m.replayDigestsLive),
		reg.Register(m.committedHeight),
		reg.Register(m.lastBlockDiffSize),
		reg.Register(m.cacheInvalidations),
	)
	return m, errs.Err
}
