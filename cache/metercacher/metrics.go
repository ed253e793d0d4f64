// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metercacher

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/ledgerdb/utils/metric"
	"github.com/ava-labs/ledgerdb/utils/wrappers"
)

const resultLabel = "result"

var (
	resultLabels = []string{resultLabel}
	hitLabels    = prometheus.Labels{
		resultLabel: "hit",
	}
	missLabels = prometheus.Labels{
		resultLabel: "miss",
	}
)

type metrics struct {
	get *prometheus.HistogramVec
	put prometheus.Histogram

	len           prometheus.Gauge
	portionFilled prometheus.Gauge
}

func (m *metrics) Initialize(
	namespace string,
	registerer prometheus.Registerer,
) error {
	m.get = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "get",
			Help:      "Latency of a get call in nanoseconds",
			Buckets:   metric.NanosecondsBuckets,
		},
		resultLabels,
	)
	m.put = metric.NewNanosecondsLatencyMetric(namespace, "put")
	m.len = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "len",
			Help:      "number of entries",
		},
	)
	m.portionFilled = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "portion_filled",
			Help:      "fraction of cache filled",
		},
	)

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.get),
		registerer.Register(m.put),
		registerer.Register(m.len),
		registerer.Register(m.portionFilled),
	)
	return errs.Err
}
