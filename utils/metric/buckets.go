// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import "time"

// Useful latency buckets
var NanosecondsBuckets = []float64{
	float64(100 * time.Nanosecond),
	float64(time.Microsecond),
	float64(10 * time.Microsecond),
	float64(100 * time.Microsecond),
	float64(time.Millisecond),
	float64(10 * time.Millisecond),
	float64(100 * time.Millisecond),
	float64(time.Second),
	// anything larger than a second will be bucketed together
}
