// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metrics

import (
	"time"

	"go.uber.org/atomic"
)

// Recorder accumulates the statistics of a run. It is safe for concurrent
// use; the zero value is ready to use.
type Recorder struct {
	keygenNanos atomic.Int64
	keygens     atomic.Int64
	issueNanos  atomic.Int64
	surveys     atomic.Int64
	signatures  atomic.Int64
	registry    atomic.Int64
}

// ObserveKeygen records one key generation that took d.
func (r *Recorder) ObserveKeygen(d time.Duration) {
	r.keygenNanos.Add(int64(d))
	r.keygens.Inc()
}

// ObserveIssue records one survey that took d and signed n identities,
// counting repeats.
func (r *Recorder) ObserveIssue(d time.Duration, n int) {
	r.issueNanos.Add(int64(d))
	r.surveys.Inc()
	r.signatures.Add(int64(n))
}

// SetRegistrySize records the current number of registered identities.
func (r *Recorder) SetRegistrySize(n int) {
	r.registry.Store(int64(n))
}

// Snapshot is the state of a Recorder at one point in time, keyed by the
// short metric names of GetSortedMetricNames.
type Snapshot map[string]float64

func meanMillis(total, n int64) float64 {
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n) / float64(time.Millisecond)
}

// Snapshot returns the current values of all metrics.
func (r *Recorder) Snapshot() Snapshot {
	return Snapshot{
		"keygen-latency":    meanMillis(r.keygenNanos.Load(), r.keygens.Load()),
		"issue-latency":     meanMillis(r.issueNanos.Load(), r.surveys.Load()),
		"signatures-issued": float64(r.signatures.Load()),
		"surveys-issued":    float64(r.surveys.Load()),
		"registry-size":     float64(r.registry.Load()),
	}
}
