// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package activation models the time gate of the opcode under test.
//
// The node under test activates the new consensus rules once the median
// time of the past blocks reaches a configured threshold.  This package
// provides the pure arithmetic of that gate: the timestamps the harness
// must mine to walk the observed median up to the boundary, the predicate
// for whether a given median activates the rules, and the medians the node
// is expected to report at each step.  It performs no node access.
package activation

import "sort"

const (
	// MedianTimeBlocks is the number of previous blocks whose timestamps
	// participate in the median time calculation of the node under test.
	MedianTimeBlocks = 11

	// preforkBlockCount is the number of blocks with strictly increasing
	// timestamps mined immediately before the fork block.  With an 11
	// block median window, six blocks starting at threshold-1 over a
	// chain of much older timestamps place the observed median at
	// exactly threshold-1.
	preforkBlockCount = 6
)

// DefaultThreshold is the default activation time in unix seconds.  It is
// deliberately far enough in the future that the node's wall clock never
// crosses it on its own during a test run.
const DefaultThreshold Threshold = 2000000000

// Threshold is an activation time in unix seconds.  The new consensus rules
// apply to a block whenever the median time of the blocks preceding it is
// greater than or equal to the threshold.
type Threshold int64

// IsActive returns whether the rules gated by the threshold apply given the
// provided median time.
func (t Threshold) IsActive(medianTime int64) bool {
	return medianTime >= int64(t)
}

// PreforkBlockTimes returns the timestamps of the blocks to mine before the
// fork block: a strictly increasing run starting one second before the
// threshold.  Mining these over a chain of old timestamps brings the
// observed median to exactly BoundaryMedian.
func (t Threshold) PreforkBlockTimes() []int64 {
	times := make([]int64, preforkBlockCount)
	for i := range times {
		times[i] = int64(t) - 1 + int64(i)
	}
	return times
}

// BoundaryMedian returns the median time the node must report once the
// pre-fork run has been mined.  The rules are still inactive at this median.
func (t Threshold) BoundaryMedian() int64 {
	return int64(t) - 1
}

// ForkBlockTime returns the timestamp of the fork block.  A block with this
// timestamp mined on top of the pre-fork run moves the median to the
// threshold itself.
func (t Threshold) ForkBlockTime() int64 {
	return int64(t) + int64(preforkBlockCount)
}

// PostForkBlockTime returns the timestamp for the block mined immediately
// after the fork block.
func (t Threshold) PostForkBlockTime() int64 {
	return t.ForkBlockTime() + 1
}

// ActivationMedian returns the median time the node must report once the
// fork block has been connected, which is the first median at which the
// rules are active.
func (t Threshold) ActivationMedian() int64 {
	return int64(t)
}

// CalcMedianTime returns the median of the timestamps of up to the last
// MedianTimeBlocks entries of the provided chain of block timestamps,
// mirroring the median time past calculation of the node under test.  The
// provided slice is not modified.  It panics if the chain is empty.
func CalcMedianTime(timestamps []int64) int64 {
	if len(timestamps) == 0 {
		panic("median time of an empty chain")
	}

	window := timestamps
	if len(window) > MedianTimeBlocks {
		window = window[len(window)-MedianTimeBlocks:]
	}
	sorted := make([]int64, len(window))
	copy(sorted, window)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	return sorted[len(sorted)/2]
}
