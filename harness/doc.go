// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package harness drives a scripted consensus-rule activation sequence against
a blockchain node.

The rules under test gate a new script opcode behind a median-time threshold.
The harness funds a set of outputs locked with a script that exercises the
opcode, then walks the node's observed median time up to and across the
threshold while checking the node's verdict on spends of those outputs at
every step:

  - Before activation the memory pool and blocks must both reject the spend
    with the exact reject code and reason the consensus rules prescribe.
  - At the final median before the threshold the verdicts must not change.
  - Once the median reaches the threshold the spend must be accepted by the
    memory pool and confirm in a block.
  - Reorganizing the activating blocks back out of the chain must first
    return the spend to the memory pool and then evict it once the rules
    deactivate again.

The node is reached through the Node interface; an adapter backed by the
JSON-RPC client is provided.  The sequence runs from a single goroutine,
aborts on the first failure, and every mismatch reports both the expected and
observed outcome.
*/
package harness
