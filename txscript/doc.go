// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package txscript provides script construction for the transactions the
harness builds.

It is intentionally not a script engine.  The node under test is the
authority on script validity, so this package only offers the opcode
constants the harness needs along with a builder that enforces canonical
data pushes, since non-canonical pushes would change the serialized form
and silently invalidate the consensus test.
*/
package txscript
