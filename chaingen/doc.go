// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package chaingen provides facilities for generating the synthetic blocks and
transactions the harness submits to the node under test.

All construction is pure and local.  The generator never performs any I/O,
so the only failures are caller-supplied invalid arguments.  The proof of
work search assumes the trivial difficulty of a regression test network.
*/
package chaingen
