// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package wire implements the subset of the bitcoin wire protocol needed to
construct transactions and blocks byte-for-byte.

The serialized forms produced by this package are a cross-system contract
with the node under test, so every encoding is canonical and round-trips to
an equal structure.  In particular, variable length integers are enforced to
be canonically encoded on decode, and all identity hashes are double SHA-256
over the exact serialization.
*/
package wire
