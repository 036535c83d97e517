// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// blockHeaderLen is a constant that represents the number of bytes for a
// block header.
const blockHeaderLen = 80

// BlockHeader defines information about a block and is used in the bitcoin
// block (MsgBlock) and headers (MsgHeaders) messages.
type BlockHeader struct {
	// Version of the block.  This is not the same as the protocol version.
	Version int32

	// Hash of the previous block header in the block chain.
	PrevBlock chainhash.Hash

	// Merkle tree reference to hash of all transactions for the block.
	MerkleRoot chainhash.Hash

	// Time the block was created.  Encoded as uint32 on the wire, so it
	// is limited to one second precision.
	Timestamp time.Time

	// Difficulty target for the block.
	Bits uint32

	// Nonce used to generate the block.
	Nonce uint32
}

// BlockHash computes the block identifier hash for the given block header.
// The hash is always recomputed from the current serialization, so it is
// safe to call after mutating any of the header fields.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	// Encode the header and double sha256 everything prior to the number
	// of transactions.  Note that serialization into a bytes.Buffer never
	// fails, so the returned error is ignored.
	buf := bytes.NewBuffer(make([]byte, 0, blockHeaderLen))
	_ = h.Serialize(buf)
	return chainhash.DoubleHashH(buf.Bytes())
}

// Deserialize decodes a block header from r into the receiver.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	version, err := readUint32(r)
	if err != nil {
		return err
	}
	h.Version = int32(version)

	if _, err := io.ReadFull(r, h.PrevBlock[:]); err != nil {
		return err
	}

	if _, err := io.ReadFull(r, h.MerkleRoot[:]); err != nil {
		return err
	}

	timestamp, err := readUint32(r)
	if err != nil {
		return err
	}
	h.Timestamp = time.Unix(int64(timestamp), 0)

	h.Bits, err = readUint32(r)
	if err != nil {
		return err
	}

	h.Nonce, err = readUint32(r)
	return err
}

// Serialize encodes a block header from the receiver to w using the bitcoin
// protocol encoding.
func (h *BlockHeader) Serialize(w io.Writer) error {
	if err := writeUint32(w, uint32(h.Version)); err != nil {
		return err
	}

	if _, err := w.Write(h.PrevBlock[:]); err != nil {
		return err
	}

	if _, err := w.Write(h.MerkleRoot[:]); err != nil {
		return err
	}

	if err := writeUint32(w, uint32(h.Timestamp.Unix())); err != nil {
		return err
	}

	if err := writeUint32(w, h.Bits); err != nil {
		return err
	}

	return writeUint32(w, h.Nonce)
}
