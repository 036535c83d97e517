// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/davecgh/go-spew/spew"
)

// genesisBlockHash is the block identifier of the main network genesis
// block.
const genesisBlockHash = "000000000019d6689c085ae165831e934ff763ae46a2a6c1" +
	"72b3f1b60a8ce26f"

// genesisHeader returns the main network genesis block header.
func genesisHeader(t *testing.T) *BlockHeader {
	t.Helper()

	merkleRoot, err := chainhash.NewHashFromStr(genesisCoinbaseTxID)
	if err != nil {
		t.Fatalf("NewHashFromStr error %v", err)
	}
	return &BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash{},
		MerkleRoot: *merkleRoot,
		Timestamp:  time.Unix(1231006505, 0),
		Bits:       0x1d00ffff,
		Nonce:      2083236893,
	}
}

// TestBlockHeaderHash ensures the header identity hash matches the known
// genesis block hash and is recomputed after mutation.
func TestBlockHeaderHash(t *testing.T) {
	wantHash, err := chainhash.NewHashFromStr(genesisBlockHash)
	if err != nil {
		t.Fatalf("NewHashFromStr error %v", err)
	}

	header := genesisHeader(t)
	blockHash := header.BlockHash()
	if !blockHash.IsEqual(wantHash) {
		t.Fatalf("BlockHash got %v, want %v", blockHash, wantHash)
	}

	// Mutating the nonce must change the identity since the hash is
	// recomputed on every call.
	header.Nonce++
	mutatedHash := header.BlockHash()
	if mutatedHash.IsEqual(wantHash) {
		t.Fatal("BlockHash unchanged after nonce mutation")
	}
}

// TestBlockHeaderSerialize tests header serialize and deserialize round
// trips and the fixed 80-byte length.
func TestBlockHeaderSerialize(t *testing.T) {
	header := genesisHeader(t)

	var buf bytes.Buffer
	if err := header.Serialize(&buf); err != nil {
		t.Fatalf("Serialize error %v", err)
	}
	if buf.Len() != blockHeaderLen {
		t.Fatalf("serialized header length got %d, want %d", buf.Len(),
			blockHeaderLen)
	}

	var decoded BlockHeader
	if err := decoded.Deserialize(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Deserialize error %v", err)
	}
	if !reflect.DeepEqual(&decoded, header) {
		t.Fatalf("round trip mismatch\n got: %swant: %s",
			spew.Sdump(&decoded), spew.Sdump(header))
	}
}

// TestBlockSerialize tests block serialize and deserialize round trips using
// the genesis block.
func TestBlockSerialize(t *testing.T) {
	block := NewMsgBlock(genesisHeader(t))
	var coinbase MsgTx
	txBytes := mustDecodeHex(genesisCoinbaseTxHex)
	if err := coinbase.Deserialize(bytes.NewReader(txBytes)); err != nil {
		t.Fatalf("Deserialize error %v", err)
	}
	block.AddTransaction(&coinbase)

	var buf bytes.Buffer
	if err := block.Serialize(&buf); err != nil {
		t.Fatalf("Serialize error %v", err)
	}
	if block.SerializeSize() != buf.Len() {
		t.Fatalf("SerializeSize got %d, want %d", block.SerializeSize(),
			buf.Len())
	}

	var decoded MsgBlock
	if err := decoded.Deserialize(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Deserialize error %v", err)
	}
	if !reflect.DeepEqual(&decoded, block) {
		t.Fatalf("round trip mismatch\n got: %swant: %s",
			spew.Sdump(&decoded), spew.Sdump(block))
	}

	// The block identity only commits to the header.
	wantHash, err := chainhash.NewHashFromStr(genesisBlockHash)
	if err != nil {
		t.Fatalf("NewHashFromStr error %v", err)
	}
	blockHash := decoded.BlockHash()
	if !blockHash.IsEqual(wantHash) {
		t.Fatalf("BlockHash got %v, want %v", blockHash, wantHash)
	}

	hashes := decoded.TxHashes()
	if len(hashes) != 1 {
		t.Fatalf("TxHashes got %d hashes, want 1", len(hashes))
	}
}
