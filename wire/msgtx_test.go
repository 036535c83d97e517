// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/hex"
	"reflect"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/davecgh/go-spew/spew"
)

// genesisCoinbaseTxHex is the serialization of the coinbase transaction of
// the main network genesis block.  It is used as a known byte-exact vector
// since the serialized form is a cross-system contract.
const genesisCoinbaseTxHex = "01000000010000000000000000000000000000000000" +
	"000000000000000000000000000000ffffffff4d04ffff001d0104455468652054" +
	"696d65732030332f4a616e2f32303039204368616e63656c6c6f72206f6e206272" +
	"696e6b206f66207365636f6e64206261696c6f757420666f722062616e6b73ffff" +
	"ffff0100f2052a01000000434104678afdb0fe5548271967f1a67130b7105cd6a8" +
	"28e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c384df7" +
	"ba0b8d578a4c702b6bf11d5fac00000000"

// genesisCoinbaseTxID is the transaction hash of the main network genesis
// coinbase transaction, which is also the merkle root of the genesis block.
const genesisCoinbaseTxID = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc7" +
	"7ab2127b7afdeda33b"

// mustDecodeHex decodes the passed hex string and panics on failure.  It is
// only intended for use with hardcoded test data.
func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// TestTxSerialize tests MsgTx serialize and deserialize against the known
// genesis coinbase vector and ensures the result round-trips to an equal
// structure.
func TestTxSerialize(t *testing.T) {
	txBytes := mustDecodeHex(genesisCoinbaseTxHex)

	var tx MsgTx
	err := tx.Deserialize(bytes.NewReader(txBytes))
	if err != nil {
		t.Fatalf("Deserialize error %v", err)
	}

	if len(tx.TxIn) != 1 || len(tx.TxOut) != 1 {
		t.Fatalf("unexpected structure - got %d inputs, %d outputs",
			len(tx.TxIn), len(tx.TxOut))
	}
	if tx.TxIn[0].PreviousOutPoint.Index != MaxPrevOutIndex {
		t.Fatalf("unexpected prevout index %d",
			tx.TxIn[0].PreviousOutPoint.Index)
	}
	if tx.TxOut[0].Value != 5000000000 {
		t.Fatalf("unexpected output value %d", tx.TxOut[0].Value)
	}

	// Serializing again must reproduce the exact original bytes.
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		t.Fatalf("Serialize error %v", err)
	}
	if !bytes.Equal(buf.Bytes(), txBytes) {
		t.Fatalf("serialize mismatch\n got: %swant: %s",
			spew.Sdump(buf.Bytes()), spew.Sdump(txBytes))
	}

	if tx.SerializeSize() != len(txBytes) {
		t.Fatalf("SerializeSize got %d, want %d", tx.SerializeSize(),
			len(txBytes))
	}

	// A second deserialize of the serialization must produce an equal
	// structure.
	var tx2 MsgTx
	if err := tx2.Deserialize(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Deserialize error %v", err)
	}
	if !reflect.DeepEqual(&tx, &tx2) {
		t.Fatalf("round trip mismatch\n got: %swant: %s",
			spew.Sdump(&tx2), spew.Sdump(&tx))
	}
}

// TestTxHash tests the ability to generate the hash of a transaction
// accurately.
func TestTxHash(t *testing.T) {
	wantHash, err := chainhash.NewHashFromStr(genesisCoinbaseTxID)
	if err != nil {
		t.Fatalf("NewHashFromStr error %v", err)
	}

	var tx MsgTx
	txBytes := mustDecodeHex(genesisCoinbaseTxHex)
	if err := tx.Deserialize(bytes.NewReader(txBytes)); err != nil {
		t.Fatalf("Deserialize error %v", err)
	}

	txHash := tx.TxHash()
	if !txHash.IsEqual(wantHash) {
		t.Errorf("TxHash got %v, want %v", txHash, wantHash)
	}

	// The cached hash must match the computed hash and must remain stable
	// under repeated calls.
	if !tx.CachedTxHash().IsEqual(wantHash) {
		t.Errorf("CachedTxHash got %v, want %v", tx.CachedTxHash(),
			wantHash)
	}
	if !tx.CachedTxHash().IsEqual(wantHash) {
		t.Errorf("repeated CachedTxHash got %v, want %v",
			tx.CachedTxHash(), wantHash)
	}
}

// TestTxHashInvalidation ensures the cached transaction hash is invalidated
// whenever the transaction is mutated via the mutator funcs.
func TestTxHashInvalidation(t *testing.T) {
	tx := NewMsgTx()
	tx.AddTxIn(NewTxIn(NewOutPoint(&chainhash.Hash{}, MaxPrevOutIndex),
		[]byte{0x00, 0x00}))
	tx.AddTxOut(NewTxOut(100, []byte{0x51}))
	hashBefore := *tx.CachedTxHash()

	// Adding an output must change the identity.
	tx.AddTxOut(NewTxOut(200, []byte{0x51}))
	hashAfter := *tx.CachedTxHash()
	if hashBefore.IsEqual(&hashAfter) {
		t.Fatal("cached hash not invalidated by AddTxOut")
	}

	// Direct field mutation combined with InvalidateCache must also
	// change the identity.
	tx.TxOut[0].Value = 300
	tx.InvalidateCache()
	hashMutated := *tx.CachedTxHash()
	if hashAfter.IsEqual(&hashMutated) {
		t.Fatal("cached hash not invalidated by InvalidateCache")
	}

	// The cached hash always matches a fresh computation.
	freshHash := tx.TxHash()
	if !freshHash.IsEqual(&hashMutated) {
		t.Fatalf("cached hash %v differs from computed hash %v",
			hashMutated, freshHash)
	}
}

// TestTxCopy ensures copying a transaction produces a deep copy whose
// mutation does not affect the original.
func TestTxCopy(t *testing.T) {
	var tx MsgTx
	txBytes := mustDecodeHex(genesisCoinbaseTxHex)
	if err := tx.Deserialize(bytes.NewReader(txBytes)); err != nil {
		t.Fatalf("Deserialize error %v", err)
	}

	txCopy := tx.Copy()
	if !reflect.DeepEqual(txCopy, &tx) {
		t.Fatalf("copy mismatch\n got: %swant: %s",
			spew.Sdump(txCopy), spew.Sdump(&tx))
	}

	txCopy.TxOut[0].PkScript[0] = 0x00
	if tx.TxOut[0].PkScript[0] == 0x00 {
		t.Fatal("mutating the copy changed the original")
	}
}
