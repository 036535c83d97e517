// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package harness

import (
	"context"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/bitcash-dev/cdsharness/wire"
)

// RejectResult describes a pool or block level rejection verdict reported by
// the node under test.
type RejectResult struct {
	// Code is the numeric reject code.  For pool-level rejections this is
	// the JSON-RPC error code; for block-level rejections it is the
	// consensus reject class encoded in the reason string.
	Code int

	// Reason is the human-readable reject reason reported by the node.
	Reason string
}

// HeaderInfo describes the subset of block header state the driver observes
// through the node, most importantly the median time of the past blocks as
// computed by the node itself.
type HeaderInfo struct {
	Hash       chainhash.Hash
	Height     int64
	Time       int64
	MedianTime int64
}

// Unspent describes a confirmed output the node's wallet can spend.
type Unspent struct {
	PrevOut wire.OutPoint
	Amount  btcutil.Amount
}

// Node is the contract the driver requires from the blockchain node under
// test.  Implementations wrap a concrete transport such as the JSON-RPC
// client; tests substitute an in-memory fake.
//
// All methods accept a context to bound the underlying call.  Errors
// returned by any method other than the documented verdict surfaces are
// treated as node failures and abort the scripted sequence.
type Node interface {
	// SendRawTransaction submits the transaction to the node's memory
	// pool.  Pool-level rejections are reported through the returned
	// error as a *dcrjson.RPCError.
	SendRawTransaction(ctx context.Context, tx *wire.MsgTx) (*chainhash.Hash, error)

	// SubmitBlock submits the block for connection to the chain.  The
	// returned string is empty when the block was accepted and carries
	// the node's reject reason otherwise.
	SubmitBlock(ctx context.Context, block *wire.MsgBlock) (string, error)

	// MempoolTxns returns the hashes of all transactions currently in
	// the node's memory pool.
	MempoolTxns(ctx context.Context) ([]chainhash.Hash, error)

	// BestHeader returns header information for the current best block,
	// including the node-computed median time.
	BestHeader(ctx context.Context) (*HeaderInfo, error)

	// BlockCount returns the height of the current best block.
	BlockCount(ctx context.Context) (int64, error)

	// SetMockTime pins the node's clock to the provided unix timestamp.
	SetMockTime(ctx context.Context, timestamp int64) error

	// Generate instructs the node to mine the given number of blocks
	// with its own wallet and returns their hashes.
	Generate(ctx context.Context, numBlocks uint32) ([]chainhash.Hash, error)

	// InvalidateBlock marks the block and all of its descendants invalid,
	// forcing a reorganization away from it.  Invalidating a block that
	// is already invalid is a no-op.
	InvalidateBlock(ctx context.Context, hash *chainhash.Hash) error

	// ListUnspent returns the confirmed outputs the node's wallet can
	// spend.
	ListUnspent(ctx context.Context) ([]Unspent, error)

	// SignRawTransaction has the node's wallet sign all inputs of the
	// transaction it has keys for and returns the signed transaction
	// along with whether the signatures are complete.
	SignRawTransaction(ctx context.Context, tx *wire.MsgTx) (*wire.MsgTx, bool, error)
}
