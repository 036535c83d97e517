// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package harness

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/bitcash-dev/cdsharness/rpcclient"
	"github.com/bitcash-dev/cdsharness/wire"
)

// coinbaseMaturity is the number of confirmations a coinbase output needs on
// the regression test network before the wallet may spend it.
const coinbaseMaturity = 100

// RPCNode adapts the JSON-RPC client to the Node contract the driver
// requires.
type RPCNode struct {
	client *rpcclient.Client
}

// Ensure RPCNode satisfies the Node interface.
var _ Node = (*RPCNode)(nil)

// NewRPCNode returns a Node implementation backed by the provided JSON-RPC
// client.
func NewRPCNode(client *rpcclient.Client) *RPCNode {
	return &RPCNode{client: client}
}

// SendRawTransaction submits the transaction to the node's memory pool.
//
// This is part of the Node interface implementation.
func (n *RPCNode) SendRawTransaction(ctx context.Context, tx *wire.MsgTx) (*chainhash.Hash, error) {
	return n.client.SendRawTransaction(ctx, tx, true)
}

// SubmitBlock submits the block for connection to the chain and returns the
// node's reject reason, or the empty string when the block was accepted.
//
// This is part of the Node interface implementation.
func (n *RPCNode) SubmitBlock(ctx context.Context, block *wire.MsgBlock) (string, error) {
	return n.client.SubmitBlock(ctx, block, nil)
}

// MempoolTxns returns the hashes of all transactions currently in the node's
// memory pool.
//
// This is part of the Node interface implementation.
func (n *RPCNode) MempoolTxns(ctx context.Context) ([]chainhash.Hash, error) {
	hashes, err := n.client.GetRawMempool(ctx)
	if err != nil {
		return nil, err
	}
	txns := make([]chainhash.Hash, 0, len(hashes))
	for _, hash := range hashes {
		txns = append(txns, *hash)
	}
	return txns, nil
}

// BestHeader returns header information for the current best block.
//
// This is part of the Node interface implementation.
func (n *RPCNode) BestHeader(ctx context.Context) (*HeaderInfo, error) {
	bestHash, err := n.client.GetBestBlockHash(ctx)
	if err != nil {
		return nil, err
	}
	header, err := n.client.GetBlockHeaderVerbose(ctx, bestHash)
	if err != nil {
		return nil, err
	}
	return &HeaderInfo{
		Hash:       *bestHash,
		Height:     header.Height,
		Time:       header.Time,
		MedianTime: header.MedianTime,
	}, nil
}

// BlockCount returns the height of the current best block.
//
// This is part of the Node interface implementation.
func (n *RPCNode) BlockCount(ctx context.Context) (int64, error) {
	return n.client.GetBlockCount(ctx)
}

// SetMockTime pins the node's clock to the provided unix timestamp.
//
// This is part of the Node interface implementation.
func (n *RPCNode) SetMockTime(ctx context.Context, timestamp int64) error {
	return n.client.SetMockTime(ctx, timestamp)
}

// Generate instructs the node to mine the given number of blocks with its
// own wallet.
//
// This is part of the Node interface implementation.
func (n *RPCNode) Generate(ctx context.Context, numBlocks uint32) ([]chainhash.Hash, error) {
	hashes, err := n.client.Generate(ctx, numBlocks)
	if err != nil {
		return nil, err
	}
	blocks := make([]chainhash.Hash, 0, len(hashes))
	for _, hash := range hashes {
		blocks = append(blocks, *hash)
	}
	return blocks, nil
}

// InvalidateBlock marks the block and all of its descendants invalid.
//
// This is part of the Node interface implementation.
func (n *RPCNode) InvalidateBlock(ctx context.Context, hash *chainhash.Hash) error {
	return n.client.InvalidateBlock(ctx, hash)
}

// ListUnspent returns the confirmed outputs the node's wallet can spend.
// Only outputs with at least coinbase maturity confirmations are requested
// since the wallet holds nothing but mined coinbases during setup.
//
// This is part of the Node interface implementation.
func (n *RPCNode) ListUnspent(ctx context.Context) ([]Unspent, error) {
	results, err := n.client.ListUnspentMin(ctx, coinbaseMaturity)
	if err != nil {
		return nil, err
	}

	unspent := make([]Unspent, 0, len(results))
	for _, result := range results {
		txHash, err := chainhash.NewHashFromStr(result.TxID)
		if err != nil {
			return nil, fmt.Errorf("invalid txid %q in listunspent "+
				"result: %w", result.TxID, err)
		}
		amount, err := btcutil.NewAmount(result.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %v in "+
				"listunspent result: %w", result.Amount, err)
		}
		unspent = append(unspent, Unspent{
			PrevOut: wire.OutPoint{Hash: *txHash, Index: result.Vout},
			Amount:  amount,
		})
	}
	return unspent, nil
}

// SignRawTransaction has the node's wallet sign all inputs of the transaction
// it has keys for.
//
// This is part of the Node interface implementation.
func (n *RPCNode) SignRawTransaction(ctx context.Context, tx *wire.MsgTx) (*wire.MsgTx, bool, error) {
	return n.client.SignRawTransaction(ctx, tx)
}
