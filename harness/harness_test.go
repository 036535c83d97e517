// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package harness

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrjson/v4"
	"github.com/stretchr/testify/require"

	"github.com/bitcash-dev/cdsharness/activation"
	"github.com/bitcash-dev/cdsharness/chaingen"
	"github.com/bitcash-dev/cdsharness/wire"
)

// fakeStartTime is the wall clock of the fake node, chosen to be far enough
// before the default threshold that setup blocks never influence the median
// walk.
const fakeStartTime int64 = 1600000000

// fakeBlock is a block tracked by the fake node.
type fakeBlock struct {
	hash      chainhash.Hash
	parent    chainhash.Hash
	height    int64
	timestamp int64
	txns      []*wire.MsgTx
	invalid   bool
}

// fakeNode is an in-memory Node implementation that reproduces the behavior
// of a Bitcoin-family regression test node for the subset of functionality
// the driver exercises: a memory pool that rejects spends of the producing
// script before activation, block connection that validates spends against
// the median time of the parent, and block invalidation that returns
// disconnected transactions to the pool and revalidates it.
type fakeNode struct {
	threshold   activation.Threshold
	blocks      map[chainhash.Hash]*fakeBlock
	tip         chainhash.Hash
	mempool     map[chainhash.Hash]*wire.MsgTx
	utxoScripts map[wire.OutPoint][]byte
	dataSig     []byte
	mockTime    int64

	// Behavior overrides used by the failure-path tests.
	acceptEarlySpends bool
	poolRejectMsg     string
	blockRejectMsg    string
	neverConfirm      bool
	medianSkew        int64
}

func newFakeNode(t *testing.T, threshold activation.Threshold) *fakeNode {
	t.Helper()

	dataSig, err := chaingen.DataSigScript()
	require.NoError(t, err)

	genesis := &fakeBlock{
		hash:      chainhash.DoubleHashH([]byte("genesis")),
		height:    0,
		timestamp: fakeStartTime,
	}
	return &fakeNode{
		threshold:      threshold,
		blocks:         map[chainhash.Hash]*fakeBlock{genesis.hash: genesis},
		tip:            genesis.hash,
		mempool:        make(map[chainhash.Hash]*wire.MsgTx),
		utxoScripts:    make(map[wire.OutPoint][]byte),
		dataSig:        dataSig,
		poolRejectMsg:  PoolReject.Reason,
		blockRejectMsg: BlockReject.Reason,
	}
}

// chainTimes returns the timestamps of the chain ending at the provided
// block, oldest first.
func (n *fakeNode) chainTimes(hash chainhash.Hash) []int64 {
	var reversed []int64
	for {
		block, ok := n.blocks[hash]
		if !ok {
			break
		}
		reversed = append(reversed, block.timestamp)
		if block.height == 0 ||
			len(reversed) == activation.MedianTimeBlocks {

			break
		}
		hash = block.parent
	}
	times := make([]int64, len(reversed))
	for i, ts := range reversed {
		times[len(times)-1-i] = ts
	}
	return times
}

// medianTimeAt returns the median time of the chain ending at the provided
// block.
func (n *fakeNode) medianTimeAt(hash chainhash.Hash) int64 {
	return activation.CalcMedianTime(n.chainTimes(hash))
}

// activeAt returns whether the gated rules apply to transactions validated
// against the chain ending at the provided block.
func (n *fakeNode) activeAt(hash chainhash.Hash) bool {
	return n.threshold.IsActive(n.medianTimeAt(hash))
}

// spendsDataSigOutput returns whether any input of the transaction consumes
// an output locked with the producing script.
func (n *fakeNode) spendsDataSigOutput(tx *wire.MsgTx) bool {
	for _, txIn := range tx.TxIn {
		script, ok := n.utxoScripts[txIn.PreviousOutPoint]
		if ok && bytes.Equal(script, n.dataSig) {
			return true
		}
	}
	return false
}

// registerOutputs records the outputs of the transaction so later spends of
// them can be classified.
func (n *fakeNode) registerOutputs(tx *wire.MsgTx) {
	txHash := tx.TxHash()
	for i, txOut := range tx.TxOut {
		out := wire.OutPoint{Hash: txHash, Index: uint32(i)}
		n.utxoScripts[out] = txOut.PkScript
	}
}

// revalidateMempool evicts transactions that are no longer valid under the
// current tip, mirroring the pool revalidation a node performs after a
// reorganization.
func (n *fakeNode) revalidateMempool() {
	active := n.activeAt(n.tip)
	for hash, tx := range n.mempool {
		if !active && n.spendsDataSigOutput(tx) {
			delete(n.mempool, hash)
		}
	}
}

// connectBlock makes the provided block the new tip and removes its
// transactions from the memory pool.
func (n *fakeNode) connectBlock(block *fakeBlock) {
	n.blocks[block.hash] = block
	n.tip = block.hash
	for _, tx := range block.txns {
		n.registerOutputs(tx)
		delete(n.mempool, tx.TxHash())
	}
	n.revalidateMempool()
}

func (n *fakeNode) SendRawTransaction(_ context.Context, tx *wire.MsgTx) (*chainhash.Hash, error) {
	if n.spendsDataSigOutput(tx) && !n.activeAt(n.tip) &&
		!n.acceptEarlySpends {

		return nil, &dcrjson.RPCError{
			Code:    dcrjson.RPCErrorCode(PoolReject.Code),
			Message: n.poolRejectMsg,
		}
	}

	hash := tx.TxHash()
	n.mempool[hash] = tx
	n.registerOutputs(tx)
	return &hash, nil
}

func (n *fakeNode) SubmitBlock(_ context.Context, block *wire.MsgBlock) (string, error) {
	if block.Header.PrevBlock != n.tip {
		return "inconclusive", nil
	}

	// Spends of the producing script are validated against the median
	// time of the parent chain.
	if !n.activeAt(block.Header.PrevBlock) {
		for _, tx := range block.Transactions[1:] {
			if n.spendsDataSigOutput(tx) {
				return n.blockRejectMsg, nil
			}
		}
	}

	parent := n.blocks[block.Header.PrevBlock]
	n.connectBlock(&fakeBlock{
		hash:      block.BlockHash(),
		parent:    block.Header.PrevBlock,
		height:    parent.height + 1,
		timestamp: block.Header.Timestamp.Unix(),
		txns:      block.Transactions[1:],
	})
	return "", nil
}

func (n *fakeNode) MempoolTxns(_ context.Context) ([]chainhash.Hash, error) {
	txns := make([]chainhash.Hash, 0, len(n.mempool))
	for hash := range n.mempool {
		txns = append(txns, hash)
	}
	return txns, nil
}

func (n *fakeNode) BestHeader(_ context.Context) (*HeaderInfo, error) {
	tip := n.blocks[n.tip]
	return &HeaderInfo{
		Hash:       tip.hash,
		Height:     tip.height,
		Time:       tip.timestamp,
		MedianTime: n.medianTimeAt(tip.hash) + n.medianSkew,
	}, nil
}

func (n *fakeNode) BlockCount(_ context.Context) (int64, error) {
	return n.blocks[n.tip].height, nil
}

func (n *fakeNode) SetMockTime(_ context.Context, timestamp int64) error {
	n.mockTime = timestamp
	return nil
}

func (n *fakeNode) Generate(_ context.Context, numBlocks uint32) ([]chainhash.Hash, error) {
	hashes := make([]chainhash.Hash, 0, numBlocks)
	for i := uint32(0); i < numBlocks; i++ {
		parent := n.blocks[n.tip]

		var buf [44]byte
		copy(buf[:32], parent.hash[:])
		binary.LittleEndian.PutUint64(buf[32:40],
			uint64(parent.height+1))
		hash := chainhash.DoubleHashH(buf[:])

		var txns []*wire.MsgTx
		if !n.neverConfirm {
			for _, tx := range n.mempool {
				txns = append(txns, tx)
			}
		}
		n.connectBlock(&fakeBlock{
			hash:      hash,
			parent:    parent.hash,
			height:    parent.height + 1,
			timestamp: fakeStartTime + parent.height + 1,
			txns:      txns,
		})
		hashes = append(hashes, hash)
	}
	return hashes, nil
}

func (n *fakeNode) InvalidateBlock(_ context.Context, hash *chainhash.Hash) error {
	block, ok := n.blocks[*hash]
	if !ok {
		return errors.New("block not found")
	}
	if block.invalid {
		// Invalidating an already invalid block is a no-op.
		return nil
	}
	block.invalid = true

	// Walk the current tip back to the parent of the invalidated block
	// when it is part of the best chain, returning the transactions of
	// every disconnected block to the memory pool.
	onChain := false
	for bh := n.tip; ; {
		b, ok := n.blocks[bh]
		if !ok || b.height < block.height {
			break
		}
		if bh == block.hash {
			onChain = true
			break
		}
		bh = b.parent
	}
	if !onChain {
		return nil
	}

	for n.tip != block.parent {
		disconnected := n.blocks[n.tip]
		for _, tx := range disconnected.txns {
			n.mempool[tx.TxHash()] = tx
		}
		n.tip = disconnected.parent
	}
	n.revalidateMempool()
	return nil
}

func (n *fakeNode) ListUnspent(_ context.Context) ([]Unspent, error) {
	return []Unspent{{
		PrevOut: wire.OutPoint{
			Hash:  chainhash.DoubleHashH([]byte("wallet output")),
			Index: 0,
		},
		Amount: 50 * btcutil.SatoshiPerBitcoin,
	}}, nil
}

func (n *fakeNode) SignRawTransaction(_ context.Context, tx *wire.MsgTx) (*wire.MsgTx, bool, error) {
	// The fake wallet signs everything without altering the transaction.
	return tx, true, nil
}

// newTestHarness returns a harness driving the provided fake node with poll
// timings suitable for tests.
func newTestHarness(t *testing.T, node Node) *Harness {
	t.Helper()

	h, err := New(&Config{
		Node:         node,
		WaitTimeout:  500 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	return h
}

// TestRunScriptedSequence ensures the full scripted sequence succeeds against
// a node that implements the activation rules faithfully.
func TestRunScriptedSequence(t *testing.T) {
	node := newFakeNode(t, activation.DefaultThreshold)
	h := newTestHarness(t, node)

	require.NoError(t, h.Run(context.Background()))

	// The sequence consumed exactly one producing output.
	require.Len(t, h.spendableOuts, defaultFundingOutputs-1)

	// The reorganization phase must leave the node back on the
	// pre-activation chain with an empty memory pool.
	require.Equal(t, h.threshold.BoundaryMedian(),
		node.medianTimeAt(node.tip))
	require.Empty(t, node.mempool)
}

// TestRunEarlyPoolAccept ensures the sequence fails with an outcome mismatch
// when the node accepts the spend into its pool before activation.
func TestRunEarlyPoolAccept(t *testing.T) {
	node := newFakeNode(t, activation.DefaultThreshold)
	node.acceptEarlySpends = true
	h := newTestHarness(t, node)

	err := h.Run(context.Background())
	require.ErrorIs(t, err, ErrOutcomeMismatch)
}

// TestRunPoolRejectMismatch ensures the sequence fails with a reject mismatch
// when the node rejects the early spend with an unexpected message.
func TestRunPoolRejectMismatch(t *testing.T) {
	node := newFakeNode(t, activation.DefaultThreshold)
	node.poolRejectMsg = "64: scriptpubkey"
	h := newTestHarness(t, node)

	err := h.Run(context.Background())
	require.ErrorIs(t, err, ErrRejectMismatch)
}

// TestRunBlockRejectMismatch ensures the sequence fails with a reject
// mismatch when the node rejects the boundary block with an unexpected
// reason.
func TestRunBlockRejectMismatch(t *testing.T) {
	node := newFakeNode(t, activation.DefaultThreshold)
	node.blockRejectMsg = "bad-txns-inputs-missingorspent"
	h := newTestHarness(t, node)

	err := h.Run(context.Background())
	require.ErrorIs(t, err, ErrRejectMismatch)
}

// TestRunMedianTimeMismatch ensures the sequence fails with a median time
// mismatch when the node reports a median that disagrees with the scripted
// block timestamps.
func TestRunMedianTimeMismatch(t *testing.T) {
	node := newFakeNode(t, activation.DefaultThreshold)
	node.medianSkew = 1
	h := newTestHarness(t, node)

	err := h.Run(context.Background())
	require.ErrorIs(t, err, ErrMedianTimeMismatch)
}

// TestRunFundingTimeout ensures the sequence fails with a timeout when the
// node never confirms the funding transaction.
func TestRunFundingTimeout(t *testing.T) {
	node := newFakeNode(t, activation.DefaultThreshold)
	node.neverConfirm = true
	h := newTestHarness(t, node)

	err := h.Run(context.Background())
	require.ErrorIs(t, err, ErrTimeout)
}

// TestInvalidateIdempotent ensures invalidating a block that is already
// invalid leaves the node state unchanged.
func TestInvalidateIdempotent(t *testing.T) {
	ctx := context.Background()
	node := newFakeNode(t, activation.DefaultThreshold)

	hashes, err := node.Generate(ctx, 3)
	require.NoError(t, err)

	require.NoError(t, node.InvalidateBlock(ctx, &hashes[1]))
	tipAfterFirst := node.tip
	require.Equal(t, hashes[0], tipAfterFirst)

	require.NoError(t, node.InvalidateBlock(ctx, &hashes[1]))
	require.Equal(t, tipAfterFirst, node.tip)
}

// TestPopSpendableOutEmpty ensures popping from an empty output stack
// reports the dedicated error kind.
func TestPopSpendableOutEmpty(t *testing.T) {
	h := newTestHarness(t, newFakeNode(t, activation.DefaultThreshold))

	_, err := h.PopSpendableOut()
	require.ErrorIs(t, err, ErrNoSpendableOutputs)
}

// TestMedianWalkAgainstFake ensures the fake node's median calculation and
// the activation model agree on the scripted timestamps, guarding the
// assumptions the driver makes about the node under test.
func TestMedianWalkAgainstFake(t *testing.T) {
	ctx := context.Background()
	threshold := activation.DefaultThreshold
	node := newFakeNode(t, threshold)

	_, err := node.Generate(ctx, 126)
	require.NoError(t, err)

	gen := chaingen.MakeGenerator(chaingen.RegNetParams())
	header, err := node.BestHeader(ctx)
	require.NoError(t, err)
	tipHash, height := header.Hash, header.Height

	for _, timestamp := range threshold.PreforkBlockTimes() {
		block, err := gen.NextBlock(&tipHash, height+1,
			time.Unix(timestamp, 0))
		require.NoError(t, err)
		reason, err := node.SubmitBlock(ctx, block)
		require.NoError(t, err)
		require.Empty(t, reason)
		tipHash, height = block.BlockHash(), height+1
	}

	header, err = node.BestHeader(ctx)
	require.NoError(t, err)
	require.Equal(t, threshold.BoundaryMedian(), header.MedianTime)

	block, err := gen.NextBlock(&tipHash, height+1,
		time.Unix(threshold.ForkBlockTime(), 0))
	require.NoError(t, err)
	reason, err := node.SubmitBlock(ctx, block)
	require.NoError(t, err)
	require.Empty(t, reason)

	header, err = node.BestHeader(ctx)
	require.NoError(t, err)
	require.Equal(t, threshold.ActivationMedian(), header.MedianTime)
}
