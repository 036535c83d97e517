// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrjson/v4"

	"github.com/bitcash-dev/cdsharness/activation"
	"github.com/bitcash-dev/cdsharness/chaingen"
	"github.com/bitcash-dev/cdsharness/wire"
)

const (
	// defaultFundingOutputs is the number of producing outputs the setup
	// phase creates.  Each scripted spend attempt consumes one.
	defaultFundingOutputs = 25

	// defaultMaturityBlocks is the number of blocks the setup phase has
	// the node mine so its wallet holds mature, spendable coinbases.
	defaultMaturityBlocks = 125

	// defaultWaitTimeout is how long bounded waits observe the node for
	// an expected state change before giving up.
	defaultWaitTimeout = 3 * time.Second

	// defaultPollInterval is how often bounded waits poll the node.
	defaultPollInterval = 100 * time.Millisecond
)

var (
	// PoolReject is the verdict the node must return when the spending
	// transaction reaches the memory pool before the new rules are
	// active.
	PoolReject = RejectResult{
		Code: -26,
		Reason: "16: mandatory-script-verify-flag-failed (Opcode " +
			"missing or not understood)",
	}

	// BlockReject is the verdict the node must return when a block
	// containing the spending transaction is submitted before the new
	// rules are active.
	BlockReject = RejectResult{
		Code:   16,
		Reason: "bad-blk-signatures",
	}
)

// TestInstance names a single scripted submission along with the verdict the
// node must produce for it.  A nil Reject means the submission must be
// accepted.
type TestInstance struct {
	Name   string
	Reject *RejectResult
}

// Config houses the caller-tunable parameters of the scripted sequence.
type Config struct {
	// Node is the blockchain node under test.
	Node Node

	// Threshold is the activation time of the rules under test.  The
	// zero value selects activation.DefaultThreshold.
	Threshold activation.Threshold

	// Params describe the chain the node runs.  Nil selects the
	// regression test network parameters.
	Params *chaingen.Params

	// FundingOutputs overrides the number of producing outputs created
	// during setup when positive.
	FundingOutputs int

	// MaturityBlocks overrides the number of blocks mined during setup
	// when positive.
	MaturityBlocks uint32

	// WaitTimeout and PollInterval override the bounded wait behavior
	// when positive.
	WaitTimeout  time.Duration
	PollInterval time.Duration
}

// Harness drives the scripted consensus-rule activation sequence against a
// node.  It owns the stack of spendable producing outputs created during
// setup and tracks the chain tip the locally constructed blocks extend.
//
// Harness is not safe for concurrent use; Run performs the entire sequence
// from a single goroutine.
type Harness struct {
	node          Node
	threshold     activation.Threshold
	gen           chaingen.Generator
	fundingCount  int
	maturity      uint32
	waitTimeout   time.Duration
	pollInterval  time.Duration
	spendableOuts []chaingen.SpendableOut
	tipHash       chainhash.Hash
	tipHeight     int64
}

// New returns a harness for the provided configuration with any unset
// parameters replaced by their defaults.
func New(cfg *Config) (*Harness, error) {
	if cfg == nil || cfg.Node == nil {
		return nil, makeError(ErrConstruction, "a node is required")
	}

	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = activation.DefaultThreshold
	}
	params := cfg.Params
	if params == nil {
		params = chaingen.RegNetParams()
	}
	fundingCount := cfg.FundingOutputs
	if fundingCount <= 0 {
		fundingCount = defaultFundingOutputs
	}
	maturity := cfg.MaturityBlocks
	if maturity == 0 {
		maturity = defaultMaturityBlocks
	}
	waitTimeout := cfg.WaitTimeout
	if waitTimeout <= 0 {
		waitTimeout = defaultWaitTimeout
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	return &Harness{
		node:         cfg.Node,
		threshold:    threshold,
		gen:          chaingen.MakeGenerator(params),
		fundingCount: fundingCount,
		maturity:     maturity,
		waitTimeout:  waitTimeout,
		pollInterval: pollInterval,
	}, nil
}

// PushSpendableOut adds the provided output to the top of the spendable
// output stack.
func (h *Harness) PushSpendableOut(out chaingen.SpendableOut) {
	h.spendableOuts = append(h.spendableOuts, out)
}

// PopSpendableOut removes and returns the output at the top of the spendable
// output stack.
func (h *Harness) PopSpendableOut() (chaingen.SpendableOut, error) {
	if len(h.spendableOuts) == 0 {
		return chaingen.SpendableOut{}, makeError(ErrNoSpendableOutputs,
			"the spendable output stack is empty")
	}
	out := h.spendableOuts[len(h.spendableOuts)-1]
	h.spendableOuts = h.spendableOuts[:len(h.spendableOuts)-1]
	return out, nil
}

// refreshTip updates the locally tracked chain tip from the node.
func (h *Harness) refreshTip(ctx context.Context) error {
	header, err := h.node.BestHeader(ctx)
	if err != nil {
		return makeError(ErrNodeFailure, fmt.Sprintf("unable to query "+
			"best header: %v", err))
	}
	h.tipHash = header.Hash
	h.tipHeight = header.Height
	return nil
}

// waitForMempool polls the node's memory pool until the provided transaction
// hash is present (or absent when want is false), the bounded wait expires,
// or the context is canceled.
func (h *Harness) waitForMempool(ctx context.Context, txHash chainhash.Hash, want bool) error {
	deadline := time.Now().Add(h.waitTimeout)
	for {
		txns, err := h.node.MempoolTxns(ctx)
		if err != nil {
			return makeError(ErrNodeFailure, fmt.Sprintf("unable "+
				"to query mempool: %v", err))
		}
		found := false
		for i := range txns {
			if txns[i] == txHash {
				found = true
				break
			}
		}
		if found == want {
			return nil
		}
		if time.Now().After(deadline) {
			state := "appear in"
			if !want {
				state = "leave"
			}
			return makeError(ErrTimeout, fmt.Sprintf("transaction "+
				"%v did not %s the mempool within %v", txHash,
				state, h.waitTimeout))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(h.pollInterval):
		}
	}
}

// submitTx submits the transaction to the node's memory pool and compares
// the verdict against the provided instance.
func (h *Harness) submitTx(ctx context.Context, ti TestInstance, tx *wire.MsgTx) error {
	log.Debugf("Submitting transaction %v to the mempool (%s)",
		tx.TxHash(), ti.Name)

	_, err := h.node.SendRawTransaction(ctx, tx)
	var rpcErr *dcrjson.RPCError
	switch {
	case err == nil && ti.Reject == nil:
		return nil

	case err == nil:
		return makeError(ErrOutcomeMismatch, fmt.Sprintf("%s: the "+
			"mempool accepted transaction %v which must be "+
			"rejected with code %d (%s)", ti.Name, tx.TxHash(),
			ti.Reject.Code, ti.Reject.Reason))

	case errors.As(err, &rpcErr):
		if ti.Reject == nil {
			return makeError(ErrOutcomeMismatch, fmt.Sprintf(
				"%s: the mempool rejected transaction %v "+
					"which must be accepted: %d: %s",
				ti.Name, tx.TxHash(), rpcErr.Code,
				rpcErr.Message))
		}
		if int(rpcErr.Code) != ti.Reject.Code ||
			rpcErr.Message != ti.Reject.Reason {

			return makeError(ErrRejectMismatch, fmt.Sprintf("%s: "+
				"transaction %v rejected with code %d (%s), "+
				"want code %d (%s)", ti.Name, tx.TxHash(),
				rpcErr.Code, rpcErr.Message, ti.Reject.Code,
				ti.Reject.Reason))
		}
		return nil

	default:
		return makeError(ErrNodeFailure, fmt.Sprintf("%s: unable to "+
			"submit transaction %v: %v", ti.Name, tx.TxHash(), err))
	}
}

// submitBlock submits the block to the node and compares the verdict against
// the provided instance.  The locally tracked tip advances only when the
// block must be and was accepted.
func (h *Harness) submitBlock(ctx context.Context, ti TestInstance, block *wire.MsgBlock) error {
	blockHash := block.BlockHash()
	log.Debugf("Submitting block %v (timestamp %d) to the node (%s)",
		blockHash, block.Header.Timestamp.Unix(), ti.Name)

	reason, err := h.node.SubmitBlock(ctx, block)
	if err != nil {
		return makeError(ErrNodeFailure, fmt.Sprintf("%s: unable to "+
			"submit block %v: %v", ti.Name, blockHash, err))
	}

	switch {
	case reason == "" && ti.Reject == nil:
		h.tipHash = blockHash
		h.tipHeight++
		return nil

	case reason == "":
		return makeError(ErrOutcomeMismatch, fmt.Sprintf("%s: the "+
			"node accepted block %v which must be rejected "+
			"with reason %q", ti.Name, blockHash,
			ti.Reject.Reason))

	case ti.Reject == nil:
		return makeError(ErrOutcomeMismatch, fmt.Sprintf("%s: the "+
			"node rejected block %v which must be accepted: %s",
			ti.Name, blockHash, reason))

	case reason != ti.Reject.Reason:
		return makeError(ErrRejectMismatch, fmt.Sprintf("%s: block "+
			"%v rejected with reason %q, want %q", ti.Name,
			blockHash, reason, ti.Reject.Reason))

	default:
		return nil
	}
}

// assertMedianTime ensures the node reports the provided median time for its
// best block.
func (h *Harness) assertMedianTime(ctx context.Context, want int64) error {
	header, err := h.node.BestHeader(ctx)
	if err != nil {
		return makeError(ErrNodeFailure, fmt.Sprintf("unable to query "+
			"best header: %v", err))
	}
	if header.MedianTime != want {
		return makeError(ErrMedianTimeMismatch, fmt.Sprintf("node "+
			"reports median time %d for block %v, want %d",
			header.MedianTime, header.Hash, want))
	}
	return nil
}

// nextBlock constructs and solves the next block over the tracked tip with
// the provided timestamp and additional transactions.
func (h *Harness) nextBlock(timestamp int64, txns ...*wire.MsgTx) (*wire.MsgBlock, error) {
	block, err := h.gen.NextBlock(&h.tipHash, h.tipHeight+1,
		time.Unix(timestamp, 0), txns...)
	if err != nil {
		return nil, makeError(ErrConstruction, fmt.Sprintf("unable to "+
			"construct block at height %d: %v", h.tipHeight+1, err))
	}
	return block, nil
}

// setup prepares the node and the harness for the scripted sequence: mature
// coinbases are mined by the node's own wallet, a funding transaction splits
// the first of them into the producing outputs every later phase consumes,
// and the resulting outputs are pushed onto the spendable output stack.
func (h *Harness) setup(ctx context.Context) error {
	log.Infof("Setting up: mining %d blocks for coinbase maturity",
		h.maturity)
	if _, err := h.node.Generate(ctx, h.maturity); err != nil {
		return makeError(ErrNodeFailure, fmt.Sprintf("unable to "+
			"generate %d blocks: %v", h.maturity, err))
	}
	if err := h.refreshTip(ctx); err != nil {
		return err
	}

	unspent, err := h.node.ListUnspent(ctx)
	if err != nil {
		return makeError(ErrNodeFailure, fmt.Sprintf("unable to list "+
			"unspent outputs: %v", err))
	}
	if len(unspent) == 0 {
		return makeError(ErrConstruction, "the node wallet has no "+
			"spendable outputs after mining")
	}

	// Split the first wallet output into the producing outputs.  The
	// node's wallet signs the funding transaction since the source
	// output is locked to one of its keys.
	source := chaingen.MakeSpendableOutForOutPoint(unspent[0].PrevOut,
		unspent[0].Amount)
	fundingTx, err := h.gen.CreateDataSigFundingTx(&source, h.fundingCount)
	if err != nil {
		return makeError(ErrConstruction, fmt.Sprintf("unable to "+
			"construct funding transaction: %v", err))
	}
	signedTx, complete, err := h.node.SignRawTransaction(ctx, fundingTx)
	if err != nil {
		return makeError(ErrNodeFailure, fmt.Sprintf("unable to sign "+
			"funding transaction: %v", err))
	}
	if !complete {
		return makeError(ErrConstruction, "the node wallet could not "+
			"fully sign the funding transaction")
	}

	fundingHash, err := h.node.SendRawTransaction(ctx, signedTx)
	if err != nil {
		return makeError(ErrNodeFailure, fmt.Sprintf("unable to "+
			"submit funding transaction: %v", err))
	}
	log.Infof("Funding transaction %v submitted with %d producing outputs",
		fundingHash, h.fundingCount)
	if err := h.waitForMempool(ctx, *fundingHash, true); err != nil {
		return err
	}

	// Confirm the funding transaction and make its outputs available to
	// the scripted phases.
	if _, err := h.node.Generate(ctx, 1); err != nil {
		return makeError(ErrNodeFailure, fmt.Sprintf("unable to "+
			"generate funding confirmation block: %v", err))
	}
	if err := h.waitForMempool(ctx, *fundingHash, false); err != nil {
		return err
	}
	if err := h.refreshTip(ctx); err != nil {
		return err
	}

	for i := len(signedTx.TxOut) - 1; i >= 0; i-- {
		h.PushSpendableOut(chaingen.MakeSpendableOut(signedTx,
			uint32(i)))
	}
	return nil
}

// runPreActivation exercises the rules while the node's median time is still
// well before the threshold: the spending transaction must be rejected by
// the memory pool, after which the node's clock is pinned and the pre-fork
// block run walks the median up to one second before the threshold.  The
// spending transaction is returned for reuse by the later phases.
func (h *Harness) runPreActivation(ctx context.Context) (*wire.MsgTx, error) {
	log.Infof("State BEFORE_ACTIVATION: the spend must be rejected by " +
		"the mempool")

	out, err := h.PopSpendableOut()
	if err != nil {
		return nil, err
	}
	spendTx, err := h.gen.CreateDataSigSpendTx(&out)
	if err != nil {
		return nil, makeError(ErrConstruction, fmt.Sprintf("unable to "+
			"construct spending transaction: %v", err))
	}

	err = h.submitTx(ctx, TestInstance{
		Name:   "pre-activation pool spend",
		Reject: &PoolReject,
	}, spendTx)
	if err != nil {
		return nil, err
	}

	// Pin the node clock so the timestamps of the locally constructed
	// blocks stay within the node's future block time tolerance.
	if err := h.node.SetMockTime(ctx, int64(h.threshold)); err != nil {
		return nil, makeError(ErrNodeFailure, fmt.Sprintf("unable to "+
			"set mock time: %v", err))
	}

	for _, timestamp := range h.threshold.PreforkBlockTimes() {
		block, err := h.nextBlock(timestamp)
		if err != nil {
			return nil, err
		}
		err = h.submitBlock(ctx, TestInstance{
			Name: fmt.Sprintf("pre-fork block at %d", timestamp),
		}, block)
		if err != nil {
			return nil, err
		}
	}

	return spendTx, nil
}

// runBoundary exercises the rules at the final median before activation: the
// node must report a median exactly one second before the threshold, the
// spending transaction must still be rejected by the memory pool, and a
// locally constructed block containing it must be rejected with the script
// validation reject reason.
func (h *Harness) runBoundary(ctx context.Context, spendTx *wire.MsgTx) error {
	log.Infof("State AT_BOUNDARY: median time must be one second before " +
		"the threshold")

	if err := h.assertMedianTime(ctx, h.threshold.BoundaryMedian()); err != nil {
		return err
	}

	err := h.submitTx(ctx, TestInstance{
		Name:   "boundary pool spend",
		Reject: &PoolReject,
	}, spendTx)
	if err != nil {
		return err
	}

	block, err := h.nextBlock(h.threshold.ForkBlockTime(), spendTx)
	if err != nil {
		return err
	}
	return h.submitBlock(ctx, TestInstance{
		Name:   "boundary block spend",
		Reject: &BlockReject,
	}, block)
}

// runPostActivation connects the fork block that moves the median to the
// threshold, after which the spending transaction must be accepted by both
// the memory pool and a block.  The hashes of the fork block and the block
// that confirms the spend are returned for the reorganization phase.
func (h *Harness) runPostActivation(ctx context.Context, spendTx *wire.MsgTx) (forkHash, spendBlockHash chainhash.Hash, err error) {
	log.Infof("State AFTER_ACTIVATION: the spend must be accepted")

	forkBlock, err := h.nextBlock(h.threshold.ForkBlockTime())
	if err != nil {
		return forkHash, spendBlockHash, err
	}
	err = h.submitBlock(ctx, TestInstance{Name: "fork block"}, forkBlock)
	if err != nil {
		return forkHash, spendBlockHash, err
	}
	forkHash = h.tipHash

	if err := h.assertMedianTime(ctx, h.threshold.ActivationMedian()); err != nil {
		return forkHash, spendBlockHash, err
	}

	err = h.submitTx(ctx, TestInstance{Name: "post-activation pool spend"},
		spendTx)
	if err != nil {
		return forkHash, spendBlockHash, err
	}
	spendTxHash := spendTx.TxHash()
	if err := h.waitForMempool(ctx, spendTxHash, true); err != nil {
		return forkHash, spendBlockHash, err
	}

	spendBlock, err := h.nextBlock(h.threshold.PostForkBlockTime(), spendTx)
	if err != nil {
		return forkHash, spendBlockHash, err
	}
	err = h.submitBlock(ctx, TestInstance{Name: "post-activation block " +
		"spend"}, spendBlock)
	if err != nil {
		return forkHash, spendBlockHash, err
	}
	spendBlockHash = h.tipHash

	err = h.waitForMempool(ctx, spendTxHash, false)
	return forkHash, spendBlockHash, err
}

// runReorg invalidates the post-activation blocks one at a time and ensures
// the node returns the spending transaction to the memory pool while the
// rules remain active and evicts it once the reorganization deactivates
// them.
func (h *Harness) runReorg(ctx context.Context, spendTx *wire.MsgTx, forkHash, spendBlockHash chainhash.Hash) error {
	log.Infof("State REORG_DEACTIVATED: the spend must return to the " +
		"mempool and then be evicted")

	spendTxHash := spendTx.TxHash()

	// Disconnecting the block that confirmed the spend must return the
	// transaction to the memory pool since the rules are still active at
	// the new tip.
	if err := h.node.InvalidateBlock(ctx, &spendBlockHash); err != nil {
		return makeError(ErrNodeFailure, fmt.Sprintf("unable to "+
			"invalidate block %v: %v", spendBlockHash, err))
	}
	if err := h.waitForMempool(ctx, spendTxHash, true); err != nil {
		return err
	}

	// Disconnecting the fork block moves the median back before the
	// threshold, so the memory pool must evict the transaction.
	if err := h.node.InvalidateBlock(ctx, &forkHash); err != nil {
		return makeError(ErrNodeFailure, fmt.Sprintf("unable to "+
			"invalidate block %v: %v", forkHash, err))
	}
	if err := h.waitForMempool(ctx, spendTxHash, false); err != nil {
		return err
	}

	return h.refreshTip(ctx)
}

// Run executes the full scripted sequence against the node and returns the
// first failure encountered, if any.  The sequence is not retried; every
// mismatch reports both the expected and the observed outcome.
func (h *Harness) Run(ctx context.Context) error {
	// A broken embedded signature triple would invalidate the entire
	// post-activation half of the sequence, so check it first.
	if err := chaingen.VerifyDataSigConstants(); err != nil {
		return makeError(ErrConstruction, err.Error())
	}

	if err := h.setup(ctx); err != nil {
		return err
	}
	spendTx, err := h.runPreActivation(ctx)
	if err != nil {
		return err
	}
	if err := h.runBoundary(ctx, spendTx); err != nil {
		return err
	}
	forkHash, spendBlockHash, err := h.runPostActivation(ctx, spendTx)
	if err != nil {
		return err
	}
	if err := h.runReorg(ctx, spendTx, forkHash, spendBlockHash); err != nil {
		return err
	}

	log.Infof("All states verified")
	return nil
}
