// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaingen

import (
	"fmt"
	"math"
	"math/big"
	"runtime"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/crypto/rand"

	"github.com/bitcash-dev/cdsharness/txscript"
	"github.com/bitcash-dev/cdsharness/wire"
)

const (
	// maxRelayFee is the hard cap in satoshi on the fee deducted from the
	// first output of generated transactions.
	maxRelayFee = 1000

	// feeDivisor is the proportional fee divisor: the fee is 1% of the
	// output value up to maxRelayFee.
	feeDivisor = 100
)

// Params houses the chain parameters the generator needs.  Only the handful
// of values relevant to constructing regression test network blocks are
// included.
type Params struct {
	// BlockVersion is the version of generated block headers.
	BlockVersion int32

	// PowLimitBits is the compact representation of the proof of work
	// limit, which doubles as the difficulty of every generated block on
	// a regression test network.
	PowLimitBits uint32

	// SubsidyHalvingInterval is the number of blocks between coinbase
	// subsidy halvings.
	SubsidyHalvingInterval int64

	// BaseSubsidy is the coinbase subsidy of the first halving interval
	// in satoshi.
	BaseSubsidy int64
}

// RegNetParams returns the parameters of the regression test network the
// node under test runs on.
func RegNetParams() *Params {
	return &Params{
		BlockVersion:           4,
		PowLimitBits:           0x207fffff,
		SubsidyHalvingInterval: 150,
		BaseSubsidy:            50 * btcutil.SatoshiPerBitcoin,
	}
}

// SpendableOut represents a transaction output that is spendable along with
// additional metadata such as how much it pays.
type SpendableOut struct {
	prevOut wire.OutPoint
	amount  btcutil.Amount
}

// PrevOut returns the outpoint associated with the spendable output.
func (s *SpendableOut) PrevOut() wire.OutPoint {
	return s.prevOut
}

// Amount returns the amount associated with the spendable output.
func (s *SpendableOut) Amount() btcutil.Amount {
	return s.amount
}

// MakeSpendableOutForOutPoint returns a spendable output for the provided
// outpoint and amount.  It is used when the funding transaction is only known
// by reference, such as an output reported by the wallet of the node under
// test.
func MakeSpendableOutForOutPoint(prevOut wire.OutPoint, amount btcutil.Amount) SpendableOut {
	return SpendableOut{
		prevOut: prevOut,
		amount:  amount,
	}
}

// MakeSpendableOut returns a spendable output for the given transaction
// output index within the provided transaction.
func MakeSpendableOut(tx *wire.MsgTx, txOutIndex uint32) SpendableOut {
	return SpendableOut{
		prevOut: wire.OutPoint{
			Hash:  *tx.CachedTxHash(),
			Index: txOutIndex,
		},
		amount: btcutil.Amount(tx.TxOut[txOutIndex].Value),
	}
}

// Generator houses state used to ease the process of generating test blocks
// that exercise the opcode under test.  All generated state is in-memory;
// the authoritative chain state lives in the node under test.
type Generator struct {
	params *Params
}

// MakeGenerator returns a generator instance associated with the provided
// chain parameters.
func MakeGenerator(params *Params) Generator {
	return Generator{params: params}
}

// Params returns the chain parameters associated with the generator.
func (g *Generator) Params() *Params {
	return g.params
}

// calcFee returns the fee to deduct from the first output of a generated
// transaction for an output of the provided value: a proportional fee capped
// at maxRelayFee.
func calcFee(value int64) int64 {
	fee := value / feeDivisor
	if fee > maxRelayFee {
		fee = maxRelayFee
	}
	return fee
}

// standardCoinbaseScript returns a standard signature script suitable for
// use as the signature script of a coinbase transaction for the provided
// block height.  The script starts with the serialized block height to
// conform to the uniqueness rule and is followed by a random payload so
// coinbases remain distinct even when two blocks share a height and
// timestamp.
func standardCoinbaseScript(blockHeight int64) ([]byte, error) {
	var extraNonce [8]byte
	rand.Read(extraNonce[:])
	return txscript.NewScriptBuilder().
		AddInt64(blockHeight).
		AddData(extraNonce[:]).
		Script()
}

// calcCoinbaseSubsidy returns the coinbase subsidy in satoshi for a block at
// the provided height taking the halving interval into account.
func (g *Generator) calcCoinbaseSubsidy(blockHeight int64) int64 {
	halvings := uint(blockHeight / g.params.SubsidyHalvingInterval)
	if halvings >= 64 {
		return 0
	}
	return g.params.BaseSubsidy >> halvings
}

// CreateCoinbaseTx returns a coinbase transaction paying the full subsidy
// for the provided block height to an unspendable output.  The harness never
// spends its own coinbases, so no payment script is attached.
func (g *Generator) CreateCoinbaseTx(blockHeight int64) (*wire.MsgTx, error) {
	coinbaseScript, err := standardCoinbaseScript(blockHeight)
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx()
	tx.AddTxIn(&wire.TxIn{
		// Coinbase transactions have no inputs, so previous outpoint
		// is zero hash and max index.
		PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{},
			wire.MaxPrevOutIndex),
		SignatureScript: coinbaseScript,
		Sequence:        wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(wire.NewTxOut(g.calcCoinbaseSubsidy(blockHeight), nil))
	return tx, nil
}

// CreateDataSigFundingTx returns an unsigned transaction that splits the
// provided spendable output into count equal-value outputs that are each
// locked with the producing script from DataSigScript.  A proportional fee
// is deducted from the first output only.  Signing is delegated entirely to
// the external wallet service of the node under test.
func (g *Generator) CreateDataSigFundingTx(spend *SpendableOut, count int) (*wire.MsgTx, error) {
	if count <= 0 {
		return nil, fmt.Errorf("funding transaction output count must "+
			"be positive (got %d)", count)
	}

	pkScript, err := DataSigScript()
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx()
	tx.AddTxIn(wire.NewTxIn(&spend.prevOut, nil))

	value := int64(spend.amount) / int64(count)
	for i := 0; i < count; i++ {
		tx.AddTxOut(wire.NewTxOut(value, pkScript))
	}
	tx.TxOut[0].Value -= calcFee(value)
	tx.InvalidateCache()

	return tx, nil
}

// CreateDataSigSpendTx returns a transaction that consumes the provided
// producing output.  The first output carries the value minus a proportional
// fee with an empty always-true script and the second output is a zero-value
// unspendable output with fresh random data so repeated spend attempts never
// collide on transaction identity.
//
// No signature script is required to redeem the producing output since the
// producing script leaves a true value on the stack by itself once the
// opcode under test is active.
func (g *Generator) CreateDataSigSpendTx(spend *SpendableOut) (*wire.MsgTx, error) {
	uniqueScript, err := UniqueOpReturnScript()
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx()
	tx.AddTxIn(wire.NewTxIn(&spend.prevOut, nil))
	tx.AddTxOut(wire.NewTxOut(int64(spend.amount), nil))
	tx.AddTxOut(wire.NewTxOut(0, uniqueScript))
	tx.TxOut[0].Value -= calcFee(tx.TxOut[0].Value)
	tx.InvalidateCache()

	return tx, nil
}

// hashMerkleBranches takes two hashes, treated as the left and right tree
// nodes, and returns the hash of their concatenation.  This is a helper
// function used to aid in the generation of a merkle tree.
func hashMerkleBranches(left, right *chainhash.Hash) chainhash.Hash {
	// Concatenate the left and right nodes.
	var hash [chainhash.HashSize * 2]byte
	copy(hash[:chainhash.HashSize], left[:])
	copy(hash[chainhash.HashSize:], right[:])

	return chainhash.DoubleHashH(hash[:])
}

// CalcMerkleRoot creates a merkle tree from the slice of transactions and
// returns the root of the tree.  An empty slice yields a zero hash.  When
// the number of nodes at a level is odd, the last node is paired with
// itself, per the consensus rules of the node under test.
func CalcMerkleRoot(txns []*wire.MsgTx) chainhash.Hash {
	if len(txns) == 0 {
		return chainhash.Hash{}
	}

	hashes := make([]chainhash.Hash, 0, len(txns))
	for _, tx := range txns {
		hashes = append(hashes, tx.TxHash())
	}

	for len(hashes) > 1 {
		// When there is no right child, reuse the left child.
		if len(hashes)%2 != 0 {
			hashes = append(hashes, hashes[len(hashes)-1])
		}

		next := make([]chainhash.Hash, 0, len(hashes)/2)
		for i := 0; i < len(hashes); i += 2 {
			next = append(next, hashMerkleBranches(&hashes[i],
				&hashes[i+1]))
		}
		hashes = next
	}

	return hashes[0]
}

// hashToBig converts a chainhash.Hash into a big.Int that can be used to
// perform math comparisons.
func hashToBig(hash *chainhash.Hash) *big.Int {
	// A Hash is in little-endian, but the big package wants the bytes in
	// big-endian, so reverse them.
	buf := *hash
	blen := len(buf)
	for i := 0; i < blen/2; i++ {
		buf[i], buf[blen-1-i] = buf[blen-1-i], buf[i]
	}

	return new(big.Int).SetBytes(buf[:])
}

// compactToBig converts a compact representation of a whole number N used in
// bitcoin to a big integer.  The representation is similar to IEEE754
// floating point numbers.
//
// Like IEEE754 floating point, there are three basic components: the sign,
// the exponent, and the mantissa.  They are broken out of the 32-bit number
// as follows:
//
//	-------------------------------------------------
//	|   Exponent     |    Sign    |    Mantissa     |
//	-------------------------------------------------
//	| 8 bits [31-24] | 1 bit [23] | 23 bits [22-00] |
//	-------------------------------------------------
//
// The formula to calculate N is:
//
//	N = (-1^sign) * mantissa * 256^(exponent-3)
func compactToBig(compact uint32) *big.Int {
	// Extract the mantissa, sign bit, and exponent.
	mantissa := compact & 0x007fffff
	isNegative := compact&0x00800000 != 0
	exponent := uint(compact >> 24)

	// Since the base for the exponent is 256, the exponent can be treated
	// as the number of bytes to represent the full 256-bit number.  So,
	// treat the exponent as the number of bytes and shift the mantissa
	// right or left accordingly.  This is equivalent to:
	// N = mantissa * 256^(exponent-3)
	var bn *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		bn = big.NewInt(int64(mantissa))
	} else {
		bn = big.NewInt(int64(mantissa))
		bn.Lsh(bn, 8*(exponent-3))
	}

	// Make it negative if the sign bit is set.
	if isNegative {
		bn = bn.Neg(bn)
	}

	return bn
}

// IsSolved returns whether or not the header hashes to a value that is less
// than or equal to the target difficulty as specified by its bits field.
func IsSolved(header *wire.BlockHeader) bool {
	targetDifficulty := compactToBig(header.Bits)
	hash := header.BlockHash()
	return hashToBig(&hash).Cmp(targetDifficulty) <= 0
}

// SolveBlock attempts to find a nonce which makes the passed block header
// hash to a value less than the target difficulty.  When a successful
// solution is found, true is returned and the nonce field of the passed
// header is updated with the solution.  False is returned if no solution
// exists.
//
// NOTE: This function will never solve blocks with a nonce of 0.  This is
// done so the generator can detect a caller-modified nonce.
func SolveBlock(header *wire.BlockHeader) bool {
	// sbResult is used by the solver goroutines to send results.
	type sbResult struct {
		found bool
		nonce uint32
	}

	// solver accepts a block header and a nonce range to test.  It is
	// intended to be run as a goroutine.
	targetDifficulty := compactToBig(header.Bits)
	quit := make(chan bool)
	results := make(chan sbResult)
	solver := func(hdr wire.BlockHeader, startNonce, stopNonce uint32) {
		// We need to modify the nonce field of the header, so make
		// sure we work with a copy of the original header.
		for i := startNonce; i >= startNonce && i <= stopNonce; i++ {
			select {
			case <-quit:
				results <- sbResult{false, 0}
				return
			default:
				hdr.Nonce = i
				hash := hdr.BlockHash()
				if hashToBig(&hash).Cmp(targetDifficulty) <= 0 {
					results <- sbResult{true, i}
					return
				}
			}
		}
		results <- sbResult{false, 0}
	}

	startNonce := uint32(1)
	stopNonce := uint32(math.MaxUint32)
	numCores := uint32(runtime.NumCPU())
	noncesPerCore := (stopNonce - startNonce) / numCores
	for i := uint32(0); i < numCores; i++ {
		rangeStart := startNonce + (noncesPerCore * i)
		rangeStop := startNonce + (noncesPerCore * (i + 1)) - 1
		if i == numCores-1 {
			rangeStop = stopNonce
		}
		go solver(*header, rangeStart, rangeStop)
	}
	var foundResult bool
	for i := uint32(0); i < numCores; i++ {
		result := <-results
		if !foundResult && result.found {
			close(quit)
			header.Nonce = result.nonce
			foundResult = true
		}
	}

	return foundResult
}

// NextBlock builds a fully solved block that extends the block identified by
// prevHash at the provided height and timestamp.  A coinbase transaction for
// the height is constructed and placed first, followed by the provided
// transactions in order.  The merkle root is computed over all transactions
// and the proof of work search runs until a solution below the regression
// test network difficulty is found.
func (g *Generator) NextBlock(prevHash *chainhash.Hash, height int64,
	blockTime time.Time, txns ...*wire.MsgTx) (*wire.MsgBlock, error) {

	coinbase, err := g.CreateCoinbaseTx(height)
	if err != nil {
		return nil, err
	}

	blockTxns := make([]*wire.MsgTx, 0, len(txns)+1)
	blockTxns = append(blockTxns, coinbase)
	blockTxns = append(blockTxns, txns...)

	block := wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:    g.params.BlockVersion,
			PrevBlock:  *prevHash,
			MerkleRoot: CalcMerkleRoot(blockTxns),
			Timestamp:  time.Unix(blockTime.Unix(), 0),
			Bits:       g.params.PowLimitBits,
		},
		Transactions: blockTxns,
	}

	if !SolveBlock(&block.Header) {
		return nil, fmt.Errorf("unable to solve block at height %d",
			height)
	}

	return &block, nil
}

// AttachTransaction appends the provided transaction to the block,
// recomputes the merkle root, and re-derives the proof of work solution.
// The block must not be submitted between the append and the re-solve since
// the intermediate state violates the header commitments.
func (g *Generator) AttachTransaction(block *wire.MsgBlock, tx *wire.MsgTx) error {
	block.AddTransaction(tx)
	block.Header.MerkleRoot = CalcMerkleRoot(block.Transactions)
	block.Header.Nonce = 0
	if !SolveBlock(&block.Header) {
		return fmt.Errorf("unable to re-solve block %v after "+
			"attaching transaction %v", block.BlockHash(), tx.TxHash())
	}
	return nil
}
