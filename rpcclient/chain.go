// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpcclient

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	chainjson "github.com/bitcash-dev/cdsharness/rpc/jsonrpc/types"
	"github.com/bitcash-dev/cdsharness/wire"
)

// FutureGetBestBlockHashResult is a future promise to deliver the result of a
// GetBestBlockHashAsync RPC invocation (or an applicable error).
type FutureGetBestBlockHashResult cmdRes

// Receive waits for the response promised by the future and returns the hash
// of the best block in the longest block chain.
func (r *FutureGetBestBlockHashResult) Receive() (*chainhash.Hash, error) {
	res, err := receiveFuture(r.ctx, r.c)
	if err != nil {
		return nil, err
	}

	// Unmarshal result as a string.
	var hashStr string
	err = json.Unmarshal(res, &hashStr)
	if err != nil {
		return nil, err
	}
	return chainhash.NewHashFromStr(hashStr)
}

// GetBestBlockHashAsync returns an instance of a type that can be used to get
// the result of the RPC at some future time by invoking the Receive function
// on the returned instance.
//
// See GetBestBlockHash for the blocking version and more details.
func (c *Client) GetBestBlockHashAsync(ctx context.Context) *FutureGetBestBlockHashResult {
	cmd := chainjson.NewGetBestBlockHashCmd()
	return (*FutureGetBestBlockHashResult)(c.sendCmd(ctx, cmd))
}

// GetBestBlockHash returns the hash of the best block in the longest block
// chain.
func (c *Client) GetBestBlockHash(ctx context.Context) (*chainhash.Hash, error) {
	return c.GetBestBlockHashAsync(ctx).Receive()
}

// FutureGetBlockCountResult is a future promise to deliver the result of a
// GetBlockCountAsync RPC invocation (or an applicable error).
type FutureGetBlockCountResult cmdRes

// Receive waits for the response promised by the future and returns the number
// of blocks in the longest block chain.
func (r *FutureGetBlockCountResult) Receive() (int64, error) {
	res, err := receiveFuture(r.ctx, r.c)
	if err != nil {
		return 0, err
	}

	// Unmarshal the result as an int64.
	var count int64
	err = json.Unmarshal(res, &count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetBlockCountAsync returns an instance of a type that can be used to get the
// result of the RPC at some future time by invoking the Receive function on
// the returned instance.
//
// See GetBlockCount for the blocking version and more details.
func (c *Client) GetBlockCountAsync(ctx context.Context) *FutureGetBlockCountResult {
	cmd := chainjson.NewGetBlockCountCmd()
	return (*FutureGetBlockCountResult)(c.sendCmd(ctx, cmd))
}

// GetBlockCount returns the number of blocks in the longest block chain.
func (c *Client) GetBlockCount(ctx context.Context) (int64, error) {
	return c.GetBlockCountAsync(ctx).Receive()
}

// FutureGetBlockHeaderVerboseResult is a future promise to deliver the result
// of a GetBlockHeaderVerboseAsync RPC invocation (or an applicable error).
type FutureGetBlockHeaderVerboseResult cmdRes

// Receive waits for the response promised by the future and returns a data
// structure of the block header requested from the server given its hash.
func (r *FutureGetBlockHeaderVerboseResult) Receive() (*chainjson.GetBlockHeaderVerboseResult, error) {
	res, err := receiveFuture(r.ctx, r.c)
	if err != nil {
		return nil, err
	}

	// Unmarshal result as a getblockheader result object.
	var bh chainjson.GetBlockHeaderVerboseResult
	err = json.Unmarshal(res, &bh)
	if err != nil {
		return nil, err
	}

	return &bh, nil
}

// GetBlockHeaderVerboseAsync returns an instance of a type that can be used to
// get the result of the RPC at some future time by invoking the Receive
// function on the returned instance.
//
// See GetBlockHeaderVerbose for the blocking version and more details.
func (c *Client) GetBlockHeaderVerboseAsync(ctx context.Context, blockHash *chainhash.Hash) *FutureGetBlockHeaderVerboseResult {
	hash := ""
	if blockHash != nil {
		hash = blockHash.String()
	}

	cmd := chainjson.NewGetBlockHeaderCmd(hash, nil)
	return (*FutureGetBlockHeaderVerboseResult)(c.sendCmd(ctx, cmd))
}

// GetBlockHeaderVerbose returns a data structure with information about the
// block header from the server given its hash, including the median time of
// the past blocks as observed by the node.
func (c *Client) GetBlockHeaderVerbose(ctx context.Context, blockHash *chainhash.Hash) (*chainjson.GetBlockHeaderVerboseResult, error) {
	return c.GetBlockHeaderVerboseAsync(ctx, blockHash).Receive()
}

// FutureGetBlockChainInfoResult is a future promise to deliver the result of a
// GetBlockChainInfoAsync RPC invocation (or an applicable error).
type FutureGetBlockChainInfoResult cmdRes

// Receive waits for the response promised by the future and returns chain info
// result provided by the server.
func (r *FutureGetBlockChainInfoResult) Receive() (*chainjson.GetBlockChainInfoResult, error) {
	res, err := receiveFuture(r.ctx, r.c)
	if err != nil {
		return nil, err
	}

	// Unmarshal result as a getblockchaininfo result object.
	var chainInfo chainjson.GetBlockChainInfoResult
	err = json.Unmarshal(res, &chainInfo)
	if err != nil {
		return nil, err
	}
	return &chainInfo, nil
}

// GetBlockChainInfoAsync returns an instance of a type that can be used to get
// the result of the RPC at some future time by invoking the Receive function
// on the returned instance.
//
// See GetBlockChainInfo for the blocking version and more details.
func (c *Client) GetBlockChainInfoAsync(ctx context.Context) *FutureGetBlockChainInfoResult {
	cmd := chainjson.NewGetBlockChainInfoCmd()
	return (*FutureGetBlockChainInfoResult)(c.sendCmd(ctx, cmd))
}

// GetBlockChainInfo returns information about the current state of the block
// chain.
func (c *Client) GetBlockChainInfo(ctx context.Context) (*chainjson.GetBlockChainInfoResult, error) {
	return c.GetBlockChainInfoAsync(ctx).Receive()
}

// FutureGetRawMempoolResult is a future promise to deliver the result of a
// GetRawMempoolAsync RPC invocation (or an applicable error).
type FutureGetRawMempoolResult cmdRes

// Receive waits for the response promised by the future and returns the hashes
// of all transactions in the memory pool.
func (r *FutureGetRawMempoolResult) Receive() ([]*chainhash.Hash, error) {
	res, err := receiveFuture(r.ctx, r.c)
	if err != nil {
		return nil, err
	}

	// Unmarshal the result as an array of strings.
	var txHashStrs []string
	err = json.Unmarshal(res, &txHashStrs)
	if err != nil {
		return nil, err
	}

	// Create a slice of ShaHash arrays from the string slice.
	txHashes := make([]*chainhash.Hash, 0, len(txHashStrs))
	for _, hashStr := range txHashStrs {
		txHash, err := chainhash.NewHashFromStr(hashStr)
		if err != nil {
			return nil, err
		}
		txHashes = append(txHashes, txHash)
	}

	return txHashes, nil
}

// GetRawMempoolAsync returns an instance of a type that can be used to get the
// result of the RPC at some future time by invoking the Receive function on
// the returned instance.
//
// See GetRawMempool for the blocking version and more details.
func (c *Client) GetRawMempoolAsync(ctx context.Context) *FutureGetRawMempoolResult {
	cmd := chainjson.NewGetRawMempoolCmd(nil)
	return (*FutureGetRawMempoolResult)(c.sendCmd(ctx, cmd))
}

// GetRawMempool returns the hashes of all transactions in the memory pool.
func (c *Client) GetRawMempool(ctx context.Context) ([]*chainhash.Hash, error) {
	return c.GetRawMempoolAsync(ctx).Receive()
}

// FutureSubmitBlockResult is a future promise to deliver the result of a
// SubmitBlockAsync RPC invocation (or an applicable error).
type FutureSubmitBlockResult cmdRes

// Receive waits for the response promised by the future and returns the reject
// reason string reported by the server, or the empty string when the block was
// accepted.  The server reports rejection through the JSON-RPC result rather
// than the error field for this command.
func (r *FutureSubmitBlockResult) Receive() (string, error) {
	res, err := receiveFuture(r.ctx, r.c)
	if err != nil {
		return "", err
	}

	// A null result means the block was accepted.
	if string(res) == "null" {
		return "", nil
	}

	// Otherwise the result is the reject reason string.
	var reason string
	err = json.Unmarshal(res, &reason)
	if err != nil {
		return "", err
	}
	return reason, nil
}

// SubmitBlockAsync returns an instance of a type that can be used to get the
// result of the RPC at some future time by invoking the Receive function on
// the returned instance.
//
// See SubmitBlock for the blocking version and more details.
func (c *Client) SubmitBlockAsync(ctx context.Context, block *wire.MsgBlock, options *chainjson.SubmitBlockOptions) *FutureSubmitBlockResult {
	blockHex := ""
	if block != nil {
		var buf bytes.Buffer
		buf.Grow(block.SerializeSize())
		err := block.Serialize(&buf)
		if err != nil {
			return (*FutureSubmitBlockResult)(newFutureError(ctx, err))
		}

		blockHex = hex.EncodeToString(buf.Bytes())
	}

	cmd := chainjson.NewSubmitBlockCmd(blockHex, options)
	return (*FutureSubmitBlockResult)(c.sendCmd(ctx, cmd))
}

// SubmitBlock attempts to submit a new block into the bitcoin network and
// returns the reject reason string reported by the server, or the empty string
// when the block was accepted.
func (c *Client) SubmitBlock(ctx context.Context, block *wire.MsgBlock, options *chainjson.SubmitBlockOptions) (string, error) {
	return c.SubmitBlockAsync(ctx, block, options).Receive()
}

// FutureGenerateResult is a future promise to deliver the result of a
// GenerateAsync RPC invocation (or an applicable error).
type FutureGenerateResult cmdRes

// Receive waits for the response promised by the future and returns the hashes
// of the blocks generated by the server.
func (r *FutureGenerateResult) Receive() ([]*chainhash.Hash, error) {
	res, err := receiveFuture(r.ctx, r.c)
	if err != nil {
		return nil, err
	}

	// Unmarshal the result as an array of strings.
	var hashStrs []string
	err = json.Unmarshal(res, &hashStrs)
	if err != nil {
		return nil, err
	}

	hashes := make([]*chainhash.Hash, 0, len(hashStrs))
	for _, hashStr := range hashStrs {
		hash, err := chainhash.NewHashFromStr(hashStr)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}

	return hashes, nil
}

// GenerateAsync returns an instance of a type that can be used to get the
// result of the RPC at some future time by invoking the Receive function on
// the returned instance.
//
// See Generate for the blocking version and more details.
func (c *Client) GenerateAsync(ctx context.Context, numBlocks uint32) *FutureGenerateResult {
	cmd := chainjson.NewGenerateCmd(numBlocks)
	return (*FutureGenerateResult)(c.sendCmd(ctx, cmd))
}

// Generate instructs the server to mine the requested number of blocks on the
// regression test network and returns their hashes.
func (c *Client) Generate(ctx context.Context, numBlocks uint32) ([]*chainhash.Hash, error) {
	return c.GenerateAsync(ctx, numBlocks).Receive()
}

// FutureInvalidateBlockResult is a future promise to deliver the result of an
// InvalidateBlockAsync RPC invocation (or an applicable error).
type FutureInvalidateBlockResult cmdRes

// Receive waits for the response promised by the future and returns an error
// if any occurred when invalidating the block.
func (r *FutureInvalidateBlockResult) Receive() error {
	_, err := receiveFuture(r.ctx, r.c)
	return err
}

// InvalidateBlockAsync returns an instance of a type that can be used to get
// the result of the RPC at some future time by invoking the Receive function
// on the returned instance.
//
// See InvalidateBlock for the blocking version and more details.
func (c *Client) InvalidateBlockAsync(ctx context.Context, blockHash *chainhash.Hash) *FutureInvalidateBlockResult {
	hash := ""
	if blockHash != nil {
		hash = blockHash.String()
	}

	cmd := chainjson.NewInvalidateBlockCmd(hash)
	return (*FutureInvalidateBlockResult)(c.sendCmd(ctx, cmd))
}

// InvalidateBlock instructs the server to permanently mark the block with the
// provided hash and all of its descendants as invalid, forcing a
// reorganization to the most-work chain that excludes it.  Invalidating a
// block that is already invalid is a no-op.
func (c *Client) InvalidateBlock(ctx context.Context, blockHash *chainhash.Hash) error {
	return c.InvalidateBlockAsync(ctx, blockHash).Receive()
}

// FutureSetMockTimeResult is a future promise to deliver the result of a
// SetMockTimeAsync RPC invocation (or an applicable error).
type FutureSetMockTimeResult cmdRes

// Receive waits for the response promised by the future and returns an error
// if any occurred when setting the mock time.
func (r *FutureSetMockTimeResult) Receive() error {
	_, err := receiveFuture(r.ctx, r.c)
	return err
}

// SetMockTimeAsync returns an instance of a type that can be used to get the
// result of the RPC at some future time by invoking the Receive function on
// the returned instance.
//
// See SetMockTime for the blocking version and more details.
func (c *Client) SetMockTimeAsync(ctx context.Context, timestamp int64) *FutureSetMockTimeResult {
	cmd := chainjson.NewSetMockTimeCmd(timestamp)
	return (*FutureSetMockTimeResult)(c.sendCmd(ctx, cmd))
}

// SetMockTime pins the clock of the regression test server to the provided
// unix timestamp so subsequently generated blocks carry deterministic
// timestamps.
func (c *Client) SetMockTime(ctx context.Context, timestamp int64) error {
	return c.SetMockTimeAsync(ctx, timestamp).Receive()
}
