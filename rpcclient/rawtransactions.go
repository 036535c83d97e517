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

// FutureSendRawTransactionResult is a future promise to deliver the result of
// a SendRawTransactionAsync RPC invocation (or an applicable error).
type FutureSendRawTransactionResult cmdRes

// Receive waits for the response promised by the future and returns the result
// of submitting the encoded transaction to the server which then relays it to
// the network.
func (r *FutureSendRawTransactionResult) Receive() (*chainhash.Hash, error) {
	res, err := receiveFuture(r.ctx, r.c)
	if err != nil {
		return nil, err
	}

	// Unmarshal result as a string.
	var txHashStr string
	err = json.Unmarshal(res, &txHashStr)
	if err != nil {
		return nil, err
	}

	return chainhash.NewHashFromStr(txHashStr)
}

// SendRawTransactionAsync returns an instance of a type that can be used to
// get the result of the RPC at some future time by invoking the Receive
// function on the returned instance.
//
// See SendRawTransaction for the blocking version and more details.
func (c *Client) SendRawTransactionAsync(ctx context.Context, tx *wire.MsgTx, allowHighFees bool) *FutureSendRawTransactionResult {
	txHex := ""
	if tx != nil {
		// Serialize the transaction and convert to hex string.
		var buf bytes.Buffer
		buf.Grow(tx.SerializeSize())
		err := tx.Serialize(&buf)
		if err != nil {
			return (*FutureSendRawTransactionResult)(newFutureError(ctx, err))
		}
		txHex = hex.EncodeToString(buf.Bytes())
	}

	cmd := chainjson.NewSendRawTransactionCmd(txHex, &allowHighFees)
	return (*FutureSendRawTransactionResult)(c.sendCmd(ctx, cmd))
}

// SendRawTransaction submits the encoded transaction to the server which will
// then relay it to the network.  Rejections by the memory pool surface as a
// *dcrjson.RPCError carrying the server's reject code and message.
func (c *Client) SendRawTransaction(ctx context.Context, tx *wire.MsgTx, allowHighFees bool) (*chainhash.Hash, error) {
	return c.SendRawTransactionAsync(ctx, tx, allowHighFees).Receive()
}

// FutureSignRawTransactionResult is a future promise to deliver the result of
// a SignRawTransactionAsync RPC invocation (or an applicable error).
type FutureSignRawTransactionResult cmdRes

// Receive waits for the response promised by the future and returns the signed
// transaction as well as whether or not all the signatures are complete.
func (r *FutureSignRawTransactionResult) Receive() (*wire.MsgTx, bool, error) {
	res, err := receiveFuture(r.ctx, r.c)
	if err != nil {
		return nil, false, err
	}

	// Unmarshal as a signrawtransaction result.
	var signRawTxResult chainjson.SignRawTransactionResult
	err = json.Unmarshal(res, &signRawTxResult)
	if err != nil {
		return nil, false, err
	}

	// Decode the serialized transaction hex to raw bytes.
	serializedTx, err := hex.DecodeString(signRawTxResult.Hex)
	if err != nil {
		return nil, false, err
	}

	// Deserialize the transaction and return it.
	var msgTx wire.MsgTx
	if err := msgTx.Deserialize(bytes.NewReader(serializedTx)); err != nil {
		return nil, false, err
	}

	return &msgTx, signRawTxResult.Complete, nil
}

// SignRawTransactionAsync returns an instance of a type that can be used to
// get the result of the RPC at some future time by invoking the Receive
// function on the returned instance.
//
// See SignRawTransaction for the blocking version and more details.
func (c *Client) SignRawTransactionAsync(ctx context.Context, tx *wire.MsgTx) *FutureSignRawTransactionResult {
	txHex := ""
	if tx != nil {
		// Serialize the transaction and convert to hex string.
		var buf bytes.Buffer
		buf.Grow(tx.SerializeSize())
		err := tx.Serialize(&buf)
		if err != nil {
			return (*FutureSignRawTransactionResult)(newFutureError(ctx, err))
		}
		txHex = hex.EncodeToString(buf.Bytes())
	}

	cmd := chainjson.NewSignRawTransactionCmd(txHex, nil, nil, nil)
	return (*FutureSignRawTransactionResult)(c.sendCmd(ctx, cmd))
}

// SignRawTransaction signs inputs for the passed transaction using the wallet
// of the server and returns the signed transaction as well as whether or not
// all the signatures are complete.
//
// This function assumes the RPC server already knows the input transactions
// and private keys for the passed transaction which needs to be signed and
// uses the default signature hash type.
func (c *Client) SignRawTransaction(ctx context.Context, tx *wire.MsgTx) (*wire.MsgTx, bool, error) {
	return c.SignRawTransactionAsync(ctx, tx).Receive()
}
