// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpcclient

import (
	"context"
	"encoding/json"

	chainjson "github.com/bitcash-dev/cdsharness/rpc/jsonrpc/types"
)

// FutureListUnspentResult is a future promise to deliver the result of a
// ListUnspentMinAsync RPC invocation (or an applicable error).
type FutureListUnspentResult cmdRes

// Receive waits for the response promised by the future and returns all
// unspent wallet transaction outputs returned by the RPC call, limited by
// the parameters of the RPC invocation.
func (r *FutureListUnspentResult) Receive() ([]chainjson.ListUnspentResult, error) {
	res, err := receiveFuture(r.ctx, r.c)
	if err != nil {
		return nil, err
	}

	// Unmarshal result as an array of listunspent results.
	var unspent []chainjson.ListUnspentResult
	err = json.Unmarshal(res, &unspent)
	if err != nil {
		return nil, err
	}

	return unspent, nil
}

// ListUnspentMinAsync returns an instance of a type that can be used to get
// the result of the RPC at some future time by invoking the Receive function
// on the returned instance.
//
// See ListUnspentMin for the blocking version and more details.
func (c *Client) ListUnspentMinAsync(ctx context.Context, minConf int) *FutureListUnspentResult {
	cmd := chainjson.NewListUnspentCmd(&minConf, nil, nil)
	return (*FutureListUnspentResult)(c.sendCmd(ctx, cmd))
}

// ListUnspentMin returns all unspent transaction outputs known to a wallet,
// using the specified number of minimum confirmations and default number of
// maximum confirmations (9999999) as a filter.
func (c *Client) ListUnspentMin(ctx context.Context, minConf int) ([]chainjson.ListUnspentResult, error) {
	return c.ListUnspentMinAsync(ctx, minConf).Receive()
}
