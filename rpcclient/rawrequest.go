// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpcclient

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/decred/dcrd/dcrjson/v4"
)

// FutureRawResult is a future promise to deliver the result of a RawRequest
// RPC invocation (or an applicable error).
type FutureRawResult cmdRes

// Receive waits for the response promised by the future and returns the raw
// response, or an error if the request was unsuccessful.
func (r *FutureRawResult) Receive() (json.RawMessage, error) {
	return receiveFuture(r.ctx, r.c)
}

// RawRequestAsync returns an instance of a type that can be used to get the
// result of a custom RPC request at some future time by invoking the Receive
// function on the returned instance.
//
// See RawRequest for the blocking version and more details.
func (c *Client) RawRequestAsync(ctx context.Context, method string, params []json.RawMessage) *FutureRawResult {
	if method == "" {
		err := errors.New("no method")
		return (*FutureRawResult)(newFutureError(ctx, err))
	}

	// Node implementations reject "params": null, so always marshal an
	// array even when there are no parameters.
	if params == nil {
		params = []json.RawMessage{}
	}

	// The request is marshalled directly instead of going through sendCmd
	// since the method is not a registered command and the parameters are
	// already in wire form.
	id := c.NextID()
	marshalledJSON, err := json.Marshal(&dcrjson.Request{
		Jsonrpc: "1.0",
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return (*FutureRawResult)(newFutureError(ctx, err))
	}

	responseChan := make(chan *response, 1)
	c.sendRequest(ctx, &jsonRequest{
		id:             id,
		method:         method,
		marshalledJSON: marshalledJSON,
		responseChan:   responseChan,
	})
	return &FutureRawResult{ctx: ctx, c: responseChan}
}

// RawRequest sends a request for a method this package provides no typed
// wrapper for and returns the raw JSON result.  Node implementations vary in
// the auxiliary methods they expose, so this is the escape hatch for querying
// anything beyond the chain methods the typed API covers, such as
// getnetworkinfo.
func (c *Client) RawRequest(ctx context.Context, method string, params []json.RawMessage) (json.RawMessage, error) {
	return c.RawRequestAsync(ctx, method, params).Receive()
}
