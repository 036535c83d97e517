// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpcclient

import (
	"container/list"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrjson/v4"
)

// newTestClient returns a client with the internal tracking structures
// initialized but no connection established.
func newTestClient() *Client {
	return &Client{
		config:          &ConnConfig{Host: "localhost:18443"},
		requestMap:      make(map[uint64]*list.Element),
		requestList:     list.New(),
		disconnect:      make(chan struct{}),
		shutdown:        make(chan struct{}),
		connEstablished: make(chan struct{}),
	}
}

// TestHandleMessage ensures responses are routed to the request with the
// matching id and that JSON-RPC error objects surface as *dcrjson.RPCError.
func TestHandleMessage(t *testing.T) {
	c := newTestClient()

	okChan := make(chan *response, 1)
	err := c.addRequest(&jsonRequest{
		id:           1,
		method:       "getbestblockhash",
		responseChan: okChan,
	})
	if err != nil {
		t.Fatalf("addRequest error: %v", err)
	}
	errChan := make(chan *response, 1)
	err = c.addRequest(&jsonRequest{
		id:           2,
		method:       "sendrawtransaction",
		responseChan: errChan,
	})
	if err != nil {
		t.Fatalf("addRequest error: %v", err)
	}

	c.handleMessage([]byte(`{"result":"00","error":null,"id":1}`))
	select {
	case resp := <-okChan:
		if resp.err != nil {
			t.Fatalf("unexpected response error: %v", resp.err)
		}
		if string(resp.result) != `"00"` {
			t.Fatalf("result got %s, want %q", resp.result, `"00"`)
		}
	default:
		t.Fatal("no response delivered for id 1")
	}

	c.handleMessage([]byte(`{"result":null,"error":{"code":-26,` +
		`"message":"tx rejected"},"id":2}`))
	select {
	case resp := <-errChan:
		var rpcErr *dcrjson.RPCError
		if !errors.As(resp.err, &rpcErr) {
			t.Fatalf("error is %T, want *dcrjson.RPCError", resp.err)
		}
		if rpcErr.Code != -26 {
			t.Fatalf("error code got %d, want -26", rpcErr.Code)
		}
	default:
		t.Fatal("no response delivered for id 2")
	}

	// Both requests must have been removed from the tracking structures.
	if c.requestList.Len() != 0 || len(c.requestMap) != 0 {
		t.Fatalf("requests still tracked after delivery - list %d, "+
			"map %d", c.requestList.Len(), len(c.requestMap))
	}
}

// TestReceiveFutureContext ensures a canceled context aborts an in-flight
// future.
func TestReceiveFutureContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := make(chan *response, 1)
	done := make(chan error, 1)
	go func() {
		_, err := receiveFuture(ctx, f)
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error got %v, want %v", err, context.Canceled)
		}
	case <-time.After(time.Second):
		t.Fatal("receiveFuture did not honor context cancellation")
	}
}

// TestShutdownPendingRequests ensures shutting the client down delivers
// ErrClientShutdown to all pending requests and rejects new ones.
func TestShutdownPendingRequests(t *testing.T) {
	c := newTestClient()

	pending := make(chan *response, 1)
	err := c.addRequest(&jsonRequest{
		id:           1,
		method:       "getrawmempool",
		responseChan: pending,
	})
	if err != nil {
		t.Fatalf("addRequest error: %v", err)
	}

	c.Shutdown()

	select {
	case resp := <-pending:
		if !errors.Is(resp.err, ErrClientShutdown) {
			t.Fatalf("pending request error got %v, want %v",
				resp.err, ErrClientShutdown)
		}
	default:
		t.Fatal("pending request not notified of shutdown")
	}

	err = c.addRequest(&jsonRequest{id: 2, method: "getblockcount",
		responseChan: make(chan *response, 1)})
	if !errors.Is(err, ErrClientShutdown) {
		t.Fatalf("addRequest after shutdown got %v, want %v", err,
			ErrClientShutdown)
	}
}

// TestSendPostRequestShutdown ensures queueing an HTTP POST request on a shut
// down client delivers exactly one ErrClientShutdown response and returns
// rather than blocking on a second send to the response channel.
func TestSendPostRequestShutdown(t *testing.T) {
	c := newTestClient()
	c.config.HTTPPostMode = true
	c.sendPostChan = make(chan *jsonRequest, sendPostBufferSize)
	c.Shutdown()

	respChan := make(chan *response, 1)
	done := make(chan struct{})
	go func() {
		c.sendPostRequest(&jsonRequest{
			id:           1,
			method:       "getblockcount",
			responseChan: respChan,
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sendPostRequest did not return on a shut down client")
	}

	select {
	case resp := <-respChan:
		if !errors.Is(resp.err, ErrClientShutdown) {
			t.Fatalf("response error got %v, want %v", resp.err,
				ErrClientShutdown)
		}
	default:
		t.Fatal("no response delivered for the rejected request")
	}

	// No duplicate response may have been delivered.
	select {
	case resp := <-respChan:
		t.Fatalf("unexpected second response: %v", resp.err)
	default:
	}
	if len(c.sendPostChan) != 0 {
		t.Fatalf("request queued on a shut down client: %d entries",
			len(c.sendPostChan))
	}
}
