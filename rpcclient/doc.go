// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package rpcclient implements a websocket-enabled JSON-RPC client for the
Bitcoin-family regression test node the harness drives.

This client provides a robust and easy to use client for interfacing with the
bitcoin core style JSON-RPC API exposed by the node under test.  It supports
the standard HTTP POST JSON-RPC API as well as a websocket interface when the
server provides one.

By default, this client assumes the RPC server supports websockets and has TLS
enabled.  Configuration options are provided to fall back to HTTP POST and
disable TLS for servers that only offer the basic interface, which includes the
regression test nodes this client is typically pointed at.

# Synchronous vs Asynchronous API

The client provides both a synchronous (blocking) and asynchronous API.

The synchronous (blocking) API is typically sufficient for most use cases.  It
works by issuing the RPC and blocking until the response is received.  This
allows straightforward code where you have the response as soon as the function
returns.

The asynchronous API works on the concept of futures.  When you invoke the
async version of a command, it will quickly return an instance of a type that
promises to provide the result of the RPC at some future time.  In the
background, the RPC call is issued and the result is stored in the returned
instance.  Invoking the Receive method on the returned instance will either
return the result immediately if it has already arrived, or block until it has.
Requests issued through a single client are delivered to the server strictly in
submission order in both modes.

# Errors

There are 3 categories of errors that will be returned throughout this package:

  - Errors related to the client connection such as authentication, endpoint,
    disconnect, and shutdown
  - Errors that occur before communicating with the remote RPC server such as
    command creation and marshalling errors
  - Errors returned from the remote RPC server such as unimplemented commands,
    nonexistent requested blocks, and malformed data

The first category of errors are typically one of ErrInvalidAuth,
ErrInvalidEndpoint, ErrClientDisconnect, or ErrClientShutdown.

The third category of errors, that is errors returned by the server, can be
detected by type asserting the error in a *dcrjson.RPCError.  For example, to
detect if a command is unimplemented by the remote RPC server:

	hash, err := client.SendRawTransaction(ctx, tx, false)
	if err != nil {
		var jerr *dcrjson.RPCError
		if errors.As(err, &jerr) {
			switch jerr.Code {
			case dcrjson.ErrRPCUnimplemented:
				// Handle not implemented error
			// Handle other specific errors you care about
			}
		}
		// Log or otherwise handle the error knowing it was not one
		// returned from the remote RPC server.
	}
*/
package rpcclient
