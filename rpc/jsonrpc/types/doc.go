// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package types implements concrete types for marshalling to and from the
JSON-RPC commands and return values the harness issues against the node under
test.

When communicating via the JSON-RPC protocol, all requests and responses must
be marshalled to and from the wire in the appropriate format.  This package
provides data structures and primitives that are registered with dcrjson to
ease this process.

Command Creation

The preferred method of creating a command is one of the New<Foo>Cmd
functions, which allows static compile-time checking to help ensure the
parameters stay in sync with the struct definitions.  Alternatively the
dcrjson.NewCmd function takes a method name and variable arguments; since
this package registers all of its types with dcrjson, the function recognizes
them and includes full run-time checking of the parameters.
*/
package types
