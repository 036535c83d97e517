// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaingen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/crypto/rand"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/bitcash-dev/cdsharness/txscript"
)

// uniquenessPayloadSize is the number of cryptographically random bytes
// carried by the unspendable output of every spend transaction so that
// repeated spend attempts never produce colliding transaction identities.
const uniquenessPayloadSize = 100

// hexToBytes converts the passed hex string into bytes and will panic if
// there is an error.  This is only provided for the hardcoded constants so
// errors in the source code can be detected.  It will only (and must only)
// be called with hard-coded values.
func hexToBytes(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic("invalid hex in source file: " + s)
	}
	return b
}

var (
	// dataSigSignature is the fixed DER signature embedded in every
	// producing script.  Together with dataSigMessage and dataSigPubKey it
	// forms a valid triple for the data signature opcode, so the script
	// succeeds whenever the opcode itself is active.
	dataSigSignature = hexToBytes("30440220256c12175e809381f97637933ed6ab" +
		"97737d263eaaebca6add21bced67fd12a402205ce29ecc1369d6fc1b51977e" +
		"d38faaf41119e3be1d7edfafd7cfaf0b6061bd07")

	// dataSigMessage is the fixed message the signature commits to.  It is
	// intentionally empty.
	dataSigMessage []byte

	// dataSigPubKey is the fixed compressed public key embedded in every
	// producing script.
	dataSigPubKey = hexToBytes("038282263212c609d9ea2a6e3e172de238d8c39ca" +
		"bd5ac1ca10646e23fd5f51508")
)

// DataSigScript returns the producing script that exercises the data
// signature opcode: the fixed signature, the empty message, and the fixed
// public key followed by OP_CHECKDATASIG.  The script is deterministic, so
// every output locked with it can independently exercise the opcode.
func DataSigScript() ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddData(dataSigSignature).
		AddData(dataSigMessage).
		AddData(dataSigPubKey).
		AddOp(txscript.OP_CHECKDATASIG).
		Script()
}

// VerifyDataSigConstants ensures the hardcoded signature/message/public key
// triple is internally consistent: the public key parses as a valid
// secp256k1 point, the signature parses as canonical DER, and the signature
// verifies over the sha256 digest of the message.  A broken triple would
// silently invalidate the post-activation half of the consensus test, so
// the harness checks this once during setup.
func VerifyDataSigConstants() error {
	pubKey, err := secp256k1.ParsePubKey(dataSigPubKey)
	if err != nil {
		return fmt.Errorf("invalid embedded public key: %w", err)
	}

	sig, err := ecdsa.ParseDERSignature(dataSigSignature)
	if err != nil {
		return fmt.Errorf("invalid embedded signature: %w", err)
	}

	digest := sha256.Sum256(dataSigMessage)
	if !sig.Verify(digest[:], pubKey) {
		return fmt.Errorf("embedded signature does not verify over " +
			"the embedded message")
	}

	return nil
}

// uniquenessScript returns an unspendable script carrying the provided
// payload followed by OP_RETURN.  The payload push comes first to match the
// exact script the node under test expects from historical spends.
func uniquenessScript(payload []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddData(payload).
		AddOp(txscript.OP_RETURN).
		Script()
}

// UniqueOpReturnScript returns an unspendable script carrying fresh
// cryptographically random data.  Each invocation produces a different
// script so repeated spend attempts of the same output never collide on
// transaction identity.
func UniqueOpReturnScript() ([]byte, error) {
	payload := make([]byte, uniquenessPayloadSize)
	rand.Read(payload)
	return uniquenessScript(payload)
}
