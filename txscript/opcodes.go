// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

// These constants are the values of the bitcoin script opcodes used by the
// harness.  This is a subset of the full opcode set since the harness only
// constructs scripts, it does not execute them.
const (
	OP_0           = 0x00 // 0
	OP_FALSE       = 0x00 // 0 - AKA OP_0
	OP_DATA_1      = 0x01 // 1
	OP_DATA_2      = 0x02 // 2
	OP_DATA_20     = 0x14 // 20
	OP_DATA_32     = 0x20 // 32
	OP_DATA_33     = 0x21 // 33
	OP_DATA_65     = 0x41 // 65
	OP_DATA_75     = 0x4b // 75
	OP_PUSHDATA1   = 0x4c // 76
	OP_PUSHDATA2   = 0x4d // 77
	OP_PUSHDATA4   = 0x4e // 78
	OP_1NEGATE     = 0x4f // 79
	OP_1           = 0x51 // 81 - AKA OP_TRUE
	OP_TRUE        = 0x51 // 81
	OP_16          = 0x60 // 96
	OP_RETURN      = 0x6a // 106
	OP_DUP         = 0x76 // 118
	OP_EQUAL       = 0x87 // 135
	OP_EQUALVERIFY = 0x88 // 136
	OP_HASH160     = 0xa9 // 169
	OP_CHECKSIG    = 0xac // 172

	// OP_CHECKDATASIG and OP_CHECKDATASIGVERIFY are the opcodes whose
	// consensus activation the harness exists to exercise.
	OP_CHECKDATASIG       = 0xba // 186
	OP_CHECKDATASIGVERIFY = 0xbb // 187
)
