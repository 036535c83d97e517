// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"errors"
	"testing"
)

// TestScriptBuilderAddOp tests that pushing opcodes to a script via the
// ScriptBuilder API works as expected.
func TestScriptBuilderAddOp(t *testing.T) {
	tests := []struct {
		name     string
		opcodes  []byte
		expected []byte
	}{
		{
			name:     "push OP_0",
			opcodes:  []byte{OP_0},
			expected: []byte{OP_0},
		},
		{
			name:     "push OP_1 OP_2",
			opcodes:  []byte{OP_1, OP_1 + 1},
			expected: []byte{OP_1, OP_1 + 1},
		},
		{
			name:     "push OP_TRUE OP_CHECKDATASIG",
			opcodes:  []byte{OP_TRUE, OP_CHECKDATASIG},
			expected: []byte{OP_TRUE, OP_CHECKDATASIG},
		},
	}

	builder := NewScriptBuilder()
	for i, test := range tests {
		builder.Reset()
		for _, opcode := range test.opcodes {
			builder.AddOp(opcode)
		}
		result, err := builder.Script()
		if err != nil {
			t.Errorf("ScriptBuilder.AddOp #%d (%s) unexpected "+
				"error: %v", i, test.name, err)
			continue
		}
		if !bytes.Equal(result, test.expected) {
			t.Errorf("ScriptBuilder.AddOp #%d (%s) wrong result - "+
				"got: %x want: %x", i, test.name, result,
				test.expected)
			continue
		}
	}
}

// TestScriptBuilderAddData tests that pushing data to a script via the
// ScriptBuilder API works as expected and conforms to canonical encoding
// rules.
func TestScriptBuilderAddData(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected []byte
	}{
		// Start off with the small ints.
		{name: "push empty", data: nil, expected: []byte{OP_0}},
		{name: "push 0", data: []byte{0}, expected: []byte{OP_0}},
		{name: "push 1", data: []byte{1}, expected: []byte{OP_1}},
		{name: "push 16", data: []byte{16}, expected: []byte{OP_16}},
		{name: "push -1", data: []byte{0x81}, expected: []byte{OP_1NEGATE}},

		// 1-byte through 75-byte pushes use direct data opcodes.
		{
			name:     "push data len 17",
			data:     bytes.Repeat([]byte{0x49}, 17),
			expected: append([]byte{OP_DATA_1 - 1 + 17},
				bytes.Repeat([]byte{0x49}, 17)...),
		},
		{
			name:     "push data len 75",
			data:     bytes.Repeat([]byte{0x49}, 75),
			expected: append([]byte{OP_DATA_75},
				bytes.Repeat([]byte{0x49}, 75)...),
		},

		// 76-byte through 255-byte pushes use OP_PUSHDATA1.
		{
			name:     "push data len 76",
			data:     bytes.Repeat([]byte{0x49}, 76),
			expected: append([]byte{OP_PUSHDATA1, 76},
				bytes.Repeat([]byte{0x49}, 76)...),
		},
		{
			name:     "push data len 255",
			data:     bytes.Repeat([]byte{0x49}, 255),
			expected: append([]byte{OP_PUSHDATA1, 255},
				bytes.Repeat([]byte{0x49}, 255)...),
		},

		// 256-byte through max-element pushes use OP_PUSHDATA2.
		{
			name:     "push data len 256",
			data:     bytes.Repeat([]byte{0x49}, 256),
			expected: append([]byte{OP_PUSHDATA2, 0x00, 0x01},
				bytes.Repeat([]byte{0x49}, 256)...),
		},
		{
			name:     "push data len 520",
			data:     bytes.Repeat([]byte{0x49}, 520),
			expected: append([]byte{OP_PUSHDATA2, 0x08, 0x02},
				bytes.Repeat([]byte{0x49}, 520)...),
		},
	}

	builder := NewScriptBuilder()
	for i, test := range tests {
		result, err := builder.Reset().AddData(test.data).Script()
		if err != nil {
			t.Errorf("ScriptBuilder.AddData #%d (%s) unexpected "+
				"error: %v", i, test.name, err)
			continue
		}
		if !bytes.Equal(result, test.expected) {
			t.Errorf("ScriptBuilder.AddData #%d (%s) wrong result - "+
				"got: %x want: %x", i, test.name, result,
				test.expected)
			continue
		}
	}

	// Pushes exceeding the max element size must fail with the expected
	// error kind.
	tooBig := bytes.Repeat([]byte{0x49}, MaxScriptElementSize+1)
	_, err := builder.Reset().AddData(tooBig).Script()
	if !errors.Is(err, ErrElementTooLarge) {
		t.Errorf("AddData oversize element unexpected error: %v", err)
	}
}

// TestScriptBuilderAddInt64 tests that pushing signed integers to a script
// via the ScriptBuilder API works as expected.
func TestScriptBuilderAddInt64(t *testing.T) {
	tests := []struct {
		name     string
		val      int64
		expected []byte
	}{
		{name: "push 0", val: 0, expected: []byte{OP_0}},
		{name: "push 1", val: 1, expected: []byte{OP_1}},
		{name: "push 16", val: 16, expected: []byte{OP_16}},
		{name: "push -1", val: -1, expected: []byte{OP_1NEGATE}},
		{name: "push 17", val: 17, expected: []byte{OP_DATA_1, 0x11}},
		{name: "push 128", val: 128, expected: []byte{OP_DATA_2, 0x80, 0x00}},
		{name: "push 255", val: 255, expected: []byte{OP_DATA_2, 0xff, 0x00}},
		{name: "push 256", val: 256, expected: []byte{OP_DATA_2, 0x00, 0x01}},
		{name: "push -256", val: -256, expected: []byte{OP_DATA_2, 0x00, 0x81}},
	}

	builder := NewScriptBuilder()
	for i, test := range tests {
		result, err := builder.Reset().AddInt64(test.val).Script()
		if err != nil {
			t.Errorf("ScriptBuilder.AddInt64 #%d (%s) unexpected "+
				"error: %v", i, test.name, err)
			continue
		}
		if !bytes.Equal(result, test.expected) {
			t.Errorf("ScriptBuilder.AddInt64 #%d (%s) wrong result - "+
				"got: %x want: %x", i, test.name, result,
				test.expected)
			continue
		}
	}
}

// TestScriptBuilderScriptTooLarge ensures pushes that would exceed the
// maximum script size fail with the expected error kind and leave the script
// unmodified.
func TestScriptBuilderScriptTooLarge(t *testing.T) {
	builder := NewScriptBuilder()
	chunk := bytes.Repeat([]byte{0x49}, MaxScriptElementSize)
	for i := 0; i < MaxScriptSize/(MaxScriptElementSize+3); i++ {
		builder.AddData(chunk)
	}
	script, err := builder.Script()
	if err != nil {
		t.Fatalf("unexpected error while filling script: %v", err)
	}
	lenBefore := len(script)

	_, err = builder.AddData(chunk).Script()
	if !errors.Is(err, ErrScriptTooLarge) {
		t.Fatalf("AddData past max size unexpected error: %v", err)
	}

	// A failed push must not modify the script, and the error must be
	// sticky across further appends.
	script, _ = builder.AddOp(OP_TRUE).Script()
	if len(script) != lenBefore {
		t.Fatalf("script modified after error - got len %d, want %d",
			len(script), lenBefore)
	}
}
