// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package assembler

import (
	"github.com/lassandro/goy86/pkg/encoding"
)

const RecordSize = encoding.RecordSize

const (
	OP_HLT byte = 0x00
	OP_NOP byte = 0x10
	OP_RRM byte = 0x20
	OP_IRM byte = 0x30
	OP_RMM byte = 0x40
	OP_MRM byte = 0x50
	OP_ART byte = 0x60
	OP_JMP byte = 0x70
	OP_CLL byte = 0x80
	OP_RET byte = 0x90
	OP_PSH byte = 0xA0
	OP_POP byte = 0xB0

	// Conditional moves share the register move opcode; rrmovq is the
	// unconditional form.
	OP_CMV = OP_RRM
)

// Arithmetic function bits, OR'd into OP_ART
const (
	ART_ADD byte = iota
	ART_SUB
	ART_AND
	ART_XOR
)

// Condition bits, OR'd into OP_JMP and OP_CMV
const (
	COND_UNCOND byte = iota
	COND_LE
	COND_L
	COND_E
	COND_NE
	COND_GE
	COND_G
)

const (
	REG_RAX byte = iota
	REG_RCX
	REG_RDX
	REG_RBX
	REG_RSP
	REG_RBP
	REG_RSI
	REG_RDI
	REG_R8
	REG_R9
	REG_R10
	REG_R11
	REG_R12
	REG_R13
	REG_R14
	REG_NONE
)

var registers = map[string]byte{
	"%rax": REG_RAX,
	"%rcx": REG_RCX,
	"%rdx": REG_RDX,
	"%rbx": REG_RBX,
	"%rsp": REG_RSP,
	"%rbp": REG_RBP,
	"%rsi": REG_RSI,
	"%rdi": REG_RDI,
	"%r8":  REG_R8,
	"%r9":  REG_R9,
	"%r10": REG_R10,
	"%r11": REG_R11,
	"%r12": REG_R12,
	"%r13": REG_R13,
	"%r14": REG_R14,
}

var conditions = map[string]byte{
	"le": COND_LE,
	"l":  COND_L,
	"e":  COND_E,
	"ne": COND_NE,
	"ge": COND_GE,
	"g":  COND_G,
}

// Returns the nibble code of a register name, e.g. "%rsp"
func RegisterCode(name string) (byte, bool) {
	code, ok := registers[name]
	return code, ok
}

// Returns the register name for a nibble code, or "" for REG_NONE
func RegisterName(code byte) string {
	for name, c := range registers {
		if c == code {
			return name
		}
	}

	return ""
}

const (
	DIRECTIVE_INVALID DirectiveType = iota
	DIRECTIVE_ALIGN
	DIRECTIVE_POS
	DIRECTIVE_QUAD
)

const (
	ERROR_NONE ErrorKind = iota
	ERROR_FILE_OPEN
	ERROR_UNKNOWN_INSTRUCTION
	ERROR_UNKNOWN_REGISTER
	ERROR_MALFORMED_INTEGER
	ERROR_MALFORMED_CONDITION
	ERROR_NEGATIVE_JUMP
	ERROR_UNDEFINED_LABEL
	ERROR_UNKNOWN_DIRECTIVE
	ERROR_INVALID_ALIGNMENT
	ERROR_REDECLARED_LABEL
)
