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

package machine

const (
	FLAG_ZERO     byte = 1 << 0
	FLAG_SIGN     byte = 1 << 1
	FLAG_OVERFLOW byte = 1 << 2
)

const (
	STAT_AOK byte = 1 // running
	STAT_HLT byte = 2 // executed hlt
	STAT_ADR byte = 3 // bad fetch or data address
	STAT_INS byte = 4 // bad instruction
)

const MEMORY_SIZE = 1 << 16

// Every instruction is one fixed-width record
const INSTRUCTION_SIZE = 10

// Instruction codes, the high nibble of the first record byte
const (
	OP_HLT byte = 0x0
	OP_NOP byte = 0x1
	OP_RRM byte = 0x2
	OP_IRM byte = 0x3
	OP_RMM byte = 0x4
	OP_MRM byte = 0x5
	OP_ART byte = 0x6
	OP_JMP byte = 0x7
	OP_CLL byte = 0x8
	OP_RET byte = 0x9
	OP_PSH byte = 0xA
	OP_POP byte = 0xB
)

const (
	ART_ADD byte = 0x0
	ART_SUB byte = 0x1
	ART_AND byte = 0x2
	ART_XOR byte = 0x3
)

const (
	COND_UNCOND byte = 0x0
	COND_LE     byte = 0x1
	COND_L      byte = 0x2
	COND_E      byte = 0x3
	COND_NE     byte = 0x4
	COND_GE     byte = 0x5
	COND_G      byte = 0x6
)

const (
	REG_RSP  byte = 0x4
	REG_NONE byte = 0xF
)
