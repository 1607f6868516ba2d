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
	"bufio"
	"io"
	"strings"
)

// Lines longer than this are reported as a read failure
const maxLineSize = 1 << 20

var arithmetic = map[string]byte{
	"addq": ART_ADD,
	"subq": ART_SUB,
	"andq": ART_AND,
	"xorq": ART_XOR,
}

// Parse reads assembly source line by line into a Unit. Problems are appended
// to diags and never stop the pass: a line with a bad operand still yields its
// record, a line with an unknown mnemonic or directive yields none. path is
// only used to position diagnostics.
//
// Labels are bound to the same running byte offset WriteTo uses, so a label
// after .align or .pos names the address its next record is emitted at.
func Parse(input io.Reader, diags *Diagnostics, path string) *Unit {
	unit := &Unit{Path: path}
	unit.SymTable.Source = path

	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	var offset int64
	var line int

	for scanner.Scan() {
		line++

		text := scanner.Text()

		if len(text) == 0 {
			continue
		}

		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}

		text = trimSpace(text)

		if len(text) == 0 {
			continue
		}

		lr := lineReader{diags, Position{path, line}}

		var ins Instruction

		if text[0] == '.' {
			if ins = lr.directive(text[1:]); ins == nil {
				continue
			}
		} else if !isDigit(text[0]) && strings.HasSuffix(text, ":") {
			lr.label(unit, trimSpace(text[:len(text)-1]), offset)
			continue
		} else {
			if ins = lr.instruction(text); ins == nil {
				continue
			}
		}

		unit.Program = append(unit.Program, ins)
		unit.SymTable.setLine(offset, line)
		offset += advance(ins, offset)
	}

	if err := scanner.Err(); err != nil {
		diags.Append(&FileOpenError{Position{path, line + 1}, err})
	}

	return unit
}

func (lr *lineReader) label(unit *Unit, name string, addr int64) {
	if name == "" {
		lr.report(&UnknownInstructionError{lr.pos, ":"})
		return
	}

	if !unit.SymTable.Append(name, addr) {
		lr.report(&RedeclaredLabelError{lr.pos, name})
	}
}

// Decodes one instruction line. Returns nil, after reporting, when the
// mnemonic is not recognized.
func (lr *lineReader) instruction(text string) Instruction {
	oplen := tokenLen(text, 0)
	mnemonic := text[:oplen]
	in := text[oplen:]

	ins := &Generic{Line: lr.pos.Line}

	switch mnemonic {
	case "hlt":
		ins.Op = OP_HLT

	case "nop":
		ins.Op = OP_NOP

	case "ret":
		ins.Op = OP_RET

	// rrmovq rA, rB
	case "rrmovq":
		ins.Op = OP_RRM
		lr.registerPair(in, &ins.Reg)

	// irmovq V, rB
	case "irmovq":
		ins.Op = OP_IRM
		in = lr.immediate(in, ',', &ins.Imm)
		ins.Reg = REG_NONE << 4
		lr.register(in, "", false, &ins.Reg)

	// rmmovq rA, D(rB)
	case "rmmovq":
		ins.Op = OP_RMM
		in = lr.register(in, ",", true, &ins.Reg)
		in = lr.immediate(in, '(', &ins.Imm)
		lr.register(in, ")", false, &ins.Reg)

	// mrmovq D(rB), rA
	case "mrmovq":
		ins.Op = OP_MRM
		in = lr.immediate(in, '(', &ins.Imm)
		in = lr.register(in, "),", true, &ins.Reg)
		lr.register(in, "", false, &ins.Reg)

	// OPq rA, rB
	case "addq", "subq", "andq", "xorq":
		ins.Op = OP_ART | arithmetic[mnemonic]
		lr.registerPair(in, &ins.Reg)

	case "call":
		transfer := &Transfer{Line: lr.pos.Line, Op: OP_CLL}
		lr.destination(in, &transfer.Dest)
		return transfer

	// pushq rA, popq rA
	case "pushq", "popq":
		if mnemonic == "pushq" {
			ins.Op = OP_PSH
		} else {
			ins.Op = OP_POP
		}

		ins.Reg = REG_NONE
		lr.register(in, "", true, &ins.Reg)

	default:
		switch {
		// jXX Dest, where jmp is the unconditional form
		case strings.HasPrefix(mnemonic, "j"):
			transfer := &Transfer{Line: lr.pos.Line, Op: OP_JMP}
			lr.condition(mnemonic[1:], "mp", &transfer.Op)
			lr.destination(in, &transfer.Dest)
			return transfer

		// cmovXX rA, rB
		case strings.HasPrefix(mnemonic, "cmov"):
			ins.Op = OP_CMV
			lr.condition(mnemonic[4:], "", &ins.Op)
			lr.registerPair(in, &ins.Reg)

		default:
			lr.report(&UnknownInstructionError{lr.pos, mnemonic})
			return nil
		}
	}

	return ins
}

// Decodes the text after a leading '.'. Returns nil, after reporting, for an
// unknown keyword or an alignment that is not positive.
func (lr *lineReader) directive(text string) Instruction {
	dir := &Directive{Line: lr.pos.Line}

	var in string

	switch {
	case strings.HasPrefix(text, "align"):
		dir.Type = DIRECTIVE_ALIGN
		in = text[5:]
	case strings.HasPrefix(text, "pos"):
		dir.Type = DIRECTIVE_POS
		in = text[3:]
	case strings.HasPrefix(text, "long"), strings.HasPrefix(text, "quad"):
		dir.Type = DIRECTIVE_QUAD
		in = text[4:]
	default:
		lr.report(&UnknownDirectiveError{lr.pos, text[:tokenLen(text, 0)]})
		return nil
	}

	reported := lr.diags.Len()
	lr.immediate(in, 0, &dir.X)

	if dir.Type == DIRECTIVE_ALIGN && dir.X <= 0 {
		if lr.diags.Len() == reported {
			lr.report(&InvalidAlignmentError{lr.pos, dir.X})
		}

		return nil
	}

	return dir
}
