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

import (
	"errors"
	"fmt"
	"io"

	"github.com/lassandro/goy86/pkg/encoding"
)

var ErrImageTooLarge = errors.New("Image exceeds machine memory")

// Reset clears registers and memory. A machine without memory gets
// MEMORY_SIZE bytes.
func (mc *MachineState) Reset() {
	for i := range mc.Registers {
		mc.Registers[i] = 0
	}

	if mc.Memory == nil {
		mc.Memory = make([]byte, MEMORY_SIZE)
	}

	for i := range mc.Memory {
		mc.Memory[i] = 0
	}

	mc.Program = 0
	mc.Flags = FLAG_ZERO
	mc.Status = STAT_AOK
}

func StatusString(status byte) string {
	switch status {
	case STAT_AOK:
		return "AOK"
	case STAT_HLT:
		return "HLT"
	case STAT_ADR:
		return "ADR"
	case STAT_INS:
		return "INS"
	}

	return fmt.Sprintf("%#02x", status)
}

// LoadBin resets the machine and copies an object image to address 0.
func (mc *Machine) LoadBin(reader io.Reader) error {
	mc.State.Reset()

	n, err := io.ReadFull(reader, mc.State.Memory)

	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil
	} else if err != nil {
		return err
	}

	// Memory is full, anything left over does not fit
	var scratch [1]byte

	if extra, _ := reader.Read(scratch[:]); extra > 0 {
		return fmt.Errorf("%w (%d bytes)", ErrImageTooLarge, n)
	}

	return nil
}

func (mc *Machine) valid(addr, size int64) bool {
	return addr >= 0 && addr <= int64(len(mc.State.Memory))-size
}

func (mc *Machine) read(addr int64) (int64, bool) {
	if !mc.valid(addr, 8) {
		return 0, false
	}

	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return encoding.Quad(mc.State.Memory[addr:]), true
}

func (mc *Machine) write(addr int64, value int64) bool {
	if !mc.valid(addr, 8) {
		return false
	}

	encoding.PutQuad(mc.State.Memory[addr:], value)

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}

	return true
}

// %rsp only moves when the access succeeds
func (mc *Machine) push(value int64) bool {
	top := mc.State.Registers[REG_RSP] - 8

	if !mc.write(top, value) {
		return false
	}

	mc.State.Registers[REG_RSP] = top
	return true
}

func (mc *Machine) pop() (int64, bool) {
	value, ok := mc.read(mc.State.Registers[REG_RSP])

	if !ok {
		return 0, false
	}

	mc.State.Registers[REG_RSP] += 8
	return value, true
}

func (mc *Machine) setFlags(result int64, overflow bool) {
	mc.State.Flags = 0

	if result == 0 {
		mc.State.Flags |= FLAG_ZERO
	}

	if result < 0 {
		mc.State.Flags |= FLAG_SIGN
	}

	if overflow {
		mc.State.Flags |= FLAG_OVERFLOW
	}
}

func (mc *Machine) condition(cond byte) (bool, bool) {
	zero := mc.State.Flags&FLAG_ZERO != 0
	less := (mc.State.Flags&FLAG_SIGN != 0) != (mc.State.Flags&FLAG_OVERFLOW != 0)

	switch cond {
	case COND_UNCOND:
		return true, true
	case COND_LE:
		return less || zero, true
	case COND_L:
		return less, true
	case COND_E:
		return zero, true
	case COND_NE:
		return !zero, true
	case COND_GE:
		return !less, true
	case COND_G:
		return !less && !zero, true
	}

	return false, false
}

func validRegister(reg byte) bool {
	return reg < REG_NONE
}

// Break stops Run after the current instruction.
func (mc *Machine) Break() {
	mc.stopped = true
}

// Run steps until the machine leaves STAT_AOK, the debugger breaks or limit
// instructions have run. A limit of 0 or less means no limit. Returns the
// number of instructions executed.
func (mc *Machine) Run(limit int) int {
	mc.stopped = false

	steps := 0

	for mc.State.Status == STAT_AOK && !mc.stopped {
		if limit > 0 && steps >= limit {
			break
		}

		mc.Step()
		steps++
	}

	return steps
}

// Step executes the record at the program counter. Faults only change the
// status; the program counter is left on the faulting instruction.
func (mc *Machine) Step() {
	if mc.State.Status != STAT_AOK {
		return
	}

	pc := mc.State.Program

	if !mc.valid(pc, INSTRUCTION_SIZE) {
		mc.State.Status = STAT_ADR
		return
	}

	record := mc.State.Memory[pc : pc+INSTRUCTION_SIZE]

	icode := record[0] >> 4
	ifun := record[0] & 0xF
	rA := record[1] >> 4
	rB := record[1] & 0xF
	imm := encoding.Quad(record[2:])
	dest := encoding.Quad(record[1:9])
	next := pc + INSTRUCTION_SIZE

	regs := &mc.State.Registers

	switch icode {
	// HLT  |00|
	case OP_HLT:
		if ifun != 0 {
			mc.State.Status = STAT_INS
			return
		}

		mc.State.Status = STAT_HLT

	// NOP  |10|
	case OP_NOP:
		mc.State.Program = next

	// RRM  |2c|rA:rB|    Register move, conditional for c != 0
	case OP_RRM:
		taken, ok := mc.condition(ifun)

		if !ok || !validRegister(rA) || !validRegister(rB) {
			mc.State.Status = STAT_INS
			return
		}

		if taken {
			regs[rB] = regs[rA]
		}

		mc.State.Program = next

	// IRM  |30|F:rB|V|   Immediate to register
	case OP_IRM:
		if !validRegister(rB) {
			mc.State.Status = STAT_INS
			return
		}

		regs[rB] = imm
		mc.State.Program = next

	// RMM  |40|rA:rB|D|  M[rB + D] <- rA
	case OP_RMM:
		if !validRegister(rA) || !validRegister(rB) {
			mc.State.Status = STAT_INS
			return
		}

		if !mc.write(regs[rB]+imm, regs[rA]) {
			mc.State.Status = STAT_ADR
			return
		}

		mc.State.Program = next

	// MRM  |50|rB:rA|D|  rA <- M[rB + D], base in the high nibble
	case OP_MRM:
		if !validRegister(rA) || !validRegister(rB) {
			mc.State.Status = STAT_INS
			return
		}

		value, ok := mc.read(regs[rA] + imm)

		if !ok {
			mc.State.Status = STAT_ADR
			return
		}

		regs[rB] = value
		mc.State.Program = next

	// ART  |6f|rA:rB|    rB <- rB op rA
	case OP_ART:
		if !validRegister(rA) || !validRegister(rB) {
			mc.State.Status = STAT_INS
			return
		}

		a, b := regs[rA], regs[rB]

		var result int64
		var overflow bool

		switch ifun {
		case ART_ADD:
			result = b + a
			overflow = (a < 0) == (b < 0) && (result < 0) != (a < 0)
		case ART_SUB:
			result = b - a
			overflow = (a < 0) != (b < 0) && (result < 0) != (b < 0)
		case ART_AND:
			result = b & a
		case ART_XOR:
			result = b ^ a
		default:
			mc.State.Status = STAT_INS
			return
		}

		regs[rB] = result
		mc.setFlags(result, overflow)
		mc.State.Program = next

	// JMP  |7c|dest|     Jump, conditional for c != 0
	case OP_JMP:
		taken, ok := mc.condition(ifun)

		if !ok {
			mc.State.Status = STAT_INS
			return
		}

		if taken {
			mc.State.Program = dest
		} else {
			mc.State.Program = next
		}

	// CLL  |80|dest|
	case OP_CLL:
		if ifun != 0 {
			mc.State.Status = STAT_INS
			return
		}

		if !mc.push(next) {
			mc.State.Status = STAT_ADR
			return
		}

		mc.State.Program = dest

	// RET  |90|
	case OP_RET:
		addr, ok := mc.pop()

		if !ok {
			mc.State.Status = STAT_ADR
			return
		}

		mc.State.Program = addr

	// PSH  |a0|rA:F|
	case OP_PSH:
		if !validRegister(rA) {
			mc.State.Status = STAT_INS
			return
		}

		if !mc.push(regs[rA]) {
			mc.State.Status = STAT_ADR
			return
		}

		mc.State.Program = next

	// POP  |b0|rA:F|
	case OP_POP:
		if !validRegister(rA) {
			mc.State.Status = STAT_INS
			return
		}

		value, ok := mc.pop()

		if !ok {
			mc.State.Status = STAT_ADR
			return
		}

		regs[rA] = value
		mc.State.Program = next

	default:
		mc.State.Status = STAT_INS
		return
	}

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}
}
