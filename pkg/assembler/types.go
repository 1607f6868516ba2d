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
	"fmt"
)

type DirectiveType uint
type ErrorKind uint

type Position struct {
	Path string
	Line int
}

func (pos Position) GetPosition() Position {
	return pos
}

func (pos Position) String() string {
	return fmt.Sprintf("%s:%d", pos.Path, pos.Line)
}

// Diagnostic is one problem found while assembling. Each kind is its own type
// and owns whatever offending text it reports.
type Diagnostic interface {
	error
	GetPosition() Position
	Kind() ErrorKind
}

// Diagnostics is the append-only log every reader reports into.
type Diagnostics []Diagnostic

func (diags *Diagnostics) Append(diag Diagnostic) {
	*diags = append(*diags, diag)
}

func (diags Diagnostics) Len() int {
	return len(diags)
}

// Returns the diagnostics of the given kind, in report order
func (diags Diagnostics) OfKind(kind ErrorKind) Diagnostics {
	var result Diagnostics

	for _, diag := range diags {
		if diag.Kind() == kind {
			result = append(result, diag)
		}
	}

	return result
}

type FileOpenError struct {
	Position
	Err error
}

func (err *FileOpenError) Kind() ErrorKind { return ERROR_FILE_OPEN }

func (err *FileOpenError) Unwrap() error { return err.Err }

func (err *FileOpenError) Error() string {
	return fmt.Sprintf(
		"Couldn't open file %s. Does it exist (with proper permissions)?",
		err.Path,
	)
}

type UnknownInstructionError struct {
	Position
	Instruction string
}

func (err *UnknownInstructionError) Kind() ErrorKind {
	return ERROR_UNKNOWN_INSTRUCTION
}

func (err *UnknownInstructionError) Error() string {
	return fmt.Sprintf("Didn't recognize instruction %s.", err.Instruction)
}

type UnknownRegisterError struct {
	Position
	Register string
}

func (err *UnknownRegisterError) Kind() ErrorKind {
	return ERROR_UNKNOWN_REGISTER
}

func (err *UnknownRegisterError) Error() string {
	return fmt.Sprintf("Didn't recognize register %s.", err.Register)
}

type MalformedIntegerError struct {
	Position
	Token string
}

func (err *MalformedIntegerError) Kind() ErrorKind {
	return ERROR_MALFORMED_INTEGER
}

func (err *MalformedIntegerError) Error() string {
	if err.Token == "" {
		return "Expected integer, got nothing."
	}

	return fmt.Sprintf("Expected integer, got %s.", err.Token)
}

type MalformedConditionError struct {
	Position
	Condition string
}

func (err *MalformedConditionError) Kind() ErrorKind {
	return ERROR_MALFORMED_CONDITION
}

func (err *MalformedConditionError) Error() string {
	return fmt.Sprintf(
		"Condition '%s' (in jump or move) was not understood.", err.Condition,
	)
}

type NegativeJumpError struct {
	Position
}

func (err *NegativeJumpError) Kind() ErrorKind { return ERROR_NEGATIVE_JUMP }

func (err *NegativeJumpError) Error() string {
	return "Given jump target was negative."
}

type UndefinedLabelError struct {
	Position
	Label string
}

func (err *UndefinedLabelError) Kind() ErrorKind {
	return ERROR_UNDEFINED_LABEL
}

func (err *UndefinedLabelError) Error() string {
	return fmt.Sprintf(
		"Given label `%s` wasn't found in any source file.", err.Label,
	)
}

type UnknownDirectiveError struct {
	Position
	Directive string
}

func (err *UnknownDirectiveError) Kind() ErrorKind {
	return ERROR_UNKNOWN_DIRECTIVE
}

func (err *UnknownDirectiveError) Error() string {
	return fmt.Sprintf("Didn't recognize directive .%s.", err.Directive)
}

type InvalidAlignmentError struct {
	Position
	Alignment int64
}

func (err *InvalidAlignmentError) Kind() ErrorKind {
	return ERROR_INVALID_ALIGNMENT
}

func (err *InvalidAlignmentError) Error() string {
	return fmt.Sprintf("Alignment must be positive, got %d.", err.Alignment)
}

type RedeclaredLabelError struct {
	Position
	Label string
}

func (err *RedeclaredLabelError) Kind() ErrorKind {
	return ERROR_REDECLARED_LABEL
}

func (err *RedeclaredLabelError) Error() string {
	return fmt.Sprintf("Redeclaration of label '%s'.", err.Label)
}

// UnresolvedLabelError is returned by the emitter when a control transfer
// still names a label, i.e. the unit was never linked.
type UnresolvedLabelError struct {
	Position
	Label string
}

func (err *UnresolvedLabelError) Error() string {
	return fmt.Sprintf("%s: unresolved label '%s'", err.Position, err.Label)
}

// Instruction is one record of a Unit's program: *Generic, *Transfer or
// *Directive.
type Instruction interface {
	GetLine() int
	instruction()
}

// Generic covers every instruction encoded as opcode, register pair and
// immediate.
type Generic struct {
	Line int
	Op   byte
	Reg  byte
	Imm  int64
}

// Destination is either a resolved address or, while Label is non-empty, a
// reference waiting for the linker.
type Destination struct {
	Addr  int64
	Label string
}

func (dest *Destination) Resolved() bool {
	return dest.Label == ""
}

// Resolve replaces the label reference with an address.
func (dest *Destination) Resolve(addr int64) {
	dest.Addr = addr
	dest.Label = ""
}

// Transfer is a jump or call.
type Transfer struct {
	Line int
	Op   byte
	Dest Destination
}

type Directive struct {
	Line int
	Type DirectiveType
	X    int64
}

func (ins *Generic) GetLine() int   { return ins.Line }
func (ins *Transfer) GetLine() int  { return ins.Line }
func (ins *Directive) GetLine() int { return ins.Line }

func (*Generic) instruction()   {}
func (*Transfer) instruction()  {}
func (*Directive) instruction() {}

// Unit is one source file's parsed program.
type Unit struct {
	Path     string
	Program  []Instruction
	SymTable SymTable
}

// Size is the number of bytes WriteTo emits for the unit.
func (u *Unit) Size() int64 {
	var written int64

	for _, ins := range u.Program {
		written += advance(ins, written)
	}

	return written
}
