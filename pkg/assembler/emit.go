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
	"io"

	"github.com/lassandro/goy86/pkg/encoding"
)

var zeros [256]byte

// Bytes of padding .align n needs at offset written. An offset that is
// already aligned needs none.
func alignPadding(written, n int64) int64 {
	if n <= 0 {
		return 0
	}

	if r := written % n; r != 0 {
		return n - r
	}

	return 0
}

// Number of bytes ins occupies when emitted at offset written
func advance(ins Instruction, written int64) int64 {
	switch ins := ins.(type) {
	case *Generic, *Transfer:
		return RecordSize

	case *Directive:
		switch ins.Type {
		case DIRECTIVE_ALIGN:
			return alignPadding(written, ins.X)
		case DIRECTIVE_POS:
			if written >= ins.X {
				return 0
			}

			return ins.X - written
		case DIRECTIVE_QUAD:
			return RecordSize
		}
	}

	return 0
}

func writeZeros(w io.Writer, count int64) (int64, error) {
	var written int64

	for written < count {
		chunk := count - written

		if chunk > int64(len(zeros)) {
			chunk = int64(len(zeros))
		}

		n, err := w.Write(zeros[:chunk])
		written += int64(n)

		if err != nil {
			return written, err
		}
	}

	return written, nil
}

// WriteTo serializes the unit's program as fixed 10-byte records, with
// directives expanding to padding or data in place. Every control transfer
// must have been resolved by the linker.
func (u *Unit) WriteTo(w io.Writer) (int64, error) {
	var written int64
	var record [RecordSize]byte

	for _, ins := range u.Program {
		record = [RecordSize]byte{}

		switch ins := ins.(type) {
		// |op|rA:rB|imm 8 bytes       |
		case *Generic:
			record[0] = ins.Op
			record[1] = ins.Reg
			encoding.PutQuad(record[2:], ins.Imm)

		// |op|dest 8 bytes       |pad|
		case *Transfer:
			if !ins.Dest.Resolved() {
				return written, &UnresolvedLabelError{
					Position{u.Path, ins.Line}, ins.Dest.Label,
				}
			}

			record[0] = ins.Op
			encoding.PutQuad(record[1:9], ins.Dest.Addr)

		case *Directive:
			if ins.Type != DIRECTIVE_QUAD {
				n, err := writeZeros(w, advance(ins, written))
				written += n

				if err != nil {
					return written, err
				}

				continue
			}

			// |value 8 bytes         |pad 2|
			encoding.PutQuad(record[0:8], ins.X)
		}

		n, err := w.Write(record[:])
		written += int64(n)

		if err != nil {
			return written, err
		}
	}

	return written, nil
}
