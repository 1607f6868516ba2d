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

// Package linker lays assembled units out back to back and resolves the
// label references their jumps and calls still carry.
package linker

import (
	"fmt"
	"io"

	"github.com/lassandro/goy86/pkg/assembler"
)

// Base returns the address unit i is placed at: the emitted size of every
// unit before it.
func Base(units []*assembler.Unit, i int) int64 {
	var base int64

	for _, unit := range units[:i] {
		base += unit.Size()
	}

	return base
}

func lookup(units []*assembler.Unit, bases []int64, own int, label string) (int64, bool) {
	if addr, exists := units[own].SymTable.Lookup(label); exists {
		return bases[own] + addr, true
	}

	for i, unit := range units {
		if i == own {
			continue
		}

		if addr, exists := unit.SymTable.Lookup(label); exists {
			return bases[i] + addr, true
		}
	}

	return 0, false
}

// Link replaces every label destination with an absolute address. A label is
// looked up in its own unit first, then in the others in order. Labels found
// nowhere are reported as UndefinedLabelError and keep their reference.
func Link(units []*assembler.Unit, diags *assembler.Diagnostics) {
	bases := make([]int64, len(units))

	for i := range units {
		if i > 0 {
			bases[i] = bases[i-1] + units[i-1].Size()
		}
	}

	for i, unit := range units {
		for _, ins := range unit.Program {
			transfer, ok := ins.(*assembler.Transfer)

			if !ok || transfer.Dest.Resolved() {
				continue
			}

			addr, exists := lookup(units, bases, i, transfer.Dest.Label)

			if !exists {
				diags.Append(&assembler.UndefinedLabelError{
					Position: assembler.Position{Path: unit.Path, Line: transfer.Line},
					Label:    transfer.Dest.Label,
				})

				continue
			}

			transfer.Dest.Resolve(addr)
		}
	}
}

// Write emits the units one after another.
func Write(w io.Writer, units []*assembler.Unit) (int64, error) {
	var written int64

	for _, unit := range units {
		n, err := unit.WriteTo(w)
		written += n

		if err != nil {
			return written, err
		}
	}

	return written, nil
}

// Symbols merges the units' tables at their linked addresses, for the
// debugger. Source is taken from the first unit.
func Symbols(units []*assembler.Unit) assembler.SymTable {
	var result assembler.SymTable
	var base int64

	for i, unit := range units {
		if i == 0 {
			result.Source = unit.SymTable.Source
		}

		result.Merge(&unit.SymTable, base)
		base += unit.Size()
	}

	return result
}

// Assemble parses, links and emits a single source to w. Nothing is written
// when the source produced diagnostics.
func Assemble(w io.Writer, input io.Reader, path string) (assembler.Diagnostics, error) {
	var diags assembler.Diagnostics

	units := []*assembler.Unit{assembler.Parse(input, &diags, path)}
	Link(units, &diags)

	if len(diags) > 0 {
		return diags, nil
	}

	if _, err := Write(w, units); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}

	return nil, nil
}
