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

package debugger

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/lassandro/goy86/pkg/encoding"
	"github.com/lassandro/goy86/pkg/machine"
)

var ErrUnknownLocation = errors.New("Not an address or known label")

// Resolves an address literal or a label from the symbol table
func (dbg *Debugger) Resolve(location string) (int64, error) {
	if addr, err := encoding.DecodeInt(location); err == nil {
		return addr, nil
	}

	if dbg.SymTable != nil {
		if addr, exists := dbg.SymTable.Lookup(location); exists {
			return addr, nil
		}
	}

	return 0, fmt.Errorf("%w: %s", ErrUnknownLocation, location)
}

func (dbg *Debugger) AddBreakpoint(location string) error {
	addr, err := dbg.Resolve(location)

	if err != nil {
		return err
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})
	return nil
}

func (dbg *Debugger) AddWatchpoint(location string, wtype WatchpointType) error {
	addr, err := dbg.Resolve(location)

	if err != nil {
		return err
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})
	return nil
}

func (dbg *Debugger) handleBreak(mc *machine.Machine) {
	if dbg.HandleBreak != nil {
		dbg.HandleBreak(dbg, mc)
	} else {
		mc.Break()
	}
}

// Step runs after every executed instruction, so the program counter already
// names the next record.
func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.Trace != nil {
		dbg.PrintLocation(dbg.Trace, mc.State.Program)
	}

	if dbg.Break {
		dbg.Break = false
		dbg.handleBreak(mc)
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if mc.State.Program == breakpoint.Addr {
			dbg.handleBreak(mc)
			break
		}
	}
}

// Accesses are eight bytes wide; a watchpoint anywhere inside one fires.
func covers(addr, watched int64) bool {
	return watched >= addr && watched < addr+8
}

func (dbg *Debugger) Read(addr int64, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if covers(addr, watchpoint.Addr) {
			if dbg.HandleRead != nil {
				dbg.HandleRead(addr, dbg, mc)
			}
			break
		}
	}
}

func (dbg *Debugger) Write(addr int64, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if covers(addr, watchpoint.Addr) {
			if dbg.HandleWrite != nil {
				dbg.HandleWrite(addr, dbg, mc)
			}
			break
		}
	}
}

func (dbg *Debugger) bold(w io.Writer, format string, args ...interface{}) {
	if dbg.Color {
		fmt.Fprintf(w, "\033[1m"+format+"\033[0m", args...)
	} else {
		fmt.Fprintf(w, format, args...)
	}
}

func (dbg *Debugger) dim(w io.Writer, format string, args ...interface{}) {
	if dbg.Color {
		fmt.Fprintf(w, "\033[1;30m"+format+"\033[0m", args...)
	} else {
		fmt.Fprintf(w, format, args...)
	}
}

// Prints "[addr] label line N", leaving out what the symbol table doesn't
// know.
func (dbg *Debugger) PrintLocation(w io.Writer, addr int64) {
	dbg.bold(w, "[%#04x]", addr)

	if dbg.SymTable != nil {
		if label, exists := dbg.SymTable.Label(addr); exists {
			fmt.Fprintf(w, " %s", label)
		}

		if line, exists := dbg.SymTable.Lines[addr]; exists {
			fmt.Fprintf(w, " line %d", line)
		}
	}

	fmt.Fprintln(w)
}

// Prints count source lines starting at the line that produced addr
func (dbg *Debugger) PrintSource(w io.Writer, addr int64, count int) {
	if dbg.Source == nil {
		fmt.Fprintln(w, "No source file loaded")
		return
	}

	if dbg.SymTable == nil {
		fmt.Fprintln(w, "No symbol table loaded")
		return
	}

	first, exists := dbg.SymTable.Lines[addr]

	if !exists {
		fmt.Fprintf(w, "No instruction found at %#04x\n", addr)
		return
	}

	addrs := make(map[int]int64, len(dbg.SymTable.Lines))

	for lineaddr, line := range dbg.SymTable.Lines {
		if prev, exists := addrs[line]; !exists || lineaddr < prev {
			addrs[line] = lineaddr
		}
	}

	if _, err := dbg.Source.Seek(0, io.SeekStart); err != nil {
		fmt.Fprintln(w, err)
		return
	}

	scanner := bufio.NewScanner(dbg.Source)

	for line := 1; scanner.Scan() && line < first+count; line++ {
		if line < first {
			continue
		}

		if lineaddr, exists := addrs[line]; exists {
			dbg.bold(w, "[%#04x]", lineaddr)
		} else {
			dbg.dim(w, "~~~~~~~~")
		}

		fmt.Fprintf(w, " %s\n", scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(w, err)
	}
}

// Prints count quads starting at addr, two per row
func (dbg *Debugger) PrintMem(w io.Writer, mc *machine.MachineState, addr int64, count int) {
	for i := 0; i < count; i++ {
		at := addr + int64(i)*8

		if at < 0 || at+8 > int64(len(mc.Memory)) {
			break
		}

		if i%2 == 0 {
			if i > 0 {
				fmt.Fprintln(w)
			}

			dbg.bold(w, "[%#04x]", at)
		}

		value := encoding.Quad(mc.Memory[at:])

		if value == 0 {
			dbg.dim(w, " %016x", uint64(value))
		} else {
			fmt.Fprintf(w, " %016x", uint64(value))
		}
	}

	fmt.Fprintln(w)
}
