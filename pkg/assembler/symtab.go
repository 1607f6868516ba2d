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

type Symbol struct {
	Name string
	Addr int64
}

// SymTable maps label names to the address they were defined at, in
// definition order. It is also written out as the debug symbol file, so
// everything the debugger needs is exported.
type SymTable struct {
	Source  string
	Symbols []Symbol

	// Address of each instruction to the source line that produced it
	Lines map[int64]int

	index map[string]int
}

func (st *SymTable) reindex() {
	st.index = make(map[string]int, len(st.Symbols))

	for i, sym := range st.Symbols {
		if _, exists := st.index[sym.Name]; !exists {
			st.index[sym.Name] = i
		}
	}
}

// Append records name at addr. It returns false, leaving the table unchanged,
// when name is already defined.
func (st *SymTable) Append(name string, addr int64) bool {
	if st.index == nil {
		st.reindex()
	}

	if _, exists := st.index[name]; exists {
		return false
	}

	st.index[name] = len(st.Symbols)
	st.Symbols = append(st.Symbols, Symbol{name, addr})

	return true
}

func (st *SymTable) Lookup(name string) (int64, bool) {
	if st.index == nil {
		st.reindex()
	}

	i, exists := st.index[name]

	if !exists {
		return 0, false
	}

	return st.Symbols[i].Addr, true
}

// Label returns the first label defined at addr.
func (st *SymTable) Label(addr int64) (string, bool) {
	for _, sym := range st.Symbols {
		if sym.Addr == addr {
			return sym.Name, true
		}
	}

	return "", false
}

func (st *SymTable) Len() int {
	return len(st.Symbols)
}

func (st *SymTable) setLine(addr int64, line int) {
	if st.Lines == nil {
		st.Lines = make(map[int64]int)
	}

	st.Lines[addr] = line
}

// Merge copies other's labels and lines into the table, moved by base.
// Labels already present keep their first address.
func (st *SymTable) Merge(other *SymTable, base int64) {
	for _, sym := range other.Symbols {
		st.Append(sym.Name, sym.Addr+base)
	}

	for addr, line := range other.Lines {
		st.setLine(addr+base, line)
	}
}
