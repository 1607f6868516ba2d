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

package assembler_test

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/lassandro/goy86/pkg/assembler"
)

func TestSymTable(t *testing.T) {
	var st assembler.SymTable

	if _, exists := st.Lookup("main"); exists {
		t.Fatal("Lookup on an empty table succeeded")
	}

	for i, name := range []string{"main", "loop", "done"} {
		if !st.Append(name, int64(i*10)) {
			t.Fatalf("Append(%s) rejected", name)
		}
	}

	if st.Append("loop", 99) {
		t.Fatal("Append accepted a redeclared label")
	}

	if addr, exists := st.Lookup("loop"); !exists || addr != 10 {
		t.Fatalf("want:10\nhave:%d (%v)", addr, exists)
	}

	if st.Len() != 3 || st.Symbols[2].Name != "done" {
		t.Fatalf("Insertion order lost: %v", st.Symbols)
	}

	if label, _ := st.Label(20); label != "done" {
		t.Fatalf("want:done\nhave:%s", label)
	}

	if _, exists := st.Lookup("Loop"); exists {
		t.Fatal("Lookup is not an exact match")
	}
}

func TestSymTableMerge(t *testing.T) {
	var first, second, merged assembler.SymTable

	first.Append("a", 0)
	second.Append("b", 10)
	second.Append("a", 20)

	merged.Merge(&first, 0)
	merged.Merge(&second, 100)

	if addr, _ := merged.Lookup("b"); addr != 110 {
		t.Fatalf("want:110\nhave:%d", addr)
	}

	if addr, _ := merged.Lookup("a"); addr != 0 {
		t.Fatalf("want:first definition at 0\nhave:%d", addr)
	}
}

// The lookup index is not serialized and has to be rebuilt after decoding.
func TestSymTableDecoded(t *testing.T) {
	unit, _ := parse(t, "main:\nnop\nnext:\nhlt")

	var buffer bytes.Buffer

	if err := gob.NewEncoder(&buffer).Encode(&unit.SymTable); err != nil {
		t.Fatal(err)
	}

	var decoded assembler.SymTable

	if err := gob.NewDecoder(&buffer).Decode(&decoded); err != nil {
		t.Fatal(err)
	}

	if addr, exists := decoded.Lookup("next"); !exists || addr != 10 {
		t.Fatalf("want:10\nhave:%d (%v)", addr, exists)
	}

	if decoded.Source != "test.ys" || decoded.Lines[10] != 4 {
		t.Fatalf("Debug information lost: %+v", decoded)
	}

	if decoded.Append("main", 5) {
		t.Fatal("Append accepted a redeclared label after decoding")
	}
}
