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

package encoding_test

import (
	"testing"

	"github.com/lassandro/goy86/pkg/encoding"
)

func TestScanInt(t *testing.T) {
	tests := []struct {
		Name  string
		Input string
		Value int64
		N     int
		Fail  bool
	}{
		{"Decimal", "42", 42, 2, false},
		{"Negative", "-17,", -17, 3, false},
		{"Plus", "+8", 8, 2, false},
		{"Hex", "0x1F(", 31, 4, false},
		{"Hex Upper", "0XfF", 255, 4, false},
		{"Octal", "017", 15, 3, false},
		{"Zero", "0", 0, 1, false},
		{"Octal Stops", "08", 0, 1, false},
		{"Bare Hex Prefix", "0x", 0, 1, false},
		{"Trailing Junk", "12ab", 12, 2, false},
		{"No Digits", "abc", 0, 0, false},
		{"Sign Only", "-", 0, 0, false},
		{"Empty", "", 0, 0, false},
		{"Overflow", "99999999999999999999", 0, 20, true},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			value, n, err := encoding.ScanInt(test.Input)

			if test.Fail {
				if err == nil {
					t.Fatalf("want:error\nhave:%d", value)
				}
				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if value != test.Value || n != test.N {
				t.Fatalf(
					"want:%d (%d bytes)\nhave:%d (%d bytes)",
					test.Value, test.N, value, n,
				)
			}
		})
	}
}

func TestDecodeInt(t *testing.T) {
	if value, err := encoding.DecodeInt("0x1e"); err != nil || value != 30 {
		t.Fatalf("want:30\nhave:%d (%v)", value, err)
	}

	for _, input := range []string{"", "1e", "loop", "-"} {
		if _, err := encoding.DecodeInt(input); err == nil {
			t.Fatalf("%q decoded without error", input)
		}
	}
}

func TestQuad(t *testing.T) {
	b := make([]byte, 8)
	encoding.PutQuad(b, -2)

	if b[0] != 0xFE || b[7] != 0xFF {
		t.Fatalf("want:fe ff ff ff ff ff ff ff\nhave:% x", b)
	}

	if v := encoding.Quad(b); v != -2 {
		t.Fatalf("want:-2\nhave:%d", v)
	}
}
