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

package encoding

import (
	"encoding/binary"
	"errors"
	"strconv"
)

// Every object record occupies this many bytes, whatever it encodes.
const RecordSize = 10

var ErrNoDigits = errors.New("no digits")

func isDigit(c byte, base int) bool {
	switch base {
	case 8:
		return c >= '0' && c <= '7'
	case 16:
		return (c >= '0' && c <= '9') ||
			(c >= 'a' && c <= 'f') ||
			(c >= 'A' && c <= 'F')
	default:
		return c >= '0' && c <= '9'
	}
}

// Scans the longest signed integer prefix of s using C base inference:
// 0x/0X for hex, a leading 0 for octal, decimal otherwise. Returns the value
// and the number of bytes consumed. n is 0 when s holds no digits; err is set
// when the digits do not fit in 64 bits.
func ScanInt(s string) (value int64, n int, err error) {
	i := 0

	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	base := 10

	if i+2 < len(s) && s[i] == '0' && (s[i+1] == 'x' || s[i+1] == 'X') &&
		isDigit(s[i+2], 16) {
		base = 16
		i += 2
	} else if i < len(s) && s[i] == '0' {
		base = 8
	}

	digits := i

	for i < len(s) && isDigit(s[i], base) {
		i++
	}

	if i == digits {
		return 0, 0, nil
	}

	value, err = strconv.ParseInt(s[:i], 0, 64)

	return value, i, err
}

// Decodes a whole string as an integer in the formats accepted by ScanInt
func DecodeInt(s string) (int64, error) {
	value, n, err := ScanInt(s)

	if err != nil {
		return 0, err
	}

	if n == 0 || n != len(s) {
		return 0, ErrNoDigits
	}

	return value, nil
}

// Object images store 8-byte quantities little-endian.
func PutQuad(b []byte, value int64) {
	binary.LittleEndian.PutUint64(b, uint64(value))
}

func Quad(b []byte) int64 {
	return int64(binary.LittleEndian.Uint64(b))
}
