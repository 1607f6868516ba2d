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
	"github.com/lassandro/goy86/pkg/encoding"
)

// lineReader reports operand problems for one source line. Every read method
// takes the unread part of the line and returns what is left after the
// operand and its terminator, so calls chain left to right.
type lineReader struct {
	diags *Diagnostics
	pos   Position
}

// Same set as C's isspace in the default locale
func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}

	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func skipSpace(s string) string {
	for len(s) > 0 && isSpace(s[0]) {
		s = s[1:]
	}

	return s
}

func trimSpace(s string) string {
	s = skipSpace(s)

	for len(s) > 0 && isSpace(s[len(s)-1]) {
		s = s[:len(s)-1]
	}

	return s
}

// Length of the leading run of s that is neither whitespace nor stop.
// A zero stop only ends at whitespace.
func tokenLen(s string, stop byte) int {
	n := 0

	for n < len(s) && !isSpace(s[n]) && (stop == 0 || s[n] != stop) {
		n++
	}

	return n
}

// Consumes term from the front of s, allowing whitespace before each of its
// bytes. On a mismatch the matched part stays consumed.
func consumeTerm(s, term string) string {
	for i := 0; i < len(term); i++ {
		rest := skipSpace(s)

		if len(rest) == 0 || rest[0] != term[i] {
			return s
		}

		s = rest[1:]
	}

	return s
}

func (lr *lineReader) report(diag Diagnostic) {
	lr.diags.Append(diag)
}

// Reads a register name into the high (upper) or low nibble of reg. An
// unknown name leaves the nibble untouched.
func (lr *lineReader) register(in, term string, upper bool, reg *byte) string {
	in = skipSpace(in)

	var stop byte
	if term != "" {
		stop = term[0]
	}

	n := tokenLen(in, stop)
	token := in[:n]

	if code, ok := registers[token]; ok {
		if upper {
			*reg |= code << 4
		} else {
			*reg |= code
		}
	} else {
		lr.report(&UnknownRegisterError{lr.pos, token})
	}

	return consumeTerm(in[n:], term)
}

func (lr *lineReader) registerPair(in string, reg *byte) string {
	in = lr.register(in, ",", true, reg)
	return lr.register(in, "", false, reg)
}

// Reads a signed integer that must be followed by term, whitespace or the end
// of the line. A zero term means no terminator.
func (lr *lineReader) immediate(in string, term byte, x *int64) string {
	in = skipSpace(in)

	var terms string
	if term != 0 {
		terms = string(term)
	}

	value, n, err := encoding.ScanInt(in)
	rest := in[n:]

	// An empty displacement, as in "(%rbx)", is zero
	if n == 0 && term == '(' && len(rest) > 0 && rest[0] == term {
		*x = 0
		return consumeTerm(rest, terms)
	}

	if n > 0 && err == nil &&
		(len(rest) == 0 || isSpace(rest[0]) || (term != 0 && rest[0] == term)) {
		*x = value
		return consumeTerm(rest, terms)
	}

	n = tokenLen(in, term)
	lr.report(&MalformedIntegerError{lr.pos, in[:n]})
	*x = 0

	return consumeTerm(in[n:], terms)
}

// Reads a jump or call target. Anything that does not start like a number is
// kept as a label for the linker.
func (lr *lineReader) destination(in string, dest *Destination) string {
	in = skipSpace(in)

	dest.Addr = 0
	dest.Label = ""

	if len(in) == 0 {
		lr.report(&MalformedIntegerError{lr.pos, ""})
		return in
	}

	if !isDigit(in[0]) && in[0] != '-' {
		n := tokenLen(in, 0)
		dest.Label = in[:n]
		return in[n:]
	}

	in = lr.immediate(in, 0, &dest.Addr)

	if dest.Addr < 0 {
		lr.report(&NegativeJumpError{lr.pos})
	}

	return in
}

// Matches a whole condition suffix, or uncond when the caller allows an
// unconditional spelling, and ORs its bits into op.
func (lr *lineReader) condition(suffix, uncond string, op *byte) bool {
	if uncond != "" && suffix == uncond {
		*op |= COND_UNCOND
		return true
	}

	if cond, ok := conditions[suffix]; ok {
		*op |= cond
		return true
	}

	lr.report(&MalformedConditionError{lr.pos, suffix})

	return false
}
