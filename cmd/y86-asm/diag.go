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

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/lassandro/goy86/pkg/assembler"
)

type source struct {
	path  string
	data  []byte
	lines []string
}

func newSource(path string, data []byte) *source {
	return &source{
		path:  path,
		data:  data,
		lines: strings.Split(string(data), "\n"),
	}
}

func (src *source) line(n int) (string, bool) {
	if n < 1 || n > len(src.lines) {
		return "", false
	}

	return strings.TrimRight(src.lines[n-1], "\r"), true
}

// Writes each diagnostic as "path:line | message" followed by the offending
// source line when it is known.
func printDiagnostics(
	w io.Writer,
	diags assembler.Diagnostics,
	sources map[string]*source,
	color bool,
) {
	for _, diag := range diags {
		pos := diag.GetPosition()

		if color {
			fmt.Fprintf(w, "\033[1;31m%s\033[0m | %s\n", pos, diag)
		} else {
			fmt.Fprintf(w, "%s | %s\n", pos, diag)
		}

		src, exists := sources[pos.Path]

		if !exists {
			continue
		}

		if text, ok := src.line(pos.Line); ok && strings.TrimSpace(text) != "" {
			if color {
				fmt.Fprintf(w, "    \033[1;30m%s\033[0m\n", text)
			} else {
				fmt.Fprintf(w, "    %s\n", text)
			}
		}
	}
}
