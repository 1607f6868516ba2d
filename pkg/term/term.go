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

// Package term answers whether a file descriptor is an interactive terminal,
// which decides if diagnostics are colored.
package term

import (
	"os"

	"golang.org/x/sys/unix"
)

func IsTerminal(fd int) bool {
	_, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	return err == nil
}

// Color modes accepted on the command line
const (
	COLOR_AUTO   = "auto"
	COLOR_ALWAYS = "always"
	COLOR_NEVER  = "never"
)

// UseColor resolves a color mode for the given file. NO_COLOR in the
// environment turns auto off.
func UseColor(mode string, file *os.File) bool {
	switch mode {
	case COLOR_ALWAYS:
		return true
	case COLOR_NEVER:
		return false
	}

	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}

	return IsTerminal(int(file.Fd()))
}
