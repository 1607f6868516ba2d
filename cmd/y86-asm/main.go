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
	"bufio"
	"bytes"
	"encoding/gob"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bradleyjkemp/memviz"
	"github.com/golang/glog"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/lassandro/goy86/pkg/assembler"
	"github.com/lassandro/goy86/pkg/linker"
	"github.com/lassandro/goy86/pkg/term"
)

const stdinPath = "<stdin>"

var debugvar bool
var dumpvar bool
var outvar string
var graphvar string
var colorvar string

var rootCmd = &cobra.Command{
	Use:   "y86-asm [flags] file...",
	Short: "Assembles Y86-64 source into a fixed-record object image",
	Long: `Assembles one or more source files into a single object image. Every
instruction and .quad occupies a 10 byte record; files are laid out back to
back and labels may be referenced across them. Reads standard input when no
file is given or the file is "-".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		status = y86asm(args)
	},
}

var status int

func init() {
	flag.Set("logtostderr", "true")

	rootCmd.Flags().StringVarP(
		&outvar, "out", "o", "",
		"Output file, defaulting to the first source with extension '.bin'",
	)
	rootCmd.Flags().BoolVar(
		&debugvar, "debug", false,
		"Also write the symbol table next to the output with extension "+
			"'.y86db'",
	)
	rootCmd.Flags().BoolVar(
		&dumpvar, "dump", false, "Pretty-print the assembled units",
	)
	rootCmd.Flags().StringVar(
		&graphvar, "graph", "",
		"Write a graphviz rendering of the assembled units to this file",
	)
	rootCmd.Flags().StringVar(
		&colorvar, "color", term.COLOR_AUTO,
		"Colorize diagnostics: auto, always or never",
	)

	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}

func readSources(args []string) ([]*source, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}

	sources := make([]*source, 0, len(args))

	for _, arg := range args {
		if arg == "-" {
			data, err := io.ReadAll(os.Stdin)

			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", stdinPath, err)
			}

			sources = append(sources, newSource(stdinPath, data))
			continue
		}

		if stat, err := os.Stat(arg); err != nil {
			return nil, err
		} else if stat.IsDir() {
			return nil, fmt.Errorf("%s is not a valid assembly file", arg)
		}

		data, err := os.ReadFile(arg)

		if err != nil {
			return nil, err
		}

		sources = append(sources, newSource(arg, data))
	}

	return sources, nil
}

// Files are independent until linking, so each one is parsed on its own
// goroutine into its own diagnostics.
func parseSources(sources []*source) ([]*assembler.Unit, assembler.Diagnostics) {
	units := make([]*assembler.Unit, len(sources))
	perunit := make([]assembler.Diagnostics, len(sources))

	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)

		go func(i int, src *source) {
			defer wg.Done()

			units[i] = assembler.Parse(
				bytes.NewReader(src.data), &perunit[i], src.path,
			)

			glog.V(1).Infof(
				"%s: %d records, %d bytes, %d labels",
				src.path,
				len(units[i].Program),
				units[i].Size(),
				units[i].SymTable.Len(),
			)
		}(i, src)
	}

	wg.Wait()

	var diags assembler.Diagnostics

	for _, unitdiags := range perunit {
		diags = append(diags, unitdiags...)
	}

	return units, diags
}

func outputName(sources []*source) string {
	if outvar != "" {
		return outvar
	}

	if sources[0].path == stdinPath {
		return "out.bin"
	}

	filename := filepath.Base(sources[0].path)

	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".bin"
}

func writeImage(filename string, units []*assembler.Unit) error {
	file, err := os.Create(filename)

	if err != nil {
		return err
	}

	writer := bufio.NewWriter(file)

	n, err := linker.Write(writer, units)

	if err == nil {
		err = writer.Flush()
	}

	if cerr := file.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}

	glog.V(1).Infof("wrote %d bytes to %s", n, filename)

	return nil
}

func writeSymbols(filename string, sources []*source, units []*assembler.Unit) error {
	symtable := linker.Symbols(units)

	if sources[0].path != stdinPath {
		if abs, err := filepath.Abs(sources[0].path); err == nil {
			symtable.Source = abs
		} else {
			glog.Warningf("resolving source path: %v", err)
		}
	} else {
		symtable.Source = ""
	}

	filename = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".y86db"

	file, err := os.Create(filename)

	if err != nil {
		return err
	}

	err = gob.NewEncoder(file).Encode(symtable)

	if cerr := file.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}

	return nil
}

func writeGraph(filename string, units []*assembler.Unit) error {
	file, err := os.Create(filename)

	if err != nil {
		return err
	}

	writer := bufio.NewWriter(file)
	memviz.Map(writer, &units)

	err = writer.Flush()

	if cerr := file.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}

	return nil
}

func y86asm(args []string) int {
	color := term.UseColor(colorvar, os.Stderr)

	sources, err := readSources(args)

	if err != nil {
		glog.Error(err)
		return 1
	}

	lookup := make(map[string]*source, len(sources))

	for _, src := range sources {
		lookup[src.path] = src
	}

	units, diags := parseSources(sources)
	linker.Link(units, &diags)

	if dumpvar {
		printer := pp.New()
		printer.SetColoringEnabled(term.UseColor(colorvar, os.Stdout))
		printer.Fprintln(os.Stdout, units)
	}

	if graphvar != "" {
		if err := writeGraph(graphvar, units); err != nil {
			glog.Error(err)
			return 1
		}
	}

	if len(diags) > 0 {
		printDiagnostics(os.Stderr, diags, lookup, color)
		glog.V(1).Infof("%d diagnostics, no output written", len(diags))
		return 1
	}

	filename := outputName(sources)

	if err := writeImage(filename, units); err != nil {
		glog.Error(err)
		return 1
	}

	if debugvar {
		if err := writeSymbols(filename, sources, units); err != nil {
			glog.Errorf("Error writing symbol file: %v", err)
			return 1
		}
	}

	return 0
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		status = 1
	}

	glog.Flush()
	os.Exit(status)
}
