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
	"encoding/gob"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/lassandro/goy86/pkg/assembler"
	"github.com/lassandro/goy86/pkg/debugger"
	"github.com/lassandro/goy86/pkg/machine"
	"github.com/lassandro/goy86/pkg/term"
)

// Instructions run between checks for an interrupt
const slice = 4096

var tracevar bool
var statevar bool
var breakvar []string
var watchvar []string
var stepsvar int
var memoryvar int
var symbolsvar string
var colorvar string

var status int

var rootCmd = &cobra.Command{
	Use:   "y86 [flags] file.bin",
	Short: "Runs an assembled Y86-64 object image",
	Long: `Loads an object image at address 0 and runs it until it halts or faults.
A symbol file written by y86-asm --debug is picked up from next to the image,
letting breakpoints and watchpoints name labels.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		status = y86(args[0])
	},
}

func init() {
	flag.Set("logtostderr", "true")

	rootCmd.Flags().BoolVar(
		&tracevar, "trace", false, "Print the location of every instruction",
	)
	rootCmd.Flags().BoolVar(
		&statevar, "state", false, "Dump registers and flags on exit",
	)
	rootCmd.Flags().StringArrayVar(
		&breakvar, "break", nil,
		"Dump machine state whenever execution reaches this address or label",
	)
	rootCmd.Flags().StringArrayVar(
		&watchvar, "watch", nil,
		"Report reads and writes of this address or label",
	)
	rootCmd.Flags().IntVar(
		&stepsvar, "steps", 0, "Stop after this many instructions, 0 for no limit",
	)
	rootCmd.Flags().IntVar(
		&memoryvar, "memory", machine.MEMORY_SIZE, "Memory size in bytes",
	)
	rootCmd.Flags().StringVar(
		&symbolsvar, "symbols", "",
		"Symbol file, defaulting to the image name with extension '.y86db'",
	)
	rootCmd.Flags().StringVar(
		&colorvar, "color", term.COLOR_AUTO,
		"Colorize output: auto, always or never",
	)

	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}

func loadSymbols(binpath string) (*assembler.SymTable, error) {
	filename := symbolsvar

	if filename == "" {
		filename = strings.TrimSuffix(binpath, filepath.Ext(binpath)) + ".y86db"
	}

	file, err := os.Open(filename)

	if err != nil {
		if symbolsvar == "" && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, err
	}

	defer file.Close()

	var symtable assembler.SymTable

	if err := gob.NewDecoder(file).Decode(&symtable); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filename, err)
	}

	glog.V(1).Infof("loaded %d symbols from %s", symtable.Len(), filename)

	return &symtable, nil
}

type register struct {
	Name  string
	Value int64
}

type dump struct {
	Program   int64
	Status    string
	Flags     string
	Registers []register
}

func printState(w io.Writer, mc *machine.MachineState) {
	state := dump{
		Program: mc.Program,
		Status:  machine.StatusString(mc.Status),
	}

	for _, f := range []struct {
		bit  byte
		name string
	}{
		{machine.FLAG_ZERO, "ZF"},
		{machine.FLAG_SIGN, "SF"},
		{machine.FLAG_OVERFLOW, "OF"},
	} {
		if mc.Flags&f.bit != 0 {
			state.Flags += f.name + " "
		}
	}

	state.Flags = strings.TrimSpace(state.Flags)

	for i, value := range mc.Registers {
		state.Registers = append(state.Registers, register{
			assembler.RegisterName(byte(i)), value,
		})
	}

	config := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true}
	config.Fdump(w, state)
}

func newDebugger(symtable *assembler.SymTable, color bool) (*debugger.Debugger, error) {
	dbg := &debugger.Debugger{SymTable: symtable, Color: color}

	if symtable != nil && symtable.Source != "" {
		if data, err := os.ReadFile(symtable.Source); err == nil {
			dbg.Source = strings.NewReader(string(data))
		} else {
			glog.Warningf("Error loading source file: %v", err)
		}
	}

	if tracevar {
		dbg.Trace = os.Stdout
	}

	for _, location := range breakvar {
		if err := dbg.AddBreakpoint(location); err != nil {
			return nil, err
		}
	}

	for _, location := range watchvar {
		if err := dbg.AddWatchpoint(location, debugger.ReadWriteWatch); err != nil {
			return nil, err
		}
	}

	dbg.HandleBreak = func(dbg *debugger.Debugger, mc *machine.Machine) {
		fmt.Print("Breakpoint ")
		dbg.PrintLocation(os.Stdout, mc.State.Program)
		dbg.PrintSource(os.Stdout, mc.State.Program, 1)
		printState(os.Stdout, &mc.State)
	}

	access := func(kind string) func(int64, *debugger.Debugger, *machine.Machine) {
		return func(addr int64, dbg *debugger.Debugger, mc *machine.Machine) {
			fmt.Printf("%s at ", kind)
			dbg.PrintLocation(os.Stdout, mc.State.Program)
			dbg.PrintMem(os.Stdout, &mc.State, addr, 1)
		}
	}

	dbg.HandleRead = access("Read")
	dbg.HandleWrite = access("Write")

	return dbg, nil
}

func y86(binpath string) int {
	if memoryvar <= 0 {
		glog.Errorf("Invalid memory size %d", memoryvar)
		return 1
	}

	file, err := os.Open(binpath)

	if err != nil {
		glog.Error(err)
		return 1
	}

	defer file.Close()

	var mc machine.Machine
	mc.State.Memory = make([]byte, memoryvar)

	if err := mc.LoadBin(file); err != nil {
		glog.Errorf("loading %s: %v", binpath, err)
		return 1
	}

	symtable, err := loadSymbols(binpath)

	if err != nil {
		glog.Errorf("Error loading symbol file: %v", err)
	}

	if tracevar || len(breakvar) > 0 || len(watchvar) > 0 {
		dbg, err := newDebugger(symtable, term.UseColor(colorvar, os.Stdout))

		if err != nil {
			glog.Error(err)
			return 1
		}

		mc.Debugger = dbg
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	total := 0
	interrupted := false

	for mc.State.Status == machine.STAT_AOK && !interrupted {
		limit := slice

		if stepsvar > 0 {
			if total >= stepsvar {
				break
			}

			if remaining := stepsvar - total; remaining < limit {
				limit = remaining
			}
		}

		total += mc.Run(limit)

		select {
		case <-interrupt:
			interrupted = true
		default:
		}
	}

	glog.V(1).Infof(
		"%s after %d instructions at %#04x",
		machine.StatusString(mc.State.Status), total, mc.State.Program,
	)

	if statevar {
		printState(os.Stdout, &mc.State)
	}

	if mc.State.Status != machine.STAT_HLT {
		fmt.Fprintf(
			os.Stderr, "Stopped with status %s at %#04x after %d instructions\n",
			machine.StatusString(mc.State.Status), mc.State.Program, total,
		)
		return 1
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
