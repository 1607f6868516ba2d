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

package debugger_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/lassandro/goy86/pkg/assembler"
	"github.com/lassandro/goy86/pkg/debugger"
	"github.com/lassandro/goy86/pkg/linker"
	"github.com/lassandro/goy86/pkg/machine"
)

const program = `# counts %rax down to zero
    irmovq 0x100,%rsp
    irmovq 2,%rax
    irmovq 1,%rbx
loop:
    subq %rbx,%rax
    rmmovq %rax,0(%rsp)
    jne loop
done:
    mrmovq 0(%rsp),%rcx
    hlt`

func setup(t *testing.T) (*machine.Machine, *debugger.Debugger) {
	t.Helper()

	var diags assembler.Diagnostics

	units := []*assembler.Unit{
		assembler.Parse(strings.NewReader(program), &diags, "test.ys"),
	}

	linker.Link(units, &diags)

	if len(diags) > 0 {
		t.Fatal(diags[0])
	}

	var image bytes.Buffer

	if _, err := linker.Write(&image, units); err != nil {
		t.Fatal(err)
	}

	symtable := linker.Symbols(units)

	var mc machine.Machine

	if err := mc.LoadBin(&image); err != nil {
		t.Fatal(err)
	}

	dbg := &debugger.Debugger{
		SymTable: &symtable,
		Source:   strings.NewReader(program),
	}

	mc.Debugger = dbg

	return &mc, dbg
}

func TestResolve(t *testing.T) {
	_, dbg := setup(t)

	tests := []struct {
		Location string
		Addr     int64
	}{
		{"loop", 30},
		{"done", 60},
		{"0x1e", 30},
		{"12", 12},
	}

	for _, test := range tests {
		addr, err := dbg.Resolve(test.Location)

		if err != nil {
			t.Fatal(err)
		}

		if addr != test.Addr {
			t.Fatalf("%s\nwant:%d\nhave:%d", test.Location, test.Addr, addr)
		}
	}

	if _, err := dbg.Resolve("nowhere"); !errors.Is(err, debugger.ErrUnknownLocation) {
		t.Fatalf("want:ErrUnknownLocation\nhave:%v", err)
	}
}

func TestBreakpoint(t *testing.T) {
	mc, dbg := setup(t)

	if err := dbg.AddBreakpoint("loop"); err != nil {
		t.Fatal(err)
	}

	// Three setup instructions, then every jne back to loop
	for _, want := range []int{3, 3, 5} {
		if steps := mc.Run(0); steps != want {
			t.Fatalf("want:%d steps\nhave:%d", want, steps)
		}
	}

	if mc.State.Status != machine.STAT_HLT {
		t.Fatalf("want:HLT\nhave:%s", machine.StatusString(mc.State.Status))
	}
}

func TestBreakRequest(t *testing.T) {
	mc, dbg := setup(t)

	var hits []int64

	dbg.HandleBreak = func(dbg *debugger.Debugger, mc *machine.Machine) {
		hits = append(hits, mc.State.Program)
		mc.Break()
	}

	dbg.Break = true

	if steps := mc.Run(0); steps != 1 {
		t.Fatalf("want:1\nhave:%d", steps)
	}

	if dbg.Break || len(hits) != 1 || hits[0] != 10 {
		t.Fatalf("want:one break at 10\nhave:%v", hits)
	}
}

func TestWatchpoints(t *testing.T) {
	mc, dbg := setup(t)

	var reads, writes []int64

	dbg.HandleRead = func(addr int64, dbg *debugger.Debugger, mc *machine.Machine) {
		reads = append(reads, addr)
	}

	dbg.HandleWrite = func(addr int64, dbg *debugger.Debugger, mc *machine.Machine) {
		writes = append(writes, addr)
	}

	if err := dbg.AddWatchpoint("0x104", debugger.WriteWatch); err != nil {
		t.Fatal(err)
	}

	mc.Run(0)

	if len(writes) != 2 || len(reads) != 0 {
		t.Fatalf("want:2 writes, 0 reads\nhave:%v %v", writes, reads)
	}

	mc, dbg = setup(t)
	dbg.HandleRead = func(addr int64, dbg *debugger.Debugger, mc *machine.Machine) {
		reads = append(reads, addr)
	}

	if err := dbg.AddWatchpoint("0x100", debugger.ReadWriteWatch); err != nil {
		t.Fatal(err)
	}

	mc.Run(0)

	if len(reads) != 1 || reads[0] != 0x100 {
		t.Fatalf("want:1 read at 0x100\nhave:%v", reads)
	}
}

func TestTrace(t *testing.T) {
	mc, dbg := setup(t)

	var trace bytes.Buffer
	dbg.Trace = &trace

	mc.Run(4)

	want := strings.Join([]string{
		"[0x000a] line 3",
		"[0x0014] line 4",
		"[0x001e] loop line 6",
		"[0x0028] line 7",
		"",
	}, "\n")

	if trace.String() != want {
		t.Fatalf("want:\n%s\nhave:\n%s", want, trace.String())
	}
}

func TestPrintSource(t *testing.T) {
	_, dbg := setup(t)

	var out bytes.Buffer
	dbg.PrintSource(&out, 30, 3)

	want := strings.Join([]string{
		"[0x001e]     subq %rbx,%rax",
		"[0x0028]     rmmovq %rax,0(%rsp)",
		"[0x0032]     jne loop",
		"",
	}, "\n")

	if out.String() != want {
		t.Fatalf("want:\n%s\nhave:\n%s", want, out.String())
	}

	out.Reset()
	dbg.PrintSource(&out, 31, 1)

	if !strings.HasPrefix(out.String(), "No instruction found") {
		t.Fatalf("want:no instruction\nhave:%s", out.String())
	}
}

func TestPrintMem(t *testing.T) {
	mc, dbg := setup(t)
	mc.Run(0)

	var out bytes.Buffer
	dbg.PrintMem(&out, &mc.State, 0x100, 2)

	want := "[0x0100] 0000000000000000 0000000000000000\n"

	if out.String() != want {
		t.Fatalf("want:%q\nhave:%q", want, out.String())
	}
}
