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

package machine_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/lassandro/goy86/pkg/encoding"
	"github.com/lassandro/goy86/pkg/linker"
	"github.com/lassandro/goy86/pkg/machine"
)

type testMachineState struct {
	Registers map[int]int64
	Program   int64
	Flags     byte
	Status    byte
	Memory    map[int64]int64
}

type testCase struct {
	Name   string
	Source []string
	Steps  int
	Output testMachineState
}

func load(t *testing.T, source []string) *machine.Machine {
	t.Helper()

	var image bytes.Buffer

	diags, err := linker.Assemble(
		&image, strings.NewReader(strings.Join(source, "\n")), "test.ys",
	)

	if err != nil {
		t.Fatal(err)
	}

	if len(diags) > 0 {
		t.Fatal(diags[0])
	}

	var mc machine.Machine

	if err := mc.LoadBin(&image); err != nil {
		t.Fatal(err)
	}

	return &mc
}

func testMachineSuccess(t *testing.T, test *testCase) {
	mc := load(t, test.Source)
	mc.Run(test.Steps)

	dump := func() string {
		state := mc.State
		state.Memory = nil
		return spew.Sdump(state)
	}

	for reg, want := range test.Output.Registers {
		if have := mc.State.Registers[reg]; have != want {
			t.Errorf(
				"Register mismatch"+
					"\nwant:%#x (test.Output.Registers[%d])\nhave:%#x",
				want, reg, have,
			)
		}
	}

	if mc.State.Program != test.Output.Program {
		t.Errorf(
			"Program counter mismatch"+
				"\nwant:%#x (test.Output.Program)\nhave:%#x",
			test.Output.Program, mc.State.Program,
		)
	}

	if test.Output.Status == 0 {
		test.Output.Status = machine.STAT_HLT
	}

	if mc.State.Status != test.Output.Status {
		t.Errorf(
			"Status mismatch\nwant:%s (test.Output.Status)\nhave:%s",
			machine.StatusString(test.Output.Status),
			machine.StatusString(mc.State.Status),
		)
	}

	if test.Output.Flags != 0 && mc.State.Flags != test.Output.Flags {
		t.Errorf(
			"Flags mismatch\nwant:%03b (test.Output.Flags)\nhave:%03b",
			test.Output.Flags, mc.State.Flags,
		)
	}

	for addr, want := range test.Output.Memory {
		if have := encoding.Quad(mc.State.Memory[addr:]); have != want {
			t.Errorf(
				"Memory mismatch\nwant:%#x (test.Output.Memory[%#x])\nhave:%#x",
				want, addr, have,
			)
		}
	}

	if t.Failed() {
		t.Log(dump())
	}
}

func testSuccess(t *testing.T, tests []testCase) {
	for _, test := range tests {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			testMachineSuccess(t, &test)
		})
	}
}

func TestPrograms(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "SumLoop",
			Source: []string{
				"    irmovq 5,%rcx",
				"    irmovq 1,%rdx",
				"    xorq %rax,%rax",
				"loop:",
				"    addq %rcx,%rax",
				"    subq %rdx,%rcx",
				"    jne loop",
				"    hlt",
			},
			Output: testMachineState{
				Registers: map[int]int64{0: 15, 1: 0, 2: 1},
				Program:   60,
				Flags:     machine.FLAG_ZERO,
			},
		},
		{
			Name: "CallReturn",
			Source: []string{
				"    irmovq 0x100,%rsp",
				"    call f",
				"    hlt",
				"f:",
				"    irmovq 42,%rax",
				"    ret",
			},
			Output: testMachineState{
				Registers: map[int]int64{0: 42, 4: 0x100},
				Program:   20,
				Memory:    map[int64]int64{0xF8: 20},
			},
		},
		{
			Name: "ConditionalMove",
			Source: []string{
				"    irmovq 3,%rax",
				"    irmovq 7,%rbx",
				"    subq %rax,%rbx",
				"    cmovg %rax,%rcx",
				"    cmovl %rbx,%rdx",
				"    hlt",
			},
			Output: testMachineState{
				Registers: map[int]int64{0: 3, 1: 3, 2: 0, 3: 4},
				Program:   50,
			},
		},
		{
			Name: "PushPop",
			Source: []string{
				"    irmovq 0x100,%rsp",
				"    irmovq 9,%rax",
				"    pushq %rax",
				"    popq %rbx",
				"    hlt",
			},
			Output: testMachineState{
				Registers: map[int]int64{0: 9, 3: 9, 4: 0x100},
				Program:   40,
				Memory:    map[int64]int64{0xF8: 9},
			},
		},
		{
			Name: "PushStackPointer",
			Source: []string{
				"    irmovq 0x100,%rsp",
				"    pushq %rsp",
				"    popq %rsp",
				"    hlt",
			},
			Output: testMachineState{
				Registers: map[int]int64{4: 0x100},
				Program:   30,
				Memory:    map[int64]int64{0xF8: 0x100},
			},
		},
		{
			Name: "Memory",
			Source: []string{
				"    irmovq 0x100,%rbx",
				"    irmovq 77,%rax",
				"    rmmovq %rax,8(%rbx)",
				"    mrmovq 8(%rbx),%rcx",
				"    hlt",
			},
			Output: testMachineState{
				Registers: map[int]int64{0: 77, 1: 77, 3: 0x100},
				Program:   40,
				Memory:    map[int64]int64{0x108: 77},
			},
		},
		{
			Name: "Overflow",
			Source: []string{
				"    irmovq 0x7fffffffffffffff,%rax",
				"    irmovq 1,%rbx",
				"    addq %rbx,%rax",
				"    hlt",
			},
			Output: testMachineState{
				Registers: map[int]int64{0: -1 << 63},
				Program:   30,
				Flags:     machine.FLAG_SIGN | machine.FLAG_OVERFLOW,
			},
		},
	})
}

func TestFaults(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "BadDataAddress",
			Source: []string{"mrmovq -8(%rax),%rcx"},
			Output: testMachineState{Status: machine.STAT_ADR},
		},
		{
			Name:   "BadReturn",
			Source: []string{"irmovq -8,%rsp", "ret"},
			Output: testMachineState{
				Registers: map[int]int64{4: -8},
				Status:    machine.STAT_ADR,
				Program:   10,
			},
		},
		{
			Name:   "BadPush",
			Source: []string{"irmovq 4,%rsp", "pushq %rax"},
			Output: testMachineState{
				Registers: map[int]int64{4: 4},
				Status:    machine.STAT_ADR,
				Program:   10,
			},
		},
		{
			Name:   "BadCall",
			Source: []string{"xorq %rsp,%rsp", "call 0"},
			Output: testMachineState{
				Registers: map[int]int64{4: 0},
				Status:    machine.STAT_ADR,
				Program:   10,
			},
		},
		{
			Name:   "BadPop",
			Source: []string{"irmovq 0x10000,%rsp", "popq %rbx"},
			Output: testMachineState{
				Registers: map[int]int64{3: 0, 4: 0x10000},
				Status:    machine.STAT_ADR,
				Program:   10,
			},
		},
		{
			Name:   "JumpOutside",
			Source: []string{"jmp 0x100000"},
			Steps:  2,
			Output: testMachineState{
				Status:  machine.STAT_ADR,
				Program: 0x100000,
			},
		},
	})
}

func TestInvalidInstruction(t *testing.T) {
	var mc machine.Machine

	image := []byte{0xF0, 0, 0, 0, 0, 0, 0, 0, 0, 0}

	if err := mc.LoadBin(bytes.NewReader(image)); err != nil {
		t.Fatal(err)
	}

	if steps := mc.Run(0); steps != 1 {
		t.Fatalf("want:1 step\nhave:%d", steps)
	}

	if mc.State.Status != machine.STAT_INS || mc.State.Program != 0 {
		t.Fatalf("want:INS at 0\nhave:%s", spew.Sdump(mc.State.Status, mc.State.Program))
	}
}

func TestRunLimit(t *testing.T) {
	mc := load(t, []string{"loop:", "jmp loop"})

	if steps := mc.Run(5); steps != 5 {
		t.Fatalf("want:5\nhave:%d", steps)
	}

	if mc.State.Status != machine.STAT_AOK {
		t.Fatalf("want:AOK\nhave:%s", machine.StatusString(mc.State.Status))
	}
}

type stopAt struct {
	addr int64
}

func (s *stopAt) Step(mc *machine.Machine) {
	if mc.State.Program == s.addr {
		mc.Break()
	}
}

func (*stopAt) Read(int64, *machine.Machine)  {}
func (*stopAt) Write(int64, *machine.Machine) {}

func TestBreak(t *testing.T) {
	mc := load(t, []string{"nop", "nop", "nop", "hlt"})
	mc.Debugger = &stopAt{addr: 20}

	if steps := mc.Run(0); steps != 2 {
		t.Fatalf("want:2\nhave:%d", steps)
	}

	if steps := mc.Run(0); steps != 2 {
		t.Fatalf("want:2 more\nhave:%d", steps)
	}

	if mc.State.Status != machine.STAT_HLT {
		t.Fatalf("want:HLT\nhave:%s", machine.StatusString(mc.State.Status))
	}
}

func TestLoadTooLarge(t *testing.T) {
	var mc machine.Machine
	mc.State.Memory = make([]byte, 10)

	err := mc.LoadBin(bytes.NewReader(make([]byte, 20)))

	if !errors.Is(err, machine.ErrImageTooLarge) {
		t.Fatalf("want:ErrImageTooLarge\nhave:%v", err)
	}

	if err := mc.LoadBin(bytes.NewReader(make([]byte, 10))); err != nil {
		t.Fatalf("want:exact fit\nhave:%v", err)
	}
}
