// Copyright (c) 2024 The Elang Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package codegen

import (
	"testing"

	"elang/lir"
)

func reg32(name lir.RegisterName) lir.Value {
	return lir.AdjustRegisterSize(lir.Int32Type(), lir.GetRegister(name))
}

func MustBeCopy(t *testing.T, instr *lir.Instruction, dst, src lir.Value) {
	t.Helper()
	if instr.Opcode() != lir.OpCopy {
		t.Fatalf("Expect copy, got %v", instr)
	}
	if instr.Output(0) != dst || instr.Input(0) != src {
		t.Fatalf("Expect %v <- %v, got %v", dst, src, instr)
	}
}

func TestParallelCopyStraightLine(t *testing.T) {
	factory := lir.NewFactory()
	expander := NewParallelCopyExpander(factory, lir.Int32Type())
	r1, r2, r3 := reg32(lir.RAX), reg32(lir.RCX), reg32(lir.RDX)

	// r1 <- r2 <- r3 sequences with the dependent copy first.
	expander.AddTask(r2, r3)
	expander.AddTask(r1, r2)
	instructions := expander.Expand()
	if len(instructions) != 2 {
		t.Fatalf("Expect 2 copies, got %v", instructions)
	}
	MustBeCopy(t, instructions[0], r1, r2)
	MustBeCopy(t, instructions[1], r2, r3)
}

// Swapping registers breaks the cycle through a scratch:
//   scratch <- r1; r1 <- r2; r2 <- scratch
func TestParallelCopyCycle(t *testing.T) {
	factory := lir.NewFactory()
	expander := NewParallelCopyExpander(factory, lir.Int32Type())
	r1, r2 := reg32(lir.RAX), reg32(lir.RCX)
	scratch := reg32(lir.R10)

	expander.AddTask(r1, r2)
	expander.AddTask(r2, r1)
	expander.AddScratch(scratch)
	instructions := expander.Expand()
	if len(instructions) != 3 {
		t.Fatalf("Expect 3 copies, got %v", instructions)
	}
	MustBeCopy(t, instructions[0], scratch, r1)
	MustBeCopy(t, instructions[1], r1, r2)
	MustBeCopy(t, instructions[2], r2, scratch)
}

func TestParallelCopyCycleWithoutScratchFails(t *testing.T) {
	factory := lir.NewFactory()
	expander := NewParallelCopyExpander(factory, lir.Int32Type())
	r1, r2 := reg32(lir.RAX), reg32(lir.RCX)

	expander.AddTask(r1, r2)
	expander.AddTask(r2, r1)
	if expander.Expand() != nil {
		t.Fatalf("Expect failure without a scratch register")
	}
}

func TestParallelCopyMemoryToMemory(t *testing.T) {
	factory := lir.NewFactory()
	expander := NewParallelCopyExpander(factory, lir.Int32Type())
	slot1 := lir.StackSlot(lir.Integer, lir.Size32, 0)
	slot2 := lir.StackSlot(lir.Integer, lir.Size32, 8)
	scratch := reg32(lir.R11)

	expander.AddTask(slot1, slot2)
	if expander.Expand() != nil {
		t.Fatalf("memory to memory wants a scratch register")
	}
	expander.AddScratch(scratch)
	instructions := expander.Expand()
	if len(instructions) != 2 {
		t.Fatalf("Expect 2 copies, got %v", instructions)
	}
	MustBeCopy(t, instructions[0], scratch, slot2)
	MustBeCopy(t, instructions[1], slot1, scratch)
}

func TestParallelCopySkipsIdentity(t *testing.T) {
	factory := lir.NewFactory()
	expander := NewParallelCopyExpander(factory, lir.Int32Type())
	r1 := reg32(lir.RAX)
	expander.AddTask(r1, r1)
	if expander.HasTasks() {
		t.Fatalf("identity copies must be dropped")
	}
}
