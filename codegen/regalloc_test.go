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

func newPipelineFunction(t *testing.T) (*lir.Factory, *lir.Function, *lir.Editor) {
	t.Helper()
	factory := lir.NewFactory()
	function := factory.NewFunction("sample")
	editor := lir.NewEditor(factory, function)
	return factory, function, editor
}

func runPasses(t *testing.T, editor *lir.Editor, passes ...FunctionPass) {
	t.Helper()
	for _, pass := range passes {
		if !RunPass(pass, editor) {
			t.Fatalf("%s left the function invalid: %v",
				pass.Name(), editor.Factory().Errors())
		}
	}
}

// countSpillTraffic tallies stores to and loads from spill slots.
func countSpillTraffic(function *lir.Function) (stores, loads int) {
	for _, block := range function.BasicBlocks() {
		for _, instr := range block.Instructions() {
			if instr.Opcode() != lir.OpCopy {
				continue
			}
			if instr.Output(0).IsStackSlot() && instr.Input(0).IsPhysical() {
				stores++
			}
			if instr.Output(0).IsPhysical() && instr.Input(0).IsStackSlot() {
				loads++
			}
		}
	}
	return stores, loads
}

// A value whose live range crosses a call must be spilled before the call
// and reloaded after it, with exactly one store-load pair.
func TestRegisterAllocationSpillAcrossCall(t *testing.T) {
	factory, function, editor := newPipelineFunction(t)

	va := factory.NewVReg(function, lir.Integer, lir.Size32)
	vb := factory.NewVReg(function, lir.Integer, lir.Size32)
	vt := factory.NewVReg(function, lir.Integer, lir.Size32)
	vc := factory.NewVReg(function, lir.Integer, lir.Size32)
	vd := factory.NewVReg(function, lir.Integer, lir.Size32)
	eax := lir.GetRegister(lir.EAX)

	body := editor.NewBasicBlock(editor.ExitBlock())
	editor.Edit(body)
	editor.Append(factory.NewLit(va, factory.NewInt32Literal(function, 1)))
	editor.Append(factory.NewLit(vb, factory.NewInt32Literal(function, 2)))
	editor.Append(factory.NewAdd(vt, va, vb))
	call := factory.NewCall([]lir.Value{eax}, factory.NewStringLiteral(function, "foo"))
	editor.Append(call)
	editor.Append(factory.NewCopy(vc, eax))
	editor.Append(factory.NewAdd(vd, vt, vc))
	editor.Append(factory.NewCopy(eax, vd))
	editor.SetRet()
	if !editor.Commit() {
		t.Fatalf("commit failed: %v", factory.Errors())
	}

	editor.Edit(function.EntryBlock())
	editor.SetJump(body)
	editor.Commit()

	pass := NewRegisterAssignmentsPass(editor)
	runPasses(t, editor, NewX64LoweringPass(editor), pass)

	// No virtual register survives allocation.
	for _, block := range function.BasicBlocks() {
		for _, instr := range block.Instructions() {
			for _, output := range instr.Outputs() {
				if output.IsVirtual() {
					t.Fatalf("unallocated output in %v", instr)
				}
			}
			for _, input := range instr.Inputs() {
				if input.IsVirtual() {
					t.Fatalf("unallocated input in %v", instr)
				}
			}
		}
	}

	stores, loads := countSpillTraffic(function)
	if stores != 1 || loads != 1 {
		t.Fatalf("Expect one store-load pair, got %d stores and %d loads\n%v",
			stores, loads, function)
	}
	if len(pass.Assignments().StackSlotMap()) != 1 {
		t.Fatalf("Expect one spill slot, got %v", pass.Assignments().StackSlotMap())
	}
	if pass.StackAssignments().NumberOfCalls() != 1 {
		t.Fatalf("Expect one recorded call")
	}
}

// Six simultaneously live values are allocated to registers without any
// spill traffic, and the allocated function still validates.
func TestRegisterAllocationFeasibility(t *testing.T) {
	factory, function, editor := newPipelineFunction(t)

	const count = 6
	vregs := make([]lir.Value, count)
	body := editor.NewBasicBlock(editor.ExitBlock())
	editor.Edit(body)
	for i := range vregs {
		vregs[i] = factory.NewVReg(function, lir.Integer, lir.Size32)
		editor.Append(factory.NewLit(vregs[i],
			factory.NewInt32Literal(function, int32(i))))
	}
	// Sum them up so all stay live until their use.
	sum := vregs[0]
	for i := 1; i < count; i++ {
		next := factory.NewVReg(function, lir.Integer, lir.Size32)
		editor.Append(factory.NewAdd(next, sum, vregs[i]))
		sum = next
	}
	editor.Append(factory.NewCopy(lir.GetRegister(lir.EAX), sum))
	editor.SetRet()
	editor.Commit()

	editor.Edit(function.EntryBlock())
	editor.SetJump(body)
	editor.Commit()

	pass := NewRegisterAssignmentsPass(editor)
	runPasses(t, editor, NewX64LoweringPass(editor), pass)

	// Only validity and the absence of spill stores/loads are checked here;
	// the physical registers chosen for each value are not inspected.
	if !editor.Validate() {
		t.Fatalf("function invalid after allocation: %v", factory.Errors())
	}
	stores, loads := countSpillTraffic(function)
	if stores != 0 || loads != 0 {
		t.Fatalf("six values fit in registers, got %d stores %d loads",
			stores, loads)
	}
}
