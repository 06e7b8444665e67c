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

// A counting loop: the phi carries the counter around the back edge.
//
//   entry:  jump header
//   header: v = phi(entry: 0, latch: v2); cmp v, 10; br done, latch
//   latch:  v2 = v + 1; jump header
//   done:   EAX = v; ret
func buildLoopFunction(t *testing.T) (*lir.Factory, *lir.Function, *lir.Editor) {
	t.Helper()
	factory := lir.NewFactory()
	function := factory.NewFunction("loop")
	editor := lir.NewEditor(factory, function)

	header := editor.NewBasicBlock(editor.ExitBlock())
	latch := editor.NewBasicBlock(editor.ExitBlock())
	done := editor.NewBasicBlock(editor.ExitBlock())

	v := factory.NewVReg(function, lir.Integer, lir.Size32)
	v2 := factory.NewVReg(function, lir.Integer, lir.Size32)
	condition := factory.NewCondition(function)

	editor.Edit(function.EntryBlock())
	editor.SetJump(header)
	editor.Commit()

	editor.Edit(latch)
	editor.Append(factory.NewAdd(v2, v, lir.SmallInt32(1)))
	editor.SetJump(header)
	editor.Commit()

	editor.Edit(done)
	editor.Append(factory.NewCopy(lir.GetRegister(lir.EAX), v))
	editor.SetRet()
	editor.Commit()

	editor.Edit(header)
	phi := editor.NewPhi(v)
	editor.SetPhiInput(phi, function.EntryBlock(), lir.SmallInt32(0))
	editor.SetPhiInput(phi, latch, v2)
	editor.Append(factory.NewCmp(lir.CondGreaterOrEqual, condition, v,
		lir.SmallInt32(10)))
	editor.SetBranch(condition, done, latch)
	if !editor.Commit() {
		t.Fatalf("commit failed: %v", factory.Errors())
	}
	return factory, function, editor
}

func TestPhiExpansionOnLoop(t *testing.T) {
	factory, function, editor := buildLoopFunction(t)
	runPasses(t, editor,
		NewX64LoweringPass(editor),
		NewRemoveCriticalEdgesPass(editor),
		NewRegisterAssignmentsPass(editor))

	// Phi instructions are gone; their bindings became copies on the
	// incoming edges.
	for _, block := range function.BasicBlocks() {
		if len(block.PhiInstructions()) != 0 {
			t.Fatalf("phi survived allocation in %v\n%v", block, function)
		}
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
	if !editor.Validate() {
		t.Fatalf("function invalid after expansion: %v", factory.Errors())
	}

	// The entry edge must seed the phi register with the constant.
	entrySeed := false
	for _, instr := range function.EntryBlock().Instructions() {
		if instr.Opcode() == lir.OpCopy && instr.Input(0) == lir.SmallInt32(0) {
			entrySeed = true
		}
	}
	if !entrySeed {
		t.Fatalf("entry edge must initialize the phi register\n%v", function)
	}
}

// A branch going straight into a phi block is a critical edge and gets an
// intermediate block.
//
//   entry: br merge, other
//   other: jump merge
//   merge: v = phi(entry: 1, other: 2); EAX = v; ret
func TestCriticalEdgeSplitting(t *testing.T) {
	factory := lir.NewFactory()
	function := factory.NewFunction("diamond")
	editor := lir.NewEditor(factory, function)

	other := editor.NewBasicBlock(editor.ExitBlock())
	merge := editor.NewBasicBlock(editor.ExitBlock())

	v := factory.NewVReg(function, lir.Integer, lir.Size32)
	seed := factory.NewVReg(function, lir.Integer, lir.Size32)
	condition := factory.NewCondition(function)

	editor.Edit(other)
	editor.SetJump(merge)
	editor.Commit()

	editor.Edit(function.EntryBlock())
	editor.Append(factory.NewLit(seed, factory.NewInt32Literal(function, 0)))
	editor.Append(factory.NewCmp(lir.CondEqual, condition, seed, lir.SmallInt32(0)))
	editor.SetBranch(condition, merge, other)
	editor.Commit()

	editor.Edit(merge)
	phi := editor.NewPhi(v)
	editor.SetPhiInput(phi, function.EntryBlock(), lir.SmallInt32(1))
	editor.SetPhiInput(phi, other, lir.SmallInt32(2))
	editor.Append(factory.NewCopy(lir.GetRegister(lir.EAX), v))
	editor.SetRet()
	if !editor.Commit() {
		t.Fatalf("commit failed: %v", factory.Errors())
	}

	runPasses(t, editor, NewRemoveCriticalEdgesPass(editor))

	for _, pred := range merge.Predecessors() {
		if len(pred.Successors()) != 1 {
			t.Fatalf("critical edge %v->%v survived", pred, merge)
		}
	}
	for _, phi := range merge.PhiInstructions() {
		for _, operand := range phi.PhiOperands() {
			if !merge.HasPredecessor(operand.Block) {
				t.Fatalf("phi operand %v is not a predecessor", operand.Block)
			}
		}
	}
}
