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

// A branch whose arms coincide folds into a jump.
func TestCleanFoldsRedundantBranch(t *testing.T) {
	factory := lir.NewFactory()
	function := factory.NewFunction("sample")
	editor := lir.NewEditor(factory, function)

	target := editor.NewBasicBlock(editor.ExitBlock())
	editor.Edit(target)
	editor.SetRet()
	editor.Commit()

	// A second predecessor keeps the target from merging away.
	side := editor.NewBasicBlock(editor.ExitBlock())
	editor.Edit(side)
	editor.Append(factory.NewCopy(lir.GetRegister(lir.EAX), lir.GetRegister(lir.ECX)))
	editor.SetJump(target)
	editor.Commit()

	seed := factory.NewVReg(function, lir.Integer, lir.Size32)
	condition := factory.NewCondition(function)
	editor.Edit(function.EntryBlock())
	editor.Append(factory.NewLit(seed, factory.NewInt32Literal(function, 0)))
	editor.Append(factory.NewCmp(lir.CondEqual, condition, seed, lir.SmallInt32(0)))
	editor.SetBranch(condition, target, target)
	editor.Commit()

	runPasses(t, editor, NewCleanPass(editor))

	last := function.EntryBlock().LastInstruction()
	if last.Opcode() != lir.OpJump || last.BlockOperand(0) != target {
		t.Fatalf("Expect folded jump, got %v", last)
	}
}

// A block that only jumps disappears; its predecessors thread through.
func TestCleanRemovesEmptyBlock(t *testing.T) {
	factory := lir.NewFactory()
	function := factory.NewFunction("sample")
	editor := lir.NewEditor(factory, function)

	hop := editor.NewBasicBlock(editor.ExitBlock())
	target := editor.NewBasicBlock(editor.ExitBlock())

	editor.Edit(target)
	editor.SetRet()
	editor.Commit()

	// A second predecessor keeps the target from merging away.
	side := editor.NewBasicBlock(editor.ExitBlock())
	editor.Edit(side)
	editor.Append(factory.NewCopy(lir.GetRegister(lir.EAX), lir.GetRegister(lir.ECX)))
	editor.SetJump(target)
	editor.Commit()

	editor.Edit(hop)
	editor.SetJump(target)
	editor.Commit()

	editor.Edit(function.EntryBlock())
	editor.SetJump(hop)
	editor.Commit()

	before := len(function.BasicBlocks())
	runPasses(t, editor, NewCleanPass(editor))

	if len(function.BasicBlocks()) >= before {
		t.Fatalf("Expect the hop block to disappear\n%v", function)
	}
	if !function.EntryBlock().HasSuccessor(target) {
		t.Fatalf("entry must thread to the target")
	}
}

// A block combines with its single predecessor when that predecessor only
// falls into it.
func TestCleanCombinesBlocks(t *testing.T) {
	factory := lir.NewFactory()
	function := factory.NewFunction("sample")
	editor := lir.NewEditor(factory, function)

	tail := editor.NewBasicBlock(editor.ExitBlock())
	editor.Edit(tail)
	editor.Append(factory.NewCopy(lir.GetRegister(lir.EAX), lir.GetRegister(lir.ECX)))
	editor.SetRet()
	editor.Commit()

	editor.Edit(function.EntryBlock())
	editor.SetJump(tail)
	editor.Commit()

	runPasses(t, editor, NewCleanPass(editor))

	entry := function.EntryBlock()
	if entry.LastInstruction().Opcode() != lir.OpRet {
		t.Fatalf("Expect the tail merged into entry\n%v", function)
	}
	found := false
	for _, instr := range entry.Instructions() {
		if instr.Opcode() == lir.OpCopy {
			found = true
		}
	}
	if !found {
		t.Fatalf("Expect the tail body hoisted into entry\n%v", function)
	}
}
