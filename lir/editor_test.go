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
package lir

import (
	"testing"
)

func newSampleFunction() (*Factory, *Function, *Editor) {
	factory := NewFactory()
	function := factory.NewFunction("sample")
	editor := NewEditor(factory, function)
	return factory, function, editor
}

func MustValidate(t *testing.T, editor *Editor) {
	t.Helper()
	if !editor.Validate() {
		t.Fatalf("Expect valid function, got %v", editor.Factory().Errors())
	}
}

func MustHaveError(t *testing.T, factory *Factory, code ErrorCode) {
	t.Helper()
	for _, err := range factory.Errors() {
		if err.Code == code {
			return
		}
	}
	t.Fatalf("Expect %v, got %v", code, factory.Errors())
}

func TestNewFunctionShape(t *testing.T) {
	_, function, editor := newSampleFunction()
	if len(function.BasicBlocks()) != 2 {
		t.Fatalf("Expect entry and exit, got %d blocks", len(function.BasicBlocks()))
	}
	entry := function.EntryBlock()
	exit := function.ExitBlock()
	if entry.FirstInstruction().Opcode() != OpEntry {
		t.Fatalf("entry block must start with entry")
	}
	if exit.LastInstruction().Opcode() != OpExit {
		t.Fatalf("exit block must end with exit")
	}
	if !entry.HasSuccessor(exit) || !exit.HasPredecessor(entry) {
		t.Fatalf("entry must fall to exit")
	}
	MustValidate(t, editor)
}

func TestEditorNewBasicBlock(t *testing.T) {
	_, function, editor := newSampleFunction()
	block := editor.NewBasicBlock(editor.ExitBlock())

	editor.Edit(block)
	editor.SetRet()
	if !editor.Commit() {
		t.Fatalf("commit failed: %v", editor.Factory().Errors())
	}

	editor.Edit(function.EntryBlock())
	editor.SetJump(block)
	if !editor.Commit() {
		t.Fatalf("commit failed: %v", editor.Factory().Errors())
	}

	if !function.EntryBlock().HasSuccessor(block) {
		t.Fatalf("entry must jump to the new block")
	}
	if !block.HasSuccessor(editor.ExitBlock()) {
		t.Fatalf("ret must keep the pseudo edge to exit")
	}
	MustValidate(t, editor)
}

func TestEditorBranchWiring(t *testing.T) {
	factory, function, editor := newSampleFunction()
	thenBlock := editor.NewBasicBlock(editor.ExitBlock())
	elseBlock := editor.NewBasicBlock(editor.ExitBlock())

	for _, block := range []*BasicBlock{thenBlock, elseBlock} {
		editor.Edit(block)
		editor.SetRet()
		editor.Commit()
	}

	condition := factory.NewCondition(function)
	left := factory.NewVReg(function, Integer, Size32)
	editor.Edit(function.EntryBlock())
	editor.Append(factory.NewLit(left, factory.NewInt32Literal(function, 1)))
	editor.Append(factory.NewCmp(CondEqual, condition, left, SmallInt32(0)))
	editor.SetBranch(condition, thenBlock, elseBlock)
	if !editor.Commit() {
		t.Fatalf("commit failed: %v", editor.Factory().Errors())
	}

	entry := function.EntryBlock()
	if !entry.HasSuccessor(thenBlock) || !entry.HasSuccessor(elseBlock) {
		t.Fatalf("branch must wire both successors")
	}
	if entry.HasSuccessor(editor.ExitBlock()) {
		t.Fatalf("replacing the terminator must unwire the old successor")
	}
	MustValidate(t, editor)
}

func TestValidatorCatchesDoubleDefinition(t *testing.T) {
	factory, function, editor := newSampleFunction()
	vreg := factory.NewVReg(function, Integer, Size32)

	editor.Edit(function.EntryBlock())
	editor.Append(factory.NewLit(vreg, factory.NewInt32Literal(function, 1)))
	editor.Append(factory.NewLit(vreg, factory.NewInt32Literal(function, 2)))
	editor.Commit()

	if editor.Validate() {
		t.Fatalf("Expect SSA violation")
	}
	MustHaveError(t, factory, ErrorValidateInstructionOutput)
}

func TestValidatorCatchesMissingTerminator(t *testing.T) {
	factory, _, editor := newSampleFunction()
	block := editor.NewBasicBlock(editor.ExitBlock())

	editor.Edit(block)
	block.instructions = append(block.instructions,
		&Instruction{id: 99, opcode: OpCopy,
			outputs: []Value{GetRegister(EAX)},
			inputs:  []Value{GetRegister(ECX)},
			basicBlock: block})
	if editor.Commit() {
		t.Fatalf("Expect terminator validation failure")
	}
	MustHaveError(t, factory, ErrorValidateBasicBlockTerminator)
}

func TestPhiValidation(t *testing.T) {
	factory, function, editor := newSampleFunction()
	left := editor.NewBasicBlock(editor.ExitBlock())
	right := editor.NewBasicBlock(editor.ExitBlock())
	merge := editor.NewBasicBlock(editor.ExitBlock())

	v1 := factory.NewVReg(function, Integer, Size32)
	v2 := factory.NewVReg(function, Integer, Size32)

	editor.Edit(left)
	editor.Append(factory.NewLit(v1, factory.NewInt32Literal(function, 1)))
	editor.SetJump(merge)
	editor.Commit()

	editor.Edit(right)
	editor.Append(factory.NewLit(v2, factory.NewInt32Literal(function, 2)))
	editor.SetJump(merge)
	editor.Commit()

	condition := factory.NewCondition(function)
	seed := factory.NewVReg(function, Integer, Size32)
	editor.Edit(function.EntryBlock())
	editor.Append(factory.NewLit(seed, factory.NewInt32Literal(function, 0)))
	editor.Append(factory.NewCmp(CondEqual, condition, seed, SmallInt32(0)))
	editor.SetBranch(condition, left, right)
	editor.Commit()

	phiOut := factory.NewVReg(function, Integer, Size32)
	editor.Edit(merge)
	phi := editor.NewPhi(phiOut)
	editor.SetPhiInput(phi, left, v1)
	editor.SetPhiInput(phi, right, v2)
	editor.SetRet()
	if !editor.Commit() {
		t.Fatalf("commit failed: %v", editor.Factory().Errors())
	}
	MustValidate(t, editor)

	// Dropping one phi operand must be caught.
	phi.phiOperands = phi.phiOperands[:1]
	if editor.Validate() {
		t.Fatalf("Expect phi operand validation failure")
	}
	MustHaveError(t, factory, ErrorValidatePhiCount)
}

func TestDominatorTree(t *testing.T) {
	factory, function, editor := newSampleFunction()
	left := editor.NewBasicBlock(editor.ExitBlock())
	right := editor.NewBasicBlock(editor.ExitBlock())
	merge := editor.NewBasicBlock(editor.ExitBlock())

	for _, block := range []*BasicBlock{left, right} {
		editor.Edit(block)
		editor.SetJump(merge)
		editor.Commit()
	}
	editor.Edit(merge)
	editor.SetRet()
	editor.Commit()

	condition := factory.NewCondition(function)
	seed := factory.NewVReg(function, Integer, Size32)
	editor.Edit(function.EntryBlock())
	editor.Append(factory.NewLit(seed, factory.NewInt32Literal(function, 0)))
	editor.Append(factory.NewCmp(CondEqual, condition, seed, SmallInt32(0)))
	editor.SetBranch(condition, left, right)
	editor.Commit()

	entry := function.EntryBlock()
	domTree := editor.ComputeDominatorTree()
	if !domTree.Dominates(entry, merge) {
		t.Fatalf("entry must dominate the merge")
	}
	if domTree.Dominates(left, merge) || domTree.Dominates(right, merge) {
		t.Fatalf("branch arms must not dominate the merge")
	}
	if domTree.TreeNodeOf(merge).Parent().Block() != entry {
		t.Fatalf("idom of the merge must be entry")
	}

	postDomTree := editor.BuildPostDominatorTree()
	if !postDomTree.Dominates(merge, left) {
		t.Fatalf("merge must post-dominate the left arm")
	}
	if !postDomTree.Dominates(function.ExitBlock(), entry) {
		t.Fatalf("exit must post-dominate entry")
	}
}

func TestUseDefList(t *testing.T) {
	factory, function, editor := newSampleFunction()
	v1 := factory.NewVReg(function, Integer, Size32)
	v2 := factory.NewVReg(function, Integer, Size32)

	editor.Edit(function.EntryBlock())
	editor.Append(factory.NewLit(v1, factory.NewInt32Literal(function, 7)))
	add := factory.NewAdd(v2, v1, SmallInt32(1))
	editor.Append(add)
	editor.Commit()

	useDefList := NewUseDefListBuilder(function).Build()
	users := useDefList.UsersOf(v1)
	if len(users) != 1 || users[0] != add {
		t.Fatalf("Expect the add to use %v, got %v", v1, users)
	}
	if len(useDefList.UsersOf(v2)) != 0 {
		t.Fatalf("%v has no users", v2)
	}
}
