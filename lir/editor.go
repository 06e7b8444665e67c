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
	"elang/utils"
)

// -----------------------------------------------------------------------------
// Editor
// The editor is the sole mutator of CFG structure. Mutations happen inside
// an Edit(block)/Commit transaction; Commit validates the block and assigns
// instruction indices. Derived analyses (dominator trees) are cached and
// recomputed lazily after control flow changes.

type Editor struct {
	factory  *Factory
	function *Function

	basicBlock *BasicBlock

	domTree     *DominatorTree
	postDomTree *DominatorTree
}

func NewEditor(factory *Factory, function *Function) *Editor {
	return &Editor{factory: factory, function: function}
}

func (e *Editor) Factory() *Factory     { return e.factory }
func (e *Editor) Function() *Function   { return e.function }
func (e *Editor) EntryBlock() *BasicBlock { return e.function.entryBlock }
func (e *Editor) ExitBlock() *BasicBlock  { return e.function.exitBlock }

// Edit opens a transaction scoped to |block|.
func (e *Editor) Edit(block *BasicBlock) {
	utils.Assert(e.basicBlock == nil, "editor already has an open transaction")
	utils.Assert(block.function == e.function, "%v is not in %s", block, e.function.name)
	e.basicBlock = block
}

// Commit validates the edited block and closes the transaction. On failure
// the found problems are queued as ErrorData on the factory and false is
// returned.
func (e *Editor) Commit() bool {
	utils.Assert(e.basicBlock != nil, "editor has no open transaction")
	block := e.basicBlock
	e.basicBlock = nil
	renumber(block)
	validator := NewValidator(e)
	return validator.ValidateBlock(block)
}

// Validate runs whole-function validation outside of a transaction.
func (e *Editor) Validate() bool {
	utils.Assert(e.basicBlock == nil, "editor has an open transaction")
	validator := NewValidator(e)
	return validator.ValidateFunction(e.function)
}

func (e *Editor) didChangeControlFlow() {
	e.domTree = nil
	e.postDomTree = nil
}

// -----------------------------------------------------------------------------
// Block editing

// NewBasicBlock creates a block and places it in layout order before
// |before|.
func (e *Editor) NewBasicBlock(before *BasicBlock) *BasicBlock {
	utils.Assert(before != nil, "new block wants a placement anchor")
	block := e.factory.NewBasicBlockFor(e.function)
	blocks := e.function.blocks
	for i, candidate := range blocks {
		if candidate == before {
			blocks = append(blocks[:i], append([]*BasicBlock{block}, blocks[i:]...)...)
			e.function.blocks = blocks
			e.didChangeControlFlow()
			return block
		}
	}
	utils.Fatal("%v is not placed in %s", before, e.function.name)
	return nil
}

// RemoveBasicBlock removes an unreferenced block from the layout.
func (e *Editor) RemoveBasicBlock(block *BasicBlock) {
	utils.Assert(len(block.predecessors) == 0, "%v still has predecessors", block)
	utils.Assert(len(block.successors) == 0, "%v still has successors", block)
	blocks := e.function.blocks
	for i, candidate := range blocks {
		if candidate == block {
			e.function.blocks = append(blocks[:i], blocks[i+1:]...)
			e.didChangeControlFlow()
			return
		}
	}
	utils.Fatal("%v is not placed in %s", block, e.function.name)
}

// -----------------------------------------------------------------------------
// Instruction editing

// Append places |instr| at the end of the edited block, before the
// terminator when one is present.
func (e *Editor) Append(instr *Instruction) {
	block := e.basicBlock
	utils.Assert(block != nil, "editor has no open transaction")
	utils.Assert(!instr.IsTerminator(), "terminators go through SetTerminator")
	last := block.LastInstruction()
	if last != nil && last.IsTerminator() {
		e.insertBeforeIn(block, instr, last)
		return
	}
	e.factory.appendInstruction(block, instr)
}

// InsertBefore places |instr| immediately before |ref| in the edited block.
func (e *Editor) InsertBefore(instr, ref *Instruction) {
	block := e.basicBlock
	utils.Assert(block != nil, "editor has no open transaction")
	utils.Assert(ref.basicBlock == block, "%v is not in the edited block", ref)
	e.insertBeforeIn(block, instr, ref)
}

func (e *Editor) insertBeforeIn(block *BasicBlock, instr, ref *Instruction) {
	utils.Assert(instr.basicBlock == nil, "%v is already placed", instr)
	if instr.id < 0 {
		instr.id = block.function.nextInstructionId
		block.function.nextInstructionId++
	}
	for i, candidate := range block.instructions {
		if candidate == ref {
			instr.basicBlock = block
			block.instructions = append(block.instructions[:i],
				append([]*Instruction{instr}, block.instructions[i:]...)...)
			return
		}
	}
	utils.Fatal("%v is not placed in %v", ref, block)
}

// Remove unlinks |instr| from the edited block. Removing a terminator also
// unwires its successor edges.
func (e *Editor) Remove(instr *Instruction) {
	block := e.basicBlock
	utils.Assert(block != nil, "editor has no open transaction")
	utils.Assert(instr.basicBlock == block, "%v is not in the edited block", instr)
	if instr.IsTerminator() {
		for _, succ := range instr.blockOperands {
			unwireEdge(block, succ)
		}
		e.didChangeControlFlow()
	}
	for i, candidate := range block.instructions {
		if candidate == instr {
			block.instructions = append(block.instructions[:i], block.instructions[i+1:]...)
			instr.basicBlock = nil
			return
		}
	}
	utils.Fatal("%v is not placed in %v", instr, block)
}

// RemoveAllInstructions detaches every instruction of |block|, unwiring
// terminator edges; used when a block is combined away. The block is left
// empty and must be removed or refilled before validation.
func (e *Editor) RemoveAllInstructions(block *BasicBlock) []*Instruction {
	utils.Assert(e.basicBlock == nil, "editor has an open transaction")
	instructions := block.instructions
	for _, instr := range instructions {
		if instr.IsTerminator() {
			for _, succ := range instr.blockOperands {
				unwireEdge(block, succ)
			}
		}
		instr.basicBlock = nil
	}
	block.instructions = nil
	e.didChangeControlFlow()
	return instructions
}

// BulkRemoveInstructions removes instructions outside of a transaction,
// e.g. copies that became no-ops after register assignment.
func (e *Editor) BulkRemoveInstructions(instructions []*Instruction) {
	for _, instr := range instructions {
		block := instr.basicBlock
		if block == nil {
			continue
		}
		e.Edit(block)
		e.Remove(instr)
		e.Commit()
	}
}

func (e *Editor) SetOutput(instr *Instruction, position int, value Value) {
	utils.Assert(position >= 0 && position < len(instr.outputs),
		"output %d out of range for %v", position, instr)
	instr.outputs[position] = value
}

// AddOutput appends an output operand, used when lowering grows an
// instruction's clobber set.
func (e *Editor) AddOutput(instr *Instruction, value Value) {
	instr.outputs = append(instr.outputs, value)
}

func (e *Editor) SetInput(instr *Instruction, position int, value Value) {
	utils.Assert(position >= 0 && position < len(instr.inputs),
		"input %d out of range for %v", position, instr)
	instr.inputs[position] = value
}

// -----------------------------------------------------------------------------
// Terminators
// Setting a terminator replaces the current one and rewires successor
// edges.

func (e *Editor) setTerminator(instr *Instruction) {
	block := e.basicBlock
	utils.Assert(block != nil, "editor has no open transaction")
	last := block.LastInstruction()
	if last != nil && last.IsTerminator() {
		e.Remove(last)
	}
	for _, succ := range instr.blockOperands {
		wireEdge(block, succ)
	}
	e.factory.appendInstruction(block, instr)
	e.didChangeControlFlow()
}

func (e *Editor) SetJump(target *BasicBlock) *Instruction {
	instr := e.factory.NewJump(target)
	e.setTerminator(instr)
	return instr
}

func (e *Editor) SetBranch(condition Value, trueBlock, falseBlock *BasicBlock) *Instruction {
	instr := e.factory.NewBranch(condition, trueBlock, falseBlock)
	e.setTerminator(instr)
	return instr
}

// SetRet installs a 'ret' terminator. Return blocks carry a pseudo edge to
// the exit block so the post-dominator tree has a single root.
func (e *Editor) SetRet() *Instruction {
	instr := e.factory.NewRet()
	instr.blockOperands = []*BasicBlock{e.function.exitBlock}
	e.setTerminator(instr)
	return instr
}

// SetBlockOperand redirects one successor edge of a terminator.
func (e *Editor) SetBlockOperand(instr *Instruction, position int, target *BasicBlock) {
	block := e.basicBlock
	utils.Assert(block != nil, "editor has no open transaction")
	utils.Assert(instr.basicBlock == block, "%v is not in the edited block", instr)
	utils.Assert(position >= 0 && position < len(instr.blockOperands),
		"block operand %d out of range for %v", position, instr)
	old := instr.blockOperands[position]
	instr.blockOperands[position] = target
	// Keep the edge to |old| when another operand still names it.
	stillUsed := false
	for _, succ := range instr.blockOperands {
		if succ == old {
			stillUsed = true
		}
	}
	if !stillUsed {
		unwireEdge(block, old)
	}
	wireEdge(block, target)
	e.didChangeControlFlow()
}

// -----------------------------------------------------------------------------
// Phi editing

// NewPhi places a phi binding |output| at the head of the edited block.
func (e *Editor) NewPhi(output Value) *Instruction {
	block := e.basicBlock
	utils.Assert(block != nil, "editor has no open transaction")
	phi := e.factory.NewPhi(output)
	phi.id = block.function.nextInstructionId
	block.function.nextInstructionId++
	phi.basicBlock = block
	block.instructions = append([]*Instruction{phi}, block.instructions...)
	return phi
}

// SetPhiInput binds the value flowing into |phi| along the edge from
// |predecessor|.
func (e *Editor) SetPhiInput(phi *Instruction, predecessor *BasicBlock, value Value) {
	utils.Assert(phi.IsPhi(), "%v is not a phi", phi)
	for i, operand := range phi.phiOperands {
		if operand.Block == predecessor {
			phi.phiOperands[i].Value = value
			return
		}
	}
	phi.phiOperands = append(phi.phiOperands, PhiOperand{Block: predecessor, Value: value})
}

// ReplacePhiInputBlock moves phi operands of |block|'s phis from
// |oldPredecessor| to |newPredecessor|, used when an edge is split.
func (e *Editor) ReplacePhiInputBlock(block, oldPredecessor, newPredecessor *BasicBlock) {
	for _, phi := range block.PhiInstructions() {
		for i, operand := range phi.phiOperands {
			if operand.Block == oldPredecessor {
				phi.phiOperands[i].Block = newPredecessor
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Derived analyses

// ComputeDominatorTree returns the dominator tree, rebuilt after control
// flow changes.
func (e *Editor) ComputeDominatorTree() *DominatorTree {
	if e.domTree == nil {
		e.domTree = buildDominatorTree(e.function, false)
	}
	return e.domTree
}

// BuildPostDominatorTree returns the post-dominator tree, rebuilt after
// control flow changes.
func (e *Editor) BuildPostDominatorTree() *DominatorTree {
	if e.postDomTree == nil {
		e.postDomTree = buildDominatorTree(e.function, true)
	}
	return e.postDomTree
}
