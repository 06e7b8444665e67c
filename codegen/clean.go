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
	"elang/lir"
)

// -----------------------------------------------------------------------------
// CleanPass eliminates useless control flow based on the algorithm in
// "Engineering a Compiler" (Cooper, Torczon), iterated to a fixpoint:
//   1 fold a redundant branch
//   2 remove an empty block
//   3 combine a block with its single predecessor
//   4 hoist a branch into a jumping predecessor

type CleanPass struct {
	editor  *lir.Editor
	changed bool
}

func NewCleanPass(editor *lir.Editor) *CleanPass {
	return &CleanPass{editor: editor}
}

func (p *CleanPass) Name() string { return "clean" }

func (p *CleanPass) Run() {
	p.changed = true
	for p.changed {
		p.changed = false
		p.clean()
	}
}

func (p *CleanPass) clean() {
	function := p.editor.Function()
	blocks := append([]*lir.BasicBlock(nil), function.BasicBlocks()...)
	for _, block := range blocks {
		last := block.LastInstruction()
		if last == nil {
			continue
		}
		switch last.Opcode() {
		case lir.OpBranch:
			p.cleanBranch(block, last)
		case lir.OpJump:
			p.cleanJump(block, last)
		}
	}
}

// cleanBranch folds a conditional branch whose targets coincide into an
// unconditional jump.
func (p *CleanPass) cleanBranch(block *lir.BasicBlock, branch *lir.Instruction) {
	trueBlock := branch.BlockOperand(0)
	falseBlock := branch.BlockOperand(1)
	if trueBlock != falseBlock {
		return
	}
	p.editor.Edit(block)
	p.editor.SetJump(trueBlock)
	p.editor.Commit()
	p.changed = true
}

func (p *CleanPass) cleanJump(block *lir.BasicBlock, jump *lir.Instruction) {
	target := jump.BlockOperand(0)
	function := p.editor.Function()

	// 2 An empty block that only jumps is removed by threading its
	// predecessors to the target. Phi blocks keep their landing sites.
	if block != function.EntryBlock() &&
		len(block.Instructions()) == 1 &&
		len(block.PhiInstructions()) == 0 &&
		len(target.PhiInstructions()) == 0 {
		preds := append([]*lir.BasicBlock(nil), block.Predecessors()...)
		for _, pred := range preds {
			terminator := pred.LastInstruction()
			p.editor.Edit(pred)
			for position, operand := range terminator.BlockOperands() {
				if operand == block {
					p.editor.SetBlockOperand(terminator, position, target)
				}
			}
			p.editor.Commit()
		}
		if len(block.Predecessors()) == 0 {
			p.editor.RemoveAllInstructions(block)
			p.editor.RemoveBasicBlock(block)
			p.changed = true
			return
		}
	}

	// 3 Combine with the single successor when we are its only
	// predecessor.
	if target != function.ExitBlock() &&
		len(target.Predecessors()) == 1 &&
		target.Predecessors()[0] == block &&
		len(target.PhiInstructions()) == 0 {
		moved := p.editor.RemoveAllInstructions(target)

		p.editor.Edit(block)
		p.editor.Remove(jump)
		for _, instr := range moved {
			if instr.IsTerminator() {
				break
			}
			p.editor.Append(instr)
		}
		terminator := moved[len(moved)-1]
		switch terminator.Opcode() {
		case lir.OpJump:
			p.editor.SetJump(terminator.BlockOperand(0))
		case lir.OpBranch:
			p.editor.SetBranch(terminator.Input(0),
				terminator.BlockOperand(0), terminator.BlockOperand(1))
		case lir.OpRet:
			p.editor.SetRet()
		}
		p.editor.Commit()
		p.editor.RemoveBasicBlock(target)
		p.changed = true
		return
	}

	// 4 Hoist a branch out of an otherwise empty target.
	if len(target.Instructions()) == 1 &&
		target.LastInstruction().Opcode() == lir.OpBranch &&
		target != block {
		branch := target.LastInstruction()
		p.editor.Edit(block)
		p.editor.SetBranch(branch.Input(0),
			branch.BlockOperand(0), branch.BlockOperand(1))
		p.editor.Commit()
		p.changed = true
	}
}
