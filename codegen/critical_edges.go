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
// RemoveCriticalEdgesPass
// Splits every edge pred->block where block carries phi instructions and
// pred has multiple successors, so phi-to-copy inversion gets an exclusive
// landing site per predecessor.

type RemoveCriticalEdgesPass struct {
	editor *lir.Editor
}

func NewRemoveCriticalEdgesPass(editor *lir.Editor) *RemoveCriticalEdgesPass {
	return &RemoveCriticalEdgesPass{editor: editor}
}

func (p *RemoveCriticalEdgesPass) Name() string { return "remove_critical_edges" }

func (p *RemoveCriticalEdgesPass) Run() {
	type criticalEdge struct {
		predecessor *lir.BasicBlock
		block       *lir.BasicBlock
	}
	var edges []criticalEdge
	for _, block := range p.editor.Function().BasicBlocks() {
		if len(block.PhiInstructions()) == 0 {
			continue
		}
		for _, pred := range block.Predecessors() {
			if len(pred.Successors()) < 2 {
				continue
			}
			edges = append(edges, criticalEdge{predecessor: pred, block: block})
		}
	}

	for _, edge := range edges {
		p.splitEdge(edge.predecessor, edge.block)
	}
}

func (p *RemoveCriticalEdgesPass) splitEdge(pred, block *lir.BasicBlock) {
	newBlock := p.editor.NewBasicBlock(block)
	p.editor.Edit(newBlock)
	p.editor.SetJump(block)
	p.editor.Commit()

	terminator := pred.LastInstruction()
	p.editor.Edit(pred)
	for position, operand := range terminator.BlockOperands() {
		if operand == block {
			p.editor.SetBlockOperand(terminator, position, newBlock)
		}
	}
	p.editor.Commit()

	p.editor.ReplacePhiInputBlock(block, pred, newBlock)
}
