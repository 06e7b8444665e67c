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
	"fmt"
)

// -----------------------------------------------------------------------------
// BasicBlock
// A basic block owns an ordered instruction list. Phi instructions form a
// contiguous prefix; the last instruction is the terminator.

type BasicBlock struct {
	id       int
	function *Function

	instructions []*Instruction
	predecessors []*BasicBlock
	successors   []*BasicBlock
}

func (b *BasicBlock) Id() int             { return b.id }
func (b *BasicBlock) Function() *Function { return b.function }

func (b *BasicBlock) Instructions() []*Instruction { return b.instructions }
func (b *BasicBlock) Predecessors() []*BasicBlock  { return b.predecessors }
func (b *BasicBlock) Successors() []*BasicBlock    { return b.successors }

func (b *BasicBlock) FirstInstruction() *Instruction {
	if len(b.instructions) == 0 {
		return nil
	}
	return b.instructions[0]
}

func (b *BasicBlock) LastInstruction() *Instruction {
	if len(b.instructions) == 0 {
		return nil
	}
	return b.instructions[len(b.instructions)-1]
}

// PhiInstructions returns the phi prefix of this block.
func (b *BasicBlock) PhiInstructions() []*Instruction {
	end := 0
	for end < len(b.instructions) && b.instructions[end].IsPhi() {
		end++
	}
	return b.instructions[:end]
}

// FirstNonPhi returns the first instruction after the phi prefix.
func (b *BasicBlock) FirstNonPhi() *Instruction {
	for _, instr := range b.instructions {
		if !instr.IsPhi() {
			return instr
		}
	}
	return nil
}

// Next returns the block after this one in function layout order, or nil.
func (b *BasicBlock) Next() *BasicBlock {
	blocks := b.function.blocks
	for i, block := range blocks {
		if block == b && i+1 < len(blocks) {
			return blocks[i+1]
		}
	}
	return nil
}

func (b *BasicBlock) HasPredecessor(pred *BasicBlock) bool {
	for _, p := range b.predecessors {
		if p == pred {
			return true
		}
	}
	return false
}

func (b *BasicBlock) HasSuccessor(succ *BasicBlock) bool {
	for _, s := range b.successors {
		if s == succ {
			return true
		}
	}
	return false
}

func (b *BasicBlock) String() string {
	return fmt.Sprintf("block%d", b.id)
}

// -----------------------------------------------------------------------------
// Function
// A function owns an ordered block list with distinguished entry and exit
// blocks, its literal pool, and id counters for blocks, instructions and
// virtual registers.

type Function struct {
	name   string
	blocks []*BasicBlock

	entryBlock *BasicBlock
	exitBlock  *BasicBlock

	literals *LiteralMap

	nextBlockId       int
	nextInstructionId int
	nextVRegId        int
	nextConditionId   int
}

func (f *Function) Name() string              { return f.name }
func (f *Function) BasicBlocks() []*BasicBlock { return f.blocks }
func (f *Function) EntryBlock() *BasicBlock   { return f.entryBlock }
func (f *Function) ExitBlock() *BasicBlock    { return f.exitBlock }
func (f *Function) Literals() *LiteralMap     { return f.literals }

// VRegCount returns the number of virtual registers minted so far.
func (f *Function) VRegCount() int { return f.nextVRegId }

func (f *Function) String() string {
	str := fmt.Sprintf("function %s:\n", f.name)
	for _, block := range f.blocks {
		str += fmt.Sprintf("%v:", block)
		if len(block.predecessors) > 0 {
			str += " in{"
			for i, pred := range block.predecessors {
				if i > 0 {
					str += " "
				}
				str += pred.String()
			}
			str += "}"
		}
		str += "\n"
		for _, instr := range block.instructions {
			str += fmt.Sprintf("  %v\n", instr)
		}
	}
	return str
}
