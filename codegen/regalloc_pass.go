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
	"elang/utils"
)

// -----------------------------------------------------------------------------
// RegisterAssignmentsPass
// Runs the allocator, expands every phi edge, fixes the stack frame, then
// rewrites the function: virtual operands become their assigned locations,
// reload/spill actions are inserted, phis disappear, and the prologue and
// epilogue land in place.

type RegisterAssignmentsPass struct {
	editor           *lir.Editor
	assignments      *RegisterAssignments
	stackAssignments *StackAssignments

	uselessInstructions []*lir.Instruction
}

func NewRegisterAssignmentsPass(editor *lir.Editor) *RegisterAssignmentsPass {
	return &RegisterAssignmentsPass{
		editor:           editor,
		assignments:      NewRegisterAssignments(),
		stackAssignments: NewStackAssignments(),
	}
}

func (p *RegisterAssignmentsPass) Name() string { return "register_allocation" }

func (p *RegisterAssignmentsPass) Assignments() *RegisterAssignments {
	return p.assignments
}

func (p *RegisterAssignmentsPass) StackAssignments() *StackAssignments {
	return p.stackAssignments
}

func (p *RegisterAssignmentsPass) Run() {
	function := p.editor.Function()

	allocator := NewRegisterAllocator(p.editor, p.assignments, p.stackAssignments)
	allocator.Run()

	// Expand phi bindings and live-through fixups on every incoming edge.
	for _, block := range function.BasicBlocks() {
		if len(block.PhiInstructions()) == 0 && len(block.Predecessors()) < 2 {
			continue
		}
		for _, pred := range block.Predecessors() {
			if len(pred.Successors()) != 1 {
				// A critical edge without phis cannot host fixups; the
				// states agree by construction since the predecessor was
				// allocated from the same dominator state.
				continue
			}
			expander := NewPhiExpander(p.assignments, allocator, block, pred)
			expander.Expand()
		}
	}

	p.stackAssignments.maximumSize = allocator.StackAllocator().RequiredSize()
	assigner := NewStackAssigner(p.editor.Factory(), function, p.assignments,
		p.stackAssignments)
	assigner.Run()

	p.insertPrologue()
	for _, block := range function.BasicBlocks() {
		p.rewriteBlock(block)
	}
	p.editor.BulkRemoveInstructions(p.uselessInstructions)
}

func (p *RegisterAssignmentsPass) insertPrologue() {
	entryBlock := p.editor.Function().EntryBlock()
	entryInstr := entryBlock.FirstInstruction()
	utils.Assert(entryInstr.Opcode() == lir.OpEntry, "entry block has no entry")
	instructions := entryBlock.Instructions()
	utils.Assert(len(instructions) >= 2, "entry block has no terminator")
	ref := instructions[1]
	p.editor.Edit(entryBlock)
	for _, instr := range p.stackAssignments.Prologue() {
		p.editor.InsertBefore(instr, ref)
	}
	p.editor.Commit()
}

func (p *RegisterAssignmentsPass) rewriteBlock(block *lir.BasicBlock) {
	instructions := append([]*lir.Instruction(nil), block.Instructions()...)
	p.editor.Edit(block)

	for _, instr := range instructions {
		if instr.IsPhi() {
			// Phi bindings became explicit copies on the incoming edges.
			p.editor.Remove(instr)
			continue
		}
		for _, action := range p.assignments.BeforeActionOf(instr) {
			p.adjustActionSlots(action)
			p.editor.InsertBefore(action, instr)
			p.markIfUseless(action)
		}
		p.rewriteInstruction(instr)
		if instr.Opcode() == lir.OpRet {
			// A function may return from several blocks; each gets its
			// own epilogue instance.
			for _, epilogue := range p.stackAssignments.Epilogue() {
				p.editor.InsertBefore(p.cloneInstruction(epilogue), instr)
			}
		}
	}
	p.editor.Commit()
}

// adjustActionSlots rebases the abstract spill slots inside a reload or
// spill copy onto the final frame layout.
func (p *RegisterAssignmentsPass) adjustActionSlots(action *lir.Instruction) {
	for position, output := range action.Outputs() {
		if output.IsStackSlot() {
			p.editor.SetOutput(action, position, p.assignments.AdjustStackSlot(output))
		}
	}
	for position, input := range action.Inputs() {
		if input.IsStackSlot() {
			p.editor.SetInput(action, position, p.assignments.AdjustStackSlot(input))
		}
	}
}

func (p *RegisterAssignmentsPass) rewriteInstruction(instr *lir.Instruction) {
	for position, output := range instr.Outputs() {
		if !output.IsVirtual() {
			continue
		}
		p.editor.SetOutput(instr, position, p.assignmentOf(instr, output))
	}
	for position, input := range instr.Inputs() {
		if !input.IsVirtual() {
			continue
		}
		p.editor.SetInput(instr, position, p.assignmentOf(instr, input))
	}
	p.markIfUseless(instr)
}

func (p *RegisterAssignmentsPass) assignmentOf(instr *lir.Instruction,
	operand lir.Value) lir.Value {
	allocation := p.assignments.AllocationOf(instr, operand)
	if allocation.IsPhysical() {
		return allocation
	}
	utils.Assert(allocation.IsStackSlot(), "bad allocation %v of %v", allocation, operand)
	return p.assignments.AdjustStackSlot(allocation)
}

func (p *RegisterAssignmentsPass) cloneInstruction(instr *lir.Instruction) *lir.Instruction {
	factory := p.editor.Factory()
	switch instr.Opcode() {
	case lir.OpAdd:
		return factory.NewAdd(instr.Output(0), instr.Input(0), instr.Input(1))
	case lir.OpSub:
		return factory.NewSub(instr.Output(0), instr.Input(0), instr.Input(1))
	case lir.OpCopy:
		return factory.NewCopy(instr.Output(0), instr.Input(0))
	}
	utils.ShouldNotReachHere()
	return nil
}

// markIfUseless queues copies that became no-ops for bulk removal.
func (p *RegisterAssignmentsPass) markIfUseless(instr *lir.Instruction) {
	if instr.Opcode() != lir.OpCopy && instr.Opcode() != lir.OpPCopy {
		return
	}
	if instr.Opcode() == lir.OpPCopy {
		p.uselessInstructions = append(p.uselessInstructions, instr)
		return
	}
	if instr.Output(0) == instr.Input(0) {
		p.uselessInstructions = append(p.uselessInstructions, instr)
	}
}
