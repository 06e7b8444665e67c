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
// PhiExpander
// Expands the simultaneous assignments of one edge into sequenced copies:
// the phi bindings of the target block plus location fixups for values
// living through the edge. Copies land at the end of the predecessor,
// which owns the edge exclusively once critical edges are split. Scratch
// registers are whatever the edge leaves free; when none exists one is
// synthesized by spilling, preferring a phi input that is already spilled
// elsewhere, then a phi output, then a live-in register.

type PhiExpander struct {
	assignments  *RegisterAssignments
	allocator    *RegisterAllocator
	spillManager *SpillManager
	phiBlock     *lir.BasicBlock
	predecessor  *lir.BasicBlock

	tasks []copyTask

	// Source-side registers of phi inputs and moving live-through values.
	inputPhysOf map[lir.Value]lir.Value
	// Destination-side registers of phi outputs and moving live-through
	// values.
	outputPhysOf map[lir.Value]lir.Value
	// Registers of values parked in place across the edge.
	livePhysOf map[lir.Value]lir.Value

	// Natural registers usable as scratches.
	scratchRegisters map[lir.Value]bool

	spills  []*lir.Instruction
	reloads []*lir.Instruction
}

func NewPhiExpander(assignments *RegisterAssignments, allocator *RegisterAllocator,
	phiBlock, predecessor *lir.BasicBlock) *PhiExpander {
	utils.Assert(len(predecessor.Successors()) == 1,
		"edge %v->%v is critical", predecessor, phiBlock)
	return &PhiExpander{
		assignments:      assignments,
		allocator:        allocator,
		spillManager:     allocator.SpillManager(),
		phiBlock:         phiBlock,
		predecessor:      predecessor,
		inputPhysOf:      make(map[lir.Value]lir.Value),
		outputPhysOf:     make(map[lir.Value]lir.Value),
		livePhysOf:       make(map[lir.Value]lir.Value),
		scratchRegisters: make(map[lir.Value]bool),
	}
}

func typesAndBanks() []lir.Value {
	return []lir.Value{
		lir.Int32Type(),
		lir.Int64Type(),
		lir.Float32Type(),
		lir.Float64Type(),
	}
}

func (x *PhiExpander) excludeScratch(location lir.Value) {
	if location.IsPhysical() {
		delete(x.scratchRegisters, lir.NaturalRegisterOf(location))
	}
}

func (x *PhiExpander) addTask(dst, src lir.Value) {
	if dst == src {
		return
	}
	x.tasks = append(x.tasks, copyTask{dst: dst, src: src})
}

// Expand emits the edge's copies through the allocation side table.
func (x *PhiExpander) Expand() {
	for _, register := range lir.AllocatableGeneralRegisters() {
		x.scratchRegisters[lir.NaturalRegisterOf(register)] = true
	}
	for _, register := range lir.AllocatableFloatRegisters() {
		x.scratchRegisters[lir.NaturalRegisterOf(register)] = true
	}

	predState := x.allocator.StateAtEndOf(x.predecessor)
	succState := x.allocator.StateAtStartOf(x.phiBlock)
	phiOutputs := make(map[lir.Value]bool)

	// Phi bindings.
	for _, phi := range x.phiBlock.PhiInstructions() {
		output := phi.Output(0)
		phiOutputs[output] = true
		outputAllocation := x.assignments.AllocationOf(phi, output)
		x.excludeScratch(outputAllocation)
		if outputAllocation.IsPhysical() {
			x.outputPhysOf[output] = outputAllocation
		}

		input := phi.PhiInputOf(x.predecessor)
		if !input.IsVirtual() {
			x.addTask(outputAllocation, input)
			continue
		}
		inputLocation, ok := predState[input]
		utils.Assert(ok, "%v is not live out of %v", input, x.predecessor)
		x.excludeScratch(inputLocation)
		if inputLocation.IsPhysical() {
			x.inputPhysOf[input] = inputLocation
		}
		x.addTask(outputAllocation, inputLocation)
	}

	// Live-through fixups: values must arrive where the phi block's body
	// expects them.
	liveIn := x.allocator.LiveInOf(x.phiBlock)
	for vreg, want := range succState {
		if phiOutputs[vreg] || !liveIn.IsSet(int(vreg.Data)) {
			continue
		}
		have, ok := predState[vreg]
		if !ok {
			continue
		}
		x.excludeScratch(want)
		x.excludeScratch(have)
		if have == want {
			if want.IsPhysical() {
				x.livePhysOf[vreg] = want
			}
			continue
		}
		if have.IsPhysical() {
			x.inputPhysOf[vreg] = have
		}
		if want.IsPhysical() {
			x.outputPhysOf[vreg] = want
		}
		x.addTask(want, have)
	}

	if len(x.tasks) == 0 {
		return
	}

	var copies []*lir.Instruction
	for _, typ := range typesAndBanks() {
		// The expander needs at most two scratch registers per type.
		for attempt := 0; attempt < 3; attempt++ {
			expander := NewParallelCopyExpander(x.spillManager.Factory(), typ)
			for _, task := range x.tasks {
				if task.dst.Type != typ.Type || task.dst.Size != typ.Size {
					continue
				}
				expander.AddTask(task.dst, task.src)
			}
			if !expander.HasTasks() {
				break
			}
			for natural := range x.scratchRegisters {
				if natural.Type != typ.Type {
					continue
				}
				expander.AddScratch(lir.AdjustRegisterSize(typ, natural))
			}
			instructions := expander.Expand()
			if instructions != nil {
				copies = append(copies, instructions...)
				break
			}
			utils.Assert(attempt < 2, "no scratch register for %v on edge %v->%v",
				typ, x.predecessor, x.phiBlock)
			if x.spillFromInput(typ) || x.spillFromOutput(typ) {
				continue
			}
			x.spillFromLiveIn(typ)
		}
	}

	last := x.predecessor.LastInstruction()
	for _, instr := range x.spills {
		x.assignments.InsertBefore(instr, last)
	}
	for _, instr := range copies {
		x.assignments.InsertBefore(instr, last)
	}
	for _, instr := range x.reloads {
		x.assignments.InsertBefore(instr, last)
	}
}

func (x *PhiExpander) emitSpill(vreg, physical lir.Value) {
	x.spills = append(x.spills, x.spillManager.NewSpill(vreg, physical))
}

func (x *PhiExpander) emitReload(physical, vreg lir.Value) {
	x.reloads = append(x.reloads, x.spillManager.NewReload(physical, vreg))
}

func (x *PhiExpander) freeScratch(physical lir.Value) {
	x.scratchRegisters[lir.NaturalRegisterOf(physical)] = true
}

func (x *PhiExpander) retargetSources(physical, slot lir.Value) {
	for i := range x.tasks {
		if x.tasks[i].src == physical {
			x.tasks[i].src = slot
		}
	}
}

func (x *PhiExpander) retargetDestinations(physical, slot lir.Value) {
	for i := range x.tasks {
		if x.tasks[i].dst == physical {
			x.tasks[i].dst = slot
		}
	}
}

// spillFromInput redirects a register-resident source to its spill slot,
// freeing the register for scratch duty.
func (x *PhiExpander) spillFromInput(typ lir.Value) bool {
	victim := x.chooseVictim(x.inputPhysOf, typ, true)
	if !victim.IsVirtual() {
		return false
	}
	physical := x.inputPhysOf[victim]
	slot := x.spillManager.SpillSlotFor(victim)
	if !slot.IsStackSlot() {
		slot = x.spillManager.EnsureSpillSlot(victim)
		x.emitSpill(victim, physical)
	}
	x.retargetSources(physical, slot)
	delete(x.inputPhysOf, victim)
	x.freeScratch(physical)
	return true
}

// spillFromOutput parks a destination in its spill slot during the copies
// and reloads it afterwards.
func (x *PhiExpander) spillFromOutput(typ lir.Value) bool {
	victim := x.chooseVictim(x.outputPhysOf, typ, false)
	if !victim.IsVirtual() {
		return false
	}
	physical := x.outputPhysOf[victim]
	slot := x.spillManager.EnsureSpillSlot(victim)
	x.retargetDestinations(physical, slot)
	delete(x.outputPhysOf, victim)
	x.emitReload(physical, victim)
	x.freeScratch(physical)
	return true
}

// spillFromLiveIn saves a live-in register around the copies so it can
// serve as scratch in between.
func (x *PhiExpander) spillFromLiveIn(typ lir.Value) {
	victim := x.chooseVictim(x.livePhysOf, typ, true)
	utils.Assert(victim.IsVirtual(), "no live-in victim of %v", typ)
	physical := x.livePhysOf[victim]
	slot := x.spillManager.SpillSlotFor(victim)
	if !slot.IsStackSlot() {
		x.spillManager.EnsureSpillSlot(victim)
		x.emitSpill(victim, physical)
	}
	x.emitReload(physical, victim)
	delete(x.livePhysOf, victim)
	x.freeScratch(physical)
}

// chooseVictim picks a vreg of the wanted register shape from |pool|,
// preferring an already-spilled one when |preferSpilled|.
func (x *PhiExpander) chooseVictim(pool map[lir.Value]lir.Value, typ lir.Value,
	preferSpilled bool) lir.Value {
	var candidate lir.Value
	for vreg, physical := range pool {
		if physical.Type != typ.Type || physical.Size != typ.Size {
			continue
		}
		if preferSpilled && x.spillManager.SpillSlotFor(vreg).IsStackSlot() {
			return vreg
		}
		candidate = vreg
	}
	return candidate
}
