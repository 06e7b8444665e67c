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
// RegisterAssignments
// Results of register allocation: the physical or stack location of each
// virtual register operand keyed by (instruction, operand), per-instruction
// reload/spill actions to insert, and the spill slot of each spilled vreg.

type assignmentKey struct {
	instr *lir.Instruction
	value lir.Value
}

type RegisterAssignments struct {
	allocations   map[assignmentKey]lir.Value
	beforeActions map[*lir.Instruction][]*lir.Instruction
	stackSlots    map[lir.Value]lir.Value

	// Byte displacement added to every abstract stack slot once the stack
	// assigner fixed the frame layout.
	slotBase int
}

func NewRegisterAssignments() *RegisterAssignments {
	return &RegisterAssignments{
		allocations:   make(map[assignmentKey]lir.Value),
		beforeActions: make(map[*lir.Instruction][]*lir.Instruction),
		stackSlots:    make(map[lir.Value]lir.Value),
	}
}

// AllocationOf returns the location assigned to |value| at |instr|.
func (r *RegisterAssignments) AllocationOf(instr *lir.Instruction, value lir.Value) lir.Value {
	utils.Assert(value.IsVirtual(), "%v is not a virtual register", value)
	allocation, ok := r.allocations[assignmentKey{instr: instr, value: value}]
	utils.Assert(ok, "no allocation of %v at %v", value, instr)
	return allocation
}

// HasAllocationOf reports whether |value| was assigned at |instr|.
func (r *RegisterAssignments) HasAllocationOf(instr *lir.Instruction, value lir.Value) bool {
	_, ok := r.allocations[assignmentKey{instr: instr, value: value}]
	return ok
}

func (r *RegisterAssignments) SetAllocation(instr *lir.Instruction, value lir.Value,
	allocation lir.Value) {
	utils.Assert(value.IsVirtual(), "%v is not a virtual register", value)
	utils.Assert(allocation.IsPhysical() || allocation.IsStackSlot(),
		"bad allocation %v for %v", allocation, value)
	r.allocations[assignmentKey{instr: instr, value: value}] = allocation
}

// BeforeActionOf lists the instructions to insert before |instr|, e.g.
// reloads and spills.
func (r *RegisterAssignments) BeforeActionOf(instr *lir.Instruction) []*lir.Instruction {
	return r.beforeActions[instr]
}

func (r *RegisterAssignments) InsertBefore(action, ref *lir.Instruction) {
	r.beforeActions[ref] = append(r.beforeActions[ref], action)
}

// SpillSlotFor returns the spill slot of |vreg|, or the invalid value when
// the vreg was never spilled.
func (r *RegisterAssignments) SpillSlotFor(vreg lir.Value) lir.Value {
	utils.Assert(vreg.IsVirtual(), "%v is not a virtual register", vreg)
	return r.stackSlots[vreg]
}

func (r *RegisterAssignments) SetSpillSlot(vreg, slot lir.Value) {
	utils.Assert(slot.IsStackSlot(), "%v is not a stack slot", slot)
	r.stackSlots[vreg] = slot
}

func (r *RegisterAssignments) StackSlotMap() map[lir.Value]lir.Value {
	return r.stackSlots
}

// SetSlotBase records where the spill area starts inside the final frame.
func (r *RegisterAssignments) SetSlotBase(base int) {
	r.slotBase = base
}

// AdjustStackSlot translates an abstract spill slot into its concrete
// RSP-relative form.
func (r *RegisterAssignments) AdjustStackSlot(slot lir.Value) lir.Value {
	utils.Assert(slot.IsStackSlot(), "%v is not a stack slot", slot)
	return lir.StackSlot(slot.Type, slot.Size, int(slot.Data)+r.slotBase)
}
