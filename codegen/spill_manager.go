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
// SpillManager
// Owns the spill slots of virtual registers and builds the store/load copy
// instructions around spills and reloads.

type SpillManager struct {
	factory        *lir.Factory
	function       *lir.Function
	assignments    *RegisterAssignments
	stackAllocator *StackAllocator
}

func NewSpillManager(factory *lir.Factory, function *lir.Function,
	assignments *RegisterAssignments, stackAllocator *StackAllocator) *SpillManager {
	return &SpillManager{
		factory:        factory,
		function:       function,
		assignments:    assignments,
		stackAllocator: stackAllocator,
	}
}

func (m *SpillManager) Factory() *lir.Factory { return m.factory }

// SpillSlotFor returns the slot of |vreg| or the invalid value.
func (m *SpillManager) SpillSlotFor(vreg lir.Value) lir.Value {
	return m.assignments.SpillSlotFor(vreg)
}

// EnsureSpillSlot returns the slot of |vreg|, allocating one on first
// spill.
func (m *SpillManager) EnsureSpillSlot(vreg lir.Value) lir.Value {
	utils.Assert(vreg.IsVirtual(), "%v is not a virtual register", vreg)
	present := m.assignments.SpillSlotFor(vreg)
	if present.IsStackSlot() {
		return present
	}
	slot := m.stackAllocator.Allocate(vreg)
	m.assignments.SetSpillSlot(vreg, slot)
	return slot
}

// NewReload builds the load bringing |vreg| back into |physical|.
func (m *SpillManager) NewReload(physical, vreg lir.Value) *lir.Instruction {
	utils.Assert(physical.IsPhysical(), "%v is not physical", physical)
	utils.Assert(vreg.IsVirtual(), "%v is not a virtual register", vreg)
	slot := m.assignments.SpillSlotFor(vreg)
	utils.Assert(slot.IsStackSlot(), "%v has no spill slot", vreg)
	return m.factory.NewCopy(physical, slot)
}

// NewSpill builds the store saving |physical| into the slot of |vreg|.
func (m *SpillManager) NewSpill(vreg, physical lir.Value) *lir.Instruction {
	utils.Assert(physical.IsPhysical(), "%v is not physical", physical)
	utils.Assert(vreg.IsVirtual(), "%v is not a virtual register", vreg)
	slot := m.EnsureSpillSlot(vreg)
	return m.factory.NewCopy(slot, physical)
}
