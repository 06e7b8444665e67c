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
// StackAllocator
// Finds the lowest-offset free run of bytes for a spill slot, expanding the
// frame as needed. Freeing marks the run reusable within the function.

type StackAllocator struct {
	alignment int
	uses      []bool
}

func NewStackAllocator(alignment int) *StackAllocator {
	utils.Assert(alignment == 4 || alignment == 8 || alignment == 16,
		"bad stack alignment %d", alignment)
	return &StackAllocator{alignment: alignment}
}

// allocate returns the offset of a free run of |size| bytes aligned to
// |size|.
func (a *StackAllocator) allocate(size int) int {
	for offset := 0; offset+size <= len(a.uses); offset++ {
		if offset%size != 0 {
			continue
		}
		free := true
		for i := offset; i < offset+size; i++ {
			if a.uses[i] {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		for i := offset; i < offset+size; i++ {
			a.uses[i] = true
		}
		return offset
	}
	// No free run; expand the allocation map.
	offset := utils.RoundUp(len(a.uses), size)
	grown := utils.RoundUp(offset+size, a.alignment)
	for len(a.uses) < grown {
		a.uses = append(a.uses, false)
	}
	for i := offset; i < offset+size; i++ {
		a.uses[i] = true
	}
	return offset
}

// Allocate reserves a spill slot shaped like |vreg|.
func (a *StackAllocator) Allocate(vreg lir.Value) lir.Value {
	utils.Assert(vreg.IsVirtual(), "%v is not a virtual register", vreg)
	offset := a.allocate(lir.ByteSize(vreg.Size))
	return lir.StackSlot(vreg.Type, vreg.Size, offset)
}

// AllocateAt re-reserves the exact run named by |stackSlot|; used when
// replaying recorded allocations after Reset.
func (a *StackAllocator) AllocateAt(stackSlot lir.Value) {
	utils.Assert(stackSlot.IsStackSlot(), "%v is not a stack slot", stackSlot)
	offset := int(stackSlot.Data)
	size := lir.ByteSize(stackSlot.Size)
	for len(a.uses) < offset+size {
		a.uses = append(a.uses, false)
	}
	for i := offset; i < offset+size; i++ {
		utils.Assert(!a.uses[i], "slot byte %d is already in use", i)
		a.uses[i] = true
	}
}

// Free releases the run named by |location| for re-use.
func (a *StackAllocator) Free(location lir.Value) {
	utils.Assert(location.IsStackSlot(), "%v is not a stack slot", location)
	offset := int(location.Data)
	for i := offset; i < offset+lir.ByteSize(location.Size); i++ {
		a.uses[i] = false
	}
}

// RequiredSize returns the high-water frame size in bytes.
func (a *StackAllocator) RequiredSize() int {
	return len(a.uses)
}

func (a *StackAllocator) Reset() {
	a.uses = a.uses[:0]
}
