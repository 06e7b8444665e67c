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
	"testing"

	"elang/lir"
)

func TestStackAllocatorPacksSlots(t *testing.T) {
	factory := lir.NewFactory()
	function := factory.NewFunction("sample")
	allocator := NewStackAllocator(8)

	v32a := factory.NewVReg(function, lir.Integer, lir.Size32)
	v32b := factory.NewVReg(function, lir.Integer, lir.Size32)
	v64 := factory.NewVReg(function, lir.Integer, lir.Size64)

	slotA := allocator.Allocate(v32a)
	slotB := allocator.Allocate(v32b)
	slot64 := allocator.Allocate(v64)

	if slotA.Data != 0 || slotB.Data != 4 {
		t.Fatalf("Expect packed 4-byte slots, got %v and %v", slotA, slotB)
	}
	if slot64.Data != 8 {
		t.Fatalf("Expect the 8-byte slot aligned to 8, got %v", slot64)
	}
	if allocator.RequiredSize() != 16 {
		t.Fatalf("Expect 16 bytes, got %d", allocator.RequiredSize())
	}
}

func TestStackAllocatorReusesFreedRuns(t *testing.T) {
	factory := lir.NewFactory()
	function := factory.NewFunction("sample")
	allocator := NewStackAllocator(8)

	v1 := factory.NewVReg(function, lir.Integer, lir.Size64)
	v2 := factory.NewVReg(function, lir.Integer, lir.Size64)

	slot1 := allocator.Allocate(v1)
	allocator.Allocate(v2)
	allocator.Free(slot1)

	v3 := factory.NewVReg(function, lir.Integer, lir.Size64)
	slot3 := allocator.Allocate(v3)
	if slot3.Data != slot1.Data {
		t.Fatalf("Expect the freed run re-used, got %v", slot3)
	}
}

func TestStackAllocatorAlignment(t *testing.T) {
	factory := lir.NewFactory()
	function := factory.NewFunction("sample")
	allocator := NewStackAllocator(8)

	v8 := factory.NewVReg(function, lir.Integer, lir.Size8)
	v64 := factory.NewVReg(function, lir.Integer, lir.Size64)

	allocator.Allocate(v8)
	slot64 := allocator.Allocate(v64)
	if slot64.Data%8 != 0 {
		t.Fatalf("8-byte slot must be 8-aligned, got %v", slot64)
	}
}

func TestStackAllocatorAllocateAt(t *testing.T) {
	allocator := NewStackAllocator(8)
	slot := lir.StackSlot(lir.Integer, lir.Size64, 16)
	allocator.AllocateAt(slot)
	if allocator.RequiredSize() != 24 {
		t.Fatalf("Expect 24 bytes, got %d", allocator.RequiredSize())
	}
}
