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
// StackAssigner
// Turns abstract spill slots into concrete RSP-relative locations and
// publishes the prologue/epilogue sequences. Leaf functions get the bare
// frame; non-leaf functions additionally reserve the outgoing call shadow
// area of the Windows x64 ABI (32 bytes plus stack homes for arguments
// beyond the fourth) and keep RSP 16-byte aligned at call sites.
//
// Leaf frame:                     Non-leaf frame:
//
//          +---------------+              +----------------+
// RSP ---->| spill slots   |     RSP ---->| shadow + homes |
//          +---------------+              +----------------+
//          | callee saves  |              | spill slots    |
//          +---------------+              +----------------+
//          | return addr   |              | callee saves   |
//          +---------------+              +----------------+
//                                         | padding        |
//                                         +----------------+
//                                         | return addr    |
//                                         +----------------+

type StackAssigner struct {
	factory          *lir.Factory
	function         *lir.Function
	assignments      *RegisterAssignments
	stackAssignments *StackAssignments
}

func NewStackAssigner(factory *lir.Factory, function *lir.Function,
	assignments *RegisterAssignments,
	stackAssignments *StackAssignments) *StackAssigner {
	return &StackAssigner{
		factory:          factory,
		function:         function,
		assignments:      assignments,
		stackAssignments: stackAssignments,
	}
}

func (s *StackAssigner) Run() {
	if s.stackAssignments.NumberOfCalls() == 0 {
		s.runForLeafFunction()
		return
	}
	s.runForNonLeafFunction()
}

func rsp() lir.Value { return lir.GetRegister(lir.RSP) }

func (s *StackAssigner) emitFrameSetup(size int) {
	if size == 0 {
		return
	}
	amount := lir.Immediate(lir.Size32, int32(size))
	s.stackAssignments.prologueInstructions = append(
		s.stackAssignments.prologueInstructions,
		s.factory.NewSub(rsp(), rsp(), amount))
	s.stackAssignments.epilogueInstructions = append(
		s.stackAssignments.epilogueInstructions,
		s.factory.NewAdd(rsp(), rsp(), amount))
}

// emitPreserves saves callee-saved registers to fixed slots starting at
// |base| in the prologue and restores them in the epilogue. Saves follow
// the frame setup; restores precede the frame teardown.
func (s *StackAssigner) emitPreserves(base int) {
	offset := base
	var restores []*lir.Instruction
	for _, physical := range s.stackAssignments.PreservingRegisters() {
		slot := lir.StackSlot(physical.Type, physical.Size, offset)
		s.stackAssignments.prologueInstructions = append(
			s.stackAssignments.prologueInstructions,
			s.factory.NewCopy(slot, physical))
		restores = append(restores, s.factory.NewCopy(physical, slot))
		offset += lir.PointerSizeInBytes()
	}
	s.stackAssignments.epilogueInstructions = append(restores,
		s.stackAssignments.epilogueInstructions...)
}

// runForLeafFunction lays out spills directly above RSP; no shadow area
// and no RBP setup are needed.
func (s *StackAssigner) runForLeafFunction() {
	preservedSize := len(s.stackAssignments.PreservingRegisters()) *
		lir.PointerSizeInBytes()
	spillSize := utils.RoundUp(s.stackAssignments.MaximumSize(),
		lir.PointerSizeInBytes())
	size := utils.RoundUp(spillSize+preservedSize, lir.PointerSizeInBytes())

	s.assignments.SetSlotBase(0)
	s.emitFrameSetup(size)
	s.emitPreserves(spillSize)
}

// runForNonLeafFunction reserves the outgoing shadow area below the
// spills and keeps RSP 16-byte aligned at call sites: on entry RSP is 8
// modulo 16, so the frame size must be 8 modulo 16.
func (s *StackAssigner) runForNonLeafFunction() {
	shadow := 32
	if s.stackAssignments.MaximumArgc() > 4 {
		shadow += (s.stackAssignments.MaximumArgc() - 4) * lir.PointerSizeInBytes()
	}
	preservedSize := len(s.stackAssignments.PreservingRegisters()) *
		lir.PointerSizeInBytes()
	spillSize := utils.RoundUp(s.stackAssignments.MaximumSize(),
		lir.PointerSizeInBytes())
	raw := shadow + spillSize + preservedSize
	size := utils.RoundUp(raw+lir.PointerSizeInBytes(), 16) - lir.PointerSizeInBytes()

	s.assignments.SetSlotBase(shadow)
	s.emitFrameSetup(size)
	s.emitPreserves(shadow + spillSize)
}
