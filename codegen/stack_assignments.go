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
// StackAssignments
// Frame facts collected during allocation and consumed by the stack
// assigner: call profile, spill high-water mark, callee-saved registers to
// preserve, and the prologue/epilogue sequences the assigner produces.

type StackAssignments struct {
	maximumArgc        int
	maximumSize        int
	numberOfCalls      int
	numberOfParameters int

	preservingRegisters []lir.Value

	prologueInstructions []*lir.Instruction
	epilogueInstructions []*lir.Instruction
}

func NewStackAssignments() *StackAssignments {
	return &StackAssignments{}
}

func (s *StackAssignments) MaximumArgc() int        { return s.maximumArgc }
func (s *StackAssignments) MaximumSize() int        { return s.maximumSize }
func (s *StackAssignments) NumberOfCalls() int      { return s.numberOfCalls }
func (s *StackAssignments) NumberOfParameters() int { return s.numberOfParameters }

func (s *StackAssignments) PreservingRegisters() []lir.Value {
	return s.preservingRegisters
}

func (s *StackAssignments) Prologue() []*lir.Instruction {
	return s.prologueInstructions
}

func (s *StackAssignments) Epilogue() []*lir.Instruction {
	return s.epilogueInstructions
}

func (s *StackAssignments) didCall() {
	s.numberOfCalls++
}

func (s *StackAssignments) preserve(physical lir.Value) {
	natural := lir.NaturalRegisterOf(physical)
	for _, present := range s.preservingRegisters {
		if present == natural {
			return
		}
	}
	s.preservingRegisters = append(s.preservingRegisters, natural)
}
