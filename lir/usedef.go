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
	"elang/utils"
)

// -----------------------------------------------------------------------------
// Use-def lists
// UseDefList maps each virtual register to the ordered list of
// instructions using it.

type UseDefList struct {
	users map[Value][]*Instruction
}

func (l *UseDefList) UsersOf(value Value) []*Instruction {
	utils.Assert(value.IsVirtual(), "%v is not a virtual register", value)
	return l.users[value]
}

// UseDefListBuilder builds the per-vreg user lists of one function.
type UseDefListBuilder struct {
	function *Function
}

func NewUseDefListBuilder(function *Function) *UseDefListBuilder {
	return &UseDefListBuilder{function: function}
}

func (b *UseDefListBuilder) assign(list *UseDefList, value Value) {
	if !value.IsVirtual() {
		return
	}
	if _, present := list.users[value]; present {
		return
	}
	list.users[value] = nil
}

func (b *UseDefListBuilder) addUser(list *UseDefList, value Value, user *Instruction) {
	if !value.IsVirtual() {
		return
	}
	users := list.users[value]
	if len(users) > 0 && users[len(users)-1] == user {
		return
	}
	list.users[value] = append(users, user)
}

func (b *UseDefListBuilder) Build() *UseDefList {
	list := &UseDefList{users: make(map[Value][]*Instruction)}
	for _, block := range b.function.blocks {
		for _, phi := range block.PhiInstructions() {
			b.assign(list, phi.Output(0))
		}
		for _, instr := range block.instructions {
			if instr.IsPhi() {
				for _, operand := range instr.phiOperands {
					b.addUser(list, operand.Value, instr)
				}
				continue
			}
			for _, input := range instr.inputs {
				b.addUser(list, input, instr)
			}
			for _, output := range instr.outputs {
				b.assign(list, output)
			}
		}
	}
	return list
}
