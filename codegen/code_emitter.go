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

// CodeEmitter walks a function in layout order and feeds every
// instruction to the architecture handler, then finishes the buffer into
// the machine code builder.
type CodeEmitter struct {
	factory *lir.Factory
}

func NewCodeEmitter(factory *lir.Factory) *CodeEmitter {
	return &CodeEmitter{factory: factory}
}

func (e *CodeEmitter) Emit(function *lir.Function, builder MachineCodeBuilder) {
	buffer := NewCodeBuffer(function)
	handler := NewInstructionHandlerX64(e.factory, function, buffer)
	for _, block := range function.BasicBlocks() {
		buffer.StartBasicBlock(block)
		for _, instr := range block.Instructions() {
			handler.Handle(instr)
		}
		buffer.EndBasicBlock()
	}
	buffer.Finish(builder)
}
