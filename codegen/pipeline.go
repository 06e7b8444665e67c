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
// Pipeline
// Runs the transformation passes in order and emits machine code:
// lowering, critical edge removal, register assignment, CFG cleaning,
// emission. The pipeline stops when a pass leaves the function invalid;
// the structural errors sit on the factory.

func GenerateMachineCode(factory *lir.Factory, function *lir.Function,
	builder MachineCodeBuilder) bool {
	editor := lir.NewEditor(factory, function)

	passes := []FunctionPass{
		NewX64LoweringPass(editor),
		NewRemoveCriticalEdgesPass(editor),
		NewRegisterAssignmentsPass(editor),
		NewCleanPass(editor),
	}
	for _, pass := range passes {
		if !RunPass(pass, editor) {
			return false
		}
	}

	emitter := NewCodeEmitter(factory)
	emitter.Emit(function, builder)
	return true
}
