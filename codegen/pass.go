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
	"fmt"

	"elang/lir"
)

// Debug gates for pass tracing.
const DebugPrintPasses = false

// FunctionPass is a transformation over one function driven through its
// editor.
type FunctionPass interface {
	Name() string
	Run()
}

// RunPass runs |pass| and validates the function afterwards.
func RunPass(pass FunctionPass, editor *lir.Editor) bool {
	if DebugPrintPasses {
		fmt.Printf("== before %s ==\n%v", pass.Name(), editor.Function())
	}
	pass.Run()
	ok := editor.Validate()
	if DebugPrintPasses {
		fmt.Printf("== after %s ==\n%v", pass.Name(), editor.Function())
	}
	return ok
}
