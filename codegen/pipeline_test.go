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

// The whole pipeline over the counting loop: lower, split edges, allocate,
// clean, emit. The result must be non-empty machine code with no
// outstanding structural errors.
func TestGenerateMachineCodeLoop(t *testing.T) {
	factory, function, _ := buildLoopFunction(t)

	builder := &testMachineCodeBuilder{}
	if !GenerateMachineCode(factory, function, builder) {
		t.Fatalf("pipeline failed: %v", factory.Errors())
	}
	if len(builder.bytes) == 0 {
		t.Fatalf("Expect machine code")
	}
}

// The spill-across-call function survives the whole pipeline including
// emission of its reload and spill copies.
func TestGenerateMachineCodeWithCall(t *testing.T) {
	factory := lir.NewFactory()
	function := factory.NewFunction("caller")
	editor := lir.NewEditor(factory, function)

	va := factory.NewVReg(function, lir.Integer, lir.Size32)
	vb := factory.NewVReg(function, lir.Integer, lir.Size32)
	vt := factory.NewVReg(function, lir.Integer, lir.Size32)
	vc := factory.NewVReg(function, lir.Integer, lir.Size32)
	vd := factory.NewVReg(function, lir.Integer, lir.Size32)
	eax := lir.GetRegister(lir.EAX)

	body := editor.NewBasicBlock(editor.ExitBlock())
	editor.Edit(body)
	editor.Append(factory.NewLit(va, factory.NewInt32Literal(function, 1)))
	editor.Append(factory.NewLit(vb, factory.NewInt32Literal(function, 2)))
	editor.Append(factory.NewAdd(vt, va, vb))
	editor.Append(factory.NewCall([]lir.Value{eax},
		factory.NewStringLiteral(function, "foo")))
	editor.Append(factory.NewCopy(vc, eax))
	editor.Append(factory.NewAdd(vd, vt, vc))
	editor.Append(factory.NewCopy(eax, vd))
	editor.SetRet()
	editor.Commit()

	editor.Edit(function.EntryBlock())
	editor.SetJump(body)
	editor.Commit()

	builder := &testMachineCodeBuilder{}
	if !GenerateMachineCode(factory, function, builder) {
		t.Fatalf("pipeline failed: %v", factory.Errors())
	}
	if len(builder.bytes) == 0 {
		t.Fatalf("Expect machine code")
	}
	if len(builder.callSites) != 1 {
		t.Fatalf("Expect one call site, got %v", builder.callSites)
	}
}
