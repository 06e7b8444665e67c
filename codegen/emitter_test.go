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
	"bytes"
	"testing"

	"elang/lir"
)

// emitOne encodes a single detached instruction and returns its bytes.
func emitOne(t *testing.T, build func(factory *lir.Factory,
	function *lir.Function) *lir.Instruction) []byte {
	t.Helper()
	factory := lir.NewFactory()
	function := factory.NewFunction("sample")
	editor := lir.NewEditor(factory, function)
	buffer := NewCodeBuffer(function)
	handler := NewInstructionHandlerX64(factory, function, buffer)

	buffer.StartBasicBlock(editor.EntryBlock())
	handler.Handle(build(factory, function))
	buffer.EndBasicBlock()

	builder := &testMachineCodeBuilder{}
	buffer.Finish(builder)
	return builder.bytes
}

func MustEncode(t *testing.T, got, want []byte) {
	t.Helper()
	if !bytes.Equal(got, want) {
		t.Fatalf("Expect % X, got % X", want, got)
	}
}

func TestEncodeRet(t *testing.T) {
	got := emitOne(t, func(factory *lir.Factory, function *lir.Function) *lir.Instruction {
		return factory.NewRet()
	})
	MustEncode(t, got, []byte{0xC3})
}

func TestEncodeCopyRegReg(t *testing.T) {
	// 8B /r: MOV EAX, ECX
	got := emitOne(t, func(factory *lir.Factory, function *lir.Function) *lir.Instruction {
		return factory.NewCopy(lir.GetRegister(lir.EAX), lir.GetRegister(lir.ECX))
	})
	MustEncode(t, got, []byte{0x8B, 0xC1})
}

func TestEncodeCopyRegReg64(t *testing.T) {
	// REX.W 8B /r: MOV RDX, R9
	got := emitOne(t, func(factory *lir.Factory, function *lir.Function) *lir.Instruction {
		return factory.NewCopy(lir.GetRegister(lir.RDX), lir.GetRegister(lir.R9))
	})
	MustEncode(t, got, []byte{0x48 | 0x01, 0x8B, 0xD1})
}

func TestEncodeCopyFromStackSlot(t *testing.T) {
	// 8B /r with RSP base and SIB: MOV ECX, [RSP+8]
	got := emitOne(t, func(factory *lir.Factory, function *lir.Function) *lir.Instruction {
		slot := lir.StackSlot(lir.Integer, lir.Size32, 8)
		return factory.NewCopy(lir.GetRegister(lir.ECX), slot)
	})
	MustEncode(t, got, []byte{0x8B, 0x4C, 0x24, 0x08})
}

func TestEncodeCopyToFrameSlot(t *testing.T) {
	// 89 /r with RBP base: MOV [RBP+16], EAX
	got := emitOne(t, func(factory *lir.Factory, function *lir.Function) *lir.Instruction {
		slot := lir.FrameSlot(lir.Integer, lir.Size32, 16)
		return factory.NewCopy(slot, lir.GetRegister(lir.EAX))
	})
	MustEncode(t, got, []byte{0x89, 0x45, 0x10})
}

func TestEncodeAddAccumulatorImmediate(t *testing.T) {
	// 05 id: ADD EAX, imm32
	got := emitOne(t, func(factory *lir.Factory, function *lir.Function) *lir.Instruction {
		eax := lir.GetRegister(lir.EAX)
		return factory.NewAdd(eax, eax, lir.Immediate(lir.Size32, 0x1234))
	})
	MustEncode(t, got, []byte{0x05, 0x34, 0x12, 0x00, 0x00})
}

func TestEncodeAddRegReg(t *testing.T) {
	// 01 /r: ADD ECX, EDX
	got := emitOne(t, func(factory *lir.Factory, function *lir.Function) *lir.Instruction {
		ecx := lir.GetRegister(lir.ECX)
		return factory.NewAdd(ecx, ecx, lir.GetRegister(lir.EDX))
	})
	MustEncode(t, got, []byte{0x01, 0xD1})
}

func TestEncodeSubRspImmediate(t *testing.T) {
	// REX.W 83 /5 ib: SUB RSP, 40
	got := emitOne(t, func(factory *lir.Factory, function *lir.Function) *lir.Instruction {
		rsp := lir.GetRegister(lir.RSP)
		return factory.NewSub(rsp, rsp, lir.Immediate(lir.Size32, 40))
	})
	MustEncode(t, got, []byte{0x48, 0x83, 0xEC, 0x28})
}

func TestEncodeLiteralMove(t *testing.T) {
	// B8+r id: MOV ECX, imm32
	got := emitOne(t, func(factory *lir.Factory, function *lir.Function) *lir.Instruction {
		return factory.NewLit(lir.GetRegister(lir.ECX),
			factory.NewInt32Literal(function, 0x11223344))
	})
	MustEncode(t, got, []byte{0xB9, 0x44, 0x33, 0x22, 0x11})
}

func TestEncodeShiftByCl(t *testing.T) {
	// D3 /4: SHL EDX, CL
	got := emitOne(t, func(factory *lir.Factory, function *lir.Function) *lir.Instruction {
		edx := lir.GetRegister(lir.EDX)
		return factory.NewShl(edx, edx, lir.GetRegister(lir.CL))
	})
	MustEncode(t, got, []byte{0xD3, 0xE2})
}

func TestEncodeCallSite(t *testing.T) {
	factory := lir.NewFactory()
	function := factory.NewFunction("sample")
	editor := lir.NewEditor(factory, function)
	buffer := NewCodeBuffer(function)
	handler := NewInstructionHandlerX64(factory, function, buffer)

	buffer.StartBasicBlock(editor.EntryBlock())
	handler.Handle(factory.NewCall([]lir.Value{lir.GetRegister(lir.EAX)},
		factory.NewStringLiteral(function, "callee")))
	buffer.EndBasicBlock()

	builder := &testMachineCodeBuilder{}
	buffer.Finish(builder)
	MustEncode(t, builder.bytes, []byte{0xE8, 0x00, 0x00, 0x00, 0x00})
	if len(builder.callSites) != 1 || builder.callSites[0] != "0001 callee" {
		t.Fatalf("Unexpected call sites %v", builder.callSites)
	}
}
