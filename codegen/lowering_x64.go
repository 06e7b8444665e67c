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
// X64LoweringPass
// Rewrites three-address instructions into the two-address forms the
// x86-64 ISA encodes:
//  - binary arithmetic gets a copy of the left input into the output, and
//    the output becomes the first input (destructive form)
//  - 'mul'/'div' are pinned to the RAX/RDX pair
//  - shift counts move into CL unless they are immediates
// Floating point follows the same destructive shape on SSE registers.

type X64LoweringPass struct {
	editor *lir.Editor
}

func NewX64LoweringPass(editor *lir.Editor) *X64LoweringPass {
	return &X64LoweringPass{editor: editor}
}

func (p *X64LoweringPass) Name() string { return "lowering_x64" }

func (p *X64LoweringPass) Run() {
	for _, block := range p.editor.Function().BasicBlocks() {
		instructions := append([]*lir.Instruction(nil), block.Instructions()...)
		p.editor.Edit(block)
		for _, instr := range instructions {
			p.lower(instr)
		}
		p.editor.Commit()
	}
}

func (p *X64LoweringPass) lower(instr *lir.Instruction) {
	switch instr.Opcode() {
	case lir.OpAdd, lir.OpSub, lir.OpBitAnd, lir.OpBitOr, lir.OpBitXor:
		p.rewriteToTwoOperands(instr)
	case lir.OpShl, lir.OpShr, lir.OpUShr:
		p.rewriteShiftInstruction(instr)
	case lir.OpMul:
		p.rewriteMulInstruction(instr)
	case lir.OpDiv:
		p.rewriteDivInstruction(instr)
	}
}

// rewriteToTwoOperands makes the output double as the first input:
//   out = add left, right
// becomes
//   out = copy left
//   out = add out, right
func (p *X64LoweringPass) rewriteToTwoOperands(instr *lir.Instruction) {
	output := instr.Output(0)
	left := instr.Input(0)
	if output == left {
		return
	}
	factory := p.editor.Factory()
	p.editor.InsertBefore(factory.NewCopy(output, left), instr)
	p.editor.SetInput(instr, 0, output)
}

func (p *X64LoweringPass) rewriteShiftInstruction(instr *lir.Instruction) {
	p.rewriteToTwoOperands(instr)
	count := instr.Input(1)
	if count.IsImmediate() {
		return
	}
	// Variable shift counts live in CL.
	factory := p.editor.Factory()
	cl := lir.GetRegister(lir.CL)
	countCopy := lir.Value{Type: count.Type, Size: count.Size,
		Kind: lir.KindPhysicalRegister, Data: cl.Data}
	p.editor.InsertBefore(factory.NewCopy(countCopy, count), instr)
	p.editor.SetInput(instr, 1, cl)
}

func rax(t lir.Value) lir.Value {
	utils.Assert(t.IsInteger(), "mul/div pin wants an integer, got %v", t)
	if t.Is64Bit() {
		return lir.GetRegister(lir.RAX)
	}
	return lir.GetRegister(lir.EAX)
}

func rdx(t lir.Value) lir.Value {
	utils.Assert(t.IsInteger(), "mul/div pin wants an integer, got %v", t)
	if t.Is64Bit() {
		return lir.GetRegister(lir.RDX)
	}
	return lir.GetRegister(lir.EDX)
}

// rewriteMulInstruction pins multiplication to RAX/RDX:
//   out = mul left, right
// becomes
//   RAX = copy left
//   RAX, RDX = mul RAX, right
//   out = copy RAX
// Float multiplication is not pinned to RAX/RDX and only gets the
// destructive two-address rewrite.
func (p *X64LoweringPass) rewriteMulInstruction(instr *lir.Instruction) {
	output := instr.Output(0)
	if output.IsFloat() {
		p.rewriteToTwoOperands(instr)
		return
	}
	factory := p.editor.Factory()
	low := rax(output)
	high := rdx(output)
	left := instr.Input(0)
	right := p.materializeOperand(instr, instr.Input(1))

	p.editor.InsertBefore(factory.NewCopy(low, left), instr)
	pinned := factory.NewMul(low, low, right)
	p.editor.InsertBefore(pinned, instr)
	p.addHighOutput(pinned, high)
	p.editor.InsertBefore(factory.NewCopy(output, low), instr)
	p.editor.Remove(instr)
}

// rewriteDivInstruction pins division to RAX/RDX likewise; the quotient
// lands in RAX and the remainder in RDX.
func (p *X64LoweringPass) rewriteDivInstruction(instr *lir.Instruction) {
	output := instr.Output(0)
	if output.IsFloat() {
		p.rewriteToTwoOperands(instr)
		return
	}
	factory := p.editor.Factory()
	quotient := rax(output)
	remainder := rdx(output)
	left := instr.Input(0)
	right := p.materializeOperand(instr, instr.Input(1))

	p.editor.InsertBefore(factory.NewCopy(quotient, left), instr)
	pinned := factory.NewDiv(quotient, quotient, right)
	p.editor.InsertBefore(pinned, instr)
	p.addHighOutput(pinned, remainder)
	p.editor.InsertBefore(factory.NewCopy(output, quotient), instr)
	p.editor.Remove(instr)
}

// materializeOperand moves an immediate into a fresh register; the
// single-operand mul/div encodings take no immediates.
func (p *X64LoweringPass) materializeOperand(instr *lir.Instruction,
	operand lir.Value) lir.Value {
	if !operand.IsImmediate() {
		return operand
	}
	factory := p.editor.Factory()
	function := p.editor.Function()
	tmp := factory.NewVReg(function, operand.Type, operand.Size)
	p.editor.InsertBefore(factory.NewCopy(tmp, operand), instr)
	return tmp
}

// addHighOutput grows the pinned instruction's output list with the RDX
// half so the allocator sees the clobber.
func (p *X64LoweringPass) addHighOutput(instr *lir.Instruction, high lir.Value) {
	utils.Assert(len(instr.Outputs()) == 1, "%v already has a high output", instr)
	p.editor.AddOutput(instr, high)
}
