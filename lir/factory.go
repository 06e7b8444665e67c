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
// Factory
// Mints functions, blocks, instructions and values for one compilation
// session. Structural errors found by validation are queued here.

type Factory struct {
	functions []*Function
	errors    []*ErrorData
}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Errors() []*ErrorData { return f.errors }

func (f *Factory) AddError(code ErrorCode, value Value, details ...Value) {
	f.errors = append(f.errors, &ErrorData{Code: code, Value: value, Details: details})
}

// NewFunction creates a function with wired entry and exit blocks. The
// entry block starts with an 'entry' instruction and jumps to exit; the
// exit block holds the sole 'exit' instruction.
func (f *Factory) NewFunction(name string) *Function {
	function := &Function{name: name, literals: NewLiteralMap()}
	f.functions = append(f.functions, function)

	entry := f.NewBasicBlockFor(function)
	exit := f.NewBasicBlockFor(function)
	function.entryBlock = entry
	function.exitBlock = exit
	function.blocks = append(function.blocks, entry, exit)

	f.appendInstruction(entry, f.NewEntry())
	f.appendInstruction(entry, f.NewJump(exit))
	f.appendInstruction(exit, f.NewExit())
	wireEdge(entry, exit)
	renumber(entry)
	renumber(exit)
	return function
}

// NewBasicBlockFor creates an unplaced block owned by |function|. Callers
// place it through the editor.
func (f *Factory) NewBasicBlockFor(function *Function) *BasicBlock {
	block := &BasicBlock{id: function.nextBlockId, function: function}
	function.nextBlockId++
	return block
}

// NewVReg mints a fresh virtual register of the given type template.
func (f *Factory) NewVReg(function *Function, t ValueType, size ValueSize) Value {
	id := function.nextVRegId
	function.nextVRegId++
	return Value{Type: t, Size: size, Kind: KindVirtualRegister, Data: int32(id)}
}

// NewCondition mints a fresh conditional value for a 'cmp' output.
func (f *Factory) NewCondition(function *Function) Value {
	id := function.nextConditionId
	function.nextConditionId++
	return Condition(id)
}

// -----------------------------------------------------------------------------
// Literals

func (f *Factory) NewInt32Literal(function *Function, data int32) Value {
	return function.literals.RegisterLiteral(&Int32Literal{data: data}, Integer, Size32)
}

func (f *Factory) NewInt64Literal(function *Function, data int64) Value {
	return function.literals.RegisterLiteral(&Int64Literal{data: data}, Integer, Size64)
}

func (f *Factory) NewFloat32Literal(function *Function, data float32) Value {
	return function.literals.RegisterLiteral(&Float32Literal{data: data}, Float, Size32)
}

func (f *Factory) NewFloat64Literal(function *Function, data float64) Value {
	return function.literals.RegisterLiteral(&Float64Literal{data: data}, Float, Size64)
}

func (f *Factory) NewStringLiteral(function *Function, data string) Value {
	return function.literals.RegisterLiteral(&StringLiteral{data: data}, Integer, Size64)
}

func (f *Factory) GetLiteral(function *Function, value Value) Literal {
	return function.literals.GetLiteral(value)
}

// -----------------------------------------------------------------------------
// Instruction constructors
// Instructions are created detached; the editor places them.

func (f *Factory) NewEntry() *Instruction {
	return &Instruction{id: -1, opcode: OpEntry, index: -1}
}

func (f *Factory) NewExit() *Instruction {
	return &Instruction{id: -1, opcode: OpExit, index: -1}
}

func (f *Factory) NewRet() *Instruction {
	return &Instruction{id: -1, opcode: OpRet, index: -1}
}

func (f *Factory) NewJump(target *BasicBlock) *Instruction {
	return &Instruction{
		id: -1, opcode: OpJump, index: -1,
		blockOperands: []*BasicBlock{target},
	}
}

func (f *Factory) NewBranch(condition Value, trueBlock, falseBlock *BasicBlock) *Instruction {
	utils.Assert(condition.IsConditional(), "branch wants a condition, got %v", condition)
	return &Instruction{
		id: -1, opcode: OpBranch, index: -1,
		inputs:        []Value{condition},
		blockOperands: []*BasicBlock{trueBlock, falseBlock},
	}
}

func (f *Factory) NewCopy(output, input Value) *Instruction {
	utils.Assert(output.Type == input.Type, "copy across types %v <- %v", output, input)
	return &Instruction{
		id: -1, opcode: OpCopy, index: -1,
		outputs: []Value{output},
		inputs:  []Value{input},
	}
}

func (f *Factory) NewLit(output, literal Value) *Instruction {
	return &Instruction{
		id: -1, opcode: OpLit, index: -1,
		outputs: []Value{output},
		inputs:  []Value{literal},
	}
}

func (f *Factory) NewLoad(output, base, pointer, displacement Value) *Instruction {
	return &Instruction{
		id: -1, opcode: OpLoad, index: -1,
		outputs: []Value{output},
		inputs:  []Value{base, pointer, displacement},
	}
}

func (f *Factory) NewStore(base, pointer, displacement, value Value) *Instruction {
	return &Instruction{
		id: -1, opcode: OpStore, index: -1,
		inputs: []Value{base, pointer, displacement, value},
	}
}

func (f *Factory) NewCall(outputs []Value, callee Value) *Instruction {
	return &Instruction{
		id: -1, opcode: OpCall, index: -1,
		outputs: outputs,
		inputs:  []Value{callee},
	}
}

func (f *Factory) newArithmetic(opcode Opcode, output, left, right Value) *Instruction {
	return &Instruction{
		id: -1, opcode: opcode, index: -1,
		outputs: []Value{output},
		inputs:  []Value{left, right},
	}
}

func (f *Factory) NewAdd(output, left, right Value) *Instruction {
	return f.newArithmetic(OpAdd, output, left, right)
}

func (f *Factory) NewSub(output, left, right Value) *Instruction {
	return f.newArithmetic(OpSub, output, left, right)
}

// NewMul has two outputs after lowering: the low and high halves pinned to
// RAX and RDX.
func (f *Factory) NewMul(output, left, right Value) *Instruction {
	return f.newArithmetic(OpMul, output, left, right)
}

func (f *Factory) NewDiv(output, left, right Value) *Instruction {
	return f.newArithmetic(OpDiv, output, left, right)
}

func (f *Factory) NewBitAnd(output, left, right Value) *Instruction {
	return f.newArithmetic(OpBitAnd, output, left, right)
}

func (f *Factory) NewBitOr(output, left, right Value) *Instruction {
	return f.newArithmetic(OpBitOr, output, left, right)
}

func (f *Factory) NewBitXor(output, left, right Value) *Instruction {
	return f.newArithmetic(OpBitXor, output, left, right)
}

func (f *Factory) NewShl(output, left, right Value) *Instruction {
	return f.newArithmetic(OpShl, output, left, right)
}

func (f *Factory) NewShr(output, left, right Value) *Instruction {
	return f.newArithmetic(OpShr, output, left, right)
}

func (f *Factory) NewUShr(output, left, right Value) *Instruction {
	return f.newArithmetic(OpUShr, output, left, right)
}

func (f *Factory) NewCmp(condition IntegerCondition, output, left, right Value) *Instruction {
	utils.Assert(output.IsConditional(), "cmp wants a conditional output, got %v", output)
	instr := f.newArithmetic(OpCmp, output, left, right)
	instr.condition = condition
	return instr
}

func (f *Factory) NewSignExtend(output, input Value) *Instruction {
	return &Instruction{
		id: -1, opcode: OpSignExtend, index: -1,
		outputs: []Value{output},
		inputs:  []Value{input},
	}
}

func (f *Factory) NewZeroExtend(output, input Value) *Instruction {
	return &Instruction{
		id: -1, opcode: OpZeroExtend, index: -1,
		outputs: []Value{output},
		inputs:  []Value{input},
	}
}

func (f *Factory) NewPhi(output Value) *Instruction {
	return &Instruction{
		id: -1, opcode: OpPhi, index: -1,
		outputs: []Value{output},
	}
}

func (f *Factory) NewPCopy(outputs, inputs []Value) *Instruction {
	utils.Assert(len(outputs) == len(inputs), "pcopy wants matched operand lists")
	return &Instruction{
		id: -1, opcode: OpPCopy, index: -1,
		outputs: outputs,
		inputs:  inputs,
	}
}

// -----------------------------------------------------------------------------
// Internal placement helpers shared with the editor.

func (f *Factory) appendInstruction(block *BasicBlock, instr *Instruction) {
	utils.Assert(instr.basicBlock == nil, "%v is already placed", instr)
	if instr.id < 0 {
		instr.id = block.function.nextInstructionId
		block.function.nextInstructionId++
	}
	instr.basicBlock = block
	block.instructions = append(block.instructions, instr)
}

func wireEdge(from, to *BasicBlock) {
	if !from.HasSuccessor(to) {
		from.successors = append(from.successors, to)
	}
	if !to.HasPredecessor(from) {
		to.predecessors = append(to.predecessors, from)
	}
}

func unwireEdge(from, to *BasicBlock) {
	for i, succ := range from.successors {
		if succ == to {
			from.successors = append(from.successors[:i], from.successors[i+1:]...)
			break
		}
	}
	for i, pred := range to.predecessors {
		if pred == from {
			to.predecessors = append(to.predecessors[:i], to.predecessors[i+1:]...)
			break
		}
	}
}

func renumber(block *BasicBlock) {
	for index, instr := range block.instructions {
		instr.index = index
	}
}
