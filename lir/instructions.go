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
	"fmt"

	"elang/utils"
)

// -----------------------------------------------------------------------------
// Instructions
// Three-address instructions over Value operands. Branch-family
// instructions additionally carry basic block operands.

type Opcode int

const (
	OpEntry Opcode = iota
	OpExit
	OpRet
	OpJump
	OpBranch
	OpPhi
	OpPCopy
	OpCopy
	OpLit
	OpLoad
	OpStore
	OpCall
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpUShr
	OpCmp
	OpSignExtend
	OpZeroExtend
)

func (op Opcode) String() string {
	switch op {
	case OpEntry:
		return "entry"
	case OpExit:
		return "exit"
	case OpRet:
		return "ret"
	case OpJump:
		return "jmp"
	case OpBranch:
		return "br"
	case OpPhi:
		return "phi"
	case OpPCopy:
		return "pcopy"
	case OpCopy:
		return "mov"
	case OpLit:
		return "lit"
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpCall:
		return "call"
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpBitAnd:
		return "and"
	case OpBitOr:
		return "or"
	case OpBitXor:
		return "xor"
	case OpShl:
		return "shl"
	case OpShr:
		return "sar"
	case OpUShr:
		return "shr"
	case OpCmp:
		return "cmp"
	case OpSignExtend:
		return "sext"
	case OpZeroExtend:
		return "zext"
	}
	return "<invalid>"
}

// IsTerminator reports whether |op| must be the last instruction of a block.
func (op Opcode) IsTerminator() bool {
	switch op {
	case OpRet, OpJump, OpBranch, OpExit:
		return true
	}
	return false
}

// -----------------------------------------------------------------------------
// Integer conditions
// Condition codes produced by 'cmp' and consumed by 'br'. Values match the
// condition numbering of the code emitter's tttn table.

type IntegerCondition int

const (
	CondNotEqual       IntegerCondition = 0
	CondGreaterOrEqual IntegerCondition = 1
	CondGreaterThan    IntegerCondition = 2
	CondAboveOrEqual   IntegerCondition = 3
	CondAbove          IntegerCondition = 4
	CondBelowOrEqual   IntegerCondition = 11
	CondBelow          IntegerCondition = 12
	CondLessOrEqual    IntegerCondition = 13
	CondLessThan       IntegerCondition = 14
	CondEqual          IntegerCondition = 15
)

func (c IntegerCondition) String() string {
	switch c {
	case CondNotEqual:
		return "ne"
	case CondGreaterOrEqual:
		return "ge"
	case CondGreaterThan:
		return "gt"
	case CondAboveOrEqual:
		return "ae"
	case CondAbove:
		return "a"
	case CondBelowOrEqual:
		return "be"
	case CondBelow:
		return "b"
	case CondLessOrEqual:
		return "le"
	case CondLessThan:
		return "lt"
	case CondEqual:
		return "eq"
	}
	return "<invalid>"
}

// CommuteCondition returns the condition testing the opposite outcome, used
// when a branch falls through to its true target.
func CommuteCondition(c IntegerCondition) IntegerCondition {
	switch c {
	case CondNotEqual:
		return CondEqual
	case CondEqual:
		return CondNotEqual
	case CondGreaterOrEqual:
		return CondLessThan
	case CondLessThan:
		return CondGreaterOrEqual
	case CondGreaterThan:
		return CondLessOrEqual
	case CondLessOrEqual:
		return CondGreaterThan
	case CondAboveOrEqual:
		return CondBelow
	case CondBelow:
		return CondAboveOrEqual
	case CondAbove:
		return CondBelowOrEqual
	case CondBelowOrEqual:
		return CondAbove
	}
	utils.ShouldNotReachHere()
	return c
}

// -----------------------------------------------------------------------------
// Instruction

// PhiOperand binds one predecessor to the value flowing in along its edge.
type PhiOperand struct {
	Block *BasicBlock
	Value Value
}

type Instruction struct {
	id     int
	opcode Opcode

	outputs []Value
	inputs  []Value

	// Successor blocks for jump/branch; branch order is (true, false).
	blockOperands []*BasicBlock

	// Per-predecessor inputs for phi.
	phiOperands []PhiOperand

	// Condition tested by cmp.
	condition IntegerCondition

	basicBlock *BasicBlock
	index      int
}

func (i *Instruction) Id() int                  { return i.id }
func (i *Instruction) Opcode() Opcode           { return i.opcode }
func (i *Instruction) Outputs() []Value         { return i.outputs }
func (i *Instruction) Inputs() []Value          { return i.inputs }
func (i *Instruction) BlockOperands() []*BasicBlock { return i.blockOperands }
func (i *Instruction) PhiOperands() []PhiOperand    { return i.phiOperands }
func (i *Instruction) BasicBlock() *BasicBlock  { return i.basicBlock }

// Index is the position of this instruction inside its block, assigned on
// Editor.Commit; it supports fast before/after queries.
func (i *Instruction) Index() int { return i.index }

func (i *Instruction) Output(position int) Value {
	return i.outputs[position]
}

func (i *Instruction) Input(position int) Value {
	return i.inputs[position]
}

func (i *Instruction) BlockOperand(position int) *BasicBlock {
	return i.blockOperands[position]
}

func (i *Instruction) Condition() IntegerCondition {
	utils.Assert(i.opcode == OpCmp || i.opcode == OpBranch, "%v has no condition", i)
	return i.condition
}

func (i *Instruction) IsTerminator() bool { return i.opcode.IsTerminator() }
func (i *Instruction) IsPhi() bool        { return i.opcode == OpPhi }

// PhiInputOf returns the phi input flowing in from |predecessor|.
func (i *Instruction) PhiInputOf(predecessor *BasicBlock) Value {
	utils.Assert(i.IsPhi(), "%v is not a phi", i)
	for _, operand := range i.phiOperands {
		if operand.Block == predecessor {
			return operand.Value
		}
	}
	utils.Fatal("no phi input for %v", predecessor)
	return Value{}
}

func (i *Instruction) String() string {
	str := ""
	if i.basicBlock != nil {
		str += fmt.Sprintf("bb%d:", i.basicBlock.id)
	} else {
		str += "--:"
	}
	str += fmt.Sprintf("%d:%v", i.id, i.opcode)
	if i.opcode == OpCmp {
		str += fmt.Sprintf("_%v", i.condition)
	}
	for _, output := range i.outputs {
		str += fmt.Sprintf(" %v", output)
	}
	if len(i.outputs) > 0 {
		str += " <-"
	}
	if i.IsPhi() {
		for _, operand := range i.phiOperands {
			str += fmt.Sprintf(" %v(%v)", operand.Value, operand.Block)
		}
		return str
	}
	for _, input := range i.inputs {
		str += fmt.Sprintf(" %v", input)
	}
	for _, block := range i.blockOperands {
		str += fmt.Sprintf(" %v", block)
	}
	return str
}
