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
// Validator
// Checks the structural invariants of a block or a whole function:
// exactly one terminator at the end, phi placement, successor/predecessor
// consistency, and single-assignment of virtual registers. Failures queue
// ErrorData records into the factory.

type Validator struct {
	editor *Editor
	failed bool
}

func NewValidator(editor *Editor) *Validator {
	return &Validator{editor: editor}
}

func (v *Validator) asValue(instr *Instruction) Value {
	return Value{Type: Integer, Size: Size32, Kind: KindInstruction, Data: int32(instr.id)}
}

func (v *Validator) errorAt(code ErrorCode, value Value, details ...Value) {
	v.failed = true
	v.editor.factory.AddError(code, value, details...)
}

func (v *Validator) errorAtInstr(code ErrorCode, instr *Instruction, details ...Value) {
	v.errorAt(code, v.asValue(instr), details...)
}

func blockValue(block *BasicBlock) Value {
	return Value{Type: Integer, Size: Size32, Kind: KindLiteral, Data: int32(block.id)}
}

// ValidateFunction checks the whole function.
func (v *Validator) ValidateFunction(function *Function) bool {
	if len(function.blocks) == 0 {
		v.errorAt(ErrorValidateFunctionEmpty, VoidValue())
		return false
	}
	if function.blocks[0] != function.entryBlock {
		v.errorAt(ErrorValidateFunctionEntry, blockValue(function.blocks[0]))
	}
	exit := function.exitBlock
	if exit == nil || exit.function != function {
		v.errorAt(ErrorValidateFunctionExit, VoidValue())
	}

	defined := utils.NewSet[Value]()
	for _, block := range function.blocks {
		v.validateBlock(block, defined)
	}
	return !v.failed
}

// ValidateBlock checks one block in isolation.
func (v *Validator) ValidateBlock(block *BasicBlock) bool {
	v.validateBlock(block, nil)
	return !v.failed
}

func (v *Validator) validateBlock(block *BasicBlock, defined *utils.Set[Value]) {
	function := v.editor.function
	if block.function != function {
		v.errorAt(ErrorValidateBasicBlockFunction, blockValue(block))
		return
	}
	if block.id < 0 || block.id >= function.nextBlockId {
		v.errorAt(ErrorValidateBasicBlockId, blockValue(block))
	}
	if len(block.instructions) == 0 {
		v.errorAt(ErrorValidateBasicBlockEmpty, blockValue(block))
		return
	}

	last := block.LastInstruction()
	if !last.IsTerminator() {
		v.errorAt(ErrorValidateBasicBlockTerminator, blockValue(block))
	}
	if block == function.entryBlock && block.FirstInstruction().opcode != OpEntry {
		v.errorAt(ErrorValidateBasicBlockEntry, blockValue(block))
	}
	if block == function.exitBlock && last.opcode != OpExit {
		v.errorAt(ErrorValidateBasicBlockExit, blockValue(block))
	}

	sawNonPhi := false
	for _, instr := range block.instructions {
		v.validateInstruction(block, instr, defined)
		if instr.IsPhi() {
			if sawNonPhi {
				v.errorAtInstr(ErrorValidatePhiCount, instr)
			}
			continue
		}
		sawNonPhi = true
	}

	// Successor/predecessor consistency: S in succ(B) iff B in pred(S).
	for _, succ := range block.successors {
		if !succ.HasPredecessor(block) {
			v.errorAt(ErrorValidateInstructionSuccessor, blockValue(block),
				blockValue(succ))
		}
	}
	for _, operand := range last.blockOperands {
		if !block.HasSuccessor(operand) {
			v.errorAtInstr(ErrorValidateInstructionSuccessor, last, blockValue(operand))
		}
	}
}

func (v *Validator) validateInstruction(block *BasicBlock, instr *Instruction,
	defined *utils.Set[Value]) {
	function := v.editor.function
	if instr.basicBlock != block {
		v.errorAtInstr(ErrorValidateInstructionBasicBlock, instr)
	}
	if instr.id < 0 {
		v.errorAtInstr(ErrorValidateInstructionId, instr)
	}
	if instr.opcode == OpEntry && block != function.entryBlock {
		v.errorAtInstr(ErrorValidateInstructionEntry, instr)
	}
	if instr.opcode == OpExit && block != function.exitBlock {
		v.errorAtInstr(ErrorValidateInstructionExit, instr)
	}
	if instr.IsTerminator() && instr != block.LastInstruction() {
		v.errorAtInstr(ErrorValidateInstructionTerminator, instr)
	}

	if instr.IsPhi() {
		if len(instr.phiOperands) != len(block.predecessors) {
			v.errorAtInstr(ErrorValidatePhiCount, instr)
		}
		for _, pred := range block.predecessors {
			found := false
			for _, operand := range instr.phiOperands {
				if operand.Block == pred {
					found = true
					break
				}
			}
			if !found {
				v.errorAtInstr(ErrorValidatePhiNotFound, instr, blockValue(pred))
			}
		}
	}

	for _, input := range instr.inputs {
		if input.IsInvalid() {
			v.errorAtInstr(ErrorValidateInstructionInput, instr, input)
		}
	}

	// Two-operand arithmetic wants same-typed, same-sized operands.
	switch instr.opcode {
	case OpAdd, OpSub, OpBitAnd, OpBitOr, OpBitXor, OpCmp:
		if len(instr.inputs) == 2 {
			left, right := instr.inputs[0], instr.inputs[1]
			if left.Type != right.Type {
				v.errorAtInstr(ErrorValidateInstructionInputType, instr, left, right)
			} else if left.Size != right.Size && !right.IsImmediate() {
				v.errorAtInstr(ErrorValidateInstructionInputSize, instr, left, right)
			}
		}
	}

	// SSA: a virtual register is defined exactly once per function.
	if defined == nil {
		return
	}
	for _, output := range instr.outputs {
		if !output.IsVirtual() {
			continue
		}
		// The destructive two-address form produced by lowering redefines
		// its own first input.
		if len(instr.inputs) > 0 && instr.inputs[0] == output {
			continue
		}
		if !defined.Add(output) {
			v.errorAtInstr(ErrorValidateInstructionOutput, instr, output)
		}
	}
}
