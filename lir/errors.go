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
)

// -----------------------------------------------------------------------------
// Validation error codes
// Structural errors found by the validator. Validation itself does not
// modify the CFG and queues ErrorData records into the factory; edits made
// inside a transaction whose Commit fails validation are not rolled back.

type ErrorCode int

const (
	// Basic block
	ErrorValidateBasicBlockEmpty ErrorCode = iota
	ErrorValidateBasicBlockEntry
	ErrorValidateBasicBlockExit
	ErrorValidateBasicBlockFunction
	ErrorValidateBasicBlockId
	ErrorValidateBasicBlockTerminator
	// Function
	ErrorValidateFunctionEmpty
	ErrorValidateFunctionEntry
	ErrorValidateFunctionExit
	// Instruction
	ErrorValidateInstructionBasicBlock
	ErrorValidateInstructionEntry
	ErrorValidateInstructionExit
	ErrorValidateInstructionId
	ErrorValidateInstructionInput
	ErrorValidateInstructionInputSize
	ErrorValidateInstructionInputType
	ErrorValidateInstructionOutput
	ErrorValidateInstructionSuccessor
	ErrorValidateInstructionTerminator
	ErrorValidatePhiCount
	ErrorValidatePhiNotFound
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorValidateBasicBlockEmpty:
		return "ValidateBasicBlockEmpty"
	case ErrorValidateBasicBlockEntry:
		return "ValidateBasicBlockEntry"
	case ErrorValidateBasicBlockExit:
		return "ValidateBasicBlockExit"
	case ErrorValidateBasicBlockFunction:
		return "ValidateBasicBlockFunction"
	case ErrorValidateBasicBlockId:
		return "ValidateBasicBlockId"
	case ErrorValidateBasicBlockTerminator:
		return "ValidateBasicBlockTerminator"
	case ErrorValidateFunctionEmpty:
		return "ValidateFunctionEmpty"
	case ErrorValidateFunctionEntry:
		return "ValidateFunctionEntry"
	case ErrorValidateFunctionExit:
		return "ValidateFunctionExit"
	case ErrorValidateInstructionBasicBlock:
		return "ValidateInstructionBasicBlock"
	case ErrorValidateInstructionEntry:
		return "ValidateInstructionEntry"
	case ErrorValidateInstructionExit:
		return "ValidateInstructionExit"
	case ErrorValidateInstructionId:
		return "ValidateInstructionId"
	case ErrorValidateInstructionInput:
		return "ValidateInstructionInput"
	case ErrorValidateInstructionInputSize:
		return "ValidateInstructionInputSize"
	case ErrorValidateInstructionInputType:
		return "ValidateInstructionInputType"
	case ErrorValidateInstructionOutput:
		return "ValidateInstructionOutput"
	case ErrorValidateInstructionSuccessor:
		return "ValidateInstructionSuccessor"
	case ErrorValidateInstructionTerminator:
		return "ValidateInstructionTerminator"
	case ErrorValidatePhiCount:
		return "ValidatePhiCount"
	case ErrorValidatePhiNotFound:
		return "ValidatePhiNotFound"
	}
	return "<invalid>"
}

// ErrorData is one structured validation failure: the error value plus
// its details.
type ErrorData struct {
	Code    ErrorCode
	Value   Value
	Details []Value
}

func (e *ErrorData) String() string {
	str := fmt.Sprintf("%v(%v", e.Code, e.Value)
	for _, detail := range e.Details {
		str += fmt.Sprintf(", %v", detail)
	}
	return str + ")"
}
