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
package types

import (
	"elang/ast"
)

// -----------------------------------------------------------------------------
// Front-end error codes
// Semantic errors are reported to the session error sink and never raised.
// The resolver substitutes an invalid value after reporting so resolution
// continues without cascading.

type ErrorCode int

const (
	ErrorTypeResolverArrayAccessArray ErrorCode = iota
	ErrorTypeResolverArrayAccessIndex
	ErrorTypeResolverArrayAccessRank
	ErrorTypeResolverAssignmentLeftValue
	ErrorTypeResolverBinaryOperationEquality
	ErrorTypeResolverBinaryOperationNumeric
	ErrorTypeResolverBinaryOperationShift
	ErrorTypeResolverCalleeNotSupported
	ErrorTypeResolverConditionalNotMatch
	ErrorTypeResolverExpressionInvalid
	ErrorTypeResolverExpressionNotBool
	ErrorTypeResolverExpressionNotYetImplemented
	ErrorTypeResolverIncrementExpressionPlace
	ErrorTypeResolverIncrementExpressionType
	ErrorTypeResolverMethodNoMatch
	ErrorTypeResolverUnaryOperationType
	ErrorTypeResolverVariableNotResolved
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorTypeResolverArrayAccessArray:
		return "TypeResolverArrayAccessArray"
	case ErrorTypeResolverArrayAccessIndex:
		return "TypeResolverArrayAccessIndex"
	case ErrorTypeResolverArrayAccessRank:
		return "TypeResolverArrayAccessRank"
	case ErrorTypeResolverAssignmentLeftValue:
		return "TypeResolverAssignmentLeftValue"
	case ErrorTypeResolverBinaryOperationEquality:
		return "TypeResolverBinaryOperationEquality"
	case ErrorTypeResolverBinaryOperationNumeric:
		return "TypeResolverBinaryOperationNumeric"
	case ErrorTypeResolverBinaryOperationShift:
		return "TypeResolverBinaryOperationShift"
	case ErrorTypeResolverCalleeNotSupported:
		return "TypeResolverCalleeNotSupported"
	case ErrorTypeResolverConditionalNotMatch:
		return "TypeResolverConditionalNotMatch"
	case ErrorTypeResolverExpressionInvalid:
		return "TypeResolverExpressionInvalid"
	case ErrorTypeResolverExpressionNotBool:
		return "TypeResolverExpressionNotBool"
	case ErrorTypeResolverExpressionNotYetImplemented:
		return "TypeResolverExpressionNotYetImplemented"
	case ErrorTypeResolverIncrementExpressionPlace:
		return "TypeResolverIncrementExpressionPlace"
	case ErrorTypeResolverIncrementExpressionType:
		return "TypeResolverIncrementExpressionType"
	case ErrorTypeResolverMethodNoMatch:
		return "TypeResolverMethodNoMatch"
	case ErrorTypeResolverUnaryOperationType:
		return "TypeResolverUnaryOperationType"
	case ErrorTypeResolverVariableNotResolved:
		return "TypeResolverVariableNotResolved"
	}
	return "<invalid>"
}

// ErrorSink receives semantic errors; the compilation session implements it.
type ErrorSink interface {
	AddError(code ErrorCode, nodes ...ast.Node)
}
