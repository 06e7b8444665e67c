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
package ast

import (
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Expression AST
// The parser and name resolver live outside of the core. The core consumes a
// fully built expression tree through the visitor below and never mutates it.

type Node interface {
	Accept(v Visitor)
	String() string
}

type Expression interface {
	Node
	isExpression()
}

// Visitor dispatches on the expression variant. Unhandled variants fall into
// DoDefaultVisit.
type Visitor interface {
	DoDefaultVisit(node Node)
	VisitArrayAccess(node *ArrayAccess)
	VisitAssignment(node *Assignment)
	VisitBinaryOperation(node *BinaryOperation)
	VisitCall(node *Call)
	VisitConditional(node *Conditional)
	VisitIncrementExpression(node *IncrementExpression)
	VisitLiteral(node *Literal)
	VisitMemberAccess(node *MemberAccess)
	VisitNameReference(node *NameReference)
	VisitParameterReference(node *ParameterReference)
	VisitUnaryOperation(node *UnaryOperation)
	VisitVariableReference(node *VariableReference)
}

// -----------------------------------------------------------------------------
// Named declarations
// Variables and parameters are declarations the tracker keys on; methods come
// from the name resolver as callee targets.

type NamedNode interface {
	Node
	Name() string
}

type Variable struct {
	name string
}

func NewVariable(name string) *Variable {
	return &Variable{name: name}
}

func (x *Variable) Name() string     { return x.name }
func (x *Variable) String() string   { return x.name }
func (x *Variable) Accept(v Visitor) { v.DoDefaultVisit(x) }

type Parameter struct {
	name     string
	position int
}

func NewParameter(name string, position int) *Parameter {
	return &Parameter{name: name, position: position}
}

func (x *Parameter) Name() string     { return x.name }
func (x *Parameter) Position() int    { return x.position }
func (x *Parameter) String() string   { return x.name }
func (x *Parameter) Accept(v Visitor) { v.DoDefaultVisit(x) }

type Method struct {
	name string
}

func NewMethod(name string) *Method {
	return &Method{name: name}
}

func (x *Method) Name() string     { return x.name }
func (x *Method) String() string   { return x.name }
func (x *Method) Accept(v Visitor) { v.DoDefaultVisit(x) }

// -----------------------------------------------------------------------------
// Expressions

type Literal struct {
	token *Token
}

func NewLiteral(token *Token) *Literal {
	return &Literal{token: token}
}

func (x *Literal) Token() *Token    { return x.token }
func (x *Literal) Accept(v Visitor) { v.VisitLiteral(x) }
func (x *Literal) String() string   { return x.token.String() }
func (x *Literal) isExpression()    {}

type BinaryOperation struct {
	op    *Token
	left  Expression
	right Expression
}

func NewBinaryOperation(op *Token, left, right Expression) *BinaryOperation {
	return &BinaryOperation{op: op, left: left, right: right}
}

func (x *BinaryOperation) Op() *Token        { return x.op }
func (x *BinaryOperation) Left() Expression  { return x.left }
func (x *BinaryOperation) Right() Expression { return x.right }
func (x *BinaryOperation) Accept(v Visitor)  { v.VisitBinaryOperation(x) }
func (x *BinaryOperation) isExpression()     {}

func (x *BinaryOperation) String() string {
	return fmt.Sprintf("%v %v %v", x.left, x.op, x.right)
}

type UnaryOperation struct {
	op         *Token
	expression Expression
}

func NewUnaryOperation(op *Token, expression Expression) *UnaryOperation {
	return &UnaryOperation{op: op, expression: expression}
}

func (x *UnaryOperation) Op() *Token             { return x.op }
func (x *UnaryOperation) Expression() Expression { return x.expression }
func (x *UnaryOperation) Accept(v Visitor)       { v.VisitUnaryOperation(x) }
func (x *UnaryOperation) isExpression()          {}

func (x *UnaryOperation) String() string {
	return fmt.Sprintf("%v%v", x.op, x.expression)
}

type IncrementExpression struct {
	op         *Token
	expression Expression
}

func NewIncrementExpression(op *Token, expression Expression) *IncrementExpression {
	return &IncrementExpression{op: op, expression: expression}
}

func (x *IncrementExpression) Op() *Token             { return x.op }
func (x *IncrementExpression) Expression() Expression { return x.expression }
func (x *IncrementExpression) Accept(v Visitor)       { v.VisitIncrementExpression(x) }
func (x *IncrementExpression) isExpression()          {}

func (x *IncrementExpression) String() string {
	return fmt.Sprintf("%v%v", x.expression, x.op)
}

type Conditional struct {
	condition       Expression
	trueExpression  Expression
	falseExpression Expression
}

func NewConditional(condition, trueExpression, falseExpression Expression) *Conditional {
	return &Conditional{
		condition:       condition,
		trueExpression:  trueExpression,
		falseExpression: falseExpression,
	}
}

func (x *Conditional) Condition() Expression       { return x.condition }
func (x *Conditional) TrueExpression() Expression  { return x.trueExpression }
func (x *Conditional) FalseExpression() Expression { return x.falseExpression }
func (x *Conditional) Accept(v Visitor)            { v.VisitConditional(x) }
func (x *Conditional) isExpression()               {}

func (x *Conditional) String() string {
	return fmt.Sprintf("%v ? %v : %v", x.condition, x.trueExpression, x.falseExpression)
}

type ArrayAccess struct {
	array   Expression
	indexes []Expression
}

func NewArrayAccess(array Expression, indexes []Expression) *ArrayAccess {
	return &ArrayAccess{array: array, indexes: indexes}
}

func (x *ArrayAccess) Array() Expression     { return x.array }
func (x *ArrayAccess) Indexes() []Expression { return x.indexes }
func (x *ArrayAccess) Accept(v Visitor)      { v.VisitArrayAccess(x) }
func (x *ArrayAccess) isExpression()         {}

func (x *ArrayAccess) String() string {
	indexes := make([]string, len(x.indexes))
	for i, index := range x.indexes {
		indexes[i] = index.String()
	}
	return fmt.Sprintf("%v[%s]", x.array, strings.Join(indexes, ", "))
}

type Assignment struct {
	left  Expression
	right Expression
}

func NewAssignment(left, right Expression) *Assignment {
	return &Assignment{left: left, right: right}
}

func (x *Assignment) Left() Expression  { return x.left }
func (x *Assignment) Right() Expression { return x.right }
func (x *Assignment) Accept(v Visitor)  { v.VisitAssignment(x) }
func (x *Assignment) isExpression()     {}

func (x *Assignment) String() string {
	return fmt.Sprintf("%v = %v", x.left, x.right)
}

type Call struct {
	callee    Expression
	arguments []Expression
}

func NewCall(callee Expression, arguments []Expression) *Call {
	return &Call{callee: callee, arguments: arguments}
}

func (x *Call) Callee() Expression      { return x.callee }
func (x *Call) Arguments() []Expression { return x.arguments }
func (x *Call) Arity() int              { return len(x.arguments) }
func (x *Call) Accept(v Visitor)        { v.VisitCall(x) }
func (x *Call) isExpression()           {}

func (x *Call) String() string {
	arguments := make([]string, len(x.arguments))
	for i, argument := range x.arguments {
		arguments[i] = argument.String()
	}
	return fmt.Sprintf("%v(%s)", x.callee, strings.Join(arguments, ", "))
}

// -----------------------------------------------------------------------------
// References
// Reference nodes are produced by the name resolver binding names to
// declarations; the core only walks them.

type NameReference struct {
	name string
}

func NewNameReference(name string) *NameReference {
	return &NameReference{name: name}
}

func (x *NameReference) Name() string     { return x.name }
func (x *NameReference) Accept(v Visitor) { v.VisitNameReference(x) }
func (x *NameReference) String() string   { return x.name }
func (x *NameReference) isExpression()    {}

type MemberAccess struct {
	container Expression
	member    string
}

func NewMemberAccess(container Expression, member string) *MemberAccess {
	return &MemberAccess{container: container, member: member}
}

func (x *MemberAccess) Container() Expression { return x.container }
func (x *MemberAccess) Member() string        { return x.member }
func (x *MemberAccess) Accept(v Visitor)      { v.VisitMemberAccess(x) }
func (x *MemberAccess) isExpression()         {}

func (x *MemberAccess) String() string {
	return fmt.Sprintf("%v.%s", x.container, x.member)
}

type VariableReference struct {
	variable *Variable
}

func NewVariableReference(variable *Variable) *VariableReference {
	return &VariableReference{variable: variable}
}

func (x *VariableReference) Variable() *Variable { return x.variable }
func (x *VariableReference) Accept(v Visitor)    { v.VisitVariableReference(x) }
func (x *VariableReference) String() string      { return x.variable.Name() }
func (x *VariableReference) isExpression()       {}

type ParameterReference struct {
	parameter *Parameter
}

func NewParameterReference(parameter *Parameter) *ParameterReference {
	return &ParameterReference{parameter: parameter}
}

func (x *ParameterReference) Parameter() *Parameter { return x.parameter }
func (x *ParameterReference) Accept(v Visitor)      { v.VisitParameterReference(x) }
func (x *ParameterReference) String() string        { return x.parameter.Name() }
func (x *ParameterReference) isExpression()         {}
