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
	"elang/sem"
	"elang/utils"
)

// ReferenceResolver maps AST reference expressions to semantic declarations.
// Name resolution proper lives outside of the core.
type ReferenceResolver interface {
	ResolveReference(expression ast.Expression) sem.Semantic
}

// -----------------------------------------------------------------------------
// TypeResolver
// Drives every expression form to either a ground type or a continuing
// constraint. Each recursive Resolve pushes a context carrying the expected
// value; visit methods publish their result by unifying against it.

type context struct {
	result Value
	value  Value
	user   ast.Node
}

type numericKind int

const (
	numericNone numericKind = iota
	numericInt
	numericUInt
	numericFloat
)

type numericType struct {
	kind numericKind
	size int
}

func (t numericType) isNone() bool  { return t.kind == numericNone }
func (t numericType) isInt() bool   { return t.kind == numericInt }
func (t numericType) isUInt() bool  { return t.kind == numericUInt }
func (t numericType) isFloat() bool { return t.kind == numericFloat }

type TypeResolver struct {
	factory     *Factory
	errorSink   ErrorSink
	semantics   *sem.Semantics
	semFactory  *sem.Factory
	refResolver ReferenceResolver

	methodResolver  *MethodResolver
	variableTracker *VariableTracker

	context    *context
	callValues []*CallValue
}

func NewTypeResolver(factory *Factory, errorSink ErrorSink, semantics *sem.Semantics,
	semFactory *sem.Factory, refResolver ReferenceResolver,
	variableTracker *VariableTracker) *TypeResolver {
	return &TypeResolver{
		factory:         factory,
		errorSink:       errorSink,
		semantics:       semantics,
		semFactory:      semFactory,
		refResolver:     refResolver,
		methodResolver:  NewMethodResolver(),
		variableTracker: variableTracker,
	}
}

// CallValues exposes the call sites seen so far; each holds its surviving
// candidate methods.
func (r *TypeResolver) CallValues() []*CallValue { return r.callValues }

func (r *TypeResolver) anyValue() Value   { return r.factory.AnyValue() }
func (r *TypeResolver) boolValue() Value  { return r.factory.BoolValue() }
func (r *TypeResolver) emptyValue() Value { return r.factory.EmptyValue() }

func (r *TypeResolver) errorAt(code ErrorCode, nodes ...ast.Node) {
	r.errorSink.AddError(code, nodes...)
}

// Resolve is the entry point. When |upperBound| is the empty value the
// expression is analyzed in an error context against any.
func (r *TypeResolver) Resolve(expression ast.Expression, upperBound Value) Value {
	value := upperBound
	if value == r.emptyValue() {
		value = r.anyValue()
	}
	saved := r.context
	r.context = &context{value: value, user: expression}
	expression.Accept(r)
	result := r.context.result
	r.context = saved
	if result == nil || result == r.emptyValue() {
		return r.factory.NewInvalidValue(expression)
	}
	return result
}

// ResolveAsBool resolves |expression| against bool.
func (r *TypeResolver) ResolveAsBool(expression ast.Expression) Value {
	result := r.Resolve(expression, r.boolValue())
	if result != r.boolValue() {
		// TODO: look for `implicit operator bool()`.
		return r.emptyValue()
	}
	return result
}

func (r *TypeResolver) unify(value1, value2 Value) Value {
	evaluator := NewEvaluator(r.factory)
	return evaluator.Unify(value1, value2)
}

func (r *TypeResolver) produceResult(result Value, producer ast.Node) {
	utils.Assert(result != nil, "result must not be nil")
	utils.Assert(r.context != nil, "no active context")
	utils.Assert(r.context.result == nil, "result already produced for %v", producer)
	r.context.result = result
	if result != r.emptyValue() {
		return
	}
	r.context.result = r.factory.NewInvalidValue(producer)
	if r.context.value == r.boolValue() {
		r.errorAt(ErrorTypeResolverExpressionNotBool, producer)
	} else {
		r.errorAt(ErrorTypeResolverExpressionInvalid, producer)
	}
}

// produceUnifiedResult publishes the unification of |result| with the
// contextual expected value.
func (r *TypeResolver) produceUnifiedResult(result Value, producer ast.Node) {
	r.produceResult(r.unify(result, r.context.value), producer)
}

// produceSemantics attaches a ground literal's type to the AST node, then
// publishes the unified result.
func (r *TypeResolver) produceSemantics(value Value, node ast.Node) {
	if literal, ok := value.(*Literal); ok {
		r.semantics.SetSemanticOf(node, literal.Value())
	}
	r.produceUnifiedResult(value, node)
}

func (r *TypeResolver) produceResolved(expression ast.Expression, value Value,
	producer ast.Node) {
	r.Resolve(expression, value)
	r.produceUnifiedResult(value, producer)
}

// -----------------------------------------------------------------------------
// Numeric promotion

func (r *TypeResolver) numericTypeOf(value Value) numericType {
	switch value {
	case Value(r.factory.Float64Value()):
		return numericType{numericFloat, 64}
	case Value(r.factory.Float32Value()):
		return numericType{numericFloat, 32}
	case Value(r.factory.Int64Value()):
		return numericType{numericInt, 64}
	case Value(r.factory.Int32Value()):
		return numericType{numericInt, 32}
	case Value(r.factory.Int16Value()):
		return numericType{numericInt, 16}
	case Value(r.factory.Int8Value()):
		return numericType{numericInt, 8}
	case Value(r.factory.UInt64Value()):
		return numericType{numericUInt, 64}
	case Value(r.factory.UInt32Value()):
		return numericType{numericUInt, 32}
	case Value(r.factory.UInt16Value()):
		return numericType{numericUInt, 16}
	case Value(r.factory.UInt8Value()):
		return numericType{numericUInt, 8}
	}
	return numericType{numericNone, 0}
}

// promoteNumericType promotes a single operand to its 32-bit-minimum form.
func (r *TypeResolver) promoteNumericType(t numericType) Value {
	switch t.kind {
	case numericFloat:
		if t.size == 64 {
			return r.factory.Float64Value()
		}
		return r.factory.Float32Value()
	case numericInt:
		if t.size == 64 {
			return r.factory.Int64Value()
		}
		return r.factory.Int32Value()
	case numericUInt:
		if t.size == 64 {
			return r.factory.UInt64Value()
		}
		return r.factory.UInt32Value()
	}
	return r.emptyValue()
}

// promoteNumericTypes promotes a pair of operands to their common type.
// Mixing signed and unsigned integers is ambiguous and yields empty.
func (r *TypeResolver) promoteNumericTypes(left, right numericType) Value {
	if left.isNone() {
		return r.promoteNumericType(right)
	}
	if right.isNone() {
		return r.promoteNumericType(left)
	}

	if left.isFloat() && right.isFloat() {
		if left.size == 64 || right.size == 64 {
			return r.factory.Float64Value()
		}
		return r.factory.Float32Value()
	}
	if left.isFloat() {
		if left.size == 64 {
			return r.factory.Float64Value()
		}
		return r.factory.Float32Value()
	}
	if right.isFloat() {
		if right.size == 64 {
			return r.factory.Float64Value()
		}
		return r.factory.Float32Value()
	}

	if left.kind != right.kind {
		return r.emptyValue()
	}
	if left.isUInt() {
		if left.size == 64 || right.size == 64 {
			return r.factory.UInt64Value()
		}
		return r.factory.UInt32Value()
	}
	if left.size == 64 || right.size == 64 {
		return r.factory.Int64Value()
	}
	return r.factory.Int32Value()
}

// -----------------------------------------------------------------------------
// ast.Visitor

func (r *TypeResolver) DoDefaultVisit(node ast.Node) {
	r.errorAt(ErrorTypeResolverExpressionNotYetImplemented, node)
}

// `null` becomes the null value of the contextual expected value; other
// literals carry a predefined type token.
func (r *TypeResolver) VisitLiteral(node *ast.Literal) {
	token := node.Token()
	if token.Kind == ast.TokenNullLiteral {
		// TODO: check the contextual value is nullable.
		r.produceResult(r.factory.NewNullValue(r.context.value), node)
		return
	}

	literalType := r.predefinedTypeOf(token.Kind)
	if literalType == nil {
		return
	}
	result := r.unify(r.factory.NewLiteral(literalType), r.context.value)
	resultLiteral, ok := result.(*Literal)
	if !ok {
		return
	}
	utils.Assert(r.semantics.SemanticOf(node) == nil, "literal %v visited twice", node)
	r.semantics.SetSemanticOf(node,
		r.semFactory.NewLiteral(resultLiteral.Value(), token))
	r.produceResult(resultLiteral, node)
}

func (r *TypeResolver) predefinedTypeOf(kind ast.TokenKind) sem.Type {
	predefined := r.semFactory.Predefined()
	switch kind {
	case ast.TokenInt32Literal:
		return predefined.TypeOf(sem.NameInt32)
	case ast.TokenInt64Literal:
		return predefined.TypeOf(sem.NameInt64)
	case ast.TokenUInt32Literal:
		return predefined.TypeOf(sem.NameUInt32)
	case ast.TokenUInt64Literal:
		return predefined.TypeOf(sem.NameUInt64)
	case ast.TokenFloat32Literal:
		return predefined.TypeOf(sem.NameFloat32)
	case ast.TokenFloat64Literal:
		return predefined.TypeOf(sem.NameFloat64)
	case ast.TokenCharLiteral:
		return predefined.TypeOf(sem.NameChar)
	case ast.TokenStringLiteral:
		return predefined.TypeOf(sem.NameString)
	case ast.TokenTrueLiteral, ast.TokenFalseLiteral:
		return predefined.TypeOf(sem.NameBool)
	}
	utils.ShouldNotReachHere()
	return nil
}

func (r *TypeResolver) VisitBinaryOperation(node *ast.BinaryOperation) {
	// TODO: user defined binary operators.
	op := node.Op().Kind

	if op == ast.TokenNullOr {
		// T operator??(T?, T)
		// TODO: left should be nullable.
		left := r.Resolve(node.Left(), r.anyValue())
		right := r.Resolve(node.Right(), r.anyValue())
		if left == r.emptyValue() || right == r.emptyValue() {
			return
		}
		r.produceSemantics(right, node)
		return
	}

	if op.IsConditional() {
		// bool operator&&(bool, bool)
		// bool operator||(bool, bool)
		r.ResolveAsBool(node.Left())
		r.ResolveAsBool(node.Right())
		r.produceUnifiedResult(r.boolValue(), node)
		return
	}

	evaluator := NewEvaluator(r.factory)
	left := evaluator.Evaluate(r.Resolve(node.Left(), r.anyValue()))
	right := evaluator.Evaluate(r.Resolve(node.Right(), r.anyValue()))

	if op.IsEquality() {
		// bool operator==(T, T)
		// TODO: implicit conversions between operand types.
		if left != right {
			r.errorAt(ErrorTypeResolverBinaryOperationEquality, node)
		}
		r.produceUnifiedResult(r.boolValue(), node)
		return
	}

	leftType := r.numericTypeOf(left)
	rightType := r.numericTypeOf(right)

	if leftType.isNone() && rightType.isNone() {
		r.errorAt(ErrorTypeResolverBinaryOperationNumeric, node.Left())
		r.errorAt(ErrorTypeResolverBinaryOperationNumeric, node.Right())
		return
	}

	if op.IsBitwiseShift() {
		// int32 operator<<(int32, int32) and the int64/uint32/uint64 forms.
		if !rightType.isInt() || rightType.size != 32 {
			r.errorAt(ErrorTypeResolverBinaryOperationShift, node.Right())
			return
		}
		if leftType.isInt() {
			if leftType.size == 64 {
				r.produceSemantics(r.factory.Int64Value(), node)
			} else {
				r.produceSemantics(r.factory.Int32Value(), node)
			}
			return
		}
		if leftType.isUInt() {
			if leftType.size == 64 {
				r.produceSemantics(r.factory.UInt64Value(), node)
			} else {
				r.produceSemantics(r.factory.UInt32Value(), node)
			}
			return
		}
		r.errorAt(ErrorTypeResolverBinaryOperationNumeric, node.Left())
		return
	}

	// Arithmetic and bitwise operands are promoted to one common type.
	// Mixing signed and unsigned integers is ambiguous; both operands are
	// at fault.
	result := r.promoteNumericTypes(leftType, rightType)
	if op.IsArithmetic() {
		if result == r.emptyValue() {
			r.errorAt(ErrorTypeResolverBinaryOperationNumeric, node.Left())
			r.errorAt(ErrorTypeResolverBinaryOperationNumeric, node.Right())
			return
		}
		r.produceSemantics(result, node)
		return
	}

	if op.IsBitwise() {
		resultType := r.numericTypeOf(result)
		if resultType.isInt() || resultType.isUInt() {
			r.produceSemantics(result, node)
			return
		}
		if leftType.isFloat() {
			r.errorAt(ErrorTypeResolverBinaryOperationNumeric, node.Left())
		}
		if rightType.isFloat() {
			r.errorAt(ErrorTypeResolverBinaryOperationNumeric, node.Right())
		}
		return
	}

	if op.IsRelational() {
		r.produceUnifiedResult(r.boolValue(), node)
		if literal, ok := result.(*Literal); ok {
			r.semantics.SetSemanticOf(node, literal.Value())
		}
		return
	}

	utils.Fatal("unknown binary operation %v", node)
}

//	'!' bool
//	'~' int|uint
//	'+' numeric
//	'-' numeric
func (r *TypeResolver) VisitUnaryOperation(node *ast.UnaryOperation) {
	if node.Op().Kind == ast.TokenNot {
		r.produceUnifiedResult(r.ResolveAsBool(node.Expression()), node)
		return
	}

	operand := r.Resolve(node.Expression(), r.anyValue())
	evaluator := NewEvaluator(r.factory)
	operandType := r.numericTypeOf(evaluator.Evaluate(operand))
	if operandType.isNone() {
		r.errorAt(ErrorTypeResolverUnaryOperationType, node.Expression())
		return
	}
	if node.Op().Kind == ast.TokenBitNot && operandType.isFloat() {
		r.errorAt(ErrorTypeResolverUnaryOperationType, node.Expression())
		return
	}
	r.produceSemantics(r.promoteNumericType(operandType), node)
}

// Post/pre increment and decrement.
func (r *TypeResolver) VisitIncrementExpression(node *ast.IncrementExpression) {
	place := node.Expression()
	evaluator := NewEvaluator(r.factory)
	operand := evaluator.Evaluate(r.Resolve(place, r.anyValue()))
	operandType := r.numericTypeOf(operand)
	if operandType.isNone() {
		r.errorAt(ErrorTypeResolverIncrementExpressionType, place)
		return
	}
	if _, ok := place.(*ast.VariableReference); !ok {
		// TODO: field access and property access places.
		r.errorAt(ErrorTypeResolverIncrementExpressionPlace, place)
		return
	}
	r.produceSemantics(r.promoteNumericType(operandType), node)
}

func (r *TypeResolver) VisitConditional(node *ast.Conditional) {
	r.ResolveAsBool(node.Condition())
	trueValue := r.Resolve(node.TrueExpression(), r.anyValue())
	falseValue := r.Resolve(node.FalseExpression(), r.anyValue())
	// TODO: pick the arm the other arm implicitly converts to.
	if trueValue != falseValue {
		r.errorAt(ErrorTypeResolverConditionalNotMatch,
			node.TrueExpression(), node.FalseExpression())
		return
	}
	r.produceUnifiedResult(r.unify(falseValue, trueValue), node)
}

// The base must be an array type, the index count must match its rank and
// every index must evaluate to an integral type.
func (r *TypeResolver) VisitArrayAccess(node *ast.ArrayAccess) {
	array := r.Resolve(node.Array(), r.anyValue())
	literal, _ := array.(*Literal)
	var arrayType *sem.ArrayType
	if literal != nil {
		arrayType, _ = literal.Value().(*sem.ArrayType)
	}
	if arrayType == nil {
		r.errorAt(ErrorTypeResolverArrayAccessArray, node.Array())
		return
	}
	if arrayType.Rank() != len(node.Indexes()) {
		r.errorAt(ErrorTypeResolverArrayAccessRank, node)
	}
	for _, index := range node.Indexes() {
		evaluator := NewEvaluator(r.factory)
		// TODO: unify the index with an integral bound rather than
		// evaluating it.
		indexType := evaluator.Evaluate(r.Resolve(index, r.anyValue()))
		result := r.numericTypeOf(indexType)
		if result.isInt() || result.isUInt() {
			continue
		}
		r.errorAt(ErrorTypeResolverArrayAccessIndex, index)
	}
	r.produceResult(r.factory.NewLiteral(arrayType.ElementType()), node)
}

func (r *TypeResolver) VisitAssignment(node *ast.Assignment) {
	lhs := node.Left()
	rhs := node.Right()
	switch reference := lhs.(type) {
	case *ast.ParameterReference:
		value := r.variableTracker.RecordSet(reference.Parameter())
		r.produceResolved(rhs, value, node)
	case *ast.VariableReference:
		value := r.variableTracker.RecordSet(reference.Variable())
		r.produceResolved(rhs, value, node)
	case *ast.ArrayAccess:
		elementValue := r.Resolve(reference, r.anyValue())
		r.produceResolved(rhs, elementValue, node)
	case *ast.NameReference, *ast.MemberAccess:
		// TODO: assignment to fields.
		semantic := r.refResolver.ResolveReference(reference)
		utils.Assert(semantic != nil, "NYI assign to field %v", lhs)
	default:
		r.errorAt(ErrorTypeResolverAssignmentLeftValue, lhs)
	}
}

// Bind applicable methods to the call site, then resolve arguments against
// either the single candidate's parameters or per-position argument values
// that prune the candidate set lazily.
func (r *TypeResolver) VisitCall(node *ast.Call) {
	callee := r.refResolver.ResolveReference(node.Callee())
	if callee == nil {
		return
	}
	methodGroup, ok := callee.(*sem.MethodGroup)
	if !ok {
		// TODO: delegates and other callable semantics.
		r.errorAt(ErrorTypeResolverCalleeNotSupported, node.Callee())
		return
	}

	candidates := r.methodResolver.ComputeApplicableMethods(
		methodGroup, r.context.value, node.Arity())

	callValue := r.factory.NewCallValue(node)
	callValue.SetMethods(candidates)
	r.callValues = append(r.callValues, callValue)

	if len(candidates) == 1 {
		// One candidate; check arguments against its parameter types.
		method := callValue.Methods()[0]
		parameters := method.Parameters()
		parameterIndex := 0
		for _, argument := range node.Arguments() {
			parameter := parameters[parameterIndex]
			result := r.Resolve(argument, r.factory.NewLiteral(parameter.Type()))
			if _, invalid := result.(*InvalidValue); invalid {
				callValue.SetMethods(nil)
				return
			}
			if !parameter.IsRest() {
				parameterIndex++
			}
		}
		r.produceUnifiedResult(r.factory.NewLiteral(method.ReturnType()), node)
		return
	}

	if len(candidates) >= 2 {
		for position, argument := range node.Arguments() {
			r.Resolve(argument, r.factory.NewArgument(callValue, position))
		}
	}

	if len(callValue.Methods()) == 0 {
		r.errorAt(ErrorTypeResolverMethodNoMatch, node)
		callValue.SetMethods(nil)
		return
	}

	if len(callValue.Methods()) == 1 {
		r.produceUnifiedResult(
			r.factory.NewLiteral(callValue.Methods()[0].ReturnType()), node)
		return
	}

	r.produceUnifiedResult(callValue, node)
}

func (r *TypeResolver) VisitNameReference(node *ast.NameReference) {
	semantic := r.refResolver.ResolveReference(node)
	if semantic == nil {
		return
	}
	r.semantics.SetSemanticOf(node, semantic)
	if field, ok := semantic.(*sem.Field); ok {
		r.produceUnifiedResult(r.factory.NewLiteral(field.Type()), node)
	}
}

func (r *TypeResolver) VisitMemberAccess(node *ast.MemberAccess) {
	r.DoDefaultVisit(node)
}

func (r *TypeResolver) VisitParameterReference(node *ast.ParameterReference) {
	value := r.variableTracker.RecordGet(node.Parameter())
	r.produceUnifiedResult(value, node)
}

func (r *TypeResolver) VisitVariableReference(node *ast.VariableReference) {
	value := r.variableTracker.RecordGet(node.Variable())
	r.produceUnifiedResult(value, node)
}
