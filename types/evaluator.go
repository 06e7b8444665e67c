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
	"elang/sem"
	"elang/utils"
)

// -----------------------------------------------------------------------------
// Evaluator
// Unify reconciles two inference values into their most informative
// consistent value, shrinking method lists of union values as a side effect.
// A contradiction yields the empty value, never a panic; a variant pair the
// rules below cannot handle is a logic bug.

type Evaluator struct {
	factory *Factory
}

func NewEvaluator(factory *Factory) *Evaluator {
	return &Evaluator{factory: factory}
}

func (e *Evaluator) emptyValue() Value { return e.factory.EmptyValue() }

func (e *Evaluator) newLiteral(t sem.Type) Value { return e.factory.NewLiteral(t) }

// containsType reports whether |u| still admits |t| through at least one of
// its methods.
func (e *Evaluator) containsType(u UnionValue, t sem.Type) bool {
	for _, method := range u.Methods() {
		if u.CanUse(method, t) {
			return true
		}
	}
	return false
}

// andContainsType reports whether any branch of |a| still admits |t|.
func (e *Evaluator) andContainsType(a *AndValue, t sem.Type) bool {
	for _, unionValue := range a.UnionValues() {
		if e.containsType(unionValue, t) {
			return true
		}
	}
	return false
}

// andContainsUnion reports whether |a| admits at least one method value of
// |u|.
func (e *Evaluator) andContainsUnion(a *AndValue, u UnionValue) bool {
	for _, method := range u.Methods() {
		if e.andContainsType(a, u.ValueFor(method)) {
			return true
		}
	}
	return false
}

// Evaluate collapses |value| toward a ground literal when the evidence
// permits, otherwise returns |value| unchanged.
func (e *Evaluator) Evaluate(value Value) Value {
	switch v := value.(type) {
	case *AndValue:
		var result Value
		for _, unionValue := range v.UnionValues() {
			if result == nil {
				result = e.Evaluate(unionValue)
				continue
			}
			if result != e.Evaluate(unionValue) {
				return value
			}
		}
		if result == nil {
			return e.emptyValue()
		}
		return result
	case UnionValue:
		var result sem.Type
		for _, method := range v.Methods() {
			if result == nil {
				result = v.ValueFor(method)
				continue
			}
			if result != v.ValueFor(method) {
				return value
			}
		}
		if result == nil {
			return e.emptyValue()
		}
		return e.newLiteral(result)
	case *Variable:
		rootValue := v.Find().Value()
		if _, isVariable := rootValue.(*Variable); isVariable {
			utils.Fatal("root of %v holds a variable", v)
		}
		return e.Evaluate(rootValue)
	default:
		return value
	}
}

// Unify is the entry point of the evaluator.
func (e *Evaluator) Unify(value1, value2 Value) Value {
	if value1 == value2 {
		return value1
	}

	switch value1.(type) {
	case *InvalidValue, *EmptyValue:
		return value1
	}
	switch value2.(type) {
	case *InvalidValue, *EmptyValue:
		return value2
	}

	if _, ok := value1.(*AnyValue); ok {
		return value2
	}
	if _, ok := value2.(*AnyValue); ok {
		return value1
	}

	if variable1, ok := value1.(*Variable); ok {
		return e.unifyVariable(variable1, value2)
	}
	if variable2, ok := value2.(*Variable); ok {
		return e.unifyVariable(variable2, value1)
	}

	if null1, ok := value1.(*NullValue); ok {
		return e.Unify(null1.Value(), value2)
	}
	if null2, ok := value2.(*NullValue); ok {
		return e.Unify(null2.Value(), value1)
	}

	if literal1, ok := value1.(*Literal); ok {
		return e.unifyLiteral(literal1, value2)
	}
	if literal2, ok := value2.(*Literal); ok {
		return e.unifyLiteral(literal2, value1)
	}

	if unionValue1, ok := value1.(UnionValue); ok {
		return e.unifyUnion(unionValue1, value2)
	}
	if unionValue2, ok := value2.(UnionValue); ok {
		return e.unifyUnion(unionValue2, value1)
	}

	if andValue1, ok := value1.(*AndValue); ok {
		if andValue2, ok := value2.(*AndValue); ok {
			return e.unifyAndAnd(andValue1, andValue2)
		}
	}

	utils.Fatal("Unify(%v, %v)", value1, value2)
	return e.emptyValue()
}

// -----------------------------------------------------------------------------
// Variable

func (e *Evaluator) unifyVariable(variable1 *Variable, value2 Value) Value {
	if variable2, ok := value2.(*Variable); ok {
		return e.unifyVariables(variable1, variable2)
	}
	root1 := variable1.Find()
	result := e.Unify(root1.value, value2)
	root1.value = result
	return result
}

func (e *Evaluator) unifyVariables(variable1, variable2 *Variable) Value {
	root1 := variable1.Find()
	root2 := variable2.Find()
	result := e.Unify(root1.value, root2.value)
	root1.value = result
	root2.value = result
	e.union(root1, root2)
	return result
}

// union merges two union-find trees by rank.
func (e *Evaluator) union(variable1, variable2 *Variable) {
	root1 := variable1.Find()
	root2 := variable2.Find()
	if root1 == root2 {
		return
	}
	if root1.rank < root2.rank {
		root1.parent = root2
		return
	}
	if root1.rank > root2.rank {
		root2.parent = root1
		return
	}
	root2.parent = root1
	root1.rank++
}

// -----------------------------------------------------------------------------
// Literal

func (e *Evaluator) unifyLiteral(literal1 *Literal, value2 Value) Value {
	switch v2 := value2.(type) {
	case *AndValue:
		return e.unifyLiteralAnd(literal1, v2)
	case *Literal:
		return e.unifyLiterals(literal1, v2)
	case UnionValue:
		return e.unifyLiteralUnion(literal1, v2)
	}
	utils.Fatal("Unify(%v, %v)", literal1, value2)
	return e.emptyValue()
}

func (e *Evaluator) unifyLiterals(literal1, literal2 *Literal) Value {
	if literal1.Value().IsSubtypeOf(literal2.Value()) {
		return literal1
	}
	if literal2.Value().IsSubtypeOf(literal1.Value()) {
		return literal2
	}
	return e.emptyValue()
}

func (e *Evaluator) unifyLiteralUnion(literal1 *Literal, unionValue2 UnionValue) Value {
	type1 := literal1.Value()
	var methods2 []*sem.Method
	for _, method2 := range unionValue2.Methods() {
		if unionValue2.CanUse(method2, type1) {
			methods2 = append(methods2, method2)
		}
	}
	unionValue2.SetMethods(methods2)
	if len(methods2) == 0 {
		return e.emptyValue()
	}
	if len(methods2) == 1 {
		return e.newLiteral(unionValue2.ValueFor(methods2[0]))
	}
	return unionValue2
}

func (e *Evaluator) unifyLiteralAnd(literal1 *Literal, andValue2 *AndValue) Value {
	var unionValues []UnionValue
	result := Value(literal1)
	for _, unionValue2 := range andValue2.UnionValues() {
		value := e.Unify(result, unionValue2)
		if unionValue, ok := value.(UnionValue); ok {
			unionValues = append(unionValues, unionValue)
			continue
		}
		// Even a contradicting branch is unified so that its method list
		// keeps shrinking with the others.
		result = e.Unify(result, value)
	}
	if len(unionValues) == 0 {
		return result
	}
	if len(unionValues) == 1 {
		return unionValues[0]
	}
	andValue2.SetUnionValues(unionValues)
	return andValue2
}

// -----------------------------------------------------------------------------
// UnionValue

func (e *Evaluator) unifyUnion(unionValue1 UnionValue, value2 Value) Value {
	switch v2 := value2.(type) {
	case *AndValue:
		return e.unifyUnionAnd(unionValue1, v2)
	case UnionValue:
		return e.unifyUnions(unionValue1, v2)
	}
	utils.Fatal("Unify(%v, %v)", unionValue1, value2)
	return e.emptyValue()
}

func (e *Evaluator) unifyUnions(unionValue1, unionValue2 UnionValue) Value {
	var methods1 []*sem.Method
	for _, method1 := range unionValue1.Methods() {
		if e.containsType(unionValue2, unionValue1.ValueFor(method1)) {
			methods1 = append(methods1, method1)
		}
	}
	unionValue1.SetMethods(methods1)
	if len(methods1) == 0 {
		unionValue2.SetMethods(nil)
		return e.emptyValue()
	}
	if len(methods1) == 1 {
		// Narrowing to one method grounds this side; let the literal rule
		// shrink the other side.
		return e.Unify(e.newLiteral(unionValue1.ValueFor(methods1[0])), unionValue2)
	}

	var methods2 []*sem.Method
	for _, method2 := range unionValue2.Methods() {
		if e.containsType(unionValue1, unionValue2.ValueFor(method2)) {
			methods2 = append(methods2, method2)
		}
	}
	unionValue2.SetMethods(methods2)
	if len(methods2) == 0 {
		return e.emptyValue()
	}
	if len(methods2) == 1 {
		return e.newLiteral(unionValue2.ValueFor(methods2[0]))
	}
	return e.factory.NewAndValue([]UnionValue{unionValue1, unionValue2})
}

func (e *Evaluator) unifyUnionAnd(unionValue1 UnionValue, andValue2 *AndValue) Value {
	var methods1 []*sem.Method
	for _, method1 := range unionValue1.Methods() {
		if e.andContainsType(andValue2, unionValue1.ValueFor(method1)) {
			methods1 = append(methods1, method1)
		}
	}
	unionValue1.SetMethods(methods1)
	if len(methods1) == 0 {
		return e.emptyValue()
	}
	if len(methods1) == 1 {
		return e.newLiteral(unionValue1.ValueFor(methods1[0]))
	}
	unionValues := make([]UnionValue, 0, len(andValue2.UnionValues())+1)
	unionValues = append(unionValues, andValue2.UnionValues()...)
	unionValues = append(unionValues, unionValue1)
	return e.factory.NewAndValue(unionValues)
}

// -----------------------------------------------------------------------------
// AndValue

func (e *Evaluator) unifyAndAnd(andValue1, andValue2 *AndValue) Value {
	seen := utils.NewSet[UnionValue]()
	var unionValues []UnionValue

	var unionValues1 []UnionValue
	for _, unionValue1 := range andValue1.UnionValues() {
		if !e.andContainsUnion(andValue2, unionValue1) {
			continue
		}
		unionValues1 = append(unionValues1, unionValue1)
		if seen.Add(unionValue1) {
			unionValues = append(unionValues, unionValue1)
		}
	}
	andValue1.SetUnionValues(unionValues1)
	if len(unionValues1) == 0 {
		andValue2.SetUnionValues(nil)
		return e.emptyValue()
	}
	if len(unionValues1) == 1 {
		return e.Unify(unionValues1[0], andValue2)
	}

	var unionValues2 []UnionValue
	for _, unionValue2 := range andValue2.UnionValues() {
		if !e.andContainsUnion(andValue1, unionValue2) {
			continue
		}
		unionValues2 = append(unionValues2, unionValue2)
		if seen.Add(unionValue2) {
			unionValues = append(unionValues, unionValue2)
		}
	}
	andValue2.SetUnionValues(unionValues2)
	utils.Assert(len(unionValues2) > 0, "sanity check")
	if len(unionValues2) == 1 {
		return e.Unify(unionValues2[0], andValue1)
	}

	return e.factory.NewAndValue(unionValues)
}
