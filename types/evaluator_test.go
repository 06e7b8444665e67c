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
	"testing"

	"elang/ast"
	"elang/sem"
)

func newTestFactory() (*Factory, *sem.Factory) {
	semFactory := sem.NewFactory()
	return NewFactory(semFactory.Predefined()), semFactory
}

func MustBeValue(t *testing.T, got, want Value) {
	t.Helper()
	if got != want {
		t.Fatalf("Expect %v, got %v", want, got)
	}
}

func newMethod(semFactory *sem.Factory, name string, returnType sem.Type,
	paramTypes ...sem.Type) *sem.Method {
	params := make([]*sem.Parameter, len(paramTypes))
	for i, paramType := range paramTypes {
		params[i] = sem.NewParameter("p", paramType, i)
	}
	return sem.NewMethod(name, sem.NewSignature(returnType, params))
}

func TestUnifyLiterals(t *testing.T) {
	factory, semFactory := newTestFactory()
	evaluator := NewEvaluator(factory)
	predefined := semFactory.Predefined()

	int32V := factory.Int32Value()
	int64V := factory.Int64Value()
	stringV := factory.NewLiteral(predefined.TypeOf(sem.NameString))

	// int32 is a subtype of int64; the more precise literal wins.
	MustBeValue(t, evaluator.Unify(int32V, int64V), int32V)
	MustBeValue(t, evaluator.Unify(int64V, int32V), int32V)

	// Unrelated literals contradict.
	MustBeValue(t, evaluator.Unify(int32V, stringV), factory.EmptyValue())
}

func TestUnifyUnits(t *testing.T) {
	factory, _ := newTestFactory()
	evaluator := NewEvaluator(factory)
	int32V := factory.Int32Value()

	MustBeValue(t, evaluator.Unify(factory.AnyValue(), int32V), int32V)
	MustBeValue(t, evaluator.Unify(int32V, factory.AnyValue()), int32V)
	MustBeValue(t, evaluator.Unify(factory.EmptyValue(), int32V), factory.EmptyValue())

	invalid := factory.NewInvalidValue(ast.NewVariable("x"))
	MustBeValue(t, evaluator.Unify(invalid, int32V), invalid)
}

func TestUnifyIdempotence(t *testing.T) {
	factory, _ := newTestFactory()
	evaluator := NewEvaluator(factory)
	values := []Value{
		factory.AnyValue(),
		factory.Int32Value(),
		factory.BoolValue(),
		factory.NewNullValue(factory.Int64Value()),
	}
	for _, value := range values {
		MustBeValue(t, evaluator.Unify(value, value), value)
	}
}

func TestUnifyCommutativity(t *testing.T) {
	factory, semFactory := newTestFactory()
	evaluator := NewEvaluator(factory)
	predefined := semFactory.Predefined()
	values := []Value{
		factory.AnyValue(),
		factory.Int32Value(),
		factory.Int64Value(),
		factory.BoolValue(),
		factory.NewLiteral(predefined.TypeOf(sem.NameString)),
	}
	for _, a := range values {
		for _, b := range values {
			left := evaluator.Unify(a, b)
			right := evaluator.Unify(b, a)
			MustBeValue(t, left, right)
		}
	}
}

func TestUnifyNull(t *testing.T) {
	factory, semFactory := newTestFactory()
	evaluator := NewEvaluator(factory)
	stringV := factory.NewLiteral(semFactory.Predefined().TypeOf(sem.NameString))

	null := factory.NewNullValue(factory.AnyValue())
	MustBeValue(t, evaluator.Unify(null, stringV), stringV)

	// Null values are interned per base.
	if factory.NewNullValue(stringV) != factory.NewNullValue(stringV) {
		t.Fatalf("null values must be interned")
	}
}

func TestLiteralInterning(t *testing.T) {
	factory, semFactory := newTestFactory()
	int32Type := semFactory.Predefined().TypeOf(sem.NameInt32)
	if factory.NewLiteral(int32Type) != factory.NewLiteral(int32Type) {
		t.Fatalf("literals must be interned per type")
	}
}

func TestUnifyVariables(t *testing.T) {
	factory, _ := newTestFactory()
	evaluator := NewEvaluator(factory)

	v1 := factory.NewVariable(ast.NewVariable("a"), factory.AnyValue())
	v2 := factory.NewVariable(ast.NewVariable("b"), factory.Int32Value())

	result := evaluator.Unify(v1, v2)
	MustBeValue(t, result, factory.Int32Value())

	// Both variables now share one root holding the unified value.
	if v1.Find() != v2.Find() {
		t.Fatalf("variables must be united")
	}
	MustBeValue(t, v1.Find().Value(), factory.Int32Value())
	MustBeValue(t, evaluator.Evaluate(v1), factory.Int32Value())
}

func TestUnifyVariableWithLiteral(t *testing.T) {
	factory, _ := newTestFactory()
	evaluator := NewEvaluator(factory)

	variable := factory.NewVariable(ast.NewVariable("a"), factory.AnyValue())
	MustBeValue(t, evaluator.Unify(variable, factory.Int64Value()),
		factory.Int64Value())
	MustBeValue(t, variable.Find().Value(), factory.Int64Value())
}

func TestUnifyLiteralWithCallValue(t *testing.T) {
	factory, semFactory := newTestFactory()
	evaluator := NewEvaluator(factory)
	predefined := semFactory.Predefined()
	int32Type := predefined.TypeOf(sem.NameInt32)
	stringType := predefined.TypeOf(sem.NameString)

	call := ast.NewCall(ast.NewNameReference("f"),
		[]ast.Expression{ast.NewLiteral(ast.NewToken(ast.TokenInt32Literal, "1"))})
	callValue := factory.NewCallValue(call)
	callValue.SetMethods([]*sem.Method{
		newMethod(semFactory, "f", int32Type, int32Type),
		newMethod(semFactory, "f", stringType, stringType),
	})

	// Expecting an int32 keeps only the overload returning int32.
	result := evaluator.Unify(factory.Int32Value(), callValue)
	MustBeValue(t, result, factory.Int32Value())
	if len(callValue.Methods()) != 1 {
		t.Fatalf("Expect 1 surviving method, got %d", len(callValue.Methods()))
	}
}

func TestUnifyArgumentDirection(t *testing.T) {
	factory, semFactory := newTestFactory()
	predefined := semFactory.Predefined()
	int32Type := predefined.TypeOf(sem.NameInt32)
	int64Type := predefined.TypeOf(sem.NameInt64)

	call := ast.NewCall(ast.NewNameReference("f"),
		[]ast.Expression{ast.NewLiteral(ast.NewToken(ast.TokenInt32Literal, "1"))})
	callValue := factory.NewCallValue(call)
	method64 := newMethod(semFactory, "f", int32Type, int64Type)
	callValue.SetMethods([]*sem.Method{method64})
	argument := factory.NewArgument(callValue, 0)

	// An int32 actual may flow into an int64 parameter...
	if !argument.CanUse(method64, int32Type) {
		t.Fatalf("argument should accept a subtype actual")
	}
	// ...while the int32 return value satisfies a wider int64 expectation
	// but not a narrower int16 one.
	if callValue.CanUse(method64, int64Type) != true {
		t.Fatalf("call value should accept a supertype of its return type")
	}
	if callValue.CanUse(method64, predefined.TypeOf(sem.NameInt16)) {
		t.Fatalf("call value must not accept a narrower expectation")
	}
}

func TestEvaluateCallValueCollapse(t *testing.T) {
	factory, semFactory := newTestFactory()
	evaluator := NewEvaluator(factory)
	int32Type := semFactory.Predefined().TypeOf(sem.NameInt32)
	stringType := semFactory.Predefined().TypeOf(sem.NameString)

	call := ast.NewCall(ast.NewNameReference("f"), nil)
	callValue := factory.NewCallValue(call)
	callValue.SetMethods([]*sem.Method{
		newMethod(semFactory, "f", int32Type, int32Type),
		newMethod(semFactory, "f", int32Type, stringType),
	})

	// All overloads agree on the return type, so the call site grounds.
	MustBeValue(t, evaluator.Evaluate(callValue), factory.NewLiteral(int32Type))
}

func TestEvaluateAndValueCollapse(t *testing.T) {
	factory, semFactory := newTestFactory()
	evaluator := NewEvaluator(factory)
	int32Type := semFactory.Predefined().TypeOf(sem.NameInt32)

	newCallValue := func() UnionValue {
		call := ast.NewCall(ast.NewNameReference("f"), nil)
		callValue := factory.NewCallValue(call)
		callValue.SetMethods([]*sem.Method{
			newMethod(semFactory, "f", int32Type),
		})
		return callValue
	}
	andValue := factory.NewAndValue([]UnionValue{newCallValue(), newCallValue()})
	MustBeValue(t, evaluator.Evaluate(andValue), factory.NewLiteral(int32Type))
}
