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
)

// Factory mints and interns type inference values for one session.
// Literal values are interned per semantic type and null values per base
// value, so pointer equality is type equality for both.
type Factory struct {
	predefined *sem.PredefinedTypes

	anyValue   *AnyValue
	emptyValue *EmptyValue

	literalCache map[sem.Type]*Literal
	nullCache    map[Value]*NullValue
}

func NewFactory(predefined *sem.PredefinedTypes) *Factory {
	return &Factory{
		predefined:   predefined,
		anyValue:     &AnyValue{},
		emptyValue:   &EmptyValue{},
		literalCache: make(map[sem.Type]*Literal),
		nullCache:    make(map[Value]*NullValue),
	}
}

func (f *Factory) AnyValue() Value   { return f.anyValue }
func (f *Factory) EmptyValue() Value { return f.emptyValue }

func (f *Factory) NewLiteral(t sem.Type) *Literal {
	if literal, ok := f.literalCache[t]; ok {
		return literal
	}
	literal := &Literal{value: t}
	f.literalCache[t] = literal
	return literal
}

func (f *Factory) NewNullValue(base Value) *NullValue {
	if null, ok := f.nullCache[base]; ok {
		return null
	}
	null := &NullValue{value: base}
	f.nullCache[base] = null
	return null
}

func (f *Factory) NewInvalidValue(node ast.Node) *InvalidValue {
	return &InvalidValue{node: node}
}

func (f *Factory) NewVariable(node ast.Node, value Value) *Variable {
	v := &Variable{node: node, value: value}
	v.parent = v
	return v
}

func (f *Factory) NewCallValue(astCall *ast.Call) *CallValue {
	return &CallValue{astCall: astCall}
}

func (f *Factory) NewArgument(callValue *CallValue, position int) *Argument {
	return &Argument{callValue: callValue, position: position}
}

func (f *Factory) NewAndValue(unionValues []UnionValue) *AndValue {
	v := &AndValue{}
	v.unionValues = append(v.unionValues, unionValues...)
	return v
}

// -----------------------------------------------------------------------------
// Predefined values

func (f *Factory) PredefinedValue(name sem.PredefinedName) *Literal {
	return f.NewLiteral(f.predefined.TypeOf(name))
}

func (f *Factory) BoolValue() *Literal    { return f.PredefinedValue(sem.NameBool) }
func (f *Factory) Int8Value() *Literal    { return f.PredefinedValue(sem.NameInt8) }
func (f *Factory) Int16Value() *Literal   { return f.PredefinedValue(sem.NameInt16) }
func (f *Factory) Int32Value() *Literal   { return f.PredefinedValue(sem.NameInt32) }
func (f *Factory) Int64Value() *Literal   { return f.PredefinedValue(sem.NameInt64) }
func (f *Factory) UInt8Value() *Literal   { return f.PredefinedValue(sem.NameUInt8) }
func (f *Factory) UInt16Value() *Literal  { return f.PredefinedValue(sem.NameUInt16) }
func (f *Factory) UInt32Value() *Literal  { return f.PredefinedValue(sem.NameUInt32) }
func (f *Factory) UInt64Value() *Literal  { return f.PredefinedValue(sem.NameUInt64) }
func (f *Factory) Float32Value() *Literal { return f.PredefinedValue(sem.NameFloat32) }
func (f *Factory) Float64Value() *Literal { return f.PredefinedValue(sem.NameFloat64) }
