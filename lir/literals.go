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
// Literal pool
// Heap-allocated constants referenced from instructions via dense
// Literal(index) values.

type Literal interface {
	isLiteral()
	String() string
}

type Int32Literal struct {
	data int32
}

func (l *Int32Literal) Data() int32    { return l.data }
func (*Int32Literal) isLiteral()       {}
func (l *Int32Literal) String() string { return fmt.Sprintf("%d", l.data) }

type Int64Literal struct {
	data int64
}

func (l *Int64Literal) Data() int64    { return l.data }
func (*Int64Literal) isLiteral()       {}
func (l *Int64Literal) String() string { return fmt.Sprintf("%dl", l.data) }

type Float32Literal struct {
	data float32
}

func (l *Float32Literal) Data() float32 { return l.data }
func (*Float32Literal) isLiteral()      {}
func (l *Float32Literal) String() string {
	return fmt.Sprintf("%gf", l.data)
}

type Float64Literal struct {
	data float64
}

func (l *Float64Literal) Data() float64 { return l.data }
func (*Float64Literal) isLiteral()      {}
func (l *Float64Literal) String() string {
	return fmt.Sprintf("%g", l.data)
}

type StringLiteral struct {
	data string
}

func (l *StringLiteral) Data() string   { return l.data }
func (*StringLiteral) isLiteral()       {}
func (l *StringLiteral) String() string { return fmt.Sprintf("%q", l.data) }

// BasicBlockLiteral lets a literal operand reference a basic block.
type BasicBlockLiteral struct {
	block *BasicBlock
}

func (l *BasicBlockLiteral) Block() *BasicBlock { return l.block }
func (*BasicBlockLiteral) isLiteral()           {}
func (l *BasicBlockLiteral) String() string     { return l.block.String() }

// FunctionLiteral lets a literal operand reference a function.
type FunctionLiteral struct {
	function *Function
}

func (l *FunctionLiteral) Function() *Function { return l.function }
func (*FunctionLiteral) isLiteral()            {}
func (l *FunctionLiteral) String() string      { return l.function.Name() }

// LiteralMap assigns dense Literal(i) handles to literals.
type LiteralMap struct {
	literals []Literal
}

func NewLiteralMap() *LiteralMap {
	return &LiteralMap{}
}

func (m *LiteralMap) nextLiteralValue(t ValueType, size ValueSize) Value {
	return Value{Type: t, Size: size, Kind: KindLiteral, Data: int32(len(m.literals))}
}

// GetLiteral returns the literal associated with |value|.
func (m *LiteralMap) GetLiteral(value Value) Literal {
	utils.Assert(value.IsLiteral(), "%v is not a literal", value)
	index := int(value.Data)
	utils.Assert(index >= 0 && index < len(m.literals), "bad literal index %d", index)
	return m.literals[index]
}

// RegisterLiteral adds |literal| to the pool and returns its handle.
func (m *LiteralMap) RegisterLiteral(literal Literal, t ValueType, size ValueSize) Value {
	value := m.nextLiteralValue(t, size)
	m.literals = append(m.literals, literal)
	return value
}
