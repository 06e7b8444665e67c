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
// LIR Value
// Value is the 64-bit tagged operand of the low-level IR. It is a plain
// comparable record; equality is equality of all four fields.

type ValueType uint8

const (
	Integer ValueType = iota
	Float
)

type ValueSize uint8

const (
	Size8 ValueSize = iota
	Size16
	Size32
	Size64
)

// ByteSize returns the width of |size| in bytes.
func ByteSize(size ValueSize) int {
	switch size {
	case Size8:
		return 1
	case Size16:
		return 2
	case Size32:
		return 4
	case Size64:
		return 8
	}
	utils.ShouldNotReachHere()
	return 0
}

type ValueKind uint8

const (
	KindInvalid ValueKind = iota
	KindImmediate
	KindLiteral
	KindArgument
	KindParameter
	KindPhysicalRegister
	KindVirtualRegister
	KindFrameSlot
	KindStackSlot
	KindCondition
	KindInstruction
	KindVoid
)

type Value struct {
	Type ValueType
	Size ValueSize
	Kind ValueKind
	Data int32
}

// -----------------------------------------------------------------------------
// Constructors

func NewValue(t ValueType, size ValueSize, kind ValueKind, data int32) Value {
	return Value{Type: t, Size: size, Kind: kind, Data: data}
}

func Immediate(size ValueSize, data int32) Value {
	return Value{Type: Integer, Size: size, Kind: KindImmediate, Data: data}
}

// SmallInt32 is shorthand for a 32-bit immediate.
func SmallInt32(data int32) Value {
	return Immediate(Size32, data)
}

func Argument(t ValueType, size ValueSize, position int) Value {
	return Value{Type: t, Size: size, Kind: KindArgument, Data: int32(position)}
}

func Parameter(t ValueType, size ValueSize, position int) Value {
	return Value{Type: t, Size: size, Kind: KindParameter, Data: int32(position)}
}

func FrameSlot(t ValueType, size ValueSize, offset int) Value {
	return Value{Type: t, Size: size, Kind: KindFrameSlot, Data: int32(offset)}
}

func StackSlot(t ValueType, size ValueSize, offset int) Value {
	return Value{Type: t, Size: size, Kind: KindStackSlot, Data: int32(offset)}
}

func Condition(id int) Value {
	return Value{Type: Integer, Size: Size8, Kind: KindCondition, Data: int32(id)}
}

func VoidValue() Value {
	return Value{Kind: KindVoid}
}

// Type templates used where only type and size matter, e.g. grouping
// parallel copy tasks.
func Int32Type() Value   { return Value{Type: Integer, Size: Size32, Kind: KindVoid} }
func Int64Type() Value   { return Value{Type: Integer, Size: Size64, Kind: KindVoid} }
func Float32Type() Value { return Value{Type: Float, Size: Size32, Kind: KindVoid} }
func Float64Type() Value { return Value{Type: Float, Size: Size64, Kind: KindVoid} }

// TypeOf strips |value| down to its type template.
func TypeOf(value Value) Value {
	return Value{Type: value.Type, Size: value.Size, Kind: KindVoid}
}

// -----------------------------------------------------------------------------
// Predicates

func (v Value) IsInteger() bool  { return v.Type == Integer }
func (v Value) IsFloat() bool    { return v.Type == Float }
func (v Value) Is8Bit() bool     { return v.Size == Size8 }
func (v Value) Is16Bit() bool    { return v.Size == Size16 }
func (v Value) Is32Bit() bool    { return v.Size == Size32 }
func (v Value) Is64Bit() bool    { return v.Size == Size64 }
func (v Value) IsInt8() bool     { return v.IsInteger() && v.Is8Bit() }
func (v Value) IsInt32() bool    { return v.IsInteger() && v.Is32Bit() }
func (v Value) IsInt64() bool    { return v.IsInteger() && v.Is64Bit() }

func (v Value) IsInvalid() bool     { return v.Kind == KindInvalid }
func (v Value) IsImmediate() bool   { return v.Kind == KindImmediate }
func (v Value) IsLiteral() bool     { return v.Kind == KindLiteral }
func (v Value) IsArgument() bool    { return v.Kind == KindArgument }
func (v Value) IsParameter() bool   { return v.Kind == KindParameter }
func (v Value) IsPhysical() bool    { return v.Kind == KindPhysicalRegister }
func (v Value) IsVirtual() bool     { return v.Kind == KindVirtualRegister }
func (v Value) IsFrameSlot() bool   { return v.Kind == KindFrameSlot }
func (v Value) IsStackSlot() bool   { return v.Kind == KindStackSlot }
func (v Value) IsConditional() bool { return v.Kind == KindCondition }
func (v Value) IsVoid() bool        { return v.Kind == KindVoid }

// IsMemorySlot reports whether the value names a stack location.
func (v Value) IsMemorySlot() bool {
	return v.Kind == KindFrameSlot || v.Kind == KindStackSlot
}

// IsRegister reports whether the value names a physical or virtual register.
func (v Value) IsRegister() bool {
	return v.Kind == KindPhysicalRegister || v.Kind == KindVirtualRegister
}

// FitsSize reports whether an immediate's data fits the declared size.
func (v Value) FitsSize() bool {
	utils.Assert(v.IsImmediate(), "%v is not an immediate", v)
	switch v.Size {
	case Size8:
		return utils.Is8Bit(int(v.Data))
	case Size16:
		return v.Data >= -32768 && v.Data <= 32767
	default:
		return true
	}
}

// -----------------------------------------------------------------------------
// Printing

var generalNames8 = [16]string{
	"AL", "CL", "DL", "BL", "SPL", "BPL", "SIL", "DIL",
	"R8L", "R9L", "R10L", "R11L", "R12L", "R13L", "R14L", "R15L",
}

var generalNames16 = [16]string{
	"AX", "CX", "DX", "BX", "SP", "BP", "SI", "DI",
	"R8W", "R9W", "R10W", "R11W", "R12W", "R13W", "R14W", "R15W",
}

var generalNames32 = [16]string{
	"EAX", "ECX", "EDX", "EBX", "ESP", "EBP", "ESI", "EDI",
	"R8D", "R9D", "R10D", "R11D", "R12D", "R13D", "R14D", "R15D",
}

var generalNames64 = [16]string{
	"RAX", "RCX", "RDX", "RBX", "RSP", "RBP", "RSI", "RDI",
	"R8", "R9", "R10", "R11", "R12", "R13", "R14", "R15",
}

func (v Value) String() string {
	switch v.Kind {
	case KindInvalid:
		return "INVALID"
	case KindImmediate:
		if v.Size == Size64 {
			return fmt.Sprintf("%dl", v.Data)
		}
		return fmt.Sprintf("%d", v.Data)
	case KindLiteral:
		return fmt.Sprintf("#%d", v.Data)
	case KindArgument:
		return fmt.Sprintf("%%arg[%d]", v.Data)
	case KindParameter:
		return fmt.Sprintf("%%param[%d]", v.Data)
	case KindPhysicalRegister:
		if v.IsFloat() {
			return fmt.Sprintf("XMM%d", v.Data)
		}
		switch v.Size {
		case Size8:
			return generalNames8[v.Data&15]
		case Size16:
			return generalNames16[v.Data&15]
		case Size32:
			return generalNames32[v.Data&15]
		case Size64:
			return generalNames64[v.Data&15]
		}
	case KindVirtualRegister:
		prefix := "%r"
		if v.IsFloat() {
			prefix = "%f"
		}
		switch v.Size {
		case Size8:
			return fmt.Sprintf("%s%db", prefix, v.Data)
		case Size16:
			return fmt.Sprintf("%s%dw", prefix, v.Data)
		case Size32:
			return fmt.Sprintf("%s%d", prefix, v.Data)
		case Size64:
			return fmt.Sprintf("%s%dl", prefix, v.Data)
		}
	case KindFrameSlot:
		return fmt.Sprintf("%%frame[%d]", v.Data)
	case KindStackSlot:
		return fmt.Sprintf("%%stack[%d]", v.Data)
	case KindCondition:
		return fmt.Sprintf("%%b%d", v.Data)
	case KindInstruction:
		return fmt.Sprintf("#i%d", v.Data)
	case KindVoid:
		return "void"
	}
	utils.ShouldNotReachHere()
	return ""
}
