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
package sem

import (
	"elang/utils"
)

// -----------------------------------------------------------------------------
// Predefined types
// One set of predefined type nodes exists per compilation session so that
// pointer identity holds across the whole analysis.

type PredefinedName int

const (
	NameBool PredefinedName = iota
	NameChar
	NameInt8
	NameInt16
	NameInt32
	NameInt64
	NameUInt8
	NameUInt16
	NameUInt32
	NameUInt64
	NameFloat32
	NameFloat64
	NameString
	NameVoid
	NameObject

	numPredefinedNames
)

func (n PredefinedName) String() string {
	switch n {
	case NameBool:
		return "bool"
	case NameChar:
		return "char"
	case NameInt8:
		return "int8"
	case NameInt16:
		return "int16"
	case NameInt32:
		return "int32"
	case NameInt64:
		return "int64"
	case NameUInt8:
		return "uint8"
	case NameUInt16:
		return "uint16"
	case NameUInt32:
		return "uint32"
	case NameUInt64:
		return "uint64"
	case NameFloat32:
		return "float32"
	case NameFloat64:
		return "float64"
	case NameString:
		return "string"
	case NameVoid:
		return "void"
	case NameObject:
		return "object"
	default:
		utils.ShouldNotReachHere()
	}
	return ""
}

// PredefinedTypes holds the per-session basic type nodes with the widening
// relation wired:
//   int8 < int16 < int32 < int64
//   uint8 < uint16 < uint32 < uint64
//   float32 < float64
// Everything is a subtype of object.
type PredefinedTypes struct {
	types [numPredefinedNames]*BasicType
}

func NewPredefinedTypes() *PredefinedTypes {
	p := &PredefinedTypes{}
	for name := PredefinedName(0); name < numPredefinedNames; name++ {
		p.types[name] = NewBasicType(name.String())
	}
	widen := func(from, to PredefinedName) {
		p.types[from].AddSupertype(p.types[to])
	}
	widen(NameInt8, NameInt16)
	widen(NameInt16, NameInt32)
	widen(NameInt32, NameInt64)
	widen(NameUInt8, NameUInt16)
	widen(NameUInt16, NameUInt32)
	widen(NameUInt32, NameUInt64)
	widen(NameFloat32, NameFloat64)
	object := p.types[NameObject]
	for name := PredefinedName(0); name < numPredefinedNames; name++ {
		if name == NameObject {
			continue
		}
		p.types[name].AddSupertype(object)
	}
	return p
}

func (p *PredefinedTypes) TypeOf(name PredefinedName) *BasicType {
	return p.types[name]
}
