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
	"fmt"
	"strings"

	"elang/ast"
)

// -----------------------------------------------------------------------------
// Semantic nodes
// The semantic layer binds AST names to typed declarations. The type
// inference engine consumes these through pointer identity; two uses of the
// same type must observe the same *Type node.

type Semantic interface {
	isSemantic()
	String() string
}

// -----------------------------------------------------------------------------
// Types

type Type interface {
	Semantic
	// IsSubtypeOf reports whether values of this type can be used where
	// |other| is expected.
	IsSubtypeOf(other Type) bool
}

// BasicType is a predefined scalar type. Subtyping between basic types is a
// fixed widening relation; see NewBasicType callers in predefined.go.
type BasicType struct {
	name       string
	supertypes []*BasicType
}

func NewBasicType(name string) *BasicType {
	return &BasicType{name: name}
}

// AddSupertype records that this type widens to |super|.
func (t *BasicType) AddSupertype(super *BasicType) {
	t.supertypes = append(t.supertypes, super)
}

func (t *BasicType) IsSubtypeOf(other Type) bool {
	if t == other {
		return true
	}
	for _, super := range t.supertypes {
		if super.IsSubtypeOf(other) {
			return true
		}
	}
	return false
}

func (t *BasicType) String() string { return t.name }
func (t *BasicType) isSemantic()    {}

// ArrayType is a rank-N array of an element type. Arrays are invariant.
type ArrayType struct {
	elementType Type
	rank        int
}

func NewArrayType(elementType Type, rank int) *ArrayType {
	return &ArrayType{elementType: elementType, rank: rank}
}

func (t *ArrayType) ElementType() Type { return t.elementType }
func (t *ArrayType) Rank() int         { return t.rank }

func (t *ArrayType) IsSubtypeOf(other Type) bool {
	o, ok := other.(*ArrayType)
	if !ok {
		return false
	}
	return t == o || (t.elementType == o.elementType && t.rank == o.rank)
}

func (t *ArrayType) String() string {
	return fmt.Sprintf("%v[%s]", t.elementType, strings.Repeat(",", t.rank-1))
}
func (t *ArrayType) isSemantic() {}

// -----------------------------------------------------------------------------
// Methods

type Parameter struct {
	name      string
	paramType Type
	position  int
	isRest    bool
}

func NewParameter(name string, paramType Type, position int) *Parameter {
	return &Parameter{name: name, paramType: paramType, position: position}
}

func NewRestParameter(name string, paramType Type, position int) *Parameter {
	return &Parameter{name: name, paramType: paramType, position: position, isRest: true}
}

func (p *Parameter) Name() string   { return p.name }
func (p *Parameter) Type() Type     { return p.paramType }
func (p *Parameter) Position() int  { return p.position }
func (p *Parameter) IsRest() bool   { return p.isRest }
func (p *Parameter) String() string { return fmt.Sprintf("%v %s", p.paramType, p.name) }
func (p *Parameter) isSemantic()    {}

type Signature struct {
	returnType Type
	parameters []*Parameter
}

func NewSignature(returnType Type, parameters []*Parameter) *Signature {
	return &Signature{returnType: returnType, parameters: parameters}
}

func (s *Signature) ReturnType() Type          { return s.returnType }
func (s *Signature) Parameters() []*Parameter  { return s.parameters }

func (s *Signature) MinimumArity() int {
	arity := len(s.parameters)
	if arity > 0 && s.parameters[arity-1].isRest {
		return arity - 1
	}
	return arity
}

func (s *Signature) MaximumArity() int {
	arity := len(s.parameters)
	if arity > 0 && s.parameters[arity-1].isRest {
		return 1 << 30
	}
	return arity
}

func (s *Signature) String() string {
	parameters := make([]string, len(s.parameters))
	for i, parameter := range s.parameters {
		parameters[i] = parameter.String()
	}
	return fmt.Sprintf("%v(%s)", s.returnType, strings.Join(parameters, ", "))
}
func (s *Signature) isSemantic() {}

type Method struct {
	name      string
	signature *Signature
}

func NewMethod(name string, signature *Signature) *Method {
	return &Method{name: name, signature: signature}
}

func (m *Method) Name() string            { return m.name }
func (m *Method) Signature() *Signature   { return m.signature }
func (m *Method) ReturnType() Type        { return m.signature.returnType }
func (m *Method) Parameters() []*Parameter { return m.signature.parameters }

func (m *Method) String() string {
	return fmt.Sprintf("%s%v", m.name, m.signature)
}
func (m *Method) isSemantic() {}

// MethodGroup is the set of same-named overloads the name resolver binds a
// callee reference to.
type MethodGroup struct {
	name    string
	methods []*Method
}

func NewMethodGroup(name string, methods []*Method) *MethodGroup {
	return &MethodGroup{name: name, methods: methods}
}

func (g *MethodGroup) Name() string       { return g.name }
func (g *MethodGroup) Methods() []*Method { return g.methods }
func (g *MethodGroup) String() string     { return g.name }
func (g *MethodGroup) isSemantic()        {}

// -----------------------------------------------------------------------------
// Variables

// StorageClass classifies how a local lives at runtime, derived from its
// get/set profile by the variable tracker.
type StorageClass int

const (
	StorageHeap StorageClass = iota
	StorageNonLocal
	StorageLocal
	StorageReadOnly
	StorageVoid
)

func (c StorageClass) String() string {
	switch c {
	case StorageHeap:
		return "heap"
	case StorageNonLocal:
		return "non_local"
	case StorageLocal:
		return "local"
	case StorageReadOnly:
		return "read_only"
	case StorageVoid:
		return "void"
	}
	return "<invalid>"
}

type Variable struct {
	varType Type
	storage StorageClass
	node    ast.NamedNode
}

func (v *Variable) Type() Type            { return v.varType }
func (v *Variable) Storage() StorageClass { return v.storage }
func (v *Variable) Node() ast.NamedNode   { return v.node }

func (v *Variable) String() string {
	return fmt.Sprintf("%s %v %s", v.storage, v.varType, v.node.Name())
}
func (v *Variable) isSemantic() {}

// Literal is the semantic node attached to a literal AST node once its type
// is grounded.
type Literal struct {
	litType Type
	token   *ast.Token
}

func (l *Literal) Type() Type        { return l.litType }
func (l *Literal) Token() *ast.Token { return l.token }

func (l *Literal) String() string {
	return fmt.Sprintf("%v %v", l.litType, l.token)
}
func (l *Literal) isSemantic() {}

// Field is a named, typed member of a class; assignment to fields is not yet
// analyzed but name references may resolve to them.
type Field struct {
	name      string
	fieldType Type
}

func NewField(name string, fieldType Type) *Field {
	return &Field{name: name, fieldType: fieldType}
}

func (f *Field) Name() string   { return f.name }
func (f *Field) Type() Type     { return f.fieldType }
func (f *Field) String() string { return f.name }
func (f *Field) isSemantic()    {}
