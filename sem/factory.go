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
	"elang/ast"
	"elang/utils"
)

// Factory mints semantic nodes. Nodes live for the whole compilation
// session; nothing is freed before session teardown.
type Factory struct {
	predefined *PredefinedTypes
}

func NewFactory() *Factory {
	return &Factory{predefined: NewPredefinedTypes()}
}

func (f *Factory) Predefined() *PredefinedTypes { return f.predefined }

func (f *Factory) NewVariable(varType Type, storage StorageClass, node ast.NamedNode) *Variable {
	utils.Assert(varType != nil, "variable must be typed")
	return &Variable{varType: varType, storage: storage, node: node}
}

func (f *Factory) NewLiteral(litType Type, token *ast.Token) *Literal {
	utils.Assert(litType != nil, "literal must be typed")
	return &Literal{litType: litType, token: token}
}

// -----------------------------------------------------------------------------
// Semantics
// Semantics maps AST nodes to their semantic nodes for one session.

type Semantics struct {
	semanticMap map[ast.Node]Semantic
}

func NewSemantics() *Semantics {
	return &Semantics{semanticMap: make(map[ast.Node]Semantic)}
}

func (s *Semantics) SemanticOf(node ast.Node) Semantic {
	return s.semanticMap[node]
}

func (s *Semantics) SetSemanticOf(node ast.Node, semantic Semantic) {
	utils.Assert(semantic != nil, "semantic of %v must not be nil", node)
	s.semanticMap[node] = semantic
}

// ValueOf returns the type of |node|'s semantic, or nil when the node has no
// semantic or its semantic carries no type.
func (s *Semantics) ValueOf(node ast.Node) Type {
	switch semantic := s.semanticMap[node].(type) {
	case Type:
		return semantic
	case *Variable:
		return semantic.Type()
	case *Literal:
		return semantic.Type()
	case *Field:
		return semantic.Type()
	default:
		return nil
	}
}
