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
package compile

import (
	"fmt"

	"elang/ast"
	"elang/codegen"
	"elang/lir"
	"elang/sem"
	"elang/types"
)

// -----------------------------------------------------------------------------
// Session
// One compilation session owns the interned state of both pipelines: the
// semantic universe, the type inference factory, the LIR factory and the
// collected diagnostics. Create one per run and drop it afterwards;
// everything it interned dies with it.

type Error struct {
	Code  types.ErrorCode
	Nodes []ast.Node
}

func (e *Error) String() string {
	str := e.Code.String()
	for i, node := range e.Nodes {
		if i == 0 {
			str += ": "
		} else {
			str += ", "
		}
		str += fmt.Sprintf("%v", node)
	}
	return str
}

type Session struct {
	semFactory  *sem.Factory
	semantics   *sem.Semantics
	typeFactory *types.Factory
	lirFactory  *lir.Factory

	// Name resolution is an external collaborator; the session carries its
	// published bindings.
	references map[ast.Expression]sem.Semantic

	errors []*Error
}

func NewSession() *Session {
	semFactory := sem.NewFactory()
	return &Session{
		semFactory:  semFactory,
		semantics:   sem.NewSemantics(),
		typeFactory: types.NewFactory(semFactory.Predefined()),
		lirFactory:  lir.NewFactory(),
		references:  make(map[ast.Expression]sem.Semantic),
	}
}

func (s *Session) SemanticFactory() *sem.Factory  { return s.semFactory }
func (s *Session) Semantics() *sem.Semantics      { return s.semantics }
func (s *Session) TypeFactory() *types.Factory    { return s.typeFactory }
func (s *Session) LirFactory() *lir.Factory       { return s.lirFactory }
func (s *Session) Errors() []*Error               { return s.errors }

func (s *Session) PredefinedTypeOf(name sem.PredefinedName) sem.Type {
	return s.semFactory.Predefined().TypeOf(name)
}

// AddError implements the type resolver's error sink.
func (s *Session) AddError(code types.ErrorCode, nodes ...ast.Node) {
	s.errors = append(s.errors, &Error{Code: code, Nodes: nodes})
}

// BindReference publishes a name resolution result into the session.
func (s *Session) BindReference(expression ast.Expression, semantic sem.Semantic) {
	s.references[expression] = semantic
}

// ResolveReference implements types.ReferenceResolver over the published
// bindings.
func (s *Session) ResolveReference(expression ast.Expression) sem.Semantic {
	return s.references[expression]
}

// -----------------------------------------------------------------------------
// Method analysis
// Drives type inference over one method body: registers the declared
// locals and parameters, resolves every statement expression, then
// finalizes variable types and storage classes.

type MethodBody struct {
	// Declared locals with their initial inference values; parameters are
	// NamedNodes as well.
	Variables map[ast.NamedNode]types.Value

	// Statement expressions in body order; each is resolved against the
	// any value, i.e. without a contextual expectation.
	Statements []ast.Expression
}

func (s *Session) AnalyzeMethodBody(body *MethodBody) *types.TypeResolver {
	tracker := types.NewVariableTracker(s, s.semantics)
	for variable, value := range body.Variables {
		tracker.RegisterVariable(variable, value)
	}
	resolver := types.NewTypeResolver(s.typeFactory, s, s.semantics, s.semFactory,
		s, tracker)
	for _, statement := range body.Statements {
		resolver.Resolve(statement, s.typeFactory.AnyValue())
	}
	tracker.Finish(s.semFactory, s.typeFactory)
	return resolver
}

// -----------------------------------------------------------------------------
// Code generation

// GenerateMachineCode runs the LIR pipeline over |function| and emits the
// final bytes into |builder|.
func (s *Session) GenerateMachineCode(function *lir.Function,
	builder codegen.MachineCodeBuilder) bool {
	return codegen.GenerateMachineCode(s.lirFactory, function, builder)
}
