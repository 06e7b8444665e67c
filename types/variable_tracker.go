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

// -----------------------------------------------------------------------------
// VariableTracker
// Tracks get/set profiles of locals and parameters while a method body is
// analyzed, then finalizes each local's storage class and ground type.

type trackingData struct {
	heapGetCount     int
	heapSetCount     int
	localGetCount    int
	localSetCount    int
	nonLocalGetCount int
	nonLocalSetCount int
	value            Value
}

func (d *trackingData) computeStorageClass() sem.StorageClass {
	if d.nonLocalSetCount > 0 {
		return sem.StorageHeap
	}
	if d.nonLocalGetCount > 0 {
		return sem.StorageNonLocal
	}
	if d.localSetCount > 0 {
		return sem.StorageLocal
	}
	if d.heapGetCount > 0 || d.localGetCount > 0 {
		return sem.StorageReadOnly
	}
	// Registered but never touched, e.g. a discarded value.
	return sem.StorageVoid
}

type VariableTracker struct {
	errorSink ErrorSink
	semantics *sem.Semantics

	variables    []ast.NamedNode
	variableMap  map[ast.NamedNode]*trackingData
}

func NewVariableTracker(errorSink ErrorSink, semantics *sem.Semantics) *VariableTracker {
	return &VariableTracker{
		errorSink:   errorSink,
		semantics:   semantics,
		variableMap: make(map[ast.NamedNode]*trackingData),
	}
}

func (t *VariableTracker) RegisterVariable(variable ast.NamedNode, value Value) {
	_, present := t.variableMap[variable]
	utils.Assert(!present, "variable %v registered twice", variable)
	t.variables = append(t.variables, variable)
	t.variableMap[variable] = &trackingData{value: value}
}

func (t *VariableTracker) RecordGet(variable ast.NamedNode) Value {
	// TODO: non-local references of captured variables.
	data, present := t.variableMap[variable]
	utils.Assert(present, "variable %v is not registered", variable)
	data.localGetCount++
	return data.value
}

func (t *VariableTracker) RecordSet(variable ast.NamedNode) Value {
	// TODO: non-local references of captured variables.
	data, present := t.variableMap[variable]
	utils.Assert(present, "variable %v is not registered", variable)
	data.localSetCount++
	return data.value
}

// Finish grounds every tracked variable and publishes its semantic node.
// Variables whose type did not ground are reported, not published.
func (t *VariableTracker) Finish(factory *sem.Factory, typeFactory *Factory) {
	evaluator := NewEvaluator(typeFactory)
	for _, variable := range t.variables {
		data := t.variableMap[variable]
		literal, ok := evaluator.Evaluate(data.value).(*Literal)
		if !ok {
			t.errorSink.AddError(ErrorTypeResolverVariableNotResolved, variable)
			continue
		}
		t.semantics.SetSemanticOf(variable,
			factory.NewVariable(literal.Value(), data.computeStorageClass(), variable))
	}
}
