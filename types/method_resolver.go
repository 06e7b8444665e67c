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
)

// MethodResolver filters a method group down to the overloads a call site
// can possibly mean.
type MethodResolver struct{}

func NewMethodResolver() *MethodResolver {
	return &MethodResolver{}
}

func (r *MethodResolver) isApplicable(method *sem.Method, arity int) bool {
	signature := method.Signature()
	return arity >= signature.MinimumArity() && arity <= signature.MaximumArity()
}

// ComputeApplicableMethods keeps methods whose signature accepts |arity|
// arguments.
// TODO: walk base classes of the group's owner as well.
func (r *MethodResolver) ComputeApplicableMethods(group *sem.MethodGroup,
	expected Value, arity int) []*sem.Method {
	var methods []*sem.Method
	for _, method := range group.Methods() {
		if !r.isApplicable(method, arity) {
			continue
		}
		methods = append(methods, method)
	}
	return methods
}
