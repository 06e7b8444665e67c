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
	"testing"
)

func TestWideningRelation(t *testing.T) {
	p := NewPredefinedTypes()
	cases := []struct {
		from, to PredefinedName
		want     bool
	}{
		{NameInt8, NameInt64, true},
		{NameInt32, NameInt64, true},
		{NameInt64, NameInt32, false},
		{NameUInt8, NameUInt64, true},
		{NameInt32, NameUInt64, false},
		{NameFloat32, NameFloat64, true},
		{NameFloat64, NameFloat32, false},
		{NameInt32, NameInt32, true},
		{NameString, NameObject, true},
	}
	for _, c := range cases {
		if got := p.TypeOf(c.from).IsSubtypeOf(p.TypeOf(c.to)); got != c.want {
			t.Fatalf("IsSubtypeOf(%v, %v) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestSignatureArity(t *testing.T) {
	p := NewPredefinedTypes()
	int32Type := p.TypeOf(NameInt32)

	plain := NewSignature(int32Type, []*Parameter{
		NewParameter("a", int32Type, 0),
		NewParameter("b", int32Type, 1),
	})
	if plain.MinimumArity() != 2 || plain.MaximumArity() != 2 {
		t.Fatalf("plain signature arity is exact")
	}

	rest := NewSignature(int32Type, []*Parameter{
		NewParameter("a", int32Type, 0),
		NewRestParameter("rest", int32Type, 1),
	})
	if rest.MinimumArity() != 1 {
		t.Fatalf("rest parameter is optional")
	}
	if rest.MaximumArity() <= 100 {
		t.Fatalf("rest parameter accepts any arity")
	}
}

func TestArrayTypeSubtyping(t *testing.T) {
	p := NewPredefinedTypes()
	int32Type := p.TypeOf(NameInt32)
	a := NewArrayType(int32Type, 1)
	b := NewArrayType(int32Type, 1)
	c := NewArrayType(int32Type, 2)
	if !a.IsSubtypeOf(b) {
		t.Fatalf("same shape arrays are compatible")
	}
	if a.IsSubtypeOf(c) {
		t.Fatalf("rank participates in array compatibility")
	}
	if a.IsSubtypeOf(int32Type) {
		t.Fatalf("arrays are not scalars")
	}
}
