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
	"testing"
)

func TestValueEquality(t *testing.T) {
	if GetRegister(EAX) != GetRegister(EAX) {
		t.Fatalf("values are plain records; equality is field equality")
	}
	if GetRegister(EAX) == GetRegister(RAX) {
		t.Fatalf("sizes participate in equality")
	}
	if GetRegister(EAX) == GetRegister(ECX) {
		t.Fatalf("register numbers participate in equality")
	}
}

func TestImmediateFitsSize(t *testing.T) {
	if !Immediate(Size8, 127).FitsSize() {
		t.Fatalf("127 fits 8 bits")
	}
	if Immediate(Size8, 128).FitsSize() {
		t.Fatalf("128 does not fit 8 bits")
	}
	if !Immediate(Size32, 1<<20).FitsSize() {
		t.Fatalf("2^20 fits 32 bits")
	}
}

func TestRegisterNames(t *testing.T) {
	cases := []struct {
		name RegisterName
		want string
	}{
		{RAX, "RAX"},
		{EAX, "EAX"},
		{AX, "AX"},
		{AL, "AL"},
		{R9, "R9"},
		{R10D, "R10D"},
		{CL, "CL"},
		{XMM1D, "XMM1"},
	}
	for _, c := range cases {
		if got := GetRegister(c.name).String(); got != c.want {
			t.Fatalf("Expect %s, got %s", c.want, got)
		}
	}
}

func TestNaturalRegisterOf(t *testing.T) {
	if NaturalRegisterOf(GetRegister(EAX)) != GetRegister(RAX) {
		t.Fatalf("natural form of EAX is RAX")
	}
	if NaturalRegisterOf(GetRegister(XMM3S)) != GetRegister(XMM3D) {
		t.Fatalf("natural form of XMM3S is XMM3D")
	}
}

func TestCallingConvention(t *testing.T) {
	if !IsCallerSavedRegister(GetRegister(RAX)) {
		t.Fatalf("RAX is caller-saved")
	}
	if !IsCalleeSavedRegister(GetRegister(RBX)) {
		t.Fatalf("RBX is callee-saved")
	}
	output := Value{Type: Integer, Size: Size32, Kind: KindVirtualRegister}
	if GetArgumentAt(output, 0) != GetRegister(ECX) {
		t.Fatalf("first integer argument lives in RCX")
	}
	if GetArgumentAt(output, 4).Kind != KindArgument {
		t.Fatalf("fifth argument lives on the stack")
	}
	if GetReturn(Int32Type()) != GetRegister(EAX) {
		t.Fatalf("int32 returns in EAX")
	}
	if GetReturn(Float64Type()) != GetRegister(XMM0D) {
		t.Fatalf("float64 returns in XMM0")
	}
}
