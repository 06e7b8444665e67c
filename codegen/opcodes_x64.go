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
package codegen

// -----------------------------------------------------------------------------
// x86-64 opcode schedule
// Opcode values follow the one/two/three byte map of the Intel SDM; multi
// byte opcodes carry their prefix bytes in the upper bits and are emitted
// high byte first. Operand form suffixes follow the SDM operand notation:
//   Eb/Ev  r/m8 / r/m16,32,64      Gb/Gv  r8 / r16,32,64
//   Ib/Iz  imm8 / imm16,32         Jb/Jv  rel8 / rel32
//   AL/eAX accumulator forms       +r     register in opcode

type x64Opcode int

const (
	opADD_Eb_Gb x64Opcode = 0x00
	opADD_Ev_Gv x64Opcode = 0x01
	opADD_Gb_Eb x64Opcode = 0x02
	opADD_Gv_Ev x64Opcode = 0x03
	opADD_AL_Ib x64Opcode = 0x04
	opADD_eAX_Iz x64Opcode = 0x05

	opOR_Eb_Gb x64Opcode = 0x08
	opAND_Eb_Gb x64Opcode = 0x20
	opSUB_Eb_Gb x64Opcode = 0x28
	opXOR_Eb_Gb x64Opcode = 0x30
	opCMP_Eb_Gb x64Opcode = 0x38

	opMOVSXD_Gv_Ev x64Opcode = 0x63

	opOPDSIZ x64Opcode = 0x66

	opJcc_Jb x64Opcode = 0x70

	// Group 1: immediate arithmetic selected by the ModR/M reg extension.
	opGrp1_Eb_Ib x64Opcode = 0x80
	opGrp1_Ev_Iz x64Opcode = 0x81
	opGrp1_Ev_Ib x64Opcode = 0x83

	opTEST_Eb_Gb x64Opcode = 0x84
	opTEST_Ev_Gv x64Opcode = 0x85

	opMOV_Eb_Gb x64Opcode = 0x88
	opMOV_Ev_Gv x64Opcode = 0x89
	opMOV_Gb_Eb x64Opcode = 0x8A
	opMOV_Gv_Ev x64Opcode = 0x8B

	opNOP x64Opcode = 0x90

	// CDQ/CQO share 0x99; REX.W selects the quad form.
	opCDQ x64Opcode = 0x99

	opMOV_AL_Ib  x64Opcode = 0xB0
	opMOV_rAX_Iv x64Opcode = 0xB8

	// Group 2: shifts selected by the ModR/M reg extension.
	opGrp2_Eb_Ib x64Opcode = 0xC0
	opGrp2_Ev_Ib x64Opcode = 0xC1
	opRET        x64Opcode = 0xC3
	opMOV_Eb_Ib  x64Opcode = 0xC6
	opMOV_Ev_Iz  x64Opcode = 0xC7
	opGrp2_Eb_1  x64Opcode = 0xD0
	opGrp2_Ev_1  x64Opcode = 0xD1
	opGrp2_Eb_CL x64Opcode = 0xD2
	opGrp2_Ev_CL x64Opcode = 0xD3

	opCALL_Jv x64Opcode = 0xE8
	opJMP_Jv  x64Opcode = 0xE9
	opJMP_Jb  x64Opcode = 0xEB

	// Group 3: unary arithmetic selected by the ModR/M reg extension.
	opGrp3_Ev x64Opcode = 0xF7

	// Two byte map.
	opJcc_Jv      x64Opcode = 0x0F80
	opMOVZX_Gv_Eb x64Opcode = 0x0FB6
	opMOVZX_Gv_Ew x64Opcode = 0x0FB7
	opMOVSX_Gv_Eb x64Opcode = 0x0FBE
	opMOVSX_Gv_Ew x64Opcode = 0x0FBF

	// SSE scalar forms.
	opMOVSS_Vss_Wss x64Opcode = 0xF30F10
	opMOVSS_Wss_Vss x64Opcode = 0xF30F11
	opMOVSD_Vsd_Wsd x64Opcode = 0xF20F10
	opMOVSD_Wsd_Vsd x64Opcode = 0xF20F11
	opADDSS_Vss_Wss x64Opcode = 0xF30F58
	opADDSD_Vsd_Wsd x64Opcode = 0xF20F58
	opMULSS_Vss_Wss x64Opcode = 0xF30F59
	opMULSD_Vsd_Wsd x64Opcode = 0xF20F59
	opSUBSS_Vss_Wss x64Opcode = 0xF30F5C
	opSUBSD_Vsd_Wsd x64Opcode = 0xF20F5C
	opDIVSS_Vss_Wss x64Opcode = 0xF30F5E
	opDIVSD_Vsd_Wsd x64Opcode = 0xF20F5E
)

// ModR/M reg field extensions for the opcode groups.
type x64OpcodeExt int

const (
	extADD x64OpcodeExt = 0
	extOR  x64OpcodeExt = 1
	extAND x64OpcodeExt = 4
	extSUB x64OpcodeExt = 5
	extXOR x64OpcodeExt = 6
	extCMP x64OpcodeExt = 7

	extSHL x64OpcodeExt = 4
	extSHR x64OpcodeExt = 5
	extSAR x64OpcodeExt = 7

	extMOV x64OpcodeExt = 0

	extIMUL x64OpcodeExt = 5
	extIDIV x64OpcodeExt = 7
)

// REX prefix bits: 0x40 | W | R | X | B.
const (
	rexBase = 0x40
	rexB    = 0x01
	rexX    = 0x02
	rexR    = 0x04
	rexW    = 0x08
)

// ModR/M mod field values, pre-shifted.
type x64Mod int

const (
	modDisp0  x64Mod = 0x00
	modDisp8  x64Mod = 0x40
	modDisp32 x64Mod = 0x80
	modReg    x64Mod = 0xC0
)

// Special r/m encodings.
const (
	rmSib    = 4 // r/m=100 selects a SIB byte
	rmDisp32 = 5 // r/m=101 with mod=00 selects RIP-relative disp32
)

// SIB scale field values, pre-shifted.
type x64Scale int

const (
	scaleOne x64Scale = 0x00
)

// Condition test encodings (tttn) of the 0F 8x / 0F 9x families, indexed
// by lir.IntegerCondition.
var conditionToTttn = map[int]int{
	0:  0x5, // NotEqual
	1:  0xD, // GreaterOrEqual
	2:  0xF, // GreaterThan
	3:  0x3, // AboveOrEqual
	4:  0x7, // Above
	11: 0x6, // BelowOrEqual
	12: 0x2, // Below
	13: 0xE, // LessOrEqual
	14: 0xC, // LessThan
	15: 0x4, // Equal
}
