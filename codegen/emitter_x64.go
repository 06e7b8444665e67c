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

import (
	"elang/lir"
	"elang/utils"
)

// -----------------------------------------------------------------------------
// InstructionHandlerX64
// Emits REX prefix, opcode, ModR/M, SIB, displacement and immediate bytes
// for each instruction. Spill slots address through RSP, frame slots
// through RBP. Conditional branches take their tttn code from the last
// 'cmp' of the block; a 'cmp' directly feeding a 'br' does not duplicate
// the flags into a register.

type InstructionHandler interface {
	Handle(instr *lir.Instruction)
}

type InstructionHandlerX64 struct {
	factory    *lir.Factory
	function   *lir.Function
	codeBuffer *CodeBuffer

	// Last 'cmp' seen in the current block, for deriving branch tttn.
	lastCmpInstruction *lir.Instruction
}

func NewInstructionHandlerX64(factory *lir.Factory, function *lir.Function,
	codeBuffer *CodeBuffer) *InstructionHandlerX64 {
	return &InstructionHandlerX64{
		factory:    factory,
		function:   function,
		codeBuffer: codeBuffer,
	}
}

func (h *InstructionHandlerX64) emit8(value int)     { h.codeBuffer.Emit8(value) }
func (h *InstructionHandlerX64) emit16(value int)    { h.codeBuffer.Emit16(value) }
func (h *InstructionHandlerX64) emit32(value uint32) { h.codeBuffer.Emit32(value) }
func (h *InstructionHandlerX64) emit64(value uint64) { h.codeBuffer.Emit64(value) }

// Handle dispatches on the opcode and tracks the flag-setting 'cmp'.
func (h *InstructionHandlerX64) Handle(instr *lir.Instruction) {
	switch instr.Opcode() {
	case lir.OpEntry, lir.OpExit:
		// No code.
	case lir.OpRet:
		h.emitOpcode(opRET)
	case lir.OpJump:
		h.visitJump(instr)
	case lir.OpBranch:
		h.visitBranch(instr)
	case lir.OpCopy:
		h.visitCopy(instr)
	case lir.OpLit:
		h.visitLiteral(instr)
	case lir.OpLoad:
		h.visitLoad(instr)
	case lir.OpStore:
		h.visitStore(instr)
	case lir.OpCall:
		h.visitCall(instr)
	case lir.OpAdd:
		h.visitArithmetic(instr, opADD_Eb_Gb, extADD, opADDSS_Vss_Wss, opADDSD_Vsd_Wsd)
	case lir.OpSub:
		h.visitArithmetic(instr, opSUB_Eb_Gb, extSUB, opSUBSS_Vss_Wss, opSUBSD_Vsd_Wsd)
	case lir.OpBitAnd:
		h.visitArithmetic(instr, opAND_Eb_Gb, extAND, 0, 0)
	case lir.OpBitOr:
		h.visitArithmetic(instr, opOR_Eb_Gb, extOR, 0, 0)
	case lir.OpBitXor:
		h.visitArithmetic(instr, opXOR_Eb_Gb, extXOR, 0, 0)
	case lir.OpCmp:
		h.handleIntegerArithmetic(instr, opCMP_Eb_Gb, extCMP)
	case lir.OpMul:
		h.visitMul(instr)
	case lir.OpDiv:
		h.visitDiv(instr)
	case lir.OpShl:
		h.handleShiftInstruction(instr, extSHL)
	case lir.OpShr:
		h.handleShiftInstruction(instr, extSAR)
	case lir.OpUShr:
		h.handleShiftInstruction(instr, extSHR)
	case lir.OpSignExtend:
		h.visitSignExtend(instr)
	case lir.OpZeroExtend:
		h.visitZeroExtend(instr)
	default:
		utils.Fatal("NYI %v", instr)
	}
	if instr.Opcode() == lir.OpCmp {
		h.lastCmpInstruction = instr
	} else if instr.IsTerminator() {
		h.lastCmpInstruction = nil
	}
}

// -----------------------------------------------------------------------------
// Encoding helpers

func (h *InstructionHandlerX64) emitOpcode(opcode x64Opcode) {
	value := uint32(opcode)
	utils.Assert(value < 1<<24, "opcode %x too wide", value)
	if value > 0xFFFF {
		h.emit8(int(value >> 16))
	}
	if value > 0xFF {
		h.emit8(int(value >> 8))
	}
	h.emit8(int(value))
}

// emitOpcodePlus emits an opcode with a register number folded into its
// low bits, e.g. MOV rAX+r, Iv.
func (h *InstructionHandlerX64) emitOpcodePlus(opcode x64Opcode, delta int) {
	h.emitOpcode(opcode + x64Opcode(delta&7))
}

func (h *InstructionHandlerX64) emitModRmBits(mod x64Mod, reg, rm int) {
	h.emit8(int(mod) | ((reg & 7) << 3) | (rm & 7))
}

// emitModRmMemory addresses a frame or stack slot from register |reg|.
func (h *InstructionHandlerX64) emitModRmMemory(reg int, memory lir.Value) {
	if memory.IsFrameSlot() {
		h.emitModRmDisp(reg, int(lir.RBP)&15, int(memory.Data))
		return
	}
	if memory.IsStackSlot() {
		h.emitModRmDisp(reg, int(lir.RSP)&15, int(memory.Data))
		return
	}
	utils.Fatal("bad memory operand %v", memory)
}

// emitModRm encodes a register/register or register/memory pair.
func (h *InstructionHandlerX64) emitModRm(output, input lir.Value) {
	if output.IsPhysical() {
		if input.IsPhysical() {
			h.emitModRmBits(modReg, int(output.Data), int(input.Data))
			return
		}
		h.emitModRmMemory(int(output.Data), input)
		return
	}
	if input.IsPhysical() {
		h.emitModRmMemory(int(input.Data), output)
		return
	}
	utils.Fatal("bad ModRM operands %v, %v", output, input)
}

func (h *InstructionHandlerX64) emitModRmDisp(reg, base, displacement int) {
	rm := base & 7
	if displacement == 0 && rm != rmDisp32 {
		h.emitModRmBits(modDisp0, reg, base)
		if rm == rmSib {
			h.emitSib(scaleOne, rmSib, base)
		}
		return
	}
	if utils.Is8Bit(displacement) {
		h.emitModRmBits(modDisp8, reg, base)
		if rm == rmSib {
			h.emitSib(scaleOne, rmSib, base)
		}
		h.emit8(displacement)
		return
	}
	h.emitModRmBits(modDisp32, reg, base)
	if rm == rmSib {
		h.emitSib(scaleOne, rmSib, base)
	}
	h.emit32(uint32(int32(displacement)))
}

func (h *InstructionHandlerX64) emitSib(scale x64Scale, index, base int) {
	h.emit8(int(scale) | ((index & 7) << 3) | (base & 7))
}

// emitOpcodeExt encodes an opcode-group member: the ModR/M reg field
// carries the extension, r/m the operand.
func (h *InstructionHandlerX64) emitOpcodeExt(ext x64OpcodeExt, operand lir.Value) {
	if operand.IsPhysical() {
		h.emitModRmBits(modReg, int(ext), int(operand.Data))
		return
	}
	h.emitModRmMemory(int(ext), operand)
}

// emitRexPrefixRm emits the operand-size prefix and REX for a single r/m
// operand.
func (h *InstructionHandlerX64) emitRexPrefixRm(rm lir.Value) {
	if rm.Is16Bit() {
		h.emitOpcode(opOPDSIZ)
	}
	rex := 0
	if rm.Is64Bit() && rm.IsInteger() {
		rex |= rexW
	}
	if rm.IsPhysical() && rm.Data >= 8 {
		rex |= rexB
	}
	// Accessing SPL/BPL/SIL/DIL wants at least a bare REX prefix.
	needBare := rm.Is8Bit() && rm.IsPhysical() && rm.Data >= 4
	if rex == 0 && !needBare {
		return
	}
	h.emit8(rexBase | rex)
}

// emitRexPrefix emits the operand-size prefix and REX for a reg/rm pair.
func (h *InstructionHandlerX64) emitRexPrefix(reg, rm lir.Value) {
	if reg.Is16Bit() {
		h.emitOpcode(opOPDSIZ)
	}
	rex := 0
	if reg.Is64Bit() && reg.IsInteger() {
		rex |= rexW
	}
	if reg.IsPhysical() && reg.Data >= 8 {
		rex |= rexR
	}
	if rm.IsPhysical() && rm.Data >= 8 {
		rex |= rexB
	}
	needBare := (reg.Is8Bit() && reg.IsPhysical() && reg.Data >= 4) ||
		(rm.Is8Bit() && rm.IsPhysical() && rm.Data >= 4)
	if rex == 0 && !needBare {
		return
	}
	h.emit8(rexBase | rex)
}

// emitIz emits an immediate sized to |output|.
func (h *InstructionHandlerX64) emitIz(output lir.Value, imm int) {
	if output.Is8Bit() {
		h.emit8(imm)
		return
	}
	if output.Is16Bit() {
		h.emit16(imm)
		return
	}
	h.emit32(uint32(int32(imm)))
}

// emitOperand emits an immediate or records a literal relocation.
func (h *InstructionHandlerX64) emitOperand(value lir.Value) {
	if value.IsImmediate() {
		switch value.Size {
		case lir.Size8:
			h.emit8(int(value.Data))
		case lir.Size16:
			h.emit16(int(value.Data))
		default:
			h.emit32(uint32(value.Data))
		}
		return
	}
	if value.IsLiteral() {
		literal := h.factory.GetLiteral(h.function, value)
		if i32, ok := literal.(*lir.Int32Literal); ok {
			h.emit32(uint32(i32.Data()))
			return
		}
		if i64, ok := literal.(*lir.Int64Literal); ok {
			utils.Assert(utils.Is32Bit(i64.Data()), "literal %v too wide", literal)
			h.emit32(uint32(int32(i64.Data())))
			return
		}
	}
	h.codeBuffer.AssociateValue(value)
	h.emit32(0)
}

func (h *InstructionHandlerX64) int32ValueOf(value lir.Value) int32 {
	if value.IsImmediate() {
		return value.Data
	}
	utils.Assert(value.IsLiteral(), "%v is not a 32-bit constant", value)
	literal := h.factory.GetLiteral(h.function, value)
	if i32, ok := literal.(*lir.Int32Literal); ok {
		return i32.Data()
	}
	if i64, ok := literal.(*lir.Int64Literal); ok {
		utils.Assert(utils.Is32Bit(i64.Data()), "literal %v too wide", literal)
		return int32(i64.Data())
	}
	utils.Fatal("%v is not a 32-bit literal", value)
	return 0
}

func (h *InstructionHandlerX64) int64ValueOf(value lir.Value) int64 {
	if value.IsImmediate() {
		return int64(value.Data)
	}
	utils.Assert(value.IsLiteral(), "%v is not a constant", value)
	literal := h.factory.GetLiteral(h.function, value)
	if i32, ok := literal.(*lir.Int32Literal); ok {
		return int64(i32.Data())
	}
	if i64, ok := literal.(*lir.Int64Literal); ok {
		return i64.Data()
	}
	utils.Fatal("%v is not an integer literal", value)
	return 0
}

// -----------------------------------------------------------------------------
// Jumps and branches

func (h *InstructionHandlerX64) emitJumpTo(target *lir.BasicBlock) {
	h.codeBuffer.EmitJump(
		NewJump(int(opJMP_Jv), 1, 4),
		NewJump(int(opJMP_Jb), 1, 1),
		target)
}

func (h *InstructionHandlerX64) emitBranch(condition lir.IntegerCondition,
	target *lir.BasicBlock) {
	tttn, ok := conditionToTttn[int(condition)]
	utils.Assert(ok, "no tttn for %v", condition)
	h.codeBuffer.EmitJump(
		NewJump(int(opJcc_Jv)+tttn, 2, 4),
		NewJump(int(opJcc_Jb)+tttn, 1, 1),
		target)
}

func (h *InstructionHandlerX64) visitJump(instr *lir.Instruction) {
	target := instr.BlockOperand(0)
	if target == instr.BasicBlock().Next() {
		return
	}
	h.emitJumpTo(target)
}

// useCondition recovers the condition computed by the 'cmp' feeding this
// branch.
func (h *InstructionHandlerX64) useCondition(user *lir.Instruction) lir.IntegerCondition {
	cmp := h.lastCmpInstruction
	utils.Assert(cmp != nil, "%v has no preceding cmp", user)
	utils.Assert(cmp.Output(0) == user.Input(0),
		"%v does not feed %v", cmp, user)
	return cmp.Condition()
}

func (h *InstructionHandlerX64) visitBranch(instr *lir.Instruction) {
	trueBlock := instr.BlockOperand(0)
	falseBlock := instr.BlockOperand(1)
	utils.Assert(trueBlock != falseBlock, "branch with one target")

	condition := h.useCondition(instr)
	nextBlock := instr.BasicBlock().Next()
	if nextBlock == trueBlock {
		h.emitBranch(lir.CommuteCondition(condition), falseBlock)
		return
	}
	h.emitBranch(condition, trueBlock)
	if nextBlock == falseBlock {
		return
	}
	h.emitJumpTo(falseBlock)
}

func (h *InstructionHandlerX64) visitCall(instr *lir.Instruction) {
	h.emitOpcode(opCALL_Jv)
	callee, ok := h.factory.GetLiteral(h.function, instr.Input(0)).(*lir.StringLiteral)
	utils.Assert(ok, "unsupported callee %v", instr)
	h.codeBuffer.AssociateCallSite(callee.Data())
	h.emit32(0)
}

// -----------------------------------------------------------------------------
// Moves

func opcodeForLoad(output lir.Value) x64Opcode {
	utils.Assert(output.IsPhysical(), "%v is not physical", output)
	if output.IsInt8() {
		return opMOV_Gb_Eb
	}
	if output.IsInteger() {
		return opMOV_Gv_Ev
	}
	if output.Is32Bit() {
		return opMOVSS_Vss_Wss
	}
	return opMOVSD_Vsd_Wsd
}

func opcodeForStore(input lir.Value) x64Opcode {
	utils.Assert(input.IsPhysical(), "%v is not physical", input)
	if input.IsInt8() {
		return opMOV_Eb_Gb
	}
	if input.IsInteger() {
		return opMOV_Ev_Gv
	}
	if input.Is32Bit() {
		return opMOVSS_Wss_Vss
	}
	return opMOVSD_Wsd_Vsd
}

func (h *InstructionHandlerX64) visitCopy(instr *lir.Instruction) {
	input := instr.Input(0)
	output := instr.Output(0)
	utils.Assert(output.Type == input.Type, "copy across banks %v", instr)

	// Phi expansion seeds registers with constants through plain copies.
	if input.IsImmediate() || input.IsLiteral() {
		h.emitLoadConstant(output, input)
		return
	}

	if output.IsPhysical() {
		h.emitRexPrefix(output, input)
		h.emitOpcode(opcodeForLoad(output))
		h.emitModRm(output, input)
		return
	}
	utils.Assert(input.IsPhysical(), "memory to memory copy %v", instr)
	h.emitRexPrefix(input, output)
	h.emitOpcode(opcodeForStore(input))
	h.emitModRm(output, input)
}

// visitLiteral materializes an integer constant:
//   B8+r imm32        MOV r32, imm32
//   REX.W B8+r imm64  MOV r64, imm64
//   C7 /0 imm32       MOV r/m32, imm32 (sign-extended for r/m64)
// Float literals are not encoded; a float output fails the assertion in
// emitLoadConstant.
func (h *InstructionHandlerX64) visitLiteral(instr *lir.Instruction) {
	h.emitLoadConstant(instr.Output(0), instr.Input(0))
}

func (h *InstructionHandlerX64) emitLoadConstant(output, input lir.Value) {
	utils.Assert(output.IsInteger(), "float literal reached emission %v <- %v",
		output, input)

	if output.Is64Bit() {
		imm64 := h.int64ValueOf(input)
		if utils.Is32Bit(imm64) {
			output32 := lir.Value{Type: output.Type, Size: lir.Size32,
				Kind: output.Kind, Data: output.Data}
			imm32 := int32(imm64)
			if imm32 >= 0 && output.IsPhysical() {
				// The 32-bit move zero-clears the high half.
				h.emitRexPrefixRm(output32)
				h.emitOpcodePlus(opMOV_rAX_Iv, int(output32.Data))
				h.emit32(uint32(imm32))
				return
			}
			h.emitRexPrefixRm(output)
			h.emitOpcode(opMOV_Ev_Iz)
			h.emitOpcodeExt(extMOV, output)
			h.emit32(uint32(imm32))
			return
		}
		utils.Assert(output.IsPhysical(), "64-bit immediate to memory %v", output)
		h.emitRexPrefixRm(output)
		h.emitOpcodePlus(opMOV_rAX_Iv, int(output.Data))
		h.emit64(uint64(imm64))
		return
	}

	h.emitRexPrefixRm(output)

	if output.Is8Bit() {
		if output.IsPhysical() {
			h.emitOpcodePlus(opMOV_AL_Ib, int(output.Data))
			h.emitOperand(input)
			return
		}
		h.emitOpcode(opMOV_Eb_Ib)
		h.emitOpcodeExt(extMOV, output)
		h.emitOperand(input)
		return
	}

	if output.IsPhysical() {
		h.emitOpcodePlus(opMOV_rAX_Iv, int(output.Data))
		h.emitOperand(input)
		return
	}
	h.emitOpcode(opMOV_Ev_Iz)
	h.emitOpcodeExt(extMOV, output)
	h.emitOperand(input)
}

// visitLoad reads through a pointer register with a small displacement.
// input(0) holds the base the pointer was derived from and does not
// contribute bytes.
func (h *InstructionHandlerX64) visitLoad(instr *lir.Instruction) {
	output := instr.Output(0)
	pointer := instr.Input(1)
	displacement := instr.Input(2)
	utils.Assert(displacement.IsImmediate(), "load wants immediate displacement")
	h.emitRexPrefix(output, pointer)
	h.emitOpcode(opcodeForLoad(output))
	h.emitModRmDisp(int(output.Data), int(pointer.Data), int(displacement.Data))
}

func (h *InstructionHandlerX64) visitStore(instr *lir.Instruction) {
	pointer := instr.Input(1)
	displacement := instr.Input(2)
	value := instr.Input(3)
	utils.Assert(displacement.IsImmediate(), "store wants immediate displacement")
	utils.Assert(value.IsPhysical(), "store wants a register value")
	h.emitRexPrefix(value, pointer)
	h.emitOpcode(opcodeForStore(value))
	h.emitModRmDisp(int(value.Data), int(pointer.Data), int(displacement.Data))
}

// -----------------------------------------------------------------------------
// Arithmetic

func (h *InstructionHandlerX64) visitArithmetic(instr *lir.Instruction,
	baseOpcode x64Opcode, ext x64OpcodeExt, sseSingle, sseDouble x64Opcode) {
	output := instr.Output(0)
	utils.Assert(output == instr.Input(0), "%v is not in two-address form", instr)
	if output.IsInteger() {
		h.handleIntegerArithmetic(instr, baseOpcode, ext)
		return
	}
	utils.Assert(sseSingle != 0, "no float form of %v", instr)
	opcode := sseDouble
	if output.Is32Bit() {
		opcode = sseSingle
	}
	right := instr.Input(1)
	h.emitRexPrefix(output, right)
	h.emitOpcode(opcode)
	h.emitModRm(output, right)
}

// handleIntegerArithmetic emits the ADD-family forms:
//   00 /r  op r/m8, r8      01 /r  op r/m32, r32
//   02 /r  op r8, r/m8      03 /r  op r32, r/m32
//   04 ib  op AL, imm8      05 id  op eAX, imm32
//   80 /e  op r/m8, imm8    83 /e  op r/m32, imm8   81 /e  op r/m32, imm32
func (h *InstructionHandlerX64) handleIntegerArithmetic(instr *lir.Instruction,
	baseOpcode x64Opcode, ext x64OpcodeExt) {
	left := instr.Input(0)
	right := instr.Input(1)

	if left.Is8Bit() {
		if right.IsPhysical() {
			h.emitRexPrefix(right, left)
			h.emitOpcode(baseOpcode)
			h.emitModRm(right, left)
			return
		}
		if right.IsMemorySlot() {
			h.emitRexPrefix(left, right)
			h.emitOpcodePlus(baseOpcode, 2)
			h.emitModRm(left, right)
			return
		}
		imm8 := h.int32ValueOf(right)
		if left.IsPhysical() && left.Data == 0 {
			h.emitRexPrefixRm(left)
			h.emitOpcodePlus(baseOpcode, 4)
			h.emit8(int(imm8))
			return
		}
		h.emitRexPrefixRm(left)
		h.emitOpcode(opGrp1_Eb_Ib)
		h.emitOpcodeExt(ext, left)
		h.emit8(int(imm8))
		return
	}

	if right.IsPhysical() {
		h.emitRexPrefix(right, left)
		h.emitOpcodePlus(baseOpcode, 1)
		h.emitModRm(right, left)
		return
	}
	if right.IsMemorySlot() {
		h.emitRexPrefix(left, right)
		h.emitOpcodePlus(baseOpcode, 3)
		h.emitModRm(left, right)
		return
	}

	h.emitRexPrefixRm(left)
	imm32 := h.int32ValueOf(right)
	if left.IsPhysical() && left.Data == 0 {
		h.emitOpcodePlus(baseOpcode, 5)
		h.emitIz(left, int(imm32))
		return
	}
	if utils.Is8Bit(int(imm32)) {
		h.emitOpcode(opGrp1_Ev_Ib)
		h.emitOpcodeExt(ext, left)
		h.emit8(int(imm32))
		return
	}
	h.emitOpcode(opGrp1_Ev_Iz)
	h.emitOpcodeExt(ext, left)
	h.emitIz(left, int(imm32))
}

// handleShiftInstruction emits the group-2 forms:
//   D0/D1 /e  shift r/m, 1
//   D2/D3 /e  shift r/m, CL
//   C0/C1 /e  shift r/m, imm8
func (h *InstructionHandlerX64) handleShiftInstruction(instr *lir.Instruction,
	ext x64OpcodeExt) {
	count := instr.Input(1)
	output := instr.Output(0)
	utils.Assert(output == instr.Input(0), "%v is not in two-address form", instr)

	h.emitRexPrefixRm(output)

	opOne, opCl, opIb := opGrp2_Ev_1, opGrp2_Ev_CL, opGrp2_Ev_Ib
	if output.Is8Bit() {
		opOne, opCl, opIb = opGrp2_Eb_1, opGrp2_Eb_CL, opGrp2_Eb_Ib
	}
	if count == lir.SmallInt32(1) {
		h.emitOpcode(opOne)
		h.emitOpcodeExt(ext, output)
		return
	}
	if count == lir.GetRegister(lir.CL) {
		h.emitOpcode(opCl)
		h.emitOpcodeExt(ext, output)
		return
	}
	utils.Assert(count.IsImmediate() && utils.Is8Bit(int(count.Data)),
		"bad shift count %v", count)
	h.emitOpcode(opIb)
	h.emitOpcodeExt(ext, output)
	h.emit8(int(count.Data))
}

// visitMul emits the single-operand signed multiply; RAX and RDX carry
// the result halves.
func (h *InstructionHandlerX64) visitMul(instr *lir.Instruction) {
	right := instr.Input(1)
	utils.Assert(instr.Output(0) == instr.Input(0), "mul is pinned to RAX")
	utils.Assert(right.IsPhysical() || right.IsMemorySlot(),
		"bad mul operand %v", right)
	h.emitRexPrefixRm(right)
	h.emitOpcode(opGrp3_Ev)
	h.emitOpcodeExt(extIMUL, right)
}

// visitDiv sign-extends the dividend and emits the single-operand signed
// divide; the quotient lands in RAX, the remainder in RDX.
func (h *InstructionHandlerX64) visitDiv(instr *lir.Instruction) {
	output := instr.Output(0)
	right := instr.Input(1)
	utils.Assert(output == instr.Input(0), "div is pinned to RAX")
	utils.Assert(right.IsPhysical() || right.IsMemorySlot(),
		"bad div operand %v", right)
	// CDQ for 32-bit, REX.W CQO for 64-bit.
	if output.Is64Bit() {
		h.emit8(rexBase | rexW)
	}
	h.emitOpcode(opCDQ)
	h.emitRexPrefixRm(right)
	h.emitOpcode(opGrp3_Ev)
	h.emitOpcodeExt(extIDIV, right)
}

// -----------------------------------------------------------------------------
// Extensions

// visitSignExtend:
//   0F BE /r  MOVSX r32, r/m8
//   0F BF /r  MOVSX r32, r/m16
//   REX.W 63 /r  MOVSXD r64, r/m32
func (h *InstructionHandlerX64) visitSignExtend(instr *lir.Instruction) {
	output := instr.Output(0)
	input := instr.Input(0)
	h.emitRexPrefix(output, input)
	switch input.Size {
	case lir.Size8:
		h.emitOpcode(opMOVSX_Gv_Eb)
	case lir.Size16:
		h.emitOpcode(opMOVSX_Gv_Ew)
	case lir.Size32:
		h.emitOpcode(opMOVSXD_Gv_Ev)
	default:
		utils.Fatal("bad sign extend %v", instr)
	}
	h.emitModRm(output, input)
}

// visitZeroExtend:
//   0F B6 /r  MOVZX r32, r/m8
//   0F B7 /r  MOVZX r32, r/m16
// The 32-bit MOV already zero-clears the high half, so the 64-bit form
// drops REX.W and uses plain MOV for 32-bit sources.
func (h *InstructionHandlerX64) visitZeroExtend(instr *lir.Instruction) {
	output := instr.Output(0)
	if output.Is64Bit() {
		output = lir.Value{Type: output.Type, Size: lir.Size32,
			Kind: output.Kind, Data: output.Data}
	}
	input := instr.Input(0)
	h.emitRexPrefix(output, input)
	switch input.Size {
	case lir.Size8:
		h.emitOpcode(opMOVZX_Gv_Eb)
	case lir.Size16:
		h.emitOpcode(opMOVZX_Gv_Ew)
	case lir.Size32:
		h.emitOpcode(opMOV_Gv_Ev)
	default:
		utils.Fatal("bad zero extend %v", instr)
	}
	h.emitModRm(output, input)
}
