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
// MachineCodeBuilder
// Consumer of finished code: raw bytes, call-site fixups and literal
// relocations.

type MachineCodeBuilder interface {
	EmitCode(bytes []byte)
	SetCallSite(offset int, callee string)
	SetValue(offset int, value lir.Value)
	FinishCode()
}

// -----------------------------------------------------------------------------
// CodeBuffer
// Collects bytes and symbolic jumps per basic block. Jump encodings are
// chosen on Finish by iterative shrinking: every jump starts long, and
// jumps whose displacement fits a signed byte shrink to the short form
// until no jump changes. Shrinking moves downstream code, so offsets and
// fixups are recomputed each round.

type Jump struct {
	Opcode      int
	OpcodeSize  int
	OperandSize int
}

func NewJump(opcode, opcodeSize, operandSize int) Jump {
	return Jump{Opcode: opcode, OpcodeSize: opcodeSize, OperandSize: operandSize}
}

func (j Jump) Size() int { return j.OpcodeSize + j.OperandSize }

type codeChunk struct {
	bytes []byte
	// Offsets are relative to the start of this chunk.
	callSites []chunkCallSite
	values    []chunkValue
}

type chunkCallSite struct {
	offset int
	callee string
}

type chunkValue struct {
	offset int
	value  lir.Value
}

type jumpData struct {
	longJump  Jump
	shortJump Jump
	target    *lir.BasicBlock
	isShort   bool
}

type codeItem struct {
	// Exactly one of chunk/jump is set.
	chunk *codeChunk
	jump  *jumpData
	// Block started at this item, when any.
	block *lir.BasicBlock
}

type CodeBuffer struct {
	function *lir.Function
	items    []*codeItem
	current  *codeChunk
	inBlock  bool
}

func NewCodeBuffer(function *lir.Function) *CodeBuffer {
	return &CodeBuffer{function: function}
}

// StartBasicBlock begins collecting code for |block|.
func (b *CodeBuffer) StartBasicBlock(block *lir.BasicBlock) {
	utils.Assert(!b.inBlock, "previous block is still open")
	b.inBlock = true
	b.current = &codeChunk{}
	b.items = append(b.items, &codeItem{chunk: b.current, block: block})
}

// EndBasicBlock closes the current block.
func (b *CodeBuffer) EndBasicBlock() {
	utils.Assert(b.inBlock, "no open block")
	b.inBlock = false
	b.current = nil
}

func (b *CodeBuffer) ensureChunk() *codeChunk {
	utils.Assert(b.inBlock, "emission outside of a block")
	if b.current == nil {
		b.current = &codeChunk{}
		b.items = append(b.items, &codeItem{chunk: b.current})
	}
	return b.current
}

func (b *CodeBuffer) Emit8(value int) {
	chunk := b.ensureChunk()
	chunk.bytes = append(chunk.bytes, byte(value))
}

func (b *CodeBuffer) Emit16(value int) {
	chunk := b.ensureChunk()
	chunk.bytes = append(chunk.bytes, byte(value), byte(value>>8))
}

func (b *CodeBuffer) Emit32(value uint32) {
	chunk := b.ensureChunk()
	chunk.bytes = append(chunk.bytes,
		byte(value), byte(value>>8), byte(value>>16), byte(value>>24))
}

func (b *CodeBuffer) Emit64(value uint64) {
	b.Emit32(uint32(value))
	b.Emit32(uint32(value >> 32))
}

// AssociateCallSite records that the 32-bit operand emitted next resolves
// to |callee|.
func (b *CodeBuffer) AssociateCallSite(callee string) {
	chunk := b.ensureChunk()
	chunk.callSites = append(chunk.callSites,
		chunkCallSite{offset: len(chunk.bytes), callee: callee})
}

// AssociateValue records that the 32-bit operand emitted next references
// |value| in the literal pool.
func (b *CodeBuffer) AssociateValue(value lir.Value) {
	chunk := b.ensureChunk()
	chunk.values = append(chunk.values,
		chunkValue{offset: len(chunk.bytes), value: value})
}

// EmitJump queues a symbolic jump to |target|; the final encoding is
// chosen on Finish.
func (b *CodeBuffer) EmitJump(longJump, shortJump Jump, target *lir.BasicBlock) {
	utils.Assert(b.inBlock, "emission outside of a block")
	b.items = append(b.items, &codeItem{
		jump: &jumpData{longJump: longJump, shortJump: shortJump, target: target},
	})
	b.current = nil
}

func (b *CodeBuffer) itemSize(item *codeItem) int {
	if item.chunk != nil {
		return len(item.chunk.bytes)
	}
	if item.jump.isShort {
		return item.jump.shortJump.Size()
	}
	return item.jump.longJump.Size()
}

// layout computes item offsets and block start offsets for the current
// jump encodings.
func (b *CodeBuffer) layout() (offsets []int, blockOffsets map[*lir.BasicBlock]int) {
	offsets = make([]int, len(b.items))
	blockOffsets = make(map[*lir.BasicBlock]int)
	offset := 0
	for i, item := range b.items {
		offsets[i] = offset
		if item.block != nil {
			blockOffsets[item.block] = offset
		}
		offset += b.itemSize(item)
	}
	return offsets, blockOffsets
}

// Finish chooses jump encodings, materializes bytes and hands everything
// to |builder|.
func (b *CodeBuffer) Finish(builder MachineCodeBuilder) {
	utils.Assert(!b.inBlock, "a block is still open")

	// Shrink jumps to fixpoint.
	changed := true
	for changed {
		changed = false
		offsets, blockOffsets := b.layout()
		for i, item := range b.items {
			jump := item.jump
			if jump == nil || jump.isShort {
				continue
			}
			target, ok := blockOffsets[jump.target]
			utils.Assert(ok, "%v was never started", jump.target)
			displacement := target - (offsets[i] + jump.shortJump.Size())
			if utils.Is8Bit(displacement) {
				jump.isShort = true
				changed = true
			}
		}
	}

	// Materialize.
	offsets, blockOffsets := b.layout()
	var bytes []byte
	for i, item := range b.items {
		if chunk := item.chunk; chunk != nil {
			base := len(bytes)
			bytes = append(bytes, chunk.bytes...)
			for _, callSite := range chunk.callSites {
				builder.SetCallSite(base+callSite.offset, callSite.callee)
			}
			for _, value := range chunk.values {
				builder.SetValue(base+value.offset, value.value)
			}
			continue
		}
		jump := item.jump
		encoding := jump.longJump
		if jump.isShort {
			encoding = jump.shortJump
		}
		displacement := blockOffsets[jump.target] - (offsets[i] + encoding.Size())
		for shift := (encoding.OpcodeSize - 1) * 8; shift >= 0; shift -= 8 {
			bytes = append(bytes, byte(encoding.Opcode>>shift))
		}
		switch encoding.OperandSize {
		case 1:
			utils.Assert(utils.Is8Bit(displacement),
				"short jump displacement %d out of range", displacement)
			bytes = append(bytes, byte(displacement))
		case 4:
			value := uint32(int32(displacement))
			bytes = append(bytes, byte(value), byte(value>>8), byte(value>>16),
				byte(value>>24))
		default:
			utils.ShouldNotReachHere()
		}
	}

	builder.EmitCode(bytes)
	builder.FinishCode()
}
