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
	"fmt"
	"strings"
	"testing"

	"elang/lir"
)

// testMachineCodeBuilder renders received bytes as hex dump lines; runs of
// identical full lines collapse into one summary line.
type testMachineCodeBuilder struct {
	bytes     []byte
	callSites []string
	values    []string
}

func (b *testMachineCodeBuilder) EmitCode(bytes []byte) {
	b.bytes = append(b.bytes, bytes...)
}

func (b *testMachineCodeBuilder) SetCallSite(offset int, callee string) {
	b.callSites = append(b.callSites, fmt.Sprintf("%04X %s", offset, callee))
}

func (b *testMachineCodeBuilder) SetValue(offset int, value lir.Value) {
	b.values = append(b.values, fmt.Sprintf("%04X %v", offset, value))
}

func (b *testMachineCodeBuilder) FinishCode() {}

func (b *testMachineCodeBuilder) GetResult() string {
	type row struct {
		offset  int
		bytes   []byte
		uniform bool
	}
	var rows []row
	for offset := 0; offset < len(b.bytes); offset += 16 {
		end := offset + 16
		if end > len(b.bytes) {
			end = len(b.bytes)
		}
		line := b.bytes[offset:end]
		uniform := len(line) == 16
		for _, value := range line {
			if value != line[0] {
				uniform = false
				break
			}
		}
		rows = append(rows, row{offset: offset, bytes: line, uniform: uniform})
	}

	var builder strings.Builder
	for i := 0; i < len(rows); i++ {
		r := rows[i]
		run := 0
		for i+run < len(rows) && rows[i+run].uniform &&
			rows[i+run].bytes[0] == r.bytes[0] {
			run++
		}
		if run >= 2 {
			fmt.Fprintf(&builder, "%04X ... 0x%02X x %d ...\n",
				r.offset, r.bytes[0], run*16)
			i += run - 1
			continue
		}
		fmt.Fprintf(&builder, "%04X", r.offset)
		for _, value := range r.bytes {
			fmt.Fprintf(&builder, " %02X", value)
		}
		builder.WriteString("\n")
	}
	return builder.String()
}

// Pseudo encodings used by the buffer tests; real encodings are exercised
// through the instruction handler.
const (
	testLongBranch  = 'B'
	testLongJump    = 'J'
	testNop         = 'N'
	testRet         = 'R'
	testShortBranch = 'b'
	testShortJump   = 's'
)

func testJumps() (longBranch, shortBranch, longJump, shortJump Jump) {
	return NewJump(testLongBranch, 2, 4),
		NewJump(testShortBranch, 1, 1),
		NewJump(testLongJump, 1, 4),
		NewJump(testShortJump, 1, 1)
}

func newBufferFixture() (editor *lir.Editor, buffer *CodeBuffer,
	block1, block2, block3 *lir.BasicBlock) {
	factory := lir.NewFactory()
	function := factory.NewFunction("sample")
	editor = lir.NewEditor(factory, function)
	block1 = editor.NewBasicBlock(editor.ExitBlock())
	block2 = editor.NewBasicBlock(editor.ExitBlock())
	block3 = editor.NewBasicBlock(editor.ExitBlock())
	return editor, NewCodeBuffer(function), block1, block2, block3
}

// entry:  jump block2
// block1: nop
// block2: br block1; jump block3
// block3: ret
func TestCodeBufferJumpBasic(t *testing.T) {
	editor, buffer, block1, block2, block3 := newBufferFixture()
	longBranch, shortBranch, longJump, shortJump := testJumps()

	buffer.StartBasicBlock(editor.EntryBlock())
	buffer.EmitJump(longJump, shortJump, block2)
	buffer.EndBasicBlock()

	buffer.StartBasicBlock(block1)
	buffer.Emit8(testNop)
	buffer.EndBasicBlock()

	buffer.StartBasicBlock(block2)
	buffer.EmitJump(longBranch, shortBranch, block1)
	buffer.EmitJump(longJump, shortJump, block3)
	buffer.EndBasicBlock()

	buffer.StartBasicBlock(block3)
	buffer.Emit8(testRet)
	buffer.EndBasicBlock()

	buffer.StartBasicBlock(editor.ExitBlock())
	buffer.EndBasicBlock()

	builder := &testMachineCodeBuilder{}
	buffer.Finish(builder)
	if got := builder.GetResult(); got != "0000 73 01 4E 62 FD 73 00 52\n" {
		t.Fatalf("Unexpected bytes:\n%s", got)
	}
}

// Same control flow, but 135 nops in block2 push the backward branch out
// of short range.
func TestCodeBufferJumpLong(t *testing.T) {
	editor, buffer, block1, block2, block3 := newBufferFixture()
	longBranch, shortBranch, longJump, shortJump := testJumps()

	buffer.StartBasicBlock(editor.EntryBlock())
	buffer.EmitJump(longJump, shortJump, block2)
	buffer.EndBasicBlock()

	buffer.StartBasicBlock(block1)
	buffer.Emit8(testNop)
	buffer.EndBasicBlock()

	buffer.StartBasicBlock(block2)
	for i := 0; i < 135; i++ {
		buffer.Emit8(testNop)
	}
	buffer.EmitJump(longBranch, shortBranch, block1)
	buffer.EmitJump(longJump, shortJump, block3)
	buffer.EndBasicBlock()

	buffer.StartBasicBlock(block3)
	buffer.Emit8(testRet)
	buffer.EndBasicBlock()

	buffer.StartBasicBlock(editor.ExitBlock())
	buffer.EndBasicBlock()

	builder := &testMachineCodeBuilder{}
	buffer.Finish(builder)
	want := "0000 73 01 4E 4E 4E 4E 4E 4E 4E 4E 4E 4E 4E 4E 4E 4E\n" +
		"0010 ... 0x4E x 112 ...\n" +
		"0080 4E 4E 4E 4E 4E 4E 4E 4E 4E 4E 00 42 72 FF FF FF\n" +
		"0090 73 00 52\n"
	if got := builder.GetResult(); got != want {
		t.Fatalf("Unexpected bytes:\n%s", got)
	}
}

func TestCodeBufferCallSiteOffsets(t *testing.T) {
	factory := lir.NewFactory()
	function := factory.NewFunction("sample")
	editor := lir.NewEditor(factory, function)
	buffer := NewCodeBuffer(function)

	buffer.StartBasicBlock(editor.EntryBlock())
	buffer.Emit8(0xE8)
	buffer.AssociateCallSite("callee")
	buffer.Emit32(0)
	buffer.EndBasicBlock()
	buffer.StartBasicBlock(editor.ExitBlock())
	buffer.EndBasicBlock()

	builder := &testMachineCodeBuilder{}
	buffer.Finish(builder)
	if len(builder.callSites) != 1 || builder.callSites[0] != "0001 callee" {
		t.Fatalf("Unexpected call sites %v", builder.callSites)
	}
}
