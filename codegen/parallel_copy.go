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
// ParallelCopyExpander
// Sequences a set of simultaneous copies without destroying inputs that
// are still needed. Ready copies (destination not read by a pending task)
// go first; remaining cycles are broken through a scratch register.
// Memory-to-memory moves also consume a scratch. Expansion fails by
// returning nil when a scratch is required but none is available; the
// caller frees one and retries.

type copyTask struct {
	dst lir.Value
	src lir.Value
}

type ParallelCopyExpander struct {
	factory *lir.Factory
	typ     lir.Value

	tasks     []copyTask
	scratches []lir.Value
}

func NewParallelCopyExpander(factory *lir.Factory, typ lir.Value) *ParallelCopyExpander {
	return &ParallelCopyExpander{factory: factory, typ: typ}
}

func (x *ParallelCopyExpander) HasTasks() bool { return len(x.tasks) > 0 }

// AddTask queues the copy dst <- src; same-location copies are dropped.
func (x *ParallelCopyExpander) AddTask(dst, src lir.Value) {
	if dst == src {
		return
	}
	utils.Assert(!dst.IsVirtual() && !src.IsVirtual(),
		"parallel copies run on concrete locations: %v <- %v", dst, src)
	x.tasks = append(x.tasks, copyTask{dst: dst, src: src})
}

// AddScratch offers a physical register free on this edge.
func (x *ParallelCopyExpander) AddScratch(scratch lir.Value) {
	utils.Assert(scratch.IsPhysical(), "%v is not physical", scratch)
	x.scratches = append(x.scratches, scratch)
}

func (x *ParallelCopyExpander) takeScratch() lir.Value {
	if len(x.scratches) == 0 {
		return lir.Value{}
	}
	scratch := x.scratches[len(x.scratches)-1]
	x.scratches = x.scratches[:len(x.scratches)-1]
	return lir.AdjustRegisterSize(x.typ, scratch)
}

func isBlockedBy(dst lir.Value, tasks []copyTask) bool {
	for _, task := range tasks {
		if task.src == dst {
			return true
		}
	}
	return false
}

// needsScratch reports whether dst <- src cannot be one machine copy.
func needsScratch(dst, src lir.Value) bool {
	return dst.IsMemorySlot() && src.IsMemorySlot()
}

// Expand returns the sequenced copies, or nil when a scratch register was
// required but not available. The task list is left untouched on failure
// so the caller can retry with more scratches.
func (x *ParallelCopyExpander) Expand() []*lir.Instruction {
	pending := append([]copyTask(nil), x.tasks...)
	scratches := append([]lir.Value(nil), x.scratches...)
	var instructions []*lir.Instruction

	emit := func(dst, src lir.Value) bool {
		if needsScratch(dst, src) {
			if len(scratches) == 0 {
				return false
			}
			scratch := lir.AdjustRegisterSize(x.typ, scratches[len(scratches)-1])
			instructions = append(instructions, x.factory.NewCopy(scratch, src))
			instructions = append(instructions, x.factory.NewCopy(dst, scratch))
			return true
		}
		instructions = append(instructions, x.factory.NewCopy(dst, src))
		return true
	}

	for len(pending) > 0 {
		progressed := false
		for i := 0; i < len(pending); i++ {
			task := pending[i]
			if isBlockedBy(task.dst, pending) {
				continue
			}
			if !emit(task.dst, task.src) {
				return nil
			}
			pending = append(pending[:i], pending[i+1:]...)
			i--
			progressed = true
		}
		if progressed {
			continue
		}
		// Only cycles remain. Break one by parking a source in a scratch
		// and redirecting its readers.
		if len(scratches) == 0 {
			return nil
		}
		scratch := lir.AdjustRegisterSize(x.typ, scratches[len(scratches)-1])
		scratches = scratches[:len(scratches)-1]
		// In a cycle every destination is also a pending source; park the
		// first destination and redirect its readers.
		victim := pending[0].dst
		instructions = append(instructions, x.factory.NewCopy(scratch, victim))
		for i := range pending {
			if pending[i].src == victim {
				pending[i].src = scratch
			}
		}
	}
	return instructions
}
