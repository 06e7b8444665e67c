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
// RegisterUsageTracker
// Answers next-use queries over the use-def lists, consulting the
// post-dominator tree so "after" means on every path to exit.

type RegisterUsageTracker struct {
	postDominatorTree *lir.DominatorTree
	useDefList        *lir.UseDefList
}

func NewRegisterUsageTracker(editor *lir.Editor) *RegisterUsageTracker {
	return &RegisterUsageTracker{
		postDominatorTree: editor.BuildPostDominatorTree(),
		useDefList:        lir.NewUseDefListBuilder(editor.Function()).Build(),
	}
}

func (t *RegisterUsageTracker) UsersOf(input lir.Value) []*lir.Instruction {
	return t.useDefList.UsersOf(input)
}

// IsUsedAfter reports whether |input| has a use after |instr|.
func (t *RegisterUsageTracker) IsUsedAfter(input lir.Value, instr *lir.Instruction) bool {
	utils.Assert(input.IsVirtual(), "%v is not a virtual register", input)
	block := instr.BasicBlock()
	for _, user := range t.useDefList.UsersOf(input) {
		if user.BasicBlock() == block {
			if user.Index() > instr.Index() {
				return true
			}
			continue
		}
		return true
	}
	return false
}

// NextUseAfter returns the nearest user of |input| after |instr|, or nil
// when the value is dead past |instr|. Users in other blocks count when
// they post-dominate the current block.
func (t *RegisterUsageTracker) NextUseAfter(input lir.Value, instr *lir.Instruction) *lir.Instruction {
	utils.Assert(input.IsVirtual(), "%v is not a virtual register", input)
	block := instr.BasicBlock()
	var candidate *lir.Instruction
	for _, user := range t.useDefList.UsersOf(input) {
		if user.BasicBlock() == block {
			if user.Index() <= instr.Index() {
				continue
			}
			if candidate == nil || candidate.BasicBlock() != block ||
				user.Index() < candidate.Index() {
				candidate = user
			}
			continue
		}
		if !t.postDominatorTree.Dominates(user.BasicBlock(), block) {
			continue
		}
		if candidate == nil {
			candidate = user
		}
	}
	return candidate
}
