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
	"fmt"

	"elang/utils"
)

// -----------------------------------------------------------------------------
// Dominator tree
//
// General definitions:
// * a dom b if all paths from entry to block b include a
// * a sdom b if a dom b and a != b
// * a idom b if a sdom b and no c satisfies a sdom c sdom b
// * post dominators are dominators of the reversed graph from exit
//
// Computed with the iterative bit-set algorithm; O(n^2) worst case, which
// is fine for the block counts one function produces.

type DominatorTreeNode struct {
	block    *BasicBlock
	parent   *DominatorTreeNode
	children []*DominatorTreeNode
}

func (n *DominatorTreeNode) Block() *BasicBlock             { return n.block }
func (n *DominatorTreeNode) Parent() *DominatorTreeNode     { return n.parent }
func (n *DominatorTreeNode) Children() []*DominatorTreeNode { return n.children }

type DominatorTree struct {
	root  *DominatorTreeNode
	nodes map[*BasicBlock]*DominatorTreeNode
	// dominators[b] has bit i set when block id i dominates b.
	dominators map[*BasicBlock]*utils.BitMap
}

func (t *DominatorTree) Root() *DominatorTreeNode { return t.root }

func (t *DominatorTree) TreeNodeOf(block *BasicBlock) *DominatorTreeNode {
	node, ok := t.nodes[block]
	utils.Assert(ok, "%v has no dominator tree node", block)
	return node
}

// Dominates reports whether |a| dominates |b|.
func (t *DominatorTree) Dominates(a, b *BasicBlock) bool {
	doms, ok := t.dominators[b]
	if !ok {
		return false
	}
	return doms.IsSet(a.id)
}

func (t *DominatorTree) String() string {
	str := "== dom tree:\n"
	for block, doms := range t.dominators {
		str += fmt.Sprintf("%v:", block)
		doms.ForEach(func(id int) {
			str += fmt.Sprintf(" block%d", id)
		})
		str += "\n"
	}
	return str
}

func buildDominatorTree(function *Function, post bool) *DominatorTree {
	root := function.entryBlock
	if post {
		root = function.exitBlock
	}
	predsOf := func(block *BasicBlock) []*BasicBlock {
		if post {
			return block.successors
		}
		return block.predecessors
	}

	size := function.nextBlockId
	dominators := make(map[*BasicBlock]*utils.BitMap)
	all := utils.NewBitMap(size)
	for _, block := range function.blocks {
		all.Set(block.id)
	}
	for _, block := range function.blocks {
		if block == root {
			only := utils.NewBitMap(size)
			only.Set(block.id)
			dominators[block] = only
			continue
		}
		dominators[block] = all.Copy()
	}

	changed := true
	for changed {
		changed = false
		for _, block := range function.blocks {
			if block == root {
				continue
			}
			preds := predsOf(block)
			next := utils.NewBitMap(size)
			first := true
			for _, pred := range preds {
				if first {
					next.SetFrom(dominators[pred])
					first = false
					continue
				}
				next.Intersect(dominators[pred])
			}
			next.Set(block.id)
			if dominators[block].SetFrom(next) {
				changed = true
			}
		}
	}

	// Derive immediate dominators: the strict dominator which is itself
	// dominated by all other strict dominators.
	tree := &DominatorTree{
		nodes:      make(map[*BasicBlock]*DominatorTreeNode),
		dominators: dominators,
	}
	blockById := make(map[int]*BasicBlock)
	for _, block := range function.blocks {
		blockById[block.id] = block
		tree.nodes[block] = &DominatorTreeNode{block: block}
	}
	tree.root = tree.nodes[root]

	for _, block := range function.blocks {
		if block == root {
			continue
		}
		doms := dominators[block]
		var idom *BasicBlock
		doms.ForEach(func(id int) {
			if id == block.id {
				return
			}
			candidate := blockById[id]
			if candidate == nil {
				return
			}
			if idom == nil {
				idom = candidate
				return
			}
			// The immediate dominator is the strict dominator farthest
			// from the root, i.e. dominated by every other one.
			if dominators[candidate].IsSet(idom.id) {
				idom = candidate
			}
		})
		if idom == nil {
			// Unreachable from the root; keep it parentless.
			continue
		}
		node := tree.nodes[block]
		parent := tree.nodes[idom]
		node.parent = parent
		parent.children = append(parent.children, node)
	}
	return tree
}
