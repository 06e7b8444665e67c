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
// RegisterAllocator
// Walks the dominator tree with a linear per-block allocator backed by
// use-def lists and a next-use heuristic. Results go into a side table
// (RegisterAssignments); instructions are not touched until the rewriting
// pass.

type genKill struct {
	gen  *utils.BitMap
	kill *utils.BitMap
}

type liveInOut struct {
	in  *utils.BitMap
	out *utils.BitMap
}

type RegisterAllocator struct {
	editor           *lir.Editor
	assignments      *RegisterAssignments
	stackAssignments *StackAssignments
	usageTracker     *RegisterUsageTracker
	spillManager     *SpillManager
	stackAllocator   *StackAllocator

	genKillMap   map[*lir.BasicBlock]*genKill
	liveInOutMap map[*lir.BasicBlock]*liveInOut

	// Walk state: where each live vreg lives right now, plus the reverse
	// index over natural registers.
	current       map[lir.Value]lir.Value
	physicalInUse map[lir.Value]lir.Value
	// Vregs whose spill slot holds their current value.
	cleanSpill map[lir.Value]bool

	blockStartState map[*lir.BasicBlock]map[lir.Value]lir.Value
	blockEndState   map[*lir.BasicBlock]map[lir.Value]lir.Value

	generalRegisters []lir.Value
	floatRegisters   []lir.Value
}

func NewRegisterAllocator(editor *lir.Editor, assignments *RegisterAssignments,
	stackAssignments *StackAssignments) *RegisterAllocator {
	stackAllocator := NewStackAllocator(8)
	return &RegisterAllocator{
		editor:           editor,
		assignments:      assignments,
		stackAssignments: stackAssignments,
		usageTracker:     NewRegisterUsageTracker(editor),
		stackAllocator:   stackAllocator,
		spillManager: NewSpillManager(editor.Factory(), editor.Function(),
			assignments, stackAllocator),
		current:          make(map[lir.Value]lir.Value),
		physicalInUse:    make(map[lir.Value]lir.Value),
		cleanSpill:       make(map[lir.Value]bool),
		blockStartState:  make(map[*lir.BasicBlock]map[lir.Value]lir.Value),
		blockEndState:    make(map[*lir.BasicBlock]map[lir.Value]lir.Value),
		generalRegisters: lir.AllocatableGeneralRegisters(),
		floatRegisters:   lir.AllocatableFloatRegisters(),
	}
}

func (a *RegisterAllocator) Name() string { return "register_allocator" }

func (a *RegisterAllocator) SpillManager() *SpillManager { return a.spillManager }

func (a *RegisterAllocator) StackAllocator() *StackAllocator { return a.stackAllocator }

// StateAtStartOf exposes the location map at block entry; the phi expander
// reads it when expanding incoming edges.
func (a *RegisterAllocator) StateAtStartOf(block *lir.BasicBlock) map[lir.Value]lir.Value {
	return a.blockStartState[block]
}

// StateAtEndOf exposes the location map at block exit.
func (a *RegisterAllocator) StateAtEndOf(block *lir.BasicBlock) map[lir.Value]lir.Value {
	return a.blockEndState[block]
}

func (a *RegisterAllocator) LiveInOf(block *lir.BasicBlock) *utils.BitMap {
	return a.liveInOutMap[block].in
}

// Run performs allocation over the whole function.
func (a *RegisterAllocator) Run() {
	a.computeGenKillMap()
	a.computeLiveInOutMap()
	a.countParameters()
	domTree := a.editor.ComputeDominatorTree()
	a.processTree(domTree.TreeNodeOf(a.editor.Function().EntryBlock()))
}

// -----------------------------------------------------------------------------
// Liveness
// Backward bit-vector analysis in the classic gen/kill formulation:
//   LiveIn{b}  = Gen{b} U (LiveOut{b} - Kill{b})
//   LiveOut{b} = U LiveIn{s} U phi inputs flowing from b
// Phi outputs are kills of the phi block; phi inputs are live-out of the
// predecessor that supplies them.

func (a *RegisterAllocator) computeGenKillMap() {
	function := a.editor.Function()
	nofVR := function.VRegCount()
	m := make(map[*lir.BasicBlock]*genKill)
	for _, block := range function.BasicBlocks() {
		gk := &genKill{
			gen:  utils.NewBitMap(nofVR),
			kill: utils.NewBitMap(nofVR),
		}
		m[block] = gk
		for _, instr := range block.Instructions() {
			if instr.IsPhi() {
				gk.kill.Set(int(instr.Output(0).Data))
				continue
			}
			for _, input := range instr.Inputs() {
				if input.IsVirtual() && !gk.kill.IsSet(int(input.Data)) {
					gk.gen.Set(int(input.Data))
				}
			}
			for _, output := range instr.Outputs() {
				if output.IsVirtual() {
					gk.kill.Set(int(output.Data))
				}
			}
		}
	}
	a.genKillMap = m
}

func (a *RegisterAllocator) computeLiveInOutMap() {
	function := a.editor.Function()
	nofVR := function.VRegCount()
	m := make(map[*lir.BasicBlock]*liveInOut)
	for _, block := range function.BasicBlocks() {
		m[block] = &liveInOut{
			in:  utils.NewBitMap(nofVR),
			out: utils.NewBitMap(nofVR),
		}
	}
	blocks := function.BasicBlocks()
	changed := true
	for changed {
		changed = false
		for i := len(blocks) - 1; i >= 0; i-- {
			block := blocks[i]
			lio := m[block]
			for _, succ := range block.Successors() {
				if lio.out.Unite(m[succ].in) {
					changed = true
				}
				for _, phi := range succ.PhiInstructions() {
					input := phi.PhiInputOf(block)
					if input.IsVirtual() && !lio.out.IsSet(int(input.Data)) {
						lio.out.Set(int(input.Data))
						changed = true
					}
				}
			}
			in := lio.out.Copy()
			in.Remove(a.genKillMap[block].kill)
			in.Unite(a.genKillMap[block].gen)
			if lio.in.SetFrom(in) {
				changed = true
			}
		}
	}
	a.liveInOutMap = m
}

func (a *RegisterAllocator) countParameters() {
	for _, block := range a.editor.Function().BasicBlocks() {
		for _, instr := range block.Instructions() {
			for _, input := range instr.Inputs() {
				if input.IsParameter() &&
					int(input.Data)+1 > a.stackAssignments.numberOfParameters {
					a.stackAssignments.numberOfParameters = int(input.Data) + 1
				}
				if input.IsArgument() &&
					int(input.Data)+1 > a.stackAssignments.maximumArgc {
					a.stackAssignments.maximumArgc = int(input.Data) + 1
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Walk

func copyState(state map[lir.Value]lir.Value) map[lir.Value]lir.Value {
	copied := make(map[lir.Value]lir.Value, len(state))
	for vreg, location := range state {
		copied[vreg] = location
	}
	return copied
}

func (a *RegisterAllocator) processTree(node *lir.DominatorTreeNode) {
	block := node.Block()
	savedCurrent := copyState(a.current)
	savedInUse := copyState(a.physicalInUse)
	savedClean := make(map[lir.Value]bool, len(a.cleanSpill))
	for vreg, clean := range a.cleanSpill {
		savedClean[vreg] = clean
	}

	a.processBlock(block)
	for _, child := range node.Children() {
		a.processTree(child)
		a.current = copyState(a.blockEndState[block])
		a.rebuildPhysicalInUse()
	}

	a.current = savedCurrent
	a.physicalInUse = savedInUse
	a.cleanSpill = savedClean
}

func (a *RegisterAllocator) rebuildPhysicalInUse() {
	a.physicalInUse = make(map[lir.Value]lir.Value)
	for vreg, location := range a.current {
		if location.IsPhysical() {
			a.physicalInUse[lir.NaturalRegisterOf(location)] = vreg
		}
	}
}

func (a *RegisterAllocator) processBlock(block *lir.BasicBlock) {
	// Drop vregs that are dead on entry; their registers are free here.
	liveIn := a.liveInOutMap[block].in
	for vreg := range a.current {
		if !liveIn.IsSet(int(vreg.Data)) {
			delete(a.current, vreg)
		}
	}
	a.rebuildPhysicalInUse()

	a.allocatePhis(block)
	a.blockStartState[block] = copyState(a.current)

	for _, instr := range block.Instructions() {
		if instr.IsPhi() {
			continue
		}
		for position, input := range instr.Inputs() {
			a.processInputOperand(instr, input, position)
		}
		if instr.Opcode() == lir.OpCall {
			a.willCall(instr)
		}
		for _, output := range instr.Outputs() {
			a.processOutputOperand(instr, output)
		}
		a.freeDeadInputs(block, instr)
	}

	// Keep only what flows out of the block.
	liveOut := a.liveInOutMap[block].out
	endState := make(map[lir.Value]lir.Value)
	for vreg, location := range a.current {
		if liveOut.IsSet(int(vreg.Data)) {
			endState[vreg] = location
		}
	}
	a.blockEndState[block] = endState
	a.current = copyState(endState)
	a.rebuildPhysicalInUse()
}

// allocatePhis gives every phi output of |block| a register before the
// block body runs; the incoming copies produced by phi expansion target
// these locations.
func (a *RegisterAllocator) allocatePhis(block *lir.BasicBlock) {
	for _, phi := range block.PhiInstructions() {
		output := phi.Output(0)
		utils.Assert(output.IsVirtual(), "phi must define a virtual register")
		physical := a.tryAllocate(output)
		if physical.IsInvalid() {
			physical = a.spillFor(phi, output, nil)
		}
		a.assignments.SetAllocation(phi, output, physical)
		a.setLocation(output, physical)
		a.cleanSpill[output] = false
	}
}

func (a *RegisterAllocator) setLocation(vreg, location lir.Value) {
	if old, ok := a.current[vreg]; ok && old.IsPhysical() {
		delete(a.physicalInUse, lir.NaturalRegisterOf(old))
	}
	a.current[vreg] = location
	if location.IsPhysical() {
		a.physicalInUse[lir.NaturalRegisterOf(location)] = vreg
	}
}

func (a *RegisterAllocator) allocatableRegistersFor(value lir.Value) []lir.Value {
	if value.IsFloat() {
		return a.floatRegisters
	}
	return a.generalRegisters
}

// tryAllocate hands out a free register of the right bank, or the invalid
// value when none is free.
func (a *RegisterAllocator) tryAllocate(output lir.Value) lir.Value {
	for _, candidate := range a.allocatableRegistersFor(output) {
		natural := lir.NaturalRegisterOf(candidate)
		if _, used := a.physicalInUse[natural]; used {
			continue
		}
		return lir.AdjustRegisterSize(lir.TypeOf(output), candidate)
	}
	return lir.Value{}
}

// chooseRegisterToSpill picks the victim whose next use is farthest away,
// preferring one whose spill slot already holds its value so no store is
// needed. Vregs in |excluded| are pinned by the current instruction.
func (a *RegisterAllocator) chooseRegisterToSpill(t lir.Value, instr *lir.Instruction,
	excluded map[lir.Value]bool) lir.Value {
	var victim lir.Value
	victimNextUse := -1
	victimClean := false
	for vreg, location := range a.current {
		if !location.IsPhysical() || location.Type != t.Type {
			continue
		}
		if excluded[vreg] {
			continue
		}
		nextUse := 1 << 30
		if user := a.usageTracker.NextUseAfter(vreg, instr); user != nil {
			nextUse = user.Id()
		}
		clean := a.cleanSpill[vreg] && a.assignments.SpillSlotFor(vreg).IsStackSlot()
		if nextUse > victimNextUse || (nextUse == victimNextUse && clean && !victimClean) {
			victim = vreg
			victimNextUse = nextUse
			victimClean = clean
		}
	}
	utils.Assert(victim.IsVirtual(), "no spillable register of type %v at %v", t, instr)
	return victim
}

// spill evicts |vreg| to its slot, emitting the store before |instr|
// unless the slot already holds the value.
func (a *RegisterAllocator) spill(vreg lir.Value, instr *lir.Instruction) {
	location := a.current[vreg]
	utils.Assert(location.IsPhysical(), "%v is not in a register", vreg)
	slot := a.spillManager.EnsureSpillSlot(vreg)
	if !a.cleanSpill[vreg] {
		a.assignments.InsertBefore(a.spillManager.NewSpill(vreg, location), instr)
		a.cleanSpill[vreg] = true
	}
	a.setLocation(vreg, slot)
}

// spillFor frees a register of type |t| by spilling the best victim and
// returns the freed register resized for |output|.
func (a *RegisterAllocator) spillFor(instr *lir.Instruction, output lir.Value,
	excluded map[lir.Value]bool) lir.Value {
	victim := a.chooseRegisterToSpill(lir.TypeOf(output), instr, excluded)
	physical := a.current[victim]
	a.spill(victim, instr)
	return lir.AdjustRegisterSize(lir.TypeOf(output), physical)
}

// processInputOperand makes sure a virtual input sits in a register and
// records the assignment.
func (a *RegisterAllocator) processInputOperand(instr *lir.Instruction, input lir.Value,
	position int) {
	utils.Assert(position >= 0, "bad input position")
	if !input.IsVirtual() {
		return
	}
	location, ok := a.current[input]
	utils.Assert(ok, "%v is not live at %v", input, instr)
	if location.IsPhysical() {
		a.assignments.SetAllocation(instr, input, location)
		return
	}
	// Reload from the spill slot, keeping other inputs of this
	// instruction pinned.
	utils.Assert(location.IsStackSlot(), "%v has no location at %v", input, instr)
	physical := a.tryAllocate(input)
	if physical.IsInvalid() {
		physical = a.spillFor(instr, input, a.pinnedInputs(instr))
	}
	a.assignments.InsertBefore(a.spillManager.NewReload(physical, input), instr)
	a.setLocation(input, physical)
	a.cleanSpill[input] = true
	a.assignments.SetAllocation(instr, input, physical)
}

func (a *RegisterAllocator) pinnedInputs(instr *lir.Instruction) map[lir.Value]bool {
	pinned := make(map[lir.Value]bool)
	for _, input := range instr.Inputs() {
		if input.IsVirtual() {
			pinned[input] = true
		}
	}
	return pinned
}

// isLiveAfter reports whether |vreg| is still needed past |instr|: either
// it flows out of the block or a later instruction of the block reads it.
func (a *RegisterAllocator) isLiveAfter(block *lir.BasicBlock, instr *lir.Instruction,
	vreg lir.Value) bool {
	if a.liveInOutMap[block].out.IsSet(int(vreg.Data)) {
		return true
	}
	for _, user := range a.usageTracker.UsersOf(vreg) {
		if user.BasicBlock() == block && user.Index() > instr.Index() {
			return true
		}
	}
	return false
}

// willCall spills every caller-saved register whose vreg lives across the
// call.
func (a *RegisterAllocator) willCall(instr *lir.Instruction) {
	a.stackAssignments.didCall()
	block := instr.BasicBlock()
	var victims []lir.Value
	for natural, vreg := range a.physicalInUse {
		if !lir.IsCallerSavedRegister(natural) {
			continue
		}
		if !a.isLiveAfter(block, instr, vreg) {
			continue
		}
		victims = append(victims, vreg)
	}
	for _, vreg := range victims {
		a.spill(vreg, instr)
	}
}

// processOutputOperand allocates the defining register of an output.
// Physical outputs evict whatever occupies them; virtual outputs re-use
// their existing register in the destructive two-address form.
func (a *RegisterAllocator) processOutputOperand(instr *lir.Instruction, output lir.Value) {
	if output.IsPhysical() {
		a.mustAllocate(instr, output)
		return
	}
	if !output.IsVirtual() {
		return
	}
	if location, ok := a.current[output]; ok && location.IsPhysical() {
		// Destructive form: the output was placed when the preceding
		// copy defined it.
		a.assignments.SetAllocation(instr, output, location)
		a.cleanSpill[output] = false
		return
	}
	physical := a.tryAllocate(output)
	if physical.IsInvalid() {
		physical = a.spillFor(instr, output, a.pinnedInputs(instr))
	}
	if lir.IsCalleeSavedRegister(physical) {
		a.stackAssignments.preserve(physical)
	}
	a.assignments.SetAllocation(instr, output, physical)
	a.setLocation(output, physical)
	a.cleanSpill[output] = false
}

// mustAllocate gives a fixed physical output its register, spilling any
// conflicting vreg immediately. A conflicting value that is dead past
// |instr| is simply dropped.
func (a *RegisterAllocator) mustAllocate(instr *lir.Instruction, physical lir.Value) {
	natural := lir.NaturalRegisterOf(physical)
	if vreg, used := a.physicalInUse[natural]; used {
		if a.isLiveAfter(instr.BasicBlock(), instr, vreg) {
			a.spill(vreg, instr)
		} else {
			delete(a.physicalInUse, natural)
			delete(a.current, vreg)
			delete(a.cleanSpill, vreg)
		}
	}
	if lir.IsCalleeSavedRegister(physical) {
		a.stackAssignments.preserve(physical)
	}
}

// freeDeadInputs releases registers of inputs not used past |instr|.
func (a *RegisterAllocator) freeDeadInputs(block *lir.BasicBlock, instr *lir.Instruction) {
	for _, input := range instr.Inputs() {
		if !input.IsVirtual() {
			continue
		}
		if a.isLiveAfter(block, instr, input) {
			continue
		}
		if location, ok := a.current[input]; ok {
			if location.IsPhysical() {
				delete(a.physicalInUse, lir.NaturalRegisterOf(location))
			}
			delete(a.current, input)
			delete(a.cleanSpill, input)
		}
	}
}
