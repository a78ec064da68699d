// Package codegen lowers an sm.Program to 32-bit x86 AT&T assembly text: a
// symbolic-stack abstract interpretation of the SM instruction set, plus
// the final assembly serialization.
package codegen

import (
	"sort"

	"github.com/lama-toolchain/lamac/pkg/loc"
)

// Env is the codegen-stage compilation environment: the symbolic operand
// stack that models where each live SM value currently lives, the spill
// high-water mark, the set of globals seen so far, the barrier flag and
// label→stack map used to reconcile joins, and the function currently being
// emitted. Mutated in place during a single lowering pass, following the
// same in-place discipline pkg/sm.Env uses (spec §9 permits replacing the
// source's closure-bundle environments with plain mutable records).
type Env struct {
	nRegs      int
	stack      []loc.Opnd
	stackSlots int
	globals    map[string]bool
	barrier    bool
	stackMap   map[string][]loc.Opnd
	curFunc    string
}

// NewEnv creates an environment that round-robins over nRegs hard registers
// before spilling to symbolic stack slots.
func NewEnv(nRegs int) *Env {
	return &Env{nRegs: nRegs, globals: make(map[string]bool), stackMap: make(map[string][]loc.Opnd)}
}

// Allocate chooses the next symbolic operand given the current top of
// stack, pushes it, and returns it. Registers are handed out in a fixed
// round-robin; once they run out, allocation spills onto symbolic stack
// slots starting at S(0).
//
// stackSlots is a --dump-env diagnostic only: BEGIN's real frame size comes
// from the SM instruction's own Locs field (see DESIGN.md decision #1), not
// from this high-water mark, so a function that spills while a call is
// live can have its spilled S(_) slots clobbered by the call's own pushes.
// Nothing in this compiler's frontend currently produces that combination,
// but a future caller-argument scheme that spills across a live CALL would
// need BEGIN's frame size widened to cover it.
//
// index/stackSlots follow spec.md §4.2 literally: index is 0 for a register
// and k+2 for stack top S(k), and stackSlots = max(stackSlots, index+1) —
// so the highest S(k) bumps stackSlots to k+3, not k+2. index itself is the
// intermediate quantity the spec names, not the slot count.
func (e *Env) Allocate() loc.Opnd {
	var chosen loc.Opnd
	if len(e.stack) == 0 {
		chosen = loc.R(0)
	} else {
		switch top := e.stack[len(e.stack)-1]; top.Kind {
		case loc.OpR:
			if top.Reg+1 < e.nRegs {
				chosen = loc.R(top.Reg + 1)
			} else {
				chosen = loc.S(0)
			}
		case loc.OpS:
			chosen = loc.S(top.Slot + 1)
		default:
			chosen = loc.S(0)
		}
	}
	index := 0
	if chosen.Kind == loc.OpS {
		index = chosen.Slot + 2
	}
	if index+1 > e.stackSlots {
		e.stackSlots = index + 1
	}
	e.Push(chosen)
	return chosen
}

// StackSlots reports the high-water mark of symbolic stack slots used by
// spilled temporaries, for diagnostic dumps.
func (e *Env) StackSlots() int { return e.stackSlots }

func (e *Env) Push(o loc.Opnd) { e.stack = append(e.stack, o) }

func (e *Env) Pop() loc.Opnd {
	n := len(e.stack) - 1
	o := e.stack[n]
	e.stack = e.stack[:n]
	return o
}

// Pop2 pops the top two operands, returning (x, y) in the order the SM
// binary operators pop: x is the top (rightmost operand), y is beneath it.
func (e *Env) Pop2() (x, y loc.Opnd) {
	x = e.Pop()
	y = e.Pop()
	return
}

func (e *Env) Peek() loc.Opnd { return e.stack[len(e.stack)-1] }

func (e *Env) AddGlobal(name string) { e.globals[name] = true }

// GetGlobals enumerates globals in sorted order, so assembly output is
// deterministic (spec §5's ordering guarantee).
func (e *Env) GetGlobals() []string {
	names := make([]string, 0, len(e.globals))
	for name := range e.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Loc materializes a location descriptor as an x86 operand.
func (e *Env) Loc(l loc.Loc) loc.Opnd {
	switch l.Kind {
	case loc.KindGlb:
		return loc.M(loc.MangleGlobal(l.Name))
	case loc.KindArg:
		return loc.S(-1 - l.Index)
	default:
		return loc.S(l.Index)
	}
}

func (e *Env) IsBarrier() bool { return e.barrier }
func (e *Env) SetBarrier()     { e.barrier = true }
func (e *Env) ClearBarrier()   { e.barrier = false }

// SetStack snapshots the current symbolic stack under label and clears the
// barrier: called at every jump, so the matching label knows what shape to
// restore.
func (e *Env) SetStack(label string) {
	snap := make([]loc.Opnd, len(e.stack))
	copy(snap, e.stack)
	e.stackMap[label] = snap
	e.barrier = false
}

// RetrieveStack replaces the current stack with the one recorded for
// label, or leaves the current stack untouched if none was recorded (the
// fallthrough case).
func (e *Env) RetrieveStack(label string) {
	if snap, ok := e.stackMap[label]; ok {
		e.stack = append([]loc.Opnd(nil), snap...)
	}
}

func (e *Env) EnterFunction(label string) {
	e.curFunc = label
	e.stack = nil
	e.barrier = false
}

func (e *Env) CurrentFunction() string { return e.curFunc }

// LiveRegisters returns the R(_) operands in the symbolic stack below the
// top depth items, in bottom-up order: the registers a CALL with depth
// argument slots must save across the call.
func (e *Env) LiveRegisters(depth int) []loc.Opnd {
	below := e.stack
	if depth < len(below) {
		below = below[:len(below)-depth]
	} else {
		below = nil
	}
	var regs []loc.Opnd
	for _, o := range below {
		if o.Kind == loc.OpR {
			regs = append(regs, o)
		}
	}
	return regs
}
