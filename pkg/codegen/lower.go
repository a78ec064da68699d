package codegen

import (
	"fmt"

	"github.com/lama-toolchain/lamac/pkg/loc"
	"github.com/lama-toolchain/lamac/pkg/sm"
	"github.com/lama-toolchain/lamac/pkg/util"
)

var arithOp = map[sm.BinOp]string{sm.Add: "add", sm.Sub: "sub", sm.Mul: "imul"}

var cmpSuffix = map[sm.BinOp]string{
	sm.Lt: "l", sm.Lte: "le", sm.Eq: "e", sm.Neq: "ne", sm.Gt: "g", sm.Gte: "ge",
}

var jccSuffix = map[sm.Cond]string{sm.Zero: "e", sm.Nonzero: "ne"}

// Lower drives a left fold over prog, emitting one line of assembly text
// per line of output (already tab-indented for instructions, flush left
// for labels), and returns the environment it accumulated so the caller
// can query the discovered globals.
func Lower(prog sm.Program, nRegs int) ([]string, *Env) {
	env := NewEnv(nRegs)
	var out []string
	for _, insn := range prog {
		lowerInsn(env, insn, &out)
	}
	return out, env
}

func emit(out *[]string, format string, args ...interface{}) {
	*out = append(*out, "\t"+fmt.Sprintf(format, args...))
}

func emitLabel(out *[]string, label string) {
	*out = append(*out, label+":")
}

func move(out *[]string, from, to loc.Opnd) {
	if from.IsMemory() && to.IsMemory() {
		emit(out, "mov %s,%%eax", from)
		emit(out, "mov %%eax,%s", to)
		return
	}
	emit(out, "mov %s,%s", from, to)
}

// normalizeBool reduces v to 0/1 in %eax via a self-test-and-set idiom, the
// x86 equivalent of "or v,v; setne %al".
func normalizeBool(out *[]string, v loc.Opnd) {
	emit(out, "mov %s,%%eax", v)
	emit(out, "or %%eax,%%eax")
	emit(out, "setne %%al")
	emit(out, "movzbl %%al,%%eax")
}

func lowerInsn(env *Env, insn sm.Insn, out *[]string) {
	if insn.Kind != sm.Global {
		*out = append(*out, "\t# "+insn.String())
	}

	switch insn.Kind {
	case sm.Binop:
		lowerBinop(env, insn, out)

	case sm.Const:
		s := env.Allocate()
		emit(out, "mov $%d,%s", insn.N, s)

	case sm.Ld:
		s := env.Allocate()
		move(out, env.Loc(insn.Loc), s)

	case sm.Lda:
		s := env.Allocate()
		emit(out, "lea %s,%%eax", env.Loc(insn.Loc))
		emit(out, "mov %%eax,%s", s)

	case sm.St:
		move(out, env.Peek(), env.Loc(insn.Loc))

	case sm.Sti:
		x, y := env.Pop2()
		emit(out, "mov %s,%%eax", x)
		emit(out, "mov %s,%%edx", y)
		emit(out, "mov %%eax,(%%edx)")
		emit(out, "mov %%eax,%s", y)
		env.Push(y)

	case sm.Drop:
		env.Pop()

	case sm.Dup:
		top := env.Peek()
		s := env.Allocate()
		move(out, top, s)

	case sm.Read:
		s := env.Allocate()
		emit(out, "call Lread")
		emit(out, "mov %%eax,%s", s)

	case sm.Write:
		s := env.Pop()
		emit(out, "push %s", s)
		emit(out, "call Lwrite")
		emit(out, "pop %%eax")

	case sm.Label:
		if env.IsBarrier() {
			env.RetrieveStack(insn.L)
			env.ClearBarrier()
		}
		emitLabel(out, insn.L)

	case sm.Jmp:
		env.SetStack(insn.L)
		env.SetBarrier()
		emit(out, "jmp %s", insn.L)

	case sm.Cjmp:
		s := env.Pop()
		env.SetStack(insn.L)
		emit(out, "cmpl $0,%s", s)
		emit(out, "j%s %s", jccSuffix[insn.Cond], insn.L)

	case sm.Begin:
		env.EnterFunction(insn.L)
		emit(out, "push %%ebp")
		emit(out, "mov %%esp,%%ebp")
		if insn.Locs > 0 {
			emit(out, "sub $%d,%%esp", 4*insn.Locs)
		}

	case sm.End:
		if env.CurrentFunction() == "main" {
			emit(out, "mov %%ebp,%%esp")
			emit(out, "pop %%ebp")
			emit(out, "xor %%eax,%%eax")
			emit(out, "ret")
		} else {
			y := env.Pop()
			emit(out, "mov %%ebp,%%esp")
			emit(out, "pop %%ebp")
			emit(out, "mov %s,%%eax", y)
			emit(out, "ret")
		}

	case sm.Call:
		lowerCall(env, insn, out)

	case sm.Global:
		env.AddGlobal(insn.Name)

	default:
		util.Fatal("codegeneration for SM instruction %s is not yet implemented", insn.String())
	}
}

func lowerBinop(env *Env, insn sm.Insn, out *[]string) {
	switch insn.Op {
	case sm.Add, sm.Sub, sm.Mul:
		x, y := env.Pop2()
		emit(out, "mov %s,%%eax", y)
		emit(out, "%s %s,%%eax", arithOp[insn.Op], x)
		emit(out, "mov %%eax,%s", y)
		env.Push(y)

	case sm.Div, sm.Mod:
		x, y := env.Pop2()
		emit(out, "mov %s,%%eax", y)
		emit(out, "cltd")
		emit(out, "idivl %s", x)
		if insn.Op == sm.Div {
			emit(out, "mov %%eax,%s", y)
		} else {
			emit(out, "mov %%edx,%s", y)
		}
		env.Push(y)

	case sm.Lt, sm.Lte, sm.Eq, sm.Neq, sm.Gt, sm.Gte:
		x, y := env.Pop2()
		emit(out, "mov %s,%%edx", y)
		emit(out, "xor %%eax,%%eax")
		emit(out, "cmpl %s,%%edx", x)
		emit(out, "set%s %%al", cmpSuffix[insn.Op])
		emit(out, "mov %%eax,%s", y)
		env.Push(y)

	case sm.And, sm.Or:
		x, y := env.Pop2()
		normalizeBool(out, x)
		emit(out, "mov %%eax,%%edx")
		normalizeBool(out, y)
		combine := "and"
		if insn.Op == sm.Or {
			combine = "or"
		}
		emit(out, "%s %%edx,%%eax", combine)
		emit(out, "setne %%al")
		emit(out, "movzbl %%al,%%eax")
		emit(out, "mov %%eax,%s", y)
		env.Push(y)

	default:
		util.Fatal("codegeneration for binary operator %s is not yet implemented", insn.Op)
	}
}

// lowerCall saves registers live across the call, pushes arguments in
// reverse (rightmost-first) order so the leftmost ends up at the lowest
// address, invokes f, tears down the caller-cleaned argument area, restores
// the saved registers, and allocates a slot for the returned value.
//
// push decrements %esp, so whichever operand is pushed first lands at the
// highest address. The callee reads Arg(0) (the leftmost declared
// parameter) from 8(%ebp), the lowest argument address, so the leftmost
// argument must be pushed LAST.
func lowerCall(env *Env, insn sm.Insn, out *[]string) {
	live := env.LiveRegisters(insn.Args)

	popped := make([]loc.Opnd, insn.Args) // popped[0] = rightmost source argument
	for i := 0; i < insn.Args; i++ {
		popped[i] = env.Pop()
	}

	for _, r := range live {
		emit(out, "push %s", r)
	}
	for i := 0; i < insn.Args; i++ { // rightmost source argument pushed first
		emit(out, "push %s", popped[i])
	}

	emit(out, "call %s", insn.L)
	if insn.Args > 0 {
		emit(out, "add $%d,%%esp", 4*insn.Args)
	}
	for i := len(live) - 1; i >= 0; i-- {
		emit(out, "pop %s", live[i])
	}

	s := env.Allocate()
	emit(out, "mov %%eax,%s", s)
}
