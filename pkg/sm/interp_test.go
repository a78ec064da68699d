package sm

import "github.com/lama-toolchain/lamac/pkg/loc"

// This file is test-only scaffolding: a minimal interpreter over the SM
// instruction set, used exclusively to run the output of Compile in the
// scenario tests of lower_test.go and compare what it writes against each
// test's expected values. There is no direct AST evaluator to compare with.
// It is never imported by non-test code: the SM interpreter is not a
// shipped component.

type vmFrame struct {
	args   []int
	locals []int
}

type vmAddr struct {
	frame *vmFrame
	kind  loc.Kind
	idx   int
	name  string
}

type vmStack []interface{}

func (s *vmStack) push(v interface{}) { *s = append(*s, v) }

func (s *vmStack) pop() interface{} {
	n := len(*s)
	v := (*s)[n-1]
	*s = (*s)[:n-1]
	return v
}

func (s *vmStack) popInt() int { return s.pop().(int) }

func (s *vmStack) peekInt() int { return (*s)[len(*s)-1].(int) }

func vmReadLoc(l loc.Loc, f *vmFrame, globals map[string]int) int {
	switch l.Kind {
	case loc.KindArg:
		return f.args[l.Index]
	case loc.KindLocal:
		return f.locals[l.Index]
	default:
		return globals[l.Name]
	}
}

func vmWriteLoc(l loc.Loc, f *vmFrame, globals map[string]int, v int) {
	switch l.Kind {
	case loc.KindArg:
		f.args[l.Index] = v
	case loc.KindLocal:
		f.locals[l.Index] = v
	default:
		globals[l.Name] = v
	}
}

func vmWriteAddr(a vmAddr, globals map[string]int, v int) {
	switch a.kind {
	case loc.KindArg:
		a.frame.args[a.idx] = v
	case loc.KindLocal:
		a.frame.locals[a.idx] = v
	default:
		globals[a.name] = v
	}
}

func vmEvalBinop(op BinOp, l, r int) int {
	b := func(cond bool) int {
		if cond {
			return 1
		}
		return 0
	}
	switch op {
	case Add:
		return l + r
	case Sub:
		return l - r
	case Mul:
		return l * r
	case Div:
		return l / r
	case Mod:
		return l % r
	case Lt:
		return b(l < r)
	case Lte:
		return b(l <= r)
	case Eq:
		return b(l == r)
	case Neq:
		return b(l != r)
	case Gt:
		return b(l > r)
	case Gte:
		return b(l >= r)
	case And:
		return b(l != 0 && r != 0)
	case Or:
		return b(l != 0 || r != 0)
	}
	panic("interp: unknown binop " + string(op))
}

// interpret executes prog against stdin, returning everything written by
// WRITE instructions. It halts when main's END executes.
func interpret(prog Program, stdin []int) []int {
	labelIndex := make(map[string]int)
	beginIndex := make(map[string]int)
	for i, insn := range prog {
		switch insn.Kind {
		case Label:
			labelIndex[insn.L] = i
		case Begin:
			beginIndex[insn.L] = i
		}
	}

	type callInfo struct {
		returnIP  int
		frame     *vmFrame
		funcLabel string
	}

	var values vmStack
	var calls []callInfo
	globals := make(map[string]int)
	var stdout []int
	stdinPos := 0

	frame := &vmFrame{}
	funcLabel := "main"
	ip := beginIndex["main"]

	for ip < len(prog) {
		insn := prog[ip]
		switch insn.Kind {
		case Begin:
			frame.locals = make([]int, insn.Locs)
			ip++
		case End:
			if funcLabel == "main" {
				ip = len(prog)
				continue
			}
			y := values.popInt()
			top := calls[len(calls)-1]
			calls = calls[:len(calls)-1]
			ip, frame, funcLabel = top.returnIP, top.frame, top.funcLabel
			values.push(y)
		case Label:
			ip++
		case Const:
			values.push(insn.N)
			ip++
		case Ld:
			values.push(vmReadLoc(insn.Loc, frame, globals))
			ip++
		case Lda:
			values.push(vmAddr{frame: frame, kind: insn.Loc.Kind, idx: insn.Loc.Index, name: insn.Loc.Name})
			ip++
		case St:
			vmWriteLoc(insn.Loc, frame, globals, values.peekInt())
			ip++
		case Sti:
			x := values.popInt()
			y := values.pop().(vmAddr)
			vmWriteAddr(y, globals, x)
			values.push(x)
			ip++
		case Drop:
			values.pop()
			ip++
		case Dup:
			values.push(values.peekInt())
			ip++
		case Global:
			if _, ok := globals[insn.Name]; !ok {
				globals[insn.Name] = 0
			}
			ip++
		case Jmp:
			ip = labelIndex[insn.L]
		case Cjmp:
			v := values.popInt()
			switch insn.Cond {
			case Zero:
				if v == 0 {
					ip = labelIndex[insn.L]
					continue
				}
			case Nonzero:
				if v != 0 {
					ip = labelIndex[insn.L]
					continue
				}
			}
			ip++
		case Call:
			args := make([]int, insn.Args)
			for i := insn.Args - 1; i >= 0; i-- {
				args[i] = values.popInt()
			}
			calls = append(calls, callInfo{returnIP: ip + 1, frame: frame, funcLabel: funcLabel})
			frame = &vmFrame{args: args}
			funcLabel = insn.L
			ip = beginIndex[insn.L]
		case Read:
			values.push(stdin[stdinPos])
			stdinPos++
			ip++
		case Write:
			stdout = append(stdout, values.popInt())
			ip++
		case Binop:
			r := values.popInt()
			l := values.popInt()
			values.push(vmEvalBinop(insn.Op, l, r))
			ip++
		default:
			panic("interp: unhandled instruction " + insn.String())
		}
	}
	return stdout
}
