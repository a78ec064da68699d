package sm

import (
	"github.com/lama-toolchain/lamac/pkg/ast"
	"github.com/lama-toolchain/lamac/pkg/token"
	"github.com/lama-toolchain/lamac/pkg/util"
)

var binOpTable = map[token.Type]BinOp{
	token.Plus: Add, token.Minus: Sub, token.Star: Mul, token.Slash: Div, token.Rem: Mod,
	token.Lt: Lt, token.Lte: Lte, token.Eq: Eq, token.Neq: Neq, token.Gt: Gt, token.Gte: Gte,
	token.AndAnd: And, token.OrOr: Or,
}

// Compile lowers a whole program: the top-level Scope becomes main, and the
// pending-function queue it seeds is drained to a fixed point, since a
// function body may itself declare further nested functions.
func Compile(program *ast.Node) Program {
	env := NewEnv()

	body := lowerExpr(env, program)
	mainLocals := env.nLocals

	out := Program{NewLabel("main"), NewBegin("main", 0, mainLocals)}
	out = append(out, body...)
	out = append(out, NewEnd())

	for {
		funs := env.getFuns()
		if len(funs) == 0 {
			break
		}
		for _, pf := range funs {
			env.beginFun(pf.State)
			for _, a := range pf.Args {
				env.addArg(a)
			}
			fbody := lowerExpr(env, pf.Body)
			out = append(out, NewLabel(pf.Label))
			out = append(out, NewBegin(pf.Label, len(pf.Args), env.nLocals))
			out = append(out, fbody...)
			out = append(out, NewEnd())
		}
	}

	return out
}

// lowerVoid lowers node and drops its value if it produces one, so the
// result is always net-zero on the symbolic stack. Used for loop bodies:
// a while/repeat body is a scope whose tail statement is not wrapped in
// Ignore by sequence() (it's in tail position), so without this a while
// loop's entry jump (JMP Lcond, recording the stack as it stood before the
// body ran) would disagree with the fall-through from the body (leaving one
// value live) at the shared label.
func lowerVoid(env *Env, node *ast.Node) Program {
	p := lowerExpr(env, node)
	if !ast.IsVoid(node) {
		p = append(p, NewDrop())
	}
	return p
}

// lowerValue lowers node where exactly one value is required (an operand,
// an argument, a condition, an assigned right-hand side). A void node here
// - e.g. an `if ... fi` with no matching `else`, which is a statement even
// when its `then` produces a value - has nothing for the caller to consume,
// so this is a source error rather than a stack underflow at codegen time.
func lowerValue(env *Env, node *ast.Node) Program {
	if ast.IsVoid(node) {
		util.Error(node.Tok, "expression has no value")
	}
	return lowerExpr(env, node)
}

func lowerExpr(env *Env, node *ast.Node) Program {
	switch node.Type {
	case ast.Const:
		d := node.Data.(ast.ConstNode)
		return Program{NewConst(d.Value)}

	case ast.Var:
		d := node.Data.(ast.VarNode)
		l := env.lookupVar(node.Tok, d.Name)
		env.markUsed(d.Name)
		return Program{NewLd(l)}

	case ast.Ref:
		d := node.Data.(ast.RefNode)
		return Program{NewLda(env.lookupVar(node.Tok, d.Name))}

	case ast.Read:
		d := node.Data.(ast.ReadNode)
		l := env.lookupVar(node.Tok, d.Name)
		return Program{NewRead(), NewSt(l), NewDrop()}

	case ast.Write:
		d := node.Data.(ast.WriteNode)
		p := lowerValue(env, d.Expr)
		return append(p, NewWrite())

	case ast.Binop:
		d := node.Data.(ast.BinopNode)
		op, ok := binOpTable[d.Op]
		if !ok {
			util.Error(node.Tok, "unsupported binary operator %s", d.Op)
		}
		p := lowerValue(env, d.Left)
		p = append(p, lowerValue(env, d.Right)...)
		return append(p, NewBinop(op))

	case ast.Assn:
		d := node.Data.(ast.AssnNode)
		if d.Lhs.Type == ast.Ref {
			name := d.Lhs.Data.(ast.RefNode).Name
			l := env.lookupVar(d.Lhs.Tok, name)
			p := lowerValue(env, d.Rhs)
			return append(p, NewSt(l))
		}
		p := lowerValue(env, d.Lhs)
		p = append(p, lowerValue(env, d.Rhs)...)
		return append(p, NewSti())

	case ast.Seq:
		d := node.Data.(ast.SeqNode)
		p := lowerExpr(env, d.First)
		return append(p, lowerExpr(env, d.Second)...)

	case ast.Skip:
		return nil

	case ast.Ignore:
		d := node.Data.(ast.IgnoreNode)
		p := lowerValue(env, d.Expr)
		return append(p, NewDrop())

	case ast.If:
		d := node.Data.(ast.IfNode)
		lelse, lend := env.genLabel(), env.genLabel()
		thenVoid, elseVoid := ast.IsVoid(d.Then), ast.IsVoid(d.Else)
		// A mismatched pair (e.g. an implicit `else skip`, which the parser
		// hands back for an `if ... fi` with no matching `else`) must still
		// leave both arms balanced at Lend, so the non-void side's value is
		// dropped. See ast.IsVoid.
		balance := thenVoid != elseVoid
		p := lowerValue(env, d.Cond)
		p = append(p, NewCjmp(Zero, lelse))
		p = append(p, lowerExpr(env, d.Then)...)
		if balance && !thenVoid {
			p = append(p, NewDrop())
		}
		p = append(p, NewJmp(lend))
		p = append(p, NewLabel(lelse))
		p = append(p, lowerExpr(env, d.Else)...)
		if balance && !elseVoid {
			p = append(p, NewDrop())
		}
		p = append(p, NewLabel(lend))
		return p

	case ast.While:
		d := node.Data.(ast.WhileNode)
		lcond, lbody := env.genLabel(), env.genLabel()
		p := Program{NewJmp(lcond), NewLabel(lbody)}
		p = append(p, lowerVoid(env, d.Body)...)
		p = append(p, NewLabel(lcond))
		p = append(p, lowerValue(env, d.Cond)...)
		p = append(p, NewCjmp(Nonzero, lbody))
		return p

	case ast.Repeat:
		d := node.Data.(ast.RepeatNode)
		lstart := env.genLabel()
		p := Program{NewLabel(lstart)}
		p = append(p, lowerVoid(env, d.Body)...)
		p = append(p, lowerValue(env, d.Cond)...)
		p = append(p, NewCjmp(Zero, lstart))
		return p

	case ast.Call:
		d := node.Data.(ast.CallNode)
		label, arity := env.lookupFun(node.Tok, d.Fun)
		if arity != len(d.Args) {
			util.Error(node.Tok, "%s expects %d argument(s), got %d", d.Fun, arity, len(d.Args))
		}
		var p Program
		for _, arg := range d.Args {
			p = append(p, lowerValue(env, arg)...)
		}
		return append(p, NewCall(label, len(d.Args)))

	case ast.Scope:
		return lowerScope(env, node)
	}

	util.Error(node.Tok, "codegeneration for AST node kind %d is not yet implemented", node.Type)
	return nil
}

// lowerScope implements the two-pass Scope rule: bind every definition
// first (so mutual recursion resolves), then enqueue function bodies for
// the pending-function drain, then compile the scope's own body.
func lowerScope(env *Env, node *ast.Node) Program {
	d := node.Data.(ast.ScopeNode)
	env.beginScope()

	var prelude Program
	for _, def := range d.Defs {
		switch def.Kind {
		case ast.DefLocal:
			for i, name := range def.Names {
				tok := node.Tok
				if i < len(def.Toks) {
					tok = def.Toks[i]
				}
				_, isGlobal := env.addVar(tok, name)
				if isGlobal {
					prelude = append(prelude, NewGlobal(name))
				}
			}
		case ast.DefFun:
			label := env.genFunLabel(def.Name)
			env.addFun(def.Name, label, len(def.Args))
		}
	}

	for _, def := range d.Defs {
		if def.Kind == ast.DefFun {
			label, _ := env.lookupFun(node.Tok, def.Name)
			env.rememberFun(label, def.Args, def.Body)
		}
	}

	body := lowerExpr(env, d.Body)
	env.endScope()
	return append(prelude, body...)
}
