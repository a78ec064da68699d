package sm

import (
	"fmt"

	"github.com/lama-toolchain/lamac/pkg/ast"
	"github.com/lama-toolchain/lamac/pkg/loc"
	"github.com/lama-toolchain/lamac/pkg/token"
	"github.com/lama-toolchain/lamac/pkg/util"
)

// symbol is one binding in a scope's linked list: either a variable
// location or a function's label and arity.
type symbol struct {
	name  string
	isFun bool

	loc  loc.Loc     // valid when !isFun
	tok  token.Token // declaration site, for the unused-var warning
	used bool        // set once a Var lowering reads this binding

	label string // valid when isFun
	arity int    // valid when isFun

	next *symbol
}

// scope is one lexical frame; frames chain to their enclosing frame.
type scope struct {
	symbols *symbol
	parent  *scope
}

func (s *scope) find(name string) *symbol {
	for sc := s; sc != nil; sc = sc.parent {
		for sym := sc.symbols; sym != nil; sym = sym.next {
			if sym.name == name {
				return sym
			}
		}
	}
	return nil
}

// deepCopy clones the entire scope chain so a captured snapshot is immune
// to later mutation of the live environment (spec §9: rememberFun must
// capture a deep copy of the name table).
func (s *scope) deepCopy() *scope {
	if s == nil {
		return nil
	}
	cp := &scope{parent: s.parent.deepCopy()}
	var head, tail *symbol
	for sym := s.symbols; sym != nil; sym = sym.next {
		clone := &symbol{name: sym.name, isFun: sym.isFun, loc: sym.loc, tok: sym.tok, used: sym.used, label: sym.label, arity: sym.arity}
		if head == nil {
			head = clone
		} else {
			tail.next = clone
		}
		tail = clone
	}
	cp.symbols = head
	return cp
}

// PendingFun is a function body queued for compilation, along with the
// environment snapshot in effect at the point it was declared.
type PendingFun struct {
	Label string
	Args  []string
	Body  *ast.Node
	State *scope
}

// Env is the SM-stage compilation environment: label supply, scope depth,
// the symbolic name table, and the pending-function worklist. Mutated
// in place during a single compilation pass; rememberFun is the one place
// that must snapshot rather than alias.
type Env struct {
	labelN  int
	depth   int
	top     *scope
	nArgs   int
	nLocals int
	pending []PendingFun
}

func NewEnv() *Env { return &Env{} }

func (e *Env) genLabel() string {
	l := fmt.Sprintf("L%d", e.labelN)
	e.labelN++
	return l
}

func (e *Env) genFunLabel(name string) string {
	if e.depth == 1 {
		return "L" + name
	}
	l := fmt.Sprintf("L%s_%d", name, e.labelN)
	e.labelN++
	return l
}

func (e *Env) beginScope() {
	e.top = &scope{parent: e.top}
	e.depth++
}

// endScope closes the current scope, warning about any local (non-global,
// non-function) binding that was declared but never read. Globals are
// exempt: rememberFun deep-copies the scope chain at declaration time, so a
// global's "used" flag set inside one function's clone would never be
// visible from the top-level scope's own copy.
func (e *Env) endScope() {
	for sym := e.top.symbols; sym != nil; sym = sym.next {
		if !sym.isFun && sym.loc.Kind != loc.KindGlb && !sym.used {
			util.Warn(util.WarnUnusedVar, sym.tok, "local variable '%s' is never read", sym.name)
		}
	}
	e.top = e.top.parent
	e.depth--
}

func (e *Env) addArg(name string) loc.Loc {
	l := loc.Arg(e.nArgs)
	e.top.symbols = &symbol{name: name, loc: l, next: e.top.symbols}
	e.nArgs++
	return l
}

// addVar binds name to a global at depth 1, or to the next local slot
// otherwise. isGlobal reports which happened, so the caller can decide
// whether to emit a GLOBAL prelude instruction.
func (e *Env) addVar(tok token.Token, name string) (l loc.Loc, isGlobal bool) {
	if e.depth == 1 {
		l = loc.Glb(name)
		isGlobal = true
	} else {
		l = loc.Local(e.nLocals)
		e.nLocals++
	}
	e.top.symbols = &symbol{name: name, loc: l, tok: tok, next: e.top.symbols}
	return l, isGlobal
}

// markUsed records that name was read (as opposed to merely assigned into),
// suppressing the unused-var warning endScope would otherwise emit for it.
func (e *Env) markUsed(name string) {
	if sym := e.top.find(name); sym != nil && !sym.isFun {
		sym.used = true
	}
}

func (e *Env) addFun(name, label string, arity int) {
	e.top.symbols = &symbol{name: name, isFun: true, label: label, arity: arity, next: e.top.symbols}
}

// beginFun resets the environment for a fresh function body: depth back to
// 1, argument/local counters cleared, and the captured enclosing state
// installed so arguments bind on top of it.
func (e *Env) beginFun(captured *scope) {
	e.top = captured
	e.depth = 1
	e.nArgs = 0
	e.nLocals = 0
}

// rememberFun enqueues a function body for later compilation along with a
// deep-copied snapshot of the environment as it stood when declared.
func (e *Env) rememberFun(label string, args []string, body *ast.Node) {
	e.pending = append(e.pending, PendingFun{Label: label, Args: args, Body: body, State: e.top.deepCopy()})
}

// getFuns drains the pending queue so callers can iterate to a fixed
// point: bodies compiled here may enqueue further pending functions.
func (e *Env) getFuns() []PendingFun {
	funs := e.pending
	e.pending = nil
	return funs
}

func (e *Env) lookupVar(tok token.Token, name string) loc.Loc {
	sym := e.top.find(name)
	if sym == nil {
		util.Error(tok, "name %s is undefined", name)
	}
	if sym.isFun {
		util.Error(tok, "%s does not designate a variable", name)
	}
	return sym.loc
}

func (e *Env) lookupFun(tok token.Token, name string) (label string, arity int) {
	sym := e.top.find(name)
	if sym == nil {
		util.Error(tok, "name %s is undefined", name)
	}
	if !sym.isFun {
		util.Error(tok, "%s does not designate a function", name)
	}
	return sym.label, sym.arity
}
