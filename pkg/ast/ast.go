// Package ast defines the abstract syntax tree consumed by the lowering
// pipeline. The parser is the only producer of these nodes; pkg/sm is the
// only non-test consumer.
package ast

import "github.com/lama-toolchain/lamac/pkg/token"

// NodeType identifies the shape of Node.Data.
type NodeType int

const (
	Const NodeType = iota
	Var
	Ref
	Binop
	Assn
	Seq
	Skip
	Read
	Write
	If
	While
	Repeat
	Ignore
	Call
	Scope
)

// Node is a single AST node. Data holds one of the *Node structs below,
// selected by Type. Tok carries the source position used in diagnostics.
type Node struct {
	Type NodeType
	Tok  token.Token
	Data interface{}
}

type ConstNode struct{ Value int }
type VarNode struct{ Name string }
type RefNode struct{ Name string }
type BinopNode struct {
	Op          token.Type
	Left, Right *Node
}
type AssnNode struct{ Lhs, Rhs *Node }
type SeqNode struct{ First, Second *Node }
type SkipNode struct{}
type ReadNode struct{ Name string }
type WriteNode struct{ Expr *Node }
type IfNode struct{ Cond, Then, Else *Node }
type WhileNode struct{ Cond, Body *Node }
type RepeatNode struct {
	Body *Node
	Cond *Node
}
type IgnoreNode struct{ Expr *Node }
type CallNode struct {
	Fun  string
	Args []*Node
}

// DefKind distinguishes the two definition forms a Scope may bind.
type DefKind int

const (
	DefLocal DefKind = iota
	DefFun
)

// Def is one binding introduced by a Scope: either a batch of local names
// or a single function definition.
type Def struct {
	Kind  DefKind
	Names []string      // DefLocal
	Toks  []token.Token // DefLocal, parallel to Names: each name's declaration site

	Name string  // DefFun
	Args []string
	Body *Node
}
type ScopeNode struct {
	Defs []Def
	Body *Node
}

func newNode(tok token.Token, t NodeType, data interface{}) *Node {
	return &Node{Type: t, Tok: tok, Data: data}
}

func NewConst(tok token.Token, value int) *Node {
	return newNode(tok, Const, ConstNode{Value: value})
}
func NewVar(tok token.Token, name string) *Node {
	return newNode(tok, Var, VarNode{Name: name})
}
func NewRef(tok token.Token, name string) *Node {
	return newNode(tok, Ref, RefNode{Name: name})
}
func NewBinop(tok token.Token, op token.Type, left, right *Node) *Node {
	return newNode(tok, Binop, BinopNode{Op: op, Left: left, Right: right})
}
func NewAssn(tok token.Token, lhs, rhs *Node) *Node {
	return newNode(tok, Assn, AssnNode{Lhs: lhs, Rhs: rhs})
}
func NewSeq(tok token.Token, first, second *Node) *Node {
	return newNode(tok, Seq, SeqNode{First: first, Second: second})
}
func NewSkip(tok token.Token) *Node {
	return newNode(tok, Skip, SkipNode{})
}
func NewRead(tok token.Token, name string) *Node {
	return newNode(tok, Read, ReadNode{Name: name})
}
func NewWrite(tok token.Token, expr *Node) *Node {
	return newNode(tok, Write, WriteNode{Expr: expr})
}
func NewIf(tok token.Token, cond, then, els *Node) *Node {
	return newNode(tok, If, IfNode{Cond: cond, Then: then, Else: els})
}
func NewWhile(tok token.Token, cond, body *Node) *Node {
	return newNode(tok, While, WhileNode{Cond: cond, Body: body})
}
func NewRepeat(tok token.Token, body, cond *Node) *Node {
	return newNode(tok, Repeat, RepeatNode{Body: body, Cond: cond})
}
func NewIgnore(tok token.Token, expr *Node) *Node {
	return newNode(tok, Ignore, IgnoreNode{Expr: expr})
}
func NewCall(tok token.Token, fun string, args []*Node) *Node {
	return newNode(tok, Call, CallNode{Fun: fun, Args: args})
}
func NewScope(tok token.Token, defs []Def, body *Node) *Node {
	return newNode(tok, Scope, ScopeNode{Defs: defs, Body: body})
}

// IsVoid reports whether node's lowering leaves nothing on the SM stack.
// Skip, Read, Write, While and Repeat are void by construction (their own
// lowering rules balance to zero net effect). An If is void when both
// branches are, or when exactly one is: the lowering rule drops the
// non-void branch's value in that case (an `if ... fi` with no matching
// `else` is a statement, not an expression, even when its `then` produces a
// value) so both arms of the underlying CJMP/JMP always balance. Everything
// else yields exactly one value, so the parser wraps it in Ignore when used
// in non-tail statement position.
func IsVoid(node *Node) bool {
	switch node.Type {
	case Skip, Read, Write, While, Repeat, Ignore:
		return true
	case If:
		d := node.Data.(IfNode)
		thenVoid, elseVoid := IsVoid(d.Then), IsVoid(d.Else)
		if thenVoid != elseVoid {
			return true
		}
		return thenVoid
	case Seq:
		return IsVoid(node.Data.(SeqNode).Second)
	case Scope:
		return IsVoid(node.Data.(ScopeNode).Body)
	default:
		return false
	}
}
