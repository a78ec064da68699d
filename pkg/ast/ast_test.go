package ast

import (
	"testing"

	"github.com/lama-toolchain/lamac/pkg/token"
)

var tok = token.Token{}

func TestIsVoidStatementForms(t *testing.T) {
	cases := []struct {
		name string
		node *Node
		want bool
	}{
		{"skip", NewSkip(tok), true},
		{"read", NewRead(tok, "x"), true},
		{"write", NewWrite(tok, NewConst(tok, 1)), true},
		{"while", NewWhile(tok, NewConst(tok, 1), NewSkip(tok)), true},
		{"repeat", NewRepeat(tok, NewSkip(tok), NewConst(tok, 1)), true},
		{"ignore", NewIgnore(tok, NewConst(tok, 1)), true},
		{"const", NewConst(tok, 1), false},
		{"var", NewVar(tok, "x"), false},
		{"call", NewCall(tok, "f", nil), false},
	}
	for _, c := range cases {
		if got := IsVoid(c.node); got != c.want {
			t.Errorf("%s: IsVoid() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestIsVoidIfBranches(t *testing.T) {
	bothVoid := NewIf(tok, NewConst(tok, 1), NewSkip(tok), NewSkip(tok))
	if !IsVoid(bothVoid) {
		t.Error("if with two void branches should be void")
	}
	bothValued := NewIf(tok, NewConst(tok, 1), NewConst(tok, 1), NewConst(tok, 2))
	if IsVoid(bothValued) {
		t.Error("if with two valued branches should not be void")
	}
	// A mismatched pair is still void: lowering drops the non-void side's
	// value so an `if ... fi` with no matching `else` (parsed as an
	// implicit `else skip`) is a statement even when `then` yields a value.
	thenValued := NewIf(tok, NewConst(tok, 1), NewConst(tok, 2), NewSkip(tok))
	if !IsVoid(thenValued) {
		t.Error("if with only the then-branch valued should be void (value is dropped)")
	}
	elseValued := NewIf(tok, NewConst(tok, 1), NewSkip(tok), NewConst(tok, 2))
	if !IsVoid(elseValued) {
		t.Error("if with only the else-branch valued should be void (value is dropped)")
	}
}

func TestIsVoidSeqFollowsSecond(t *testing.T) {
	seq := NewSeq(tok, NewConst(tok, 1), NewSkip(tok))
	if !IsVoid(seq) {
		t.Error("seq's voidness should follow its second element")
	}
	seq2 := NewSeq(tok, NewSkip(tok), NewConst(tok, 1))
	if IsVoid(seq2) {
		t.Error("seq's voidness should follow its second element, not first")
	}
}

func TestIsVoidScopeFollowsBody(t *testing.T) {
	scope := NewScope(tok, nil, NewConst(tok, 1))
	if IsVoid(scope) {
		t.Error("scope's voidness should follow its body")
	}
}
