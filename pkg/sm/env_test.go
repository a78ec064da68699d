package sm

import (
	"testing"

	"github.com/lama-toolchain/lamac/pkg/token"
)

func TestGenLabelUniqueness(t *testing.T) {
	e := NewEnv()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		l := e.genLabel()
		if seen[l] {
			t.Fatalf("genLabel produced duplicate: %s", l)
		}
		seen[l] = true
	}
}

func TestAddVarGlobalAtTopLevel(t *testing.T) {
	e := NewEnv()
	e.beginScope() // depth becomes 1: top-level program scope
	_, isGlobal := e.addVar(tokenFor("x"), "x")
	if !isGlobal {
		t.Fatal("addVar at depth 1 should report a global")
	}
	if got := e.lookupVar(tokenFor("x"), "x"); got.Name != "x" {
		t.Errorf("lookupVar(x) = %+v, want global x", got)
	}
}

func TestAddVarLocalWhenNested(t *testing.T) {
	e := NewEnv()
	e.beginScope() // depth 1
	e.beginScope() // depth 2
	_, isGlobal := e.addVar(tokenFor("y"), "y")
	if isGlobal {
		t.Fatal("addVar below depth 1 should not report a global")
	}
	e.markUsed("y") // avoid the unused-var warning firing during this test
	e.endScope()
	e.endScope()
}

func TestUnusedLocalDoesNotPanicOnScopeExit(t *testing.T) {
	e := NewEnv()
	e.beginScope() // depth 1
	e.beginScope() // depth 2
	e.addVar(tokenFor("unused"), "unused")
	e.endScope() // exercises the unused-var warning path
	e.endScope()
}

func TestMarkUsedSuppressesUnusedWarningTarget(t *testing.T) {
	e := NewEnv()
	e.beginScope()
	e.beginScope()
	e.addVar(tokenFor("z"), "z")
	e.markUsed("z")
	sym := e.top.find("z")
	if sym == nil || !sym.used {
		t.Fatal("markUsed should flip the symbol's used flag")
	}
	e.endScope()
	e.endScope()
}

func TestBeginFunResetsCountersButKeepsCapturedScope(t *testing.T) {
	e := NewEnv()
	e.beginScope()
	e.addVar(tokenFor("g"), "g")
	captured := e.top.deepCopy()

	e.beginFun(captured)
	if e.depth != 1 {
		t.Errorf("beginFun should reset depth to 1, got %d", e.depth)
	}
	if e.nArgs != 0 || e.nLocals != 0 {
		t.Errorf("beginFun should clear counters, got nArgs=%d nLocals=%d", e.nArgs, e.nLocals)
	}
	if e.top.find("g") == nil {
		t.Error("beginFun should keep the captured scope's bindings reachable")
	}
}

func TestRememberFunSnapshotIsImmuneToLaterMutation(t *testing.T) {
	e := NewEnv()
	e.beginScope()
	e.addVar(tokenFor("before"), "before")
	e.rememberFun("Lf", nil, nil)
	e.addVar(tokenFor("after"), "after")

	funs := e.getFuns()
	if len(funs) != 1 {
		t.Fatalf("expected 1 pending function, got %d", len(funs))
	}
	if funs[0].State.find("after") != nil {
		t.Error("snapshot captured at rememberFun should not see later bindings")
	}
	if funs[0].State.find("before") == nil {
		t.Error("snapshot should see bindings made before rememberFun")
	}
}

func tokenFor(name string) token.Token { return token.Token{Value: name} }
