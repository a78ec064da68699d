package parser

import (
	"testing"

	"github.com/lama-toolchain/lamac/pkg/ast"
	"github.com/lama-toolchain/lamac/pkg/lexer"
	"github.com/lama-toolchain/lamac/pkg/token"
)

func tokenize(src string) []token.Token {
	l := lexer.NewLexer([]rune(src), 0)
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return toks
}

func TestParseWrapsTopLevelInScope(t *testing.T) {
	n := Parse(tokenize("write(1)"))
	if n.Type != ast.Scope {
		t.Fatalf("expected top-level Scope, got %v", n.Type)
	}
}

func TestAssignmentToBareVarUsesRef(t *testing.T) {
	n := Parse(tokenize("local x; x := 1"))
	body := n.Data.(ast.ScopeNode).Body
	assn := body.Data.(ast.AssnNode)
	if assn.Lhs.Type != ast.Ref {
		t.Fatalf("expected assignment lhs to be rewritten to Ref, got %v", assn.Lhs.Type)
	}
	if assn.Lhs.Data.(ast.RefNode).Name != "x" {
		t.Errorf("expected Ref to name 'x', got %q", assn.Lhs.Data.(ast.RefNode).Name)
	}
}

func TestAssignmentIsRightAssociative(t *testing.T) {
	n := Parse(tokenize("local x, y; x := y := 1"))
	body := n.Data.(ast.ScopeNode).Body
	outer := body.Data.(ast.AssnNode)
	if outer.Rhs.Type != ast.Assn {
		t.Fatalf("expected x := (y := 1), got rhs type %v", outer.Rhs.Type)
	}
}

func TestNonTailStatementsGetIgnoreWrapped(t *testing.T) {
	n := Parse(tokenize("1; 2"))
	body := n.Data.(ast.ScopeNode).Body
	seq := body.Data.(ast.SeqNode)
	if seq.First.Type != ast.Ignore {
		t.Fatalf("expected first statement wrapped in Ignore, got %v", seq.First.Type)
	}
	if seq.Second.Type != ast.Const {
		t.Fatalf("expected tail statement left bare, got %v", seq.Second.Type)
	}
}

func TestVoidStatementIsNotIgnoreWrapped(t *testing.T) {
	n := Parse(tokenize("skip; 1"))
	body := n.Data.(ast.ScopeNode).Body
	seq := body.Data.(ast.SeqNode)
	if seq.First.Type != ast.Skip {
		t.Fatalf("void statement should not be Ignore-wrapped, got %v", seq.First.Type)
	}
}

func TestEmptyScopeBodyYieldsSkip(t *testing.T) {
	n := Parse(tokenize("local x;"))
	body := n.Data.(ast.ScopeNode).Body
	if body.Type != ast.Skip {
		t.Fatalf("expected empty statement sequence to yield Skip, got %v", body.Type)
	}
}

func TestFunctionDeclarationParsesArgsAndBody(t *testing.T) {
	n := Parse(tokenize("fun add(a, b) { a + b } write(add(1, 2))"))
	scope := n.Data.(ast.ScopeNode)
	if len(scope.Defs) != 1 || scope.Defs[0].Kind != ast.DefFun {
		t.Fatalf("expected one function definition, got %v", scope.Defs)
	}
	fn := scope.Defs[0]
	if fn.Name != "add" || len(fn.Args) != 2 || fn.Args[0] != "a" || fn.Args[1] != "b" {
		t.Errorf("unexpected function signature: %+v", fn)
	}
}

func TestUnaryMinusDesugarsToZeroMinusOperand(t *testing.T) {
	n := Parse(tokenize("write(-5)"))
	body := n.Data.(ast.ScopeNode).Body
	write := body.Data.(ast.WriteNode)
	binop := write.Expr.Data.(ast.BinopNode)
	if binop.Op != token.Minus {
		t.Fatalf("expected desugared unary minus, got op %v", binop.Op)
	}
	if binop.Left.Data.(ast.ConstNode).Value != 0 {
		t.Errorf("expected 0 - operand desugaring, got left = %+v", binop.Left.Data)
	}
}

func TestAddressOfProducesRefNode(t *testing.T) {
	n := Parse(tokenize("local x; write(&x)"))
	body := n.Data.(ast.ScopeNode).Body
	write := body.Data.(ast.WriteNode)
	if write.Expr.Type != ast.Ref {
		t.Fatalf("expected '&x' to parse as Ref, got %v", write.Expr.Type)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	// 1 + 2 * 3 should parse as 1 + (2 * 3), not (1 + 2) * 3.
	n := Parse(tokenize("write(1 + 2 * 3)"))
	body := n.Data.(ast.ScopeNode).Body
	write := body.Data.(ast.WriteNode)
	add := write.Expr.Data.(ast.BinopNode)
	if add.Op != token.Plus {
		t.Fatalf("expected outer operator '+', got %v", add.Op)
	}
	mul := add.Right.Data.(ast.BinopNode)
	if mul.Op != token.Star {
		t.Errorf("expected right operand to be a multiplication, got %v", mul.Op)
	}
}

func TestIfElifElseChain(t *testing.T) {
	n := Parse(tokenize("if 1 then 2 elif 3 then 4 else 5 fi"))
	body := n.Data.(ast.ScopeNode).Body
	outer := body.Data.(ast.IfNode)
	inner, ok := outer.Else.Data.(ast.IfNode)
	if !ok {
		t.Fatalf("expected elif to desugar into a nested If, got %v", outer.Else.Type)
	}
	elseScope, ok := inner.Else.Data.(ast.ScopeNode)
	if !ok {
		t.Fatalf("expected trailing else branch to be a Scope, got %v", inner.Else.Type)
	}
	if elseScope.Body.Type != ast.Const {
		t.Errorf("expected else branch to hold the final expression, got %v", elseScope.Body.Type)
	}
}
