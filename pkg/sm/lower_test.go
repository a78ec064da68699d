package sm

import (
	"testing"

	"github.com/lama-toolchain/lamac/pkg/lexer"
	"github.com/lama-toolchain/lamac/pkg/parser"
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

func run(t *testing.T, src string, stdin []int) []int {
	t.Helper()
	program := parser.Parse(tokenize(src))
	prog := Compile(program)
	return interpret(prog, stdin)
}

func TestCompileArithmetic(t *testing.T) {
	out := run(t, `write(1 + 2 * 3)`, nil)
	if len(out) != 1 || out[0] != 7 {
		t.Fatalf("got %v, want [7]", out)
	}
}

func TestCompileIterativeSum(t *testing.T) {
	src := `
		local n, s, i;
		n := 5;
		s := 0;
		i := 1;
		while i <= n do
			s := s + i;
			i := i + 1
		od;
		write(s)
	`
	out := run(t, src, nil)
	if len(out) != 1 || out[0] != 15 {
		t.Fatalf("got %v, want [15]", out)
	}
}

func TestCompileFactorialRecursion(t *testing.T) {
	src := `
		fun fact(n) {
			if n == 0 then 1 else n * fact(n - 1) fi
		}
		write(fact(5))
	`
	out := run(t, src, nil)
	if len(out) != 1 || out[0] != 120 {
		t.Fatalf("got %v, want [120]", out)
	}
}

func TestCompileMutualRecursion(t *testing.T) {
	src := `
		fun isEven(n) {
			if n == 0 then 1 else isOdd(n - 1) fi
		}
		fun isOdd(n) {
			if n == 0 then 0 else isEven(n - 1) fi
		}
		write(isEven(10));
		write(isOdd(10))
	`
	out := run(t, src, nil)
	if len(out) != 2 || out[0] != 1 || out[1] != 0 {
		t.Fatalf("got %v, want [1 0]", out)
	}
}

func TestCompileMultiReadArithmetic(t *testing.T) {
	src := `
		local a, b, c;
		read(a);
		read(b);
		read(c);
		write(a * b + c)
	`
	out := run(t, src, []int{3, 4, 5})
	if len(out) != 1 || out[0] != 17 {
		t.Fatalf("got %v, want [17]", out)
	}
}

func TestCompileRegisterSpillBoundary(t *testing.T) {
	// More live temporaries than hard registers, forcing the codegen stage
	// to spill onto symbolic stack slots; at the SM level this is just a
	// deeply nested arithmetic expression.
	out := run(t, `write(1 + (2 + (3 + (4 + (5 + (6 + 7))))))`, nil)
	if len(out) != 1 || out[0] != 28 {
		t.Fatalf("got %v, want [28]", out)
	}
}

func TestCompileNestedCalls(t *testing.T) {
	src := `
		fun sq(x) { x * x }
		fun sumSq(a, b) { sq(a) + sq(b) }
		write(sumSq(3, 4))
	`
	out := run(t, src, nil)
	if len(out) != 1 || out[0] != 25 {
		t.Fatalf("got %v, want [25]", out)
	}
}

func TestCompileChainedAssignmentValue(t *testing.T) {
	// x := y := 1 relies on ST peeking rather than popping: the chained
	// assignment must leave the assigned value on the stack for the outer
	// assignment to store again.
	src := `
		local x, y;
		write(x := y := 1);
		write(x);
		write(y)
	`
	out := run(t, src, nil)
	if len(out) != 3 || out[0] != 1 || out[1] != 1 || out[2] != 1 {
		t.Fatalf("got %v, want [1 1 1]", out)
	}
}

func TestCompileGlobalsPersistAcrossCalls(t *testing.T) {
	src := `
		local counter;
		fun bump() {
			counter := counter + 1
		}
		counter := 0;
		bump();
		bump();
		bump();
		write(counter)
	`
	out := run(t, src, nil)
	if len(out) != 1 || out[0] != 3 {
		t.Fatalf("got %v, want [3]", out)
	}
}

func TestCompileRepeatUntil(t *testing.T) {
	src := `
		local i;
		i := 0;
		repeat
			i := i + 1
		until i == 5;
		write(i)
	`
	out := run(t, src, nil)
	if len(out) != 1 || out[0] != 5 {
		t.Fatalf("got %v, want [5]", out)
	}
}
