// Package sm implements the stack-machine intermediate representation: its
// instruction set, the compilation environment that lowers an AST into it,
// and the instruction set's textual form for --dump-sm and cross-checking.
package sm

import (
	"fmt"
	"strings"

	"github.com/lama-toolchain/lamac/pkg/loc"
)

// BinOp is one of the SM's binary operators.
type BinOp string

const (
	Add BinOp = "+"
	Sub BinOp = "-"
	Mul BinOp = "*"
	Div BinOp = "/"
	Mod BinOp = "%"
	Lt  BinOp = "<"
	Lte BinOp = "<="
	Eq  BinOp = "=="
	Neq BinOp = "!="
	Gt  BinOp = ">"
	Gte BinOp = ">="
	And BinOp = "&&"
	Or  BinOp = "!!"
)

// Cond is a CJMP condition: jump if the popped value is zero or nonzero.
type Cond string

const (
	Zero    Cond = "z"
	Nonzero Cond = "nz"
)

// Kind selects which SM instruction is populated.
type Kind int

const (
	Read Kind = iota
	Write
	Binop
	Ld
	Lda
	St
	Sti
	Const
	Label
	Jmp
	Cjmp
	Call
	Begin
	End
	Global
	Drop
	Dup
)

// Insn is a single SM instruction. Not every field is meaningful for every
// Kind; see the constructors for which fields a given kind populates.
type Insn struct {
	Kind Kind

	Op   BinOp   // Binop
	Loc  loc.Loc // Ld, Lda, St
	N    int     // Const
	L    string  // Label, Jmp, Cjmp target, Call/Begin function label
	Cond Cond    // Cjmp
	Args int     // Call arg count, Begin arity
	Locs int     // Begin local count
	Name string  // Global
}

func NewRead() Insn                       { return Insn{Kind: Read} }
func NewWrite() Insn                      { return Insn{Kind: Write} }
func NewBinop(op BinOp) Insn              { return Insn{Kind: Binop, Op: op} }
func NewLd(l loc.Loc) Insn                { return Insn{Kind: Ld, Loc: l} }
func NewLda(l loc.Loc) Insn               { return Insn{Kind: Lda, Loc: l} }
func NewSt(l loc.Loc) Insn                { return Insn{Kind: St, Loc: l} }
func NewSti() Insn                        { return Insn{Kind: Sti} }
func NewConst(n int) Insn                 { return Insn{Kind: Const, N: n} }
func NewLabel(l string) Insn              { return Insn{Kind: Label, L: l} }
func NewJmp(l string) Insn                { return Insn{Kind: Jmp, L: l} }
func NewCjmp(c Cond, l string) Insn       { return Insn{Kind: Cjmp, Cond: c, L: l} }
func NewCall(fn string, n int) Insn       { return Insn{Kind: Call, L: fn, Args: n} }
func NewBegin(fn string, a, locs int) Insn {
	return Insn{Kind: Begin, L: fn, Args: a, Locs: locs}
}
func NewEnd() Insn             { return Insn{Kind: End} }
func NewGlobal(name string) Insn { return Insn{Kind: Global, Name: name} }
func NewDrop() Insn            { return Insn{Kind: Drop} }
func NewDup() Insn             { return Insn{Kind: Dup} }

// String renders the instruction in the textual SM form of spec §6, used
// by --dump-sm and by the test-only interpreter's parser-free comparisons.
func (i Insn) String() string {
	switch i.Kind {
	case Read:
		return "READ"
	case Write:
		return "WRITE"
	case Binop:
		return fmt.Sprintf("BINOP %s", i.Op)
	case Ld:
		return fmt.Sprintf("LD %s", i.Loc)
	case Lda:
		return fmt.Sprintf("LDA %s", i.Loc)
	case St:
		return fmt.Sprintf("ST %s", i.Loc)
	case Sti:
		return "STI"
	case Const:
		return fmt.Sprintf("CONST %d", i.N)
	case Label:
		return fmt.Sprintf("LABEL %s", i.L)
	case Jmp:
		return fmt.Sprintf("JMP %s", i.L)
	case Cjmp:
		return fmt.Sprintf("CJMP %s, %s", i.Cond, i.L)
	case Call:
		return fmt.Sprintf("CALL %s, %d", i.L, i.Args)
	case Begin:
		return fmt.Sprintf("BEGIN %s, %d, %d", i.L, i.Args, i.Locs)
	case End:
		return "END"
	case Global:
		return fmt.Sprintf("GLOBAL %s", i.Name)
	case Drop:
		return "DROP"
	case Dup:
		return "DUP"
	}
	return "<invalid insn>"
}

// Program is a flat SM instruction sequence.
type Program []Insn

func (p Program) String() string {
	var sb strings.Builder
	for _, insn := range p {
		sb.WriteString(insn.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
