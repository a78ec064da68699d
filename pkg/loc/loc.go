// Package loc defines the location descriptor and x86 operand sum types
// shared by the SM lowering and codegen stages, along with the single
// place that renders an operand as AT&T assembly text.
package loc

import "fmt"

// Kind distinguishes the three ways a source name can be bound.
type Kind int

const (
	KindArg Kind = iota
	KindLocal
	KindGlb
)

// Loc is where a named binding lives: the i-th argument, the i-th local
// slot of the enclosing function, or a named global.
type Loc struct {
	Kind  Kind
	Index int    // KindArg, KindLocal
	Name  string // KindGlb
}

func Arg(i int) Loc      { return Loc{Kind: KindArg, Index: i} }
func Local(i int) Loc    { return Loc{Kind: KindLocal, Index: i} }
func Glb(name string) Loc { return Loc{Kind: KindGlb, Name: name} }

func (l Loc) String() string {
	switch l.Kind {
	case KindArg:
		return fmt.Sprintf("arg[%d]", l.Index)
	case KindLocal:
		return fmt.Sprintf("loc[%d]", l.Index)
	default:
		return l.Name
	}
}

// RegNames is the hard register table in the fixed order the codegen
// environment allocates from: register table index doubles as R(i)'s i.
var RegNames = [8]string{"ebx", "ecx", "esi", "edi", "eax", "edx", "ebp", "esp"}

const (
	RegEBX = 0
	RegECX = 1
	RegESI = 2
	RegEDI = 3 // scratch, never handed out by allocate()
	RegEAX = 4 // reserved for arithmetic/return
	RegEDX = 5 // reserved for arithmetic
	RegEBP = 6 // frame pointer
	RegESP = 7 // stack pointer
)

// OpndKind selects which alternative of the Opnd sum type is populated.
type OpndKind int

const (
	OpR OpndKind = iota // hard register
	OpS                 // symbolic stack slot
	OpM                 // named memory
	OpL                 // immediate
	OpI                 // indirect
)

// Opnd is an x86 operand: a hard register, a symbolic stack slot, named
// memory, an immediate, or an indirect reference through another operand.
type Opnd struct {
	Kind OpndKind
	Reg  int    // OpR
	Slot int    // OpS
	Name string // OpM
	Imm  int    // OpL
	Off  int    // OpI
	Base *Opnd  // OpI
}

func R(i int) Opnd  { return Opnd{Kind: OpR, Reg: i} }
func S(i int) Opnd  { return Opnd{Kind: OpS, Slot: i} }
func M(name string) Opnd { return Opnd{Kind: OpM, Name: name} }
func L(i int) Opnd  { return Opnd{Kind: OpL, Imm: i} }
func I(off int, base Opnd) Opnd { return Opnd{Kind: OpI, Off: off, Base: &base} }

// IsMemory reports whether the operand is memory-class (S or M): the x86
// lowering never emits an instruction with two memory-class operands.
func (o Opnd) IsMemory() bool { return o.Kind == OpS || o.Kind == OpM }

// Equal reports structural equality, used to compare symbolic stacks at
// join points (spec property 3: identical stack shape at every label).
func (o Opnd) Equal(other Opnd) bool {
	if o.Kind != other.Kind {
		return false
	}
	switch o.Kind {
	case OpR:
		return o.Reg == other.Reg
	case OpS:
		return o.Slot == other.Slot
	case OpM:
		return o.Name == other.Name
	case OpL:
		return o.Imm == other.Imm
	case OpI:
		return o.Off == other.Off && o.Base.Equal(*other.Base)
	}
	return false
}

// slotOffset implements the S(i) offset formula: non-negative indices are
// local-side slots below %ebp, negative indices are argument-side slots
// above the saved return address.
func slotOffset(i int) int {
	if i >= 0 {
		return -(i + 1) * 4
	}
	return 8 + (-1-i)*4
}

// String renders the operand in AT&T syntax. This is the sole place operand
// text is produced, so diagnostic dumps and the final assembly serializer
// never disagree.
func (o Opnd) String() string {
	switch o.Kind {
	case OpR:
		return "%" + RegNames[o.Reg]
	case OpS:
		return fmt.Sprintf("%d(%%ebp)", slotOffset(o.Slot))
	case OpM:
		return o.Name
	case OpL:
		return fmt.Sprintf("$%d", o.Imm)
	case OpI:
		return fmt.Sprintf("%d(%s)", o.Off, o.Base.String())
	}
	return "<invalid operand>"
}

// MangleGlobal produces the assembly symbol for a source-level global name.
func MangleGlobal(name string) string { return "global_" + name }
