// Package token defines the lexical token kinds produced by pkg/lexer and
// carried on AST nodes for diagnostics.
package token

type Type int

const (
	EOF Type = iota
	Ident
	Number

	Local
	Fun
	While
	Do
	Od
	Repeat
	Until
	If
	Then
	Elif
	Else
	Fi
	Skip
	Read
	Write

	LParen
	RParen
	LBrace
	RBrace
	Comma
	Semi

	Assign // :=
	Plus
	Minus
	Star
	Slash
	Rem
	Lt
	Lte
	Eq
	Neq
	Gt
	Gte
	AndAnd
	OrOr
	Amp // & (address-of sigil for Ref)
)

var KeywordMap = map[string]Type{
	"local":  Local,
	"fun":    Fun,
	"while":  While,
	"do":     Do,
	"od":     Od,
	"repeat": Repeat,
	"until":  Until,
	"if":     If,
	"then":   Then,
	"elif":   Elif,
	"else":   Else,
	"fi":     Fi,
	"skip":   Skip,
	"read":   Read,
	"write":  Write,
}

var names = map[Type]string{
	EOF: "eof", Ident: "identifier", Number: "number",
	Local: "local", Fun: "fun", While: "while", Do: "do", Od: "od",
	Repeat: "repeat", Until: "until", If: "if", Then: "then", Elif: "elif",
	Else: "else", Fi: "fi", Skip: "skip", Read: "read", Write: "write",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", Comma: ",", Semi: ";",
	Assign: ":=", Plus: "+", Minus: "-", Star: "*", Slash: "/", Rem: "%",
	Lt: "<", Lte: "<=", Eq: "==", Neq: "!=", Gt: ">", Gte: ">=",
	AndAnd: "&&", OrOr: "!!", Amp: "&",
}

func (t Type) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	return "unknown"
}

// Token is a single lexical unit with its source position.
type Token struct {
	Type      Type
	Value     string
	FileIndex int
	Line      int
	Column    int
	Len       int
}
