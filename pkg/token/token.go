package token

import (
	"fmt"
	"strings"

	"github.com/xplshn/jfront/pkg/value"
)

type Type int

const (
	Def Type = iota
	End
	Var
	Ret
	If
	Else
	While
	Symbol
	Literal
	LParen
	RParen
	Comma
	Plus
	Minus
	Star
	Slash
	Assign
	EqEq
	Neq
	Newline
)

// ImportKeyword switches the lexer into import mode instead of producing a token.
const ImportKeyword = "imp"

var KeywordMap = map[string]Type{
	"def":   Def,
	"end":   End,
	"var":   Var,
	"ret":   Ret,
	"if":    If,
	"else":  Else,
	"while": While,
}

// BoolLiterals maps the boolean keywords to the value they denote.
var BoolLiterals = map[string]bool{
	"true":  true,
	"false": false,
}

// Punctuation maps single characters that always form a token on their own.
var Punctuation = map[rune]Type{
	'(': LParen,
	')': RParen,
	',': Comma,
	'+': Plus,
	'-': Minus,
	'*': Star,
	'/': Slash,
}

// Operators are recognized only when a whole collector matches at a boundary.
var Operators = map[string]Type{
	"=":  Assign,
	"==": EqEq,
	"!=": Neq,
}

// Reverse mapping from Type to the source spelling
var TypeStrings = map[Type]string{
	Symbol:  "symbol",
	Literal: "literal",
	Newline: "newline",
}

func init() {
	for str, typ := range KeywordMap {
		TypeStrings[typ] = str
	}
	for ch, typ := range Punctuation {
		TypeStrings[typ] = string(ch)
	}
	for str, typ := range Operators {
		TypeStrings[typ] = str
	}
}

func (t Type) String() string {
	if s, ok := TypeStrings[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Token is immutable once produced. Text is set for Symbol, Lit for Literal.
type Token struct {
	Type Type
	Text string
	Lit  value.Value
}

func New(t Type) Token               { return Token{Type: t} }
func NewSymbol(text string) Token    { return Token{Type: Symbol, Text: text} }
func NewLiteral(v value.Value) Token { return Token{Type: Literal, Lit: v} }

func (t Token) Equal(o Token) bool {
	if t.Type != o.Type || t.Text != o.Text {
		return false
	}
	if t.Type == Literal {
		return t.Lit.Equal(o.Lit)
	}
	return true
}

func (t Token) String() string {
	switch t.Type {
	case Symbol:
		return "symbol " + t.Text
	case Literal:
		return t.Lit.Kind.String() + " " + t.Lit.String()
	case Newline:
		return "newline"
	}
	return "'" + t.Type.String() + "'"
}

// Positioned pairs a token with its 1-based source line.
type Positioned struct {
	Line  int
	Token Token
}

func (p Positioned) String() string { return fmt.Sprintf("%d:%s", p.Line, p.Token) }

// Sequence is the scan-ordered token stream of one file.
type Sequence []Positioned

func (s Sequence) String() string {
	var sb strings.Builder
	for i, p := range s {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(p.String())
	}
	return sb.String()
}

// Types returns just the token types, handy when lines and payloads don't matter.
func (s Sequence) Types() []Type {
	types := make([]Type, len(s))
	for i, p := range s {
		types[i] = p.Token.Type
	}
	return types
}
