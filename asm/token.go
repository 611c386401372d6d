package asm

import "fmt"

// TokenType classifies one lexical token.
type TokenType int

const (
	TOKEN_EOF = TokenType(iota)
	TOKEN_EOL

	TOKEN_IDENT  // label, variable or equate name
	TOKEN_INT    // integer literal
	TOKEN_STRING // quoted string literal
	TOKEN_EXPR   // $(...) compile-time expression
	TOKEN_DIRECTIVE

	TOKEN_AT // @, introduces a register variable
	TOKEN_COLON
	TOKEN_COMMA
	TOKEN_LBRACKET
	TOKEN_RBRACKET

	TOKEN_ASSIGN // :=
	TOKEN_SWAP   // <=>
	TOKEN_PLUS_ASSIGN
	TOKEN_MINUS_ASSIGN
	TOKEN_STAR_ASSIGN
	TOKEN_SLASH_ASSIGN

	TOKEN_PLUS
	TOKEN_MINUS
	TOKEN_STAR
	TOKEN_SLASH
	TOKEN_PERCENT
	TOKEN_AMP
	TOKEN_PIPE
	TOKEN_CARET
	TOKEN_TILDE
	TOKEN_SHL // <<
	TOKEN_SHR // >>

	TOKEN_EQ // ==
	TOKEN_NE // !=
	TOKEN_LT
	TOKEN_GT
	TOKEN_LE
	TOKEN_GE
	TOKEN_LT_U // <u, unsigned
	TOKEN_GT_U // >u
	TOKEN_LE_U // <=u
	TOKEN_GE_U // >=u
)

var tokenNames = map[TokenType]string{
	TOKEN_EOF:       "end of file",
	TOKEN_EOL:       "end of line",
	TOKEN_IDENT:     "identifier",
	TOKEN_INT:       "integer",
	TOKEN_STRING:    "string",
	TOKEN_EXPR:      "$(...)",
	TOKEN_DIRECTIVE: "directive",

	TOKEN_AT:       "@",
	TOKEN_COLON:    ":",
	TOKEN_COMMA:    ",",
	TOKEN_LBRACKET: "[",
	TOKEN_RBRACKET: "]",

	TOKEN_ASSIGN:       ":=",
	TOKEN_SWAP:         "<=>",
	TOKEN_PLUS_ASSIGN:  "+=",
	TOKEN_MINUS_ASSIGN: "-=",
	TOKEN_STAR_ASSIGN:  "*=",
	TOKEN_SLASH_ASSIGN: "/=",

	TOKEN_PLUS:    "+",
	TOKEN_MINUS:   "-",
	TOKEN_STAR:    "*",
	TOKEN_SLASH:   "/",
	TOKEN_PERCENT: "%",
	TOKEN_AMP:     "&",
	TOKEN_PIPE:    "|",
	TOKEN_CARET:   "^",
	TOKEN_TILDE:   "~",
	TOKEN_SHL:     "<<",
	TOKEN_SHR:     ">>",

	TOKEN_EQ:   "==",
	TOKEN_NE:   "!=",
	TOKEN_LT:   "<",
	TOKEN_GT:   ">",
	TOKEN_LE:   "<=",
	TOKEN_GE:   ">=",
	TOKEN_LT_U: "<u",
	TOKEN_GT_U: ">u",
	TOKEN_LE_U: "<=u",
	TOKEN_GE_U: ">=u",
}

// String returns a human-readable name for the token type.
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(tt))
}

// Position locates a token in the source text.
type Position struct {
	Line   int
	Column int
}

// String renders the position as line:column.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is one lexical token with its source position. Value is set for
// TOKEN_INT; Literal holds names, strings and expression text.
type Token struct {
	Type    TokenType
	Literal string
	Value   int64
	Pos     Position
}

// String renders the token for error messages.
func (t Token) String() string {
	switch t.Type {
	case TOKEN_INT:
		return fmt.Sprintf("%d", t.Value)
	case TOKEN_IDENT, TOKEN_DIRECTIVE:
		return t.Literal
	case TOKEN_STRING:
		return fmt.Sprintf("%q", t.Literal)
	}
	return t.Type.String()
}
