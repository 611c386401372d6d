package asm

import (
	"strconv"
	"strings"
	"unicode"
)

// Lexer turns source text into tokens. Comments start with ';' and run
// to the end of the line; newlines are significant and produce
// TOKEN_EOL.
type Lexer struct {
	src  []rune
	at   int
	line int
	col  int
}

// NewLexer returns a lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), line: 1, col: 1}
}

// Lex tokenizes the whole source.
func Lex(src string) (tokens []Token, err error) {
	lexer := NewLexer(src)
	for {
		token, err := lexer.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
		if token.Type == TOKEN_EOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) pos() Position {
	return Position{Line: l.line, Column: l.col}
}

func (l *Lexer) peek() rune {
	if l.at >= len(l.src) {
		return 0
	}
	return l.src[l.at]
}

func (l *Lexer) advance() rune {
	ch := l.src[l.at]
	l.at++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) skipBlanks() {
	for l.at < len(l.src) {
		ch := l.peek()
		if ch == ';' {
			for l.at < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
			continue
		}
		if ch == '\n' || !unicode.IsSpace(ch) {
			return
		}
		l.advance()
	}
}

// Next returns the next token.
func (l *Lexer) Next() (token Token, err error) {
	l.skipBlanks()

	pos := l.pos()
	if l.at >= len(l.src) {
		return Token{Type: TOKEN_EOF, Pos: pos}, nil
	}

	ch := l.peek()
	switch {
	case ch == '\n':
		l.advance()
		return Token{Type: TOKEN_EOL, Pos: pos}, nil

	case ch == '"':
		return l.lexString(pos)

	case unicode.IsDigit(ch):
		return l.lexNumber(pos)

	case ch == '.' || ch == '_' || unicode.IsLetter(ch):
		return l.lexName(pos)

	case ch == '$':
		return l.lexExpr(pos)
	}

	l.advance()
	two := string(ch) + string(l.peek())

	simple := map[rune]TokenType{
		'@': TOKEN_AT,
		',': TOKEN_COMMA,
		'[': TOKEN_LBRACKET,
		']': TOKEN_RBRACKET,
		'%': TOKEN_PERCENT,
		'&': TOKEN_AMP,
		'|': TOKEN_PIPE,
		'^': TOKEN_CARET,
		'~': TOKEN_TILDE,
	}

	switch {
	case two == ":=":
		l.advance()
		return Token{Type: TOKEN_ASSIGN, Pos: pos}, nil
	case two == "+=":
		l.advance()
		return Token{Type: TOKEN_PLUS_ASSIGN, Pos: pos}, nil
	case two == "-=":
		l.advance()
		return Token{Type: TOKEN_MINUS_ASSIGN, Pos: pos}, nil
	case two == "*=":
		l.advance()
		return Token{Type: TOKEN_STAR_ASSIGN, Pos: pos}, nil
	case two == "/=":
		l.advance()
		return Token{Type: TOKEN_SLASH_ASSIGN, Pos: pos}, nil
	case two == "==":
		l.advance()
		return Token{Type: TOKEN_EQ, Pos: pos}, nil
	case two == "!=":
		l.advance()
		return Token{Type: TOKEN_NE, Pos: pos}, nil
	case two == "<<":
		l.advance()
		return Token{Type: TOKEN_SHL, Pos: pos}, nil
	case two == ">>":
		l.advance()
		return Token{Type: TOKEN_SHR, Pos: pos}, nil

	case ch == '<' || ch == '>':
		return l.lexCompare(pos, ch), nil

	case ch == ':':
		return Token{Type: TOKEN_COLON, Pos: pos}, nil
	case ch == '+':
		return Token{Type: TOKEN_PLUS, Pos: pos}, nil
	case ch == '-':
		return Token{Type: TOKEN_MINUS, Pos: pos}, nil
	case ch == '*':
		return Token{Type: TOKEN_STAR, Pos: pos}, nil
	case ch == '/':
		return Token{Type: TOKEN_SLASH, Pos: pos}, nil
	}

	if tt, ok := simple[ch]; ok {
		return Token{Type: tt, Pos: pos}, nil
	}

	return Token{}, LexError{Pos: pos, Err: ErrBadCharacter(ch)}
}

// lexCompare handles <, <=, <u, <=u and the > family. The first rune has
// already been consumed.
func (l *Lexer) lexCompare(pos Position, first rune) Token {
	equal := false
	if l.peek() == '=' {
		equal = true
		l.advance()
	}
	if first == '<' && equal && l.peek() == '>' {
		l.advance()
		return Token{Type: TOKEN_SWAP, Pos: pos}
	}
	unsigned := false
	if l.peek() == 'u' {
		unsigned = true
		l.advance()
	}

	var tt TokenType
	switch {
	case first == '<' && !equal && !unsigned:
		tt = TOKEN_LT
	case first == '<' && equal && !unsigned:
		tt = TOKEN_LE
	case first == '<' && !equal && unsigned:
		tt = TOKEN_LT_U
	case first == '<' && equal && unsigned:
		tt = TOKEN_LE_U
	case first == '>' && !equal && !unsigned:
		tt = TOKEN_GT
	case first == '>' && equal && !unsigned:
		tt = TOKEN_GE
	case first == '>' && !equal && unsigned:
		tt = TOKEN_GT_U
	default:
		tt = TOKEN_GE_U
	}
	return Token{Type: tt, Pos: pos}
}

func (l *Lexer) lexName(pos Position) (token Token, err error) {
	var sb strings.Builder
	directive := false
	if l.peek() == '.' {
		directive = true
		l.advance()
	}
	for l.at < len(l.src) {
		ch := l.peek()
		if ch != '_' && !unicode.IsLetter(ch) && !unicode.IsDigit(ch) {
			break
		}
		sb.WriteRune(l.advance())
	}

	tt := TOKEN_IDENT
	if directive {
		tt = TOKEN_DIRECTIVE
	}
	if sb.Len() == 0 {
		return Token{}, LexError{Pos: pos, Err: ErrBadCharacter('.')}
	}
	return Token{Type: tt, Literal: sb.String(), Pos: pos}, nil
}

func (l *Lexer) lexNumber(pos Position) (token Token, err error) {
	var sb strings.Builder
	for l.at < len(l.src) {
		ch := l.peek()
		if ch != '_' && ch != 'x' && ch != 'X' && ch != 'b' && ch != 'B' &&
			!unicode.IsDigit(ch) && !isHexDigit(ch) {
			break
		}
		sb.WriteRune(l.advance())
	}

	text := sb.String()
	value, perr := strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 0, 64)
	if perr != nil {
		return Token{}, LexError{Pos: pos, Err: ErrBadNumber(text)}
	}
	return Token{Type: TOKEN_INT, Value: value, Pos: pos}, nil
}

func isHexDigit(ch rune) bool {
	return (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func (l *Lexer) lexString(pos Position) (token Token, err error) {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.at >= len(l.src) || l.peek() == '\n' {
			return Token{}, LexError{Pos: pos, Err: ErrUnterminatedString}
		}
		ch := l.advance()
		if ch == '"' {
			return Token{Type: TOKEN_STRING, Literal: sb.String(), Pos: pos}, nil
		}
		if ch == '\\' {
			if l.at >= len(l.src) {
				return Token{}, LexError{Pos: pos, Err: ErrUnterminatedString}
			}
			switch esc := l.advance(); esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			case '0':
				sb.WriteByte(0)
			default:
				return Token{}, LexError{Pos: pos, Err: ErrBadEscape(esc)}
			}
			continue
		}
		sb.WriteRune(ch)
	}
}

// lexExpr captures a $( ... ) expression, tracking nested parentheses.
// The text between the outer parentheses is kept verbatim for the
// parser to evaluate.
func (l *Lexer) lexExpr(pos Position) (token Token, err error) {
	l.advance() // $
	if l.peek() != '(' {
		return Token{}, LexError{Pos: pos, Err: ErrBadCharacter('$')}
	}
	l.advance()

	var sb strings.Builder
	depth := 1
	for {
		if l.at >= len(l.src) || l.peek() == '\n' {
			return Token{}, LexError{Pos: pos, Err: ErrUnterminatedExpr}
		}
		ch := l.advance()
		if ch == '(' {
			depth++
		}
		if ch == ')' {
			depth--
			if depth == 0 {
				return Token{Type: TOKEN_EXPR, Literal: sb.String(), Pos: pos}, nil
			}
		}
		sb.WriteRune(ch)
	}
}
