package asm

import (
	"errors"
	"strings"

	"go.starlark.net/starlark"

	"github.com/trivm/trivm/isa"
)

// Parser turns a token stream into statements. Equates defined with
// .equ and $(...) expressions are resolved here, so the statement list
// carries only concrete values.
type Parser struct {
	tokens  []Token
	at      int
	equates starlark.StringDict
}

// NewParser returns a parser over tokens.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens, equates: starlark.StringDict{}}
}

// Parse tokenizes and parses src into a statement list.
func Parse(src string) (stmts []Stmt, err error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Program()
}

func (p *Parser) peek() Token {
	return p.tokens[p.at]
}

func (p *Parser) advance() Token {
	token := p.tokens[p.at]
	if token.Type != TOKEN_EOF {
		p.at++
	}
	return token
}

func (p *Parser) fail(token Token, msg string, args ...any) error {
	return ParseError{Line: token.Pos.Line, Err: errors.New(f(msg, args...))}
}

func (p *Parser) expect(tt TokenType) (token Token, err error) {
	token = p.advance()
	if token.Type != tt {
		return token, p.fail(token, "expected %v, found %v", tt, token)
	}
	return token, nil
}

func (p *Parser) endOfLine() error {
	token := p.advance()
	if token.Type != TOKEN_EOL && token.Type != TOKEN_EOF {
		return p.fail(token, "unexpected %v at end of statement", token)
	}
	return nil
}

// Program parses statements until end of file.
func (p *Parser) Program() (stmts []Stmt, err error) {
	for {
		switch p.peek().Type {
		case TOKEN_EOF:
			return stmts, nil
		case TOKEN_EOL:
			p.advance()
			continue
		}

		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		if err := p.endOfLine(); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) statement() (Stmt, error) {
	token := p.peek()
	at := line{Line: token.Pos.Line}

	switch token.Type {
	case TOKEN_DIRECTIVE:
		return nil, p.directive()

	case TOKEN_AT:
		return p.assignment(at)

	case TOKEN_LBRACKET:
		return p.store(at)

	case TOKEN_IDENT:
		return p.keyword(at)
	}

	return nil, p.fail(token, "unexpected %v", token)
}

// directive handles .equ NAME value. Equate values feed later $(...)
// expressions and may be used wherever an immediate is expected.
func (p *Parser) directive() error {
	token := p.advance()
	if token.Literal != "equ" {
		return p.fail(token, "unknown directive .%s", token.Literal)
	}
	name, err := p.expect(TOKEN_IDENT)
	if err != nil {
		return err
	}
	value, err := p.immediate()
	if err != nil {
		return err
	}
	p.equates[name.Literal] = starlark.MakeInt64(value)
	return nil
}

// immediate parses one integer-valued term: a literal, an equate name,
// a $(...) expression, or a '-' prefixed form of these.
func (p *Parser) immediate() (value int64, err error) {
	token := p.advance()
	switch token.Type {
	case TOKEN_MINUS:
		value, err = p.immediate()
		return -value, err

	case TOKEN_INT:
		return token.Value, nil

	case TOKEN_IDENT:
		bound, ok := p.equates[token.Literal]
		if !ok {
			return 0, p.fail(token, "undefined name %q", token.Literal)
		}
		n, _ := bound.(starlark.Int).Int64()
		return n, nil

	case TOKEN_EXPR:
		return p.eval(token)
	}
	return 0, p.fail(token, "expected a number, found %v", token)
}

// eval evaluates a $(...) expression with the equates in scope.
func (p *Parser) eval(token Token) (value int64, err error) {
	thread := &starlark.Thread{Name: "asm"}
	result, err := starlark.Eval(thread, token.Pos.String(), strings.TrimSpace(token.Literal), p.equates)
	if err != nil {
		return 0, ParseError{Line: token.Pos.Line, Err: err}
	}
	n, ok := result.(starlark.Int)
	if !ok {
		return 0, p.fail(token, "expression $(%s) is not a number", token.Literal)
	}
	value, _ = n.Int64()
	return value, nil
}

// word narrows an immediate into the 24-bit machine word. Values outside
// the signed and unsigned word ranges are rejected rather than silently
// truncated.
func word(lineNo int, value int64) (uint32, error) {
	if value < -(1<<(isa.WORD_BITS-1)) || value > (1<<isa.WORD_BITS)-1 {
		return 0, SemanticError{Line: lineNo, Err: ErrImmediateRange(value)}
	}
	return uint32(value) & isa.WORD_MASK, nil
}

// variable parses @name.
func (p *Parser) variable() (name string, err error) {
	if _, err = p.expect(TOKEN_AT); err != nil {
		return "", err
	}
	token, err := p.expect(TOKEN_IDENT)
	if err != nil {
		return "", err
	}
	return token.Literal, nil
}

// operand parses either @name or an immediate term.
func (p *Parser) operand() (op Operand, err error) {
	if p.peek().Type == TOKEN_AT {
		name, err := p.variable()
		if err != nil {
			return Operand{}, err
		}
		return Operand{Name: name}, nil
	}
	lineNo := p.peek().Pos.Line
	value, err := p.immediate()
	if err != nil {
		return Operand{}, err
	}
	imm, err := word(lineNo, value)
	if err != nil {
		return Operand{}, err
	}
	return Operand{Imm: imm, Immediate: true}, nil
}

var binaryOps = map[TokenType]bool{
	TOKEN_PLUS: true, TOKEN_MINUS: true, TOKEN_STAR: true,
	TOKEN_SLASH: true, TOKEN_PERCENT: true, TOKEN_AMP: true,
	TOKEN_PIPE: true, TOKEN_CARET: true, TOKEN_SHL: true, TOKEN_SHR: true,
}

var compareOps = map[TokenType]bool{
	TOKEN_EQ: true, TOKEN_NE: true, TOKEN_LT: true, TOKEN_GT: true,
	TOKEN_LE: true, TOKEN_GE: true, TOKEN_LT_U: true, TOKEN_GT_U: true,
	TOKEN_LE_U: true, TOKEN_GE_U: true,
}

// assignment parses every statement that starts with a variable:
// moves, immediate and string loads, expressions, compound updates and
// memory loads.
func (p *Parser) assignment(at line) (Stmt, error) {
	dst, err := p.variable()
	if err != nil {
		return nil, err
	}

	token := p.advance()
	switch token.Type {
	case TOKEN_PLUS_ASSIGN, TOKEN_MINUS_ASSIGN, TOKEN_STAR_ASSIGN, TOKEN_SLASH_ASSIGN:
		src, err := p.operand()
		if err != nil {
			return nil, err
		}
		return Compound{line: at, Dst: dst, Op: token.Type, Src: src}, nil

	case TOKEN_SWAP:
		other, err := p.variable()
		if err != nil {
			return nil, err
		}
		return Swap{line: at, A: dst, B: other}, nil

	case TOKEN_LBRACKET:
		// @base[@i] := @val
		index, err := p.variable()
		if err != nil {
			return nil, err
		}
		if _, err = p.expect(TOKEN_RBRACKET); err != nil {
			return nil, err
		}
		if _, err = p.expect(TOKEN_ASSIGN); err != nil {
			return nil, err
		}
		src, err := p.variable()
		if err != nil {
			return nil, err
		}
		return Store{line: at, Ptr: dst, Index: index, Src: src}, nil

	case TOKEN_ASSIGN:
	default:
		return nil, p.fail(token, "expected := after @%s", dst)
	}

	switch p.peek().Type {
	case TOKEN_STRING:
		text := p.advance()
		return LoadString{line: at, Dst: dst, Text: text.Literal}, nil

	case TOKEN_TILDE:
		p.advance()
		src, err := p.operand()
		if err != nil {
			return nil, err
		}
		return UnaryNot{line: at, Dst: dst, Src: src}, nil

	case TOKEN_LBRACKET:
		ptr, index, err := p.pointer()
		if err != nil {
			return nil, err
		}
		return Load{line: at, Dst: dst, Ptr: ptr, Index: index}, nil

	case TOKEN_IDENT:
		// Statement keywords on the right-hand side shadow equate names.
		switch p.peek().Literal {
		case "pop":
			p.advance()
			return Pop{line: at, Dst: dst}, nil
		case "peek":
			p.advance()
			return Peek{line: at, Dst: dst}, nil
		case "load":
			p.advance()
			ptr, err := p.variable()
			if err != nil {
				return nil, err
			}
			return Load{line: at, Dst: dst, Ptr: ptr}, nil
		case "alloc":
			p.advance()
			size, err := p.operand()
			if err != nil {
				return nil, err
			}
			return Alloc{line: at, Dst: dst, Size: size}, nil
		}
	}

	left, err := p.operand()
	if err != nil {
		return nil, err
	}

	// @dest := @base[@i]
	if !left.Immediate && p.peek().Type == TOKEN_LBRACKET {
		p.advance()
		index, err := p.variable()
		if err != nil {
			return nil, err
		}
		if _, err = p.expect(TOKEN_RBRACKET); err != nil {
			return nil, err
		}
		return Load{line: at, Dst: dst, Ptr: left.Name, Index: index}, nil
	}

	if op := p.peek().Type; binaryOps[op] {
		p.advance()
		right, err := p.operand()
		if err != nil {
			return nil, err
		}
		return BinOp{line: at, Dst: dst, Op: op, Left: left, Right: right}, nil
	}

	if left.Immediate {
		return LoadImm{line: at, Dst: dst, Imm: left.Imm}, nil
	}
	return Move{line: at, Dst: dst, Src: left.Name}, nil
}

// pointer parses [ptr] or [ptr + index].
func (p *Parser) pointer() (ptr, index string, err error) {
	if _, err = p.expect(TOKEN_LBRACKET); err != nil {
		return "", "", err
	}
	if ptr, err = p.variable(); err != nil {
		return "", "", err
	}
	if p.peek().Type == TOKEN_PLUS {
		p.advance()
		if index, err = p.variable(); err != nil {
			return "", "", err
		}
	}
	_, err = p.expect(TOKEN_RBRACKET)
	return ptr, index, err
}

// store parses [ptr] := src and [ptr + index] := src.
func (p *Parser) store(at line) (Stmt, error) {
	ptr, index, err := p.pointer()
	if err != nil {
		return nil, err
	}
	if _, err = p.expect(TOKEN_ASSIGN); err != nil {
		return nil, err
	}
	src, err := p.variable()
	if err != nil {
		return nil, err
	}
	return Store{line: at, Ptr: ptr, Index: index, Src: src}, nil
}

// keyword parses statements that start with a bare identifier: labels
// and the statement keywords.
func (p *Parser) keyword(at line) (Stmt, error) {
	token := p.advance()

	if p.peek().Type == TOKEN_COLON {
		p.advance()
		return Label{line: at, Name: token.Literal}, nil
	}

	switch token.Literal {
	case "halt":
		return Halt{line: at}, nil
	case "nop":
		return Nop{line: at}, nil
	case "return":
		return Return{line: at}, nil

	case "goto":
		target, err := p.expect(TOKEN_IDENT)
		if err != nil {
			return nil, err
		}
		return Goto{line: at, Target: target.Literal}, nil

	case "call":
		target, err := p.expect(TOKEN_IDENT)
		if err != nil {
			return nil, err
		}
		return Call{line: at, Target: target.Literal}, nil

	case "if":
		return p.conditional(at)

	case "push":
		src, err := p.variable()
		return Push{line: at, Src: src}, err
	case "pop":
		dst, err := p.variable()
		return Pop{line: at, Dst: dst}, err
	case "peek":
		dst, err := p.variable()
		return Peek{line: at, Dst: dst}, err

	case "swap":
		a, err := p.variable()
		if err != nil {
			return nil, err
		}
		if _, err = p.expect(TOKEN_COMMA); err != nil {
			return nil, err
		}
		b, err := p.variable()
		return Swap{line: at, A: a, B: b}, err

	case "print":
		if p.peek().Type == TOKEN_STRING {
			text := p.advance()
			return Print{line: at, Text: text.Literal, Str: true}, nil
		}
		src, err := p.variable()
		return Print{line: at, Src: src}, err

	case "read":
		dst, err := p.variable()
		return Read{line: at, Dst: dst}, err

	case "exit":
		src, err := p.variable()
		return Exit{line: at, Src: src}, err

	case "store":
		// store @val at @addr
		src, err := p.variable()
		if err != nil {
			return nil, err
		}
		kw, err := p.expect(TOKEN_IDENT)
		if err != nil {
			return nil, err
		}
		if kw.Literal != "at" {
			return nil, p.fail(kw, "expected at, found %v", kw)
		}
		ptr, err := p.variable()
		return Store{line: at, Ptr: ptr, Src: src}, err

	case "free":
		src, err := p.variable()
		return Free{line: at, Src: src}, err

	case "debug":
		src, err := p.variable()
		return Debug{line: at, Src: src}, err

	case "syscall":
		id, err := p.immediate()
		if err != nil {
			return nil, err
		}
		imm, err := word(at.Line, id)
		if err != nil {
			return nil, err
		}
		if _, err = p.expect(TOKEN_COMMA); err != nil {
			return nil, err
		}
		arg, err := p.variable()
		return Syscall{line: at, ID: imm, Arg: arg}, err
	}

	return nil, p.fail(token, "unknown statement %q", token.Literal)
}

// conditional parses if <operand> <cmp> <operand> goto <label>.
func (p *Parser) conditional(at line) (Stmt, error) {
	left, err := p.operand()
	if err != nil {
		return nil, err
	}

	cmp := p.advance()
	if !compareOps[cmp.Type] {
		return nil, p.fail(cmp, "expected a comparison, found %v", cmp)
	}

	right, err := p.operand()
	if err != nil {
		return nil, err
	}

	kw, err := p.expect(TOKEN_IDENT)
	if err != nil {
		return nil, err
	}
	compare := cmp.Type
	if kw.Literal == "unsigned" {
		if compare, err = unsignedCompare(cmp); err != nil {
			return nil, err
		}
		if kw, err = p.expect(TOKEN_IDENT); err != nil {
			return nil, err
		}
	}
	if kw.Literal != "goto" {
		return nil, p.fail(kw, "expected goto, found %v", kw)
	}

	target, err := p.expect(TOKEN_IDENT)
	if err != nil {
		return nil, err
	}
	return If{line: at, Left: left, Cmp: compare, Right: right, Target: target.Literal}, nil
}

// unsignedCompare maps an ordered comparison to its unsigned form for
// the trailing unsigned keyword. Equality does not change.
func unsignedCompare(cmp Token) (TokenType, error) {
	switch cmp.Type {
	case TOKEN_LT:
		return TOKEN_LT_U, nil
	case TOKEN_GT:
		return TOKEN_GT_U, nil
	case TOKEN_LE:
		return TOKEN_LE_U, nil
	case TOKEN_GE:
		return TOKEN_GE_U, nil
	case TOKEN_EQ, TOKEN_NE:
		return cmp.Type, nil
	}
	return 0, ParseError{Line: cmp.Pos.Line, Err: errors.New(f("%v cannot be unsigned", cmp.Type))}
}
