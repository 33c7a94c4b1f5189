// Package parser implements the w++ recursive-descent parser.
//
// Grounded in the teacher's Pratt/recursive-descent parser
// (daios-ai-msg/parser.go) in spirit — operator handling, a small
// left-to-right expression grammar, an "interactive" incomplete-input
// mode for the REPL (see IsIncomplete) — adapted to w++'s much smaller
// surface: string literals, `..` concatenation, parenthesized grouping,
// `let`/`drop`/`prefix`, `{ }` blocks, `match`, bareword calls, and
// intrinsic keywords
// (spec.md §6's informative grammar).
//
// Per spec.md §1 the lexer+parser is "assumed to accept a source buffer
// plus a logical path and append nodes to the tree supplied to it,
// returning the node id of the resulting Document" — that is exactly
// Parse's signature below.
package parser

import (
	"fmt"

	"github.com/violetastcs/wotpp/internal/ast"
	"github.com/violetastcs/wotpp/internal/lexer"
)

// Error is a parse-time failure with a 1-based line and 0-based column,
// mirroring lexer.Error so both can be rendered identically by
// internal/diag.
type Error struct {
	Line, Col int
	Msg       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// Parse tokenizes and parses src as a top-level Document, appending all
// produced nodes to store and tagging every node's position with path.
// It returns the id of the Document node.
func Parse(store *ast.Store, path, src string) (ast.NodeID, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		le := err.(*lexer.Error)
		return ast.NodeEmpty, &Error{le.Line, le.Col, le.Msg}
	}
	p := &parser{store: store, path: path, toks: toks}
	id, err := p.document()
	if err != nil {
		return ast.NodeEmpty, err
	}
	if p.cur().Type != lexer.EOF {
		return ast.NodeEmpty, p.errorf("unexpected trailing input")
	}
	return id, nil
}

// IsIncomplete reports whether err resulted from input that could become
// valid by appending more text — used by the REPL (cmd/wpp) to decide
// whether to keep prompting for continuation lines rather than reporting
// a hard error, mirroring the teacher's interactive-parse convention
// (daios-ai-msg/parser.go's ParseSExprInteractiveWithSpans /
// IsIncomplete).
func IsIncomplete(err error) bool {
	pe, ok := err.(*Error)
	return ok && pe.Msg == incompleteMsg
}

const incompleteMsg = "incomplete input"

type parser struct {
	store *ast.Store
	path  string
	toks  []lexer.Token
	pos   int
}

func (p *parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) at(tt lexer.TokenType) bool { return p.cur().Type == tt }

func (p *parser) errorf(format string, args ...interface{}) *Error {
	t := p.cur()
	msg := fmt.Sprintf(format, args...)
	if t.Type == lexer.EOF {
		return &Error{t.Line, t.Col, incompleteMsg}
	}
	return &Error{t.Line, t.Col, msg}
}

func (p *parser) expect(tt lexer.TokenType, what string) (lexer.Token, error) {
	if !p.at(tt) {
		return lexer.Token{}, p.errorf("expected %s", what)
	}
	return p.advance(), nil
}

func (p *parser) posOf(t lexer.Token) ast.Position {
	return ast.Position{Path: p.path, Line: t.Line, Col: t.Col}
}

// skipSemis consumes zero or more statement-separating semicolons.
func (p *parser) skipSemis() {
	for p.at(lexer.SEMI) {
		p.advance()
	}
}

func (p *parser) document() (ast.NodeID, error) {
	start := p.cur()
	var stmts []ast.NodeID
	p.skipSemis()
	for !p.at(lexer.EOF) {
		id, err := p.statement()
		if err != nil {
			return ast.NodeEmpty, err
		}
		stmts = append(stmts, id)
		p.skipSemis()
	}
	return p.store.Append(ast.Node{Kind: ast.KindDocument, Pos: p.posOf(start), Stmts: stmts}), nil
}

func (p *parser) statement() (ast.NodeID, error) {
	switch p.cur().Type {
	case lexer.KwLet:
		return p.letStmt()
	case lexer.KwDrop:
		return p.dropStmt()
	default:
		return p.expr()
	}
}

func (p *parser) letStmt() (ast.NodeID, error) {
	kw := p.advance() // 'let'
	nameTok, err := p.expect(lexer.IDENT, "identifier after 'let'")
	if err != nil {
		return ast.NodeEmpty, err
	}

	if p.at(lexer.LPAREN) {
		p.advance()
		var params []string
		if !p.at(lexer.RPAREN) {
			for {
				pt, err := p.expect(lexer.IDENT, "parameter name")
				if err != nil {
					return ast.NodeEmpty, err
				}
				params = append(params, pt.Value)
				if p.at(lexer.COMMA) {
					p.advance()
					continue
				}
				break
			}
		}
		if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
			return ast.NodeEmpty, err
		}
		body, err := p.expr()
		if err != nil {
			return ast.NodeEmpty, err
		}
		return p.store.Append(ast.Node{
			Kind: ast.KindFn, Pos: p.posOf(kw), Name: nameTok.Value, Params: params, Body: body,
		}), nil
	}

	body, err := p.expr()
	if err != nil {
		return ast.NodeEmpty, err
	}
	return p.store.Append(ast.Node{
		Kind: ast.KindVar, Pos: p.posOf(kw), Name: nameTok.Value, Body: body,
	}), nil
}

func (p *parser) dropStmt() (ast.NodeID, error) {
	kw := p.advance() // 'drop'
	target, err := p.call()
	if err != nil {
		return ast.NodeEmpty, err
	}
	if p.store.Get(target).Kind != ast.KindFnInvoke {
		return ast.NodeEmpty, &Error{kw.Line, kw.Col, "drop requires a function invocation target"}
	}
	return p.store.Append(ast.Node{Kind: ast.KindDrop, Pos: p.posOf(kw), Target: target}), nil
}

// expr parses a `..`-concatenation chain of primaries, left-associative.
func (p *parser) expr() (ast.NodeID, error) {
	lhs, err := p.primary()
	if err != nil {
		return ast.NodeEmpty, err
	}
	for p.at(lexer.DOTDOT) {
		tok := p.advance()
		rhs, err := p.primary()
		if err != nil {
			return ast.NodeEmpty, err
		}
		lhs = p.store.Append(ast.Node{Kind: ast.KindConcat, Pos: p.posOf(tok), Lhs: lhs, Rhs: rhs})
	}
	return lhs, nil
}

func (p *parser) primary() (ast.NodeID, error) {
	t := p.cur()
	switch t.Type {
	case lexer.STRING:
		p.advance()
		return p.store.Append(ast.Node{Kind: ast.KindString, Pos: p.posOf(t), Str: t.Value}), nil

	case lexer.NUMBER:
		p.advance()
		return p.store.Append(ast.Node{Kind: ast.KindString, Pos: p.posOf(t), Str: t.Value}), nil

	case lexer.CODESTR:
		p.advance()
		inner := p.store.Append(ast.Node{Kind: ast.KindString, Pos: p.posOf(t), Str: t.Value})
		return p.store.Append(ast.Node{Kind: ast.KindCodeify, Pos: p.posOf(t), Expr: inner}), nil

	case lexer.LPAREN:
		p.advance()
		inner, err := p.expr()
		if err != nil {
			return ast.NodeEmpty, err
		}
		if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
			return ast.NodeEmpty, err
		}
		return inner, nil

	case lexer.LBRACE:
		return p.block()

	case lexer.KwMatch:
		return p.matchExpr()

	case lexer.KwPrefix:
		return p.preExpr()

	case lexer.IDENT:
		return p.call()

	default:
		if lexer.IsIntrinsicKeyword(t.Type) {
			return p.intrinsic()
		}
		return ast.NodeEmpty, p.errorf("unexpected token %q", t.Lexeme)
	}
}

// call parses `IDENT` or `IDENT '(' args ')'` into a KindFnInvoke node.
func (p *parser) call() (ast.NodeID, error) {
	nameTok, err := p.expect(lexer.IDENT, "identifier")
	if err != nil {
		return ast.NodeEmpty, err
	}
	var args []ast.NodeID
	if p.at(lexer.LPAREN) {
		p.advance()
		if !p.at(lexer.RPAREN) {
			args, err = p.argList()
			if err != nil {
				return ast.NodeEmpty, err
			}
		}
		if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
			return ast.NodeEmpty, err
		}
	}
	return p.store.Append(ast.Node{
		Kind: ast.KindFnInvoke, Pos: p.posOf(nameTok), Name: nameTok.Value, Args: args,
	}), nil
}

func (p *parser) argList() ([]ast.NodeID, error) {
	var args []ast.NodeID
	for {
		a, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		return args, nil
	}
}

var intrinsicKind = map[lexer.TokenType]ast.IntrinsicKind{
	lexer.KwAssert: ast.IntrinsicAssert,
	lexer.KwError:  ast.IntrinsicError,
	lexer.KwFile:   ast.IntrinsicFile,
	lexer.KwSource: ast.IntrinsicSource,
	lexer.KwEscape: ast.IntrinsicEscape,
	lexer.KwEval:   ast.IntrinsicEval,
	lexer.KwRun:    ast.IntrinsicRun,
	lexer.KwPipe:   ast.IntrinsicPipe,
	lexer.KwSlice:  ast.IntrinsicSlice,
	lexer.KwFind:   ast.IntrinsicFind,
	lexer.KwLength: ast.IntrinsicLength,
	lexer.KwLog:    ast.IntrinsicLog,
}

func (p *parser) intrinsic() (ast.NodeID, error) {
	kwTok := p.advance()
	kind := intrinsicKind[kwTok.Type]
	if _, err := p.expect(lexer.LPAREN, "'(' after "+kwTok.Lexeme); err != nil {
		return ast.NodeEmpty, err
	}
	var args []ast.NodeID
	var err error
	if !p.at(lexer.RPAREN) {
		args, err = p.argList()
		if err != nil {
			return ast.NodeEmpty, err
		}
	}
	if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
		return ast.NodeEmpty, err
	}
	// Arity is enforced by the evaluator (spec.md §4.3's bad-arity check),
	// not here, so that a malformed call still parses into a well-formed
	// tree and the evaluator's dedicated error path is exercised.
	return p.store.Append(ast.Node{
		Kind: ast.KindIntrinsic, Pos: p.posOf(kwTok), Name: kwTok.Lexeme, IntrinsicKind: kind, Args: args,
	}), nil
}

// block parses `{ stmt; stmt; ...; expr }`.
func (p *parser) block() (ast.NodeID, error) {
	open, err := p.expect(lexer.LBRACE, "'{'")
	if err != nil {
		return ast.NodeEmpty, err
	}
	var items []ast.NodeID
	for {
		id, err := p.statement()
		if err != nil {
			return ast.NodeEmpty, err
		}
		items = append(items, id)
		if p.at(lexer.SEMI) {
			p.advance()
			if p.at(lexer.RBRACE) {
				// trailing semicolon with nothing after: last item stays the expr
				break
			}
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBRACE, "'}'"); err != nil {
		return ast.NodeEmpty, err
	}
	if len(items) == 0 {
		return ast.NodeEmpty, &Error{open.Line, open.Col, "empty block"}
	}
	stmts := items[:len(items)-1]
	trailing := items[len(items)-1]
	return p.store.Append(ast.Node{Kind: ast.KindBlock, Pos: p.posOf(open), Stmts: stmts, Expr: trailing}), nil
}

// matchExpr parses `match EXPR { KEY -> VAL, ..., * -> VAL }`.
func (p *parser) matchExpr() (ast.NodeID, error) {
	kw := p.advance() // 'match'
	test, err := p.expr()
	if err != nil {
		return ast.NodeEmpty, err
	}
	if _, err := p.expect(lexer.LBRACE, "'{' after match expression"); err != nil {
		return ast.NodeEmpty, err
	}

	var cases []ast.CaseArm
	defaultID := ast.NodeEmpty
	haveDefault := false

	if !p.at(lexer.RBRACE) {
		for {
			if p.at(lexer.STAR) {
				starTok := p.advance()
				if haveDefault {
					return ast.NodeEmpty, &Error{starTok.Line, starTok.Col, "duplicate default arm in match"}
				}
				if _, err := p.expect(lexer.ARROW, "'->'"); err != nil {
					return ast.NodeEmpty, err
				}
				val, err := p.expr()
				if err != nil {
					return ast.NodeEmpty, err
				}
				defaultID = val
				haveDefault = true
			} else {
				key, err := p.expr()
				if err != nil {
					return ast.NodeEmpty, err
				}
				if _, err := p.expect(lexer.ARROW, "'->'"); err != nil {
					return ast.NodeEmpty, err
				}
				val, err := p.expr()
				if err != nil {
					return ast.NodeEmpty, err
				}
				cases = append(cases, ast.CaseArm{Key: key, Value: val})
			}
			if p.at(lexer.COMMA) {
				p.advance()
				if p.at(lexer.RBRACE) {
					break
				}
				continue
			}
			break
		}
	}
	if _, err := p.expect(lexer.RBRACE, "'}'"); err != nil {
		return ast.NodeEmpty, err
	}
	return p.store.Append(ast.Node{
		Kind: ast.KindMap, Pos: p.posOf(kw), Test: test, Cases: cases, Default: defaultID,
	}), nil
}

// preExpr parses `prefix EXPR (',' EXPR)* { STMTS }`.
func (p *parser) preExpr() (ast.NodeID, error) {
	kw := p.advance() // 'prefix'
	var prefixes []ast.NodeID
	for {
		e, err := p.expr()
		if err != nil {
			return ast.NodeEmpty, err
		}
		prefixes = append(prefixes, e)
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.LBRACE, "'{' after prefix list"); err != nil {
		return ast.NodeEmpty, err
	}
	var stmts []ast.NodeID
	p.skipSemis()
	for !p.at(lexer.RBRACE) {
		id, err := p.statement()
		if err != nil {
			return ast.NodeEmpty, err
		}
		stmts = append(stmts, id)
		p.skipSemis()
	}
	if _, err := p.expect(lexer.RBRACE, "'}'"); err != nil {
		return ast.NodeEmpty, err
	}
	return p.store.Append(ast.Node{Kind: ast.KindPre, Pos: p.posOf(kw), Prefixes: prefixes, Stmts: stmts}), nil
}
