package kconfig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nrfconnect/kconfiglsp/internal/kconfig/expr"
)

type tokKind int

const (
	tokIdent tokKind = iota
	tokString
	tokNum
	tokAnd
	tokOr
	tokNot
	tokEq
	tokNeq
	tokLt
	tokLe
	tokGt
	tokGe
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
	num  int64
}

// lex tokenizes one Kconfig expression. This is intentionally small:
// Kconfig expressions are symbol names, quoted strings, numeric
// literals, the connectives && || !, the comparisons = != < <= > >=,
// and parentheses.
func lex(s string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen})
			i++
		case c == '&' && i+1 < len(s) && s[i+1] == '&':
			toks = append(toks, token{kind: tokAnd})
			i += 2
		case c == '|' && i+1 < len(s) && s[i+1] == '|':
			toks = append(toks, token{kind: tokOr})
			i += 2
		case c == '!' && i+1 < len(s) && s[i+1] == '=':
			toks = append(toks, token{kind: tokNeq})
			i += 2
		case c == '!':
			toks = append(toks, token{kind: tokNot})
			i++
		case c == '=':
			toks = append(toks, token{kind: tokEq})
			i++
		case c == '<' && i+1 < len(s) && s[i+1] == '=':
			toks = append(toks, token{kind: tokLe})
			i += 2
		case c == '<':
			toks = append(toks, token{kind: tokLt})
			i++
		case c == '>' && i+1 < len(s) && s[i+1] == '=':
			toks = append(toks, token{kind: tokGe})
			i += 2
		case c == '>':
			toks = append(toks, token{kind: tokGt})
			i++
		case c == '"':
			end := strings.IndexByte(s[i+1:], '"')
			if end < 0 {
				return nil, fmt.Errorf("unterminated string literal in %q", s)
			}
			toks = append(toks, token{kind: tokString, text: s[i+1 : i+1+end]})
			i = i + 1 + end + 1
		case isIdentStart(c):
			j := i + 1
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			word := s[i:j]
			if n, err := strconv.ParseInt(word, 0, 64); err == nil {
				toks = append(toks, token{kind: tokNum, num: n})
			} else {
				toks = append(toks, token{kind: tokIdent, text: word})
			}
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q in expression %q", c, s)
		}
	}
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c == '.' || c == '/' || c == '-'
}

// exprParser is a small recursive-descent parser over the token stream,
// precedence OR < AND < NOT < comparison < primary (the usual Kconfig
// grammar: || binds loosest, comparisons tightest).
type exprParser struct {
	toks  []token
	pos   int
	graph *Graph
	env   Env
	file  string
}

func (p *exprParser) cur() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *exprParser) parseOr() (*expr.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.cur()
		if !ok || t.kind != tokOr {
			return left, nil
		}
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = expr.Or(left, right)
	}
}

func (p *exprParser) parseAnd() (*expr.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.cur()
		if !ok || t.kind != tokAnd {
			return left, nil
		}
		p.pos++
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = expr.And(left, right)
	}
}

func (p *exprParser) parseNot() (*expr.Expr, error) {
	t, ok := p.cur()
	if ok && t.kind == tokNot {
		p.pos++
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return expr.Not(inner), nil
	}
	return p.parseCompare()
}

var compareKinds = map[tokKind]expr.Kind{
	tokEq:  expr.KEq,
	tokNeq: expr.KNeq,
	tokLt:  expr.KLt,
	tokLe:  expr.KLe,
	tokGt:  expr.KGt,
	tokGe:  expr.KGe,
}

func (p *exprParser) parseCompare() (*expr.Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	t, ok := p.cur()
	if ok {
		if k, isCompare := compareKinds[t.kind]; isCompare {
			p.pos++
			right, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			return expr.Compare(k, left, right), nil
		}
	}
	return left, nil
}

func (p *exprParser) parsePrimary() (*expr.Expr, error) {
	t, ok := p.cur()
	if !ok {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	switch t.kind {
	case tokLParen:
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		close, ok := p.cur()
		if !ok || close.kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return inner, nil
	case tokString:
		p.pos++
		return expr.StrLit(p.graph.expandEnv(p.env, t.text, p.file)), nil
	case tokNum:
		p.pos++
		return expr.NumLit(t.num), nil
	case tokIdent:
		p.pos++
		switch t.text {
		case "y":
			return expr.TriLit(expr.Yes), nil
		case "m":
			return expr.TriLit(expr.Mod), nil
		case "n":
			return expr.TriLit(expr.No), nil
		default:
			p.graph.SymbolOrNew(t.text)
			return expr.Symbol(t.text), nil
		}
	default:
		return nil, fmt.Errorf("unexpected token in expression")
	}
}
