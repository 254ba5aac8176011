package kconfig

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/nrfconnect/kconfiglsp/internal/kconfig/expr"
)

// FileOpener resolves a path to a readable text stream. The production
// Context Manager supplies a callback that prefers an in-editor unsaved
// buffer over the on-disk copy; tests pass a map-backed opener.
type FileOpener func(path string) (io.ReadCloser, error)

// OSOpener is the default FileOpener, reading straight from disk.
func OSOpener(path string) (io.ReadCloser, error) {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return nil, fmt.Errorf("%s: is a directory", path)
	}
	return os.Open(path)
}

// ParsingFailed is returned when the Kconfig root cannot be parsed. Any
// "file:line: error:" prefix the underlying message may have carried is
// stripped, 
type ParsingFailed struct {
	File string
	Line int
	Msg  string
}

var gccPrefix = regexp.MustCompile(`^[^:]+:\d+:\s*error:\s*`)

func (e *ParsingFailed) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message())
	}
	return e.Message()
}

// Message returns the human-readable message alone, without the
// location prefix and with any GCC-style "file:line: error:" prefix
// stripped.
func (e *ParsingFailed) Message() string {
	return gccPrefix.ReplaceAllString(e.Msg, "")
}

func fail(file string, line int, format string, args ...interface{}) error {
	return &ParsingFailed{File: file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Parse builds a Symbol Graph from the Kconfig tree rooted at rootPath.
func Parse(rootPath string, rawEnv map[string]string, open FileOpener) (*Graph, error) {
	if open == nil {
		open = OSOpener
	}
	g := NewGraph()
	p := &parser{graph: g, env: NewEnv(rawEnv), open: open}
	if err := p.parseFile(rootPath, nil, g.Top); err != nil {
		return nil, err
	}
	return g, nil
}

type parser struct {
	graph *Graph
	env   Env
	open  FileOpener
}

// scope carries state threaded through recursive parseFile/parseBlock
// calls: the enclosing menu node children attach under and the
// conjunction of all enclosing if/menu conditions.
type scope struct {
	parent NodeID
	cond   *expr.Expr
}

func (p *parser) parseFile(path string, condStack []*expr.Expr, parent NodeID) error {
	rc, err := p.open(path)
	if err != nil {
		return fail(path, 0, "%v", err)
	}
	defer rc.Close()

	lines, err := readLines(rc)
	if err != nil {
		return fail(path, 0, "%v", err)
	}
	p.graph.Files = append(p.graph.Files, path)

	dir := filepath.Dir(path)
	cur := &cursor{lines: lines, file: path, dir: dir}
	return p.parseBlock(cur, condStack, parent, nil)
}

type cursor struct {
	lines []string
	idx   int
	file  string
	dir   string
}

func (c *cursor) peek() (string, bool) {
	if c.idx >= len(c.lines) {
		return "", false
	}
	return c.lines[c.idx], true
}

func (c *cursor) next() (string, bool) {
	l, ok := c.peek()
	if ok {
		c.idx++
	}
	return l, ok
}

func (c *cursor) line() int { return c.idx }

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

// stopSet names the keywords that end the current block: "endmenu",
// "endchoice", "endif" depending on context, or end-of-file.
type stopSet map[string]bool

// parseBlock consumes statements until a stop keyword or EOF, attaching
// new menu nodes as children of parent. condStack accumulates enclosing
// if/menu/choice conditions; combined() ANDs them together.
func (p *parser) parseBlock(cur *cursor, condStack []*expr.Expr, parent NodeID, stop stopSet) error {
	for {
		raw, ok := cur.peek()
		if !ok {
			if stop != nil {
				return fail(cur.file, cur.line(), "unexpected end of file, expected one of %v", keys(stop))
			}
			return nil
		}
		line := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimSpace(line)
		lineNo := cur.line() + 1

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			cur.next()
			continue
		}

		kw, rest := splitKeyword(trimmed)
		if stop != nil && stop[kw] {
			cur.next()
			return nil
		}

		switch kw {
		case "source", "osource":
			cur.next()
			if err := p.doSource(cur, kw == "osource", rest, condStack, parent, lineNo); err != nil {
				return err
			}
		case "mainmenu":
			cur.next()
			_ = p.expandStr(rest, cur.file)
		case "menu":
			cur.next()
			if err := p.doMenu(cur, rest, condStack, parent, lineNo); err != nil {
				return err
			}
		case "choice":
			cur.next()
			if err := p.doChoice(cur, rest, condStack, parent, lineNo); err != nil {
				return err
			}
		case "if":
			cur.next()
			if err := p.doIf(cur, rest, condStack, parent); err != nil {
				return err
			}
		case "comment":
			cur.next()
			p.doComment(cur, rest, condStack, parent, lineNo)
		case "config", "menuconfig":
			cur.next()
			if err := p.doConfig(cur, rest, condStack, parent, lineNo, kw == "menuconfig"); err != nil {
				return err
			}
		default:
			return fail(cur.file, lineNo, "unexpected statement %q", trimmed)
		}
	}
}

func keys(m stopSet) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func splitKeyword(line string) (kw, rest string) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}

func (p *parser) expandStr(s, file string) string {
	return p.graph.expandEnv(p.env, unquote(s), file)
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	}
	return s
}

func (p *parser) doSource(cur *cursor, optional bool, rest string, condStack []*expr.Expr, parent NodeID, lineNo int) error {
	path := p.expandStr(rest, cur.file)
	if !filepath.IsAbs(path) {
		path = filepath.Join(cur.dir, path)
	}
	err := p.parseFile(path, condStack, parent)
	if err != nil {
		if optional {
			return nil
		}
		return err
	}
	return nil
}

func (p *parser) doIf(cur *cursor, rest string, condStack []*expr.Expr, parent NodeID) error {
	cond, err := p.parseExprStr(rest, cur.file)
	if err != nil {
		return fail(cur.file, cur.line(), "%v", err)
	}
	return p.parseBlock(cur, append(condStack, cond), parent, stopSet{"endif": true})
}

func (p *parser) doMenu(cur *cursor, rest string, condStack []*expr.Expr, parent NodeID, lineNo int) error {
	prompt := p.expandStr(rest, cur.file)
	id := p.graph.newNode(NodeMenu, cur.file, lineNo)
	n := p.graph.Node(id)
	n.Prompt = prompt
	n.PromptCond = combined(condStack)
	p.graph.AppendChild(parent, id)
	p.graph.Menus = append(p.graph.Menus, id)

	for {
		raw, ok := cur.peek()
		if !ok {
			break
		}
		trimmed := strings.TrimSpace(raw)
		kw, prest := splitKeyword(trimmed)
		if kw == "visible" && strings.HasPrefix(prest, "if") {
			cur.next()
			cond, err := p.parseExprStr(strings.TrimSpace(strings.TrimPrefix(prest, "if")), cur.file)
			if err != nil {
				return err
			}
			n.VisIf = cond
			continue
		}
		break
	}

	return p.parseBlock(cur, condStack, id, stopSet{"endmenu": true})
}

func (p *parser) doChoice(cur *cursor, rest string, condStack []*expr.Expr, parent NodeID, lineNo int) error {
	id := p.graph.newNode(NodeChoice, cur.file, lineNo)
	cid := ChoiceID(len(p.graph.Choices))
	ch := &Choice{ID: cid, NodeID: id, Type: TypeBool}
	p.graph.Choices = append(p.graph.Choices, ch)
	n := p.graph.Node(id)
	n.ChoiceID = cid
	n.PromptCond = combined(condStack)
	p.graph.AppendChild(parent, id)

	for {
		raw, ok := cur.peek()
		if !ok {
			return fail(cur.file, cur.line(), "unexpected end of file in choice block")
		}
		trimmed := strings.TrimSpace(raw)
		kw, prest := splitKeyword(trimmed)
		switch kw {
		case "endchoice":
			cur.next()
			return p.parseChoiceMembers(cur, condStack, id, ch)
		case "prompt":
			cur.next()
			text, _ := splitPromptCond(prest)
			ch.Prompt = p.expandStr(text, cur.file)
			n.Prompt = ch.Prompt
		case "bool", "tristate":
			cur.next()
			ch.Type = SymType(kw)
		case "default":
			cur.next()
			d, err := p.parseDefault(prest, cur.file)
			if err != nil {
				return err
			}
			ch.Defaults = append(ch.Defaults, d)
		case "help", "---help---":
			cur.next()
			skipHelpBlock(cur)
		case "config", "menuconfig":
			cur.next()
			if err := p.doConfig(cur, prest, condStack, id, cur.line(), kw == "menuconfig"); err != nil {
				return err
			}
		default:
			cur.next()
		}
	}
}

// parseChoiceMembers is a no-op: member symbols nested inside the choice
// body register themselves against ch via doConfig, which checks its
// parent node's Kind before returning. By the time doChoice reaches
// endchoice, ch.Symbols is already complete.
func (p *parser) parseChoiceMembers(cur *cursor, condStack []*expr.Expr, id NodeID, ch *Choice) error {
	return nil
}

func splitPromptCond(rest string) (text, condStr string) {
	if idx := strings.Index(rest, " if "); idx >= 0 {
		return rest[:idx], rest[idx+4:]
	}
	return rest, ""
}

func (p *parser) parseDefault(rest, file string) (Default, error) {
	text, condStr := splitPromptCond(rest)
	val, err := p.parseExprStr(text, file)
	if err != nil {
		return Default{}, err
	}
	var cond *expr.Expr
	if condStr != "" {
		cond, err = p.parseExprStr(condStr, file)
		if err != nil {
			return Default{}, err
		}
	}
	return Default{Expr: val, Cond: cond}, nil
}

func (p *parser) doComment(cur *cursor, rest string, condStack []*expr.Expr, parent NodeID, lineNo int) {
	text := p.expandStr(rest, cur.file)
	id := p.graph.newNode(NodeComment, cur.file, lineNo)
	n := p.graph.Node(id)
	n.Prompt = text
	n.PromptCond = combined(condStack)
	p.graph.AppendChild(parent, id)
	p.graph.Comments = append(p.graph.Comments, id)
}

func (p *parser) doConfig(cur *cursor, rest string, condStack []*expr.Expr, parent NodeID, lineNo int, isMenuconfig bool) error {
	name := strings.TrimSpace(rest)
	if name == "" {
		return fail(cur.file, lineNo, "config statement missing symbol name")
	}
	sym := p.graph.SymbolOrNew(name)

	id := p.graph.newNode(NodeSymbol, cur.file, lineNo)
	n := p.graph.Node(id)
	n.Symbol = name
	n.IsMenuconfig = isMenuconfig
	p.graph.AppendChild(parent, id)
	sym.NodeIDs = append(sym.NodeIDs, id)

	if pn := p.graph.Node(parent); pn != nil && pn.Kind == NodeChoice {
		if ch := p.graph.Choice(pn.ChoiceID); ch != nil {
			ch.Symbols = append(ch.Symbols, name)
		}
	}

	var direct *expr.Expr
	var promptCond *expr.Expr

	for {
		raw, ok := cur.peek()
		if !ok {
			break
		}
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			cur.next()
			continue
		}
		kw, prest := splitKeyword(trimmed)
		switch kw {
		case "bool", "tristate", "int", "hex", "string":
			cur.next()
			sym.Type = SymType(kw)
			if prest != "" {
				text, condStr := splitPromptCond(prest)
				n.Prompt = p.expandStr(unquote(text), cur.file)
				if condStr != "" {
					c, err := p.parseExprStr(condStr, cur.file)
					if err != nil {
						return err
					}
					promptCond = c
				} else {
					promptCond = expr.TriLit(expr.Yes)
				}
			}
		case "prompt":
			cur.next()
			text, condStr := splitPromptCond(prest)
			n.Prompt = p.expandStr(unquote(text), cur.file)
			if condStr != "" {
				c, err := p.parseExprStr(condStr, cur.file)
				if err != nil {
					return err
				}
				promptCond = c
			} else {
				promptCond = expr.TriLit(expr.Yes)
			}
		case "default":
			cur.next()
			d, err := p.parseDefault(prest, cur.file)
			if err != nil {
				return err
			}
			sym.Defaults = append(sym.Defaults, d)
		case "depends":
			cur.next()
			rest2 := strings.TrimPrefix(prest, "on")
			c, err := p.parseExprStr(strings.TrimSpace(rest2), cur.file)
			if err != nil {
				return err
			}
			direct = expr.And(direct, c)
		case "select":
			cur.next()
			target, condStr := splitPromptCond(prest)
			var cond *expr.Expr
			if condStr != "" {
				c, err := p.parseExprStr(condStr, cur.file)
				if err != nil {
					return err
				}
				cond = c
			}
			sym.Selects = append(sym.Selects, RevDep{Target: strings.TrimSpace(target), Cond: cond})
		case "imply":
			cur.next()
			target, condStr := splitPromptCond(prest)
			var cond *expr.Expr
			if condStr != "" {
				c, err := p.parseExprStr(condStr, cur.file)
				if err != nil {
					return err
				}
				cond = c
			}
			sym.Implies = append(sym.Implies, RevDep{Target: strings.TrimSpace(target), Cond: cond, IsImply: true})
		case "range":
			cur.next()
			r, err := p.parseRange(prest, cur.file)
			if err != nil {
				return err
			}
			sym.Ranges = append(sym.Ranges, r)
		case "help", "---help---":
			cur.next()
			n.Help = collectHelpBlock(cur)
		default:
			// Not a recognized config property: end of this config block.
			goto done
		}
	}
done:
	if promptCond != nil {
		n.PromptCond = combined(append(append([]*expr.Expr{}, condStack...), promptCond))
	}
	sym.Direct = combined(append(condStack, direct))
	return nil
}

func (p *parser) parseRange(rest, file string) (Range, error) {
	text, condStr := splitPromptCond(rest)
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return Range{}, fail(file, 0, "range expects two bounds, got %q", text)
	}
	low, err := p.parseExprStr(fields[0], file)
	if err != nil {
		return Range{}, err
	}
	high, err := p.parseExprStr(fields[1], file)
	if err != nil {
		return Range{}, err
	}
	var cond *expr.Expr
	if condStr != "" {
		cond, err = p.parseExprStr(condStr, file)
		if err != nil {
			return Range{}, err
		}
	}
	return Range{Low: low, High: high, Cond: cond}, nil
}

// skipHelpBlock discards a help block's body (used inside choice,
// where help text isn't modeled per-choice).
func skipHelpBlock(cur *cursor) {
	collectHelpBlock(cur)
}

// collectHelpBlock consumes the indented lines following a help/
// ---help--- keyword and returns them dedented, stopping at the first
// non-blank line indented less than the block's own first line.
func collectHelpBlock(cur *cursor) string {
	var indent = -1
	var lines []string
	for {
		raw, ok := cur.peek()
		if !ok {
			break
		}
		if strings.TrimSpace(raw) == "" {
			lines = append(lines, "")
			cur.next()
			continue
		}
		lineIndent := len(raw) - len(strings.TrimLeft(raw, " \t"))
		if indent == -1 {
			indent = lineIndent
			if indent == 0 {
				break // help with no indented body
			}
		}
		if lineIndent < indent {
			break
		}
		lines = append(lines, raw[indent:])
		cur.next()
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func combined(conds []*expr.Expr) *expr.Expr {
	var out *expr.Expr
	for _, c := range conds {
		out = expr.And(out, c)
	}
	return out
}

// parseExprStr lexes and parses a single Kconfig expression, expanding
// ${VAR} references in any string literal it contains first.
func (p *parser) parseExprStr(s, file string) (*expr.Expr, error) {
	toks, err := lex(s)
	if err != nil {
		return nil, fail(file, 0, "%v", err)
	}
	ep := &exprParser{toks: toks, graph: p.graph, env: p.env, file: file}
	e, err := ep.parseOr()
	if err != nil {
		return nil, fail(file, 0, "%v", err)
	}
	if ep.pos != len(ep.toks) {
		return nil, fail(file, 0, "unexpected trailing tokens in expression %q", s)
	}
	return e, nil
}
