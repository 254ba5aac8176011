package context

import (
	"fmt"
	"strings"

	"github.com/nrfconnect/kconfiglsp/internal/confparse"
	"github.com/nrfconnect/kconfiglsp/internal/uri"
)

// Location names a menu node's declaration site: the file it was
// declared in plus the 0-based line number.
type Location struct {
	File string
	Line int
}

// Hover renders the text a textDocument/hover response shows for name:
// its prompt, declared type, currently resolved value, and help text.
func (m *Manager) Hover(ctxID int, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, err := m.context(ctxID)
	if err != nil {
		return "", err
	}
	sym := ctx.Graph.Symbol(name)
	if sym == nil {
		return "", fmt.Errorf("unknown symbol %s", name)
	}
	prompt, help := promptAndHelp(ctx, sym)

	var b strings.Builder
	if prompt != "" {
		b.WriteString(prompt)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Type: %s\n", sym.Type)
	fmt.Fprintf(&b, "Value: %s\n", sym.Computed)
	if help != "" {
		b.WriteString("\n")
		b.WriteString(help)
	}
	return b.String(), nil
}

// LocationsOf returns every declaration site of name, in the order the
// parser discovered them.
func (m *Manager) LocationsOf(ctxID int, name string) ([]Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, err := m.context(ctxID)
	if err != nil {
		return nil, err
	}
	sym := ctx.Graph.Symbol(name)
	if sym == nil {
		return nil, fmt.Errorf("unknown symbol %s", name)
	}
	out := make([]Location, 0, len(sym.NodeIDs))
	for _, id := range sym.NodeIDs {
		n := ctx.Graph.Node(id)
		if n == nil {
			continue
		}
		line := n.Line - 1 // MenuNode.Line is 1-based
		if line < 0 {
			line = 0
		}
		out = append(out, Location{File: n.File, Line: line})
	}
	return out, nil
}

// SymbolAt reports the symbol name whose .conf assignment at docURI
// covers line/character, using the already-parsed entry ranges (no
// document-buffer access needed: that is the LSP Adapter's concern).
func (m *Manager) SymbolAt(docURI string, line, character int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, ok := m.contextForURILocked(docURI)
	if !ok {
		return "", false
	}
	path := uri.Parse(docURI).Path
	for _, e := range ctx.fileEntries[path] {
		if rangeContains(e.NameRange, line, character) || rangeContains(e.ValueRange, line, character) {
			return e.Name, true
		}
	}
	return "", false
}

func rangeContains(r confparse.Range, line, character int) bool {
	return r.Line == line && character >= r.StartCol && character <= r.EndCol
}

// Complete returns completion candidates for prefix, the partially
// typed "CONFIG_" name the LSP Adapter extracted from its own document
// buffer at line/character.
func (m *Manager) Complete(ctxID int, prefix string) ([]SymbolItem, error) {
	trimmed := strings.TrimPrefix(prefix, "CONFIG_")
	return m.SymbolSearch(ctxID, trimmed)
}

