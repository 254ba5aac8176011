package lsp

import (
	"encoding/json"
	"strings"

	"github.com/nrfconnect/kconfiglsp/internal/textdoc"
	"github.com/nrfconnect/kconfiglsp/internal/uri"
)

// registerStandard wires the supported standard LSP subset:
// initialize/shutdown, the textDocument/* buffer and navigation
// methods, and the $/* notifications every LSP server tolerates.
// Capabilities advertise incremental sync and a provider for every
// method in this list.
func (s *Server) registerStandard() {
	s.dispatcher.Register("initialize", s.handleInitialize)
	s.dispatcher.Register("shutdown", s.handleShutdown)
	s.dispatcher.Register("textDocument/didOpen", s.handleDidOpen)
	s.dispatcher.Register("textDocument/didChange", s.handleDidChange)
	s.dispatcher.Register("textDocument/didClose", s.handleDidClose)
	s.dispatcher.Register("textDocument/hover", s.handleHover)
	s.dispatcher.Register("textDocument/definition", s.handleDefinition)
	s.dispatcher.Register("textDocument/completion", s.handleCompletion)
	s.dispatcher.Register("textDocument/codeAction", s.handleCodeAction)
	s.dispatcher.Register("$/setTrace", noop)
	s.dispatcher.Register("$/cancelRequest", noop)
	s.dispatcher.Register("$/progress", noop)
}

func noop(json.RawMessage) (interface{}, *Error) { return nil, nil }

type serverCapabilities struct {
	TextDocumentSync   int  `json:"textDocumentSync"` // 2 == Incremental
	HoverProvider      bool `json:"hoverProvider"`
	DefinitionProvider bool `json:"definitionProvider"`
	CompletionProvider struct {
		TriggerCharacters []string `json:"triggerCharacters"`
	} `json:"completionProvider"`
	CodeActionProvider bool `json:"codeActionProvider"`
}

func (s *Server) handleInitialize(json.RawMessage) (interface{}, *Error) {
	caps := serverCapabilities{TextDocumentSync: 2, HoverProvider: true, DefinitionProvider: true, CodeActionProvider: true}
	caps.CompletionProvider.TriggerCharacters = []string{"_"}
	return map[string]interface{}{"capabilities": caps}, nil
}

func (s *Server) handleShutdown(json.RawMessage) (interface{}, *Error) { return nil, nil }

type textDocumentIdentifier struct {
	URI string `json:"uri"`
}

type versionedTextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

type didOpenParams struct {
	TextDocument versionedTextDocumentItem `json:"textDocument"`
}

func (s *Server) handleDidOpen(raw json.RawMessage) (interface{}, *Error) {
	var p didOpenParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	if s.Docs != nil {
		s.Docs.Open(p.TextDocument.URI, p.TextDocument.LanguageID, p.TextDocument.Version, p.TextDocument.Text)
	}
	return nil, nil
}

type contentChange struct {
	Text string `json:"text"`
}

type didChangeParams struct {
	TextDocument   versionedTextDocumentItem `json:"textDocument"`
	ContentChanges []contentChange           `json:"contentChanges"`
}

func (s *Server) handleDidChange(raw json.RawMessage) (interface{}, *Error) {
	var p didChangeParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	if s.Docs != nil && len(p.ContentChanges) > 0 {
		s.Docs.Change(p.TextDocument.URI, p.TextDocument.Version, p.ContentChanges[len(p.ContentChanges)-1].Text)
	}
	if ctx, ok := s.Manager.ContextForURI(p.TextDocument.URI); ok {
		_ = s.Manager.LoadConfig(ctx.ID)
	}
	return nil, nil
}

type didCloseParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
}

func (s *Server) handleDidClose(raw json.RawMessage) (interface{}, *Error) {
	var p didCloseParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	if s.Docs != nil {
		s.Docs.Close(p.TextDocument.URI)
	}
	return nil, nil
}

type positionParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

func (s *Server) handleHover(raw json.RawMessage) (interface{}, *Error) {
	var p positionParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	name, ok := s.Manager.SymbolAt(p.TextDocument.URI, p.Position.Line, p.Position.Character)
	if !ok {
		return nil, nil
	}
	ctx, ok := s.Manager.ContextForURI(p.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	text, err := s.Manager.Hover(ctx.ID, name)
	if err != nil {
		return nil, nil
	}
	return map[string]interface{}{"contents": text}, nil
}

func (s *Server) handleDefinition(raw json.RawMessage) (interface{}, *Error) {
	var p positionParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	name, ok := s.Manager.SymbolAt(p.TextDocument.URI, p.Position.Line, p.Position.Character)
	if !ok {
		return nil, nil
	}
	ctx, ok := s.Manager.ContextForURI(p.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	locs, err := s.Manager.LocationsOf(ctx.ID, name)
	if err != nil {
		return nil, nil
	}
	out := make([]map[string]interface{}, 0, len(locs))
	for _, l := range locs {
		out = append(out, map[string]interface{}{
			"uri": uri.File(l.File).String(),
			"range": Range{
				Start: Position{Line: l.Line, Character: 0},
				End:   Position{Line: l.Line, Character: 0},
			},
		})
	}
	return out, nil
}

func (s *Server) handleCompletion(raw json.RawMessage) (interface{}, *Error) {
	var p positionParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	ctx, ok := s.Manager.ContextForURI(p.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	prefix := completionPrefix(s.Docs, p.TextDocument.URI, p.Position)
	items, err := s.Manager.Complete(ctx.ID, prefix)
	if err != nil {
		return nil, nil
	}
	out := make([]map[string]interface{}, 0, len(items))
	for _, it := range items {
		out = append(out, map[string]interface{}{
			"label":         "CONFIG_" + it.Name,
			"detail":        string(it.Type),
			"documentation": it.Help,
		})
	}
	return out, nil
}

// completionPrefix extracts the partial "CONFIG_..." token ending at
// pos from the document's current text, or "" if the store has
// nothing open for uri (e.g. completion requested before didOpen).
func completionPrefix(docs DocumentStore, u string, pos Position) string {
	if docs == nil {
		return ""
	}
	text, ok := docs.Text(u)
	if !ok {
		return ""
	}
	doc := textdoc.New(uri.Parse(u), text, -1)
	line, ok := doc.Line(pos.Line)
	if !ok {
		return ""
	}
	col := pos.Character
	if col > len(line) {
		col = len(line)
	}
	upto := line[:col]
	i := strings.LastIndexAny(upto, " \t")
	return upto[i+1:]
}

type codeActionContext struct {
	Diagnostics []publishedDiagnostic `json:"diagnostics"`
}

type codeActionParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Range        Range                  `json:"range"`
	Context      codeActionContext      `json:"context"`
}

// handleCodeAction re-surfaces the quick fixes already attached to the
// diagnostics the client sent back in params.context.diagnostics — the
// Diagnostic Engine computes CodeActions once, at diagnose.Run time;
// this handler does not recompute anything, it only re-shapes what the
// client already has.
func (s *Server) handleCodeAction(raw json.RawMessage) (interface{}, *Error) {
	var p codeActionParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	var out []map[string]interface{}
	for _, d := range p.Context.Diagnostics {
		for _, ca := range d.CodeActions {
			out = append(out, map[string]interface{}{
				"title": ca.Title,
				"kind":  ca.Kind,
				"edit": map[string]interface{}{
					"changes": map[string][]textEdit{p.TextDocument.URI: ca.Edits},
				},
			})
		}
	}
	return out, nil
}
