package lsp

import "github.com/nrfconnect/kconfiglsp/internal/diagnose"

// publishDiagnosticsParams mirrors the LSP PublishDiagnosticsParams
// notification body.
type publishDiagnosticsParams struct {
	URI         string                 `json:"uri"`
	Diagnostics []publishedDiagnostic `json:"diagnostics"`
}

type publishedDiagnostic struct {
	Range       Range        `json:"range"`
	Severity    int          `json:"severity"`
	Message     string       `json:"message"`
	Tags        []int        `json:"tags,omitempty"`
	CodeActions []codeAction `json:"codeActions,omitempty"`
}

type textEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

type codeAction struct {
	Title string     `json:"title"`
	Kind  string     `json:"kind"`
	Edits []textEdit `json:"edits"`
}

// toLSPDiagnostic translates a diagnose.Diagnostic (which addresses a
// confparse.Range, scoped to one entry's line) into the wire shape,
// collapsing the engine's line+column Ranges into LSP zero-based
// Position pairs.
func toLSPDiagnostic(d diagnose.Diagnostic) publishedDiagnostic {
	out := publishedDiagnostic{
		Range:    Range{Start: Position{Line: d.Line, Character: 0}, End: Position{Line: d.Line, Character: 0}},
		Severity: int(d.Severity),
		Message:  d.Message,
	}
	for _, t := range d.Tags {
		out.Tags = append(out.Tags, int(t))
	}
	for _, ca := range d.CodeActions {
		out.CodeActions = append(out.CodeActions, codeAction{
			Title: ca.Title,
			Kind:  "quickfix",
			Edits: toLSPEdits(ca.Edits),
		})
	}
	return out
}

func toLSPEdits(edits []diagnose.TextEdit) []textEdit {
	out := make([]textEdit, 0, len(edits))
	for _, e := range edits {
		out = append(out, textEdit{
			Range: Range{
				Start: Position{Line: e.Range.Line, Character: e.Range.StartCol},
				End:   Position{Line: e.Range.Line, Character: e.Range.EndCol},
			},
			NewText: e.NewText,
		})
	}
	return out
}
