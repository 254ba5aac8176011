// Package diagnose implements the Diagnostic Engine: a fixed four-step
// pipeline run per .conf entry, producing diagnostics with attached
// quick-fix code actions.
package diagnose

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nrfconnect/kconfiglsp/internal/confparse"
	"github.com/nrfconnect/kconfiglsp/internal/kconfig"
	"github.com/nrfconnect/kconfiglsp/internal/kconfig/expr"
	"github.com/nrfconnect/kconfiglsp/internal/resolve"
)

// Severity mirrors the LSP DiagnosticSeverity enum (1=Error..4=Hint).
type Severity int

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
	SeverityHint        Severity = 4
)

// Tag mirrors LSP DiagnosticTag; Unnecessary is the only one this engine uses.
type Tag int

const Unnecessary Tag = 1

// TextEdit replaces the text in Range with NewText, against the file
// named by Range.Line's owning entry (the caller supplies the document
// URI when translating to an LSP CodeAction).
type TextEdit struct {
	Range   confparse.Range
	NewText string
}

// CodeAction is one quick fix: a title plus the edits it would apply,
// in apply order.
type CodeAction struct {
	Title string
	Edits []TextEdit
}

// Diagnostic is one finding against a single .conf entry.
type Diagnostic struct {
	Line        int
	Severity    Severity
	Message     string
	Tags        []Tag
	CodeActions []CodeAction
}

// Run executes the fixed pipeline against every entry in entries whose
// name resolves to a known symbol in g, assuming g has already been
// Resolve()'d with these entries' values as the user-value map. Entries
// naming an unknown symbol are skipped — that case is reported earlier,
// by confparse.Apply's "undefined symbol assigned" warning.
func Run(g *kconfig.Graph, entries []confparse.Entry) []Diagnostic {
	env := resolve.Env(g)
	var out []Diagnostic
	for _, e := range entries {
		sym := g.Symbol(e.Name)
		if sym == nil {
			continue
		}
		if d := checkType(sym, e); d != nil {
			out = append(out, *d)
			continue
		}
		if d, handled := checkAssignment(g, sym, e, env); handled {
			if d != nil {
				out = append(out, *d)
			}
			continue
		}
		if d := checkVisibility(sym, e); d != nil {
			out = append(out, *d)
			continue
		}
		if d := checkDefaults(sym, e, env); d != nil {
			out = append(out, *d)
		}
	}
	return out
}

// typeMatches reports whether entry's literal type is compatible with
// sym's declared type, honoring the "m accepted where bool is accepted"
// carve-out.
func typeMatches(sym *kconfig.Symbol, e confparse.Entry) bool {
	switch sym.Type {
	case kconfig.TypeBool, kconfig.TypeTristate:
		return e.RawValue == "y" || e.RawValue == "n" || e.RawValue == "m"
	case kconfig.TypeInt:
		return e.Type == confparse.LitInt
	case kconfig.TypeHex:
		return e.Type == confparse.LitHex
	case kconfig.TypeString:
		return e.Type == confparse.LitString
	default:
		return true
	}
}

// checkType is pipeline step 1.
func checkType(sym *kconfig.Symbol, e confparse.Entry) *Diagnostic {
	if typeMatches(sym, e) {
		return nil
	}
	d := &Diagnostic{
		Line:     e.Line,
		Severity: SeverityError,
		Message:  fmt.Sprintf("Invalid type. Expected %s", sym.Type),
	}
	if sym.Type == kconfig.TypeInt && e.Type == confparse.LitHex {
		if n, err := strconv.ParseInt(e.RawValue[2:], 16, 64); err == nil {
			d.CodeActions = append(d.CodeActions, CodeAction{
				Title: "Convert value to int",
				Edits: []TextEdit{{Range: e.ValueRange, NewText: strconv.FormatInt(n, 10)}},
			})
		}
	}
	if sym.Type == kconfig.TypeHex && e.Type == confparse.LitInt {
		if n, err := strconv.ParseInt(e.RawValue, 10, 64); err == nil {
			d.CodeActions = append(d.CodeActions, CodeAction{
				Title: "Convert value to hex",
				Edits: []TextEdit{{Range: e.ValueRange, NewText: fmt.Sprintf("0x%x", n)}},
			})
		}
	}
	return d
}

// requestedValue converts e into the Value a correctly-typed assignment
// would request, assuming typeMatches(sym, e) already holds.
func requestedValue(sym *kconfig.Symbol, e confparse.Entry) kconfig.Value {
	v, _ := resolve.FromEntry(sym.Type, e)
	return v
}

// checkAssignment is pipeline step 2. handled is true when this step
// attached a diagnostic; false passes the entry on to the later steps
// (check_visibility for an invisible symbol, check_defaults for an
// assignment that took effect).
func checkAssignment(g *kconfig.Graph, sym *kconfig.Symbol, e confparse.Entry, env expr.Lookup) (*Diagnostic, bool) {
	if sym.Visibility == expr.No {
		return nil, false
	}
	requested := requestedValue(sym, e)
	if sym.Computed == requested {
		return nil, false
	}

	isTri := sym.Type == kconfig.TypeBool || sym.Type == kconfig.TypeTristate
	threshold := expr.Mod
	if isTri {
		threshold = requested.Tri
	}
	missing := expr.MissingDeps(sym.Direct, threshold, env)

	msg := assignmentMessage(sym, e, requested)
	if len(missing) > 0 {
		deps := make([]string, len(missing))
		for i, m := range missing {
			deps[i] = m.String()
		}
		msg += "\n\nMissing dependencies:\n" + strings.Join(deps, " && ")
	}
	d := &Diagnostic{Line: e.Line, Severity: SeverityWarning, Message: msg}

	if isTri {
		d.CodeActions = append(d.CodeActions, missingDepActions(g, e, missing)...)
	}
	d.CodeActions = append(d.CodeActions, removeEntryAction(e))
	return d, true
}

// assignmentMessage picks between the comparative and "couldn't be set"
// forms Open Question resolution: "couldn't be set"
// when the resolved value is the type's empty/zero value, else the
// comparative form naming both values.
func assignmentMessage(sym *kconfig.Symbol, e confparse.Entry, requested kconfig.Value) string {
	if sym.Computed == kconfig.ZeroValue(sym.Type) {
		return fmt.Sprintf("CONFIG_%s couldn't be set", e.Name)
	}
	return fmt.Sprintf("CONFIG_%s was assigned %s, but got %s", e.Name, requested, sym.Computed)
}

// missingDepActions builds one "Enable CONFIG_D" action per missing
// bool dependency plus, when there are two or more, one compound action
// applying all of them in reverse registration order (outermost first),
// step 2 and §8 scenario 3.
func missingDepActions(g *kconfig.Graph, e confparse.Entry, missing []*expr.Expr) []CodeAction {
	var actions []CodeAction
	var compoundEdits []TextEdit
	var names []string

	for _, m := range missing {
		if m.Kind != expr.KSymbol {
			continue
		}
		name := m.Sym
		names = append(names, name)
		edit := enableEdit(g, e, name)
		compoundEdits = append(compoundEdits, edit)
		actions = append(actions, CodeAction{
			Title: fmt.Sprintf("Enable CONFIG_%s", name),
			Edits: []TextEdit{edit},
		})
	}

	if len(compoundEdits) >= 2 {
		reversed := make([]TextEdit, len(compoundEdits))
		for i, edit := range compoundEdits {
			reversed[len(compoundEdits)-1-i] = edit
		}
		actions = append(actions, CodeAction{
			Title: fmt.Sprintf("Enable %d entries to resolve dependencies", len(compoundEdits)),
			Edits: reversed,
		})
	}
	return actions
}

// enableEdit builds the edit that sets dep=y by inserting a
// "CONFIG_<dep>=y" line at the start of e's line. It always inserts:
// an existing entry for dep elsewhere in the file is not rewritten in
// place, and no caller turns the insert into such a rewrite.
func enableEdit(g *kconfig.Graph, e confparse.Entry, dep string) TextEdit {
	insertion := confparse.Range{Line: e.Line, StartCol: 0, EndCol: 0}
	return TextEdit{Range: insertion, NewText: fmt.Sprintf("CONFIG_%s=y\n", dep)}
}

func removeEntryAction(e confparse.Entry) CodeAction {
	lineRange := confparse.Range{Line: e.Line, StartCol: 0, EndCol: e.ValueRange.EndCol}
	return CodeAction{Title: "Remove entry", Edits: []TextEdit{{Range: lineRange, NewText: ""}}}
}

// checkVisibility is pipeline step 3.
func checkVisibility(sym *kconfig.Symbol, e confparse.Entry) *Diagnostic {
	if sym.Visibility != expr.No {
		return nil
	}
	return &Diagnostic{
		Line:        e.Line,
		Severity:    SeverityWarning,
		Message:     fmt.Sprintf("Symbol CONFIG_%s cannot be set (has no prompt)", e.Name),
		CodeActions: []CodeAction{removeEntryAction(e)},
	}
}

// checkDefaults is pipeline step 4: flags an assignment that merely
// restates the value the symbol would already have taken with no
// entry at all.
func checkDefaults(sym *kconfig.Symbol, e confparse.Entry, env expr.Lookup) *Diagnostic {
	withoutUser := sym.UserValue
	sym.UserValue = nil
	defer func() { sym.UserValue = withoutUser }()

	wouldBe := defaultOnly(sym, env)
	if wouldBe != sym.Computed {
		return nil
	}
	return &Diagnostic{
		Line:     e.Line,
		Severity: SeverityHint,
		Message:  fmt.Sprintf("Value is %s by default", wouldBe),
		Tags:     []Tag{Unnecessary},
		CodeActions: []CodeAction{{
			Title: "Remove redundant entry",
			Edits: []TextEdit{{
				Range:   confparse.Range{Line: e.Line, StartCol: 0, EndCol: e.ValueRange.EndCol},
				NewText: "",
			}},
		}},
	}
}

// defaultOnly evaluates sym's defaults (not its user value) the same
// way resolve.Resolve's baseValue does, without re-running the full
// graph relaxation — sym.UserValue is already nil'd by the caller.
func defaultOnly(sym *kconfig.Symbol, env expr.Lookup) kconfig.Value {
	depsOK := expr.Eval(sym.Direct, env)
	for _, d := range sym.Defaults {
		if expr.Eval(d.Cond, env) == expr.No {
			continue
		}
		switch sym.Type {
		case kconfig.TypeBool, kconfig.TypeTristate:
			v := expr.Eval(d.Expr, env)
			if v > depsOK {
				v = depsOK
			}
			return kconfig.Value{Type: sym.Type, Tri: v}
		case kconfig.TypeInt, kconfig.TypeHex:
			return kconfig.Value{Type: sym.Type, Num: expr.EvalNum(d.Expr, env)}
		case kconfig.TypeString:
			s := ""
			if d.Expr != nil && d.Expr.Kind == expr.KStrLit {
				s = d.Expr.StrVal
			} else if d.Expr != nil && d.Expr.Kind == expr.KSymbol {
				s = env.Lookup(d.Expr.Sym).Str
			}
			return kconfig.Value{Type: sym.Type, Str: s}
		}
	}
	return kconfig.ZeroValue(sym.Type)
}
