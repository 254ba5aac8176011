package diagnose

import (
	"testing"

	"github.com/nrfconnect/kconfiglsp/internal/confparse"
	"github.com/nrfconnect/kconfiglsp/internal/kconfig"
	"github.com/nrfconnect/kconfiglsp/internal/kconfig/expr"
	"github.com/nrfconnect/kconfiglsp/internal/resolve"
)

func userValues(entries []confparse.Entry, g *kconfig.Graph) map[string]kconfig.Value {
	out := map[string]kconfig.Value{}
	for _, e := range entries {
		sym := g.Symbol(e.Name)
		if sym == nil {
			continue
		}
		if v, ok := resolve.FromEntry(sym.Type, e); ok {
			out[e.Name] = v
		}
	}
	return out
}

func TestCheckTypeMismatchOffersConversion(t *testing.T) {
	g := kconfig.NewGraph()
	num := g.SymbolOrNew("NUM")
	num.Type = kconfig.TypeInt
	g.NewSymbolNode(num, g.Top, "Num", expr.TriLit(expr.Yes))

	e, _ := confparse.ParseLine("CONFIG_NUM=0x10", 0)
	resolve.Resolve(g, userValues([]confparse.Entry{e}, g))

	diags := Run(g, []confparse.Entry{e})
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d: %+v", len(diags), diags)
	}
	d := diags[0]
	if d.Severity != SeverityError || d.Message != "Invalid type. Expected int" {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
	if len(d.CodeActions) != 1 || d.CodeActions[0].Title != "Convert value to int" {
		t.Fatalf("expected a convert-to-int action, got %+v", d.CodeActions)
	}
	if d.CodeActions[0].Edits[0].NewText != "16" {
		t.Fatalf("expected converted value 16, got %q", d.CodeActions[0].Edits[0].NewText)
	}
}

func TestCheckAssignmentMissingDependencies(t *testing.T) {
	g := kconfig.NewGraph()
	a := g.SymbolOrNew("A")
	a.Type = kconfig.TypeBool
	a.Defaults = []kconfig.Default{{Expr: expr.TriLit(expr.No)}}

	b := g.SymbolOrNew("B")
	b.Type = kconfig.TypeBool
	b.Defaults = []kconfig.Default{{Expr: expr.TriLit(expr.No)}}

	bar := g.SymbolOrNew("BAR")
	bar.Type = kconfig.TypeBool
	bar.Direct = expr.And(expr.Symbol("A"), expr.Symbol("B"))
	g.NewSymbolNode(bar, g.Top, "Bar", expr.TriLit(expr.Yes))

	e, _ := confparse.ParseLine("CONFIG_BAR=y", 0)
	resolve.Resolve(g, userValues([]confparse.Entry{e}, g))

	diags := Run(g, []confparse.Entry{e})
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %+v", diags)
	}
	d := diags[0]
	if d.Severity != SeverityWarning {
		t.Fatalf("expected warning severity, got %v", d.Severity)
	}

	var titles []string
	for _, a := range d.CodeActions {
		titles = append(titles, a.Title)
	}
	wantTitles := []string{"Enable CONFIG_A", "Enable CONFIG_B", "Enable 2 entries to resolve dependencies", "Remove entry"}
	if len(titles) != len(wantTitles) {
		t.Fatalf("action titles = %v, want %v", titles, wantTitles)
	}
	for i := range wantTitles {
		if titles[i] != wantTitles[i] {
			t.Errorf("action[%d] = %q, want %q", i, titles[i], wantTitles[i])
		}
	}

	compound := d.CodeActions[2]
	if compound.Edits[0].NewText != "CONFIG_B=y\n" || compound.Edits[1].NewText != "CONFIG_A=y\n" {
		t.Fatalf("expected compound edits in reverse registration order, got %+v", compound.Edits)
	}
}

func TestCheckVisibilityHiddenSymbol(t *testing.T) {
	g := kconfig.NewGraph()
	hidden := g.SymbolOrNew("HIDDEN")
	hidden.Type = kconfig.TypeBool
	// No menu node at all: never visible.

	e, _ := confparse.ParseLine("CONFIG_HIDDEN=y", 0)
	resolve.Resolve(g, userValues([]confparse.Entry{e}, g))

	diags := Run(g, []confparse.Entry{e})
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %+v", diags)
	}
	d := diags[0]
	want := "Symbol CONFIG_HIDDEN cannot be set (has no prompt)"
	if d.Message != want {
		t.Fatalf("Message = %q, want %q", d.Message, want)
	}
	if len(d.CodeActions) != 1 || d.CodeActions[0].Title != "Remove entry" {
		t.Fatalf("expected a single Remove entry action, got %+v", d.CodeActions)
	}
}

func TestCheckDefaultsRedundantAssignment(t *testing.T) {
	g := kconfig.NewGraph()
	foo := g.SymbolOrNew("FOO")
	foo.Type = kconfig.TypeBool
	foo.Defaults = []kconfig.Default{{Expr: expr.TriLit(expr.Yes)}}
	g.NewSymbolNode(foo, g.Top, "Foo", expr.TriLit(expr.Yes))

	e, _ := confparse.ParseLine("CONFIG_FOO=y", 0)
	resolve.Resolve(g, userValues([]confparse.Entry{e}, g))

	diags := Run(g, []confparse.Entry{e})
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %+v", diags)
	}
	d := diags[0]
	if d.Severity != SeverityHint || len(d.Tags) != 1 || d.Tags[0] != Unnecessary {
		t.Fatalf("expected an unnecessary hint, got %+v", d)
	}
	if d.CodeActions[0].Title != "Remove redundant entry" {
		t.Fatalf("expected Remove redundant entry action, got %+v", d.CodeActions)
	}
}

func TestPipelineIdempotent(t *testing.T) {
	g := kconfig.NewGraph()
	foo := g.SymbolOrNew("FOO")
	foo.Type = kconfig.TypeBool
	foo.Defaults = []kconfig.Default{{Expr: expr.TriLit(expr.Yes)}}
	g.NewSymbolNode(foo, g.Top, "Foo", expr.TriLit(expr.Yes))

	e, _ := confparse.ParseLine("CONFIG_FOO=y", 0)
	uv := userValues([]confparse.Entry{e}, g)

	resolve.Resolve(g, uv)
	first := Run(g, []confparse.Entry{e})
	resolve.Resolve(g, uv)
	second := Run(g, []confparse.Entry{e})

	if len(first) != len(second) || first[0].Message != second[0].Message {
		t.Fatalf("pipeline is not idempotent: %+v vs %+v", first, second)
	}
}
