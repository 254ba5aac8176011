package resolve

import (
	"testing"

	"github.com/nrfconnect/kconfiglsp/internal/kconfig"
	"github.com/nrfconnect/kconfiglsp/internal/kconfig/expr"
)

func mustSymbol(g *kconfig.Graph, name string, typ kconfig.SymType) *kconfig.Symbol {
	s := g.SymbolOrNew(name)
	s.Type = typ
	return s
}

func TestResolveDefaultAndUserValue(t *testing.T) {
	g := kconfig.NewGraph()
	foo := mustSymbol(g, "FOO", kconfig.TypeBool)
	foo.Defaults = []kconfig.Default{{Expr: expr.TriLit(expr.Yes)}}

	Resolve(g, nil)
	if foo.Computed.Tri != expr.Yes {
		t.Fatalf("expected default y, got %v", foo.Computed.Tri)
	}

	Resolve(g, map[string]kconfig.Value{"FOO": {Type: kconfig.TypeBool, Tri: expr.No}})
	if foo.UserValue == nil || foo.Computed.Tri != expr.Yes {
		t.Fatalf("user n should not win when FOO has no prompt node (always invisible): got %v", foo.Computed.Tri)
	}
}

func TestResolveDependencyBlocksUserValue(t *testing.T) {
	g := kconfig.NewGraph()
	dep := mustSymbol(g, "DEP", kconfig.TypeBool)
	dep.Defaults = []kconfig.Default{{Expr: expr.TriLit(expr.No)}}

	foo := mustSymbol(g, "FOO", kconfig.TypeBool)
	foo.Direct = expr.Symbol("DEP")
	g.NewSymbolNode(foo, g.Top, "FOO", expr.Symbol("DEP"))

	Resolve(g, map[string]kconfig.Value{"FOO": {Type: kconfig.TypeBool, Tri: expr.Yes}})
	if foo.Computed.Tri != expr.No {
		t.Fatalf("expected FOO forced to n when DEP=n, got %v", foo.Computed.Tri)
	}
}

func TestResolveSelectOverridesDependency(t *testing.T) {
	g := kconfig.NewGraph()
	dep := mustSymbol(g, "DEP", kconfig.TypeBool)
	dep.Defaults = []kconfig.Default{{Expr: expr.TriLit(expr.No)}}

	target := mustSymbol(g, "TARGET", kconfig.TypeBool)
	target.Direct = expr.Symbol("DEP")

	selector := mustSymbol(g, "SELECTOR", kconfig.TypeBool)
	selector.Defaults = []kconfig.Default{{Expr: expr.TriLit(expr.Yes)}}
	selector.Selects = []kconfig.RevDep{{Target: "TARGET"}}

	Resolve(g, nil)
	if target.Computed.Tri != expr.Yes {
		t.Fatalf("expected select to force TARGET=y despite DEP=n, got %v", target.Computed.Tri)
	}
}

func TestResolveRangeClamp(t *testing.T) {
	g := kconfig.NewGraph()
	n := mustSymbol(g, "NUM", kconfig.TypeInt)
	n.Defaults = []kconfig.Default{{Expr: expr.NumLit(100)}}
	n.Ranges = []kconfig.Range{{Low: expr.NumLit(0), High: expr.NumLit(10)}}

	Resolve(g, nil)
	if n.Computed.Num != 10 {
		t.Fatalf("expected clamp to 10, got %d", n.Computed.Num)
	}
}
