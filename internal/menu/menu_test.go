package menu

import (
	"testing"

	"github.com/nrfconnect/kconfiglsp/internal/kconfig"
	"github.com/nrfconnect/kconfiglsp/internal/kconfig/expr"
	"github.com/nrfconnect/kconfiglsp/internal/resolve"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	id := Encode(3, KindSymbol, "FOO@0")
	version, kind, payload, ok := Decode(id)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if version != 3 || kind != KindSymbol || payload != "FOO@0" {
		t.Fatalf("decode = (%d, %s, %s)", version, kind, payload)
	}
}

func TestResolveDesyncOnStaleVersion(t *testing.T) {
	g := kconfig.NewGraph()
	foo := g.SymbolOrNew("FOO")
	foo.Type = kconfig.TypeBool
	g.NewSymbolNode(foo, g.Top, "Foo", expr.TriLit(expr.Yes))

	id := IDOf(g, 1, foo.NodeIDs[0])
	if _, ok := Resolve(g, 1, id); !ok {
		t.Fatal("expected id to resolve at its own version")
	}
	if _, ok := Resolve(g, 2, id); ok {
		t.Fatal("expected id from a stale version to desync")
	}
}

func TestSetMenuIndentsNonMenuconfigChildren(t *testing.T) {
	g := kconfig.NewGraph()
	resolve.Resolve(g, nil)

	menuconfig := g.SymbolOrNew("GROUP")
	menuconfig.Type = kconfig.TypeBool
	groupID := g.NewSymbolNode(menuconfig, g.Top, "Group", expr.TriLit(expr.Yes))
	g.Node(groupID).IsMenuconfig = true

	intermediate := g.SymbolOrNew("SUB")
	intermediate.Type = kconfig.TypeBool
	subID := g.NewSymbolNode(intermediate, groupID, "Sub", expr.TriLit(expr.Yes))

	leaf := g.SymbolOrNew("LEAF")
	leaf.Type = kconfig.TypeBool
	g.NewSymbolNode(leaf, subID, "Leaf", expr.TriLit(expr.Yes))

	resolve.Resolve(g, nil)
	desc := SetMenu(g, 1, g.Top)
	if len(desc.Items) != 1 || desc.Items[0].Label != "Group" {
		t.Fatalf("expected GROUP as the only top-level item, got %+v", desc.Items)
	}

	groupMenu := SetMenu(g, 1, groupID)
	if len(groupMenu.Items) != 2 {
		t.Fatalf("expected SUB and LEAF folded into GROUP's listing, got %+v", groupMenu.Items)
	}
	if groupMenu.Items[0].Depth != 0 {
		t.Fatalf("SUB should be at depth 0 (direct child), got %d", groupMenu.Items[0].Depth)
	}
	if groupMenu.Items[1].Depth != 1 {
		t.Fatalf("LEAF should be at depth 1 (folded under non-menuconfig SUB), got %d", groupMenu.Items[1].Depth)
	}
}

func TestVisibilityFollowsPromptCondition(t *testing.T) {
	g := kconfig.NewGraph()
	gate := g.SymbolOrNew("GATE")
	gate.Type = kconfig.TypeBool
	gate.Defaults = []kconfig.Default{{Expr: expr.TriLit(expr.No)}}

	hidden := g.SymbolOrNew("HIDDEN")
	hidden.Type = kconfig.TypeBool
	id := g.NewSymbolNode(hidden, g.Top, "Hidden", expr.Symbol("GATE"))
	resolve.Resolve(g, nil)

	desc := SetMenu(g, 1, g.Top)
	if len(desc.Items) != 1 || desc.Items[0].Visible {
		t.Fatalf("expected HIDDEN to be invisible while GATE=n, got %+v", desc.Items)
	}
	_ = id
}
