// Package menu implements the Menu Navigator: exposing the Symbol
// Graph as the hierarchical menu an interactive menuconfig front end
// would show, with stable node identifiers that invalidate on reparse.
package menu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nrfconnect/kconfiglsp/internal/kconfig"
	"github.com/nrfconnect/kconfiglsp/internal/kconfig/expr"
	"github.com/nrfconnect/kconfiglsp/internal/resolve"
)

// Kind tags which of the five id payload shapes a NodeID formats to.
type Kind string

const (
	KindMainmenu Kind = "MAINMENU"
	KindMenu     Kind = "MENU"
	KindSymbol   Kind = "SYM"
	KindChoice   Kind = "CHOICE"
	KindComment  Kind = "COMMENT"
)

// Item is one entry in a menu listing: enough to render a line in an
// interactive front end plus the id to descend into it.
type Item struct {
	ID        string
	Kind      Kind
	Label     string
	Depth     int // indentation depth for non-menuconfig intermediate nodes
	Visible   bool
	IsMenu    bool // true for MENU/CHOICE/menuconfig nodes — can be setMenu'd into
}

// Descriptor is the result of setMenu: a menu's own label plus its
// child items in declaration order, invisible ones included with
// Visible set to false.
type Descriptor struct {
	ID    string
	Label string
	Items []Item
}

// Encode formats a stable node identifier, :
// "<version>@<kind>@<payload>".
func Encode(version int, kind Kind, payload string) string {
	return fmt.Sprintf("%d@%s@%s", version, kind, payload)
}

// Decode parses an identifier produced by Encode.
func Decode(id string) (version int, kind Kind, payload string, ok bool) {
	parts := strings.SplitN(id, "@", 3)
	if len(parts) != 3 {
		return 0, "", "", false
	}
	v, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", "", false
	}
	return v, Kind(parts[1]), parts[2], true
}

// IDOf computes the stable identifier for node, at g's current parse
// version. The synthetic top node encodes as MAINMENU.
func IDOf(g *kconfig.Graph, version int, id kconfig.NodeID) string {
	n := g.Node(id)
	if n == nil {
		return ""
	}
	switch n.Kind {
	case kconfig.NodeTop:
		return Encode(version, KindMainmenu, "")
	case kconfig.NodeMenu:
		for i, mid := range g.Menus {
			if mid == id {
				return Encode(version, KindMenu, strconv.Itoa(i))
			}
		}
	case kconfig.NodeChoice:
		ch := g.Choice(n.ChoiceID)
		if ch != nil {
			return Encode(version, KindChoice, strconv.Itoa(int(ch.ID)))
		}
	case kconfig.NodeComment:
		for i, cid := range g.Comments {
			if cid == id {
				return Encode(version, KindComment, strconv.Itoa(i))
			}
		}
	case kconfig.NodeSymbol:
		sym := g.Symbol(n.Symbol)
		if sym != nil {
			for i, sid := range sym.NodeIDs {
				if sid == id {
					return Encode(version, KindSymbol, fmt.Sprintf("%s@%d", sym.Name, i))
				}
			}
		}
	}
	return ""
}

// Resolve looks up the node an id addresses within g, failing with
// ok=false if the id's version does not match currentVersion (the
// desync signal) or the id cannot otherwise be found.
func Resolve(g *kconfig.Graph, currentVersion int, id string) (kconfig.NodeID, bool) {
	version, kind, payload, ok := Decode(id)
	if !ok || version != currentVersion {
		return kconfig.NoNode, false
	}
	switch kind {
	case KindMainmenu:
		return g.Top, true
	case KindMenu:
		i, err := strconv.Atoi(payload)
		if err != nil || i < 0 || i >= len(g.Menus) {
			return kconfig.NoNode, false
		}
		return g.Menus[i], true
	case KindChoice:
		i, err := strconv.Atoi(payload)
		if err != nil {
			return kconfig.NoNode, false
		}
		ch := g.Choice(kconfig.ChoiceID(i))
		if ch == nil {
			return kconfig.NoNode, false
		}
		return ch.NodeID, true
	case KindComment:
		i, err := strconv.Atoi(payload)
		if err != nil || i < 0 || i >= len(g.Comments) {
			return kconfig.NoNode, false
		}
		return g.Comments[i], true
	case KindSymbol:
		parts := strings.SplitN(payload, "@", 2)
		if len(parts) != 2 {
			return kconfig.NoNode, false
		}
		sym := g.Symbol(parts[0])
		if sym == nil {
			return kconfig.NoNode, false
		}
		i, err := strconv.Atoi(parts[1])
		if err != nil || i < 0 || i >= len(sym.NodeIDs) {
			return kconfig.NoNode, false
		}
		return sym.NodeIDs[i], true
	default:
		return kconfig.NoNode, false
	}
}

// isMenuHost reports whether n is the kind of node whose children form
// their own menu (a MENU, a menuconfig symbol, or a choice) rather than
// being folded into their parent's listing at increased depth.
func isMenuHost(n *kconfig.MenuNode) bool {
	return n.Kind == kconfig.NodeTop || n.Kind == kconfig.NodeMenu ||
		n.Kind == kconfig.NodeChoice || (n.Kind == kconfig.NodeSymbol && n.IsMenuconfig)
}

// isVisible reports a node's visibility: true iff it has a prompt that
// evaluates non-zero, and — for MENU markers — its own "visible if"
// clause also evaluates non-zero.
func isVisible(n *kconfig.MenuNode, env expr.Lookup) bool {
	if !n.HasPrompt() {
		return n.Kind == kconfig.NodeTop
	}
	if expr.Eval(n.PromptCond, env) == expr.No {
		return false
	}
	if n.Kind == kconfig.NodeMenu && n.VisIf != nil && expr.Eval(n.VisIf, env) == expr.No {
		return false
	}
	return true
}

// SetMenu builds the Descriptor for the menu hosted at id: its direct
// children plus, recursively, the children of any non-menu-host
// descendant folded into the same listing at increasing depth.
func SetMenu(g *kconfig.Graph, version int, id kconfig.NodeID) Descriptor {
	env := resolve.Env(g)
	n := g.Node(id)
	desc := Descriptor{ID: IDOf(g, version, id), Label: n.Prompt}
	collect(g, version, n.FirstChild, 0, env, &desc.Items)
	return desc
}

func collect(g *kconfig.Graph, version int, start kconfig.NodeID, depth int, env expr.Lookup, out *[]Item) {
	for cur := start; cur != kconfig.NoNode; {
		n := g.Node(cur)
		item := Item{
			ID:      IDOf(g, version, cur),
			Label:   label(n),
			Depth:   depth,
			Visible: isVisible(n, env),
			IsMenu:  isMenuHost(n),
		}
		switch n.Kind {
		case kconfig.NodeMenu:
			item.Kind = KindMenu
		case kconfig.NodeChoice:
			item.Kind = KindChoice
		case kconfig.NodeComment:
			item.Kind = KindComment
		case kconfig.NodeSymbol:
			item.Kind = KindSymbol
		}
		*out = append(*out, item)

		if !isMenuHost(n) && n.FirstChild != kconfig.NoNode {
			collect(g, version, n.FirstChild, depth+1, env, out)
		}
		cur = n.NextSibling
	}
}

func label(n *kconfig.MenuNode) string {
	if n.Prompt != "" {
		return n.Prompt
	}
	return n.Symbol
}
