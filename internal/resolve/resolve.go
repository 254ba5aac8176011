// Package resolve implements the Value Resolver: deriving each
// symbol's effective value from its user value, defaults, dependency
// and visibility rules, and select/imply reverse dependencies.
package resolve

import (
	"strconv"
	"strings"

	"github.com/nrfconnect/kconfiglsp/internal/confparse"
	"github.com/nrfconnect/kconfiglsp/internal/kconfig"
	"github.com/nrfconnect/kconfiglsp/internal/kconfig/expr"
)

// maxPasses bounds the Gauss-Seidel relaxation used to reach a fixed
// point across select/imply/dependency coupling. Real Kconfig trees are
// finite and shallow enough that this converges in a handful of passes;
// the cap exists so a pathological cyclic graph can't hang a request.
const maxPasses = 8

// graphEnv adapts a Graph to expr.Lookup, reading each symbol's most
// recently computed value. Used during relaxation (mid-pass values)
// and for any caller (e.g. the Diagnostic Engine) that needs to
// evaluate an expression against the graph's current resolved state.
type graphEnv struct{ g *kconfig.Graph }

func (e graphEnv) Lookup(name string) expr.SymbolInfo {
	s := e.g.Symbol(name)
	if s == nil {
		return expr.SymbolInfo{Type: expr.TypeUnknown}
	}
	return expr.SymbolInfo{
		Type: s.Type.ExprKind(),
		Tri:  s.Computed.BoolTri(),
		Str:  s.Computed.Str,
		Num:  s.Computed.Num,
	}
}

// Env returns an expr.Lookup reading g's current Computed values.
func Env(g *kconfig.Graph) expr.Lookup { return graphEnv{g} }

// FromEntry converts a parsed .conf assignment into a typed Value for
// symType, honoring "tristate literal m is accepted
// where bool is accepted" rule. ok is false on a genuine type mismatch
// (the caller — the Diagnostic Engine's check_type — decides what to
// do with that; the resolver simply will not use a mismatched value).
func FromEntry(symType kconfig.SymType, e confparse.Entry) (kconfig.Value, bool) {
	switch symType {
	case kconfig.TypeBool, kconfig.TypeTristate:
		switch e.RawValue {
		case "y":
			return kconfig.Value{Type: symType, Tri: expr.Yes}, true
		case "m":
			return kconfig.Value{Type: symType, Tri: expr.Mod}, true
		case "n":
			return kconfig.Value{Type: symType, Tri: expr.No}, true
		default:
			return kconfig.Value{}, false
		}
	case kconfig.TypeInt:
		if e.Type != confparse.LitInt {
			return kconfig.Value{}, false
		}
		n, err := strconv.ParseInt(e.RawValue, 10, 64)
		return kconfig.Value{Type: symType, Num: n}, err == nil
	case kconfig.TypeHex:
		if e.Type != confparse.LitHex {
			return kconfig.Value{}, false
		}
		n, err := strconv.ParseInt(strings.TrimPrefix(strings.ToLower(e.RawValue), "0x"), 16, 64)
		return kconfig.Value{Type: symType, Num: n}, err == nil
	case kconfig.TypeString:
		if e.Type != confparse.LitString {
			return kconfig.Value{}, false
		}
		return kconfig.Value{Type: symType, Str: e.UnquotedString()}, true
	default:
		return kconfig.Value{Type: kconfig.TypeUnknown, Str: e.RawValue}, true
	}
}

// Resolve recomputes Computed and Visibility for every symbol in g,
// folding in userValues (symbol name -> typed user Value, already
// type-checked by the caller via FromEntry). Resolve is idempotent:
// calling it again with the same graph and userValues reproduces the
// same assignment.
func Resolve(g *kconfig.Graph, userValues map[string]kconfig.Value) {
	env := graphEnv{g}
	symbols := g.Symbols()

	// Reset to zero so re-resolving after a .conf edit doesn't retain
	// stale state from a previous pass.
	for _, s := range symbols {
		s.Computed = kconfig.ZeroValue(s.Type)
		s.Visibility = expr.No
		s.UserValue = nil
		if v, ok := userValues[s.Name]; ok {
			vv := v
			s.UserValue = &vv
		}
	}

	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		for _, s := range symbols {
			before := s.Computed
			resolveOne(g, env, s)
			if before != s.Computed {
				changed = true
			}
		}
		if !changed {
			break
		}
	}
}

func resolveOne(g *kconfig.Graph, env expr.Lookup, s *kconfig.Symbol) {
	s.Visibility = visibilityOf(g, env, s)
	depsOK := expr.Eval(s.Direct, env)

	value := baseValue(env, s, depsOK)
	value = applyRevDeps(g, env, s, value, depsOK)
	value = clampRange(env, s, value)
	s.Computed = value
}

// visibilityOf is the highest prompt-condition tri-value across all of
// the symbol's menu nodes.
func visibilityOf(g *kconfig.Graph, env expr.Lookup, s *kconfig.Symbol) expr.Tri {
	vis := expr.No
	for _, id := range s.NodeIDs {
		n := g.Node(id)
		if n == nil || !n.HasPrompt() {
			continue
		}
		if t := expr.Eval(n.PromptCond, env); t > vis {
			vis = t
		}
	}
	return vis
}

// baseValue implements resolver rules 1-3: explicit user value (if
// visible and dependencies hold), else the first default whose
// condition holds, else the type's zero value. For bool/tristate the
// result is clamped to depsOK, matching the reference evaluator's rule
// that a symbol's value never exceeds its own direct dependencies
// except via select (handled separately in applyRevDeps).
func baseValue(env expr.Lookup, s *kconfig.Symbol, depsOK expr.Tri) kconfig.Value {
	if s.UserValue != nil {
		uv := *s.UserValue
		switch s.Type {
		case kconfig.TypeBool, kconfig.TypeTristate:
			if s.Visibility > expr.No && depsOK >= uv.Tri {
				return uv
			}
		default:
			if s.Visibility > expr.No && depsOK == expr.Yes {
				return uv
			}
		}
	}

	for _, d := range s.Defaults {
		if expr.Eval(d.Cond, env) == expr.No {
			continue
		}
		switch s.Type {
		case kconfig.TypeBool, kconfig.TypeTristate:
			v := expr.Eval(d.Expr, env)
			if v > depsOK {
				v = depsOK
			}
			return kconfig.Value{Type: s.Type, Tri: v}
		case kconfig.TypeInt, kconfig.TypeHex:
			return kconfig.Value{Type: s.Type, Num: expr.EvalNum(d.Expr, env)}
		case kconfig.TypeString:
			return kconfig.Value{Type: s.Type, Str: evalString(d.Expr, env)}
		}
	}

	return kconfig.ZeroValue(s.Type)
}

func evalString(e *expr.Expr, env expr.Lookup) string {
	if e == nil {
		return ""
	}
	if e.Kind == expr.KStrLit {
		return e.StrVal
	}
	if e.Kind == expr.KSymbol {
		return env.Lookup(e.Sym).Str
	}
	return ""
}

// applyRevDeps folds in select/imply contributions from every other
// symbol onto s. Selects force a lower bound even when s's own
// dependencies fail; implies only raise the value within what s's own
// dependencies already permit.
func applyRevDeps(g *kconfig.Graph, env expr.Lookup, s *kconfig.Symbol, value kconfig.Value, depsOK expr.Tri) kconfig.Value {
	if s.Type != kconfig.TypeBool && s.Type != kconfig.TypeTristate {
		return value
	}
	var selectBound, implyBound expr.Tri

	for _, other := range g.Symbols() {
		for _, sel := range other.Selects {
			if sel.Target != s.Name {
				continue
			}
			bound := other.Computed.BoolTri()
			if sel.Cond != nil {
				bound = min3(bound, expr.Eval(sel.Cond, env))
			}
			if bound > selectBound {
				selectBound = bound
			}
		}
		for _, imp := range other.Implies {
			if imp.Target != s.Name {
				continue
			}
			bound := other.Computed.BoolTri()
			if imp.Cond != nil {
				bound = min3(bound, expr.Eval(imp.Cond, env))
			}
			if bound > implyBound {
				implyBound = bound
			}
		}
	}

	result := value.Tri
	if selectBound > result {
		result = selectBound // selects override dependency failures
	}
	implyBound = min3(implyBound, depsOK)
	if implyBound > result {
		result = implyBound
	}
	return kconfig.Value{Type: s.Type, Tri: result}
}

func min3(a, b expr.Tri) expr.Tri {
	if a < b {
		return a
	}
	return b
}

// clampRange applies the first range clause whose condition holds to
// an int/hex symbol's value.
func clampRange(env expr.Lookup, s *kconfig.Symbol, value kconfig.Value) kconfig.Value {
	if s.Type != kconfig.TypeInt && s.Type != kconfig.TypeHex {
		return value
	}
	for _, r := range s.Ranges {
		if expr.Eval(r.Cond, env) == expr.No {
			continue
		}
		low := expr.EvalNum(r.Low, env)
		high := expr.EvalNum(r.High, env)
		n := value.Num
		if n < low {
			n = low
		}
		if n > high {
			n = high
		}
		return kconfig.Value{Type: s.Type, Num: n}
	}
	return value
}
