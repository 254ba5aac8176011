// Package expr implements the Kconfig expression AST and its tri-state
// evaluator. Every expression reduces to a tri-value (No/Mod/Yes);
// comparisons additionally consult string or numeric operands.
package expr

import (
	"strconv"
	"strings"
)

// Tri is a Kconfig tri-state: No (0), Mod (1), Yes (2).
type Tri int8

const (
	No  Tri = 0
	Mod Tri = 1
	Yes Tri = 2
)

func (t Tri) String() string {
	switch t {
	case Yes:
		return "y"
	case Mod:
		return "m"
	default:
		return "n"
	}
}

// Clamp keeps a tri-value inside the valid [No, Yes] range.
func Clamp(t Tri) Tri {
	if t < No {
		return No
	}
	if t > Yes {
		return Yes
	}
	return t
}

func triMin(a, b Tri) Tri {
	if a < b {
		return a
	}
	return b
}

func triMax(a, b Tri) Tri {
	if a > b {
		return a
	}
	return b
}

// Kind distinguishes expression node types.
type Kind int

const (
	KSymbol Kind = iota
	KTriLit
	KStrLit
	KNumLit
	KAnd
	KOr
	KNot
	KEq
	KNeq
	KLt
	KLe
	KGt
	KGe
)

// Expr is a tagged-variant expression node. Leaves are KSymbol/KTriLit/
// KStrLit/KNumLit; everything else is an interior node referencing Left
// (and Right, for binary operators).
type Expr struct {
	Kind   Kind
	Sym    string // KSymbol
	TriVal Tri    // KTriLit
	StrVal string // KStrLit
	NumVal int64  // KNumLit
	Left   *Expr
	Right  *Expr
}

func Symbol(name string) *Expr       { return &Expr{Kind: KSymbol, Sym: name} }
func TriLit(t Tri) *Expr             { return &Expr{Kind: KTriLit, TriVal: t} }
func StrLit(s string) *Expr          { return &Expr{Kind: KStrLit, StrVal: s} }
func NumLit(n int64) *Expr           { return &Expr{Kind: KNumLit, NumVal: n} }
func And(a, b *Expr) *Expr           { return combine(KAnd, a, b) }
func Or(a, b *Expr) *Expr            { return combine(KOr, a, b) }
func Not(a *Expr) *Expr              { return &Expr{Kind: KNot, Left: a} }
func Compare(k Kind, a, b *Expr) *Expr {
	return &Expr{Kind: k, Left: a, Right: b}
}

// combine folds nil operands out of AND/OR so callers can build up
// conjunctions incrementally without nil-checking every step.
func combine(k Kind, a, b *Expr) *Expr {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return &Expr{Kind: k, Left: a, Right: b}
}

// SymKind is the declared type of a symbol, as seen by the evaluator.
type SymKind int

const (
	TypeUnknown SymKind = iota
	TypeBool
	TypeTristate
	TypeInt
	TypeHex
	TypeString
)

// SymbolInfo is what a Lookup implementation reports for one symbol name.
// Tri is always populated (even for int/hex/string symbols, where it is
// derived: No if the value is zero/empty, Yes otherwise) so boolean
// expression contexts never need a type switch.
type SymbolInfo struct {
	Type SymKind
	Tri  Tri
	Str  string
	Num  int64
}

// Lookup resolves a symbol name to its current effective value. The
// Context Manager's value resolver is the production implementation;
// tests supply small maps instead.
type Lookup interface {
	Lookup(name string) SymbolInfo
}

// MapLookup is a trivial Lookup backed by a map, used in tests.
type MapLookup map[string]SymbolInfo

func (m MapLookup) Lookup(name string) SymbolInfo { return m[name] }

// Eval reduces a boolean/tristate expression to a Tri. A nil expression
// is treated as the neutral "always true" condition used for
// unconditional defaults and bare menu/choice entries.
func Eval(e *Expr, env Lookup) Tri {
	if e == nil {
		return Yes
	}
	switch e.Kind {
	case KAnd:
		return triMin(Eval(e.Left, env), Eval(e.Right, env))
	case KOr:
		return triMax(Eval(e.Left, env), Eval(e.Right, env))
	case KNot:
		return Clamp(2 - Eval(e.Left, env))
	case KSymbol:
		return env.Lookup(e.Sym).Tri
	case KTriLit:
		return e.TriVal
	case KEq, KNeq, KLt, KLe, KGt, KGe:
		return evalCompare(e, env)
	default:
		return No
	}
}

// evalOperand reduces a comparison operand to either a numeric or
// string value. Bool/tristate symbols compare as their tri-value
// rendered numerically (0/1/2), matching the reference evaluator.
func evalOperand(e *Expr, env Lookup) (str string, num int64, isNum bool) {
	if e == nil {
		return "", int64(No), true
	}
	switch e.Kind {
	case KSymbol:
		info := env.Lookup(e.Sym)
		switch info.Type {
		case TypeInt, TypeHex:
			return "", info.Num, true
		case TypeString:
			return info.Str, 0, false
		default:
			return "", int64(info.Tri), true
		}
	case KStrLit:
		return e.StrVal, 0, false
	case KNumLit:
		return "", e.NumVal, true
	case KTriLit:
		return "", int64(e.TriVal), true
	default:
		return "", int64(Eval(e, env)), true
	}
}

func evalCompare(e *Expr, env Lookup) Tri {
	ls, ln, lnum := evalOperand(e.Left, env)
	rs, rn, rnum := evalOperand(e.Right, env)

	var cmp int
	if lnum && rnum {
		cmp = compareInt64(ln, rn)
	} else {
		if lnum {
			ls = strconv.FormatInt(ln, 10)
		}
		if rnum {
			rs = strconv.FormatInt(rn, 10)
		}
		cmp = strings.Compare(ls, rs)
	}

	ok := false
	switch e.Kind {
	case KEq:
		ok = cmp == 0
	case KNeq:
		ok = cmp != 0
	case KLt:
		ok = cmp < 0
	case KLe:
		ok = cmp <= 0
	case KGt:
		ok = cmp > 0
	case KGe:
		ok = cmp >= 0
	}
	if ok {
		return Yes
	}
	return No
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// EvalNum reduces an expression used in a range-clause bound to a
// number, resolving symbol references through env.
func EvalNum(e *Expr, env Lookup) int64 {
	if e == nil {
		return 0
	}
	_, n, isNum := evalOperand(e, env)
	if isNum {
		return n
	}
	n, _ = strconv.ParseInt(strOf(e, env), 0, 64)
	return n
}

func strOf(e *Expr, env Lookup) string {
	s, n, isNum := evalOperand(e, env)
	if isNum {
		return strconv.FormatInt(n, 10)
	}
	return s
}

// Conjuncts flattens a conjunction (built from nested KAnd nodes) into
// its top-level operands, the decomposition the Diagnostic Engine's
// missing-dependency analysis walks.
func Conjuncts(e *Expr) []*Expr {
	if e == nil {
		return nil
	}
	if e.Kind == KAnd {
		return append(Conjuncts(e.Left), Conjuncts(e.Right)...)
	}
	return []*Expr{e}
}

// MissingDeps returns the conjuncts of direct whose current evaluation
// falls short of requested. Used to drive "Enable CONFIG_X=y" quick
// fixes: each returned conjunct names (part of) what blocks the symbol
// from reaching the value the user asked for.
func MissingDeps(direct *Expr, requested Tri, env Lookup) []*Expr {
	var missing []*Expr
	for _, c := range Conjuncts(direct) {
		if Eval(c, env) < requested {
			missing = append(missing, c)
		}
	}
	return missing
}

// String renders an expression the way the reference evaluator's
// diagnostic messages do: minimal parenthesization, "&&"/"||"/"!" for
// boolean connectives and the usual comparison operators.
func (e *Expr) String() string {
	if e == nil {
		return "y"
	}
	switch e.Kind {
	case KSymbol:
		return e.Sym
	case KTriLit:
		return e.TriVal.String()
	case KStrLit:
		return strconv.Quote(e.StrVal)
	case KNumLit:
		return strconv.FormatInt(e.NumVal, 10)
	case KAnd:
		return wrap(e.Left, KAnd) + " && " + wrap(e.Right, KAnd)
	case KOr:
		return wrap(e.Left, KOr) + " || " + wrap(e.Right, KOr)
	case KNot:
		return "!" + wrap(e.Left, KNot)
	case KEq:
		return e.Left.String() + " = " + e.Right.String()
	case KNeq:
		return e.Left.String() + " != " + e.Right.String()
	case KLt:
		return e.Left.String() + " < " + e.Right.String()
	case KLe:
		return e.Left.String() + " <= " + e.Right.String()
	case KGt:
		return e.Left.String() + " > " + e.Right.String()
	case KGe:
		return e.Left.String() + " >= " + e.Right.String()
	default:
		return "?"
	}
}

// wrap parenthesizes child when its precedence would otherwise be
// ambiguous under parent's operator.
func wrap(child *Expr, parent Kind) string {
	if child == nil {
		return "y"
	}
	needsParens := (parent == KAnd || parent == KNot) && child.Kind == KOr
	if needsParens {
		return "(" + child.String() + ")"
	}
	return child.String()
}
