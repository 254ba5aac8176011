package expr

import "testing"

func TestEvalBooleanConnectives(t *testing.T) {
	env := MapLookup{
		"A": {Type: TypeBool, Tri: Yes},
		"B": {Type: TypeBool, Tri: No},
		"C": {Type: TypeTristate, Tri: Mod},
	}

	cases := []struct {
		name string
		e    *Expr
		want Tri
	}{
		{"and-yes-no", And(Symbol("A"), Symbol("B")), No},
		{"or-yes-no", Or(Symbol("A"), Symbol("B")), Yes},
		{"not-yes", Not(Symbol("A")), No},
		{"not-mod", Not(Symbol("C")), Mod},
		{"and-mod-yes", And(Symbol("C"), Symbol("A")), Mod},
		{"nil-is-true", nil, Yes},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Eval(c.e, env); got != c.want {
				t.Errorf("Eval(%v) = %v, want %v", c.e, got, c.want)
			}
		})
	}
}

func TestEvalComparisons(t *testing.T) {
	env := MapLookup{
		"NUM":  {Type: TypeInt, Num: 10},
		"NAME": {Type: TypeString, Str: "zephyr"},
	}

	if got := Eval(Compare(KEq, Symbol("NUM"), NumLit(10)), env); got != Yes {
		t.Errorf("NUM = 10 should be Yes, got %v", got)
	}
	if got := Eval(Compare(KGt, Symbol("NUM"), NumLit(5)), env); got != Yes {
		t.Errorf("NUM > 5 should be Yes, got %v", got)
	}
	if got := Eval(Compare(KEq, Symbol("NAME"), StrLit("zephyr")), env); got != Yes {
		t.Errorf(`NAME = "zephyr" should be Yes, got %v`, got)
	}
	if got := Eval(Compare(KNeq, Symbol("NAME"), StrLit("other")), env); got != Yes {
		t.Errorf("NAME != other should be Yes, got %v", got)
	}
}

func TestMissingDeps(t *testing.T) {
	env := MapLookup{
		"A": {Type: TypeBool, Tri: No},
		"B": {Type: TypeBool, Tri: No},
	}
	direct := And(Symbol("A"), Symbol("B"))
	missing := MissingDeps(direct, Yes, env)
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing conjuncts, got %d", len(missing))
	}
	if missing[0].Sym != "A" || missing[1].Sym != "B" {
		t.Errorf("expected A,B in declaration order, got %v,%v", missing[0].Sym, missing[1].Sym)
	}
}

func TestMissingDepsPartial(t *testing.T) {
	env := MapLookup{
		"A": {Type: TypeBool, Tri: Yes},
		"B": {Type: TypeBool, Tri: No},
	}
	direct := And(Symbol("A"), Symbol("B"))
	missing := MissingDeps(direct, Yes, env)
	if len(missing) != 1 || missing[0].Sym != "B" {
		t.Fatalf("expected only B missing, got %v", missing)
	}
}

func TestStringPrinting(t *testing.T) {
	e := And(Symbol("A"), Symbol("B"))
	if e.String() != "A && B" {
		t.Errorf("got %q", e.String())
	}
	e2 := Or(Symbol("A"), Symbol("B"))
	if e2.String() != "A || B" {
		t.Errorf("got %q", e2.String())
	}
	e3 := Not(Or(Symbol("A"), Symbol("B")))
	if e3.String() != "!(A || B)" {
		t.Errorf("got %q", e3.String())
	}
}
