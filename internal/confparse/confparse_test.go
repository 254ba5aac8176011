package confparse

import "testing"

func TestParseLineTypes(t *testing.T) {
	cases := []struct {
		line string
		want LiteralType
	}{
		{`CONFIG_FOO=y`, LitBool},
		{`CONFIG_FOO=n`, LitBool},
		{`CONFIG_NUM=0x10`, LitHex},
		{`CONFIG_NUM=16`, LitInt},
		{`CONFIG_NAME="zephyr"`, LitString},
		{`CONFIG_WEIRD=abc123`, LitUnknown},
		{`not an entry`, ""},
	}
	for _, c := range cases {
		e, ok := ParseLine(c.line, 0)
		if c.want == "" {
			if ok {
				t.Errorf("%q: expected no match, got %+v", c.line, e)
			}
			continue
		}
		if !ok {
			t.Fatalf("%q: expected a match", c.line)
		}
		if e.Type != c.want {
			t.Errorf("%q: type = %v, want %v", c.line, e.Type, c.want)
		}
	}
}

func TestParseLineExtractsName(t *testing.T) {
	e, ok := ParseLine("CONFIG_BAR=y", 3)
	if !ok {
		t.Fatal("expected match")
	}
	if e.Name != "BAR" {
		t.Errorf("name = %q, want BAR", e.Name)
	}
	if e.Line != 3 {
		t.Errorf("line = %d, want 3", e.Line)
	}
}

func TestApplyReplaceThenMerge(t *testing.T) {
	values := map[string]Entry{}
	base := Parse("defconfig", "CONFIG_A=y\nCONFIG_B=n\n")
	Apply(values, base, Replace, nil)
	if values["A"].RawValue != "y" {
		t.Fatalf("expected A=y after base load")
	}

	user := Parse("prj.conf", "CONFIG_B=y\n")
	warnings := Apply(values, user, Merge, func(string) bool { return true })
	if values["B"].RawValue != "y" {
		t.Fatalf("expected B overridden to y")
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 override warning, got %d: %v", len(warnings), warnings)
	}
}

func TestApplyUndefinedSymbol(t *testing.T) {
	values := map[string]Entry{}
	f := Parse("prj.conf", "CONFIG_GHOST=y\n")
	warnings := Apply(values, f, Replace, func(string) bool { return false })
	if len(warnings) != 1 {
		t.Fatalf("expected undefined-symbol warning, got %v", warnings)
	}
}
