// Package confparse implements the Assignment Layer: parsing `.conf`
// files into ordered ConfEntry values and layering them onto a
// Context's user-value state.
package confparse

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

// LiteralType is the RHS literal's inferred type, independent of what
// the symbol is actually declared as — the Value Resolver and
// Diagnostic Engine compare the two.
type LiteralType string

const (
	LitString  LiteralType = "string"
	LitBool    LiteralType = "bool"
	LitHex     LiteralType = "hex"
	LitInt     LiteralType = "int"
	LitUnknown LiteralType = "unknown"
)

// Range is a half-open [StartCol, EndCol) span on one 0-based line,
// sized to describe a TextEdit without needing a full document model.
type Range struct {
	Line      int
	StartCol  int
	EndCol    int
}

// Entry is a single `CONFIG_X=v` assignment parsed from one line of a
// .conf file.
type Entry struct {
	Name      string // without the CONFIG_ prefix
	RawValue  string // the literal exactly as written, including quotes
	Type      LiteralType
	Line      int // 0-based line number within the file
	NameRange Range
	ValueRange Range
}

// entryPattern mirrors regex-equivalent: optional
// leading whitespace, "CONFIG_", a capture of word characters, "=",
// then either a double-quoted string with no embedded quotes or a run
// of word characters. Lines that don't match are silently ignored.
var entryPattern = regexp.MustCompile(`^\s*CONFIG_(\w+)\s*=\s*("[^"]*"|\w+)\s*$`)

// ParseLine parses one line, returning (entry, true) on a match.
func ParseLine(line string, lineNo int) (Entry, bool) {
	m := entryPattern.FindStringSubmatchIndex(line)
	if m == nil {
		return Entry{}, false
	}
	name := line[m[2]:m[3]]
	rawValue := line[m[4]:m[5]]

	e := Entry{
		Name:     name,
		RawValue: rawValue,
		Type:     inferType(rawValue),
		Line:     lineNo,
		NameRange: Range{
			Line:     lineNo,
			StartCol: m[2] - len("CONFIG_"),
			EndCol:   m[3],
		},
		ValueRange: Range{
			Line:     lineNo,
			StartCol: m[4],
			EndCol:   m[5],
		},
	}
	return e, true
}

var hexPattern = regexp.MustCompile(`^0x[a-fA-F0-9]+$`)
var intPattern = regexp.MustCompile(`^\d+$`)

func inferType(raw string) LiteralType {
	switch {
	case strings.HasPrefix(raw, `"`):
		return LitString
	case raw == "y" || raw == "n":
		return LitBool
	case hexPattern.MatchString(raw):
		return LitHex
	case intPattern.MatchString(raw):
		return LitInt
	default:
		return LitUnknown
	}
}

// UnquotedString strips surrounding quotes from a string-typed RawValue.
func (e Entry) UnquotedString() string {
	if e.Type != LitString {
		return e.RawValue
	}
	s, err := strconv.Unquote(e.RawValue)
	if err != nil {
		return strings.Trim(e.RawValue, `"`)
	}
	return s
}

// File is a parsed .conf file: its path and its ordered entries, whose
// ranges quick-fix edits are built from. Entries are in top-to-bottom
// order; later entries for the same name override earlier ones once
// the Value Resolver folds them.
type File struct {
	Path    string
	Entries []Entry
}

// Parse reads a .conf file's content line by line into a File.
func Parse(path string, content string) *File {
	f := &File{Path: path}
	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		if e, ok := ParseLine(sc.Text(), line); ok {
			f.Entries = append(f.Entries, e)
		}
		line++
	}
	return f
}

// Mode is how a file's entries fold into existing user-value state.
type Mode int

const (
	// Replace clears all prior user values before applying this file's
	// entries (used for the first file in a context's conf stack).
	Replace Mode = iota
	// Merge layers this file's entries on top of existing state,
	// overriding on name collision (used for every later file).
	Merge
)

// UnknownChecker reports whether a symbol name is declared in the
// Symbol Graph, letting Apply raise "undefined symbol assigned".
type UnknownChecker func(name string) bool

// Warning is one non-fatal diagnostic produced while applying a file
// (undefined symbol or override). Redundant-assignment
// warnings are raised by the Diagnostic Engine, not here, since they
// require resolved default values; Apply only raises the two warnings
// it has enough local information for.
type Warning struct {
	Line    int
	Message string
}

// Apply folds f's entries into values (name -> latest Entry for that
// name across the whole stack so far), honoring mode, and returns
// warnings for undefined-symbol and override cases.
func Apply(values map[string]Entry, f *File, mode Mode, isKnown UnknownChecker) []Warning {
	if mode == Replace {
		for k := range values {
			delete(values, k)
		}
	}
	var warnings []Warning
	seenInFile := make(map[string]bool)
	for _, e := range f.Entries {
		if isKnown != nil && !isKnown(e.Name) {
			warnings = append(warnings, Warning{
				Line:    e.Line,
				Message: "warning: " + e.Name + " is assigned but not defined",
			})
		}
		if prev, ok := values[e.Name]; ok && (seenInFile[e.Name] || mode == Merge) {
			if prev.RawValue != e.RawValue {
				warnings = append(warnings, Warning{
					Line: e.Line,
					Message: "warning: " + e.Name + " set more than once, new value " +
						e.RawValue + " overrides " + prev.RawValue,
				})
			}
		}
		values[e.Name] = e
		seenInFile[e.Name] = true
	}
	return warnings
}
