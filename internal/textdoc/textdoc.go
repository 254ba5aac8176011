// Package textdoc implements the LSP in-memory text document: line
// storage, offset/position conversion and range replace. The LSP
// adapter's completion handler reads the current line through it.
package textdoc

import (
	"strings"

	"github.com/nrfconnect/kconfiglsp/internal/uri"
)

// Position is a zero-based line/character pair, matching the LSP
// wire protocol's Position.
type Position struct {
	Line      int
	Character int
}

// Before reports whether p sorts strictly earlier than other.
func (p Position) Before(other Position) bool {
	return p.Line < other.Line || (p.Line == other.Line && p.Character < other.Character)
}

// Range is a half-open [Start, End) span within a Document.
type Range struct {
	Start Position
	End   Position
}

// SingleLine reports whether the range starts and ends on the same line.
func (r Range) SingleLine() bool {
	return r.Start.Line == r.End.Line
}

// Contains reports whether pos falls within [Start, End].
func (r Range) Contains(pos Position) bool {
	return !pos.Before(r.Start) && !r.End.Before(pos)
}

// UnionRange returns the smallest range spanning both a and b.
func UnionRange(a, b Range) Range {
	start := a.Start
	if b.Start.Before(start) {
		start = b.Start
	}
	end := a.End
	if end.Before(b.End) {
		end = b.End
	}
	return Range{Start: start, End: end}
}

const unknownVersion = -1

// Document is an open text file addressed by line. Replace performs
// offset-based splicing and re-splits the whole buffer; this mirrors
// what a Kconfig/.config file editing session needs (small files,
// infrequent edits) rather than a rope or piece-table.
type Document struct {
	URI     uri.URI
	Version int
	Lines   []string
}

// New builds a Document from its initial full text. version is
// unknownVersion (-1) when the caller has no LSP version to attach
// (e.g. a file loaded from disk rather than opened by a client).
func New(u uri.URI, text string, version int) *Document {
	d := &Document{URI: u, Version: version}
	d.setText(text)
	return d
}

func (d *Document) setText(text string) {
	d.Lines = splitLines(sanitize(text))
}

func sanitize(text string) string {
	return strings.ReplaceAll(text, "\r", "")
}

// splitLines mirrors Python's str.splitlines(): split on "\n" but
// drop the trailing empty segment produced by a final newline, and
// treat the empty string as zero lines rather than one.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.Split(text, "\n")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// Text renders the document back to a single string. A non-empty
// document always ends in a trailing newline, matching the on-disk
// convention for Kconfig and .config files.
func (d *Document) Text() string {
	if len(d.Lines) == 0 {
		return ""
	}
	return strings.Join(d.Lines, "\n") + "\n"
}

// Line returns line index (0-based) and whether it exists.
func (d *Document) Line(index int) (string, bool) {
	if index < 0 || index >= len(d.Lines) {
		return "", false
	}
	return d.Lines[index], true
}

// Offset converts a Position into a byte offset into Text().
func (d *Document) Offset(pos Position) int {
	if pos.Line == 0 {
		return pos.Character
	}
	n := 0
	for _, l := range d.Lines[:min(pos.Line, len(d.Lines))] {
		n += len(l) + 1
	}
	return n + pos.Character
}

// Pos converts a byte offset into Text() back into a Position.
func (d *Document) Pos(offset int) Position {
	full := d.Text()
	if offset <= 0 || offset > len(full) {
		offset = max(0, min(offset, len(full)))
	}
	content := full[:offset]
	nl := strings.LastIndexByte(content, '\n')
	return Position{Line: strings.Count(content, "\n"), Character: len(content) - (nl + 1)}
}

// Get returns the text within rng, or the whole document if rng is nil.
func (d *Document) Get(rng *Range) string {
	full := d.Text()
	if rng == nil {
		return full
	}
	start, end := d.Offset(rng.Start), d.Offset(rng.End)
	start = clamp(start, 0, len(full))
	end = clamp(end, start, len(full))
	return full[start:end]
}

// Replace splices text into rng (or replaces the whole document when
// rng is nil), then re-splits into lines. Offsets past the end of the
// text are clamped to its end. Character is not clamped to its own
// line, so Position{line, 9999} reaches the end of the line only on the
// last line; on an earlier line it runs on into the following lines.
func (d *Document) Replace(text string, rng *Range) {
	if rng == nil {
		d.setText(text)
		return
	}
	full := d.Text()
	start := clamp(d.Offset(rng.Start), 0, len(full))
	end := clamp(d.Offset(rng.End), start, len(full))
	d.setText(full[:start] + text + full[end:])
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
