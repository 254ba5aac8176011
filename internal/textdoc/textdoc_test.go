package textdoc

import (
	"testing"

	"github.com/nrfconnect/kconfiglsp/internal/uri"
)

func TestPos(t *testing.T) {
	doc := New(uri.File("/some/file.txt"), "line one\nline two\nline three\n", -1)
	if got := doc.Pos(0); got != (Position{0, 0}) {
		t.Errorf("Pos(0) = %+v, want {0 0}", got)
	}
	if got := doc.Pos(9); got != (Position{1, 0}) {
		t.Errorf("Pos(9) = %+v, want {1 0}", got)
	}
}

func TestReplaceSequence(t *testing.T) {
	startRange := Range{Position{0, 0}, Position{0, 0}}
	doc := New(uri.File("/some/file.txt"), "", -1)

	doc.Replace("the first line", &startRange)
	assertText(t, doc, "the first line\n")

	doc.Replace("<insert>", &startRange)
	assertText(t, doc, "<insert>the first line\n")

	doc.Replace("<replace>", &Range{Position{0, 0}, Position{0, len("<insert>")}})
	assertText(t, doc, "<replace>the first line\n")

	doc.Replace("<replace>", &Range{Position{0, 13}, Position{0, 18}})
	assertText(t, doc, "<replace>the <replace> line\n")

	doc.Replace("", &Range{Position{0, 13}, Position{0, 23}})
	assertText(t, doc, "<replace>the line\n")

	doc.Replace("\nsecond ", &Range{Position{0, 12}, Position{0, 13}})
	assertText(t, doc, "<replace>the\nsecond line\n")

	doc.Replace("updated line", &Range{Position{1, 0}, Position{1, 9999}})
	assertText(t, doc, "<replace>the\nupdated line\n")

	// delete second line
	doc.Replace("", &Range{Position{1, 0}, Position{1, 9999}})
	assertText(t, doc, "<replace>the\n")

	// add more lines
	doc.Replace("\n\n\n", &Range{Position{0, 9999}, Position{0, 9999}})
	assertText(t, doc, "<replace>the\n\n\n\n")

	// replace multiple lines
	doc.Replace("abc\ndef", &Range{Position{1, 0}, Position{3, 9999}})
	assertText(t, doc, "<replace>the\nabc\ndef\n")
}

func TestReplaceWholeDocument(t *testing.T) {
	doc := New(uri.File("/some/file.txt"), "old\n", -1)
	doc.Replace("new text", nil)
	assertText(t, doc, "new text\n")
}

func TestRangeContains(t *testing.T) {
	r := Range{Position{0, 5}, Position{2, 0}}
	if !r.Contains(Position{1, 0}) {
		t.Error("expected range to contain midpoint")
	}
	if r.Contains(Position{3, 0}) {
		t.Error("expected range not to contain position past end")
	}
}

func assertText(t *testing.T, doc *Document, want string) {
	t.Helper()
	if got := doc.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}
