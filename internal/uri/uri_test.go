package uri

import "testing"

func TestParseFile(t *testing.T) {
	u := Parse("file:///home/user/file.txt")
	if u.Scheme != "file" || u.Authority != "" || u.Path != "/home/user/file.txt" {
		t.Fatalf("unexpected parse: %+v", u)
	}
	if u.Basename() != "file.txt" {
		t.Errorf("Basename() = %q, want file.txt", u.Basename())
	}
}

func TestParseHTTP(t *testing.T) {
	u := Parse("https://example.com/some/path.html?q=1&b=2#fragment")
	if u.Scheme != "https" || u.Authority != "example.com" || u.Path != "/some/path.html" {
		t.Fatalf("unexpected parse: %+v", u)
	}
	if u.Query != "q=1&b=2" || u.Fragment != "fragment" {
		t.Fatalf("unexpected query/fragment: %+v", u)
	}
}

func TestParseStringifyRoundTrip(t *testing.T) {
	for _, raw := range []string{
		"file:///home/user/file.txt",
		"https://example.com/some/path.html?q=1&b=2#fragment",
	} {
		u := Parse(raw)
		if got := u.String(); got != raw {
			t.Errorf("round trip: parse(%q).String() = %q", raw, got)
		}
	}
}

func TestPercentDecodedPath(t *testing.T) {
	u := Parse("file:///home/user/my%20file.txt")
	if u.Path != "/home/user/my file.txt" {
		t.Errorf("Path = %q, want decoded space", u.Path)
	}
}

func TestFileConstructor(t *testing.T) {
	u := File("/path/to/some/file")
	if u.Scheme != "file" || u.Path != "/path/to/some/file" || u.Basename() != "file" {
		t.Fatalf("unexpected File() result: %+v", u)
	}
}
