// Package uri implements the minimal LSP document URI type: parsing,
// stringification and the scheme/authority/path/query/fragment
// decomposition the rest of the server addresses documents by.
package uri

import (
	"net/url"
	"path"
	"strings"
)

// URI is a parsed LSP document identifier.
type URI struct {
	Scheme    string
	Authority string
	Path      string
	Query     string
	Fragment  string
}

// Parse decomposes raw into its URI components, percent-decoding the
// path component. Non-hierarchical schemes (e.g. "git:/path", no
// "//") are tolerated the same as a standard "scheme:///path" URI.
func Parse(raw string) URI {
	scheme, rest, _ := strings.Cut(raw, ":")

	authority := ""
	if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			authority = rest[:i]
			rest = rest[i:]
		} else {
			authority = rest
			rest = ""
		}
	}

	p, query, fragment := splitPathQueryFragment(rest)
	if decoded, err := url.PathUnescape(p); err == nil {
		p = decoded
	}
	if decoded, err := url.QueryUnescape(query); err == nil {
		query = decoded
	}

	return URI{Scheme: scheme, Authority: authority, Path: p, Query: query, Fragment: fragment}
}

func splitPathQueryFragment(s string) (p, query, fragment string) {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		fragment = s[i+1:]
		s = s[:i]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		query = s[i+1:]
		s = s[:i]
	}
	return s, query, fragment
}

// File builds a "file://" URI for an absolute local path.
func File(localPath string) URI {
	return URI{Scheme: "file", Path: localPath}
}

// Basename is the final path segment, matching the LSP Uri helper the
// hover/completion code uses to show a short document name.
func (u URI) Basename() string {
	return path.Base(u.Path)
}

// String renders u back into the "scheme://authority/path?query#fragment"
// form Parse accepts, percent-encoding the path.
func (u URI) String() string {
	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteByte(':')
	if u.Authority != "" || strings.HasPrefix(u.Path, "/") {
		b.WriteString("//")
		b.WriteString(u.Authority)
	}
	b.WriteString(encodePath(u.Path))
	if u.Query != "" {
		b.WriteByte('?')
		b.WriteString(u.Query)
	}
	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.Fragment)
	}
	return b.String()
}

func encodePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
