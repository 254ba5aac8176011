// Package context implements the Context Manager: it owns one or more
// independent build configurations, routes document URIs to their
// owning context, and drives the parse → apply → resolve → diagnose
// pipeline that every other core package builds toward.
package context

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/singleflight"

	"github.com/nrfconnect/kconfiglsp/internal/confparse"
	"github.com/nrfconnect/kconfiglsp/internal/diagnose"
	"github.com/nrfconnect/kconfiglsp/internal/kconfig"
	"github.com/nrfconnect/kconfiglsp/internal/lsperrors"
	"github.com/nrfconnect/kconfiglsp/internal/resolve"
	"github.com/nrfconnect/kconfiglsp/internal/uri"
)

// CommandLineURI is the synthetic bucket for diagnostics with no
// attributable source file.
const CommandLineURI = "file:///command-line"

// Context is one configured build: a root Kconfig path, the environment
// it was parsed with, its ordered .conf file stack, the parsed graph,
// and the state the Diagnostic Engine and Menu Navigator read from.
type Context struct {
	ID           int
	Root         string
	RawEnv       map[string]string
	ConfPatterns []string
	ConfPaths    []string // expanded, ordered: board defconfig first

	Graph        *kconfig.Graph
	ParseVersion int
	FocusedMenu  string

	// graphHash is the content hash of Graph.Files as of the last
	// successful parse, letting Reparse skip re-running the parser
	// when nothing it read has actually changed.
	graphHash uint64
	confCache map[string]confFileCacheEntry

	// fileEntries holds each .conf file's parsed entries, keyed by path,
	// for the Diagnostic Engine (needs per-file order) and symbolAt
	// (needs name/value ranges).
	fileEntries map[string][]confparse.Entry
	// flattened is the latest Entry per symbol name across the whole
	// stack, the input resolve.FromEntry converts into a value map.
	flattened map[string]confparse.Entry
	// overrides are in-memory setVal edits layered on top of flattened,
	// never written back to any file.
	overrides map[string]kconfig.Value

	diagnostics map[string][]diagnose.Diagnostic
}

// Publisher receives diagnostics for a URI whenever a context's
// resolved state changes enough to affect them. The LSP Adapter
// implements this to emit textDocument/publishDiagnostics; nil is
// valid (diagnostics remain queryable via Manager.Diagnostics).
type Publisher interface {
	Publish(uri string, diags []diagnose.Diagnostic)
}

// Manager owns every live Context, keyed by an incrementing id, and
// tracks the most-recently-used context for fast URI routing.
type Manager struct {
	mu       sync.Mutex
	contexts map[int]*Context
	order    []int // insertion order, for the "first whose conf list contains it" fallback
	nextID   int
	mru      int

	opener    kconfig.FileOpener
	publisher Publisher
	search    SearchConfig

	sf singleflight.Group
}

// SearchConfig tunes symbolSearch's fuzzy ranking; see config.Config.Search.
type SearchConfig struct {
	FuzzyThreshold float64
	MaxResults     int
}

// NewManager builds an empty Manager. opener defaults to
// kconfig.OSOpener; publisher may be nil.
func NewManager(opener kconfig.FileOpener, publisher Publisher, search SearchConfig) *Manager {
	if opener == nil {
		opener = kconfig.OSOpener
	}
	if search.MaxResults <= 0 {
		search.MaxResults = 50
	}
	if search.FuzzyThreshold <= 0 {
		search.FuzzyThreshold = 0.6
	}
	return &Manager{
		contexts:  make(map[int]*Context),
		opener:    opener,
		publisher: publisher,
		search:    search,
		mru:       -1,
	}
}

// context looks up ctxId, returning a *lsperrors-friendly error on miss.
func (m *Manager) context(ctxID int) (*Context, error) {
	c, ok := m.contexts[ctxID]
	if !ok {
		return nil, fmt.Errorf("unknown context %d", ctxID)
	}
	return c, nil
}

// AddBuild creates a new context, parses its Kconfig tree, applies its
// .conf stack, resolves values, publishes initial diagnostics, and
// returns the new context id.
func (m *Manager) AddBuild(root string, confPatterns []string, env map[string]string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ctx := &Context{
		ID:           id,
		Root:         root,
		RawEnv:       env,
		ConfPatterns: confPatterns,
		fileEntries:  make(map[string][]confparse.Entry),
		flattened:    make(map[string]confparse.Entry),
		overrides:    make(map[string]kconfig.Value),
		diagnostics:  make(map[string][]diagnose.Diagnostic),
		confCache:    make(map[string]confFileCacheEntry),
	}

	if err := m.parseGraph(ctx); err != nil {
		return 0, err
	}
	if err := m.expandConfStack(ctx); err != nil {
		return 0, err
	}
	m.applyConfStack(ctx)
	m.resolveAndDiagnose(ctx)

	m.contexts[id] = ctx
	m.order = append(m.order, id)
	m.mru = id
	m.publishAll(ctx)
	return id, nil
}

// parseGraph (re)builds ctx.Graph from ctx.Root, bumping ParseVersion.
// The parser consults process-wide environment state; this snapshots,
// applies, parses, and restores around the call so two contexts
// parsed back-to-back on one worker never see each other's
// environment. Parse failures are wrapped as ParseFailedError so the
// LSP Adapter maps them to its ParsingFailed code.
func (m *Manager) parseGraph(ctx *Context) error {
	restore := scopedEnv(ctx.RawEnv)
	defer restore()

	g, err := kconfig.Parse(ctx.Root, ctx.RawEnv, m.opener)
	if err != nil {
		var pf *kconfig.ParsingFailed
		if errors.As(err, &pf) {
			return lsperrors.NewParseFailedError(errors.New(pf.Message())).WithLocation(pf.File, pf.Line)
		}
		return lsperrors.NewParseFailedError(err)
	}
	ctx.Graph = g
	ctx.ParseVersion++
	if h, ok := hashFiles(m.readString, g.Files); ok {
		ctx.graphHash = h
	}
	return nil
}

// readString adapts m.opener to the (path string) -> (content string)
// shape hashFiles wants.
func (m *Manager) readString(path string) (string, error) {
	return readFile(m.opener, path)
}

// maybeParseGraph re-parses ctx's Kconfig tree unless every file the
// previous parse visited still hashes identically, in which case the
// existing Graph is kept and only ParseVersion is bumped — a reparse
// triggered by an unrelated .conf edit, or a watcher tick on a
// directory whose Kconfig files didn't actually change, does no
// parser work, yet still invalidates previously issued menu node ids.
func (m *Manager) maybeParseGraph(ctx *Context) error {
	if ctx.Graph != nil {
		if h, ok := hashFiles(m.readString, ctx.Graph.Files); ok && h == ctx.graphHash {
			ctx.ParseVersion++
			return nil
		}
	}
	return m.parseGraph(ctx)
}

// scopedEnv snapshots the process environment, overlays raw (taking
// the first "?"-alternative of each value, matching the parser's own
// fallback resolution), and returns a function restoring the prior
// state. Implements the "Global state" design note's scoped
// acquisition around each parse.
func scopedEnv(raw map[string]string) func() {
	prior := os.Environ()
	for k, v := range raw {
		alt, _ := firstAlt(v)
		os.Setenv(k, alt)
	}
	return func() {
		os.Clearenv()
		for _, kv := range prior {
			if i := strings.IndexByte(kv, '='); i >= 0 {
				os.Setenv(kv[:i], kv[i+1:])
			}
		}
	}
}

// firstAlt splits a "?"-separated fallback list and returns the first
// non-empty alternative (or the first alternative if all are empty).
func firstAlt(raw string) (string, bool) {
	parts := strings.Split(raw, "?")
	for _, p := range parts {
		if p != "" {
			return p, true
		}
	}
	if len(parts) > 0 {
		return parts[0], true
	}
	return "", false
}

// expandConfStack resolves ctx.ConfPatterns into ctx.ConfPaths: the
// board defconfig (if BOARD_DIR/BOARD are set and the file exists)
// first, then each pattern's doublestar matches in lexicographic
// order, concatenated in pattern-argument order.
func (m *Manager) expandConfStack(ctx *Context) error {
	var paths []string
	if board, ok := boardDefconfigPath(ctx.RawEnv); ok {
		paths = append(paths, board)
	}
	for _, pattern := range ctx.ConfPatterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return fmt.Errorf("expanding conf pattern %q: %w", pattern, err)
		}
		if matches == nil {
			// Not a glob, or no wildcard matched anything: treat the
			// literal pattern as a single path, same as the reference
			// behavior of passing an exact .conf file.
			matches = []string{pattern}
		}
		sort.Strings(matches)
		paths = append(paths, matches...)
	}
	ctx.ConfPaths = paths
	return nil
}

// boardDefconfigPath derives <BOARD_DIR>/<BOARD>_defconfig, trying
// each "?"-alternative of BOARD_DIR in turn (via doublestar.FilepathGlob,
// then os.Stat) until one yields an existing file.
func boardDefconfigPath(env map[string]string) (string, bool) {
	boardRaw, ok := env["BOARD_DIR"]
	if !ok {
		return "", false
	}
	board, ok := firstAlt(env["BOARD"])
	if !ok || board == "" {
		return "", false
	}
	for _, dir := range strings.Split(boardRaw, "?") {
		if dir == "" {
			continue
		}
		candidate := dir + "/" + board + "_defconfig"
		if matches, err := doublestar.FilepathGlob(candidate); err == nil && len(matches) > 0 {
			return matches[0], true
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

// applyConfStack re-reads every file in ctx.ConfPaths and layers their
// entries into ctx.fileEntries/flattened, first file as Replace, the
// rest as Merge. Parser/assignment warnings are recorded against their
// originating file (or the command-line bucket on read failure).
func (m *Manager) applyConfStack(ctx *Context) {
	for k := range ctx.fileEntries {
		delete(ctx.fileEntries, k)
	}
	for k := range ctx.flattened {
		delete(ctx.flattened, k)
	}

	isKnown := func(name string) bool { return ctx.Graph.Symbol(name) != nil }

	for i, path := range ctx.ConfPaths {
		mode := confparse.Merge
		if i == 0 {
			mode = confparse.Replace
		}
		content, err := readFile(m.opener, path)
		if err != nil {
			rerr := lsperrors.NewConfEntryError(path, 0, "", err)
			ctx.diagnostics[CommandLineURI] = append(ctx.diagnostics[CommandLineURI], diagnose.Diagnostic{
				Severity: diagnose.SeverityError,
				Message:  rerr.Error(),
			})
			continue
		}
		f := parseConfCached(ctx, path, content)
		ctx.fileEntries[path] = f.Entries
		warnings := confparse.Apply(ctx.flattened, f, mode, isKnown)
		u := uri.File(path).String()
		for _, w := range warnings {
			ctx.diagnostics[u] = append(ctx.diagnostics[u], diagnose.Diagnostic{
				Line:     w.Line,
				Severity: diagnose.SeverityWarning,
				Message:  w.Message,
			})
		}
	}

	for file, msgs := range ctx.Graph.Warnings {
		u := CommandLineURI
		if file != "" {
			u = uri.File(file).String()
		}
		for _, msg := range msgs {
			ctx.diagnostics[u] = append(ctx.diagnostics[u], diagnose.Diagnostic{
				Severity: diagnose.SeverityWarning,
				Message:  msg,
			})
		}
	}
}

func readFile(open kconfig.FileOpener, path string) (string, error) {
	rc, err := open(path)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	var b strings.Builder
	buf := make([]byte, 32*1024)
	for {
		n, err := rc.Read(buf)
		if n > 0 {
			b.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}
	return b.String(), nil
}

// resolveAndDiagnose rebuilds userValues from ctx.flattened+overrides,
// calls resolve.Resolve, then runs the Diagnostic Engine per file,
// appending its findings onto whatever parser/assignment warnings
// applyConfStack already recorded.
func (m *Manager) resolveAndDiagnose(ctx *Context) {
	userValues := make(map[string]kconfig.Value, len(ctx.flattened))
	for name, e := range ctx.flattened {
		sym := ctx.Graph.Symbol(name)
		if sym == nil {
			continue
		}
		if v, ok := resolve.FromEntry(sym.Type, e); ok {
			userValues[name] = v
		}
	}
	for name, v := range ctx.overrides {
		userValues[name] = v
	}
	resolve.Resolve(ctx.Graph, userValues)

	for path, entries := range ctx.fileEntries {
		u := uri.File(path).String()
		found := diagnose.Run(ctx.Graph, entries)
		ctx.diagnostics[u] = append(ctx.diagnostics[u], found...)
	}
}

// publishAll sends every bucket in ctx.diagnostics to m.publisher, a
// no-op if no publisher was configured.
func (m *Manager) publishAll(ctx *Context) {
	if m.publisher == nil {
		return
	}
	for u, diags := range ctx.diagnostics {
		m.publisher.Publish(u, diags)
	}
}

// Diagnostics returns the last-published diagnostics for ctxId, keyed
// by document URI (plus CommandLineURI).
func (m *Manager) Diagnostics(ctxID int) (map[string][]diagnose.Diagnostic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, err := m.context(ctxID)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]diagnose.Diagnostic, len(ctx.diagnostics))
	for k, v := range ctx.diagnostics {
		out[k] = v
	}
	return out, nil
}

// LoadConfig re-reads and re-applies ctx's .conf stack without
// reparsing the Kconfig tree, then republishes diagnostics.
func (m *Manager) LoadConfig(ctxID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, err := m.context(ctxID)
	if err != nil {
		return err
	}
	_, err, _ = m.sf.Do(fmt.Sprintf("loadConfig:%d", ctxID), func() (interface{}, error) {
		for k := range ctx.diagnostics {
			delete(ctx.diagnostics, k)
		}
		if err := m.expandConfStack(ctx); err != nil {
			return nil, err
		}
		m.applyConfStack(ctx)
		m.resolveAndDiagnose(ctx)
		m.publishAll(ctx)
		return nil, nil
	})
	return err
}

// Reparse rebuilds ctx's Kconfig tree from scratch (bumping its parse
// version, invalidating every previously issued menu node id), then
// re-applies the .conf stack. Triggered explicitly, or by the
// background watcher's invalidation signal (see watch.go).
func (m *Manager) Reparse(ctxID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, err := m.context(ctxID)
	if err != nil {
		return err
	}
	_, err, _ = m.sf.Do(fmt.Sprintf("reparse:%d", ctxID), func() (interface{}, error) {
		for k := range ctx.diagnostics {
			delete(ctx.diagnostics, k)
		}
		if err := m.maybeParseGraph(ctx); err != nil {
			return nil, err
		}
		if err := m.expandConfStack(ctx); err != nil {
			return nil, err
		}
		m.applyConfStack(ctx)
		m.resolveAndDiagnose(ctx)
		m.publishAll(ctx)
		return nil, nil
	})
	return err
}

// SetVal sets (val non-nil) or unsets (val nil) an in-memory user value
// for name, never touching any file on disk, then re-resolves and
// republishes diagnostics.
func (m *Manager) SetVal(ctxID int, name string, val *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, err := m.context(ctxID)
	if err != nil {
		return err
	}
	sym := ctx.Graph.Symbol(name)
	if sym == nil {
		return fmt.Errorf("unknown symbol %s", name)
	}
	if val == nil {
		delete(ctx.overrides, name)
	} else {
		e, ok := confparse.ParseLine("CONFIG_"+name+"="+*val, 0)
		if !ok {
			return fmt.Errorf("invalid value %q for %s", *val, name)
		}
		v, ok := resolve.FromEntry(sym.Type, e)
		if !ok {
			return fmt.Errorf("value %q does not match type %s", *val, sym.Type)
		}
		ctx.overrides[name] = v
	}
	for k := range ctx.diagnostics {
		delete(ctx.diagnostics, k)
	}
	m.resolveAndDiagnose(ctx)
	m.publishAll(ctx)
	return nil
}

// ContextForURI routes a document URI to its owning context: the MRU
// context if its .conf stack contains the URI's path, else the first
// (insertion-order) context whose stack contains it.
func (m *Manager) ContextForURI(docURI string) (*Context, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contextForURILocked(docURI)
}

// contextForURILocked is ContextForURI's body, for callers that
// already hold m.mu.
func (m *Manager) contextForURILocked(docURI string) (*Context, bool) {
	path := uri.Parse(docURI).Path
	if ctx, ok := m.contexts[m.mru]; ok && containsPath(ctx.ConfPaths, path) {
		return ctx, true
	}
	for _, id := range m.order {
		ctx := m.contexts[id]
		if containsPath(ctx.ConfPaths, path) {
			m.mru = id
			return ctx, true
		}
	}
	return nil, false
}

func containsPath(paths []string, path string) bool {
	for _, p := range paths {
		if p == path {
			return true
		}
	}
	return false
}
