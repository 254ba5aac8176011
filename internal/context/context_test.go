package context

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nrfconnect/kconfiglsp/internal/kconfig"
	"github.com/nrfconnect/kconfiglsp/internal/lsperrors"
	"github.com/nrfconnect/kconfiglsp/internal/uri"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestManager() *Manager {
	return NewManager(kconfig.OSOpener, nil, SearchConfig{FuzzyThreshold: 0.3, MaxResults: 10})
}

func TestAddBuildHoverKnownSymbol(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "Kconfig", `
config FOO
	bool "Enable foo"
	help
	  Turns on foo
`)
	conf := writeFile(t, dir, "prj.conf", "")

	m := newTestManager()
	id, err := m.AddBuild(root, []string{conf}, map[string]string{
		"BOARD": "b", "ARCH": "a", "BOARD_DIR": "/bd",
	})
	require.NoError(t, err)

	hover, err := m.Hover(id, "FOO")
	require.NoError(t, err)
	require.Contains(t, hover, "Enable foo")
	require.Contains(t, hover, "Type: bool")
	require.Contains(t, hover, "Value: n")
	require.Contains(t, hover, "Turns on foo")
}

func TestAddBuildTypeMismatchQuickFix(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "Kconfig", `
config NUM
	int "A number"
`)
	conf := writeFile(t, dir, "prj.conf", "CONFIG_NUM=0x10\n")

	m := newTestManager()
	id, err := m.AddBuild(root, []string{conf}, nil)
	require.NoError(t, err)

	diags, err := m.Diagnostics(id)
	require.NoError(t, err)
	u := confURI(conf)
	require.Len(t, diags[u], 1)
	d := diags[u][0]
	require.Equal(t, "Invalid type. Expected int", d.Message)
	require.Len(t, d.CodeActions, 1)
	require.Equal(t, "Convert value to int", d.CodeActions[0].Title)
	require.Equal(t, "16", d.CodeActions[0].Edits[0].NewText)
}

func TestAddBuildMissingDependencyBatchFix(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "Kconfig", `
config A
	bool "A"

config B
	bool "B"

config BAR
	bool "Bar"
	depends on A && B
`)
	conf := writeFile(t, dir, "prj.conf", "CONFIG_BAR=y\n")

	m := newTestManager()
	id, err := m.AddBuild(root, []string{conf}, nil)
	require.NoError(t, err)

	diags, err := m.Diagnostics(id)
	require.NoError(t, err)
	u := confURI(conf)
	require.Len(t, diags[u], 1)

	var titles []string
	for _, a := range diags[u][0].CodeActions {
		titles = append(titles, a.Title)
	}
	require.Equal(t, []string{
		"Enable CONFIG_A", "Enable CONFIG_B",
		"Enable 2 entries to resolve dependencies", "Remove entry",
	}, titles)
}

func TestAddBuildRedundantAssignmentHint(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "Kconfig", `
config FOO
	bool "Foo"
	default y
`)
	conf := writeFile(t, dir, "prj.conf", "CONFIG_FOO=y\n")

	m := newTestManager()
	id, err := m.AddBuild(root, []string{conf}, nil)
	require.NoError(t, err)

	diags, err := m.Diagnostics(id)
	require.NoError(t, err)
	u := confURI(conf)
	require.Len(t, diags[u], 1)
	require.Equal(t, "Value is y by default", diags[u][0].Message)
	require.Equal(t, "Remove redundant entry", diags[u][0].CodeActions[0].Title)
}

func TestAddBuildInvisibleSymbolWarning(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "Kconfig", `
config HIDDEN
	bool
`)
	conf := writeFile(t, dir, "prj.conf", "CONFIG_HIDDEN=y\n")

	m := newTestManager()
	id, err := m.AddBuild(root, []string{conf}, nil)
	require.NoError(t, err)

	diags, err := m.Diagnostics(id)
	require.NoError(t, err)
	u := confURI(conf)
	require.Len(t, diags[u], 1)
	require.Equal(t, "Symbol CONFIG_HIDDEN cannot be set (has no prompt)", diags[u][0].Message)
}

func TestSetMenuDesyncOnStaleID(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "Kconfig", `
config FOO
	bool "Foo"
`)
	conf := writeFile(t, dir, "prj.conf", "")

	m := newTestManager()
	id, err := m.AddBuild(root, []string{conf}, nil)
	require.NoError(t, err)

	top, err := m.TopMenu(id)
	require.NoError(t, err)
	require.NotEmpty(t, top.Items)
	staleID := top.Items[0].ID

	require.NoError(t, os.WriteFile(conf, []byte("CONFIG_FOO=y\n"), 0o644))
	require.NoError(t, m.Reparse(id))

	_, err = m.SetMenu(id, staleID)
	require.Error(t, err)
}

func TestSetValOverridesWithoutTouchingDisk(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "Kconfig", `
config FOO
	bool "Foo"
`)
	conf := writeFile(t, dir, "prj.conf", "")

	m := newTestManager()
	id, err := m.AddBuild(root, []string{conf}, nil)
	require.NoError(t, err)

	y := "y"
	require.NoError(t, m.SetVal(id, "FOO", &y))
	hover, err := m.Hover(id, "FOO")
	require.NoError(t, err)
	require.Contains(t, hover, "Value: y")

	before, err := os.ReadFile(conf)
	require.NoError(t, err)
	require.Empty(t, string(before))

	require.NoError(t, m.SetVal(id, "FOO", nil))
	hover, err = m.Hover(id, "FOO")
	require.NoError(t, err)
	require.Contains(t, hover, "Value: n")
}

func TestLoadConfigReappliesStack(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "Kconfig", `
config FOO
	bool "Foo"
`)
	conf := writeFile(t, dir, "prj.conf", "")

	m := newTestManager()
	id, err := m.AddBuild(root, []string{conf}, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(conf, []byte("CONFIG_FOO=y\n"), 0o644))
	require.NoError(t, m.LoadConfig(id))

	hover, err := m.Hover(id, "FOO")
	require.NoError(t, err)
	require.Contains(t, hover, "Value: y")
}

func TestAddBuildUnparseableRootReturnsParseFailedError(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "Kconfig", "source \"missing.kconfig\"\n")

	m := newTestManager()
	_, err := m.AddBuild(root, nil, nil)
	require.Error(t, err)
	var perr *lsperrors.ParseFailedError
	require.ErrorAs(t, err, &perr)
}

func confURI(path string) string {
	return uri.File(path).String()
}
