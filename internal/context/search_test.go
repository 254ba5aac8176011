package context

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/surgebase/porter2"

	"github.com/nrfconnect/kconfiglsp/internal/kconfig"
)

func TestSymbolScorePrefixMatchScoresOne(t *testing.T) {
	q := "net"
	score := symbolScore("NET_BUFFERS", q, porter2.Stem(q), 0.6)
	require.Equal(t, 1.0, score)
}

func TestSymbolScoreStemFallbackScoresAtThreshold(t *testing.T) {
	q := "networking"
	qStem := porter2.Stem(q)
	// Jaro-Winkler over the raw names falls short of this threshold,
	// but the stemmed name contains the stemmed query; the fallback
	// must score at the threshold exactly so the gate keeps it.
	score := symbolScore("LEGACY_NETWORKING", q, qStem, 0.95)
	require.Equal(t, 0.95, score)
}

func TestSymbolSearchStemFallbackSurvivesThresholdGate(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "Kconfig", `
config LEGACY_NETWORKING
	bool "Legacy networking support"
`)

	m := NewManager(kconfig.OSOpener, nil, SearchConfig{FuzzyThreshold: 0.95, MaxResults: 10})
	id, err := m.AddBuild(root, nil, nil)
	require.NoError(t, err)

	items, err := m.SymbolSearch(id, "networking")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "LEGACY_NETWORKING", items[0].Name)
	require.Equal(t, 0.95, items[0].Similarity)
}
