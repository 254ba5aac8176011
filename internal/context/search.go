package context

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/surgebase/porter2"

	"github.com/nrfconnect/kconfiglsp/internal/kconfig"
)

// SymbolItem is one symbolSearch result: enough for a completion item
// or a search-results list entry.
type SymbolItem struct {
	Name       string
	Visible    bool
	Type       kconfig.SymType
	Help       string
	Prompt     string
	Similarity float64 // ranking score, descending
}

// SymbolSearch ranks every declared symbol in ctx against query,
// combining a Jaro-Winkler similarity over the raw name (primary
// signal) with a Porter2-stemmed substring match over the name
// (secondary signal, for names containing a query's word stem in a
// different inflection, e.g. "NETWORKING" against a "network" query).
// Results below m.search.FuzzyThreshold are dropped; an exact prefix
// match always scores 1.0 regardless of the fuzzy algorithm.
func (m *Manager) SymbolSearch(ctxID int, query string) ([]SymbolItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, err := m.context(ctxID)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	qStem := porter2.Stem(q)

	var items []SymbolItem
	for _, sym := range ctx.Graph.Symbols() {
		score := symbolScore(sym.Name, q, qStem, m.search.FuzzyThreshold)
		if score == 0 || score < m.search.FuzzyThreshold {
			continue
		}
		prompt, help := promptAndHelp(ctx, sym)
		items = append(items, SymbolItem{
			Name:       sym.Name,
			Visible:    sym.Visibility > 0,
			Type:       sym.Type,
			Help:       help,
			Prompt:     prompt,
			Similarity: score,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Similarity != items[j].Similarity {
			return items[i].Similarity > items[j].Similarity
		}
		return items[i].Name < items[j].Name
	})
	if len(items) > m.search.MaxResults {
		items = items[:m.search.MaxResults]
	}
	return items, nil
}

// symbolScore returns name's best match score against query: an exact
// prefix match on the lowercased name scores 1.0; otherwise the
// go-edlib Jaro-Winkler similarity, and, if that falls short of
// threshold, whether the stemmed name contains the stemmed query as a
// fallback signal, scored at the threshold exactly so it ranks behind
// genuine fuzzy matches but still surfaces.
func symbolScore(name, query, queryStem string, threshold float64) float64 {
	if query == "" {
		return 0
	}
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, query) {
		return 1.0
	}
	var score float64
	if sim, err := edlib.StringsSimilarity(lower, query, edlib.JaroWinkler); err == nil {
		score = float64(sim)
	}
	if score >= threshold {
		return score
	}
	if strings.Contains(porter2.Stem(lower), queryStem) {
		return threshold
	}
	return score
}

// promptAndHelp returns the first non-empty prompt/help text across
// sym's menu nodes, the text a hover or completion item shows.
func promptAndHelp(ctx *Context, sym *kconfig.Symbol) (prompt, help string) {
	for _, id := range sym.NodeIDs {
		n := ctx.Graph.Node(id)
		if n == nil {
			continue
		}
		if prompt == "" {
			prompt = n.Prompt
		}
		if help == "" {
			help = n.Help
		}
	}
	return prompt, help
}
