package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// fileName is the ambient config file looked for in a project root.
const fileName = ".kconfiglsp.kdl"

// Load reads <projectRoot>/.kconfiglsp.kdl if present, merging its
// values onto Default(). A missing file is not an error: Load returns
// Default() unchanged.
func Load(projectRoot string) (*Config, error) {
	return LoadFile(filepath.Join(projectRoot, fileName))
}

// LoadFile reads an explicit KDL config path (e.g. from a --config
// flag naming the file directly rather than its containing
// directory), merging its values onto Default(). A missing file is
// not an error: LoadFile returns Default() unchanged.
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return parseKDL(string(content))
}

func parseKDL(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", fileName, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "log-level":
			if s, ok := firstStringArg(n); ok {
				cfg.LogLevel = s
			}
		case "cache":
			for _, cn := range n.Children {
				if nodeName(cn) == "parsed-graphs" {
					if v, ok := firstIntArg(cn); ok {
						cfg.Cache.ParsedGraphs = v
					}
				}
			}
		case "watch":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enabled":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Watch.Enabled = b
					}
				case "debounce-ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				}
			}
		case "search":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "fuzzy-threshold":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Search.FuzzyThreshold = v
					}
				case "max-results":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.MaxResults = v
					}
				}
			}
		}
	}

	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	b, ok := n.Arguments[0].Value.(bool)
	return b, ok
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	s, ok := n.Arguments[0].Value.(string)
	return s, ok
}
