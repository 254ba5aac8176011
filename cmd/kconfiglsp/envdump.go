package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// envDumpFile is the wire shape of the environment-dump side tool's
// output: {"root": <path>, "env": {name: value|[alts...]}}. Something
// outside this repo serializes a build's environment variables to
// this file; we only need to read it back as one of the inputs to
// kconfig/addBuild.
type envDumpFile struct {
	Root string          `json:"root"`
	Env  map[string]envAlternative `json:"env"`
}

// envAlternative decodes either a single string or a JSON array of
// fallback alternatives, collapsing to the "?"-joined form
// internal/kconfig.Env expects.
type envAlternative []string

func (a *envAlternative) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = envAlternative{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("env value must be a string or array of strings: %w", err)
	}
	*a = envAlternative(list)
	return nil
}

func (a envAlternative) join() string { return strings.Join(a, "?") }

// readEnvDump loads an environment-dump file and flattens it into the
// root path plus a plain name->"?"-joined-value map, ready to hand to
// context.Manager.AddBuild.
func readEnvDump(path string) (root string, env map[string]string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading env dump %s: %w", path, err)
	}
	var dump envDumpFile
	if err := json.Unmarshal(data, &dump); err != nil {
		return "", nil, fmt.Errorf("parsing env dump %s: %w", path, err)
	}
	env = make(map[string]string, len(dump.Env))
	for k, v := range dump.Env {
		env[k] = v.join()
	}
	return dump.Root, env, nil
}
