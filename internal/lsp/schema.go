package lsp

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// ParamSchemas describes the params of the four non-standard
// kconfig/* methods. Used both as machine-readable documentation of
// the method surface and to validate a request's params before it
// ever reaches the Context Manager (ValidateParams below).
var ParamSchemas = map[string]*jsonschema.Schema{
	"kconfig/addBuild": {
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"root": {Type: "string", Description: "Path to the root Kconfig declaration file"},
			"conf": {
				Type:        "array",
				Items:       &jsonschema.Schema{Type: "string"},
				Description: "Ordered .conf file paths or glob patterns, user files after the board defconfig",
			},
			"env": {
				Type:        "object",
				Description: "Environment variables consulted during parse (BOARD, ARCH, BOARD_DIR, ...), each value optionally a \"?\"-separated fallback list",
			},
		},
		Required: []string{"root"},
	},
	"kconfig/search": {
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"ctx":   {Type: "integer", Description: "Context id returned by addBuild"},
			"query": {Type: "string", Description: "Symbol name search text"},
		},
		Required: []string{"ctx", "query"},
	},
	"kconfig/setMenu": {
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"ctx": {Type: "integer", Description: "Context id returned by addBuild"},
			"id":  {Type: "string", Description: "A menu node id previously returned by setMenu, or empty for the top menu"},
		},
		Required: []string{"ctx"},
	},
	"kconfig/setVal": {
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"ctx":  {Type: "integer", Description: "Context id returned by addBuild"},
			"name": {Type: "string", Description: "Symbol name, without the CONFIG_ prefix"},
			"val":  {Type: "string", Description: "New value, or omitted to unset the in-memory override"},
		},
		Required: []string{"ctx", "name"},
	},
}

// ValidateParams checks that every field ParamSchemas[method].Required
// names is present in params, returning InvalidParams otherwise. This
// is deliberately a required-field check rather than full structural
// validation against the jsonschema.Schema tree: the params payloads
// here are small and flat, and the four methods' handlers already
// type-check each field's value (ctx must decode as an int, etc) when
// they unmarshal params themselves.
func ValidateParams(method string, params json.RawMessage) *Error {
	schema, ok := ParamSchemas[method]
	if !ok || len(schema.Required) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(params, &fields); err != nil {
		return &Error{Code: ParseError, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	for _, name := range schema.Required {
		if _, ok := fields[name]; !ok {
			return &Error{Code: InvalidParams, Message: fmt.Sprintf("%s: missing required field %q", method, name)}
		}
	}
	return nil
}
