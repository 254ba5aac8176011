// Package lsp is the LSP adapter: a thin shell around the
// configuration core. It defines the interfaces the
// transport/document-store layers must satisfy and the Dispatcher that
// turns a decoded request into a Context Manager call. The stdio
// JSON-RPC framer lives in cmd/kconfiglsp.
package lsp

import "encoding/json"

// Transport reads and writes whole JSON-RPC messages, hiding the
// `Content-Length: <n>\r\n\r\n<json>` framing (and any tolerated but
// unused `Content-Type` header) from the dispatcher.
type Transport interface {
	ReadMessage() (json.RawMessage, error)
	WriteMessage(json.RawMessage) error
}

// Position/Range mirror the LSP wire types.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// DocumentStore is the external, out-of-core text-document buffer
// store: didOpen/didChange/didClose maintain it, every other handler
// reads it. The core never mutates buffers directly — it only
// produces edits (diagnose.TextEdit) that code actions hand to the
// client, and reads symbol/value ranges out of its own already-parsed
// confparse.Entry data, never out of document text.
type DocumentStore interface {
	Open(uri string, languageID string, version int, text string)
	Change(uri string, version int, text string)
	Close(uri string)
	Text(uri string) (string, bool)
}

// Request is one decoded JSON-RPC request or notification.
type Request struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is one JSON-RPC response; ID echoes the request's.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Notification is a server-to-client message with no ID, e.g.
// textDocument/publishDiagnostics.
type Notification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

// Handler answers one decoded request's params, returning either a
// result to marshal or an *Error.
type Handler func(params json.RawMessage) (interface{}, *Error)

// Dispatcher routes a method name to its Handler. Standard LSP
// methods and the four non-standard kconfig/* methods are both
// registered through the same Register call; the adapter does not
// distinguish them structurally, only by name.
type Dispatcher struct {
	handlers map[string]Handler
}

// NewDispatcher returns an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register attaches handler under method, overwriting any prior
// registration (used by tests that stub a single method).
func (d *Dispatcher) Register(method string, handler Handler) {
	d.handlers[method] = handler
}

// Dispatch looks up method and invokes its handler, returning
// MethodNotFound when none is registered.
func (d *Dispatcher) Dispatch(method string, params json.RawMessage) (interface{}, *Error) {
	h, ok := d.handlers[method]
	if !ok {
		return nil, &Error{Code: MethodNotFound, Message: "method not found: " + method}
	}
	return h(params)
}
