package lsp

import (
	"encoding/json"
	"fmt"

	"github.com/nrfconnect/kconfiglsp/internal/context"
	"github.com/nrfconnect/kconfiglsp/internal/diagnose"
)

// Server wires a context.Manager to a Dispatcher: the supported
// standard LSP subset plus the four kconfig/* methods, publishing
// diagnostics back through Transport as notifications. It owns no
// document buffers itself; Docs is the store handlers consult for
// position math.
type Server struct {
	Manager *context.Manager
	Docs    DocumentStore
	Out     Transport

	// OnBuild, if set, is called after every successful kconfig/addBuild
	// with the new context id and root path — the cmd entrypoint uses
	// this to start watching the new context's Kconfig tree without the
	// Server needing to know a *context.Watcher exists.
	OnBuild func(ctxID int, root string)

	dispatcher *Dispatcher
}

// NewServer builds a Server and registers every handler.
func NewServer(mgr *context.Manager, docs DocumentStore, out Transport) *Server {
	s := &Server{Manager: mgr, Docs: docs, Out: out, dispatcher: NewDispatcher()}
	s.registerStandard()
	s.registerKconfig()
	return s
}

// Publish implements context.Publisher: it sends one
// textDocument/publishDiagnostics notification per call.
func (s *Server) Publish(uri string, diags []diagnose.Diagnostic) {
	if s.Out == nil {
		return
	}
	items := make([]publishedDiagnostic, 0, len(diags))
	for _, d := range diags {
		items = append(items, toLSPDiagnostic(d))
	}
	note := Notification{
		JSONRPC: "2.0",
		Method:  "textDocument/publishDiagnostics",
		Params: publishDiagnosticsParams{
			URI:         uri,
			Diagnostics: items,
		},
	}
	raw, err := json.Marshal(note)
	if err != nil {
		return
	}
	_ = s.Out.WriteMessage(raw)
}

// Dispatch decodes and routes one request, validating its params
// against ParamSchemas first for the kconfig/* methods.
func (s *Server) Dispatch(req Request) (interface{}, *Error) {
	if _, isKconfig := ParamSchemas[req.Method]; isKconfig {
		if verr := ValidateParams(req.Method, req.Params); verr != nil {
			return nil, verr
		}
	}
	return s.dispatcher.Dispatch(req.Method, req.Params)
}

func decode(params json.RawMessage, v interface{}) *Error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return &Error{Code: InvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}
