package lsp

import (
	"errors"
	"fmt"

	"github.com/nrfconnect/kconfiglsp/internal/lsperrors"
)

// Error is a JSON-RPC error object: {code, message, data?}.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string { return fmt.Sprintf("%d: %s", e.Code, e.Message) }

// Standard JSON-RPC / LSP error codes.
const (
	ParseError     = -32700
	InvalidParams  = -32602
	MethodNotFound = -32601
	UnknownErrCode = -32001
)

// Core-specific codes, under the LSP server-error band.
const (
	UnknownNode  = 1
	Desync       = 2
	ParsingFailed = 3
)

// FromCoreError maps an internal/lsperrors (or plain) error into the
// JSON-RPC error this layer returns to the client: parse failures
// become ParsingFailed, desynced node ids become Desync, anything
// else wraps as UnknownErrCode.
func FromCoreError(err error) *Error {
	if err == nil {
		return nil
	}
	var perr *lsperrors.ParseFailedError
	if errors.As(err, &perr) {
		return &Error{Code: ParsingFailed, Message: perr.Error()}
	}
	var cerr *lsperrors.ContextError
	if errors.As(err, &cerr) {
		if cerr.Desync {
			return &Error{Code: Desync, Message: cerr.Error()}
		}
		return &Error{Code: UnknownNode, Message: cerr.Error()}
	}
	if lsperrors.IsDesync(err) {
		return &Error{Code: Desync, Message: err.Error()}
	}
	// Conf-entry failures never invalidate a parse and have no code of
	// their own; they stay in the generic server-error band.
	var eerr *lsperrors.ConfEntryError
	if errors.As(err, &eerr) {
		return &Error{Code: UnknownErrCode, Message: eerr.Error()}
	}
	return &Error{Code: UnknownErrCode, Message: err.Error()}
}
