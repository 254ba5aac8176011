package main

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStdioTransportRoundTrip(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("Content-Length: 12\r\n\r\n{\"id\":\"abc\"}")
	tr := newStdioTransport(in, &out)

	msg, err := tr.ReadMessage()
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"abc"}`, string(msg))

	require.NoError(t, tr.WriteMessage(json.RawMessage(`{"ok":true}`)))
	require.Equal(t, "Content-Length: 11\r\n\r\n{\"ok\":true}", out.String())
}

func TestStdioTransportIgnoresContentType(t *testing.T) {
	in := strings.NewReader("Content-Length: 4\r\nContent-Type: application/vscode-jsonrpc; charset=utf-8\r\n\r\nnull")
	tr := newStdioTransport(in, &bytes.Buffer{})
	msg, err := tr.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, "null", string(msg))
}

func TestStdioTransportMissingContentLengthErrors(t *testing.T) {
	in := strings.NewReader("\r\n{}")
	tr := newStdioTransport(in, &bytes.Buffer{})
	_, err := tr.ReadMessage()
	require.Error(t, err)
}

func TestStdioTransportEOFAtFrameBoundary(t *testing.T) {
	tr := newStdioTransport(strings.NewReader(""), &bytes.Buffer{})
	_, err := tr.ReadMessage()
	require.ErrorIs(t, err, io.EOF)
}
