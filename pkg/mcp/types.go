// Package mcp implements a minimal newline-delimited JSON-RPC 2.0 server
// and client over stdio-style streams, exposing project resources and tools.
package mcp

import (
	json "github.com/goccy/go-json"
)

const protocolVersion = "2024-11-05"

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInternalError  = -32603
)

// Request is one JSON-RPC request line.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  map[string]any  `json:"params"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Response is one JSON-RPC response line. ID carries the request id
// verbatim; a parse error gets id null, so the field is never omitted.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

func success(id json.RawMessage, result any) Response {
	return Response{JSONRPC: "2.0", ID: normalizeID(id), Result: result}
}

func failure(id json.RawMessage, code int, message string) Response {
	return Response{JSONRPC: "2.0", ID: normalizeID(id), Error: &Error{Code: code, Message: message}}
}

func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}

// Resource describes a readable resource in resources/list.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mimeType"`
}

// ToolInfo describes an invokable tool in tools/list.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}
