// Package rpc holds the line-delimited JSON-RPC wire types shared by the
// stdio server, the bootstrap proxy, and the WebSocket transport.
//
// The envelope is JSON-RPC 2.0 shaped but error codes are strings from the
// bridge taxonomy, not numeric JSON-RPC codes. Request ids are kept as raw
// JSON so replies echo them byte-for-byte and "id": null stays
// distinguishable from an absent id.
package rpc

import (
	"bytes"
	"encoding/json"

	"github.com/openshed/scenebridge/internal/envelope"
	"github.com/openshed/scenebridge/internal/errors"
)

// Version is the protocol version reported by initialize.
const Version = "2024-11-05"

// ReadyToken is written to stderr exactly once when the backend can accept
// tool calls. The bootstrap proxy watches child stderr for it; it must
// never appear on stdout where it would corrupt the protocol stream.
const ReadyToken = "SCENEBRIDGE_READY"

// MaxLineSize caps a single wire line. Longer lines fail the read loop's
// scanner rather than exhausting memory.
const MaxLineSize = 1024 * 1024 // 1MB

// Well-known method names.
const (
	MethodInitialize    = "initialize"
	MethodPing          = "ping"
	MethodToolsList     = "tools/list"
	MethodToolsCall     = "tools/call"
	MethodResourcesList = "resources/list"
	MethodPromptsList   = "prompts/list"
	MethodShutdown      = "shutdown"
	MethodExit          = "exit"
	MethodInitialized   = "notifications/initialized"
)

// Request is one decoded client line.
type Request struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no usable correlation
// id. Absent and null ids both mean "do not reply".
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0 || bytes.Equal(r.ID, []byte("null"))
}

// Error is the wire error object. Code is a taxonomy string, never a
// numeric JSON-RPC code.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Response is one reply line.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewResult builds a success reply echoing the request id.
func NewResult(id json.RawMessage, result any) Response {
	return Response{JSONRPC: "2.0", ID: normalizeID(id), Result: result}
}

// NewError builds an error reply. A nil id encodes as "id": null, which is
// how parse failures with no recoverable id are answered.
func NewError(id json.RawMessage, code, message string) Response {
	return Response{JSONRPC: "2.0", ID: normalizeID(id), Error: &Error{Code: code, Message: message}}
}

func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}

	return id
}

// DecodeRequest parses one wire line. Failures come back as a
// LineDecodeError so callers can answer with an invalid_json reply.
func DecodeRequest(line []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Request{}, &errors.LineDecodeError{RawLine: string(line), Err: err}
	}

	return req, nil
}

// CallParams is the tools/call parameter shape.
type CallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// DecodeCallParams parses tools/call params. Absent arguments become an
// empty map; a missing name is the caller's problem to report.
func DecodeCallParams(params json.RawMessage) (CallParams, error) {
	var cp CallParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &cp); err != nil {
			return CallParams{}, &errors.LineDecodeError{RawLine: string(params), Err: err}
		}
	}
	if cp.Arguments == nil {
		cp.Arguments = map[string]any{}
	}

	return cp, nil
}

// TextContent is one content block in a tool-call result.
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the tools/call result payload. Every tool outcome, success
// or failure, travels in this shape; IsError distinguishes them.
type ToolResult struct {
	IsError bool          `json:"isError"`
	Content []TextContent `json:"content"`
}

// NewToolResult folds a normalized envelope into the tools/call result
// shape. Failures lead with a human-readable "Error: ..." block before the
// structured envelope so text-only clients still see what went wrong.
func NewToolResult(res envelope.Result) ToolResult {
	body, err := json.Marshal(res)
	if err != nil {
		body = []byte(`{"ok":false,"error":{"code":"internal_error","message":"unencodable result"}}`)
		res = envelope.Fail(envelope.CodeInternal, "unencodable result")
	}

	if res.OK {
		return ToolResult{Content: []TextContent{{Type: "text", Text: string(body)}}}
	}

	message := "tool failed"
	if res.Error != nil {
		message = res.Error.Message
	}

	return ToolResult{
		IsError: true,
		Content: []TextContent{
			{Type: "text", Text: "Error: " + message},
			{Type: "text", Text: string(body)},
		},
	}
}

// InitializeResult is the initialize reply payload.
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ServerInfo      ServerInfo     `json:"serverInfo"`
	Capabilities    map[string]any `json:"capabilities"`
}

// ServerInfo identifies the server in the initialize reply.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// NewInitializeResult builds the fixed handshake payload.
func NewInitializeResult(name, version string) InitializeResult {
	return InitializeResult{
		ProtocolVersion: Version,
		ServerInfo:      ServerInfo{Name: name, Version: version},
		Capabilities: map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
			"prompts":   map[string]any{},
		},
	}
}

// protocolMarkers are the substrings a JSON object line must carry to be
// treated as protocol rather than host noise.
var protocolMarkers = [][]byte{
	[]byte(`"jsonrpc"`),
	[]byte(`"method"`),
	[]byte(`"result"`),
	[]byte(`"id"`),
}

// LooksLikeProtocol reports whether a raw backend stdout line is plausibly
// a protocol frame. The proxy forwards matching lines verbatim and diverts
// everything else to the diagnostic stream, keeping the client-facing
// stdout parseable even when the host prints banners or progress noise.
func LooksLikeProtocol(line []byte) bool {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	for _, marker := range protocolMarkers {
		if bytes.Contains(trimmed, marker) {
			return true
		}
	}

	return false
}
