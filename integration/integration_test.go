//go:build integration

// Package integration holds end-to-end tests that drive full protocol
// sessions: the stdio server over real pipes, and the bootstrap proxy over
// real subprocesses. Proxy tests against the installed backend skip when no
// scenebridge binary is on PATH; install one with
//
//	go install github.com/openshed/scenebridge/cmd/scenebridge@latest
package integration

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	scenebridge "github.com/openshed/scenebridge"
)

// skipIfBackendNotInstalled skips the test if the error indicates the
// backend binary could not be found.
func skipIfBackendNotInstalled(t *testing.T, err error) {
	t.Helper()

	if _, ok := errors.AsType[*scenebridge.BackendNotFoundError](err); ok {
		t.Skip("scenebridge backend not installed")
	}
}

// wireResponse is one decoded reply line.
type wireResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  map[string]any  `json:"result"`
	Error   map[string]any  `json:"error"`
}

// session drives a line-delimited protocol stream: requests in, replies out,
// each read bounded by a deadline so a dropped reply fails fast instead of
// hanging the suite.
type session struct {
	t     *testing.T
	in    io.Writer
	lines chan string
}

func newSession(t *testing.T, in io.Writer, out io.Reader) *session {
	t.Helper()

	s := &session{t: t, in: in, lines: make(chan string, 64)}
	go func() {
		scanner := bufio.NewScanner(out)
		scanner.Buffer(make([]byte, scenebridge.MaxLineSize), scenebridge.MaxLineSize)
		for scanner.Scan() {
			s.lines <- scanner.Text()
		}
		close(s.lines)
	}()

	return s
}

func (s *session) send(req map[string]any) {
	s.t.Helper()

	data, err := json.Marshal(req)
	require.NoError(s.t, err)
	_, err = s.in.Write(append(data, '\n'))
	require.NoError(s.t, err)
}

func (s *session) call(id any, method string, params map[string]any) {
	s.t.Helper()

	req := map[string]any{"jsonrpc": "2.0", "method": method}
	if id != nil {
		req["id"] = id
	}
	if params != nil {
		req["params"] = params
	}
	s.send(req)
}

func (s *session) toolCall(id any, name string, args map[string]any) {
	s.t.Helper()

	params := map[string]any{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	s.call(id, "tools/call", params)
}

// next reads one reply line within the deadline.
func (s *session) next(timeout time.Duration) wireResponse {
	s.t.Helper()

	select {
	case line, ok := <-s.lines:
		require.True(s.t, ok, "protocol stream closed while waiting for a reply")

		var resp wireResponse
		require.NoError(s.t, json.Unmarshal([]byte(line), &resp), "bad reply line: %s", line)
		require.Equal(s.t, "2.0", resp.JSONRPC)

		return resp
	case <-time.After(timeout):
		s.t.Fatalf("timed out after %s waiting for a reply", timeout)

		return wireResponse{}
	}
}

// expectClosed asserts the protocol stream ends without further replies.
func (s *session) expectClosed(timeout time.Duration) {
	s.t.Helper()

	select {
	case line, ok := <-s.lines:
		require.False(s.t, ok, "unexpected reply after session end: %s", line)
	case <-time.After(timeout):
		s.t.Fatalf("timed out after %s waiting for the stream to close", timeout)
	}
}

// toolEnvelope decodes the envelope JSON that rides inside a tools/call
// result's content blocks.
func toolEnvelope(t *testing.T, result map[string]any) (bool, map[string]any) {
	t.Helper()

	content, ok := result["content"].([]any)
	require.True(t, ok, "tools/call result missing content: %v", result)
	require.NotEmpty(t, content)

	// Failures lead with a human-readable "Error: ..." block; the
	// structured envelope is always the last block.
	last := content[len(content)-1].(map[string]any)
	require.Equal(t, "text", last["type"])

	var env struct {
		OK     bool           `json:"ok"`
		Result map[string]any `json:"result"`
		Error  map[string]any `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(last["text"].(string)), &env))

	isError, _ := result["isError"].(bool)
	require.Equal(t, !env.OK, isError)

	if env.OK {
		return true, env.Result
	}

	return false, env.Error
}
