//go:build integration

package integration

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	scenebridge "github.com/openshed/scenebridge"
)

// TestProxy_RealBackendSession drives the bootstrap proxy against the
// installed scenebridge binary: handshake answered during boot, a tool call
// queued and replayed after the readiness token, then a clean exit.
func TestProxy_RealBackendSession(t *testing.T) {
	if _, err := exec.LookPath("scenebridge"); err != nil {
		t.Skip("scenebridge backend not installed")
	}

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	t.Cleanup(func() {
		_ = inW.Close()
		_ = outR.Close()
	})

	runErr := make(chan error, 1)
	go func() {
		runErr <- scenebridge.RunProxy(context.Background(), inR, outW, io.Discard,
			scenebridge.WithEnv(map[string]string{"SCENEBRIDGE_CALL_TIMEOUT": "10"}))
	}()

	sess := newSession(t, inW, outR)

	// While booting the proxy answers initialize itself; once the backend
	// is ready it forwards instead. Either server satisfies the handshake.
	sess.call(1, "initialize", nil)
	resp := sess.next(replyTimeout)
	require.JSONEq(t, "1", string(resp.ID))
	require.Nil(t, resp.Error)
	name := resp.Result["serverInfo"].(map[string]any)["name"].(string)
	require.True(t, strings.HasPrefix(name, "scenebridge"), "unexpected server name %q", name)

	// Tool calls are never answered by the proxy; this one is queued until
	// the backend signals ready, so its reply proves the replay happened.
	sess.toolCall(2, "studio.health", nil)
	resp = sess.next(replyTimeout)
	require.JSONEq(t, "2", string(resp.ID))
	ok, result := toolEnvelope(t, resp.Result)
	require.True(t, ok)
	require.Equal(t, "ready", result["status"])

	// The backend answered, so it is ready and exit is forwarded rather
	// than handled by the proxy. The child stops and the proxy drains.
	sess.call(3, "exit", nil)
	resp = sess.next(replyTimeout)
	require.JSONEq(t, "3", string(resp.ID))

	select {
	case err := <-runErr:
		skipIfBackendNotInstalled(t, err)
		require.NoError(t, err)
	case <-time.After(replyTimeout):
		t.Fatal("proxy did not stop after backend exit")
	}
}

// TestProxy_BackendNeverReadySynthesizesReplies uses a backend that exits
// without ever printing the readiness token. Queued requests must get
// synthesized error replies so no client call hangs forever.
func TestProxy_BackendNeverReadySynthesizesReplies(t *testing.T) {
	sleepPath, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep binary not available")
	}

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	t.Cleanup(func() {
		_ = inW.Close()
		_ = outR.Close()
	})

	runErr := make(chan error, 1)
	go func() {
		runErr <- scenebridge.RunProxy(context.Background(), inR, outW, io.Discard,
			scenebridge.WithBackendPath(sleepPath),
			scenebridge.WithBackendArgs("2"))
	}()

	sess := newSession(t, inW, outR)
	sess.toolCall(9, "studio.health", nil)

	resp := sess.next(replyTimeout)
	require.JSONEq(t, "9", string(resp.ID))
	require.Equal(t, true, resp.Result["isError"])
	content := resp.Result["content"].([]any)
	require.Equal(t, "Backend exited before ready", content[0].(map[string]any)["text"])

	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(replyTimeout):
		t.Fatal("proxy did not stop after backend exit")
	}
}

// TestProxy_BackendExitCodeSurfaces runs a backend that fails immediately
// and checks the exit maps to a BackendExitError with the real code.
func TestProxy_BackendExitCodeSurfaces(t *testing.T) {
	falsePath, err := exec.LookPath("false")
	if err != nil {
		t.Skip("false binary not available")
	}

	// Stdin stays open so only the backend's own death ends the run.
	inR, inW := io.Pipe()
	t.Cleanup(func() { _ = inW.Close() })

	runErr := scenebridge.RunProxy(context.Background(), inR, io.Discard, io.Discard,
		scenebridge.WithBackendPath(falsePath))

	exitErr, ok := errors.AsType[*scenebridge.BackendExitError](runErr)
	require.True(t, ok, "want BackendExitError, got %v", runErr)
	require.Equal(t, 1, exitErr.ExitCode)
}

// TestProxy_MissingBackendPath checks discovery failure surfaces before any
// protocol I/O happens.
func TestProxy_MissingBackendPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "scenebridge")

	err := scenebridge.RunProxy(context.Background(), strings.NewReader(""), io.Discard, io.Discard,
		scenebridge.WithBackendPath(missing))

	notFound, ok := errors.AsType[*scenebridge.BackendNotFoundError](err)
	require.True(t, ok, "want BackendNotFoundError, got %v", err)
	require.Equal(t, []string{missing}, notFound.SearchedPaths)
}
