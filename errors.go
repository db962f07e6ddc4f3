package scenebridge

import "github.com/openshed/scenebridge/internal/errors"

// Re-export error types from internal package

// BackendNotFoundError indicates the backend binary was not found.
type BackendNotFoundError = errors.BackendNotFoundError

// BackendExitError indicates the backend process exited unexpectedly.
type BackendExitError = errors.BackendExitError

// LineDecodeError indicates a wire line could not be decoded as JSON.
type LineDecodeError = errors.LineDecodeError

// ToolError is a handler failure with a classified error code. Custom tool
// handlers return it to control the code reported to the client.
type ToolError = errors.ToolError

// BridgeError is the base interface for all scenebridge errors.
type BridgeError = errors.BridgeError

// Re-export sentinel errors from internal package.
var (
	// ErrBridgeNotStarted indicates the bridge has not been started.
	ErrBridgeNotStarted = errors.ErrBridgeNotStarted

	// ErrBridgeAlreadyStarted indicates the bridge is already running.
	ErrBridgeAlreadyStarted = errors.ErrBridgeAlreadyStarted

	// ErrBridgeClosed indicates the bridge has been closed and cannot be reused.
	ErrBridgeClosed = errors.ErrBridgeClosed

	// ErrCallTimeout indicates a dispatched call timed out waiting for the
	// main thread.
	ErrCallTimeout = errors.ErrCallTimeout

	// ErrQueueFull indicates the job queue never had room within the call
	// timeout.
	ErrQueueFull = errors.ErrQueueFull

	// ErrProxyClosed indicates the bootstrap proxy has already run; proxies
	// are single-use.
	ErrProxyClosed = errors.ErrProxyClosed
)
