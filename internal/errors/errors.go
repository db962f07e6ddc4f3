package errors

import (
	"errors"
	"fmt"
)

// BridgeError is the base interface for all scenebridge errors.
type BridgeError interface {
	error
	IsBridgeError() bool
}

// Compile-time verification that all error types implement BridgeError.
var (
	_ BridgeError = (*BackendNotFoundError)(nil)
	_ BridgeError = (*BackendExitError)(nil)
	_ BridgeError = (*LineDecodeError)(nil)
	_ BridgeError = (*ToolError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrBridgeNotStarted indicates the bridge has not been started.
	ErrBridgeNotStarted = errors.New("bridge not started")

	// ErrBridgeAlreadyStarted indicates the bridge is already running.
	ErrBridgeAlreadyStarted = errors.New("bridge already started")

	// ErrBridgeClosed indicates the bridge has been closed and cannot be reused.
	ErrBridgeClosed = errors.New("bridge closed: bridges are single-use, create a new one with New()")

	// ErrQueueFull indicates the job queue never had room for an enqueue
	// within the call timeout.
	ErrQueueFull = errors.New("job queue full")

	// ErrCallTimeout indicates a dispatched call timed out waiting for the
	// executor. The job itself may still complete later; its result is dropped.
	ErrCallTimeout = errors.New("call timeout")

	// ErrProxyClosed indicates the bootstrap proxy has already run; proxies
	// are single-use.
	ErrProxyClosed = errors.New("proxy closed")
)

// BackendNotFoundError indicates the backend binary was not found.
type BackendNotFoundError struct {
	SearchedPaths []string
}

func (e *BackendNotFoundError) Error() string {
	return fmt.Sprintf("backend binary not found in: %v", e.SearchedPaths)
}

// IsBridgeError implements BridgeError.
func (e *BackendNotFoundError) IsBridgeError() bool { return true }

// BackendExitError indicates the backend process exited unexpectedly.
type BackendExitError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *BackendExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend exited (code %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("backend exited (code %d): %s", e.ExitCode, e.Stderr)
}

func (e *BackendExitError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *BackendExitError) IsBridgeError() bool { return true }

// LineDecodeError indicates a wire line could not be decoded as JSON.
// The raw line that failed to parse is preserved for diagnostics.
type LineDecodeError struct {
	RawLine string
	Err     error
}

func (e *LineDecodeError) Error() string {
	return fmt.Sprintf("failed to decode line: %v", e.Err)
}

func (e *LineDecodeError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *LineDecodeError) IsBridgeError() bool { return true }

// ToolError indicates a tool handler failed with a classified error code.
// Handlers return it to control the code reported to the client instead of
// the generic internal_error classification.
type ToolError struct {
	Code    string
	Message string
	Details map[string]any
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsBridgeError implements BridgeError.
func (e *ToolError) IsBridgeError() bool { return true }
