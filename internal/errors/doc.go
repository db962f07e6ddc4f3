// Package errors defines error types for scenebridge.
//
// It provides sentinels for commonly checked conditions and structured
// error types for backend process failures, wire decode failures, and
// classified tool failures. All types support unwrapping and can be
// checked with errors.Is and errors.As.
package errors
