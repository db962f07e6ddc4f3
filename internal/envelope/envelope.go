// Package envelope defines the normalized outcome shape shared by every
// tool invocation, regardless of which transport carried the request.
//
// A Result is either ok with a payload or failed with a classified Error.
// Handlers never hand raw Go errors or stack traces to clients; FromError
// is the single point where arbitrary failures collapse into the code
// taxonomy.
package envelope

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/openshed/scenebridge/internal/errors"
)

// Stable error codes. Clients branch on these, so they are part of the
// wire contract and must not be renamed.
const (
	CodeInvalidArguments = "invalid_arguments"
	CodeUnknownTool      = "unknown_tool"
	CodeMethodNotFound   = "method_not_found"
	CodeNotFound         = "not_found"
	CodeAlreadyExists    = "already_exists"
	CodeForbiddenTool    = "forbidden_tool"
	CodeTimeout          = "timeout"
	CodeInternal         = "internal_error"
	CodeInvalidJSON      = "invalid_json"
	CodeInvalidRequest   = "invalid_request"
)

// Error is the classified failure payload carried inside a Result.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Type    string         `json:"type,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Result is the uniform outcome of a tool invocation.
type Result struct {
	OK     bool   `json:"ok"`
	Result any    `json:"result,omitempty"`
	Error  *Error `json:"error,omitempty"`
}

// OK wraps a successful payload.
func OK(v any) Result {
	return Result{OK: true, Result: v}
}

// Fail builds a failed Result with a classified code.
func Fail(code, message string) Result {
	return Result{OK: false, Error: &Error{Code: code, Message: message}}
}

// Failf is Fail with formatting.
func Failf(code, format string, args ...any) Result {
	return Fail(code, fmt.Sprintf(format, args...))
}

// FailDetails builds a failed Result carrying structured details.
func FailDetails(code, message string, details map[string]any) Result {
	return Result{OK: false, Error: &Error{Code: code, Message: message, Details: details}}
}

// FromError classifies an arbitrary handler error into a Result.
//
// A *ToolError keeps its own code and details. Known sentinels map to their
// codes. Anything else becomes internal_error carrying the Go type name so
// operators can find the failure without the client seeing a stack trace.
func FromError(err error) Result {
	if err == nil {
		return OK(nil)
	}

	var te *errors.ToolError
	if stderrors.As(err, &te) {
		return Result{OK: false, Error: &Error{
			Code:    te.Code,
			Message: te.Message,
			Details: te.Details,
		}}
	}

	if stderrors.Is(err, errors.ErrCallTimeout) {
		return Fail(CodeTimeout, err.Error())
	}

	return Result{OK: false, Error: &Error{
		Code:    CodeInternal,
		Message: err.Error(),
		Type:    typeName(err),
	}}
}

// FromPanic classifies a recovered panic value into a Result.
func FromPanic(v any) Result {
	return Result{OK: false, Error: &Error{
		Code:    CodeInternal,
		Message: fmt.Sprint(v),
		Type:    typeName(v),
	}}
}

func typeName(v any) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", v), "*")
}
