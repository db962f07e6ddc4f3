package envelope

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/openshed/scenebridge/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestOK_MarshalShape(t *testing.T) {
	res := OK(map[string]any{"count": 2})

	data, err := json.Marshal(res)
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true,"result":{"count":2}}`, string(data))
}

func TestFail_MarshalShape(t *testing.T) {
	res := Fail(CodeNotFound, "object 'Missing' not found")

	data, err := json.Marshal(res)
	require.NoError(t, err)
	require.JSONEq(
		t,
		`{"ok":false,"error":{"code":"not_found","message":"object 'Missing' not found"}}`,
		string(data),
	)
}

func TestFromError_ToolErrorKeepsCode(t *testing.T) {
	err := &errors.ToolError{
		Code:    CodeAlreadyExists,
		Message: "object 'Cube' already exists",
		Details: map[string]any{"name": "Cube"},
	}

	res := FromError(err)
	require.False(t, res.OK)
	require.Equal(t, CodeAlreadyExists, res.Error.Code)
	require.Equal(t, "object 'Cube' already exists", res.Error.Message)
	require.Equal(t, "Cube", res.Error.Details["name"])
}

func TestFromError_WrappedToolError(t *testing.T) {
	inner := &errors.ToolError{Code: CodeNotFound, Message: "gone"}
	err := fmt.Errorf("dispatch: %w", inner)

	res := FromError(err)
	require.False(t, res.OK)
	require.Equal(t, CodeNotFound, res.Error.Code)
}

func TestFromError_TimeoutSentinel(t *testing.T) {
	err := fmt.Errorf("call 'studio.object.move': %w", errors.ErrCallTimeout)

	res := FromError(err)
	require.False(t, res.OK)
	require.Equal(t, CodeTimeout, res.Error.Code)
}

func TestFromError_UnknownBecomesInternalWithType(t *testing.T) {
	res := FromError(stderrors.New("boom"))

	require.False(t, res.OK)
	require.Equal(t, CodeInternal, res.Error.Code)
	require.Equal(t, "boom", res.Error.Message)
	require.Equal(t, "errors.errorString", res.Error.Type)
}

func TestFromError_NilIsOK(t *testing.T) {
	res := FromError(nil)
	require.True(t, res.OK)
	require.Nil(t, res.Error)
}

func TestFromPanic(t *testing.T) {
	res := FromPanic("index out of range")

	require.False(t, res.OK)
	require.Equal(t, CodeInternal, res.Error.Code)
	require.Equal(t, "index out of range", res.Error.Message)
	require.Equal(t, "string", res.Error.Type)
}
