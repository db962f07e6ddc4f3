package scenebridge

import (
	"github.com/openshed/scenebridge/internal/config"
	"github.com/openshed/scenebridge/internal/envelope"
	"github.com/openshed/scenebridge/internal/ops"
	"github.com/openshed/scenebridge/internal/rpc"
	"github.com/openshed/scenebridge/internal/scene"
)

// Re-export types from internal packages

// ===== Options and Configuration =====

// Options configures the bridge, its transports, and the bootstrap proxy.
type Options = config.Options

// Scheduler adopts the executor drain into a host's periodic-callback
// system. Implement it to drive the bridge from a real host's UI loop.
type Scheduler = config.Scheduler

// ===== Call Outcomes =====

// Result is the uniform outcome of a tool invocation: ok with a payload or
// failed with a classified error.
type Result = envelope.Result

// ResultError is the classified failure carried inside a Result.
type ResultError = envelope.Error

// Stable error codes carried in ResultError.Code. Clients branch on these,
// so they are part of the wire contract.
const (
	CodeInvalidArguments = envelope.CodeInvalidArguments
	CodeUnknownTool      = envelope.CodeUnknownTool
	CodeMethodNotFound   = envelope.CodeMethodNotFound
	CodeNotFound         = envelope.CodeNotFound
	CodeAlreadyExists    = envelope.CodeAlreadyExists
	CodeForbiddenTool    = envelope.CodeForbiddenTool
	CodeTimeout          = envelope.CodeTimeout
	CodeInternal         = envelope.CodeInternal
	CodeInvalidJSON      = envelope.CodeInvalidJSON
	CodeInvalidRequest   = envelope.CodeInvalidRequest
)

// ===== Scene =====

// ObjectType classifies a scene object.
type ObjectType = scene.ObjectType

// Object is one scene graph node.
type Object = scene.Object

// ===== Operations =====

// OperationRecord is a snapshot of one tracked long-running operation.
type OperationRecord = ops.Record

// Operation states reported in OperationRecord.Status.
const (
	OperationAccepted  = ops.StateAccepted
	OperationRunning   = ops.StateRunning
	OperationCompleted = ops.StateCompleted
	OperationFailed    = ops.StateFailed
	OperationCanceled  = ops.StateCanceled
)

// ===== Protocol =====

// ReadyToken is the line the backend prints on stderr exactly once when it
// can accept tool calls. The bootstrap proxy watches for it.
const ReadyToken = rpc.ReadyToken

// ProtocolVersion is the version reported by the initialize handshake.
const ProtocolVersion = rpc.Version

// MaxLineSize caps a single protocol line in bytes. Longer lines are
// rejected by the read loop on every transport.
const MaxLineSize = rpc.MaxLineSize
