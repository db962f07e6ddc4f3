package tools

import (
	"context"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/openshed/scenebridge/internal/envelope"
	"github.com/openshed/scenebridge/internal/errors"
)

// batchAllowed is the set of tools a batch step may run. Introspection,
// snapshots, and the async surface stay out; batch itself must not nest.
var batchAllowed = map[string]bool{
	ToolVersion:              true,
	ToolSceneListObjects:     true,
	ToolSceneGetActiveObject: true,
	ToolObjectMove:           true,
	ToolObjectExists:         true,
	ToolObjectGetLocation:    true,
	ToolObjectGetTransform:   true,
	ToolObjectSetTransform:   true,
	ToolObjectRename:         true,
	ToolObjectDelete:         true,
	ToolMeshCreateCube:       true,
	ToolMeshCreateUVSphere:   true,
	ToolMeshCreateCylinder:   true,
}

// registerBatch wires the step runner. Steps run in order on the same
// executor turn as the batch call itself, so no other work interleaves.
func registerBatch(r *Registry, deps Deps) {
	r.Register(newTool(
		ToolBatch,
		"Run an ordered list of tool steps in one turn. Stops at the first failure unless continue_on_error is set.",
		requiredSchema(map[string]*jsonschema.Schema{
			"steps": {
				Type:        "array",
				Description: "Steps to run, each {tool, args}.",
				Items: requiredSchema(map[string]*jsonschema.Schema{
					"tool": stringSchema("Namespaced tool to run."),
					"args": objectSchema(nil),
				}, "tool"),
			},
			"continue_on_error": booleanSchema("Keep running after a failed step. Defaults to false."),
		}, "steps"),
	), func(ctx context.Context, args map[string]any) (any, error) {
		return runBatch(ctx, r, deps, args)
	})
}

func runBatch(ctx context.Context, r *Registry, deps Deps, args map[string]any) (any, error) {
	rawSteps, ok := args["steps"].([]any)
	if !ok {
		return nil, invalidArgs("steps must be an array")
	}
	continueOnError, err := optionalBool(args, "continue_on_error", false)
	if err != nil {
		return nil, err
	}

	log := deps.Log.With("component", "batch")
	results := make([]map[string]any, 0, len(rawSteps))
	for i, rawStep := range rawSteps {
		name, stepArgs, stepErr := decodeStep(rawStep, i)

		var res envelope.Result
		switch {
		case stepErr != nil:
			res = envelope.FromError(stepErr)
		case !strings.HasPrefix(name, Namespace) || name == ToolBatch:
			res = envelope.FailDetails(envelope.CodeForbiddenTool,
				"tool not allowed in batch", map[string]any{"tool": name})
		case !r.Has(name):
			res = envelope.FailDetails(envelope.CodeUnknownTool,
				"unknown tool", map[string]any{"tool": name})
		case !batchAllowed[name]:
			res = envelope.FailDetails(envelope.CodeForbiddenTool,
				"tool not allowed in batch", map[string]any{"tool": name})
		default:
			res = r.Dispatch(ctx, name, stepArgs)
		}

		if res.OK {
			results = append(results, map[string]any{"ok": true, "tool": name, "result": res.Result})

			continue
		}

		results = append(results, map[string]any{"ok": false, "tool": name, "error": res.Error})
		// All failure kinds halt uniformly: a forbidden or malformed step
		// counts the same as a handler error.
		if !continueOnError {
			log.Warn("Batch halted", "step", i, "tool", name, "code", res.Error.Code)

			break
		}
	}

	return map[string]any{"results": results}, nil
}

// decodeStep validates one batch step. A placeholder name comes back when
// the step is too malformed to carry one, so the per-step result can still
// identify what failed.
func decodeStep(raw any, index int) (string, map[string]any, error) {
	step, ok := raw.(map[string]any)
	if !ok {
		return "<invalid>", nil, &errors.ToolError{
			Code:    envelope.CodeInvalidArguments,
			Message: "step must be an object",
			Details: map[string]any{"index": index},
		}
	}

	name, ok := step["tool"].(string)
	if !ok || name == "" {
		return "<invalid>", nil, &errors.ToolError{
			Code:    envelope.CodeInvalidArguments,
			Message: "tool must be a non-empty string",
			Details: map[string]any{"index": index},
		}
	}

	stepArgs := map[string]any{}
	if rawArgs, present := step["args"]; present && rawArgs != nil {
		stepArgs, ok = rawArgs.(map[string]any)
		if !ok {
			return name, nil, &errors.ToolError{
				Code:    envelope.CodeInvalidArguments,
				Message: "args must be an object",
				Details: map[string]any{"tool": name},
			}
		}
	}

	return name, stepArgs, nil
}
