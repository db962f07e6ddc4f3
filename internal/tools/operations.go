package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/openshed/scenebridge/internal/envelope"
	"github.com/openshed/scenebridge/internal/errors"
	"github.com/openshed/scenebridge/internal/ops"
	"github.com/openshed/scenebridge/internal/scene"
)

// registerOperations wires the async surface: operation polling, cancel
// requests, and the scene export worker that exercises them.
func registerOperations(r *Registry, deps Deps) {
	r.Register(newTool(
		ToolOpsStatus,
		"Poll a long-running operation by id.",
		requiredSchema(map[string]*jsonschema.Schema{
			"operation_id": stringSchema("Operation id returned by an async tool."),
		}, "operation_id"),
	), func(_ context.Context, args map[string]any) (any, error) {
		id := optionalString(args, "operation_id", "")
		rec, ok := deps.Ops.Get(id)
		if !ok {
			return nil, operationNotFound(id)
		}

		return rec, nil
	})

	r.Register(newTool(
		ToolOpsCancel,
		"Request cancellation of a long-running operation. Advisory: the worker stops at its next checkpoint.",
		requiredSchema(map[string]*jsonschema.Schema{
			"operation_id": stringSchema("Operation id returned by an async tool."),
		}, "operation_id"),
	), func(_ context.Context, args map[string]any) (any, error) {
		id := optionalString(args, "operation_id", "")
		if !deps.Ops.RequestCancel(id) {
			return nil, operationNotFound(id)
		}
		rec, _ := deps.Ops.Get(id)

		return map[string]any{
			"operation_id":     id,
			"state":            rec.Status,
			"cancel_requested": true,
		}, nil
	})

	r.Register(newTool(
		ToolSceneExport,
		"Export a scene manifest to disk asynchronously. Returns an operation id to poll.",
		objectSchema(map[string]*jsonschema.Schema{
			"path":  stringSchema("Destination file. Defaults to a generated path in the export directory."),
			"limit": integerSchema("Objects fetched per snapshot page. Defaults to 100."),
		}),
	), func(_ context.Context, args map[string]any) (any, error) {
		return startExport(deps, args)
	})
}

func operationNotFound(id string) error {
	return &errors.ToolError{
		Code:    envelope.CodeNotFound,
		Message: fmt.Sprintf("operation not found: %s", id),
		Details: map[string]any{"operation_id": id},
	}
}

func startExport(deps Deps, args map[string]any) (any, error) {
	if deps.Call == nil {
		return nil, &errors.ToolError{
			Code:    envelope.CodeInternal,
			Message: "export is unavailable without a dispatcher",
		}
	}

	path := optionalString(args, "path", "")
	limit, err := optionalInt(args, "limit", scene.DefaultChunkSize)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = scene.DefaultChunkSize
	}

	rec := deps.Ops.Create("scene_export", map[string]any{"limit": limit})
	if path == "" {
		path = filepath.Join(deps.ExportDir, "scenebridge-export-"+rec.ID+".json")
	}

	go runExport(deps, rec.ID, path, limit)

	return map[string]any{
		"operation_id": rec.ID,
		"state":        rec.Status,
		"path":         path,
	}, nil
}

// runExport walks the scene in pages and writes a JSON manifest. Every
// snapshot goes through deps.Call so reads serialize with mutations. The
// cancel flag is honored between pages, never mid-page.
func runExport(deps Deps, id, path string, limit int) {
	log := deps.Log.With("component", "export", "operation_id", id)

	if canceled(deps.Ops, id) {
		log.Info("Export canceled before start")

		return
	}
	deps.Ops.Start(id)

	var objects []scene.CompactObject
	sceneName := ""
	offset := 0
	for {
		if canceled(deps.Ops, id) {
			log.Info("Export canceled", "objects_seen", len(objects))

			return
		}

		res := deps.Call(context.Background(), ToolSceneSnapshot, map[string]any{
			"offset": offset,
			"limit":  limit,
		})
		if !res.OK {
			log.Error("Export snapshot failed", "code", res.Error.Code, "message", res.Error.Message)
			deps.Ops.Fail(id, res.Error.Message)

			return
		}

		page, ok := res.Result.(map[string]any)
		if !ok {
			deps.Ops.Fail(id, "unexpected snapshot result shape")

			return
		}
		if name, ok := page["scene"].(string); ok {
			sceneName = name
		}
		if chunk, ok := page["objects"].([]scene.CompactObject); ok {
			objects = append(objects, chunk...)
		}
		resume, ok := page["resume_token"].(*scene.ResumeToken)
		if !ok || resume == nil {
			break
		}
		offset = resume.Offset
	}

	manifest := map[string]any{
		"scene":   sceneName,
		"count":   len(objects),
		"objects": objects,
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		deps.Ops.Fail(id, err.Error())

		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Error("Export write failed", "path", path, "error", err)
		deps.Ops.Fail(id, err.Error())

		return
	}

	log.Info("Export completed", "path", path, "objects", len(objects))
	deps.Ops.Complete(id, map[string]any{"path": path, "objects": len(objects)})
}

// canceled reports the cancel flag, re-asserting the canceled state in case
// Start raced an early cancel request.
func canceled(m *ops.Manager, id string) bool {
	if !m.CancelRequested(id) {
		return false
	}
	m.RequestCancel(id)

	return true
}
