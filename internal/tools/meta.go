package tools

import (
	"context"

	"github.com/openshed/scenebridge/internal/scene"
)

// registerMeta wires the liveness and version tools. Both are safe to call
// before any scene work has happened.
func registerMeta(r *Registry, deps Deps) {
	r.Register(newTool(
		ToolHealth,
		"Report bridge liveness together with a first-page scene summary.",
		objectSchema(nil),
	), func(_ context.Context, _ map[string]any) (any, error) {
		return map[string]any{
			"status": "ready",
			"host":   "headless",
			"scene":  snapshotPage(deps.Scene, 0, scene.DefaultChunkSize),
		}, nil
	})

	r.Register(newTool(
		ToolVersion,
		"Report the bridge version and host flavor.",
		objectSchema(nil),
	), func(_ context.Context, _ map[string]any) (any, error) {
		return map[string]any{
			"version": deps.Version,
			"host":    "scenebridge-headless",
		}, nil
	})
}
