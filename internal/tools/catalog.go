package tools

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/openshed/scenebridge/internal/config"
	"github.com/openshed/scenebridge/internal/envelope"
	"github.com/openshed/scenebridge/internal/ops"
	"github.com/openshed/scenebridge/internal/scene"
)

// CallFunc submits an operation to the main-thread pipeline. Background
// workers use it so their scene reads serialize with everything else.
type CallFunc func(ctx context.Context, operation string, args map[string]any) envelope.Result

// Deps carries the collaborators tool handlers close over.
type Deps struct {
	// Log is the diagnostic logger. If nil, logging is disabled.
	Log *slog.Logger

	// Scene is the live scene store.
	Scene *scene.Store

	// Ops tracks long-running operations for polling and cancel.
	Ops *ops.Manager

	// Call routes background work through the dispatcher. Inline batch
	// steps bypass it and use the registry directly, since they already
	// run on the executor. May be nil when no dispatcher exists (static
	// catalogs); tools needing it then report an internal error.
	Call CallFunc

	// Version is reported by studio.version.
	Version string

	// ExportDir is where scene exports land when the caller gives no
	// path. Defaults to the OS temp directory.
	ExportDir string
}

// Register wires the full studio tool surface into r.
func Register(r *Registry, deps Deps) {
	if deps.Log == nil {
		deps.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Version == "" {
		deps.Version = config.DefaultServerVersion
	}
	if deps.ExportDir == "" {
		deps.ExportDir = os.TempDir()
	}

	registerMeta(r, deps)
	registerScene(r, deps)
	registerObjects(r, deps)
	registerMeshes(r, deps)
	registerOperations(r, deps)
	registerBatch(r, deps)
}

// StaticSpecs returns the advertised tool list without a live backend.
// The bootstrap proxy answers tools/list from this while the backend is
// still starting, so the set must match what Register produces.
func StaticSpecs() []map[string]any {
	r := NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	Register(r, Deps{
		Scene: scene.New(),
		Ops:   ops.NewManager(),
	})

	return r.Specs()
}

func vecSlice(v [3]float64) []float64 {
	return []float64{v[0], v[1], v[2]}
}
