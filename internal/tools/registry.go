// Package tools implements the studio tool surface: a registry mapping
// dotted tool names to handlers, the argument coercion layer, the batch
// runner, and the catalog wiring every tool to the scene store and the
// operation table.
//
// Dispatch is the single normalization point. Whatever a handler does,
// the caller gets back an envelope.Result: unknown names become
// unknown_tool, classified handler errors keep their codes, anything else
// collapses to internal_error with the Go type name. Stack traces never
// leave the process.
package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/openshed/scenebridge/internal/envelope"
)

// Handler executes one tool with decoded arguments and returns its domain
// payload, or an error classified by Dispatch.
type Handler func(ctx context.Context, args map[string]any) (any, error)

type registeredTool struct {
	tool    *mcp.Tool
	handler Handler
}

// Registry maps tool names to handlers and their advertised specs.
// It is populated at startup and safe for concurrent dispatch afterwards.
type Registry struct {
	log   *slog.Logger
	mu    sync.RWMutex
	tools map[string]*registeredTool
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:   log.With("component", "registry"),
		tools: make(map[string]*registeredTool, 24),
	}
}

// Register adds a tool. Re-registering a name overrides the previous entry.
func (r *Registry) Register(tool *mcp.Tool, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools[tool.Name] = &registeredTool{tool: tool, handler: handler}
}

// Has reports whether the named tool is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.tools[name]

	return ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Specs returns advertised tool metadata for tools/list, sorted by name.
func (r *Registry) Specs() []map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	specs := make([]map[string]any, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		spec := map[string]any{
			"name":        t.tool.Name,
			"description": t.tool.Description,
		}

		if t.tool.InputSchema != nil {
			schemaData, err := json.Marshal(t.tool.InputSchema)
			if err == nil {
				var schemaMap map[string]any
				if json.Unmarshal(schemaData, &schemaMap) == nil {
					spec["inputSchema"] = schemaMap
				}
			}
		}

		specs = append(specs, spec)
	}

	return specs
}

// Dispatch resolves and runs one tool, normalizing every outcome.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (res envelope.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Tool panicked", "tool", name, "panic", rec)
			res = envelope.FromPanic(rec)
		}
	}()

	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		r.log.Debug("Unknown tool requested", "tool", name)

		return envelope.Failf(envelope.CodeUnknownTool, "unknown tool: %s", name)
	}

	if args == nil {
		args = map[string]any{}
	}

	out, err := t.handler(ctx, args)
	if err != nil {
		return envelope.FromError(err)
	}

	return envelope.OK(out)
}
