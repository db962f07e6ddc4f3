package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/openshed/scenebridge/internal/scene"
)

// registerScene wires the scene-level tools: listing, the active object,
// chunked snapshots, and data-first object creation.
func registerScene(r *Registry, deps Deps) {
	r.Register(newTool(
		ToolSceneListObjects,
		"List the names of all objects in the scene.",
		objectSchema(nil),
	), func(_ context.Context, _ map[string]any) (any, error) {
		names, count := deps.Scene.List()

		return map[string]any{"objects": names, "count": count}, nil
	})

	r.Register(newTool(
		ToolSceneGetActiveObject,
		"Report the name of the active object, or null when none is active.",
		objectSchema(nil),
	), func(_ context.Context, _ map[string]any) (any, error) {
		name, ok := deps.Scene.ActiveObject()
		if !ok {
			return map[string]any{"name": nil}, nil
		}

		return map[string]any{"name": name}, nil
	})

	r.Register(newTool(
		ToolSceneSnapshot,
		"Summarize the scene as compact object records. Large scenes are paged; follow the returned token with "+ToolSceneSnapshotChunk+".",
		objectSchema(map[string]*jsonschema.Schema{
			"limit_objects": integerSchema("Maximum objects per page."),
			"offset":        integerSchema("Index of the first object to include."),
		}),
	), func(_ context.Context, args map[string]any) (any, error) {
		offset, limit, err := snapshotArgs(args)
		if err != nil {
			return nil, err
		}

		return snapshotPage(deps.Scene, offset, limit), nil
	})

	r.Register(newTool(
		ToolSceneSnapshotChunk,
		"Fetch the next snapshot page for a token returned by "+ToolSceneSnapshot+".",
		requiredSchema(map[string]*jsonschema.Schema{
			"token": stringSchema("Opaque continuation token from a previous page."),
		}, "token"),
	), func(_ context.Context, args map[string]any) (any, error) {
		raw := optionalString(args, "token", optionalString(args, "resume_token", ""))
		if raw == "" {
			return nil, invalidArgs("token must be a non-empty string")
		}
		tok, err := decodeChunkToken(raw)
		if err != nil {
			return nil, err
		}

		return snapshotPage(deps.Scene, tok.Offset, tok.Limit), nil
	})

	r.Register(newTool(
		ToolSceneCreateObject,
		"Create an object of a given type: cube, sphere, camera, or light.",
		objectSchema(map[string]*jsonschema.Schema{
			"type":       stringSchema("Object type. One of cube, sphere, camera, light. Defaults to cube."),
			"name":       stringSchema("Requested object name. Suffixed when taken."),
			"location":   vector3Schema("World-space location."),
			"light_type": stringSchema("Light kind when type is light. Defaults to POINT."),
		}),
	), func(_ context.Context, args map[string]any) (any, error) {
		return createObject(deps, args)
	})
}

func createObject(deps Deps, args map[string]any) (any, error) {
	kind := optionalString(args, "type", "cube")
	name, err := optionalName(args, "name", "Object")
	if err != nil {
		return nil, err
	}
	location, err := optionalVector3(args, "location", [3]float64{})
	if err != nil {
		return nil, err
	}

	spec := scene.CreateSpec{BaseName: name, Location: location}
	switch strings.ToUpper(strings.TrimSpace(kind)) {
	case "CUBE":
		spec.Type = scene.TypeMesh
		spec.VertexCount = 8
		spec.FaceCount = 6
	case "SPHERE":
		spec.Type = scene.TypeMesh
		spec.VertexCount = sphereVertices(32, 16)
		spec.FaceCount = sphereFaces(32, 16)
	case "CAMERA":
		spec.Type = scene.TypeCamera
	case "LIGHT":
		spec.Type = scene.TypeLight
		spec.LightType = strings.ToUpper(strings.TrimSpace(optionalString(args, "light_type", "POINT")))
	default:
		return nil, invalidArgs("type must be one of cube, sphere, camera, light")
	}

	obj := deps.Scene.Create(spec)

	return map[string]any{
		"name":     obj.Name,
		"type":     string(obj.Type),
		"created":  true,
		"location": vecSlice(obj.Location),
	}, nil
}

func snapshotArgs(args map[string]any) (offset, limit int, err error) {
	offset, err = optionalInt(args, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	limit, err = optionalInt(args, "limit_objects", 0)
	if err != nil {
		return 0, 0, err
	}
	if limit <= 0 {
		limit, err = optionalInt(args, "limit", scene.DefaultChunkSize)
		if err != nil {
			return 0, 0, err
		}
	}

	return offset, limit, nil
}

// snapshotPage folds a store page into the wire shape. When more objects
// remain it carries both the structured resume_token and an opaque token
// for the follow-up call.
func snapshotPage(st *scene.Store, offset, limit int) map[string]any {
	page := st.Snapshot(offset, limit)
	out := map[string]any{
		"scene":   page.SceneName,
		"count":   page.Count,
		"objects": page.Objects,
	}
	if page.Resume != nil {
		out["resume_token"] = page.Resume
		out["token"] = encodeChunkToken(page.Resume.Offset, limit)
		out["next_actions"] = []string{
			fmt.Sprintf("call %s with the token to continue (%d of %d objects seen)",
				ToolSceneSnapshotChunk, page.Resume.Offset, page.Resume.Total),
		}
	}

	return out
}

// chunkToken is the decoded form of the opaque continuation token. The
// token is stateless: it carries everything needed to resume the page walk.
type chunkToken struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

func encodeChunkToken(offset, limit int) string {
	data, _ := json.Marshal(chunkToken{Offset: offset, Limit: limit})

	return base64.RawURLEncoding.EncodeToString(data)
}

func decodeChunkToken(raw string) (chunkToken, error) {
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return chunkToken{}, invalidArgs("token is not a valid snapshot token")
	}
	var tok chunkToken
	if err := json.Unmarshal(data, &tok); err != nil {
		return chunkToken{}, invalidArgs("token is not a valid snapshot token")
	}
	if tok.Offset < 0 {
		tok.Offset = 0
	}
	if tok.Limit <= 0 {
		tok.Limit = scene.DefaultChunkSize
	}

	return tok, nil
}
