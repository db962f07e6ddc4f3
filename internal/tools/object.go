package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/openshed/scenebridge/internal/scene"
)

// objectName reads the target object name, accepting the legacy "object"
// key as an alias for "name".
func objectName(args map[string]any) (string, error) {
	name, err := requiredName(args, "name")
	if err == nil {
		return name, nil
	}
	if name, aliasErr := requiredName(args, "object"); aliasErr == nil {
		return name, nil
	}

	return "", err
}

// registerObjects wires the per-object tools: transforms, renames, deletes,
// and existence checks.
func registerObjects(r *Registry, deps Deps) {
	r.Register(newTool(
		ToolObjectMove,
		"Move an object to an absolute location, or by a relative delta.",
		requiredSchema(map[string]*jsonschema.Schema{
			"name":     stringSchema("Object to move."),
			"location": vector3Schema("Absolute world-space target."),
			"delta":    vector3Schema("Relative offset from the current location."),
		}, "name"),
	), func(_ context.Context, args map[string]any) (any, error) {
		return moveObject(deps, args)
	})

	r.Register(newTool(
		ToolObjectExists,
		"Report whether an object with the given name exists.",
		requiredSchema(map[string]*jsonschema.Schema{
			"name": stringSchema("Object name to check."),
		}, "name"),
	), func(_ context.Context, args map[string]any) (any, error) {
		name, err := objectName(args)
		if err != nil {
			return nil, err
		}

		return map[string]any{"name": name, "exists": deps.Scene.Exists(name)}, nil
	})

	r.Register(newTool(
		ToolObjectGetLocation,
		"Read an object's world-space location.",
		requiredSchema(map[string]*jsonschema.Schema{
			"name": stringSchema("Object to inspect."),
		}, "name"),
	), func(_ context.Context, args map[string]any) (any, error) {
		name, err := objectName(args)
		if err != nil {
			return nil, err
		}
		obj, ok := deps.Scene.Get(name)
		if !ok {
			return nil, scene.NotFound(name)
		}

		return map[string]any{"name": obj.Name, "location": vecSlice(obj.Location)}, nil
	})

	r.Register(newTool(
		ToolObjectGetTransform,
		"Read an object's location, rotation, and scale.",
		requiredSchema(map[string]*jsonschema.Schema{
			"name": stringSchema("Object to inspect."),
		}, "name"),
	), func(_ context.Context, args map[string]any) (any, error) {
		name, err := objectName(args)
		if err != nil {
			return nil, err
		}
		obj, ok := deps.Scene.Get(name)
		if !ok {
			return nil, scene.NotFound(name)
		}

		return transformResult(obj), nil
	})

	r.Register(newTool(
		ToolObjectSetTransform,
		"Set any of an object's location, rotation, and scale. Omitted parts keep their current values.",
		requiredSchema(map[string]*jsonschema.Schema{
			"name":           stringSchema("Object to update."),
			"location":       vector3Schema("New world-space location."),
			"rotation_euler": vector3Schema("New XYZ euler rotation in radians."),
			"scale":          vector3Schema("New per-axis scale."),
		}, "name"),
	), func(_ context.Context, args map[string]any) (any, error) {
		name, err := objectName(args)
		if err != nil {
			return nil, err
		}
		location, err := vector3Arg(args, "location")
		if err != nil {
			return nil, err
		}
		rotation, err := vector3Arg(args, "rotation_euler")
		if err != nil {
			return nil, err
		}
		scaleVec, err := vector3Arg(args, "scale")
		if err != nil {
			return nil, err
		}

		obj, err := deps.Scene.SetTransform(name, location, rotation, scaleVec)
		if err != nil {
			return nil, err
		}

		return transformResult(obj), nil
	})

	r.Register(newTool(
		ToolObjectRename,
		"Rename an object. Fails when the target name is taken.",
		requiredSchema(map[string]*jsonschema.Schema{
			"from": stringSchema("Current object name."),
			"to":   stringSchema("New object name."),
		}, "from", "to"),
	), func(_ context.Context, args map[string]any) (any, error) {
		from, err := requiredName(args, "from")
		if err != nil {
			return nil, err
		}
		to, err := requiredName(args, "to")
		if err != nil {
			return nil, err
		}
		if err := deps.Scene.Rename(from, to); err != nil {
			return nil, err
		}

		return map[string]any{"from": from, "to": to}, nil
	})

	r.Register(newTool(
		ToolObjectDelete,
		"Delete an object from the scene.",
		requiredSchema(map[string]*jsonschema.Schema{
			"name": stringSchema("Object to delete."),
		}, "name"),
	), func(_ context.Context, args map[string]any) (any, error) {
		name, err := objectName(args)
		if err != nil {
			return nil, err
		}
		if err := deps.Scene.Delete(name); err != nil {
			return nil, err
		}

		return map[string]any{"name": name, "deleted": true}, nil
	})
}

func moveObject(deps Deps, args map[string]any) (any, error) {
	name, err := objectName(args)
	if err != nil {
		return nil, err
	}

	target, err := vector3Arg(args, "location")
	if err != nil {
		return nil, err
	}
	delta, err := vector3Arg(args, "delta")
	if err != nil {
		return nil, err
	}

	var obj scene.Object
	switch {
	case target != nil:
		obj, err = deps.Scene.Move(name, *target)
	case delta != nil:
		current, ok := deps.Scene.Get(name)
		if !ok {
			return nil, scene.NotFound(name)
		}
		obj, err = deps.Scene.Move(name, [3]float64{
			current.Location[0] + delta[0],
			current.Location[1] + delta[1],
			current.Location[2] + delta[2],
		})
	default:
		return nil, invalidArgs("either location or delta is required")
	}
	if err != nil {
		return nil, err
	}

	return map[string]any{"name": obj.Name, "location": vecSlice(obj.Location)}, nil
}

func transformResult(obj scene.Object) map[string]any {
	return map[string]any{
		"name":           obj.Name,
		"location":       vecSlice(obj.Location),
		"rotation_euler": vecSlice(obj.RotationEuler),
		"scale":          vecSlice(obj.Scale),
	}
}

// registerMeshes wires the primitive constructors. Vertex and face counts
// mirror the host's default primitive topology so snapshots stay plausible.
func registerMeshes(r *Registry, deps Deps) {
	r.Register(newTool(
		ToolMeshCreateCube,
		"Create a cube mesh.",
		objectSchema(map[string]*jsonschema.Schema{
			"name":     stringSchema("Requested name. Suffixed when taken. Defaults to Cube."),
			"size":     numberSchema("Edge length. Defaults to 2."),
			"location": vector3Schema("World-space location."),
		}),
	), func(_ context.Context, args map[string]any) (any, error) {
		name, err := optionalName(args, "name", "Cube")
		if err != nil {
			return nil, err
		}
		if _, err := optionalFloat(args, "size", 2.0); err != nil {
			return nil, err
		}
		location, err := optionalVector3(args, "location", [3]float64{})
		if err != nil {
			return nil, err
		}

		obj := deps.Scene.Create(scene.CreateSpec{
			BaseName:    name,
			Type:        scene.TypeMesh,
			Location:    location,
			VertexCount: 8,
			FaceCount:   6,
		})

		return createdResult(obj), nil
	})

	r.Register(newTool(
		ToolMeshCreateUVSphere,
		"Create a UV sphere mesh.",
		objectSchema(map[string]*jsonschema.Schema{
			"name":     stringSchema("Requested name. Suffixed when taken. Defaults to Sphere."),
			"radius":   numberSchema("Sphere radius. Defaults to 1."),
			"segments": integerSchema("Longitudinal segments. Defaults to 32."),
			"rings":    integerSchema("Latitudinal rings. Defaults to 16."),
			"location": vector3Schema("World-space location."),
		}),
	), func(_ context.Context, args map[string]any) (any, error) {
		name, err := optionalName(args, "name", "Sphere")
		if err != nil {
			return nil, err
		}
		if _, err := optionalFloat(args, "radius", 1.0); err != nil {
			return nil, err
		}
		segments, err := optionalInt(args, "segments", 32)
		if err != nil {
			return nil, err
		}
		rings, err := optionalInt(args, "rings", 16)
		if err != nil {
			return nil, err
		}
		location, err := optionalVector3(args, "location", [3]float64{})
		if err != nil {
			return nil, err
		}

		obj := deps.Scene.Create(scene.CreateSpec{
			BaseName:    name,
			Type:        scene.TypeMesh,
			Location:    location,
			VertexCount: sphereVertices(segments, rings),
			FaceCount:   sphereFaces(segments, rings),
		})

		return createdResult(obj), nil
	})

	r.Register(newTool(
		ToolMeshCreateCylinder,
		"Create a cylinder mesh.",
		objectSchema(map[string]*jsonschema.Schema{
			"name":     stringSchema("Requested name. Suffixed when taken. Defaults to Cylinder."),
			"radius":   numberSchema("Cylinder radius. Defaults to 1."),
			"depth":    numberSchema("Cylinder height. Defaults to 2."),
			"vertices": integerSchema("Vertices per cap ring. Defaults to 32."),
			"location": vector3Schema("World-space location."),
		}),
	), func(_ context.Context, args map[string]any) (any, error) {
		name, err := optionalName(args, "name", "Cylinder")
		if err != nil {
			return nil, err
		}
		if _, err := optionalFloat(args, "radius", 1.0); err != nil {
			return nil, err
		}
		if _, err := optionalFloat(args, "depth", 2.0); err != nil {
			return nil, err
		}
		vertices, err := optionalInt(args, "vertices", 32)
		if err != nil {
			return nil, err
		}
		location, err := optionalVector3(args, "location", [3]float64{})
		if err != nil {
			return nil, err
		}

		obj := deps.Scene.Create(scene.CreateSpec{
			BaseName:    name,
			Type:        scene.TypeMesh,
			Location:    location,
			VertexCount: 2 * vertices,
			FaceCount:   vertices + 2,
		})

		return createdResult(obj), nil
	})
}

func createdResult(obj scene.Object) map[string]any {
	return map[string]any{
		"name":     obj.Name,
		"created":  true,
		"location": vecSlice(obj.Location),
	}
}

func sphereVertices(segments, rings int) int {
	return segments*(rings-1) + 2
}

func sphereFaces(segments, rings int) int {
	return segments * rings
}
