package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/openshed/scenebridge/internal/envelope"
	"github.com/openshed/scenebridge/internal/errors"
)

// Argument coercion for loosely typed client input. Coerce where
// unambiguous (numeric strings, scalar broadcast, short arrays, {x,y,z}
// maps), reject where not. Handlers run these once at their entry; nothing
// deeper re-validates.

func invalidArgs(format string, args ...any) error {
	return &errors.ToolError{
		Code:    envelope.CodeInvalidArguments,
		Message: fmt.Sprintf(format, args...),
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()

		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)

		return f, err == nil
	default:
		return 0, false
	}
}

// optionalFloat reads a number-ish value, using def when the key is absent.
func optionalFloat(args map[string]any, key string, def float64) (float64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}

	f, ok := toFloat(raw)
	if !ok {
		return 0, invalidArgs("%s must be a number", key)
	}

	return f, nil
}

// optionalInt reads an integer-ish value, using def when the key is absent.
func optionalInt(args map[string]any, key string, def int) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}

	f, ok := toFloat(raw)
	if !ok {
		return 0, invalidArgs("%s must be an integer", key)
	}

	return int(f), nil
}

// optionalBool reads a strict boolean, using def when the key is absent.
func optionalBool(args map[string]any, key string, def bool) (bool, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}

	b, ok := raw.(bool)
	if !ok {
		return false, invalidArgs("%s must be a boolean", key)
	}

	return b, nil
}

// requiredName reads a mandatory non-empty string, trimmed.
func requiredName(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", invalidArgs("%s must be a non-empty string", key)
	}

	s, ok := raw.(string)
	if !ok {
		return "", invalidArgs("%s must be a non-empty string", key)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalidArgs("%s must be a non-empty string", key)
	}

	return s, nil
}

// optionalName reads a string, trimming it and falling back when absent or
// blank.
func optionalName(args map[string]any, key, fallback string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return fallback, nil
	}

	s, ok := raw.(string)
	if !ok {
		return "", invalidArgs("%s must be a string", key)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}

	return s, nil
}

// optionalString reads any string value with a default, no trimming rules.
func optionalString(args map[string]any, key, def string) string {
	if raw, ok := args[key]; ok {
		if s, ok := raw.(string); ok {
			return s
		}
	}

	return def
}

// coerceVector3 turns tolerated shapes into an XYZ triple: a scalar
// broadcasts, an array of up to three numbers pads with zeros, an {x,y,z}
// map fills missing axes from def. Anything else is rejected.
func coerceVector3(value any, def [3]float64) ([3]float64, error) {
	switch v := value.(type) {
	case []any:
		if len(v) > 3 {
			return def, invalidArgs("vector must have at most 3 components")
		}
		var out [3]float64
		for i, raw := range v {
			f, ok := toFloat(raw)
			if !ok {
				return def, invalidArgs("vector components must be numbers")
			}
			out[i] = f
		}

		return out, nil

	// Embedders calling in-process skip the JSON decode that would have
	// produced []any.
	case []float64:
		if len(v) > 3 {
			return def, invalidArgs("vector must have at most 3 components")
		}
		var out [3]float64
		copy(out[:], v)

		return out, nil

	case [3]float64:
		return v, nil

	case map[string]any:
		out := def
		for i, key := range [3]string{"x", "y", "z"} {
			raw, ok := v[key]
			if !ok {
				continue
			}
			f, ok := toFloat(raw)
			if !ok {
				return def, invalidArgs("vector %s must be a number", key)
			}
			out[i] = f
		}

		return out, nil

	default:
		if f, ok := toFloat(value); ok {
			return [3]float64{f, f, f}, nil
		}

		return def, invalidArgs("vector must be an array, map, or number")
	}
}

// optionalVector3 reads a coercible vector, using def when the key is absent.
func optionalVector3(args map[string]any, key string, def [3]float64) ([3]float64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}

	vec, err := coerceVector3(raw, def)
	if err != nil {
		return def, invalidArgs("%s must be an array of up to 3 numbers", key)
	}

	return vec, nil
}

// vector3Arg reads an optional vector and reports whether it was present.
// SetTransform needs the distinction between "absent" and "zero".
func vector3Arg(args map[string]any, key string) (*[3]float64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}

	vec, err := coerceVector3(raw, [3]float64{})
	if err != nil {
		return nil, invalidArgs("%s must be an array of up to 3 numbers", key)
	}

	return &vec, nil
}
