package loader

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

// TryDecode attempts to parse a string value as structured data (JWT, JSON,
// YAML, TOML, NDJSON). It returns the decoded structure and true only when
// the result is an object or array; plain strings and scalars return
// (nil, false).
func TryDecode(value string) (any, bool) {
	if value == "" {
		return nil, false
	}
	parsed, err := LoadRoot(value)
	if err != nil || !jsonvalue.IsContainer(parsed) {
		return nil, false
	}
	return parsed, true
}

// RecursiveDecode returns a copy of node in which every string leaf that
// holds serialized data is replaced by its parsed structure. Nested
// serialized strings are expanded too. node itself is not modified.
func RecursiveDecode(node any) any {
	return recursiveDecode(node, 0)
}

const maxDecodeDepth = 20

func recursiveDecode(node any, depth int) any {
	if depth > maxDecodeDepth {
		return node
	}

	switch v := node.(type) {
	case *jsonvalue.Object:
		out := jsonvalue.NewObject()
		for pair := v.Oldest(); pair != nil; pair = pair.Next() {
			out.Set(pair.Key, recursiveDecode(pair.Value, depth+1))
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = recursiveDecode(val, depth+1)
		}
		return out
	case string:
		if decoded, ok := TryDecode(v); ok {
			return recursiveDecode(decoded, depth+1)
		}
		return v
	default:
		return node
	}
}

// normalize converts arbitrary Go data into the value model. Maps and slices
// convert directly; structs and other types go through encoding/json so their
// json tags and field order are respected.
func normalize(value any) (any, error) {
	switch value.(type) {
	case *jsonvalue.Object, map[string]any, []any, []map[string]any, []string,
		bool, string, json.Number:
		return jsonvalue.FromGo(value), nil
	}
	if _, ok := jsonvalue.FormatNumber(value); ok {
		return value, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal %T to JSON: %w", value, err)
	}
	return jsonvalue.Decode(bytes.NewReader(data))
}
