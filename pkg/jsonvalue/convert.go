package jsonvalue

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
)

var numberPattern = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// Text returns the text shown for a primitive value: strings as-is, numbers
// in their JSON spelling, and "true", "false" or "null" otherwise.
// Containers yield "".
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	if s, ok := FormatNumber(v); ok {
		return s
	}
	if IsContainer(v) {
		return ""
	}
	return fmt.Sprint(v)
}

// StringConvert turns text typed by a user into its natural JSON type:
// "null", "true" and "false" become null and booleans, valid JSON number
// literals become json.Number, everything else stays a string.
func StringConvert(text string) any {
	switch text {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if numberPattern.MatchString(text) {
		return json.Number(text)
	}
	return text
}

// LooksLikeNonString reports whether a string value would be converted to a
// non-string type by StringConvert. Such strings must be flagged to keep
// rendering as strings.
func LooksLikeNonString(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, isString := StringConvert(s).(string)
	return !isString
}

// FromGo converts plain Go data (map[string]any, []any, typed slices as
// produced by encoding/json, YAML or CEL) into the value model. Plain maps
// have no order, so their keys are sorted.
func FromGo(v any) any {
	switch t := v.(type) {
	case *Object:
		out := CloneObject(t)
		for pair := out.Oldest(); pair != nil; pair = pair.Next() {
			pair.Value = FromGo(pair.Value)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			obj.Set(k, FromGo(t[k]))
		}
		return obj
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = FromGo(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = FromGo(item)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = item
		}
		return out
	default:
		return v
	}
}

// ToGo converts the value model to plain Go maps and slices for consumers
// that do not understand ordered objects, such as expression evaluators.
func ToGo(v any) any {
	switch t := v.(type) {
	case *Object:
		out := make(map[string]any, t.Len())
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = ToGo(pair.Value)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = ToGo(item)
		}
		return out
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return string(t)
	default:
		return v
	}
}
