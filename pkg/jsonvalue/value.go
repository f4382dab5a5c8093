// Package jsonvalue defines the JSON value model shared by every jsonstate
// package and the copy-on-write helpers used to update it.
//
// A value is one of:
//   - *Object (an insertion ordered map, key order is significant)
//   - []any
//   - string, bool, nil
//   - a number: json.Number as produced by the default parser, or any Go
//     integer/float type supplied by an alternate parser
//
// Values handed to the engine are treated as immutable. Every helper in this
// package returns a new value and shares all untouched subtrees.
package jsonvalue

import (
	"encoding/json"
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
)

// Object is a JSON object that remembers key insertion order.
type Object = orderedmap.OrderedMap[string, any]

var (
	// ErrPathNotFound indicates that a path does not resolve in a value.
	ErrPathNotFound = errors.New("path not found")
	// ErrNotContainer indicates that a path descends into a primitive.
	ErrNotContainer = errors.New("value is not an object or array")
	// ErrIndexOutOfRange indicates an array index beyond the array bounds.
	ErrIndexOutOfRange = errors.New("array index out of range")
)

// NewObject builds an object from alternating key/value arguments:
//
//	NewObject("a", 1, "b", "two")
func NewObject(kv ...any) *Object {
	obj := orderedmap.New[string, any]()
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		obj.Set(key, kv[i+1])
	}
	return obj
}

// AsObject returns v as an object.
func AsObject(v any) (*Object, bool) {
	obj, ok := v.(*Object)
	return obj, ok && obj != nil
}

// AsArray returns v as an array.
func AsArray(v any) ([]any, bool) {
	arr, ok := v.([]any)
	return arr, ok
}

// IsObject reports whether v is an object.
func IsObject(v any) bool {
	_, ok := AsObject(v)
	return ok
}

// IsArray reports whether v is an array.
func IsArray(v any) bool {
	_, ok := v.([]any)
	return ok
}

// IsContainer reports whether v is an object or an array.
func IsContainer(v any) bool {
	return IsObject(v) || IsArray(v)
}

// Keys returns the keys of obj in insertion order.
func Keys(obj *Object) []string {
	if obj == nil {
		return nil
	}
	keys := make([]string, 0, obj.Len())
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Child returns the direct child of v addressed by a single path segment.
func Child(v any, segment string) (any, bool) {
	switch t := v.(type) {
	case *Object:
		if t == nil {
			return nil, false
		}
		return t.Get(segment)
	case []any:
		i, ok := jsonpointer.Index(segment)
		if !ok || i >= len(t) {
			return nil, false
		}
		return t[i], true
	default:
		return nil, false
	}
}

// GetIn resolves path inside v.
func GetIn(v any, path jsonpointer.Path) (any, bool) {
	cur := v
	for _, segment := range path {
		next, ok := Child(cur, segment)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Exists reports whether path resolves inside v.
func Exists(v any, path jsonpointer.Path) bool {
	_, ok := GetIn(v, path)
	return ok
}

// IsNumber reports whether v is a numeric value of any supported
// representation.
func IsNumber(v any) bool {
	switch v.(type) {
	case json.Number, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// Len returns the number of children of a container and 0 otherwise.
func Len(v any) int {
	switch t := v.(type) {
	case *Object:
		if t == nil {
			return 0
		}
		return t.Len()
	case []any:
		return len(t)
	}
	return 0
}
