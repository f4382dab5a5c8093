package jsonvalue

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
)

// CloneObject returns a shallow copy of obj with the same key order.
func CloneObject(obj *Object) *Object {
	out := orderedmap.New[string, any]()
	if obj == nil {
		return out
	}
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value)
	}
	return out
}

// DeepClone copies every container in v. Primitives are shared.
func DeepClone(v any) any {
	switch t := v.(type) {
	case *Object:
		out := orderedmap.New[string, any]()
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			out.Set(pair.Key, DeepClone(pair.Value))
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = DeepClone(item)
		}
		return out
	default:
		return v
	}
}

// SetIn replaces the value at path. Object keys that do not exist yet are
// appended; array indices must already exist.
func SetIn(v any, path jsonpointer.Path, value any) (any, error) {
	if len(path) == 0 {
		return value, nil
	}
	return updateIn(v, path, func(parent any, key string) (any, error) {
		switch t := parent.(type) {
		case *Object:
			out := CloneObject(t)
			out.Set(key, value)
			return out, nil
		case []any:
			i, ok := jsonpointer.Index(key)
			if !ok || i >= len(t) {
				return nil, fmt.Errorf("%w: %q", ErrIndexOutOfRange, key)
			}
			out := make([]any, len(t))
			copy(out, t)
			out[i] = value
			return out, nil
		default:
			return nil, ErrNotContainer
		}
	})
}

// InsertAt adds value at path: arrays get a new item inserted at the index
// (or appended for "-"), objects get the key set.
func InsertAt(v any, path jsonpointer.Path, value any) (any, error) {
	if len(path) == 0 {
		return value, nil
	}
	return updateIn(v, path, func(parent any, key string) (any, error) {
		switch t := parent.(type) {
		case *Object:
			out := CloneObject(t)
			out.Set(key, value)
			return out, nil
		case []any:
			i := len(t)
			if key != "-" {
				var ok bool
				i, ok = jsonpointer.Index(key)
				if !ok || i > len(t) {
					return nil, fmt.Errorf("%w: %q", ErrIndexOutOfRange, key)
				}
			}
			out := make([]any, 0, len(t)+1)
			out = append(out, t[:i]...)
			out = append(out, value)
			out = append(out, t[i:]...)
			return out, nil
		default:
			return nil, ErrNotContainer
		}
	})
}

// DeleteIn removes the value at path.
func DeleteIn(v any, path jsonpointer.Path) (any, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: cannot remove the root", ErrPathNotFound)
	}
	return updateIn(v, path, func(parent any, key string) (any, error) {
		switch t := parent.(type) {
		case *Object:
			if _, ok := t.Get(key); !ok {
				return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
			}
			out := CloneObject(t)
			out.Delete(key)
			return out, nil
		case []any:
			i, ok := jsonpointer.Index(key)
			if !ok || i >= len(t) {
				return nil, fmt.Errorf("%w: %q", ErrIndexOutOfRange, key)
			}
			out := make([]any, 0, len(t)-1)
			out = append(out, t[:i]...)
			out = append(out, t[i+1:]...)
			return out, nil
		default:
			return nil, ErrNotContainer
		}
	})
}

// updateIn copies the chain of containers from v down to the parent of path
// and lets fn produce the new parent.
func updateIn(v any, path jsonpointer.Path, fn func(parent any, key string) (any, error)) (any, error) {
	if len(path) == 1 {
		if !IsContainer(v) {
			return nil, fmt.Errorf("%w at %q", ErrNotContainer, path[0])
		}
		return fn(v, path[0])
	}
	child, ok := Child(v, path[0])
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPathNotFound, path[0])
	}
	updated, err := updateIn(child, path[1:], fn)
	if err != nil {
		return nil, err
	}
	return withChild(v, path[0], updated), nil
}

func withChild(v any, key string, child any) any {
	switch t := v.(type) {
	case *Object:
		out := CloneObject(t)
		out.Set(key, child)
		return out
	case []any:
		i, _ := jsonpointer.Index(key)
		out := make([]any, len(t))
		copy(out, t)
		out[i] = child
		return out
	}
	return v
}
