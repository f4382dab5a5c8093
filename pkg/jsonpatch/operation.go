// Package jsonpatch applies RFC 6902 JSON Patch operations to values of the
// jsonvalue model without mutating them.
package jsonpatch

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

// Op is the operation name.
type Op string

const (
	Add     Op = "add"
	Remove  Op = "remove"
	Replace Op = "replace"
	Move    Op = "move"
	Copy    Op = "copy"
	Test    Op = "test"
)

// Operation is a single patch instruction. Path and From are JSON pointers.
type Operation struct {
	Op    Op     `json:"op"`
	Path  string `json:"path"`
	From  string `json:"from,omitempty"`
	Value any    `json:"value,omitempty"`
}

// HasValue reports whether the operation carries a value.
func (o Operation) HasValue() bool {
	return o.Op == Add || o.Op == Replace || o.Op == Test
}

// HasFrom reports whether the operation reads from a source path.
func (o Operation) HasFrom() bool {
	return o.Op == Move || o.Op == Copy
}

func (o Operation) String() string {
	if o.HasFrom() {
		return fmt.Sprintf("%s %s -> %s", o.Op, o.From, o.Path)
	}
	return fmt.Sprintf("%s %s", o.Op, o.Path)
}

// MarshalJSON writes "value" for add, replace and test even when it is null.
func (o Operation) MarshalJSON() ([]byte, error) {
	obj := jsonvalue.NewObject("op", string(o.Op), "path", o.Path)
	if o.HasFrom() {
		obj.Set("from", o.From)
	}
	if o.HasValue() {
		obj.Set("value", o.Value)
	}
	s, err := jsonvalue.JSON.Stringify(obj, "")
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// Decode parses a JSON array of operations. Values keep their key order.
func Decode(data []byte) ([]Operation, error) {
	v, err := jsonvalue.JSON.Parse(string(data))
	if err != nil {
		return nil, err
	}
	return FromValue(v)
}

// FromValue converts an already parsed JSON array into operations.
func FromValue(v any) ([]Operation, error) {
	items, ok := jsonvalue.AsArray(v)
	if !ok {
		return nil, fmt.Errorf("%w: patch must be an array", ErrInvalidOperation)
	}
	ops := make([]Operation, 0, len(items))
	for i, item := range items {
		obj, ok := jsonvalue.AsObject(item)
		if !ok {
			return nil, fmt.Errorf("%w: operation %d is not an object", ErrInvalidOperation, i)
		}
		var op Operation
		name, _ := stringField(obj, "op")
		op.Op = Op(name)
		path, ok := stringField(obj, "path")
		if !ok {
			return nil, fmt.Errorf("%w: operation %d has no path", ErrInvalidOperation, i)
		}
		op.Path = path
		if op.HasFrom() {
			from, ok := stringField(obj, "from")
			if !ok {
				return nil, fmt.Errorf("%w: operation %d has no from", ErrInvalidOperation, i)
			}
			op.From = from
		}
		if op.HasValue() {
			value, ok := obj.Get("value")
			if !ok {
				return nil, fmt.Errorf("%w: operation %d has no value", ErrInvalidOperation, i)
			}
			op.Value = value
		}
		if err := op.Validate(); err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func stringField(obj *jsonvalue.Object, key string) (string, bool) {
	v, ok := obj.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Encode renders operations as a JSON array.
func Encode(ops []Operation) ([]byte, error) {
	return json.Marshal(ops)
}

// Validate checks the operation name and pointers.
func (o Operation) Validate() error {
	switch o.Op {
	case Add, Remove, Replace, Move, Copy, Test:
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidOperation, o.Op)
	}
	if _, err := jsonpointer.Parse(o.Path); err != nil {
		return err
	}
	if o.HasFrom() {
		if _, err := jsonpointer.Parse(o.From); err != nil {
			return err
		}
	}
	return nil
}

// ParsePath parses pointer against doc, resolving the "-" array append token
// to the index the new item would get.
func ParsePath(doc any, pointer string) (jsonpointer.Path, error) {
	path, err := jsonpointer.Parse(pointer)
	if err != nil {
		return nil, err
	}
	if len(path) > 0 && path.Last() == "-" {
		if parent, ok := jsonvalue.GetIn(doc, path.Parent()); ok {
			if arr, ok := jsonvalue.AsArray(parent); ok {
				return path.Parent().AppendIndex(len(arr)), nil
			}
		}
	}
	return path, nil
}

var (
	// ErrPathNotFound indicates a path that does not resolve.
	ErrPathNotFound = jsonvalue.ErrPathNotFound
	// ErrInvalidPointer indicates a malformed JSON pointer.
	ErrInvalidPointer = jsonpointer.ErrInvalidPointer
	// ErrTestFailed indicates that a test operation did not match.
	ErrTestFailed = errors.New("test operation failed")
	// ErrInvalidOperation indicates an operation that cannot be applied.
	ErrInvalidOperation = errors.New("invalid patch operation")
)

// PatchError reports which operation of a batch failed.
type PatchError struct {
	Index     int
	Operation Operation
	Err       error
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("patch operation %d (%s) failed: %v", e.Index, e.Operation, e.Err)
}

func (e *PatchError) Unwrap() error {
	return e.Err
}
