package jsonpatch

import (
	"fmt"

	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

// Hooks lets a caller keep a parallel structure in step with the document.
// Before runs ahead of each operation against the unchanged document and may
// return a revised operation. After runs once the operation has been applied
// and may return a revised document.
type Hooks struct {
	Before func(doc any, op Operation) (Operation, error)
	After  func(doc any, op Operation, previous any) (any, error)
}

// Apply applies ops to doc. The batch is all or nothing: on error the
// returned document is nil and doc is untouched.
func Apply(doc any, ops []Operation) (any, error) {
	return Immutable(doc, ops, nil)
}

// Immutable applies ops to doc, running hooks around every operation.
func Immutable(doc any, ops []Operation, hooks *Hooks) (any, error) {
	if len(ops) == 0 {
		return doc, nil
	}
	cur := doc
	for i, op := range ops {
		next, err := applyWithHooks(cur, op, hooks)
		if err != nil {
			return nil, &PatchError{Index: i, Operation: op, Err: err}
		}
		cur = next
	}
	return cur, nil
}

func applyWithHooks(doc any, op Operation, hooks *Hooks) (any, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if hooks != nil && hooks.Before != nil {
		revised, err := hooks.Before(doc, op)
		if err != nil {
			return nil, err
		}
		op = revised
	}
	next, err := ApplyOperation(doc, op)
	if err != nil {
		return nil, err
	}
	if hooks != nil && hooks.After != nil {
		return hooks.After(next, op, doc)
	}
	return next, nil
}

// ApplyOperation applies a single operation.
func ApplyOperation(doc any, op Operation) (any, error) {
	path, err := jsonpointer.Parse(op.Path)
	if err != nil {
		return nil, err
	}

	switch op.Op {
	case Add:
		return add(doc, path, op.Value)
	case Remove:
		return jsonvalue.DeleteIn(doc, path)
	case Replace:
		if !jsonvalue.Exists(doc, path) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, op.Path)
		}
		return jsonvalue.SetIn(doc, path, op.Value)
	case Move, Copy:
		from, err := jsonpointer.Parse(op.From)
		if err != nil {
			return nil, err
		}
		value, ok := jsonvalue.GetIn(doc, from)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, op.From)
		}
		if op.Op == Copy {
			return add(doc, path, jsonvalue.DeepClone(value))
		}
		if len(path) > len(from) && path.HasPrefix(from) {
			return nil, fmt.Errorf("%w: cannot move %s into its own child %s", ErrInvalidOperation, op.From, op.Path)
		}
		if len(from) == 0 {
			return value, nil
		}
		removed, err := jsonvalue.DeleteIn(doc, from)
		if err != nil {
			return nil, err
		}
		return add(removed, path, value)
	case Test:
		actual, ok := jsonvalue.GetIn(doc, path)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, op.Path)
		}
		if !jsonvalue.Equal(actual, op.Value) {
			return nil, fmt.Errorf("%w: value at %q differs", ErrTestFailed, op.Path)
		}
		return doc, nil
	default:
		return nil, fmt.Errorf("%w: unknown op %q", ErrInvalidOperation, op.Op)
	}
}

func add(doc any, path jsonpointer.Path, value any) (any, error) {
	if len(path) == 0 {
		return value, nil
	}
	if !jsonvalue.Exists(doc, path.Parent()) {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path.Parent())
	}
	return jsonvalue.InsertAt(doc, path, value)
}
