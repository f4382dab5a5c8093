package jsonpatch

import (
	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

// Revert returns the operations that undo ops when applied to the document
// ops produced from doc. Hosts keeping an undo history store both batches.
func Revert(doc any, ops []Operation) ([]Operation, error) {
	var reverted []Operation
	cur := doc
	for i, op := range ops {
		inverse, err := invert(cur, op)
		if err != nil {
			return nil, &PatchError{Index: i, Operation: op, Err: err}
		}
		next, err := ApplyOperation(cur, op)
		if err != nil {
			return nil, &PatchError{Index: i, Operation: op, Err: err}
		}
		// Inverse batches run in reverse order.
		reverted = append(inverse, reverted...)
		cur = next
	}
	return reverted, nil
}

func invert(doc any, op Operation) ([]Operation, error) {
	path, err := ParsePath(doc, op.Path)
	if err != nil {
		return nil, err
	}
	pointer := jsonpointer.Compile(path)

	switch op.Op {
	case Add, Copy:
		if old, ok := existingObjectValue(doc, path); ok {
			return []Operation{{Op: Replace, Path: pointer, Value: old}}, nil
		}
		return []Operation{{Op: Remove, Path: pointer}}, nil
	case Remove:
		old, _ := jsonvalue.GetIn(doc, path)
		return []Operation{{Op: Add, Path: pointer, Value: old}}, nil
	case Replace:
		old, _ := jsonvalue.GetIn(doc, path)
		return []Operation{{Op: Replace, Path: pointer, Value: old}}, nil
	case Move:
		back := Operation{Op: Move, From: pointer, Path: op.From}
		if old, ok := existingObjectValue(doc, path); ok && op.From != pointer {
			return []Operation{back, {Op: Add, Path: pointer, Value: old}}, nil
		}
		return []Operation{back}, nil
	default:
		return nil, nil
	}
}

// existingObjectValue returns the value an object key holds before it gets
// overwritten. Array insertions never overwrite.
func existingObjectValue(doc any, path jsonpointer.Path) (any, bool) {
	if len(path) == 0 {
		return doc, true
	}
	parent, ok := jsonvalue.GetIn(doc, path.Parent())
	if !ok || !jsonvalue.IsObject(parent) {
		return nil, false
	}
	return jsonvalue.Child(parent, path.Last())
}
