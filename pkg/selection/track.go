package selection

import (
	"slices"
	"strconv"

	"github.com/oakwood-commons/jsonstate/pkg/jsonpatch"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

// Track follows sel through ops applied to value, so that the selection stays
// on the same nodes while siblings before them are inserted, removed or
// moved. When a selected node is removed the selection falls back to a value
// selection of its previous sibling, or of its parent when it was the first
// child.
func Track(value any, sel *Selection, ops []jsonpatch.Operation) *Selection {
	if sel == nil {
		return nil
	}
	anchor, focus := sel.AnchorPath, sel.FocusPath
	var (
		fallback jsonpointer.Path
		gone     bool
	)
	doc := value
	for _, op := range ops {
		if gone {
			fallback, _ = trackPath(doc, fallback, op)
		} else {
			var anchorGone, focusGone bool
			anchor, anchorGone = trackPath(doc, anchor, op)
			focus, focusGone = trackPath(doc, focus, op)
			switch {
			case focusGone:
				fallback, gone = focus, true
			case anchorGone:
				fallback, gone = anchor, true
			}
		}
		next, err := jsonpatch.ApplyOperation(doc, op)
		if err != nil {
			break
		}
		doc = next
	}
	if gone {
		return NewValue(fallback)
	}
	out := *sel
	out.AnchorPath, out.FocusPath = anchor, focus
	return &out
}

// trackPath returns where path lives after op is applied to doc. The boolean
// is true when op removed the node; the path returned then is the fallback.
func trackPath(doc any, path jsonpointer.Path, op jsonpatch.Operation) (jsonpointer.Path, bool) {
	target, err := jsonpointer.Parse(op.Path)
	if err != nil {
		return path, false
	}
	switch op.Op {
	case jsonpatch.Remove:
		return afterRemove(doc, path, target)
	case jsonpatch.Add, jsonpatch.Copy:
		return afterInsert(doc, path, target), false
	case jsonpatch.Move:
		from, err := jsonpointer.Parse(op.From)
		if err != nil || from.Equal(target) {
			return path, false
		}
		without, err := jsonvalue.DeleteIn(doc, from)
		if err != nil {
			return path, false
		}
		if path.HasPrefix(from) {
			return movedTo(without, target).Append(path[len(from):]...), false
		}
		shifted, _ := afterRemove(doc, path, from)
		return afterInsert(without, shifted, target), false
	}
	return path, false
}

func afterRemove(doc any, path, removed jsonpointer.Path) (jsonpointer.Path, bool) {
	if path.HasPrefix(removed) {
		return previousSibling(doc, removed), true
	}
	return shiftIndex(doc, path, removed, -1), false
}

func afterInsert(doc any, path, inserted jsonpointer.Path) jsonpointer.Path {
	return shiftIndex(doc, path, inserted, 1)
}

// shiftIndex moves path by delta when at is an array item of doc that comes
// before the item path lives in.
func shiftIndex(doc any, path, at jsonpointer.Path, delta int) jsonpointer.Path {
	if len(at) == 0 || len(path) < len(at) || !path.HasPrefix(at.Parent()) {
		return path
	}
	parent, _ := jsonvalue.GetIn(doc, at.Parent())
	if !jsonvalue.IsArray(parent) {
		return path
	}
	i, ok := jsonpointer.Index(at.Last())
	if !ok {
		return path
	}
	depth := len(at) - 1
	j, ok := jsonpointer.Index(path[depth])
	if !ok || j < i || (delta < 0 && j == i) {
		return path
	}
	out := path.Clone()
	out[depth] = strconv.Itoa(j + delta)
	return out
}

// movedTo resolves the destination of a move in the document it is inserted
// into; "-" appends.
func movedTo(doc any, target jsonpointer.Path) jsonpointer.Path {
	if len(target) == 0 || target.Last() != "-" {
		return target
	}
	parent, _ := jsonvalue.GetIn(doc, target.Parent())
	if arr, ok := jsonvalue.AsArray(parent); ok {
		return target.Parent().AppendIndex(len(arr))
	}
	return target
}

func previousSibling(doc any, path jsonpointer.Path) jsonpointer.Path {
	if len(path) == 0 {
		return path
	}
	parentPath := path.Parent()
	parent, _ := jsonvalue.GetIn(doc, parentPath)
	if obj, ok := jsonvalue.AsObject(parent); ok {
		keys := jsonvalue.Keys(obj)
		if k := slices.Index(keys, path.Last()); k > 0 {
			return parentPath.Append(keys[k-1])
		}
		return parentPath
	}
	if i, ok := jsonpointer.Index(path.Last()); ok && i > 0 {
		return parentPath.AppendIndex(i - 1)
	}
	return parentPath
}
