package selection

import (
	"github.com/oakwood-commons/jsonstate/pkg/docstate"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpatch"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

// Initial picks the selection shown when a document is opened: the first
// visible leaf reached by descending into the first visible child of every
// expanded container. Object properties are selected by key.
func Initial(value any, s docstate.State) *Selection {
	path := jsonpointer.Root
	v, n := value, s.Root
	for {
		var (
			next      jsonpointer.Path
			nextValue any
			nextNode  *docstate.Node
		)
		docstate.ForEachVisibleChild(v, n, func(segment string, child any, childNode *docstate.Node) bool {
			next, nextValue, nextNode = path.Append(segment), child, childNode
			return false
		})
		if next == nil {
			break
		}
		path, v, n = next, nextValue, nextNode
	}
	return keyOrValue(value, path, true)
}

// FromOperations derives the selection to show after ops were applied to
// produce value, without needing the new document state:
//
//   - a single replace or move selects the resulting value;
//   - a batch of renames inside one object selects the last renamed key;
//   - otherwise the targets of every add, copy, replace and effective move
//     are selected as a range;
//   - a batch of removes yields no selection.
func FromOperations(value any, ops []jsonpatch.Operation) *Selection {
	if len(ops) == 0 {
		return nil
	}
	if len(ops) == 1 && (ops[0].Op == jsonpatch.Replace || ops[0].Op == jsonpatch.Move) {
		path, ok := resolveTarget(value, ops[0].Path)
		if !ok {
			return nil
		}
		return NewValue(path)
	}

	if renamed, ok := lastRename(value, ops); ok {
		return NewKey(renamed)
	}

	var targets []jsonpointer.Path
	for _, op := range ops {
		switch op.Op {
		case jsonpatch.Remove, jsonpatch.Test:
			continue
		case jsonpatch.Move:
			if op.From == op.Path {
				continue
			}
		}
		path, ok := resolveTarget(value, op.Path)
		if !ok {
			continue
		}
		targets = append(targets, path)
	}
	if len(targets) == 0 {
		return nil
	}
	return NewMulti(targets[0], targets[len(targets)-1])
}

// lastRename reports the last effective rename of an all-move batch whose
// moves all stay inside the same object.
func lastRename(value any, ops []jsonpatch.Operation) (jsonpointer.Path, bool) {
	var renamed jsonpointer.Path
	for _, op := range ops {
		if op.Op != jsonpatch.Move {
			return nil, false
		}
		from, errFrom := jsonpointer.Parse(op.From)
		to, errTo := jsonpointer.Parse(op.Path)
		if errFrom != nil || errTo != nil || len(from) == 0 || len(to) == 0 || !from.Parent().Equal(to.Parent()) {
			return nil, false
		}
		if !hasKey(value, to) {
			return nil, false
		}
		if !from.Equal(to) {
			renamed = to
		}
	}
	return renamed, renamed != nil
}

// resolveTarget parses pointer against the patched value; the "-" append
// token refers to the last item.
func resolveTarget(value any, pointer string) (jsonpointer.Path, bool) {
	path, err := jsonpointer.Parse(pointer)
	if err != nil {
		return nil, false
	}
	if len(path) > 0 && path.Last() == "-" {
		parent, _ := jsonvalue.GetIn(value, path.Parent())
		arr, ok := jsonvalue.AsArray(parent)
		if !ok || len(arr) == 0 {
			return nil, false
		}
		path = path.Parent().AppendIndex(len(arr) - 1)
	}
	return path, jsonvalue.Exists(value, path)
}

// Repair adapts sel to a new value and state: selections on paths that no
// longer exist are dropped, selections hidden by a collapse shrink to the
// nearest visible ancestor and an inside caret in a collapsed container
// becomes a value selection.
func Repair(value any, s docstate.State, sel *Selection) *Selection {
	if sel == nil {
		return nil
	}
	if !jsonvalue.Exists(value, sel.AnchorPath) || !jsonvalue.Exists(value, sel.FocusPath) {
		return nil
	}
	if sel.Type == TypeKey && !hasKey(value, sel.FocusPath) {
		return NewValue(sel.FocusPath)
	}

	anchorVisible := docstate.IsPathVisible(value, s, sel.AnchorPath)
	focusVisible := docstate.IsPathVisible(value, s, sel.FocusPath)
	if !anchorVisible || !focusVisible {
		return NewValue(visibleAncestor(value, s, jsonpointer.CommonPrefix(sel.AnchorPath, sel.FocusPath)))
	}
	if sel.Type == TypeInside && !s.IsExpanded(sel.FocusPath) {
		return NewValue(sel.FocusPath)
	}
	if sel.Type == TypeMulti && len(Paths(value, s, sel)) == 0 {
		return NewValue(sel.FocusPath)
	}
	return sel
}

func visibleAncestor(value any, s docstate.State, path jsonpointer.Path) jsonpointer.Path {
	for len(path) > 0 && !docstate.IsPathVisible(value, s, path) {
		path = path.Parent()
	}
	return path
}
