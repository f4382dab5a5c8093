package docstate

import (
	"errors"
	"fmt"
	"slices"

	"github.com/oakwood-commons/jsonstate/pkg/jsonpatch"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
	"github.com/oakwood-commons/jsonstate/pkg/sections"
)

// Patch applies ops to value and s together. Object key orders, array
// sections and node identities follow the edited items. The batch is all or
// nothing: on error the inputs are returned unchanged with the error.
func Patch(value any, s State, ops []jsonpatch.Operation) (any, State, error) {
	if len(ops) == 0 {
		return value, s, nil
	}
	p := &statePatcher{root: s.Root}
	updated, err := jsonpatch.Immutable(value, ops, p.hooks())
	if err != nil {
		return value, s, err
	}
	return updated, State{Root: p.root}, nil
}

// InitializeState makes sure every path referenced by ops (path and from)
// that resolves in value has a node, creating ancestors first. Paths that do
// not exist in value are left alone.
func InitializeState(value any, s State, ops []jsonpatch.Operation) State {
	root := s.Root
	for _, op := range ops {
		pointers := []string{op.Path}
		if op.HasFrom() {
			pointers = append(pointers, op.From)
		}
		for _, pointer := range pointers {
			path, err := jsonpointer.Parse(pointer)
			if err != nil {
				continue
			}
			existing := path
			for len(existing) > 0 && !jsonvalue.Exists(value, existing) {
				existing = existing.Parent()
			}
			root = updateNode(root, value, existing, func(n *Node, _ any) *Node { return n })
		}
	}
	return State{Root: root}
}

// statePatcher carries the document state through one batch. Its before hook
// anticipates each structural change on the state tree, its after hook fixes
// up identities and flags once the value has changed.
type statePatcher struct {
	root *Node
}

func (p *statePatcher) hooks() *jsonpatch.Hooks {
	return &jsonpatch.Hooks{Before: p.before, After: p.after}
}

func (p *statePatcher) before(doc any, op jsonpatch.Operation) (jsonpatch.Operation, error) {
	p.root = InitializeState(doc, State{Root: p.root}, []jsonpatch.Operation{op}).Root

	path, err := jsonpatch.ParsePath(doc, op.Path)
	if err != nil {
		return op, err
	}

	switch op.Op {
	case jsonpatch.Add:
		p.insert(doc, path, newNode(op.Value))
	case jsonpatch.Copy:
		from, err := jsonpointer.Parse(op.From)
		if err != nil {
			return op, err
		}
		source, ok := jsonvalue.GetIn(doc, from)
		if !ok {
			return op, nil
		}
		node := nodeAt(p.root, from)
		if node == nil {
			node = newNode(source)
		}
		p.insert(doc, path, node)
	case jsonpatch.Remove:
		p.remove(doc, path)
	case jsonpatch.Replace:
		p.ensureKey(doc, path)
	case jsonpatch.Move:
		from, err := jsonpointer.Parse(op.From)
		if err != nil {
			return op, err
		}
		p.move(doc, from, op.Path)
	}
	return op, nil
}

func (p *statePatcher) after(doc any, op jsonpatch.Operation, previous any) (any, error) {
	switch op.Op {
	case jsonpatch.Copy:
		path, err := jsonpatch.ParsePath(previous, op.Path)
		if err != nil {
			return doc, err
		}
		p.root = mapExisting(p.root, path, renewIDs)
	case jsonpatch.Replace, jsonpatch.Add:
		path, err := jsonpointer.Parse(op.Path)
		if err != nil {
			return doc, err
		}
		if op.Op == jsonpatch.Add && len(path) > 0 {
			return doc, nil
		}
		newValue, _ := jsonvalue.GetIn(doc, path)
		p.root = mapExisting(p.root, path, func(n *Node) *Node {
			return syncNode(n, newValue)
		})
	}
	return doc, nil
}

// insert records a new child at path: the key joins the parent's display
// order, or the parent's sections shift to make room for the item.
func (p *statePatcher) insert(doc any, path jsonpointer.Path, child *Node) {
	if len(path) == 0 {
		// the root keeps its node; after resyncs it with the new value
		return
	}
	key := path.Last()
	p.root = updateNode(p.root, doc, path.Parent(), func(n *Node, parent any) *Node {
		out := n.clone()
		switch t := parent.(type) {
		case *jsonvalue.Object:
			keys := n.orderedKeys(t)
			if !slices.Contains(keys, key) {
				keys = append(keys, key)
			}
			out.Keys = keys
			out.setChild(key, child)
		case []any:
			index, ok := jsonpointer.Index(key)
			if !ok {
				return n
			}
			if n.VisibleSections != nil {
				out.VisibleSections = sections.Shift(n.VisibleSections, index, 1)
			}
			out.insertItem(index, child)
		}
		return out
	})
}

// remove drops the child at path: its key leaves the display order, or the
// parent's sections shift back over the removed item.
func (p *statePatcher) remove(doc any, path jsonpointer.Path) {
	if len(path) == 0 || !jsonvalue.Exists(doc, path) {
		return
	}
	key := path.Last()
	p.root = updateNode(p.root, doc, path.Parent(), func(n *Node, parent any) *Node {
		out := n.clone()
		switch t := parent.(type) {
		case *jsonvalue.Object:
			out.Keys = slices.DeleteFunc(n.orderedKeys(t), func(k string) bool { return k == key })
			out.setChild(key, nil)
		case []any:
			index, _ := jsonpointer.Index(key)
			if n.VisibleSections != nil {
				out.VisibleSections = sections.Shift(n.VisibleSections, index, -1)
			}
			out.removeItem(index)
		}
		return out
	})
}

// ensureKey appends the key of a replace target to its parent's display
// order when it is missing.
func (p *statePatcher) ensureKey(doc any, path jsonpointer.Path) {
	if len(path) == 0 {
		return
	}
	parent, ok := jsonvalue.GetIn(doc, path.Parent())
	if !ok || !jsonvalue.IsObject(parent) {
		return
	}
	key := path.Last()
	p.root = mapExisting(p.root, path.Parent(), func(n *Node) *Node {
		obj, _ := jsonvalue.AsObject(parent)
		keys := n.orderedKeys(obj)
		if slices.Contains(keys, key) {
			return n
		}
		out := n.clone()
		out.Keys = append(keys, key)
		return out
	})
}

// move carries the state subtree at from over to pointer. Within one object
// a changed key is a rename that keeps its display position, an unchanged key
// is moved to the end. Everything else is a remove followed by an insert.
func (p *statePatcher) move(doc any, from jsonpointer.Path, pointer string) {
	if !jsonvalue.Exists(doc, from) || len(from) == 0 {
		return
	}
	node := nodeAt(p.root, from)
	if node == nil {
		source, _ := jsonvalue.GetIn(doc, from)
		node = newNode(source)
	}

	path, err := jsonpointer.Parse(pointer)
	if err != nil {
		return
	}
	parent, _ := jsonvalue.GetIn(doc, from.Parent())
	if obj, ok := jsonvalue.AsObject(parent); ok && len(path) > 0 && path.Parent().Equal(from.Parent()) {
		p.moveWithinObject(doc, obj, from, path.Last(), node)
		return
	}

	mid, err := jsonvalue.DeleteIn(doc, from)
	if err != nil {
		return
	}
	p.remove(doc, from)
	target, err := jsonpatch.ParsePath(mid, pointer)
	if err != nil {
		return
	}
	p.insert(mid, target, node)
}

func (p *statePatcher) moveWithinObject(doc any, obj *jsonvalue.Object, from jsonpointer.Path, newKey string, node *Node) {
	oldKey := from.Last()
	p.root = updateNode(p.root, doc, from.Parent(), func(n *Node, _ any) *Node {
		out := n.clone()
		keys := n.orderedKeys(obj)
		if oldKey == newKey {
			keys = slices.DeleteFunc(keys, func(k string) bool { return k == oldKey })
			out.Keys = append(keys, newKey)
			return out
		}
		keys = slices.DeleteFunc(keys, func(k string) bool { return k == newKey })
		if i := slices.Index(keys, oldKey); i >= 0 {
			keys[i] = newKey
		} else {
			keys = append(keys, newKey)
		}
		out.Keys = keys
		out.setChild(oldKey, nil)
		out.setChild(newKey, node)
		return out
	})
}

// ErrInvalidSortOperations is returned by FastPatchSort when the batch is not
// made of moves inside a single array.
var ErrInvalidSortOperations = errors.New("sort operations must all be moves inside one array")

// FastPatchSort applies a batch of moves that reorder a single array in one
// copy of that array instead of one copy per operation. Item nodes travel
// with their items.
func FastPatchSort(value any, s State, ops []jsonpatch.Operation) (any, State, error) {
	if len(ops) == 0 {
		return value, s, nil
	}
	var arrayPath jsonpointer.Path
	type move struct{ from, to int }
	moves := make([]move, 0, len(ops))
	for i, op := range ops {
		if op.Op != jsonpatch.Move {
			return value, s, fmt.Errorf("%w: operation %d is %q", ErrInvalidSortOperations, i, op.Op)
		}
		from, err := jsonpointer.Parse(op.From)
		if err != nil {
			return value, s, fmt.Errorf("%w: %w", ErrInvalidSortOperations, err)
		}
		to, err := jsonpointer.Parse(op.Path)
		if err != nil {
			return value, s, fmt.Errorf("%w: %w", ErrInvalidSortOperations, err)
		}
		if len(from) == 0 || len(to) == 0 || !from.Parent().Equal(to.Parent()) {
			return value, s, fmt.Errorf("%w: operation %d moves %s to %s", ErrInvalidSortOperations, i, op.From, op.Path)
		}
		if arrayPath == nil {
			arrayPath = from.Parent()
		} else if !arrayPath.Equal(from.Parent()) {
			return value, s, fmt.Errorf("%w: operation %d targets %s instead of %s", ErrInvalidSortOperations, i, from.Parent(), arrayPath)
		}
		fromIndex, okFrom := jsonpointer.Index(from.Last())
		toIndex, okTo := jsonpointer.Index(to.Last())
		if !okFrom || !okTo {
			return value, s, fmt.Errorf("%w: operation %d uses a non-index segment", ErrInvalidSortOperations, i)
		}
		moves = append(moves, move{from: fromIndex, to: toIndex})
	}

	target, ok := jsonvalue.GetIn(value, arrayPath)
	arr, isArray := jsonvalue.AsArray(target)
	if !ok || !isArray {
		return value, s, fmt.Errorf("%w: %s is not an array", ErrInvalidSortOperations, arrayPath)
	}

	items := make([]any, len(arr))
	copy(items, arr)
	arrayNode := nodeAt(s.Root, arrayPath)
	nodes := make([]*Node, len(arr))
	if arrayNode != nil {
		copy(nodes, arrayNode.Items)
	}
	for i, m := range moves {
		if m.from >= len(items) || m.to >= len(items) {
			return value, s, fmt.Errorf("%w: operation %d is out of range", ErrInvalidSortOperations, i)
		}
		item, node := items[m.from], nodes[m.from]
		items = slices.Insert(slices.Delete(items, m.from, m.from+1), m.to, item)
		nodes = slices.Insert(slices.Delete(nodes, m.from, m.from+1), m.to, node)
	}

	updated, err := jsonvalue.SetIn(value, arrayPath, items)
	if err != nil {
		return value, s, err
	}
	if arrayNode == nil {
		return updated, s, nil
	}
	root := mapExisting(s.Root, arrayPath, func(n *Node) *Node {
		out := n.clone()
		out.Items = slices.Clip(trimNilItems(nodes))
		return out
	})
	return updated, State{Root: root}, nil
}

func trimNilItems(nodes []*Node) []*Node {
	end := len(nodes)
	for end > 0 && nodes[end-1] == nil {
		end--
	}
	return nodes[:end]
}
