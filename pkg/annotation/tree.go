// Package annotation projects flat lists of path-addressed annotations (search
// matches, validation errors) onto a tree shaped like the annotated document,
// so that renderers can ask "is there anything at or below this node" without
// scanning the whole list.
package annotation

import (
	"slices"

	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

// Kind mirrors the shape of the value a tree node stands for.
type Kind string

const (
	KindObject Kind = "object"
	KindArray  Kind = "array"
	KindValue  Kind = "value"
)

// Tree is one node of the projection. Items holds the annotations whose path
// ends here; Children holds the projections of annotated children.
type Tree[T any] struct {
	Kind     Kind
	Items    []T
	Children map[string]*Tree[T]
	// Total counts the annotations of this node and all its descendants.
	Total int

	// seq holds the position of every item in the list given to Build.
	seq []int
}

// Build projects items onto value. pathOf extracts each annotation's path.
// Annotations whose path leaves the document are kept on value nodes so that
// nothing is lost.
func Build[T any](value any, items []T, pathOf func(T) jsonpointer.Path) *Tree[T] {
	root := newTree[T](value, true)
	for i, item := range items {
		path := pathOf(item)
		node := root
		node.Total++
		cur, ok := value, true
		for _, segment := range path {
			if ok {
				cur, ok = jsonvalue.Child(cur, segment)
			}
			child, exists := node.Children[segment]
			if !exists {
				child = newTree[T](cur, ok)
				if node.Children == nil {
					node.Children = map[string]*Tree[T]{}
				}
				node.Children[segment] = child
			}
			child.Total++
			node = child
		}
		node.Items = append(node.Items, item)
		node.seq = append(node.seq, i)
	}
	return root
}

func newTree[T any](v any, exists bool) *Tree[T] {
	kind := KindValue
	if exists {
		switch {
		case jsonvalue.IsObject(v):
			kind = KindObject
		case jsonvalue.IsArray(v):
			kind = KindArray
		}
	}
	return &Tree[T]{Kind: kind}
}

// Flatten lists the annotations of the tree in the order they were given to
// Build, so Build followed by Flatten returns the original list.
func (t *Tree[T]) Flatten() []T {
	if t == nil {
		return nil
	}
	entries := make([]entry[T], 0, t.Total)
	t.collect(&entries)
	slices.SortFunc(entries, func(a, b entry[T]) int { return a.seq - b.seq })
	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.item
	}
	return out
}

type entry[T any] struct {
	seq  int
	item T
}

func (t *Tree[T]) collect(out *[]entry[T]) {
	for i, item := range t.Items {
		*out = append(*out, entry[T]{seq: t.seq[i], item: item})
	}
	for _, child := range t.Children {
		child.collect(out)
	}
}

// Child is nil-safe.
func (t *Tree[T]) Child(segment string) *Tree[T] {
	if t == nil {
		return nil
	}
	return t.Children[segment]
}

// Lookup returns the node at path, or nil when nothing is annotated there.
func (t *Tree[T]) Lookup(path jsonpointer.Path) *Tree[T] {
	cur := t
	for _, segment := range path {
		cur = cur.Child(segment)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Has reports whether anything is annotated at or below this node.
func (t *Tree[T]) Has() bool {
	return t != nil && t.Total > 0
}
