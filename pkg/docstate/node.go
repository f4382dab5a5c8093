// Package docstate keeps the document state of an editor: a shadow tree over
// a JSON value recording which nodes are expanded, the display order of
// object keys, the visible sections of arrays and which string values must
// keep rendering as strings.
//
// The tree is persistent. Every function returns a new State that shares
// all untouched nodes with its input; callers never mutate nodes.
package docstate

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
	"github.com/oakwood-commons/jsonstate/pkg/sections"
)

// Kind mirrors the shape of the JSON value a node shadows.
type Kind int

const (
	KindValue Kind = iota
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "value"
	}
}

// KindOf returns the node kind for a JSON value.
func KindOf(v any) Kind {
	switch {
	case jsonvalue.IsObject(v):
		return KindObject
	case jsonvalue.IsArray(v):
		return KindArray
	default:
		return KindValue
	}
}

// Node is the view metadata of one visited location.
type Node struct {
	// ID is a stable identity that follows the node through moves.
	ID   string
	Kind Kind

	Expanded bool

	// Keys is the display order of an object's keys. Nil means the value's
	// own key order.
	Keys       []string
	Properties map[string]*Node

	// Items holds array item nodes; nil entries are unvisited items.
	Items []*Node
	// VisibleSections of an array. Nil means sections.Default().
	VisibleSections []sections.Section

	EnforceString bool
}

func newNode(v any) *Node {
	n := &Node{ID: uuid.NewString(), Kind: KindOf(v)}
	if obj, ok := jsonvalue.AsObject(v); ok {
		n.Keys = jsonvalue.Keys(obj)
	}
	return n
}

func (n *Node) clone() *Node {
	c := *n
	return &c
}

// Child returns the node of a direct child, or nil when it was never visited.
func (n *Node) Child(segment string) *Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case KindObject:
		return n.Properties[segment]
	case KindArray:
		i, ok := jsonpointer.Index(segment)
		if !ok || i >= len(n.Items) {
			return nil
		}
		return n.Items[i]
	}
	return nil
}

// Sections returns the array's visible sections, falling back to the default.
func (n *Node) Sections() []sections.Section {
	if n == nil || n.VisibleSections == nil {
		return sections.Default()
	}
	return n.VisibleSections
}

// IsExpanded is nil-safe.
func (n *Node) IsExpanded() bool {
	return n != nil && n.Expanded
}

// ObjectKeys returns the display order of obj's keys for this node. It is
// nil-safe: an unvisited node shows the object's own order.
func (n *Node) ObjectKeys(obj *jsonvalue.Object) []string {
	return n.orderedKeys(obj)
}

func (n *Node) orderedKeys(obj *jsonvalue.Object) []string {
	live := jsonvalue.Keys(obj)
	if n == nil {
		return live
	}
	return SyncKeys(live, n.Keys)
}

// setChild stores child under segment. n must be a private copy.
func (n *Node) setChild(segment string, child *Node) {
	switch n.Kind {
	case KindObject:
		props := make(map[string]*Node, len(n.Properties)+1)
		for k, v := range n.Properties {
			props[k] = v
		}
		if child == nil {
			delete(props, segment)
		} else {
			props[segment] = child
		}
		n.Properties = props
	case KindArray:
		i, ok := jsonpointer.Index(segment)
		if !ok {
			return
		}
		if i >= len(n.Items) && child == nil {
			return
		}
		items := make([]*Node, max(len(n.Items), i+1))
		copy(items, n.Items)
		items[i] = child
		n.Items = items
	}
}

// insertItem inserts child at index, shifting later items. n must be a
// private copy.
func (n *Node) insertItem(index int, child *Node) {
	if index >= len(n.Items) {
		if child != nil {
			n.setChild(strconv.Itoa(index), child)
		}
		return
	}
	items := make([]*Node, 0, len(n.Items)+1)
	items = append(items, n.Items[:index]...)
	items = append(items, child)
	items = append(items, n.Items[index:]...)
	n.Items = items
}

// removeItem drops the item at index, shifting later items. n must be a
// private copy.
func (n *Node) removeItem(index int) {
	if index >= len(n.Items) {
		return
	}
	items := make([]*Node, 0, len(n.Items)-1)
	items = append(items, n.Items[:index]...)
	items = append(items, n.Items[index+1:]...)
	n.Items = items
}

// renewIDs returns a deep copy of n where every node has a fresh identity.
func renewIDs(n *Node) *Node {
	if n == nil {
		return nil
	}
	c := n.clone()
	c.ID = uuid.NewString()
	if n.Properties != nil {
		c.Properties = make(map[string]*Node, len(n.Properties))
		for k, child := range n.Properties {
			c.Properties[k] = renewIDs(child)
		}
	}
	if n.Items != nil {
		c.Items = make([]*Node, len(n.Items))
		for i, child := range n.Items {
			c.Items[i] = renewIDs(child)
		}
	}
	return c
}

// nodeAt follows visited nodes only.
func nodeAt(root *Node, path jsonpointer.Path) *Node {
	cur := root
	for _, segment := range path {
		if cur == nil {
			return nil
		}
		cur = cur.Child(segment)
	}
	return cur
}

// updateNode rewrites the node at path with fn, copying every node on the
// way down. Missing or stale nodes along the path are created from value.
// When path does not resolve in value the tree is returned unchanged.
func updateNode(node *Node, value any, path jsonpointer.Path, fn func(n *Node, v any) *Node) *Node {
	if node == nil || node.Kind != KindOf(value) {
		node = newNode(value)
	}
	if len(path) == 0 {
		return fn(node, value)
	}
	childValue, ok := jsonvalue.Child(value, path[0])
	if !ok {
		return node
	}
	child := node.Child(path[0])
	updated := updateNode(child, childValue, path[1:], fn)
	if updated == child {
		return node
	}
	out := node.clone()
	out.setChild(path[0], updated)
	return out
}

// mapExisting rewrites the node at path without creating anything. It is a
// no-op when the path was never visited.
func mapExisting(node *Node, path jsonpointer.Path, fn func(n *Node) *Node) *Node {
	if node == nil {
		return nil
	}
	if len(path) == 0 {
		return fn(node)
	}
	child := node.Child(path[0])
	if child == nil {
		return node
	}
	updated := mapExisting(child, path[1:], fn)
	if updated == child {
		return node
	}
	out := node.clone()
	out.setChild(path[0], updated)
	return out
}
