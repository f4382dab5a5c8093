package docstate

import (
	"strconv"

	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
	"github.com/oakwood-commons/jsonstate/pkg/sections"
)

// CaretType is the kind of slot a caret position occupies.
type CaretType string

const (
	CaretKey    CaretType = "key"
	CaretValue  CaretType = "value"
	CaretAfter  CaretType = "after"
	CaretInside CaretType = "inside"
)

// CaretPosition is one slot in the on-screen order.
type CaretPosition struct {
	Path jsonpointer.Path
	Type CaretType
}

// Equal compares two caret positions.
func (c CaretPosition) Equal(other CaretPosition) bool {
	return c.Type == other.Type && c.Path.Equal(other.Path)
}

// ForEachVisibleChild calls fn for the visible children of the container
// value shadowed by n: object keys in display order, array items inside the
// visible sections. Nothing is visited when n is collapsed.
func ForEachVisibleChild(value any, n *Node, fn func(segment string, child any, childNode *Node) bool) {
	if !n.IsExpanded() {
		return
	}
	switch t := value.(type) {
	case *jsonvalue.Object:
		for _, k := range n.orderedKeys(t) {
			childValue, _ := t.Get(k)
			if !fn(k, childValue, n.Child(k)) {
				return
			}
		}
	case []any:
		sections.ForEachIndex(n.VisibleSections, len(t), func(i int) bool {
			segment := strconv.Itoa(i)
			return fn(segment, t[i], n.Child(segment))
		})
	}
}

// VisiblePaths lists the path of every visible node in display order.
func VisiblePaths(value any, s State) []jsonpointer.Path {
	var paths []jsonpointer.Path
	var walk func(v any, n *Node, path jsonpointer.Path)
	walk = func(v any, n *Node, path jsonpointer.Path) {
		paths = append(paths, path)
		ForEachVisibleChild(v, n, func(segment string, child any, childNode *Node) bool {
			walk(child, childNode, path.Append(segment))
			return true
		})
	}
	walk(value, s.Root, jsonpointer.Root)
	return paths
}

// CaretPositions lists every caret slot in display order. For each node the
// value slot comes first; an expanded container then offers an inside slot
// (when includeInside is set) followed by, per child, a key slot for object
// properties, the child's own slots and an after slot.
func CaretPositions(value any, s State, includeInside bool) []CaretPosition {
	var carets []CaretPosition
	var walk func(v any, n *Node, path jsonpointer.Path)
	walk = func(v any, n *Node, path jsonpointer.Path) {
		carets = append(carets, CaretPosition{Path: path, Type: CaretValue})
		if !n.IsExpanded() || !jsonvalue.IsContainer(v) {
			return
		}
		if includeInside {
			carets = append(carets, CaretPosition{Path: path, Type: CaretInside})
		}
		isObject := jsonvalue.IsObject(v)
		ForEachVisibleChild(v, n, func(segment string, child any, childNode *Node) bool {
			childPath := path.Append(segment)
			if isObject {
				carets = append(carets, CaretPosition{Path: childPath, Type: CaretKey})
			}
			walk(child, childNode, childPath)
			carets = append(carets, CaretPosition{Path: childPath, Type: CaretAfter})
			return true
		})
	}
	walk(value, s.Root, jsonpointer.Root)
	return carets
}

// IsPathVisible reports whether path is reachable through expanded
// ancestors and visible array sections.
func IsPathVisible(value any, s State, path jsonpointer.Path) bool {
	if !jsonvalue.Exists(value, path) {
		return false
	}
	n := s.Root
	for i, segment := range path {
		if !n.IsExpanded() {
			return false
		}
		parent, _ := jsonvalue.GetIn(value, path[:i])
		if jsonvalue.IsArray(parent) {
			index, ok := jsonpointer.Index(segment)
			if !ok || !sections.InVisibleSection(n.Sections(), index) {
				return false
			}
		}
		n = n.Child(segment)
	}
	return true
}

// PreviousVisiblePath returns the visible path shown before path, or nil.
func PreviousVisiblePath(value any, s State, path jsonpointer.Path) jsonpointer.Path {
	paths := VisiblePaths(value, s)
	for i, p := range paths {
		if p.Equal(path) {
			if i > 0 {
				return paths[i-1]
			}
			return nil
		}
	}
	return nil
}

// NextVisiblePath returns the visible path shown after path, or nil.
func NextVisiblePath(value any, s State, path jsonpointer.Path) jsonpointer.Path {
	paths := VisiblePaths(value, s)
	for i, p := range paths {
		if p.Equal(path) {
			if i+1 < len(paths) {
				return paths[i+1]
			}
			return nil
		}
	}
	return nil
}

// NextVisiblePathAfterSubtree returns the first visible path that is not a
// descendant of path, or nil.
func NextVisiblePathAfterSubtree(value any, s State, path jsonpointer.Path) jsonpointer.Path {
	paths := VisiblePaths(value, s)
	for i, p := range paths {
		if !p.Equal(path) {
			continue
		}
		for _, next := range paths[i+1:] {
			if !next.HasPrefix(path) {
				return next
			}
		}
		return nil
	}
	return nil
}
