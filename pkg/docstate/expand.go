package docstate

import (
	"strconv"

	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
	"github.com/oakwood-commons/jsonstate/pkg/sections"
)

// Predicate decides whether the container at path gets expanded.
type Predicate func(path jsonpointer.Path) bool

// ExpandAll expands every container.
func ExpandAll(jsonpointer.Path) bool { return true }

// ExpandNone expands nothing.
func ExpandNone(jsonpointer.Path) bool { return false }

// ExpandToDepth expands containers whose path is shorter than depth. Depth 1
// expands the root only.
func ExpandToDepth(depth int) Predicate {
	return func(path jsonpointer.Path) bool {
		return len(path) < depth
	}
}

// ExpandMinimal expands the root and, when the root is an array, its first
// item.
func ExpandMinimal(value any) Predicate {
	rootIsArray := jsonvalue.IsArray(value)
	return func(path jsonpointer.Path) bool {
		return len(path) == 0 || (rootIsArray && len(path) == 1 && path[0] == "0")
	}
}

// ExpandPath expands every container from the root down to and including
// path. Arrays on the way grow the section needed to show the next segment.
func ExpandPath(value any, s State, path jsonpointer.Path) State {
	return expandPrefixes(value, s, path, true)
}

// RevealPath expands the ancestors of path and grows array sections so that
// the node at path becomes visible. The node itself is left as is.
func RevealPath(value any, s State, path jsonpointer.Path) State {
	return expandPrefixes(value, s, path, false)
}

func expandPrefixes(value any, s State, path jsonpointer.Path, includeSelf bool) State {
	root := s.Root
	last := len(path) - 1
	if includeSelf {
		last = len(path)
	}
	for i := 0; i <= last; i++ {
		prefix := path[:i]
		v, ok := jsonvalue.GetIn(value, prefix)
		if !ok || !jsonvalue.IsContainer(v) {
			break
		}
		next := ""
		if i < len(path) {
			next = path[i]
		}
		root = updateNode(root, value, prefix, func(n *Node, v any) *Node {
			return expandNode(n, v, next)
		})
	}
	return State{Root: root}
}

// expandNode marks n expanded and, for arrays, makes the index in next
// visible.
func expandNode(n *Node, v any, next string) *Node {
	out := n.clone()
	out.Expanded = true
	switch t := v.(type) {
	case *jsonvalue.Object:
		out.Keys = n.orderedKeys(t)
	case []any:
		if index, ok := jsonpointer.Index(next); ok && !sections.InVisibleSection(n.Sections(), index) {
			start := sections.CurrentRoundNumber(index)
			grown := append(append([]sections.Section{}, n.Sections()...), sections.Section{Start: start, End: start + sections.Size})
			out.VisibleSections = sections.Merge(grown)
		}
	}
	return out
}

// ExpandSection reveals an extra section of the array at path, typically one
// returned by sections.ExpandItemsSections.
func ExpandSection(value any, s State, path jsonpointer.Path, section sections.Section) State {
	v, ok := jsonvalue.GetIn(value, path)
	if !ok || !jsonvalue.IsArray(v) || section.End <= section.Start {
		return s
	}
	return State{Root: updateNode(s.Root, value, path, func(n *Node, _ any) *Node {
		out := n.clone()
		grown := append(append([]sections.Section{}, n.Sections()...), section)
		out.VisibleSections = sections.Merge(grown)
		return out
	})}
}

// CollapsePath collapses path and every descendant: expansion, recorded key
// orders and visible sections are discarded. Enforce-string flags survive.
func CollapsePath(s State, path jsonpointer.Path) State {
	return State{Root: mapExisting(s.Root, path, collapseNode)}
}

func collapseNode(n *Node) *Node {
	out := &Node{ID: n.ID, Kind: n.Kind, EnforceString: n.EnforceString}
	for k, child := range n.Properties {
		if c := collapseNode(child); c.retained() {
			if out.Properties == nil {
				out.Properties = map[string]*Node{}
			}
			out.Properties[k] = c
		}
	}
	last := -1
	items := make([]*Node, len(n.Items))
	for i, child := range n.Items {
		if child == nil {
			continue
		}
		if c := collapseNode(child); c.retained() {
			items[i] = c
			last = i
		}
	}
	if last >= 0 {
		out.Items = items[:last+1]
	}
	return out
}

func (n *Node) retained() bool {
	return n.EnforceString || len(n.Properties) > 0 || len(n.Items) > 0
}

// ExpandWithCallback reveals and expands path, then walks the value below it
// depth first. Every descendant container for which expand returns true is
// expanded and its visible children are visited; a false result stops the
// walk for that subtree.
func ExpandWithCallback(value any, s State, path jsonpointer.Path, expand Predicate) State {
	return expandWith(value, s, path, func(p jsonpointer.Path) bool {
		// the walk only visits path and its descendants
		return len(p) == len(path) || expand(p)
	})
}

// expandWith is ExpandWithCallback with expand also deciding about path.
func expandWith(value any, s State, path jsonpointer.Path, expand Predicate) State {
	v, ok := jsonvalue.GetIn(value, path)
	if !ok {
		return s
	}
	s = RevealPath(value, s, path)
	if !jsonvalue.IsContainer(v) {
		return s
	}
	return State{Root: updateNode(s.Root, value, path, func(n *Node, v any) *Node {
		return expandRecursive(n, v, path, expand)
	})}
}

func expandRecursive(n *Node, v any, path jsonpointer.Path, expand Predicate) *Node {
	if !expand(path) {
		return n
	}
	out := expandNode(n, v, "")
	expandChild := func(child *Node, segment string, childValue any) *Node {
		if !jsonvalue.IsContainer(childValue) {
			return child
		}
		if child == nil || child.Kind != KindOf(childValue) {
			child = newNode(childValue)
		}
		updated := expandRecursive(child, childValue, path.Append(segment), expand)
		if !updated.Expanded {
			return out.Child(segment)
		}
		return updated
	}

	switch t := v.(type) {
	case *jsonvalue.Object:
		props := make(map[string]*Node, len(out.Properties))
		for k, child := range out.Properties {
			props[k] = child
		}
		for _, k := range out.Keys {
			childValue, _ := t.Get(k)
			if child := expandChild(props[k], k, childValue); child != nil {
				props[k] = child
			}
		}
		out.Properties = props
	case []any:
		items := make([]*Node, len(out.Items))
		copy(items, out.Items)
		sections.ForEachIndex(out.VisibleSections, len(t), func(i int) bool {
			var existing *Node
			if i < len(items) {
				existing = items[i]
			}
			child := expandChild(existing, strconv.Itoa(i), t[i])
			if child == nil {
				return true
			}
			for len(items) <= i {
				items = append(items, nil)
			}
			items[i] = child
			return true
		})
		out.Items = items
	}
	return out
}

// CollapseAll collapses the whole document.
func CollapseAll(s State) State {
	return CollapsePath(s, jsonpointer.Root)
}
