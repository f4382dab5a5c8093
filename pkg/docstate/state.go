package docstate

import (
	"slices"
	"strconv"

	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
	"github.com/oakwood-commons/jsonstate/pkg/sections"
)

// State is an immutable snapshot of the document state. The zero value is a
// valid state in which nothing has been visited.
type State struct {
	Root *Node
}

// New creates the state for value and expands it with expand, which may be
// nil.
func New(value any, expand Predicate) State {
	s := State{Root: newNode(value)}
	if expand != nil {
		s = expandWith(value, s, jsonpointer.Root, expand)
	}
	return s
}

// NodeAt returns the node at path, or nil when the path was never visited.
func (s State) NodeAt(path jsonpointer.Path) *Node {
	return nodeAt(s.Root, path)
}

// IsExpanded reports whether the node at path is expanded.
func (s State) IsExpanded(path jsonpointer.Path) bool {
	return s.NodeAt(path).IsExpanded()
}

// SyncKeys reconciles a previous display order with the live keys: keys
// that still exist keep their relative order, new keys are appended in their
// live order. Without a previous order the live order is returned.
func SyncKeys(live, previous []string) []string {
	if previous == nil {
		out := make([]string, len(live))
		copy(out, live)
		return out
	}
	liveSet := make(map[string]struct{}, len(live))
	for _, k := range live {
		liveSet[k] = struct{}{}
	}
	out := make([]string, 0, len(live))
	kept := make(map[string]struct{}, len(previous))
	for _, k := range previous {
		if _, ok := liveSet[k]; ok {
			if _, dup := kept[k]; dup {
				continue
			}
			kept[k] = struct{}{}
			out = append(out, k)
		}
	}
	for _, k := range live {
		if _, ok := kept[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

// Keys returns the display order of the object at path.
func Keys(value any, s State, path jsonpointer.Path) []string {
	v, ok := jsonvalue.GetIn(value, path)
	if !ok {
		return nil
	}
	obj, ok := jsonvalue.AsObject(v)
	if !ok {
		return nil
	}
	return s.NodeAt(path).orderedKeys(obj)
}

// Sync reconciles every visited node with value: nodes whose kind no longer
// matches are reset, removed keys and items are dropped and key orders are
// resynchronized. Unchanged nodes are shared.
func Sync(value any, s State) State {
	if s.Root == nil {
		return s
	}
	return State{Root: syncNode(s.Root, value)}
}

func syncNode(n *Node, value any) *Node {
	if n == nil {
		return nil
	}
	kind := KindOf(value)
	if n.Kind != kind {
		fresh := newNode(value)
		fresh.ID = n.ID
		fresh.Expanded = n.Expanded && kind != KindValue
		return fresh
	}

	switch kind {
	case KindObject:
		obj, _ := jsonvalue.AsObject(value)
		keys := n.Keys
		if keys != nil {
			keys = SyncKeys(jsonvalue.Keys(obj), n.Keys)
		}
		changed := !equalStrings(keys, n.Keys)
		var props map[string]*Node
		for k, child := range n.Properties {
			childValue, ok := obj.Get(k)
			if !ok {
				changed = true
				continue
			}
			synced := syncNode(child, childValue)
			if synced != child {
				changed = true
			}
			if props == nil {
				props = make(map[string]*Node, len(n.Properties))
			}
			props[k] = synced
		}
		if !changed {
			return n
		}
		out := n.clone()
		out.Keys = keys
		out.Properties = props
		return out
	case KindArray:
		arr, _ := jsonvalue.AsArray(value)
		items := n.Items
		changed := false
		if len(items) > len(arr) {
			items = items[:len(arr):len(arr)]
			changed = true
		}
		var synced []*Node
		for i, child := range items {
			updated := syncNode(child, arr[i])
			if updated != child && synced == nil {
				synced = make([]*Node, len(items))
				copy(synced, items)
			}
			if synced != nil {
				synced[i] = updated
			}
		}
		if synced != nil {
			items = synced
			changed = true
		}
		if !changed {
			return n
		}
		out := n.clone()
		out.Items = items
		return out
	default:
		if n.Properties == nil && n.Items == nil && n.Keys == nil {
			return n
		}
		out := n.clone()
		out.Properties, out.Items, out.Keys = nil, nil, nil
		return out
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) || (a == nil) != (b == nil) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// EnforceString reports whether the string at path must keep rendering as a
// string: either it was flagged explicitly or its text would otherwise be
// read as a number, boolean or null.
func EnforceString(value any, s State, path jsonpointer.Path) bool {
	if n := s.NodeAt(path); n != nil && n.EnforceString {
		return true
	}
	v, ok := jsonvalue.GetIn(value, path)
	return ok && jsonvalue.LooksLikeNonString(v)
}

// SetEnforceString flags or unflags the primitive at path.
func SetEnforceString(value any, s State, path jsonpointer.Path, enforce bool) State {
	v, ok := jsonvalue.GetIn(value, path)
	if !ok || jsonvalue.IsContainer(v) {
		return s
	}
	return State{Root: updateNode(s.Root, value, path, func(n *Node, _ any) *Node {
		if n.EnforceString == enforce {
			return n
		}
		out := n.clone()
		out.EnforceString = enforce
		return out
	})}
}

// ExpandedMap flattens expansion flags into a pointer keyed map. Only
// visited nodes appear.
func (s State) ExpandedMap() map[string]bool {
	out := map[string]bool{}
	walkNodes(s.Root, jsonpointer.Root, func(path jsonpointer.Path, n *Node) {
		if n.Kind != KindValue {
			out[path.String()] = n.Expanded
		}
	})
	return out
}

// KeysMap flattens recorded object key orders into a pointer keyed map.
func (s State) KeysMap() map[string][]string {
	out := map[string][]string{}
	walkNodes(s.Root, jsonpointer.Root, func(path jsonpointer.Path, n *Node) {
		if n.Kind == KindObject && n.Keys != nil {
			out[path.String()] = n.Keys
		}
	})
	return out
}

// VisibleSectionsMap flattens recorded array sections into a pointer keyed
// map.
func (s State) VisibleSectionsMap() map[string][]sections.Section {
	out := map[string][]sections.Section{}
	walkNodes(s.Root, jsonpointer.Root, func(path jsonpointer.Path, n *Node) {
		if n.Kind == KindArray && n.VisibleSections != nil {
			out[path.String()] = n.VisibleSections
		}
	})
	return out
}

// EnforceStringMap lists the explicitly flagged paths.
func (s State) EnforceStringMap() map[string]bool {
	out := map[string]bool{}
	walkNodes(s.Root, jsonpointer.Root, func(path jsonpointer.Path, n *Node) {
		if n.EnforceString {
			out[path.String()] = true
		}
	})
	return out
}

func walkNodes(n *Node, path jsonpointer.Path, fn func(path jsonpointer.Path, n *Node)) {
	if n == nil {
		return
	}
	fn(path, n)
	switch n.Kind {
	case KindObject:
		for _, k := range n.Keys {
			walkNodes(n.Properties[k], path.Append(k), fn)
		}
		for k, child := range n.Properties {
			if !slices.Contains(n.Keys, k) {
				walkNodes(child, path.Append(k), fn)
			}
		}
	case KindArray:
		for i, child := range n.Items {
			walkNodes(child, path.Append(strconv.Itoa(i)), fn)
		}
	}
}
