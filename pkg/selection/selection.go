// Package selection implements the editor selection model: typed carets and
// contiguous multi-node ranges, keyboard navigation over the on-screen order
// and conversions between selections, patch batches and clipboard text.
//
// A nil *Selection means nothing is selected. Functions in this package never
// fail on paths that no longer resolve; they return nil instead.
package selection

import (
	"slices"

	"github.com/oakwood-commons/jsonstate/pkg/docstate"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

// Type is the kind of selection.
type Type string

const (
	TypeKey    Type = "key"
	TypeValue  Type = "value"
	TypeAfter  Type = "after"
	TypeInside Type = "inside"
	TypeMulti  Type = "multi"
)

// Selection is an immutable selection. For every type but multi the anchor
// and focus are the same path.
type Selection struct {
	Type       Type
	AnchorPath jsonpointer.Path
	FocusPath  jsonpointer.Path
	// Edit is set when a key or value is being edited in place.
	Edit bool
}

func single(t Type, path jsonpointer.Path) *Selection {
	return &Selection{Type: t, AnchorPath: path, FocusPath: path}
}

// NewKey selects the key of the property at path.
func NewKey(path jsonpointer.Path) *Selection { return single(TypeKey, path) }

// NewValue selects the value at path.
func NewValue(path jsonpointer.Path) *Selection { return single(TypeValue, path) }

// NewAfter places the caret after the node at path.
func NewAfter(path jsonpointer.Path) *Selection { return single(TypeAfter, path) }

// NewInside places the caret inside the container at path, before its first
// child.
func NewInside(path jsonpointer.Path) *Selection { return single(TypeInside, path) }

// NewMulti selects the range of siblings spanned by anchor and focus.
func NewMulti(anchor, focus jsonpointer.Path) *Selection {
	return &Selection{Type: TypeMulti, AnchorPath: anchor, FocusPath: focus}
}

// SelectAll selects the whole document.
func SelectAll() *Selection {
	return NewMulti(jsonpointer.Root, jsonpointer.Root)
}

// WithEdit returns a copy of sel with the edit flag set.
func (sel *Selection) WithEdit(edit bool) *Selection {
	if sel == nil {
		return nil
	}
	out := *sel
	out.Edit = edit
	return &out
}

// Equal compares two selections; two nil selections are equal.
func (sel *Selection) Equal(other *Selection) bool {
	if sel == nil || other == nil {
		return sel == other
	}
	return sel.Type == other.Type && sel.Edit == other.Edit &&
		sel.AnchorPath.Equal(other.AnchorPath) && sel.FocusPath.Equal(other.FocusPath)
}

// Paths lists the selected paths. For a multi selection this is the resolved
// run of siblings; every other type yields its single path.
func Paths(value any, s docstate.State, sel *Selection) []jsonpointer.Path {
	if sel == nil {
		return nil
	}
	if sel.Type != TypeMulti {
		return []jsonpointer.Path{sel.FocusPath}
	}
	return ResolveRange(value, s, sel.AnchorPath, sel.FocusPath)
}

// ResolveRange turns an anchor and focus into a contiguous run of siblings.
// When one path contains the other the container wins. Otherwise the paths
// diverge below their common parent and every sibling between the two
// diverging children is selected, in display order.
func ResolveRange(value any, s docstate.State, anchor, focus jsonpointer.Path) []jsonpointer.Path {
	if anchor.Equal(focus) {
		return []jsonpointer.Path{focus}
	}
	parent := jsonpointer.CommonPrefix(anchor, focus)
	if len(parent) == len(anchor) || len(parent) == len(focus) {
		return []jsonpointer.Path{parent}
	}
	container, ok := jsonvalue.GetIn(value, parent)
	if !ok {
		return nil
	}
	from, to := anchor[len(parent)], focus[len(parent)]

	switch t := container.(type) {
	case *jsonvalue.Object:
		keys := docstate.Keys(value, s, parent)
		start, end := slices.Index(keys, from), slices.Index(keys, to)
		if start < 0 || end < 0 {
			return nil
		}
		start, end = min(start, end), max(start, end)
		paths := make([]jsonpointer.Path, 0, end-start+1)
		for _, k := range keys[start : end+1] {
			paths = append(paths, parent.Append(k))
		}
		return paths
	case []any:
		start, okStart := jsonpointer.Index(from)
		end, okEnd := jsonpointer.Index(to)
		if !okStart || !okEnd || start >= len(t) || end >= len(t) {
			return nil
		}
		start, end = min(start, end), max(start, end)
		paths := make([]jsonpointer.Path, 0, end-start+1)
		for i := start; i <= end; i++ {
			paths = append(paths, parent.AppendIndex(i))
		}
		return paths
	}
	return nil
}

// StartPath returns the first selected path.
func StartPath(value any, s docstate.State, sel *Selection) jsonpointer.Path {
	paths := Paths(value, s, sel)
	if len(paths) == 0 {
		return nil
	}
	return paths[0]
}

// EndPath returns the last selected path.
func EndPath(value any, s docstate.State, sel *Selection) jsonpointer.Path {
	paths := Paths(value, s, sel)
	if len(paths) == 0 {
		return nil
	}
	return paths[len(paths)-1]
}

// IsInside reports whether the selection lies strictly below path, so that
// collapsing path would hide it.
func IsInside(sel *Selection, path jsonpointer.Path) bool {
	if sel == nil {
		return false
	}
	below := func(p jsonpointer.Path) bool {
		return len(p) > len(path) && p.HasPrefix(path)
	}
	return below(sel.AnchorPath) && below(sel.FocusPath)
}

// hasKey reports whether the node at path is an object property.
func hasKey(value any, path jsonpointer.Path) bool {
	if len(path) == 0 {
		return false
	}
	parent, ok := jsonvalue.GetIn(value, path.Parent())
	return ok && jsonvalue.IsObject(parent)
}

// keyOrValue selects the key at path when it has one and preferKey is set,
// its value otherwise.
func keyOrValue(value any, path jsonpointer.Path, preferKey bool) *Selection {
	if preferKey && hasKey(value, path) {
		return NewKey(path)
	}
	return NewValue(path)
}

func fromCaret(c docstate.CaretPosition) *Selection {
	switch c.Type {
	case docstate.CaretKey:
		return NewKey(c.Path)
	case docstate.CaretAfter:
		return NewAfter(c.Path)
	case docstate.CaretInside:
		return NewInside(c.Path)
	default:
		return NewValue(c.Path)
	}
}

func caretType(t Type) (docstate.CaretType, bool) {
	switch t {
	case TypeKey:
		return docstate.CaretKey, true
	case TypeValue:
		return docstate.CaretValue, true
	case TypeAfter:
		return docstate.CaretAfter, true
	case TypeInside:
		return docstate.CaretInside, true
	}
	return "", false
}
