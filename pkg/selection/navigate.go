package selection

import (
	"github.com/oakwood-commons/jsonstate/pkg/docstate"
)

// Up moves the selection to the previous visible node. Key and value
// selections keep their kind where the target allows it; structural carets
// and ranges turn into a selection of the adjacent node. With keepAnchor the
// focus moves and the anchor stays, extending a range.
func Up(value any, s docstate.State, sel *Selection, keepAnchor bool) *Selection {
	if sel == nil {
		return nil
	}
	if keepAnchor {
		if sel.Type == TypeAfter || sel.Type == TypeInside {
			return NewMulti(sel.FocusPath, sel.FocusPath)
		}
		prev := docstate.PreviousVisiblePath(value, s, sel.FocusPath)
		if prev == nil {
			return nil
		}
		return NewMulti(sel.AnchorPath, prev)
	}

	switch sel.Type {
	case TypeAfter, TypeInside:
		return NewMulti(sel.FocusPath, sel.FocusPath)
	case TypeMulti:
		start := StartPath(value, s, sel)
		if start == nil {
			return nil
		}
		prev := docstate.PreviousVisiblePath(value, s, start)
		if prev == nil {
			return nil
		}
		return NewMulti(prev, prev)
	default:
		prev := docstate.PreviousVisiblePath(value, s, sel.FocusPath)
		if prev == nil {
			return nil
		}
		return keyOrValue(value, prev, sel.Type == TypeKey)
	}
}

// Down moves the selection to the next visible node, mirroring Up.
func Down(value any, s docstate.State, sel *Selection, keepAnchor bool) *Selection {
	if sel == nil {
		return nil
	}
	if keepAnchor {
		if sel.Type == TypeAfter || sel.Type == TypeInside {
			return NewMulti(sel.FocusPath, sel.FocusPath)
		}
		next := docstate.NextVisiblePathAfterSubtree(value, s, sel.FocusPath)
		if next == nil {
			return nil
		}
		return NewMulti(sel.AnchorPath, next)
	}

	switch sel.Type {
	case TypeAfter:
		next := docstate.NextVisiblePathAfterSubtree(value, s, sel.FocusPath)
		if next == nil {
			return nil
		}
		return NewMulti(next, next)
	case TypeInside:
		next := docstate.NextVisiblePath(value, s, sel.FocusPath)
		if next == nil {
			return nil
		}
		return NewMulti(next, next)
	case TypeMulti:
		end := EndPath(value, s, sel)
		if end == nil {
			return nil
		}
		next := docstate.NextVisiblePathAfterSubtree(value, s, end)
		if next == nil {
			return nil
		}
		return NewMulti(next, next)
	default:
		next := docstate.NextVisiblePath(value, s, sel.FocusPath)
		if next == nil {
			return nil
		}
		return keyOrValue(value, next, sel.Type == TypeKey)
	}
}

// Left moves the caret one slot to the left in the on-screen order.
func Left(value any, s docstate.State, sel *Selection, keepAnchor bool) *Selection {
	if sel == nil {
		return nil
	}
	if keepAnchor && sel.Type != TypeMulti {
		return NewMulti(sel.FocusPath, sel.FocusPath)
	}

	switch sel.Type {
	case TypeValue:
		if hasKey(value, sel.FocusPath) {
			return NewKey(sel.FocusPath)
		}
		return NewMulti(sel.FocusPath, sel.FocusPath)
	case TypeKey:
		return stepCaret(value, s, sel, -1)
	case TypeAfter, TypeInside:
		return NewValue(sel.FocusPath)
	case TypeMulti:
		if hasKey(value, sel.FocusPath) {
			return NewKey(sel.FocusPath)
		}
		return nil
	}
	return nil
}

// Right moves the caret one slot to the right in the on-screen order.
func Right(value any, s docstate.State, sel *Selection, keepAnchor bool) *Selection {
	if sel == nil {
		return nil
	}
	if keepAnchor && sel.Type != TypeMulti {
		return NewMulti(sel.FocusPath, sel.FocusPath)
	}

	switch sel.Type {
	case TypeKey:
		return NewValue(sel.FocusPath)
	case TypeValue:
		return NewAfter(sel.FocusPath)
	case TypeAfter:
		return stepCaret(value, s, sel, 1)
	case TypeMulti:
		end := EndPath(value, s, sel)
		if end == nil {
			return nil
		}
		return NewAfter(end)
	}
	return nil
}

// stepCaret moves to the neighbouring slot of the caret stream.
func stepCaret(value any, s docstate.State, sel *Selection, delta int) *Selection {
	want, ok := caretType(sel.Type)
	if !ok {
		return nil
	}
	current := docstate.CaretPosition{Path: sel.FocusPath, Type: want}
	carets := docstate.CaretPositions(value, s, true)
	for i, c := range carets {
		if !c.Equal(current) {
			continue
		}
		j := i + delta
		if j < 0 || j >= len(carets) {
			return nil
		}
		return fromCaret(carets[j])
	}
	return nil
}
