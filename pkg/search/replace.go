package search

import (
	"slices"

	"github.com/oakwood-commons/jsonstate/pkg/docstate"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpatch"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
	"github.com/oakwood-commons/jsonstate/pkg/selection"
)

// ReplaceOperations returns the batch that replaces the text of one match
// with replacement, and the selection to show afterwards. A value match
// replaces the whole value; the new text is converted back to a number,
// boolean or null when it reads as one, unless the value is kept as a string.
// A key match renames the key in place. Stale results yield nil.
func ReplaceOperations(value any, s docstate.State, replacement string, r Result) ([]jsonpatch.Operation, *selection.Selection) {
	switch r.Field {
	case FieldValue:
		current, ok := jsonvalue.GetIn(value, r.Path)
		if !ok || jsonvalue.IsContainer(current) {
			return nil, nil
		}
		text, ok := replaceRanges(jsonvalue.Text(current), [][2]int{{r.Start, r.End}}, replacement)
		if !ok {
			return nil, nil
		}
		op := jsonpatch.Operation{
			Op:    jsonpatch.Replace,
			Path:  r.Path.String(),
			Value: convertText(value, s, r.Path, current, text),
		}
		return []jsonpatch.Operation{op}, selection.NewValue(r.Path)
	case FieldKey:
		if len(r.Path) == 0 || !jsonvalue.Exists(value, r.Path) {
			return nil, nil
		}
		parent := r.Path.Parent()
		newKey, ok := replaceRanges(r.Path.Last(), [][2]int{{r.Start, r.End}}, replacement)
		if !ok {
			return nil, nil
		}
		ops := RenameOperations(parent, docstate.Keys(value, s, parent), r.Path.Last(), newKey)
		return ops, selection.NewKey(parent.Append(newKey))
	}
	return nil, nil
}

// ReplaceAllOperations returns one batch replacing every match of text in
// value. Values are replaced first, while all paths are still valid; key
// renames follow in reverse display order so that descendants are renamed
// before their ancestors and later siblings before earlier ones.
func ReplaceAllOperations(value any, s docstate.State, text, replacement string) []jsonpatch.Operation {
	fields := groupFields(Search(text, value, s, Options{MaxResults: -1}))

	var ops []jsonpatch.Operation
	var keyFields []fieldMatches
	for _, f := range fields {
		if f.field == FieldKey {
			keyFields = append(keyFields, f)
			continue
		}
		current, _ := jsonvalue.GetIn(value, f.path)
		updated, ok := replaceRanges(jsonvalue.Text(current), f.ranges, replacement)
		if !ok {
			continue
		}
		ops = append(ops, jsonpatch.Operation{
			Op:    jsonpatch.Replace,
			Path:  f.path.String(),
			Value: convertText(value, s, f.path, current, updated),
		})
	}

	siblings := map[string][]string{}
	for i := len(keyFields) - 1; i >= 0; i-- {
		f := keyFields[i]
		parent := f.path.Parent()
		oldKey := f.path.Last()
		newKey, ok := replaceRanges(oldKey, f.ranges, replacement)
		if !ok || newKey == oldKey {
			continue
		}
		pointer := parent.String()
		keys, seen := siblings[pointer]
		if !seen {
			keys = docstate.Keys(value, s, parent)
		}
		ops = append(ops, RenameOperations(parent, keys, oldKey, newKey)...)
		siblings[pointer] = renameKey(keys, oldKey, newKey)
	}
	return ops
}

// RenameOperations renames oldKey to newKey inside the object at parent,
// whose keys are listed in display order. The rename is followed by a move
// of every later sibling onto itself, which keeps the renamed key at its
// position in the value's own key order as well.
func RenameOperations(parent jsonpointer.Path, keys []string, oldKey, newKey string) []jsonpatch.Operation {
	if oldKey == newKey {
		return nil
	}
	ops := []jsonpatch.Operation{{
		Op:   jsonpatch.Move,
		From: parent.Append(oldKey).String(),
		Path: parent.Append(newKey).String(),
	}}
	index := slices.Index(keys, oldKey)
	if index < 0 {
		return ops
	}
	for _, k := range keys[index+1:] {
		if k == newKey {
			continue
		}
		pointer := parent.Append(k).String()
		ops = append(ops, jsonpatch.Operation{Op: jsonpatch.Move, From: pointer, Path: pointer})
	}
	return ops
}

func renameKey(keys []string, oldKey, newKey string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		switch k {
		case newKey:
			continue
		case oldKey:
			out = append(out, newKey)
		default:
			out = append(out, k)
		}
	}
	return out
}

// convertText turns replaced text back into a value. Strings that must stay
// strings are left alone.
func convertText(value any, s docstate.State, path jsonpointer.Path, current any, text string) any {
	if _, isString := current.(string); isString && docstate.EnforceString(value, s, path) {
		return text
	}
	return jsonvalue.StringConvert(text)
}

type fieldMatches struct {
	path   jsonpointer.Path
	field  Field
	ranges [][2]int
}

// groupFields collects the match ranges of every field, in display order.
func groupFields(results []Result) []fieldMatches {
	var fields []fieldMatches
	for _, r := range results {
		if n := len(fields); n > 0 && fields[n-1].field == r.Field && fields[n-1].path.Equal(r.Path) {
			fields[n-1].ranges = append(fields[n-1].ranges, [2]int{r.Start, r.End})
			continue
		}
		fields = append(fields, fieldMatches{path: r.Path, field: r.Field, ranges: [][2]int{{r.Start, r.End}}})
	}
	return fields
}

// replaceRanges replaces the sorted, non-overlapping rune ranges of text.
func replaceRanges(text string, ranges [][2]int, replacement string) (string, bool) {
	runes := []rune(text)
	out := make([]rune, 0, len(runes))
	last := 0
	for _, r := range ranges {
		if r[0] < last || r[1] < r[0] || r[1] > len(runes) {
			return "", false
		}
		out = append(out, runes[last:r[0]]...)
		out = append(out, []rune(replacement)...)
		last = r[1]
	}
	out = append(out, runes[last:]...)
	return string(out), true
}
