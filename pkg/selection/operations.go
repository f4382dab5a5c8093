package selection

import (
	"slices"

	"github.com/oakwood-commons/jsonstate/pkg/docstate"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpatch"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

// RemoveOperations returns the batch that deletes the selection. A key
// selection removes its property, a value selection clears the value to ""
// and a range removes every selected node. Removing the whole document
// replaces it with "".
func RemoveOperations(value any, s docstate.State, sel *Selection) []jsonpatch.Operation {
	if sel == nil {
		return nil
	}
	switch sel.Type {
	case TypeKey:
		if !hasKey(value, sel.FocusPath) {
			return nil
		}
		return []jsonpatch.Operation{{Op: jsonpatch.Remove, Path: sel.FocusPath.String()}}
	case TypeValue:
		if !jsonvalue.Exists(value, sel.FocusPath) {
			return nil
		}
		return []jsonpatch.Operation{{Op: jsonpatch.Replace, Path: sel.FocusPath.String(), Value: ""}}
	case TypeMulti:
		paths := Paths(value, s, sel)
		if len(paths) == 1 && paths[0].IsRoot() {
			return []jsonpatch.Operation{{Op: jsonpatch.Replace, Path: "", Value: ""}}
		}
		return removeAll(paths)
	}
	return nil
}

// removeAll removes paths back to front so that array indices stay valid.
func removeAll(paths []jsonpointer.Path) []jsonpatch.Operation {
	ops := make([]jsonpatch.Operation, 0, len(paths))
	for i := len(paths) - 1; i >= 0; i-- {
		ops = append(ops, jsonpatch.Operation{Op: jsonpatch.Remove, Path: paths[i].String()})
	}
	return ops
}

// InsertOperations returns the batch that puts inserted at the selection.
// Array positions receive inserted as one new item. Object positions need an
// object: its properties are added and the following siblings are moved
// behind them so that the new properties appear at the caret. A value
// selection is replaced and a range is replaced by the insertion.
func InsertOperations(value any, s docstate.State, sel *Selection, inserted any) []jsonpatch.Operation {
	if sel == nil {
		return nil
	}
	switch sel.Type {
	case TypeValue:
		if !jsonvalue.Exists(value, sel.FocusPath) {
			return nil
		}
		return []jsonpatch.Operation{{Op: jsonpatch.Replace, Path: sel.FocusPath.String(), Value: inserted}}
	case TypeAfter:
		path := sel.FocusPath
		if path.IsRoot() || !jsonvalue.Exists(value, path) {
			return nil
		}
		return insertAt(value, s, path.Parent(), path.Last(), inserted)
	case TypeInside:
		return insertAt(value, s, sel.FocusPath, "", inserted)
	case TypeMulti:
		paths := Paths(value, s, sel)
		if len(paths) == 0 {
			return nil
		}
		if len(paths) == 1 && paths[0].IsRoot() {
			return []jsonpatch.Operation{{Op: jsonpatch.Replace, Path: "", Value: inserted}}
		}
		parentPath := paths[0].Parent()
		parent, _ := jsonvalue.GetIn(value, parentPath)
		ops := removeAll(paths)
		if jsonvalue.IsArray(parent) {
			return append(ops, jsonpatch.Operation{Op: jsonpatch.Add, Path: paths[0].String(), Value: inserted})
		}
		obj, ok := inserted.(*jsonvalue.Object)
		if !ok {
			return nil
		}
		keys := docstate.Keys(value, s, parentPath)
		end := slices.Index(keys, paths[len(paths)-1].Last())
		return append(ops, insertEntries(parentPath, obj, keys[end+1:])...)
	}
	return nil
}

// insertAt inserts into the container at parentPath right after the child
// named after, or at the start when after is "".
func insertAt(value any, s docstate.State, parentPath jsonpointer.Path, after string, inserted any) []jsonpatch.Operation {
	parent, ok := jsonvalue.GetIn(value, parentPath)
	if !ok {
		return nil
	}
	switch parent.(type) {
	case []any:
		index := 0
		if after != "" {
			i, ok := jsonpointer.Index(after)
			if !ok {
				return nil
			}
			index = i + 1
		}
		return []jsonpatch.Operation{{Op: jsonpatch.Add, Path: parentPath.AppendIndex(index).String(), Value: inserted}}
	case *jsonvalue.Object:
		obj, ok := inserted.(*jsonvalue.Object)
		if !ok {
			return nil
		}
		keys := docstate.Keys(value, s, parentPath)
		following := keys
		if after != "" {
			following = keys[slices.Index(keys, after)+1:]
		}
		return insertEntries(parentPath, obj, following)
	}
	return nil
}

// insertEntries adds the properties of obj and then moves every following
// key onto itself, which sends it to the end of the object.
func insertEntries(parentPath jsonpointer.Path, obj *jsonvalue.Object, following []string) []jsonpatch.Operation {
	var ops []jsonpatch.Operation
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		ops = append(ops, jsonpatch.Operation{Op: jsonpatch.Add, Path: parentPath.Append(pair.Key).String(), Value: pair.Value})
	}
	for _, k := range following {
		if _, replaced := obj.Get(k); replaced {
			continue
		}
		pointer := parentPath.Append(k).String()
		ops = append(ops, jsonpatch.Operation{Op: jsonpatch.Move, From: pointer, Path: pointer})
	}
	return ops
}
