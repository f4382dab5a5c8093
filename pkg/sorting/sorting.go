// Package sorting generates the patch batches that sort arrays and object
// keys. Array batches are plain index moves inside one array, which is the
// shape docstate.FastPatchSort applies in a single pass.
package sorting

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/oakwood-commons/jsonstate/pkg/jsonpatch"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

// Direction is the sort direction.
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

// ParseDirection accepts "asc", "ascending", "desc" and "descending".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return 0, fmt.Errorf("unknown sort direction %q", s)
}

// ArrayOperations returns the moves that sort the array at arrayPath by the
// value found at itemPath inside every item (the root path sorts by the items
// themselves). The sort is stable. Nil means the array is already sorted or
// does not exist.
func ArrayOperations(value any, arrayPath, itemPath jsonpointer.Path, direction Direction) []jsonpatch.Operation {
	target, ok := jsonvalue.GetIn(value, arrayPath)
	if !ok {
		return nil
	}
	items, ok := jsonvalue.AsArray(target)
	if !ok {
		return nil
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		va, okA := jsonvalue.GetIn(items[a], itemPath)
		vb, okB := jsonvalue.GetIn(items[b], itemPath)
		return int(direction) * compare(va, okA, vb, okB)
	})

	// replay the permutation as moves on a working copy of the indices
	working := make([]int, len(items))
	for i := range working {
		working[i] = i
	}
	var ops []jsonpatch.Operation
	for to, original := range order {
		from := slices.Index(working, original)
		if from == to {
			continue
		}
		ops = append(ops, jsonpatch.Operation{
			Op:   jsonpatch.Move,
			From: arrayPath.AppendIndex(from).String(),
			Path: arrayPath.AppendIndex(to).String(),
		})
		working = slices.Insert(slices.Delete(working, from, from+1), to, original)
	}
	return ops
}

// ObjectOperations returns the moves that sort the keys of the object at
// objectPath. Every key is moved onto itself in sorted order, which sends it
// to the end of the object.
func ObjectOperations(value any, objectPath jsonpointer.Path, direction Direction) []jsonpatch.Operation {
	target, ok := jsonvalue.GetIn(value, objectPath)
	if !ok {
		return nil
	}
	obj, ok := jsonvalue.AsObject(target)
	if !ok {
		return nil
	}
	keys := jsonvalue.Keys(obj)
	sorted := slices.Clone(keys)
	slices.SortStableFunc(sorted, func(a, b string) int {
		return int(direction) * CompareStrings(a, b)
	})
	if slices.Equal(keys, sorted) {
		return nil
	}
	ops := make([]jsonpatch.Operation, 0, len(sorted))
	for _, k := range sorted {
		pointer := objectPath.Append(k).String()
		ops = append(ops, jsonpatch.Operation{Op: jsonpatch.Move, From: pointer, Path: pointer})
	}
	return ops
}

// rank orders values of different types: null, booleans, numbers, strings,
// arrays, objects and finally missing values.
func rank(v any, present bool) int {
	switch {
	case !present:
		return 6
	case v == nil:
		return 0
	case jsonvalue.IsNumber(v):
		return 2
	case jsonvalue.IsArray(v):
		return 4
	case jsonvalue.IsObject(v):
		return 5
	}
	switch v.(type) {
	case bool:
		return 1
	case string:
		return 3
	}
	return 6
}

// Compare orders two values: numbers numerically, strings naturally and
// case-insensitively, false before true, containers by size.
func Compare(a, b any) int {
	return compare(a, true, b, true)
}

func compare(a any, presentA bool, b any, presentB bool) int {
	ra, rb := rank(a, presentA), rank(b, presentB)
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case 1:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		default:
			return 1
		}
	case 2:
		fa, _ := jsonvalue.ToFloat(a)
		fb, _ := jsonvalue.ToFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case 3:
		return CompareStrings(a.(string), b.(string))
	case 4, 5:
		return jsonvalue.Len(a) - jsonvalue.Len(b)
	}
	return 0
}

// CompareStrings compares case-insensitively, treating runs of digits as
// numbers so that "item2" sorts before "item10".
func CompareStrings(a, b string) int {
	ra, rb := []rune(strings.ToLower(a)), []rune(strings.ToLower(b))
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		if unicode.IsDigit(ra[i]) && unicode.IsDigit(rb[j]) {
			si, sj := i, j
			for i < len(ra) && unicode.IsDigit(ra[i]) {
				i++
			}
			for j < len(rb) && unicode.IsDigit(rb[j]) {
				j++
			}
			if c := compareDigits(ra[si:i], rb[sj:j]); c != 0 {
				return c
			}
			continue
		}
		if ra[i] != rb[j] {
			if ra[i] < rb[j] {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	return (len(ra) - i) - (len(rb) - j)
}

func compareDigits(a, b []rune) int {
	a, b = trimZeros(a), trimZeros(b)
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	for k := range a {
		if a[k] != b[k] {
			if a[k] < b[k] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func trimZeros(digits []rune) []rune {
	for len(digits) > 1 && digits[0] == '0' {
		digits = digits[1:]
	}
	return digits
}
