package search

import (
	"github.com/oakwood-commons/jsonstate/pkg/annotation"
	"github.com/oakwood-commons/jsonstate/pkg/docstate"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
)

// Tree is the document shaped projection of a result list.
type Tree = annotation.Tree[Result]

// ToRecursive projects results onto value so a renderer can look up the
// matches of any node directly.
func ToRecursive(value any, results []Result) *Tree {
	return annotation.Build(value, results, func(r Result) jsonpointer.Path { return r.Path })
}

// Flatten is the inverse of ToRecursive.
func Flatten(tree *Tree) []Result {
	return tree.Flatten()
}

// Matches returns the matches of one field of the node at path.
func Matches(tree *Tree, path jsonpointer.Path, field Field) []Result {
	node := tree.Lookup(path)
	if node == nil {
		return nil
	}
	var out []Result
	for _, r := range node.Items {
		if r.Field == field {
			out = append(out, r)
		}
	}
	return out
}

// ExpandMatches reveals every matched node, growing array sections where
// needed.
func ExpandMatches(value any, s docstate.State, results []Result) docstate.State {
	for _, r := range results {
		s = docstate.RevealPath(value, s, r.Path)
	}
	return s
}

// IndexOf returns the position of r in results, or -1.
func IndexOf(results []Result, r Result) int {
	for i, candidate := range results {
		if candidate.SameField(r) && candidate.FieldIndex == r.FieldIndex {
			return i
		}
	}
	return -1
}

// Next returns the index of the match after active, wrapping around. It
// returns -1 for an empty list.
func Next(results []Result, active int) int {
	if len(results) == 0 {
		return -1
	}
	if active < 0 {
		return 0
	}
	return (active + 1) % len(results)
}

// Previous returns the index of the match before active, wrapping around.
func Previous(results []Result, active int) int {
	if len(results) == 0 {
		return -1
	}
	if active <= 0 {
		return len(results) - 1
	}
	return (active - 1) % len(results)
}
