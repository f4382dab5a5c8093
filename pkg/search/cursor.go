package search

import (
	"strconv"

	"github.com/oakwood-commons/jsonstate/pkg/docstate"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

// frame is a node waiting to be visited.
type frame struct {
	path  jsonpointer.Path
	value any
	node  *docstate.Node
	// key is set for object properties; the key is matched before the value.
	key    string
	hasKey bool
	// leaf frames are matched but never descended into.
	leaf bool
}

// Cursor is a resumable depth-first search. It holds its own traversal stack,
// so a host can run a few steps, hand control back and resume later. A Cursor
// is not safe for concurrent use.
type Cursor struct {
	needle  []rune
	stack   []frame
	results []Result
	limit   int
	columns []jsonpointer.Path
	done    bool
}

// NewCursor prepares a search of value for text.
func NewCursor(text string, value any, s docstate.State, opts Options) *Cursor {
	c := &Cursor{
		needle:  lowerRunes(text),
		limit:   opts.limit(),
		columns: opts.Columns,
	}
	if len(c.needle) == 0 || c.limit == 0 {
		c.done = true
		return c
	}
	c.stack = append(c.stack, frame{path: jsonpointer.Root, value: value, node: s.Root})
	return c
}

// Step visits up to budget nodes and returns the matches found on the way.
// A negative budget runs the search to completion.
func (c *Cursor) Step(budget int) []Result {
	before := len(c.results)
	for visited := 0; !c.done && (budget < 0 || visited < budget); visited++ {
		if len(c.stack) == 0 {
			c.done = true
			break
		}
		f := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]
		c.visit(f)
	}
	return c.results[before:len(c.results):len(c.results)]
}

// Done reports whether the search has finished or hit its limit.
func (c *Cursor) Done() bool {
	return c.done
}

// Results returns every match found so far.
func (c *Cursor) Results() []Result {
	return c.results
}

func (c *Cursor) visit(f frame) {
	if f.hasKey {
		c.collect(f.path, FieldKey, f.key)
	}
	if !jsonvalue.IsContainer(f.value) {
		c.collect(f.path, FieldValue, jsonvalue.Text(f.value))
		return
	}
	if f.leaf {
		return
	}

	if arr, ok := jsonvalue.AsArray(f.value); ok && len(f.path) == 0 && len(c.columns) > 0 {
		c.pushColumns(arr)
		return
	}

	// children are pushed in reverse so they pop in display order
	switch t := f.value.(type) {
	case *jsonvalue.Object:
		keys := f.node.ObjectKeys(t)
		for i := len(keys) - 1; i >= 0; i-- {
			k := keys[i]
			child, _ := t.Get(k)
			c.stack = append(c.stack, frame{
				path:   f.path.Append(k),
				value:  child,
				node:   f.node.Child(k),
				key:    k,
				hasKey: true,
			})
		}
	case []any:
		for i := len(t) - 1; i >= 0; i-- {
			segment := strconv.Itoa(i)
			c.stack = append(c.stack, frame{
				path:  f.path.Append(segment),
				value: t[i],
				node:  f.node.Child(segment),
			})
		}
	}
}

// pushColumns queues the configured column cells of every row.
func (c *Cursor) pushColumns(rows []any) {
	for i := len(rows) - 1; i >= 0; i-- {
		for j := len(c.columns) - 1; j >= 0; j-- {
			column := c.columns[j]
			cell, ok := jsonvalue.GetIn(rows[i], column)
			if !ok {
				continue
			}
			path := jsonpointer.Root.AppendIndex(i).Append(column...)
			c.stack = append(c.stack, frame{path: path, value: cell, leaf: true})
		}
	}
}

func (c *Cursor) collect(path jsonpointer.Path, field Field, text string) {
	for i, m := range matchText(c.needle, text) {
		if c.limit >= 0 && len(c.results) >= c.limit {
			c.done = true
			return
		}
		c.results = append(c.results, Result{Path: path, Field: field, FieldIndex: i, Start: m[0], End: m[1]})
	}
	if c.limit >= 0 && len(c.results) >= c.limit {
		c.done = true
	}
}
