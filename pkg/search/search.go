// Package search finds text in object keys and primitive values of a JSON
// document and turns matches into replacement patches.
//
// Matching is case-insensitive substring containment. Offsets count runes, so
// they index the text a user sees rather than its UTF-8 bytes. Large
// documents are searched through a Cursor that can be stepped in bounded
// batches, or through a Runner that drives one with progress callbacks and
// cancellation.
package search

import (
	"unicode"

	"github.com/oakwood-commons/jsonstate/pkg/docstate"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
)

// DefaultMaxResults caps a search when Options.MaxResults is not set.
const DefaultMaxResults = 1000

// Field says whether a match is in a property key or in a value.
type Field string

const (
	FieldKey   Field = "key"
	FieldValue Field = "value"
)

// Result is one match. FieldIndex numbers the matches within the same field
// text; Start and End delimit the match in runes.
type Result struct {
	Path       jsonpointer.Path `json:"path"`
	Field      Field            `json:"field"`
	FieldIndex int              `json:"fieldIndex"`
	Start      int              `json:"start"`
	End        int              `json:"end"`
}

// SameField reports whether two results are in the same key or value.
func (r Result) SameField(other Result) bool {
	return r.Field == other.Field && r.Path.Equal(other.Path)
}

// Options tune a search.
type Options struct {
	// MaxResults stops the search once reached. Zero means
	// DefaultMaxResults, a negative value means no limit.
	MaxResults int
	// Columns restricts the search of a document whose root is an array to
	// these paths inside every item, matching a table view.
	Columns []jsonpointer.Path
}

func (o Options) limit() int {
	switch {
	case o.MaxResults == 0:
		return DefaultMaxResults
	case o.MaxResults < 0:
		return -1
	default:
		return o.MaxResults
	}
}

// Search returns every match of text in value, in display order. Object keys
// are visited in the order recorded by s. An empty text matches nothing.
func Search(text string, value any, s docstate.State, opts Options) []Result {
	c := NewCursor(text, value, s, opts)
	for !c.Done() {
		c.Step(-1)
	}
	return c.Results()
}

// matchText finds the non-overlapping occurrences of needle in text. needle
// must already be lower case.
func matchText(needle []rune, text string) [][2]int {
	if len(needle) == 0 {
		return nil
	}
	haystack := lowerRunes(text)
	var found [][2]int
	for i := 0; i+len(needle) <= len(haystack); {
		if equalRunes(haystack[i:i+len(needle)], needle) {
			found = append(found, [2]int{i, i + len(needle)})
			i += len(needle)
			continue
		}
		i++
	}
	return found
}

func equalRunes(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func lowerRunes(text string) []rune {
	out := []rune(text)
	for i, r := range out {
		out[i] = unicode.ToLower(r)
	}
	return out
}
