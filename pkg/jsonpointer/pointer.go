// Package jsonpointer provides the path type used throughout jsonstate and
// the RFC 6901 JSON Pointer codec that converts paths to and from strings.
package jsonpointer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/agentflare-ai/jsonpointer"
)

// ErrInvalidPointer is returned when a pointer string cannot be parsed.
var ErrInvalidPointer = errors.New("invalid JSON pointer")

// Path addresses a location in a JSON value. Object keys are stored as-is,
// array indices as decimal strings. The empty path is the root.
type Path []string

// Root is the empty path.
var Root = Path{}

// Parse converts a JSON pointer such as "/items/0/name" into a Path.
func Parse(pointer string) (Path, error) {
	if pointer == "" {
		return Path{}, nil
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, fmt.Errorf("%w: %q must start with '/'", ErrInvalidPointer, pointer)
	}
	tokens, err := jsonpointer.New(pointer)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPointer, pointer, err)
	}
	return append(Path{}, tokens...), nil
}

// MustParse is like Parse but panics on malformed input. Intended for tests
// and constant pointers.
func MustParse(pointer string) Path {
	p, err := Parse(pointer)
	if err != nil {
		panic(err)
	}
	return p
}

// Compile converts a Path into its JSON pointer representation.
func Compile(path Path) string {
	if len(path) == 0 {
		return ""
	}
	return jsonpointer.Pointer(path).String()
}

// New builds a path from keys and indices.
func New(segments ...any) Path {
	path := make(Path, 0, len(segments))
	for _, s := range segments {
		switch v := s.(type) {
		case string:
			path = append(path, v)
		case int:
			path = append(path, strconv.Itoa(v))
		default:
			path = append(path, fmt.Sprint(v))
		}
	}
	return path
}

// String returns the compiled pointer. It doubles as the normalized map key
// for path-keyed lookups.
func (p Path) String() string {
	return Compile(p)
}

// Append returns a new path with the given segments added. The receiver is
// never modified.
func (p Path) Append(segments ...string) Path {
	out := make(Path, 0, len(p)+len(segments))
	out = append(out, p...)
	return append(out, segments...)
}

// AppendIndex returns a new path with an array index added.
func (p Path) AppendIndex(index int) Path {
	return p.Append(strconv.Itoa(index))
}

// Parent returns the path of the containing node. The parent of the root is
// the root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Path{}
	}
	return p[:len(p)-1:len(p)-1]
}

// Last returns the final segment, or "" for the root.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// IsRoot reports whether p is the empty path.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Equal reports whether two paths address the same location.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is an ancestor of p or equal to it.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that does not share backing storage.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// CommonPrefix returns the longest path that both a and b start with.
func CommonPrefix(a, b Path) Path {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return a[:n:n].Clone()
}

// Index parses an array index segment. It rejects leading zeros and signs as
// RFC 6901 requires.
func Index(segment string) (int, bool) {
	i, err := jsonpointer.ParseArrayIndex(segment)
	if err != nil || i > math.MaxInt {
		return 0, false
	}
	// only the canonical spelling addresses an item
	if strconv.FormatUint(i, 10) != segment {
		return 0, false
	}
	return int(i), true
}
