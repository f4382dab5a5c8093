// Package validation defines the validator collaborator and projects its
// findings onto the document tree the same way search matches are.
package validation

import (
	"fmt"

	"github.com/oakwood-commons/jsonstate/pkg/annotation"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

func (s Severity) weight() int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	}
	return 0
}

// Error is one finding at a path.
type Error struct {
	Path     jsonpointer.Path `json:"path"`
	Message  string           `json:"message"`
	Severity Severity         `json:"severity"`
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Path, e.Message, e.Severity)
}

// Validator inspects a document and reports its findings.
type Validator func(value any) []Error

// Run applies every validator in turn and concatenates the findings.
func Run(value any, validators ...Validator) []Error {
	var out []Error
	for _, v := range validators {
		if v == nil {
			continue
		}
		out = append(out, v(value)...)
	}
	return out
}

// Tree is the document shaped projection of findings.
type Tree = annotation.Tree[Error]

// ToRecursive projects errs onto value.
func ToRecursive(value any, errs []Error) *Tree {
	return annotation.Build(value, errs, func(e Error) jsonpointer.Path { return e.Path })
}

// Worst returns the highest severity among the findings at and below the
// node, or "" when there are none.
func Worst(tree *Tree) Severity {
	if !tree.Has() {
		return ""
	}
	var worst Severity
	for _, e := range tree.Flatten() {
		if e.Severity.weight() > worst.weight() {
			worst = e.Severity
		}
	}
	return worst
}
