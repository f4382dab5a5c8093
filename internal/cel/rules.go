package cel

import (
	"fmt"

	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
	"github.com/oakwood-commons/jsonstate/pkg/validation"
)

// Wildcard matches every child of an object or array in a rule path.
const Wildcard = "*"

// Rule is a boolean CEL expression that must hold for every value selected
// by Path. A "*" segment in Path selects all children.
type Rule struct {
	Path     string              `yaml:"path" json:"path"`
	Expr     string              `yaml:"expr" json:"expr"`
	Message  string              `yaml:"message" json:"message"`
	Severity validation.Severity `yaml:"severity" json:"severity"`
}

type compiledRule struct {
	Rule
	pattern jsonpointer.Path
}

// Validator compiles rules into a validation.Validator. Every selected value
// for which a rule evaluates to false, or fails to evaluate, yields an error.
func (e *Evaluator) Validator(rules []Rule) (validation.Validator, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		pattern, err := jsonpointer.Parse(r.Path)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		if _, err := e.Compile(r.Expr); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		if r.Severity == "" {
			r.Severity = validation.SeverityError
		}
		if r.Message == "" {
			r.Message = "rule failed: " + r.Expr
		}
		compiled = append(compiled, compiledRule{Rule: r, pattern: pattern})
	}

	return func(value any) []validation.Error {
		var out []validation.Error
		for _, r := range compiled {
			for _, path := range MatchPaths(value, r.pattern) {
				ok, err := e.Test(r.Expr, value, path)
				switch {
				case err != nil:
					out = append(out, validation.Error{Path: path, Message: err.Error(), Severity: validation.SeverityError})
				case !ok:
					out = append(out, validation.Error{Path: path, Message: r.Message, Severity: r.Severity})
				}
			}
		}
		return out
	}, nil
}

// MatchPaths expands the wildcards of pattern against value and returns the
// existing paths it selects, in document order.
func MatchPaths(value any, pattern jsonpointer.Path) []jsonpointer.Path {
	var out []jsonpointer.Path
	var walk func(v any, at jsonpointer.Path, rest jsonpointer.Path)
	walk = func(v any, at jsonpointer.Path, rest jsonpointer.Path) {
		if len(rest) == 0 {
			out = append(out, at)
			return
		}
		segment := rest[0]
		if segment != Wildcard {
			if child, ok := jsonvalue.Child(v, segment); ok {
				walk(child, at.Append(segment), rest[1:])
			}
			return
		}
		switch t := v.(type) {
		case *jsonvalue.Object:
			for pair := t.Oldest(); pair != nil; pair = pair.Next() {
				walk(pair.Value, at.Append(pair.Key), rest[1:])
			}
		case []any:
			for i, item := range t {
				walk(item, at.AppendIndex(i), rest[1:])
			}
		}
	}
	walk(value, jsonpointer.Root, pattern)
	return out
}
