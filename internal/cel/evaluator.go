// Package cel evaluates CEL expressions against documents of the jsonvalue
// model. It backs the query and transform commands, conditional expansion
// and rule based validation.
package cel

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/decls"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"

	"github.com/oakwood-commons/jsonstate/pkg/docstate"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

// Variables bound in every expression.
const (
	VarValue = "_"
	VarPath  = "path"
	VarDepth = "depth"
)

// Evaluator compiles and evaluates CEL expressions. Compiled programs are
// cached per expression; an Evaluator is safe for concurrent use.
type Evaluator struct {
	env      *cel.Env
	mu       sync.Mutex
	programs map[string]cel.Program
}

// NewEvaluator creates a new CEL evaluator with standard library functions.
func NewEvaluator(opts ...cel.EnvOption) (*Evaluator, error) {
	env, err := newStandardCELEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env, programs: map[string]cel.Program{}}, nil
}

// Environment returns the CEL environment for introspection.
func (e *Evaluator) Environment() *cel.Env {
	return e.env
}

// newStandardCELEnv creates a standard CEL environment with common extensions.
// Additional options can be provided to extend the environment (e.g., custom functions).
func newStandardCELEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, 7+len(opts))
	allOpts = append(allOpts,
		cel.Variable(VarValue, cel.DynType),
		cel.Variable(VarPath, cel.StringType),
		cel.Variable(VarDepth, cel.IntType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

// Compile parses and type checks expr, reusing an earlier compilation.
func (e *Evaluator) Compile(expr string) (cel.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if prg, ok := e.programs[expr]; ok {
		return prg, nil
	}
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	e.programs[expr] = prg
	return prg, nil
}

// Evaluate evaluates expr with the document bound to "_" and returns the
// result in the jsonvalue model. CEL maps have no order, so objects in the
// result come back with sorted keys.
// Example: "_.items[0]" or "_.items.filter(x, x.available == true)"
func (e *Evaluator) Evaluate(expr string, value any) (any, error) {
	return e.EvaluateAt(expr, value, jsonpointer.Root)
}

// EvaluateAt evaluates expr against the value found at path, binding the
// path and its depth as well.
func (e *Evaluator) EvaluateAt(expr string, value any, path jsonpointer.Path) (any, error) {
	prg, err := e.Compile(expr)
	if err != nil {
		return nil, err
	}
	target, ok := jsonvalue.GetIn(value, path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", jsonvalue.ErrPathNotFound, path)
	}
	result, _, err := prg.Eval(map[string]any{
		VarValue: jsonvalue.ToGo(target),
		VarPath:  path.String(),
		VarDepth: int64(len(path)),
	})
	if err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	}
	return jsonvalue.FromGo(ToGo(result)), nil
}

// Test evaluates a boolean expression at path.
func (e *Evaluator) Test(expr string, value any, path jsonpointer.Path) (bool, error) {
	result, err := e.EvaluateAt(expr, value, path)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned %T, want bool", expr, result)
	}
	return b, nil
}

// ExpandPredicate turns a boolean expression into an expansion predicate for
// docstate.ExpandWithCallback. "_" is the container being considered. An
// expression that fails to evaluate for a node leaves it collapsed.
func (e *Evaluator) ExpandPredicate(expr string, value any) (docstate.Predicate, error) {
	if _, err := e.Compile(expr); err != nil {
		return nil, err
	}
	return func(path jsonpointer.Path) bool {
		ok, err := e.Test(expr, value, path)
		return err == nil && ok
	}, nil
}

// ToGo converts CEL types to Go native types recursively.
// Handles both CEL primitive types and collection types (List, Map).
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}

	switch v := val.(type) {
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	case types.Null:
		return nil
	}

	valuer, ok := val.(interface{ Value() any })
	if !ok {
		return val
	}
	return convertNative(valuer.Value())
}

// convertNative walks what Value() returned, converting any ref.Val found
// inside lists and maps.
func convertNative(v any) any {
	switch t := v.(type) {
	case ref.Val:
		return ToGo(t)
	case []ref.Val:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = ToGo(elem)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = convertNative(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, elem := range t {
			out[k] = convertNative(elem)
		}
		return out
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(t))
		for k, elem := range t {
			out[keyString(k)] = ToGo(elem)
		}
		return out
	default:
		return v
	}
}

func keyString(k ref.Val) string {
	if s, ok := k.(types.String); ok {
		return string(s)
	}
	if valuer, ok := k.(interface{ Value() any }); ok {
		return fmt.Sprintf("%v", valuer.Value())
	}
	return fmt.Sprintf("%v", k)
}

// Functions lists the functions of the evaluator's environment with their
// usage, for example "size() - list.size() -> int".
func (e *Evaluator) Functions() []string {
	return DiscoverFunctionsFromEnv(e.env)
}

// isOperator filters out internal operator-style declarations that shouldn't be listed.
func isOperator(name string) bool {
	if strings.HasPrefix(name, "@") {
		return true
	}
	if strings.HasPrefix(name, "_") && strings.HasSuffix(name, "_") {
		return true
	}
	switch name {
	case "!_", "-_", "_[_]", "_in_", "_?_:_":
		return true
	}
	return false
}

func typeLabel(t *types.Type) string {
	if t == nil {
		return "any"
	}
	if name := t.DeclaredTypeName(); name != "" {
		return name
	}
	if name := t.TypeName(); name != "" {
		return name
	}
	return "any"
}

func formatParams(params []*types.Type) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = typeLabel(p)
	}
	return strings.Join(parts, ", ")
}

// usageFromOverload builds a human-readable usage string from a function overload.
func usageFromOverload(name string, o *decls.OverloadDecl) string {
	params := o.ArgTypes()
	call := name + "(" + formatParams(params) + ")"
	if o.IsMemberFunction() && len(params) > 0 {
		call = typeLabel(params[0]) + "." + name + "(" + formatParams(params[1:]) + ")"
	}
	if result := o.ResultType(); result != nil {
		call += " -> " + typeLabel(result)
	}
	return call
}

// DiscoverFunctionsFromEnv returns one sorted entry per function overload
// and macro of env. Entries keep the bare name up front and append usage
// after " - ".
func DiscoverFunctionsFromEnv(env *cel.Env) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, 100)
	add := func(entry string) {
		if !seen[entry] {
			seen[entry] = true
			out = append(out, entry)
		}
	}

	for _, fn := range env.Functions() {
		if isOperator(fn.Name()) {
			continue
		}
		for _, o := range fn.OverloadDecls() {
			add(fn.Name() + "() - " + usageFromOverload(fn.Name(), o))
		}
	}
	for _, m := range env.Macros() {
		if isOperator(m.Function()) {
			continue
		}
		add(m.Function() + "() - CEL macro")
	}

	sort.Strings(out)
	return out
}
