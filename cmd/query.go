package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/jsonstate/internal/cel"
	"github.com/oakwood-commons/jsonstate/internal/limiter"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
	"github.com/oakwood-commons/jsonstate/pkg/logger"
	"github.com/oakwood-commons/jsonstate/pkg/search"
	"github.com/oakwood-commons/jsonstate/pkg/selection"
	"github.com/oakwood-commons/jsonstate/pkg/settings"
	"github.com/oakwood-commons/jsonstate/pkg/validation"
)

var (
	queryLimit limiter.Config

	searchLimit      limiter.Config
	searchMaxResults int
	searchColumns    []string

	selectPath string
	selectTo   string
	selectType string

	validateRules []string
)

var queryCmd = &cobra.Command{
	Use:   "query [file] <expression>",
	Short: "Evaluate a CEL expression against a document",
	Long: `query evaluates a CEL expression with the document bound to "_" and prints
the result. The document is not changed.`,
	Example: `  jsonstate query data.json '_.items[0].name'
  jsonstate query data.json '_.items.filter(i, i.price > 3)' --limit 2`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := queryLimit.Validate(); err != nil {
			return fmt.Errorf("record limiting: %w", err)
		}
		path := ""
		if len(args) == 2 {
			path, args = args[0], args[1:]
		}
		session, err := openSession(cmd, path)
		if err != nil {
			return err
		}
		result, err := session.Query(args[0])
		if err != nil {
			return err
		}
		return writeValue(cmd, queryLimit.Apply(result))
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [file] <text>",
	Short: "Find text in keys and values",
	Long: `search lists case-insensitive matches in object keys and primitive values,
in document order. Each line shows the pointer, whether the match is in the key
or the value, and the matched rune range.`,
	Example: `  jsonstate search data.json tea
  jsonstate search data.json tea --max-results 10 --offset 5 --limit 5`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := searchLimit.Validate(); err != nil {
			return fmt.Errorf("record limiting: %w", err)
		}
		path := ""
		if len(args) == 2 {
			path, args = args[0], args[1:]
		}
		session, err := openSession(cmd, path)
		if err != nil {
			return err
		}

		opts := search.Options{MaxResults: searchMaxResults}
		for _, c := range searchColumns {
			column, err := jsonpointer.Parse(c)
			if err != nil {
				return err
			}
			opts.Columns = append(opts.Columns, column)
		}
		results, err := session.Search(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, r := range limiter.Slice(searchLimit, results) {
			if err := writeText(out, formatResult(session.Value(), r)); err != nil {
				return err
			}
		}
		if !settings.FromContextOrDefault(cmd.Context()).IsQuiet {
			return writeText(cmd.ErrOrStderr(), fmt.Sprintf("%d matches", len(results)))
		}
		return nil
	},
}

var selectCmd = &cobra.Command{
	Use:   "select [file]",
	Short: "Print a selection as clipboard text",
	Long: `select prints what an editor copies for a selection. A key selection
prints the key, a value selection the value (strings unquoted). With --to the
selection spans the sibling range from --path to --to.`,
	Example: `  jsonstate select data.json --path /items/0 --to /items/2
  jsonstate select data.json --path /name --type key`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		anchor, err := jsonpointer.Parse(selectPath)
		if err != nil {
			return err
		}
		session, err := openSession(cmd, documentArg(args))
		if err != nil {
			return err
		}

		var sel *selection.Selection
		switch {
		case selectTo != "":
			focus, err := jsonpointer.Parse(selectTo)
			if err != nil {
				return err
			}
			sel = selection.NewMulti(anchor, focus)
		case strings.EqualFold(selectType, string(selection.TypeKey)):
			sel = selection.NewKey(anchor)
		case strings.EqualFold(selectType, string(selection.TypeValue)):
			sel = selection.NewValue(anchor)
		default:
			return fmt.Errorf("invalid selection type %q (expected key or value)", selectType)
		}
		// the selected nodes must be on screen
		session.Expand(cmd.Context(), anchor.Parent())
		session.Select(sel)
		if session.Selection() == nil {
			return fmt.Errorf("nothing selected at %s", anchor)
		}

		text, err := session.Copy(settings.FromContextOrDefault(cmd.Context()).Indent)
		if err != nil {
			return err
		}
		return writeText(cmd.OutOrStdout(), text)
	},
}

// errValidationFailed is returned when a document has error findings.
var errValidationFailed = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a document against CEL rules",
	Long: `validate runs the rules of the validation.rules config key together with
every --rule flag. A rule is a pointer pattern and a boolean CEL expression
separated by ":"; a "*" segment matches every child. The command fails when a
finding has error severity.`,
	Example: `  jsonstate validate data.json --rule '/items/*:has(_.name)'
  jsonstate validate data.json --config rules.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rules := append([]cel.Rule{}, activeConfig.Validation.Rules...)
		for _, flag := range validateRules {
			rule, err := parseRuleFlag(flag)
			if err != nil {
				return err
			}
			rules = append(rules, rule)
		}

		root, err := loadDocument(cmd, documentArg(args))
		if err != nil {
			return err
		}
		evaluator, err := cel.NewEvaluator()
		if err != nil {
			return err
		}
		validator, err := evaluator.Validator(rules)
		if err != nil {
			return err
		}
		errs := validation.Run(root, validator)

		out := cmd.OutOrStdout()
		for _, e := range errs {
			if err := writeText(out, fmt.Sprintf("%s\t%s\t%s", e.Severity, pointerLabel(e.Path), e.Message)); err != nil {
				return err
			}
		}
		logger.FromContext(cmd.Context()).V(1).Info("validated", logger.ResultsKey, len(errs))
		if validation.Worst(validation.ToRecursive(root, errs)) == validation.SeverityError {
			return errValidationFailed
		}
		if !settings.FromContextOrDefault(cmd.Context()).IsQuiet {
			return writeText(cmd.ErrOrStderr(), fmt.Sprintf("%d findings", len(errs)))
		}
		return nil
	},
}

func init() { //nolint:gochecknoinits
	limiterFlags(queryCmd, &queryLimit)

	limiterFlags(searchCmd, &searchLimit)
	searchCmd.Flags().IntVar(&searchMaxResults, "max-results", 0, "stop after this many matches; negative for no limit (default from config)")
	searchCmd.Flags().StringArrayVar(&searchColumns, "column", nil, "for an array document, only search this pointer inside every item (repeatable)")

	selectCmd.Flags().StringVar(&selectPath, "path", "", "JSON pointer of the selected node")
	selectCmd.Flags().StringVar(&selectTo, "to", "", "JSON pointer of a sibling that ends a multi selection")
	selectCmd.Flags().StringVar(&selectType, "type", "value", "selection type: key|value (ignored with --to)")

	validateCmd.Flags().StringArrayVar(&validateRules, "rule", nil, "rule as <pointer pattern>:<CEL expression> (repeatable)")
}

// parseRuleFlag splits "<pattern>:<expr>". The pattern is a JSON pointer, so
// it is empty or starts with "/".
func parseRuleFlag(flag string) (cel.Rule, error) {
	pattern, expr, ok := strings.Cut(flag, ":")
	if !ok || strings.TrimSpace(expr) == "" {
		return cel.Rule{}, fmt.Errorf("invalid rule %q (expected <pointer>:<expression>)", flag)
	}
	return cel.Rule{Path: strings.TrimSpace(pattern), Expr: strings.TrimSpace(expr)}, nil
}

func pointerLabel(path jsonpointer.Path) string {
	if path.IsRoot() {
		return "/"
	}
	return path.String()
}

// formatResult renders one match as "<pointer>\t<field>\t[start:end]\t<text>".
func formatResult(value any, r search.Result) string {
	return fmt.Sprintf("%s\t%s\t[%d:%d]\t%s", pointerLabel(r.Path), r.Field, r.Start, r.End, matchedText(value, r))
}

// matchedText returns the matched runes of the key or value text.
func matchedText(value any, r search.Result) string {
	text := r.Path.Last()
	if r.Field == search.FieldValue {
		v, _ := jsonvalue.GetIn(value, r.Path)
		text = jsonvalue.Text(v)
	}
	runes := []rune(text)
	if r.Start < 0 || r.End > len(runes) || r.Start > r.End {
		return ""
	}
	return string(runes[r.Start:r.End])
}
