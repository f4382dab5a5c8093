package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/jsonstate/pkg/core"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpatch"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
	"github.com/oakwood-commons/jsonstate/pkg/loader"
	"github.com/oakwood-commons/jsonstate/pkg/logger"
	"github.com/oakwood-commons/jsonstate/pkg/search"
	"github.com/oakwood-commons/jsonstate/pkg/sorting"
)

var (
	writeInPlace  bool
	printInverse  bool
	patchOps      string
	patchOpsFile  string
	replaceFirst  bool
	sortPath      string
	sortBy        string
	sortDirection string
)

var patchCmd = &cobra.Command{
	Use:   "patch [file]",
	Short: "Apply a JSON patch to a document",
	Long: `patch applies an RFC 6902 operation batch. The batch is given inline with
--ops or read from --ops-file, as JSON or YAML. When any operation fails
nothing is applied and the failing operation is reported.`,
	Example: `  jsonstate patch data.json --ops '[{"op":"replace","path":"/name","value":"x"}]'
  jsonstate patch data.json --ops-file ops.yaml --write
  jsonstate patch data.json --ops-file ops.json --inverse > undo.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ops, err := readOperations()
		if err != nil {
			return err
		}
		path := documentArg(args)
		session, err := openSession(cmd, path)
		if err != nil {
			return err
		}
		change, err := session.Patch(cmd.Context(), ops)
		if err != nil {
			return err
		}
		return finishEdit(cmd, path, session, change)
	},
}

var replaceCmd = &cobra.Command{
	Use:   "replace [file] <text> <replacement>",
	Short: "Replace every match of text in keys and values",
	Long: `replace searches keys and values case-insensitively and replaces the
matches. Renamed keys keep their position. Values are converted back to
numbers, booleans or null when the edited text reads as one.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 3 {
			path, args = args[0], args[1:]
		}
		text, replacement := args[0], args[1]
		session, err := openSession(cmd, path)
		if err != nil {
			return err
		}

		change, err := replaceMatches(cmd, session, text, replacement)
		if err != nil {
			return err
		}
		return finishEdit(cmd, path, session, change)
	},
}

var transformCmd = &cobra.Command{
	Use:   "transform [file] <expression>",
	Short: "Replace a document with the result of a CEL expression",
	Example: `  jsonstate transform data.json '_.items.filter(i, i.available)'`,
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 2 {
			path, args = args[0], args[1:]
		}
		session, err := openSession(cmd, path)
		if err != nil {
			return err
		}
		change, err := session.Transform(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return finishEdit(cmd, path, session, change)
	},
}

var sortCmd = &cobra.Command{
	Use:   "sort [file]",
	Short: "Sort an array or the keys of an object",
	Long: `sort orders the array or object at --path. Arrays are sorted by the value
at --by inside every item (the items themselves by default); objects by key.
Numbers compare numerically and strings naturally, ignoring case.`,
	Example: `  jsonstate sort data.json --path /items --by /price --direction desc
  jsonstate sort data.json --path /metadata`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		direction, err := sorting.ParseDirection(sortDirection)
		if err != nil {
			return err
		}
		target, err := jsonpointer.Parse(sortPath)
		if err != nil {
			return err
		}
		by, err := jsonpointer.Parse(sortBy)
		if err != nil {
			return err
		}

		path := documentArg(args)
		session, err := openSession(cmd, path)
		if err != nil {
			return err
		}
		value, ok := jsonvalue.GetIn(session.Value(), target)
		if !ok {
			return fmt.Errorf("%w: %s", jsonvalue.ErrPathNotFound, target)
		}

		var change core.Change
		switch {
		case jsonvalue.IsArray(value):
			change, err = session.SortArray(cmd.Context(), target, by, direction)
		case jsonvalue.IsObject(value):
			change, err = session.SortObject(cmd.Context(), target, direction)
		default:
			return fmt.Errorf("%s is neither an array nor an object", target)
		}
		if err != nil {
			return err
		}
		return finishEdit(cmd, path, session, change)
	},
}

func init() { //nolint:gochecknoinits
	for _, c := range []*cobra.Command{patchCmd, replaceCmd, transformCmd, sortCmd} {
		c.Flags().BoolVarP(&writeInPlace, "write", "w", false, "write the result back to the input file")
		c.Flags().BoolVar(&printInverse, "inverse", false, "print the patch that reverts the change instead of the document")
	}
	patchCmd.Flags().StringVar(&patchOps, "ops", "", "operation batch as JSON or YAML text")
	patchCmd.Flags().StringVar(&patchOpsFile, "ops-file", "", "file holding the operation batch")
	patchCmd.MarkFlagsMutuallyExclusive("ops", "ops-file")
	patchCmd.MarkFlagsOneRequired("ops", "ops-file")

	replaceCmd.Flags().BoolVar(&replaceFirst, "first", false, "replace the first match only")

	sortCmd.Flags().StringVar(&sortPath, "path", "", "JSON pointer of the array or object to sort (default: the root)")
	sortCmd.Flags().StringVar(&sortBy, "by", "", "JSON pointer inside every array item to sort by")
	sortCmd.Flags().StringVar(&sortDirection, "direction", "asc", "sort direction: asc|desc")
}

// openSession loads the document at path into a new session.
func openSession(cmd *cobra.Command, path string) (*core.Session, error) {
	root, err := loadDocument(cmd, path)
	if err != nil {
		return nil, err
	}
	return newSession(cmd, root)
}

func replaceMatches(cmd *cobra.Command, session *core.Session, text, replacement string) (core.Change, error) {
	ctx := cmd.Context()
	if !replaceFirst {
		return session.ReplaceAll(ctx, text, replacement)
	}
	results, err := session.Search(ctx, text, search.Options{MaxResults: 1})
	if err != nil || len(results) == 0 {
		return core.Change{}, err
	}
	return session.Replace(ctx, results[0], replacement)
}

// readOperations parses the batch given by --ops or --ops-file.
func readOperations() ([]jsonpatch.Operation, error) {
	text := patchOps
	if patchOpsFile != "" {
		data, err := os.ReadFile(patchOpsFile)
		if err != nil {
			return nil, err
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	v, err := loader.LoadRoot(text)
	if err != nil {
		return nil, fmt.Errorf("parse operations: %w", err)
	}
	ops, err := jsonpatch.FromValue(v)
	if err != nil {
		return nil, fmt.Errorf("parse operations: %w", err)
	}
	return ops, nil
}

// finishEdit prints the inverse batch or the edited document.
func finishEdit(cmd *cobra.Command, path string, session *core.Session, change core.Change) error {
	logger.FromContext(cmd.Context()).V(1).Info("edit finished", logger.OperationsKey, len(change.Operations))
	if printInverse {
		inverse := change.Inverse
		if inverse == nil {
			inverse = []jsonpatch.Operation{}
		}
		data, err := jsonpatch.Encode(inverse)
		if err != nil {
			return err
		}
		return writeText(cmd.OutOrStdout(), string(data))
	}
	return writeDocument(cmd, path, session.Value(), writeInPlace)
}
