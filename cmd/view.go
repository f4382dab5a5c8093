package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oakwood-commons/jsonstate/internal/cel"
	"github.com/oakwood-commons/jsonstate/internal/limiter"
	"github.com/oakwood-commons/jsonstate/pkg/core"
	"github.com/oakwood-commons/jsonstate/pkg/docstate"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

var (
	viewExpandDepth int
	viewExpandIf    string
	viewExpandPaths []string
	viewWidth       int
	viewLimit       limiter.Config
)

var viewCmd = &cobra.Command{
	Use:   "view [file]",
	Short: "Print the visible tree of a document",
	Long: `view prints the document the way an editor shows it: expanded containers
list their children, collapsed ones show their size, and items of large arrays
outside the visible sections are summarized.`,
	Example: `  jsonstate view data.json --expand-depth 3
  jsonstate view data.json --expand /items/0 --expand /meta
  jsonstate view data.json --expand-if 'size(_) < 10'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := viewLimit.Validate(); err != nil {
			return fmt.Errorf("record limiting: %w", err)
		}
		root, err := loadDocument(cmd, documentArg(args))
		if err != nil {
			return err
		}
		root = viewLimit.Apply(root)

		var opts []core.Option
		if cmd.Flags().Changed("expand-depth") {
			opts = append(opts, core.WithExpand(docstate.ExpandToDepth(viewExpandDepth)))
		}
		session, err := newSession(cmd, root, opts...)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if viewExpandIf != "" {
			evaluator, err := cel.NewEvaluator()
			if err != nil {
				return err
			}
			predicate, err := evaluator.ExpandPredicate(viewExpandIf, root)
			if err != nil {
				return err
			}
			session.ExpandWith(ctx, jsonpointer.Root, predicate)
		}
		for _, p := range viewExpandPaths {
			path, err := jsonpointer.Parse(p)
			if err != nil {
				return err
			}
			session.Expand(ctx, path)
		}

		snap := session.Snapshot()
		return renderView(cmd.OutOrStdout(), snap.Value, snap.State, viewOutputWidth(cmd.OutOrStdout()))
	},
}

func init() { //nolint:gochecknoinits
	viewCmd.Flags().IntVar(&viewExpandDepth, "expand-depth", 1, "expand containers shallower than this depth (default from config)")
	viewCmd.Flags().StringVar(&viewExpandIf, "expand-if", "", "CEL expression; containers for which it is true are expanded")
	viewCmd.Flags().StringArrayVar(&viewExpandPaths, "expand", nil, "JSON pointer to reveal and expand (repeatable)")
	viewCmd.Flags().IntVar(&viewWidth, "width", 0, "truncate lines to this width (default: terminal width, unlimited when piped)")
	limiterFlags(viewCmd, &viewLimit)
}

// viewOutputWidth returns the --width flag, or the terminal width when
// writing to a terminal. Zero means no truncation.
func viewOutputWidth(w io.Writer) int {
	if viewWidth > 0 {
		return viewWidth
	}
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

type viewLine struct {
	depth int
	label string
	text  string
}

// renderView writes one line per visible node. Labels at the same depth are
// padded to a common display width so values line up.
func renderView(w io.Writer, value any, s docstate.State, width int) error {
	lines := viewLines(value, s)
	labelWidth := map[int]int{}
	for _, l := range lines {
		labelWidth[l.depth] = max(labelWidth[l.depth], runewidth.StringWidth(l.label))
	}

	var b strings.Builder
	for _, l := range lines {
		line := strings.Repeat("  ", l.depth)
		if l.label != "" {
			line += runewidth.FillRight(l.label, labelWidth[l.depth]) + "  "
		}
		line += l.text
		line = strings.TrimRight(line, " ")
		if width > 0 {
			line = runewidth.Truncate(line, width, "…")
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func viewLines(value any, s docstate.State) []viewLine {
	var lines []viewLine
	var walk func(v any, n *docstate.Node, label string, depth int)
	walk = func(v any, n *docstate.Node, label string, depth int) {
		lines = append(lines, viewLine{depth: depth, label: label, text: summarize(v, n)})
		arr, isArray := v.([]any)
		next := 0
		docstate.ForEachVisibleChild(v, n, func(segment string, child any, childNode *docstate.Node) bool {
			if isArray {
				index, _ := jsonpointer.Index(segment)
				if index > next {
					lines = append(lines, hiddenLine(depth+1, next, index))
				}
				next = index + 1
			}
			walk(child, childNode, segment, depth+1)
			return true
		})
		if isArray && n.IsExpanded() && next < len(arr) {
			lines = append(lines, hiddenLine(depth+1, next, len(arr)))
		}
	}
	walk(value, s.Root, "", 0)
	return lines
}

func hiddenLine(depth, start, end int) viewLine {
	noun := "items"
	if end-start == 1 {
		noun = "item"
	}
	return viewLine{depth: depth, text: fmt.Sprintf("… %d %s hidden [%d..%d]", end-start, noun, start, end-1)}
}

// summarize renders a container as its size with an expansion marker and a
// primitive as JSON.
func summarize(v any, n *docstate.Node) string {
	marker := "▸"
	if n.IsExpanded() {
		marker = "▾"
	}
	switch t := v.(type) {
	case *jsonvalue.Object:
		return fmt.Sprintf("%s {%d}", marker, t.Len())
	case []any:
		return fmt.Sprintf("%s [%d]", marker, len(t))
	}
	return jsonvalue.Stringify(v, "")
}
