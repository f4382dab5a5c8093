package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oakwood-commons/jsonstate/internal/cel"
	"github.com/oakwood-commons/jsonstate/internal/config"
	"github.com/oakwood-commons/jsonstate/internal/limiter"
	"github.com/oakwood-commons/jsonstate/pkg/core"
	"github.com/oakwood-commons/jsonstate/pkg/docstate"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
	"github.com/oakwood-commons/jsonstate/pkg/loader"
	"github.com/oakwood-commons/jsonstate/pkg/logger"
	"github.com/oakwood-commons/jsonstate/pkg/settings"
)

var (
	configFile   string
	logLevel     string
	indent       string
	outputFormat string
	inputFormat  string
	quiet        bool
	decodeNested bool

	// activeConfig is the merged configuration of the running command.
	activeConfig config.File
)

var rootCmd = &cobra.Command{
	Use:   settings.CliBinaryName,
	Short: "Inspect and edit JSON documents with a persistent document state",
	Long: `jsonstate loads a JSON, NDJSON, YAML, TOML or JWT document and runs one
engine operation on it: view the visible tree, apply a JSON patch, search and
replace, sort, query with CEL, extract a selection or validate.

A document is read from the file argument, or from standard input when the
argument is missing or "-".`,
	Example: `  jsonstate view data.json --expand-depth 2
  jsonstate patch data.json --ops '[{"op":"remove","path":"/items/0"}]'
  jsonstate search data.json tea --limit 5
  cat data.json | jsonstate query - '_.items.map(i, i.name)'`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadMergedConfig(resolveConfigPath(configFile))
		if err != nil {
			return err
		}
		run, err := runSettings(cmd.Flags(), cfg)
		if err != nil {
			return err
		}
		activeConfig = cfg

		lgr := logger.Get(run.MinLogLevel)
		lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = logger.WithLogger(ctx, lgr)
		cmd.SetContext(settings.IntoContext(ctx, run))
		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func init() { //nolint:gochecknoinits
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "path to a YAML config file merged over the defaults")
	flags.StringVar(&logLevel, "log-level", "", "minimum log level: debug|info|warn|error (default from config)")
	flags.StringVar(&indent, "indent", "", "indentation of printed documents (default from config)")
	flags.StringVarP(&outputFormat, "output", "o", "", "output format: json|yaml (default from config)")
	flags.StringVarP(&inputFormat, "format", "f", "", "input format: auto|json|ndjson|yaml|toml|jwt (default from config)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "print results only, without summaries")
	flags.BoolVar(&decodeNested, "decode", false, "decode JSON, YAML and JWT documents held in string values")

	rootCmd.Version = cliVersionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(
		viewCmd,
		patchCmd,
		searchCmd,
		replaceCmd,
		queryCmd,
		transformCmd,
		selectCmd,
		sortCmd,
		validateCmd,
		configCmd,
		versionCmd,
	)
}

// Execute runs the root command with a background context.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command; cancelling ctx stops long searches.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// runSettings resolves the per-run settings: configuration first, then
// flags the user set explicitly.
func runSettings(flags *pflag.FlagSet, cfg config.File) (*settings.Run, error) {
	run := settings.NewCliParams()

	level := cfg.Log.Level
	if flags.Changed("log-level") {
		level = logLevel
	}
	minLevel, err := logger.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	run.MinLogLevel = minLevel

	run.Input.Format = cfg.Input.Format
	if flags.Changed("format") {
		run.Input.Format = inputFormat
	}
	if _, err := loader.ParseFormat(run.Input.Format); err != nil {
		return nil, err
	}

	if cfg.Output.Format != "" {
		run.Output = cfg.Output.Format
	}
	if flags.Changed("output") {
		run.Output = outputFormat
	}
	run.Output = strings.ToLower(strings.TrimSpace(run.Output))
	if run.Output != "json" && run.Output != "yaml" {
		return nil, fmt.Errorf("invalid output format %q (expected json or yaml)", run.Output)
	}

	if cfg.Output.Indentation != nil {
		run.Indent = *cfg.Output.Indentation
	}
	if flags.Changed("indent") {
		run.Indent = indent
	}
	if cfg.View.ExpandDepth != nil {
		run.ExpandDepth = *cfg.View.ExpandDepth
	}
	if cfg.Search.MaxResults != nil {
		run.MaxResults = *cfg.Search.MaxResults
	}
	if cfg.Search.BatchSize != nil {
		run.BatchSize = *cfg.Search.BatchSize
	}
	run.IsQuiet = quiet
	return run, nil
}

// resolveConfigPath returns the explicit config path if set, otherwise the XDG
// path ($XDG_CONFIG_HOME/jsonstate/config.yaml) or
// ~/.config/jsonstate/config.yaml if present.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	xdg := os.Getenv("XDG_CONFIG_HOME")
	candidate := ""
	if xdg != "" {
		candidate = filepath.Join(xdg, settings.CliBinaryName, "config.yaml")
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate = filepath.Join(home, ".config", settings.CliBinaryName, "config.yaml")
	}
	if candidate != "" {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}

// loadDocument reads the document named by path, or standard input for ""
// and "-".
func loadDocument(cmd *cobra.Command, path string) (any, error) {
	run := settings.FromContextOrDefault(cmd.Context())
	run.Input.Path = path
	format, err := loader.ParseFormat(run.Input.Format)
	if err != nil {
		return nil, err
	}
	var root any
	if run.Input.FromStdin() {
		root, err = loader.LoadReader(cmd.InOrStdin(), format)
	} else {
		root, err = loader.LoadFileAs(path, format)
	}
	if err != nil {
		return nil, err
	}
	if decodeNested {
		root = loader.RecursiveDecode(root)
	}
	return root, nil
}

func documentArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func serializerFor(run *settings.Run) jsonvalue.Serializer {
	if run.Output == "yaml" {
		return loader.YAML
	}
	return jsonvalue.JSON
}

// newSession opens a session configured from the run settings: CEL for
// queries, configured validation rules and the initial expansion depth.
func newSession(cmd *cobra.Command, root any, opts ...core.Option) (*core.Session, error) {
	ctx := cmd.Context()
	run := settings.FromContextOrDefault(ctx)

	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return nil, err
	}
	rules, err := evaluator.Validator(activeConfig.Validation.Rules)
	if err != nil {
		return nil, fmt.Errorf("validation rules: %w", err)
	}

	base := []core.Option{
		core.WithEvaluator(evaluator),
		core.WithSerializer(serializerFor(run)),
		core.WithValidators(rules),
		core.WithExpand(docstate.ExpandToDepth(run.ExpandDepth)),
		core.WithMaxResults(run.MaxResults),
		core.WithBatchSize(run.BatchSize),
		core.WithLogger(logger.FromContext(ctx)),
	}
	return core.New(root, append(base, opts...)...), nil
}

// writeValue prints v with the configured serializer and indentation.
func writeValue(cmd *cobra.Command, v any) error {
	run := settings.FromContextOrDefault(cmd.Context())
	text, err := serializerFor(run).Stringify(v, run.Indent)
	if err != nil {
		return err
	}
	return writeText(cmd.OutOrStdout(), text)
}

func writeText(w io.Writer, text string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(w, text)
	return err
}

// writeDocument prints the edited document, or writes it back to the input
// file when --write is set. The file keeps its permissions and, unless
// --output is given, its format.
func writeDocument(cmd *cobra.Command, path string, v any, inPlace bool) error {
	if !inPlace {
		return writeValue(cmd, v)
	}
	if path == "" || path == "-" {
		return fmt.Errorf("--write needs a file argument")
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	run := settings.FromContextOrDefault(cmd.Context())
	serializer, err := fileSerializer(cmd, run, path)
	if err != nil {
		return err
	}
	text, err := serializer.Stringify(v, run.Indent)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if err := os.WriteFile(path, []byte(text), info.Mode().Perm()); err != nil {
		return err
	}
	logger.FromContext(cmd.Context()).V(1).Info("document written", logger.DocumentKey, path)
	return nil
}

// fileSerializer picks the serializer for rewriting path: --output when set,
// otherwise the format the file was read in.
func fileSerializer(cmd *cobra.Command, run *settings.Run, path string) (jsonvalue.Serializer, error) {
	if cmd.Flags().Changed("output") {
		return serializerFor(run), nil
	}
	format, err := loader.ParseFormat(run.Input.Format)
	if err != nil {
		return nil, err
	}
	if format == loader.FormatAuto {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		format = loader.DetectFile(path, data)
	}
	switch format {
	case loader.FormatJSON:
		return jsonvalue.JSON, nil
	case loader.FormatYAML:
		return loader.YAML, nil
	default:
		return nil, fmt.Errorf("cannot write %s documents; pass --output json or --output yaml", format)
	}
}

// limiterFlags registers --limit, --offset and --tail on cmd.
func limiterFlags(cmd *cobra.Command, cfg *limiter.Config) {
	cmd.Flags().IntVar(&cfg.Limit, "limit", 0, "limit the number of records displayed")
	cmd.Flags().IntVar(&cfg.Offset, "offset", 0, "skip the first N records")
	cmd.Flags().IntVar(&cfg.Tail, "tail", 0, "show the last N records (mutually exclusive with --limit; ignores --offset)")
}
