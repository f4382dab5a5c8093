// Package settings provides build metadata, per-run options, and context
// helpers shared by the jsonstate CLI and library packages.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "jsonstate"

// VersionInformation is populated at build time via ldflags and holds the
// commit hash, semantic version, and build timestamp of the running binary.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build, including the commit hash,
// build version, and build timestamp.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Input describes where the document of a run comes from.
type Input struct {
	// Path of the document; "" or "-" reads standard input.
	Path string
	// Format forces a loader format (json, ndjson, yaml, toml); "" detects it.
	Format string
}

// FromStdin reports whether the document is read from standard input.
func (i Input) FromStdin() bool {
	return i.Path == "" || i.Path == "-"
}

// Run holds the settings of a single execution: logging, input, output
// formatting and the engine limits taken from configuration.
type Run struct {
	MinLogLevel int8
	Input       Input
	// Output is the serializer for printed documents: json or yaml.
	Output      string
	Indent      string
	MaxResults  int
	BatchSize   int
	ExpandDepth int
	IsQuiet     bool
}

// NewCliParams returns the defaults used by the CLI before configuration and
// flags are applied.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		Output:      "json",
		Indent:      "  ",
		MaxResults:  1000,
		BatchSize:   1000,
		ExpandDepth: 1,
		IsQuiet:     false,
	}
}
