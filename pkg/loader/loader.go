package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

// Format names an input encoding.
type Format string

const (
	FormatAuto   Format = "auto"
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
	FormatTOML   Format = "toml"
	FormatJWT    Format = "jwt"
)

// ParseFormat resolves a format name; the empty string means auto detection.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatJSON, FormatNDJSON, FormatYAML, FormatTOML, FormatJWT:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown input format %q", name)
	}
}

// ErrEmptyInput is returned when there is nothing to parse.
var ErrEmptyInput = errors.New("empty input")

// LoadData loads structured data from a string, auto-detecting format.
// Supports:
// - JWT tokens (3-part base64url-encoded tokens)
// - Single JSON object/array
// - Newline-delimited JSON (NDJSON): one JSON value per line
// - YAML: single document or multi-document (separated by ---)
// - TOML
//
// Every document comes back in the jsonvalue model: objects keep the key
// order of the source and numbers are json.Number.
func LoadData(input string) ([]any, error) {
	return LoadDataAs(input, FormatAuto)
}

// LoadDataAs loads input in the given format. FormatAuto detects it.
func LoadDataAs(input string, format Format) ([]any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}
	if format == FormatAuto {
		format = Detect(input)
	}

	switch format {
	case FormatJWT:
		return loadJWT(input)
	case FormatNDJSON:
		return loadNDJSON(input)
	case FormatTOML:
		return loadTOML(input)
	case FormatJSON:
		return loadJSON(input)
	case FormatYAML:
		return loadYAML(input)
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
}

// Detect guesses the format of trimmed input.
func Detect(input string) Format {
	if IsJWT(input) {
		return FormatJWT
	}
	// Multi-document YAML first (most restrictive)
	if strings.Contains(input, "\n---") || strings.HasPrefix(input, "---") {
		return FormatYAML
	}
	if lines := strings.Split(input, "\n"); len(lines) > 1 && isLikelyNDJSON(lines) {
		if _, err := jsonvalue.JSON.Parse(input); err != nil {
			return FormatNDJSON
		}
	}
	// TOML [section] headers look like JSON arrays but are distinct
	// (e.g., "[server]" vs "[1, 2, 3]")
	if isLikelyTOML(input) {
		return FormatTOML
	}
	if strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[") {
		if _, err := jsonvalue.JSON.Parse(input); err == nil {
			return FormatJSON
		}
	}
	return FormatYAML
}

// LoadRoot parses input into a single root value. Multi-document inputs are
// returned as an array.
func LoadRoot(input string) (any, error) {
	return LoadRootAs(input, FormatAuto)
}

// LoadRootAs is LoadRoot with an explicit format.
func LoadRootAs(input string, format Format) (any, error) {
	results, err := LoadDataAs(input, format)
	if err != nil {
		return nil, err
	}
	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

// LoadRootBytes parses input bytes into a single root value.
func LoadRootBytes(data []byte) (any, error) {
	return LoadRoot(string(data))
}

// LoadFile reads a file and parses it into a single root value.
func LoadFile(path string) (any, error) {
	return LoadFileAs(path, FormatAuto)
}

// LoadFileAs reads a file in the given format. With FormatAuto the file
// extension wins over content sniffing.
func LoadFileAs(path string, format Format) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if format == FormatAuto {
		format = formatFromExtension(path)
	}
	root, err := LoadRootAs(string(data), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}

// LoadReader reads r to the end and parses it.
func LoadReader(r io.Reader, format Format) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return LoadRootAs(string(data), format)
}

// DetectFile guesses the format of a file from its extension, falling back to
// the content.
func DetectFile(path string, data []byte) Format {
	if f := formatFromExtension(path); f != FormatAuto {
		return f
	}
	return Detect(strings.TrimSpace(string(data)))
}

func formatFromExtension(path string) Format {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON
	case strings.HasSuffix(lower, ".ndjson"), strings.HasSuffix(lower, ".jsonl"):
		return FormatNDJSON
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return FormatYAML
	case strings.HasSuffix(lower, ".toml"):
		return FormatTOML
	default:
		return FormatAuto
	}
}

// LoadObject accepts an already parsed Go value (maps, slices, structs,
// etc.) and converts it into the jsonvalue model. Strings and byte slices
// are parsed using format detection.
func LoadObject(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, fmt.Errorf("object input is nil")
	case string:
		return LoadRoot(v)
	case []byte:
		return LoadRootBytes(v)
	default:
		return normalize(value)
	}
}

// loadJSON parses a single JSON object or array and wraps it in []any
func loadJSON(input string) ([]any, error) {
	data, err := jsonvalue.JSON.Parse(input)
	if err != nil {
		return nil, err
	}
	return []any{data}, nil
}

// loadNDJSON parses newline-delimited JSON. Lines that are not valid JSON
// are kept as plain strings.
func loadNDJSON(input string) ([]any, error) {
	lines := strings.Split(input, "\n")
	results := make([]any, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		obj, err := jsonvalue.JSON.Parse(line)
		if err != nil {
			results = append(results, line)
			continue
		}
		results = append(results, obj)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("no data found in input")
	}
	return results, nil
}

// isLikelyNDJSON heuristic: a majority of non-empty lines must start with
// '{' or '['. YAML lists ("- name") therefore never qualify.
func isLikelyNDJSON(lines []string) bool {
	jsonCount := 0
	nonEmptyCount := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmptyCount++
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonCount++
		}
	}

	return nonEmptyCount > 1 && jsonCount > nonEmptyCount/2
}

var (
	// [server], [[items]], ["table name"], [database.credentials]
	tomlSectionPattern = regexp.MustCompile(`^\s*\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	// name = "value", database.host = "localhost"
	tomlKeyValuePattern = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

// isLikelyTOML reports whether input has TOML section headers or mostly
// key = value lines.
func isLikelyTOML(input string) bool {
	sectionCount := 0
	keyValueCount := 0
	nonEmptyCount := 0

	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmptyCount++
		if tomlSectionPattern.MatchString(line) {
			sectionCount++
		}
		if tomlKeyValuePattern.MatchString(line) {
			keyValueCount++
		}
	}

	if sectionCount > 0 {
		return true
	}
	return nonEmptyCount > 0 && keyValueCount > nonEmptyCount/2
}

// loadTOML decodes TOML. The decoder yields plain maps, so table keys come
// back sorted rather than in document order.
func loadTOML(input string) ([]any, error) {
	var data any
	if err := toml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	return []any{jsonvalue.FromGo(data)}, nil
}
