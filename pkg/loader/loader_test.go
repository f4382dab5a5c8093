package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Format
	}{
		{name: "json object", input: `{"a": 1}`, want: FormatJSON},
		{name: "json array", input: `[1, 2, 3]`, want: FormatJSON},
		{name: "pretty json", input: "{\n  \"a\": 1,\n  \"b\": [\n    2\n  ]\n}", want: FormatJSON},
		{name: "ndjson", input: "{\"a\":1}\n{\"a\":2}", want: FormatNDJSON},
		{name: "yaml", input: "name: test\nvalue: 42", want: FormatYAML},
		{name: "yaml list", input: "- a\n- b\n- c", want: FormatYAML},
		{name: "multi doc yaml", input: "---\na: 1\n---\na: 2", want: FormatYAML},
		{name: "toml section", input: "[server]\nport = 80", want: FormatTOML},
		{name: "toml keys", input: "name = \"x\"\nport = 80", want: FormatTOML},
		{name: "flow mapping that is not json", input: `{invalid}`, want: FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.input))
		})
	}
}

func TestDetectFile(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFile("conf.YML", []byte(`{"a":1}`)))
	assert.Equal(t, FormatJSON, DetectFile("data.json", []byte("a: 1")))
	assert.Equal(t, FormatTOML, DetectFile("Cargo.toml", nil))
	assert.Equal(t, FormatJSON, DetectFile("stdin", []byte("  {\"a\": 1}\n")))
	assert.Equal(t, FormatYAML, DetectFile("notes", []byte("a: 1\n")))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatAuto},
		{in: "auto", want: FormatAuto},
		{in: "JSON", want: FormatJSON},
		{in: "yml", want: FormatYAML},
		{in: "toml", want: FormatTOML},
		{in: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadJSONKeepsOrderAndNumbers(t *testing.T) {
	root, err := LoadRoot(`{"z": 1, "a": 12345678901234567890, "m": 1.50}`)
	require.NoError(t, err)

	obj, ok := jsonvalue.AsObject(root)
	require.True(t, ok)
	assert.Equal(t, []string{"z", "a", "m"}, jsonvalue.Keys(obj))
	assert.Equal(t, `{"z":1,"a":12345678901234567890,"m":1.50}`, jsonvalue.Stringify(root, ""))
}

func TestLoadJSONInvalid(t *testing.T) {
	_, err := LoadDataAs(`{"a": }`, FormatJSON)
	require.Error(t, err)
}

func TestLoadNDJSON(t *testing.T) {
	got, err := LoadData("{\"id\": 1}\nnot json\n\n[2]")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, `{"id":1}`, jsonvalue.Stringify(got[0], ""))
	assert.Equal(t, "not json", got[1])
	assert.Equal(t, `[2]`, jsonvalue.Stringify(got[2], ""))
}

func TestLoadYAML(t *testing.T) {
	t.Run("keeps document order", func(t *testing.T) {
		root, err := LoadRoot("zeta: 1\nalpha:\n  nested: true\n  list: [a, 2, null]\n")
		require.NoError(t, err)
		assert.Equal(t, `{"zeta":1,"alpha":{"nested":true,"list":["a",2,null]}}`, jsonvalue.Stringify(root, ""))
	})

	t.Run("multi document becomes an array", func(t *testing.T) {
		root, err := LoadRoot("---\na: 1\n---\na: 2\n")
		require.NoError(t, err)
		assert.Equal(t, `[{"a":1},{"a":2}]`, jsonvalue.Stringify(root, ""))
	})

	t.Run("anchors and merge keys", func(t *testing.T) {
		root, err := LoadRoot("base: &b\n  x: 1\n  y: 2\nderived:\n  <<: *b\n  y: 3\n")
		require.NoError(t, err)
		derived, ok := jsonvalue.GetIn(root, []string{"derived"})
		require.True(t, ok)
		assert.Equal(t, `{"x":1,"y":3}`, jsonvalue.Stringify(derived, ""))
	})

	t.Run("quoted scalars stay strings", func(t *testing.T) {
		root, err := LoadRoot("a: \"1\"\nb: 'true'\nc: 2.5\n")
		require.NoError(t, err)
		assert.Equal(t, `{"a":"1","b":"true","c":2.5}`, jsonvalue.Stringify(root, ""))
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := LoadDataAs("a: [1, 2", FormatYAML)
		require.Error(t, err)
	})
}

func TestLoadTOML(t *testing.T) {
	root, err := LoadRoot("title = \"demo\"\n\n[server]\nport = 8080\nhosts = [\"a\", \"b\"]\n")
	require.NoError(t, err)
	assert.Equal(t, `{"server":{"hosts":["a","b"],"port":8080},"title":"demo"}`, jsonvalue.Stringify(root, ""))
}

func TestLoadEmpty(t *testing.T) {
	_, err := LoadData("   \n ")
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"b":1,"a":2}`), 0o600))
	root, err := LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":2}`, jsonvalue.Stringify(root, ""))

	// the extension wins over sniffing: this would otherwise load as TOML
	yamlPath := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("port = 80\n"), 0o600))
	root, err = LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "port = 80", root)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`{`), 0o600))
	_, err = LoadFile(badPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.json")
}

func TestLoadReader(t *testing.T) {
	root, err := LoadReader(strings.NewReader("[true]"), FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, `[true]`, jsonvalue.Stringify(root, ""))
}

func TestYAMLSerializer(t *testing.T) {
	doc := jsonvalue.MustParse(`{"name":"x","tags":["a","true"],"n":1.5,"none":null}`)

	out, err := YAML.Stringify(doc, "  ")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "name: x\ntags:\n"))
	assert.Contains(t, out, "n: 1.5\n")
	assert.Contains(t, out, "none: null\n")

	back, err := YAML.Parse(out)
	require.NoError(t, err)
	assert.True(t, jsonvalue.Equal(doc, back))
}
