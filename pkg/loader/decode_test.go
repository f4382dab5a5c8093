package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

func TestTryDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "json object", input: `{"name":"alice","age":30}`, want: `{"name":"alice","age":30}`, ok: true},
		{name: "json array", input: `[1,2,3]`, want: `[1,2,3]`, ok: true},
		{name: "yaml mapping", input: "name: bob\nage: 25\n", want: `{"name":"bob","age":25}`, ok: true},
		{name: "plain string", input: "hello world", ok: false},
		{name: "number", input: "42", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, ok := TryDecode(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, jsonvalue.Stringify(decoded, ""))
			}
		})
	}
}

func TestRecursiveDecode(t *testing.T) {
	doc := jsonvalue.MustParse(`{"outer":"{\"inner\":\"[1,2]\"}","plain":"text","n":1}`)

	decoded := RecursiveDecode(doc)

	assert.Equal(t, `{"outer":{"inner":[1,2]},"plain":"text","n":1}`, jsonvalue.Stringify(decoded, ""))
	// the input is left alone
	assert.Equal(t, `{"outer":"{\"inner\":\"[1,2]\"}","plain":"text","n":1}`, jsonvalue.Stringify(doc, ""))
}

func TestLoadObject(t *testing.T) {
	type person struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	t.Run("struct goes through json tags", func(t *testing.T) {
		got, err := LoadObject(person{Name: "ann", Age: 3})
		require.NoError(t, err)
		assert.Equal(t, `{"name":"ann","age":3}`, jsonvalue.Stringify(got, ""))
	})

	t.Run("plain map gets sorted keys", func(t *testing.T) {
		got, err := LoadObject(map[string]any{"b": 1, "a": []any{true}})
		require.NoError(t, err)
		assert.Equal(t, `{"a":[true],"b":1}`, jsonvalue.Stringify(got, ""))
	})

	t.Run("string is parsed", func(t *testing.T) {
		got, err := LoadObject(`{"x":null}`)
		require.NoError(t, err)
		assert.Equal(t, `{"x":null}`, jsonvalue.Stringify(got, ""))
	})

	t.Run("nil is rejected", func(t *testing.T) {
		_, err := LoadObject(nil)
		require.Error(t, err)
	})
}
