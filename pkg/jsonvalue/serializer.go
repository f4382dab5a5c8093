package jsonvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Serializer converts between text and the value model. Alternate parsers
// (for example ones that keep arbitrary precision numbers) implement it to
// replace the default JSON serializer.
type Serializer interface {
	Parse(text string) (any, error)
	Stringify(v any, indent string) (string, error)
}

// JSON is the default Serializer. Numbers are parsed as json.Number and
// object key order is preserved.
var JSON Serializer = jsonSerializer{}

type jsonSerializer struct{}

// ErrTrailingData is returned when text continues after the first value.
var ErrTrailingData = errors.New("unexpected data after JSON value")

func (jsonSerializer) Parse(text string) (any, error) {
	return Decode(strings.NewReader(text))
}

func (jsonSerializer) Stringify(v any, indent string) (string, error) {
	var b bytes.Buffer
	if err := Encode(&b, v, indent); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Decode reads exactly one JSON value from r.
func Decode(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid JSON: %w", ErrTrailingData)
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		obj := orderedmap.New[string, any]()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("expected object key, got %v", keyTok)
			}
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.Set(key, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

// Encode writes v as JSON text. An empty indent produces compact output.
func Encode(w io.Writer, v any, indent string) error {
	var b bytes.Buffer
	if err := encodeValue(&b, v, indent, ""); err != nil {
		return err
	}
	_, err := w.Write(b.Bytes())
	return err
}

func encodeValue(b *bytes.Buffer, v any, indent, prefix string) error {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case string:
		writeString(b, t)
	case *Object:
		if t.Len() == 0 {
			b.WriteString("{}")
			return nil
		}
		inner := prefix + indent
		b.WriteByte('{')
		first := true
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			if !first {
				b.WriteByte(',')
			}
			first = false
			newline(b, indent, inner)
			writeString(b, pair.Key)
			b.WriteByte(':')
			if indent != "" {
				b.WriteByte(' ')
			}
			if err := encodeValue(b, pair.Value, indent, inner); err != nil {
				return err
			}
		}
		newline(b, indent, prefix)
		b.WriteByte('}')
	case []any:
		if len(t) == 0 {
			b.WriteString("[]")
			return nil
		}
		inner := prefix + indent
		b.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			newline(b, indent, inner)
			if err := encodeValue(b, item, indent, inner); err != nil {
				return err
			}
		}
		newline(b, indent, prefix)
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := orderedmap.New[string, any]()
		for _, k := range keys {
			obj.Set(k, t[k])
		}
		return encodeValue(b, obj, indent, prefix)
	default:
		if s, ok := FormatNumber(v); ok {
			b.WriteString(s)
			return nil
		}
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("cannot encode %T: %w", v, err)
		}
		b.Write(data)
	}
	return nil
}

func newline(b *bytes.Buffer, indent, prefix string) {
	if indent == "" {
		return
	}
	b.WriteByte('\n')
	b.WriteString(prefix)
}

func writeString(b *bytes.Buffer, s string) {
	enc := json.NewEncoder(b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	// Encoder terminates every value with a newline.
	b.Truncate(b.Len() - 1)
}

// Stringify is a shorthand for JSON.Stringify that ignores errors for values
// that are known to be encodable.
func Stringify(v any, indent string) string {
	s, err := JSON.Stringify(v, indent)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// MustParse parses JSON text and panics on error. Intended for tests and
// literals.
func MustParse(text string) any {
	v, err := JSON.Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}
