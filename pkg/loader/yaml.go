package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

// loadYAML parses one or more YAML documents (separated by ---). Mapping
// order is taken from the node tree, so keys keep their document order.
func loadYAML(input string) ([]any, error) {
	var results []any
	decoder := yaml.NewDecoder(strings.NewReader(input))

	for {
		var doc yaml.Node
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		value, err := fromYAMLNode(&doc)
		if err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		if value != nil {
			results = append(results, value)
		}
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("no documents found in YAML")
	}
	return results, nil
}

func fromYAMLNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromYAMLNode(n.Content[0])
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias)
	case yaml.MappingNode:
		obj := jsonvalue.NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valueNode := n.Content[i], n.Content[i+1]
			// <<: *anchor merges the aliased mapping
			if keyNode.ShortTag() == "!!merge" {
				merged, err := fromYAMLNode(valueNode)
				if err != nil {
					return nil, err
				}
				if m, ok := jsonvalue.AsObject(merged); ok {
					for pair := m.Oldest(); pair != nil; pair = pair.Next() {
						if _, exists := obj.Get(pair.Key); !exists {
							obj.Set(pair.Key, pair.Value)
						}
					}
				}
				continue
			}
			value, err := fromYAMLNode(valueNode)
			if err != nil {
				return nil, err
			}
			obj.Set(keyNode.Value, value)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			value, err := fromYAMLNode(item)
			if err != nil {
				return nil, err
			}
			arr = append(arr, value)
		}
		return arr, nil
	case yaml.ScalarNode:
		return fromYAMLScalar(n)
	default:
		return nil, fmt.Errorf("unsupported YAML node kind %d", n.Kind)
	}
}

func fromYAMLScalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			// out of int64 range, keep the literal
			return n.Value, nil
		}
		return json.Number(strconv.FormatInt(i, 10)), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		// .inf and .nan have no JSON spelling
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return n.Value, nil
		}
		s, _ := jsonvalue.FormatNumber(f)
		return json.Number(s), nil
	default:
		return n.Value, nil
	}
}

// YAML renders and parses the value model as YAML. It satisfies
// jsonvalue.Serializer so the engine can copy selections as YAML.
var YAML jsonvalue.Serializer = yamlSerializer{}

type yamlSerializer struct{}

func (yamlSerializer) Parse(text string) (any, error) {
	return LoadRootAs(text, FormatYAML)
}

// Stringify writes v as a YAML document. The indent width is the length of
// indent, with a minimum of two spaces.
func (yamlSerializer) Stringify(v any, indent string) (string, error) {
	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	width := len(indent)
	if width < 2 {
		width = 2
	}
	enc.SetIndent(width)
	if err := enc.Encode(toYAMLNode(v)); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return b.String(), nil
}

func toYAMLNode(v any) *yaml.Node {
	switch t := v.(type) {
	case *jsonvalue.Object:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pair.Key},
				toYAMLNode(pair.Value))
		}
		return n
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range t {
			n.Content = append(n.Content, toYAMLNode(item))
		}
		return n
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(t)}
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t}
	}
	if s, ok := jsonvalue.FormatNumber(v); ok {
		tag := "!!float"
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: s}
	}
	switch v.(type) {
	case map[string]any, []map[string]any, []string:
		return toYAMLNode(jsonvalue.FromGo(v))
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fmt.Sprint(v)}
}
