package selection

import (
	"strings"

	"github.com/oakwood-commons/jsonstate/pkg/docstate"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

// ToPartialJSON renders sel as clipboard text. A key selection yields the
// bare key, a value selection the serialized value (strings unquoted). A
// range of array items yields each item followed by a comma, unless it is a
// single item; a range of properties yields `"key": value,` lines. Structural
// carets render as "".
func ToPartialJSON(value any, s docstate.State, sel *Selection, indent string, serializer jsonvalue.Serializer) (string, error) {
	if sel == nil {
		return "", nil
	}
	if serializer == nil {
		serializer = jsonvalue.JSON
	}

	switch sel.Type {
	case TypeKey:
		return sel.FocusPath.Last(), nil
	case TypeValue:
		v, ok := jsonvalue.GetIn(value, sel.FocusPath)
		if !ok {
			return "", nil
		}
		if str, isString := v.(string); isString {
			return str, nil
		}
		return serializer.Stringify(v, indent)
	case TypeMulti:
		return multiToPartialJSON(value, s, sel, indent, serializer)
	}
	return "", nil
}

func multiToPartialJSON(value any, s docstate.State, sel *Selection, indent string, serializer jsonvalue.Serializer) (string, error) {
	paths := Paths(value, s, sel)
	if len(paths) == 0 {
		return "", nil
	}
	if len(paths) == 1 && paths[0].IsRoot() {
		return serializer.Stringify(value, indent)
	}

	parent, _ := jsonvalue.GetIn(value, paths[0].Parent())
	isArray := jsonvalue.IsArray(parent)
	if isArray && len(paths) == 1 {
		v, _ := jsonvalue.GetIn(value, paths[0])
		return serializer.Stringify(v, indent)
	}

	lines := make([]string, 0, len(paths))
	for _, path := range paths {
		v, _ := jsonvalue.GetIn(value, path)
		text, err := serializer.Stringify(v, indent)
		if err != nil {
			return "", err
		}
		if isArray {
			lines = append(lines, text+",")
			continue
		}
		key, err := serializer.Stringify(path.Last(), "")
		if err != nil {
			return "", err
		}
		lines = append(lines, key+": "+text+",")
	}
	return strings.Join(lines, "\n"), nil
}
