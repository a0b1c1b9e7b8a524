package hookexecutor

import (
	"encoding/json"
	"strconv"
	"strings"
)

// expandVariables replaces every "${name}" occurrence in text with the
// stringified value of variables["name"]. Scalars are rendered directly;
// objects and arrays fall back to compact JSON. A name absent from
// variables is left untouched, matching the original's simple
// string-replace expansion (no escaping, no nested expressions).
func expandVariables(text string, variables map[string]interface{}) (string, error) {
	result := text
	for name, value := range variables {
		placeholder := "${" + name + "}"
		if !strings.Contains(result, placeholder) {
			continue
		}

		replacement, err := stringifyVariable(value)
		if err != nil {
			return "", err
		}
		result = strings.ReplaceAll(result, placeholder, replacement)
	}
	return result, nil
}

func stringifyVariable(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case nil:
		return "", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
