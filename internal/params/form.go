package params

import (
	"net/url"
	"strings"
)

// FormInput converts form or query-string values into validator input.
// A key given once becomes a string, a repeated key becomes a []string and
// bracketed keys such as "lfi[os]" become nested maps.
func FormInput(form url.Values) map[string]any {
	input := make(map[string]any, len(form))

	for key, vals := range form {
		var value any
		switch len(vals) {
		case 0:
			continue
		case 1:
			value = vals[0]
		default:
			value = append([]string(nil), vals...)
		}

		path := splitFormKey(key)
		if len(path) == 0 {
			continue
		}
		assign(input, path, value)
	}

	return input
}

// splitFormKey turns "a[b][c]" into ["a", "b", "c"]. A trailing "[]" is
// dropped so "ports[]" maps onto "ports".
func splitFormKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return []string{key}
	}

	path := []string{key[:open]}
	rest := key[open:]
	for strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		if part := rest[1:end]; part != "" {
			path = append(path, part)
		}
		rest = rest[end+1:]
	}

	if path[0] == "" {
		return nil
	}
	return path
}

func assign(input map[string]any, path []string, value any) {
	for _, part := range path[:len(path)-1] {
		next, ok := input[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			input[part] = next
		}
		input = next
	}

	last := path[len(path)-1]
	if existing, ok := input[last]; ok {
		input[last] = appendValue(existing, value)
		return
	}
	input[last] = value
}

func appendValue(existing, value any) any {
	var out []string
	switch v := existing.(type) {
	case string:
		out = append(out, v)
	case []string:
		out = append(out, v...)
	default:
		return value
	}

	switch v := value.(type) {
	case string:
		out = append(out, v)
	case []string:
		out = append(out, v...)
	}
	return out
}
