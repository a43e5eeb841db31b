package params

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Type coerces a raw input value into its typed form. A nil value with a nil
// error means the input carried no value (e.g. a list that split to nothing).
// Every Type must accept its own output so re-validation is a no-op.
type Type interface {
	Coerce(raw any) (any, error)
}

// TypeFunc adapts a function to the Type interface
type TypeFunc func(raw any) (any, error)

// Coerce calls f(raw)
func (f TypeFunc) Coerce(raw any) (any, error) {
	return f(raw)
}

var listSeparator = regexp.MustCompile(`(?:,\s*|\s+)`)

var (
	// String accepts any string value as-is
	String Type = TypeFunc(coerceString)

	// Integer accepts integers, whole JSON numbers and decimal strings
	Integer Type = TypeFunc(coerceInteger)

	// Float accepts numbers and numeric strings
	Float Type = TypeFunc(coerceFloat)

	// Bool accepts booleans and the usual form spellings (on/off, yes/no, 1/0)
	Bool Type = TypeFunc(coerceBool)

	// Args splits a string on whitespace into a list of strings
	Args Type = stringList{split: strings.Fields}

	// List splits a string on commas and/or whitespace into a list of strings
	List Type = stringList{split: splitList}

	// IntList splits a string on commas and/or whitespace into a list of integers
	IntList Type = TypeFunc(coerceIntList)

	// StringMap accepts a flat mapping of string keys to string values
	StringMap Type = TypeFunc(coerceStringMap)
)

func splitList(s string) []string {
	return listSeparator.Split(strings.TrimSpace(s), -1)
}

func coerceString(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("must be a string: %v", raw)
	}
	return s, nil
}

func coerceInteger(raw any) (any, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int(v), nil
		}
	case json.Number:
		if i, err := strconv.Atoi(v.String()); err == nil {
			return i, nil
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i, nil
		}
		return nil, fmt.Errorf("must be an integer: %q", v)
	}
	return nil, fmt.Errorf("must be an integer: %v", raw)
}

func coerceFloat(raw any) (any, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, nil
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, nil
		}
		return nil, fmt.Errorf("must be a float: %q", v)
	}
	return nil, fmt.Errorf("must be a float: %v", raw)
}

func coerceBool(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "on", "t", "true", "y", "yes":
			return true, nil
		case "0", "off", "f", "false", "n", "no":
			return false, nil
		}
		return nil, fmt.Errorf("must be a boolean: %q", v)
	}
	return nil, fmt.Errorf("must be a boolean: %v", raw)
}

type stringList struct {
	split func(string) []string
}

func (l stringList) Coerce(raw any) (any, error) {
	var items []string
	switch v := raw.(type) {
	case string:
		items = l.split(v)
	case []string:
		items = v
	case []any:
		items = make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("must be a list of strings: %v", item)
			}
			items = append(items, s)
		}
	default:
		return nil, fmt.Errorf("must be a list of strings: %v", raw)
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func coerceIntList(raw any) (any, error) {
	var items []any
	switch v := raw.(type) {
	case string:
		for _, s := range splitList(v) {
			if s != "" {
				items = append(items, s)
			}
		}
	case []int:
		if len(v) == 0 {
			return nil, nil
		}
		return append([]int(nil), v...), nil
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	case []any:
		items = v
	default:
		return nil, fmt.Errorf("must be a list of integers: %v", raw)
	}

	out := make([]int, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		i, err := coerceInteger(item)
		if err != nil {
			return nil, fmt.Errorf("must be a list of integers: %v", item)
		}
		out = append(out, i.(int))
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func coerceStringMap(raw any) (any, error) {
	out := map[string]string{}
	switch v := raw.(type) {
	case map[string]string:
		for key, value := range v {
			out[key] = value
		}
	case map[string]any:
		for key, value := range v {
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("must be a map of strings: %s=%v", key, value)
			}
			out[key] = s
		}
	case Values:
		return coerceStringMap(map[string]any(v))
	default:
		return nil, fmt.Errorf("must be a map of strings: %v", raw)
	}

	for key, value := range out {
		if strings.TrimSpace(key) == "" || strings.TrimSpace(value) == "" {
			delete(out, key)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// Enum accepts one of the given string values
func Enum(values ...string) Type {
	return enum(values)
}

type enum []string

func (e enum) Coerce(raw any) (any, error) {
	s, ok := raw.(string)
	if ok {
		for _, value := range e {
			if s == value {
				return s, nil
			}
		}
	}
	return nil, fmt.Errorf("must be one of %s: %v", strings.Join(e, ", "), quoted(raw))
}

// EnumList accepts a comma/space separated list where every item is one of values
func EnumList(values ...string) Type {
	return TypeFunc(func(raw any) (any, error) {
		items, err := List.Coerce(raw)
		if err != nil || items == nil {
			return items, err
		}
		for _, item := range items.([]string) {
			if _, err := enum(values).Coerce(item); err != nil {
				return nil, err
			}
		}
		return items, nil
	})
}

// Format accepts strings matching pattern. msg is reported with the
// offending value when it does not match.
func Format(pattern *regexp.Regexp, msg string) Type {
	return Check(func(s string) bool { return pattern.MatchString(s) }, msg)
}

// Check accepts strings for which valid returns true
func Check(valid func(string) bool, msg string) Type {
	return TypeFunc(func(raw any) (any, error) {
		s, ok := raw.(string)
		if !ok || !valid(s) {
			return nil, fmt.Errorf("%s: %v", msg, quoted(raw))
		}
		return s, nil
	})
}

// Either returns the result of the first type that accepts the value. When
// none does, the error of the last type is returned.
func Either(types ...Type) Type {
	return TypeFunc(func(raw any) (any, error) {
		var lastErr error
		for _, t := range types {
			v, err := t.Coerce(raw)
			if err == nil {
				return v, nil
			}
			lastErr = err
		}
		return nil, lastErr
	})
}

// Hash accepts a nested mapping validated by schema. Validation failures are
// returned as Errors keyed by the nested field names.
func Hash(schema *Schema) Type {
	return TypeFunc(func(raw any) (any, error) {
		var input map[string]any
		switch v := raw.(type) {
		case Values:
			input = v
		case map[string]any:
			input = v
		case map[string]string:
			input = make(map[string]any, len(v))
			for key, value := range v {
				input[key] = value
			}
		default:
			return nil, fmt.Errorf("must be a hash: %v", raw)
		}

		values, err := schema.Validate(input)
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			return nil, nil
		}
		return values, nil
	})
}

func quoted(raw any) string {
	if s, ok := raw.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprintf("%v", raw)
}
