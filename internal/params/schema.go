package params

import (
	"errors"
	"strings"
)

// Field declares one accepted input key
type Field struct {
	Name     string
	Required bool
	Type     Type
}

// Required declares a field that must be present and non-empty
func Required(name string, t Type) Field {
	return Field{Name: name, Required: true, Type: t}
}

// Optional declares a field that may be omitted. An empty value is treated
// as omitted.
func Optional(name string, t Type) Field {
	return Field{Name: name, Type: t}
}

// Rule is a check that runs after per-field coercion. It only runs when Key
// is present in the coerced values and neither Key nor any of Requires has
// failed coercion. A non-empty message returned by Check is reported on Key.
type Rule struct {
	Key      string
	Requires []string
	Check    func(v Values) string
}

// Schema is a static declaration of the fields accepted by one job kind.
// Schemas are built once at init time and never mutated.
type Schema struct {
	Fields []Field
	Rules  []Rule
}

// NewSchema builds a schema from its fields
func NewSchema(fields ...Field) *Schema {
	return &Schema{Fields: fields}
}

// WithRules appends cross-field rules and returns the schema
func (s *Schema) WithRules(rules ...Rule) *Schema {
	s.Rules = append(s.Rules, rules...)
	return s
}

// Field looks up a declared field by name
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Validate applies the schema to untrusted input. It returns either the
// coerced values (only present fields retained) or Errors, never both.
// Unknown input keys are ignored.
func (s *Schema) Validate(input map[string]any) (Values, error) {
	errs := Errors{}
	values := Values{}

	for _, field := range s.Fields {
		raw, ok := input[field.Name]
		if !ok || isBlank(raw) {
			if field.Required {
				errs.Add(field.Name, MsgMissing)
			}
			continue
		}

		value, err := field.Type.Coerce(raw)
		if err != nil {
			var nested Errors
			if errors.As(err, &nested) {
				errs.merge(field.Name, nested)
			} else {
				errs.Add(field.Name, err.Error())
			}
			continue
		}

		if value == nil {
			if field.Required {
				errs.Add(field.Name, MsgMissing)
			}
			continue
		}

		values[field.Name] = value
	}

	for _, rule := range s.Rules {
		if _, ok := values[rule.Key]; !ok || errs.Has(rule.Key) {
			continue
		}
		if !requiresValid(rule.Requires, values, errs) {
			continue
		}
		if msg := rule.Check(values); msg != "" {
			errs.Add(rule.Key, msg)
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return values, nil
}

func requiresValid(keys []string, values Values, errs Errors) bool {
	for _, key := range keys {
		if _, ok := values[key]; !ok || errs.Has(key) {
			return false
		}
	}
	return true
}

func isBlank(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case []int:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	case map[string]string:
		return len(v) == 0
	case Values:
		return len(v) == 0
	}
	return false
}
