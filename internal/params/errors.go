package params

import (
	"sort"
	"strings"
)

// MsgMissing is reported for a required field that is absent or empty
const MsgMissing = "is missing"

// Errors maps a field name to its validation messages. Nested fields are
// keyed with dotted paths (e.g. "lfi.depth").
type Errors map[string][]string

// Add appends a message for the given field
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Has reports whether the field has at least one message
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// Fields returns the failing field names in sorted order
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

func (e Errors) merge(prefix string, other Errors) {
	for field, msgs := range other {
		for _, msg := range msgs {
			e.Add(prefix+"."+field, msg)
		}
	}
}

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, field := range e.Fields() {
		parts = append(parts, field+" "+strings.Join(e[field], ", "))
	}
	return "invalid params: " + strings.Join(parts, "; ")
}
