package params

// Values holds a validated parameter set. Values only ever contains fields
// that were present in the input; lookups of absent fields report ok=false.
type Values map[string]any

// Has reports whether key was provided
func (v Values) Has(key string) bool {
	_, ok := v[key]
	return ok
}

// String returns a string value
func (v Values) String(key string) (string, bool) {
	s, ok := v[key].(string)
	return s, ok
}

// Int returns an integer value
func (v Values) Int(key string) (int, bool) {
	i, ok := v[key].(int)
	return i, ok
}

// Float returns a float value
func (v Values) Float(key string) (float64, bool) {
	f, ok := v[key].(float64)
	return f, ok
}

// Bool returns a boolean value
func (v Values) Bool(key string) (bool, bool) {
	b, ok := v[key].(bool)
	return b, ok
}

// Strings returns a list of strings
func (v Values) Strings(key string) ([]string, bool) {
	s, ok := v[key].([]string)
	return s, ok
}

// Ints returns a list of integers
func (v Values) Ints(key string) ([]int, bool) {
	i, ok := v[key].([]int)
	return i, ok
}

// Hash returns a nested value set
func (v Values) Hash(key string) (Values, bool) {
	h, ok := v[key].(Values)
	return h, ok
}

// StringMap returns a flat string mapping
func (v Values) StringMap(key string) (map[string]string, bool) {
	m, ok := v[key].(map[string]string)
	return m, ok
}

// Without returns a copy of v with the given keys removed
func (v Values) Without(keys ...string) Values {
	out := make(Values, len(v))
	for key, value := range v {
		out[key] = value
	}
	for _, key := range keys {
		delete(out, key)
	}
	return out
}
