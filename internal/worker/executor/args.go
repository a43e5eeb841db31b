package executor

import (
	"strconv"
	"strings"

	"github.com/cuongbtq/scanhub/internal/params"
)

// argv accumulates command line arguments from validated params
type argv struct {
	values params.Values
	args   []string
}

func newArgv(values params.Values) *argv {
	return &argv{values: values}
}

func (a *argv) add(args ...string) *argv {
	a.args = append(a.args, args...)
	return a
}

// flag appends flag when key is true
func (a *argv) flag(key, flag string) *argv {
	if on, _ := a.values.Bool(key); on {
		a.args = append(a.args, flag)
	}
	return a
}

// option appends flag followed by the value of key, when present
func (a *argv) option(key, flag string) *argv {
	if s, ok := scalar(a.values[key]); ok {
		a.args = append(a.args, flag, s)
	}
	return a
}

// list appends flag followed by the comma joined values of key, when present
func (a *argv) list(key, flag string) *argv {
	if items, ok := a.values.Strings(key); ok && len(items) > 0 {
		a.args = append(a.args, flag, strings.Join(items, ","))
	}
	return a
}

// repeat appends flag once per value of key
func (a *argv) repeat(key, flag string) *argv {
	items, _ := a.values.Strings(key)
	for _, item := range items {
		a.args = append(a.args, flag, item)
	}
	return a
}

// attached appends flag alone when key is true, or flag+value (no space)
// when key holds a string, as nmap's -PS80,443 style options expect
func (a *argv) attached(key, flag string) *argv {
	switch v := a.values[key].(type) {
	case bool:
		if v {
			a.args = append(a.args, flag)
		}
	case string:
		a.args = append(a.args, flag+v)
	}
	return a
}

func scalar(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case int:
		return strconv.Itoa(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}
