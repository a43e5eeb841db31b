package params

import (
	"encoding/json"
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPortList = regexp.MustCompile(`\A\d+(?:-\d+)?(?:,\d+(?:-\d+)?)*\z`)

func testSchema() *Schema {
	return NewSchema(
		Required("targets", Args),
		Optional("ports", Format(testPortList, "invalid port list")),
		Optional("ratio", Float),
		Optional("retries", Integer),
		Optional("ping", Bool),
		Optional("mode", Enum("fast", "slow")),
		Optional("exclude", List),
		Optional("open", IntList),
		Optional("discovery", Either(Bool, Format(testPortList, "invalid port list"))),
		Optional("ssl", Hash(NewSchema(
			Optional("timeout", Integer),
			Optional("verify", Bool),
		))),
	).WithRules(Rule{
		Key: "ratio",
		Check: func(v Values) string {
			if r, _ := v.Float("ratio"); r < 0 || r > 1 {
				return "value must be between 0.0 and 1.0"
			}
			return ""
		},
	})
}

func TestSchema_Validate(t *testing.T) {
	tests := []struct {
		name       string
		input      map[string]any
		wantValues Values
		wantErrs   Errors
	}{
		{
			name:       "space separated targets",
			input:      map[string]any{"targets": "192.168.1.1 192.168.1.2"},
			wantValues: Values{"targets": []string{"192.168.1.1", "192.168.1.2"}},
		},
		{
			name:     "missing required field",
			input:    map[string]any{"ports": "80"},
			wantErrs: Errors{"targets": {MsgMissing}},
		},
		{
			name:     "blank required field",
			input:    map[string]any{"targets": "   "},
			wantErrs: Errors{"targets": {MsgMissing}},
		},
		{
			name:       "empty optional fields are absent",
			input:      map[string]any{"targets": "a", "ports": "", "ratio": "", "ping": "", "exclude": " , "},
			wantValues: Values{"targets": []string{"a"}},
		},
		{
			name:       "unknown fields ignored",
			input:      map[string]any{"targets": "a", "bogus": "x"},
			wantValues: Values{"targets": []string{"a"}},
		},
		{
			name:     "malformed port list",
			input:    map[string]any{"targets": "a", "ports": "1,2,,,3"},
			wantErrs: Errors{"ports": {`invalid port list: "1,2,,,3"`}},
		},
		{
			name:       "well formed port list",
			input:      map[string]any{"targets": "a", "ports": "1,2,3,4-10"},
			wantValues: Values{"targets": []string{"a"}, "ports": "1,2,3,4-10"},
		},
		{
			name:     "integer coercion failure names the value",
			input:    map[string]any{"targets": "a", "retries": "abc"},
			wantErrs: Errors{"retries": {`must be an integer: "abc"`}},
		},
		{
			name:     "enum rejects unknown value",
			input:    map[string]any{"targets": "a", "mode": "medium"},
			wantErrs: Errors{"mode": {`must be one of fast, slow: "medium"`}},
		},
		{
			name:     "rule rejects out of range ratio",
			input:    map[string]any{"targets": "a", "ratio": "1.5"},
			wantErrs: Errors{"ratio": {"value must be between 0.0 and 1.0"}},
		},
		{
			name:       "either prefers bool",
			input:      map[string]any{"targets": "a", "discovery": "true"},
			wantValues: Values{"targets": []string{"a"}, "discovery": true},
		},
		{
			name:       "either falls back to port list",
			input:      map[string]any{"targets": "a", "discovery": "22,80"},
			wantValues: Values{"targets": []string{"a"}, "discovery": "22,80"},
		},
		{
			name:       "nested hash drops empty values",
			input:      map[string]any{"targets": "a", "ssl": map[string]any{"timeout": "10", "verify": ""}},
			wantValues: Values{"targets": []string{"a"}, "ssl": Values{"timeout": 10}},
		},
		{
			name:       "nested hash with no values is absent",
			input:      map[string]any{"targets": "a", "ssl": map[string]any{"timeout": ""}},
			wantValues: Values{"targets": []string{"a"}},
		},
		{
			name:     "nested errors use dotted names",
			input:    map[string]any{"targets": "a", "ssl": map[string]any{"timeout": "soon"}},
			wantErrs: Errors{"ssl.timeout": {`must be an integer: "soon"`}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := testSchema().Validate(tt.input)

			if tt.wantErrs != nil {
				require.Error(t, err)
				assert.Nil(t, values)

				var errs Errors
				require.ErrorAs(t, err, &errs)
				assert.Equal(t, tt.wantErrs, errs)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantValues, values)
			}
		})
	}
}

func TestSchema_Validate_IntList(t *testing.T) {
	schema := testSchema()

	inputs := []any{
		"80,443",
		"80, 443",
		"80 443",
		[]string{"80", "443"},
		[]any{"80", "443"},
		[]any{float64(80), float64(443)},
		[]int{80, 443},
	}

	for _, input := range inputs {
		values, err := schema.Validate(map[string]any{"targets": "a", "open": input})
		require.NoError(t, err, "input %#v", input)

		ports, ok := values.Ints("open")
		require.True(t, ok)
		assert.Equal(t, []int{80, 443}, ports, "input %#v", input)
	}

	_, err := schema.Validate(map[string]any{"targets": "a", "open": "80,http"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a list of integers")
}

func TestSchema_Validate_Idempotent(t *testing.T) {
	schema := testSchema()

	input := map[string]any{
		"targets":   "10.0.0.1 10.0.0.2",
		"ports":     "22,80-90",
		"ratio":     "0.25",
		"retries":   "3",
		"ping":      "on",
		"mode":      "fast",
		"exclude":   "10.0.0.3, 10.0.0.4",
		"open":      "80,443",
		"discovery": "22",
		"ssl":       map[string]any{"timeout": "5", "verify": "false"},
	}

	first, err := schema.Validate(input)
	require.NoError(t, err)

	t.Run("re-validating coerced values", func(t *testing.T) {
		second, err := schema.Validate(first)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("re-validating a JSON round trip", func(t *testing.T) {
		data, err := json.Marshal(first)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))

		second, err := schema.Validate(decoded)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		again, err := json.Marshal(second)
		require.NoError(t, err)
		assert.JSONEq(t, string(data), string(again))
	})
}

func TestErrors_Error(t *testing.T) {
	errs := Errors{}
	errs.Add("ports", "invalid port list")
	errs.Add("targets", MsgMissing)

	assert.Equal(t, []string{"ports", "targets"}, errs.Fields())
	assert.Equal(t, "invalid params: ports invalid port list; targets is missing", errs.Error())
}

func TestFormInput(t *testing.T) {
	form := url.Values{
		"targets":       {"10.0.0.1 10.0.0.2"},
		"ports[]":       {"80", "443"},
		"lfi[os]":       {"unix"},
		"lfi[depth]":    {"6"},
		"sqli[escape]":  {"on"},
		"[broken]":      {"x"},
		"repeated":      {"a", "b"},
		"deep[a][b][c]": {"1"},
	}

	input := FormInput(form)

	assert.Equal(t, "10.0.0.1 10.0.0.2", input["targets"])
	assert.Equal(t, []string{"80", "443"}, input["ports"])
	assert.Equal(t, map[string]any{"os": "unix", "depth": "6"}, input["lfi"])
	assert.Equal(t, map[string]any{"escape": "on"}, input["sqli"])
	assert.Equal(t, []string{"a", "b"}, input["repeated"])
	assert.Equal(t, map[string]any{"a": map[string]any{"b": map[string]any{"c": "1"}}}, input["deep"])
	assert.NotContains(t, input, "")
}
