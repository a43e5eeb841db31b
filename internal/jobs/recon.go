package jobs

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/cuongbtq/scanhub/internal/params"
)

const reconValueDesc = "value must be an IP address, CIDR IP range, domain, sub-domain, wildcard hostname, or website base URL"

var websiteRegexp = regexp.MustCompile(`\Ahttps?://[^/?#\s]+/?\z`)

// ReconParams is the schema for recon sweep jobs
var ReconParams = params.NewSchema(
	params.Required("scope", params.Args),
	params.Optional("ignore", params.Args),
	params.Optional("max_depth", params.Integer),
).WithRules(
	params.Rule{
		Key: "scope",
		Check: func(v params.Values) string {
			scope, _ := v.Strings("scope")
			if bad := invalidReconValues(scope); len(bad) > 0 {
				return reconValueDesc + ": " + strings.Join(bad, ", ")
			}
			return ""
		},
	},
	params.Rule{
		Key: "ignore",
		Check: func(v params.Values) string {
			ignore, _ := v.Strings("ignore")
			if bad := invalidReconValues(ignore); len(bad) > 0 {
				return "ignore " + reconValueDesc + ": " + strings.Join(bad, ", ")
			}
			return ""
		},
	},
	params.Rule{
		Key: "max_depth",
		Check: func(v params.Values) string {
			if depth, _ := v.Int("max_depth"); depth < 2 {
				return "max_depth must be greater than 1"
			}
			return ""
		},
	},
)

func invalidReconValues(values []string) []string {
	var bad []string
	for _, value := range values {
		if !IsReconValue(value) {
			bad = append(bad, value)
		}
	}
	return bad
}

// IsReconValue reports whether s is a value the recon engine can start from
func IsReconValue(s string) bool {
	switch {
	case params.IsIP(s), params.IsCIDR(s), params.IsIPRange(s), params.IsWildcardHost(s):
		return true
	case websiteRegexp.MatchString(s):
		u, err := url.Parse(s)
		if err != nil {
			return false
		}
		host := u.Hostname()
		return net.ParseIP(host) != nil || params.IsHostname(host)
	}
	return strings.Contains(s, ".") && params.IsHostname(s)
}
