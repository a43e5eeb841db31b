package params

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func is(tag string) func(string) bool {
	return func(s string) bool {
		return validate.Var(s, tag) == nil
	}
}

var (
	// IsIP reports whether s is an IPv4 or IPv6 address
	IsIP = is("ip")

	// IsCIDR reports whether s is a CIDR range
	IsCIDR = is("cidr")

	// IsHostname reports whether s is an RFC 1123 host name
	IsHostname = is("hostname_rfc1123")

	// IsFQDN reports whether s is a fully qualified domain name
	IsFQDN = is("fqdn")

	// IsHTTPURL reports whether s is an http:// or https:// URL
	IsHTTPURL = is("http_url")

	// IsURL reports whether s is an absolute URL of any scheme
	IsURL = is("url")
)

// IsWildcardHost reports whether s is a wildcard host name such as
// "*.example.com"
func IsWildcardHost(s string) bool {
	rest, ok := strings.CutPrefix(s, "*.")
	return ok && IsHostname(rest)
}

// IsIPRange reports whether s is an "a.b.c.d-e.f.g.h" address range
func IsIPRange(s string) bool {
	start, end, ok := strings.Cut(s, "-")
	return ok && IsIP(start) && IsIP(end)
}
