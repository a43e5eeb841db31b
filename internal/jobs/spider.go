package jobs

import (
	"regexp"

	"github.com/cuongbtq/scanhub/internal/params"
)

// Spider target types
const (
	SpiderHost   = "host"
	SpiderDomain = "domain"
	SpiderSite   = "site"
)

var (
	hostNameRegexp = regexp.MustCompile(`\A[A-Za-z0-9\._-]+\z`)
	siteURLRegexp  = regexp.MustCompile(`\Ahttps?://.+\z`)
)

// SpiderParams is the schema for web spider jobs
var SpiderParams = params.NewSchema(
	params.Required("type", params.Enum(SpiderHost, SpiderDomain, SpiderSite)),
	params.Required("target", params.String),

	params.Optional("host_header", params.String),
	params.Optional("host_headers", params.StringMap),
	params.Optional("default_headers", params.StringMap),
	params.Optional("user_agent", params.String),
	params.Optional("referer", params.String),
	params.Optional("open_timeout", params.Integer),
	params.Optional("read_timeout", params.Integer),
	params.Optional("ssl_timeout", params.Integer),
	params.Optional("continue_timeout", params.Integer),
	params.Optional("keep_alive_timeout", params.Integer),
	params.Optional("proxy", params.String),
	params.Optional("delay", params.Integer),
	params.Optional("limit", params.Integer),
	params.Optional("max_depth", params.Integer),
	params.Optional("strip_fragments", params.Bool),
	params.Optional("strip_query", params.Bool),
	params.Optional("hosts", params.List),
	params.Optional("ignore_hosts", params.List),
	params.Optional("ports", params.IntList),
	params.Optional("ignore_ports", params.IntList),
	params.Optional("urls", params.List),
	params.Optional("ignore_urls", params.List),
	params.Optional("exts", params.List),
	params.Optional("ignore_exts", params.List),
	params.Optional("robots", params.Bool),
).WithRules(
	params.Rule{
		Key:      "target",
		Requires: []string{"type"},
		Check: func(v params.Values) string {
			kind, _ := v.String("type")
			target, _ := v.String("target")

			switch kind {
			case SpiderHost:
				if !hostNameRegexp.MatchString(target) {
					return "host must be a valid host name"
				}
			case SpiderDomain:
				if !hostNameRegexp.MatchString(target) {
					return "domain must be a valid host name"
				}
			case SpiderSite:
				if !siteURLRegexp.MatchString(target) {
					return "site must be a valid http:// or https:// URI"
				}
			}
			return ""
		},
	},
)
