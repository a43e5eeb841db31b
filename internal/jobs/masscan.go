package jobs

import (
	"regexp"
	"strings"

	"github.com/cuongbtq/scanhub/internal/params"
)

const masscanPortRange = `(?:[UT]:)?\d{1,5}(?:-\d{1,5})?`

var (
	masscanPortListRegexp  = regexp.MustCompile(`\A` + masscanPortRange + `(?:,` + masscanPortRange + `)*\z`)
	masscanPortRangeRegexp = regexp.MustCompile(`\A\d{1,5}(?:-\d{1,5})?\z`)
	macAddressRegexp       = regexp.MustCompile(`\A[0-9a-fA-F]{2}(?:[:-][0-9a-fA-F]{2}){5}\z`)
	masscanShardsRegexp    = regexp.MustCompile(`\A\d+/\d+\z`)
)

// HTTPMethods are the request methods masscan can send with --http-method
var HTTPMethods = []string{
	"COPY", "DELETE", "GET", "HEAD", "LOCK", "MKCOL", "MOVE", "OPTIONS",
	"PATCH", "POST", "PROPFIND", "PROPPATCH", "PUT", "TRACE", "UNLOCK",
}

// MasscanParams is the schema for masscan scan jobs
var MasscanParams = params.NewSchema(
	params.Required("ips", params.Args),
	params.Required("ports", params.Format(masscanPortListRegexp, "invalid masscan port list")),

	params.Optional("banners", params.Bool),
	params.Optional("rate", params.Integer),
	params.Optional("config_file", params.String),
	params.Optional("adapter", params.String),
	params.Optional("adapter_ip", params.String),
	params.Optional("adapter_port", params.Format(masscanPortRangeRegexp, "invalid port or port range")),
	params.Optional("adapter_mac", params.String),
	params.Optional("adapter_vlan", params.String),
	params.Optional("router_mac", params.Format(macAddressRegexp, "invalid MAC address")),
	params.Optional("ping", params.Bool),
	params.Optional("exclude", params.Check(isMasscanTargetList, "invalid IP or IP range")),
	params.Optional("exclude_file", params.String),
	params.Optional("include_file", params.String),
	params.Optional("pcap_payloads", params.String),
	params.Optional("nmap_payloads", params.String),
	params.Optional("http_method", params.Enum(HTTPMethods...)),
	params.Optional("http_url", params.String),
	params.Optional("http_version", params.String),
	params.Optional("http_host", params.String),
	params.Optional("http_user_agent", params.String),
	params.Optional("http_field", params.String),
	params.Optional("http_cookie", params.String),
	params.Optional("http_payload", params.String),
	params.Optional("open_only", params.Bool),
	params.Optional("pcap", params.String),
	params.Optional("packet_trace", params.Bool),
	params.Optional("pfring", params.Bool),
	params.Optional("shards", params.Format(masscanShardsRegexp, "invalid shards value")),
	params.Optional("seed", params.Integer),
	params.Optional("ttl", params.Integer),
	params.Optional("wait", params.Integer),
	params.Optional("retries", params.Integer),
)

// isMasscanTargetList accepts a comma separated list of IPs, CIDR ranges or
// "start-end" address ranges
func isMasscanTargetList(s string) bool {
	for _, target := range strings.Split(s, ",") {
		target = strings.TrimSpace(target)
		if !params.IsIP(target) && !params.IsCIDR(target) && !params.IsIPRange(target) {
			return false
		}
	}
	return true
}
