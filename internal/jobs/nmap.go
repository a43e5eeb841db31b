package jobs

import (
	"regexp"

	"github.com/cuongbtq/scanhub/internal/params"
)

const (
	nmapPortNumber  = `[1-9][0-9]{0,4}`
	nmapServiceName = `[A-Za-z0-9]+(?:[/_-][A-Za-z0-9]+)*\*?`
	nmapPort        = `(?:` + nmapPortNumber + `|` + nmapServiceName + `)`
	nmapPortRange   = `(?:` + nmapPort + `-` + nmapPort + `|` + nmapPort + `-|-` + nmapPort + `|-|` + nmapPort + `)`
	nmapPortSpec    = `(?:[TUS]:)?` + nmapPortRange
)

var (
	nmapPortRegexp          = regexp.MustCompile(`\A` + nmapPort + `\z`)
	nmapPortRangeListRegexp = regexp.MustCompile(`\A` + nmapPortSpec + `(?:,` + nmapPortSpec + `)*\z`)
	nmapTimeRegexp          = regexp.MustCompile(`\A\d+(?:ms|s|m|h)?\z`)
	nmapHexStringRegexp     = regexp.MustCompile(`\A(?:(?:0x)?[0-9a-fA-F]+|(?:\\x[0-9a-fA-F]{2})+)\z`)
)

var (
	// NmapPortRangeList is a comma separated list of ports or port ranges (ex: 1-80,443,U:53)
	NmapPortRangeList = params.Format(nmapPortRangeListRegexp, "invalid nmap port list")

	// NmapProtocolList is the protocol list accepted by -PO
	NmapProtocolList = params.Format(nmapPortRangeListRegexp, "invalid nmap protocol list")

	// NmapPort is a single port number or service name
	NmapPort = params.Format(nmapPortRegexp, "invalid nmap port")

	// NmapTime is an nmap time value (ex: 500ms, 30s, 5m)
	NmapTime = params.Format(nmapTimeRegexp, "invalid nmap time value")

	// NmapHexString is the payload accepted by --data
	NmapHexString = params.Format(nmapHexStringRegexp, "invalid hex string")

	// NmapScanFlags are the TCP flags accepted by --scanflags
	NmapScanFlags = params.EnumList("urg", "ack", "psh", "rst", "syn", "fin")

	// NmapNsockEngine is the value accepted by --nsock-engine
	NmapNsockEngine = params.Enum("iocp", "epoll", "kqueue", "poll", "select")

	// NmapTimingTemplates lists the -T templates in ascending order of speed
	NmapTimingTemplates = []string{"paranoid", "sneaky", "polite", "normal", "aggressive", "insane"}

	// NmapTimingTemplate is the value accepted by -T
	NmapTimingTemplate = params.Enum(NmapTimingTemplates...)
)

// boolOrPorts accepts either a bare flag or a flag with a port list
var boolOrPorts = params.Either(params.Bool, NmapPortRangeList)

// NmapParams is the schema for nmap scan jobs
var NmapParams = params.NewSchema(
	params.Required("targets", params.Args),

	// target specification
	params.Optional("target_file", params.String),
	params.Optional("random_targets", params.Integer),
	params.Optional("exclude", params.List),
	params.Optional("exclude_file", params.String),

	// host discovery
	params.Optional("list", params.Bool),
	params.Optional("ping", params.Bool),
	params.Optional("skip_discovery", params.Bool),
	params.Optional("syn_discovery", boolOrPorts),
	params.Optional("ack_discovery", boolOrPorts),
	params.Optional("udp_discovery", boolOrPorts),
	params.Optional("sctp_init_ping", boolOrPorts),
	params.Optional("icmp_echo_discovery", params.Bool),
	params.Optional("icmp_timestamp_discovery", params.Bool),
	params.Optional("icmp_netmask_discovery", params.Bool),
	params.Optional("ip_ping", params.Either(params.Bool, NmapProtocolList)),
	params.Optional("arp_ping", params.Bool),
	params.Optional("traceroute", params.Bool),
	params.Optional("disable_dns", params.Bool),
	params.Optional("enable_dns", params.Bool),
	params.Optional("resolve_all", params.Bool),
	params.Optional("unique", params.Bool),
	params.Optional("dns_servers", params.List),
	params.Optional("system_dns", params.Bool),

	// scan techniques
	params.Optional("syn_scan", params.Bool),
	params.Optional("connect_scan", params.Bool),
	params.Optional("udp_scan", params.Bool),
	params.Optional("sctp_init_scan", params.Bool),
	params.Optional("null_scan", params.Bool),
	params.Optional("fin_scan", params.Bool),
	params.Optional("xmas_scan", params.Bool),
	params.Optional("ack_scan", params.Bool),
	params.Optional("window_scan", params.Bool),
	params.Optional("maimon_scan", params.Bool),
	params.Optional("scan_flags", NmapScanFlags),
	params.Optional("sctp_cookie_echo_scan", params.Bool),
	params.Optional("idle_scan", params.String),
	params.Optional("ip_scan", params.Bool),
	params.Optional("ftp_bounce_scan", params.String),

	// port specification and scan order
	params.Optional("ports", NmapPortRangeList),
	params.Optional("exclude_ports", NmapPortRangeList),
	params.Optional("fast", params.Bool),
	params.Optional("consecutively", params.Bool),
	params.Optional("top_ports", params.Integer),
	params.Optional("port_ratio", params.Float),

	// service/version detection
	params.Optional("service_scan", params.Bool),
	params.Optional("all_ports", params.Bool),
	params.Optional("version_intensity", params.Integer),
	params.Optional("version_light", params.Bool),
	params.Optional("version_all", params.Bool),
	params.Optional("version_trace", params.Bool),
	params.Optional("rpc_scan", params.Bool),

	// OS detection
	params.Optional("os_fingerprint", params.Bool),
	params.Optional("limit_os_scan", params.Bool),
	params.Optional("max_os_scan", params.Bool),
	params.Optional("max_os_tries", params.Integer),

	// timing and performance
	params.Optional("min_host_group", params.Integer),
	params.Optional("max_host_group", params.Integer),
	params.Optional("min_parallelism", params.Integer),
	params.Optional("max_parallelism", params.Integer),
	params.Optional("min_rtt_timeout", NmapTime),
	params.Optional("max_rtt_timeout", NmapTime),
	params.Optional("initial_rtt_timeout", NmapTime),
	params.Optional("max_retries", params.Integer),
	params.Optional("host_timeout", NmapTime),
	params.Optional("script_timeout", NmapTime),
	params.Optional("scan_delay", NmapTime),
	params.Optional("max_scan_delay", NmapTime),
	params.Optional("min_rate", params.Integer),
	params.Optional("max_rate", params.Integer),
	params.Optional("defeat_rst_ratelimit", params.Bool),
	params.Optional("defeat_icmp_ratelimit", params.Bool),
	params.Optional("nsock_engine", NmapNsockEngine),
	params.Optional("timing_template", NmapTimingTemplate),

	// firewall/IDS evasion and spoofing
	params.Optional("packet_fragments", params.Bool),
	params.Optional("mtu", params.Integer),
	params.Optional("decoys", params.List),
	params.Optional("spoof", params.String),
	params.Optional("interface", params.String),
	params.Optional("source_port", NmapPort),
	params.Optional("proxies", params.List),
	params.Optional("data", NmapHexString),
	params.Optional("data_string", params.String),
	params.Optional("data_length", params.Integer),
	params.Optional("ip_options", params.String),
	params.Optional("ttl", params.Integer),
	params.Optional("randomize_hosts", params.Bool),
	params.Optional("spoof_mac", params.String),
	params.Optional("bad_checksum", params.Bool),
	params.Optional("sctp_adler32", params.Bool),

	// misc
	params.Optional("ipv6", params.Bool),
	params.Optional("all", params.Bool),
	params.Optional("nmap_datadir", params.String),
	params.Optional("servicedb", params.String),
	params.Optional("versiondb", params.String),
	params.Optional("send_eth", params.Bool),
	params.Optional("send_ip", params.Bool),
	params.Optional("privileged", params.Bool),
	params.Optional("unprivileged", params.Bool),
	params.Optional("release_memory", params.Bool),
).WithRules(
	params.Rule{
		Key: "port_ratio",
		Check: func(v params.Values) string {
			if ratio, _ := v.Float("port_ratio"); ratio < 0.0 || ratio > 1.0 {
				return "value must be between 0.0 and 1.0"
			}
			return ""
		},
	},
	params.Rule{
		Key: "version_intensity",
		Check: func(v params.Values) string {
			if intensity, _ := v.Int("version_intensity"); intensity < 0 || intensity > 9 {
				return "value must be between 0 and 9"
			}
			return ""
		},
	},
)
