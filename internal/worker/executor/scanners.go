package executor

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/cuongbtq/scanhub/internal/jobs"
	"github.com/cuongbtq/scanhub/internal/params"
)

// NmapExecutor runs nmap with XML output and imports the report
type NmapExecutor struct {
	runner       *ToolRunner
	binary       string
	unprivileged bool
	importer     FileImporter
}

// NewNmapExecutor creates an NmapExecutor. nmap runs with --privileged
// unless unprivileged is set.
func NewNmapExecutor(runner *ToolRunner, binary string, unprivileged bool, importer FileImporter) *NmapExecutor {
	return &NmapExecutor{runner: runner, binary: binary, unprivileged: unprivileged, importer: importer}
}

func (e *NmapExecutor) Kind() jobs.Kind { return jobs.KindNmap }

func (e *NmapExecutor) Perform(ctx context.Context, values params.Values) error {
	return e.runner.Run(ctx, e.binary, ".xml", func(output string) []string {
		return NmapArgs(values, e.unprivileged, output)
	}, e.importer)
}

// NmapArgs builds the nmap command line for a validated nmap job
func NmapArgs(v params.Values, unprivileged bool, output string) []string {
	a := newArgv(v)

	a.option("target_file", "-iL").
		option("random_targets", "-iR").
		list("exclude", "--exclude").
		option("exclude_file", "--excludefile")

	a.flag("list", "-sL").
		flag("ping", "-sn").
		flag("skip_discovery", "-Pn").
		attached("syn_discovery", "-PS").
		attached("ack_discovery", "-PA").
		attached("udp_discovery", "-PU").
		attached("sctp_init_ping", "-PY").
		flag("icmp_echo_discovery", "-PE").
		flag("icmp_timestamp_discovery", "-PP").
		flag("icmp_netmask_discovery", "-PM").
		attached("ip_ping", "-PO").
		flag("arp_ping", "-PR").
		flag("traceroute", "--traceroute").
		flag("disable_dns", "-n").
		flag("enable_dns", "-R").
		flag("resolve_all", "--resolve-all").
		flag("unique", "--unique").
		list("dns_servers", "--dns-servers").
		flag("system_dns", "--system-dns")

	a.flag("syn_scan", "-sS").
		flag("connect_scan", "-sT").
		flag("udp_scan", "-sU").
		flag("sctp_init_scan", "-sY").
		flag("null_scan", "-sN").
		flag("fin_scan", "-sF").
		flag("xmas_scan", "-sX").
		flag("ack_scan", "-sA").
		flag("window_scan", "-sW").
		flag("maimon_scan", "-sM")
	if scanFlags, ok := v.Strings("scan_flags"); ok {
		a.add("--scanflags", strings.ToUpper(strings.Join(scanFlags, "")))
	}
	a.flag("sctp_cookie_echo_scan", "-sZ").
		option("idle_scan", "-sI").
		flag("ip_scan", "-sO").
		option("ftp_bounce_scan", "-b")

	a.option("ports", "-p").
		option("exclude_ports", "--exclude-ports").
		flag("fast", "-F").
		flag("consecutively", "-r").
		option("top_ports", "--top-ports").
		option("port_ratio", "--port-ratio")

	a.flag("service_scan", "-sV").
		flag("all_ports", "--allports").
		option("version_intensity", "--version-intensity").
		flag("version_light", "--version-light").
		flag("version_all", "--version-all").
		flag("version_trace", "--version-trace").
		flag("rpc_scan", "-sR")

	a.flag("os_fingerprint", "-O").
		flag("limit_os_scan", "--osscan-limit").
		flag("max_os_scan", "--osscan-guess").
		option("max_os_tries", "--max-os-tries")

	a.option("min_host_group", "--min-hostgroup").
		option("max_host_group", "--max-hostgroup").
		option("min_parallelism", "--min-parallelism").
		option("max_parallelism", "--max-parallelism").
		option("min_rtt_timeout", "--min-rtt-timeout").
		option("max_rtt_timeout", "--max-rtt-timeout").
		option("initial_rtt_timeout", "--initial-rtt-timeout").
		option("max_retries", "--max-retries").
		option("host_timeout", "--host-timeout").
		option("script_timeout", "--script-timeout").
		option("scan_delay", "--scan-delay").
		option("max_scan_delay", "--max-scan-delay").
		option("min_rate", "--min-rate").
		option("max_rate", "--max-rate").
		flag("defeat_rst_ratelimit", "--defeat-rst-ratelimit").
		flag("defeat_icmp_ratelimit", "--defeat-icmp-ratelimit").
		option("nsock_engine", "--nsock-engine")
	if template, ok := v.String("timing_template"); ok {
		a.add("-T" + strconv.Itoa(slices.Index(jobs.NmapTimingTemplates, template)))
	}

	a.flag("packet_fragments", "-f").
		option("mtu", "--mtu").
		list("decoys", "-D").
		option("spoof", "-S").
		option("interface", "-e").
		option("source_port", "-g").
		list("proxies", "--proxies").
		option("data", "--data").
		option("data_string", "--data-string").
		option("data_length", "--data-length").
		option("ip_options", "--ip-options").
		option("ttl", "--ttl").
		flag("randomize_hosts", "--randomize-hosts").
		option("spoof_mac", "--spoof-mac").
		flag("bad_checksum", "--badsum").
		flag("sctp_adler32", "--adler32")

	a.flag("ipv6", "-6").
		flag("all", "-A").
		option("nmap_datadir", "--datadir").
		option("servicedb", "--servicedb").
		option("versiondb", "--versiondb").
		flag("send_eth", "--send-eth").
		flag("send_ip", "--send-ip").
		flag("privileged", "--privileged").
		flag("unprivileged", "--unprivileged").
		flag("release_memory", "--release-memory")

	if !v.Has("privileged") && !v.Has("unprivileged") {
		if unprivileged {
			a.add("--unprivileged")
		} else {
			a.add("--privileged")
		}
	}

	a.add("-v", "-oX", output)

	targets, _ := v.Strings("targets")
	a.add(targets...)

	return a.args
}

// MasscanExecutor runs masscan with binary output and imports the scan
type MasscanExecutor struct {
	runner   *ToolRunner
	binary   string
	importer FileImporter
}

// NewMasscanExecutor creates a MasscanExecutor
func NewMasscanExecutor(runner *ToolRunner, binary string, importer FileImporter) *MasscanExecutor {
	return &MasscanExecutor{runner: runner, binary: binary, importer: importer}
}

func (e *MasscanExecutor) Kind() jobs.Kind { return jobs.KindMasscan }

func (e *MasscanExecutor) Perform(ctx context.Context, values params.Values) error {
	return e.runner.Run(ctx, e.binary, ".bin", func(output string) []string {
		return MasscanArgs(values, output)
	}, e.importer)
}

// MasscanArgs builds the masscan command line for a validated masscan job
func MasscanArgs(v params.Values, output string) []string {
	a := newArgv(v)

	a.option("config_file", "-c").
		option("ports", "--ports").
		flag("banners", "--banners").
		option("rate", "--rate").
		option("adapter", "--adapter").
		option("adapter_ip", "--adapter-ip").
		option("adapter_port", "--adapter-port").
		option("adapter_mac", "--adapter-mac").
		option("adapter_vlan", "--adapter-vlan").
		option("router_mac", "--router-mac").
		flag("ping", "--ping").
		option("exclude", "--exclude").
		option("exclude_file", "--excludefile").
		option("include_file", "--includefile").
		option("pcap_payloads", "--pcap-payloads").
		option("nmap_payloads", "--nmap-payloads").
		option("http_method", "--http-method").
		option("http_url", "--http-url").
		option("http_version", "--http-version").
		option("http_host", "--http-host").
		option("http_user_agent", "--http-user-agent").
		option("http_field", "--http-field").
		option("http_cookie", "--http-cookie").
		option("http_payload", "--http-payload").
		flag("open_only", "--open-only").
		option("pcap", "--pcap").
		flag("packet_trace", "--packet-trace").
		flag("pfring", "--pfring").
		option("shards", "--shards").
		option("seed", "--seed").
		option("ttl", "--ttl").
		option("wait", "--wait").
		option("retries", "--retries")

	a.add("--interactive", "-oB", output)

	ips, _ := v.Strings("ips")
	a.add(ips...)

	return a.args
}

// ReconExecutor runs ronin-recon and imports the discovered values
type ReconExecutor struct {
	runner   *ToolRunner
	binary   string
	importer FileImporter
}

// NewReconExecutor creates a ReconExecutor
func NewReconExecutor(runner *ToolRunner, binary string, importer FileImporter) *ReconExecutor {
	return &ReconExecutor{runner: runner, binary: binary, importer: importer}
}

func (e *ReconExecutor) Kind() jobs.Kind { return jobs.KindRecon }

func (e *ReconExecutor) Perform(ctx context.Context, values params.Values) error {
	return e.runner.Run(ctx, e.binary, ".ndjson", func(output string) []string {
		return ReconArgs(values, output)
	}, e.importer)
}

// ReconArgs builds the ronin-recon command line for a validated recon job
func ReconArgs(v params.Values, output string) []string {
	a := newArgv(v).add("run")

	a.option("max_depth", "--max-depth").
		repeat("ignore", "--ignore").
		add("--output-format", "ndjson", "--output", output)

	scope, _ := v.Strings("scope")
	a.add(scope...)

	return a.args
}

// VulnsExecutor runs ronin-vulns against a URL and imports the findings
type VulnsExecutor struct {
	runner   *ToolRunner
	binary   string
	importer FileImporter
}

// NewVulnsExecutor creates a VulnsExecutor
func NewVulnsExecutor(runner *ToolRunner, binary string, importer FileImporter) *VulnsExecutor {
	return &VulnsExecutor{runner: runner, binary: binary, importer: importer}
}

func (e *VulnsExecutor) Kind() jobs.Kind { return jobs.KindVulns }

func (e *VulnsExecutor) Perform(ctx context.Context, values params.Values) error {
	return e.runner.Run(ctx, e.binary, ".ndjson", func(output string) []string {
		return VulnsArgs(values, output)
	}, e.importer)
}

// VulnsArgs builds the ronin-vulns command line for a validated vulns job
func VulnsArgs(v params.Values, output string) []string {
	a := newArgv(v).add("scan")

	nested := func(key string, fn func(*argv)) {
		if h, ok := v.Hash(key); ok {
			sub := newArgv(h)
			fn(sub)
			a.add(sub.args...)
		}
	}

	nested("lfi", func(s *argv) {
		s.option("os", "--lfi-os").
			option("depth", "--lfi-depth").
			option("filter_bypass", "--lfi-filter-bypass")
	})
	nested("rfi", func(s *argv) {
		s.option("filter_bypass", "--rfi-filter-bypass").
			option("test_script_url", "--rfi-script-url")
	})
	nested("sqli", func(s *argv) {
		s.flag("escape_quote", "--sqli-escape-quote").
			flag("escape_parens", "--sqli-escape-parens").
			flag("terminate", "--sqli-terminate")
	})
	nested("ssti", func(s *argv) {
		s.option("escape", "--ssti-test-expr-escape")
	})
	nested("command_injection", func(s *argv) {
		s.option("escape_quote", "--cmdi-escape-quote").
			option("escape_operator", "--cmdi-escape-operator").
			option("terminate", "--cmdi-terminator")
	})
	nested("open_redirect", func(s *argv) {
		s.option("test_url", "--open-redirect-url")
	})

	a.add("--output-format", "ndjson", "--output", output)

	url, _ := v.String("url")
	a.add(url)

	return a.args
}
