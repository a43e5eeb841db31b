package spider

import (
	"net/url"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Mode selects how far a crawl may wander from its target
type Mode string

const (
	// ModeHost stays on the exact host name
	ModeHost Mode = "host"
	// ModeDomain stays on the domain and its sub-domains
	ModeDomain Mode = "domain"
	// ModeSite stays under the base URL
	ModeSite Mode = "site"
)

// Options configures a crawl. Zero values mean "no limit" / "not set".
type Options struct {
	UserAgent      string
	Referer        string
	HostHeader     string
	HostHeaders    map[string]string
	DefaultHeaders map[string]string

	OpenTimeout      time.Duration
	ReadTimeout      time.Duration
	SSLTimeout       time.Duration
	ContinueTimeout  time.Duration
	KeepAliveTimeout time.Duration
	Proxy            string

	Delay    time.Duration
	Limit    int
	MaxDepth int

	StripFragments bool
	StripQuery     bool

	Hosts       []string
	IgnoreHosts []string
	Ports       []int
	IgnorePorts []int
	URLs        []string
	IgnoreURLs  []string
	Exts        []string
	IgnoreExts  []string

	Robots bool
}

// DefaultOptions returns the options used when a job sets nothing
func DefaultOptions() Options {
	return Options{StripFragments: true}
}

// normalize applies the fragment and query stripping options
func (o *Options) normalize(u *url.URL) *url.URL {
	n := *u
	if o.StripFragments {
		n.Fragment = ""
		n.RawFragment = ""
	}
	if o.StripQuery {
		n.RawQuery = ""
		n.ForceQuery = false
	}
	if n.Path == "" {
		n.Path = "/"
	}
	return &n
}

// allowed applies the host, port, URL and extension filters
func (o *Options) allowed(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	if containsFold(o.IgnoreHosts, host) {
		return false
	}

	port := urlPort(u)
	if slices.Contains(o.IgnorePorts, port) {
		return false
	}
	if len(o.Ports) > 0 && !slices.Contains(o.Ports, port) {
		return false
	}

	link := u.String()
	if hasAnyPrefix(link, o.IgnoreURLs) {
		return false
	}
	if len(o.URLs) > 0 && !hasAnyPrefix(link, o.URLs) {
		return false
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
	if ext != "" {
		if containsFold(o.IgnoreExts, ext) {
			return false
		}
		if len(o.Exts) > 0 && !containsFold(o.Exts, ext) {
			return false
		}
	}

	return true
}

func urlPort(u *url.URL) int {
	if p := u.Port(); p != "" {
		n, _ := strconv.Atoi(p)
		return n
	}
	if u.Scheme == "https" {
		return 443
	}
	return 80
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimPrefix(item, "."), s) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
