// Package spider implements a breadth-first web crawler bounded to a host,
// a domain or a site.
package spider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBodySize caps how much of a response body is read for link extraction
const maxBodySize = 10 << 20

// ErrInvalidTarget is returned when the crawl target cannot be turned into a URL
var ErrInvalidTarget = errors.New("invalid spider target")

// Page is a visited page
type Page struct {
	URL         *url.URL
	Depth       int
	StatusCode  int
	ContentType string
	Header      http.Header
	Links       []*url.URL
}

// PageFunc is called synchronously for every visited page. Returning an
// error aborts the crawl.
type PageFunc func(ctx context.Context, page *Page) error

// Spider crawls web pages
type Spider struct {
	opts   Options
	client *http.Client
	logger *slog.Logger
	robots map[string]*robotsRules
}

// New creates a Spider
func New(opts Options, logger *slog.Logger) (*Spider, error) {
	dialer := &net.Dialer{Timeout: opts.OpenTimeout, KeepAlive: 30 * time.Second}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   opts.SSLTimeout,
		ResponseHeaderTimeout: opts.ReadTimeout,
		ExpectContinueTimeout: opts.ContinueTimeout,
		IdleConnTimeout:       opts.KeepAliveTimeout,
	}

	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil || proxyURL.Host == "" {
			return nil, fmt.Errorf("invalid proxy %q", opts.Proxy)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Spider{
		opts: opts,
		client: &http.Client{
			Transport: transport,
			// redirects are queued as links so they pass through the scope filters
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
		robots: make(map[string]*robotsRules),
	}, nil
}

// StartURL returns the first URL crawled for a target
func StartURL(mode Mode, target string) (*url.URL, error) {
	switch mode {
	case ModeHost, ModeDomain:
		if target == "" || strings.ContainsAny(target, "/:") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, target)
		}
		return &url.URL{Scheme: "http", Host: target, Path: "/"}, nil
	case ModeSite:
		u, err := url.Parse(target)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, target)
		}
		if u.Path == "" {
			u.Path = "/"
		}
		return u, nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidTarget, mode)
	}
}

// inScope reports whether u is within the crawl's mode and target, or on one
// of the extra hosts
func (s *Spider) inScope(mode Mode, start, u *url.URL) bool {
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	if containsFold(s.opts.Hosts, host) {
		return true
	}

	switch mode {
	case ModeHost:
		return host == strings.ToLower(start.Hostname())
	case ModeDomain:
		domain := strings.ToLower(start.Hostname())
		return host == domain || strings.HasSuffix(host, "."+domain)
	case ModeSite:
		return u.Scheme == start.Scheme &&
			strings.EqualFold(u.Host, start.Host) &&
			strings.HasPrefix(u.Path, start.Path)
	}
	return false
}

type queued struct {
	url     *url.URL
	depth   int
	referer string
}

// Crawl visits pages breadth first, starting at the target, until the queue
// is exhausted, the limit is reached, fn fails or ctx is done
func (s *Spider) Crawl(ctx context.Context, mode Mode, target string, fn PageFunc) error {
	start, err := StartURL(mode, target)
	if err != nil {
		return err
	}
	start = s.opts.normalize(start)

	var (
		queue   = []queued{{url: start, referer: s.opts.Referer}}
		visited = map[string]struct{}{start.String(): {}}
		pages   int
	)

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.opts.Limit > 0 && pages >= s.opts.Limit {
			break
		}

		next := queue[0]
		queue = queue[1:]

		if s.opts.Robots && !s.robotsAllowed(ctx, next.url) {
			s.logger.Debug("Skipping URL disallowed by robots.txt", slog.String("url", next.url.String()))
			continue
		}

		if pages > 0 && s.opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.opts.Delay):
			}
		}

		page, err := s.fetch(ctx, next)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("Failed to fetch page",
				slog.String("url", next.url.String()),
				slog.Any("error", err),
			)
			continue
		}
		pages++

		if err := fn(ctx, page); err != nil {
			return err
		}

		if s.opts.MaxDepth > 0 && next.depth >= s.opts.MaxDepth {
			continue
		}

		for _, link := range page.Links {
			link = s.opts.normalize(link)
			key := link.String()
			if _, seen := visited[key]; seen {
				continue
			}
			if !s.inScope(mode, start, link) || !s.opts.allowed(link) {
				continue
			}
			visited[key] = struct{}{}

			referer := s.opts.Referer
			if referer == "" {
				referer = page.URL.String()
			}
			queue = append(queue, queued{url: link, depth: next.depth + 1, referer: referer})
		}
	}

	return nil
}

func (s *Spider) newRequest(ctx context.Context, u *url.URL, referer string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	for name, value := range s.opts.DefaultHeaders {
		req.Header.Set(name, value)
	}
	if s.opts.UserAgent != "" {
		req.Header.Set("User-Agent", s.opts.UserAgent)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	if host, ok := s.opts.HostHeaders[u.Hostname()]; ok {
		req.Host = host
	} else if s.opts.HostHeader != "" {
		req.Host = s.opts.HostHeader
	}

	return req, nil
}

func (s *Spider) fetch(ctx context.Context, q queued) (*Page, error) {
	req, err := s.newRequest(ctx, q.url, q.referer)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	page := &Page{
		URL:        q.url,
		Depth:      q.depth,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}
	if mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
		page.ContentType = mediaType
	}

	if location := resp.Header.Get("Location"); location != "" {
		if u, err := q.url.Parse(location); err == nil {
			page.Links = append(page.Links, u)
		}
	}

	if page.ContentType == "text/html" || page.ContentType == "application/xhtml+xml" {
		page.Links = append(page.Links, extractLinks(q.url, io.LimitReader(resp.Body, maxBodySize))...)
	}

	return page, nil
}

func (s *Spider) robotsAllowed(ctx context.Context, u *url.URL) bool {
	key := u.Scheme + "://" + u.Host
	rules, ok := s.robots[key]
	if !ok {
		rules = s.fetchRobots(ctx, u)
		s.robots[key] = rules
	}
	return rules.allowed(u.EscapedPath())
}

func (s *Spider) fetchRobots(ctx context.Context, u *url.URL) *robotsRules {
	robotsURL := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}

	req, err := s.newRequest(ctx, robotsURL, "")
	if err != nil {
		return nil
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("Failed to fetch robots.txt",
			slog.String("url", robotsURL.String()),
			slog.Any("error", err),
		)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil
	}
	return parseRobots(resp.StatusCode, body, s.opts.UserAgent)
}
