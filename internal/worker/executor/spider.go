package executor

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cuongbtq/scanhub/internal/importer"
	"github.com/cuongbtq/scanhub/internal/jobs"
	"github.com/cuongbtq/scanhub/internal/params"
	"github.com/cuongbtq/scanhub/internal/spider"
	"github.com/cuongbtq/scanhub/internal/worker/domain"
)

// URLImporter imports a visited URL
type URLImporter interface {
	ImportURL(ctx context.Context, u importer.URL) error
}

// SpiderExecutor crawls a host, domain or site and imports every visited
// page. Pages pass through a bounded channel to a single importer goroutine,
// so a slow datastore slows the crawl down instead of buffering without bound.
type SpiderExecutor struct {
	logger    *slog.Logger
	userAgent string
	buffer    int
	importer  URLImporter
}

// NewSpiderExecutor creates a SpiderExecutor. userAgent is used when a job
// does not set one; buffer is the number of pages that may wait for import.
func NewSpiderExecutor(logger *slog.Logger, userAgent string, buffer int, importer URLImporter) *SpiderExecutor {
	if buffer < 1 {
		buffer = 1
	}
	return &SpiderExecutor{logger: logger, userAgent: userAgent, buffer: buffer, importer: importer}
}

func (e *SpiderExecutor) Kind() jobs.Kind { return jobs.KindSpider }

func (e *SpiderExecutor) Perform(ctx context.Context, values params.Values) error {
	mode, _ := values.String("type")
	target, _ := values.String("target")

	opts := SpiderOptions(values)
	if opts.UserAgent == "" {
		opts.UserAgent = e.userAgent
	}

	crawler, err := spider.New(opts, e.logger)
	if err != nil {
		return err
	}

	pages := make(chan importer.URL, e.buffer)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for page := range pages {
			if err := e.importer.ImportURL(gctx, page); err != nil {
				return &domain.ImportError{Importer: "spider", Err: err}
			}
		}
		return nil
	})

	g.Go(func() error {
		defer close(pages)

		return crawler.Crawl(gctx, spider.Mode(mode), target, func(ctx context.Context, page *spider.Page) error {
			e.logger.Debug("Visited page",
				slog.String("url", page.URL.String()),
				slog.Int("status", page.StatusCode),
			)

			select {
			case pages <- importer.URL{
				URL:         page.URL.String(),
				StatusCode:  page.StatusCode,
				ContentType: page.ContentType,
			}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	})

	return g.Wait()
}

// SpiderOptions maps validated spider params onto crawler options. Timeouts
// and delay are given in seconds.
func SpiderOptions(v params.Values) spider.Options {
	opts := spider.DefaultOptions()

	seconds := func(key string) time.Duration {
		n, _ := v.Int(key)
		return time.Duration(n) * time.Second
	}

	opts.UserAgent, _ = v.String("user_agent")
	opts.Referer, _ = v.String("referer")
	opts.HostHeader, _ = v.String("host_header")
	opts.HostHeaders, _ = v.StringMap("host_headers")
	opts.DefaultHeaders, _ = v.StringMap("default_headers")

	opts.OpenTimeout = seconds("open_timeout")
	opts.ReadTimeout = seconds("read_timeout")
	opts.SSLTimeout = seconds("ssl_timeout")
	opts.ContinueTimeout = seconds("continue_timeout")
	opts.KeepAliveTimeout = seconds("keep_alive_timeout")
	opts.Proxy, _ = v.String("proxy")

	opts.Delay = seconds("delay")
	opts.Limit, _ = v.Int("limit")
	opts.MaxDepth, _ = v.Int("max_depth")

	if strip, ok := v.Bool("strip_fragments"); ok {
		opts.StripFragments = strip
	}
	opts.StripQuery, _ = v.Bool("strip_query")

	opts.Hosts, _ = v.Strings("hosts")
	opts.IgnoreHosts, _ = v.Strings("ignore_hosts")
	opts.Ports, _ = v.Ints("ports")
	opts.IgnorePorts, _ = v.Ints("ignore_ports")
	opts.URLs, _ = v.Strings("urls")
	opts.IgnoreURLs, _ = v.Strings("ignore_urls")
	opts.Exts, _ = v.Strings("exts")
	opts.IgnoreExts, _ = v.Strings("ignore_exts")

	opts.Robots, _ = v.Bool("robots")

	return opts
}
