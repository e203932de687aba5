package fetcher

import (
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/MrSnakeDoc/giftgate/internal/domain"
	"github.com/MrSnakeDoc/giftgate/internal/logger"
	"github.com/MrSnakeDoc/giftgate/internal/metrics"
)

// Options configures the page fetcher.
type Options struct {
	Timeout   time.Duration // per request, includes reading the body
	UserAgent string
}

// Fetcher retrieves raw gift page markup. It never caches and never retries:
// callers decide what is cacheable and the first failure is returned as is.
type Fetcher struct {
	base   *colly.Collector
	logger logger.Logger
}

// New builds a fetcher around a colly collector.
func New(opts Options, log logger.Logger) *Fetcher {
	c := colly.NewCollector(
		// The ownership check fetches the same URL again on every request.
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	if opts.UserAgent != "" {
		c.UserAgent = opts.UserAgent
	}
	if opts.Timeout > 0 {
		c.SetRequestTimeout(opts.Timeout)
	}

	return &Fetcher{
		base:   c,
		logger: log,
	}
}

// Fetch performs one GET of rawURL and returns the response body. Network
// failures, timeouts and non-2xx statuses yield a fetch_failed error.
func (f *Fetcher) Fetch(rawURL string) (string, error) {
	// Clones share the HTTP backend but not callbacks, so concurrent fetches
	// each see only their own response.
	c := f.base.Clone()

	var (
		body   []byte
		status int
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	start := time.Now()
	err := c.Visit(rawURL)
	if err == nil && (status < 200 || status > 299) {
		err = domain.NewError(domain.KindFetch, "unexpected status %d", status)
	}
	metrics.ObservePageFetch(err)

	if err != nil {
		f.logger.Warn("page fetch failed",
			logger.String("url", rawURL),
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err))
		if _, ok := domain.KindOf(err); ok {
			return "", err
		}
		return "", domain.WrapError(domain.KindFetch, err, "fetch %s", rawURL)
	}

	f.logger.Debug("page fetched",
		logger.String("url", rawURL),
		logger.Int("status", status),
		logger.Int("bytes", len(body)),
		logger.Duration("elapsed", time.Since(start)))
	return string(body), nil
}
