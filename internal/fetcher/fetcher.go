// Package fetcher implements HTTP retrieval using the Colly collector.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
	"github.com/sayouzone/sayou-healthcare/internal/metrics"
)

// Config controls collector behavior.
type Config struct {
	// Source labels metrics and log lines.
	Source healthdata.SourceKind
	// UserAgent identifies the client. The drug-safety registry rejects
	// default library agents, so this must look like a browser.
	UserAgent string
	Timeout   time.Duration
	// Delay is a polite pause inserted before every request after the first.
	Delay       time.Duration
	MaxRetries  int
	BackoffBase time.Duration
	BackoffMax  time.Duration
	// Kind tags fetched artifacts so readers dispatch without sniffing.
	Kind healthdata.ArtifactKind
}

// Fetcher implements healthdata.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger

	requested bool
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = 250 * time.Millisecond
	}
	if cfg.BackoffMax == 0 {
		cfg.BackoffMax = 5 * time.Second
	}

	c := colly.NewCollector(colly.Async(false), colly.AllowURLRevisit())
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger,
	}
}

// Fetch executes a single request and returns the body plus metadata.
// Transient failures (timeouts, 5xx, rate limiting) are retried with
// bounded exponential backoff; permanent failures are returned immediately.
func (f *Fetcher) Fetch(ctx context.Context, req healthdata.FetchRequest) (healthdata.RawArtifact, error) {
	var lastErr error
	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, backoff(f.cfg.BackoffBase, f.cfg.BackoffMax, attempt)); err != nil {
				return healthdata.RawArtifact{}, err
			}
			f.logger.Debug("retrying fetch",
				zap.String("source", string(f.cfg.Source)),
				zap.String("url", req.URL),
				zap.Int("attempt", attempt),
			)
		}

		artifact, err := f.fetchOnce(ctx, req)
		if err == nil {
			return artifact, nil
		}
		lastErr = err
		if !healthdata.IsTransient(err) {
			return healthdata.RawArtifact{}, err
		}
	}
	return healthdata.RawArtifact{}, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, req healthdata.FetchRequest) (healthdata.RawArtifact, error) {
	target, err := buildURL(req)
	if err != nil {
		return healthdata.RawArtifact{}, &healthdata.PermanentFetchError{URL: req.URL, Err: err}
	}

	if err := f.politeDelay(ctx); err != nil {
		return healthdata.RawArtifact{}, err
	}

	var (
		result   healthdata.RawArtifact
		fetchErr error
		status   int
	)
	collector := f.baseCollector.Clone()
	collector.IgnoreRobotsTxt = true
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.SetRequestTimeout(f.cfg.Timeout)

	collector.OnRequest(func(r *colly.Request) {
		for key, v := range req.Headers {
			r.Headers.Set(key, v)
		}
		if req.Referer != "" {
			r.Headers.Set("Referer", req.Referer)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		name := FilenameFromHeaders(*r.Headers)
		if name == "" {
			name = path.Base(r.Request.URL.Path)
		}
		result = healthdata.RawArtifact{
			Name:        name,
			ContentType: r.Headers.Get("Content-Type"),
			Kind:        f.cfg.Kind,
			Body:        append([]byte(nil), r.Body...),
			SourceURL:   r.Request.URL.String(),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	if err := f.visit(ctx, collector, req, target); err != nil {
		fetchErr = err
	}
	if fetchErr != nil {
		metrics.ObserveFetch(string(f.cfg.Source), statusClass(status), 0)
		return healthdata.RawArtifact{}, classify(target, status, fetchErr)
	}

	metrics.ObserveFetch(string(f.cfg.Source), statusClass(status), len(result.Body))
	return result, nil
}

func (f *Fetcher) visit(ctx context.Context, collector *colly.Collector, req healthdata.FetchRequest, target string) error {
	done := make(chan error, 1)
	go func() {
		if strings.EqualFold(req.Method, http.MethodPost) {
			done <- collector.Post(target, req.Form)
			return
		}
		done <- collector.Visit(target)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		return err
	}
}

func (f *Fetcher) politeDelay(ctx context.Context) error {
	if !f.requested {
		f.requested = true
		return nil
	}
	if f.cfg.Delay <= 0 {
		return nil
	}
	return sleepCtx(ctx, f.cfg.Delay)
}

func buildURL(req healthdata.FetchRequest) (string, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q lacks scheme or host", req.URL)
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for key, v := range req.Query {
			q.Set(key, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// classify sorts a failed round trip into the retryable / non-retryable
// halves of the error taxonomy.
func classify(target string, status int, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch {
	case status >= 500, status == http.StatusTooManyRequests:
		return &healthdata.TransientFetchError{URL: target, StatusCode: status, Err: err}
	case status >= 400:
		return &healthdata.PermanentFetchError{URL: target, StatusCode: status, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) || status == 0 {
		return &healthdata.TransientFetchError{URL: target, Err: err}
	}
	return &healthdata.PermanentFetchError{URL: target, StatusCode: status, Err: err}
}

func statusClass(status int) string {
	switch {
	case status == 0:
		return "error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > max || d <= 0 {
		return max
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
