package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"mdbook2pdf/internal/config"
)

// FetchFailure reports a page that could not be retrieved, either because the
// transport failed or because the server answered outside the 2xx range.
type FetchFailure struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchFailure) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchFailure) Unwrap() error { return e.Err }

// Fetcher retrieves raw page markup. It applies the configured headers and
// timeout and never retries. The politeness delay is left to the caller.
type Fetcher struct {
	base    *colly.Collector
	headers map[string]string
	timeout time.Duration
}

func New(cfg config.Config) *Fetcher {
	headers := cfg.RequestHeaders()
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.UserAgent(headers["User-Agent"]),
	)
	c.SetRequestTimeout(cfg.Timeout())
	return &Fetcher{base: c, headers: headers, timeout: cfg.Timeout()}
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", &FetchFailure{URL: rawURL, Err: errors.New("url is required")}
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return "", &FetchFailure{URL: rawURL, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return "", &FetchFailure{URL: rawURL, Err: err}
	}

	c := f.base.Clone()
	c.ParseHTTPErrorResponse = true
	c.Context = ctx

	var (
		body   []byte
		status int
	)
	c.OnRequest(func(r *colly.Request) {
		for key, value := range f.headers {
			r.Headers.Set(key, value)
		}
	})
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	if err := c.Visit(rawURL); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", f.timeout, err)
		}
		return "", &FetchFailure{URL: rawURL, Err: err}
	}
	if status < 200 || status >= 300 {
		return "", &FetchFailure{URL: rawURL, Status: status, Err: fmt.Errorf("http status %d", status)}
	}
	return string(body), nil
}

// Wait blocks for d or until ctx is done.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
