// Package fetcher implements the first pipeline stage named in spec.md
// §4.2: dequeue a URL, perform a bounded-timeout HTTP GET, parse the body,
// emit a ParsedPage, and discover + filter + enqueue outbound links. The
// HTTP transport is a direct descendant of the teacher's
// crawler/fetcher/fetcher.go: an exponential-jitter retrying
// rehttp.Transport wrapping the stdlib http.Client.
package fetcher

import (
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/rehttp"
)

// HTTPFetcher performs the bounded-timeout GET described in spec.md §4.2.
// Redirects are followed using http.Client's default redirect policy; a
// transient network error and a non-200 response are both folded into the
// same "treat as non-200" failure the spec calls for (spec.md §4.2,
// §7 "transient fetch error").
type HTTPFetcher struct {
	userAgent string
	client    *http.Client
}

// New creates an HTTPFetcher with the given user agent and the given
// bounded timeout (the Orchestrator passes 7 seconds unless configured
// otherwise). It retries up to 3 times
// on temporary transport errors with an exponential jittered backoff,
// exactly as the teacher's fetcher does.
func New(userAgent string, timeout time.Duration) *HTTPFetcher {
	transport := rehttp.NewTransport(
		http.DefaultTransport,
		rehttp.RetryAll(rehttp.RetryMaxRetries(3), rehttp.RetryTemporaryErr()),
		rehttp.ExpJitterDelay(100*time.Millisecond, 2*time.Second),
	)
	return &HTTPFetcher{
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout, Transport: transport},
	}
}

// Get performs the GET. The caller owns the response body and must close
// it when (err == nil).
func (f *HTTPFetcher) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	return res, nil
}
