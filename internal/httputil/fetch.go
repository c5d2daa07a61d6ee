// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the bounded HTTP fetch used to read library exports.
package httputil

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// DefaultMaxBytes caps the size of a fetched body (256 MiB). A Better BibTeX
// export of a large library is tens of megabytes.
const DefaultMaxBytes = 256 << 20

// ErrTooLarge is returned when a response body exceeds the byte limit.
var ErrTooLarge = eris.New("response body exceeds size limit")

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return "GET " + e.URL + ": unexpected status " + http.StatusText(e.StatusCode)
}

// NewClient returns a client that bypasses environment proxies and gives up
// after timeout. The library endpoint is a loopback service, so proxy
// settings meant for the public internet must not apply to it.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &http.Transport{Proxy: nil},
	}
}

// Get fetches url and returns its body. It never retries: any transport
// error, non-2xx status, or body larger than maxBytes is returned as an
// error and the caller decides what to do. When maxBytes is 0 the default
// (DefaultMaxBytes) applies. If ctx ends first, the context error is
// returned wrapped.
func Get(ctx context.Context, client *http.Client, url, userAgent string, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "building request for %s", url)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "GET %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, eris.Wrapf(err, "reading body of %s", url)
	}
	if int64(len(body)) > maxBytes {
		return nil, eris.Wrapf(ErrTooLarge, "GET %s", url)
	}
	return body, nil
}
