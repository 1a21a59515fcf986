package utils

import (
	"context"
	"net/http"
)

// HTTPClient is the subset of *http.Client used across the curator so tests
// can substitute canned responses.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// DefaultHTTPClient follows redirects; per-request deadlines come from the
// caller's context.
var DefaultHTTPClient HTTPClient = &http.Client{}

func CustomHttpRequest(ctx context.Context, method string, url string, userAgent string, rangeHeader string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}

	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Accept", "*/*")

	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	return req, nil
}
