package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/observability"
)

// MaxBodySize bounds downloaded bodies.
const MaxBodySize = 64 << 20

// Client downloads input files with retries.
type Client struct {
	HTTP   *http.Client
	Policy Policy
}

// NewClient returns a client with the given request timeout and
// [DefaultPolicy].
func NewClient(timeout time.Duration) *Client {
	return &Client{
		HTTP:   &http.Client{Timeout: timeout},
		Policy: DefaultPolicy,
	}
}

// IsURL reports whether s is an http or https URL.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Get fetches rawURL and returns the body. Network errors, 5xx and 429
// responses are retried; 404 is a NOT_FOUND error and any other non-2xx
// status a NETWORK_ERROR.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "invalid url %q", rawURL)
	}
	hooks := observability.HTTP()

	var body []byte
	err = Retry(ctx, c.Policy, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "build request")
		}
		hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
		start := time.Now()

		resp, err := c.HTTP.Do(req)
		if err != nil {
			hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
			return Retryable(ferrors.Wrap(ferrors.ErrCodeNetwork, err, "fetch %s", rawURL))
		}
		defer resp.Body.Close()
		hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

		if err := checkStatus(resp.StatusCode, rawURL); err != nil {
			return err
		}
		body, err = io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
		if err != nil {
			return Retryable(ferrors.Wrap(ferrors.ErrCodeNetwork, err, "read %s", rawURL))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func checkStatus(code int, rawURL string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ferrors.New(ferrors.ErrCodeNotFound, "%s: %s", rawURL, http.StatusText(code))
	case code == http.StatusTooManyRequests || code >= 500:
		return Retryable(ferrors.New(ferrors.ErrCodeNetwork, "%s: %d %s", rawURL, code, http.StatusText(code)))
	}
	return ferrors.Wrap(ferrors.ErrCodeNetwork, fmt.Errorf("status %d", code), "fetch %s", rawURL)
}
