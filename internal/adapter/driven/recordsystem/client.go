// Package recordsystem implements the RecordSystem port over plain HTTP.
package recordsystem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fdagency/portal/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RecordSystem = (*Client)(nil)

// maxResponseBytes caps how much of an upstream body is buffered.
const maxResponseBytes = 10 << 20

// Client implements driven.RecordSystem against the record system's REST API.
// Every call is bounded by timeout and carries the caller's context, so an
// aborted browser request cancels the upstream call too.
type Client struct {
	http    *http.Client
	baseURL *url.URL
	timeout time.Duration
}

// NewClient creates a Client for baseURL with its own connection pool.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 16
	return NewClientWithHTTPClient(&http.Client{Transport: transport}, baseURL, timeout)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", timeout)
	}

	return &Client{
		http:    httpClient,
		baseURL: u,
		timeout: timeout,
	}, nil
}

// Do sends req to the record system and returns its answer without
// interpreting the status code.
func (c *Client) Do(ctx context.Context, req driven.UpstreamRequest) (*driven.UpstreamResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, req.Method, c.resolve(req.Path, req.RawQuery), body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", req.Method, req.Path, err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Cache-Control", "no-store")
	if !req.Credential.IsZero() {
		httpReq.Header.Set("Authorization", req.Credential.AuthorizationHeader())
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classify(ctx, req, err)
	}
	defer resp.Body.Close()

	if req.StatusOnly {
		return &driven.UpstreamResponse{
			Status:      resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
		}, nil
	}

	// One byte past the cap tells a full-size body apart from an oversized one.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, classify(ctx, req, err)
	}
	if len(data) > maxResponseBytes {
		return nil, fmt.Errorf("%w: %s %s: body exceeds %d bytes",
			driven.ErrUpstreamResponseTooLarge, req.Method, req.Path, maxResponseBytes)
	}

	return &driven.UpstreamResponse{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// Ping issues a HEAD request against the base URL. Any HTTP answer, whatever
// its status, counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodHead, c.resolve("/", ""), nil)
	if err != nil {
		return fmt.Errorf("build ping: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return classify(ctx, driven.UpstreamRequest{Method: http.MethodHead, Path: "/"}, err)
	}
	_ = resp.Body.Close()
	return nil
}

// resolve joins path onto the base URL, preserving any base path prefix.
func (c *Client) resolve(path, rawQuery string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawPath = ""
	u.RawQuery = rawQuery
	return u.String()
}

// classify maps a transport error onto the port's error taxonomy. A caller
// cancellation is returned as-is so handlers can tell it apart from upstream
// trouble.
func classify(parent context.Context, req driven.UpstreamRequest, err error) error {
	if errors.Is(parent.Err(), context.Canceled) {
		return parent.Err()
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s %s: %v", driven.ErrUpstreamTimeout, req.Method, req.Path, err)
	}

	return fmt.Errorf("%w: %s %s: %v", driven.ErrUpstreamUnreachable, req.Method, req.Path, err)
}
