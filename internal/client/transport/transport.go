// Package transport is the single HTTP client used by the rollcall client
// components to reach the recognition service.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"time"

	"github.com/atinyakov/rollcall/internal/formdata"
)

const (
	// DefaultTimeout bounds every request made by the Client.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of a failed response body is kept in a StatusError.
	maxErrorBody = 4 << 10
)

// ErrMalformedBody is returned when a 2xx response body cannot be decoded.
var ErrMalformedBody = errors.New("malformed response body")

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server error: status %d", e.Code)
	}
	return fmt.Sprintf("server error: status %d: %s", e.Code, e.Body)
}

// Part is one binary file field of a multipart request.
type Part = formdata.File

// Options configures a Client.
type Options struct {
	// BaseURL is prefixed to every request path, e.g. "http://localhost:8080/api".
	BaseURL string
	// CAFile optionally points at a PEM bundle trusted for TLS.
	CAFile string
	// Timeout bounds each request; DefaultTimeout when zero.
	Timeout time.Duration
	// HTTPClient overrides the constructed client (tests). Its Jar is kept if set.
	HTTPClient *http.Client
}

// Client talks JSON and multipart to the recognition service. The cookie jar
// carries the service's session cookie between calls.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a Client from opts.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("base url is required")
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
		if opts.CAFile != "" {
			tr, err := tlsTransport(opts.CAFile)
			if err != nil {
				return nil, err
			}
			client.Transport = tr
		}
	}
	if client.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		client.Jar = jar
	}

	return &Client{
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		http:    client,
	}, nil
}

func tlsTransport(caFile string) (*http.Transport, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA cert")
	}
	return &http.Transport{
		TLSClientConfig: &tls.Config{
			RootCAs:    caPool,
			MinVersion: tls.VersionTLS12,
		},
	}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PostJSON sends in as a JSON body and decodes a 2xx response into out.
// out may be nil when the body is not inspected.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

// GetJSON performs a GET and decodes a 2xx response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

// PostMultipart sends the given file parts and plain fields as a
// multipart/form-data body and decodes a 2xx response into out.
func (c *Client) PostMultipart(ctx context.Context, path string, parts []Part, fields map[string]string, out any) error {
	body, contentType, err := formdata.Encode(parts, fields)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	// Only whitespace may follow the JSON value.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after JSON value", ErrMalformedBody)
	}
	return nil
}
