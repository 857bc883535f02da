package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	userAgent          = "go-rbridge/rconsole"
)

// HTTPOption configures a FromHTTP.
type HTTPOption func(*FromHTTP)

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) HTTPOption {
	return func(l *FromHTTP) {
		l.client.Timeout = d
	}
}

// WithHeader adds a request header, for example Authorization.
func WithHeader(key, value string) HTTPOption {
	return func(l *FromHTTP) {
		l.headers.Set(key, value)
	}
}

// WithBasicAuth authenticates every request with HTTP basic auth.
func WithBasicAuth(username, password string) HTTPOption {
	return func(l *FromHTTP) {
		l.username, l.password = username, password
	}
}

// WithClient replaces the HTTP client.
func WithClient(client *http.Client) HTTPOption {
	return func(l *FromHTTP) {
		l.client = client
	}
}

// FromHTTP fetches a script with a GET request.
type FromHTTP struct {
	sourceURL *url.URL
	client    *http.Client
	headers   http.Header

	username string
	password string
}

var _ Source = (*FromHTTP)(nil)

// NewFromHTTP creates a FromHTTP for an http or https URL.
func NewFromHTTP(rawURL string, opts ...HTTPOption) (*FromHTTP, error) {
	sourceURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse URL: %w", err)
	}
	if sourceURL.Scheme != "http" && sourceURL.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrSchemeUnsupported, rawURL)
	}

	l := &FromHTTP{
		sourceURL: sourceURL,
		client:    &http.Client{Timeout: defaultHTTPTimeout},
		headers:   make(http.Header),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *FromHTTP) String() string {
	return fmt.Sprintf("source.FromHTTP{URL: %s}", l.sourceURL.Redacted())
}

// Open performs the request. Any non-2xx status is ErrScriptNotAvailable.
func (l *FromHTTP) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.sourceURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range l.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if l.username != "" {
		req.SetBasicAuth(l.username, l.password)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: HTTP %d - %s", ErrScriptNotAvailable, resp.StatusCode, resp.Status)
	}
	return resp.Body, nil
}

func (l *FromHTTP) URL() *url.URL {
	return l.sourceURL
}
