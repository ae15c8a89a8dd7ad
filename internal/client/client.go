// Package client talks to the skills sync server: it uploads an archive and
// gets back a business code, and downloads the archive stored under a code.
//
// Both calls are single-attempt whole-body transfers that report byte
// progress through a ProgressFunc.
package client

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kamusis/skills-sync/internal/logger"
	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout   = 2 * time.Minute
	defaultUserAgent = "skills-sync"

	// maxMessage bounds how much of an error response is kept.
	maxMessage = 8 << 10
	// maxResponse bounds a successful upload response.
	maxResponse = 1 << 20
	// maxPrealloc caps the buffer reserved from a download's Content-Length.
	maxPrealloc = 64 << 20

	requestIDHeader = "X-Request-Id"
)

// ProgressFunc receives (current, total) byte counts as a transfer proceeds.
// current strictly increases and the last call has current == total. While
// the total is unknown it is reported as -1.
type ProgressFunc func(current, total int64)

// Client is a sync server client.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the whole-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalised server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, *logrus.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, nil, err
	}
	id := uuid.NewString()
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, id)

	log := logger.G(ctx).WithFields(logrus.Fields{
		"method":     method,
		"url":        url,
		"request_id": id,
	})
	return req, log, nil
}

func ok(status int) bool {
	return status >= 200 && status < 300
}
