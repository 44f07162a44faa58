// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package http

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
)

var (
	ErrInvalidCertificatePem = errors.New("invalid certificate PEM")
	errServerStatus          = errors.New("server error status")
)

// DefaultRetryWaitMin is the initial wait between retried requests.
const DefaultRetryWaitMin = 100 * time.Millisecond

// NewClient creates a new http client which will use the optional CA
// certificate PEM if provided, otherwise it will use the installed system CA
// chain.
//
// Supported options: WithTimeout, WithMaxRetries, WithRetryWaitMin,
// WithFollowRedirects, WithLogger
func NewClient(caPEM string, opt ...Option) (*http.Client, error) {
	const op = "http.NewClient"
	opts := getOpts(opt...)
	tr := cleanhttp.DefaultPooledTransport()

	if caPEM != "" {
		certPool := x509.NewCertPool()
		if ok := certPool.AppendCertsFromPEM([]byte(caPEM)); !ok {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCertificatePem)
		}

		tr.TLSClientConfig = &tls.Config{
			RootCAs:    certPool,
			MinVersion: tls.VersionTLS12,
		}
	}

	var rt http.RoundTripper = tr
	if opts.withMaxRetries > 0 {
		rt = &retryTransport{
			next:       rt,
			maxRetries: opts.withMaxRetries,
			waitMin:    opts.withRetryWaitMin,
			logger:     opts.withLogger,
		}
	}
	rt = &loggingTransport{next: rt, logger: opts.withLogger}

	c := &http.Client{
		Transport: rt,
		Timeout:   opts.withTimeout,
	}
	if !opts.withFollowRedirects {
		c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return c, nil
}

// loggingTransport logs every round trip at debug level.  Query strings are
// never logged since they may carry codes or tokens.
type loggingTransport struct {
	next   http.RoundTripper
	logger hclog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	endpoint := req.URL.Scheme + "://" + req.URL.Host + req.URL.Path
	t.logger.Debug("http request", "method", req.Method, "url", endpoint)
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.logger.Debug("http request failed", "method", req.Method, "url", endpoint, "duration", time.Since(start), "error", err)
		return nil, err
	}
	t.logger.Debug("http response", "method", req.Method, "url", endpoint, "status", resp.StatusCode, "duration", time.Since(start))
	return resp, nil
}

// retryTransport retries bodiless idempotent requests on transport errors and
// 5xx responses.  The final attempt's response is returned as-is so callers
// can still read a provider error body.
type retryTransport struct {
	next       http.RoundTripper
	maxRetries uint
	waitMin    time.Duration
	logger     hclog.Logger
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !retryable(req) {
		return t.next.RoundTrip(req)
	}
	maxTries := t.maxRetries + 1
	var attempt uint
	operation := func() (*http.Response, error) {
		attempt++
		resp, err := t.next.RoundTrip(req)
		switch {
		case err != nil && req.Context().Err() != nil:
			return nil, backoff.Permanent(err)
		case err != nil:
			return nil, err
		case resp.StatusCode >= http.StatusInternalServerError && attempt < maxTries:
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			return nil, fmt.Errorf("%s %s: %w", req.Method, resp.Status, errServerStatus)
		default:
			return resp, nil
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.waitMin
	return backoff.Retry(req.Context(), operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(maxTries),
		backoff.WithNotify(func(err error, d time.Duration) {
			t.logger.Debug("retrying http request", "method", req.Method, "url", req.URL.Host+req.URL.Path, "wait", d, "error", err)
		}),
	)
}

func retryable(req *http.Request) bool {
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
	default:
		return false
	}
	return req.Body == nil || req.Body == http.NoBody
}

// Option configures NewClient
type Option func(*clientOptions)

type clientOptions struct {
	withTimeout         time.Duration
	withMaxRetries      uint
	withRetryWaitMin    time.Duration
	withFollowRedirects bool
	withLogger          hclog.Logger
}

func clientDefaults() clientOptions {
	return clientOptions{
		withRetryWaitMin:    DefaultRetryWaitMin,
		withFollowRedirects: true,
		withLogger:          hclog.NewNullLogger(),
	}
}

func getOpts(opt ...Option) clientOptions {
	opts := clientDefaults()
	for _, o := range opt {
		if o != nil {
			o(&opts)
		}
	}
	return opts
}

// WithTimeout sets the overall timeout for each request made by the client.
// A timeout surfaces to callers as an ordinary error.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.withTimeout = d
	}
}

// WithMaxRetries sets the number of times a failed bodiless GET/HEAD/OPTIONS
// request is retried.  Zero disables retries.
func WithMaxRetries(n uint) Option {
	return func(o *clientOptions) {
		o.withMaxRetries = n
	}
}

// WithRetryWaitMin sets the initial exponential backoff interval.
func WithRetryWaitMin(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.withRetryWaitMin = d
		}
	}
}

// WithFollowRedirects controls whether the client follows http redirects.
func WithFollowRedirects(follow bool) Option {
	return func(o *clientOptions) {
		o.withFollowRedirects = follow
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(l hclog.Logger) Option {
	return func(o *clientOptions) {
		if l != nil {
			o.withLogger = l
		}
	}
}
