package checker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"runtime"
	"time"

	valid "github.com/asaskevich/govalidator"
	"golang.org/x/time/rate"
)

const (
	DefaultMaxRedirects   = 5
	DefaultConnectTimeout = 5 * time.Second
	DefaultReadTimeout    = 5 * time.Second
	DefaultFrom           = "https://2fa.directory/"

	// Drain at most this much of a body so keep-alive connections can be reused.
	maxDrainBytes = 64 << 10
)

// DefaultUserAgent identifies the validator to the sites it visits.
var DefaultUserAgent = fmt.Sprintf("2factorauth/URLValidator (Go/%s; +https://2fa.directory/bot)", runtime.Version())

// Config holds everything a Checker needs; nothing is read from globals.
type Config struct {
	Headers        map[string]string
	MaxRedirects   int
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	// RateLimit is the maximum number of requests per second across all
	// checks. Zero means unlimited.
	RateLimit float64
}

// DefaultConfig returns the configuration used by CI runs.
func DefaultConfig() Config {
	return Config{
		Headers: map[string]string{
			"User-Agent": DefaultUserAgent,
			"From":       DefaultFrom,
		},
		MaxRedirects:   DefaultMaxRedirects,
		ConnectTimeout: DefaultConnectTimeout,
		ReadTimeout:    DefaultReadTimeout,
	}
}

type limiter interface {
	Wait(context.Context) error
}

// Option customizes a Checker.
type Option func(*Checker)

// WithHTTPClient replaces the client built from Config. The client's redirect
// policy is overridden so redirects are still followed by Check.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) {
		cp := *client
		cp.CheckRedirect = stopRedirects
		c.client = &cp
	}
}

// WithLogger sets the logger used for per-hop debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// Checker fetches URLs and follows a bounded number of redirects.
// It is safe for concurrent use.
type Checker struct {
	cfg     Config
	client  *http.Client
	limiter limiter
	logger  *slog.Logger
}

func New(cfg Config, opts ...Option) *Checker {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	c := &Checker{
		cfg:     cfg,
		client:  newHTTPClient(cfg.ConnectTimeout, cfg.ReadTimeout),
		limiter: rate.NewLimiter(limit, 1),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Check fetches rawURL, following up to MaxRedirects redirects, and reports
// how it ended. It never returns an error; failures are part of the Result.
func (c *Checker) Check(ctx context.Context, rawURL string) Result {
	start := time.Now()
	res := Result{Target: rawURL, URL: rawURL}

	current, err := parseTarget(rawURL)
	if err != nil {
		return res.fail(KindNetworkError, err, start)
	}

	for {
		res.URL = current.String()

		resp, err := c.fetch(ctx, current)
		if err != nil {
			return res.fail(KindNetworkError, err, start)
		}
		res.StatusCode = resp.StatusCode

		if resp.StatusCode < 300 || resp.StatusCode >= 400 {
			res.Duration = time.Since(start)
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				res.Kind = KindSuccess
			} else {
				res.Kind = KindHTTPError
			}
			return res
		}

		location := resp.Header.Get("Location")
		if location == "" {
			return res.fail(KindNetworkError, fmt.Errorf("%s (%d): %w", res.URL, resp.StatusCode, ErrMissingLocation), start)
		}

		next, err := resolve(current, location)
		if err != nil {
			return res.fail(KindNetworkError, err, start)
		}

		res.Redirects = append(res.Redirects, Hop{URL: res.URL, StatusCode: resp.StatusCode, Location: location})
		c.logger.Debug("Following redirect", "from", res.URL, "to", next.String(), "status", resp.StatusCode)

		if len(res.Redirects) > c.cfg.MaxRedirects {
			return res.fail(KindRedirectLimit, ErrTooManyRedirect, start)
		}
		current = next
	}
}

// fetch performs one hop. The request and the body drain share a deadline of
// ConnectTimeout+ReadTimeout so a server that stalls mid-body cannot hold the
// check open.
func (c *Checker) fetch(ctx context.Context, u *url.URL) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("error while rate limiting: %w", err)
	}

	hopCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout+c.cfg.ReadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(hopCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	for key, value := range c.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes)); err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", u.Redacted(), err)
	}

	return resp, nil
}

func parseTarget(rawURL string) (*url.URL, error) {
	if !valid.IsRequestURL(rawURL) {
		return nil, fmt.Errorf("%q: %w", rawURL, ErrMalformedURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", rawURL, ErrMalformedURL)
	}
	if u.Opaque != "" {
		return nil, fmt.Errorf("%q: %w", rawURL, ErrMalformedURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%q: %w", rawURL, ErrMissingHost)
	}

	return u, nil
}

// resolve resolves a Location header against the URL that returned it, per
// RFC 3986 section 5.
func resolve(base *url.URL, location string) (*url.URL, error) {
	ref, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("redirect to %q: %w", location, ErrMalformedURL)
	}

	next := base.ResolveReference(ref)
	if next.Host == "" {
		return nil, fmt.Errorf("redirect to %q: %w", location, ErrMissingHost)
	}

	return next, nil
}

func (r Result) fail(kind Kind, err error, start time.Time) Result {
	r.Kind = kind
	r.Err = err
	r.ErrorMsg = err.Error()
	r.Duration = time.Since(start)
	return r
}
