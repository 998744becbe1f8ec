package checker

import (
	"errors"
	"time"
)

var (
	ErrMalformedURL    = errors.New("malformed URL")
	ErrMissingHost     = errors.New("URL has no host")
	ErrMissingLocation = errors.New("redirect without Location header")
	ErrTooManyRedirect = errors.New("too many redirections")
)

// Kind classifies the outcome of a single URL check.
type Kind int

const (
	KindSuccess Kind = iota
	KindHTTPError
	KindNetworkError
	KindRedirectLimit
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindHTTPError:
		return "http_error"
	case KindNetworkError:
		return "network_error"
	case KindRedirectLimit:
		return "redirect_limit"
	default:
		return "unknown"
	}
}

// Hop is one redirect response that was followed.
type Hop struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	Location   string `json:"location"`
}

// Result stores the result of checking a URL.
// URL is the last URL attempted, which differs from Target after redirects.
type Result struct {
	Target     string        `json:"target"`
	URL        string        `json:"url"`
	Kind       Kind          `json:"-"`
	StatusCode int           `json:"status_code,omitempty"`
	Redirects  []Hop         `json:"redirects,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	Err        error         `json:"-"`
	ErrorMsg   string        `json:"error,omitempty"`
}

// OK reports whether the final response had a 2xx status code.
func (r Result) OK() bool {
	return r.Kind == KindSuccess
}

// Reachable is false when no final HTTP response could be obtained.
func (r Result) Reachable() bool {
	return r.Kind == KindSuccess || r.Kind == KindHTTPError
}
