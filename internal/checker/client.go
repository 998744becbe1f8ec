package checker

import (
	"net"
	"net/http"
	"time"
)

// newHTTPClient builds the client used for every fetch. Redirects are never
// followed by the client itself; Check walks the chain so it can count hops.
func newHTTPClient(connectTimeout, readTimeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}

	tr := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		ForceAttemptHTTP2: true,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: readTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport:     tr,
		CheckRedirect: stopRedirects,
	}
}

func stopRedirects(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}
