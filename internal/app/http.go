package app

import (
	"net"
	"net/http"
	"time"
)

// newHTTPClient returns the client shared by page fetching and the vision
// endpoint. Restaurant sites are few, so the pool stays small.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = fetchTimeoutDefault
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
