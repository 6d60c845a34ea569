package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/hyperifyio/dagenslunch/internal/cache"
)

// ErrUnsupportedContentType is returned when a response is not of the kind
// the caller asked for.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// StatusError reports a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("%s: unexpected status %d", e.URL, e.Code) }

// Transient reports whether retrying may succeed.
func (e *StatusError) Transient() bool { return e.Code >= 500 && e.Code <= 599 }

// Response is a fetched body with its declared content type. URL is the
// address after redirects.
type Response struct {
	URL         string
	ContentType string
	Body        []byte
}

// Client wraps http.Client with timeouts, bounded retry on transient errors
// and an optional conditional-GET cache.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	Cache             *cache.PageCache
	// BypassCache skips revalidation but still stores fresh responses.
	BypassCache bool
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	// MaxConcurrent limits in-flight requests. Zero means unlimited.
	MaxConcurrent int
	// MaxBodyBytes caps the body size. Zero means 20 MiB.
	MaxBodyBytes int64

	limiter     chan struct{}
	limiterOnce sync.Once
}

// GetPage fetches an HTML page and returns its body decoded to UTF-8 using
// the declared or sniffed charset. Swedish restaurant sites still serve
// ISO-8859-1 now and then.
func (c *Client) GetPage(ctx context.Context, rawURL string) (Response, error) {
	resp, err := c.get(ctx, rawURL, isHTMLContentType)
	if err != nil {
		return Response{}, err
	}
	r, err := charset.NewReader(bytes.NewReader(resp.Body), resp.ContentType)
	if err != nil {
		return Response{}, fmt.Errorf("decode %s: %w", rawURL, err)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return Response{}, fmt.Errorf("decode %s: %w", rawURL, err)
	}
	resp.Body = body
	return resp, nil
}

// GetImage fetches an image/* resource.
func (c *Client) GetImage(ctx context.Context, rawURL string) (Response, error) {
	return c.get(ctx, rawURL, isImageContentType)
}

func (c *Client) get(ctx context.Context, rawURL string, accept func(string) bool) (Response, error) {
	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(rawURL); err == nil && meta != nil {
			etag, lastMod = meta.ETag, meta.LastModified
		}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		res, err := c.tryOnce(ctx, rawURL, etag, lastMod, accept)
		if err == nil {
			return c.settle(rawURL, res)
		}
		lastErr = err
		if !isTransient(err) || i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	return Response{}, lastErr
}

type attempt struct {
	finalURL     string
	status       int
	contentType  string
	etag         string
	lastModified string
	body         []byte
}

// settle stores a fresh body in the cache or serves the cached body on 304.
func (c *Client) settle(rawURL string, a attempt) (Response, error) {
	if a.status == http.StatusNotModified {
		if c.Cache == nil {
			return Response{}, &StatusError{URL: rawURL, Code: a.status}
		}
		meta, err := c.Cache.LoadMeta(rawURL)
		if err != nil {
			return Response{}, fmt.Errorf("cache meta: %w", err)
		}
		body, err := c.Cache.LoadBody(rawURL)
		if err != nil {
			return Response{}, fmt.Errorf("cache body: %w", err)
		}
		return Response{URL: rawURL, ContentType: meta.ContentType, Body: body}, nil
	}
	if c.Cache != nil {
		_ = c.Cache.Save(rawURL, a.contentType, a.etag, a.lastModified, a.body)
	}
	return Response{URL: a.finalURL, ContentType: a.contentType, Body: a.body}, nil
}

func (c *Client) tryOnce(ctx context.Context, rawURL, etag, lastMod string, accept func(string) bool) (attempt, error) {
	c.acquire()
	defer c.release()

	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return attempt{}, fmt.Errorf("new request: %w", err)
	}
	if !isHTTPScheme(req.URL) {
		return attempt{}, fmt.Errorf("unsupported URL scheme: %q", rawURL)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return attempt{}, err
	}
	defer resp.Body.Close()

	a := attempt{
		finalURL:     rawURL,
		status:       resp.StatusCode,
		contentType:  resp.Header.Get("Content-Type"),
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
	}
	if resp.Request != nil && resp.Request.URL != nil {
		a.finalURL = resp.Request.URL.String()
	}
	if resp.StatusCode == http.StatusNotModified {
		return a, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return attempt{}, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}
	if !accept(a.contentType) {
		return attempt{}, fmt.Errorf("%w: %s", ErrUnsupportedContentType, a.contentType)
	}
	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = 20 << 20
	}
	a.body, err = io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return attempt{}, fmt.Errorf("read body: %w", err)
	}
	return a, nil
}

func (c *Client) httpClient() *http.Client {
	base := http.Client{Timeout: c.PerRequestTimeout}
	if c.HTTPClient != nil {
		// Copy so the redirect policy does not leak into the caller's client.
		base = *c.HTTPClient
	}
	base.CheckRedirect = c.checkRedirect
	return &base
}

func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	if len(via) >= max {
		return errors.New("too many redirects")
	}
	if !isHTTPScheme(req.URL) {
		return errors.New("redirect to unsupported scheme")
	}
	return nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Transient()
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

func isImageContentType(ct string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(ct)), "image/")
}

func (c *Client) acquire() {
	if c.MaxConcurrent <= 0 {
		return
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	c.limiter <- struct{}{}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	<-c.limiter
}
