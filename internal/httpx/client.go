// Package httpx provides the HTTP client shared by the backend API clients:
// keep-alive transport, transparent gzip/deflate/brotli decompression, and
// classification of transport errors worth retrying.
package httpx

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"
)

// NewClient returns an *http.Client with the shared transport. The timeout is
// a whole-request ceiling; callers pass per-attempt deadlines via context.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &decompressTransport{
			inner: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 50,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				DisableCompression:  true, // we handle decompression ourselves (including brotli)
			},
		},
		Timeout: timeout,
	}
}

// decompressTransport advertises and decodes gzip, deflate, and brotli.
type decompressTransport struct {
	inner http.RoundTripper
}

func (t *decompressTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	}
	resp, err := t.inner.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, err
		}
		resp.Body = &wrappedBody{Reader: gz, closer: resp.Body}
	case "deflate":
		resp.Body = &wrappedBody{Reader: flate.NewReader(resp.Body), closer: resp.Body}
	case "br":
		resp.Body = &wrappedBody{Reader: brotli.NewReader(resp.Body), closer: resp.Body}
	default:
		return resp, nil
	}
	resp.Header.Del("Content-Encoding")
	resp.ContentLength = -1
	return resp, nil
}

// wrappedBody reads from the decompressor but closes the network body.
type wrappedBody struct {
	io.Reader
	closer io.Closer
}

func (b *wrappedBody) Close() error { return b.closer.Close() }

// IsRetryable reports whether a transport-level error warrants a retry.
// Covers timeouts, unexpected EOF, connection resets, and connection refused.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Context cancellation is NOT retryable; a per-attempt deadline is.
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return true
		}
	}
	return false
}
