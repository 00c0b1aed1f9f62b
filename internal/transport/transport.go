// Package transport provides outbound HTTP transports for webhook delivery.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// Some chat and CDN front doors rate-limit Go's default TLS fingerprint.
// BrowserTransport dials with uTLS so the ClientHello matches a real browser,
// lets ALPN pick h2 or http/1.1, and frames HTTP/2 with x/net/http2.

// Fingerprint names a browser ClientHello.
type Fingerprint string

const (
	Chrome  Fingerprint = "chrome"
	Firefox Fingerprint = "firefox"
	Safari  Fingerprint = "safari"
)

// ParseFingerprint maps a config value to a Fingerprint. Empty means Chrome.
func ParseFingerprint(s string) (Fingerprint, error) {
	switch f := Fingerprint(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Chrome, nil
	case Chrome, Firefox, Safari:
		return f, nil
	default:
		return "", fmt.Errorf("unknown TLS fingerprint %q", s)
	}
}

func (f Fingerprint) helloID() utls.ClientHelloID {
	switch f {
	case Firefox:
		return utls.HelloFirefox_Auto
	case Safari:
		return utls.HelloSafari_Auto
	default:
		return utls.HelloChrome_Auto
	}
}

// NewBrowserTransport creates an http.RoundTripper presenting the given browser
// fingerprint. HTTP/2 is tried first; on failure the request is replayed over
// HTTP/1.1 when its body can be rewound.
func NewBrowserTransport(fp Fingerprint, timeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: timeout}
	hello := fp.helloID()

	dial := func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialBrowserTLS(ctx, dialer, hello, network, addr)
	}

	return &browserTransport{
		h2: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dial(ctx, network, addr)
			},
		},
		h1: &http.Transport{
			DialTLSContext:        dial,
			ForceAttemptHTTP2:     false,
			ResponseHeaderTimeout: timeout,
		},
	}
}

type browserTransport struct {
	h2 http.RoundTripper
	h1 http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *browserTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	if req.Context().Err() != nil {
		return nil, err
	}

	retry := req
	if req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, err
		}
		body, bodyErr := req.GetBody()
		if bodyErr != nil {
			return nil, fmt.Errorf("rewind body after h2 failure: %w", bodyErr)
		}
		retry = req.Clone(req.Context())
		retry.Body = body
	}
	return t.h1.RoundTrip(retry)
}

// dialBrowserTLS establishes a TLS connection with a browser fingerprint.
func dialBrowserTLS(ctx context.Context, dialer *net.Dialer, hello utls.ClientHelloID, network, addr string) (net.Conn, error) {
	// Extract hostname for SNI
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, hello)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}
	return tlsConn, nil
}
