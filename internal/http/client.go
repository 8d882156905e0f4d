package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/lise-project/lise-desktop/internal/config"
	"github.com/lise-project/lise-desktop/internal/constants"
)

// CreateStreamingClient creates an HTTP client tuned for the orchestrator
// log relay, which posts scenario output line by line for as long as a
// scenario runs.
//
// Key features:
//   - Proxy support (uses ConfigureHTTPClient as base)
//   - Connection reuse so per-line posts don't re-handshake
//   - HTTP/2 support with runtime toggle (DISABLE_HTTP2 env var)
//   - No overall client timeout; each post carries its own context
//
// The cfg parameter provides proxy configuration. If cfg is nil, proxy
// settings are read from environment variables (HTTP_PROXY, HTTPS_PROXY,
// NO_PROXY).
func CreateStreamingClient(cfg *config.ProxyConfig, warmupURL string) (*nethttp.Client, error) {
	var baseClient *nethttp.Client
	var err error

	if cfg != nil {
		baseClient, err = ConfigureHTTPClient(cfg, warmupURL)
		if err != nil {
			return nil, err
		}
	} else {
		// Fallback: create client without proxy configuration
		baseClient = &nethttp.Client{}
	}

	// Get the transport from the base client
	tr, ok := baseClient.Transport.(*nethttp.Transport)
	if !ok {
		// If transport is not *nethttp.Transport (e.g., wrapped by NTLM
		// negotiator), we can't apply tuning, so return the base client
		// as-is. Clear the 300s timeout; posts use per-request contexts.
		baseClient.Timeout = 0
		return baseClient, nil
	}

	// Connection pooling - the relay talks to a single orchestrator host
	tr.MaxIdleConns = 16
	tr.MaxIdleConnsPerHost = 8
	tr.MaxConnsPerHost = 8
	tr.IdleConnTimeout = constants.HTTPIdleConnTimeout

	tr.TLSHandshakeTimeout = constants.HTTPTLSHandshakeTimeout
	tr.ExpectContinueTimeout = constants.HTTPExpectContinueTimeout

	tr.ForceAttemptHTTP2 = true // HTTP/2 provides better multiplexing

	// Ensure HTTP/2 is properly configured
	_ = http2.ConfigureTransport(tr)

	// Runtime toggle for HTTP/2 (useful for debugging or compatibility issues)
	// Set DISABLE_HTTP2=true environment variable to force HTTP/1.1
	if os.Getenv("DISABLE_HTTP2") == "true" {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	// Disable HTTP/2 when proxy is active to avoid stream errors.
	// Proxies often have issues with HTTP/2 multiplexing, causing
	// mid-stream failures. Trust config proxy mode first; only check
	// env vars for "system" mode or when no config.
	var proxyActive bool
	if cfg != nil {
		switch cfg.Mode {
		case "no-proxy", "":
			proxyActive = false
		case "system":
			proxyActive = os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
				os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
		default:
			// ntlm, basic, etc. - proxy is definitely active
			proxyActive = true
		}
	} else {
		proxyActive = os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
			os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
	}

	// Allow power users to force HTTP/2 even through proxy with FORCE_HTTP2=true
	if proxyActive && os.Getenv("FORCE_HTTP2") != "true" {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	baseClient.Transport = tr
	baseClient.Timeout = 0 // No overall timeout - each post sets its own

	return baseClient, nil
}
