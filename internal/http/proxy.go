package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"golang.org/x/net/http/httpproxy"

	"github.com/lise-project/lise-desktop/internal/config"
	"github.com/lise-project/lise-desktop/internal/constants"
)

// ConfigureHTTPClient configures an HTTP client with proxy settings.
// warmupURL, when non-empty, is probed once through the proxy so that
// credential problems surface before the first registration attempt.
func ConfigureHTTPClient(cfg *config.ProxyConfig, warmupURL string) (*nethttp.Client, error) {
	transport := &nethttp.Transport{
		DialContext: (&net.Dialer{
			Timeout:   constants.HTTPDialTimeout,
			KeepAlive: constants.HTTPDialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		MaxConnsPerHost:       100,
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
	}

	// Configure proxy based on mode
	switch strings.ToLower(cfg.Mode) {
	case "no-proxy", "":
		transport.Proxy = nil

	case "system":
		// Use system proxy settings from environment
		transport.Proxy = nethttp.ProxyFromEnvironment

	case "ntlm":
		// Fall back to no-proxy if host is missing (incomplete saved config)
		// so the console can still start and the user can reconfigure.
		if cfg.Host == "" {
			fmt.Printf("[WARN] Proxy mode is NTLM but host is missing - falling back to no-proxy mode\n")
			transport.Proxy = nil
			return &nethttp.Client{
				Transport: transport,
				Timeout:   300 * time.Second,
			}, nil
		}

		proxyURL := buildProxyURL(cfg)
		transport.Proxy = proxyFuncWithBypass(proxyURL, cfg.NoProxy)

		// Wrap transport with NTLM
		client := &nethttp.Client{
			Transport: ntlmssp.Negotiator{
				RoundTripper: transport,
			},
			Timeout: 300 * time.Second,
		}

		// Only perform warmup if credentials are complete and warmup is
		// requested. If password is missing, let the caller prompt first.
		if cfg.Warmup && cfg.User != "" && cfg.Password != "" {
			if err := warmupProxy(client, warmupURL); err != nil {
				return nil, fmt.Errorf("proxy warmup failed: %w", err)
			}
		}

		return client, nil

	case "basic":
		if cfg.Host == "" {
			fmt.Printf("[WARN] Proxy mode is basic but host is missing - falling back to no-proxy mode\n")
			transport.Proxy = nil
			return &nethttp.Client{
				Transport: transport,
				Timeout:   300 * time.Second,
			}, nil
		}

		proxyURL := buildProxyURL(cfg)
		transport.Proxy = proxyFuncWithBypass(proxyURL, cfg.NoProxy)

		if cfg.User != "" && cfg.Password == "" {
			fmt.Printf("[WARN] Proxy user configured but password missing - proxy auth disabled until password is set\n")
		}

		client := &nethttp.Client{
			Transport: transport,
			Timeout:   300 * time.Second,
		}

		if cfg.Warmup && cfg.User != "" && cfg.Password != "" {
			if err := warmupProxy(client, warmupURL); err != nil {
				return nil, fmt.Errorf("proxy warmup failed: %w", err)
			}
		}

		return client, nil

	default:
		return nil, fmt.Errorf("unsupported proxy mode: %s", cfg.Mode)
	}

	client := &nethttp.Client{
		Transport: transport,
		Timeout:   300 * time.Second,
	}

	// Perform warmup if requested
	if cfg.Warmup && cfg.Mode != "no-proxy" && cfg.Mode != "" {
		if err := warmupProxy(client, warmupURL); err != nil {
			return nil, fmt.Errorf("proxy warmup failed: %w", err)
		}
	}

	return client, nil
}

// buildProxyURL constructs a proxy URL from config
func buildProxyURL(cfg *config.ProxyConfig) *url.URL {
	port := cfg.Port
	if port == 0 {
		port = 8080 // Default proxy port
	}

	proxyURL := &url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, port),
	}

	// Only embed credentials if both user AND password are provided.
	// Empty password in URL can cause auth failures with some proxies.
	if cfg.User != "" && cfg.Password != "" {
		proxyURL.User = url.UserPassword(cfg.User, cfg.Password)
	}

	return proxyURL
}

// warmupProxy performs a warmup request to establish the proxy connection.
func warmupProxy(client *nethttp.Client, warmupURL string) error {
	if warmupURL == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	req, err := nethttp.NewRequestWithContext(ctx, "GET", warmupURL, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("warmup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("warmup request returned server error: %d", resp.StatusCode)
	}

	return nil
}

// proxyFuncWithBypass returns a proxy function that respects the NoProxy bypass list.
// If noProxy is empty, behaves identically to nethttp.ProxyURL. When noProxy is set,
// uses golang.org/x/net/http/httpproxy to match hosts/CIDRs.
func proxyFuncWithBypass(proxyURL *url.URL, noProxy string) func(*nethttp.Request) (*url.URL, error) {
	if noProxy == "" {
		return nethttp.ProxyURL(proxyURL)
	}
	cfg := httpproxy.Config{
		HTTPProxy:  proxyURL.String(),
		HTTPSProxy: proxyURL.String(),
		NoProxy:    noProxy,
	}
	proxyFunc := cfg.ProxyFunc()
	return func(req *nethttp.Request) (*url.URL, error) {
		result, err := proxyFunc(req.URL)
		if result == nil {
			log.Printf("[PROXY] Bypass: %s (direct connection)", req.URL.Host)
		} else {
			log.Printf("[PROXY] Proxied: %s → %s", req.URL.Host, result.Host)
		}
		return result, err
	}
}

// NeedsProxyPassword returns true if the proxy configuration requires a password
// but one has not been provided. Used by CLI to determine if interactive prompt is needed.
func NeedsProxyPassword(cfg *config.ProxyConfig) bool {
	mode := strings.ToLower(cfg.Mode)
	// Only basic and ntlm modes require credentials
	if mode != "basic" && mode != "ntlm" {
		return false
	}
	// If user is set but password is not, we need to prompt
	if cfg.User != "" && cfg.Password == "" {
		return true
	}
	return false
}
