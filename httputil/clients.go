package httputil

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"estate_admin/config"
)

const (
	defaultStorageTimeout = 60 * time.Second
	defaultMirrorTimeout  = 30 * time.Second
)

// NewStorageClient builds the HTTP client used for object storage uploads.
// Without a proxy URL it honours the usual HTTP(S)_PROXY environment.
func NewStorageClient(cfg *config.S3Config) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil || proxyURL.Host == "" {
			return nil, fmt.Errorf("invalid S3 proxy URL %q", cfg.ProxyURL)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultStorageTimeout
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}, nil
}

// NewMirrorClient builds the HTTP client for the listing mirror.
func NewMirrorClient(cfg *config.SupabaseConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultMirrorTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
	}
}
