// Package util holds helpers shared by the outbound API clients
package util

import (
	"fmt"
	"net/http"
	"net/url"
)

// ProxyFunc returns the proxy selector for an outbound client. An empty
// proxy falls back to HTTP_PROXY, HTTPS_PROXY and NO_PROXY.
func ProxyFunc(proxy string) (func(*http.Request) (*url.URL, error), error) {
	if proxy == "" {
		return http.ProxyFromEnvironment, nil
	}

	u, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL %q: %w", proxy, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid proxy URL %q: want scheme://host[:port]", proxy)
	}
	return http.ProxyURL(u), nil
}

// HTTPClient returns a client with the default transport settings that
// sends every request through proxy
func HTTPClient(proxy string) (*http.Client, error) {
	pf, err := ProxyFunc(proxy)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = pf
	return &http.Client{Transport: transport}, nil
}
