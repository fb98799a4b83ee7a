package scan

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// newHTTPClient builds the client used for service probes. Redirects are
// followed with the default policy; certificates are only checked when
// verify is set.
func newHTTPClient(timeout time.Duration, verify bool) *http.Client {
	dialer := &net.Dialer{Timeout: timeout}
	transport := &http.Transport{
		Proxy:       nil,
		DialContext: dialer.DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !verify,
			MinVersion:         tls.VersionTLS10,
		},
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		DisableKeepAlives:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
