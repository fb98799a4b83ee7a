package scan

import (
	"context"
	"net"
	"strconv"
	"time"
)

// CheckPort reports whether a TCP connection to host:port completes within
// timeout. Any failure, including cancellation, reads as closed.
func CheckPort(ctx context.Context, host string, port int, timeout time.Duration) bool {
	if port <= 0 || port > 65535 {
		return false
	}

	dialer := &net.Dialer{Timeout: timeout}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// isTLSPort reports whether port should be tried over HTTPS first.
func isTLSPort(port int, tlsPorts []int) bool {
	for _, p := range tlsPorts {
		if p == port {
			return true
		}
	}
	return false
}

// candidateURLs lists the URLs tried for a service, in order.
func candidateURLs(host string, port int, tlsPorts []int) []string {
	hostPort := net.JoinHostPort(host, strconv.Itoa(port))
	if isTLSPort(port, tlsPorts) {
		return []string{"https://" + hostPort, "http://" + hostPort}
	}
	return []string{"http://" + hostPort}
}
