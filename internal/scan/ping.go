package scan

import (
	"context"
	"runtime"
	"time"

	ping "github.com/go-ping/ping"
	"github.com/pkg/errors"
)

// pingFunc is swapped out in tests.
var pingFunc = isAlive

// isAlive sends a single ICMP echo and reports whether it was answered within
// timeout. An error means the pinger could not run at all, in which case the
// caller should not treat the host as down.
func isAlive(ctx context.Context, host string, timeout time.Duration) (bool, error) {
	pinger, err := ping.NewPinger(host)
	if err != nil {
		return false, errors.Wrapf(err, "create pinger for %s", host)
	}

	pinger.SetPrivileged(runtime.GOOS == "windows")
	pinger.Count = 1
	if timeout <= 0 {
		timeout = time.Second
	}
	pinger.Timeout = timeout

	errCh := make(chan error, 1)
	go func() {
		errCh <- pinger.Run()
	}()

	select {
	case <-ctx.Done():
		pinger.Stop()
		return false, nil
	case err := <-errCh:
		if err != nil {
			return false, errors.Wrapf(err, "ping %s", host)
		}
	}

	return pinger.Statistics().PacketsRecv > 0, nil
}
