package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// TCPChecker answers "does the port accept connections" for targets like
// tcp://db.internal:5432 or a bare host:port.
type TCPChecker struct {
	Dialer *net.Dialer
}

func NewTCPChecker(timeout time.Duration) *TCPChecker {
	return &TCPChecker{
		Dialer: &net.Dialer{Timeout: timeout},
	}
}

func (c *TCPChecker) Check(ctx context.Context, target string) CheckResult {
	addr := extractHostPort(target)
	start := time.Now()
	conn, err := c.Dialer.DialContext(ctx, "tcp", addr)
	latency := time.Since(start).Seconds() * 1000
	if err != nil {
		return CheckResult{
			Name:      "TCP",
			Success:   false,
			TimedOut:  isTimeout(ctx, err),
			Message:   err.Error(),
			LatencyMS: latency,
		}
	}
	_ = conn.Close()
	return CheckResult{Name: "TCP", Success: true, Message: "connected", LatencyMS: latency}
}

func extractHostPort(raw string) string {
	if strings.Contains(raw, "://") {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			return u.Host
		}
	}
	return raw
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
