package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// DNSChecker classifies whether a target's hostname resolves.
type DNSChecker struct {
	Resolver *net.Resolver
}

func NewDNSChecker() *DNSChecker {
	return &DNSChecker{Resolver: &net.Resolver{}} // OS resolver
}

func (d *DNSChecker) Check(ctx context.Context, target string) CheckResult {
	host := extractHost(target)
	if host == "" || strings.Contains(host, "://") {
		return CheckResult{Name: "DNS", Success: false, Message: "INVALID_NAME"}
	}

	start := time.Now()
	ips, err := d.Resolver.LookupIP(ctx, "ip", host)
	latency := time.Since(start).Seconds() * 1000

	if err == nil && len(ips) > 0 {
		return CheckResult{Name: "DNS", Success: true, Message: "RESOLVES", LatencyMS: latency}
	}

	class := "NO_A_RECORD"
	timedOut := false
	if err != nil {
		var de *net.DNSError
		if errors.As(err, &de) {
			switch {
			case de.IsNotFound:
				class = "NXDOMAIN"
			case de.IsTemporary || de.Timeout():
				class = "SERVFAIL_or_TIMEOUT"
				timedOut = de.Timeout()
			default:
				class = "SERVFAIL_or_TIMEOUT"
			}
		} else {
			class = "SERVFAIL_or_TIMEOUT"
		}
		timedOut = timedOut || isTimeout(ctx, err)
	}

	return CheckResult{
		Name:      "DNS",
		Success:   false,
		TimedOut:  timedOut,
		Message:   class,
		LatencyMS: latency,
	}
}

// extractHost pulls the hostname from a URL string
func extractHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
