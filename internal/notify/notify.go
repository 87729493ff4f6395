package notify

import (
	"context"

	"availwatch/internal/domain"
)

// Sink is an external channel alert events are delivered to.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev domain.AlertEvent) error
}

// Title renders the short headline sinks prepend to the event message.
func Title(ev domain.AlertEvent) string {
	switch ev.State {
	case domain.StateDown:
		return "🔴 Target DOWN"
	case domain.StateDegraded:
		return "🟠 Target degraded"
	case domain.StateHealthy:
		return "🟢 Target RECOVERED"
	default:
		return "Target state changed"
	}
}
