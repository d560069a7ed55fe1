// ABOUTME: Fanout router delivering events to matching connections
// ABOUTME: Delivery is best-effort; slow consumers drop events, never block

package gateway

import "log/slog"

// Router fans events out to registry connections. One event is marshaled
// once and delivered to every connection the predicate admits.
type Router struct {
	registry *Registry
	logger   *slog.Logger
}

// NewRouter creates a router over the given registry.
func NewRouter(registry *Registry, logger *slog.Logger) *Router {
	return &Router{
		registry: registry,
		logger:   logger.With("component", "gateway-router"),
	}
}

// MatchChannel returns a predicate admitting connections subscribed to the
// given channel.
func MatchChannel(channelID string) func(*Connection) bool {
	return func(c *Connection) bool {
		return c.Channel() == channelID
	}
}

// Broadcast delivers ev to every connection match admits. A nil match
// admits all connections. Undeliverable events are dropped and counted;
// broadcast never fails and never blocks on a slow consumer.
func (r *Router) Broadcast(ev Event, match func(*Connection) bool) {
	data, err := MarshalEvent(ev)
	if err != nil {
		r.logger.Error("failed to marshal event", "type", ev.Type(), "error", err)
		return
	}

	delivered, dropped := 0, 0
	r.registry.ForEach(func(c *Connection) {
		if match != nil && !match(c) {
			return
		}
		if c.TrySend(data) {
			delivered++
		} else {
			dropped++
		}
	})

	if dropped > 0 {
		r.logger.Debug("dropped events for slow connections",
			"type", ev.Type(), "delivered", delivered, "dropped", dropped)
	}
}
