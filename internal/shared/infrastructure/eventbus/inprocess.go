package eventbus

import (
	"context"
	"log/slog"
	"path"
	"sync"
)

// Handler consumes a published event payload.
type Handler func(ctx context.Context, routingKey string, payload []byte) error

// InProcessPublisher dispatches events to handlers in the same process. It
// stands in for a broker in local mode. Patterns use path.Match syntax, so
// "scheduling.appointment.*" matches every appointment event.
type InProcessPublisher struct {
	mu       sync.RWMutex
	handlers []subscription
	logger   *slog.Logger
}

type subscription struct {
	pattern string
	handler Handler
}

// NewInProcessPublisher creates an empty dispatcher.
func NewInProcessPublisher(logger *slog.Logger) *InProcessPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessPublisher{logger: logger}
}

// Subscribe registers handler for routing keys matching pattern.
func (p *InProcessPublisher) Subscribe(pattern string, handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, subscription{pattern: pattern, handler: handler})
}

// Publish runs every matching handler and returns the first error, so the
// outbox retries the message.
func (p *InProcessPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.RLock()
	subs := append([]subscription(nil), p.handlers...)
	p.mu.RUnlock()

	var firstErr error
	for _, s := range subs {
		if ok, _ := path.Match(s.pattern, routingKey); !ok {
			continue
		}
		if err := s.handler(ctx, routingKey, payload); err != nil {
			p.logger.Error("event handler failed", "routing_key", routingKey, "pattern", s.pattern, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (p *InProcessPublisher) Close() error { return nil }
