package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/passdrive/passdrive-cli/internal/stomp"
)

// transport is the broker connection surface the engine needs. Satisfied by
// *stomp.Client; tests substitute a fake.
type transport interface {
	Subscribe(ctx context.Context, id, destination string) error
	Unsubscribe(ctx context.Context, id string) error
	Send(ctx context.Context, destination string, body []byte) error
	Listen(ctx context.Context) <-chan stomp.Event
	StartHeartbeat(ctx context.Context, onError func(error))
	Close() error
}

// FrameFunc receives raw frames for a destination. Called from the
// connection's read goroutine; implementations must hand off, not block.
type FrameFunc func(destination string, body []byte)

// Handle identifies one subscription for Unsubscribe.
type Handle struct {
	id    string
	topic string
}

type subscription struct {
	id      string
	topic   string
	onFrame FrameFunc
}

// Registry tracks the desired set of broker subscriptions and routes inbound
// frames by destination. Desired state survives disconnects: after a
// reconnect, ResubscribeAll replays every registration on the new socket.
type Registry struct {
	mu     sync.Mutex
	conn   transport
	subs   map[string]*subscription // by topic
	nextID int
}

// NewRegistry returns an empty registry, not yet attached to a connection.
func NewRegistry() *Registry {
	return &Registry{subs: make(map[string]*subscription)}
}

// Subscribe registers interest in a topic. A second subscription to the same
// topic replaces the first. When no connection is attached the registration
// is recorded anyway; ResubscribeAll wires it once the socket comes up.
func (r *Registry) Subscribe(ctx context.Context, topic string, onFrame FrameFunc) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.subs[topic]; ok && r.conn != nil {
		if err := r.conn.Unsubscribe(ctx, prev.id); err != nil {
			slog.Debug("unsubscribe of replaced subscription failed", "topic", topic, "error", err)
		}
	}

	r.nextID++
	sub := &subscription{
		id:      fmt.Sprintf("sub-%d", r.nextID),
		topic:   topic,
		onFrame: onFrame,
	}
	r.subs[topic] = sub

	if r.conn == nil {
		slog.Debug("not connected, subscription deferred", "topic", topic)
		return Handle{id: sub.id, topic: topic}, nil
	}
	if err := r.conn.Subscribe(ctx, sub.id, topic); err != nil {
		return Handle{}, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return Handle{id: sub.id, topic: topic}, nil
}

// Unsubscribe drops a subscription. Idempotent; a stale handle (already
// replaced or removed) is a no-op.
func (r *Registry) Unsubscribe(ctx context.Context, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subs[h.topic]
	if !ok || sub.id != h.id {
		return
	}
	delete(r.subs, h.topic)
	if r.conn != nil {
		if err := r.conn.Unsubscribe(ctx, sub.id); err != nil {
			slog.Debug("unsubscribe failed", "topic", h.topic, "error", err)
		}
	}
}

// Attach binds the registry to a live connection and replays every
// registered subscription on it. Called on each transition into Connected.
func (r *Registry) Attach(ctx context.Context, conn transport) error {
	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()
	return r.ResubscribeAll(ctx)
}

// Detach drops the connection binding. Registrations are kept for the next
// Attach.
func (r *Registry) Detach() {
	r.mu.Lock()
	r.conn = nil
	r.mu.Unlock()
}

// ResubscribeAll replays every registered subscription on the attached
// connection.
func (r *Registry) ResubscribeAll(ctx context.Context) error {
	r.mu.Lock()
	conn := r.conn
	subs := make([]*subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		subs = append(subs, sub)
	}
	r.mu.Unlock()

	if conn == nil {
		return nil
	}
	for _, sub := range subs {
		if err := conn.Subscribe(ctx, sub.id, sub.topic); err != nil {
			return fmt.Errorf("resubscribe %s: %w", sub.topic, err)
		}
	}
	return nil
}

// Dispatch routes an inbound frame to the handler registered for its
// destination. Frames for unknown destinations are dropped with a debug log.
func (r *Registry) Dispatch(destination string, body []byte) {
	r.mu.Lock()
	sub, ok := r.subs[destination]
	r.mu.Unlock()

	if !ok {
		slog.Debug("frame for unsubscribed destination dropped", "destination", destination)
		return
	}
	sub.onFrame(destination, body)
}
