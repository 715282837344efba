package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/passdrive/passdrive-cli/internal/stomp"
)

// ConnState is the broker connection lifecycle state.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateErrored
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("ConnState(%d)", int(s))
	}
}

const (
	// ReconnectDelay is the fixed wait between reconnect attempts.
	ReconnectDelay = 2 * time.Second
	// MaxReconnectAttempts bounds how many consecutive attempts are made
	// before giving up. REST stays usable after exhaustion.
	MaxReconnectAttempts = 5
)

// ErrReconnectExhausted is returned after MaxReconnectAttempts consecutive
// failures. The manager stays in StateErrored until Connect is called again.
var ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

// Manager owns the broker connection: it dials, keeps heartbeats flowing,
// reconnects on transport failures with a fixed delay and bounded attempts,
// and replays the registry's subscriptions on every successful (re)connect.
//
// Auth rejection is fatal: a server that refuses the CONNECT will refuse it
// again, so retrying would only mask the real problem.
type Manager struct {
	registry *Registry
	notify   Notifier

	dial        func(ctx context.Context) (transport, error)
	delay       time.Duration
	maxAttempts int

	mu     sync.Mutex
	state  ConnState
	conn   transport
	cancel context.CancelFunc
	gen    int // connection generation, stale read loops check it before acting
}

// NewManager returns a manager dialing the given broker URL with the given
// bearer token.
func NewManager(brokerURL, token string, registry *Registry, notify Notifier) *Manager {
	return &Manager{
		registry: registry,
		notify:   notify,
		dial: func(ctx context.Context) (transport, error) {
			return stomp.Dial(ctx, brokerURL, token)
		},
		delay:       ReconnectDelay,
		maxAttempts: MaxReconnectAttempts,
	}
}

// State returns the current connection state.
func (m *Manager) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setState(state ConnState, attempt int, err error) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
	m.notify.emit(ConnectionStateChanged{State: state, Attempt: attempt, Err: err})
}

// Connect establishes the broker connection, retrying transport failures up
// to MaxReconnectAttempts with the fixed delay. Idempotent: a live
// connection is torn down first. Returns stomp.ErrConnectRefused unwrapped
// in the chain when credentials are rejected.
func (m *Manager) Connect(ctx context.Context) error {
	m.Disconnect()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	return m.connectLoop(ctx, runCtx, 0)
}

// connectLoop runs the bounded attempt sequence. attemptBase is 0 for the
// initial connect and grows across invocations only in logs.
func (m *Manager) connectLoop(dialCtx, runCtx context.Context, attemptBase int) error {
	var lastErr error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		if runCtx.Err() != nil {
			return runCtx.Err()
		}
		m.setState(StateConnecting, attemptBase+attempt, lastErr)

		conn, err := m.dial(dialCtx)
		if err != nil {
			if errors.Is(err, stomp.ErrConnectRefused) {
				m.setState(StateErrored, attemptBase+attempt, err)
				return err
			}
			lastErr = err
			slog.Debug("broker dial failed", "attempt", attemptBase+attempt, "error", err)
			if attempt < m.maxAttempts {
				if err := sleepUnlessDone(runCtx, m.delay); err != nil {
					return err
				}
			}
			continue
		}

		m.mu.Lock()
		m.conn = conn
		m.gen++
		gen := m.gen
		m.mu.Unlock()

		m.setState(StateConnected, 0, nil)
		if err := m.registry.Attach(runCtx, conn); err != nil {
			slog.Debug("resubscribe after connect failed", "error", err)
		}
		conn.StartHeartbeat(runCtx, nil)
		go m.readLoop(runCtx, conn, gen)
		return nil
	}

	err := fmt.Errorf("%w after %d attempts: %v", ErrReconnectExhausted, m.maxAttempts, lastErr)
	m.setState(StateErrored, attemptBase+m.maxAttempts, err)
	return err
}

// readLoop pumps frames from one connection into the registry until the
// connection dies, then starts the reconnect sequence unless it has been
// superseded.
func (m *Manager) readLoop(runCtx context.Context, conn transport, gen int) {
	for ev := range conn.Listen(runCtx) {
		if ev.Err != nil {
			if runCtx.Err() != nil {
				return
			}
			m.mu.Lock()
			stale := m.gen != gen
			m.mu.Unlock()
			if stale {
				return
			}
			slog.Debug("broker connection lost", "error", ev.Err)
			m.registry.Detach()
			_ = conn.Close()
			if err := m.connectLoop(runCtx, runCtx, 0); err != nil {
				slog.Debug("reconnect failed", "error", err)
			}
			return
		}
		m.registry.Dispatch(ev.Destination, ev.Body)
	}
}

// Publish sends a payload to an application destination. Best-effort: when
// not connected it logs and reports nothing, matching how typing indicators
// degrade.
func (m *Manager) Publish(ctx context.Context, destination string, body []byte) error {
	m.mu.Lock()
	conn := m.conn
	connected := m.state == StateConnected
	m.mu.Unlock()

	if !connected || conn == nil {
		slog.Debug("publish skipped, not connected", "destination", destination)
		return nil
	}
	return conn.Send(ctx, destination, body)
}

// Disconnect tears the connection down. Never fails; pending reconnect
// timers are cancelled and the state becomes Disconnected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	cancel := m.cancel
	conn := m.conn
	m.cancel = nil
	m.conn = nil
	m.gen++
	wasDisconnected := m.state == StateDisconnected
	m.state = StateDisconnected
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	m.registry.Detach()
	if !wasDisconnected {
		m.notify.emit(ConnectionStateChanged{State: StateDisconnected})
	}
}

func sleepUnlessDone(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
