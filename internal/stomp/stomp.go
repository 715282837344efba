// Package stomp is a minimal STOMP 1.2 client over WebSocket, covering the
// subset the PassDrive broker speaks: CONNECT/CONNECTED, SUBSCRIBE,
// UNSUBSCRIBE, SEND, MESSAGE, ERROR, and LF heartbeats.
package stomp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// DefaultHeartbeat is offered to the server in both directions during the
// CONNECT handshake (milliseconds on the wire).
var DefaultHeartbeat = 10 * time.Second

// DefaultReadTimeout is how long we wait without receiving any frame
// (including server heartbeats) before treating the connection as dead.
var DefaultReadTimeout = 25 * time.Second

// ErrHeartbeatTimeout is returned when no frames arrive within the read timeout.
var ErrHeartbeatTimeout = errors.New("heartbeat timeout: no frames received")

// ErrConnectRefused is returned when the server answers CONNECT with ERROR.
// The PassDrive broker does this for rejected credentials, so callers treat
// it as an auth failure rather than a transport failure.
var ErrConnectRefused = errors.New("connect refused")

var errHeartbeatFrame = errors.New("heartbeat frame")

// Event is a message received from the broker.
type Event struct {
	Destination string
	Body        []byte
	Err         error // non-nil on read error, ERROR frame, or disconnect
}

// Client is a connected STOMP session. Writes are serialized internally so
// Subscribe/Send and the heartbeat ticker can run from different goroutines.
type Client struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	heartbeat time.Duration // negotiated client->server interval, 0 = none
}

// Frames larger than this are malformed for our payloads (small JSON).
const maxReadSize = 1 << 20 // 1 MB

// Dial opens the WebSocket, performs the STOMP handshake, and returns a
// connected client. token, when non-empty, is sent as a bearer credential.
func Dial(ctx context.Context, url, token string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{"v12.stomp", "v11.stomp"},
	})
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	conn.SetReadLimit(maxReadSize)

	hb := int64(DefaultHeartbeat / time.Millisecond)
	connect := &frame{command: "CONNECT"}
	connect.addHeader("accept-version", "1.2,1.1")
	connect.addHeader("heart-beat", fmt.Sprintf("%d,%d", hb, hb))
	if token != "" {
		connect.addHeader("Authorization", "Bearer "+token)
	}
	if err := conn.Write(ctx, websocket.MessageText, connect.marshal()); err != nil {
		_ = conn.CloseNow()
		return nil, fmt.Errorf("write connect: %w", err)
	}

	// Wait for CONNECTED, skipping any heartbeats that arrive first.
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			_ = conn.CloseNow()
			return nil, fmt.Errorf("read connected: %w", err)
		}
		if isHeartbeat(data) {
			continue
		}
		f, err := parseFrame(data)
		if err != nil {
			_ = conn.CloseNow()
			return nil, fmt.Errorf("parse connected: %w", err)
		}
		switch f.command {
		case "CONNECTED":
			return &Client{
				conn:      conn,
				heartbeat: negotiatedSendInterval(f.header("heart-beat"), DefaultHeartbeat),
			}, nil
		case "ERROR":
			reason := f.header("message")
			if reason == "" {
				reason = strings.TrimSpace(string(f.body))
			}
			_ = conn.CloseNow()
			return nil, fmt.Errorf("%w: %s", ErrConnectRefused, reason)
		default:
			_ = conn.CloseNow()
			return nil, fmt.Errorf("expected CONNECTED, got %q", f.command)
		}
	}
}

// negotiatedSendInterval derives the client->server heartbeat interval from
// the server's "sx,sy" heart-beat header: we must send at least every sy ms.
func negotiatedSendInterval(header string, offered time.Duration) time.Duration {
	_, sy, ok := strings.Cut(header, ",")
	if !ok {
		return offered
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(sy), 10, 64)
	if err != nil || ms <= 0 {
		return 0 // server wants no client heartbeats
	}
	want := time.Duration(ms) * time.Millisecond
	if offered > 0 && offered < want {
		return offered
	}
	return want
}

// Close gracefully closes the connection.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}

func (c *Client) write(ctx context.Context, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// Subscribe issues a SUBSCRIBE for destination under the given id. The
// broker does not acknowledge subscriptions, so this returns once the frame
// is written.
func (c *Client) Subscribe(ctx context.Context, id, destination string) error {
	f := &frame{command: "SUBSCRIBE"}
	f.addHeader("id", id)
	f.addHeader("destination", destination)
	f.addHeader("ack", "auto")
	if err := c.write(ctx, f.marshal()); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// Unsubscribe cancels the subscription with the given id.
func (c *Client) Unsubscribe(ctx context.Context, id string) error {
	f := &frame{command: "UNSUBSCRIBE"}
	f.addHeader("id", id)
	if err := c.write(ctx, f.marshal()); err != nil {
		return fmt.Errorf("write unsubscribe: %w", err)
	}
	return nil
}

// Send publishes body to destination as application/json.
func (c *Client) Send(ctx context.Context, destination string, body []byte) error {
	f := &frame{command: "SEND", body: body}
	f.addHeader("destination", destination)
	f.addHeader("content-type", "application/json")
	f.addHeader("content-length", strconv.Itoa(len(body)))
	if err := c.write(ctx, f.marshal()); err != nil {
		return fmt.Errorf("write send: %w", err)
	}
	return nil
}

// StartHeartbeat sends LF heartbeats at the negotiated interval until ctx is
// cancelled. If onError is non-nil it is called once on the first write
// failure before the goroutine exits.
func (c *Client) StartHeartbeat(ctx context.Context, onError func(error)) {
	if c.heartbeat <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(c.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.write(ctx, []byte("\n")); err != nil {
					if onError != nil && ctx.Err() == nil {
						onError(fmt.Errorf("heartbeat write: %w", err))
					}
					return
				}
			}
		}
	}()
}

// Listen starts the read loop and returns a channel of events. Heartbeats
// and RECEIPT frames are handled silently. The channel closes when the
// connection drops or ctx is cancelled.
//
// A rolling read deadline detects half-dead connections: if nothing
// (including heartbeats) arrives within DefaultReadTimeout, the connection
// is treated as dead and ErrHeartbeatTimeout is emitted.
func (c *Client) Listen(ctx context.Context) <-chan Event {
	return c.ListenWithTimeout(ctx, DefaultReadTimeout)
}

// ListenWithTimeout is like Listen with a configurable read timeout.
// Use 0 to disable the timeout (not recommended in production).
func (c *Client) ListenWithTimeout(ctx context.Context, readTimeout time.Duration) <-chan Event {
	ch := make(chan Event, 64)
	go func() {
		defer close(ch)
		for {
			readCtx := ctx
			var cancel context.CancelFunc
			if readTimeout > 0 {
				readCtx, cancel = context.WithTimeout(ctx, readTimeout)
			}

			_, data, err := c.conn.Read(readCtx)

			if cancel != nil {
				cancel()
			}

			if err != nil {
				// Distinguish a silent connection from parent cancellation.
				if readTimeout > 0 && ctx.Err() == nil && readCtx.Err() != nil {
					err = ErrHeartbeatTimeout
				}
				select {
				case ch <- Event{Err: err}:
				case <-ctx.Done():
				}
				return
			}

			if isHeartbeat(data) {
				continue
			}
			f, err := parseFrame(data)
			if err != nil {
				continue // skip malformed frames
			}

			switch f.command {
			case "MESSAGE":
				select {
				case ch <- Event{Destination: f.header("destination"), Body: f.body}:
				case <-ctx.Done():
					return
				}
			case "ERROR":
				reason := f.header("message")
				if reason == "" {
					reason = strings.TrimSpace(string(f.body))
				}
				select {
				case ch <- Event{Err: fmt.Errorf("broker error: %s", reason)}:
				case <-ctx.Done():
				}
				return
			case "RECEIPT":
				continue
			}
		}
	}()
	return ch
}
