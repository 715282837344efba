package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/passdrive/passdrive-cli/internal/api"
)

// SyncState is the synchronizer lifecycle state.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncLoading
	SyncLive
	SyncSwitching
)

func (s SyncState) String() string {
	switch s {
	case SyncIdle:
		return "idle"
	case SyncLoading:
		return "loading"
	case SyncLive:
		return "live"
	case SyncSwitching:
		return "switching"
	default:
		return fmt.Sprintf("SyncState(%d)", int(s))
	}
}

// SnapshotTimeout bounds the REST history fetch during Select.
var SnapshotTimeout = 15 * time.Second

// SnapshotAPI is the REST surface the synchronizer depends on.
// *api.Client satisfies it.
type SnapshotAPI interface {
	ListMessages(ctx context.Context, groupID int64) ([]api.Message, error)
	SessionFiles(ctx context.Context, passkey string) ([]api.SessionFile, error)
	PostMessage(ctx context.Context, groupID int64, kind, content string) error
}

// TypingPayload is the frame body on a typing topic.
type TypingPayload struct {
	Username string `json:"username"`
	Typing   bool   `json:"typing"`
}

// Synchronizer keeps the local view of one active conversation consistent:
// REST snapshot first, then live frames layered on top through the same
// visibility filter and deduplicating store.
//
// All methods must be called from a single goroutine (the command's event
// loop). Frames arriving on the connection's read goroutine reach
// HandleFrame through that loop, so the core needs no locks.
type Synchronizer struct {
	api    SnapshotAPI
	conn   *Manager
	reg    *Registry
	notify Notifier
	viewer string
	sink   FrameFunc

	state   SyncState
	active  *Conversation
	store   *Store
	handles []Handle
	gen     int // bumped per Select/Leave; stale snapshots check it

	localSeq int
	pending  map[string]api.Message // optimistic local id -> message
	known    map[string]bool        // senders seen in the active conversation
}

// NewSynchronizer wires the engine together. sink receives raw frames from
// the broker read goroutine; the caller routes them back into HandleFrame on
// its own loop.
func NewSynchronizer(apiClient SnapshotAPI, conn *Manager, reg *Registry, viewer string, notify Notifier, sink FrameFunc) *Synchronizer {
	return &Synchronizer{
		api:     apiClient,
		conn:    conn,
		reg:     reg,
		notify:  notify,
		viewer:  viewer,
		sink:    sink,
		store:   NewStore(),
		pending: make(map[string]api.Message),
		known:   make(map[string]bool),
	}
}

// State returns the synchronizer state.
func (s *Synchronizer) State() SyncState { return s.state }

// Active returns the active conversation, or nil.
func (s *Synchronizer) Active() *Conversation {
	if s.active == nil {
		return nil
	}
	c := *s.active
	return &c
}

// Messages returns the current view in display order.
func (s *Synchronizer) Messages() []api.Message { return s.store.Messages() }

// Select makes conv the active conversation: tear down the previous one,
// fetch the authoritative snapshot, filter and merge it, then subscribe for
// live frames. The snapshot is always applied before any live frame because
// the subscription only exists after the merge.
//
// If another Select lands while the snapshot fetch is in flight, the slow
// fetch's result is discarded rather than merged into the wrong view.
func (s *Synchronizer) Select(ctx context.Context, conv Conversation) error {
	prev := s.teardown(ctx)

	s.active = &conv
	s.state = SyncLoading
	s.gen++
	gen := s.gen

	fetchCtx, cancel := context.WithTimeout(ctx, SnapshotTimeout)
	msgs, err := s.snapshot(fetchCtx, conv)
	cancel()

	if s.gen != gen {
		slog.Debug("stale snapshot discarded", "conversation", conv.String())
		return nil
	}
	if err != nil {
		s.active = nil
		s.state = SyncIdle
		return fmt.Errorf("snapshot for %s: %w", conv.String(), err)
	}

	visible := msgs[:0]
	for _, m := range msgs {
		if Visible(m, s.viewer) {
			visible = append(visible, m)
		}
	}
	for _, m := range s.store.Merge(visible) {
		s.known[m.Sender] = true
	}
	s.known[s.viewer] = true

	if err := s.subscribe(ctx, conv); err != nil {
		s.store.Clear()
		s.active = nil
		s.state = SyncIdle
		return err
	}

	s.state = SyncLive
	s.notify.emit(ConversationSwitched{From: prev, To: s.Active()})
	return nil
}

// teardown unsubscribes and clears state for the previous conversation,
// returning it for the ConversationSwitched event.
func (s *Synchronizer) teardown(ctx context.Context) *Conversation {
	prev := s.Active()
	if prev != nil {
		s.state = SyncSwitching
	}
	for _, h := range s.handles {
		s.reg.Unsubscribe(ctx, h)
	}
	s.handles = nil
	s.store.Clear()
	s.pending = make(map[string]api.Message)
	s.known = make(map[string]bool)
	s.active = nil
	return prev
}

func (s *Synchronizer) subscribe(ctx context.Context, conv Conversation) error {
	h, err := s.reg.Subscribe(ctx, conv.Topic(), s.sink)
	if err != nil {
		return err
	}
	s.handles = append(s.handles, h)

	if typing := conv.TypingTopic(); typing != "" {
		th, err := s.reg.Subscribe(ctx, typing, s.sink)
		if err == nil {
			s.handles = append(s.handles, th)
		} else {
			slog.Debug("typing subscription failed", "topic", typing, "error", err)
		}
	}
	return nil
}

// snapshot fetches the durable history for conv. Passkey sessions have no
// message log; their shared-file list is converted into file messages.
func (s *Synchronizer) snapshot(ctx context.Context, conv Conversation) ([]api.Message, error) {
	if conv.Kind == KindGroup {
		return s.api.ListMessages(ctx, conv.GroupID)
	}
	files, err := s.api.SessionFiles(ctx, conv.Passkey)
	if err != nil {
		return nil, err
	}
	msgs := make([]api.Message, 0, len(files))
	for _, f := range files {
		msgs = append(msgs, sessionFileMessage(conv.Passkey, f))
	}
	return msgs, nil
}

func sessionFileMessage(passkey string, f api.SessionFile) api.Message {
	content, err := api.FilePayload{
		FileID:     strconv.FormatInt(f.ID, 10),
		FileName:   f.FileName,
		FileType:   f.FileType,
		Visibility: api.VisibilityAll,
	}.Encode()
	if err != nil {
		content = strconv.FormatInt(f.ID, 10)
	}
	return api.Message{
		ID:        "file-" + strconv.FormatInt(f.ID, 10),
		Passkey:   passkey,
		Sender:    f.UploadedBy,
		Kind:      api.KindFile,
		Content:   content,
		Timestamp: f.UploadedAt,
	}
}

// HandleFrame processes one raw broker frame. Frames for anything other
// than the active conversation are dropped; the registry already unsubscribed
// them, this guards the window where a frame was in flight during a switch.
func (s *Synchronizer) HandleFrame(ctx context.Context, destination string, body []byte) {
	if s.state != SyncLive || s.active == nil {
		slog.Debug("frame dropped, no live conversation", "destination", destination)
		return
	}
	conv := *s.active

	switch destination {
	case conv.TypingTopic():
		s.handleTyping(conv, body)
	case conv.Topic():
		if conv.Kind == KindPasskey {
			s.handleSessionFrame(ctx, conv, body)
		} else {
			s.handleMessage(conv, body)
		}
	default:
		slog.Debug("frame for inactive conversation dropped", "destination", destination, "active", conv.String())
	}
}

func (s *Synchronizer) handleTyping(conv Conversation, body []byte) {
	var t TypingPayload
	if err := json.Unmarshal(body, &t); err != nil || t.Username == "" {
		slog.Debug("malformed typing frame dropped", "error", err)
		return
	}
	if t.Username == s.viewer {
		return
	}
	s.notify.emit(TypingChanged{Conversation: conv, Username: t.Username, Typing: t.Typing})
}

func (s *Synchronizer) handleMessage(conv Conversation, body []byte) {
	var msg api.Message
	if err := json.Unmarshal(body, &msg); err != nil || msg.ID == "" {
		slog.Debug("malformed message frame dropped", "error", err)
		return
	}
	if !Visible(msg, s.viewer) {
		slog.Debug("message hidden by visibility scope", "id", msg.ID, "sender", msg.Sender)
		return
	}

	// A frame from ourselves is usually the echo of an optimistic send;
	// reconcile it in place so the view holds exactly one entry.
	if msg.Sender == s.viewer {
		if localID, ok := s.matchPending(msg); ok {
			delete(s.pending, localID)
			if s.store.ReplaceOptimistic(localID, msg) {
				return
			}
		}
	}

	s.ingest(conv, msg)
}

// handleSessionFrame handles a frame on a session topic. The server pushes
// only the new file's id, so the shared-file list is refetched and merged;
// the store's dedup makes redundant refetches harmless. A full message body
// (newer servers) is merged directly.
func (s *Synchronizer) handleSessionFrame(ctx context.Context, conv Conversation, body []byte) {
	var msg api.Message
	if err := json.Unmarshal(body, &msg); err == nil && msg.ID != "" {
		s.handleMessage(conv, body)
		return
	}

	gen := s.gen
	fetchCtx, cancel := context.WithTimeout(ctx, SnapshotTimeout)
	files, err := s.api.SessionFiles(fetchCtx, conv.Passkey)
	cancel()
	if err != nil {
		slog.Warn("session refresh failed", "passkey", conv.Passkey, "error", err)
		return
	}
	if s.gen != gen || s.active == nil || *s.active != conv {
		slog.Debug("stale session refresh discarded", "passkey", conv.Passkey)
		return
	}
	for _, f := range files {
		s.ingest(conv, sessionFileMessage(conv.Passkey, f))
	}
}

// ingest merges one message and emits events for what actually changed.
func (s *Synchronizer) ingest(conv Conversation, msg api.Message) {
	added := s.store.Merge([]api.Message{msg})
	for _, m := range added {
		if !s.known[m.Sender] {
			s.known[m.Sender] = true
			if m.Sender != s.viewer {
				s.notify.emit(MembershipChanged{Conversation: conv, Username: m.Sender, Joined: true})
			}
		}
		s.notify.emit(MessageReceived{Conversation: conv, Message: m})
	}
}

// matchPending finds the oldest optimistic message matching the echo by
// kind and content.
func (s *Synchronizer) matchPending(echo api.Message) (string, bool) {
	var bestID string
	var bestSeq int
	for localID, m := range s.pending {
		if m.Kind != echo.Kind || m.Content != echo.Content {
			continue
		}
		seq, err := strconv.Atoi(localID[len("local-"):])
		if err != nil {
			continue
		}
		if bestID == "" || seq < bestSeq {
			bestID, bestSeq = localID, seq
		}
	}
	return bestID, bestID != ""
}

// Send durably posts a text message to the active group conversation. The
// message appears in the local view immediately under a placeholder id; if
// the post fails the placeholder is rolled back and the error reported.
func (s *Synchronizer) Send(ctx context.Context, text string) error {
	return s.send(ctx, api.KindText, text)
}

// ShareFile posts a file-reference message carrying a visibility scope.
func (s *Synchronizer) ShareFile(ctx context.Context, payload api.FilePayload) error {
	content, err := payload.Encode()
	if err != nil {
		return fmt.Errorf("encode file payload: %w", err)
	}
	return s.send(ctx, api.KindFile, content)
}

func (s *Synchronizer) send(ctx context.Context, kind, content string) error {
	if s.state != SyncLive || s.active == nil {
		return fmt.Errorf("no active conversation")
	}
	conv := *s.active
	if conv.Kind != KindGroup {
		return fmt.Errorf("sending messages requires a group conversation, %s is a passkey session", conv.String())
	}

	s.localSeq++
	localID := "local-" + strconv.Itoa(s.localSeq)
	msg := api.Message{
		ID:        localID,
		GroupID:   conv.GroupID,
		Sender:    s.viewer,
		Kind:      kind,
		Content:   content,
		Timestamp: time.Now(),
	}
	s.store.Merge([]api.Message{msg})
	s.pending[localID] = msg

	if err := s.api.PostMessage(ctx, conv.GroupID, kind, content); err != nil {
		s.store.Remove(localID)
		delete(s.pending, localID)
		return err
	}
	return nil
}

// SendTyping publishes a typing indicator for the active group conversation.
// Best-effort.
func (s *Synchronizer) SendTyping(ctx context.Context, typing bool) error {
	if s.state != SyncLive || s.active == nil || s.active.Kind != KindGroup {
		return nil
	}
	body, err := json.Marshal(TypingPayload{Username: s.viewer, Typing: typing})
	if err != nil {
		return err
	}
	return s.conn.Publish(ctx, s.active.TypingSendDestination(), body)
}

// Leave deactivates the current conversation: unsubscribe, clear the view,
// back to Idle.
func (s *Synchronizer) Leave(ctx context.Context) {
	if s.active == nil {
		return
	}
	prev := s.teardown(ctx)
	s.gen++
	s.state = SyncIdle
	s.notify.emit(ConversationSwitched{From: prev, To: nil})
}

// Close is Leave plus nothing else today; the connection belongs to the
// Manager.
func (s *Synchronizer) Close(ctx context.Context) {
	s.Leave(ctx)
}
