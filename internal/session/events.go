package session

import "github.com/passdrive/passdrive-cli/internal/api"

// Event is a typed notification from the engine. The command layer consumes
// these on its own goroutine; the engine never blocks on a consumer.
type Event interface{ event() }

// Notifier receives engine events. A nil Notifier is valid and drops them.
type Notifier func(Event)

func (n Notifier) emit(ev Event) {
	if n != nil {
		n(ev)
	}
}

// ConnectionStateChanged reports a connection state transition. Attempt is
// non-zero during reconnect attempts; Err carries the triggering failure.
type ConnectionStateChanged struct {
	State   ConnState
	Attempt int
	Err     error
}

// MessageReceived reports a message newly added to the live view by a
// broker frame or session refresh. Snapshot history is read via Messages
// after Select; it is not replayed as events.
type MessageReceived struct {
	Conversation Conversation
	Message      api.Message
}

// MembershipChanged reports a participant appearing in (or leaving) the
// active conversation.
type MembershipChanged struct {
	Conversation Conversation
	Username     string
	Joined       bool
}

// ConversationSwitched reports the active conversation changing. From is nil
// on first selection; To is nil after Leave.
type ConversationSwitched struct {
	From *Conversation
	To   *Conversation
}

// TypingChanged reports another participant starting or stopping typing.
type TypingChanged struct {
	Conversation Conversation
	Username     string
	Typing       bool
}

func (ConnectionStateChanged) event() {}
func (MessageReceived) event()        {}
func (MembershipChanged) event()      {}
func (ConversationSwitched) event()   {}
func (TypingChanged) event()          {}
