// Package session is the synchronization engine behind the live commands: it
// keeps one conversation's local view consistent with the server by layering
// broker frames over REST snapshots, with visibility filtering and optimistic
// sends reconciled against their echoes.
package session

import "fmt"

// Kind distinguishes the two conversation flavors.
type Kind string

const (
	// KindGroup is a persistent conversation with a membership list.
	KindGroup Kind = "group"
	// KindPasskey is an ephemeral conversation addressed by passkey.
	KindPasskey Kind = "passkey"
)

// Conversation identifies a single group or passkey session. At most one is
// active per Synchronizer.
type Conversation struct {
	Kind    Kind
	GroupID int64
	Passkey string
}

// GroupConversation returns a Conversation for a group id.
func GroupConversation(id int64) Conversation {
	return Conversation{Kind: KindGroup, GroupID: id}
}

// PasskeyConversation returns a Conversation for a session passkey.
func PasskeyConversation(passkey string) Conversation {
	return Conversation{Kind: KindPasskey, Passkey: passkey}
}

// Topic is the broker destination carrying this conversation's messages.
func (c Conversation) Topic() string {
	if c.Kind == KindPasskey {
		return "/topic/session/" + c.Passkey
	}
	return fmt.Sprintf("/topic/group/%d", c.GroupID)
}

// TypingTopic is the broker destination for typing indicators. Only group
// conversations have one; it returns "" otherwise.
func (c Conversation) TypingTopic() string {
	if c.Kind != KindGroup {
		return ""
	}
	return fmt.Sprintf("/topic/group/%d/typing", c.GroupID)
}

// TypingSendDestination is the application destination typing updates are
// published to.
func (c Conversation) TypingSendDestination() string {
	if c.Kind != KindGroup {
		return ""
	}
	return fmt.Sprintf("/app/group/%d/typing", c.GroupID)
}

func (c Conversation) String() string {
	if c.Kind == KindPasskey {
		return "session " + c.Passkey
	}
	return fmt.Sprintf("group %d", c.GroupID)
}
