package session

import "github.com/passdrive/passdrive-cli/internal/api"

// Visible reports whether viewer may see msg. Text messages are always
// visible. File messages honor the payload's visibility scope:
//
//   - the sender always sees their own file
//   - "all" (or no scope) is visible to everyone
//   - "selected" is visible only to the listed users; an empty or absent
//     list means sender-only
//
// A content that does not parse as a structured payload is shown (older
// clients sent a bare file id, hiding those would silently drop real files).
//
// The same function runs on snapshot history and on live frames so the two
// paths can never disagree.
func Visible(msg api.Message, viewer string) bool {
	if msg.Kind != api.KindFile {
		return true
	}
	if msg.Sender == viewer {
		return true
	}
	payload, ok := api.ParseFilePayload(msg.Content)
	if !ok {
		return true
	}
	if payload.Visibility != api.VisibilitySelected {
		return true
	}
	for _, u := range payload.VisibleTo {
		if u == viewer {
			return true
		}
	}
	return false
}
