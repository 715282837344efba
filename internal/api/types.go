package api

import (
	"encoding/json"
	"strings"
	"time"
)

// Message kinds as they appear on the wire.
const (
	KindText = "text"
	KindFile = "file"
)

// File visibility scopes as they appear inside a file message payload.
const (
	VisibilityAll      = "all"
	VisibilitySelected = "selected"
)

// Message is one chat entry in a group or passkey session. ID is assigned by
// the server and is the deduplication key; optimistic local sends carry a
// placeholder ID until the server echo arrives.
type Message struct {
	ID        string    `json:"id"`
	GroupID   int64     `json:"groupId,omitempty"`
	Passkey   string    `json:"passkey,omitempty"`
	Sender    string    `json:"senderUsername"`
	Kind      string    `json:"type"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// FilePayload is the JSON document carried in the Content of a file message.
// Legacy clients sent a bare file id string instead; ParseFilePayload
// tolerates that.
type FilePayload struct {
	FileID     string   `json:"fileId"`
	FileName   string   `json:"fileName"`
	FileSize   int64    `json:"fileSize,omitempty"`
	FileType   string   `json:"fileType,omitempty"`
	Visibility string   `json:"visibility,omitempty"`
	VisibleTo  []string `json:"visibleTo,omitempty"`
}

// ParseFilePayload decodes a file message's Content. The second return is
// false when the content is not a structured payload (legacy bare-id
// format); the caller gets a minimal payload and decides how to treat it.
func ParseFilePayload(content string) (FilePayload, bool) {
	var p FilePayload
	if err := json.Unmarshal([]byte(content), &p); err != nil || p.FileID == "" {
		return FilePayload{FileID: strings.TrimSpace(content), FileName: "File"}, false
	}
	return p, true
}

// Encode serializes the payload for a file message's Content field.
func (p FilePayload) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Group is a persistent conversation with a membership list.
type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"createdBy"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is an ephemeral passkey conversation.
type Session struct {
	Passkey      string    `json:"passkey"`
	CreatedBy    string    `json:"createdBy"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SessionFile is one shared file inside a passkey session.
type SessionFile struct {
	ID         int64     `json:"id"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	UploadedBy string    `json:"uploadedBy"`
	UploadedAt time.Time `json:"uploadedAt"`
}
