// Package agentfmt shapes API types into compact, agent-friendly JSON
// envelopes for --output agent mode.
package agentfmt

import (
	"strings"
	"time"

	"github.com/passdrive/passdrive-cli/internal/api"
)

// Payload marks a value as already agent-formatted.
type Payload interface {
	AgentPayload() any
}

// Timestamp provides both Unix and ISO-8601 representations.
type Timestamp struct {
	Unix int64  `json:"unix"`
	ISO  string `json:"iso"`
}

// FileRef summarizes the file attached to a file-share message.
type FileRef struct {
	ID         string   `json:"id"`
	Name       string   `json:"name,omitempty"`
	Size       int64    `json:"size,omitempty"`
	Type       string   `json:"type,omitempty"`
	Visibility string   `json:"visibility,omitempty"`
	VisibleTo  []string `json:"visible_to,omitempty"`
}

// MessageSummary is a compact, agent-friendly view of a chat message.
type MessageSummary struct {
	ID        string     `json:"id"`
	GroupID   int64      `json:"group_id,omitempty"`
	Passkey   string     `json:"passkey,omitempty"`
	Type      string     `json:"type"`
	Sender    string     `json:"sender"`
	Content   string     `json:"content,omitempty"`
	File      *FileRef   `json:"file,omitempty"`
	Timestamp *Timestamp `json:"timestamp,omitempty"`
}

// GroupSummary is a compact, agent-friendly view of a group.
type GroupSummary struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	CreatedBy   string     `json:"created_by,omitempty"`
	MemberCount int        `json:"member_count"`
	Members     []string   `json:"members,omitempty"`
	CreatedAt   *Timestamp `json:"created_at,omitempty"`
}

// SessionSummary is a compact, agent-friendly view of an ephemeral session.
type SessionSummary struct {
	Passkey          string     `json:"passkey"`
	CreatedBy        string     `json:"created_by,omitempty"`
	ParticipantCount int        `json:"participant_count"`
	Participants     []string   `json:"participants,omitempty"`
	CreatedAt        *Timestamp `json:"created_at,omitempty"`
}

// SessionFileSummary is a compact view of a file shared in a session.
type SessionFileSummary struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Type       string     `json:"type,omitempty"`
	UploadedBy string     `json:"uploaded_by,omitempty"`
	UploadedAt *Timestamp `json:"uploaded_at,omitempty"`
}

// DriveFileSummary is a compact view of a file in the user's drive.
type DriveFileSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// ListEnvelope wraps list outputs.
type ListEnvelope struct {
	Kind    string         `json:"kind"`
	Items   any            `json:"items"`
	HasMore *bool          `json:"has_more,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// ItemEnvelope wraps single-item outputs.
type ItemEnvelope struct {
	Kind string `json:"kind"`
	Item any    `json:"item"`
}

// DataEnvelope wraps untyped outputs.
type DataEnvelope struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// ErrorEnvelope wraps structured errors in agent mode.
type ErrorEnvelope struct {
	Kind  string               `json:"kind"`
	Error *api.StructuredError `json:"error"`
}

func (e ListEnvelope) AgentPayload() any  { return e }
func (e ItemEnvelope) AgentPayload() any  { return e }
func (e DataEnvelope) AgentPayload() any  { return e }
func (e ErrorEnvelope) AgentPayload() any { return e }

// KindFromCommandPath converts a cobra CommandPath to a dotted kind string.
func KindFromCommandPath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "pd ")
	parts := strings.Fields(path)
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, ".")
}

// Transform wraps known API types into agent-friendly structures.
func Transform(kind string, v any) any {
	if payload, ok := v.(Payload); ok {
		return payload.AgentPayload()
	}

	switch val := v.(type) {
	case api.StructuredError:
		return ErrorEnvelope{Kind: kind, Error: &val}
	case *api.StructuredError:
		return ErrorEnvelope{Kind: kind, Error: val}
	case api.Message:
		return ItemEnvelope{Kind: kind, Item: MessageSummaryFromMessage(val)}
	case *api.Message:
		if val == nil {
			return ItemEnvelope{Kind: kind, Item: nil}
		}
		return ItemEnvelope{Kind: kind, Item: MessageSummaryFromMessage(*val)}
	case []api.Message:
		return ListEnvelope{Kind: kind, Items: MessageSummaries(val)}
	case api.Group:
		return ItemEnvelope{Kind: kind, Item: GroupSummaryFromGroup(val)}
	case *api.Group:
		if val == nil {
			return ItemEnvelope{Kind: kind, Item: nil}
		}
		return ItemEnvelope{Kind: kind, Item: GroupSummaryFromGroup(*val)}
	case []api.Group:
		return ListEnvelope{Kind: kind, Items: GroupSummaries(val)}
	case api.Session:
		return ItemEnvelope{Kind: kind, Item: SessionSummaryFromSession(val)}
	case *api.Session:
		if val == nil {
			return ItemEnvelope{Kind: kind, Item: nil}
		}
		return ItemEnvelope{Kind: kind, Item: SessionSummaryFromSession(*val)}
	case []api.SessionFile:
		return ListEnvelope{Kind: kind, Items: SessionFileSummaries(val)}
	case []api.DriveFile:
		return ListEnvelope{Kind: kind, Items: DriveFileSummaries(val)}
	default:
		return DataEnvelope{Kind: kind, Data: v}
	}
}

// TransformListItems converts list item slices to agent summaries when supported.
func TransformListItems(items any) any {
	switch val := items.(type) {
	case []api.Message:
		return MessageSummaries(val)
	case []api.Group:
		return GroupSummaries(val)
	case []api.SessionFile:
		return SessionFileSummaries(val)
	case []api.DriveFile:
		return DriveFileSummaries(val)
	default:
		return items
	}
}

func MessageSummaries(messages []api.Message) []MessageSummary {
	if len(messages) == 0 {
		return nil
	}
	out := make([]MessageSummary, 0, len(messages))
	for _, msg := range messages {
		out = append(out, MessageSummaryFromMessage(msg))
	}
	return out
}

func MessageSummaryFromMessage(msg api.Message) MessageSummary {
	summary := MessageSummary{
		ID:        msg.ID,
		GroupID:   msg.GroupID,
		Passkey:   msg.Passkey,
		Type:      msg.Kind,
		Sender:    msg.Sender,
		Timestamp: timestampOrNil(msg.Timestamp),
	}
	if msg.Kind == api.KindFile {
		if payload, ok := api.ParseFilePayload(msg.Content); ok {
			summary.File = &FileRef{
				ID:         payload.FileID,
				Name:       payload.FileName,
				Size:       payload.FileSize,
				Type:       payload.FileType,
				Visibility: payload.Visibility,
				VisibleTo:  payload.VisibleTo,
			}
			return summary
		}
	}
	summary.Content = msg.Content
	return summary
}

func GroupSummaries(groups []api.Group) []GroupSummary {
	if len(groups) == 0 {
		return nil
	}
	out := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupSummaryFromGroup(g))
	}
	return out
}

func GroupSummaryFromGroup(g api.Group) GroupSummary {
	return GroupSummary{
		ID:          g.ID,
		Name:        g.Name,
		CreatedBy:   g.CreatedBy,
		MemberCount: len(g.Members),
		Members:     g.Members,
		CreatedAt:   timestampOrNil(g.CreatedAt),
	}
}

func SessionSummaryFromSession(s api.Session) SessionSummary {
	return SessionSummary{
		Passkey:          s.Passkey,
		CreatedBy:        s.CreatedBy,
		ParticipantCount: len(s.Participants),
		Participants:     s.Participants,
		CreatedAt:        timestampOrNil(s.CreatedAt),
	}
}

func SessionFileSummaries(files []api.SessionFile) []SessionFileSummary {
	if len(files) == 0 {
		return nil
	}
	out := make([]SessionFileSummary, 0, len(files))
	for _, f := range files {
		out = append(out, SessionFileSummary{
			ID:         f.ID,
			Name:       f.FileName,
			Type:       f.FileType,
			UploadedBy: f.UploadedBy,
			UploadedAt: timestampOrNil(f.UploadedAt),
		})
	}
	return out
}

func DriveFileSummaries(files []api.DriveFile) []DriveFileSummary {
	if len(files) == 0 {
		return nil
	}
	out := make([]DriveFileSummary, 0, len(files))
	for _, f := range files {
		out = append(out, DriveFileSummary{
			ID:   f.ID,
			Name: f.FileName,
			Type: f.FileType,
			Size: f.FileSize,
		})
	}
	return out
}

func timestampOrNil(t time.Time) *Timestamp {
	if t.IsZero() {
		return nil
	}
	return &Timestamp{
		Unix: t.Unix(),
		ISO:  t.UTC().Format(time.RFC3339),
	}
}
