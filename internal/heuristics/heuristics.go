// Package heuristics provides group activity analysis for agent assistance.
package heuristics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/passdrive/passdrive-cli/internal/api"
)

// ParticipantStat counts one member's contributions to a group.
type ParticipantStat struct {
	Username string `json:"username"`
	Messages int    `json:"messages"`
	Files    int    `json:"files"`
}

// Analysis contains the results of group history analysis.
type Analysis struct {
	MessageCount  int               `json:"message_count"`
	FileCount     int               `json:"file_count"`
	Participants  []ParticipantStat `json:"participants,omitempty"`
	LastSender    string            `json:"last_sender,omitempty"`
	LastActivity  string            `json:"last_activity,omitempty"`
	IdleFor       string            `json:"idle_for,omitempty"`
	OpenQuestion  bool              `json:"open_question"`
	UrgencyHint   string            `json:"urgency_hint"` // "high", "medium", "low"
	UrgencyReason []string          `json:"urgency_reasons,omitempty"`
}

// SuggestedAction represents a recommended next step for a group.
type SuggestedAction struct {
	Action   string `json:"action"`   // "reply", "download", "catch_up"
	Reason   string `json:"reason"`   // explanation of why this action is suggested
	Priority string `json:"priority"` // "high", "medium", "low"
}

var (
	urgencyKeywords  = []string{"urgent", "asap", "immediately", "emergency", "blocker"}
	questionMarkers  = []string{"?", "？"}
	addressedMarkers = []string{"@"}
)

// AnalyzeGroup analyzes a group's message history from the viewer's
// perspective. now is injected so tests can pin idle-time math.
func AnalyzeGroup(messages []api.Message, viewer string, now time.Time) *Analysis {
	analysis := &Analysis{UrgencyHint: "low"}
	if len(messages) == 0 {
		return analysis
	}

	stats := make(map[string]*ParticipantStat)
	for _, msg := range messages {
		analysis.MessageCount++
		st, ok := stats[msg.Sender]
		if !ok {
			st = &ParticipantStat{Username: msg.Sender}
			stats[msg.Sender] = st
		}
		st.Messages++
		if msg.Kind == api.KindFile {
			st.Files++
			analysis.FileCount++
		}
	}

	analysis.Participants = make([]ParticipantStat, 0, len(stats))
	for _, st := range stats {
		analysis.Participants = append(analysis.Participants, *st)
	}
	sort.Slice(analysis.Participants, func(i, j int) bool {
		a, b := analysis.Participants[i], analysis.Participants[j]
		if a.Messages != b.Messages {
			return a.Messages > b.Messages
		}
		return a.Username < b.Username
	})

	last := messages[len(messages)-1]
	analysis.LastSender = last.Sender
	if !last.Timestamp.IsZero() {
		analysis.LastActivity = last.Timestamp.UTC().Format(time.RFC3339)
		analysis.IdleFor = formatDuration(now.Sub(last.Timestamp))
	}

	// A trailing question from someone else is an open question for the viewer.
	if last.Sender != viewer && last.Kind == api.KindText &&
		containsAnyKeyword(last.Content, questionMarkers) {
		analysis.OpenQuestion = true
		analysis.UrgencyHint = "medium"
		analysis.UrgencyReason = append(analysis.UrgencyReason, "Latest message is an unanswered question")
	}

	lower := strings.ToLower(last.Content)
	if last.Kind == api.KindText && containsAnyKeyword(lower, urgencyKeywords) {
		analysis.UrgencyHint = "high"
		analysis.UrgencyReason = append(analysis.UrgencyReason, "Latest message contains urgency indicators")
	}

	if analysis.OpenQuestion && !last.Timestamp.IsZero() && now.Sub(last.Timestamp) > 4*time.Hour {
		analysis.UrgencyHint = "high"
		analysis.UrgencyReason = append(analysis.UrgencyReason,
			fmt.Sprintf("Question has been waiting %s", formatDuration(now.Sub(last.Timestamp))))
	}

	return analysis
}

// SuggestActions suggests next steps based on the analyzed history.
func SuggestActions(messages []api.Message, viewer string, now time.Time) []SuggestedAction {
	var actions []SuggestedAction
	if len(messages) == 0 {
		return actions
	}

	analysis := AnalyzeGroup(messages, viewer, now)
	last := messages[len(messages)-1]

	if analysis.OpenQuestion {
		priority := "medium"
		if analysis.UrgencyHint == "high" {
			priority = "high"
		}
		actions = append(actions, SuggestedAction{
			Action:   "reply",
			Reason:   fmt.Sprintf("%s asked a question that has no reply yet", last.Sender),
			Priority: priority,
		})
	} else if last.Sender != viewer && last.Kind == api.KindText &&
		containsAnyKeyword(last.Content, addressedMarkers) &&
		strings.Contains(last.Content, "@"+viewer) {
		actions = append(actions, SuggestedAction{
			Action:   "reply",
			Reason:   "You were mentioned in the latest message",
			Priority: "medium",
		})
	}

	// Recent file shares from others are worth pulling down.
	for i := len(messages) - 1; i >= 0 && i >= len(messages)-10; i-- {
		msg := messages[i]
		if msg.Kind != api.KindFile || msg.Sender == viewer {
			continue
		}
		payload, _ := api.ParseFilePayload(msg.Content)
		actions = append(actions, SuggestedAction{
			Action:   "download",
			Reason:   fmt.Sprintf("%s shared %s", msg.Sender, payload.FileName),
			Priority: "low",
		})
		break
	}

	unseen := 0
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Sender == viewer {
			break
		}
		unseen++
	}
	if unseen > 5 {
		actions = append(actions, SuggestedAction{
			Action:   "catch_up",
			Reason:   fmt.Sprintf("%d messages since your last post", unseen),
			Priority: "low",
		})
	}

	return actions
}

// formatDuration formats a duration in human-readable form.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}

// containsAnyKeyword checks if the text contains any of the keywords.
func containsAnyKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
