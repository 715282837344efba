package cmd

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestGroupsList_Text(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/api/groups/user/alice": jsonHandler([]map[string]any{
			{"id": 11, "name": "Project Alpha", "createdBy": "alice", "members": []string{"alice", "bob"}},
			{"id": 12, "name": "Standup", "createdBy": "bob", "members": []string{"alice", "bob", "carol"}},
		}),
	})
	useTestAccount(t, srv.URL)

	out, _, err := runCommand(t, "groups", "list")
	if err != nil {
		t.Fatalf("groups list: %v", err)
	}
	if !strings.Contains(out, "Project Alpha") || !strings.Contains(out, "Standup") {
		t.Fatalf("missing group names in output:\n%s", out)
	}
	if !strings.Contains(out, "ID\tNAME") && !strings.Contains(out, "ID") {
		t.Fatalf("missing header in output:\n%s", out)
	}
}

func TestGroupsList_JSON(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/api/groups/user/alice": jsonHandler([]map[string]any{
			{"id": 11, "name": "Project Alpha", "members": []string{"alice"}},
		}),
	})
	useTestAccount(t, srv.URL)

	out, _, err := runCommand(t, "groups", "list", "--output", "json")
	if err != nil {
		t.Fatalf("groups list --output json: %v", err)
	}

	var groups []map[string]any
	if err := json.Unmarshal([]byte(out), &groups); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if len(groups) != 1 || groups[0]["name"] != "Project Alpha" {
		t.Fatalf("unexpected groups: %v", groups)
	}
}

func TestGroupsList_AgentEnvelope(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/api/groups/user/alice": jsonHandler([]map[string]any{
			{"id": 11, "name": "Project Alpha", "members": []string{"alice", "bob"}},
		}),
	})
	useTestAccount(t, srv.URL)

	out, _, err := runCommand(t, "groups", "list", "--output", "agent")
	if err != nil {
		t.Fatalf("groups list --output agent: %v", err)
	}

	var envelope struct {
		Kind  string `json:"kind"`
		Items []struct {
			ID          int64 `json:"id"`
			MemberCount int   `json:"member_count"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(out), &envelope); err != nil {
		t.Fatalf("invalid agent JSON: %v\n%s", err, out)
	}
	if envelope.Kind != "groups.list" {
		t.Fatalf("kind = %q, want groups.list", envelope.Kind)
	}
	if len(envelope.Items) != 1 || envelope.Items[0].MemberCount != 2 {
		t.Fatalf("unexpected items: %+v", envelope.Items)
	}
}

func TestGroupsCreate(t *testing.T) {
	var gotBody map[string]string
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/api/groups/create": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			jsonHandler(map[string]any{"id": 42, "name": gotBody["name"], "members": []string{"alice"}})(w, r)
		},
	})
	useTestAccount(t, srv.URL)

	out, _, err := runCommand(t, "groups", "create", "release crew", "--password", "s3cret")
	if err != nil {
		t.Fatalf("groups create: %v", err)
	}
	if gotBody["name"] != "release crew" || gotBody["password"] != "s3cret" || gotBody["creatorUsername"] != "alice" {
		t.Fatalf("unexpected request body: %v", gotBody)
	}
	if !strings.Contains(out, "42") || !strings.Contains(out, "release crew") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestGroupsCreate_RejectsEmptyName(t *testing.T) {
	useTestAccount(t, "http://example.invalid")

	_, stderr, err := runCommand(t, "groups", "create", "   ")
	if err == nil {
		t.Fatal("expected error for empty group name")
	}
	if !strings.Contains(stderr, "group name") {
		t.Fatalf("stderr should mention group name: %s", stderr)
	}
}

func TestGroupsCreate_DryRun(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/api/groups/create": func(w http.ResponseWriter, r *http.Request) {
			t.Error("dry-run must not hit the API")
		},
	})
	useTestAccount(t, srv.URL)

	out, _, err := runCommand(t, "groups", "create", "preview me", "--dry-run")
	if err != nil {
		t.Fatalf("groups create --dry-run: %v", err)
	}
	if !strings.Contains(out, "DRY-RUN") || !strings.Contains(out, "No changes made") {
		t.Fatalf("missing dry-run markers:\n%s", out)
	}
}

func TestGroupsJoin_RequiresNumericID(t *testing.T) {
	useTestAccount(t, "http://example.invalid")

	_, stderr, err := runCommand(t, "groups", "join", "some name")
	if err == nil {
		t.Fatal("expected error for non-numeric join target")
	}
	if !strings.Contains(stderr, "numeric group ID") {
		t.Fatalf("unexpected stderr: %s", stderr)
	}
}

func TestGroupsLeave_ConfirmAndCancel(t *testing.T) {
	called := false
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/api/groups/leave/11": func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		},
	})
	useTestAccount(t, srv.URL)

	out, _, err := runCommandWithInput(t, "n\n", "groups", "leave", "11")
	if err != nil {
		t.Fatalf("groups leave (cancelled): %v", err)
	}
	if called {
		t.Fatal("cancelled leave must not hit the API")
	}
	if !strings.Contains(out, "Cancelled") {
		t.Fatalf("missing cancel message: %s", out)
	}

	_, _, err = runCommand(t, "groups", "leave", "11", "--yes")
	if err != nil {
		t.Fatalf("groups leave --yes: %v", err)
	}
	if !called {
		t.Fatal("expected leave request")
	}
}

func TestGroupsMessages_FiltersSelectedVisibility(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	hidden := `{"fileId":"f-9","fileName":"secret.txt","visibility":"selected","visibleTo":["dave"]}`
	visible := `{"fileId":"f-8","fileName":"notes.txt","visibility":"selected","visibleTo":["alice"]}`
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/api/groups/messages/11": jsonHandler([]map[string]any{
			{"id": "m1", "groupId": 11, "senderUsername": "bob", "type": "text", "content": "hello", "timestamp": now},
			{"id": "m2", "groupId": 11, "senderUsername": "bob", "type": "file", "content": hidden, "timestamp": now},
			{"id": "m3", "groupId": 11, "senderUsername": "bob", "type": "file", "content": visible, "timestamp": now},
		}),
	})
	useTestAccount(t, srv.URL)

	out, _, err := runCommand(t, "groups", "messages", "11")
	if err != nil {
		t.Fatalf("groups messages: %v", err)
	}
	if strings.Contains(out, "secret.txt") {
		t.Fatalf("message hidden from alice leaked:\n%s", out)
	}
	if !strings.Contains(out, "hello") || !strings.Contains(out, "notes.txt") {
		t.Fatalf("expected visible messages:\n%s", out)
	}
}

func TestGroupsMessages_Limit(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	msgs := make([]map[string]any, 5)
	for i := range msgs {
		msgs[i] = map[string]any{
			"id": string(rune('a' + i)), "groupId": 11, "senderUsername": "bob",
			"type": "text", "content": "msg-" + string(rune('a'+i)), "timestamp": now,
		}
	}
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/api/groups/messages/11": jsonHandler(msgs),
	})
	useTestAccount(t, srv.URL)

	out, _, err := runCommand(t, "groups", "messages", "11", "--limit", "2")
	if err != nil {
		t.Fatalf("groups messages --limit: %v", err)
	}
	if strings.Contains(out, "msg-a") {
		t.Fatalf("oldest message should be trimmed:\n%s", out)
	}
	if !strings.Contains(out, "msg-d") || !strings.Contains(out, "msg-e") {
		t.Fatalf("newest messages missing:\n%s", out)
	}
}

func TestGroupsMessages_Since(t *testing.T) {
	old := time.Now().Add(-48 * time.Hour).UTC().Format(time.RFC3339)
	recent := time.Now().UTC().Format(time.RFC3339)
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/api/groups/messages/11": jsonHandler([]map[string]any{
			{"id": "m1", "groupId": 11, "senderUsername": "bob", "type": "text", "content": "stale", "timestamp": old},
			{"id": "m2", "groupId": 11, "senderUsername": "bob", "type": "text", "content": "fresh", "timestamp": recent},
		}),
	})
	useTestAccount(t, srv.URL)

	out, _, err := runCommand(t, "groups", "messages", "11", "--since", "2h ago")
	if err != nil {
		t.Fatalf("groups messages --since: %v", err)
	}
	if strings.Contains(out, "stale") {
		t.Fatalf("old message should be filtered:\n%s", out)
	}
	if !strings.Contains(out, "fresh") {
		t.Fatalf("recent message missing:\n%s", out)
	}
}

func TestGroupsMessages_SinceInvalidExpression(t *testing.T) {
	useTestAccount(t, "http://example.invalid")

	_, _, err := runCommand(t, "groups", "messages", "11", "--since", "whenever")
	if err == nil {
		t.Fatal("expected error for invalid time expression")
	}
}

func TestGroupsStats_All(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/api/groups/user/alice": jsonHandler([]map[string]any{
			{"id": 1, "name": "quiet", "members": []string{"alice"}},
			{"id": 2, "name": "busy", "members": []string{"alice", "bob"}},
		}),
		"/api/groups/messages/1": jsonHandler([]map[string]any{}),
		"/api/groups/messages/2": jsonHandler([]map[string]any{
			{"id": "m1", "groupId": 2, "senderUsername": "bob", "type": "text", "content": "urgent: need review asap?", "timestamp": now},
		}),
	})
	useTestAccount(t, srv.URL)

	out, _, err := runCommand(t, "groups", "stats", "--all", "--output", "json")
	if err != nil {
		t.Fatalf("groups stats --all: %v", err)
	}

	var results []struct {
		GroupID  int64 `json:"group_id"`
		Analysis struct {
			MessageCount int    `json:"message_count"`
			UrgencyHint  string `json:"urgency_hint"`
		} `json:"analysis"`
	}
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	// Urgent group sorts first.
	if results[0].GroupID != 2 || results[0].Analysis.MessageCount != 1 {
		t.Fatalf("unexpected ordering: %+v", results)
	}
}
