package agentfmt

import (
	"testing"
	"time"

	"github.com/passdrive/passdrive-cli/internal/api"
)

func TestTransformListItems_SupportedSlices(t *testing.T) {
	groups := []api.Group{{ID: 1, Name: "Ops", Members: []string{"alice"}}}
	groupSummaries, ok := TransformListItems(groups).([]GroupSummary)
	if !ok {
		t.Fatalf("expected []GroupSummary")
	}
	if len(groupSummaries) != 1 || groupSummaries[0].ID != 1 {
		t.Fatalf("unexpected group summaries: %#v", groupSummaries)
	}

	messages := []api.Message{{ID: "m-1", GroupID: 1, Sender: "alice", Kind: api.KindText, Content: "hi"}}
	messageSummaries, ok := TransformListItems(messages).([]MessageSummary)
	if !ok {
		t.Fatalf("expected []MessageSummary")
	}
	if len(messageSummaries) != 1 || messageSummaries[0].ID != "m-1" {
		t.Fatalf("unexpected message summaries: %#v", messageSummaries)
	}

	files := []api.SessionFile{{ID: 9, FileName: "notes.txt", UploadedBy: "bob", UploadedAt: time.Unix(1700000000, 0)}}
	fileSummaries, ok := TransformListItems(files).([]SessionFileSummary)
	if !ok {
		t.Fatalf("expected []SessionFileSummary")
	}
	if len(fileSummaries) != 1 || fileSummaries[0].Name != "notes.txt" {
		t.Fatalf("unexpected session file summaries: %#v", fileSummaries)
	}

	drive := []api.DriveFile{{ID: "d-1", FileName: "plan.md", FileSize: 10}}
	driveSummaries, ok := TransformListItems(drive).([]DriveFileSummary)
	if !ok {
		t.Fatalf("expected []DriveFileSummary")
	}
	if len(driveSummaries) != 1 || driveSummaries[0].ID != "d-1" {
		t.Fatalf("unexpected drive file summaries: %#v", driveSummaries)
	}
}

func TestTransformListItems_Unsupported(t *testing.T) {
	in := []string{"a", "b"}
	out := TransformListItems(in)
	got, ok := out.([]string)
	if !ok || len(got) != 2 {
		t.Fatalf("unsupported slice should pass through, got %#v", out)
	}
}

func TestEmptySlicesProduceNil(t *testing.T) {
	if MessageSummaries(nil) != nil {
		t.Fatal("expected nil for empty message slice")
	}
	if GroupSummaries(nil) != nil {
		t.Fatal("expected nil for empty group slice")
	}
	if SessionFileSummaries(nil) != nil {
		t.Fatal("expected nil for empty session file slice")
	}
	if DriveFileSummaries(nil) != nil {
		t.Fatal("expected nil for empty drive file slice")
	}
}
