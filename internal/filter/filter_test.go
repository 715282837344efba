package filter

import (
	"bytes"
	"testing"
)

func TestApply_EmptyExpressionPassesThrough(t *testing.T) {
	data := map[string]any{"name": "standup"}
	result, err := Apply(data, "")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.(map[string]any)["name"] != "standup" {
		t.Error("empty expression should return data unchanged")
	}
}

func TestApply_FieldLookup(t *testing.T) {
	data := map[string]any{"name": "standup", "id": 11}
	result, err := Apply(data, ".name")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result != "standup" {
		t.Errorf("got %v, want standup", result)
	}
}

func TestApply_Select(t *testing.T) {
	data := []any{
		map[string]any{"type": "text"},
		map[string]any{"type": "file"},
	}
	result, err := Apply(data, `.[] | select(.type == "file")`)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if m := result.(map[string]any); m["type"] != "file" {
		t.Errorf("got %v", m)
	}
}

func TestApply_MultipleResultsCollectIntoSlice(t *testing.T) {
	data := []any{
		map[string]any{"username": "alice"},
		map[string]any{"username": "bob"},
	}
	result, err := Apply(data, `.[].username`)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	names, ok := result.([]any)
	if !ok || len(names) != 2 || names[0] != "alice" || names[1] != "bob" {
		t.Errorf("got %v", result)
	}
}

func TestApply_InvalidExpression(t *testing.T) {
	if _, err := Apply(map[string]any{}, "nope[[["); err == nil {
		t.Error("expected parse error")
	}
}

func TestApply_ShellEscapedNotEqual(t *testing.T) {
	// Zsh turns != into \!= even inside single quotes.
	data := []any{
		map[string]any{"content": nil},
		map[string]any{"content": "hello"},
	}
	result, err := Apply(data, `.[] | select(.content \!= null)`)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if m := result.(map[string]any); m["content"] != "hello" {
		t.Errorf("got %v", m)
	}
}

func TestApplyToJSON(t *testing.T) {
	result, err := ApplyToJSON([]byte(`{"name": "standup", "id": 11}`), ".name")
	if err != nil {
		t.Fatalf("ApplyToJSON: %v", err)
	}
	if !bytes.Contains(result, []byte(`"standup"`)) {
		t.Errorf("got %s", result)
	}
}

func TestApplyToJSON_EmptyExpressionReturnsInputBytes(t *testing.T) {
	jsonData := []byte(`{"name": "standup"}`)
	result, err := ApplyToJSON(jsonData, "")
	if err != nil {
		t.Fatalf("ApplyToJSON: %v", err)
	}
	if !bytes.Equal(jsonData, result) {
		t.Error("empty expression should return the original bytes")
	}
}

func TestApplyToJSON_InvalidJSON(t *testing.T) {
	if _, err := ApplyToJSON([]byte(`{nope}`), ".name"); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestApplyFromJSON(t *testing.T) {
	result, err := ApplyFromJSON([]byte(`{"passkey": "AB12CD34"}`), ".passkey")
	if err != nil {
		t.Fatalf("ApplyFromJSON: %v", err)
	}
	if result != "AB12CD34" {
		t.Errorf("got %v", result)
	}
}

func TestApplyFromJSON_EmptyExpression(t *testing.T) {
	result, err := ApplyFromJSON([]byte(`{"id": 42}`), "")
	if err != nil {
		t.Fatalf("ApplyFromJSON: %v", err)
	}
	m, ok := result.(map[string]any)
	if !ok || m["id"] != float64(42) {
		t.Errorf("got %#v", result)
	}
}

func TestApplyFromJSON_InvalidJSON(t *testing.T) {
	if _, err := ApplyFromJSON([]byte(`{nope}`), ".name"); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestNormalizeExpression(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`select(.x \!= null)`, `select(.x != null)`},
		{`select(.x != null)`, `select(.x != null)`},
		{`.[] | select(.a \!= .b)`, `.[] | select(.a != .b)`},
		{`select(.x == "test")`, `select(.x == "test")`},
		{`.it[] | select(.sd == "alice")`, `.items[] | select(.senderUsername == "alice")`},
		{`.["ct"] | .ct`, `.["ct"] | .content`},
		{`.Ct | .ct`, `.Ct | .content`},
		{`.ct # .ct in comment`, `.content # .ct in comment`},
		{`sl(.ty == "file")`, `select(.type == "file")`},
		{`sl(.ct | ts("x"; "i"))`, `select(.content | test("x"; "i"))`},
		{`.vb and .vt`, `.visibility and .visibleTo`},
	}
	for _, tt := range tests {
		got := NormalizeExpression(tt.input)
		if got != tt.expected {
			t.Errorf("NormalizeExpression(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestApply_QueryAliases(t *testing.T) {
	data := map[string]any{
		"items": []any{
			map[string]any{"senderUsername": "alice"},
			map[string]any{"senderUsername": "bob"},
		},
	}

	result, err := Apply(data, `.it[] | select(.sd == "alice") | .sd`)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result != "alice" {
		t.Fatalf("expected alice, got %v", result)
	}
}

func TestApply_QueryAliases_DoNotRewriteQuotedBracketLiteral(t *testing.T) {
	data := map[string]any{
		"it":    "literal",
		"items": "canonical",
	}

	result, err := Apply(data, `.["it"]`)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result != "literal" {
		t.Fatalf("expected literal key lookup to remain unchanged, got %v", result)
	}
}

func TestApply_QueryAliases_MessageFields(t *testing.T) {
	data := map[string]any{
		"items": []any{
			map[string]any{
				"type":     "file",
				"fileName": "report.pdf",
			},
		},
	}

	result, err := Apply(data, `.it[] | select(.ty == "file") | .fn`)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result != "report.pdf" {
		t.Fatalf("expected report.pdf, got %v", result)
	}
}

func TestApply_QueryFunctionAliases(t *testing.T) {
	data := map[string]any{
		"items": []any{
			map[string]any{"type": "text", "content": "refund pending"},
			map[string]any{"type": "file", "content": "report.pdf"},
		},
	}

	result, err := Apply(data, `[.it[] | sl(.ty == "text") | sl(.ct | ts("refund"; "i"))] | length`)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result != 1 {
		t.Fatalf("expected 1, got %v", result)
	}
}

func TestApply_QueryAliases_VisibilityFields(t *testing.T) {
	data := map[string]any{
		"visibility": "selected",
		"visibleTo":  []any{"bob"},
	}

	result, err := Apply(data, `{vb: .vb, vt: .vt}`)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	out, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("expected map result, got %T", result)
	}
	if out["vb"] != "selected" {
		t.Fatalf("expected vb=selected, got %v", out["vb"])
	}
	vt, ok := out["vt"].([]any)
	if !ok || len(vt) != 1 || vt[0] != "bob" {
		t.Fatalf("expected vt=[bob], got %v", out["vt"])
	}
}

func TestApply_RootArrayQueryFallsBackToItems(t *testing.T) {
	data := map[string]any{
		"items": []any{
			map[string]any{"group": map[string]any{"id": 11}},
			map[string]any{"group": map[string]any{"id": 22}},
		},
		"meta": map[string]any{"total": 2},
	}

	result, err := Apply(data, `.[].group.id`)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	values, ok := result.([]any)
	if !ok {
		t.Fatalf("expected []any result, got %T (%v)", result, result)
	}
	if len(values) != 2 {
		t.Fatalf("expected 2 results, got %d (%v)", len(values), values)
	}
	if values[0] != 11 || values[1] != 22 {
		t.Fatalf("unexpected values: %v", values)
	}
}

func TestApply_RootArrayQueryWithoutItemsStillErrors(t *testing.T) {
	data := map[string]any{
		"payload": []any{map[string]any{"id": 1}},
	}

	if _, err := Apply(data, `.[].id`); err == nil {
		t.Fatal("expected error for root-array query on non-items object")
	}
}
