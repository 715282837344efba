package outfmt

import (
	"encoding/json"
	"testing"
)

func marshalNormalized(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(normalizeJSONOutput(v))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

func TestNormalizeJSONOutput_Slices(t *testing.T) {
	var nilSlice []string

	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil slice", nilSlice, `{"items":[]}`},
		{"empty slice", []string{}, `{"items":[]}`},
		{"populated slice", []string{"alice", "bob"}, `{"items":["alice","bob"]}`},
		{"struct slice", []struct {
			ID int `json:"id"`
		}{{ID: 11}}, `{"items":[{"id":11}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := marshalNormalized(t, tt.input); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNormalizeJSONOutput_PassThrough(t *testing.T) {
	if v := normalizeJSONOutput(nil); v != nil {
		t.Errorf("nil input should stay nil, got %v", v)
	}

	m := map[string]any{"name": "standup"}
	if _, ok := normalizeJSONOutput(m).(map[string]any); !ok {
		t.Error("maps should pass through unwrapped")
	}

	raw := json.RawMessage(`[1,2]`)
	if got := marshalNormalized(t, raw); got != `[1,2]` {
		t.Errorf("raw JSON should pass through, got %s", got)
	}

	if got := marshalNormalized(t, "hello"); got != `"hello"` {
		t.Errorf("scalars should pass through, got %s", got)
	}
}

func TestNormalizeJSONOutput_ByteSliceNotWrapped(t *testing.T) {
	got := marshalNormalized(t, []byte("raw"))
	// []byte marshals as base64, never as an items wrapper.
	if got == `{"items":"cmF3"}` {
		t.Errorf("byte slice must not be wrapped: %s", got)
	}
}

func TestNormalizeJSONOutput_PointerToSlice(t *testing.T) {
	names := []string{"deploy"}
	if got := marshalNormalized(t, &names); got != `{"items":["deploy"]}` {
		t.Errorf("pointer to slice should be wrapped, got %s", got)
	}
}
