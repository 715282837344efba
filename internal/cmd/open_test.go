package cmd

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestOpen_GroupJSON(t *testing.T) {
	useTestAccount(t, "https://pd.example.com")

	out, _, err := runCommand(t, "open", "--group", "12", "--output", "json")
	if err != nil {
		t.Fatalf("open --group: %v", err)
	}
	var resp struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if resp.URL != "https://pd.example.com/chat?group=12" {
		t.Fatalf("unexpected URL: %q", resp.URL)
	}
}

func TestOpen_Passkey(t *testing.T) {
	useTestAccount(t, "https://pd.example.com")

	out, _, err := runCommand(t, "open", "--passkey", "ab12cd34", "--output", "json")
	if err != nil {
		t.Fatalf("open --passkey: %v", err)
	}
	if !strings.Contains(out, "pass-share?passkey=AB12CD34") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestOpen_PageTextPrintsURL(t *testing.T) {
	useTestAccount(t, "https://pd.example.com")

	out, _, err := runCommand(t, "open", "--page", "drive")
	if err != nil {
		t.Fatalf("open --page: %v", err)
	}
	if !strings.Contains(out, "https://pd.example.com/drive") {
		t.Fatalf("unexpected output: %s", out)
	}
}
