package validation

import "testing"

func TestAllowPrivateToggle(t *testing.T) {
	original := AllowPrivateEnabled()
	t.Cleanup(func() { SetAllowPrivate(original) })

	SetAllowPrivate(false)
	if AllowPrivateEnabled() {
		t.Fatal("toggle off not reflected")
	}
	if err := ValidateServerURL("http://127.0.0.1:8080"); err == nil {
		t.Fatal("loopback URL should be rejected with private addresses disallowed")
	}

	SetAllowPrivate(true)
	if !AllowPrivateEnabled() {
		t.Fatal("toggle on not reflected")
	}
	if err := ValidateServerURL("http://127.0.0.1:8080"); err != nil {
		t.Fatalf("loopback URL should pass with private addresses allowed: %v", err)
	}
}
