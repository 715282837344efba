package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/passdrive/passdrive-cli/internal/api"
)

func TestHandleError_Auth(t *testing.T) {
	msg := HandleError(&api.AuthError{Reason: "token expired"})
	if !strings.Contains(msg, "token expired") {
		t.Fatalf("missing reason: %s", msg)
	}
	if !strings.Contains(msg, "pd auth login") {
		t.Fatalf("missing login suggestion: %s", msg)
	}
}

func TestHandleError_DurableWrite(t *testing.T) {
	msg := HandleError(&api.DurableWriteError{Err: errors.New("db down")})
	if !strings.Contains(msg, "not persisted") {
		t.Fatalf("missing rollback explanation: %s", msg)
	}
	if !strings.Contains(msg, "pd status") {
		t.Fatalf("missing status suggestion: %s", msg)
	}
}

func TestHandleError_APIStatusSuggestions(t *testing.T) {
	cases := []struct {
		status int
		want   string
	}{
		{401, "pd auth login"},
		{403, "selected"},
		{404, "pd groups list"},
		{409, "retry"},
		{500, "pd status"},
	}
	for _, tc := range cases {
		msg := HandleError(&api.APIError{StatusCode: tc.status, Body: "x"})
		if !strings.Contains(msg, tc.want) {
			t.Errorf("status %d: message %q missing %q", tc.status, msg, tc.want)
		}
	}
}

func TestHandleError_Timeout(t *testing.T) {
	msg := HandleError(context.DeadlineExceeded)
	if !strings.Contains(msg, "--timeout") {
		t.Fatalf("missing timeout suggestion: %s", msg)
	}
}

func TestHandleError_ConnectionRefused(t *testing.T) {
	msg := HandleError(errors.New("dial tcp 127.0.0.1:8080: connect: connection refused"))
	if !strings.Contains(msg, "pd auth status") {
		t.Fatalf("missing suggestion: %s", msg)
	}
}

func TestHandleError_PlainError(t *testing.T) {
	msg := HandleError(errors.New("something odd"))
	if !strings.Contains(msg, "something odd") {
		t.Fatalf("message should carry the original error: %s", msg)
	}
	if strings.Contains(msg, "Suggestions") {
		t.Fatalf("plain errors should not get suggestions: %s", msg)
	}
}
