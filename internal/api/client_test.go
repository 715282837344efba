package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(srv *httptest.Server) *Client {
	c := New(srv.URL, "tok123", "alice")
	c.retryDelay = time.Millisecond
	return c
}

func TestListGroupsSendsAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/groups/user/alice", r.URL.Path)
		assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]Group{
			{ID: 1, Name: "ops", CreatedBy: "alice", Members: []string{"alice", "bob"}},
		})
	}))
	defer srv.Close()

	groups, err := testClient(srv).ListGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "ops", groups[0].Name)
	assert.Equal(t, []string{"alice", "bob"}, groups[0].Members)
}

func TestGetRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode([]Message{})
	}))
	defer srv.Close()

	_, err := testClient(srv).ListMessages(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPostMessageNotRetriedAndWrapsDurableWrite(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := testClient(srv).PostMessage(context.Background(), 7, KindText, "hello")
	require.Error(t, err)
	assert.True(t, IsDurableWriteError(err))
	assert.Equal(t, int32(1), calls.Load(), "writes must not be retried")
}

func TestPostMessageBody(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/groups/message/42", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, testClient(srv).PostMessage(context.Background(), 42, KindText, "hi there"))
	assert.Equal(t, "alice", got["senderUsername"])
	assert.Equal(t, "hi there", got["content"])
	assert.Equal(t, KindText, got["type"])
}

func TestUnauthorizedIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"token expired"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv).ListGroups(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Contains(t, err.Error(), "token expired")
}

func TestNotFoundError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("Session not found"))
	}))
	defer srv.Close()

	err := testClient(srv).JoinSession(context.Background(), "NOPE1234")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestSanitizeErrorBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"json error field", `{"error":"group is full"}`, "group is full"},
		{"json message field", `{"message":"wrong password"}`, "wrong password"},
		{"plain text", "Invalid passkey", "Invalid passkey"},
		{"html page", "<html><body>502</body></html>", "API request failed (response body redacted)"},
		{"unknown json", `{"token":"secret"}`, "API request failed (response body redacted)"},
		{"empty", "", "API request failed (response body redacted)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeErrorBody(tt.body))
		})
	}
}

func TestBrokerURL(t *testing.T) {
	c := New("https://drive.example.com", "", "alice")
	assert.Equal(t, "wss://drive.example.com/ws", c.BrokerURL())

	c = New("http://localhost:8080/", "", "alice")
	assert.Equal(t, "ws://localhost:8080/ws", c.BrokerURL())
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ok, err := testClient(srv).HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}
