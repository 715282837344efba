package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passdrive/passdrive-cli/internal/api"
)

func fileMsg(t *testing.T, sender string, payload api.FilePayload) api.Message {
	t.Helper()
	content, err := payload.Encode()
	require.NoError(t, err)
	return api.Message{ID: "f1", Sender: sender, Kind: api.KindFile, Content: content, Timestamp: time.Now()}
}

func TestVisibleTextAlwaysVisible(t *testing.T) {
	m := api.Message{ID: "m1", Sender: "alice", Kind: api.KindText, Content: "hi"}
	assert.True(t, Visible(m, "alice"))
	assert.True(t, Visible(m, "carol"))
}

func TestVisibleSelectedScope(t *testing.T) {
	// alice shares a file with bob only: bob sees it, carol does not,
	// alice always sees her own.
	m := fileMsg(t, "alice", api.FilePayload{
		FileID:     "f-1",
		FileName:   "secret.pdf",
		Visibility: api.VisibilitySelected,
		VisibleTo:  []string{"bob"},
	})

	assert.True(t, Visible(m, "alice"), "sender")
	assert.True(t, Visible(m, "bob"), "listed viewer")
	assert.False(t, Visible(m, "carol"), "unlisted viewer")
}

func TestVisibleSelectedEmptyListIsSenderOnly(t *testing.T) {
	empty := fileMsg(t, "alice", api.FilePayload{
		FileID:     "f-1",
		Visibility: api.VisibilitySelected,
		VisibleTo:  []string{},
	})
	absent := fileMsg(t, "alice", api.FilePayload{
		FileID:     "f-1",
		Visibility: api.VisibilitySelected,
	})

	for _, m := range []api.Message{empty, absent} {
		assert.True(t, Visible(m, "alice"))
		assert.False(t, Visible(m, "bob"))
	}
}

func TestVisibleAllAndUnscoped(t *testing.T) {
	all := fileMsg(t, "alice", api.FilePayload{FileID: "f-1", Visibility: api.VisibilityAll})
	unscoped := fileMsg(t, "alice", api.FilePayload{FileID: "f-1"})

	for _, m := range []api.Message{all, unscoped} {
		assert.True(t, Visible(m, "bob"))
		assert.True(t, Visible(m, "carol"))
	}
}

func TestVisibleLegacyPayloadFailsOpen(t *testing.T) {
	m := api.Message{ID: "f1", Sender: "alice", Kind: api.KindFile, Content: "12345"}
	assert.True(t, Visible(m, "bob"))

	m.Content = "{not json"
	assert.True(t, Visible(m, "bob"))
}
