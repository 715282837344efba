package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilePayloadStructured(t *testing.T) {
	content := `{"fileId":"f-9","fileName":"report.pdf","fileSize":2048,"visibility":"selected","visibleTo":["bob"]}`
	p, ok := ParseFilePayload(content)
	require.True(t, ok)
	assert.Equal(t, "f-9", p.FileID)
	assert.Equal(t, "report.pdf", p.FileName)
	assert.Equal(t, VisibilitySelected, p.Visibility)
	assert.Equal(t, []string{"bob"}, p.VisibleTo)
}

func TestParseFilePayloadLegacyBareID(t *testing.T) {
	p, ok := ParseFilePayload("12345")
	assert.False(t, ok)
	assert.Equal(t, "12345", p.FileID)
	assert.Equal(t, "File", p.FileName)
}

func TestParseFilePayloadMissingFileID(t *testing.T) {
	_, ok := ParseFilePayload(`{"fileName":"orphan.txt"}`)
	assert.False(t, ok)
}

func TestFilePayloadEncodeRoundTrip(t *testing.T) {
	p := FilePayload{FileID: "f-1", FileName: "a.txt", Visibility: VisibilityAll}
	content, err := p.Encode()
	require.NoError(t, err)

	got, ok := ParseFilePayload(content)
	require.True(t, ok)
	assert.Equal(t, p, got)
}

func TestGeneratePasskeyFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		key, err := GeneratePasskey()
		require.NoError(t, err)
		require.Len(t, key, PasskeyLength)
		for _, r := range key {
			assert.True(t, (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'), "unexpected rune %q", r)
		}
		seen[key] = true
	}
	assert.Greater(t, len(seen), 1, "passkeys should not repeat")
}
