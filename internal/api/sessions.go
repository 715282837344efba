package api

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

const passkeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// PasskeyLength is the fixed length of a session passkey.
const PasskeyLength = 8

// GeneratePasskey returns a random 8-character uppercase alphanumeric passkey.
func GeneratePasskey() (string, error) {
	buf := make([]byte, PasskeyLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(passkeyAlphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to generate passkey: %w", err)
		}
		buf[i] = passkeyAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// CreateSession registers a new ephemeral session under the given passkey.
func (c *Client) CreateSession(ctx context.Context, passkey string) error {
	body := map[string]string{
		"passkey":  passkey,
		"username": c.Username,
	}
	if err := c.post(ctx, "/sessions/create", body, nil); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// JoinSession joins an existing session by passkey.
func (c *Client) JoinSession(ctx context.Context, passkey string) error {
	body := map[string]string{
		"passkey":  passkey,
		"username": c.Username,
	}
	if err := c.post(ctx, "/sessions/join", body, nil); err != nil {
		return fmt.Errorf("failed to join session %s: %w", passkey, err)
	}
	return nil
}

// SessionFiles fetches the files shared in a session so far. This is the
// authoritative snapshot for a passkey conversation.
func (c *Client) SessionFiles(ctx context.Context, passkey string) ([]SessionFile, error) {
	var files []SessionFile
	if err := c.get(ctx, fmt.Sprintf("/sessions/files/%s", passkey), &files); err != nil {
		return nil, fmt.Errorf("failed to fetch session files: %w", err)
	}
	return files, nil
}

// UploadSessionFile shares a file into a session. The server broadcasts the
// new file's id on the session topic; subscribers refetch to pick it up.
//
// Failures wrap DurableWriteError so callers can roll back optimistic state.
func (c *Client) UploadSessionFile(ctx context.Context, passkey string, userID int64, filename string, content []byte) (*SessionFile, error) {
	var file SessionFile
	path := fmt.Sprintf("/sessions/upload/%s/%d", passkey, userID)
	if err := c.postMultipart(ctx, path, nil, filename, content, &file); err != nil {
		if IsAuthError(err) {
			return nil, err
		}
		return nil, &DurableWriteError{Err: err}
	}
	return &file, nil
}
