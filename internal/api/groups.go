package api

import (
	"context"
	"fmt"
)

// ListGroups returns the groups the configured user belongs to.
func (c *Client) ListGroups(ctx context.Context) ([]Group, error) {
	var groups []Group
	if err := c.get(ctx, fmt.Sprintf("/groups/user/%s", c.Username), &groups); err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// CreateGroup creates a password-protected group owned by the configured user.
func (c *Client) CreateGroup(ctx context.Context, name, password string) (*Group, error) {
	body := map[string]string{
		"name":            name,
		"password":        password,
		"creatorUsername": c.Username,
	}
	var group Group
	if err := c.post(ctx, "/groups/create", body, &group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return &group, nil
}

// JoinGroup joins an existing group by id.
func (c *Client) JoinGroup(ctx context.Context, groupID int64, password string) (*Group, error) {
	body := map[string]string{
		"username": c.Username,
		"password": password,
	}
	var group Group
	if err := c.post(ctx, fmt.Sprintf("/groups/join/%d", groupID), body, &group); err != nil {
		return nil, fmt.Errorf("failed to join group %d: %w", groupID, err)
	}
	return &group, nil
}

// LeaveGroup removes the configured user from a group.
func (c *Client) LeaveGroup(ctx context.Context, groupID int64) error {
	body := map[string]string{"username": c.Username}
	if err := c.post(ctx, fmt.Sprintf("/groups/leave/%d", groupID), body, nil); err != nil {
		return fmt.Errorf("failed to leave group %d: %w", groupID, err)
	}
	return nil
}

// ListMessages fetches the full durable history of a group. This is the
// authoritative snapshot; live broker frames only layer deltas on top of it.
func (c *Client) ListMessages(ctx context.Context, groupID int64) ([]Message, error) {
	var messages []Message
	if err := c.get(ctx, fmt.Sprintf("/groups/messages/%d", groupID), &messages); err != nil {
		return nil, fmt.Errorf("failed to fetch messages for group %d: %w", groupID, err)
	}
	return messages, nil
}

// PostMessage durably appends a message to a group. The server echoes it to
// all subscribers over the broker, including the sender.
//
// Failures wrap DurableWriteError so callers can roll back optimistic state.
func (c *Client) PostMessage(ctx context.Context, groupID int64, kind, content string) error {
	body := map[string]string{
		"senderUsername": c.Username,
		"content":        content,
		"type":           kind,
	}
	if err := c.post(ctx, fmt.Sprintf("/groups/message/%d", groupID), body, nil); err != nil {
		if IsAuthError(err) {
			return err
		}
		return &DurableWriteError{Err: err}
	}
	return nil
}
