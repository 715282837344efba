package api

import (
	"context"
	"fmt"
	"strings"
)

// User is the authenticated account returned by login.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Admin    bool   `json:"admin,omitempty"`
	Token    string `json:"token,omitempty"`
}

// Login authenticates with a username or email plus password. The identifier
// is treated as an email when it contains an @.
func (c *Client) Login(ctx context.Context, identifier, password string) (*User, error) {
	body := map[string]*string{"password": &password}
	if strings.Contains(identifier, "@") {
		body["email"] = &identifier
		body["username"] = nil
	} else {
		body["username"] = &identifier
		body["email"] = nil
	}

	var user User
	if err := c.post(ctx, "/users/login", body, &user); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if user.ID == 0 || user.Username == "" {
		return nil, fmt.Errorf("login succeeded but response carried no user record")
	}
	return &user, nil
}
