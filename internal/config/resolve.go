package config

import (
	"fmt"
	"os"
	"strings"
)

// ClientConfig contains resolved API client settings.
type ClientConfig struct {
	BaseURL  string
	Username string
	UserID   int64
	Token    string
}

// ResolveClientConfig resolves client settings from the stored account with
// environment and flag overrides layered on top.
func ResolveClientConfig(baseURLOverride string) (ClientConfig, error) {
	account, err := LoadAccount()
	if err != nil {
		return ClientConfig{}, err
	}
	cfg := ClientConfig{
		BaseURL:  account.BaseURL,
		Username: account.Username,
		UserID:   account.UserID,
		Token:    account.Token,
	}

	if envURL := strings.TrimSpace(os.Getenv("PASSDRIVE_BASE_URL")); envURL != "" {
		cfg.BaseURL = strings.TrimSuffix(envURL, "/")
	}
	if envToken := strings.TrimSpace(os.Getenv("PASSDRIVE_TOKEN")); envToken != "" {
		cfg.Token = envToken
	}
	if baseURLOverride != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURLOverride, "/")
	}

	if cfg.BaseURL == "" {
		return ClientConfig{}, fmt.Errorf("base URL not configured (set PASSDRIVE_BASE_URL, run 'pd auth login', or pass --base-url)")
	}
	if cfg.Username == "" {
		return ClientConfig{}, ErrNotConfigured
	}

	return cfg, nil
}
