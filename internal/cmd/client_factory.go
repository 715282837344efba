package cmd

import (
	"time"

	"github.com/passdrive/passdrive-cli/internal/api"
	"github.com/passdrive/passdrive-cli/internal/config"
)

// clientFactory builds API clients from resolved credentials plus the
// global flags that affect transport behavior.
type clientFactory struct {
	baseURLOverride string
	timeout         time.Duration
}

func newClientFactory() *clientFactory {
	return &clientFactory{
		baseURLOverride: flags.BaseURL,
		timeout:         flags.Timeout,
	}
}

// account returns a client for the resolved account credentials. An empty
// baseURL uses the stored or environment-provided server URL.
func (f *clientFactory) account(baseURL string) (*api.Client, error) {
	client, _, err := f.accountWithConfig(baseURL)
	return client, err
}

// accountWithConfig also returns the resolved config, for commands that
// need the numeric user ID (uploads).
func (f *clientFactory) accountWithConfig(baseURL string) (*api.Client, config.ClientConfig, error) {
	if baseURL == "" {
		baseURL = f.baseURLOverride
	}
	cfg, err := config.ResolveClientConfig(baseURL)
	if err != nil {
		return nil, config.ClientConfig{}, err
	}
	return f.build(cfg), cfg, nil
}

func (f *clientFactory) build(cfg config.ClientConfig) *api.Client {
	client := api.New(cfg.BaseURL, cfg.Token, cfg.Username)
	client.UserAgent = "passdrive-cli/" + Version
	if f.timeout > 0 {
		client.HTTP.Timeout = f.timeout
	}
	return client
}
