package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/passdrive/passdrive-cli/internal/config"
	"github.com/passdrive/passdrive-cli/internal/iocontext"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check server health and connectivity",
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			type statusReport struct {
				BaseURL   string `json:"base_url"`
				Healthy   bool   `json:"healthy"`
				LatencyMS int64  `json:"latency_ms"`
				BrokerURL string `json:"broker_url"`
				Username  string `json:"username,omitempty"`
				Error     string `json:"error,omitempty"`
			}

			client, err := getClient()
			if err != nil {
				// Health checks work without a stored account as long as
				// a base URL is available.
				baseURL := flags.BaseURL
				if baseURL == "" {
					baseURL = strings.TrimSpace(os.Getenv("PASSDRIVE_BASE_URL"))
				}
				if baseURL == "" {
					return err
				}
				client = newClientFactory().build(config.ClientConfig{BaseURL: strings.TrimSuffix(baseURL, "/")})
			}

			start := time.Now()
			healthy, healthErr := client.HealthCheck(cmd.Context())
			latency := time.Since(start)

			report := statusReport{
				BaseURL:   client.BaseURL,
				Healthy:   healthy,
				LatencyMS: latency.Milliseconds(),
				BrokerURL: client.BrokerURL(),
				Username:  client.Username,
			}
			if healthErr != nil {
				report.Error = healthErr.Error()
			}

			if isJSON(cmd) {
				return printJSON(cmd, report)
			}

			ioStreams := iocontext.GetIO(cmd.Context())
			w := newTabWriter(ioStreams.Out)
			state := green("healthy")
			if !healthy {
				state = red("unreachable")
			}
			_, _ = fmt.Fprintf(w, "Server:\t%s\n", report.BaseURL)
			_, _ = fmt.Fprintf(w, "Health:\t%s (%dms)\n", state, report.LatencyMS)
			_, _ = fmt.Fprintf(w, "Broker:\t%s\n", report.BrokerURL)
			if report.Username != "" {
				_, _ = fmt.Fprintf(w, "User:\t%s\n", report.Username)
			}
			if report.Error != "" {
				_, _ = fmt.Fprintf(w, "Error:\t%s\n", report.Error)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if !healthy {
				return fmt.Errorf("server health check failed")
			}
			return nil
		}),
	}

	return cmd
}
