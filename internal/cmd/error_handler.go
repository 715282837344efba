package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/passdrive/passdrive-cli/internal/api"
	"github.com/passdrive/passdrive-cli/internal/config"
)

// HandleError formats an error for display with actionable suggestions.
// The returned string is ready to print to stderr.
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	var authErr *api.AuthError
	if errors.As(err, &authErr) {
		sb.WriteString(fmt.Sprintf("Error: %s\n", authErr.Error()))
		sb.WriteString("\nYour credentials were rejected by the server.\n")
		sb.WriteString("Run: pd auth login\n")
		return sb.String()
	}

	var writeErr *api.DurableWriteError
	if errors.As(err, &writeErr) {
		sb.WriteString(fmt.Sprintf("Error: %s\n", writeErr.Error()))
		sb.WriteString("\nThe message was not persisted and any local echo was rolled back.\n")
		sb.WriteString("Suggestions:\n")
		sb.WriteString("  - Check connectivity with 'pd status'\n")
		sb.WriteString("  - Resend the message\n")
		return sb.String()
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		sb.WriteString(fmt.Sprintf("Error: %s\n", apiErr.Error()))
		if suggestions := suggestionsForStatusCode(apiErr.StatusCode); len(suggestions) > 0 {
			sb.WriteString("\nSuggestions:\n")
			for _, s := range suggestions {
				sb.WriteString(fmt.Sprintf("  - %s\n", s))
			}
		}
		return sb.String()
	}

	if errors.Is(err, config.ErrNotConfigured) {
		sb.WriteString(fmt.Sprintf("Error: %s\n", err.Error()))
		return sb.String()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		sb.WriteString(fmt.Sprintf("Error: %s\n", err.Error()))
		sb.WriteString("\nThe request timed out.\n")
		sb.WriteString("Suggestions:\n")
		sb.WriteString("  - Increase the timeout with --timeout\n")
		sb.WriteString("  - Check your network connection\n")
		return sb.String()
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		sb.WriteString(fmt.Sprintf("Error: %s\n", msg))
		sb.WriteString("\nCould not connect to the PassDrive server.\n")
		sb.WriteString("Suggestions:\n")
		sb.WriteString("  - Check the server URL with 'pd auth status'\n")
		sb.WriteString("  - Verify the server is running\n")
	case strings.Contains(msg, "no such host"):
		sb.WriteString(fmt.Sprintf("Error: %s\n", msg))
		sb.WriteString("\nThe server hostname could not be resolved.\n")
		sb.WriteString("Suggestions:\n")
		sb.WriteString("  - Check the server URL for typos\n")
		sb.WriteString("  - Check your DNS settings\n")
	case strings.Contains(msg, "certificate"):
		sb.WriteString(fmt.Sprintf("Error: %s\n", msg))
		sb.WriteString("\nTLS certificate verification failed.\n")
		sb.WriteString("Suggestions:\n")
		sb.WriteString("  - Verify the server URL uses the correct hostname\n")
		sb.WriteString("  - Check the server's certificate is valid and not expired\n")
	default:
		sb.WriteString(fmt.Sprintf("Error: %s\n", msg))
	}

	return sb.String()
}

func suggestionsForStatusCode(statusCode int) []string {
	switch statusCode {
	case 400:
		return []string{
			"Check the command arguments for invalid values",
			"Use --debug to see the request details",
		}
	case 401:
		return []string{
			"Run 'pd auth login' to authenticate",
			"Check that your token has not expired",
		}
	case 403:
		return []string{
			"Check that you are a member of the group or session",
			"Files shared with 'selected' visibility are hidden from non-recipients",
		}
	case 404:
		return []string{
			"Verify the ID with 'pd groups list' or 'pd files list'",
			"Passkey sessions expire; the session may be gone",
		}
	case 409:
		return []string{
			"The resource may already exist or its state changed",
			"Refresh with a list command and retry",
		}
	case 422:
		return []string{
			"Check the input values against the documented limits",
		}
	default:
		if statusCode >= 500 {
			return []string{
				"The server encountered an error; try again later",
				"Check server health with 'pd status'",
			}
		}
		return nil
	}
}
