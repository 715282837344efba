package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/passdrive/passdrive-cli/internal/iocontext"
	"github.com/passdrive/passdrive-cli/internal/urlparse"
)

func newRefCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ref <url>",
		Short: "Parse a PassDrive web URL into CLI context",
		Long: `Parse a pasted PassDrive web URL and print the commands that operate on
the same context. Useful when someone shares a link in another channel.`,
		Example: `  pd ref https://passdrive.example.com/chat?group=12
  pd ref https://passdrive.example.com/pass-share?passkey=AB12CD34`,
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			parsed, err := urlparse.Parse(args[0])
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, parsed)
			}

			ioStreams := iocontext.GetIO(cmd.Context())
			w := newTabWriter(ioStreams.Out)
			_, _ = fmt.Fprintf(w, "Server:\t%s\n", parsed.BaseURL)
			_, _ = fmt.Fprintf(w, "Page:\t%s\n", parsed.Page)
			if parsed.HasGroup() {
				_, _ = fmt.Fprintf(w, "Group:\t%d\n", parsed.GroupID)
			}
			if parsed.HasPasskey() {
				_, _ = fmt.Fprintf(w, "Passkey:\t%s\n", parsed.Passkey)
			}
			_ = w.Flush()

			switch {
			case parsed.HasGroup():
				_, _ = fmt.Fprintf(ioStreams.Out, "\nTry:\n  pd groups messages %d\n  pd follow --group %d\n", parsed.GroupID, parsed.GroupID)
			case parsed.HasPasskey():
				_, _ = fmt.Fprintf(ioStreams.Out, "\nTry:\n  pd sessions join %s\n  pd sessions files %s\n", parsed.Passkey, parsed.Passkey)
			}
			return nil
		}),
	}

	return cmd
}

// groupIDFromURL extracts a group ID from a pasted chat URL.
func groupIDFromURL(rawURL string) (int64, error) {
	parsed, err := urlparse.Parse(rawURL)
	if err != nil {
		return 0, err
	}
	if !parsed.HasGroup() {
		return 0, fmt.Errorf("URL carries no group context: %s", rawURL)
	}
	return parsed.GroupID, nil
}

// passkeyFromURL extracts a session passkey from a pasted pass-share URL.
func passkeyFromURL(rawURL string) (string, error) {
	parsed, err := urlparse.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if !parsed.HasPasskey() {
		return "", fmt.Errorf("URL carries no passkey: %s", rawURL)
	}
	return parsed.Passkey, nil
}
