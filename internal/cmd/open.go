package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/passdrive/passdrive-cli/internal/iocontext"
)

func newOpenCmd() *cobra.Command {
	var (
		group   string
		passkey string
		page    string
	)

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open the web app in a browser",
		Long: `Open the PassDrive web app in a browser, deep-linked to a group chat,
passkey session, or other page. With --output json the URL is printed
instead of opened.`,
		Example: `  pd open --group 12
  pd open --passkey AB12CD34
  pd open --page drive`,
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			var url string
			switch {
			case group != "":
				groupID, err := resolveGroupID(cmd.Context(), client, group)
				if err != nil {
					return err
				}
				url = webURL(client.BaseURL, "chat", map[string]string{"group": strconv.FormatInt(groupID, 10)})
			case passkey != "":
				pk, err := parsePasskeyArg(passkey)
				if err != nil {
					return err
				}
				url = webURL(client.BaseURL, "pass-share", map[string]string{"passkey": pk})
			case page != "":
				url = webURL(client.BaseURL, page, nil)
			default:
				url = webURL(client.BaseURL, "chat", nil)
			}

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"url": url})
			}

			ioStreams := iocontext.GetIO(cmd.Context())
			_, _ = fmt.Fprintln(ioStreams.Out, url)
			if os.Getenv("PD_NO_BROWSER") != "" || os.Getenv("PD_TESTING") == "1" {
				return nil
			}
			if err := openInBrowser(url); err != nil {
				return fmt.Errorf("failed to open browser: %w", err)
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "Open a group chat (ID or name)")
	cmd.Flags().StringVarP(&passkey, "passkey", "p", "", "Open a passkey session")
	cmd.Flags().StringVar(&page, "page", "", "Open a specific page (chat, drive, profile)")

	return cmd
}

func openInBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "linux":
		return exec.Command("xdg-open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
}
