package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/passdrive/passdrive-cli/internal/agentfmt"
	"github.com/passdrive/passdrive-cli/internal/api"
	"github.com/passdrive/passdrive-cli/internal/dryrun"
	"github.com/passdrive/passdrive-cli/internal/iocontext"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session", "pass"},
		Short:   "Manage ephemeral passkey sessions",
		Long: `Passkey sessions are ephemeral file-sharing rooms identified by an
8-character passkey. Anyone who knows the passkey can join and see the
shared files; the session disappears when the server expires it.`,
	}

	cmd.AddCommand(
		newSessionsCreateCmd(),
		newSessionsJoinCmd(),
		newSessionsFilesCmd(),
		newSessionsUploadCmd(),
	)

	return cmd
}

func newSessionsCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a session with a fresh passkey",
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			passkey, err := api.GeneratePasskey()
			if err != nil {
				return err
			}

			if done, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation:   "create",
				Resource:    "session",
				Description: "Create an ephemeral passkey session",
				Details:     map[string]any{"passkey": passkey},
			}); done {
				return err
			}

			if err := client.CreateSession(cmd.Context(), passkey); err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"success": true, "passkey": passkey})
			}
			ioStreams := iocontext.GetIO(cmd.Context())
			_, _ = fmt.Fprintf(ioStreams.Out, "Session created. Passkey: %s\n", bold(passkey))
			printIfNotQuiet(cmd, "Share the passkey; others join with 'pd sessions join %s'.\n", passkey)
			return nil
		}),
	}

	return cmd
}

func newSessionsJoinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join <passkey>",
		Short: "Join a session by passkey",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			passkey, err := parsePasskeyArg(args[0])
			if err != nil {
				return err
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			if err := client.JoinSession(cmd.Context(), passkey); err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"success": true, "passkey": passkey})
			}
			printAction(cmd, "Joined", "session", passkey, "")
			return nil
		}),
	}

	return cmd
}

func newSessionsFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files <passkey>",
		Short: "List the files shared in a session",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			passkey, err := parsePasskeyArg(args[0])
			if err != nil {
				return err
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			files, err := client.SessionFiles(cmd.Context(), passkey)
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				if isAgent(cmd) {
					return printJSON(cmd, agentfmt.ListEnvelope{
						Kind:  "session-files",
						Items: agentfmt.SessionFileSummaries(files),
						Meta:  map[string]any{"passkey": passkey},
					})
				}
				return printJSON(cmd, files)
			}

			ioStreams := iocontext.GetIO(cmd.Context())
			if len(files) == 0 {
				_, _ = fmt.Fprintln(ioStreams.Out, "No files in this session yet.")
				return nil
			}

			w := newTabWriter(ioStreams.Out)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tTYPE\tUPLOADED BY\tUPLOADED")
			for _, f := range files {
				uploaded := ""
				if !f.UploadedAt.IsZero() {
					uploaded = formatTimestampShort(f.UploadedAt)
				}
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", f.ID, f.FileName, f.FileType, f.UploadedBy, uploaded)
			}
			return w.Flush()
		}),
	}

	return cmd
}

func newSessionsUploadCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "upload <passkey> <path>",
		Short: "Upload a local file into a session",
		Args:  cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			passkey, err := parsePasskeyArg(args[0])
			if err != nil {
				return err
			}

			path := args[1]
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			filename := name
			if filename == "" {
				filename = filepath.Base(path)
			}

			client, cfg, err := newClientFactory().accountWithConfig("")
			if err != nil {
				return err
			}

			if done, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation:   "upload",
				Resource:    "session file",
				Description: fmt.Sprintf("Upload %s to session %s", filename, passkey),
				Details:     map[string]any{"passkey": passkey, "file": filename, "size": len(content)},
			}); done {
				return err
			}

			file, err := client.UploadSessionFile(cmd.Context(), passkey, cfg.UserID, filename, content)
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, file)
			}
			printAction(cmd, "Uploaded", "file", file.ID, file.FileName)
			return nil
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "Override the uploaded file name")

	return cmd
}
