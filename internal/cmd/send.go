package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/passdrive/passdrive-cli/internal/api"
	"github.com/passdrive/passdrive-cli/internal/dryrun"
	"github.com/passdrive/passdrive-cli/internal/validation"
)

func newSendCmd() *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send a text message to a group",
		Long: `Send a text message to a group.

The group is given by --group as a numeric ID or fuzzy name. Passkey
sessions carry files only; use 'pd sessions upload' for those. The
message argument supports @file and @- to read the body from a file
or stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			content, err := loadAtValue(args[0])
			if err != nil {
				return err
			}
			content = strings.TrimSpace(content)
			if err := validation.ValidateMessageContent(content); err != nil {
				return err
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			groupID, err := resolveGroupID(cmd.Context(), client, group)
			if err != nil {
				return err
			}

			if done, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation:   "send",
				Resource:    "message",
				Description: fmt.Sprintf("Send a text message to group %d", groupID),
				Details:     map[string]any{"group_id": groupID, "length": len(content)},
			}); done {
				return err
			}

			if err := client.PostMessage(cmd.Context(), groupID, api.KindText, content); err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"success": true, "group_id": groupID})
			}
			printAction(cmd, "Sent", "message to group", groupID, "")
			return nil
		}),
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "Target group (ID or name)")
	flagAlias(cmd.Flags(), "group", "to-group")
	_ = cmd.MarkFlagRequired("group")

	return cmd
}
