package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/passdrive/passdrive-cli/internal/api"
	"github.com/passdrive/passdrive-cli/internal/dryrun"
	"github.com/passdrive/passdrive-cli/internal/validation"
)

func newShareCmd() *cobra.Command {
	var (
		group      string
		fileID     string
		visibility string
		to         string
	)

	cmd := &cobra.Command{
		Use:   "share",
		Short: "Share a drive file into a group",
		Long: `Share a drive file into a group as a file message.

Visibility controls who sees the share:
  all       every group member (default)
  selected  only you and the users listed with --to

Recipients in --to are usernames, comma separated. The sender always
sees their own share regardless of the recipient list.`,
		Example: `  pd share --group 12 --file f-81
  pd share --group standup --file f-81 --visibility selected --to bob,carol`,
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			visibility, err := normalizeEnum("visibility", visibility, []string{api.VisibilityAll, api.VisibilitySelected})
			if err != nil {
				return err
			}

			var recipients []string
			if to != "" {
				recipients, err = ParseStringListFlag(to)
				if err != nil {
					return err
				}
				for _, r := range recipients {
					if err := validation.ValidateUsername(r); err != nil {
						return err
					}
				}
				sort.Strings(recipients)
			}

			if visibility == api.VisibilitySelected && len(recipients) == 0 {
				return fmt.Errorf("--visibility selected requires --to with at least one username")
			}
			if visibility == api.VisibilityAll && len(recipients) > 0 {
				return fmt.Errorf("--to only applies with --visibility selected")
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			groupID, err := resolveGroupID(cmd.Context(), client, group)
			if err != nil {
				return err
			}

			file, err := findDriveFile(cmd, client, fileID)
			if err != nil {
				return err
			}

			payload := api.FilePayload{
				FileID:     file.ID,
				FileName:   file.FileName,
				FileSize:   file.FileSize,
				FileType:   file.FileType,
				Visibility: visibility,
				VisibleTo:  recipients,
			}

			if done, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation:   "share",
				Resource:    "file",
				Description: fmt.Sprintf("Share %s into group %d", file.FileName, groupID),
				Details: map[string]any{
					"group_id":   groupID,
					"file_id":    file.ID,
					"visibility": visibility,
					"visible_to": strings.Join(recipients, ", "),
				},
			}); done {
				return err
			}

			content, err := payload.Encode()
			if err != nil {
				return err
			}

			if err := client.PostMessage(cmd.Context(), groupID, api.KindFile, content); err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{
					"success":    true,
					"group_id":   groupID,
					"file_id":    file.ID,
					"visibility": visibility,
					"visible_to": recipients,
				})
			}

			target := "all members"
			if visibility == api.VisibilitySelected {
				target = strings.Join(recipients, ", ")
			}
			printIfNotQuiet(cmd, "Shared %s into group %d (visible to %s)\n", file.FileName, groupID, target)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "Target group (ID or name)")
	cmd.Flags().StringVarP(&fileID, "file", "f", "", "Drive file ID or name")
	cmd.Flags().StringVar(&visibility, "visibility", api.VisibilityAll, "Who can see the file: all, selected")
	cmd.Flags().StringVar(&to, "to", "", "Recipients for selected visibility (comma separated usernames)")
	flagAlias(cmd.Flags(), "visibility", "scope")
	flagAlias(cmd.Flags(), "to", "recipients")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// findDriveFile resolves a drive file by exact ID first, then by name.
func findDriveFile(cmd *cobra.Command, client *api.Client, identifier string) (*api.DriveFile, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, fmt.Errorf("file identifier cannot be empty")
	}

	files, err := client.ListFiles(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to list drive files: %w", err)
	}

	for i := range files {
		if files[i].ID == identifier {
			return &files[i], nil
		}
	}

	var byName []*api.DriveFile
	lower := strings.ToLower(identifier)
	for i := range files {
		if strings.ToLower(files[i].FileName) == lower {
			byName = append(byName, &files[i])
		}
	}
	switch len(byName) {
	case 1:
		return byName[0], nil
	case 0:
		return nil, fmt.Errorf("no drive file matching %q (try 'pd files list')", identifier)
	default:
		var ids []string
		for _, f := range byName {
			ids = append(ids, f.ID)
		}
		return nil, fmt.Errorf("multiple drive files named %q, use an ID: %s", identifier, strings.Join(ids, ", "))
	}
}
