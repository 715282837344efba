package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/passdrive/passdrive-cli/internal/dryrun"
	"github.com/passdrive/passdrive-cli/internal/iocontext"
	"github.com/passdrive/passdrive-cli/internal/outfmt"
)

func newFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "files",
		Aliases: []string{"file", "drive"},
		Short:   "Manage your drive files",
	}

	cmd.AddCommand(
		newFilesListCmd(),
		newFilesUploadCmd(),
		newFilesURLCmd(),
		newFilesCopyCmd(),
	)

	return cmd
}

func newFilesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your drive files",
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			files, err := client.ListFiles(cmd.Context())
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, files)
			}

			ioStreams := iocontext.GetIO(cmd.Context())
			f := outfmt.NewFormatter(cmd.Context(), ioStreams.Out, ioStreams.ErrOut)
			if len(files) == 0 {
				f.Empty("No drive files. Upload one with 'pd files upload <path>'.")
				return nil
			}

			f.StartTable([]string{"ID", "NAME", "TYPE", "SIZE"})
			for _, df := range files {
				f.Row(df.ID, df.FileName, df.FileType, formatSize(df.FileSize))
			}
			return f.EndTable()
		}),
	}

	return cmd
}

func formatSize(size int64) string {
	switch {
	case size >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(size)/(1<<30))
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}

func newFilesUploadCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a local file to your drive",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			path := args[0]
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
				Resource:    "drive file",
				Description: fmt.Sprintf("Upload %s to your drive", filename),
				Details:     map[string]any{"file": filename, "size": len(content)},
			}); done {
				return err
			}

			file, err := client.UploadFile(cmd.Context(), cfg.UserID, filename, content)
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

func newFilesURLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "url <file>",
		Short: "Print the download URL for a drive file",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			file, err := findDriveFile(cmd, client, args[0])
			if err != nil {
				return err
			}

			url := client.DownloadURL(file.ID)
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"file_id": file.ID, "url": url})
			}
			ioStreams := iocontext.GetIO(cmd.Context())
			_, _ = fmt.Fprintln(ioStreams.Out, url)
			return nil
		}),
	}

	return cmd
}

func newFilesCopyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy <file-id>",
		Short: "Copy a file shared with you into your drive",
		Long: `Copy a file that was shared with you (in a group or session) into your
own drive. The file ID comes from the share message; see
'pd groups messages' or 'pd sessions files'.`,
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			fileID := args[0]

			client, cfg, err := newClientFactory().accountWithConfig("")
			if err != nil {
				return err
			}

			if done, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation:   "copy",
				Resource:    "file",
				Description: fmt.Sprintf("Copy file %s to your drive", fileID),
				Details:     map[string]any{"file_id": fileID},
			}); done {
				return err
			}

			if err := client.CopyToDrive(cmd.Context(), fileID, cfg.UserID); err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"success": true, "file_id": fileID})
			}
			printAction(cmd, "Copied", "file", fileID, "")
			return nil
		}),
	}

	return cmd
}
