package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/passdrive/passdrive-cli/internal/iocontext"
	"github.com/passdrive/passdrive-cli/internal/update"
)

func newVersionCmd() *cobra.Command {
	var checkUpdate bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			info := map[string]any{
				"version": Version,
				"go":      runtime.Version(),
				"os":      runtime.GOOS,
				"arch":    runtime.GOARCH,
			}

			var result *update.CheckResult
			if checkUpdate {
				result = update.CheckForUpdate(cmd.Context(), Version)
				if result != nil {
					info["latest_version"] = result.LatestVersion
					info["update_available"] = result.UpdateAvailable
					if result.UpdateAvailable {
						info["update_url"] = result.UpdateURL
					}
				}
			}

			if isJSON(cmd) {
				return printJSON(cmd, info)
			}

			ioStreams := iocontext.GetIO(cmd.Context())
			_, _ = fmt.Fprintf(ioStreams.Out, "pd %s (%s %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			if result != nil && result.UpdateAvailable {
				_, _ = fmt.Fprintf(ioStreams.Out, "Update available: %s -> %s\n  %s\n",
					result.CurrentVersion, result.LatestVersion, result.UpdateURL)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&checkUpdate, "check-update", false, "Check for a newer release")

	return cmd
}
