package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/passdrive/passdrive-cli/internal/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local resolver cache",
		Long: `The CLI caches group listings locally so fuzzy name resolution does not
hit the server on every command. Entries expire after a few minutes;
use 'pd cache clear' to drop them immediately, or --no-cache /
PD_NO_CACHE=1 to bypass the cache entirely.`,
	}

	cmd.AddCommand(newCacheClearCmd(), newCacheDirCmd())

	return cmd
}

func newCacheClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached entries",
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			dir := resolveCacheDir()
			if dir == "" {
				return fmt.Errorf("cache directory unavailable")
			}
			cache.ClearAll(dir)

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"success": true, "dir": dir})
			}
			printIfNotQuiet(cmd, "Cache cleared (%s)\n", dir)
			return nil
		}),
	}

	return cmd
}

func newCacheDirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dir",
		Short: "Print the cache directory",
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			dir := resolveCacheDir()
			if dir == "" {
				return fmt.Errorf("cache directory unavailable")
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"dir": dir})
			}
			printIfNotQuiet(cmd, "%s\n", dir)
			return nil
		}),
	}

	return cmd
}
