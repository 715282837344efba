// Package cmd implements the pd command line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/passdrive/passdrive-cli/internal/debug"
	"github.com/passdrive/passdrive-cli/internal/dryrun"
	"github.com/passdrive/passdrive-cli/internal/iocontext"
	"github.com/passdrive/passdrive-cli/internal/outfmt"
	"github.com/passdrive/passdrive-cli/internal/queryalias"
)

// Version is set at build time via -ldflags.
var Version = "dev"

type globalFlags struct {
	Output   string
	Query    string
	JQ       string
	Template string
	Compact  bool
	Light    bool
	Quiet    bool
	Yes      bool
	Color    string
	Debug    bool
	DryRun   bool
	BaseURL  string
	Timeout  time.Duration
	NoCache  bool
	TZ       string
}

var flags globalFlags

// NewRootCmd builds the root command with all subcommands registered.
// A fresh command tree is built per invocation so tests stay isolated.
func NewRootCmd() *cobra.Command {
	flags = globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "pd",
		Short: "PassDrive CLI - group chat, file sharing, and passkey sessions",
		Long: `pd is a command line client for PassDrive servers.

It covers group chat (list, send, follow live), drive file management,
per-recipient file sharing inside groups, and ephemeral passkey sessions.

Output defaults to human-readable text. Use --output json for scripts or
--output agent for compact structured envelopes. The PD_OUTPUT environment
variable sets the default output mode.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupContext(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", "", "Output format: text, json, jsonl, agent")
	pf.StringVarP(&flags.Query, "query", "q", "", "jq expression applied to JSON output")
	pf.StringVar(&flags.JQ, "jq", "", "jq expression applied to JSON output (alias for --query)")
	pf.StringVar(&flags.Template, "template", "", "Go template applied to JSON output")
	pf.BoolVar(&flags.Compact, "compact", false, "Compact JSON output (no indentation)")
	pf.BoolVar(&flags.Light, "light", false, "Light output: short keys, trimmed fields")
	pf.BoolVar(&flags.Quiet, "quiet", false, "Suppress informational output")
	pf.BoolVarP(&flags.Yes, "yes", "y", false, "Skip confirmation prompts")
	pf.StringVar(&flags.Color, "color", "auto", "Color output: auto, always, never")
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	pf.BoolVar(&flags.DryRun, "dry-run", false, "Preview mutations without executing them")
	pf.StringVar(&flags.BaseURL, "base-url", "", "PassDrive server URL (overrides stored account)")
	pf.DurationVar(&flags.Timeout, "timeout", 30*time.Second, "HTTP request timeout")
	pf.BoolVar(&flags.NoCache, "no-cache", false, "Bypass the local resolver cache")
	pf.StringVar(&flags.TZ, "tz", "", "Timezone for displayed timestamps (IANA name, default local)")

	flagAlias(pf, "output", "format")
	flagAlias(pf, "yes", "force")
	flagAlias(pf, "dry-run", "preview")

	rootCmd.AddCommand(
		newAuthCmd(),
		newGroupsCmd(),
		newSendCmd(),
		newShareCmd(),
		newSessionsCmd(),
		newFilesCmd(),
		newFollowCmd(),
		newRefCmd(),
		newOpenCmd(),
		newStatusCmd(),
		newSchemaCmd(),
		newCacheCmd(),
		newVersionCmd(),
		newHelpJSONCmd(),
	)

	return rootCmd
}

// setupContext wires the per-invocation context: output mode, IO streams,
// debug and dry-run state, timezone, and cache toggles.
func setupContext(cmd *cobra.Command) error {
	loadEnvFile()

	output := flags.Output
	if output == "" && !flagOrAliasChanged(cmd, "output") {
		output = strings.TrimSpace(os.Getenv("PD_OUTPUT"))
	}
	mode, err := outfmt.Parse(output)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ctx = outfmt.WithMode(ctx, mode)
	ctx = outfmt.WithCompact(ctx, flags.Compact)
	ctx = outfmt.WithLight(ctx, flags.Light)

	if query := getJQQuery(); query != "" {
		if !flags.Light {
			query = queryalias.Normalize(query, queryalias.ContextQuery)
		}
		ctx = outfmt.WithQuery(ctx, query)
	}
	if flags.Template != "" {
		ctx = outfmt.WithTemplate(ctx, flags.Template)
	}

	if _, ok := ctx.Value(ioCtxMarker{}).(bool); !ok {
		ctx = context.WithValue(ctx, ioCtxMarker{}, true)
		ctx = iocontext.WithIO(ctx, iocontext.DefaultIO())
	}

	debugEnabled := flags.Debug || os.Getenv("PD_DEBUG") == "1"
	ctx = debug.WithDebug(ctx, debugEnabled)
	debug.SetupLogger(debugEnabled)

	ctx = dryrun.WithDryRun(ctx, flags.DryRun)

	if flags.NoCache {
		_ = os.Setenv("PD_NO_CACHE", "1")
	}

	tz := flags.TZ
	if tz == "" {
		tz = os.Getenv("PD_TZ")
	}
	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", tz, err)
		}
		setTimeLocation(loc)
	}

	cmd.SetContext(ctx)
	return nil
}

// ioCtxMarker marks a context that already carries injected IO streams,
// so tests can pre-populate them without setupContext overwriting.
type ioCtxMarker struct{}

// WithTestIO prepares a context with injected IO streams for tests.
func WithTestIO(ctx context.Context, streams *iocontext.IO) context.Context {
	ctx = context.WithValue(ctx, ioCtxMarker{}, true)
	return iocontext.WithIO(ctx, streams)
}

// loadEnvFile loads ~/.passdrive/.env if present. Missing files are fine;
// explicit environment variables always win.
func loadEnvFile() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	path := filepath.Join(home, ".passdrive", ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// Execute runs the CLI with the given arguments and returns the error, if any.
// Unknown top-level commands fall through to pd-* extension binaries on PATH.
func Execute(ctx context.Context, args []string) error {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)

	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		if cmd, _, err := rootCmd.Find(args); err != nil || cmd == rootCmd {
			if path, lookErr := exec.LookPath("pd-" + args[0]); lookErr == nil {
				return runExtension(ctx, path, args[1:])
			}
		}
	}

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		err = enhanceUnknownError(rootCmd, err)
		if !errors.Is(err, errAlreadyHandled) {
			_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	return err
}

// runExtension executes a pd-* extension binary, passing through stdio.
func runExtension(ctx context.Context, path string, args []string) error {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
