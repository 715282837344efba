package cmd

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/passdrive/passdrive-cli/internal/api"
	"github.com/passdrive/passdrive-cli/internal/auth"
	"github.com/passdrive/passdrive-cli/internal/config"
	"github.com/passdrive/passdrive-cli/internal/iocontext"
	"github.com/passdrive/passdrive-cli/internal/skill"
	"github.com/passdrive/passdrive-cli/internal/validation"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthStatusCmd(),
		newAuthLogoutCmd(),
		newAuthSkillCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		noBrowser bool
		serverURL string
		username  string
		password  string
		profile   string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to a PassDrive server",
		Long: `Sign in to a PassDrive server and store the credentials in the system keyring.

By default this opens a browser page served from a local loopback port.
Use --no-browser for terminal-only environments; credentials are then
read from flags, environment, or interactive prompts.`,
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if noBrowser {
				return terminalLogin(cmd, serverURL, username, password, profile)
			}

			server, err := auth.NewSetupServer(profile)
			if err != nil {
				return err
			}
			result, err := server.Start(cmd.Context())
			if err != nil {
				return err
			}
			if result.Error != nil {
				return result.Error
			}

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{
					"success":  true,
					"username": result.Account.Username,
					"user_id":  result.Account.UserID,
					"base_url": result.Account.BaseURL,
					"email":    result.Email,
				})
			}
			printIfNotQuiet(cmd, "Signed in as %s (%s)\n", result.Account.Username, result.Account.BaseURL)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Use terminal prompts instead of the browser flow")
	cmd.Flags().StringVar(&serverURL, "server", "", "PassDrive server URL")
	cmd.Flags().StringVar(&username, "username", "", "Username or email")
	cmd.Flags().StringVar(&password, "password", "", "Password (prefer the interactive prompt)")
	cmd.Flags().StringVar(&profile, "profile", "", "Profile name to store the account under")

	return cmd
}

// terminalLogin performs the non-browser login path, prompting for any
// missing values.
func terminalLogin(cmd *cobra.Command, serverURL, username, password, profile string) error {
	ioStreams := iocontext.GetIO(cmd.Context())

	if serverURL == "" {
		serverURL = strings.TrimSpace(os.Getenv("PASSDRIVE_BASE_URL"))
	}
	if serverURL == "" {
		var err error
		serverURL, err = promptLine(cmd, "Server URL: ")
		if err != nil {
			return err
		}
	}
	serverURL = strings.TrimSuffix(strings.TrimSpace(serverURL), "/")
	if err := validation.ValidateServerURL(serverURL); err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if username == "" {
		var err error
		username, err = promptLine(cmd, "Username or email: ")
		if err != nil {
			return err
		}
	}
	if username == "" {
		return fmt.Errorf("username is required")
	}

	if password == "" {
		_, _ = fmt.Fprint(ioStreams.Out, "Password: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		_, _ = fmt.Fprintln(ioStreams.Out)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}

	client := api.New(serverURL, "", "")
	user, err := client.Login(cmd.Context(), username, password)
	if err != nil {
		return err
	}

	account := config.Account{
		BaseURL:  serverURL,
		Username: user.Username,
		UserID:   user.ID,
		Token:    user.Token,
	}
	if err := config.SaveProfile(profile, account); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	if isJSON(cmd) {
		return printJSON(cmd, map[string]any{
			"success":  true,
			"username": user.Username,
			"user_id":  user.ID,
			"base_url": serverURL,
			"email":    user.Email,
		})
	}
	printIfNotQuiet(cmd, "Signed in as %s (%s)\n", user.Username, serverURL)
	return nil
}

func promptLine(cmd *cobra.Command, prompt string) (string, error) {
	ioStreams := iocontext.GetIO(cmd.Context())
	_, _ = fmt.Fprint(ioStreams.Out, prompt)
	var line string
	if _, err := fmt.Fscanln(ioStreams.In, &line); err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func newAuthStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored account and environment overrides",
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			type statusInfo struct {
				Configured  bool   `json:"configured"`
				Profile     string `json:"profile,omitempty"`
				BaseURL     string `json:"base_url,omitempty"`
				Username    string `json:"username,omitempty"`
				UserID      int64  `json:"user_id,omitempty"`
				Token       string `json:"token,omitempty"`
				EnvBaseURL  bool   `json:"env_base_url"`
				EnvToken    bool   `json:"env_token"`
				EnvProfile  string `json:"env_profile,omitempty"`
				CacheDir    string `json:"cache_dir,omitempty"`
				AllProfiles []string `json:"profiles,omitempty"`
			}

			info := statusInfo{
				EnvBaseURL: os.Getenv("PASSDRIVE_BASE_URL") != "",
				EnvToken:   os.Getenv("PASSDRIVE_TOKEN") != "",
				EnvProfile: os.Getenv("PASSDRIVE_PROFILE"),
				CacheDir:   resolveCacheDir(),
			}

			account, err := config.LoadAccount()
			if err == nil {
				info.Configured = true
				info.BaseURL = account.BaseURL
				info.Username = account.Username
				info.UserID = account.UserID
				info.Token = maskToken(account.Token)
			}
			if current, perr := config.CurrentProfile(); perr == nil {
				info.Profile = current
			}
			if profiles, perr := config.ListProfiles(); perr == nil {
				info.AllProfiles = profiles
			}

			if isJSON(cmd) {
				return printJSON(cmd, info)
			}

			ioStreams := iocontext.GetIO(cmd.Context())
			if !info.Configured {
				_, _ = fmt.Fprintln(ioStreams.Out, red("Not signed in."))
				_, _ = fmt.Fprintln(ioStreams.Out, "Run 'pd auth login' to authenticate.")
				return nil
			}

			w := newTabWriter(ioStreams.Out)
			_, _ = fmt.Fprintf(w, "Status:\t%s\n", green("signed in"))
			if info.Profile != "" {
				_, _ = fmt.Fprintf(w, "Profile:\t%s\n", info.Profile)
			}
			_, _ = fmt.Fprintf(w, "Server:\t%s\n", info.BaseURL)
			_, _ = fmt.Fprintf(w, "User:\t%s (#%d)\n", info.Username, info.UserID)
			_, _ = fmt.Fprintf(w, "Token:\t%s\n", info.Token)
			if info.EnvBaseURL {
				_, _ = fmt.Fprintf(w, "Override:\tPASSDRIVE_BASE_URL is set\n")
			}
			if info.EnvToken {
				_, _ = fmt.Fprintf(w, "Override:\tPASSDRIVE_TOKEN is set\n")
			}
			return w.Flush()
		}),
	}

	return cmd
}

// maskToken shows only the first and last four characters of a token.
func maskToken(token string) string {
	if token == "" {
		return "(none)"
	}
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func newAuthLogoutCmd() *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if !config.HasAccount() && profile == "" {
				printIfNotQuiet(cmd, "No stored credentials.\n")
				return nil
			}

			ok, err := confirmAction(cmd, confirmOptions{
				Prompt:              "Remove stored credentials? [y/N] ",
				CancelMessage:       "Cancelled.",
				RequireForceForJSON: true,
			})
			if err != nil || !ok {
				return err
			}

			if err := config.DeleteProfile(profile); err != nil {
				return fmt.Errorf("failed to remove credentials: %w", err)
			}

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"success": true})
			}
			printIfNotQuiet(cmd, "Signed out.\n")
			return nil
		}),
	}

	cmd.Flags().StringVar(&profile, "profile", "", "Profile to remove (default: current)")

	return cmd
}

func newAuthSkillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skill",
		Short: "Generate a workspace skill file for coding agents",
		Long: `Generate a workspace-specific SKILL.md under ~/.claude/skills/ describing
your groups, drive files, and the pd commands that operate on them.`,
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			if err := skill.GenerateWorkspaceSkill(cmd.Context(), client, client.Username); err != nil {
				return err
			}

			path, err := skill.SkillPath()
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"success": true, "path": path})
			}
			printIfNotQuiet(cmd, "Wrote %s\n", path)
			return nil
		}),
	}

	return cmd
}
