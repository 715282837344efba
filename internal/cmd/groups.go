package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/passdrive/passdrive-cli/internal/agentfmt"
	"github.com/passdrive/passdrive-cli/internal/api"
	"github.com/passdrive/passdrive-cli/internal/cache"
	"github.com/passdrive/passdrive-cli/internal/cli"
	"github.com/passdrive/passdrive-cli/internal/dryrun"
	"github.com/passdrive/passdrive-cli/internal/heuristics"
	"github.com/passdrive/passdrive-cli/internal/iocontext"
	"github.com/passdrive/passdrive-cli/internal/session"
	"github.com/passdrive/passdrive-cli/internal/validation"
)

func newGroupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"group", "g"},
		Short:   "Manage chat groups",
	}

	cmd.AddCommand(
		newGroupsListCmd(),
		newGroupsCreateCmd(),
		newGroupsJoinCmd(),
		newGroupsLeaveCmd(),
		newGroupsMessagesCmd(),
		newGroupsStatsCmd(),
	)

	return cmd
}

func newGroupsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List groups you are a member of",
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			groups, err := client.ListGroups(cmd.Context())
			if err != nil {
				return err
			}

			// Refresh the resolver cache so name lookups stay fast.
			if dir := resolveCacheDir(); dir != "" {
				cache.NewStore(dir, "groups", client.BaseURL, client.Username).Put(groups)
			}

			if isJSON(cmd) {
				return printJSON(cmd, groups)
			}

			ioStreams := iocontext.GetIO(cmd.Context())
			if len(groups) == 0 {
				_, _ = fmt.Fprintln(ioStreams.Out, "No groups. Create one with 'pd groups create <name>'.")
				return nil
			}

			w := newTabWriter(ioStreams.Out)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tMEMBERS\tCREATED BY\tCREATED")
			for _, g := range groups {
				created := ""
				if !g.CreatedAt.IsZero() {
					created = formatTimestampShort(g.CreatedAt)
				}
				_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", g.ID, g.Name, len(g.Members), g.CreatedBy, created)
			}
			return w.Flush()
		}),
	}

	return cmd
}

func newGroupsCreateCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if err := validation.ValidateGroupName(name); err != nil {
				return err
			}

			if done, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation:   "create",
				Resource:    "group",
				Description: fmt.Sprintf("Create group %q", name),
				Details:     map[string]any{"name": name, "password_protected": password != ""},
			}); done {
				return err
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			group, err := client.CreateGroup(cmd.Context(), name, password)
			if err != nil {
				return err
			}

			invalidateGroupCache(client)

			if isJSON(cmd) {
				return printJSON(cmd, group)
			}
			printAction(cmd, "Created", "group", group.ID, group.Name)
			return nil
		}),
	}

	cmd.Flags().StringVar(&password, "password", "", "Password required to join the group")

	return cmd
}

func newGroupsJoinCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "join <group>",
		Short: "Join a group by ID or name",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			// Joining needs a numeric ID or URL: name resolution only
			// covers groups the user is already a member of.
			groupID, err := parseGroupArg(args[0])
			if err != nil {
				return fmt.Errorf("join requires a numeric group ID or a chat URL (got %q)", args[0])
			}

			if done, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation:   "join",
				Resource:    "group",
				Description: fmt.Sprintf("Join group %d", groupID),
				Details:     map[string]any{"group_id": groupID},
			}); done {
				return err
			}

			group, err := client.JoinGroup(cmd.Context(), groupID, password)
			if err != nil {
				return err
			}

			invalidateGroupCache(client)

			if isJSON(cmd) {
				return printJSON(cmd, group)
			}
			printAction(cmd, "Joined", "group", group.ID, group.Name)
			return nil
		}),
	}

	cmd.Flags().StringVar(&password, "password", "", "Group password, if required")

	return cmd
}

func newGroupsLeaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leave <group>",
		Short: "Leave a group",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			groupID, err := resolveGroupID(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}

			if done, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation:   "leave",
				Resource:    "group",
				Description: fmt.Sprintf("Leave group %d", groupID),
				Details:     map[string]any{"group_id": groupID},
			}); done {
				return err
			}

			ok, err := confirmAction(cmd, confirmOptions{
				Prompt:              fmt.Sprintf("Leave group %d? [y/N] ", groupID),
				CancelMessage:       "Cancelled.",
				RequireForceForJSON: true,
			})
			if err != nil || !ok {
				return err
			}

			if err := client.LeaveGroup(cmd.Context(), groupID); err != nil {
				return err
			}

			invalidateGroupCache(client)

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"success": true, "group_id": groupID})
			}
			printAction(cmd, "Left", "group", groupID, "")
			return nil
		}),
	}

	return cmd
}

func newGroupsMessagesCmd() *cobra.Command {
	var (
		limit    int
		showAll  bool
		rawFiles bool
		since    string
	)

	cmd := &cobra.Command{
		Use:     "messages <group>",
		Aliases: []string{"msgs", "history"},
		Short:   "Show a group's message history",
		Long: `Show a group's message history, newest last.

File shares with 'selected' visibility are only shown when you are the
sender or a listed recipient; the server applies the same rule, this
filter is a second line of defense for stale snapshots.`,
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			groupID, err := resolveGroupID(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}

			var cutoff time.Time
			if since != "" {
				cutoff, err = cli.ParseRelativeTime(since, time.Now())
				if err != nil {
					return err
				}
			}

			messages, err := client.ListMessages(cmd.Context(), groupID)
			if err != nil {
				return err
			}

			messages = filterVisible(messages, client.Username)
			if !cutoff.IsZero() {
				messages = filterSince(messages, cutoff)
			}
			if !showAll && limit > 0 && len(messages) > limit {
				messages = messages[len(messages)-limit:]
			}

			if isJSON(cmd) {
				if isAgent(cmd) {
					return printJSON(cmd, agentfmt.ListEnvelope{
						Kind:  "messages",
						Items: agentfmt.MessageSummaries(messages),
						Meta:  map[string]any{"group_id": groupID},
					})
				}
				return printJSON(cmd, messages)
			}

			ioStreams := iocontext.GetIO(cmd.Context())
			if len(messages) == 0 {
				_, _ = fmt.Fprintln(ioStreams.Out, "No messages.")
				return nil
			}
			for _, msg := range messages {
				printMessageLine(cmd, msg, rawFiles)
			}
			return nil
		}),
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of messages to show")
	cmd.Flags().BoolVar(&showAll, "all", false, "Show the full history")
	cmd.Flags().BoolVar(&rawFiles, "raw", false, "Show raw file payload JSON instead of a summary")
	cmd.Flags().StringVar(&since, "since", "", "Only show messages after this time (e.g. '2h ago', 'yesterday', '2026-01-02')")
	flagAlias(cmd.Flags(), "limit", "last")

	return cmd
}

func filterSince(messages []api.Message, cutoff time.Time) []api.Message {
	out := messages[:0:0]
	for _, msg := range messages {
		if !msg.Timestamp.Before(cutoff) {
			out = append(out, msg)
		}
	}
	return out
}

// filterVisible drops file messages the viewer is not allowed to see.
func filterVisible(messages []api.Message, viewer string) []api.Message {
	out := messages[:0:0]
	for _, msg := range messages {
		if session.Visible(msg, viewer) {
			out = append(out, msg)
		}
	}
	return out
}

// printMessageLine renders one message for terminal output.
func printMessageLine(cmd *cobra.Command, msg api.Message, rawFiles bool) {
	ioStreams := iocontext.GetIO(cmd.Context())
	ts := formatTimestampShort(msg.Timestamp)

	if msg.Kind == api.KindFile && !rawFiles {
		payload, _ := api.ParseFilePayload(msg.Content)
		scope := ""
		if payload.Visibility == api.VisibilitySelected {
			scope = fmt.Sprintf(" (to %s)", strings.Join(payload.VisibleTo, ", "))
		}
		_, _ = fmt.Fprintf(ioStreams.Out, "%s %s shared %s%s [file %s]\n",
			ts, bold(msg.Sender), payload.FileName, scope, payload.FileID)
		return
	}

	_, _ = fmt.Fprintf(ioStreams.Out, "%s %s: %s\n", ts, bold(msg.Sender), msg.Content)
}

func newGroupsStatsCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "stats [group]",
		Short: "Analyze group activity and suggest next actions",
		Long: `Analyze a group's recent history: message and file counts, per-member
activity, idle time, and urgency signals (open questions, mentions,
keywords). With --all, every group is analyzed concurrently.`,
		Args: cobra.MaximumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			if all || len(args) == 0 {
				return groupStatsAll(cmd, client)
			}
			return groupStatsOne(cmd, client, args[0])
		}),
	}

	cmd.Flags().BoolVar(&all, "all", false, "Analyze all groups")

	return cmd
}

type groupStats struct {
	GroupID   int64                        `json:"group_id"`
	GroupName string                       `json:"group_name"`
	Analysis  *heuristics.Analysis         `json:"analysis"`
	Actions   []heuristics.SuggestedAction `json:"suggested_actions,omitempty"`
}

func groupStatsOne(cmd *cobra.Command, client *api.Client, identifier string) error {
	groupID, err := resolveGroupID(cmd.Context(), client, identifier)
	if err != nil {
		return err
	}

	messages, err := client.ListMessages(cmd.Context(), groupID)
	if err != nil {
		return err
	}
	messages = filterVisible(messages, client.Username)

	now := time.Now()
	stats := groupStats{
		GroupID:  groupID,
		Analysis: heuristics.AnalyzeGroup(messages, client.Username, now),
		Actions:  heuristics.SuggestActions(messages, client.Username, now),
	}

	if isJSON(cmd) {
		return printJSON(cmd, stats)
	}
	printGroupStats(cmd, stats)
	return nil
}

// groupStatsAll fetches history for every group concurrently, capped to
// avoid hammering the server.
func groupStatsAll(cmd *cobra.Command, client *api.Client) error {
	groups, err := client.ListGroups(cmd.Context())
	if err != nil {
		return err
	}

	results := make([]groupStats, len(groups))
	now := time.Now()

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(4)
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			messages, err := client.ListMessages(ctx, group.ID)
			if err != nil {
				return fmt.Errorf("group %d: %w", group.ID, err)
			}
			messages = filterVisible(messages, client.Username)
			results[i] = groupStats{
				GroupID:   group.ID,
				GroupName: group.Name,
				Analysis:  heuristics.AnalyzeGroup(messages, client.Username, now),
				Actions:   heuristics.SuggestActions(messages, client.Username, now),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Most urgent first.
	sort.SliceStable(results, func(i, j int) bool {
		return urgencyRank(results[i].Analysis.UrgencyHint) > urgencyRank(results[j].Analysis.UrgencyHint)
	})

	if isJSON(cmd) {
		if isAgent(cmd) {
			return printJSON(cmd, agentfmt.DataEnvelope{Kind: "group-stats", Data: results})
		}
		return printJSON(cmd, results)
	}

	for i, stats := range results {
		if i > 0 {
			ioStreams := iocontext.GetIO(cmd.Context())
			_, _ = fmt.Fprintln(ioStreams.Out)
		}
		printGroupStats(cmd, stats)
	}
	return nil
}

func urgencyRank(hint string) int {
	switch hint {
	case "high":
		return 2
	case "medium":
		return 1
	default:
		return 0
	}
}

func printGroupStats(cmd *cobra.Command, stats groupStats) {
	ioStreams := iocontext.GetIO(cmd.Context())
	out := ioStreams.Out

	title := fmt.Sprintf("Group %d", stats.GroupID)
	if stats.GroupName != "" {
		title = fmt.Sprintf("Group %d (%s)", stats.GroupID, stats.GroupName)
	}
	_, _ = fmt.Fprintln(out, bold(title))

	a := stats.Analysis
	_, _ = fmt.Fprintf(out, "  Messages: %d, files: %d\n", a.MessageCount, a.FileCount)
	if a.LastSender != "" {
		_, _ = fmt.Fprintf(out, "  Last activity: %s by %s (idle %s)\n", a.LastActivity, a.LastSender, a.IdleFor)
	}

	urgency := a.UrgencyHint
	switch urgency {
	case "high":
		urgency = red(urgency)
	case "medium":
		urgency = yellow(urgency)
	}
	_, _ = fmt.Fprintf(out, "  Urgency: %s", urgency)
	if len(a.UrgencyReason) > 0 {
		_, _ = fmt.Fprintf(out, " (%s)", strings.Join(a.UrgencyReason, "; "))
	}
	_, _ = fmt.Fprintln(out)

	for _, action := range stats.Actions {
		_, _ = fmt.Fprintf(out, "  -> %s: %s\n", action.Action, action.Reason)
	}
}

func invalidateGroupCache(client *api.Client) {
	if dir := resolveCacheDir(); dir != "" {
		cache.NewStore(dir, "groups", client.BaseURL, client.Username).Clear()
	}
}
