package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/passdrive/passdrive-cli/internal/agentfmt"
	"github.com/passdrive/passdrive-cli/internal/api"
	"github.com/passdrive/passdrive-cli/internal/iocontext"
	"github.com/passdrive/passdrive-cli/internal/outfmt"
	"github.com/passdrive/passdrive-cli/internal/session"
)

// frame carries a raw broker frame from the read goroutine to the event loop.
type frame struct {
	destination string
	body        []byte
}

func newFollowCmd() *cobra.Command {
	var (
		group      string
		passkey    string
		history    int
		showTyping bool
		duration   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "follow",
		Short: "Follow a conversation live",
		Long: `Follow a group or passkey session live: print the recent history, then
stream new messages, file shares, membership changes, and (optionally)
typing indicators as they arrive.

The connection heals itself: transport drops are retried with a fixed
delay up to five times while the snapshot view stays intact. Interrupt
with Ctrl-C, or bound the run with --for.

With --output jsonl each event is one JSON object per line, which is
the mode agents should consume.`,
		Example: `  pd follow --group 12
  pd follow --group standup --typing
  pd follow --passkey AB12CD34 --output jsonl --for 2m`,
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if (group == "") == (passkey == "") {
				return fmt.Errorf("exactly one of --group or --passkey is required")
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			var conv session.Conversation
			if group != "" {
				groupID, err := resolveGroupID(cmd.Context(), client, group)
				if err != nil {
					return err
				}
				conv = session.GroupConversation(groupID)
			} else {
				pk, err := parsePasskeyArg(passkey)
				if err != nil {
					return err
				}
				conv = session.PasskeyConversation(pk)
			}

			return followConversation(cmd, client, conv, followOptions{
				history:    history,
				showTyping: showTyping,
				duration:   duration,
			})
		}),
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "Group to follow (ID or name)")
	cmd.Flags().StringVarP(&passkey, "passkey", "p", "", "Passkey session to follow")
	cmd.Flags().IntVarP(&history, "history", "n", 20, "Messages of history to print before going live")
	cmd.Flags().BoolVar(&showTyping, "typing", false, "Show typing indicators")
	cmd.Flags().DurationVar(&duration, "for", 0, "Stop after this duration (0 = until interrupted)")
	flagAlias(cmd.Flags(), "history", "last")

	return cmd
}

type followOptions struct {
	history    int
	showTyping bool
	duration   time.Duration
}

// followConversation runs the live event loop. Raw frames and engine events
// both funnel into channels consumed by this single goroutine, which is the
// only caller of Synchronizer methods.
func followConversation(cmd *cobra.Command, client *api.Client, conv session.Conversation, opts followOptions) error {
	ctx := cmd.Context()

	frames := make(chan frame, 64)
	events := make(chan session.Event, 64)

	notify := session.Notifier(func(ev session.Event) {
		select {
		case events <- ev:
		default:
		}
	})
	sink := func(destination string, body []byte) {
		select {
		case frames <- frame{destination, body}:
		default:
		}
	}

	registry := session.NewRegistry()
	manager := session.NewManager(client.BrokerURL(), client.Token, registry, notify)
	engine := session.NewSynchronizer(client, manager, registry, client.Username, notify, sink)

	if err := manager.Connect(ctx); err != nil {
		return fmt.Errorf("broker connect: %w", err)
	}
	defer manager.Disconnect()

	if err := engine.Select(ctx, conv); err != nil {
		return err
	}
	defer engine.Close(ctx)

	printFollowHistory(cmd, engine, opts.history)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	var deadline <-chan time.Time
	if opts.duration > 0 {
		timer := time.NewTimer(opts.duration)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-interrupt:
			printIfNotQuiet(cmd, "\nStopped.\n")
			return nil
		case <-deadline:
			return nil
		case f := <-frames:
			engine.HandleFrame(ctx, f.destination, f.body)
		case ev := <-events:
			printFollowEvent(cmd, ev, opts.showTyping)
		}
	}
}

func printFollowHistory(cmd *cobra.Command, engine *session.Synchronizer, limit int) {
	messages := engine.Messages()
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	if outfmt.IsJSONL(cmd.Context()) {
		ioStreams := iocontext.GetIO(cmd.Context())
		for _, msg := range messages {
			_ = outfmt.WriteJSONMaybeCompact(ioStreams.Out, followEventJSON("message", map[string]any{
				"message": agentfmt.MessageSummaryFromMessage(msg),
			}), true)
		}
		return
	}
	for _, msg := range messages {
		printMessageLine(cmd, msg, false)
	}
	if len(messages) > 0 {
		printIfNotQuiet(cmd, "--- live ---\n")
	}
}

func printFollowEvent(cmd *cobra.Command, ev session.Event, showTyping bool) {
	ioStreams := iocontext.GetIO(cmd.Context())
	jsonl := outfmt.IsJSONL(cmd.Context())

	switch e := ev.(type) {
	case session.MessageReceived:
		if jsonl {
			_ = outfmt.WriteJSONMaybeCompact(ioStreams.Out, followEventJSON("message", map[string]any{
				"conversation": e.Conversation.String(),
				"message":      agentfmt.MessageSummaryFromMessage(e.Message),
			}), true)
			return
		}
		printMessageLine(cmd, e.Message, false)

	case session.MembershipChanged:
		if jsonl {
			_ = outfmt.WriteJSONMaybeCompact(ioStreams.Out, followEventJSON("membership", map[string]any{
				"conversation": e.Conversation.String(),
				"username":     e.Username,
				"joined":       e.Joined,
			}), true)
			return
		}
		verb := "joined"
		if !e.Joined {
			verb = "left"
		}
		_, _ = fmt.Fprintf(ioStreams.Out, "%s %s %s\n", formatTimestampShort(time.Now()), yellow(e.Username), verb)

	case session.TypingChanged:
		if !showTyping {
			return
		}
		if jsonl {
			_ = outfmt.WriteJSONMaybeCompact(ioStreams.Out, followEventJSON("typing", map[string]any{
				"conversation": e.Conversation.String(),
				"username":     e.Username,
				"typing":       e.Typing,
			}), true)
			return
		}
		if e.Typing {
			_, _ = fmt.Fprintf(ioStreams.Out, "%s is typing...\n", e.Username)
		}

	case session.ConnectionStateChanged:
		if jsonl {
			payload := map[string]any{
				"state":   e.State.String(),
				"attempt": e.Attempt,
			}
			if e.Err != nil {
				payload["error"] = e.Err.Error()
			}
			_ = outfmt.WriteJSONMaybeCompact(ioStreams.Out, followEventJSON("connection", payload), true)
			return
		}
		switch e.State {
		case session.StateConnecting:
			if e.Attempt > 1 {
				_, _ = fmt.Fprintf(ioStreams.ErrOut, "%s\n", yellow(fmt.Sprintf("reconnecting (attempt %d)...", e.Attempt)))
			}
		case session.StateConnected:
			if e.Attempt > 1 {
				_, _ = fmt.Fprintf(ioStreams.ErrOut, "%s\n", green("reconnected"))
			}
		case session.StateErrored:
			_, _ = fmt.Fprintf(ioStreams.ErrOut, "%s\n", red(fmt.Sprintf("connection failed: %v", e.Err)))
		}

	case session.ConversationSwitched:
		// Quiet; the history print already marks the transition.
	}
}

func followEventJSON(kind string, fields map[string]any) map[string]any {
	out := map[string]any{
		"event": kind,
		"at":    time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}
