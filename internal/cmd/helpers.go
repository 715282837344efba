package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/passdrive/passdrive-cli/internal/agentfmt"
	"github.com/passdrive/passdrive-cli/internal/api"
	"github.com/passdrive/passdrive-cli/internal/cache"
	"github.com/passdrive/passdrive-cli/internal/config"
	"github.com/passdrive/passdrive-cli/internal/dryrun"
	"github.com/passdrive/passdrive-cli/internal/iocontext"
	"github.com/passdrive/passdrive-cli/internal/outfmt"
	"github.com/passdrive/passdrive-cli/internal/resolve"
	"github.com/passdrive/passdrive-cli/internal/validation"
)

// getJQQuery returns the jq query from --jq or --query flags.
// --jq takes precedence over --query for consistency with gh CLI.
func getJQQuery() string {
	if flags.JQ != "" {
		return flags.JQ
	}
	return flags.Query
}

// getClient creates an API client from stored credentials
func getClient() (*api.Client, error) {
	return newClientFactory().account("")
}

// newTabWriter creates a tabwriter for text output
func newTabWriter(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func newTabWriterFromCmd(cmd *cobra.Command) *tabwriter.Writer {
	ioStreams := iocontext.GetIO(cmd.Context())
	return newTabWriter(ioStreams.Out)
}

// printJSON outputs data as JSON with optional query/template filtering
func printJSON(cmd *cobra.Command, v any) error {
	ioStreams := iocontext.GetIO(cmd.Context())
	query := outfmt.GetQuery(cmd.Context())
	compact := outfmt.IsCompact(cmd.Context())
	if outfmt.IsAgent(cmd.Context()) {
		if payload, ok := v.(agentfmt.Payload); ok {
			v = payload.AgentPayload()
		} else {
			kind := agentfmt.KindFromCommandPath(cmd.CommandPath())
			v = agentfmt.Transform(kind, v)
		}
	}
	if tmpl := outfmt.GetTemplate(cmd.Context()); tmpl != "" {
		filtered, err := outfmt.ApplyQuery(v, query)
		if err != nil {
			return err
		}
		return outfmt.WriteTemplate(ioStreams.Out, filtered, tmpl)
	}
	return outfmt.WriteJSONFiltered(ioStreams.Out, v, query, compact)
}

// isJSON checks if the command context wants JSON output
func isJSON(cmd *cobra.Command) bool {
	return outfmt.IsJSON(cmd.Context())
}

func isAgent(cmd *cobra.Command) bool {
	return outfmt.IsAgent(cmd.Context())
}

// printIfNotQuiet prints to stdout only if not in quiet mode
func printIfNotQuiet(cmd *cobra.Command, format string, args ...any) {
	if !flags.Quiet {
		ioStreams := iocontext.GetIO(cmd.Context())
		_, _ = fmt.Fprintf(ioStreams.Out, format, args...)
	}
}

func printAction(cmd *cobra.Command, action, resource string, id any, name string) {
	if flags.Quiet || isJSON(cmd) || isAgent(cmd) {
		return
	}

	ioStreams := iocontext.GetIO(cmd.Context())
	message := fmt.Sprintf("%s %s", action, resource)
	if id != nil {
		if value, ok := id.(string); !ok || value != "" {
			message = fmt.Sprintf("%s %v", message, id)
		}
	}
	if name != "" {
		message = fmt.Sprintf("%s: %s", message, name)
	}
	_, _ = fmt.Fprintln(ioStreams.Out, message)
}

// normalizeEnum normalizes and validates a flag value against a list of valid enum values.
// It lowercases and trims the input, then tries exact match followed by unique prefix match.
// Returns the matched valid value or an error.
func normalizeEnum(flagName, input string, valid []string) (string, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return "", api.NewValidationError(flagName, input, valid)
	}

	for _, v := range valid {
		if input == v {
			return v, nil
		}
	}

	var matches []string
	for _, v := range valid {
		if strings.HasPrefix(v, input) {
			matches = append(matches, v)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", api.NewValidationError(flagName, input, valid)
	default:
		return "", fmt.Errorf("ambiguous %s %q: matches %s", flagName, input, strings.Join(matches, ", "))
	}
}

func maybeDryRun(cmd *cobra.Command, preview *dryrun.Preview) (bool, error) {
	if !dryrun.IsEnabled(cmd.Context()) {
		return false, nil
	}
	if preview == nil {
		preview = &dryrun.Preview{}
	}
	if isJSON(cmd) {
		payload := map[string]any{
			"dry_run":     true,
			"operation":   preview.Operation,
			"resource":    preview.Resource,
			"description": preview.Description,
			"details":     preview.Details,
			"warnings":    preview.Warnings,
		}
		return true, printJSON(cmd, payload)
	}

	ioStreams := iocontext.GetIO(cmd.Context())
	preview.Write(ioStreams.Out)
	return true, nil
}

// flagAlias registers a hidden alias for an existing flag.
// Both flags share the same underlying Value, so setting either one sets both.
// The alias is annotated so flagOrAliasChanged() can detect it.
// aliasBridgeValue wraps a pflag.Value so that Set() on the alias also
// marks the canonical flag as Changed.  This lets aliases satisfy Cobra's
// MarkFlagRequired check transparently.
type aliasBridgeValue struct {
	pflag.Value
	canonical *pflag.Flag
}

func (v *aliasBridgeValue) Set(s string) error {
	if err := v.Value.Set(s); err != nil {
		return err
	}
	v.canonical.Changed = true
	return nil
}

// aliasBridgeSliceValue extends aliasBridgeValue to also forward the
// pflag.SliceValue interface (Append, Replace, GetSlice) when the
// underlying Value supports it.
type aliasBridgeSliceValue struct {
	aliasBridgeValue
	slice pflag.SliceValue
}

func (v *aliasBridgeSliceValue) Append(s string) error     { return v.slice.Append(s) }
func (v *aliasBridgeSliceValue) Replace(ss []string) error { return v.slice.Replace(ss) }
func (v *aliasBridgeSliceValue) GetSlice() []string        { return v.slice.GetSlice() }

func flagAlias(fs *pflag.FlagSet, name, alias string) {
	f := fs.Lookup(name)
	if f == nil {
		panic(fmt.Sprintf("flagAlias: flag %q not found", name))
	}
	a := *f // shallow copy, shares the Value interface
	a.Name = alias
	a.Shorthand = ""
	a.Usage = ""
	a.Hidden = true
	bridge := &aliasBridgeValue{Value: f.Value, canonical: f}
	if sv, ok := f.Value.(pflag.SliceValue); ok {
		a.Value = &aliasBridgeSliceValue{aliasBridgeValue: *bridge, slice: sv}
	} else {
		a.Value = bridge
	}
	// Deep-copy annotations so we don't mutate the original flag's map,
	// and strip the "required" annotation. The alias should never be
	// independently required; the canonical flag enforces that.
	newAnn := map[string][]string{"alias-of": {name}}
	for k, v := range f.Annotations {
		if k == cobra.BashCompOneRequiredFlag {
			continue
		}
		newAnn[k] = v
	}
	a.Annotations = newAnn
	fs.AddFlag(&a)
}

// flagOrAliasChanged returns true if the named flag or any of its
// hidden aliases was explicitly set by the user.
func flagOrAliasChanged(cmd *cobra.Command, name string) bool {
	if cmd.Flags().Changed(name) {
		return true
	}
	if cmd.InheritedFlags().Changed(name) {
		return true
	}

	aliasChanged := func(fs *pflag.FlagSet) bool {
		found := false
		fs.VisitAll(func(f *pflag.Flag) {
			if found {
				return
			}
			if ann, ok := f.Annotations["alias-of"]; ok && len(ann) > 0 && ann[0] == name {
				if fs.Changed(f.Name) {
					found = true
				}
			}
		})
		return found
	}

	return aliasChanged(cmd.Flags()) || aliasChanged(cmd.InheritedFlags())
}

func splitCommaList(value string) []string {
	parts := strings.Split(value, ",")
	var out []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

type confirmOptions struct {
	Prompt              string
	Expected            string
	CancelMessage       string
	Force               bool
	RequireForceForJSON bool
}

func confirmAction(cmd *cobra.Command, opts confirmOptions) (bool, error) {
	if flags.Yes {
		opts.Force = true
	}
	if opts.RequireForceForJSON && isJSON(cmd) && !opts.Force {
		return false, fmt.Errorf("--force flag is required when using --output json")
	}
	if opts.Force {
		return true, nil
	}

	out := cmd.OutOrStdout()
	if opts.Prompt != "" {
		_, _ = fmt.Fprint(out, opts.Prompt)
	}

	ioStreams := iocontext.GetIO(cmd.Context())
	reader := bufio.NewReader(ioStreams.In)
	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		if opts.CancelMessage != "" {
			_, _ = fmt.Fprintln(out, opts.CancelMessage)
		}
		return false, nil
	}

	response = strings.TrimSpace(strings.ToLower(response))
	expected := strings.TrimSpace(strings.ToLower(opts.Expected))
	if expected == "" {
		expected = "y"
	}
	if response != expected {
		if opts.CancelMessage != "" {
			_, _ = fmt.Fprintln(out, opts.CancelMessage)
		}
		return false, nil
	}

	return true, nil
}

// errAlreadyHandled is a sentinel error indicating the error was already printed to stderr.
// Commands using RunE return this to signal Cobra that an error occurred (for exit code)
// without Cobra printing it again (since SilenceErrors is true on root command).
var errAlreadyHandled = errors.New("error already handled")

type handledError struct {
	err      error
	exitCode int
}

func (e *handledError) Error() string {
	return e.err.Error()
}

func (e *handledError) Unwrap() error {
	return errAlreadyHandled
}

func (e *handledError) ExitCode() int {
	return e.exitCode
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
)

const (
	timeLayout      = "2006-01-02 15:04:05"
	timeLayoutShort = "2006-01-02 15:04"
)

var timeLocation *time.Location

func setTimeLocation(loc *time.Location) {
	timeLocation = loc
}

func formatTime(t time.Time, layout string) string {
	if timeLocation != nil {
		t = t.In(timeLocation)
	}
	return t.Format(layout)
}

func formatTimestamp(t time.Time) string {
	return formatTime(t, timeLayout)
}

func formatTimestampShort(t time.Time) string {
	return formatTime(t, timeLayoutShort)
}

// colorEnabled returns true if color output should be used
func colorEnabled() bool {
	switch flags.Color {
	case "always":
		return true
	case "never":
		return false
	default: // "auto"
		info, err := os.Stdout.Stat()
		if err != nil {
			return false
		}
		return (info.Mode() & os.ModeCharDevice) != 0
	}
}

// colorize wraps text with ANSI color codes if color is enabled
func colorize(text, color string) string {
	if !colorEnabled() {
		return text
	}
	return color + text + colorReset
}

func red(text string) string    { return colorize(text, colorRed) }
func green(text string) string  { return colorize(text, colorGreen) }
func yellow(text string) string { return colorize(text, colorYellow) }
func bold(text string) string   { return colorize(text, colorBold) }

func loadAtValue(value string) (string, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "@") {
		return value, nil
	}
	target := strings.TrimPrefix(value, "@")
	if target == "" {
		return "", fmt.Errorf("invalid @ value: missing path (use @- for stdin)")
	}
	if target == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", target, err)
	}
	return string(data), nil
}

// ParseStringListFlag parses a comma/whitespace/newline separated flag value into a list of strings.
// It supports @- (stdin) and @path (file), and also accepts JSON array inputs.
//
// This is useful for list flags like --to that take usernames rather than numeric IDs.
func ParseStringListFlag(value string) ([]string, error) {
	value = strings.TrimSpace(value)
	raw, err := loadAtValue(value)
	if err != nil {
		return nil, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("no values provided")
	}

	// JSON array input: ["a","b"] or [1,2]
	if strings.HasPrefix(raw, "[") {
		var arr []any
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			out := make([]string, 0, len(arr))
			for _, v := range arr {
				switch vv := v.(type) {
				case string:
					s := strings.TrimSpace(vv)
					if s != "" {
						out = append(out, s)
					}
				case float64:
					i := int(vv)
					if float64(i) != vv {
						return nil, fmt.Errorf("invalid value %v: expected string or integer", vv)
					}
					out = append(out, fmt.Sprintf("%d", i))
				default:
					return nil, fmt.Errorf("invalid value %v: expected string or integer", v)
				}
			}
			if len(out) == 0 {
				return nil, fmt.Errorf("no valid values provided")
			}
			return out, nil
		}
	}

	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no valid values provided")
	}
	return out, nil
}

func resolveCacheDir() string {
	if dir := os.Getenv("PD_CACHE_DIR"); dir != "" {
		return dir
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return ""
	}
	return dir
}

// resolveGroupID resolves a group identifier to a numeric ID.
// Accepts: numeric ID (with optional # prefix), a pasted PassDrive web URL
// carrying ?group=, or a group name (fuzzy match against the member list,
// cached).
func resolveGroupID(ctx context.Context, client *api.Client, identifier string) (int64, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return 0, fmt.Errorf("group identifier cannot be empty")
	}

	if id, err := parseGroupArg(identifier); err == nil {
		return id, nil
	}

	dir := resolveCacheDir()
	var groups []api.Group

	if dir != "" {
		store := cache.NewStore(dir, "groups", client.BaseURL, client.Username)
		if store.Get(&groups) {
			if id, err := fuzzyMatchGroups(identifier, groups); err == nil {
				return id, nil
			}
			// Cache might be stale, fall through to API.
		}
	}

	var err error
	groups, err = client.ListGroups(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list groups: %w", err)
	}

	if dir != "" {
		store := cache.NewStore(dir, "groups", client.BaseURL, client.Username)
		store.Put(groups)
	}

	return fuzzyMatchGroups(identifier, groups)
}

func fuzzyMatchGroups(query string, groups []api.Group) (int64, error) {
	items := make([]resolve.Named, len(groups))
	groupByID := make(map[int64]api.Group, len(groups))
	for i, g := range groups {
		items[i] = resolve.Named{ID: g.ID, Name: g.Name}
		groupByID[g.ID] = g
	}

	id, err := resolve.FuzzyMatch(query, items)
	if err == nil {
		return id, nil
	}

	var ae *resolve.AmbiguousError
	if errors.As(err, &ae) {
		var options []string
		for _, m := range ae.Matches {
			g := groupByID[m.ID]
			options = append(options, fmt.Sprintf("  %d: %s (%d members)", g.ID, g.Name, len(g.Members)))
		}
		return 0, fmt.Errorf("multiple groups match %q, specify ID:\n%s", query, strings.Join(options, "\n"))
	}

	matches := resolve.FuzzyMatchAll(query, items, 5)
	if len(matches) == 0 {
		return 0, fmt.Errorf("no group found matching %q", query)
	}
	var options []string
	for _, m := range matches {
		g := groupByID[m.ID]
		options = append(options, fmt.Sprintf("  %d: %s (%d members)", g.ID, g.Name, len(g.Members)))
	}
	return 0, fmt.Errorf("no group found matching %q, best matches:\n%s", query, strings.Join(options, "\n"))
}

// parseGroupArg parses a group ID argument, accepting the common agent
// shorthands "#12" and "group:12" plus pasted PassDrive chat URLs.
func parseGroupArg(input string) (int64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("invalid group ID: empty input")
	}

	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return groupIDFromURL(input)
	}

	if prefix, rest, ok := strings.Cut(input, ":"); ok {
		switch strings.ToLower(strings.TrimSpace(prefix)) {
		case "group", "groups", "g":
			input = strings.TrimSpace(rest)
		}
	}

	return validation.ParsePositiveID(input, "group ID")
}

// parsePasskeyArg parses a passkey argument, accepting pasted pass-share URLs.
func parsePasskeyArg(input string) (string, error) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return passkeyFromURL(input)
	}
	passkey := strings.ToUpper(input)
	if err := validation.ValidatePasskey(passkey); err != nil {
		return "", err
	}
	return passkey, nil
}

// printJSONErr writes a JSON value to stderr, applying agent formatting when appropriate.
func printJSONErr(cmd *cobra.Command, v any) error {
	ioStreams := iocontext.GetIO(cmd.Context())
	if outfmt.IsAgent(cmd.Context()) {
		kind := agentfmt.KindFromCommandPath(cmd.CommandPath())
		v = agentfmt.Transform(kind, v)
	}
	return outfmt.WriteJSON(ioStreams.ErrOut, v)
}

// RunE wraps a command function with enhanced error handling
func RunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err != nil {
			if isJSON(cmd) {
				if structured := api.StructuredErrorFromError(err); structured != nil {
					_ = printJSONErr(cmd, structured)
				}
			} else {
				_, _ = fmt.Fprint(cmd.ErrOrStderr(), HandleError(err))
			}
			// Return a handled error so tests can still inspect the original message.
			return &handledError{err: err, exitCode: ExitCode(err)}
		}
		return nil
	}
}

// webURL builds a PassDrive web UI URL for a page with optional query params.
func webURL(baseURL, page string, params map[string]string) string {
	u := strings.TrimSuffix(baseURL, "/") + "/" + page
	if len(params) == 0 {
		return u
	}
	var parts []string
	for k, v := range params {
		parts = append(parts, k+"="+v)
	}
	return u + "?" + strings.Join(parts, "&")
}

// accountFromConfig loads the stored account, translating the not-configured
// sentinel into a friendlier message.
func accountFromConfig() (config.Account, error) {
	account, err := config.LoadAccount()
	if err != nil {
		if errors.Is(err, config.ErrNotConfigured) {
			return config.Account{}, fmt.Errorf("not authenticated; run 'pd auth login' first")
		}
		return config.Account{}, fmt.Errorf("failed to load credentials: %w", err)
	}
	return account, nil
}
