// Package dryrun renders previews of mutations without performing them.
package dryrun

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
)

type dryRunKey struct{}

// WithDryRun marks the context as dry-run.
func WithDryRun(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, dryRunKey{}, enabled)
}

// IsEnabled reports whether the context is in dry-run mode.
func IsEnabled(ctx context.Context) bool {
	enabled, _ := ctx.Value(dryRunKey{}).(bool)
	return enabled
}

// Preview describes the mutation a command would have performed.
type Preview struct {
	Operation   string
	Resource    string
	Description string
	Details     map[string]any
	Warnings    []string
}

const divider = "───────────────────────────────────────"

// Write renders the preview. Details print in sorted key order so the
// output is stable.
func (p *Preview) Write(w io.Writer) {
	_, _ = fmt.Fprintf(w, "\n[DRY-RUN] Would %s %s\n", p.Operation, p.Resource)
	_, _ = fmt.Fprintln(w, divider)

	if p.Description != "" {
		_, _ = fmt.Fprintf(w, "%s\n\n", p.Description)
	}

	if len(p.Details) > 0 {
		keys := make([]string, 0, len(p.Details))
		for k := range p.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_, _ = fmt.Fprintf(w, "  %s: %v\n", k, p.Details[k])
		}
		_, _ = fmt.Fprintln(w)
	}

	if len(p.Warnings) > 0 {
		_, _ = fmt.Fprintln(w, "Warnings:")
		for _, warning := range p.Warnings {
			_, _ = fmt.Fprintf(w, "  ! %s\n", strings.TrimSpace(warning))
		}
		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintln(w, divider)
	_, _ = fmt.Fprintln(w, "No changes made (dry-run mode)")
}
