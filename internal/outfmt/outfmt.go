// Package outfmt selects and renders the output format for commands:
// human text, JSON, JSON Lines, or the compact agent envelope format.
package outfmt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Mode is the selected output format.
type Mode int

const (
	Text Mode = iota
	JSON
	JSONL
	Agent
)

// Parse maps a --output flag value to a Mode. The empty string means
// the default text mode.
func Parse(s string) (Mode, error) {
	switch s {
	case "", "text":
		return Text, nil
	case "json":
		return JSON, nil
	case "jsonl", "ndjson":
		return JSONL, nil
	case "agent":
		return Agent, nil
	}
	return Text, fmt.Errorf("invalid output format: %q (use 'text', 'json', 'jsonl', 'ndjson', or 'agent')", s)
}

func (m Mode) String() string {
	switch m {
	case JSON:
		return "json"
	case JSONL:
		return "jsonl"
	case Agent:
		return "agent"
	}
	return "text"
}

type (
	contextKey struct{}
	compactKey struct{}
	lightKey   struct{}
)

// WithMode stores the output mode on the context.
func WithMode(ctx context.Context, mode Mode) context.Context {
	return context.WithValue(ctx, contextKey{}, mode)
}

// ModeFromContext returns the mode set on the context, or Text.
func ModeFromContext(ctx context.Context) Mode {
	if mode, ok := ctx.Value(contextKey{}).(Mode); ok {
		return mode
	}
	return Text
}

// IsJSON reports whether the context selects any machine-readable mode
// (json, jsonl, or agent).
func IsJSON(ctx context.Context) bool {
	switch ModeFromContext(ctx) {
	case JSON, JSONL, Agent:
		return true
	}
	return false
}

// IsJSONL reports whether the context selects newline-delimited JSON.
func IsJSONL(ctx context.Context) bool {
	return ModeFromContext(ctx) == JSONL
}

// IsAgent reports whether the context selects agent envelopes.
func IsAgent(ctx context.Context) bool {
	return ModeFromContext(ctx) == Agent
}

// WithCompact stores the single-line JSON preference on the context.
func WithCompact(ctx context.Context, compact bool) context.Context {
	return context.WithValue(ctx, compactKey{}, compact)
}

// IsCompact reports whether single-line JSON was requested.
func IsCompact(ctx context.Context) bool {
	compact, _ := ctx.Value(compactKey{}).(bool)
	return compact
}

// WithLight marks the context as light output. Light payloads keep
// their short JSON keys, so query alias expansion must be skipped.
func WithLight(ctx context.Context, light bool) context.Context {
	return context.WithValue(ctx, lightKey{}, light)
}

// IsLight reports whether light output is active.
func IsLight(ctx context.Context) bool {
	light, _ := ctx.Value(lightKey{}).(bool)
	return light
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	return WriteJSONMaybeCompact(w, v, false)
}

// WriteJSONMaybeCompact writes v as JSON, single-line when compact is
// set and indented otherwise.
func WriteJSONMaybeCompact(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
