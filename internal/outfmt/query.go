package outfmt

import (
	"context"
	"encoding/json"
	"io"

	"github.com/passdrive/passdrive-cli/internal/filter"
)

type queryKey struct{}

// WithQuery stores a jq query string on the context.
func WithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, queryKey{}, query)
}

// GetQuery returns the jq query set on the context, if any.
func GetQuery(ctx context.Context) string {
	q, _ := ctx.Value(queryKey{}).(string)
	return q
}

// runQuery marshals v, pushes it through the jq filter, and returns
// the re-decoded result. literal skips alias expansion in the query.
func runQuery(v any, query string, literal bool) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var filtered []byte
	if literal {
		filtered, err = filter.ApplyToJSONLiteral(data, query)
	} else {
		filtered, err = filter.ApplyToJSON(data, query)
	}
	if err != nil {
		return nil, err
	}

	var out any
	if err := json.Unmarshal(filtered, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyQuery applies a jq query to v after list normalization.
func ApplyQuery(v any, query string) (any, error) {
	v = normalizeJSONOutput(v)
	if query == "" {
		return v, nil
	}
	return runQuery(v, query, false)
}

// ApplyQueryLiteral is ApplyQuery without query alias expansion, for
// light payloads whose keys are intentionally short.
func ApplyQueryLiteral(v any, query string) (any, error) {
	v = normalizeJSONOutput(v)
	if query == "" {
		return v, nil
	}
	return runQuery(v, query, true)
}

// WriteJSONFiltered writes v as JSON after running the jq query.
// Output is indented unless compact is set.
func WriteJSONFiltered(w io.Writer, v any, query string, compact bool) error {
	return writeFiltered(w, v, query, compact, false)
}

// WriteJSONFilteredLiteral is WriteJSONFiltered without query alias
// expansion.
func WriteJSONFilteredLiteral(w io.Writer, v any, query string, compact bool) error {
	return writeFiltered(w, v, query, compact, true)
}

func writeFiltered(w io.Writer, v any, query string, compact, literal bool) error {
	v = normalizeJSONOutput(v)
	if query == "" {
		return WriteJSONMaybeCompact(w, v, compact)
	}
	result, err := runQuery(v, query, literal)
	if err != nil {
		return err
	}
	return WriteJSONMaybeCompact(w, result, compact)
}
