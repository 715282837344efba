// Package filter runs jq expressions over command output via gojq.
package filter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/passdrive/passdrive-cli/internal/queryalias"
)

// NormalizeExpression undoes shell escaping and expands query aliases.
// Zsh turns ! into \! even inside single quotes, which breaks != and
// "not" filters.
func NormalizeExpression(expr string) string {
	return queryalias.Normalize(fixShellEscapes(expr), queryalias.ContextQuery)
}

func fixShellEscapes(expr string) string {
	return strings.ReplaceAll(expr, `\!`, `!`)
}

// Apply runs a jq expression over data, with alias expansion.
func Apply(data any, expression string) (any, error) {
	return applyWith(data, expression, NormalizeExpression)
}

// ApplyLiteral runs a jq expression without alias expansion. Light
// payloads use short keys on purpose, and expanding aliases there
// would rewrite real field names.
func ApplyLiteral(data any, expression string) (any, error) {
	return applyWith(data, expression, fixShellEscapes)
}

// ApplyToJSON filters JSON bytes and returns indented JSON bytes.
func ApplyToJSON(jsonData []byte, expression string) ([]byte, error) {
	return applyToJSONWith(jsonData, expression, Apply)
}

// ApplyToJSONLiteral is ApplyToJSON without alias expansion.
func ApplyToJSONLiteral(jsonData []byte, expression string) ([]byte, error) {
	return applyToJSONWith(jsonData, expression, ApplyLiteral)
}

// ApplyFromJSON filters JSON bytes and returns the decoded result for
// the caller to format.
func ApplyFromJSON(jsonData []byte, expression string) (any, error) {
	data, err := decode(jsonData)
	if err != nil {
		return nil, err
	}
	return Apply(data, expression)
}

// ApplyFromJSONLiteral is ApplyFromJSON without alias expansion.
func ApplyFromJSONLiteral(jsonData []byte, expression string) (any, error) {
	data, err := decode(jsonData)
	if err != nil {
		return nil, err
	}
	return ApplyLiteral(data, expression)
}

func decode(jsonData []byte) (any, error) {
	var data any
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return data, nil
}

func applyWith(data any, expression string, normalize func(string) string) (any, error) {
	if expression == "" {
		return data, nil
	}

	query, err := gojq.Parse(normalize(expression))
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	results, err := runQuery(query, data)
	if err != nil {
		// Users write .[] against list output even though lists are
		// wrapped as {"items": [...]}. Retry against the inner array.
		if items, ok := itemsFallback(data, expression, err); ok {
			if retried, retryErr := runQuery(query, items); retryErr == nil {
				results, err = retried, nil
			}
		}
	}
	if err != nil {
		return nil, err
	}

	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

func runQuery(query *gojq.Query, data any) ([]any, error) {
	var results []any
	iter := query.Run(data)
	for {
		v, ok := iter.Next()
		if !ok {
			return results, nil
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("filter error: %w", err)
		}
		results = append(results, v)
	}
}

func itemsFallback(data any, expression string, runErr error) (any, bool) {
	if !looksLikeRootArrayQuery(expression) {
		return nil, false
	}
	if !strings.Contains(runErr.Error(), "expected an object but got: array") {
		return nil, false
	}

	m, ok := data.(map[string]any)
	if !ok {
		return nil, false
	}
	items, ok := m["items"].([]any)
	if !ok {
		return nil, false
	}
	return items, true
}

func looksLikeRootArrayQuery(expression string) bool {
	expr := strings.TrimSpace(expression)
	for _, prefix := range []string{".[]", "[.[]", "(.[]"} {
		if strings.HasPrefix(expr, prefix) {
			return true
		}
	}
	return false
}

func applyToJSONWith(jsonData []byte, expression string, apply func(any, string) (any, error)) ([]byte, error) {
	if expression == "" {
		return jsonData, nil
	}

	data, err := decode(jsonData)
	if err != nil {
		return nil, err
	}
	result, err := apply(data, expression)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(result, "", "  ")
}
