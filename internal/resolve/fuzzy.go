// Package resolve turns user-typed group names into IDs with fuzzy
// matching, so `pd send deploy` works without remembering numbers.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Named is a resource that can be matched by display name.
type Named struct {
	ID   int64
	Name string
}

// Match is one ranked candidate from a fuzzy search.
type Match struct {
	ID    int64
	Name  string
	Score int
}

var (
	ErrEmptyQuery = errors.New("empty search query")
	ErrEmptyItems = errors.New("no items to match against")
)

// AmbiguousError reports that a query matched several names equally
// well. Matches are ranked best-first and capped at five.
type AmbiguousError struct {
	Query   string
	Matches []Match
}

func (e *AmbiguousError) Error() string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "ambiguous match for %q", e.Query)
	if len(e.Matches) > 0 {
		b.WriteString(", candidates:")
		for _, m := range e.Matches {
			_, _ = fmt.Fprintf(&b, "\n  %d: %s", m.ID, m.Name)
		}
	}
	return b.String()
}

// lowerNames adapts a Named slice to fuzzy.Source, folding case so
// matching is case-insensitive.
type lowerNames []Named

func (s lowerNames) String(i int) string { return strings.ToLower(s[i].Name) }
func (s lowerNames) Len() int            { return len(s) }

// FuzzyMatch resolves a query to a single ID. An exact
// case-insensitive name match always wins; otherwise the best fuzzy
// match is used, and a score tie between the top two candidates is
// reported as *AmbiguousError rather than guessed at.
func FuzzyMatch(query string, items []Named) (int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, ErrEmptyQuery
	}
	if len(items) == 0 {
		return 0, ErrEmptyItems
	}

	for _, item := range items {
		if strings.EqualFold(item.Name, query) {
			return item.ID, nil
		}
	}

	ranked := fuzzy.FindFrom(strings.ToLower(query), lowerNames(items))
	switch {
	case len(ranked) == 0:
		return 0, fmt.Errorf("no match found for %q", query)
	case len(ranked) > 1 && ranked[0].Score == ranked[1].Score:
		return 0, &AmbiguousError{Query: query, Matches: collect(items, ranked, 5)}
	}
	return items[ranked[0].Index].ID, nil
}

// FuzzyMatchAll returns up to limit candidates ranked best-first.
func FuzzyMatchAll(query string, items []Named, limit int) []Match {
	query = strings.TrimSpace(query)
	if query == "" || len(items) == 0 || limit <= 0 {
		return nil
	}
	return collect(items, fuzzy.FindFrom(strings.ToLower(query), lowerNames(items)), limit)
}

func collect(items []Named, ranked fuzzy.Matches, limit int) []Match {
	if len(ranked) == 0 || limit <= 0 {
		return nil
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	matches := make([]Match, len(ranked))
	for i, r := range ranked {
		matches[i] = Match{
			ID:    items[r.Index].ID,
			Name:  items[r.Index].Name,
			Score: r.Score,
		}
	}
	return matches
}
