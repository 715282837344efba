package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// enhanceUnknownError improves cobra's "unknown command" errors with
// did-you-mean suggestions based on edit distance.
func enhanceUnknownError(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	if !strings.Contains(msg, "unknown command") {
		return err
	}

	unknown := extractUnknownCommand(msg)
	if unknown == "" {
		return err
	}

	suggestions := suggestCommands(cmd, unknown)
	if len(suggestions) == 0 {
		return err
	}

	var sb strings.Builder
	sb.WriteString(msg)
	sb.WriteString("\n\nDid you mean this?\n")
	for _, s := range suggestions {
		sb.WriteString(fmt.Sprintf("\t%s\n", s))
	}
	return fmt.Errorf("%s", sb.String())
}

func extractUnknownCommand(msg string) string {
	// cobra format: unknown command "foo" for "pd"
	start := strings.Index(msg, "\"")
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], "\"")
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

func suggestCommands(root *cobra.Command, unknown string) []string {
	var suggestions []string
	for _, c := range root.Commands() {
		if c.Hidden || c.Name() == "help" {
			continue
		}
		candidates := append([]string{c.Name()}, c.Aliases...)
		for _, name := range candidates {
			dist := levenshtein(unknown, name)
			if dist <= 2 || strings.HasPrefix(name, unknown) {
				suggestions = append(suggestions, c.Name())
				break
			}
		}
	}
	return suggestions
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}
